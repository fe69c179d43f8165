package handlers

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wanderstack/tourism-backend/internal/database"
	"github.com/wanderstack/tourism-backend/internal/models"
	"github.com/wanderstack/tourism-backend/internal/services"
	"github.com/wanderstack/tourism-backend/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

// memoryAccounts is a minimal in-memory account store for the HTTP tests
type memoryAccounts struct {
	accounts map[uuid.UUID]*models.Account
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{accounts: map[uuid.UUID]*models.Account{}}
}

func (m *memoryAccounts) Create(account *models.Account) error {
	account.ID = uuid.New()
	m.accounts[account.ID] = account
	return nil
}

func (m *memoryAccounts) GetByID(id uuid.UUID) (*models.Account, error) {
	return m.accounts[id], nil
}

func (m *memoryAccounts) GetByEmail(email string) (*models.Account, error) {
	for _, a := range m.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, nil
}

func (m *memoryAccounts) GetByEmailAndRole(email, role string) (*models.Account, error) {
	for _, a := range m.accounts {
		if a.Email == email && a.Role == role {
			return a, nil
		}
	}
	return nil, nil
}

func (m *memoryAccounts) SuperAdminExists() (bool, error) {
	for _, a := range m.accounts {
		if a.Role == models.RoleSuperAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryAccounts) SetVerificationToken(id uuid.UUID, token string) error {
	a, ok := m.accounts[id]
	if !ok {
		return database.ErrNotFound
	}
	a.PendingVerificationToken = models.SomeString(token)
	return nil
}

func (m *memoryAccounts) MarkVerified(id uuid.UUID) error {
	a, ok := m.accounts[id]
	if !ok {
		return database.ErrNotFound
	}
	a.IsVerified = true
	return nil
}

func (m *memoryAccounts) SetPasswordHash(id uuid.UUID, hash string) error {
	a, ok := m.accounts[id]
	if !ok {
		return database.ErrNotFound
	}
	a.PasswordHash = hash
	return nil
}

func (m *memoryAccounts) SetOTP(id uuid.UUID, otp string, expiry time.Time) error {
	a, ok := m.accounts[id]
	if !ok {
		return database.ErrNotFound
	}
	a.OTP = models.SomeString(otp)
	a.OTPExpiry = models.SomeTime(expiry)
	return nil
}

func (m *memoryAccounts) ClearOTP(id uuid.UUID) error {
	a, ok := m.accounts[id]
	if !ok {
		return database.ErrNotFound
	}
	a.OTP = models.NullString{}
	a.OTPExpiry = models.NullTime{}
	return nil
}

func (m *memoryAccounts) SetLoggedIn(id uuid.UUID, loggedIn bool) error {
	a, ok := m.accounts[id]
	if !ok {
		return database.ErrNotFound
	}
	a.IsLoggedIn = loggedIn
	return nil
}

func (m *memoryAccounts) ApproveAdmin(id uuid.UUID) error {
	a, ok := m.accounts[id]
	if !ok || a.Role != models.RoleAdmin {
		return database.ErrNotFound
	}
	a.IsActive = true
	a.Status = models.AccountStatusApproved
	return nil
}

func (m *memoryAccounts) UpdateProfile(id uuid.UUID, displayName, contactNumber string, avatarURL models.NullString) error {
	a, ok := m.accounts[id]
	if !ok {
		return database.ErrNotFound
	}
	if displayName != "" {
		a.DisplayName = displayName
	}
	if contactNumber != "" {
		a.ContactNumber = contactNumber
	}
	if avatarURL.Valid {
		a.AvatarURL = avatarURL
	}
	return nil
}

type memorySessions struct{}

func (m *memorySessions) Replace(accountID uuid.UUID, role, ipAddress, device string) (*models.Session, error) {
	return &models.Session{ID: uuid.New(), AccountID: accountID, Role: role}, nil
}

func (m *memorySessions) Exists(accountID uuid.UUID, role string) (bool, error) {
	return true, nil
}

func (m *memorySessions) Delete(accountID uuid.UUID, role string) error {
	return nil
}

type noopMailer struct{}

func (noopMailer) SendVerification(email, token string) {}
func (noopMailer) SendOTP(email, otp string)            {}

type registrationFixture struct {
	router   *gin.Engine
	accounts *memoryAccounts
}

func newRegistrationFixture(t *testing.T) *registrationFixture {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	accounts := newMemoryAccounts()
	jwtService := jwt.NewService("test-secret-key-123456789", time.Hour, 24*time.Hour, 24*time.Hour)

	accountService := services.NewAccountService(
		accounts,
		&memorySessions{},
		services.NewOTPService(accounts),
		jwtService,
		&fakeUploader{},
		noopMailer{},
		logger,
		bcrypt.MinCost,
		10*24*time.Hour,
		14*24*time.Hour,
	)

	h := NewAdminHandler(accountService, logger, t.TempDir())

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/user/user-registration", h.Register)
	router.POST("/api/admin/admin-registration", h.RegisterAdmin)

	return &registrationFixture{router: router, accounts: accounts}
}

// registrationForm builds the multipart registration body, with or without
// the avatar file part.
func registrationForm(t *testing.T, withAvatar bool) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fields := map[string]string{
		"display_name":   "Asha",
		"email":          "asha@example.com",
		"contact_number": "9876543210",
		"password":       "secret123",
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if withAvatar {
		part, err := writer.CreateFormFile("avatar", "avatar.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("fake-png-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestRegisterRejectsMissingAvatar(t *testing.T) {
	f := newRegistrationFixture(t)

	for _, path := range []string{"/api/user/user-registration", "/api/admin/admin-registration"} {
		body, contentType := registrationForm(t, false)
		req := httptest.NewRequest("POST", path, body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		envelope := decodeEnvelope(t, w)
		assert.Equal(t, false, envelope["success"])
		assert.Equal(t, "Avatar file is required", envelope["message"])
	}

	assert.Empty(t, f.accounts.accounts)
}

func TestRegisterStoresUploadedAvatar(t *testing.T) {
	f := newRegistrationFixture(t)

	for _, path := range []string{"/api/user/user-registration", "/api/admin/admin-registration"} {
		body, contentType := registrationForm(t, true)
		req := httptest.NewRequest("POST", path, body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code, path)
		envelope := decodeEnvelope(t, w)
		data := envelope["data"].(map[string]interface{})
		avatarURL, _ := data["avatar_url"].(string)
		assert.NotEmpty(t, avatarURL, path)
	}
}