package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wanderstack/tourism-backend/internal/database"
	"github.com/wanderstack/tourism-backend/internal/models"
	"github.com/wanderstack/tourism-backend/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

// memoryAccountStore is an in-memory accountStore for service tests
type memoryAccountStore struct {
	accounts map[uuid.UUID]*models.Account
}

func newMemoryAccountStore() *memoryAccountStore {
	return &memoryAccountStore{accounts: map[uuid.UUID]*models.Account{}}
}

func (m *memoryAccountStore) Create(account *models.Account) error {
	for _, existing := range m.accounts {
		if strings.EqualFold(existing.Email, account.Email) {
			return database.ErrDuplicateEmail
		}
		if existing.Role == models.RoleSuperAdmin && account.Role == models.RoleSuperAdmin {
			return database.ErrSuperAdminExists
		}
	}
	account.ID = uuid.New()
	m.accounts[account.ID] = account
	return nil
}

func (m *memoryAccountStore) GetByID(id uuid.UUID) (*models.Account, error) {
	return m.accounts[id], nil
}

func (m *memoryAccountStore) GetByEmail(email string) (*models.Account, error) {
	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return nil, nil
}

func (m *memoryAccountStore) GetByEmailAndRole(email, role string) (*models.Account, error) {
	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, email) && a.Role == role {
			return a, nil
		}
	}
	return nil, nil
}

func (m *memoryAccountStore) SuperAdminExists() (bool, error) {
	for _, a := range m.accounts {
		if a.Role == models.RoleSuperAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryAccountStore) SetVerificationToken(id uuid.UUID, token string) error {
	a, ok := m.accounts[id]
	if !ok {
		return database.ErrNotFound
	}
	a.PendingVerificationToken = models.SomeString(token)
	return nil
}

func (m *memoryAccountStore) MarkVerified(id uuid.UUID) error {
	a, ok := m.accounts[id]
	if !ok {
		return database.ErrNotFound
	}
	a.IsVerified = true
	a.PendingVerificationToken = models.NullString{}
	return nil
}

func (m *memoryAccountStore) SetPasswordHash(id uuid.UUID, hash string) error {
	a, ok := m.accounts[id]
	if !ok {
		return database.ErrNotFound
	}
	a.PasswordHash = hash
	return nil
}

func (m *memoryAccountStore) SetOTP(id uuid.UUID, otp string, expiry time.Time) error {
	a, ok := m.accounts[id]
	if !ok {
		return database.ErrNotFound
	}
	a.OTP = models.SomeString(otp)
	a.OTPExpiry = models.SomeTime(expiry)
	return nil
}

func (m *memoryAccountStore) ClearOTP(id uuid.UUID) error {
	a, ok := m.accounts[id]
	if !ok {
		return database.ErrNotFound
	}
	a.OTP = models.NullString{}
	a.OTPExpiry = models.NullTime{}
	return nil
}

func (m *memoryAccountStore) SetLoggedIn(id uuid.UUID, loggedIn bool) error {
	a, ok := m.accounts[id]
	if !ok {
		return database.ErrNotFound
	}
	a.IsLoggedIn = loggedIn
	return nil
}

func (m *memoryAccountStore) ApproveAdmin(id uuid.UUID) error {
	a, ok := m.accounts[id]
	if !ok || a.Role != models.RoleAdmin {
		return database.ErrNotFound
	}
	a.IsActive = true
	a.Status = models.AccountStatusApproved
	return nil
}

func (m *memoryAccountStore) UpdateProfile(id uuid.UUID, displayName, contactNumber string, avatarURL models.NullString) error {
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

// memorySessionStore keeps at most one session per (account, role)
type memorySessionStore struct {
	sessions map[string]*models.Session
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: map[string]*models.Session{}}
}

func sessionKey(accountID uuid.UUID, role string) string {
	return accountID.String() + "/" + role
}

func (m *memorySessionStore) Replace(accountID uuid.UUID, role, ipAddress, device string) (*models.Session, error) {
	session := &models.Session{
		ID:        uuid.New(),
		AccountID: accountID,
		Role:      role,
		CreatedAt: time.Now(),
	}
	m.sessions[sessionKey(accountID, role)] = session
	return session, nil
}

func (m *memorySessionStore) Exists(accountID uuid.UUID, role string) (bool, error) {
	_, ok := m.sessions[sessionKey(accountID, role)]
	return ok, nil
}

func (m *memorySessionStore) Delete(accountID uuid.UUID, role string) error {
	delete(m.sessions, sessionKey(accountID, role))
	return nil
}

// recordingMailer captures the fire-and-forget mail calls
type recordingMailer struct {
	verificationTokens []string
	otps               []string
}

func (m *recordingMailer) SendVerification(email, token string) {
	m.verificationTokens = append(m.verificationTokens, token)
}

func (m *recordingMailer) SendOTP(email, otp string) {
	m.otps = append(m.otps, otp)
}

type accountFixture struct {
	svc      *AccountService
	accounts *memoryAccountStore
	sessions *memorySessionStore
	mail     *recordingMailer
	uploader *fakeUploader
	jwt      *jwt.Service
}

func newAccountFixture() *accountFixture {
	accounts := newMemoryAccountStore()
	sessions := newMemorySessionStore()
	mail := &recordingMailer{}
	uploader := &fakeUploader{}
	jwtService := jwt.NewService("test-secret-key-123456789", time.Hour, 24*time.Hour, 24*time.Hour)

	svc := NewAccountService(
		accounts,
		sessions,
		NewOTPService(accounts),
		jwtService,
		uploader,
		mail,
		testLogger(),
		bcrypt.MinCost,
		10*24*time.Hour,
		14*24*time.Hour,
	)

	return &accountFixture{svc: svc, accounts: accounts, sessions: sessions, mail: mail, uploader: uploader, jwt: jwtService}
}

func registerInput(email string) RegisterInput {
	return RegisterInput{
		DisplayName:   "Asha",
		Email:         email,
		ContactNumber: "9876543210",
		Password:      "secret123",
		AvatarPath:    "/tmp/avatar.png",
	}
}

func (f *accountFixture) registerVerifiedUser(t *testing.T, email string) *models.Account {
	t.Helper()
	account, err := f.svc.RegisterUser(context.Background(), registerInput(email))
	require.NoError(t, err)
	require.NoError(t, f.accounts.MarkVerified(account.ID))
	return account
}

func TestRegisterUserSendsVerificationMail(t *testing.T) {
	f := newAccountFixture()

	account, err := f.svc.RegisterUser(context.Background(), registerInput("asha@example.com"))
	require.NoError(t, err)

	assert.Equal(t, models.RoleUser, account.Role)
	assert.False(t, account.IsVerified)
	assert.NotEqual(t, "secret123", account.PasswordHash)
	require.Len(t, f.mail.verificationTokens, 1)

	// The mailed token is the stored pending token.
	assert.Equal(t, f.mail.verificationTokens[0], account.PendingVerificationToken.String)
}

func TestRegistrationRequiresAvatar(t *testing.T) {
	f := newAccountFixture()

	input := registerInput("asha@example.com")
	input.AvatarPath = ""

	_, err := f.svc.RegisterUser(context.Background(), input)
	assert.ErrorIs(t, err, ErrMissingAvatar)

	_, err = f.svc.RegisterAdmin(context.Background(), input)
	assert.ErrorIs(t, err, ErrMissingAvatar)

	_, err = f.svc.RegisterSuperAdmin(context.Background(), input)
	assert.ErrorIs(t, err, ErrMissingAvatar)

	// Nothing was persisted or mailed for the rejected registrations.
	assert.Empty(t, f.accounts.accounts)
	assert.Empty(t, f.mail.verificationTokens)
}

func TestRegistrationUploadsAvatarForEveryRole(t *testing.T) {
	f := newAccountFixture()

	user, err := f.svc.RegisterUser(context.Background(), registerInput("asha@example.com"))
	require.NoError(t, err)
	assert.True(t, user.AvatarURL.Valid)

	admin, err := f.svc.RegisterAdmin(context.Background(), registerInput("admin@example.com"))
	require.NoError(t, err)
	assert.True(t, admin.AvatarURL.Valid)

	super, err := f.svc.RegisterSuperAdmin(context.Background(), registerInput("root@example.com"))
	require.NoError(t, err)
	assert.True(t, super.AvatarURL.Valid)

	assert.Len(t, f.uploader.uploads, 3)
}

func TestLoginChecksInOrder(t *testing.T) {
	f := newAccountFixture()

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := f.svc.Login("nobody@example.com", models.RoleUser, "secret123", "", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	account, err := f.svc.RegisterUser(context.Background(), registerInput("asha@example.com"))
	require.NoError(t, err)

	t.Run("wrong password before verification check", func(t *testing.T) {
		_, _, err := f.svc.Login("asha@example.com", models.RoleUser, "wrong", "", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unverified account", func(t *testing.T) {
		_, _, err := f.svc.Login("asha@example.com", models.RoleUser, "secret123", "", "")
		assert.ErrorIs(t, err, ErrAccountNotVerified)
	})

	require.NoError(t, f.accounts.MarkVerified(account.ID))

	t.Run("success", func(t *testing.T) {
		logged, tokens, err := f.svc.Login("asha@example.com", models.RoleUser, "secret123", "10.0.0.1", "Firefox on Linux")
		require.NoError(t, err)
		assert.True(t, logged.IsLoggedIn)
		assert.NotEmpty(t, tokens.AccessToken)
		assert.NotEmpty(t, tokens.RefreshToken)

		live, err := f.sessions.Exists(account.ID, models.RoleUser)
		require.NoError(t, err)
		assert.True(t, live)
	})
}

func TestLoginDisplacesPriorSession(t *testing.T) {
	f := newAccountFixture()
	account := f.registerVerifiedUser(t, "asha@example.com")

	_, _, err := f.svc.Login("asha@example.com", models.RoleUser, "secret123", "", "")
	require.NoError(t, err)
	first := f.sessions.sessions[sessionKey(account.ID, models.RoleUser)]

	_, _, err = f.svc.Login("asha@example.com", models.RoleUser, "secret123", "", "")
	require.NoError(t, err)
	second := f.sessions.sessions[sessionKey(account.ID, models.RoleUser)]

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, f.sessions.sessions, 1)
}

func TestPendingAdminCannotLogin(t *testing.T) {
	f := newAccountFixture()

	admin, err := f.svc.RegisterAdmin(context.Background(), registerInput("admin@example.com"))
	require.NoError(t, err)
	require.NoError(t, f.accounts.MarkVerified(admin.ID))

	_, _, err = f.svc.Login("admin@example.com", models.RoleAdmin, "secret123", "", "")
	assert.ErrorIs(t, err, ErrAdminNotApproved)

	require.NoError(t, f.svc.ApproveAdmin(admin.ID))

	_, _, err = f.svc.Login("admin@example.com", models.RoleAdmin, "secret123", "", "")
	assert.NoError(t, err)
}

func TestOnlyOneSuperAdmin(t *testing.T) {
	f := newAccountFixture()

	_, err := f.svc.RegisterSuperAdmin(context.Background(), registerInput("root@example.com"))
	require.NoError(t, err)

	_, err = f.svc.RegisterSuperAdmin(context.Background(), registerInput("other@example.com"))
	assert.ErrorIs(t, err, database.ErrSuperAdminExists)
}

func TestLogoutKillsSessionAndRefresh(t *testing.T) {
	f := newAccountFixture()
	account := f.registerVerifiedUser(t, "asha@example.com")

	_, tokens, err := f.svc.Login("asha@example.com", models.RoleUser, "secret123", "", "")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(account.ID, models.RoleUser))

	live, err := f.sessions.Exists(account.ID, models.RoleUser)
	require.NoError(t, err)
	assert.False(t, live)
	assert.False(t, f.accounts.accounts[account.ID].IsLoggedIn)

	// The still-valid refresh token is useless without a live session.
	_, err = f.svc.Refresh(tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrNoLiveSession)
}

func TestRefreshWithLiveSession(t *testing.T) {
	f := newAccountFixture()
	f.registerVerifiedUser(t, "asha@example.com")

	_, tokens, err := f.svc.Login("asha@example.com", models.RoleUser, "secret123", "", "")
	require.NoError(t, err)

	refreshed, err := f.svc.Refresh(tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = f.jwt.ValidateAccessToken(refreshed.AccessToken)
	assert.NoError(t, err)
}

func TestVerifyFlow(t *testing.T) {
	f := newAccountFixture()

	account, err := f.svc.RegisterUser(context.Background(), registerInput("asha@example.com"))
	require.NoError(t, err)
	token := account.PendingVerificationToken.String

	t.Run("garbage token", func(t *testing.T) {
		_, err := f.svc.Verify("not-a-token")
		assert.ErrorIs(t, err, ErrVerificationInvalid)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := jwt.NewService("test-secret-key-123456789", time.Hour, 24*time.Hour, -time.Minute)
		expiredToken, err := expired.GenerateVerificationToken(account.ID)
		require.NoError(t, err)

		_, err = f.svc.Verify(expiredToken)
		assert.ErrorIs(t, err, ErrVerificationExpired)
	})

	t.Run("valid token verifies", func(t *testing.T) {
		verified, err := f.svc.Verify(token)
		require.NoError(t, err)
		assert.True(t, verified.IsVerified)
	})

	t.Run("already verified is a no-op", func(t *testing.T) {
		verified, err := f.svc.Verify(token)
		require.NoError(t, err)
		assert.True(t, verified.IsVerified)
	})
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAccountFixture()
	f.registerVerifiedUser(t, "asha@example.com")

	require.NoError(t, f.svc.ForgotPassword("asha@example.com"))
	require.Len(t, f.mail.otps, 1)
	otp := f.mail.otps[0]

	assert.ErrorIs(t, f.svc.VerifyOTP("asha@example.com", "000000"), ErrOTPMismatch)
	require.NoError(t, f.svc.VerifyOTP("asha@example.com", otp))

	// Consuming the OTP is one-shot.
	assert.ErrorIs(t, f.svc.VerifyOTP("asha@example.com", otp), ErrNoOTP)

	require.NoError(t, f.svc.ResetPassword("asha@example.com", "newsecret"))

	_, _, err := f.svc.Login("asha@example.com", models.RoleUser, "secret123", "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = f.svc.Login("asha@example.com", models.RoleUser, "newsecret", "", "")
	assert.NoError(t, err)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	f := newAccountFixture()
	assert.ErrorIs(t, f.svc.ForgotPassword("nobody@example.com"), database.ErrNotFound)
}

func TestChangePassword(t *testing.T) {
	f := newAccountFixture()
	account := f.registerVerifiedUser(t, "asha@example.com")

	assert.ErrorIs(t, f.svc.ChangePassword(account.ID, "wrong", "newsecret"), ErrWrongPassword)

	require.NoError(t, f.svc.ChangePassword(account.ID, "secret123", "newsecret"))

	_, _, err := f.svc.Login("asha@example.com", models.RoleUser, "newsecret", "", "")
	assert.NoError(t, err)
}
