package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wanderstack/tourism-backend/internal/models"
	"github.com/wanderstack/tourism-backend/pkg/jwt"
)

type fakeAccounts struct {
	accounts map[uuid.UUID]*models.Account
}

func (f *fakeAccounts) GetByID(id uuid.UUID) (*models.Account, error) {
	return f.accounts[id], nil
}

type fakeSessions struct {
	live map[string]bool
}

func (f *fakeSessions) Exists(accountID uuid.UUID, role string) (bool, error) {
	return f.live[accountID.String()+"/"+role], nil
}

func setupTestJWTService() *jwt.Service {
	return jwt.NewService("test-secret-key-123456789", time.Hour, 24*time.Hour, 24*time.Hour)
}

func setupProtectedRouter(jwtService *jwt.Service, accounts *fakeAccounts, sessions *fakeSessions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", Authenticate(jwtService, accounts, sessions), func(c *gin.Context) {
		authCtx := MustGetAuthContext(c)
		c.JSON(http.StatusOK, gin.H{"message": "success", "role": authCtx.Role})
	})
	return router
}

func seededAccount(role string) (*fakeAccounts, *fakeSessions, *models.Account) {
	account := &models.Account{
		ID:          uuid.New(),
		DisplayName: "Asha",
		Email:       "asha@example.com",
		Role:        role,
	}
	accounts := &fakeAccounts{accounts: map[uuid.UUID]*models.Account{account.ID: account}}
	sessions := &fakeSessions{live: map[string]bool{account.ID.String() + "/" + role: true}}
	return accounts, sessions, account
}

func TestAuthenticate_Success(t *testing.T) {
	jwtService := setupTestJWTService()
	accounts, sessions, account := seededAccount(models.RoleUser)
	router := setupProtectedRouter(jwtService, accounts, sessions)

	token, err := jwtService.GenerateAccessToken(account.ID, 0)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "success")
	assert.Contains(t, w.Body.String(), models.RoleUser)
}

func TestAuthenticate_MissingAuthHeader(t *testing.T) {
	jwtService := setupTestJWTService()
	accounts, sessions, _ := seededAccount(models.RoleUser)
	router := setupProtectedRouter(jwtService, accounts, sessions)

	req := httptest.NewRequest("GET", "/protected", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "MISSING_AUTH_HEADER")
}

func TestAuthenticate_InvalidAuthFormat(t *testing.T) {
	jwtService := setupTestJWTService()
	accounts, sessions, _ := seededAccount(models.RoleUser)
	router := setupProtectedRouter(jwtService, accounts, sessions)

	tests := []struct {
		name   string
		header string
	}{
		{"Missing Bearer", "some-token"},
		{"Wrong prefix", "Basic some-token"},
		{"Empty Bearer", "Bearer "},
		{"No token", "Bearer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/protected", nil)
			req.Header.Set("Authorization", tt.header)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "INVALID_AUTH_FORMAT")
		})
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	expired := jwt.NewService("test-secret-key-123456789", -time.Minute, -time.Minute, -time.Minute)
	accounts, sessions, account := seededAccount(models.RoleUser)
	router := setupProtectedRouter(setupTestJWTService(), accounts, sessions)

	token, err := expired.GenerateAccessToken(account.ID, 0)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
}

func TestAuthenticate_RevokedSession(t *testing.T) {
	jwtService := setupTestJWTService()
	accounts, sessions, account := seededAccount(models.RoleUser)
	router := setupProtectedRouter(jwtService, accounts, sessions)

	token, err := jwtService.GenerateAccessToken(account.ID, 0)
	require.NoError(t, err)

	// Simulate a logout: the token stays signed and unexpired but the
	// session row is gone.
	sessions.live = map[string]bool{}

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "SESSION_REVOKED")
}

func TestAuthenticate_UnknownAccount(t *testing.T) {
	jwtService := setupTestJWTService()
	accounts := &fakeAccounts{accounts: map[uuid.UUID]*models.Account{}}
	sessions := &fakeSessions{live: map[string]bool{}}
	router := setupProtectedRouter(jwtService, accounts, sessions)

	token, err := jwtService.GenerateAccessToken(uuid.New(), 0)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestAuthorize(t *testing.T) {
	jwtService := setupTestJWTService()
	accounts, sessions, account := seededAccount(models.RoleAdmin)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	authenticated := Authenticate(jwtService, accounts, sessions)
	router.GET("/admin-only", authenticated, Authorize(models.RoleAdmin, models.RoleSuperAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})
	router.GET("/super-only", authenticated, Authorize(models.RoleSuperAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	token, err := jwtService.GenerateAccessToken(account.ID, 0)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("GET", "/super-only", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "INSUFFICIENT_PERMISSIONS")
}
