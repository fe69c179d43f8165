package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wanderstack/tourism-backend/internal/models"
	"github.com/wanderstack/tourism-backend/pkg/jwt"
)

// AuthContextKey is the key used to store the authenticated account in Gin context
const AuthContextKey = "auth"

// AuthContext represents the authenticated account's information
type AuthContext struct {
	AccountID uuid.UUID `json:"account_id"`
	Role      string    `json:"role"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
}

// accountLookup loads the account behind a validated token
type accountLookup interface {
	GetByID(id uuid.UUID) (*models.Account, error)
}

// sessionLookup answers whether a live session exists for an account and role
type sessionLookup interface {
	Exists(accountID uuid.UUID, role string) (bool, error)
}

// Authenticate validates the bearer token and requires a live session for the
// account's role. A valid signed token whose session was removed by a later
// login or a logout is rejected, so revocation takes effect immediately.
func Authenticate(jwtService *jwt.Service, accounts accountLookup, sessions sessionLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header is required", "MISSING_AUTH_HEADER")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Invalid authorization header format. Expected: Bearer <token>", "INVALID_AUTH_FORMAT")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			abortUnauthorized(c, "Token cannot be empty", "INVALID_AUTH_FORMAT")
			return
		}

		claims, err := jwtService.ValidateAccessToken(tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				logrus.WithFields(logrus.Fields{
					"path": c.Request.URL.Path,
					"ip":   c.ClientIP(),
				}).Warn("Auth failed: token expired")
				abortUnauthorized(c, "Access token has expired. Please refresh your token.", "TOKEN_EXPIRED")
				return
			}
			logrus.WithFields(logrus.Fields{
				"path": c.Request.URL.Path,
				"ip":   c.ClientIP(),
			}).Warn("Auth failed: invalid token")
			abortUnauthorized(c, "Invalid access token", "INVALID_TOKEN")
			return
		}

		account, err := accounts.GetByID(claims.AccountID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Failed to load account",
			})
			c.Abort()
			return
		}
		if account == nil {
			abortUnauthorized(c, "Account no longer exists", "INVALID_TOKEN")
			return
		}

		live, err := sessions.Exists(account.ID, account.Role)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Failed to check session",
			})
			c.Abort()
			return
		}
		if !live {
			abortUnauthorized(c, "Session has been terminated. Please log in again.", "SESSION_REVOKED")
			return
		}

		c.Set(AuthContextKey, AuthContext{
			AccountID: account.ID,
			Role:      account.Role,
			Name:      account.DisplayName,
			Email:     account.Email,
		})

		c.Next()
	}
}

// Authorize checks that the authenticated account holds one of the roles
func Authorize(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authCtx, exists := GetAuthContext(c)
		if !exists {
			abortUnauthorized(c, "Auth context not found. Authenticate middleware may not be applied.", "MISSING_AUTH_CONTEXT")
			return
		}

		for _, role := range roles {
			if authCtx.Role == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "You don't have permission to access this resource",
			"code":    "INSUFFICIENT_PERMISSIONS",
		})
		c.Abort()
	}
}

// GetAuthContext retrieves the auth context from Gin context
func GetAuthContext(c *gin.Context) (AuthContext, bool) {
	value, exists := c.Get(AuthContextKey)
	if !exists {
		return AuthContext{}, false
	}

	authCtx, ok := value.(AuthContext)
	if !ok {
		return AuthContext{}, false
	}

	return authCtx, true
}

// MustGetAuthContext retrieves the auth context or panics (use only after Authenticate)
func MustGetAuthContext(c *gin.Context) AuthContext {
	authCtx, exists := GetAuthContext(c)
	if !exists {
		panic("auth context not found - ensure Authenticate middleware is applied")
	}
	return authCtx
}

func abortUnauthorized(c *gin.Context, message, code string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": message,
		"code":    code,
	})
	c.Abort()
}
