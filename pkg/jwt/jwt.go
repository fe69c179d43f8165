// Package jwt wraps token signing and validation for the three token kinds
// the backend issues: access, refresh and email-verification tokens.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType represents the type of JWT token
type TokenType string

const (
	AccessToken       TokenType = "access"
	RefreshToken      TokenType = "refresh"
	VerificationToken TokenType = "verification"
)

// Validation failures callers need to tell apart. Verification links show a
// different message for an expired token than for a tampered one.
var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// Claims carries the account id as the sole application claim
type Claims struct {
	AccountID uuid.UUID `json:"account_id"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// Service handles JWT operations
type Service struct {
	secret             string
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	verificationExpiry time.Duration
}

// NewService creates a new JWT service
func NewService(secret string, accessExpiry, refreshExpiry, verificationExpiry time.Duration) *Service {
	return &Service{
		secret:             secret,
		accessTokenExpiry:  accessExpiry,
		refreshTokenExpiry: refreshExpiry,
		verificationExpiry: verificationExpiry,
	}
}

// GenerateAccessToken signs an access token for the account. A non-zero
// expiry overrides the service default (admin tokens live longer).
func (s *Service) GenerateAccessToken(accountID uuid.UUID, expiry time.Duration) (string, error) {
	if expiry == 0 {
		expiry = s.accessTokenExpiry
	}
	return s.generate(accountID, AccessToken, expiry)
}

// GenerateRefreshToken signs a refresh token for the account
func (s *Service) GenerateRefreshToken(accountID uuid.UUID, expiry time.Duration) (string, error) {
	if expiry == 0 {
		expiry = s.refreshTokenExpiry
	}
	return s.generate(accountID, RefreshToken, expiry)
}

// GenerateVerificationToken signs the email-verification token
func (s *Service) GenerateVerificationToken(accountID uuid.UUID) (string, error) {
	return s.generate(accountID, VerificationToken, s.verificationExpiry)
}

func (s *Service) generate(accountID uuid.UUID, tokenType TokenType, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		AccountID: accountID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "tourism-backend",
			Subject:   accountID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}

	return tokenString, nil
}

// ValidateAccessToken validates and parses an access token
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, AccessToken)
}

// ValidateRefreshToken validates and parses a refresh token
func (s *Service) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, RefreshToken)
}

// ValidateVerificationToken validates and parses a verification token
func (s *Service) ValidateVerificationToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, VerificationToken)
}

// validate parses a token and checks signature, expiry and token type.
// Expiry is reported as ErrTokenExpired; every other failure collapses to
// ErrTokenInvalid so callers cannot probe for structure.
func (s *Service) validate(tokenString string, expectedType TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrTokenInvalid
	}

	if claims.TokenType != expectedType {
		return nil, fmt.Errorf("%w: expected %s token, got %s", ErrTokenInvalid, expectedType, claims.TokenType)
	}

	return claims, nil
}
