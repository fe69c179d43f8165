package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/wanderstack/tourism-backend/internal/models"
)

const (
	// OTPLength is the number of digits in a one-time password
	OTPLength = 6

	// OTPExpiryDuration is how long an OTP is valid
	OTPExpiryDuration = 10 * time.Minute
)

var (
	// ErrNoOTP indicates no OTP was generated or it was already consumed
	ErrNoOTP = fmt.Errorf("no OTP generated or already verified")

	// ErrOTPExpired indicates the OTP has expired
	ErrOTPExpired = fmt.Errorf("OTP has expired")

	// ErrOTPMismatch indicates the OTP is incorrect
	ErrOTPMismatch = fmt.Errorf("invalid OTP")
)

// otpAccounts is the slice of the account repository the OTP service needs
type otpAccounts interface {
	SetOTP(id uuid.UUID, otp string, expiry time.Time) error
	ClearOTP(id uuid.UUID) error
}

// OTPService handles OTP generation and validation for password resets.
// The OTP lives on the account row; issuing a new one replaces any prior.
type OTPService struct {
	accounts otpAccounts
}

// NewOTPService creates a new OTP service
func NewOTPService(accounts otpAccounts) *OTPService {
	return &OTPService{
		accounts: accounts,
	}
}

// Issue generates a 6-digit OTP for the account and stores it with its
// expiry. The caller is responsible for mailing it.
func (s *OTPService) Issue(account *models.Account) (string, error) {
	otp, err := generateNumericOTP(OTPLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}

	expiry := time.Now().Add(OTPExpiryDuration)
	if err := s.accounts.SetOTP(account.ID, otp, expiry); err != nil {
		return "", fmt.Errorf("failed to store OTP: %w", err)
	}

	return otp, nil
}

// Consume validates an OTP against the account's stored state and clears it
// on success. Expiry is checked before the value so an expired-but-correct
// OTP reports expiry.
func (s *OTPService) Consume(account *models.Account, otp string) error {
	if !account.OTP.Valid || !account.OTPExpiry.Valid {
		return ErrNoOTP
	}

	if account.OTPExpiry.Time.Before(time.Now()) {
		return ErrOTPExpired
	}

	if account.OTP.String != otp {
		return ErrOTPMismatch
	}

	if err := s.accounts.ClearOTP(account.ID); err != nil {
		return fmt.Errorf("failed to clear OTP: %w", err)
	}

	return nil
}

// generateNumericOTP generates a random numeric code of the given length
func generateNumericOTP(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
