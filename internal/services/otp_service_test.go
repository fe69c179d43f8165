package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wanderstack/tourism-backend/internal/models"
)

type fakeOTPAccounts struct {
	otp     string
	expiry  time.Time
	cleared bool
}

func (f *fakeOTPAccounts) SetOTP(id uuid.UUID, otp string, expiry time.Time) error {
	f.otp = otp
	f.expiry = expiry
	f.cleared = false
	return nil
}

func (f *fakeOTPAccounts) ClearOTP(id uuid.UUID) error {
	f.cleared = true
	return nil
}

func TestOTPIssueGeneratesSixDigits(t *testing.T) {
	store := &fakeOTPAccounts{}
	svc := NewOTPService(store)
	account := &models.Account{ID: uuid.New()}

	otp, err := svc.Issue(account)
	require.NoError(t, err)

	assert.Len(t, otp, OTPLength)
	for _, ch := range otp {
		assert.True(t, ch >= '0' && ch <= '9', "OTP must be numeric, got %q", otp)
	}
	assert.Equal(t, otp, store.otp)
	assert.WithinDuration(t, time.Now().Add(OTPExpiryDuration), store.expiry, time.Minute)
}

func TestOTPConsumeSuccess(t *testing.T) {
	store := &fakeOTPAccounts{}
	svc := NewOTPService(store)
	account := &models.Account{
		ID:        uuid.New(),
		OTP:       models.SomeString("123456"),
		OTPExpiry: models.SomeTime(time.Now().Add(5 * time.Minute)),
	}

	err := svc.Consume(account, "123456")
	require.NoError(t, err)
	assert.True(t, store.cleared)
}

func TestOTPConsumeFailures(t *testing.T) {
	svc := NewOTPService(&fakeOTPAccounts{})

	t.Run("no OTP stored", func(t *testing.T) {
		account := &models.Account{ID: uuid.New()}
		assert.ErrorIs(t, svc.Consume(account, "123456"), ErrNoOTP)
	})

	t.Run("expired OTP reports expiry even when correct", func(t *testing.T) {
		account := &models.Account{
			ID:        uuid.New(),
			OTP:       models.SomeString("123456"),
			OTPExpiry: models.SomeTime(time.Now().Add(-time.Minute)),
		}
		assert.ErrorIs(t, svc.Consume(account, "123456"), ErrOTPExpired)
	})

	t.Run("wrong OTP", func(t *testing.T) {
		account := &models.Account{
			ID:        uuid.New(),
			OTP:       models.SomeString("123456"),
			OTPExpiry: models.SomeTime(time.Now().Add(5 * time.Minute)),
		}
		assert.ErrorIs(t, svc.Consume(account, "654321"), ErrOTPMismatch)
	})
}
