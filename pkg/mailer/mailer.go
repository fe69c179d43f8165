// Package mailer sends the verification-link and OTP mails. Delivery is
// fire-and-forget: failures are logged, never surfaced to the caller.
package mailer

// Mailer sends account-lifecycle mails
type Mailer interface {
	// SendVerification mails the account-verification link built from the
	// signed token.
	SendVerification(email, token string)
	// SendOTP mails a password-reset one-time password.
	SendOTP(email, otp string)
}
