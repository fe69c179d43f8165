package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles an account can hold. Every account has exactly one.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Admin-approval sub-states. Only meaningful for the admin role; user and
// super_admin accounts are created already approved.
const (
	AccountStatusPending  = "pending"
	AccountStatusApproved = "approved"
	AccountStatusRejected = "rejected"
)

// Account represents a user, admin, or super-admin account
type Account struct {
	ID                       uuid.UUID  `json:"id" db:"id"`
	DisplayName              string     `json:"display_name" db:"display_name"`
	Email                    string     `json:"email" db:"email"`
	ContactNumber            string     `json:"contact_number" db:"contact_number"`
	PasswordHash             string     `json:"-" db:"password_hash"`
	Role                     string     `json:"role" db:"role"`
	AvatarURL                NullString `json:"avatar_url,omitempty" db:"avatar_url"`
	IsVerified               bool       `json:"is_verified" db:"is_verified"`
	IsLoggedIn               bool       `json:"is_logged_in" db:"is_logged_in"`
	IsActive                 bool       `json:"is_active" db:"is_active"`
	Status                   string     `json:"status" db:"status"`
	PendingVerificationToken NullString `json:"-" db:"pending_verification_token"`
	OTP                      NullString `json:"-" db:"otp"`
	OTPExpiry                NullTime   `json:"-" db:"otp_expiry"`
	CreatedAt                time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at" db:"updated_at"`
}

// ValidRole reports whether role is one of the three known roles
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}
