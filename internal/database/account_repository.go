package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wanderstack/tourism-backend/internal/models"
)

const accountColumns = `id, display_name, email, contact_number, password_hash, role,
	       avatar_url, is_verified, is_logged_in, is_active, status,
	       pending_verification_token, otp, otp_expiry, created_at, updated_at`

// AccountRepository handles account database operations
type AccountRepository struct {
	db DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{
		db: db,
	}
}

// Create persists a new account. The caller supplies everything except the
// id and timestamps. Duplicate email/contact and a second super_admin are
// reported as the matching sentinel errors.
func (r *AccountRepository) Create(account *models.Account) error {
	account.ID = uuid.New()
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt

	query := `
		INSERT INTO accounts (
			id, display_name, email, contact_number, password_hash, role,
			avatar_url, is_verified, is_logged_in, is_active, status,
			pending_verification_token, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.Exec(
		query,
		account.ID,
		account.DisplayName,
		account.Email,
		account.ContactNumber,
		account.PasswordHash,
		account.Role,
		account.AvatarURL,
		account.IsVerified,
		account.IsLoggedIn,
		account.IsActive,
		account.Status,
		account.PendingVerificationToken,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if translated := translateUniqueViolation(err); translated != nil {
			return translated
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(id uuid.UUID) (*models.Account, error) {
	var account models.Account

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1
	`

	err := r.db.Get(&account, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Account not found, return nil without error
		}
		return nil, fmt.Errorf("failed to get account by ID: %w", err)
	}

	return &account, nil
}

// GetByEmail retrieves an account by email (case-insensitive)
func (r *AccountRepository) GetByEmail(email string) (*models.Account, error) {
	var account models.Account

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE LOWER(email) = LOWER($1)
	`

	err := r.db.Get(&account, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return &account, nil
}

// GetByEmailAndRole retrieves an account by email and role. Login looks
// accounts up by the pair so one email can in principle never shadow a
// different role's account.
func (r *AccountRepository) GetByEmailAndRole(email, role string) (*models.Account, error) {
	var account models.Account

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE LOWER(email) = LOWER($1) AND role = $2
	`

	err := r.db.Get(&account, query, email, role)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account by email and role: %w", err)
	}

	return &account, nil
}

// SuperAdminExists reports whether a super_admin account is registered
func (r *AccountRepository) SuperAdminExists() (bool, error) {
	var count int

	query := `SELECT COUNT(*) FROM accounts WHERE role = 'super_admin'`

	if err := r.db.QueryRow(query).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count super admins: %w", err)
	}

	return count > 0, nil
}

// SetVerificationToken stores the pending verification token for an account
func (r *AccountRepository) SetVerificationToken(id uuid.UUID, token string) error {
	query := `
		UPDATE accounts
		SET pending_verification_token = $1,
		    updated_at = $2
		WHERE id = $3
	`

	return r.execExpectingRow(query, "failed to set verification token", token, time.Now(), id)
}

// MarkVerified clears the pending token and flips is_verified
func (r *AccountRepository) MarkVerified(id uuid.UUID) error {
	query := `
		UPDATE accounts
		SET pending_verification_token = NULL,
		    is_verified = TRUE,
		    updated_at = $1
		WHERE id = $2
	`

	return r.execExpectingRow(query, "failed to mark account verified", time.Now(), id)
}

// SetPasswordHash replaces the stored password hash
func (r *AccountRepository) SetPasswordHash(id uuid.UUID, hash string) error {
	query := `
		UPDATE accounts
		SET password_hash = $1,
		    updated_at = $2
		WHERE id = $3
	`

	return r.execExpectingRow(query, "failed to set password", hash, time.Now(), id)
}

// SetOTP stores a one-time password and its expiry on the account row
func (r *AccountRepository) SetOTP(id uuid.UUID, otp string, expiry time.Time) error {
	query := `
		UPDATE accounts
		SET otp = $1,
		    otp_expiry = $2,
		    updated_at = $3
		WHERE id = $4
	`

	return r.execExpectingRow(query, "failed to set OTP", otp, expiry, time.Now(), id)
}

// ClearOTP removes any stored one-time password
func (r *AccountRepository) ClearOTP(id uuid.UUID) error {
	query := `
		UPDATE accounts
		SET otp = NULL,
		    otp_expiry = NULL,
		    updated_at = $1
		WHERE id = $2
	`

	return r.execExpectingRow(query, "failed to clear OTP", time.Now(), id)
}

// SetLoggedIn updates the is_logged_in flag
func (r *AccountRepository) SetLoggedIn(id uuid.UUID, loggedIn bool) error {
	query := `
		UPDATE accounts
		SET is_logged_in = $1,
		    updated_at = $2
		WHERE id = $3
	`

	return r.execExpectingRow(query, "failed to update login flag", loggedIn, time.Now(), id)
}

// ApproveAdmin activates an admin account awaiting super-admin approval.
// Approval is distinct from email verification, which still happens through
// the account's own verification token.
func (r *AccountRepository) ApproveAdmin(id uuid.UUID) error {
	query := `
		UPDATE accounts
		SET is_active = TRUE,
		    status = 'approved',
		    updated_at = $1
		WHERE id = $2 AND role = 'admin'
	`

	return r.execExpectingRow(query, "failed to approve admin", time.Now(), id)
}

// UpdateProfile updates display name, contact number and avatar. Blank name
// or contact leaves the stored value untouched; a null avatar keeps the
// existing one.
func (r *AccountRepository) UpdateProfile(id uuid.UUID, displayName, contactNumber string, avatarURL models.NullString) error {
	query := `
		UPDATE accounts
		SET display_name = COALESCE(NULLIF($1, ''), display_name),
		    contact_number = COALESCE(NULLIF($2, ''), contact_number),
		    avatar_url = COALESCE($3, avatar_url),
		    updated_at = $4
		WHERE id = $5
	`

	result, err := r.db.Exec(query, displayName, contactNumber, avatarURL, time.Now(), id)
	if err != nil {
		if translated := translateUniqueViolation(err); translated != nil {
			return translated
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// execExpectingRow runs an update that must touch exactly one row
func (r *AccountRepository) execExpectingRow(query, failMsg string, args ...interface{}) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", failMsg, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
