package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wanderstack/tourism-backend/internal/models"
)

// SessionRepository handles session database operations
type SessionRepository struct {
	db DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{
		db: db,
	}
}

// Replace enforces the single-active-session policy: any prior session for
// the (account, role) pair is removed before the new one is inserted. Two
// concurrent logins can both pass the delete; the unique constraint on
// (account_id, role) rejects the loser, which retries the delete-then-insert
// once so the latest login still wins.
func (r *SessionRepository) Replace(accountID uuid.UUID, role, ipAddress, device string) (*models.Session, error) {
	deleteQuery := `DELETE FROM sessions WHERE account_id = $1 AND role = $2`

	session := &models.Session{
		ID:        uuid.New(),
		AccountID: accountID,
		Role:      role,
		CreatedAt: time.Now(),
	}
	if ipAddress != "" {
		session.IPAddress = models.SomeString(ipAddress)
	}
	if device != "" {
		session.Device = models.SomeString(device)
	}

	insertQuery := `
		INSERT INTO sessions (id, account_id, role, ip_address, device, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for attempt := 0; ; attempt++ {
		if _, err := r.db.Exec(deleteQuery, accountID, role); err != nil {
			return nil, fmt.Errorf("failed to delete prior session: %w", err)
		}

		_, err := r.db.Exec(
			insertQuery,
			session.ID,
			session.AccountID,
			session.Role,
			session.IPAddress,
			session.Device,
			session.CreatedAt,
		)
		if err == nil {
			return session, nil
		}
		if attempt == 0 && isUniqueViolation(err) {
			continue
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
}

// Get retrieves the live session for an (account, role) pair
func (r *SessionRepository) Get(accountID uuid.UUID, role string) (*models.Session, error) {
	var session models.Session

	query := `
		SELECT id, account_id, role, ip_address, device, created_at
		FROM sessions
		WHERE account_id = $1 AND role = $2
	`

	err := r.db.Get(&session, query, accountID, role)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No live session, return nil without error
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &session, nil
}

// Exists reports whether a live session exists for the (account, role) pair
func (r *SessionRepository) Exists(accountID uuid.UUID, role string) (bool, error) {
	var count int

	query := `SELECT COUNT(*) FROM sessions WHERE account_id = $1 AND role = $2`

	if err := r.db.QueryRow(query, accountID, role).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}

	return count > 0, nil
}

// Delete removes the session rows for an (account, role) pair. Logout calls
// this; already-issued signed tokens stay cryptographically valid, which is
// why protected routes also require a live session.
func (r *SessionRepository) Delete(accountID uuid.UUID, role string) error {
	query := `DELETE FROM sessions WHERE account_id = $1 AND role = $2`

	if _, err := r.db.Exec(query, accountID, role); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}
