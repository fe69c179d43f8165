package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is a revocable device-presence record for an (account, role) pair.
// At most one live session exists per pair; logging in again replaces it.
// A session is independent of the signed tokens issued at login: deleting it
// revokes access even while a token is still cryptographically valid.
type Session struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	AccountID uuid.UUID  `json:"account_id" db:"account_id"`
	Role      string     `json:"role" db:"role"`
	IPAddress NullString `json:"ip_address,omitempty" db:"ip_address"`
	Device    NullString `json:"device,omitempty" db:"device"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
