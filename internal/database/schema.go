package database

import (
	"fmt"

	"github.com/wanderstack/tourism-backend/internal/models"
)

// accountSchema creates the accounts and sessions tables. The partial unique
// index keeps the system at exactly one super_admin row.
const accountSchema = `
CREATE TABLE IF NOT EXISTS accounts (
	id UUID PRIMARY KEY,
	display_name TEXT NOT NULL,
	email TEXT NOT NULL,
	contact_number TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL CHECK (role IN ('user', 'admin', 'super_admin')),
	avatar_url TEXT,
	is_verified BOOLEAN NOT NULL DEFAULT FALSE,
	is_logged_in BOOLEAN NOT NULL DEFAULT FALSE,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
	pending_verification_token TEXT,
	otp TEXT,
	otp_expiry TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS accounts_email_key ON accounts (LOWER(email));
CREATE UNIQUE INDEX IF NOT EXISTS accounts_contact_key ON accounts (contact_number);
CREATE UNIQUE INDEX IF NOT EXISTS accounts_super_admin_key ON accounts (role) WHERE role = 'super_admin';

CREATE TABLE IF NOT EXISTS sessions (
	id UUID PRIMARY KEY,
	account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	role TEXT NOT NULL,
	ip_address TEXT,
	device TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT sessions_account_role_key UNIQUE (account_id, role)
);
`

// listingSchemaTemplate is instantiated once per listing table. Lifecycle
// columns are identical across the four tables; the name-uniqueness index
// differs for cities, which scope names by state instead of a parent city.
const listingSchemaTemplate = `
CREATE TABLE IF NOT EXISTS %[1]s (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	city_id UUID REFERENCES cities(id),
	details JSONB NOT NULL DEFAULT '{}',
	images TEXT[] NOT NULL DEFAULT '{}',
	longitude DOUBLE PRECISION NOT NULL,
	latitude DOUBLE PRECISION NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'active', 'inactive', 'rejected')),
	created_by UUID REFERENCES accounts(id),
	approved_by UUID REFERENCES accounts(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS %[1]s_coords_key ON %[1]s (longitude, latitude);
CREATE INDEX IF NOT EXISTS %[1]s_status_idx ON %[1]s (status);
`

const cityNameIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS cities_name_state_key ON cities (LOWER(name), LOWER(details->>'state'));
`

const scopedNameIndexTemplate = `
CREATE UNIQUE INDEX IF NOT EXISTS %[1]s_name_city_key ON %[1]s (LOWER(name), city_id);
`

// Migrate creates all tables and constraint indexes if they do not exist
func Migrate(db DB) error {
	if _, err := db.Exec(accountSchema); err != nil {
		return fmt.Errorf("failed to migrate account schema: %w", err)
	}

	for _, t := range models.ListingTypes {
		if _, err := db.Exec(fmt.Sprintf(listingSchemaTemplate, t.Table)); err != nil {
			return fmt.Errorf("failed to migrate %s schema: %w", t.Key, err)
		}
		if t.HasParentCity {
			if _, err := db.Exec(fmt.Sprintf(scopedNameIndexTemplate, t.Table)); err != nil {
				return fmt.Errorf("failed to create %s name index: %w", t.Key, err)
			}
		}
	}

	if _, err := db.Exec(cityNameIndex); err != nil {
		return fmt.Errorf("failed to create city name index: %w", err)
	}

	return nil
}
