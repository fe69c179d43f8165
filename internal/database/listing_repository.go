package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wanderstack/tourism-backend/internal/models"
	"github.com/wanderstack/tourism-backend/pkg/geo"
)

// Moderation-transition outcomes beyond plain not-found
var (
	ErrAlreadyActive   = errors.New("listing is already active")
	ErrAlreadyInactive = errors.New("listing is already inactive")
)

const listingColumns = `id, name, city_id, details, images, longitude, latitude,
	       status, created_by, approved_by, created_at, updated_at`

const listingColumnsPrefixed = `l.id, l.name, l.city_id, l.details, l.images, l.longitude, l.latitude,
	       l.status, l.created_by, l.approved_by, l.created_at, l.updated_at`

// haversineMeters computes great-circle distance from ($1=lng, $2=lat) in SQL.
// LEAST guards ACOS against floating-point drift just past 1.0.
const haversineMeters = `(6371000 * ACOS(LEAST(1.0,
		COS(RADIANS($2)) * COS(RADIANS(latitude)) * COS(RADIANS(longitude) - RADIANS($1))
		+ SIN(RADIANS($2)) * SIN(RADIANS(latitude)))))`

// ListingRepository handles the four listing tables through one code path.
// Every method takes the ListingType descriptor; lifecycle columns are
// identical across tables so the SQL differs only in the table name.
type ListingRepository struct {
	db DB
}

// NewListingRepository creates a new listing repository
func NewListingRepository(db DB) *ListingRepository {
	return &ListingRepository{
		db: db,
	}
}

// Create persists a new listing in pending status. Unique-index violations
// on coordinates or the name scope are translated to the same Conflict
// errors the service-level pre-checks produce.
func (r *ListingRepository) Create(t models.ListingType, listing *models.Listing) error {
	listing.ID = uuid.New()
	listing.Status = models.ListingStatusPending
	listing.CreatedAt = time.Now()
	listing.UpdatedAt = listing.CreatedAt

	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, name, city_id, details, images, longitude, latitude,
			status, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, t.Table)

	_, err := r.db.Exec(
		query,
		listing.ID,
		listing.Name,
		listing.CityID,
		listing.Details,
		listing.Images,
		listing.Longitude,
		listing.Latitude,
		listing.Status,
		listing.CreatedBy,
		listing.CreatedAt,
		listing.UpdatedAt,
	)
	if err != nil {
		if translated := translateUniqueViolation(err); translated != nil {
			return translated
		}
		return fmt.Errorf("failed to create %s: %w", t.Key, err)
	}

	listing.Location = geo.NewPoint(listing.Longitude, listing.Latitude)
	return nil
}

// GetByID retrieves a listing regardless of status
func (r *ListingRepository) GetByID(t models.ListingType, id uuid.UUID) (*models.Listing, error) {
	return r.getOne(t, `WHERE id = $1`, id)
}

// GetActiveByID retrieves a listing only if it is active. Anonymous reads go
// through this so non-active content stays invisible.
func (r *ListingRepository) GetActiveByID(t models.ListingType, id uuid.UUID) (*models.Listing, error) {
	return r.getOne(t, `WHERE id = $1 AND status = 'active'`, id)
}

func (r *ListingRepository) getOne(t models.ListingType, where string, args ...interface{}) (*models.Listing, error) {
	var listing models.Listing

	query := fmt.Sprintf(`SELECT %s FROM %s %s`, listingColumns, t.Table, where)

	err := r.db.Get(&listing, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Listing not found, return nil without error
		}
		return nil, fmt.Errorf("failed to get %s: %w", t.Key, err)
	}

	listing.Location = geo.NewPoint(listing.Longitude, listing.Latitude)
	return &listing, nil
}

// ListActive retrieves active listings, optionally scoped to a parent city
func (r *ListingRepository) ListActive(t models.ListingType, cityID *uuid.UUID) ([]*models.Listing, error) {
	var listings []*models.Listing
	var err error

	if cityID != nil {
		query := fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE status = 'active' AND city_id = $1
			ORDER BY created_at DESC
		`, listingColumns, t.Table)
		err = r.db.Select(&listings, query, *cityID)
	} else {
		query := fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE status = 'active'
			ORDER BY created_at DESC
		`, listingColumns, t.Table)
		err = r.db.Select(&listings, query)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list active %ss: %w", t.Key, err)
	}

	fillLocations(listings)
	return listings, nil
}

// ListPending retrieves pending listings with the creator identity joined in
// for the super-admin moderation queue.
func (r *ListingRepository) ListPending(t models.ListingType) ([]*models.Listing, error) {
	var listings []*models.Listing

	query := fmt.Sprintf(`
		SELECT %s,
		       a.display_name AS creator_name,
		       a.email AS creator_email,
		       a.role AS creator_role
		FROM %s l
		LEFT JOIN accounts a ON a.id = l.created_by
		WHERE l.status = 'pending'
		ORDER BY l.created_at ASC
	`, listingColumnsPrefixed, t.Table)

	if err := r.db.Select(&listings, query); err != nil {
		return nil, fmt.Errorf("failed to list pending %ss: %w", t.Key, err)
	}

	fillLocations(listings)
	return listings, nil
}

// Nearby retrieves active listings within maxMeters of (lng, lat), closest
// first. Distance is computed with a haversine expression; the unique
// coordinate index doubles as the geo lookup's backing index.
func (r *ListingRepository) Nearby(t models.ListingType, lng, lat, maxMeters float64) ([]*models.Listing, error) {
	var listings []*models.Listing

	query := fmt.Sprintf(`
		SELECT * FROM (
			SELECT %s, %s AS distance_meters
			FROM %s
			WHERE status = 'active'
		) nearby
		WHERE distance_meters <= $3
		ORDER BY distance_meters ASC
	`, listingColumns, haversineMeters, t.Table)

	if err := r.db.Select(&listings, query, lng, lat, maxMeters); err != nil {
		return nil, fmt.Errorf("failed to query nearby %ss: %w", t.Key, err)
	}

	fillLocations(listings)
	return listings, nil
}

// Approve transitions a listing to active and records the approver. The
// guarded single-statement update serializes concurrent moderation calls at
// the row; a listing that is already active is reported as such. Rejected
// and inactive listings are re-approvable.
func (r *ListingRepository) Approve(t models.ListingType, id, approvedBy uuid.UUID) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = 'active',
		    approved_by = $1,
		    updated_at = $2
		WHERE id = $3 AND status <> 'active'
	`, t.Table)

	return r.transition(t, query, id, ErrAlreadyActive, approvedBy, time.Now(), id)
}

// Reject transitions a listing to rejected and clears the approver
func (r *ListingRepository) Reject(t models.ListingType, id uuid.UUID) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = 'rejected',
		    approved_by = NULL,
		    updated_at = $1
		WHERE id = $2
	`, t.Table)

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to reject %s: %w", t.Key, err)
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

// SoftDelete transitions a listing to inactive
func (r *ListingRepository) SoftDelete(t models.ListingType, id uuid.UUID) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = 'inactive',
		    updated_at = $1
		WHERE id = $2 AND status <> 'inactive'
	`, t.Table)

	return r.transition(t, query, id, ErrAlreadyInactive, time.Now(), id)
}

// transition runs a guarded status update and distinguishes "row missing"
// from "row already in the target state" when nothing was touched.
func (r *ListingRepository) transition(t models.ListingType, query string, id uuid.UUID, guardErr error, args ...interface{}) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s status: %w", t.Key, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	existing, err := r.GetByID(t, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	return guardErr
}

// Save persists the mutable columns of a listing. Moderation fields (status,
// approved_by) are deliberately not part of the statement: only the
// transition methods may change them.
func (r *ListingRepository) Save(t models.ListingType, listing *models.Listing) error {
	listing.UpdatedAt = time.Now()

	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1,
		    details = $2,
		    images = $3,
		    longitude = $4,
		    latitude = $5,
		    updated_at = $6
		WHERE id = $7
	`, t.Table)

	result, err := r.db.Exec(
		query,
		listing.Name,
		listing.Details,
		listing.Images,
		listing.Longitude,
		listing.Latitude,
		listing.UpdatedAt,
		listing.ID,
	)
	if err != nil {
		if translated := translateUniqueViolation(err); translated != nil {
			return translated
		}
		return fmt.Errorf("failed to update %s: %w", t.Key, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	listing.Location = geo.NewPoint(listing.Longitude, listing.Latitude)
	return nil
}

// HardDelete removes a listing row entirely. Only the hotel surface exposes
// this; the other types are soft-deleted via status.
func (r *ListingRepository) HardDelete(t models.ListingType, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, t.Table)

	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", t.Key, err)
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

// NameTaken reports whether a same-type listing already uses the normalized
// name within its uniqueness scope: parent city for hotel/place/restaurant,
// state for cities.
func (r *ListingRepository) NameTaken(t models.ListingType, name string, cityID uuid.UUID, state string) (bool, error) {
	var count int
	var err error

	if t.HasParentCity {
		query := fmt.Sprintf(`
			SELECT COUNT(*) FROM %s
			WHERE LOWER(name) = LOWER($1) AND city_id = $2
		`, t.Table)
		err = r.db.QueryRow(query, name, cityID).Scan(&count)
	} else {
		query := fmt.Sprintf(`
			SELECT COUNT(*) FROM %s
			WHERE LOWER(name) = LOWER($1) AND LOWER(details->>'state') = LOWER($2)
		`, t.Table)
		err = r.db.QueryRow(query, name, state).Scan(&count)
	}

	if err != nil {
		return false, fmt.Errorf("failed to check %s name: %w", t.Key, err)
	}

	return count > 0, nil
}

// CoordsTaken reports whether a same-type listing already sits at the exact
// coordinates. excludeID skips the listing being updated.
func (r *ListingRepository) CoordsTaken(t models.ListingType, lng, lat float64, excludeID *uuid.UUID) (bool, error) {
	var count int
	var err error

	if excludeID != nil {
		query := fmt.Sprintf(`
			SELECT COUNT(*) FROM %s
			WHERE longitude = $1 AND latitude = $2 AND id <> $3
		`, t.Table)
		err = r.db.QueryRow(query, lng, lat, *excludeID).Scan(&count)
	} else {
		query := fmt.Sprintf(`
			SELECT COUNT(*) FROM %s
			WHERE longitude = $1 AND latitude = $2
		`, t.Table)
		err = r.db.QueryRow(query, lng, lat).Scan(&count)
	}

	if err != nil {
		return false, fmt.Errorf("failed to check %s coordinates: %w", t.Key, err)
	}

	return count > 0, nil
}

// ParentCityActive reports whether the referenced city exists and is active.
// Listings may only be created under an active city.
func (r *ListingRepository) ParentCityActive(cityID uuid.UUID) (bool, error) {
	var count int

	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s
		WHERE id = $1 AND status = 'active'
	`, models.CityType.Table)

	if err := r.db.QueryRow(query, cityID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check parent city: %w", err)
	}

	return count > 0, nil
}

func fillLocations(listings []*models.Listing) {
	for _, l := range listings {
		l.Location = geo.NewPoint(l.Longitude, l.Latitude)
	}
}
