package services

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/wanderstack/tourism-backend/internal/database"
	"github.com/wanderstack/tourism-backend/internal/models"
	"github.com/wanderstack/tourism-backend/pkg/geo"
	"github.com/wanderstack/tourism-backend/pkg/storage"
)

// ErrParentCityInactive indicates the referenced city is missing or not active
var ErrParentCityInactive = fmt.Errorf("invalid or inactive city")

// ValidationError marks a malformed or incomplete listing payload
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// listingStore is the slice of the listing repository the engine drives
type listingStore interface {
	Create(t models.ListingType, listing *models.Listing) error
	Save(t models.ListingType, listing *models.Listing) error
	GetByID(t models.ListingType, id uuid.UUID) (*models.Listing, error)
	GetActiveByID(t models.ListingType, id uuid.UUID) (*models.Listing, error)
	ListActive(t models.ListingType, cityID *uuid.UUID) ([]*models.Listing, error)
	ListPending(t models.ListingType) ([]*models.Listing, error)
	Nearby(t models.ListingType, lng, lat, maxMeters float64) ([]*models.Listing, error)
	Approve(t models.ListingType, id, approvedBy uuid.UUID) error
	Reject(t models.ListingType, id uuid.UUID) error
	SoftDelete(t models.ListingType, id uuid.UUID) error
	HardDelete(t models.ListingType, id uuid.UUID) error
	NameTaken(t models.ListingType, name string, cityID uuid.UUID, state string) (bool, error)
	CoordsTaken(t models.ListingType, lng, lat float64, excludeID *uuid.UUID) (bool, error)
	ParentCityActive(cityID uuid.UUID) (bool, error)
}

// ListingInput carries the raw form values of a create or update request.
// Fields holds the type-specific values keyed by field name; validation
// against the descriptor's schema happens here, once, before anything is
// persisted. Moderation fields can never appear: status and approver are not
// part of the input shape at all.
type ListingInput struct {
	Name         string
	CityID       string
	LocationJSON string
	Fields       map[string]string
	ImagePaths   []string
}

// ModerationService is the approval state machine shared by all four listing
// types, parameterized per call by a ListingType descriptor.
type ModerationService struct {
	store    listingStore
	uploader storage.Uploader
	logger   *logrus.Logger
}

// NewModerationService creates a new moderation service
func NewModerationService(store listingStore, uploader storage.Uploader, logger *logrus.Logger) *ModerationService {
	return &ModerationService{
		store:    store,
		uploader: uploader,
		logger:   logger,
	}
}

// Create validates a payload and persists a new pending listing. Validation
// order: scalar fields, location, parent city, name uniqueness, coordinate
// uniqueness. Images are uploaded last, in input order; an image already
// uploaded when a later step fails is not retracted.
func (s *ModerationService) Create(ctx context.Context, t models.ListingType, input ListingInput, createdBy uuid.UUID) (*models.Listing, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, validationErrorf("name is required")
	}

	details, err := buildDetails(t, input.Fields, nil)
	if err != nil {
		return nil, err
	}

	if input.LocationJSON == "" {
		return nil, validationErrorf("location is required")
	}
	point, err := geo.Parse(input.LocationJSON)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	listing := &models.Listing{
		Name:      normalizeName(t, input.Name),
		Details:   details,
		Longitude: point.Lng(),
		Latitude:  point.Lat(),
		CreatedBy: models.SomeUUID(createdBy),
		Images:    pq.StringArray{},
	}

	var cityID uuid.UUID
	if t.HasParentCity {
		cityID, err = uuid.Parse(input.CityID)
		if err != nil {
			return nil, validationErrorf("a valid city id is required")
		}
		active, err := s.store.ParentCityActive(cityID)
		if err != nil {
			return nil, err
		}
		if !active {
			return nil, ErrParentCityInactive
		}
		listing.CityID = models.SomeUUID(cityID)
	}

	taken, err := s.store.NameTaken(t, listing.Name, cityID, stateOf(details))
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, database.ErrDuplicateName
	}

	taken, err = s.store.CoordsTaken(t, listing.Longitude, listing.Latitude, nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, database.ErrDuplicateLocation
	}

	urls, err := s.uploadImages(ctx, t, input.ImagePaths)
	if err != nil {
		return nil, err
	}
	listing.Images = urls

	if err := s.store.Create(t, listing); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"type": t.Key,
		"id":   listing.ID,
		"name": listing.Name,
	}).Info("Listing created, pending approval")

	return listing, nil
}

// Update applies a partial patch to a listing. Only name, type-specific
// fields, location and images are patchable; the input shape carries no
// moderation fields, so status and approver cannot be touched here. New
// coordinates re-run the duplicate check excluding the listing itself; new
// images replace the whole prior sequence.
func (s *ModerationService) Update(ctx context.Context, t models.ListingType, id uuid.UUID, input ListingInput) (*models.Listing, error) {
	listing, err := s.store.GetByID(t, id)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, database.ErrNotFound
	}

	if strings.TrimSpace(input.Name) != "" {
		listing.Name = normalizeName(t, input.Name)
	}

	if len(input.Fields) > 0 {
		details, err := buildDetails(t, input.Fields, listing.Details)
		if err != nil {
			return nil, err
		}
		listing.Details = details
	}

	if input.LocationJSON != "" {
		point, err := geo.Parse(input.LocationJSON)
		if err != nil {
			return nil, &ValidationError{Message: err.Error()}
		}

		taken, err := s.store.CoordsTaken(t, point.Lng(), point.Lat(), &id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, database.ErrDuplicateLocation
		}

		listing.Longitude = point.Lng()
		listing.Latitude = point.Lat()
	}

	if len(input.ImagePaths) > 0 {
		urls, err := s.uploadImages(ctx, t, input.ImagePaths)
		if err != nil {
			return nil, err
		}
		listing.Images = urls
	}

	if err := s.store.Save(t, listing); err != nil {
		return nil, err
	}

	return listing, nil
}

// Approve transitions a listing to active and records the approver
func (s *ModerationService) Approve(t models.ListingType, id, approvedBy uuid.UUID) error {
	if err := s.store.Approve(t, id, approvedBy); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"type":        t.Key,
		"id":          id,
		"approved_by": approvedBy,
	}).Info("Listing approved")

	return nil
}

// Reject transitions a listing to rejected
func (s *ModerationService) Reject(t models.ListingType, id uuid.UUID) error {
	if err := s.store.Reject(t, id); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{"type": t.Key, "id": id}).Info("Listing rejected")
	return nil
}

// SoftDelete transitions a listing to inactive
func (s *ModerationService) SoftDelete(t models.ListingType, id uuid.UUID) error {
	return s.store.SoftDelete(t, id)
}

// HardDelete removes a listing permanently
func (s *ModerationService) HardDelete(t models.ListingType, id uuid.UUID) error {
	return s.store.HardDelete(t, id)
}

// GetActive returns an active listing by id. Non-active listings answer
// not-found: anonymous callers never learn a pending or rejected listing
// exists.
func (s *ModerationService) GetActive(t models.ListingType, id uuid.UUID) (*models.Listing, error) {
	listing, err := s.store.GetActiveByID(t, id)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, database.ErrNotFound
	}
	return listing, nil
}

// ListActive returns active listings, optionally scoped to a parent city
func (s *ModerationService) ListActive(t models.ListingType, cityID *uuid.UUID) ([]*models.Listing, error) {
	return s.store.ListActive(t, cityID)
}

// ListPending returns the moderation queue with creator identity joined in
func (s *ModerationService) ListPending(t models.ListingType) ([]*models.Listing, error) {
	return s.store.ListPending(t)
}

// Nearby returns active listings within maxMeters of the point, closest first
func (s *ModerationService) Nearby(t models.ListingType, lng, lat, maxMeters float64) ([]*models.Listing, error) {
	return s.store.Nearby(t, lng, lat, maxMeters)
}

// uploadImages pushes local files to blob storage in input order. Temp files
// are removed after each successful upload; a removal failure is logged and
// ignored.
func (s *ModerationService) uploadImages(ctx context.Context, t models.ListingType, paths []string) (pq.StringArray, error) {
	urls := make(pq.StringArray, 0, len(paths))
	for _, path := range paths {
		url, err := s.uploader.Upload(ctx, path, t.Folder)
		if err != nil {
			return nil, fmt.Errorf("failed to upload image: %w", err)
		}
		urls = append(urls, url)

		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.WithError(err).WithField("path", path).Warn("Failed to remove temp upload")
		}
	}
	return urls, nil
}

// buildDetails validates raw form values against the descriptor's field
// schema and produces the details document. With a nil base every required
// field must be present (create); with a base only supplied fields are
// validated and merged (update).
func buildDetails(t models.ListingType, raw map[string]string, base models.Details) (models.Details, error) {
	details := models.Details{}
	creating := base == nil
	for k, v := range base {
		details[k] = v
	}

	for _, f := range t.Fields {
		value, supplied := raw[f.Name]
		value = strings.TrimSpace(value)

		if !supplied || value == "" {
			if creating {
				if f.Required {
					return nil, validationErrorf("%s is required", f.Name)
				}
				if f.Default != nil {
					details[f.Name] = f.Default
				}
			}
			continue
		}

		parsed, err := parseField(f, value)
		if err != nil {
			return nil, err
		}
		details[f.Name] = parsed
	}

	return details, nil
}

// parseField coerces one raw value per its field spec
func parseField(f models.FieldSpec, value string) (interface{}, error) {
	switch f.Kind {
	case "number":
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, validationErrorf("%s must be a number", f.Name)
		}
		if f.HasRange && (n < f.Min || n > f.Max) {
			return nil, validationErrorf("%s must be between %v and %v", f.Name, f.Min, f.Max)
		}
		return n, nil

	case "list":
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out, nil

	default:
		if f.MinLen > 0 && len(value) < f.MinLen {
			return nil, validationErrorf("%s must be at least %d characters", f.Name, f.MinLen)
		}
		if f.MaxLen > 0 && len(value) > f.MaxLen {
			return nil, validationErrorf("%s must be at most %d characters", f.Name, f.MaxLen)
		}
		if len(f.Enum) > 0 && !contains(f.Enum, strings.ToLower(value)) {
			return nil, validationErrorf("%s must be one of %s", f.Name, strings.Join(f.Enum, ", "))
		}
		if len(f.Enum) > 0 {
			return strings.ToLower(value), nil
		}
		return value, nil
	}
}

// normalizeName lowercases city names the way the listing indexes do; other
// types keep their casing and rely on the case-normalized index.
func normalizeName(t models.ListingType, name string) string {
	name = strings.TrimSpace(name)
	if !t.HasParentCity {
		return strings.ToLower(name)
	}
	return name
}

// stateOf extracts the state field used as the city name-uniqueness scope
func stateOf(details models.Details) string {
	if s, ok := details["state"].(string); ok {
		return s
	}
	return ""
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
