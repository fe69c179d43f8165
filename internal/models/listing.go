package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/wanderstack/tourism-backend/pkg/geo"
)

// Moderation lifecycle states shared by all listing types.
// pending -> active|rejected, active <-> inactive, rejected -> active.
const (
	ListingStatusPending  = "pending"
	ListingStatusActive   = "active"
	ListingStatusInactive = "inactive"
	ListingStatusRejected = "rejected"
)

// Details holds the type-specific fields of a listing as a JSONB document
type Details map[string]interface{}

// Value implements driver.Valuer
func (d Details) Value() (driver.Value, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner
func (d *Details) Scan(src interface{}) error {
	if src == nil {
		*d = Details{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("unsupported details type %T", src)
	}
}

// Listing is the lifecycle shape shared by City, Hotel, Place and Restaurant.
// Type-specific attributes live in Details; the geographic point is stored as
// two columns and rendered as a GeoJSON point.
type Listing struct {
	ID         uuid.UUID      `json:"id" db:"id"`
	Name       string         `json:"name" db:"name"`
	CityID     NullUUID       `json:"city_id,omitempty" db:"city_id"`
	Details    Details        `json:"details" db:"details"`
	Images     pq.StringArray `json:"images" db:"images"`
	Longitude  float64        `json:"-" db:"longitude"`
	Latitude   float64        `json:"-" db:"latitude"`
	Location   geo.Point      `json:"location" db:"-"`
	Status     string         `json:"status" db:"status"`
	CreatedBy  NullUUID       `json:"created_by,omitempty" db:"created_by"`
	ApprovedBy NullUUID       `json:"approved_by,omitempty" db:"approved_by"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"`

	// Populated only by queries that join extra data.
	DistanceMeters NullFloat  `json:"distance_meters,omitempty" db:"distance_meters"`
	CreatorName    NullString `json:"creator_name,omitempty" db:"creator_name"`
	CreatorEmail   NullString `json:"creator_email,omitempty" db:"creator_email"`
	CreatorRole    NullString `json:"creator_role,omitempty" db:"creator_role"`
}

// FieldSpec declares one type-specific field of a listing type
type FieldSpec struct {
	Name     string
	Required bool
	Kind     string // "text", "number" or "list"
	Enum     []string
	Default  interface{}
	MinLen   int
	MaxLen   int
	Min      float64
	Max      float64
	HasRange bool
}

// ListingType is the strategy descriptor that parameterizes the moderation
// engine: one value per entity type instead of four near-identical engines.
type ListingType struct {
	// Key is the type name used in routes, log fields and error messages.
	Key string
	// Table is the backing table. Lifecycle columns are identical across
	// tables so the engine's SQL is reused verbatim.
	Table string
	// Folder is the blob-storage folder listing images are uploaded to.
	Folder string
	// HasParentCity marks types that must reference an active parent city.
	// For these the name-uniqueness scope is the parent city id; for cities
	// it is the normalized state instead.
	HasParentCity bool
	// Fields is the typed schema of the Details document, validated once at
	// the boundary before anything reaches the engine.
	Fields []FieldSpec
}

var (
	// CityType has no parent; (name, state) is its uniqueness key.
	CityType = ListingType{
		Key:    "city",
		Table:  "cities",
		Folder: "cities",
		Fields: []FieldSpec{
			{Name: "state", Required: true, Kind: "text"},
			{Name: "country", Kind: "text", Default: "india"},
			{Name: "description", Kind: "text"},
			{Name: "famous_for", Required: true, Kind: "text"},
			{Name: "best_time_to_visit", Required: true, Kind: "text"},
			{Name: "avg_daily_budget", Required: true, Kind: "number"},
		},
	}

	HotelType = ListingType{
		Key:           "hotel",
		Table:         "hotels",
		Folder:        "hotels",
		HasParentCity: true,
		Fields: []FieldSpec{
			{Name: "address", Required: true, Kind: "text"},
			{Name: "price_per_night", Required: true, Kind: "number"},
			{Name: "facilities", Kind: "list"},
			{Name: "rating", Kind: "number", Default: float64(0), Min: 0, Max: 5, HasRange: true},
		},
	}

	PlaceType = ListingType{
		Key:           "place",
		Table:         "places",
		Folder:        "places",
		HasParentCity: true,
		Fields: []FieldSpec{
			{Name: "description", Required: true, Kind: "text"},
			{Name: "category", Required: true, Kind: "text", Enum: []string{"temple", "fort", "nature", "market", "other"}},
			{Name: "time_required", Required: true, Kind: "text", MinLen: 2, MaxLen: 20},
			{Name: "entry_fees", Kind: "number", Default: float64(0)},
			{Name: "is_popular", Kind: "text"},
			{Name: "best_time_to_visit", Kind: "text"},
		},
	}

	RestaurantType = ListingType{
		Key:           "restaurant",
		Table:         "restaurants",
		Folder:        "restaurants",
		HasParentCity: true,
		Fields: []FieldSpec{
			{Name: "address", Required: true, Kind: "text"},
			{Name: "famous_food", Required: true, Kind: "text"},
			{Name: "food_type", Required: true, Kind: "text", Enum: []string{"veg", "non-veg", "both"}},
			{Name: "avg_cost_for_one", Required: true, Kind: "number"},
			{Name: "best_time", Kind: "text", Enum: []string{"breakfast", "lunch", "dinner", "anytime"}, Default: "anytime"},
		},
	}
)

// ListingTypes enumerates all descriptors in registration order
var ListingTypes = []ListingType{CityType, HotelType, PlaceType, RestaurantType}

// Field returns the spec for a named field, if declared
func (t ListingType) Field(name string) (FieldSpec, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}
