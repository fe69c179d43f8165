package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wanderstack/tourism-backend/internal/middleware"
	"github.com/wanderstack/tourism-backend/internal/models"
	"github.com/wanderstack/tourism-backend/internal/services"
)

// defaultNearbyRadiusMeters applies when a nearby search omits the distance
const defaultNearbyRadiusMeters = 50000

// ListingHandler serves one listing type's HTTP surface. One instance per
// descriptor; the four types share every code path.
type ListingHandler struct {
	moderation *services.ModerationService
	listing    models.ListingType
	logger     *logrus.Logger
	tempDir    string
	maxImages  int
}

// NewListingHandler creates a handler bound to a single listing type
func NewListingHandler(moderation *services.ModerationService, listing models.ListingType, logger *logrus.Logger, tempDir string, maxImages int) *ListingHandler {
	return &ListingHandler{
		moderation: moderation,
		listing:    listing,
		logger:     logger,
		tempDir:    tempDir,
		maxImages:  maxImages,
	}
}

// Create handles listing submission. The new entry always starts pending,
// regardless of who submits it.
func (h *ListingHandler) Create(c *gin.Context) {
	authCtx := middleware.MustGetAuthContext(c)

	input, ok := h.bindInput(c)
	if !ok {
		return
	}

	created, err := h.moderation.Create(c.Request.Context(), h.listing, input, authCtx.AccountID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, "Submitted for approval", created)
}

// Update patches a listing's content fields
func (h *ListingHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	input, ok := h.bindInput(c)
	if !ok {
		return
	}

	updated, err := h.moderation.Update(c.Request.Context(), h.listing, id, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, "Updated successfully", updated)
}

// ListActive returns active listings, optionally filtered by parent city.
// Cities have no parent, so their route ignores the cityId filter.
func (h *ListingHandler) ListActive(c *gin.Context) {
	var cityID *uuid.UUID
	if raw := c.Query("cityId"); raw != "" && h.listing.HasParentCity {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "A valid cityId is required")
			return
		}
		cityID = &parsed
	}

	listings, err := h.moderation.ListActive(h.listing, cityID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, "Fetched successfully", listings)
}

// ListByCity serves the nested city route by mapping the path param onto the
// same city filter the flat route takes as a query param.
func (h *ListingHandler) ListByCity(c *gin.Context) {
	cityID, err := uuid.Parse(c.Param("cityId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "A valid city id is required")
		return
	}

	listings, err := h.moderation.ListActive(h.listing, &cityID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, "Fetched successfully", listings)
}

// ListPending returns the moderation queue
func (h *ListingHandler) ListPending(c *gin.Context) {
	listings, err := h.moderation.ListPending(h.listing)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, "Fetched successfully", listings)
}

// Get returns one active listing; pending and rejected entries answer 404
func (h *ListingHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	listing, err := h.moderation.GetActive(h.listing, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, "Fetched successfully", listing)
}

// Nearby returns active listings within a radius of a point, closest first
func (h *ListingHandler) Nearby(c *gin.Context) {
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	if errLng != nil || errLat != nil {
		respondError(c, http.StatusBadRequest, "lng and lat query parameters are required")
		return
	}
	if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		respondError(c, http.StatusBadRequest, "Coordinates are out of range")
		return
	}

	radius := float64(defaultNearbyRadiusMeters)
	if raw := c.Query("distance"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			respondError(c, http.StatusBadRequest, "distance must be a positive number of meters")
			return
		}
		radius = parsed
	}

	listings, err := h.moderation.Nearby(h.listing, lng, lat, radius)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, "Fetched successfully", listings)
}

// Approve transitions a pending listing to active
func (h *ListingHandler) Approve(c *gin.Context) {
	authCtx := middleware.MustGetAuthContext(c)

	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.moderation.Approve(h.listing, id, authCtx.AccountID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, "Approved successfully", nil)
}

// Reject transitions a listing to rejected
func (h *ListingHandler) Reject(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.moderation.Reject(h.listing, id); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, "Rejected successfully", nil)
}

// SoftDelete transitions a listing to inactive, keeping the row
func (h *ListingHandler) SoftDelete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.moderation.SoftDelete(h.listing, id); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, "Deleted successfully", nil)
}

// HardDelete removes a listing row permanently
func (h *ListingHandler) HardDelete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.moderation.HardDelete(h.listing, id); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, "Permanently deleted", nil)
}

// bindInput reads the multipart listing form. Only fields the client
// actually sent land in the map, so updates patch rather than overwrite.
func (h *ListingHandler) bindInput(c *gin.Context) (services.ListingInput, bool) {
	input := services.ListingInput{
		Name:         c.PostForm("name"),
		CityID:       c.PostForm("cityId"),
		LocationJSON: c.PostForm("location"),
		Fields:       map[string]string{},
	}

	for _, f := range h.listing.Fields {
		if value, supplied := c.GetPostForm(f.Name); supplied {
			input.Fields[f.Name] = value
		}
	}

	paths, err := saveUploads(c, "images", h.tempDir, h.maxImages)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to stage image uploads")
		respondError(c, http.StatusBadRequest, err.Error())
		return input, false
	}
	input.ImagePaths = paths

	return input, true
}

// pathID parses the :id path param
func (h *ListingHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "A valid id is required")
		return uuid.Nil, false
	}
	return id, true
}
