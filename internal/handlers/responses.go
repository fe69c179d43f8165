package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wanderstack/tourism-backend/internal/database"
	"github.com/wanderstack/tourism-backend/internal/services"
)

// Every endpoint answers with the same envelope. Data is omitted when a
// response carries only its message.
type response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, response{Success: true, Message: message, Data: data})
}

func respondCreated(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, response{Success: true, Message: message, Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, response{Success: false, Message: message})
}

// respondServiceError maps the service and repository error taxonomy onto
// HTTP statuses. Anything unrecognized is a 500 with a generic message so
// internals never leak to clients.
func respondServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError

	switch {
	case errors.As(err, &validationErr):
		respondError(c, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, database.ErrNotFound):
		respondError(c, http.StatusNotFound, "Resource not found")
	case errors.Is(err, database.ErrDuplicateEmail):
		respondError(c, http.StatusConflict, "An account with this email already exists")
	case errors.Is(err, database.ErrDuplicateContact):
		respondError(c, http.StatusConflict, "An account with this contact number already exists")
	case errors.Is(err, database.ErrSuperAdminExists):
		respondError(c, http.StatusConflict, "A super admin account already exists")
	case errors.Is(err, database.ErrDuplicateName):
		respondError(c, http.StatusConflict, "An entry with this name already exists")
	case errors.Is(err, database.ErrDuplicateLocation):
		respondError(c, http.StatusConflict, "An entry already exists at this location")
	case errors.Is(err, database.ErrAlreadyActive):
		respondError(c, http.StatusConflict, "Entry is already approved")
	case errors.Is(err, database.ErrAlreadyInactive):
		respondError(c, http.StatusConflict, "Entry is already deleted")
	case errors.Is(err, services.ErrParentCityInactive):
		respondError(c, http.StatusBadRequest, "Invalid or inactive city")
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, services.ErrAccountNotVerified):
		respondError(c, http.StatusForbidden, "Please verify your email before logging in")
	case errors.Is(err, services.ErrAdminNotApproved):
		respondError(c, http.StatusForbidden, "Your account is awaiting super admin approval")
	case errors.Is(err, services.ErrWrongPassword):
		respondError(c, http.StatusUnauthorized, "Current password is incorrect")
	case errors.Is(err, services.ErrNoOTP):
		respondError(c, http.StatusBadRequest, "No OTP was generated or it was already used")
	case errors.Is(err, services.ErrOTPExpired):
		respondError(c, http.StatusBadRequest, "OTP has expired, please request a new one")
	case errors.Is(err, services.ErrOTPMismatch):
		respondError(c, http.StatusBadRequest, "Invalid OTP")
	case errors.Is(err, services.ErrMissingAvatar):
		respondError(c, http.StatusBadRequest, "Avatar file is required")
	case errors.Is(err, services.ErrNoLiveSession):
		respondError(c, http.StatusUnauthorized, "Session has been terminated. Please log in again.")
	default:
		respondError(c, http.StatusInternalServerError, "Something went wrong")
	}
}
