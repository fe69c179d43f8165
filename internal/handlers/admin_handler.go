package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wanderstack/tourism-backend/internal/models"
	"github.com/wanderstack/tourism-backend/internal/services"
)

// AdminHandler handles admin and super-admin account HTTP requests. Login,
// logout and the registration form are shared with the user handler; only
// the role and the approval step differ.
type AdminHandler struct {
	*UserHandler
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(accountService *services.AccountService, logger *logrus.Logger, tempDir string) *AdminHandler {
	return &AdminHandler{
		UserHandler: NewUserHandler(accountService, logger, tempDir),
	}
}

// RegisterSuperAdmin creates the single super-admin account
// @Summary Register the super admin
// @Tags Admin
// @Accept mpfd
// @Produce json
// @Router /admin/super-admin-registration [post]
func (h *AdminHandler) RegisterSuperAdmin(c *gin.Context) {
	input, ok := h.bindRegistration(c)
	if !ok {
		return
	}

	account, err := h.accountService.RegisterSuperAdmin(c.Request.Context(), input)
	if err != nil {
		h.logger.WithError(err).WithField("email", input.Email).Warn("Super admin registration failed")
		respondServiceError(c, err)
		return
	}

	respondCreated(c, "Super admin registered. Please check your email to verify your account.", account)
}

// RegisterAdmin creates an admin account awaiting approval
// @Summary Register an admin
// @Tags Admin
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Router /admin/admin-registration [post]
func (h *AdminHandler) RegisterAdmin(c *gin.Context) {
	input, ok := h.bindRegistration(c)
	if !ok {
		return
	}

	account, err := h.accountService.RegisterAdmin(c.Request.Context(), input)
	if err != nil {
		h.logger.WithError(err).WithField("email", input.Email).Warn("Admin registration failed")
		respondServiceError(c, err)
		return
	}

	respondCreated(c, "Admin registered and awaiting approval. A verification mail has been sent.", account)
}

// ApproveAdmin activates a pending admin account
// @Summary Approve a pending admin
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Router /admin/approve-admin/{adminId} [patch]
func (h *AdminHandler) ApproveAdmin(c *gin.Context) {
	adminID, err := uuid.Parse(c.Param("adminId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "A valid admin id is required")
		return
	}

	if err := h.accountService.ApproveAdmin(adminID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, "Admin approved successfully", nil)
}

// AdminLogin handles admin login
// @Summary Log an admin in
// @Tags Admin
// @Accept json
// @Produce json
// @Router /admin/admin-login [post]
func (h *AdminHandler) AdminLogin(c *gin.Context) {
	h.login(c, models.RoleAdmin)
}

// SuperAdminLogin handles super-admin login
// @Summary Log the super admin in
// @Tags Admin
// @Accept json
// @Produce json
// @Router /admin/super-admin-login [post]
func (h *AdminHandler) SuperAdminLogin(c *gin.Context) {
	h.login(c, models.RoleSuperAdmin)
}

// AdminLogout tears down an admin's live session
// @Summary Log an admin out
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Router /admin/admin-logout [delete]
func (h *AdminHandler) AdminLogout(c *gin.Context) {
	h.logout(c)
}

// SuperAdminLogout tears down the super admin's live session
// @Summary Log the super admin out
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Router /admin/super-admin-logout [delete]
func (h *AdminHandler) SuperAdminLogout(c *gin.Context) {
	h.logout(c)
}
