package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mssola/user_agent"
	"github.com/sirupsen/logrus"
	"github.com/wanderstack/tourism-backend/internal/middleware"
	"github.com/wanderstack/tourism-backend/internal/models"
	"github.com/wanderstack/tourism-backend/internal/services"
)

// UserHandler handles user account HTTP requests
type UserHandler struct {
	accountService *services.AccountService
	logger         *logrus.Logger
	tempDir        string
}

// NewUserHandler creates a new user handler
func NewUserHandler(accountService *services.AccountService, logger *logrus.Logger, tempDir string) *UserHandler {
	return &UserHandler{
		accountService: accountService,
		logger:         logger,
		tempDir:        tempDir,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register handles user registration; the avatar upload is mandatory
// @Summary Register a user account
// @Tags User
// @Accept mpfd
// @Produce json
// @Router /user/user-registration [post]
func (h *UserHandler) Register(c *gin.Context) {
	input, ok := h.bindRegistration(c)
	if !ok {
		return
	}

	account, err := h.accountService.RegisterUser(c.Request.Context(), input)
	if err != nil {
		h.logger.WithError(err).WithField("email", input.Email).Warn("User registration failed")
		respondServiceError(c, err)
		return
	}

	respondCreated(c, "Registration successful. Please check your email to verify your account.", account)
}

// Login handles user login
// @Summary Log a user in
// @Tags User
// @Accept json
// @Produce json
// @Router /user/user-login [post]
func (h *UserHandler) Login(c *gin.Context) {
	h.login(c, models.RoleUser)
}

// Logout tears down the user's live session
// @Summary Log a user out
// @Tags User
// @Produce json
// @Router /user/user-logout [delete]
func (h *UserHandler) Logout(c *gin.Context) {
	h.logout(c)
}

// Verify consumes the email-verification token carried as a bearer token
// @Summary Verify an account email
// @Tags User
// @Produce json
// @Router /user/user-verification [post]
func (h *UserHandler) Verify(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		respondError(c, http.StatusBadRequest, "Verification token is required")
		return
	}

	account, err := h.accountService.Verify(token)
	if err != nil {
		switch err {
		case services.ErrVerificationExpired:
			respondError(c, http.StatusUnauthorized, "Verification link has expired. Please register again.")
		case services.ErrVerificationInvalid:
			respondError(c, http.StatusUnauthorized, "Verification link is invalid")
		default:
			respondServiceError(c, err)
		}
		return
	}

	respondOK(c, "Email verified successfully", account)
}

// ForgotPassword starts the OTP-based password reset flow
// @Summary Request a password-reset OTP
// @Tags User
// @Accept json
// @Produce json
// @Router /user/forgot-user-password [post]
func (h *UserHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "A valid email is required")
		return
	}

	if err := h.accountService.ForgotPassword(req.Email); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, "An OTP has been sent to your email", nil)
}

// VerifyOTP consumes a password-reset OTP
// @Summary Verify a password-reset OTP
// @Tags User
// @Accept json
// @Produce json
// @Router /user/verify-user-otp/{email} [post]
func (h *UserHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		OTP string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "OTP is required")
		return
	}

	if err := h.accountService.VerifyOTP(c.Param("email"), req.OTP); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, "OTP verified successfully", nil)
}

// ResetPassword sets a new password after the OTP has been verified
// @Summary Reset a forgotten password
// @Tags User
// @Accept json
// @Produce json
// @Router /user/change-password/{email} [post]
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "A password of at least 6 characters is required")
		return
	}

	if err := h.accountService.ResetPassword(c.Param("email"), req.Password); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, "Password changed successfully", nil)
}

// ChangePassword replaces the password for the logged-in user
// @Summary Change the current password
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /user/user-change-password [post]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	authCtx := middleware.MustGetAuthContext(c)

	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Current and new passwords are required")
		return
	}

	if err := h.accountService.ChangePassword(authCtx.AccountID, req.CurrentPassword, req.NewPassword); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, "Password changed successfully", nil)
}

// UpdateProfile patches the logged-in user's profile; avatar is optional
// @Summary Update profile
// @Tags User
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Router /user/update-user-profile [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	authCtx := middleware.MustGetAuthContext(c)

	avatarPath, err := saveOptionalUpload(c, "avatar", h.tempDir)
	if err != nil {
		h.logger.WithError(err).Error("Failed to stage avatar upload")
		respondError(c, http.StatusInternalServerError, "Failed to process avatar")
		return
	}

	account, err := h.accountService.UpdateProfile(
		c.Request.Context(),
		authCtx.AccountID,
		c.PostForm("display_name"),
		c.PostForm("contact_number"),
		avatarPath,
	)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, "Profile updated successfully", account)
}

// RefreshToken exchanges a refresh token for a new access token
// @Summary Refresh the access token
// @Tags User
// @Accept json
// @Produce json
// @Router /user/refresh-token [post]
func (h *UserHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Refresh token is required")
		return
	}

	tokens, err := h.accountService.Refresh(req.RefreshToken)
	if err != nil {
		h.logger.WithError(err).Warn("Token refresh failed")
		respondError(c, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	respondOK(c, "Token refreshed", tokens)
}

// bindRegistration reads the multipart registration form shared by the user
// and admin registration endpoints. Every registration must carry an avatar
// file; the staged path travels with the input so the service can upload it.
func (h *UserHandler) bindRegistration(c *gin.Context) (services.RegisterInput, bool) {
	input := services.RegisterInput{
		DisplayName:   strings.TrimSpace(c.PostForm("display_name")),
		Email:         strings.TrimSpace(c.PostForm("email")),
		ContactNumber: strings.TrimSpace(c.PostForm("contact_number")),
		Password:      c.PostForm("password"),
	}

	if input.DisplayName == "" || input.Email == "" || input.ContactNumber == "" || input.Password == "" {
		respondError(c, http.StatusBadRequest, "display_name, email, contact_number and password are required")
		return input, false
	}
	if len(input.Password) < 6 {
		respondError(c, http.StatusBadRequest, "Password must be at least 6 characters")
		return input, false
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Avatar file is required")
		return input, false
	}
	avatarPath, err := saveUpload(c, file, h.tempDir)
	if err != nil {
		h.logger.WithError(err).Error("Failed to stage avatar upload")
		respondError(c, http.StatusInternalServerError, "Failed to process avatar")
		return input, false
	}
	input.AvatarPath = avatarPath

	return input, true
}

// login performs the shared login flow for a fixed role
func (h *UserHandler) login(c *gin.Context, role string) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "A valid email and password are required")
		return
	}

	account, tokens, err := h.accountService.Login(req.Email, role, req.Password, c.ClientIP(), deviceName(c))
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"email": req.Email,
			"role":  role,
		}).WithError(err).Warn("Login failed")
		respondServiceError(c, err)
		return
	}

	respondOK(c, "Login successful", gin.H{
		"account": account,
		"tokens":  tokens,
	})
}

// logout tears down the caller's session for their own role
func (h *UserHandler) logout(c *gin.Context) {
	authCtx := middleware.MustGetAuthContext(c)

	if err := h.accountService.Logout(authCtx.AccountID, authCtx.Role); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, "Logged out successfully", nil)
}

// bearerToken extracts the raw bearer token, empty when absent or malformed
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// deviceName renders a short browser/OS label for the session record
func deviceName(c *gin.Context) string {
	ua := user_agent.New(c.GetHeader("User-Agent"))
	browser, _ := ua.Browser()
	if browser == "" {
		return c.GetHeader("User-Agent")
	}
	if os := ua.OS(); os != "" {
		return browser + " on " + os
	}
	return browser
}
