package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wanderstack/tourism-backend/internal/database"
	"github.com/wanderstack/tourism-backend/internal/models"
	"github.com/wanderstack/tourism-backend/pkg/jwt"
	"github.com/wanderstack/tourism-backend/pkg/mailer"
	"github.com/wanderstack/tourism-backend/pkg/storage"
	"golang.org/x/crypto/bcrypt"
)

// Account-flow failures the handlers map to distinct responses
var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountNotVerified  = errors.New("account email is not verified")
	ErrAdminNotApproved    = errors.New("admin account is awaiting approval")
	ErrVerificationExpired = errors.New("verification link has expired")
	ErrVerificationInvalid = errors.New("verification link is invalid")
	ErrNoLiveSession       = errors.New("no live session for this account")
	ErrWrongPassword       = errors.New("current password is incorrect")
	ErrMissingAvatar       = errors.New("avatar image is required")
)

// accountStore is the slice of the account repository the service drives
type accountStore interface {
	Create(account *models.Account) error
	GetByID(id uuid.UUID) (*models.Account, error)
	GetByEmail(email string) (*models.Account, error)
	GetByEmailAndRole(email, role string) (*models.Account, error)
	SuperAdminExists() (bool, error)
	SetVerificationToken(id uuid.UUID, token string) error
	MarkVerified(id uuid.UUID) error
	SetPasswordHash(id uuid.UUID, hash string) error
	SetLoggedIn(id uuid.UUID, loggedIn bool) error
	ApproveAdmin(id uuid.UUID) error
	UpdateProfile(id uuid.UUID, displayName, contactNumber string, avatarURL models.NullString) error
}

// sessionStore is the slice of the session repository the service drives
type sessionStore interface {
	Replace(accountID uuid.UUID, role, ipAddress, device string) (*models.Session, error)
	Exists(accountID uuid.UUID, role string) (bool, error)
	Delete(accountID uuid.UUID, role string) error
}

// RegisterInput carries a registration request
type RegisterInput struct {
	DisplayName   string
	Email         string
	ContactNumber string
	Password      string
	AvatarPath    string
}

// TokenPair is the signed token set returned on login and refresh
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// AccountService handles registration, login, verification and the password
// flows for all three roles.
type AccountService struct {
	accounts   accountStore
	sessions   sessionStore
	otp        *OTPService
	jwtService *jwt.Service
	uploader   storage.Uploader
	mail       mailer.Mailer
	logger     *logrus.Logger

	bcryptCost         int
	adminAccessExpiry  time.Duration
	adminRefreshExpiry time.Duration
}

// NewAccountService creates a new account service
func NewAccountService(
	accounts accountStore,
	sessions sessionStore,
	otp *OTPService,
	jwtService *jwt.Service,
	uploader storage.Uploader,
	mail mailer.Mailer,
	logger *logrus.Logger,
	bcryptCost int,
	adminAccessExpiry time.Duration,
	adminRefreshExpiry time.Duration,
) *AccountService {
	return &AccountService{
		accounts:           accounts,
		sessions:           sessions,
		otp:                otp,
		jwtService:         jwtService,
		uploader:           uploader,
		mail:               mail,
		logger:             logger,
		bcryptCost:         bcryptCost,
		adminAccessExpiry:  adminAccessExpiry,
		adminRefreshExpiry: adminRefreshExpiry,
	}
}

// RegisterUser creates an unverified user account and mails the verification
// link. The mandatory avatar is uploaded before the row is inserted so a
// failed upload leaves no half-registered account behind.
func (s *AccountService) RegisterUser(ctx context.Context, input RegisterInput) (*models.Account, error) {
	avatarURL, err := s.uploadAvatar(ctx, input.AvatarPath)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		DisplayName:   input.DisplayName,
		Email:         input.Email,
		ContactNumber: input.ContactNumber,
		AvatarURL:     avatarURL,
		Role:          models.RoleUser,
		Status:        models.AccountStatusApproved,
		IsActive:      true,
	}

	if err := s.register(account, input.Password); err != nil {
		return nil, err
	}

	return account, nil
}

// RegisterSuperAdmin creates the platform's single super-admin account. A
// second registration fails before insert, and the partial unique index on
// the role column rejects any race that slips past the check.
func (s *AccountService) RegisterSuperAdmin(ctx context.Context, input RegisterInput) (*models.Account, error) {
	exists, err := s.accounts.SuperAdminExists()
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, database.ErrSuperAdminExists
	}

	avatarURL, err := s.uploadAvatar(ctx, input.AvatarPath)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		DisplayName:   input.DisplayName,
		Email:         input.Email,
		ContactNumber: input.ContactNumber,
		AvatarURL:     avatarURL,
		Role:          models.RoleSuperAdmin,
		Status:        models.AccountStatusApproved,
		IsActive:      true,
	}

	if err := s.register(account, input.Password); err != nil {
		return nil, err
	}

	return account, nil
}

// RegisterAdmin creates an admin account. It starts inactive with pending
// status and cannot log in until a super admin approves it; email
// verification runs independently through the mailed link.
func (s *AccountService) RegisterAdmin(ctx context.Context, input RegisterInput) (*models.Account, error) {
	avatarURL, err := s.uploadAvatar(ctx, input.AvatarPath)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		DisplayName:   input.DisplayName,
		Email:         input.Email,
		ContactNumber: input.ContactNumber,
		AvatarURL:     avatarURL,
		Role:          models.RoleAdmin,
		Status:        models.AccountStatusPending,
		IsActive:      false,
	}

	if err := s.register(account, input.Password); err != nil {
		return nil, err
	}

	return account, nil
}

// uploadAvatar pushes the staged avatar to blob storage and removes the temp
// file. Registration requires one for every role.
func (s *AccountService) uploadAvatar(ctx context.Context, path string) (models.NullString, error) {
	if path == "" {
		return models.NullString{}, ErrMissingAvatar
	}

	url, err := s.uploader.Upload(ctx, path, "avatars")
	if err != nil {
		return models.NullString{}, fmt.Errorf("failed to upload avatar: %w", err)
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.WithError(err).WithField("path", path).Warn("Failed to remove temp avatar")
	}

	return models.SomeString(url), nil
}

// register hashes the password, inserts the row and mails the verification
// link. The signed verification token is generated after insert because it
// embeds the account id, then stored so a reissued link invalidates it.
func (s *AccountService) register(account *models.Account, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	account.PasswordHash = string(hash)

	if err := s.accounts.Create(account); err != nil {
		return err
	}

	token, err := s.jwtService.GenerateVerificationToken(account.ID)
	if err != nil {
		return fmt.Errorf("failed to generate verification token: %w", err)
	}

	if err := s.accounts.SetVerificationToken(account.ID, token); err != nil {
		return err
	}
	account.PendingVerificationToken = models.SomeString(token)

	s.mail.SendVerification(account.Email, token)

	s.logger.WithFields(logrus.Fields{
		"account_id": account.ID,
		"role":       account.Role,
	}).Info("Account registered, verification mail queued")

	return nil
}

// Login authenticates an account for a role and opens its single live
// session, displacing any prior one. Admins must be approved before they can
// log in; every role must have verified its email.
func (s *AccountService) Login(email, role, password, ipAddress, device string) (*models.Account, *TokenPair, error) {
	account, err := s.accounts.GetByEmailAndRole(email, role)
	if err != nil {
		return nil, nil, err
	}
	if account == nil {
		return nil, nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	if !account.IsVerified {
		return nil, nil, ErrAccountNotVerified
	}

	if account.Role == models.RoleAdmin && (!account.IsActive || account.Status != models.AccountStatusApproved) {
		return nil, nil, ErrAdminNotApproved
	}

	if _, err := s.sessions.Replace(account.ID, account.Role, ipAddress, device); err != nil {
		return nil, nil, err
	}

	if err := s.accounts.SetLoggedIn(account.ID, true); err != nil {
		return nil, nil, err
	}
	account.IsLoggedIn = true

	tokens, err := s.issueTokens(account)
	if err != nil {
		return nil, nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"account_id": account.ID,
		"role":       account.Role,
		"ip":         ipAddress,
	}).Info("Account logged in")

	return account, tokens, nil
}

// Logout tears down the live session. Signed tokens issued earlier keep
// their cryptographic validity; the session check in the auth middleware is
// what makes them stop working.
func (s *AccountService) Logout(accountID uuid.UUID, role string) error {
	if err := s.sessions.Delete(accountID, role); err != nil {
		return err
	}

	if err := s.accounts.SetLoggedIn(accountID, false); err != nil && !errors.Is(err, database.ErrNotFound) {
		return err
	}

	return nil
}

// Verify consumes an email-verification token. Expired links report
// ErrVerificationExpired so the frontend can offer a resend; any mismatch
// with the stored pending token reports ErrVerificationInvalid.
func (s *AccountService) Verify(token string) (*models.Account, error) {
	claims, err := s.jwtService.ValidateVerificationToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrVerificationExpired
		}
		return nil, ErrVerificationInvalid
	}

	account, err := s.accounts.GetByID(claims.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrVerificationInvalid
	}

	if account.IsVerified {
		return account, nil
	}

	if !account.PendingVerificationToken.Valid || account.PendingVerificationToken.String != token {
		return nil, ErrVerificationInvalid
	}

	if err := s.accounts.MarkVerified(account.ID); err != nil {
		return nil, err
	}
	account.IsVerified = true
	account.PendingVerificationToken = models.NullString{}

	return account, nil
}

// ForgotPassword issues a reset OTP and mails it. An unknown email returns
// database.ErrNotFound; the handler decides whether to reveal that.
func (s *AccountService) ForgotPassword(email string) error {
	account, err := s.accounts.GetByEmail(email)
	if err != nil {
		return err
	}
	if account == nil {
		return database.ErrNotFound
	}

	otp, err := s.otp.Issue(account)
	if err != nil {
		return err
	}

	s.mail.SendOTP(account.Email, otp)

	s.logger.WithField("account_id", account.ID).Info("Password reset OTP queued")
	return nil
}

// VerifyOTP consumes a reset OTP for the account behind the email
func (s *AccountService) VerifyOTP(email, otp string) error {
	account, err := s.accounts.GetByEmail(email)
	if err != nil {
		return err
	}
	if account == nil {
		return database.ErrNotFound
	}

	return s.otp.Consume(account, otp)
}

// ResetPassword replaces the password for the account behind the email.
// Callers reach this only after VerifyOTP has consumed the reset OTP.
func (s *AccountService) ResetPassword(email, newPassword string) error {
	account, err := s.accounts.GetByEmail(email)
	if err != nil {
		return err
	}
	if account == nil {
		return database.ErrNotFound
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.accounts.SetPasswordHash(account.ID, string(hash))
}

// ChangePassword replaces the password for a logged-in account after
// checking the current one.
func (s *AccountService) ChangePassword(accountID uuid.UUID, currentPassword, newPassword string) error {
	account, err := s.accounts.GetByID(accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return database.ErrNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.accounts.SetPasswordHash(account.ID, string(hash))
}

// UpdateProfile patches display name, contact number and avatar. A new
// avatar file is uploaded first; blank fields keep their stored values.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID uuid.UUID, displayName, contactNumber, avatarPath string) (*models.Account, error) {
	var avatarURL models.NullString
	if avatarPath != "" {
		url, err := s.uploader.Upload(ctx, avatarPath, "avatars")
		if err != nil {
			return nil, fmt.Errorf("failed to upload avatar: %w", err)
		}
		avatarURL = models.SomeString(url)

		if err := os.Remove(avatarPath); err != nil && !os.IsNotExist(err) {
			s.logger.WithError(err).WithField("path", avatarPath).Warn("Failed to remove temp avatar")
		}
	}

	if err := s.accounts.UpdateProfile(accountID, displayName, contactNumber, avatarURL); err != nil {
		return nil, err
	}

	return s.accounts.GetByID(accountID)
}

// ApproveAdmin activates a pending admin account
func (s *AccountService) ApproveAdmin(adminID uuid.UUID) error {
	if err := s.accounts.ApproveAdmin(adminID); err != nil {
		return err
	}

	s.logger.WithField("account_id", adminID).Info("Admin approved")
	return nil
}

// Refresh exchanges a refresh token for a fresh access token. The account's
// session must still be live; a logout or displaced login kills refresh too.
func (s *AccountService) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(claims.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, jwt.ErrTokenInvalid
	}

	live, err := s.sessions.Exists(account.ID, account.Role)
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, ErrNoLiveSession
	}

	accessToken, err := s.jwtService.GenerateAccessToken(account.ID, s.accessExpiryFor(account.Role))
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken}, nil
}

// issueTokens signs the access and refresh pair with role-based lifetimes
func (s *AccountService) issueTokens(account *models.Account) (*TokenPair, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(account.ID, s.accessExpiryFor(account.Role))
	if err != nil {
		return nil, err
	}

	var refreshExpiry time.Duration
	if account.Role != models.RoleUser {
		refreshExpiry = s.adminRefreshExpiry
	}
	refreshToken, err := s.jwtService.GenerateRefreshToken(account.ID, refreshExpiry)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// accessExpiryFor returns the role's access-token lifetime; zero means the
// jwt service default, which is the user lifetime.
func (s *AccountService) accessExpiryFor(role string) time.Duration {
	if role != models.RoleUser {
		return s.adminAccessExpiry
	}
	return 0
}
