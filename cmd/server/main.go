package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/wanderstack/tourism-backend/internal/config"
	"github.com/wanderstack/tourism-backend/internal/database"
	"github.com/wanderstack/tourism-backend/internal/handlers"
	"github.com/wanderstack/tourism-backend/internal/middleware"
	"github.com/wanderstack/tourism-backend/internal/models"
	"github.com/wanderstack/tourism-backend/internal/services"
	"github.com/wanderstack/tourism-backend/pkg/jwt"
	"github.com/wanderstack/tourism-backend/pkg/mailer"
	"github.com/wanderstack/tourism-backend/pkg/storage"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting WanderStack Tourism Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Apply schema
	if err := database.Migrate(db); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	logger.Info("Database schema up to date")

	// Initialize collaborators
	uploader, err := storage.NewCloudinary(
		cfg.Cloudinary.CloudName,
		cfg.Cloudinary.APIKey,
		cfg.Cloudinary.APISecret,
	)
	if err != nil {
		logger.Fatalf("Failed to initialize blob storage: %v", err)
	}

	mail := mailer.NewSMTP(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
		cfg.SMTP.From,
		cfg.FrontendURL,
		logger,
	)

	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
		cfg.JWT.VerificationTokenExpiry,
	)

	// Initialize repositories
	accountRepository := database.NewAccountRepository(db)
	sessionRepository := database.NewSessionRepository(db)
	listingRepository := database.NewListingRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	otpService := services.NewOTPService(accountRepository)
	accountService := services.NewAccountService(
		accountRepository,
		sessionRepository,
		otpService,
		jwtService,
		uploader,
		mail,
		logger,
		cfg.Security.BcryptCost,
		cfg.JWT.AdminAccessTokenExpiry,
		cfg.JWT.AdminRefreshTokenExpiry,
	)
	moderationService := services.NewModerationService(listingRepository, uploader, logger)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(accountService, logger, cfg.Upload.TempDir)
	adminHandler := handlers.NewAdminHandler(accountService, logger, cfg.Upload.TempDir)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Auth middleware chains
	authenticated := middleware.Authenticate(jwtService, accountRepository, sessionRepository)
	userOnly := middleware.Authorize(models.RoleUser)
	adminUp := middleware.Authorize(models.RoleAdmin, models.RoleSuperAdmin)
	superAdminOnly := middleware.Authorize(models.RoleSuperAdmin)

	api := router.Group("/api")
	{
		user := api.Group("/user")
		{
			user.POST("/user-registration", userHandler.Register)
			user.POST("/user-login", userHandler.Login)
			user.DELETE("/user-logout", authenticated, userOnly, userHandler.Logout)
			user.POST("/user-verification", userHandler.Verify)
			user.POST("/forgot-user-password", userHandler.ForgotPassword)
			user.POST("/verify-user-otp/:email", userHandler.VerifyOTP)
			user.POST("/change-password/:email", userHandler.ResetPassword)
			user.POST("/user-change-password", authenticated, userOnly, userHandler.ChangePassword)
			user.PUT("/update-user-profile", authenticated, userOnly, userHandler.UpdateProfile)
			user.POST("/refresh-token", userHandler.RefreshToken)
		}

		admin := api.Group("/admin")
		{
			admin.POST("/super-admin-registration", adminHandler.RegisterSuperAdmin)
			admin.POST("/super-admin-login", adminHandler.SuperAdminLogin)
			admin.DELETE("/super-admin-logout", authenticated, superAdminOnly, adminHandler.SuperAdminLogout)
			admin.POST("/admin-registration", authenticated, superAdminOnly, adminHandler.RegisterAdmin)
			admin.PATCH("/approve-admin/:adminId", authenticated, superAdminOnly, adminHandler.ApproveAdmin)
			admin.POST("/admin-login", adminHandler.AdminLogin)
			admin.DELETE("/admin-logout", authenticated, adminUp, adminHandler.AdminLogout)
		}

		// One route block per listing type; the handlers share every code
		// path through the descriptor.
		for _, t := range models.ListingTypes {
			h := handlers.NewListingHandler(moderationService, t, logger, cfg.Upload.TempDir, cfg.Upload.MaxImages)

			group := api.Group("/" + routePrefix(t))
			{
				group.POST("", authenticated, adminUp, h.Create)
				group.GET("", h.ListActive)
				group.GET("/nearby", h.Nearby)
				group.GET("/pending", authenticated, superAdminOnly, h.ListPending)
				group.GET("/:id", h.Get)
				group.PATCH("/:id", authenticated, adminUp, h.Update)
				group.DELETE("/:id", authenticated, adminUp, h.SoftDelete)
				group.PATCH("/:id/approve", authenticated, superAdminOnly, h.Approve)
				group.PATCH("/:id/reject", authenticated, superAdminOnly, h.Reject)

				if t.Key == models.HotelType.Key {
					group.DELETE("/:id/permanent", authenticated, adminUp, h.HardDelete)
				}
				if t.Key == models.PlaceType.Key {
					group.GET("/cities/:cityId/places", h.ListByCity)
				}
			}
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// routePrefix maps a listing type to its URL segment. The restaurant
// misspelling is load-bearing: the deployed frontends call /api/resturant.
func routePrefix(t models.ListingType) string {
	if t.Key == models.RestaurantType.Key {
		return "resturant"
	}
	return t.Key
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if authCtx, exists := middleware.GetAuthContext(c); exists {
			fields["account_id"] = authCtx.AccountID
			fields["role"] = authCtx.Role
		}

		entry := logger.WithFields(fields)
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("Request completed")
		case c.Writer.Status() >= 400:
			entry.Warn("Request completed")
		default:
			entry.Info("Request completed")
		}
	}
}

// healthCheckHandler reports process and database health
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		dbStatus := "connected"
		code := http.StatusOK

		if err := db.Ping(); err != nil {
			status = "unhealthy"
			dbStatus = "disconnected"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":    status,
			"database":  dbStatus,
			"version":   version,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
