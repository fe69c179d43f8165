package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	OTP        OTPConfig
	Cloudinary CloudinaryConfig
	SMTP       SMTPConfig
	Security   SecurityConfig
	CORS       CORSConfig
	Upload     UploadConfig

	// FrontendURL is the base URL verification links point at
	FrontendURL string
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds token-signing configuration
type JWTConfig struct {
	Secret                  string
	AccessTokenExpiry       time.Duration
	RefreshTokenExpiry      time.Duration
	AdminAccessTokenExpiry  time.Duration
	AdminRefreshTokenExpiry time.Duration
	VerificationTokenExpiry time.Duration
}

// OTPConfig holds OTP-related configuration
type OTPConfig struct {
	Length        int
	ExpiryMinutes int
}

// CloudinaryConfig holds blob-storage credentials
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

// SMTPConfig holds outbound mail configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	BcryptCost int
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// UploadConfig holds multipart upload handling configuration
type UploadConfig struct {
	TempDir   string
	MaxImages int
}

// Load loads configuration from environment variables. A .env file is read
// if present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "3002"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                os.Getenv("DATABASE_URL"),
			MaxConnections:     getEnvInt("DB_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvInt("DB_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		JWT: JWTConfig{
			Secret:                  os.Getenv("JWT_SECRET"),
			AccessTokenExpiry:       getEnvDuration("JWT_ACCESS_EXPIRY", 7*24*time.Hour),
			RefreshTokenExpiry:      getEnvDuration("JWT_REFRESH_EXPIRY", 10*24*time.Hour),
			AdminAccessTokenExpiry:  getEnvDuration("JWT_ADMIN_ACCESS_EXPIRY", 10*24*time.Hour),
			AdminRefreshTokenExpiry: getEnvDuration("JWT_ADMIN_REFRESH_EXPIRY", 14*24*time.Hour),
			VerificationTokenExpiry: getEnvDuration("JWT_VERIFICATION_EXPIRY", 24*time.Hour),
		},
		OTP: OTPConfig{
			Length:        getEnvInt("OTP_LENGTH", 6),
			ExpiryMinutes: getEnvInt("OTP_EXPIRY_MINUTES", 10),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", os.Getenv("SMTP_USERNAME")),
		},
		Security: SecurityConfig{
			BcryptCost: getEnvInt("BCRYPT_COST", 10),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
			AllowedMethods: getEnvSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Authorization", "Accept"}),
		},
		Upload: UploadConfig{
			TempDir:   getEnv("UPLOAD_TEMP_DIR", os.TempDir()),
			MaxImages: getEnvInt("UPLOAD_MAX_IMAGES", 5),
		},
		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),
	}

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvDuration gets an environment variable as a duration with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvSlice gets a comma-separated environment variable as a slice
func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
