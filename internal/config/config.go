package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port        string
	GinMode     string
	FrontendURL string

	// Database
	DatabaseURL string
	UseSQLite   bool
	SQLitePath  string
	DBUser      string
	DBPassword  string
	DBHost      string
	DBPort      string
	DBName      string
	PoolSize    int
	MaxOverflow int
	PoolTimeout int
	PoolRecycle int

	// Auth
	JWTSecret          string
	JWTExpirationHours int
	OAuthStateSecret   string

	// OAuth providers
	GoogleClientID      string
	GoogleClientSecret  string
	GoogleRedirectURI   string
	AppleClientID       string
	AppleTeamID         string
	AppleKeyID          string
	ApplePrivateKeyPath string
	AppleRedirectURI    string

	// Analyzer service
	AnalyzerURL     string
	AnalyzerTimeout int

	// Script archive storage
	StorageURL        string
	StorageServiceKey string
	StorageBucket     string

	// Uploads
	MaxFileSizeMB int

	// Rollup reconciliation
	RollupReconcileCron string
}

const insecureJWTSecret = "your-secret-key-change-this-in-production"

func Load() (*Config, error) {
	// Best-effort: a missing .env file is fine, real env still applies.
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		UseSQLite:   getEnvBool("USE_SQLITE", false),
		SQLitePath:  getEnv("SQLITE_PATH", "./script_analysis.db"),
		DBUser:      getEnv("DB_USER", ""),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBName:      getEnv("DB_NAME", ""),
		PoolSize:    getEnvInt("DB_POOL_SIZE", 10),
		MaxOverflow: getEnvInt("DB_MAX_OVERFLOW", 20),
		PoolTimeout: getEnvInt("DB_POOL_TIMEOUT", 30),
		PoolRecycle: getEnvInt("DB_POOL_RECYCLE", 3600),

		JWTSecret:          getEnv("JWT_SECRET", insecureJWTSecret),
		JWTExpirationHours: getEnvInt("JWT_EXPIRATION_HOURS", 24),
		OAuthStateSecret:   getEnv("OAUTH_STATE_SECRET", "default-secret"),

		GoogleClientID:      getEnv("GOOGLE_OAUTH_CLIENT_ID", ""),
		GoogleClientSecret:  getEnv("GOOGLE_OAUTH_CLIENT_SECRET", ""),
		GoogleRedirectURI:   getEnv("GOOGLE_OAUTH_REDIRECT_URI", ""),
		AppleClientID:       getEnv("APPLE_CLIENT_ID", ""),
		AppleTeamID:         getEnv("APPLE_TEAM_ID", ""),
		AppleKeyID:          getEnv("APPLE_KEY_ID", ""),
		ApplePrivateKeyPath: getEnv("APPLE_PRIVATE_KEY_PATH", ""),
		AppleRedirectURI:    getEnv("APPLE_REDIRECT_URI", ""),

		AnalyzerURL:     getEnv("ANALYZER_URL", "http://localhost:8001"),
		AnalyzerTimeout: getEnvInt("ANALYZER_TIMEOUT", 300),

		StorageURL:        getEnv("STORAGE_URL", ""),
		StorageServiceKey: getEnv("STORAGE_SERVICE_KEY", ""),
		StorageBucket:     getEnv("STORAGE_BUCKET", "scripts"),

		MaxFileSizeMB: getEnvInt("MAX_FILE_SIZE_MB", 50),

		RollupReconcileCron: getEnv("ROLLUP_RECONCILE_CRON", "*/10 * * * *"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.GinMode == "release" && c.JWTSecret == insecureJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in release mode")
	}
	if c.MaxFileSizeMB <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE_MB must be positive")
	}
	if c.AnalyzerTimeout <= 0 {
		return fmt.Errorf("ANALYZER_TIMEOUT must be positive")
	}
	return nil
}

// PostgresConfigured reports whether enough settings are present to build a
// Postgres DSN. When false the server falls back to the local SQLite file.
func (c *Config) PostgresConfigured() bool {
	if c.DatabaseURL != "" {
		return true
	}
	return c.DBUser != "" && c.DBHost != "" && c.DBName != ""
}

// GoogleOAuthConfigured reports whether Google sign-in can be offered.
func (c *Config) GoogleOAuthConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// AppleOAuthConfigured reports whether Apple sign-in can be offered.
func (c *Config) AppleOAuthConfigured() bool {
	return c.AppleClientID != "" && c.AppleTeamID != "" && c.AppleKeyID != "" && c.ApplePrivateKeyPath != ""
}

// StorageConfigured reports whether the script archive is enabled.
func (c *Config) StorageConfigured() bool {
	return c.StorageURL != "" && c.StorageServiceKey != ""
}

// JWTSecretConfigured reports whether the signing secret was changed from the
// development default.
func (c *Config) JWTSecretConfigured() bool {
	return c.JWTSecret != "" && c.JWTSecret != insecureJWTSecret
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
