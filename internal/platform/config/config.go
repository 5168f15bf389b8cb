package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                       string
	DatabaseURL                string
	JWTSecret                  string
	DataEncryptionKey          string
	Environment                string
	CORSAllowedOrigins         []string
	MigrationsDir              string
	SeedTenantName             string
	SeedAdminEmail             string
	SeedAdminPassword          string
	SeedSiteCode               string
	SeedSiteName               string
	RunMigrations              bool
	RunSeed                    bool
	MaxBodyBytes               int64
	RateLimitPerMinute         int
	MetricsEnabled             bool
	PayslipLockPaid            bool
	RequireFinalizedAttendance bool
	BulkConcurrency            int
	ExportDir                  string
	PTTablePath                string
	DefaultPTJurisdiction      string
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("dotenv load failed", "err", err)
	}
	return Config{
		Addr:                       getEnv("APP_ADDR", ":8080"),
		DatabaseURL:                getEnv("DATABASE_URL", ""),
		JWTSecret:                  getEnv("JWT_SECRET", ""),
		DataEncryptionKey:          getEnv("DATA_ENCRYPTION_KEY", ""),
		Environment:                getEnv("APP_ENV", "development"),
		CORSAllowedOrigins:         getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		MigrationsDir:              getEnv("MIGRATIONS_DIR", "migrations"),
		SeedTenantName:             getEnv("SEED_TENANT_NAME", "Default Tenant"),
		SeedAdminEmail:             getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword:          getEnv("SEED_ADMIN_PASSWORD", ""),
		SeedSiteCode:               getEnv("SEED_SITE_CODE", ""),
		SeedSiteName:               getEnv("SEED_SITE_NAME", ""),
		RunMigrations:              getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:                    getEnvBool("RUN_SEED", true),
		MaxBodyBytes:               int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute:         getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		MetricsEnabled:             getEnvBool("METRICS_ENABLED", true),
		PayslipLockPaid:            getEnvBool("PAYSLIP_LOCK_PAID", true),
		RequireFinalizedAttendance: getEnvBool("REQUIRE_FINALIZED_ATTENDANCE", false),
		BulkConcurrency:            getEnvInt("BULK_CONCURRENCY", 1),
		ExportDir:                  getEnv("EXPORT_DIR", "storage/exports"),
		PTTablePath:                getEnv("PT_TABLE_PATH", ""),
		DefaultPTJurisdiction:      getEnv("DEFAULT_PT_JURISDICTION", "MH"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for bank details at rest")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.BulkConcurrency < 1 || c.BulkConcurrency > 32 {
		return fmt.Errorf("BULK_CONCURRENCY must be between 1 and 32")
	}
	if strings.TrimSpace(c.ExportDir) == "" {
		return fmt.Errorf("EXPORT_DIR is required")
	}
	return nil
}
