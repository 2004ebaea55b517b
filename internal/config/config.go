package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	LogLevel string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	// CustomerNameMatch selects counterparty name matching: exact (default),
	// trim, or fold. Exact reproduces the historical free-text behavior.
	CustomerNameMatch string

	// Mutation rate limit, per business.
	RateLimitPerMinute int
	RateLimitBurst     int

	// BootstrapBusiness seeds a default business on startup so a fresh
	// self-hosted install is usable without a create call.
	BootstrapBusiness     bool
	BootstrapBusinessName string
	BootstrapOwnerName    string
}

// Load loads configuration from environment variables and an optional .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:            getenv("APP_SERVICE", "vaniga"),
		AppVersion:         getenv("APP_VERSION", "0.1.0"),
		Environment:        getenv("ENVIRONMENT", "development"),
		HTTPAddr:           getenv("HTTP_ADDR", ":8080"),
		LogLevel:           strings.ToLower(getenv("LOG_LEVEL", "info")),
		DBType:             getenv("DATABASE_TYPE", "postgres"),
		DBHost:             getenv("DATABASE_HOST", "localhost"),
		DBPort:             getenv("DATABASE_PORT", "5432"),
		DBName:             getenv("DATABASE_NAME", "vaniga"),
		DBUser:             getenv("DATABASE_USER", "postgres"),
		DBPassword:         getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:          getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:      getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:      getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime:  getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		CustomerNameMatch:  strings.ToLower(getenv("CUSTOMER_NAME_MATCH", "exact")),
		RateLimitPerMinute: getenvInt("RATE_LIMIT_PER_MINUTE", 60),
		RateLimitBurst:     getenvInt("RATE_LIMIT_BURST", 10),

		BootstrapBusiness:     getenvBool("BOOTSTRAP_BUSINESS", false),
		BootstrapBusinessName: getenv("BOOTSTRAP_BUSINESS_NAME", "My Shop"),
		BootstrapOwnerName:    getenv("BOOTSTRAP_OWNER_NAME", ""),
	}
}

var Module = fx.Module("config",
	fx.Provide(Load),
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
