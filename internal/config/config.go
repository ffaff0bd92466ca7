package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port           string
	Env            string
	RequestTimeout time.Duration

	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Auth
	JWTSecret      string
	PipelineAPIKey string

	// Price lookup sheet
	GoogleSheetID         string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string
	PriceSheetName        string

	// Master reference CSV
	MasterCSVURL string
	MasterCSVTTL time.Duration

	// Fetcher limits
	PriceChunkSize     int
	PriceSettleWait    time.Duration
	PriceRetryDelay    time.Duration
	PriceChunkCooldown time.Duration
	PriceMaxAttempts   int

	// In-process scheduler
	SchedulerEnabled       bool
	SchedulerRetryInterval time.Duration
	SchedulerFullInterval  time.Duration
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 2*time.Minute),

		// Database
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "cashflow"),
		DBPassword: getEnv("DB_PASSWORD", "cashflow"),
		DBName:     getEnv("DB_NAME", "cashflow"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "cashflow.db"),

		// Auth
		JWTSecret:      getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		PipelineAPIKey: os.Getenv("PIPELINE_API_KEY"),

		// Price lookup sheet
		GoogleSheetID:         os.Getenv("GOOGLE_SHEET_ID"),
		GoogleCredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),
		GoogleCredentialsJSON: os.Getenv("GOOGLE_CREDENTIALS_JSON"),
		PriceSheetName:        getEnv("PRICE_SHEET_NAME", "シート2"),

		// Master reference CSV
		MasterCSVURL: os.Getenv("MASTER_CSV_URL"),
		MasterCSVTTL: getDuration("MASTER_CSV_TTL", 3*time.Hour),

		// Fetcher limits
		PriceChunkSize:     getInt("PRICE_CHUNK_SIZE", 30),
		PriceSettleWait:    getDuration("PRICE_SETTLE_WAIT", 15*time.Second),
		PriceRetryDelay:    getDuration("PRICE_RETRY_DELAY", 2*time.Second),
		PriceChunkCooldown: getDuration("PRICE_CHUNK_COOLDOWN", time.Second),
		PriceMaxAttempts:   getInt("PRICE_MAX_ATTEMPTS", 3),

		// In-process scheduler
		SchedulerEnabled:       getBool("SCHEDULER_ENABLED", false),
		SchedulerRetryInterval: getDuration("SCHEDULER_RETRY_INTERVAL", 30*time.Minute),
		SchedulerFullInterval:  getDuration("SCHEDULER_FULL_INTERVAL", 6*time.Hour),
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// PriceLookupConfigured reports whether the spreadsheet price lookup can be used.
func (c *Config) PriceLookupConfigured() bool {
	return c.GoogleSheetID != "" && (c.GoogleCredentialsFile != "" || c.GoogleCredentialsJSON != "")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration parses a duration variable, falling back with a warning
// when the value is malformed.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %t\n", key, raw, defaultValue)
		return defaultValue
	}
	return b
}
