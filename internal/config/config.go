package config

import (
	"fmt"     // Validation messages
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"time"    // Durations and dates

	"github.com/joho/godotenv"   // For loading .env files
	"github.com/sirupsen/logrus" // Log level parsing
)

// Config holds the application configuration
type Config struct {
	AppPort        string // Application port
	DBUser         string // Database user
	DBPassword     string // Database password
	DBHost         string // Database host
	DBPort         string // Database port
	DBName         string // Database name
	DBMaxOpenConns int    // Connection pool size
	JWTSecret      string // JWT secret key
	RedisAddr      string // Redis server address
	RedisPass      string // Redis password
	RedisDB        int    // Redis database number
	IsProd         bool   // Is production environment
	LogLevel       string // logrus level name

	LockWaitTimeout        time.Duration // Max wait for another mutation of the same user
	CacheTTL               time.Duration // Lifetime of cached balances and history pages
	LedgerMinDate          time.Time     // Earliest accepted transaction date
	LedgerMaxFutureDays    int           // How far ahead a transaction may be dated
	RequireExpenseCategory bool          // Expenses must carry a category id
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:        getenv("APP_PORT", "8080"),             // Application port
		DBUser:         os.Getenv("DB_USER"),                   // Database user
		DBPassword:     os.Getenv("DB_PASSWORD"),               // Database password
		DBHost:         getenv("DB_HOST", "127.0.0.1"),         // Database host
		DBPort:         getenv("DB_PORT", "3306"),              // Database port
		DBName:         os.Getenv("DB_NAME"),                   // Database name
		DBMaxOpenConns: getint("DB_MAX_OPEN_CONNS", 20),        // Connection pool size
		JWTSecret:      os.Getenv("JWT_SECRET"),                // JWT secret key
		RedisAddr:      getenv("REDIS_ADDR", "127.0.0.1:6379"), // Redis server address
		RedisPass:      os.Getenv("REDIS_PASS"),                // Redis password
		RedisDB:        getint("REDIS_DB", 0),                  // Redis database number
		IsProd:         os.Getenv("IS_PROD") == "true",         // Is production environment
		LogLevel:       getenv("LOG_LEVEL", "info"),            // Log level

		LockWaitTimeout:        time.Duration(getint("DB_LOCK_WAIT_TIMEOUT", 5)) * time.Second, // Lock wait in seconds
		CacheTTL:               time.Duration(getint("CACHE_TTL", 60)) * time.Second,           // Cache TTL in seconds
		LedgerMinDate:          getdate("LEDGER_MIN_DATE", "1900-01-01"),                       // Earliest date
		LedgerMaxFutureDays:    getint("LEDGER_MAX_FUTURE_DAYS", 365),                          // Future window in days
		RequireExpenseCategory: os.Getenv("REQUIRE_EXPENSE_CATEGORY") == "true",                // Category rule
	}
}

// Validate rejects configurations the server cannot run with
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.AppPort)
	if err != nil {
		return fmt.Errorf("invalid port '%s': must be a number", c.AppPort)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", port)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.DBName == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.LockWaitTimeout < time.Second {
		return fmt.Errorf("invalid lock wait timeout %s: must be at least 1s", c.LockWaitTimeout)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("invalid cache ttl %s: must not be negative", c.CacheTTL)
	}
	if c.LedgerMinDate.IsZero() {
		return fmt.Errorf("invalid LEDGER_MIN_DATE: expected YYYY-MM-DD")
	}
	if c.LedgerMaxFutureDays < 0 {
		return fmt.Errorf("invalid ledger max future days %d: must not be negative", c.LedgerMaxFutureDays)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level '%s': %w", c.LogLevel, err)
	}
	return nil
}

// getenv returns the variable or a default when unset
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getint returns the variable as int, or the default when unset or malformed
func getint(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

// getdate parses a YYYY-MM-DD variable; a malformed value yields the zero time
func getdate(key, def string) time.Time {
	t, err := time.Parse(time.DateOnly, getenv(key, def))
	if err != nil {
		return time.Time{} // Caught by Validate
	}
	return t
}
