package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// All environment variables are read through this package only.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Market data provider
	Provider ProviderConfig

	// Screening
	Screen ScreenConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// ProviderConfig holds market data provider API configuration.
type ProviderConfig struct {
	Token          string        // API credential, supplied out-of-band
	BaseURL        string
	BatchSize      int           // max symbols per batch request (provider limit: 100)
	RequestTimeout time.Duration
	RatePerSecond  float64       // client-side request rate limit
}

// ScreenConfig holds screening parameters.
type ScreenConfig struct {
	TopN int // number of names selected from the ranked universe
}

// Load reads configuration from environment variables.
// Only this function calls os.Getenv().
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8087"),
		Env:  getEnv("ENV", "development"),

		// Market data provider
		Provider: ProviderConfig{
			Token:          getEnv("IEX_TOKEN", ""),
			BaseURL:        getEnv("IEX_BASE_URL", "https://cloud.iexapis.com/stable"),
			BatchSize:      getEnvAsInt("IEX_BATCH_SIZE", 100),
			RequestTimeout: getEnvAsDuration("IEX_REQUEST_TIMEOUT", "30s"),
			RatePerSecond:  getEnvAsFloat("IEX_RATE_PER_SECOND", 8),
		},

		// Screening
		Screen: ScreenConfig{
			TopN: getEnvAsInt("SCREEN_TOP_N", 50),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Provider.BatchSize < 1 || c.Provider.BatchSize > 100 {
		return fmt.Errorf("IEX_BATCH_SIZE must be between 1 and 100, got %d", c.Provider.BatchSize)
	}

	if c.Screen.TopN < 1 {
		return fmt.Errorf("SCREEN_TOP_N must be positive, got %d", c.Screen.TopN)
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
