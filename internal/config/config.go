package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string
	Env  string

	// Database. Driver selects between "sqlite" (default) and "postgres".
	DBDriver   string
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Ledger
	MainCurrency    string
	ViewportBack    int
	ViewportForward int

	// Exchange rates. URLs are templates with a %s placeholder for the
	// lowercase base currency code, tried in order until one succeeds.
	RatesURLs []string

	// Messaging. Empty AMQPURL disables the broker publisher.
	AMQPURL string
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
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("APP_ENV", "development"),

		// Database
		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		DBPath:     getEnv("DB_PATH", "tally.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "tally"),
		DBPassword: getEnv("DB_PASSWORD", "tally"),
		DBName:     getEnv("DB_NAME", "tally"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Ledger
		MainCurrency:    strings.ToUpper(getEnv("MAIN_CURRENCY", "USD")),
		ViewportBack:    getEnvInt("VIEWPORT_MONTHS_BACK", 3),
		ViewportForward: getEnvInt("VIEWPORT_MONTHS_FORWARD", 11),

		// Messaging
		AMQPURL: getEnv("AMQP_URL", ""),
	}

	// Primary and fallback hosts for the daily exchange rate dataset.
	rates := getEnv("RATES_URLS",
		"https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@latest/v1/currencies/%s.json,"+
			"https://latest.currency-api.pages.dev/v1/currencies/%s.json")
	for _, u := range strings.Split(rates, ",") {
		if u = strings.TrimSpace(u); u != "" {
			config.RatesURLs = append(config.RatesURLs, u)
		}
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

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, value, defaultValue)
		return defaultValue
	}
	return n
}
