package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	// Runtime
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`

	// Server
	Port           string        `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Database
	DBDriver   string `yaml:"db_driver"`
	DBPath     string `yaml:"db_path"`
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBSSLMode  string `yaml:"db_sslmode"`

	// Book session
	ReadOnly     bool `yaml:"readonly"`
	OpenIfLocked bool `yaml:"open_if_locked"`
	Backup       bool `yaml:"backup"`

	// Book defaults applied when a new book is created
	DefaultCurrency    string `yaml:"default_currency"`
	UseTradingAccounts bool   `yaml:"use_trading_accounts"`

	// Market data
	PriceProviderURL string `yaml:"price_provider_url"`
}

var appConfig *Config

// Load loads configuration from environment variables. If LEDGER_CONFIG names a
// YAML file, its values override the environment.
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", ""),

		Port:           getEnv("PORT", "8080"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 30*time.Second),

		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		DBPath:     getEnv("DB_PATH", "ledger.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "ledger"),
		DBPassword: getEnv("DB_PASSWORD", "ledger"),
		DBName:     getEnv("DB_NAME", "ledger"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		ReadOnly:     getBool("LEDGER_READONLY", false),
		OpenIfLocked: getBool("LEDGER_OPEN_IF_LOCKED", false),
		Backup:       getBool("LEDGER_BACKUP", false),

		DefaultCurrency:    getEnv("DEFAULT_CURRENCY", "EUR"),
		UseTradingAccounts: getBool("USE_TRADING_ACCOUNTS", false),

		PriceProviderURL: getEnv("PRICE_PROVIDER_URL", "https://query1.finance.yahoo.com"),
	}

	if path := os.Getenv("LEDGER_CONFIG"); path != "" {
		if err := config.overlay(path); err != nil {
			return nil, err
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

// overlay decodes a YAML file over the current values. Keys absent from the
// file keep their environment value.
func (c *Config) overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %t\n", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}
