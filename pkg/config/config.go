package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Funding modes for the liquidity planner
const (
	FundingBuysOnly = "buys"
	FundingNet      = "net"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (order journal, optional)
	Database DatabaseConfig

	// Redis (price cache / rate limit, optional)
	Redis RedisConfig

	// Brokerage
	Alpaca AlpacaConfig

	// Rebalance tuning
	Rebalance RebalanceConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database URL was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// AlpacaConfig holds Alpaca brokerage API configuration
type AlpacaConfig struct {
	KeyID     string
	SecretKey string
	BaseURL   string // trading API
	DataURL   string // market data API
	Paper     bool   // paper trading account
}

// RebalanceConfig holds the tunables of the allocation core
type RebalanceConfig struct {
	PriceBuffer   decimal.Decimal // multiplier applied to last trade price
	FundingMode   string          // buys | net
	PriceCacheTTL time.Duration   // 0 disables the price cache
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	paper := getEnvAsBool("ALPACA_PAPER", true)
	defaultBaseURL := "https://api.alpaca.markets"
	if paper {
		defaultBaseURL = "https://paper-api.alpaca.markets"
	}

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Alpaca: AlpacaConfig{
			KeyID:     getEnv("ALPACA_KEY_ID", ""),
			SecretKey: getEnv("ALPACA_SECRET_KEY", ""),
			BaseURL:   getEnv("ALPACA_BASE_URL", defaultBaseURL),
			DataURL:   getEnv("ALPACA_DATA_URL", "https://data.alpaca.markets"),
			Paper:     paper,
		},

		Rebalance: RebalanceConfig{
			PriceBuffer:   getEnvAsDecimal("REBALANCE_PRICE_BUFFER", "1.04"),
			FundingMode:   getEnv("REBALANCE_FUNDING_MODE", FundingBuysOnly),
			PriceCacheTTL: getEnvAsDuration("PRICE_CACHE_TTL", "0s"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are consistent
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Rebalance.FundingMode != FundingBuysOnly && c.Rebalance.FundingMode != FundingNet {
		return fmt.Errorf("REBALANCE_FUNDING_MODE must be one of: %s, %s", FundingBuysOnly, FundingNet)
	}

	if c.Rebalance.PriceBuffer.LessThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("REBALANCE_PRICE_BUFFER must be >= 1, got %s", c.Rebalance.PriceBuffer)
	}

	return nil
}

// RequireAlpaca checks that brokerage credentials are present.
// Paper-broker runs never call it.
func (c *Config) RequireAlpaca() error {
	if c.Alpaca.KeyID == "" || c.Alpaca.SecretKey == "" {
		return fmt.Errorf("ALPACA_KEY_ID and ALPACA_SECRET_KEY are required")
	}
	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
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

func getEnvAsDecimal(key string, defaultValue string) decimal.Decimal {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return decimal.RequireFromString(defaultValue)
	}

	return value
}
