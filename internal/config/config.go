package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir           string  // Base directory for all databases (defaults to "../data" or "./data")
	HistoryDir        string  // Directory for per-symbol price history databases
	Port              int     // HTTP listen port
	LogLevel          string  // zerolog level name
	DevMode           bool    // Pretty console logging when true
	RiskFreeRate      float64 // Annual risk-free rate used by the Sharpe ratio
	PriceSyncEnabled  bool    // Run the scheduled price sync job
	PriceSyncSchedule string  // Cron expression for the price sync job
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic
	dataDir := getEnv("DATA_DIR", "")
	if dataDir == "" {
		if _, err := os.Stat("../data"); err == nil {
			dataDir = "../data"
		} else {
			dataDir = "./data"
		}
	}

	cfg := &Config{
		DataDir:           dataDir,
		HistoryDir:        getEnv("HISTORY_DIR", filepath.Join(dataDir, "history")),
		Port:              getEnvAsInt("PORT", 8001),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		RiskFreeRate:      getEnvAsFloat("RISK_FREE_RATE", 0.0),
		PriceSyncEnabled:  getEnvAsBool("PRICE_SYNC_ENABLED", true),
		PriceSyncSchedule: getEnv("PRICE_SYNC_SCHEDULE", "0 30 6 * * *"), // daily, after market data settles
	}

	return cfg, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
