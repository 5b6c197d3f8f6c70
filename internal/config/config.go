package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath       string
	LogDir         string
	CacheDir       string
	ForecastDir    string
	HistoryFile    string
	MetadataFile   string
	PricesFile     string
	BufferQuantile float64
	DefaultHorizon string
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. The executable's directory wins (the MCP host launches us from anywhere)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	return FromEnv(dataPath)
}

// FromEnv resolves every path and scalar relative to dataPath using the
// current process environment. It performs no .env loading.
func FromEnv(dataPath string) (*AppConfig, error) {
	logDir := filepath.Join(dataPath, "logs")
	cacheDir := filepath.Join(dataPath, "cache")

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", cacheDir).Msg("Failed to create cache directory")
	}

	forecastDir := getEnv("FORECAST_DIR", filepath.Join(dataPath, "data"))

	buffer, err := getEnvFloat("BUFFER_QUANTILE", 0)
	if err != nil {
		return nil, err
	}
	if buffer < 0 {
		return nil, fmt.Errorf("BUFFER_QUANTILE must be >= 0, got %v", buffer)
	}

	cfg := &AppConfig{
		DataPath:       dataPath,
		LogDir:         logDir,
		CacheDir:       cacheDir,
		ForecastDir:    forecastDir,
		HistoryFile:    getEnv("HISTORY_FILE", filepath.Join(forecastDir, "history.csv")),
		MetadataFile:   getEnv("METADATA_FILE", filepath.Join(forecastDir, "metadata.json")),
		PricesFile:     getEnv("PRICES_FILE", filepath.Join(forecastDir, "prices.csv")),
		BufferQuantile: buffer,
		DefaultHorizon: getEnv("DEFAULT_HORIZON", "14"),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}
