package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	GridSourceFile = "file"
	GridSourceHTTP = "http"
)

type AppConfig struct {
	Port      string
	LogLevel  logrus.Level
	LogFormat string `validate:"oneof=text json"`

	// SitesFile is the site list CSV.
	SitesFile string `validate:"required"`

	GridSource  string        `validate:"oneof=file http"`
	GridFile    string        `validate:"required_if=GridSource file"`
	GridURL     string        `validate:"required_if=GridSource http"`
	HTTPTimeout time.Duration `validate:"gt=0"`

	// RefreshInterval controls how often every site is recomputed.
	RefreshInterval time.Duration `validate:"gt=0"`

	// In-memory run retention.
	StoreMaxHistory int           `validate:"gte=0"` // max number of runs (0 = unlimited)
	StoreMaxAge     time.Duration `validate:"gte=0"` // max age of runs (0 = unlimited)

	AggregationWorkers int `validate:"gte=1"`

	// GeocoderAPIKey enables geocoding of sites declared by city and country.
	GeocoderAPIKey string
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults. A .env
// file in the working directory is loaded first when present.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return fromEnv()
}

func fromEnv() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:           getenvDefault("PORT", "8080"),
		LogFormat:      getenvDefault("LOG_FORMAT", "text"),
		SitesFile:      getenvDefault("SITES_FILE", "sites.csv"),
		GridSource:     getenvDefault("GRID_SOURCE", GridSourceFile),
		GridFile:       getenvDefault("GRID_FILE", "grid.csv"),
		GridURL:        os.Getenv("GRID_URL"),
		GeocoderAPIKey: os.Getenv("GEOCODER_API_KEY"),
	}

	level, err := logrus.ParseLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", 7*24*time.Hour); err != nil {
		return nil, err
	}
	// Two days of hourly runs.
	if cfg.StoreMaxHistory, err = getenvInt("STORE_MAX_HISTORY", 48); err != nil {
		return nil, err
	}
	if cfg.AggregationWorkers, err = getenvInt("AGGREGATION_WORKERS", 4); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
