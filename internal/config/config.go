// Package config loads all service settings from the environment, with a
// .env file picked up for local development. The resulting Config is built
// once at startup and passed by reference; nothing mutates it afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/roadwatch/incident-etl/internal/store"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	FetchTimeout    time.Duration

	DB store.Config

	OHGOAPIKey        string
	OHGOBaseURL       string
	OHGOIncidentsPath string
	OHGORoadsPath     string
	OHGORegion        string
	OHGOBoundsSW      string
	OHGOBoundsNE      string
	OHGORadius        string
	OHGOInterval      time.Duration

	DriveTexasAPIKey   string
	DriveTexasBaseURL  string
	DriveTexasInterval time.Duration
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is merged in first; its
// absence is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	ohgoInterval, err := parseDuration("OHGO_INTERVAL", "1m")
	if err != nil {
		return nil, err
	}
	texasInterval, err := parseDuration("DRIVETEXAS_INTERVAL", "2m")
	if err != nil {
		return nil, err
	}

	texasKey := os.Getenv("DRIVETEXAS_API_KEY")
	if texasKey == "" {
		// Legacy spelling, still honored.
		texasKey = os.Getenv("DRIVE_TEXAS_API_KEY")
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		FetchTimeout:    fetchTimeout,

		DB: store.Config{
			Host:     envOrDefault("DB_HOST", "localhost"),
			Port:     envOrDefault("DB_PORT", "3306"),
			User:     envOrDefault("DB_USER", "incidents"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   envOrDefault("DB_NAME", "incidents"),
		},

		OHGOAPIKey:        os.Getenv("OHGO_API_KEY"),
		OHGOBaseURL:       envOrDefault("OHGO_BASE_URL", "https://publicapi.ohgo.com/api/v1"),
		OHGOIncidentsPath: envOrDefault("OHGO_INCIDENTS_PATH", "/incidents"),
		OHGORoadsPath:     envOrDefault("OHGO_ROADS_PATH", "/roads"),
		OHGORegion:        os.Getenv("OHGO_REGION"),
		OHGOBoundsSW:      os.Getenv("OHGO_BOUNDS_SW"),
		OHGOBoundsNE:      os.Getenv("OHGO_BOUNDS_NE"),
		OHGORadius:        os.Getenv("OHGO_RADIUS"),
		OHGOInterval:      ohgoInterval,

		DriveTexasAPIKey:   texasKey,
		DriveTexasBaseURL:  envOrDefault("DRIVETEXAS_BASE_URL", "https://api.drivetexas.org/api/conditions.geojson"),
		DriveTexasInterval: texasInterval,
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("HTTP_ADDR is required")
	}
	if cfg.DB.Host == "" || cfg.DB.Port == "" || cfg.DB.User == "" || cfg.DB.DBName == "" {
		return nil, errors.New("DB_HOST, DB_PORT, DB_USER, and DB_NAME are required")
	}
	if cfg.OHGOAPIKey == "" && cfg.DriveTexasAPIKey == "" {
		return nil, errors.New("at least one of OHGO_API_KEY or DRIVETEXAS_API_KEY must be set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	raw := envOrDefault(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return d, nil
}
