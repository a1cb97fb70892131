package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	Username string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RepositoriesConfig struct {
	Postgres PostgresConfig
}

type ObservabilityConfig struct {
	ServiceName  string
	MetricsAddr  string
	PprofAddr    string
	OTLPEndpoint string
}

type TripsConfig struct {
	// StrictOrdering rejects duplicate or non-contiguous day numbers and
	// destination orders. Off by default.
	StrictOrdering bool
}

type PlacesConfig struct {
	SearchCacheTTL time.Duration
}

type Config struct {
	Repositories  RepositoriesConfig
	Observability ObservabilityConfig
	Trips         TripsConfig
	Places        PlacesConfig
	ServerPort    string
	LogLevel      string
}

func Load() (*Config, error) {
	maxConns, err := getEnvInt("POSTGRES_MAX_CONNS", 30)
	if err != nil {
		return nil, err
	}
	minConns, err := getEnvInt("POSTGRES_MIN_CONNS", 5)
	if err != nil {
		return nil, err
	}
	strict, err := getEnvBool("TRIPS_STRICT_ORDERING", false)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := getEnvDuration("PLACES_SEARCH_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:     getEnvOrDefault("POSTGRES_PORT", "5454"),
				DB:       getEnvOrDefault("POSTGRES_DB", "trip_planner"),
				Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
				Password: getEnvOrDefault("POSTGRES_PASSWORD", ""),
				SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
				MaxConns: int32(maxConns),
				MinConns: int32(minConns),
			},
		},
		Observability: ObservabilityConfig{
			ServiceName:  getEnvOrDefault("SERVICE_NAME", "trip-planner"),
			MetricsAddr:  getEnvOrDefault("METRICS_ADDR", ":9092"),
			PprofAddr:    getEnvOrDefault("PPROF_ADDR", ":6060"),
			OTLPEndpoint: getEnvOrDefault("OTLP_ENDPOINT", "otel-collector:4318"),
		},
		Trips:      TripsConfig{StrictOrdering: strict},
		Places:     PlacesConfig{SearchCacheTTL: cacheTTL},
		ServerPort: getEnvOrDefault("SERVER_PORT", "8000"),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", "info"),
	}

	if cfg.Repositories.Postgres.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD environment variable is required")
	}
	if cfg.Repositories.Postgres.MinConns > cfg.Repositories.Postgres.MaxConns {
		return nil, fmt.Errorf("POSTGRES_MIN_CONNS (%d) exceeds POSTGRES_MAX_CONNS (%d)",
			cfg.Repositories.Postgres.MinConns, cfg.Repositories.Postgres.MaxConns)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, errors.Wrapf(err, "invalid %s", key)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	return d, nil
}
