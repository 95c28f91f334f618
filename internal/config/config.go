package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds process-wide settings. Values come from the environment with
// an optional YAML file (CONFIG_FILE) layered on top.
type Config struct {
	DatabaseURL  string `yaml:"database_url"`
	HTTPAddr     string `yaml:"http_addr"`
	JWTSecret    string `yaml:"jwt_secret"`
	IngestAPIKey string `yaml:"ingest_api_key"`
}

// Load reads configuration from env and the optional config file.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:  getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:     getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:    getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		IngestAPIKey: getenvDefault("INGEST_API_KEY", ""),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.DatabaseURL == "" {
		return cfg, errors.New("config: DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		return cfg, errors.New("config: AUTH_JWT_SECRET is required")
	}
	if cfg.IngestAPIKey == "" {
		return cfg, errors.New("config: INGEST_API_KEY is required")
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
