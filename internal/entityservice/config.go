// Package entityservice runs one entity RPC service as a standalone process.
package entityservice

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is read when LoadConfig is given an empty path.
const ConfigPath = "config.yaml"

// DefaultPorts are the RPC ports used when a config omits one.
var DefaultPorts = map[string]string{
	"library": "50051",
	"book":    "50052",
	"user":    "50053",
}

// Config represents a standalone entity service configuration.
type Config struct {
	Port        string `yaml:"port"`
	LogLevel    string `yaml:"logLevel"`
	DatabaseURL string `yaml:"databaseURL"`
}

// LoadConfig reads path for the named service ("library", "book" or
// "user"). DATABASE_URL, LOG_LEVEL and <SERVICE>_PORT override the file.
func LoadConfig(path, service string) (Config, error) {
	cfg := Config{}
	if _, ok := DefaultPorts[service]; !ok {
		return cfg, fmt.Errorf("%w: %q", ErrUnknownService, service)
	}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if v := os.Getenv(strings.ToUpper(service) + "_PORT"); v != "" {
		cfg.Port = strings.TrimSpace(v)
	}
	if cfg.Port == "" {
		cfg.Port = DefaultPorts[service]
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return cfg, errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	return cfg, nil
}
