package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is read when Load is given an empty path.
const ConfigPath = "config.yaml"

// REST access paths.
const (
	BackendRPC    = "rpc"
	BackendDirect = "direct"
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                    string   `yaml:"port"`
	LogLevel                string   `yaml:"logLevel"`
	DatabaseURL             string   `yaml:"databaseURL"`
	RESTBackend             string   `yaml:"restBackend"`
	ServeRPC                bool     `yaml:"serveRPC"`
	LibraryServiceAddr      string   `yaml:"libraryServiceAddr"`
	BookServiceAddr         string   `yaml:"bookServiceAddr"`
	UserServiceAddr         string   `yaml:"userServiceAddr"`
	RPCTimeout              string   `yaml:"rpcTimeout"`
	LibraryRPCPort          string   `yaml:"libraryRPCPort"`
	BookRPCPort             string   `yaml:"bookRPCPort"`
	UserRPCPort             string   `yaml:"userRPCPort"`
	RedisAddr               string   `yaml:"redisAddr"`
	RedisPassword           string   `yaml:"redisPassword"`
	WriteRateLimitPerMinute int      `yaml:"writeRateLimitPerMinute"`
	TrustedProxyCIDRs       []string `yaml:"trustedProxyCidrs"`
}

// Load reads config from path (defaults to config.yaml), applies
// environment overrides and defaults, then validates the result.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
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
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	if v := os.Getenv("GATEWAY_PORT"); v != "" {
		cfg.Port = strings.TrimSpace(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("GATEWAY_REST_BACKEND"); v != "" {
		cfg.RESTBackend = strings.TrimSpace(v)
	}
	if v := os.Getenv("GATEWAY_SERVE_RPC"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.ServeRPC = b
		}
	}
	if v := os.Getenv("GATEWAY_LIBRARY_SERVICE_ADDR"); v != "" {
		cfg.LibraryServiceAddr = strings.TrimSpace(v)
	}
	if v := os.Getenv("GATEWAY_BOOK_SERVICE_ADDR"); v != "" {
		cfg.BookServiceAddr = strings.TrimSpace(v)
	}
	if v := os.Getenv("GATEWAY_USER_SERVICE_ADDR"); v != "" {
		cfg.UserServiceAddr = strings.TrimSpace(v)
	}
	if v := os.Getenv("GATEWAY_RPC_TIMEOUT"); v != "" {
		cfg.RPCTimeout = strings.TrimSpace(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("GATEWAY_WRITE_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.WriteRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("GATEWAY_TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxyCIDRs = splitCSV(v)
	}
}

func applyDefaults(cfg *FileConfig) {
	if cfg.Port == "" {
		cfg.Port = "3000"
	}
	if cfg.RESTBackend == "" {
		cfg.RESTBackend = BackendRPC
	}
	if cfg.LibraryRPCPort == "" {
		cfg.LibraryRPCPort = "50051"
	}
	if cfg.BookRPCPort == "" {
		cfg.BookRPCPort = "50052"
	}
	if cfg.UserRPCPort == "" {
		cfg.UserRPCPort = "50053"
	}
	if cfg.LibraryServiceAddr == "" {
		cfg.LibraryServiceAddr = "localhost:" + cfg.LibraryRPCPort
	}
	if cfg.BookServiceAddr == "" {
		cfg.BookServiceAddr = "localhost:" + cfg.BookRPCPort
	}
	if cfg.UserServiceAddr == "" {
		cfg.UserServiceAddr = "localhost:" + cfg.UserRPCPort
	}
}

func validateConfig(cfg FileConfig) error {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	switch cfg.RESTBackend {
	case BackendRPC, BackendDirect:
	default:
		return fmt.Errorf("config: restBackend must be %q or %q, got %q", BackendRPC, BackendDirect, cfg.RESTBackend)
	}
	if _, err := ParseRPCTimeout(cfg.RPCTimeout); err != nil {
		return err
	}
	if cfg.WriteRateLimitPerMinute < 0 {
		return errors.New("config: writeRateLimitPerMinute must be >= 0")
	}
	if cfg.WriteRateLimitPerMinute > 0 && strings.TrimSpace(cfg.RedisAddr) == "" {
		return errors.New("config: redisAddr is required when writeRateLimitPerMinute is set")
	}
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// ParseRPCTimeout parses the optional rpcTimeout duration string. Zero means
// the client default.
func ParseRPCTimeout(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: invalid rpcTimeout duration: %w", err)
	}
	if dur < 0 {
		return 0, errors.New("config: rpcTimeout must be >= 0")
	}
	return dur, nil
}
