package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath   = "CONFIG_PATH"
	EnvDBConnection = "DB_CONNECTION"
	EnvJWTSecret    = "JWT_SECRET"
	EnvLogLevel     = "LOG_LEVEL"
	EnvPort         = "PORT"
)

// DefaultPort is used when neither the config file nor the environment sets a port.
const DefaultPort = 8080

// DefaultRateLimitRedisPrefix is the fallback Redis key prefix for rate limiting.
const DefaultRateLimitRedisPrefix = "vms:rl"

// ErrMissingDatabaseDSN indicates no database DSN is present in the config file.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database-dsn` or `database.dsn` in config file)")

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables.
func LoadFromEnv() (AppConfig, error) {
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// Config is the full service configuration after env overrides.
type Config struct {
	Host        string          `yaml:"host"`
	Port        int             `yaml:"port"`
	DatabaseDSN string          `yaml:"database-dsn"`
	Database    DatabaseConfig  `yaml:"database"`
	Debug       bool            `yaml:"debug"`
	LogLevel    string          `yaml:"log-level"`
	JWT         JWTConfig       `yaml:"jwt"`
	RateLimit   RateLimitConfig `yaml:"rate-limit"`
}

// DatabaseConfig is the nested form of the DSN setting.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// JWTConfig holds the secret used to verify bearer tokens.
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// RateLimitConfig controls per-client request limiting.
type RateLimitConfig struct {
	Limit         int    `yaml:"limit"` // Requests per second per client, 0 disables.
	RedisEnabled  bool   `yaml:"redis-enabled"`
	RedisAddr     string `yaml:"redis-addr"`
	RedisPassword string `yaml:"redis-password"`
	RedisDB       int    `yaml:"redis-db"`
	RedisPrefix   string `yaml:"redis-prefix"`
}

// Load reads the YAML config file and applies environment overrides.
// A missing file is not an error as long as the environment provides a DSN.
func Load(configPath string) (Config, error) {
	cfg := Config{}

	data, errRead := os.ReadFile(configPath)
	switch {
	case errRead == nil:
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return Config{}, fmt.Errorf("parse config file: %w", errUnmarshal)
		}
	case errors.Is(errRead, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read config file: %w", errRead)
	}

	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		cfg.DatabaseDSN = dsn
	}
	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		cfg.JWT.Secret = secret
	}
	if level := strings.TrimSpace(os.Getenv(EnvLogLevel)); level != "" {
		cfg.LogLevel = level
	}
	if portRaw := strings.TrimSpace(os.Getenv(EnvPort)); portRaw != "" {
		if port, errParse := strconv.Atoi(portRaw); errParse == nil && port > 0 {
			cfg.Port = port
		}
	}

	cfg.DatabaseDSN = strings.TrimSpace(cfg.DatabaseDSN)
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = strings.TrimSpace(cfg.Database.DSN)
	}
	if cfg.DatabaseDSN == "" {
		return Config{}, ErrMissingDatabaseDSN
	}
	if cfg.Port <= 0 {
		cfg.Port = DefaultPort
	}

	rl := &cfg.RateLimit
	rl.RedisAddr = strings.TrimSpace(rl.RedisAddr)
	rl.RedisPassword = strings.TrimSpace(rl.RedisPassword)
	rl.RedisPrefix = strings.TrimSpace(rl.RedisPrefix)
	if rl.RedisPrefix == "" {
		rl.RedisPrefix = DefaultRateLimitRedisPrefix
	}
	if rl.RedisDB < 0 {
		rl.RedisDB = 0
	}
	if rl.Limit < 0 {
		rl.Limit = 0
	}
	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
