package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/dicetree/pkg/domain"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up in the working directory.
const DefaultPath = "dicetree.yaml"

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheSQLite = "sqlite"
)

// Config is the runtime configuration shared by the CLI, HTTP and MCP entry points.
type Config struct {
	// Seed makes every run reproducible. Nil draws a random seed.
	Seed *int64 `yaml:"seed" json:"seed" env:"DICETREE_SEED"`

	MaxPoolWidth int `yaml:"max_pool_width" json:"max_pool_width" env:"DICETREE_MAX_POOL_WIDTH"`
	MaxOutcomes  int `yaml:"max_outcomes" json:"max_outcomes" env:"DICETREE_MAX_OUTCOMES"`
	MaxDepth     int `yaml:"max_depth" json:"max_depth" env:"DICETREE_MAX_DEPTH"`
	MaxWork      int `yaml:"max_work" json:"max_work" env:"DICETREE_MAX_WORK"`

	Cache         string        `yaml:"cache" json:"cache" env:"DICETREE_CACHE"`
	CachePath     string        `yaml:"cache_path" json:"cache_path" env:"DICETREE_CACHE_PATH"`
	CacheTTL      time.Duration `yaml:"cache_ttl" json:"cache_ttl" env:"DICETREE_CACHE_TTL"`
	RedisAddr     string        `yaml:"redis_addr" json:"redis_addr" env:"DICETREE_REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" json:"redis_password" env:"DICETREE_REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" json:"redis_db" env:"DICETREE_REDIS_DB"`

	// PresetsDir holds named expression documents addressable as "@name".
	PresetsDir string `yaml:"presets_dir" json:"presets_dir" env:"DICETREE_PRESETS_DIR"`

	LogLevel  string `yaml:"log_level" json:"log_level" env:"DICETREE_LOG_LEVEL"`
	LogFormat string `yaml:"log_format" json:"log_format" env:"DICETREE_LOG_FORMAT"`
	Addr      string `yaml:"addr" json:"addr" env:"DICETREE_ADDR"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	lim := domain.DefaultLimits()
	return Config{
		MaxPoolWidth: lim.MaxPoolWidth,
		MaxOutcomes:  lim.MaxOutcomes,
		MaxDepth:     lim.MaxDepth,
		MaxWork:      lim.MaxWork,
		Cache:        CacheMemory,
		CachePath:    "dicetree.db",
		LogLevel:     "info",
		LogFormat:    "text",
		Addr:         ":8080",
	}
}

// Load reads the file at path (YAML, or JSON by extension) over the defaults and then
// applies DICETREE_* environment variables. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := readFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Validate checks the values that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Cache {
	case CacheNone, CacheMemory, CacheRedis, CacheSQLite:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache)
	}
	if c.Cache == CacheRedis && c.RedisAddr == "" {
		return fmt.Errorf("cache %q requires redis_addr", c.Cache)
	}
	if c.Cache == CacheSQLite && c.CachePath == "" {
		return fmt.Errorf("cache %q requires cache_path", c.Cache)
	}
	if c.MaxPoolWidth < 0 || c.MaxOutcomes < 0 || c.MaxDepth < 0 || c.MaxWork < 0 {
		return fmt.Errorf("limits must be non-negative")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// Limits converts the configured ceilings.
func (c Config) Limits() domain.Limits {
	return domain.Limits{
		MaxPoolWidth: c.MaxPoolWidth,
		MaxOutcomes:  c.MaxOutcomes,
		MaxDepth:     c.MaxDepth,
		MaxWork:      c.MaxWork,
	}.Resolve()
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
