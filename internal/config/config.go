package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultImageAddr    = ":8505"
	DefaultCacheTTL     = 60 * time.Second
	DefaultCacheSize    = 256
	DefaultSearchLimit  = 20
	DefaultMaxLimit     = 100
	DefaultLogLevel     = "info"
	HashedDataDirectory = "hashed-data"
)

type ProjectConfig struct {
	Project     string            `yaml:"project"`
	Version     int               `yaml:"version"`
	ImageRoot   string            `yaml:"image_root"`
	Database    DatabaseConfig    `yaml:"database"`
	ImageServer ImageServerConfig `yaml:"image_server"`
	Cache       CacheConfig       `yaml:"cache"`
	Search      SearchConfig      `yaml:"search"`
	Log         LogConfig         `yaml:"log"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type ImageServerConfig struct {
	Addr        string `yaml:"addr"`
	ExternalURL string `yaml:"external_url"`
}

type CacheConfig struct {
	TTL  *Duration `yaml:"ttl"`
	Size int       `yaml:"size"`
}

type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Duration accepts Go duration strings such as "45s" or "2m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

func (c CacheConfig) TTLOrDefault() time.Duration {
	if c.TTL == nil {
		return DefaultCacheTTL
	}
	return c.TTL.Duration
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	applyEnv(&cfg, os.LookupEnv)
	applyDefaults(&cfg)

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

func applyEnv(cfg *ProjectConfig, lookup func(string) (string, bool)) {
	if v, ok := lookup("CHARARCHIVE_DSN"); ok && strings.TrimSpace(v) != "" {
		cfg.Database.DSN = v
	}
	if v, ok := lookup("EXTERNAL_URL"); ok && strings.TrimSpace(v) != "" {
		cfg.ImageServer.ExternalURL = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && strings.TrimSpace(v) != "" {
		cfg.Log.Level = v
	}
}

func applyDefaults(cfg *ProjectConfig) {
	if strings.TrimSpace(cfg.ImageServer.Addr) == "" {
		cfg.ImageServer.Addr = DefaultImageAddr
	}
	cfg.ImageServer.ExternalURL = strings.TrimRight(cfg.ImageServer.ExternalURL, "/")
	if cfg.Cache.Size == 0 {
		cfg.Cache.Size = DefaultCacheSize
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = DefaultSearchLimit
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = DefaultMaxLimit
	}
	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = DefaultLogLevel
	}
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if strings.TrimSpace(cfg.ImageRoot) == "" {
		return fmt.Errorf("image_root is required")
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return fmt.Errorf("database dsn is required")
	}
	if cfg.Cache.TTL != nil && cfg.Cache.TTL.Duration < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}
	if cfg.Cache.Size < 0 {
		return fmt.Errorf("cache size must not be negative")
	}
	if cfg.Search.DefaultLimit < 1 || cfg.Search.MaxLimit < cfg.Search.DefaultLimit {
		return fmt.Errorf("search limits invalid: default %d, max %d", cfg.Search.DefaultLimit, cfg.Search.MaxLimit)
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level: %s", cfg.Log.Level)
	}
	return nil
}

// CheckImageRoot verifies the content root exists and is a directory.
func (c *ProjectConfig) CheckImageRoot() error {
	info, err := os.Stat(c.ImageRoot)
	if err != nil {
		return fmt.Errorf("checking image root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("checking image root: %s is not a directory", c.ImageRoot)
	}
	return nil
}
