package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/fraudops/fieldkit/core/queue"
	"github.com/fraudops/fieldkit/core/retry"
	"github.com/fraudops/fieldkit/infra/mqtt"
	"github.com/fraudops/fieldkit/infra/storage"
)

// Config is the root configuration of the field response service.
type Config struct {
	Logging LoggingConfig `json:"logging"`
	Queue   queue.Config  `json:"queue"`
	Cache   CacheConfig   `json:"cache"`
	Retry   RetryConfig   `json:"retry"`
	Storage StorageConfig `json:"storage"`
	Metrics MetricsConfig `json:"metrics"`
	MQTT    mqtt.Config   `json:"mqtt"`
	Drain   DrainConfig   `json:"drain"`
}

// RetryConfig tunes the default retry executor preset. Delays are in
// milliseconds so they survive plain JSON/YAML decoding.
type RetryConfig struct {
	MaxAttempts       int     `json:"max_attempts"`
	InitialDelayMS    int     `json:"initial_delay_ms"`
	MaxDelayMS        int     `json:"max_delay_ms"`
	BackoffMultiplier float64 `json:"backoff_multiplier"`
}

// SetDefaults falls back to the standard preset.
func (c *RetryConfig) SetDefaults() {
	d := retry.DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialDelayMS <= 0 {
		c.InitialDelayMS = int(d.InitialDelay / time.Millisecond)
	}
	if c.MaxDelayMS <= 0 {
		c.MaxDelayMS = int(d.MaxDelay / time.Millisecond)
	}
	if c.BackoffMultiplier <= 0 {
		c.BackoffMultiplier = d.BackoffMultiplier
	}
}

// ToRetry converts to the executor's config type.
func (c RetryConfig) ToRetry() retry.Config {
	return retry.Config{
		MaxAttempts:       c.MaxAttempts,
		InitialDelay:      time.Duration(c.InitialDelayMS) * time.Millisecond,
		MaxDelay:          time.Duration(c.MaxDelayMS) * time.Millisecond,
		BackoffMultiplier: c.BackoffMultiplier,
	}
}

// CacheConfig tunes the TTL response cache.
type CacheConfig struct {
	Namespace string `json:"namespace"`
	// DefaultTTLSeconds applies when a caller does not specify a TTL.
	DefaultTTLSeconds int `json:"default_ttl_seconds"`
}

// SetDefaults applies sane defaults.
func (c *CacheConfig) SetDefaults() {
	if c.Namespace == "" {
		c.Namespace = "fieldkit:cache"
	}
	if c.DefaultTTLSeconds <= 0 {
		c.DefaultTTLSeconds = 300
	}
}

// StorageConfig selects the durable backend.
type StorageConfig struct {
	// Backend is one of "file", "redis" or "memory".
	Backend string              `json:"backend"`
	Dir     string              `json:"dir"`
	Redis   storage.RedisConfig `json:"redis"`
}

// SetDefaults applies sane defaults.
func (c *StorageConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "file"
	}
	if c.Dir == "" {
		c.Dir = "fieldkit-data"
	}
}

// Validate checks the backend selection.
func (c StorageConfig) Validate() error {
	switch c.Backend {
	case "file", "redis", "memory":
		return nil
	default:
		return fmt.Errorf("unknown storage backend %s", c.Backend)
	}
}

// MetricsConfig selects the observability sinks.
type MetricsConfig struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// DrainConfig tunes the periodic drain trigger. The queue's single-flight
// guard makes missed triggers harmless; the ticker guarantees eventual
// draining when connectivity returns.
type DrainConfig struct {
	IntervalSeconds int `json:"interval_seconds"`
}

// SetDefaults applies sane defaults.
func (c *DrainConfig) SetDefaults() {
	if c.IntervalSeconds <= 0 {
		c.IntervalSeconds = 30
	}
}

// Load reads the configuration file, applying optional FK_ environment
// overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides, FK_LOGGING__LEVEL -> logging.level.
	if err := k.Load(env.Provider("FK_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "fk_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Logging.SetDefaults()
	cfg.Queue.SetDefaults()
	cfg.Cache.SetDefaults()
	cfg.Storage.SetDefaults()
	cfg.Drain.SetDefaults()
	cfg.Retry.SetDefaults()
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
