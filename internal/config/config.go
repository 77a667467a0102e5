package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/formwork/internal/logging"
	"github.com/aretw0/formwork/pkg/sanitize"
	"gopkg.in/yaml.v3"
)

type (
	// Config holds configuration settings for the formwork server and CLI
	Config struct {
		// Server
		Addr      string `yaml:"addr"`
		LogLevel  string `yaml:"log_level"`
		LogFormat string `yaml:"log_format"`

		// Sources
		TemplatesURL    string `yaml:"templates_url"`
		TemplatesPrefix string `yaml:"templates_prefix"`
		DefinitionsDir  string `yaml:"definitions_dir"`
		ToolsFile       string `yaml:"tools_file"`
		SAMCommand      string `yaml:"sam_command"`

		// AWS
		AWSEnabled bool   `yaml:"aws_enabled"`
		AWSRegion  string `yaml:"aws_region"`

		Cache CacheConfig `yaml:"cache"`

		MaxInputSize int `yaml:"max_input_size"`
	}

	// CacheConfig selects where resource listings are cached
	CacheConfig struct {
		Backend       string        `yaml:"backend"`
		TTL           time.Duration `yaml:"ttl"`
		RedisAddr     string        `yaml:"redis_addr"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db"`
		RedisPrefix   string        `yaml:"redis_prefix"`
	}
)

const (
	EnvPrefix = "FORMWORK_"

	DefaultAddr       = ":8080"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultToolsFile  = "tools.yaml"
	DefaultSAMCommand = "sam"

	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"

	DefaultCacheTTL    = 30 * time.Second
	DefaultRedisAddr   = "localhost:6379"
	DefaultRedisPrefix = "formwork:cache:"

	MaxInputSize = 1 << 20
)

var (
	ErrInvalidAddr         = errors.New("listen address is empty")
	ErrInvalidLogLevel     = errors.New("invalid log level")
	ErrInvalidLogFormat    = errors.New("invalid log format")
	ErrInvalidCacheBackend = errors.New("invalid cache backend")
	ErrInvalidCacheTTL     = errors.New("cache ttl cannot be negative")
	ErrInvalidRedisAddr    = errors.New("redis cache needs an address")
	ErrInvalidInputSize    = errors.New("max input size out of range")
)

// NewDefaultConfig creates a configuration with defaults for every setting
func NewDefaultConfig() *Config {
	return &Config{
		Addr:       DefaultAddr,
		LogLevel:   DefaultLogLevel,
		LogFormat:  DefaultLogFormat,
		ToolsFile:  DefaultToolsFile,
		SAMCommand: DefaultSAMCommand,
		AWSEnabled: true,
		Cache: CacheConfig{
			Backend:     CacheMemory,
			TTL:         DefaultCacheTTL,
			RedisAddr:   DefaultRedisAddr,
			RedisPrefix: DefaultRedisPrefix,
		},
		MaxInputSize: sanitize.DefaultMaxInputSize,
	}
}

// Load builds a configuration from defaults, then the YAML file at path
// (skipped when path is empty), then FORMWORK_* environment variables
func Load(path string) (*Config, error) {
	c := NewDefaultConfig()
	if path != "" {
		if err := c.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := c.LoadFromEnv(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFile overlays the YAML file at path. Keys absent from the file keep
// their current values
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed
func (c *Config) LoadFromEnv() error {
	loadEnvString("ADDR", &c.Addr)
	loadEnvString("LOG_LEVEL", &c.LogLevel)
	loadEnvString("LOG_FORMAT", &c.LogFormat)
	loadEnvString("TEMPLATES_URL", &c.TemplatesURL)
	loadEnvString("TEMPLATES_PREFIX", &c.TemplatesPrefix)
	loadEnvString("DEFINITIONS_DIR", &c.DefinitionsDir)
	loadEnvString("TOOLS_FILE", &c.ToolsFile)
	loadEnvString("SAM_COMMAND", &c.SAMCommand)
	loadEnvString("AWS_REGION", &c.AWSRegion)
	loadEnvString("CACHE_BACKEND", &c.Cache.Backend)
	loadEnvString("REDIS_ADDR", &c.Cache.RedisAddr)
	loadEnvString("REDIS_PASSWORD", &c.Cache.RedisPassword)
	loadEnvString("REDIS_PREFIX", &c.Cache.RedisPrefix)

	if s := os.Getenv(EnvPrefix + "AWS_ENABLED"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid %sAWS_ENABLED: %q", EnvPrefix, s)
		}
		c.AWSEnabled = v
	}

	if s := os.Getenv(EnvPrefix + "CACHE_TTL"); s != "" {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid %sCACHE_TTL: %q", EnvPrefix, s)
		}
		c.Cache.TTL = v
	}

	if err := loadEnvInt("REDIS_DB", &c.Cache.RedisDB, -1, 15); err != nil {
		return err
	}
	if s := os.Getenv(sanitize.EnvMaxInputSize); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", sanitize.EnvMaxInputSize, s)
		}
		c.MaxInputSize = v
	}
	return nil
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return ErrInvalidAddr
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidLogLevel, c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: %s", ErrInvalidLogFormat, c.LogFormat)
	}

	switch c.Cache.Backend {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return ErrInvalidRedisAddr
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidCacheBackend, c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return ErrInvalidCacheTTL
	}

	if c.MaxInputSize <= 0 || c.MaxInputSize > MaxInputSize {
		return fmt.Errorf("%w: %d", ErrInvalidInputSize, c.MaxInputSize)
	}
	return nil
}

func loadEnvString(key string, dst *string) {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		*dst = v
	}
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max]
func loadEnvInt(key string, dst *int, min, max int) error {
	s := os.Getenv(EnvPrefix + key)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %q", EnvPrefix, key, s)
	}
	if v <= min || v > max {
		return fmt.Errorf("invalid %s%s: %d out of range [%d, %d]", EnvPrefix, key, v, min+1, max)
	}
	*dst = v
	return nil
}
