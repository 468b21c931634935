package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/farhan-ahmed1/seedcheck/internal/logger"
)

// Config holds all configuration for seedcheck
type Config struct {
	Redis     RedisConfig     `yaml:"redis"`
	NATS      NATSConfig      `yaml:"nats"`
	Runner    RunnerConfig    `yaml:"runner"`
	Wallet    WalletConfig    `yaml:"wallet"`
	Indicator IndicatorConfig `yaml:"indicator"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// RedisConfig holds settings for the outcome store
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// NATSConfig holds settings for completion events
type NATSConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// RunnerConfig holds task runner settings
type RunnerConfig struct {
	// Number of background verification workers
	Workers int `yaml:"workers"`

	// Jobs that may wait for a free worker
	QueueSize int `yaml:"queue_size"`

	// Per-verification timeout, zero means none
	VerifyTimeout time.Duration `yaml:"verify_timeout"`

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// WalletConfig holds settings for the built-in mnemonic verifier
type WalletConfig struct {
	WordListPath string `yaml:"wordlist"`
	WordCount    int    `yaml:"word_count"`
}

// IndicatorConfig holds progress indicator settings
type IndicatorConfig struct {
	Message string `yaml:"message"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Redis: RedisConfig{
			Enabled:  getEnvBool("SEEDCHECK_REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     6379,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       0,
			PoolSize: 10,
		},
		NATS: NATSConfig{
			Enabled:       getEnvBool("SEEDCHECK_NATS_ENABLED", false),
			URL:           getEnv("NATS_URL", "nats://127.0.0.1:4222"),
			SubjectPrefix: "seedcheck.verify",
		},
		Runner: RunnerConfig{
			Workers:         1,
			QueueSize:       8,
			VerifyTimeout:   0,
			ShutdownTimeout: 30 * time.Second,
		},
		Wallet: WalletConfig{
			WordListPath: getEnv("SEEDCHECK_WORDLIST", ""),
			WordCount:    33,
		},
		Indicator: IndicatorConfig{
			Message: "Verifying Seed...",
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "warn"),
			Format: "text",
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// RedisAddr returns the full Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Redis.Enabled {
		if c.Redis.Host == "" {
			return fmt.Errorf("redis host cannot be empty")
		}
		if c.Redis.Port < 1 || c.Redis.Port > 65535 {
			return fmt.Errorf("redis port must be between 1 and 65535")
		}
	}
	if c.NATS.Enabled {
		if c.NATS.URL == "" {
			return fmt.Errorf("nats url cannot be empty")
		}
		if c.NATS.SubjectPrefix == "" {
			return fmt.Errorf("nats subject prefix cannot be empty")
		}
	}
	if c.Runner.Workers < 1 {
		return fmt.Errorf("runner workers must be at least 1")
	}
	if c.Runner.QueueSize < 1 {
		return fmt.Errorf("runner queue size must be at least 1")
	}
	if c.Runner.VerifyTimeout < 0 {
		return fmt.Errorf("verify timeout cannot be negative")
	}
	if c.Wallet.WordCount < 2 {
		return fmt.Errorf("wallet word count must be at least 2")
	}
	if !logger.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("log format must be text or json")
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
