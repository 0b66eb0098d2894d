// Package config provides configuration management for the setup memory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"setup-memory/internal/errors"
	"setup-memory/internal/logging"
	"setup-memory/internal/store"
)

// Max token bounds accepted for a vision request.
const (
	MinMaxTokens = 100
	MaxMaxTokens = 4000
)

// Config holds all application configuration.
type Config struct {
	AI          AIConfig      `mapstructure:"ai"`
	Storage     StorageConfig `mapstructure:"storage"`
	Logging     LoggingConfig `mapstructure:"logging"`
	Credentials Credentials   `mapstructure:"-"` // Loaded separately

	dir string
}

// AIConfig selects the vision provider and request parameters.
type AIConfig struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// StorageConfig selects the key-value backend.
type StorageConfig struct {
	Backend       string `mapstructure:"backend"` // sqlite, badger, redis, memory
	SQLitePath    string `mapstructure:"sqlite_path"`
	BadgerDir     string `mapstructure:"badger_dir"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix"`
}

// LoggingConfig mirrors logging.LogConfig.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// Credentials holds provider API keys.
type Credentials struct {
	OpenAI    ProviderCredentials `mapstructure:"openai"`
	Gemini    ProviderCredentials `mapstructure:"gemini"`
	Anthropic ProviderCredentials `mapstructure:"anthropic"`
}

// ProviderCredentials holds one provider's API key.
type ProviderCredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/setup-memory"
	}
	return filepath.Join(home, ".config", "setup-memory")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. Missing files are
// created from templates and loading continues with their defaults.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{dir: configDir}

	// .env values never override variables already set in the environment
	if err := godotenv.Load(filepath.Join(configDir, ".env")); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("ai.provider", ProviderOpenAI)
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.max_tokens", 1000)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.timeout", "60s")

	v.SetDefault("storage.backend", store.BackendSQLite)
	v.SetDefault("storage.sqlite_path", filepath.Join(configDir, "memory.db"))
	v.SetDefault("storage.badger_dir", filepath.Join(configDir, "badger"))
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.redis_db", 0)
	v.SetDefault("storage.redis_prefix", store.DefaultRedisPrefix)

	logDefaults := logging.DefaultLogConfig()
	v.SetDefault("logging.level", logDefaults.Level)
	v.SetDefault("logging.console", logDefaults.Console)
	v.SetDefault("logging.file", logDefaults.File)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "memory.log"))
	v.SetDefault("logging.max_size", logDefaults.MaxSize)
	v.SetDefault("logging.max_backups", logDefaults.MaxBackups)
	v.SetDefault("logging.max_age", logDefaults.MaxAge)
}

func loadConfigFile(configDir string, cfg *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		// Config file not found, create template and fall back to defaults
		if err := createTemplate(configDir, "config.toml", configTemplate, 0644); err != nil {
			return err
		}
	}

	return v.Unmarshal(cfg)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		// Use restricted permissions for credentials file
		return createTemplate(configDir, "credentials.toml", credentialsTemplate, 0600)
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Credentials.OpenAI.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Credentials.Gemini.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Credentials.Anthropic.APIKey = v
	}

	if v := os.Getenv("SETUP_MEMORY_PROVIDER"); v != "" {
		cfg.AI.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("SETUP_MEMORY_STORAGE"); v != "" {
		cfg.Storage.Backend = strings.ToLower(v)
	}
}

// Validate validates the configuration. Every failure matches
// errors.ErrConfigInvalid.
func (c *Config) Validate() error {
	if _, ok := LookupProvider(c.AI.Provider); !ok {
		return errors.Wrapf(errors.ErrConfigInvalid, "invalid provider: %s (must be one of %s)", c.AI.Provider, strings.Join(ProviderIDs(), ", "))
	}

	if c.AI.MaxTokens < MinMaxTokens || c.AI.MaxTokens > MaxMaxTokens {
		return errors.Wrapf(errors.ErrConfigInvalid, "max_tokens must be between %d and %d", MinMaxTokens, MaxMaxTokens)
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return errors.Wrap(errors.ErrConfigInvalid, "temperature must be between 0 and 2")
	}
	if c.AI.Timeout < 0 {
		return errors.Wrap(errors.ErrConfigInvalid, "timeout must be non-negative")
	}

	switch c.Storage.Backend {
	case store.BackendSQLite, store.BackendBadger, store.BackendRedis, store.BackendMemory:
	default:
		return errors.Wrapf(errors.ErrConfigInvalid, "invalid storage backend: %s (must be sqlite, badger, redis or memory)", c.Storage.Backend)
	}
	if c.Storage.RedisDB < 0 {
		return errors.Wrap(errors.ErrConfigInvalid, "redis_db must be non-negative")
	}

	return nil
}

// Dir returns the directory the configuration was loaded from.
func (c *Config) Dir() string {
	return c.dir
}

// Model returns the configured model, or the provider default when unset.
func (c *Config) Model() string {
	if c.AI.Model != "" {
		return c.AI.Model
	}
	return DefaultModel(c.AI.Provider)
}

// APIKey returns the API key for the active provider.
func (c *Config) APIKey() string {
	switch c.AI.Provider {
	case ProviderGemini:
		return c.Credentials.Gemini.APIKey
	case ProviderAnthropic:
		return c.Credentials.Anthropic.APIKey
	default:
		return c.Credentials.OpenAI.APIKey
	}
}

// StoreOptions maps the storage section onto store.Options.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend:       c.Storage.Backend,
		DataDir:       c.dir,
		SQLitePath:    c.Storage.SQLitePath,
		BadgerDir:     c.Storage.BadgerDir,
		RedisAddr:     c.Storage.RedisAddr,
		RedisPassword: c.Storage.RedisPassword,
		RedisDB:       c.Storage.RedisDB,
		RedisPrefix:   c.Storage.RedisPrefix,
	}
}

// LogConfig maps the logging section onto logging.LogConfig.
func (c *Config) LogConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:      c.Logging.Level,
		Console:    c.Logging.Console,
		File:       c.Logging.File,
		FilePath:   c.Logging.FilePath,
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAge,
	}
}
