// Package config loads the halcom configuration from config files,
// environment variables, and defaults, in that order of precedence.
package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Oracle    OracleConfig    `mapstructure:"oracle" yaml:"oracle"`
	Dashboard DashboardConfig `mapstructure:"dashboard" yaml:"dashboard"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// DatabaseConfig locates the SQLite database file
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// OracleConfig selects and configures the language model backend
type OracleConfig struct {
	// Provider is "ollama" or "anthropic"
	Provider string `mapstructure:"provider" yaml:"provider"`

	OllamaURL   string `mapstructure:"ollama_url" yaml:"ollama_url"`
	OllamaModel string `mapstructure:"ollama_model" yaml:"ollama_model"`

	AnthropicModel string `mapstructure:"anthropic_model" yaml:"anthropic_model"`
}

// DashboardConfig configures the WebSocket dashboard server
type DashboardConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

// LogConfig configures the rotating application log
type LogConfig struct {
	// File is the log destination; empty logs to stderr
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
}

// DefaultDatabasePath returns the default database location under the
// user's home directory.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "halcom.db"
	}
	return filepath.Join(home, ".halcom", "halcom.db")
}

// Load reads configuration from the given file (or the default search
// path when empty), environment variables prefixed HALCOM_, and
// built-in defaults.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".halcom"))
		}
	}

	v.SetDefault("database.path", DefaultDatabasePath())
	v.SetDefault("oracle.provider", "ollama")
	v.SetDefault("oracle.ollama_url", "http://localhost:11434/api/generate")
	v.SetDefault("oracle.ollama_model", "gemma3:27b")
	v.SetDefault("oracle.anthropic_model", "claude-3-5-haiku-latest")
	v.SetDefault("dashboard.port", 8080)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 30)

	v.SetEnvPrefix("HALCOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if configFile != "" {
			// An explicitly named file must exist
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Defaults and env vars cover the no-config-file case
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	switch c.Oracle.Provider {
	case "ollama", "anthropic":
	default:
		return fmt.Errorf("unknown oracle provider %q (want ollama or anthropic)", c.Oracle.Provider)
	}

	if c.Dashboard.Port < 0 || c.Dashboard.Port > 65535 {
		return fmt.Errorf("invalid dashboard port %d", c.Dashboard.Port)
	}

	return nil
}

// Dump renders the configuration as YAML, for `halcom config show`.
func (c *Config) Dump() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to render config: %w", err)
	}
	return string(out), nil
}

// NewLogger builds the application logger. With a log file configured
// it writes through lumberjack for size-based rotation; otherwise it
// logs to stderr.
func (c *Config) NewLogger(prefix string) *log.Logger {
	var w io.Writer = os.Stderr
	if c.Log.File != "" {
		w = &lumberjack.Logger{
			Filename:   c.Log.File,
			MaxSize:    c.Log.MaxSizeMB,
			MaxBackups: c.Log.MaxBackups,
			MaxAge:     c.Log.MaxAgeDays,
		}
	}
	return log.New(w, prefix, log.LstdFlags)
}
