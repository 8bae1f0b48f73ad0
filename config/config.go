// Package config loads packetcore configuration from defaults, an optional file and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/strangelove-ventures/packetcore/handler"
)

// EnvPrefix prefixes environment overrides, e.g. PACKETCORE_LOG_LEVEL=debug.
const EnvPrefix = "PACKETCORE"

// Config holds application configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log" yaml:"log" toml:"log"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database" toml:"database"`
	Handler  HandlerConfig  `mapstructure:"handler" yaml:"handler" toml:"handler"`
}

// LogConfig selects the log destination, format and level.
type LogConfig struct {
	// File is stderr, stdout or a file path.
	File   string `mapstructure:"file" yaml:"file" toml:"file"`
	Format string `mapstructure:"format" yaml:"format" toml:"format"`
	Level  string `mapstructure:"level" yaml:"level" toml:"level"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path" toml:"path"`
}

// HandlerConfig configures the packet handler.
type HandlerConfig struct {
	MissingCommitment string `mapstructure:"missing_commitment" yaml:"missing_commitment" toml:"missing_commitment"`
}

// DefaultHome is the directory holding the default config file and database.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".packetcore")
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Log:      LogConfig{File: "stderr", Format: "console", Level: "info"},
		Database: DatabaseConfig{Path: filepath.Join(DefaultHome(), "databases", "ledger.db")},
		Handler:  HandlerConfig{MissingCommitment: string(handler.MissingCommitmentError)},
	}
}

// Load reads configuration from file and env. Env var overrides use prefix PACKETCORE_.
// If path is empty, PACKETCORE_CONFIG is consulted, then config.{yaml,toml} in DefaultHome.
// A missing default file is not an error; a missing explicit file is.
func Load(path string) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("handler.missing_commitment", def.Handler.MissingCommitment)

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(DefaultHome())
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q (must be console or json)", c.Log.Format)
	}
	if c.Database.Path == "" {
		return errors.New("database path cannot be empty")
	}
	if _, err := c.MissingCommitmentPolicy(); err != nil {
		return err
	}
	return nil
}

// MissingCommitmentPolicy parses the handler's missing commitment policy.
func (c Config) MissingCommitmentPolicy() (handler.MissingCommitmentPolicy, error) {
	return handler.ParseMissingCommitmentPolicy(c.Handler.MissingCommitment)
}

// Write encodes the config to path as TOML or YAML, chosen by extension,
// creating the parent directory if needed.
func Write(path string, c Config) error {
	var buf bytes.Buffer
	switch ext := filepath.Ext(path); ext {
	case ".toml":
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
	case ".yaml", ".yml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config extension %q (use .toml, .yaml or .yml)", ext)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
