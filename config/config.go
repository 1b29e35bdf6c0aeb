package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load,
// e.g. GICOWA_MAIL_PASSWORD for mail.password.
const EnvPrefix = "GICOWA"

// Config holds all configuration for the application
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	GitHub GitHubConfig `mapstructure:"github"`
	Mail   MailConfig   `mapstructure:"mail"`
	State  StateConfig  `mapstructure:"state"`
	Output OutputConfig `mapstructure:"output"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// GitHubConfig configures the API client. APIURL is only set for GitHub
// Enterprise; Token is used when no --credentials are given.
type GitHubConfig struct {
	APIURL      string `mapstructure:"api_url"`
	Token       string `mapstructure:"token"`
	Concurrency int    `mapstructure:"concurrency"`
}

// MailConfig configures result delivery. Without both Port and Password the
// mail is sent over plain SMTP on port 25.
type MailConfig struct {
	Server   string `mapstructure:"server"`
	Port     int    `mapstructure:"port"`
	Sender   string `mapstructure:"sender"`
	Password string `mapstructure:"password"`
}

// StateConfig selects where last-run timestamps are kept. An empty Driver
// means the YAML file at Path.
type StateConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
}

type OutputConfig struct {
	ForceColor bool `mapstructure:"force_color"`
}

// Dir returns the directory holding the config and state files.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gicowa"
	}
	return filepath.Join(home, ".gicowa")
}

// Load reads configuration from defaults, the config file and the
// environment, in increasing order of precedence. An empty path looks for
// config.yaml in Dir() and tolerates its absence.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("log.level", "warn")
	v.SetDefault("github.api_url", "")
	v.SetDefault("github.token", "")
	v.SetDefault("github.concurrency", 4)
	v.SetDefault("mail.server", "localhost")
	v.SetDefault("mail.port", 0)
	v.SetDefault("mail.sender", "gicowa@lourot.com")
	v.SetDefault("mail.password", "")
	v.SetDefault("state.driver", "")
	v.SetDefault("state.path", filepath.Join(Dir(), "state.yaml"))
	v.SetDefault("state.dsn", "")
	v.SetDefault("output.force_color", false)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that viper cannot check by type alone.
func (c *Config) Validate() error {
	if c.GitHub.Concurrency < 1 {
		return fmt.Errorf("github.concurrency must be at least 1, got %d", c.GitHub.Concurrency)
	}

	switch c.State.Driver {
	case "":
		if c.State.Path == "" {
			return fmt.Errorf("state.path is required")
		}
	case "postgres", "sqlite3":
		if c.State.DSN == "" {
			return fmt.Errorf("state.dsn is required for driver %s", c.State.Driver)
		}
	default:
		return fmt.Errorf("unsupported state.driver %q", c.State.Driver)
	}

	if c.Mail.Port < 0 || c.Mail.Port > 65535 {
		return fmt.Errorf("invalid mail.port %d", c.Mail.Port)
	}
	return nil
}
