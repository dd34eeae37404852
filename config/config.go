// Package config loads and saves the qbitctl configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/s0up4200/qbitctl/server"
)

// ErrConfigNotFound is returned by Load when no configuration file exists
var ErrConfigNotFound = errors.New("config file not found")

// Load loads the configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".qbitctl"))
		}
		v.AddConfigPath("/etc/qbitctl/")
	}

	v.SetEnvPrefix("QBITCTL")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", ErrConfigNotFound, err)
		}
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.path = v.ConfigFileUsed()

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used before any file has been written.
// path is where Save will create it; empty means ~/.qbitctl/config.yaml.
func Default(path string) *Config {
	if path == "" {
		path = "config.yaml"
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".qbitctl", "config.yaml")
		}
	}

	return &Config{
		Request: RequestConfig{
			Timeout:   30 * time.Second,
			UserAgent: "qbitctl",
		},
		Watch: WatchConfig{
			Interval: 5 * time.Second,
			Notify:   true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Color:  true,
		},
		path: path,
	}
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := Default("")

	v.SetDefault("request.timeout", d.Request.Timeout)
	v.SetDefault("request.user_agent", d.Request.UserAgent)
	v.SetDefault("request.insecure_skip_verify", false)

	v.SetDefault("watch.interval", d.Watch.Interval)
	v.SetDefault("watch.notify", d.Watch.Notify)
	v.SetDefault("watch.on_error", false)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.color", d.Logging.Color)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Servers))
	for i, s := range cfg.Servers {
		if s.ID == "" {
			return fmt.Errorf("servers[%d].id is required", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate server id: %s", s.ID)
		}
		seen[s.ID] = true

		if s.Host == "" {
			return fmt.Errorf("servers[%d].host is required", i)
		}
		if s.Username == "" {
			return fmt.Errorf("servers[%d].username is required", i)
		}
		if s.Port < 0 || s.Port > 65535 {
			return fmt.Errorf("servers[%d].port out of range: %d", i, s.Port)
		}
	}

	if cfg.DefaultServer != "" && !seen[cfg.DefaultServer] {
		return fmt.Errorf("default_server %q does not match any server id", cfg.DefaultServer)
	}

	if cfg.Request.Timeout <= 0 {
		return fmt.Errorf("request.timeout must be positive")
	}
	if cfg.Watch.Interval < time.Second {
		return fmt.Errorf("watch.interval must be at least 1s")
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}

// Save validates cfg and writes it back to cfg.Path().
// Passwords that were resolved from the keyring are not written.
func Save(cfg *Config) error {
	if err := validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	out := *cfg
	out.Servers = make([]server.Profile, len(cfg.Servers))
	for i, s := range cfg.Servers {
		if cfg.keyringPass[s.ID] {
			s.Password = ""
		}
		out.Servers[i] = s
	}

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(cfg.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
