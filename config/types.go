package config

import (
	"time"

	"github.com/s0up4200/qbitctl/server"
)

// Config represents the complete configuration structure
type Config struct {
	Servers       []server.Profile `mapstructure:"servers" yaml:"servers"`
	DefaultServer string           `mapstructure:"default_server" yaml:"default_server,omitempty"`
	Request       RequestConfig    `mapstructure:"request" yaml:"request"`
	Watch         WatchConfig      `mapstructure:"watch" yaml:"watch"`
	Filter        FilterConfig     `mapstructure:"filter" yaml:"filter,omitempty"`
	Logging       LoggingConfig    `mapstructure:"logging" yaml:"logging"`

	path        string
	keyringPass map[string]bool
}

// Path returns the file the configuration was loaded from or will be saved to
func (c *Config) Path() string {
	return c.path
}

// RequestConfig holds HTTP transport settings shared by all servers
type RequestConfig struct {
	Timeout            time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent          string        `mapstructure:"user_agent" yaml:"user_agent"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// WatchConfig contains settings for the watch command
type WatchConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	Notify   bool          `mapstructure:"notify" yaml:"notify"`
	OnError  bool          `mapstructure:"on_error" yaml:"on_error"`
}

// FilterConfig maps preset names to filter expressions
type FilterConfig map[string]string

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Color  bool   `mapstructure:"color" yaml:"color"`
}
