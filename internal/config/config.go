package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidPort          = errors.New("port must be between 1 and 65535")
	ErrInvalidMessageLimit  = errors.New("max_message_bytes must be positive")
	ErrInvalidSendQueueSize = errors.New("send_queue_size must be positive")
	ErrInvalidLogLevel      = errors.New("unknown log level")
	ErrInvalidLogFormat     = errors.New("unknown log format")
)

// Config holds server configuration values.
type Config struct {
	Host              string        `mapstructure:"host" yaml:"host"`
	Port              int           `mapstructure:"port" yaml:"port"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxMessageBytes   int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	SendQueueSize     int           `mapstructure:"send_queue_size" yaml:"send_queue_size"`
	MetricsEnabled    bool          `mapstructure:"metrics_enabled" yaml:"metrics_enabled"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Host:              "0.0.0.0",
		Port:              8765,
		LogLevel:          "info",
		LogFormat:         "console",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		MaxMessageBytes:   2_000_000,
		SendQueueSize:     256,
		MetricsEnabled:    true,
	}
}

// Addr is the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: got %d", ErrInvalidPort, c.Port)
	}
	if c.MaxMessageBytes <= 0 {
		return ErrInvalidMessageLimit
	}
	if c.SendQueueSize <= 0 {
		return ErrInvalidSendQueueSize
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.LogFormat)
	}
	return nil
}

// Overrides carries command-line values; nil fields are left alone.
type Overrides struct {
	Host      *string
	Port      *int
	LogLevel  *string
	LogFormat *string
}

// Apply overwrites the receiver with every set override.
func (c *Config) Apply(o Overrides) {
	if o.Host != nil {
		c.Host = *o.Host
	}
	if o.Port != nil {
		c.Port = *o.Port
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
	if o.LogFormat != nil {
		c.LogFormat = *o.LogFormat
	}
}
