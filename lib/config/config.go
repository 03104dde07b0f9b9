// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file when --config is absent.
const EnvironmentVariable = "TOKENRELAY_CONFIG"

// Config is the relay's configuration.
type Config struct {
	// Listen configures the public endpoint.
	Listen ListenConfig `yaml:"listen"`

	// MetricsAddress is the listen address for Prometheus metrics.
	// Empty disables the metrics endpoint.
	MetricsAddress string `yaml:"metrics_address"`

	// LogLevel is one of debug, info, warn, error.
	// Default: info
	LogLevel string `yaml:"log_level"`

	// Session configures websocket sessions.
	Session SessionConfig `yaml:"session"`

	// MaxMessageBytes caps a single relayed message on either the
	// ingest path or a websocket frame.
	// Default: 2048
	MaxMessageBytes int64 `yaml:"max_message_bytes"`

	// CredentialsDirectory holds ENCRYPTION_KEY and, optionally,
	// TLS_CERT and TLS_KEY. Empty means no credentials: a key is
	// generated and the relay serves plain HTTP.
	// Default: ${CREDENTIALS_DIRECTORY}
	CredentialsDirectory string `yaml:"credentials_directory"`
}

// ListenConfig holds the two listen addresses. Exactly one is used:
// TLS when certificate credentials are present, Plain otherwise.
type ListenConfig struct {
	// Plain is the HTTP listen address.
	// Default: [::]:8080
	Plain string `yaml:"plain"`

	// TLS is the HTTPS listen address.
	// Default: [::]:8443
	TLS string `yaml:"tls"`
}

// SessionConfig configures websocket sessions.
type SessionConfig struct {
	// KeepaliveInterval is the ping period for read-role sessions.
	// Default: 10s
	KeepaliveInterval time.Duration `yaml:"keepalive_interval"`

	// WriteTimeout bounds each frame write.
	// Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{
			Plain: "[::]:8080",
			TLS:   "[::]:8443",
		},
		LogLevel: "info",
		Session: SessionConfig{
			KeepaliveInterval: 10 * time.Second,
			WriteTimeout:      10 * time.Second,
		},
		MaxMessageBytes:      2048,
		CredentialsDirectory: "${CREDENTIALS_DIRECTORY}",
	}
}

// Load loads configuration from the file named by TOKENRELAY_CONFIG, or
// returns the expanded defaults when it is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		cfg := Default()
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. Fields the
// file omits keep their defaults; unknown fields are an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.expandVariables()
	return cfg, nil
}

// loadFile decodes a single configuration file over the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func (c *Config) expandVariables() {
	c.CredentialsDirectory = expandVars(c.CredentialsDirectory)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// Validate checks the configuration for errors and reports all of them.
func (c *Config) Validate() error {
	var errs []error

	if err := validateAddress(c.Listen.Plain); err != nil {
		errs = append(errs, fmt.Errorf("listen.plain: %w", err))
	}
	if err := validateAddress(c.Listen.TLS); err != nil {
		errs = append(errs, fmt.Errorf("listen.tls: %w", err))
	}
	if c.MetricsAddress != "" {
		if err := validateAddress(c.MetricsAddress); err != nil {
			errs = append(errs, fmt.Errorf("metrics_address: %w", err))
		}
	}

	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	if c.Session.KeepaliveInterval <= 0 {
		errs = append(errs, fmt.Errorf("session.keepalive_interval must be positive, got %v", c.Session.KeepaliveInterval))
	}
	if c.Session.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("session.write_timeout must be positive, got %v", c.Session.WriteTimeout))
	}
	if c.MaxMessageBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_message_bytes must be positive, got %d", c.MaxMessageBytes))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func validateAddress(address string) error {
	if address == "" {
		return errors.New("address is required")
	}
	if _, _, err := net.SplitHostPort(address); err != nil {
		return err
	}
	return nil
}
