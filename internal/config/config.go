// Package config provides configuration for the pokr server.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the server configuration.
type Config struct {
	// Server settings
	Env      string `yaml:"env" env:"POKR_ENV"`
	HTTPPort int    `yaml:"http_port" env:"POKR_HTTP_PORT"`

	// Database
	Database DatabaseConfig `yaml:"database"`

	// Logging
	LogLevel string `yaml:"log_level" env:"POKR_LOG_LEVEL"`

	// Origins allowed to call the API from a browser
	CORSOrigins []string `yaml:"cors_origins" env:"POKR_CORS_ORIGINS" envSeparator:","`

	// WebSocket settings
	WebSocket WebSocketConfig `yaml:"websocket"`
}

// DatabaseConfig selects the database/sql driver and its DSN.
type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"POKR_DB_DRIVER"`
	DSN    string `yaml:"dsn" env:"POKR_DB_DSN"`
}

// WebSocketConfig tunes the push connections.
type WebSocketConfig struct {
	PingInterval   time.Duration `yaml:"ping_interval" env:"POKR_WS_PING_INTERVAL"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"POKR_WS_WRITE_TIMEOUT"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"POKR_WS_READ_TIMEOUT"`
	MaxMessageSize int64         `yaml:"max_message_size" env:"POKR_WS_MAX_MESSAGE_SIZE"`
	SendBuffer     int           `yaml:"send_buffer" env:"POKR_WS_SEND_BUFFER"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Env:      "production",
		HTTPPort: 8080,
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "file:pokr.db?mode=rwc&_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=1",
		},
		LogLevel:    "info",
		CORSOrigins: []string{"http://localhost:4200"},
		WebSocket: WebSocketConfig{
			PingInterval:   30 * time.Second,
			WriteTimeout:   10 * time.Second,
			ReadTimeout:    60 * time.Second,
			MaxMessageSize: 65536,
			SendBuffer:     256,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named
// by POKR_CONFIG, and environment variables, in that order. A .env file in
// the working directory is loaded into the environment first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return load(os.Getenv("POKR_CONFIG"))
}

func load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port %d", c.HTTPPort)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn is required")
	}
	if c.WebSocket.PingInterval <= 0 || c.WebSocket.ReadTimeout <= c.WebSocket.PingInterval {
		return fmt.Errorf("websocket read timeout (%s) must exceed ping interval (%s)", c.WebSocket.ReadTimeout, c.WebSocket.PingInterval)
	}
	return nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// NewLogger returns a structured logger for the configured level. Development
// mode writes text, everything else writes JSON.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.IsDevelopment() {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
