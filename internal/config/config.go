package config

import (
	"errors"
	"time"
)

var (
	ErrMissingServerURL = errors.New("config: server_url is required")
	ErrMissingSessionID = errors.New("config: session_id is required")
	ErrMissingRoomType  = errors.New("config: room_type is required")
	ErrUnknownDriver    = errors.New("config: unknown storage driver")
)

// Storage drivers accepted in storage.driver.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// StorageConfig selects where the display name is remembered.
type StorageConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	Path   string `mapstructure:"path" yaml:"path"`
}

// Config holds client configuration values.
type Config struct {
	ServerURL        string        `mapstructure:"server_url" yaml:"server_url"`
	SessionID        string        `mapstructure:"session_id" yaml:"session_id"`
	RoomType         string        `mapstructure:"room_type" yaml:"room_type"`
	IsAdmin          bool          `mapstructure:"is_admin" yaml:"is_admin"`
	LogLevel         string        `mapstructure:"log_level" yaml:"log_level"`
	LogFile          string        `mapstructure:"log_file" yaml:"log_file"`
	Storage          StorageConfig `mapstructure:"storage" yaml:"storage"`
	MetricsAddr      string        `mapstructure:"metrics_addr" yaml:"metrics_addr"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout" yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// Default returns configuration with reasonable starter defaults.
// Session and room are left empty; they come from the host.
func Default() Config {
	return Config{
		ServerURL: "ws://localhost:8080/ws",
		LogLevel:  "info",
		LogFile:   "chat-client.log",
		Storage: StorageConfig{
			Driver: DriverFile,
			Path:   "identity.yaml",
		},
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// IsAdmin only ever turns on.
func (c *Config) UpdateFrom(other Config) {
	if other.ServerURL != "" {
		c.ServerURL = other.ServerURL
	}
	if other.SessionID != "" {
		c.SessionID = other.SessionID
	}
	if other.RoomType != "" {
		c.RoomType = other.RoomType
	}
	if other.IsAdmin {
		c.IsAdmin = true
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFile != "" {
		c.LogFile = other.LogFile
	}
	if other.Storage.Driver != "" {
		c.Storage.Driver = other.Storage.Driver
	}
	if other.Storage.Path != "" {
		c.Storage.Path = other.Storage.Path
	}
	if other.MetricsAddr != "" {
		c.MetricsAddr = other.MetricsAddr
	}
	if other.HandshakeTimeout != 0 {
		c.HandshakeTimeout = other.HandshakeTimeout
	}
	if other.WriteTimeout != 0 {
		c.WriteTimeout = other.WriteTimeout
	}
}

// Validate checks that the values needed to join a room are present.
func (c Config) Validate() error {
	if c.ServerURL == "" {
		return ErrMissingServerURL
	}
	if c.SessionID == "" {
		return ErrMissingSessionID
	}
	if c.RoomType == "" {
		return ErrMissingRoomType
	}
	switch c.Storage.Driver {
	case DriverFile, DriverSQLite:
	default:
		return ErrUnknownDriver
	}
	return nil
}
