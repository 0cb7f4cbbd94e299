// Package config provides configuration management using Viper.
// It loads configuration from environment variables, .env files, and config files.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerPort         = 8080
	defaultServerHost         = "0.0.0.0"
	defaultReadTimeout        = 30 * time.Second
	defaultWriteTimeout       = 30 * time.Second
	defaultLogLevel           = "info"
	defaultLogPretty          = false
	defaultSampleInterval     = 1 * time.Second
	defaultTransportStep      = 15 * time.Second
	defaultAspectRatio        = 16.0 / 9.0
	defaultSnapshotBufferSize = 16
	envPrefix                 = "ORPHEUS"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Logging LoggingConfig
	Player  PlayerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// PlayerConfig holds playback controller configuration
type PlayerConfig struct {
	// SampleInterval is the cadence of the position sampling loop
	SampleInterval time.Duration
	// TransportStep is the relative seek distance used by rewind/fast-forward
	TransportStep time.Duration
	// DefaultAspectRatio is published until the engine reports a video size
	DefaultAspectRatio float64
	// SnapshotBufferSize is the per-subscriber snapshot channel depth
	SnapshotBufferSize int
}

// Load reads configuration from .env file, config files, environment variables, and defaults
func Load() (*Config, error) {
	// .env files are optional in production and CI where env vars are set directly
	_ = godotenv.Load() // nolint:errcheck // .env file is optional

	v := viper.New()

	setDefaults(v)

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/orpheus")

	// Environment variable settings
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.host", defaultServerHost)
	v.SetDefault("server.readtimeout", defaultReadTimeout)
	v.SetDefault("server.writetimeout", defaultWriteTimeout)

	// Logging defaults
	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.pretty", defaultLogPretty)

	// Player defaults
	v.SetDefault("player.sampleinterval", defaultSampleInterval)
	v.SetDefault("player.transportstep", defaultTransportStep)
	v.SetDefault("player.defaultaspectratio", defaultAspectRatio)
	v.SetDefault("player.snapshotbuffersize", defaultSnapshotBufferSize)
}

// Validate checks that configuration values are valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("invalid read timeout: %v (must be > 0)", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("invalid write timeout: %v (must be > 0)", c.Server.WriteTimeout)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Logging.Level, strings.Join(validLevels, ", "))
	}

	if c.Player.SampleInterval <= 0 {
		return fmt.Errorf("invalid sample interval: %v (must be > 0)", c.Player.SampleInterval)
	}
	if c.Player.TransportStep <= 0 {
		return fmt.Errorf("invalid transport step: %v (must be > 0)", c.Player.TransportStep)
	}
	if c.Player.DefaultAspectRatio <= 0 {
		return fmt.Errorf("invalid default aspect ratio: %v (must be > 0)", c.Player.DefaultAspectRatio)
	}
	if c.Player.SnapshotBufferSize < 1 {
		return fmt.Errorf("invalid snapshot buffer size: %d (must be >= 1)", c.Player.SnapshotBufferSize)
	}

	return nil
}

// contains checks if a string slice contains a specific value
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
