package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{Level: "info"},
		Player: PlayerConfig{
			SampleInterval:     time.Second,
			TransportStep:      15 * time.Second,
			DefaultAspectRatio: 16.0 / 9.0,
			SnapshotBufferSize: 16,
		},
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, time.Second, cfg.Player.SampleInterval)
	assert.Equal(t, 15*time.Second, cfg.Player.TransportStep)
	assert.InDelta(t, 16.0/9.0, cfg.Player.DefaultAspectRatio, 1e-9)
	assert.Equal(t, 16, cfg.Player.SnapshotBufferSize)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ORPHEUS_SERVER_PORT", "9090")
	t.Setenv("ORPHEUS_LOGGING_LEVEL", "debug")
	t.Setenv("ORPHEUS_PLAYER_SAMPLEINTERVAL", "250ms")
	t.Setenv("ORPHEUS_PLAYER_TRANSPORTSTEP", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 250*time.Millisecond, cfg.Player.SampleInterval)
	assert.Equal(t, 30*time.Second, cfg.Player.TransportStep)
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	t.Setenv("ORPHEUS_LOGGING_LEVEL", "verbose")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"port too low", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }, "invalid read timeout"},
		{"zero write timeout", func(c *Config) { c.Server.WriteTimeout = 0 }, "invalid write timeout"},
		{"bad log level", func(c *Config) { c.Logging.Level = "chatty" }, "invalid log level"},
		{"zero sample interval", func(c *Config) { c.Player.SampleInterval = 0 }, "invalid sample interval"},
		{"negative transport step", func(c *Config) { c.Player.TransportStep = -time.Second }, "invalid transport step"},
		{"zero aspect ratio", func(c *Config) { c.Player.DefaultAspectRatio = 0 }, "invalid default aspect ratio"},
		{"zero buffer size", func(c *Config) { c.Player.SnapshotBufferSize = 0 }, "invalid snapshot buffer size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
