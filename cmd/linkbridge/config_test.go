package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "linkbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
tempo: 96.5
quantum: 3
buffer_frames: 128
output_latency: 12ms
log_level: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 96.5, cfg.Tempo)
	assert.Equal(t, 3.0, cfg.Quantum)
	assert.Equal(t, 128, cfg.BufferFrames)
	assert.Equal(t, Duration(12*time.Millisecond), cfg.OutputLatency)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Unset keys keep their defaults.
	assert.Equal(t, 48000.0, cfg.SampleRate)
	assert.Equal(t, -1, cfg.MidiPort)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")

	_, err = LoadConfig(writeConfig(t, "output_latency: soon\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid duration "soon"`)

	_, err = LoadConfig(writeConfig(t, "tempo: [1, 2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"tempo too slow", func(c *Config) { c.Tempo = 19 }, ErrInvalidTempo},
		{"tempo too fast", func(c *Config) { c.Tempo = 1000 }, ErrInvalidTempo},
		{"zero quantum", func(c *Config) { c.Quantum = 0 }, ErrInvalidQuantum},
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }, ErrInvalidRate},
		{"negative buffer", func(c *Config) { c.BufferFrames = -1 }, ErrInvalidBuffer},
		{"negative latency", func(c *Config) { c.OutputLatency = Duration(-time.Millisecond) }, ErrInvalidLatency},
		{"sub-nanosecond buffer", func(c *Config) { c.SampleRate = 2e9; c.BufferFrames = 1 }, ErrBufferTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}

	cfg := DefaultConfig()
	cfg.LogLevel = "chatty"
	assert.Error(t, cfg.Validate())
}

func TestConfigDerivedValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BufferFrames = 480

	assert.Equal(t, 10*time.Millisecond, cfg.BufferDuration())
	assert.Equal(t, int64(5_000_000), cfg.LatencyTicks(1e9))
	assert.Equal(t, int64(5_000), cfg.LatencyTicks(1e6))
}

func TestConfigYAMLRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputLatency = Duration(7500 * time.Microsecond)

	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "output_latency: 7.5ms")

	var back Config
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, cfg, back)
}
