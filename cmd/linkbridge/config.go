package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration written as a string ("5ms") in YAML.
type Duration time.Duration

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config holds the bridge settings.
type Config struct {
	Tempo         float64  `yaml:"tempo"`
	Quantum       float64  `yaml:"quantum"`
	SampleRate    float64  `yaml:"sample_rate"`
	BufferFrames  int      `yaml:"buffer_frames"`
	OutputLatency Duration `yaml:"output_latency"`
	LogLevel      string   `yaml:"log_level"`
	Realtime      bool     `yaml:"realtime"`
	// MidiPort is the rtmidi output port for clicks; -1 opens a virtual port.
	MidiPort int `yaml:"midi_port"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Tempo:         120,
		Quantum:       4,
		SampleRate:    48000,
		BufferFrames:  256,
		OutputLatency: Duration(5 * time.Millisecond),
		LogLevel:      "info",
		MidiPort:      -1,
	}
}

var (
	ErrInvalidTempo   = errors.New("tempo must be between 20 and 999 BPM")
	ErrInvalidQuantum = errors.New("quantum must be positive")
	ErrInvalidBuffer  = errors.New("buffer_frames must be positive")
	ErrInvalidRate    = errors.New("sample_rate must be positive")
	ErrInvalidLatency = errors.New("output_latency must not be negative")
	ErrBufferTooShort = errors.New("buffer is shorter than one clock tick")
)

// LoadConfig reads path over the defaults. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings are usable.
func (c Config) Validate() error {
	switch {
	case c.Tempo < 20 || c.Tempo > 999:
		return ErrInvalidTempo
	case c.Quantum <= 0:
		return ErrInvalidQuantum
	case c.SampleRate <= 0:
		return ErrInvalidRate
	case c.BufferFrames <= 0:
		return ErrInvalidBuffer
	case c.OutputLatency < 0:
		return ErrInvalidLatency
	case c.BufferDuration() <= 0:
		return ErrBufferTooShort
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// BufferDuration is how long one buffer lasts at the configured rate.
func (c Config) BufferDuration() time.Duration {
	return time.Duration(float64(c.BufferFrames) / c.SampleRate * float64(time.Second))
}

// LatencyTicks converts the output latency to host ticks.
func (c Config) LatencyTicks(secondsToHostTime float64) int64 {
	return int64(time.Duration(c.OutputLatency).Seconds() * secondsToHostTime)
}
