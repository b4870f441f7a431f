// Package configs defines the application configuration and its defaults.
package configs

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose"`
	LogLevel     string `mapstructure:"log_level"`
	OutputFormat string `mapstructure:"output_format"`

	// Audio and feature extraction settings
	Audio AudioConfig `mapstructure:"audio"`

	// Model settings
	Model ModelConfig `mapstructure:"model"`

	// Timeline settings
	Timeline TimelineConfig `mapstructure:"timeline"`

	// Playback settings
	Playback PlaybackConfig `mapstructure:"playback"`

	// UI settings
	UI UIConfig `mapstructure:"ui"`
}

// AudioConfig contains decoding and CQT geometry settings. The CQT values
// are fixed by the pretrained model; overriding them only makes sense with
// a matching artifact.
type AudioConfig struct {
	SampleRate    int     `mapstructure:"sample_rate"`
	HopLength     int     `mapstructure:"hop_length"`
	BinsPerOctave int     `mapstructure:"bins_per_octave"`
	Octaves       int     `mapstructure:"octaves"`
	FMin          float64 `mapstructure:"f_min"`
	QFactor       float64 `mapstructure:"q_factor"`
}

// ModelConfig contains inference settings
type ModelConfig struct {
	Path        string `mapstructure:"path"`
	IndexPath   string `mapstructure:"index_path"`
	LibraryPath string `mapstructure:"library_path"`
	BatchSize   int    `mapstructure:"batch_size"`
	FrameLength int    `mapstructure:"frame_length"`
}

// TimelineConfig contains timeline builder settings
type TimelineConfig struct {
	MinDuration time.Duration `mapstructure:"min_duration"`
}

// PlaybackConfig contains audio output settings
type PlaybackConfig struct {
	Volume float64 `mapstructure:"volume"`
}

// UIConfig contains window settings
type UIConfig struct {
	Title        string `mapstructure:"title"`
	WindowWidth  int    `mapstructure:"window_width"`
	WindowHeight int    `mapstructure:"window_height"`
}

// LoadConfig builds the configuration from viper (flags, config file,
// environment) on top of the defaults.
func LoadConfig(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Audio.HopLength <= 0 {
		return fmt.Errorf("audio.hop_length must be positive, got %d", c.Audio.HopLength)
	}
	if c.Audio.BinsPerOctave <= 0 || c.Audio.Octaves <= 0 {
		return fmt.Errorf("audio CQT geometry must be positive, got %d bins/octave x %d octaves",
			c.Audio.BinsPerOctave, c.Audio.Octaves)
	}
	if c.Audio.FMin <= 0 || c.Audio.QFactor <= 0 {
		return fmt.Errorf("audio.f_min and audio.q_factor must be positive")
	}
	if c.Model.Path == "" || c.Model.IndexPath == "" {
		return fmt.Errorf("model.path and model.index_path must be set")
	}
	if c.Model.BatchSize < 1 {
		return fmt.Errorf("model.batch_size must be at least 1, got %d", c.Model.BatchSize)
	}
	if c.Model.FrameLength < 1 {
		return fmt.Errorf("model.frame_length must be at least 1, got %d", c.Model.FrameLength)
	}
	if c.Timeline.MinDuration < 0 {
		return fmt.Errorf("timeline.min_duration cannot be negative")
	}
	if c.Playback.Volume < 0 || c.Playback.Volume > 1 {
		return fmt.Errorf("playback.volume must be in [0, 1], got %f", c.Playback.Volume)
	}
	if c.UI.WindowWidth < 640 || c.UI.WindowHeight < 480 {
		return fmt.Errorf("ui window must be at least 640x480, got %dx%d",
			c.UI.WindowWidth, c.UI.WindowHeight)
	}
	return nil
}
