package configs

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets default configuration values for all components
func setDefaults(v *viper.Viper) {
	// Application defaults
	v.SetDefault("verbose", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("output_format", "table")

	// Audio defaults: the geometry the pretrained model expects.
	v.SetDefault("audio.sample_rate", 22050)
	v.SetDefault("audio.hop_length", 544)
	v.SetDefault("audio.bins_per_octave", 36)
	v.SetDefault("audio.octaves", 7)
	v.SetDefault("audio.f_min", 32.7)
	v.SetDefault("audio.q_factor", 22.0)

	// Model defaults
	v.SetDefault("model.path", "models/chordestimation.onnx")
	v.SetDefault("model.index_path", "assets/index.json")
	v.SetDefault("model.library_path", "")
	v.SetDefault("model.batch_size", 2)
	v.SetDefault("model.frame_length", 8192)

	// Timeline defaults
	v.SetDefault("timeline.min_duration", 100*time.Millisecond)

	// Playback defaults
	v.SetDefault("playback.volume", 1.0)

	// UI defaults
	v.SetDefault("ui.title", "Chord Tracker")
	v.SetDefault("ui.window_width", 1280)
	v.SetDefault("ui.window_height", 800)
}
