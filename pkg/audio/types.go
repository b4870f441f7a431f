package audio

import "time"

// Waveform holds decoded PCM audio. Samples are interleaved float32 in
// [-1, 1]. A Waveform is immutable once built; it is safe for concurrent
// readers (the feature extractor and the playback engine share one).
type Waveform struct {
	samples    []float32
	sampleRate int
	channels   int
}

// NewWaveform wraps interleaved samples in a Waveform. The sample slice is
// owned by the Waveform after the call and must not be modified.
func NewWaveform(samples []float32, sampleRate, channels int) *Waveform {
	return &Waveform{
		samples:    samples,
		sampleRate: sampleRate,
		channels:   channels,
	}
}

// SampleRate returns the sample rate in Hz.
func (w *Waveform) SampleRate() int { return w.sampleRate }

// Channels returns the channel count.
func (w *Waveform) Channels() int { return w.channels }

// Samples returns the interleaved sample data. Callers must treat the
// returned slice as read-only.
func (w *Waveform) Samples() []float32 { return w.samples }

// Frames returns the number of sample frames (samples per channel).
func (w *Waveform) Frames() int {
	if w.channels == 0 {
		return 0
	}
	return len(w.samples) / w.channels
}

// Duration returns the total track duration.
func (w *Waveform) Duration() time.Duration {
	if w.sampleRate == 0 {
		return 0
	}
	return time.Duration(float64(w.Frames()) / float64(w.sampleRate) * float64(time.Second))
}

// Seconds returns the total track duration in seconds.
func (w *Waveform) Seconds() float64 {
	if w.sampleRate == 0 {
		return 0
	}
	return float64(w.Frames()) / float64(w.sampleRate)
}

// Sample returns the sample for one frame and channel.
func (w *Waveform) Sample(frame, channel int) float32 {
	return w.samples[frame*w.channels+channel]
}

// Mid returns the (L+R)/2 mixdown. For mono input this is a copy of the
// single channel.
func (w *Waveform) Mid() []float32 {
	n := w.Frames()
	out := make([]float32, n)
	if w.channels == 1 {
		copy(out, w.samples)
		return out
	}
	for i := 0; i < n; i++ {
		out[i] = (w.samples[i*w.channels] + w.samples[i*w.channels+1]) * 0.5
	}
	return out
}

// Side returns the L-R difference signal. For mono input it is all zeros.
func (w *Waveform) Side() []float32 {
	n := w.Frames()
	out := make([]float32, n)
	if w.channels == 1 {
		return out
	}
	for i := 0; i < n; i++ {
		out[i] = w.samples[i*w.channels] - w.samples[i*w.channels+1]
	}
	return out
}

// Info describes a decoded file for diagnostics.
type Info struct {
	Path       string        `json:"path"`
	Format     Format        `json:"format"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	Frames     int           `json:"frames"`
	Duration   time.Duration `json:"duration"`
}
