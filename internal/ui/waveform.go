package ui

import "github.com/chordtracker/chordtracker/pkg/audio"

// envBin is the amplitude envelope of one pixel column.
type envBin struct {
	min, max float32
}

// computeEnvelope reduces the mono mixdown to per-column min/max pairs for
// drawing. columns is the pixel width of the waveform panel.
func computeEnvelope(w *audio.Waveform, columns int) []envBin {
	if w == nil || columns <= 0 {
		return nil
	}
	mono := w.Mid()
	if len(mono) == 0 {
		return nil
	}

	env := make([]envBin, columns)
	samplesPerCol := float64(len(mono)) / float64(columns)
	for c := 0; c < columns; c++ {
		start := int(float64(c) * samplesPerCol)
		end := int(float64(c+1) * samplesPerCol)
		if end <= start {
			end = start + 1
		}
		if end > len(mono) {
			end = len(mono)
		}
		lo, hi := mono[start], mono[start]
		for _, s := range mono[start:end] {
			if s < lo {
				lo = s
			}
			if s > hi {
				hi = s
			}
		}
		env[c] = envBin{min: lo, max: hi}
	}
	return env
}
