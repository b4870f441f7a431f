// Package timeline collapses per-time-bin model predictions into labeled
// chord and key intervals.
package timeline

import (
	"fmt"

	"github.com/chordtracker/chordtracker/pkg/chord"
	"github.com/chordtracker/chordtracker/pkg/logging"
	"github.com/chordtracker/chordtracker/pkg/model"
)

// Options tune the builder.
type Options struct {
	// MinDuration suppresses prediction flicker: a run of identical
	// predictions shorter than this many seconds does not open a new
	// interval; its span is absorbed into the run that follows it.
	// Zero disables smoothing.
	MinDuration float64
}

// Builder converts prediction sequences into timelines. Argmax ties are
// broken deterministically: the lowest class id wins.
type Builder struct {
	index  *chord.Index
	opts   Options
	logger logging.Logger
}

// NewBuilder creates a timeline builder over the given chord index.
func NewBuilder(index *chord.Index, opts Options, logger logging.Logger) *Builder {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Builder{index: index, opts: opts, logger: logger}
}

// Build converts predictions into a timeline. validBins trims the zero
// padding of the final model frame; binsPerSecond is the prediction time
// base; duration is the track length in seconds and becomes the end of the
// final interval, so the timeline always covers [0, duration).
func (b *Builder) Build(preds []*model.FramePrediction, validBins int, binsPerSecond, duration float64) (*Result, error) {
	if len(preds) == 0 || validBins <= 0 {
		return nil, fmt.Errorf("no predictions to build a timeline from")
	}
	if binsPerSecond <= 0 || duration <= 0 {
		return nil, fmt.Errorf("invalid time base: bins/s=%f duration=%f", binsPerSecond, duration)
	}

	chordIDs := make([]int, 0, validBins)
	bassIDs := make([]int, 0, validBins)
	keyIDs := make([]int, 0, validBins)
	for _, p := range preds {
		for t := 0; t < p.TimeBins(); t++ {
			if len(chordIDs) == validBins {
				break
			}
			chordIDs = append(chordIDs, Argmax(p.Chord[t]))
			bassIDs = append(bassIDs, Argmax(p.Bass[t]))
			keyIDs = append(keyIDs, Argmax(p.Key[t]))
		}
	}
	if len(chordIDs) < validBins {
		return nil, fmt.Errorf("predictions cover %d bins, waveform has %d", len(chordIDs), validBins)
	}

	chords, err := b.buildChords(chordIDs, bassIDs, binsPerSecond, duration)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Duration: duration,
		Chords:   chords,
		Keys:     b.buildKeys(keyIDs, binsPerSecond, duration),
	}

	b.logger.Debug("timeline built", logging.Fields{
		"bins":      validBins,
		"intervals": len(result.Chords),
		"keys":      len(result.Keys),
	})
	return result, nil
}

type chordRun struct {
	chordID int
	bassID  int
}

// buildChords run-length-encodes (chord, bass) pairs into named intervals.
func (b *Builder) buildChords(chordIDs, bassIDs []int, binsPerSecond, duration float64) ([]Interval, error) {
	n := len(chordIDs)
	var out []Interval

	start := 0.0
	cur := chordRun{chordIDs[0], bassIDs[0]}
	for i := 1; i <= n; i++ {
		last := i == n
		if !last {
			next := chordRun{chordIDs[i], bassIDs[i]}
			if next == cur {
				continue
			}
			t := float64(i) / binsPerSecond
			if t-start < b.opts.MinDuration {
				// Too short to stand alone; the span stays open and the
				// following run inherits it.
				cur = next
				continue
			}
			name, err := b.name(cur)
			if err != nil {
				return nil, err
			}
			out = append(out, Interval{Start: start, End: t, Chord: name})
			start = t
			cur = next
			continue
		}
		name, err := b.name(cur)
		if err != nil {
			return nil, err
		}
		out = append(out, Interval{Start: start, End: duration, Chord: name})
	}

	return mergeChords(out), nil
}

func (b *Builder) name(r chordRun) (string, error) {
	base, err := b.index.Name(r.chordID)
	if err != nil {
		return "", err
	}
	return chord.WithBass(base, r.bassID), nil
}

// mergeChords joins adjacent intervals that ended up with the same display
// name (distinct (chord, bass) pairs can name identically, e.g. a bass
// matching the chord root versus no bass estimate).
func mergeChords(in []Interval) []Interval {
	if len(in) == 0 {
		return in
	}
	out := in[:1]
	for _, iv := range in[1:] {
		if iv.Chord == out[len(out)-1].Chord {
			out[len(out)-1].End = iv.End
			continue
		}
		out = append(out, iv)
	}
	return out
}

// buildKeys run-length-encodes key ids the same way.
func (b *Builder) buildKeys(keyIDs []int, binsPerSecond, duration float64) []KeyInterval {
	n := len(keyIDs)
	var out []KeyInterval

	start := 0.0
	cur := keyIDs[0]
	for i := 1; i <= n; i++ {
		last := i == n
		if !last {
			if keyIDs[i] == cur {
				continue
			}
			t := float64(i) / binsPerSecond
			if t-start < b.opts.MinDuration {
				cur = keyIDs[i]
				continue
			}
			out = append(out, KeyInterval{Start: start, End: t, Key: chord.KeyName(cur)})
			start = t
			cur = keyIDs[i]
			continue
		}
		out = append(out, KeyInterval{Start: start, End: duration, Key: chord.KeyName(cur)})
	}

	// Collapse adjacent duplicates left by smoothing.
	merged := out[:1]
	for _, iv := range out[1:] {
		if iv.Key == merged[len(merged)-1].Key {
			merged[len(merged)-1].End = iv.End
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// Argmax returns the index of the largest probability. Ties break to the
// lowest index, which keeps the pipeline deterministic.
func Argmax(probs []float32) int {
	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return best
}
