// Package model wraps the pretrained chord-estimation network behind a
// small inference interface so the concrete engine stays swappable.
package model

import (
	"context"

	"github.com/chordtracker/chordtracker/pkg/audio/cqt"
	"github.com/chordtracker/chordtracker/pkg/logging"
)

// Heads describes the class counts of the network's three output heads.
type Heads struct {
	Chord int
	Bass  int
	Key   int
}

// FramePrediction holds per-time-bin class probabilities for one model
// input frame, one vector per head.
type FramePrediction struct {
	Chord [][]float32 // [timeBin][chordClass]
	Bass  [][]float32 // [timeBin][bassClass]
	Key   [][]float32 // [timeBin][keyClass]
}

// TimeBins returns the number of time bins in the prediction.
func (p *FramePrediction) TimeBins() int { return len(p.Chord) }

// Inferencer maps feature frames to per-frame class probabilities. Given
// identical frames an Inferencer must return identical probabilities; model
// weights are fixed at load time.
type Inferencer interface {
	Infer(ctx context.Context, frames []*cqt.Frame) ([]*FramePrediction, error)
	Heads() Heads
	Close() error
}

// Batcher wraps an Inferencer and splits work into fixed-size batches.
// Batch size is a throughput knob only: frames are independent sequences,
// so per-frame results are identical for any batch size.
type Batcher struct {
	inner  Inferencer
	size   int
	logger logging.Logger
}

// NewBatcher wraps inner with batching. A size below 1 falls back to 1.
func NewBatcher(inner Inferencer, size int, logger logging.Logger) *Batcher {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Batcher{inner: inner, size: size, logger: logger}
}

// Infer runs the wrapped engine over frames in batches and concatenates the
// per-frame results in input order.
func (b *Batcher) Infer(ctx context.Context, frames []*cqt.Frame) ([]*FramePrediction, error) {
	out := make([]*FramePrediction, 0, len(frames))
	for start := 0; start < len(frames); start += b.size {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + b.size
		if end > len(frames) {
			end = len(frames)
		}
		preds, err := b.inner.Infer(ctx, frames[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, preds...)
	}

	b.logger.Debug("inference complete", logging.Fields{
		"frames":     len(frames),
		"batch_size": b.size,
	})
	return out, nil
}

// Heads reports the wrapped engine's output shapes.
func (b *Batcher) Heads() Heads { return b.inner.Heads() }

// Close releases the wrapped engine.
func (b *Batcher) Close() error { return b.inner.Close() }
