package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chordtracker/chordtracker/pkg/audio/cqt"
	"github.com/chordtracker/chordtracker/pkg/logging"
)

// scriptedInferencer derives its predictions from the first sample of each
// frame, so results depend only on frame content and input order.
type scriptedInferencer struct {
	heads   Heads
	batches []int
	err     error
}

func (s *scriptedInferencer) Infer(_ context.Context, frames []*cqt.Frame) ([]*FramePrediction, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.batches = append(s.batches, len(frames))

	out := make([]*FramePrediction, 0, len(frames))
	for _, f := range frames {
		id := int(f.Data[0])
		out = append(out, &FramePrediction{
			Chord: [][]float32{hot(s.heads.Chord, id%s.heads.Chord)},
			Bass:  [][]float32{hot(s.heads.Bass, id%s.heads.Bass)},
			Key:   [][]float32{hot(s.heads.Key, id%s.heads.Key)},
		})
	}
	return out, nil
}

func (s *scriptedInferencer) Heads() Heads { return s.heads }
func (s *scriptedInferencer) Close() error { return nil }

func hot(size, id int) []float32 {
	v := make([]float32, size)
	v[id] = 1
	return v
}

func makeFrames(n int) []*cqt.Frame {
	frames := make([]*cqt.Frame, 0, n)
	for i := 0; i < n; i++ {
		frames = append(frames, &cqt.Frame{
			Length:   1,
			Bins:     2,
			Channels: 1,
			Data:     []float32{float32(i), 0},
		})
	}
	return frames
}

func newScripted() *scriptedInferencer {
	return &scriptedInferencer{heads: Heads{Chord: 8, Bass: 5, Key: 3}}
}

func TestBatcherSplitsIntoFixedBatches(t *testing.T) {
	inner := newScripted()
	b := NewBatcher(inner, 2, logging.NewNopLogger())

	preds, err := b.Infer(context.Background(), makeFrames(5))
	require.NoError(t, err)

	assert.Len(t, preds, 5)
	assert.Equal(t, []int{2, 2, 1}, inner.batches)
}

func TestBatcherResultsIndependentOfBatchSize(t *testing.T) {
	frames := makeFrames(7)

	reference, err := NewBatcher(newScripted(), 1, logging.NewNopLogger()).
		Infer(context.Background(), frames)
	require.NoError(t, err)
	require.Len(t, reference, 7)

	for _, size := range []int{2, 3, 4, 7, 100} {
		b := NewBatcher(newScripted(), size, logging.NewNopLogger())
		preds, err := b.Infer(context.Background(), frames)
		require.NoError(t, err)
		assert.Equal(t, reference, preds, "batch size %d changed results", size)
	}
}

func TestBatcherPreservesInputOrder(t *testing.T) {
	b := NewBatcher(newScripted(), 3, logging.NewNopLogger())

	preds, err := b.Infer(context.Background(), makeFrames(8))
	require.NoError(t, err)
	require.Len(t, preds, 8)

	for i, p := range preds {
		assert.Equal(t, float32(1), p.Chord[0][i%8], "prediction %d out of order", i)
	}
}

func TestBatcherClampsSizeToOne(t *testing.T) {
	inner := newScripted()
	b := NewBatcher(inner, 0, logging.NewNopLogger())

	preds, err := b.Infer(context.Background(), makeFrames(3))
	require.NoError(t, err)

	assert.Len(t, preds, 3)
	assert.Equal(t, []int{1, 1, 1}, inner.batches)
}

func TestBatcherEmptyInput(t *testing.T) {
	inner := newScripted()
	b := NewBatcher(inner, 4, logging.NewNopLogger())

	preds, err := b.Infer(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, preds)
	assert.Empty(t, inner.batches)
}

func TestBatcherPropagatesError(t *testing.T) {
	inner := newScripted()
	inner.err = errors.New("engine exploded")
	b := NewBatcher(inner, 2, logging.NewNopLogger())

	_, err := b.Infer(context.Background(), makeFrames(4))
	assert.ErrorContains(t, err, "engine exploded")
}

func TestBatcherHonorsContextCancellation(t *testing.T) {
	inner := newScripted()
	b := NewBatcher(inner, 2, logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Infer(ctx, makeFrames(4))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, inner.batches)
}

func TestBatcherForwardsHeads(t *testing.T) {
	inner := newScripted()
	b := NewBatcher(inner, 2, logging.NewNopLogger())
	assert.Equal(t, inner.heads, b.Heads())
}

func TestFramePredictionTimeBins(t *testing.T) {
	p := &FramePrediction{Chord: [][]float32{{1}, {0}, {0}}}
	assert.Equal(t, 3, p.TimeBins())
	assert.Equal(t, 0, (&FramePrediction{}).TimeBins())
}
