package app

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chordtracker/chordtracker/configs"
	"github.com/chordtracker/chordtracker/pkg/audio"
	"github.com/chordtracker/chordtracker/pkg/audio/cqt"
	"github.com/chordtracker/chordtracker/pkg/chord"
	"github.com/chordtracker/chordtracker/pkg/logging"
	"github.com/chordtracker/chordtracker/pkg/model"
)

// stubInferencer predicts no chord, no bass and no key for every time bin.
type stubInferencer struct {
	err error
}

func (s *stubInferencer) Infer(_ context.Context, frames []*cqt.Frame) ([]*model.FramePrediction, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*model.FramePrediction, 0, len(frames))
	for _, f := range frames {
		p := &model.FramePrediction{}
		for rngi := 0; rngi < f.Length; rngi++ {
			p.Chord = append(p.Chord, oneHot(chord.NumClasses, chord.NoChordID))
			p.Bass = append(p.Bass, oneHot(chord.NumBassClasses, 0))
			p.Key = append(p.Key, oneHot(chord.NumKeyClasses, 0))
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *stubInferencer) Heads() model.Heads {
	return model.Heads{Chord: chord.NumClasses, Bass: chord.NumBassClasses, Key: chord.NumKeyClasses}
}

func (s *stubInferencer) Close() error { return nil }

func oneHot(size, id int) []float32 {
	v := make([]float32, size)
	v[id] = 1
	return v
}

func testConfig() *configs.Config {
	return &configs.Config{
		LogLevel: "error",
		Audio: configs.AudioConfig{
			SampleRate:    8000,
			HopLength:     250,
			BinsPerOctave: 12,
			Octaves:       3,
			FMin:          110,
			QFactor:       12,
		},
		Model: configs.ModelConfig{
			Path:        "unused.onnx",
			IndexPath:   "../../assets/index.json",
			BatchSize:   1,
			FrameLength: 8,
		},
	}
}

// writeSilentWAV writes seconds of mono PCM16 silence.
func writeSilentWAV(t *testing.T, path string, sampleRate int, seconds float64) {
	t.Helper()

	samples := make([]byte, int(float64(sampleRate)*seconds)*2)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(samples)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(samples)))
	buf.Write(samples)

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, err := New(testConfig(), logging.NewNopLogger(), WithInferencer(&stubInferencer{}))
	require.NoError(t, err)
	return a
}

func TestNewRequiresChordIndex(t *testing.T) {
	cfg := testConfig()
	cfg.Model.IndexPath = filepath.Join(t.TempDir(), "missing.json")

	_, err := New(cfg, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestAnalyzeFileSilentTrack(t *testing.T) {
	a := newTestApp(t)
	defer a.Close()

	path := filepath.Join(t.TempDir(), "silence.wav")
	writeSilentWAV(t, path, 8000, 1.0)

	res, err := a.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, path, res.Path)
	assert.Equal(t, 2, res.Waveform.Channels())
	assert.Equal(t, 8000, res.Waveform.SampleRate())

	require.Len(t, res.Timeline.Chords, 1)
	assert.Equal(t, chord.NoChord, res.Timeline.Chords[0].Chord)
	assert.Equal(t, 0.0, res.Timeline.Chords[0].Start)
	assert.InDelta(t, 1.0, res.Timeline.Chords[0].End, 1e-6)
}

func TestAnalyzeFileMissingFile(t *testing.T) {
	a := newTestApp(t)
	defer a.Close()

	_, err := a.AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "nope.wav"))
	require.Error(t, err)

	var audioErr *audio.Error
	assert.True(t, errors.As(err, &audioErr))
}

func TestAnalyzeFileInferenceError(t *testing.T) {
	cfg := testConfig()
	a, err := New(cfg, logging.NewNopLogger(),
		WithInferencer(&stubInferencer{err: errors.New("session lost")}))
	require.NoError(t, err)
	defer a.Close()

	path := filepath.Join(t.TempDir(), "silence.wav")
	writeSilentWAV(t, path, 8000, 0.5)

	_, err = a.AnalyzeFile(context.Background(), path)
	assert.ErrorContains(t, err, "session lost")
}

func TestSubmitGenerations(t *testing.T) {
	a := newTestApp(t)
	defer a.Close()

	path := filepath.Join(t.TempDir(), "silence.wav")
	writeSilentWAV(t, path, 8000, 0.5)

	first := a.Submit(path)
	second := a.Submit(path)
	require.Less(t, first, second)
	assert.Equal(t, second, a.CurrentGeneration())

	events := make([]Event, 0, 2)
	timeout := time.After(30 * time.Second)
	for len(events) < 2 {
		select {
		case ev := <-a.Events():
			events = append(events, ev)
		case <-timeout:
			t.Fatal("timed out waiting for analysis events")
		}
	}

	for _, ev := range events {
		require.False(t, ev.Failed(), "analysis failed: %v", ev.Err)
		switch ev.Generation {
		case first:
			assert.True(t, a.IsStale(ev), "superseded submission must be stale")
		case second:
			assert.False(t, a.IsStale(ev))
			assert.NotNil(t, ev.Result)
		default:
			t.Fatalf("unexpected generation %d", ev.Generation)
		}
	}
}

func TestSubmitNeverDropsCompletions(t *testing.T) {
	a := newTestApp(t)
	defer a.Close()

	path := filepath.Join(t.TempDir(), "silence.wav")
	writeSilentWAV(t, path, 8000, 0.25)

	// More submissions than the event channel buffers; workers block on the
	// send instead of dropping, so every completion must arrive.
	const submissions = 12
	for rngi := 0; rngi < submissions; rngi++ {
		a.Submit(path)
	}

	seen := make(map[uint64]bool)
	timeout := time.After(60 * time.Second)
	for len(seen) < submissions {
		select {
		case ev := <-a.Events():
			require.False(t, seen[ev.Generation], "generation %d delivered twice", ev.Generation)
			seen[ev.Generation] = true
		case <-timeout:
			t.Fatalf("received %d of %d completions", len(seen), submissions)
		}
	}
}

func TestEventFailed(t *testing.T) {
	assert.False(t, Event{}.Failed())
	assert.True(t, Event{Err: errors.New("boom")}.Failed())
}

func TestCloseIsIdempotent(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
}
