package player

import (
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chordtracker/chordtracker/pkg/audio"
	"github.com/chordtracker/chordtracker/pkg/logging"
)

type fakePlayer struct {
	src      io.Reader
	playing  bool
	volume   float64
	unplayed int
	resets   int
	closed   bool
}

func (p *fakePlayer) Play()                    { p.playing = true }
func (p *fakePlayer) Pause()                   { p.playing = false }
func (p *fakePlayer) IsPlaying() bool          { return p.playing }
func (p *fakePlayer) Reset()                   { p.resets++ }
func (p *fakePlayer) SetVolume(v float64)      { p.volume = v }
func (p *fakePlayer) UnplayedBufferSize() int  { return p.unplayed }
func (p *fakePlayer) Close() error             { p.closed = true; return nil }

type fakeDevice struct {
	player *fakePlayer
	fail   bool
}

func (d *fakeDevice) NewPlayer(r io.Reader) (Player, error) {
	if d.fail {
		return nil, errors.New("device busy")
	}
	d.player = &fakePlayer{src: r}
	return d.player, nil
}

// rampWave builds a stereo waveform whose frame index is recoverable from
// its sample values.
func rampWave(frames, sampleRate int) *audio.Waveform {
	samples := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		v := float32(i) / float32(frames)
		samples[i*2] = v
		samples[i*2+1] = v
	}
	return audio.NewWaveform(samples, sampleRate, 2)
}

func newTestEngine(t *testing.T, frames, sampleRate int) (*Engine, *fakeDevice) {
	t.Helper()
	dev := &fakeDevice{}
	e := NewEngine(dev, logging.NewNopLogger())
	require.NoError(t, e.Load(rampWave(frames, sampleRate)))
	return e, dev
}

func TestEngineWithoutDevice(t *testing.T) {
	e := NewEngine(nil, logging.NewNopLogger())

	err := e.Load(rampWave(100, 8000))
	require.Error(t, err)
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, ErrCodeDevice, perr.Code)

	assert.False(t, e.Enabled())
	e.Play() // must not panic
	assert.Equal(t, StateStopped, e.State())
}

func TestEngineDevicePlayerFailure(t *testing.T) {
	dev := &fakeDevice{fail: true}
	e := NewEngine(dev, logging.NewNopLogger())

	err := e.Load(rampWave(100, 8000))
	require.Error(t, err)
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, ErrCodeDevice, perr.Code)
	assert.False(t, e.Enabled())
}

func TestEngineTransportTransitions(t *testing.T) {
	e, dev := newTestEngine(t, 8000, 8000)

	assert.Equal(t, StateStopped, e.State())

	e.Play()
	assert.Equal(t, StatePlayingForward, e.State())
	assert.True(t, dev.player.playing)

	e.Pause()
	assert.Equal(t, StatePaused, e.State())
	assert.False(t, dev.player.playing)

	e.Play()
	assert.Equal(t, StatePlayingForward, e.State())

	e.PlayReverse()
	assert.Equal(t, StatePlayingReverse, e.State())

	e.Stop()
	assert.Equal(t, StateStopped, e.State())
	assert.False(t, dev.player.playing)
}

func TestEnginePauseOnlyWhilePlaying(t *testing.T) {
	e, _ := newTestEngine(t, 8000, 8000)

	e.Pause()
	assert.Equal(t, StateStopped, e.State())
}

func TestEnginePlayPastEndRewinds(t *testing.T) {
	e, _ := newTestEngine(t, 8000, 8000)

	e.Seek(1.0) // end of a one second track
	e.Play()

	assert.Equal(t, StatePlayingForward, e.State())
	assert.InDelta(t, 0.0, e.Position(), 1e-6)
}

func TestEngineReverseFromStartJumpsToEnd(t *testing.T) {
	e, _ := newTestEngine(t, 8000, 8000)

	e.PlayReverse()

	assert.Equal(t, StatePlayingReverse, e.State())
	assert.InDelta(t, 1.0, e.Position(), 1e-6)
}

func TestEngineSeekPreservesReversePlayback(t *testing.T) {
	e, dev := newTestEngine(t, 16000, 8000)

	e.PlayReverse()
	resetsBefore := dev.player.resets
	e.Seek(1.0)

	assert.Equal(t, StatePlayingReverse, e.State())
	assert.True(t, dev.player.playing)
	assert.Greater(t, dev.player.resets, resetsBefore)
	assert.InDelta(t, 1.0, e.Position(), 1e-6)
}

func TestEngineSeekWhilePausedStaysPaused(t *testing.T) {
	e, dev := newTestEngine(t, 16000, 8000)

	e.Play()
	e.Pause()
	e.Seek(0.5)

	assert.Equal(t, StatePaused, e.State())
	assert.False(t, dev.player.playing)
	assert.InDelta(t, 0.5, e.Position(), 1e-6)
}

func TestEnginePositionCompensatesDeviceBuffer(t *testing.T) {
	e, dev := newTestEngine(t, 32000, 8000)

	e.Play()
	e.Seek(2.0)
	// 1000 frames of stereo PCM16 sit unplayed in the device.
	dev.player.unplayed = 1000 * 2 * bytesPerSample

	assert.InDelta(t, 2.0-0.125, e.Position(), 1e-6)

	e.PlayReverse()
	e.Seek(2.0)
	assert.InDelta(t, 2.0+0.125, e.Position(), 1e-6)
}

func TestEngineRefreshStopsAfterExhaustion(t *testing.T) {
	e, dev := newTestEngine(t, 8000, 8000)

	e.Play()
	e.Seek(1.0)

	dev.player.unplayed = 64
	e.Refresh()
	assert.Equal(t, StatePlayingForward, e.State(), "still draining")

	dev.player.unplayed = 0
	e.Refresh()
	assert.Equal(t, StateStopped, e.State())
}

func TestEngineVolume(t *testing.T) {
	e, dev := newTestEngine(t, 8000, 8000)

	e.SetVolume(0.5)
	assert.InDelta(t, 0.5, e.Volume(), 1e-9)
	assert.InDelta(t, 0.5, dev.player.volume, 1e-9)

	e.SetVolume(1.5)
	assert.InDelta(t, 1.0, e.Volume(), 1e-9)

	e.SetVolume(-0.1)
	assert.InDelta(t, 0.0, e.Volume(), 1e-9)
}

func TestEngineCloseReleasesPlayer(t *testing.T) {
	e, dev := newTestEngine(t, 8000, 8000)

	require.NoError(t, e.Close())
	assert.True(t, dev.player.closed)
	assert.False(t, e.Enabled())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "playing", StatePlayingForward.String())
	assert.Equal(t, "reverse", StatePlayingReverse.String())
	assert.Equal(t, "paused", StatePaused.String())
	assert.True(t, StatePlayingForward.Playing())
	assert.True(t, StatePlayingReverse.Playing())
	assert.False(t, StatePaused.Playing())
}

func readFrames(t *testing.T, r *pcmReader, frames, channels int) []int16 {
	t.Helper()
	buf := make([]byte, frames*channels*bytesPerSample)
	n, err := r.Read(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)

	out := make([]int16, frames*channels)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
	}
	return out
}

func TestPCMReaderForward(t *testing.T) {
	w := audio.NewWaveform([]float32{0.5, -0.5, 0.25, -0.25}, 8000, 2)
	r := newPCMReader(w)

	got := readFrames(t, r, 2, 2)

	assert.Equal(t, int16(16383), got[0])
	assert.Equal(t, int16(-16383), got[1])
	assert.Equal(t, int16(8191), got[2])
	assert.Equal(t, int16(-8191), got[3])
	assert.Equal(t, 2, r.position())
	assert.True(t, r.exhausted())
}

func TestPCMReaderReverse(t *testing.T) {
	w := rampWave(4, 8000)
	r := newPCMReader(w)
	r.seek(3)
	r.setReverse(true)

	got := readFrames(t, r, 3, 2)

	// Frames come back in order 2, 1, 0.
	want2 := int16(w.Sample(2, 0) * 32767)
	want1 := int16(w.Sample(1, 0) * 32767)
	want0 := int16(w.Sample(0, 0) * 32767)
	assert.Equal(t, want2, got[0])
	assert.Equal(t, want1, got[2])
	assert.Equal(t, want0, got[4])
	assert.Equal(t, 0, r.position())
	assert.True(t, r.exhausted())
}

func TestPCMReaderSilencePastEdges(t *testing.T) {
	w := rampWave(2, 8000)
	r := newPCMReader(w)
	r.seek(2)

	got := readFrames(t, r, 4, 2)
	for _, v := range got {
		assert.Equal(t, int16(0), v)
	}
	assert.Equal(t, 2, r.position(), "cursor must not move past the end")

	r.setReverse(true)
	r.seek(0)
	got = readFrames(t, r, 4, 2)
	for _, v := range got {
		assert.Equal(t, int16(0), v)
	}
}

func TestPCMReaderSeekClamps(t *testing.T) {
	r := newPCMReader(rampWave(10, 8000))

	r.seek(-5)
	assert.Equal(t, 0, r.position())

	r.seek(100)
	assert.Equal(t, 10, r.position())
}
