// Package player streams a decoded waveform to the audio output device.
// It implements a small transport state machine with forward and reverse
// playback, seeking and volume control.
package player

import (
	"io"
	"sync"

	"github.com/chordtracker/chordtracker/pkg/audio"
	"github.com/chordtracker/chordtracker/pkg/logging"
)

// State is the transport state.
type State int

const (
	StateStopped State = iota
	StatePlayingForward
	StatePlayingReverse
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlayingForward:
		return "playing"
	case StatePlayingReverse:
		return "reverse"
	case StatePaused:
		return "paused"
	}
	return "unknown"
}

// Playing reports whether the state is one of the two playing states.
func (s State) Playing() bool {
	return s == StatePlayingForward || s == StatePlayingReverse
}

// Player is the slice of the output device's player the engine needs.
// hajimehoshi/oto's Player satisfies it.
type Player interface {
	Play()
	Pause()
	IsPlaying() bool
	Reset()
	SetVolume(volume float64)
	UnplayedBufferSize() int
	Close() error
}

// Device opens players over a PCM byte stream.
type Device interface {
	NewPlayer(r io.Reader) (Player, error)
}

// Engine drives playback of one loaded waveform. All methods are safe to
// call from the UI loop; the device's audio thread only touches the PCM
// reader.
type Engine struct {
	mu     sync.Mutex
	device Device
	logger logging.Logger

	wave   *audio.Waveform
	src    *pcmReader
	player Player
	state  State
	volume float64
}

// NewEngine creates an engine over an output device. A nil device leaves
// playback permanently disabled; Load reports the condition.
func NewEngine(device Device, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Engine{
		device: device,
		logger: logger,
		state:  StateStopped,
		volume: 1.0,
	}
}

// Load replaces the engine's waveform and rewinds to the start. Opening
// the device player can fail; in that case playback stays disabled but the
// rest of the application remains usable.
func (e *Engine) Load(w *audio.Waveform) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closePlayerLocked()
	e.wave = nil
	e.src = nil
	e.state = StateStopped

	if e.device == nil {
		return NewError(ErrCodeDevice, "audio output device unavailable, playback disabled", nil)
	}

	src := newPCMReader(w)
	p, err := e.device.NewPlayer(src)
	if err != nil {
		return NewError(ErrCodeDevice, "failed to open device player, playback disabled", err)
	}
	p.SetVolume(e.volume)

	e.wave = w
	e.src = src
	e.player = p

	e.logger.Debug("playback engine loaded", logging.Fields{
		"sample_rate": w.SampleRate(),
		"channels":    w.Channels(),
		"duration_s":  w.Seconds(),
	})
	return nil
}

// Enabled reports whether a track is loaded and the device is usable.
func (e *Engine) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.player != nil
}

// Play starts or resumes forward playback. Playing past the end rewinds to
// the start first.
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.player == nil {
		return
	}
	if !e.state.Playing() && e.src.position() >= e.wave.Frames() {
		e.src.seek(0)
	}
	e.src.setReverse(false)
	e.player.Play()
	e.setStateLocked(StatePlayingForward)
}

// PlayReverse starts or resumes reverse playback. Reversing from the very
// start jumps to the end first.
func (e *Engine) PlayReverse() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.player == nil {
		return
	}
	if !e.state.Playing() && e.src.position() <= 0 {
		e.src.seek(e.wave.Frames())
	}
	e.src.setReverse(true)
	e.player.Play()
	e.setStateLocked(StatePlayingReverse)
}

// Pause suspends playback, keeping position and direction.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.player == nil || !e.state.Playing() {
		return
	}
	e.player.Pause()
	e.setStateLocked(StatePaused)
}

// Stop halts playback from any state. The position is kept so a subsequent
// Play resumes from it.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.player == nil || e.state == StateStopped {
		e.state = StateStopped
		return
	}
	e.player.Pause()
	e.player.Reset()
	e.setStateLocked(StateStopped)
}

// Seek moves the position to t seconds. Playback state and direction are
// preserved: seeking during reverse playback keeps playing in reverse from
// the new position.
func (e *Engine) Seek(t float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.src == nil {
		return
	}
	frame := int(t * float64(e.wave.SampleRate()))
	e.src.seek(frame)
	if e.player != nil {
		// Drop buffered audio so the jump is audible immediately.
		e.player.Reset()
		if e.state.Playing() {
			e.player.Play()
		}
	}
}

// Position returns the current playback position in seconds, compensated
// for audio the device has buffered but not yet played.
func (e *Engine) Position() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.src == nil {
		return 0
	}
	pos := e.src.position()
	if e.player != nil {
		buffered := e.player.UnplayedBufferSize() / (e.wave.Channels() * bytesPerSample)
		if e.state == StatePlayingReverse {
			pos += buffered
		} else {
			pos -= buffered
		}
	}
	if pos < 0 {
		pos = 0
	}
	if total := e.wave.Frames(); pos > total {
		pos = total
	}
	return float64(pos) / float64(e.wave.SampleRate())
}

// Duration returns the loaded track's length in seconds.
func (e *Engine) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.wave == nil {
		return 0
	}
	return e.wave.Seconds()
}

// State returns the transport state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SetVolume sets the output volume, clamped to [0, 1].
func (e *Engine) SetVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	e.volume = v
	if e.player != nil {
		e.player.SetVolume(v)
	}
}

// Volume returns the output volume.
func (e *Engine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// Refresh advances the state machine past the track edges: once a playing
// engine has exhausted the waveform and drained the device buffer it drops
// to Stopped. The UI calls this once per frame.
func (e *Engine) Refresh() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.player == nil || !e.state.Playing() {
		return
	}
	if e.src.exhausted() && e.player.UnplayedBufferSize() == 0 {
		e.player.Pause()
		e.setStateLocked(StateStopped)
	}
}

// Close releases the device player.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closePlayerLocked()
	e.state = StateStopped
	return nil
}

func (e *Engine) closePlayerLocked() {
	if e.player != nil {
		e.player.Pause()
		_ = e.player.Close()
		e.player = nil
	}
}

func (e *Engine) setStateLocked(s State) {
	if e.state == s {
		return
	}
	e.logger.Debug("transport state changed", logging.Fields{
		"from": e.state.String(),
		"to":   s.String(),
	})
	e.state = s
}
