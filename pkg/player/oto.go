package player

import (
	"io"
	"time"

	oto "github.com/hajimehoshi/oto/v2"
)

// otoDevice adapts an oto audio context to the Device interface.
type otoDevice struct {
	ctx *oto.Context
}

// NewOtoDevice opens the default system output for 16-bit PCM at the given
// rate and channel count. It blocks until the device is ready or fails.
func NewOtoDevice(sampleRate, channels int) (Device, error) {
	ctx, ready, err := oto.NewContext(sampleRate, channels, oto.FormatSignedInt16LE)
	if err != nil {
		return nil, NewError(ErrCodeDevice, "failed to open audio output device", err)
	}
	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		return nil, NewError(ErrCodeDevice, "audio output device did not become ready", nil)
	}
	return &otoDevice{ctx: ctx}, nil
}

func (d *otoDevice) NewPlayer(r io.Reader) (Player, error) {
	return d.ctx.NewPlayer(r), nil
}
