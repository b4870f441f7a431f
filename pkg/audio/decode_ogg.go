package audio

import (
	"io"

	"github.com/jfreymuth/oggvorbis"
)

type oggDecoder struct{}

func (oggDecoder) Decode(r io.ReadSeeker) (*Waveform, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, NewError(ErrCodeDecoding, "", "failed to decode Ogg Vorbis stream", err)
	}
	if len(data) == 0 {
		return nil, NewError(ErrCodeEmptyAudio, "", "Ogg Vorbis stream contains no samples", nil)
	}

	return NewWaveform(data, format.SampleRate, format.Channels), nil
}
