package audio

import (
	"io"

	mp3 "github.com/hajimehoshi/go-mp3"
)

type mp3Decoder struct{}

func (mp3Decoder) Decode(r io.ReadSeeker) (*Waveform, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, NewError(ErrCodeDecoding, "", "failed to open MP3 stream", err)
	}

	// go-mp3 always emits 16-bit little-endian stereo.
	raw, err := io.ReadAll(d)
	if err != nil {
		return nil, NewError(ErrCodeDecoding, "", "failed to decode MP3 stream", err)
	}
	if len(raw) < 4 {
		return nil, NewError(ErrCodeEmptyAudio, "", "MP3 stream contains no samples", nil)
	}

	sampleCount := len(raw) / 2
	samples := make([]float32, sampleCount)
	for i := 0; i < sampleCount; i++ {
		s := int16(raw[i*2]) | int16(raw[i*2+1])<<8
		samples[i] = float32(s) / 32768.0
	}

	return NewWaveform(samples, d.SampleRate(), 2), nil
}
