package audio

import (
	"io"

	"github.com/go-audio/wav"
)

type wavDecoder struct{}

func (wavDecoder) Decode(r io.ReadSeeker) (*Waveform, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, NewError(ErrCodeDecoding, "", "not a valid WAV file", d.Err())
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, NewError(ErrCodeDecoding, "", "failed to read WAV samples", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, NewError(ErrCodeEmptyAudio, "", "WAV file contains no samples", nil)
	}

	bitDepth := int(d.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float32(1.0) / float32(int64(1)<<(bitDepth-1))

	samples := make([]float32, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = float32(s) * scale
	}

	return NewWaveform(samples, buf.Format.SampleRate, buf.Format.NumChannels), nil
}
