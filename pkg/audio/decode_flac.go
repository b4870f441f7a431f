package audio

import (
	"io"

	"github.com/mewkiz/flac"
)

type flacDecoder struct{}

func (flacDecoder) Decode(r io.ReadSeeker) (*Waveform, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, NewError(ErrCodeDecoding, "", "failed to open FLAC stream", err)
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	bitDepth := int(stream.Info.BitsPerSample)
	if channels == 0 || bitDepth == 0 {
		return nil, NewError(ErrCodeDecoding, "", "FLAC stream has invalid stream info", nil)
	}
	scale := float32(1.0) / float32(int64(1)<<(bitDepth-1))

	var samples []float32
	for {
		f, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, NewError(ErrCodeDecoding, "", "failed to parse FLAC frame", err)
		}

		n := len(f.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			for ch := 0; ch < channels; ch++ {
				samples = append(samples, float32(f.Subframes[ch].Samples[i])*scale)
			}
		}
	}
	if len(samples) == 0 {
		return nil, NewError(ErrCodeEmptyAudio, "", "FLAC stream contains no samples", nil)
	}

	return NewWaveform(samples, int(stream.Info.SampleRate), channels), nil
}
