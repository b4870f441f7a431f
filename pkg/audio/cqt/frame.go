package cqt

// Spectrogram is a CQT magnitude spectrogram, time-major:
// Data[(t*Bins+b)*Channels+ch]. TimeBins counts the valid (un-padded) time
// bins. Immutable once built.
type Spectrogram struct {
	Bins        int
	Channels    int
	TimeBins    int
	FrameLength int
	Params      Params
	Data        []float32
}

// BinsPerSecond returns the spectrogram's time resolution.
func (s *Spectrogram) BinsPerSecond() float64 {
	return s.Params.BinsPerSecond()
}

// Frame is one fixed-size model input window: Length time bins of
// Bins x Channels values, zero-padded at the end of the track.
type Frame struct {
	Length   int
	Bins     int
	Channels int
	Data     []float32 // flat, [t][bin][channel]
}

// Values returns the number of scalars in the frame.
func (f *Frame) Values() int { return f.Length * f.Bins * f.Channels }

// Frames splits the spectrogram into fixed-length model input frames. The
// final partial frame is zero-padded to full length. The frame data aliases
// the spectrogram where possible; only the padded tail is copied.
func (s *Spectrogram) Frames() []*Frame {
	if s.TimeBins == 0 {
		return nil
	}
	rowSize := s.Bins * s.Channels
	frameSize := s.FrameLength * rowSize
	count := (s.TimeBins + s.FrameLength - 1) / s.FrameLength

	frames := make([]*Frame, 0, count)
	for i := 0; i < count; i++ {
		start := i * frameSize
		end := start + frameSize
		var data []float32
		if end <= len(s.Data) {
			data = s.Data[start:end:end]
		} else {
			data = make([]float32, frameSize)
			copy(data, s.Data[start:])
		}
		frames = append(frames, &Frame{
			Length:   s.FrameLength,
			Bins:     s.Bins,
			Channels: s.Channels,
			Data:     data,
		})
	}
	return frames
}
