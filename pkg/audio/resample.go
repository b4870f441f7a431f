package audio

// Resample converts a waveform to targetRate using linear interpolation.
// Good enough for feeding the analysis pipeline; playback uses the decoded
// rate directly whenever the device supports it.
func Resample(w *Waveform, targetRate int) *Waveform {
	if w.SampleRate() == targetRate || w.Frames() == 0 {
		return w
	}

	srcFrames := w.Frames()
	channels := w.Channels()
	ratio := float64(w.SampleRate()) / float64(targetRate)
	dstFrames := int(float64(srcFrames) / ratio)
	if dstFrames < 1 {
		dstFrames = 1
	}

	out := make([]float32, dstFrames*channels)
	for i := 0; i < dstFrames; i++ {
		pos := float64(i) * ratio
		i0 := int(pos)
		frac := float32(pos - float64(i0))
		i1 := i0 + 1
		if i1 >= srcFrames {
			i1 = srcFrames - 1
		}
		for ch := 0; ch < channels; ch++ {
			s0 := w.Sample(i0, ch)
			s1 := w.Sample(i1, ch)
			out[i*channels+ch] = s0 + (s1-s0)*frac
		}
	}

	return NewWaveform(out, targetRate, channels)
}

// monoToStereo duplicates a single channel into two.
func monoToStereo(w *Waveform) *Waveform {
	if w.Channels() != 1 {
		return w
	}
	src := w.Samples()
	out := make([]float32, len(src)*2)
	for i, s := range src {
		out[i*2] = s
		out[i*2+1] = s
	}
	return NewWaveform(out, w.SampleRate(), 2)
}
