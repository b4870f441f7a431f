package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResampleHalvesFrameCount(t *testing.T) {
	samples := make([]float32, 1000*2)
	for i := range samples {
		samples[i] = 0.25
	}
	src := NewWaveform(samples, 44100, 2)

	dst := Resample(src, 22050)

	assert.Equal(t, 22050, dst.SampleRate())
	assert.Equal(t, 2, dst.Channels())
	assert.Equal(t, 500, dst.Frames())
	// A constant signal survives interpolation unchanged.
	for frame := 0; frame < dst.Frames(); frame++ {
		assert.InDelta(t, 0.25, dst.Sample(frame, 0), 1e-6)
	}
}

func TestResampleInterpolatesLinearly(t *testing.T) {
	// Upsampling a ramp by 2x puts interpolated midpoints between samples.
	src := NewWaveform([]float32{0, 0.5, 1.0}, 100, 1)

	dst := Resample(src, 200)
	require.Equal(t, 6, dst.Frames())

	assert.InDelta(t, 0.0, dst.Sample(0, 0), 1e-6)
	assert.InDelta(t, 0.25, dst.Sample(1, 0), 1e-6)
	assert.InDelta(t, 0.5, dst.Sample(2, 0), 1e-6)
	assert.InDelta(t, 0.75, dst.Sample(3, 0), 1e-6)
	assert.InDelta(t, 1.0, dst.Sample(4, 0), 1e-6)
}

func TestResampleSameRateIsIdentity(t *testing.T) {
	src := NewWaveform([]float32{0.1, 0.2}, 22050, 1)
	assert.Same(t, src, Resample(src, 22050))
}

func TestMonoToStereoDuplicatesChannel(t *testing.T) {
	src := NewWaveform([]float32{0.1, -0.2, 0.3}, 22050, 1)

	dst := monoToStereo(src)

	require.Equal(t, 2, dst.Channels())
	require.Equal(t, 3, dst.Frames())
	for frame := 0; frame < dst.Frames(); frame++ {
		assert.Equal(t, src.Sample(frame, 0), dst.Sample(frame, 0))
		assert.Equal(t, dst.Sample(frame, 0), dst.Sample(frame, 1))
	}
}

func TestMonoToStereoLeavesStereoAlone(t *testing.T) {
	src := NewWaveform([]float32{0.1, 0.2}, 22050, 2)
	assert.Same(t, src, monoToStereo(src))
}
