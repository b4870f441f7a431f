// Package cqt computes Constant-Q Transform spectrograms framed for the
// chord-estimation model. The transform uses precomputed spectral kernels
// (Brown & Puckette's FFT method): each logarithmically spaced bin gets a
// windowed complex exponential whose FFT is stored sparsely, and a frame's
// CQT row is the inner product of the frame's FFT with each kernel.
package cqt

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/chordtracker/chordtracker/pkg/audio"
	"github.com/chordtracker/chordtracker/pkg/logging"
)

// kernelThreshold discards spectral kernel coefficients below this fraction
// of the kernel's peak magnitude.
const kernelThreshold = 0.005

// Params control the transform geometry. Defaults match the pretrained
// model artifact; changing them invalidates the model input contract.
type Params struct {
	SampleRate    int
	BinsPerOctave int
	Octaves       int
	FMin          float64
	HopLength     int
	QFactor       float64
	FrameLength   int // time bins per model frame
}

// DefaultParams returns the geometry the pretrained model was trained with:
// 22050 Hz, 7 octaves of 36 bins from 32.7 Hz, hop 544, frames of 8192 bins.
func DefaultParams() Params {
	return Params{
		SampleRate:    22050,
		BinsPerOctave: 36,
		Octaves:       7,
		FMin:          32.7,
		HopLength:     544,
		QFactor:       22.0,
		FrameLength:   8192,
	}
}

// Bins returns the number of frequency bins.
func (p Params) Bins() int { return p.BinsPerOctave * p.Octaves }

// BinsPerSecond returns the time resolution of the transform, the time base
// used when converting bin indices to seconds.
func (p Params) BinsPerSecond() float64 {
	return float64(p.SampleRate) / float64(p.HopLength)
}

func (p Params) validate() error {
	if p.SampleRate <= 0 || p.BinsPerOctave <= 0 || p.Octaves <= 0 {
		return fmt.Errorf("invalid CQT geometry: rate=%d bins/octave=%d octaves=%d",
			p.SampleRate, p.BinsPerOctave, p.Octaves)
	}
	if p.FMin <= 0 || p.HopLength <= 0 || p.QFactor <= 0 || p.FrameLength <= 0 {
		return fmt.Errorf("invalid CQT parameters: fmin=%f hop=%d q=%f frame=%d",
			p.FMin, p.HopLength, p.QFactor, p.FrameLength)
	}
	fMax := p.FMin * math.Pow(2, float64(p.Octaves*p.BinsPerOctave-1)/float64(p.BinsPerOctave))
	if fMax >= float64(p.SampleRate)/2 {
		return fmt.Errorf("highest CQT bin %.1f Hz exceeds Nyquist for rate %d",
			fMax, p.SampleRate)
	}
	return nil
}

// sparseKernel is one frequency bin's conjugated spectral kernel, stored
// over the band [start, start+len(coeffs)) of the frame spectrum.
type sparseKernel struct {
	start  int
	coeffs []complex128
}

// Extractor computes mid/side CQT spectrograms. It is stateless apart from
// the precomputed kernels and safe for concurrent use.
type Extractor struct {
	params  Params
	fftSize int
	fft     *fourier.FFT
	kernels []sparseKernel
	logger  logging.Logger
}

// NewExtractor precomputes the spectral kernels for the given parameters.
func NewExtractor(params Params, logger logging.Logger) (*Extractor, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	// Effective Q for the requested filter scale.
	alpha := math.Pow(2, 1/float64(params.BinsPerOctave)) - 1
	q := (params.QFactor / float64(params.BinsPerOctave)) / alpha

	longest := q * float64(params.SampleRate) / params.FMin
	fftSize := 1
	for fftSize < int(math.Ceil(longest)) {
		fftSize <<= 1
	}

	e := &Extractor{
		params:  params,
		fftSize: fftSize,
		fft:     fourier.NewFFT(fftSize),
		logger:  logger,
	}

	cfft := fourier.NewCmplxFFT(fftSize)
	bins := params.Bins()
	e.kernels = make([]sparseKernel, bins)
	temporal := make([]complex128, fftSize)
	for k := 0; k < bins; k++ {
		fk := params.FMin * math.Pow(2, float64(k)/float64(params.BinsPerOctave))
		winLen := int(math.Ceil(q * float64(params.SampleRate) / fk))
		if winLen > fftSize {
			winLen = fftSize
		}
		e.kernels[k] = buildKernel(cfft, temporal, fk, winLen, fftSize, params.SampleRate)
	}

	logger.Debug("CQT kernels ready", logging.Fields{
		"bins":     bins,
		"fft_size": fftSize,
		"q":        q,
		"hop":      params.HopLength,
	})

	return e, nil
}

// buildKernel windows a complex exponential at freq Hz, centers it in an
// fftSize buffer, transforms it and keeps the significant band conjugated.
func buildKernel(cfft *fourier.CmplxFFT, temporal []complex128, freq float64, winLen, fftSize, sampleRate int) sparseKernel {
	for i := range temporal {
		temporal[i] = 0
	}
	win := window.Hann(winLen)
	offset := (fftSize - winLen) / 2
	norm := 1 / float64(winLen)
	for n := 0; n < winLen; n++ {
		phase := 2 * math.Pi * freq * float64(n-winLen/2) / float64(sampleRate)
		temporal[offset+n] = complex(win[n]*norm, 0) * cmplx.Exp(complex(0, phase))
	}

	spectrum := cfft.Coefficients(nil, temporal)

	// Only positive frequencies matter; frame spectra come from a real FFT.
	half := fftSize/2 + 1
	peak := 0.0
	for i := 0; i < half; i++ {
		if m := cmplx.Abs(spectrum[i]); m > peak {
			peak = m
		}
	}
	threshold := peak * kernelThreshold

	start, end := 0, 0
	for i := 0; i < half; i++ {
		if cmplx.Abs(spectrum[i]) >= threshold {
			if end == 0 {
				start = i
			}
			end = i + 1
		}
	}
	if end <= start {
		return sparseKernel{start: 0, coeffs: nil}
	}

	coeffs := make([]complex128, end-start)
	scale := 1 / float64(fftSize)
	for i := range coeffs {
		coeffs[i] = cmplx.Conj(spectrum[start+i]) * complex(scale, 0)
	}
	return sparseKernel{start: start, coeffs: coeffs}
}

// Transform computes the mid/side CQT spectrogram of a waveform. The result
// is min-max normalized to [0, 1] across both channels jointly and is a pure
// function of the input.
func (e *Extractor) Transform(w *audio.Waveform) (*Spectrogram, error) {
	if w == nil || w.Frames() == 0 {
		return nil, fmt.Errorf("cannot transform empty waveform")
	}
	if w.SampleRate() != e.params.SampleRate {
		return nil, fmt.Errorf("waveform rate %d does not match extractor rate %d",
			w.SampleRate(), e.params.SampleRate)
	}

	mid := w.Mid()
	side := w.Side()

	bins := e.params.Bins()
	hop := e.params.HopLength
	timeBins := (len(mid) + hop - 1) / hop
	if timeBins == 0 {
		timeBins = 1
	}

	s := &Spectrogram{
		Bins:        bins,
		Channels:    2,
		TimeBins:    timeBins,
		FrameLength: e.params.FrameLength,
		Params:      e.params,
		Data:        make([]float32, timeBins*bins*2),
	}

	e.transformChannel(mid, s, 0)
	e.transformChannel(side, s, 1)
	normalize(s.Data)

	return s, nil
}

// transformChannel fills one channel of the spectrogram. Each time bin is
// the spectrum of an fftSize window centered on t*hop, dotted with every
// sparse kernel.
func (e *Extractor) transformChannel(signal []float32, s *Spectrogram, channel int) {
	hop := e.params.HopLength
	half := e.fftSize / 2

	segment := make([]float64, e.fftSize)
	spectrum := make([]complex128, e.fftSize/2+1)

	for t := 0; t < s.TimeBins; t++ {
		center := t * hop
		for i := range segment {
			idx := center - half + i
			if idx >= 0 && idx < len(signal) {
				segment[i] = float64(signal[idx])
			} else {
				segment[i] = 0
			}
		}
		e.fft.Coefficients(spectrum, segment)

		for k, kern := range e.kernels {
			var acc complex128
			for i, c := range kern.coeffs {
				acc += spectrum[kern.start+i] * c
			}
			s.Data[(t*s.Bins+k)*s.Channels+channel] = float32(cmplx.Abs(acc))
		}
	}
}

// normalize rescales values to [0, 1] in place. A flat signal maps to zeros.
func normalize(data []float32) {
	if len(data) == 0 {
		return
	}
	lo, hi := data[0], data[0]
	for _, v := range data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span == 0 {
		for i := range data {
			data[i] = 0
		}
		return
	}
	for i := range data {
		data[i] = (data[i] - lo) / span
	}
}
