package player

import (
	"sync"

	"github.com/chordtracker/chordtracker/pkg/audio"
)

// pcmReader serializes an immutable waveform to 16-bit little-endian PCM
// for the output device, in forward or reverse sample order. The audio
// thread calls Read; the UI thread seeks and flips direction; the cursor is
// the only shared state and is mutex-guarded.
//
// Past either edge of the track the reader emits silence instead of EOF so
// the device player stays alive across seeks and direction changes.
type pcmReader struct {
	mu      sync.Mutex
	wave    *audio.Waveform
	cursor  int // in sample frames
	reverse bool
}

const bytesPerSample = 2

func newPCMReader(w *audio.Waveform) *pcmReader {
	return &pcmReader{wave: w}
}

func (r *pcmReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	channels := r.wave.Channels()
	frameBytes := channels * bytesPerSample
	frames := len(p) / frameBytes
	total := r.wave.Frames()

	for i := 0; i < frames; i++ {
		base := i * frameBytes
		if r.reverse {
			if r.cursor <= 0 {
				zeroFrame(p[base : base+frameBytes])
				continue
			}
			r.cursor--
			writeFrame(p[base:base+frameBytes], r.wave, r.cursor, channels)
		} else {
			if r.cursor >= total {
				zeroFrame(p[base : base+frameBytes])
				continue
			}
			writeFrame(p[base:base+frameBytes], r.wave, r.cursor, channels)
			r.cursor++
		}
	}

	return frames * frameBytes, nil
}

func writeFrame(dst []byte, w *audio.Waveform, frame, channels int) {
	for ch := 0; ch < channels; ch++ {
		s := w.Sample(frame, ch)
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		dst[ch*2] = byte(v)
		dst[ch*2+1] = byte(v >> 8)
	}
}

func zeroFrame(dst []byte) {
	for i := range dst {
		dst[i] = 0
	}
}

func (r *pcmReader) position() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor
}

func (r *pcmReader) seek(frame int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if frame < 0 {
		frame = 0
	}
	if total := r.wave.Frames(); frame > total {
		frame = total
	}
	r.cursor = frame
}

func (r *pcmReader) setReverse(reverse bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reverse = reverse
}

func (r *pcmReader) exhausted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reverse {
		return r.cursor <= 0
	}
	return r.cursor >= r.wave.Frames()
}
