package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chordtracker/chordtracker/pkg/logging"
)

// Format identifies an audio container format.
type Format string

const (
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
	FormatFLAC    Format = "flac"
	FormatOGG     Format = "ogg"
	FormatUnknown Format = "unknown"
)

// decoder turns a container byte stream into a Waveform at the container's
// native sample rate and channel layout.
type decoder interface {
	Decode(r io.ReadSeeker) (*Waveform, error)
}

// Loader decodes audio files into Waveforms at a fixed target sample rate.
// Mono sources are duplicated to stereo so downstream consumers always see
// two channels.
type Loader struct {
	targetRate int
	decoders   map[Format]func() decoder
	logger     logging.Logger
	mu         sync.RWMutex
}

// NewLoader creates a loader that resamples everything to targetRate.
func NewLoader(targetRate int, logger logging.Logger) *Loader {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	l := &Loader{
		targetRate: targetRate,
		decoders:   make(map[Format]func() decoder),
		logger:     logger,
	}

	l.registerDecoder(FormatWAV, func() decoder { return wavDecoder{} })
	l.registerDecoder(FormatMP3, func() decoder { return mp3Decoder{} })
	l.registerDecoder(FormatFLAC, func() decoder { return flacDecoder{} })
	l.registerDecoder(FormatOGG, func() decoder { return oggDecoder{} })

	return l
}

func (l *Loader) registerDecoder(format Format, factory func() decoder) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.decoders[format] = factory
}

// SupportedFormats returns the registered container formats.
func (l *Loader) SupportedFormats() []Format {
	l.mu.RLock()
	defer l.mu.RUnlock()
	formats := make([]Format, 0, len(l.decoders))
	for f := range l.decoders {
		formats = append(formats, f)
	}
	return formats
}

// Load decodes the file at path and returns a stereo Waveform at the
// loader's target sample rate. An empty or undecodable file is a fatal load
// error; nothing partial is ever returned.
func (l *Loader) Load(ctx context.Context, path string) (*Waveform, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewError(ErrCodeNotFound, path, "audio file does not exist", err)
		}
		return nil, NewError(ErrCodeNotFound, path, "failed to open audio file", err)
	}
	defer f.Close()

	format, err := l.detect(path, f)
	if err != nil {
		return nil, err
	}

	l.mu.RLock()
	factory, ok := l.decoders[format]
	l.mu.RUnlock()
	if !ok {
		return nil, NewError(ErrCodeUnsupported, path,
			fmt.Sprintf("unsupported audio format: %s", format), nil)
	}

	wave, err := factory().Decode(f)
	if err != nil {
		if ae, isAudioErr := err.(*Error); isAudioErr {
			ae.Path = path
			return nil, ae
		}
		return nil, NewError(ErrCodeDecoding, path, "failed to decode audio", err)
	}
	if wave.Frames() == 0 {
		return nil, NewError(ErrCodeEmptyAudio, path, "decoded audio is empty", nil)
	}

	nativeRate := wave.SampleRate()
	if wave.Channels() == 1 {
		wave = monoToStereo(wave)
	}
	if wave.SampleRate() != l.targetRate {
		wave = Resample(wave, l.targetRate)
	}

	l.logger.Debug("audio file loaded", logging.Fields{
		"path":        path,
		"format":      string(format),
		"native_rate": nativeRate,
		"sample_rate": wave.SampleRate(),
		"channels":    wave.Channels(),
		"duration_s":  wave.Seconds(),
	})

	return wave, nil
}

// Probe decodes the file and reports its native properties without
// resampling or channel normalization.
func (l *Loader) Probe(ctx context.Context, path string) (*Info, *Waveform, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, NewError(ErrCodeNotFound, path, "failed to open audio file", err)
	}
	defer f.Close()

	format, err := l.detect(path, f)
	if err != nil {
		return nil, nil, err
	}

	l.mu.RLock()
	factory, ok := l.decoders[format]
	l.mu.RUnlock()
	if !ok {
		return nil, nil, NewError(ErrCodeUnsupported, path,
			fmt.Sprintf("unsupported audio format: %s", format), nil)
	}

	wave, err := factory().Decode(f)
	if err != nil {
		return nil, nil, NewError(ErrCodeDecoding, path, "failed to decode audio", err)
	}

	return &Info{
		Path:       path,
		Format:     format,
		SampleRate: wave.SampleRate(),
		Channels:   wave.Channels(),
		Frames:     wave.Frames(),
		Duration:   wave.Duration(),
	}, wave, nil
}

// detect sniffs the container format, first by extension, then by magic
// bytes. The reader is rewound before returning.
func (l *Loader) detect(path string, r io.ReadSeeker) (Format, error) {
	if format := detectFromExtension(path); format != FormatUnknown {
		return format, nil
	}

	header := make([]byte, 12)
	n, _ := io.ReadFull(r, header)
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return FormatUnknown, NewError(ErrCodeDecoding, path, "failed to rewind file", err)
	}
	if format := detectFromMagic(header[:n]); format != FormatUnknown {
		return format, nil
	}

	return FormatUnknown, NewError(ErrCodeUnsupported, path,
		"could not determine audio format", nil)
}

func detectFromExtension(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return FormatWAV
	case ".mp3":
		return FormatMP3
	case ".flac":
		return FormatFLAC
	case ".ogg", ".oga":
		return FormatOGG
	}
	return FormatUnknown
}

func detectFromMagic(header []byte) Format {
	switch {
	case len(header) >= 12 && bytes.Equal(header[0:4], []byte("RIFF")) &&
		bytes.Equal(header[8:12], []byte("WAVE")):
		return FormatWAV
	case len(header) >= 4 && bytes.Equal(header[0:4], []byte("fLaC")):
		return FormatFLAC
	case len(header) >= 4 && bytes.Equal(header[0:4], []byte("OggS")):
		return FormatOGG
	case len(header) >= 3 && bytes.Equal(header[0:3], []byte("ID3")):
		return FormatMP3
	case len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		// MPEG frame sync
		return FormatMP3
	}
	return FormatUnknown
}
