package model

import (
	"context"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/chordtracker/chordtracker/pkg/audio/cqt"
	"github.com/chordtracker/chordtracker/pkg/logging"
)

// SessionConfig describes the exported network artifact. The tensor shapes
// are fixed by the artifact; they must match the CQT extractor geometry and
// the chord index table.
type SessionConfig struct {
	// ModelPath is the ONNX artifact, loaded from a fixed relative path.
	ModelPath string
	// LibraryPath optionally points at the onnxruntime shared library.
	LibraryPath string

	FrameLength int
	Bins        int
	Channels    int

	ChordClasses int
	BassClasses  int
	KeyClasses   int
}

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// Session runs the pretrained chord-estimation network through ONNX
// Runtime. It is stateless between calls: the same frame always produces
// the same probabilities.
type Session struct {
	cfg     SessionConfig
	session *ort.DynamicAdvancedSession
	logger  logging.Logger
}

// NewSession loads the network artifact. A missing or corrupt artifact is a
// fatal load error for the operation that needed it.
func NewSession(cfg SessionConfig, logger logging.Logger) (*Session, error) {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, NewError(ErrCodeLoad, cfg.ModelPath, "model artifact not found", err)
	}

	ortInitOnce.Do(func() {
		if cfg.LibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.LibraryPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, NewError(ErrCodeLoad, cfg.ModelPath,
			"failed to initialize onnxruntime environment", ortInitErr)
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"cqt"}, []string{"chord", "bass", "key"}, nil)
	if err != nil {
		return nil, NewError(ErrCodeLoad, cfg.ModelPath, "failed to load model artifact", err)
	}

	logger.Info("chord model loaded", logging.Fields{
		"path":          cfg.ModelPath,
		"frame_length":  cfg.FrameLength,
		"bins":          cfg.Bins,
		"chord_classes": cfg.ChordClasses,
	})

	return &Session{cfg: cfg, session: session, logger: logger}, nil
}

// Heads reports the artifact's output class counts.
func (s *Session) Heads() Heads {
	return Heads{Chord: s.cfg.ChordClasses, Bass: s.cfg.BassClasses, Key: s.cfg.KeyClasses}
}

// Infer runs one batch of frames through the network.
func (s *Session) Infer(ctx context.Context, frames []*cqt.Frame) ([]*FramePrediction, error) {
	if len(frames) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := len(frames)
	frameValues := s.cfg.FrameLength * s.cfg.Bins * s.cfg.Channels
	input := make([]float32, batch*frameValues)
	for i, f := range frames {
		if f.Length != s.cfg.FrameLength || f.Bins != s.cfg.Bins || f.Channels != s.cfg.Channels {
			return nil, NewError(ErrCodeShape, s.cfg.ModelPath,
				fmt.Sprintf("frame shape %dx%dx%d does not match model input %dx%dx%d",
					f.Length, f.Bins, f.Channels,
					s.cfg.FrameLength, s.cfg.Bins, s.cfg.Channels), nil)
		}
		copy(input[i*frameValues:], f.Data)
	}

	inputShape := ort.NewShape(int64(batch), int64(s.cfg.FrameLength),
		int64(s.cfg.Bins), int64(s.cfg.Channels))
	inputTensor, err := ort.NewTensor(inputShape, input)
	if err != nil {
		return nil, NewError(ErrCodeInference, s.cfg.ModelPath, "failed to create input tensor", err)
	}
	defer inputTensor.Destroy()

	chordOut, err := ort.NewEmptyTensor[float32](ort.NewShape(
		int64(batch), int64(s.cfg.FrameLength), int64(s.cfg.ChordClasses)))
	if err != nil {
		return nil, NewError(ErrCodeInference, s.cfg.ModelPath, "failed to create chord output tensor", err)
	}
	defer chordOut.Destroy()

	bassOut, err := ort.NewEmptyTensor[float32](ort.NewShape(
		int64(batch), int64(s.cfg.FrameLength), int64(s.cfg.BassClasses)))
	if err != nil {
		return nil, NewError(ErrCodeInference, s.cfg.ModelPath, "failed to create bass output tensor", err)
	}
	defer bassOut.Destroy()

	keyOut, err := ort.NewEmptyTensor[float32](ort.NewShape(
		int64(batch), int64(s.cfg.FrameLength), int64(s.cfg.KeyClasses)))
	if err != nil {
		return nil, NewError(ErrCodeInference, s.cfg.ModelPath, "failed to create key output tensor", err)
	}
	defer keyOut.Destroy()

	err = s.session.Run(
		[]ort.Value{inputTensor},
		[]ort.Value{chordOut, bassOut, keyOut},
	)
	if err != nil {
		return nil, NewError(ErrCodeInference, s.cfg.ModelPath, "model execution failed", err)
	}

	preds := make([]*FramePrediction, batch)
	for i := 0; i < batch; i++ {
		preds[i] = &FramePrediction{
			Chord: splitHead(chordOut.GetData(), i, s.cfg.FrameLength, s.cfg.ChordClasses),
			Bass:  splitHead(bassOut.GetData(), i, s.cfg.FrameLength, s.cfg.BassClasses),
			Key:   splitHead(keyOut.GetData(), i, s.cfg.FrameLength, s.cfg.KeyClasses),
		}
	}
	return preds, nil
}

// splitHead copies one batch element out of a [batch][timeBins][classes]
// tensor buffer. The tensor memory is freed after Infer returns, so the
// rows are copied.
func splitHead(data []float32, batchIndex, timeBins, classes int) [][]float32 {
	out := make([][]float32, timeBins)
	base := batchIndex * timeBins * classes
	flat := make([]float32, timeBins*classes)
	copy(flat, data[base:base+timeBins*classes])
	for t := 0; t < timeBins; t++ {
		out[t] = flat[t*classes : (t+1)*classes : (t+1)*classes]
	}
	return out
}

// Close releases the session. The onnxruntime environment stays initialized
// for the process lifetime.
func (s *Session) Close() error {
	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	return err
}
