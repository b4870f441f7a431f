// Package app wires the analysis pipeline together: decode, feature
// extraction, inference and timeline building, plus the async worker the
// UI drives.
package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/chordtracker/chordtracker/configs"
	"github.com/chordtracker/chordtracker/internal/timeline"
	"github.com/chordtracker/chordtracker/pkg/audio"
	"github.com/chordtracker/chordtracker/pkg/audio/cqt"
	"github.com/chordtracker/chordtracker/pkg/chord"
	"github.com/chordtracker/chordtracker/pkg/logging"
	"github.com/chordtracker/chordtracker/pkg/model"
)

// Result is one completed analysis: the decoded waveform and its timeline.
type Result struct {
	Path     string
	Waveform *audio.Waveform
	Timeline *timeline.Result
	Elapsed  time.Duration
}

// App owns the pipeline components. The chord index is loaded once at
// construction; the inference session is created lazily on the first
// analysis so a missing model artifact fails that operation, not startup.
type App struct {
	cfg    *configs.Config
	logger logging.Logger

	loader    *audio.Loader
	extractor *cqt.Extractor
	index     *chord.Index
	builder   *timeline.Builder

	inferMu    sync.Mutex
	inferencer model.Inferencer

	generation atomic.Uint64
	events     chan Event
}

// Option customizes App construction.
type Option func(*App)

// WithInferencer installs a prebuilt inference engine instead of the lazy
// ONNX session.
func WithInferencer(inf model.Inferencer) Option {
	return func(a *App) {
		a.inferencer = inf
	}
}

// New builds an App from configuration. Chord index loading and extractor
// kernel setup happen here; both are process-lifetime artifacts.
func New(cfg *configs.Config, logger logging.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	index, err := chord.LoadIndex(cfg.Model.IndexPath)
	if err != nil {
		return nil, err
	}

	params := cqt.Params{
		SampleRate:    cfg.Audio.SampleRate,
		BinsPerOctave: cfg.Audio.BinsPerOctave,
		Octaves:       cfg.Audio.Octaves,
		FMin:          cfg.Audio.FMin,
		HopLength:     cfg.Audio.HopLength,
		QFactor:       cfg.Audio.QFactor,
		FrameLength:   cfg.Model.FrameLength,
	}
	extractor, err := cqt.NewExtractor(params, logger)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:       cfg,
		logger:    logger,
		loader:    audio.NewLoader(cfg.Audio.SampleRate, logger),
		extractor: extractor,
		index:     index,
		builder: timeline.NewBuilder(index, timeline.Options{
			MinDuration: cfg.Timeline.MinDuration.Seconds(),
		}, logger),
		events: make(chan Event, 8),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Loader exposes the audio loader for diagnostics commands.
func (a *App) Loader() *audio.Loader { return a.loader }

// Index exposes the chord index handle.
func (a *App) Index() *chord.Index { return a.index }

// ensureInferencer creates the inference session on first use. A failed
// load is reported to the caller and retried on the next operation.
func (a *App) ensureInferencer() (model.Inferencer, error) {
	a.inferMu.Lock()
	defer a.inferMu.Unlock()
	if a.inferencer != nil {
		return a.inferencer, nil
	}

	session, err := model.NewSession(model.SessionConfig{
		ModelPath:    a.cfg.Model.Path,
		LibraryPath:  a.cfg.Model.LibraryPath,
		FrameLength:  a.cfg.Model.FrameLength,
		Bins:         a.cfg.Audio.BinsPerOctave * a.cfg.Audio.Octaves,
		Channels:     2,
		ChordClasses: chord.NumClasses,
		BassClasses:  chord.NumBassClasses,
		KeyClasses:   chord.NumKeyClasses,
	}, a.logger)
	if err != nil {
		return nil, err
	}

	a.inferencer = model.NewBatcher(session, a.cfg.Model.BatchSize, a.logger)
	return a.inferencer, nil
}

// AnalyzeFile runs the full pipeline synchronously: decode, extract CQT
// features, infer, build the timeline.
func (a *App) AnalyzeFile(ctx context.Context, path string) (*Result, error) {
	started := time.Now()
	jobID := uuid.NewString()
	log := a.logger.With(logging.Fields{"job_id": jobID, "path": path})

	log.Info("analysis started")

	wave, err := a.loader.Load(ctx, path)
	if err != nil {
		log.Error("audio load failed", logging.Fields{"error": err.Error()})
		return nil, err
	}

	spec, err := a.extractor.Transform(wave)
	if err != nil {
		log.Error("feature extraction failed", logging.Fields{"error": err.Error()})
		return nil, err
	}

	inferencer, err := a.ensureInferencer()
	if err != nil {
		log.Error("model load failed", logging.Fields{"error": err.Error()})
		return nil, err
	}

	preds, err := inferencer.Infer(ctx, spec.Frames())
	if err != nil {
		log.Error("inference failed", logging.Fields{"error": err.Error()})
		return nil, err
	}

	tl, err := a.builder.Build(preds, spec.TimeBins, spec.BinsPerSecond(), wave.Seconds())
	if err != nil {
		log.Error("timeline build failed", logging.Fields{"error": err.Error()})
		return nil, err
	}

	elapsed := time.Since(started)
	log.Info("analysis finished", logging.Fields{
		"duration_s": wave.Seconds(),
		"intervals":  len(tl.Chords),
		"elapsed_ms": elapsed.Milliseconds(),
	})

	return &Result{
		Path:     path,
		Waveform: wave,
		Timeline: tl,
		Elapsed:  elapsed,
	}, nil
}

// Submit starts an asynchronous analysis and returns its generation id.
// Completion arrives as an Event; results from superseded submissions are
// detected with IsStale and dropped by the receiver. The previous worker is
// not cancelled, its result is simply discarded.
func (a *App) Submit(path string) uint64 {
	gen := a.generation.Add(1)

	go func() {
		res, err := a.AnalyzeFile(context.Background(), path)
		// Blocking send: a completion is never dropped. The UI drains the
		// channel every frame, so the worker only waits when many analyses
		// finish between two frames.
		a.events <- Event{Generation: gen, Path: path, Result: res, Err: err}
	}()

	return gen
}

// Events returns the completion event channel the UI drains.
func (a *App) Events() <-chan Event { return a.events }

// CurrentGeneration returns the latest submitted generation id.
func (a *App) CurrentGeneration() uint64 { return a.generation.Load() }

// IsStale reports whether an event belongs to a superseded submission.
func (a *App) IsStale(ev Event) bool {
	return ev.Generation != a.generation.Load()
}

// Close releases the inference session.
func (a *App) Close() error {
	a.inferMu.Lock()
	defer a.inferMu.Unlock()
	if a.inferencer == nil {
		return nil
	}
	err := a.inferencer.Close()
	a.inferencer = nil
	return err
}
