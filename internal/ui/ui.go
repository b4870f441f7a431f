// Package ui is the ebiten front end: waveform view, chord timeline,
// transport controls. It holds no business logic; it renders immutable
// analysis results and forwards user input to the app and the playback
// engine.
package ui

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sqweek/dialog"

	"github.com/chordtracker/chordtracker/configs"
	"github.com/chordtracker/chordtracker/internal/app"
	"github.com/chordtracker/chordtracker/internal/timeline"
	"github.com/chordtracker/chordtracker/pkg/audio"
	"github.com/chordtracker/chordtracker/pkg/logging"
	"github.com/chordtracker/chordtracker/pkg/player"
)

const seekStepSeconds = 5.0

// UI is the ebiten game driving the whole application window.
type UI struct {
	app    *app.App
	engine *player.Engine
	cfg    *configs.Config
	logger logging.Logger

	layout layout

	// Loaded track state, replaced wholesale when an analysis lands.
	path     string
	wave     *audio.Waveform
	result   *timeline.Result
	envelope []envBin

	status       string
	busy         bool
	playbackOK   bool
	dialogActive bool
	openCh       chan string
}

// New creates the UI over an app and a playback engine.
func New(a *app.App, engine *player.Engine, cfg *configs.Config, logger logging.Logger) *UI {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &UI{
		app:    a,
		engine: engine,
		cfg:    cfg,
		logger: logger,
		layout: newLayout(cfg.UI.WindowWidth, cfg.UI.WindowHeight),
		status: "Open an audio file to begin",
		openCh: make(chan string, 1),
	}
}

// Run opens the window and blocks until it is closed. If path is non-empty
// the file is submitted for analysis immediately.
func (u *UI) Run(path string) error {
	ebiten.SetWindowSize(u.cfg.UI.WindowWidth, u.cfg.UI.WindowHeight)
	ebiten.SetWindowTitle(u.cfg.UI.Title)

	if path != "" {
		u.submit(path)
	}
	return ebiten.RunGame(u)
}

// Layout implements ebiten.Game with a fixed logical resolution.
func (u *UI) Layout(outsideWidth, outsideHeight int) (int, int) {
	return u.cfg.UI.WindowWidth, u.cfg.UI.WindowHeight
}

// Update drains worker events and handles input. It runs on the single
// UI loop; workers never touch UI state directly.
func (u *UI) Update() error {
	u.drainEvents()

	select {
	case path := <-u.openCh:
		u.dialogActive = false
		if path != "" {
			u.submit(path)
		}
	default:
	}

	u.handleKeys()
	u.handleMouse()
	u.engine.Refresh()
	return nil
}

func (u *UI) drainEvents() {
	for {
		select {
		case ev := <-u.app.Events():
			u.handleEvent(ev)
		default:
			return
		}
	}
}

// handleEvent applies one analysis completion. Results from superseded
// submissions are dropped; a failed analysis keeps the previous track and
// timeline untouched.
func (u *UI) handleEvent(ev app.Event) {
	if u.app.IsStale(ev) {
		u.logger.Debug("dropping stale analysis result", logging.Fields{
			"generation": ev.Generation,
			"path":       ev.Path,
		})
		return
	}
	u.busy = false

	if ev.Failed() {
		u.status = fmt.Sprintf("Analysis failed: %v", ev.Err)
		u.logger.Error("analysis failed", logging.Fields{"error": ev.Err.Error()})
		return
	}

	u.path = ev.Result.Path
	u.wave = ev.Result.Waveform
	u.result = ev.Result.Timeline
	u.envelope = computeEnvelope(u.wave, u.layout.waveform.Dx())

	u.playbackOK = true
	if err := u.engine.Load(u.wave); err != nil {
		u.playbackOK = false
		u.status = err.Error()
		u.logger.Warn("playback unavailable", logging.Fields{"error": err.Error()})
		return
	}
	u.status = fmt.Sprintf("%s - %d chords, %.1fs",
		filepath.Base(u.path), len(u.result.Chords), u.result.Duration)
}

func (u *UI) submit(path string) {
	u.busy = true
	u.status = fmt.Sprintf("Analyzing %s ...", filepath.Base(path))
	gen := u.app.Submit(path)
	u.logger.Info("analysis submitted", logging.Fields{
		"path":       path,
		"generation": gen,
	})
}

func (u *UI) openFileDialog() {
	if u.dialogActive {
		return
	}
	u.dialogActive = true
	go func() {
		path, err := dialog.File().
			Filter("Audio files", "wav", "mp3", "flac", "ogg").
			Title("Open audio file").
			Load()
		if err != nil {
			// Cancelled or failed; either way nothing to load.
			path = ""
		}
		u.openCh <- path
	}()
}

func (u *UI) handleKeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		if u.engine.State().Playing() {
			u.engine.Pause()
		} else {
			u.engine.Play()
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		u.engine.PlayReverse()
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		u.engine.Stop()
	case inpututil.IsKeyJustPressed(ebiten.KeyO):
		u.openFileDialog()
	case inpututil.IsKeyJustPressed(ebiten.KeyLeft):
		u.engine.Seek(u.engine.Position() - seekStepSeconds)
	case inpututil.IsKeyJustPressed(ebiten.KeyRight):
		u.engine.Seek(u.engine.Position() + seekStepSeconds)
	case inpututil.IsKeyJustPressed(ebiten.KeyUp):
		u.engine.SetVolume(u.engine.Volume() + 0.1)
	case inpututil.IsKeyJustPressed(ebiten.KeyDown):
		u.engine.SetVolume(u.engine.Volume() - 0.1)
	}
}

func (u *UI) handleMouse() {
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	x, y := ebiten.CursorPosition()
	pt := image.Pt(x, y)

	for _, b := range u.transportButtons() {
		if pt.In(b.rect) {
			b.action()
			return
		}
	}

	if u.wave == nil {
		return
	}
	if pt.In(u.layout.waveform) || pt.In(u.layout.timeline) || pt.In(u.layout.keyStrip) {
		var rect image.Rectangle
		switch {
		case pt.In(u.layout.waveform):
			rect = u.layout.waveform
		case pt.In(u.layout.timeline):
			rect = u.layout.timeline
		default:
			rect = u.layout.keyStrip
		}
		frac := float64(x-rect.Min.X) / float64(rect.Dx())
		u.engine.Seek(frac * u.engine.Duration())
	}
}

type button struct {
	label  string
	rect   image.Rectangle
	action func()
}

func (u *UI) transportButtons() []button {
	r := u.layout.transport
	const bw, bh, gap = 88, 36, 12
	y0 := r.Min.Y + (r.Dy()-bh)/2

	mk := func(i int, label string, action func()) button {
		x0 := r.Min.X + i*(bw+gap)
		return button{label: label, rect: image.Rect(x0, y0, x0+bw, y0+bh), action: action}
	}

	return []button{
		mk(0, "OPEN", u.openFileDialog),
		mk(1, "PLAY", u.engine.Play),
		mk(2, "PAUSE", u.engine.Pause),
		mk(3, "REVERSE", u.engine.PlayReverse),
		mk(4, "STOP", u.engine.Stop),
	}
}
