package ui

import (
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Draw renders the whole window. Everything it reads is either immutable
// (waveform, timeline) or owned by the UI loop.
func (u *UI) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)

	u.drawHeader(screen)
	u.drawWaveform(screen)
	u.drawTimeline(screen)
	u.drawKeyStrip(screen)
	u.drawTransport(screen)

	if u.wave != nil {
		u.drawPlayhead(screen)
	}
}

func (u *UI) drawHeader(screen *ebiten.Image) {
	r := u.layout.header
	ebitenutil.DebugPrintAt(screen, u.cfg.UI.Title, r.Min.X, r.Min.Y)
	ebitenutil.DebugPrintAt(screen, u.status, r.Min.X, r.Min.Y+20)

	if u.wave == nil {
		return
	}
	pos := u.engine.Position()
	current := "-"
	if u.result != nil {
		if iv := u.result.ChordAt(pos); iv != nil {
			current = iv.Chord
		}
	}
	key := ""
	if u.result != nil {
		if kv := u.result.KeyAt(pos); kv != nil && kv.Key != "N" {
			key = "  key: " + kv.Key
		}
	}
	line := fmt.Sprintf("chord: %s%s    %s / %s    vol %3.0f%%    [%s]",
		current, key,
		formatTime(pos), formatTime(u.engine.Duration()),
		u.engine.Volume()*100, u.engine.State())
	if !u.playbackOK {
		line += "    (playback disabled)"
	}
	ebitenutil.DebugPrintAt(screen, line, r.Min.X, r.Min.Y+44)
}

func (u *UI) drawWaveform(screen *ebiten.Image) {
	r := u.layout.waveform
	drawPanel(screen, r)

	if len(u.envelope) == 0 {
		ebitenutil.DebugPrintAt(screen, "no audio loaded", r.Min.X+12, r.Min.Y+12)
		return
	}

	mid := float32(r.Min.Y) + float32(r.Dy())/2
	scale := float32(r.Dy()) / 2 * 0.92
	for c, env := range u.envelope {
		x := float32(r.Min.X + c)
		y0 := mid - env.max*scale
		y1 := mid - env.min*scale
		if y1-y0 < 1 {
			y1 = y0 + 1
		}
		vector.StrokeLine(screen, x, y0, x, y1, 1, colorWave, false)
	}
	vector.StrokeLine(screen, float32(r.Min.X), mid, float32(r.Max.X), mid, 1, colorWaveDim, false)
}

func (u *UI) drawTimeline(screen *ebiten.Image) {
	r := u.layout.timeline
	drawPanel(screen, r)

	if u.result == nil || u.result.Duration <= 0 {
		ebitenutil.DebugPrintAt(screen, "no timeline", r.Min.X+12, r.Min.Y+12)
		return
	}

	labelY := r.Min.Y + r.Dy()/2 - 8
	for _, iv := range u.result.Chords {
		x0 := timeToX(iv.Start, u.result.Duration, r)
		x1 := timeToX(iv.End, u.result.Duration, r)
		if x1-x0 < 1 {
			x1 = x0 + 1
		}
		vector.DrawFilledRect(screen,
			float32(x0), float32(r.Min.Y+4),
			float32(x1-x0), float32(r.Dy()-8),
			colorForChord(iv.Chord), false)
		vector.StrokeLine(screen,
			float32(x1), float32(r.Min.Y+4),
			float32(x1), float32(r.Max.Y-4),
			1, colorPanelEdge, false)
		if x1-x0 > 8*len(iv.Chord) {
			ebitenutil.DebugPrintAt(screen, iv.Chord, x0+4, labelY)
		}
	}
}

func (u *UI) drawKeyStrip(screen *ebiten.Image) {
	r := u.layout.keyStrip
	vector.DrawFilledRect(screen,
		float32(r.Min.X), float32(r.Min.Y),
		float32(r.Dx()), float32(r.Dy()),
		colorKeyStrip, false)

	if u.result == nil || u.result.Duration <= 0 {
		return
	}
	for _, kv := range u.result.Keys {
		x0 := timeToX(kv.Start, u.result.Duration, r)
		x1 := timeToX(kv.End, u.result.Duration, r)
		vector.StrokeLine(screen,
			float32(x0), float32(r.Min.Y),
			float32(x0), float32(r.Max.Y),
			1, colorPanelEdge, false)
		if kv.Key != "N" && x1-x0 > 8*len(kv.Key) {
			ebitenutil.DebugPrintAt(screen, kv.Key, x0+4, r.Min.Y+8)
		}
	}
}

func (u *UI) drawTransport(screen *ebiten.Image) {
	x, y := ebiten.CursorPosition()
	cursor := image.Pt(x, y)
	for _, b := range u.transportButtons() {
		fill := colorButton
		if cursor.In(b.rect) {
			fill = colorButtonHot
		}
		vector.DrawFilledRect(screen,
			float32(b.rect.Min.X), float32(b.rect.Min.Y),
			float32(b.rect.Dx()), float32(b.rect.Dy()),
			fill, false)
		labelX := b.rect.Min.X + (b.rect.Dx()-len(b.label)*6)/2
		ebitenutil.DebugPrintAt(screen, b.label, labelX, b.rect.Min.Y+10)
	}

	if u.busy {
		r := u.layout.transport
		ebitenutil.DebugPrintAt(screen, "analyzing...", r.Max.X-100, r.Min.Y+16)
	}
}

func (u *UI) drawPlayhead(screen *ebiten.Image) {
	dur := u.engine.Duration()
	if dur <= 0 {
		return
	}
	pos := u.engine.Position()
	for _, r := range []image.Rectangle{u.layout.waveform, u.layout.timeline, u.layout.keyStrip} {
		x := float32(timeToX(pos, dur, r))
		vector.StrokeLine(screen, x, float32(r.Min.Y), x, float32(r.Max.Y), 2, colorPlayhead, false)
	}
}

func drawPanel(screen *ebiten.Image, r image.Rectangle) {
	vector.DrawFilledRect(screen,
		float32(r.Min.X), float32(r.Min.Y),
		float32(r.Dx()), float32(r.Dy()),
		colorPanel, false)
	vector.StrokeLine(screen,
		float32(r.Min.X), float32(r.Max.Y),
		float32(r.Max.X), float32(r.Max.Y),
		1, colorPanelEdge, false)
}

func timeToX(t, duration float64, r image.Rectangle) int {
	frac := t / duration
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return r.Min.X + int(frac*float64(r.Dx()))
}

func formatTime(t float64) string {
	m := int(t) / 60
	s := int(t) % 60
	cs := int(t*100) % 100
	return fmt.Sprintf("%02d:%02d.%02d", m, s, cs)
}
