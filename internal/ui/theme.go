package ui

import (
	"image"
	"image/color"

	"github.com/chordtracker/chordtracker/pkg/chord"
)

var (
	colorBackground = color.RGBA{0x12, 0x14, 0x1A, 0xFF}
	colorPanel      = color.RGBA{0x1C, 0x1F, 0x28, 0xFF}
	colorPanelEdge  = color.RGBA{0x2E, 0x33, 0x40, 0xFF}
	colorWave       = color.RGBA{0x4F, 0x9D, 0xDE, 0xFF}
	colorWaveDim    = color.RGBA{0x2A, 0x4E, 0x6E, 0xFF}
	colorPlayhead   = color.RGBA{0xFF, 0x5A, 0x5A, 0xFF}
	colorButton     = color.RGBA{0x2A, 0x2F, 0x3C, 0xFF}
	colorButtonHot  = color.RGBA{0x3A, 0x41, 0x52, 0xFF}
	colorNoChord    = color.RGBA{0x3A, 0x3F, 0x4A, 0xFF}
	colorKeyStrip   = color.RGBA{0x26, 0x2B, 0x36, 0xFF}
)

// rootColors assigns one hue per pitch class so a chord keeps its color
// across qualities.
var rootColors = [12]color.RGBA{
	{0xD9, 0x53, 0x4F, 0xFF}, // C
	{0xD9, 0x7B, 0x4F, 0xFF}, // Db
	{0xD9, 0xA4, 0x4F, 0xFF}, // D
	{0xD0, 0xC9, 0x4A, 0xFF}, // Eb
	{0x9E, 0xC9, 0x4A, 0xFF}, // E
	{0x5B, 0xBD, 0x5A, 0xFF}, // F
	{0x4E, 0xbd, 0x93, 0xFF}, // Gb
	{0x4A, 0xAE, 0xC9, 0xFF}, // G
	{0x4F, 0x82, 0xD9, 0xFF}, // Ab
	{0x7B, 0x64, 0xD9, 0xFF}, // A
	{0xAE, 0x58, 0xD0, 0xFF}, // Bb
	{0xD0, 0x58, 0xA4, 0xFF}, // B
}

// colorForChord picks the display color for a chord name.
func colorForChord(name string) color.RGBA {
	if root, ok := chord.RootIndex(name); ok {
		return rootColors[root]
	}
	return colorNoChord
}

// layout positions every panel for a given logical screen size.
type layout struct {
	header    image.Rectangle
	waveform  image.Rectangle
	timeline  image.Rectangle
	keyStrip  image.Rectangle
	transport image.Rectangle
}

func newLayout(w, h int) layout {
	const margin = 24
	inner := w - 2*margin
	return layout{
		header:    image.Rect(margin, 16, margin+inner, 96),
		waveform:  image.Rect(margin, 120, margin+inner, 320),
		timeline:  image.Rect(margin, 350, margin+inner, 520),
		keyStrip:  image.Rect(margin, 530, margin+inner, 562),
		transport: image.Rect(margin, h-80, margin+inner, h-32),
	}
}
