package chord

import "strings"

// Tones lists the twelve pitch classes in the spelling the chord vocabulary
// uses (flats, matching the index table).
var Tones = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

// KeyNames maps the model's key head classes: no key, 12 major keys,
// 12 minor keys.
var KeyNames = [25]string{
	"N",
	"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B",
	"Am", "Bbm", "Bm", "Cm", "C#m", "Dm", "Ebm", "Em", "Fm", "F#m", "Gm", "G#m",
}

// NumBassClasses is the size of the bass head vocabulary: no bass plus the
// twelve pitch classes.
const NumBassClasses = 13

// NumKeyClasses is the size of the key head vocabulary.
const NumKeyClasses = len(KeyNames)

// Root extracts the root note name from a chord name, or "" for N.C. and
// unparseable names.
func Root(name string) string {
	if name == "" || name == NoChord {
		return ""
	}
	if len(name) >= 2 && (name[1] == 'b' || name[1] == '#') {
		return name[:2]
	}
	return name[:1]
}

// RootIndex returns the pitch class of a chord's root and whether it was
// recognized.
func RootIndex(name string) (int, bool) {
	root := Root(name)
	if root == "" {
		return 0, false
	}
	for i, t := range Tones {
		if t == root {
			return i, true
		}
	}
	// Sharp spellings map onto their flat equivalents.
	sharps := map[string]int{"C#": 1, "D#": 3, "F#": 6, "G#": 8, "A#": 10}
	if i, ok := sharps[root]; ok {
		return i, true
	}
	return 0, false
}

// WithBass appends a slash bass to a chord name when the bass head
// disagrees with the chord's root. A bass id of 0 means no bass estimate.
func WithBass(name string, bassID int) string {
	if name == NoChord || bassID <= 0 || bassID >= NumBassClasses {
		return name
	}
	if strings.Contains(name, "/") {
		return name
	}
	bass := bassID - 1
	if root, ok := RootIndex(name); ok && root == bass {
		return name
	}
	return name + "/" + Tones[bass]
}

// KeyName returns the display name for a key head class id.
func KeyName(id int) string {
	if id < 0 || id >= NumKeyClasses {
		return "N"
	}
	return KeyNames[id]
}
