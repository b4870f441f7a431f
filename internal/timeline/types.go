package timeline

// Interval is one contiguous span labeled with a single chord name.
// Across a Result, intervals are contiguous, non-overlapping, cover the
// whole track, and no two adjacent intervals share a name.
type Interval struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Chord string  `json:"chord" yaml:"chord"`
}

// KeyInterval is one contiguous span labeled with an estimated key.
type KeyInterval struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Key   string  `json:"key" yaml:"key"`
}

// Result is the full analysis timeline for one track.
type Result struct {
	Duration float64       `json:"duration" yaml:"duration"`
	Chords   []Interval    `json:"chords" yaml:"chords"`
	Keys     []KeyInterval `json:"keys,omitempty" yaml:"keys,omitempty"`
}

// ChordAt returns the interval covering time t, or nil.
func (r *Result) ChordAt(t float64) *Interval {
	for i := range r.Chords {
		if t >= r.Chords[i].Start && t < r.Chords[i].End {
			return &r.Chords[i]
		}
	}
	if n := len(r.Chords); n > 0 && t >= r.Chords[n-1].End {
		return &r.Chords[n-1]
	}
	return nil
}

// KeyAt returns the key interval covering time t, or nil.
func (r *Result) KeyAt(t float64) *KeyInterval {
	for i := range r.Keys {
		if t >= r.Keys[i].Start && t < r.Keys[i].End {
			return &r.Keys[i]
		}
	}
	return nil
}
