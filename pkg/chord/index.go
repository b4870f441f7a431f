// Package chord holds the static chord vocabulary: the id-to-name index the
// model's chord head is trained against, plus note and key naming helpers.
package chord

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// NumClasses is the size of the chord vocabulary: 433 chord labels plus the
// dedicated no-chord class. The model's chord head must emit exactly this
// many classes.
const NumClasses = 434

// NoChordID is the class id reserved for silence and non-harmonic audio.
const NoChordID = 0

// NoChord is the display name of the no-chord class.
const NoChord = "N.C."

// Index is the immutable id-to-name chord table, loaded once at startup and
// passed around as a read-only handle.
type Index struct {
	names []string
}

// LoadIndex reads the chord table from a JSON object mapping decimal string
// ids to chord names ({"0": "N.C.", "1": "C", ...}). Ids must be contiguous
// from zero and the table must contain exactly NumClasses entries.
func LoadIndex(path string) (*Index, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chord index %s: %w", path, err)
	}

	var table map[string]string
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("failed to parse chord index %s: %w", path, err)
	}

	names := make([]string, len(table))
	for key, name := range table {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("chord index has non-integer id %q", key)
		}
		if id < 0 || id >= len(names) {
			return nil, fmt.Errorf("chord index id %d outside contiguous range [0, %d)", id, len(names))
		}
		if name == "" {
			return nil, fmt.Errorf("chord index id %d has an empty name", id)
		}
		if names[id] != "" {
			return nil, fmt.Errorf("chord index id %d appears twice", id)
		}
		names[id] = name
	}

	idx := &Index{names: names}
	if err := idx.Validate(NumClasses); err != nil {
		return nil, err
	}
	return idx, nil
}

// NewIndex builds an index directly from an ordered name slice. Position is
// the class id. Mostly useful for tests and embedded vocabularies.
func NewIndex(names []string) (*Index, error) {
	for id, name := range names {
		if name == "" {
			return nil, fmt.Errorf("chord index id %d has an empty name", id)
		}
	}
	owned := make([]string, len(names))
	copy(owned, names)
	return &Index{names: owned}, nil
}

// Size returns the number of classes in the table.
func (i *Index) Size() int { return len(i.names) }

// Validate checks the table against the class count the model emits.
func (i *Index) Validate(classes int) error {
	if len(i.names) != classes {
		return fmt.Errorf("chord index has %d entries, model expects %d", len(i.names), classes)
	}
	return nil
}

// Name returns the chord name for a class id.
func (i *Index) Name(id int) (string, error) {
	if id < 0 || id >= len(i.names) {
		return "", fmt.Errorf("chord class id %d out of range [0, %d)", id, len(i.names))
	}
	return i.names[id], nil
}
