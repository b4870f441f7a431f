package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chordtracker/chordtracker/internal/timeline"
)

func testTimeline(withKeys bool) *timeline.Result {
	tl := &timeline.Result{
		Duration: 10,
		Chords: []timeline.Interval{
			{Start: 0, End: 4, Chord: "C"},
			{Start: 4, End: 10, Chord: "G/B"},
		},
	}
	if withKeys {
		tl.Keys = []timeline.KeyInterval{{Start: 0, End: 10, Key: "C"}}
	}
	return tl
}

func TestPrintTimelineKeySectionsFollowData(t *testing.T) {
	// Every format includes the key timeline exactly when it is present;
	// runAnalyze strips it unless --keys is set.
	formats := []string{"json", "yaml", "csv", "table"}

	for _, format := range formats {
		t.Run(format+" with keys", func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, printTimeline(&buf, testTimeline(true), format))
			assert.Contains(t, buf.String(), "C")
			assert.Contains(t, strings.ToLower(buf.String()), "key")
		})

		t.Run(format+" without keys", func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, printTimeline(&buf, testTimeline(false), format))
			assert.NotContains(t, strings.ToLower(buf.String()), "key")
		})
	}
}

func TestPrintTimelineJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printTimeline(&buf, testTimeline(false), "json"))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "chords")
	assert.NotContains(t, decoded, "keys")
}

func TestPrintTimelineCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printTimeline(&buf, testTimeline(true), "csv"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "start,end,chord", lines[0])
	assert.Equal(t, "0.000,4.000,C", lines[1])
	assert.Equal(t, "start,end,key", lines[3])
	assert.Equal(t, "0.000,10.000,C", lines[4])
}

func TestPrintTimelineTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printTimeline(&buf, testTimeline(true), "table"))

	out := buf.String()
	assert.Contains(t, out, "START")
	assert.Contains(t, out, "CHORD")
	assert.Contains(t, out, "KEY")
	assert.Contains(t, out, "G/B")
}

func TestPrintTimelineUnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	err := printTimeline(&buf, testTimeline(false), "xml")
	assert.ErrorContains(t, err, "unsupported output format")
	assert.Empty(t, buf.String())
}
