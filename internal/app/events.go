package app

// Event is the completion message an analysis worker posts back to the UI
// loop: a result or an error, tagged with the submission generation so
// superseded results can be dropped.
type Event struct {
	Generation uint64
	Path       string
	Result     *Result
	Err        error
}

// Failed reports whether the analysis ended in an error.
func (e Event) Failed() bool { return e.Err != nil }
