// Package publish runs one export of a book to every requested format and
// reports a per-format outcome.
package publish

import (
	"time"
)

// Format is an export target.
type Format string

const (
	FormatEPUB Format = "epub"
	FormatKDP  Format = "kdp_pdf"
	FormatLulu Format = "lulu_pdf"
)

// AllFormats lists the supported formats in their canonical order.
func AllFormats() []Format {
	return []Format{FormatEPUB, FormatKDP, FormatLulu}
}

func (f Format) Valid() bool {
	return f == FormatEPUB || f == FormatKDP || f == FormatLulu
}

// State is the lifecycle of an export run.
type State string

const (
	StatePending           State = "pending"
	StateAssigningISBNs    State = "assigning_isbns"
	StateGeneratingFormats State = "generating_formats"
	StateAggregating       State = "aggregating"
	StateDone              State = "done"
	StatePartialFailure    State = "partial_failure"
)

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StatePartialFailure
}

// Progress is one progress event. Phase is a generator phase such as
// "rendering_interior", or one of the run-level phases "started",
// "completed" and "failed".
type Progress struct {
	Format  Format `json:"format"`
	Phase   string `json:"phase"`
	Percent int    `json:"percent"`
}

type ProgressFunc func(Progress)

// Artifact is one generated file.
type Artifact struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// FormatOutcome is the result of one requested format. Failed formats carry
// Error and ErrorCode and no files.
type FormatOutcome struct {
	Format    Format        `json:"format"`
	Success   bool          `json:"success"`
	Files     []Artifact    `json:"files,omitempty"`
	ISBN      string        `json:"isbn,omitempty"`
	Error     string        `json:"error,omitempty"`
	ErrorCode string        `json:"error_code,omitempty"`
	Warnings  []string      `json:"warnings,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
}

// ExportResult lists every requested format exactly once, in request order.
type ExportResult struct {
	RunID      string          `json:"run_id"`
	BookID     string          `json:"book_id"`
	State      State           `json:"state"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Outcomes   []FormatOutcome `json:"outcomes"`
}

// Outcome returns the outcome for f.
func (r *ExportResult) Outcome(f Format) (FormatOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.Format == f {
			return o, true
		}
	}
	return FormatOutcome{}, false
}

func (r *ExportResult) counts() (succeeded, failed int) {
	for _, o := range r.Outcomes {
		if o.Success {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}
