package harness

import (
	"github.com/roach88/axiom/internal/audit"
	"github.com/roach88/axiom/internal/space"
)

// TraceEvent is one audit entry, without its timestamp and hashes, so
// traces compare across runs and clocks.
type TraceEvent struct {
	Index  int           `json:"index"`
	Action string        `json:"action"`
	Args   []audit.Value `json:"args"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace is the audit chain in append order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Summary is the final Space statistics.
	Summary space.Summary `json:"summary"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// traceFrom converts chain entries to trace events.
func traceFrom(entries []audit.Entry) []TraceEvent {
	out := make([]TraceEvent, len(entries))
	for i, e := range entries {
		out[i] = TraceEvent{Index: e.Index, Action: e.Action, Args: e.Args}
	}
	return out
}
