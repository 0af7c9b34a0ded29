package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/axiom/internal/audit"
)

// TraceSnapshot captures the trace of a scenario execution.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// Value converts the snapshot to an audit.Value for canonical marshaling.
// Timestamps and hashes are excluded, so a snapshot depends only on the
// operations performed.
func (s *TraceSnapshot) Value() audit.Value {
	events := make(audit.List, len(s.Trace))
	for i, event := range s.Trace {
		args := make(audit.List, len(event.Args))
		copy(args, event.Args)
		events[i] = audit.Object{
			"index":  audit.I(event.Index),
			"action": audit.S(event.Action),
			"args":   args,
		}
	}
	return audit.Object{
		"scenario_name": audit.S(s.ScenarioName),
		"trace":         events,
	}
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s *TraceSnapshot) MarshalCanonical() ([]byte, error) {
	return audit.MarshalCanonical(s.Value())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
	}
	traceJSON, err := snapshot.MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
