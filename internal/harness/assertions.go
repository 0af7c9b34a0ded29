package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/axiom/internal/audit"
	"github.com/roach88/axiom/internal/space"
)

// AssertionContext provides what assertions inspect besides the trace.
type AssertionContext struct {
	Space *space.Space
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Index, event.Action, strings.Join(argStrings(event.Args), " "))
		}
	}

	return buf.String()
}

// argStrings renders each audit argument as plain text.
func argStrings(args []audit.Value) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = fmt.Sprint(audit.Native(a))
	}
	return out
}

// matchArgs reports whether expected is a prefix of actual's rendering.
func matchArgs(actual []audit.Value, expected []string) bool {
	if len(expected) > len(actual) {
		return false
	}
	rendered := argStrings(actual[:len(expected)])
	for i := range expected {
		if rendered[i] != expected[i] {
			return false
		}
	}
	return true
}

// assertTraceContains checks if the trace contains an entry with the
// specified action whose arguments start with assertion.Args.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Action == assertion.Action && matchArgs(event.Args, assertion.Args) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("action %s with args %v", assertion.Action, assertion.Args),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if actions appear in the specified order.
// Actions don't need to be consecutive (intervening actions are allowed),
// and each expected action matches strictly after the previous match.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	pos := 0
	for _, want := range assertion.Actions {
		found := false
		for pos < len(trace) {
			event := trace[pos]
			pos++
			if event.Action == want {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("actions in order: %v", assertion.Actions),
				Actual:   fmt.Sprintf("%s not found after earlier matches", want),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks the exact number of entries with an action.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Action == assertion.Action {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d %s entries", assertion.Count, assertion.Action),
			Actual:   fmt.Sprintf("%d %s entries", count, assertion.Action),
			Trace:    trace,
		}
	}
	return nil
}

// assertChainValid re-verifies the chain. Valid nil means true.
func assertChainValid(sp *space.Space, assertion Assertion) error {
	want := true
	if assertion.Valid != nil {
		want = *assertion.Valid
	}
	got := sp.Chain().Verify()
	if got != want {
		actual := fmt.Sprintf("chain valid=%t", got)
		if err := sp.Chain().Check(); err != nil {
			actual = err.Error()
		}
		return &AssertionError{
			Type:     AssertChainValid,
			Expected: fmt.Sprintf("chain valid=%t", want),
			Actual:   actual,
		}
	}
	return nil
}

// assertStats compares the set counts with the Space.
func assertStats(sp *space.Space, assertion Assertion) error {
	var mismatches []string
	check := func(name string, want *int, got int) {
		if want != nil && *want != got {
			mismatches = append(mismatches, fmt.Sprintf("%s=%d (expected %d)", name, got, *want))
		}
	}
	check("nodes", assertion.Nodes, sp.NodeCount())
	check("relations", assertion.Relations, sp.RelationCount())
	check("forks", assertion.Forks, sp.ForkCount())

	if len(mismatches) > 0 {
		return &AssertionError{
			Type:     AssertStats,
			Expected: "space counts to match",
			Actual:   strings.Join(mismatches, ", "),
		}
	}
	return nil
}

// EvaluateAssertions runs every assertion and returns the failure messages.
// All assertions run even after one fails.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertChainValid:
			err = assertChainValid(actx.Space, a)
		case AssertStats:
			err = assertStats(actx.Space, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}
