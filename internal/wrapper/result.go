package wrapper

import (
	"fmt"
	"strings"

	"github.com/roach88/axiom/internal/space"
)

// Escalation is the Escalate strategy's result: a deferral to a human or an
// outer system, returned instead of an error.
type Escalation struct {
	Input  any
	Reason string
}

// ForkResult is the CreateFork strategy's result.
type ForkResult struct {
	Fork     *space.Fork
	Branches []*space.Node
}

// RelationResult is the AddRelation strategy's result.
type RelationResult struct {
	Source *space.Node
	Kind   space.RelationKind
	Target *space.Node
}

// Describe renders a strategy result as a single line for the audit chain
// and CLI output. Output is deterministic for a given result.
func Describe(result any) string {
	switch r := result.(type) {
	case nil:
		return "<nil>"
	case *space.Node:
		return describeNode(r)
	case []*space.Node:
		parts := make([]string, len(r))
		for i, n := range r {
			parts[i] = describeNode(n)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ForkResult:
		codes := make([]string, len(r.Branches))
		for i, b := range r.Branches {
			codes[i] = b.Code()
		}
		return fmt.Sprintf("fork %s -> [%s]", r.Fork.Source, strings.Join(codes, ", "))
	case *space.Fork:
		if chosen, ok := r.ResolvedTo(); ok {
			return fmt.Sprintf("fork %s resolved to %s", r.Source, chosen)
		}
		return fmt.Sprintf("fork %s unresolved", r.Source)
	case RelationResult:
		return fmt.Sprintf("%s %s %s", r.Source.Code(), r.Kind, r.Target.Code())
	case space.Path:
		if len(r) == 0 {
			return "no path"
		}
		return strings.Join(r.Labels(), " -> ")
	case float64:
		return fmt.Sprintf("%.2f", r)
	case Escalation:
		return fmt.Sprintf("escalated: %v", r.Input)
	default:
		return fmt.Sprint(r)
	}
}

func describeNode(n *space.Node) string {
	return fmt.Sprintf("%s (%s)", n.Label, n.Code())
}

func describeInput(input any) string {
	if s, ok := input.(string); ok {
		return s
	}
	return fmt.Sprint(input)
}

// auditText truncates s and replaces any invalid UTF-8 a non-string input
// rendered into.
func auditText(s string, n int) string {
	return truncate(strings.ToValidUTF8(s, "\uFFFD"), n)
}

// truncate caps s at n runes.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
