package wrapper

import (
	"strings"

	"github.com/roach88/axiom/internal/space"
)

// Proposer chooses a strategy for an input given the current Space.
//
// This is the plug point for a learned selector. Whatever it returns must
// be a member of the closed Strategy set or Handle fails with
// ErrUnknownStrategy. Space is passed read-only by convention; a Proposer
// that mutates it breaks the decision audit trail.
type Proposer interface {
	Propose(sp *space.Space, input any, ctx Context) Strategy
}

// ProposerFunc adapts a function to Proposer.
type ProposerFunc func(sp *space.Space, input any, ctx Context) Strategy

// Propose calls f.
func (f ProposerFunc) Propose(sp *space.Space, input any, ctx Context) Strategy {
	return f(sp, input, ctx)
}

// RuleProposer is the default policy:
//   - non-string input: Escalate
//   - no node with the label: CreateNode
//   - exactly one: ReturnExisting
//   - more than one: CreateFork
//
// Labels are matched case-insensitively after trimming whitespace.
type RuleProposer struct{}

// Propose applies the default rules.
func (RuleProposer) Propose(sp *space.Space, input any, _ Context) Strategy {
	label, ok := input.(string)
	if !ok {
		return Escalate
	}
	switch matches := sp.FindByLabel(strings.TrimSpace(label), false); len(matches) {
	case 0:
		return CreateNode
	case 1:
		return ReturnExisting
	default:
		return CreateFork
	}
}
