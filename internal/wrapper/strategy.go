package wrapper

import (
	"github.com/cockroachdb/errors"
)

// Strategy is one of the closed set of actions the wrapper may take.
//
// No component can extend this set. A Proposer, rule-based or learned,
// selects among these values and nothing else; Handle rejects anything
// outside them before touching the Space.
type Strategy int

const (
	CreateNode Strategy = iota + 1
	ReturnExisting
	CreateFork
	ResolveFork
	AddRelation
	DerivePath
	DeriveSiblings
	DeriveTension
	Escalate
)

var strategyNames = map[Strategy]string{
	CreateNode:     "CREATE_NODE",
	ReturnExisting: "RETURN_EXISTING",
	CreateFork:     "CREATE_FORK",
	ResolveFork:    "RESOLVE_FORK",
	AddRelation:    "ADD_RELATION",
	DerivePath:     "DERIVE_PATH",
	DeriveSiblings: "DERIVE_SIBLINGS",
	DeriveTension:  "DERIVE_TENSION",
	Escalate:       "ESCALATE",
}

// Strategies returns every strategy in declaration order.
func Strategies() []Strategy {
	return []Strategy{
		CreateNode, ReturnExisting, CreateFork, ResolveFork, AddRelation,
		DerivePath, DeriveSiblings, DeriveTension, Escalate,
	}
}

// String returns the symbolic name, or "UNKNOWN".
func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Valid reports whether s is a member of the closed set.
func (s Strategy) Valid() bool {
	_, ok := strategyNames[s]
	return ok
}

// ParseStrategy maps a symbolic name back to its Strategy.
func ParseStrategy(name string) (Strategy, error) {
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownStrategy, "%q", name)
}

// MarshalText encodes the symbolic name.
func (s Strategy) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, errors.Wrapf(ErrUnknownStrategy, "%d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a symbolic name.
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
