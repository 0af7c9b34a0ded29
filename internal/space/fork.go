package space

import (
	"slices"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/roach88/axiom/internal/coord"
)

// ErrNotABranch is returned when resolving a fork to a coordinate that is not one of its branches.
var ErrNotABranch = errors.New("not a branch of this fork")

// Fork records that one coordinate's label has split into several senses.
// The branch list only grows; a resolved fork can be re-resolved to another branch.
type Fork struct {
	Source    coord.Coordinate
	CreatedAt time.Time
	Metadata  map[string]any

	branches []coord.Coordinate
	resolved coord.Coordinate
}

// NewFork creates an unresolved fork.
func NewFork(source coord.Coordinate, branches []coord.Coordinate, createdAt time.Time) *Fork {
	f := &Fork{
		Source:    source,
		CreatedAt: createdAt,
		Metadata:  make(map[string]any),
	}
	for _, b := range branches {
		f.AddBranch(b)
	}
	return f
}

// Branches returns the branch coordinates in order.
func (f *Fork) Branches() []coord.Coordinate {
	return slices.Clone(f.branches)
}

// BranchCount is the number of branches.
func (f *Fork) BranchCount() int {
	return len(f.branches)
}

// AddBranch appends id unless already present. Returns true if added.
func (f *Fork) AddBranch(id coord.Coordinate) bool {
	if slices.Contains(f.branches, id) {
		return false
	}
	f.branches = append(f.branches, id)
	return true
}

// HasBranch reports whether id is a branch.
func (f *Fork) HasBranch(id coord.Coordinate) bool {
	return slices.Contains(f.branches, id)
}

// Resolve marks chosen as the fork's meaning.
func (f *Fork) Resolve(chosen coord.Coordinate) error {
	if !f.HasBranch(chosen) {
		return errors.Wrapf(ErrNotABranch, "%s is not a branch of fork %s", chosen, f.Source)
	}
	f.resolved = chosen
	return nil
}

// IsResolved reports whether Resolve has succeeded.
func (f *Fork) IsResolved() bool {
	return !f.resolved.IsZero()
}

// ResolvedTo returns the chosen branch, if any.
func (f *Fork) ResolvedTo() (coord.Coordinate, bool) {
	return f.resolved, f.IsResolved()
}
