package space

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/axiom/internal/coord"
)

func TestForkBranches(t *testing.T) {
	b1 := coord.MustParse("01-01-01-0002")
	b2 := coord.MustParse("01-01-01-0003")
	f := NewFork(coord.MustParse("01-01-01-0001"), []coord.Coordinate{b1, b2, b1}, time.Time{})

	assert.Equal(t, 2, f.BranchCount())
	assert.True(t, f.HasBranch(b2))
	assert.False(t, f.AddBranch(b2))
	assert.True(t, f.AddBranch(coord.MustParse("01-01-01-0004")))
	assert.Equal(t, 3, f.BranchCount())
}

func TestForkResolve(t *testing.T) {
	b1 := coord.MustParse("01-01-01-0002")
	b2 := coord.MustParse("01-01-01-0003")
	f := NewFork(coord.MustParse("01-01-01-0001"), []coord.Coordinate{b1, b2}, time.Time{})

	_, ok := f.ResolvedTo()
	assert.False(t, ok)

	err := f.Resolve(coord.MustParse("01-01-01-0009"))
	assert.True(t, errors.Is(err, ErrNotABranch))
	assert.False(t, f.IsResolved())

	require.NoError(t, f.Resolve(b2))
	got, ok := f.ResolvedTo()
	assert.True(t, ok)
	assert.Equal(t, b2, got)

	require.NoError(t, f.Resolve(b1), "re-resolving to another branch is allowed")
	got, _ = f.ResolvedTo()
	assert.Equal(t, b1, got)
}
