package space

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/axiom/internal/audit"
	"github.com/roach88/axiom/internal/coord"
)

func labels(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Label
	}
	return out
}

// animalSpace builds animal(01-01-01-0001), feline(01-01-02-0001) and
// canine(01-01-03-0001), with feline and canine IS_A animal.
func animalSpace(t *testing.T) (*Space, *Node, *Node, *Node) {
	t.Helper()
	s := newTestSpace()
	animal := mustAdd(t, s, "01-01-01-0001", "animal")
	feline := mustAdd(t, s, "01-01-02-0001", "feline")
	canine := mustAdd(t, s, "01-01-03-0001", "canine")
	require.NoError(t, s.AddRelation(feline, IsA, animal))
	require.NoError(t, s.AddRelation(canine, IsA, animal))
	return s, animal, feline, canine
}

func TestAnimalScenario(t *testing.T) {
	s, animal, feline, _ := animalSpace(t)

	// Siblings share type: all three are mutual siblings.
	assert.Equal(t, []string{"animal", "canine"}, labels(s.DeriveSiblings(feline)))

	path := s.DerivePath(feline, animal)
	assert.Equal(t, []string{"feline", "animal"}, path.Labels())
	assert.Len(t, path, 2)

	assert.Equal(t, []string{ActionAdd, ActionAdd, ActionAdd, ActionRelate, ActionRelate, ActionDerive, ActionDerive}, actions(s))
	assert.True(t, s.Chain().Verify())
}

func TestDeriveCousinsAndCategory(t *testing.T) {
	s := newTestSpace()
	a := mustAdd(t, s, "01-01-01-0001", "a")
	mustAdd(t, s, "01-01-01-0002", "a2")
	mustAdd(t, s, "01-01-02-0001", "sibling")
	mustAdd(t, s, "01-02-01-0001", "same major")
	mustAdd(t, s, "03-01-01-0001", "elsewhere")

	assert.Equal(t, []string{"a2"}, labels(s.DeriveCousins(a)))
	assert.Equal(t, []string{"a", "a2", "sibling", "same major"}, labels(s.DeriveCategory(1)))
	assert.Empty(t, s.DeriveCategory(8))

	entries := s.Chain().Last(3)
	assert.Equal(t, []audit.Value{audit.S("cousins"), audit.S("01-01-01-0001")}, entries[0].Args)
	assert.Equal(t, []audit.Value{audit.S("category"), audit.I(1)}, entries[1].Args)
	assert.Equal(t, []audit.Value{audit.S("category"), audit.I(8)}, entries[2].Args)
}

func TestDerivePathSameNode(t *testing.T) {
	s, animal, _, _ := animalSpace(t)
	path := s.DerivePath(animal, animal)
	assert.Equal(t, []string{"animal"}, path.Labels())
}

func TestDerivePathMultiHop(t *testing.T) {
	s := newTestSpace()
	jaguar := mustAdd(t, s, "01-01-02-0002", "jaguar")
	feline := mustAdd(t, s, "01-01-02-0001", "feline")
	mammal := mustAdd(t, s, "01-02-01-0001", "mammal")
	require.NoError(t, s.AddRelation(jaguar, IsA, feline))
	require.NoError(t, s.AddRelation(feline, IsA, mammal))

	path := s.DerivePath(jaguar, mammal)
	assert.Equal(t, []string{"jaguar", "feline", "mammal"}, path.Labels())

	last := s.Chain().Last(1)[0]
	assert.Equal(t, []audit.Value{audit.S("path"), audit.S("01-01-02-0001"), audit.S("->"), audit.S("01-02-01-0001")}, last.Args)
}

func TestDerivePathViaSibling(t *testing.T) {
	s := newTestSpace()
	a := mustAdd(t, s, "01-01-01-0001", "a")
	b := mustAdd(t, s, "01-01-02-0001", "b")
	c := mustAdd(t, s, "02-01-01-0001", "c")
	require.NoError(t, s.AddRelation(b, Causes, c))

	path := s.DerivePath(a, c)
	assert.Equal(t, []string{"a", ViaSibling, "b", "c"}, path.Labels())
	assert.Equal(t, []string{"a", "b", "c"}, labels(path.Nodes()))
	assert.Nil(t, path[1].Node)
}

func TestDerivePathPrefersRelationsOverSiblings(t *testing.T) {
	s := newTestSpace()
	a := mustAdd(t, s, "01-01-01-0001", "a")
	sib := mustAdd(t, s, "01-01-02-0001", "sib")
	mid := mustAdd(t, s, "03-01-01-0001", "mid")
	end := mustAdd(t, s, "02-01-01-0001", "end")
	require.NoError(t, s.AddRelation(sib, Causes, end))
	require.NoError(t, s.AddRelation(a, PartOf, mid))
	require.NoError(t, s.AddRelation(mid, Causes, end))

	path := s.DerivePath(a, end)
	assert.Equal(t, []string{"a", "mid", "end"}, path.Labels())
}

func TestDerivePathFirstFoundNotShortest(t *testing.T) {
	s := newTestSpace()
	a := mustAdd(t, s, "01-01-01-0001", "a")
	b := mustAdd(t, s, "02-01-01-0001", "b")
	c := mustAdd(t, s, "03-01-01-0001", "c")
	d := mustAdd(t, s, "04-01-01-0001", "d")
	require.NoError(t, s.AddRelation(a, IsA, b))
	require.NoError(t, s.AddRelation(b, IsA, c))
	require.NoError(t, s.AddRelation(c, IsA, d))
	require.NoError(t, s.AddRelation(a, Causes, d))

	path := s.DerivePath(a, d)
	assert.Equal(t, []string{"a", "b", "c", "d"}, path.Labels(), "IS_A was inserted first and is explored first")
}

func TestDerivePathNone(t *testing.T) {
	s := newTestSpace()
	a := mustAdd(t, s, "01-01-01-0001", "a")
	b := mustAdd(t, s, "01-02-01-0001", "b")
	c := mustAdd(t, s, "02-01-01-0001", "c")
	require.NoError(t, s.AddRelation(a, IsA, b))
	require.NoError(t, s.AddRelation(b, IsA, a))

	assert.Nil(t, s.DerivePath(a, c), "cycles terminate")
}

func TestDeriveTension(t *testing.T) {
	s := newTestSpace()
	source := mustAdd(t, s, "01-01-01-0001", "bank")

	assert.Equal(t, 1.0, s.DeriveTension(source))

	_, _, err := s.CreateFork(source, []string{"a", "b"})
	require.NoError(t, err)
	tension := s.DeriveTension(source)
	assert.Greater(t, tension, 1.0)
	assert.Equal(t, 3.0, tension)

	last := s.Chain().Last(1)[0]
	assert.Equal(t, []audit.Value{audit.S("tension"), audit.S("01-01-01-0001"), audit.S("3.00")}, last.Args)

	other := mustAdd(t, s, "02-01-01-0001", "river")
	require.NoError(t, s.AddRelation(source, LocatedIn, other))
	assert.Equal(t, 1.5, s.DeriveTension(source))
}

func TestDeriveNeighbors(t *testing.T) {
	s := newTestSpace()
	n := mustAdd(t, s, "01-01-01-0001", "n")
	mustAdd(t, s, "02-01-01-0001", "d4")
	mustAdd(t, s, "01-01-02-0001", "d2")
	mustAdd(t, s, "01-02-01-0001", "d3")
	mustAdd(t, s, "01-01-01-0002", "d1")
	mustAdd(t, s, "01-01-03-0001", "d2b")

	got := s.DeriveNeighbors(n, DefaultNeighborDistance)
	var names []string
	var dists []int
	for _, nb := range got {
		names = append(names, nb.Node.Label)
		dists = append(dists, nb.Distance)
	}
	assert.Equal(t, []string{"d1", "d2", "d2b"}, names)
	assert.Equal(t, []int{1, 2, 2}, dists)

	assert.Len(t, s.DeriveNeighbors(n, 4), 5)
	assert.Empty(t, s.DeriveNeighbors(n, 0))
}

func TestStats(t *testing.T) {
	s := newTestSpace()
	assert.Equal(t, 0.0, s.DerivationRatio())

	for i := 1; i <= 100; i++ {
		_, err := s.Add(NewNode(coord.MustNew(1, 1, 1, i), fmt.Sprintf("n%d", i), nil))
		require.NoError(t, err)
	}
	assert.Equal(t, 100.0, s.DerivationRatio())

	first, _ := s.Get("01-01-01-0001")
	second, _ := s.Get("01-01-01-0002")
	require.NoError(t, s.AddRelation(first, SimilarTo, second))
	_, _, err := s.CreateFork(first, []string{"a", "b"})
	require.NoError(t, err)

	sum := s.Summary()
	assert.Equal(t, 102, sum.Nodes)
	assert.Equal(t, 3, sum.Relations, "one explicit plus two FORKED_FROM")
	assert.Equal(t, 1, sum.Forks)
	assert.InDelta(t, 102.0*102.0/105.0, sum.DerivationRatio, 1e-9)
	assert.Equal(t, 102, sum.AuditEntries)
	assert.True(t, sum.ChainValid)
}
