package space

import (
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/axiom/internal/coord"
)

func TestRelationKindNames(t *testing.T) {
	tests := []struct {
		kind RelationKind
		name string
	}{
		{IsA, "IS_A"},
		{PartOf, "PART_OF"},
		{HasProperty, "HAS_PROPERTY"},
		{Causes, "CAUSES"},
		{LocatedIn, "LOCATED_IN"},
		{OccursAt, "OCCURS_AT"},
		{SimilarTo, "SIMILAR_TO"},
		{Contradicts, "CONTRADICTS"},
		{ForkedFrom, "FORKED_FROM"},
		{DerivedFrom, "DERIVED_FROM"},
	}
	require.Len(t, RelationKinds(), len(tests))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.kind.String())
			parsed, err := ParseRelationKind(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, parsed)
		})
	}
}

func TestParseRelationKindRejectsUnknown(t *testing.T) {
	for _, name := range []string{"", "is_a", "LIKES"} {
		_, err := ParseRelationKind(name)
		assert.True(t, errors.Is(err, ErrUnknownRelationKind), "name %q", name)
	}
	assert.False(t, RelationKind(0).Valid())
	assert.Equal(t, "UNKNOWN", RelationKind(99).String())
}

func TestNodeAddRelationSuppressesDuplicates(t *testing.T) {
	feline := NewNode(coord.MustParse("01-01-02-0001"), "feline", nil)
	animal := NewNode(coord.MustParse("01-01-01-0001"), "animal", nil)

	added, err := feline.AddRelation(IsA, animal)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = feline.AddRelation(IsA, animal)
	require.NoError(t, err)
	assert.False(t, added)

	assert.Equal(t, []string{"01-01-01-0001"}, feline.Relations(IsA))
	assert.Empty(t, feline.Relations(Causes))
	assert.Equal(t, 1, feline.RelationCount())
}

func TestNodeAddRelationInvalidKind(t *testing.T) {
	n := NewNode(coord.MustParse("01-01-01-0001"), "a", nil)
	_, err := n.AddRelation(RelationKind(42), n)
	assert.True(t, errors.Is(err, ErrUnknownRelationKind))
	assert.Zero(t, n.RelationCount())
}

func TestNodeKindsKeepInsertionOrder(t *testing.T) {
	n := NewNode(coord.MustParse("01-01-01-0001"), "a", nil)
	b := NewNode(coord.MustParse("01-01-01-0002"), "b", nil)
	c := NewNode(coord.MustParse("01-01-01-0003"), "c", nil)

	_, _ = n.AddRelation(SimilarTo, b)
	_, _ = n.AddRelation(IsA, c)
	_, _ = n.AddRelation(SimilarTo, c)

	assert.Equal(t, []RelationKind{SimilarTo, IsA}, n.Kinds())
	assert.Equal(t, []string{"01-01-01-0002", "01-01-01-0003"}, n.Relations(SimilarTo))
}

func sampleNode() *Node {
	n := NewNode(coord.MustParse("03-02-01-0007"), "jaguar", map[string]any{
		"source":  "seed",
		"extinct": false,
	})
	_, _ = n.AddRelation(IsA, NewNode(coord.MustParse("01-01-02-0001"), "feline", nil))
	_, _ = n.AddRelation(LocatedIn, NewNode(coord.MustParse("04-01-01-0001"), "jungle", nil))
	_, _ = n.AddRelation(LocatedIn, NewNode(coord.MustParse("04-01-01-0002"), "savanna", nil))
	return n
}

func TestNodeMapRoundTrip(t *testing.T) {
	n := sampleNode()
	m := n.ToMap()

	assert.Equal(t, "03-02-01-0007", m["id"])
	assert.Equal(t, "jaguar", m["label"])
	assert.Equal(t, map[string][]string{
		"IS_A":       {"01-01-02-0001"},
		"LOCATED_IN": {"04-01-01-0001", "04-01-01-0002"},
	}, m["relations"])

	back, err := NodeFromMap(m)
	require.NoError(t, err)
	assert.True(t, n.Equal(back))
	assert.Equal(t, n.Kinds(), back.Kinds())
}

func TestNodeJSONRoundTrip(t *testing.T) {
	n := sampleNode()
	data, err := json.Marshal(n)
	require.NoError(t, err)

	var back Node
	require.NoError(t, json.Unmarshal(data, &back))

	assert.True(t, n.Equal(&back))
	if diff := cmp.Diff(n.ToMap(), back.ToMap()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestNodeFromMapRejectsUnknownKind(t *testing.T) {
	_, err := NodeFromMap(map[string]any{
		"id":        "01-01-01-0001",
		"label":     "x",
		"relations": map[string]any{"LIKES": []any{"01-01-01-0002"}},
	})
	assert.True(t, errors.Is(err, ErrUnknownRelationKind))
}

func TestNodeFromMapSuppressesDuplicates(t *testing.T) {
	n, err := NodeFromMap(map[string]any{
		"id":    "01-01-02-0001",
		"label": "feline",
		"relations": map[string]any{
			"IS_A":       []any{"01-01-01-0001", "01-01-01-0001"},
			"SIMILAR_TO": []any{"01-01-03-0001"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n.RelationCount())
	assert.Equal(t, []string{"01-01-01-0001"}, n.Relations(IsA))
	assert.Equal(t, []RelationKind{IsA, SimilarTo}, n.Kinds())
}

func TestNodeFromMapErrors(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want error
	}{
		{"missing id", map[string]any{"label": "x"}, ErrMalformedNode},
		{"bad id", map[string]any{"id": "1-1-1-1", "label": "x"}, coord.ErrFormat},
		{"id out of range", map[string]any{"id": "09-01-01-0001", "label": "x"}, coord.ErrRange},
		{"missing label", map[string]any{"id": "01-01-01-0001"}, ErrMalformedNode},
		{"metadata not a map", map[string]any{"id": "01-01-01-0001", "label": "x", "metadata": "no"}, ErrMalformedNode},
		{"bad target", map[string]any{
			"id": "01-01-01-0001", "label": "x",
			"relations": map[string]any{"IS_A": []any{"nope"}},
		}, coord.ErrFormat},
		{"target not a string", map[string]any{
			"id": "01-01-01-0001", "label": "x",
			"relations": map[string]any{"IS_A": []any{7}},
		}, ErrMalformedNode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NodeFromMap(tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestNodeEqualIgnoresNilMetadata(t *testing.T) {
	id := coord.MustParse("01-01-01-0001")
	a := &Node{ID: id, Label: "a"}
	b := NewNode(id, "a", nil)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(NewNode(id, "b", nil)))
	assert.False(t, a.Equal(nil))
}
