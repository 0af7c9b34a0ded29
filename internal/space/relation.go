package space

import (
	"github.com/cockroachdb/errors"
)

// ErrUnknownRelationKind is returned when a relation-kind name is not in the closed set.
var ErrUnknownRelationKind = errors.New("unknown relation kind")

// RelationKind is a typed edge label. The set is closed; there is no way to
// register a new kind at runtime.
type RelationKind int

// Relation kinds.
const (
	IsA         RelationKind = iota + 1 // taxonomic
	PartOf                              // mereological
	HasProperty                         // attributive
	Causes                              // causal
	LocatedIn                           // spatial
	OccursAt                            // temporal
	SimilarTo                           // analogical
	Contradicts                         // oppositional
	ForkedFrom                          // ambiguity lineage
	DerivedFrom                         // derivation lineage
)

var relationNames = map[RelationKind]string{
	IsA:         "IS_A",
	PartOf:      "PART_OF",
	HasProperty: "HAS_PROPERTY",
	Causes:      "CAUSES",
	LocatedIn:   "LOCATED_IN",
	OccursAt:    "OCCURS_AT",
	SimilarTo:   "SIMILAR_TO",
	Contradicts: "CONTRADICTS",
	ForkedFrom:  "FORKED_FROM",
	DerivedFrom: "DERIVED_FROM",
}

var relationsByName = func() map[string]RelationKind {
	m := make(map[string]RelationKind, len(relationNames))
	for k, name := range relationNames {
		m[name] = k
	}
	return m
}()

// RelationKinds returns every kind in declaration order.
func RelationKinds() []RelationKind {
	out := make([]RelationKind, 0, len(relationNames))
	for k := IsA; k <= DerivedFrom; k++ {
		out = append(out, k)
	}
	return out
}

// String returns the symbolic name, e.g. "IS_A".
func (k RelationKind) String() string {
	if name, ok := relationNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// Valid reports whether k is a member of the closed set.
func (k RelationKind) Valid() bool {
	_, ok := relationNames[k]
	return ok
}

// ParseRelationKind maps a symbolic name back to its kind.
func ParseRelationKind(name string) (RelationKind, error) {
	if k, ok := relationsByName[name]; ok {
		return k, nil
	}
	return 0, errors.Wrapf(ErrUnknownRelationKind, "%q", name)
}

// MarshalText implements encoding.TextMarshaler so kinds serialize by name.
func (k RelationKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, errors.Wrapf(ErrUnknownRelationKind, "%d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *RelationKind) UnmarshalText(text []byte) error {
	parsed, err := ParseRelationKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
