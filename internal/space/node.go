package space

import (
	"encoding/json"
	"maps"
	"reflect"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/roach88/axiom/internal/coord"
)

// ErrMalformedNode is returned when a serialized node lacks a required key
// or carries a value of the wrong shape.
var ErrMalformedNode = errors.New("malformed node")

// Node is a labeled entity positioned at a coordinate.
//
// Relations are stored as target coordinate codes, never as pointers: a
// target is looked up in the owning Space, so a code may dangle if its node
// is never added. Each kind's target list suppresses duplicates and keeps
// insertion order; kinds themselves are kept in first-insertion order.
type Node struct {
	ID       coord.Coordinate
	Label    string
	Metadata map[string]any

	relations map[RelationKind][]string
	kinds     []RelationKind
}

// NewNode creates a node with no relations. metadata may be nil.
func NewNode(id coord.Coordinate, label string, metadata map[string]any) *Node {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	return &Node{
		ID:        id,
		Label:     label,
		Metadata:  metadata,
		relations: make(map[RelationKind][]string),
	}
}

// Code is shorthand for n.ID.Code().
func (n *Node) Code() string {
	return n.ID.Code()
}

// AddRelation appends target's code under kind unless already present.
// Returns true if the relation was new.
func (n *Node) AddRelation(kind RelationKind, target *Node) (bool, error) {
	if target == nil {
		return false, errors.Wrap(ErrUnknownNode, "nil relation target")
	}
	return n.addCode(kind, target.Code())
}

func (n *Node) addCode(kind RelationKind, code string) (bool, error) {
	if !kind.Valid() {
		return false, errors.Wrapf(ErrUnknownRelationKind, "%d", int(kind))
	}
	if n.relations == nil {
		n.relations = make(map[RelationKind][]string)
	}
	targets, seen := n.relations[kind]
	if slices.Contains(targets, code) {
		return false, nil
	}
	if !seen {
		n.kinds = append(n.kinds, kind)
	}
	n.relations[kind] = append(targets, code)
	return true, nil
}

// Relations returns the target codes stored for kind, or an empty slice.
func (n *Node) Relations(kind RelationKind) []string {
	return slices.Clone(n.relations[kind])
}

// Kinds returns the relation kinds present on n in first-insertion order.
func (n *Node) Kinds() []RelationKind {
	return slices.Clone(n.kinds)
}

// RelationCount is the total number of stored targets across all kinds.
func (n *Node) RelationCount() int {
	total := 0
	for _, targets := range n.relations {
		total += len(targets)
	}
	return total
}

// Equal compares id, label, metadata and relations. Kind order is ignored;
// per-kind target order is not.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.ID != o.ID || n.Label != o.Label {
		return false
	}
	if (len(n.Metadata) != 0 || len(o.Metadata) != 0) && !reflect.DeepEqual(n.Metadata, o.Metadata) {
		return false
	}
	if len(n.relations) != len(o.relations) {
		return false
	}
	for kind, targets := range n.relations {
		if !slices.Equal(targets, o.relations[kind]) {
			return false
		}
	}
	return true
}

// ToMap serializes the node as a map with keys id, label, metadata and
// relations. Relation kinds are keyed by symbolic name.
func (n *Node) ToMap() map[string]any {
	rels := make(map[string][]string, len(n.relations))
	for _, kind := range n.kinds {
		rels[kind.String()] = slices.Clone(n.relations[kind])
	}
	meta := n.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	return map[string]any{
		"id":        n.Code(),
		"label":     n.Label,
		"metadata":  maps.Clone(meta),
		"relations": rels,
	}
}

// NodeFromMap is the inverse of ToMap. It accepts both the typed shapes
// ToMap produces and the generic shapes encoding/json decodes into.
//
// Unknown relation-kind names fail with ErrUnknownRelationKind. Kinds are
// restored in declaration order, since a map carries no order. Duplicate
// targets collapse as they do in AddRelation.
func NodeFromMap(data map[string]any) (*Node, error) {
	code, ok := data["id"].(string)
	if !ok {
		return nil, errors.Wrap(ErrMalformedNode, "id must be a string")
	}
	id, err := coord.Parse(code)
	if err != nil {
		return nil, errors.Wrap(err, "node id")
	}
	label, ok := data["label"].(string)
	if !ok {
		return nil, errors.Wrapf(ErrMalformedNode, "%s: label must be a string", code)
	}

	var meta map[string]any
	switch m := data["metadata"].(type) {
	case nil:
	case map[string]any:
		meta = maps.Clone(m)
	default:
		return nil, errors.Wrapf(ErrMalformedNode, "%s: metadata must be a map, got %T", code, m)
	}

	rels, err := relationsFromAny(data["relations"])
	if err != nil {
		return nil, errors.Wrapf(err, "node %s", code)
	}

	n := NewNode(id, label, meta)
	for _, kind := range RelationKinds() {
		for _, target := range rels[kind] {
			if _, err := n.addCode(kind, target); err != nil {
				return nil, errors.Wrapf(err, "node %s", code)
			}
		}
	}
	return n, nil
}

func relationsFromAny(raw any) (map[RelationKind][]string, error) {
	out := make(map[RelationKind][]string)
	add := func(name string, targets []string) error {
		kind, err := ParseRelationKind(name)
		if err != nil {
			return err
		}
		for _, t := range targets {
			if _, err := coord.Parse(t); err != nil {
				return errors.Wrapf(err, "%s target", name)
			}
		}
		out[kind] = slices.Clone(targets)
		return nil
	}

	switch rels := raw.(type) {
	case nil:
	case map[string][]string:
		for name, targets := range rels {
			if err := add(name, targets); err != nil {
				return nil, err
			}
		}
	case map[string]any:
		for name, v := range rels {
			targets, err := stringList(v)
			if err != nil {
				return nil, errors.Wrapf(err, "relations[%q]", name)
			}
			if err := add(name, targets); err != nil {
				return nil, err
			}
		}
	default:
		return nil, errors.Wrapf(ErrMalformedNode, "relations must be a map, got %T", raw)
	}
	return out, nil
}

func stringList(v any) ([]string, error) {
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, len(list))
		for i, elem := range list {
			s, ok := elem.(string)
			if !ok {
				return nil, errors.Wrapf(ErrMalformedNode, "[%d] must be a string, got %T", i, elem)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, errors.Wrapf(ErrMalformedNode, "must be a list, got %T", v)
	}
}

// MarshalJSON encodes ToMap.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.ToMap())
}

// UnmarshalJSON decodes via NodeFromMap.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := NodeFromMap(raw)
	if err != nil {
		return err
	}
	*n = *decoded
	return nil
}
