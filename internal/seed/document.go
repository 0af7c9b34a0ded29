// Package seed loads seed documents into a Space.
//
// A seed document names nodes by key and positions them by prefix only
// (major, type, subtype); the Loader allocates instances through an
// alloc.Allocator, then wires relations and forks by key. Documents are
// YAML or CUE. CUE documents are unified with an embedded #Document schema
// before decoding.
package seed

import (
	"fmt"

	"cuelang.org/go/cue/token"
	"github.com/cockroachdb/errors"

	"github.com/roach88/axiom/internal/coord"
)

var (
	// ErrInvalidDocument is returned for a document that fails to parse or validate.
	ErrInvalidDocument = errors.New("invalid seed document")

	// ErrUnknownKey is returned when a relation or fork names a key no node declares.
	ErrUnknownKey = errors.New("unknown node key")
)

// Document is a parsed seed file.
type Document struct {
	Nodes     []NodeSpec     `yaml:"nodes" json:"nodes"`
	Relations []RelationSpec `yaml:"relations" json:"relations"`
	Forks     []ForkSpec     `yaml:"forks" json:"forks"`
}

// NodeSpec declares one node. Subtype defaults to 1.
type NodeSpec struct {
	Key      string         `yaml:"key" json:"key"`
	Major    int            `yaml:"major" json:"major"`
	Type     int            `yaml:"type" json:"type"`
	Subtype  int            `yaml:"subtype" json:"subtype"`
	Label    string         `yaml:"label" json:"label"`
	Metadata map[string]any `yaml:"metadata" json:"metadata"`
}

// RelationSpec declares from -kind-> to by key.
type RelationSpec struct {
	From string `yaml:"from" json:"from"`
	Kind string `yaml:"kind" json:"kind"`
	To   string `yaml:"to" json:"to"`
}

// ForkSpec splits a node into branch senses.
type ForkSpec struct {
	Node     string   `yaml:"node" json:"node"`
	Branches []string `yaml:"branches" json:"branches"`
}

// DocumentError locates a parse or validation failure. It matches
// ErrInvalidDocument under errors.Is.
type DocumentError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *DocumentError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap returns ErrInvalidDocument.
func (e *DocumentError) Unwrap() error {
	return ErrInvalidDocument
}

func invalid(field, format string, args ...any) error {
	return &DocumentError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate applies defaults and checks the document independent of format.
// Relation kinds and key references are checked by the Loader.
func (d *Document) Validate() error {
	seen := make(map[string]bool, len(d.Nodes))
	for i := range d.Nodes {
		n := &d.Nodes[i]
		field := fmt.Sprintf("nodes[%d]", i)
		if n.Key == "" {
			return invalid(field+".key", "required")
		}
		if seen[n.Key] {
			return invalid(field+".key", "duplicate key %q", n.Key)
		}
		seen[n.Key] = true
		if n.Label == "" {
			return invalid(field+".label", "required")
		}
		if n.Subtype == 0 {
			n.Subtype = 1
		}
		if n.Major < coord.MinMajor || n.Major > coord.MaxMajor {
			return invalid(field+".major", "%d not in %d..%d", n.Major, coord.MinMajor, coord.MaxMajor)
		}
		if n.Type < coord.MinType || n.Type > coord.MaxType {
			return invalid(field+".type", "%d not in %d..%d", n.Type, coord.MinType, coord.MaxType)
		}
		if n.Subtype < coord.MinSubtype || n.Subtype > coord.MaxSubtype {
			return invalid(field+".subtype", "%d not in %d..%d", n.Subtype, coord.MinSubtype, coord.MaxSubtype)
		}
	}
	for i, r := range d.Relations {
		if r.From == "" || r.Kind == "" || r.To == "" {
			return invalid(fmt.Sprintf("relations[%d]", i), "from, kind and to are required")
		}
	}
	for i, f := range d.Forks {
		if f.Node == "" {
			return invalid(fmt.Sprintf("forks[%d].node", i), "required")
		}
		if len(f.Branches) == 0 {
			return invalid(fmt.Sprintf("forks[%d].branches", i), "at least one branch is required")
		}
	}
	return nil
}
