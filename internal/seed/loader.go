package seed

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/roach88/axiom/internal/alloc"
	"github.com/roach88/axiom/internal/space"
)

// NodeResult reports where a declared node ended up.
type NodeResult struct {
	Key  string `json:"key"`
	Code string `json:"code"`
	// Skipped is true when the allocated coordinate was already stored;
	// the key then refers to the existing node.
	Skipped bool `json:"skipped,omitempty"`
}

// ForkResult reports the branches created for a fork.
type ForkResult struct {
	Node     string   `json:"node"`
	Source   string   `json:"source"`
	Branches []string `json:"branches"`
}

// Report summarizes one Apply.
type Report struct {
	Nodes     []NodeResult `json:"nodes"`
	Relations int          `json:"relations"`
	Forks     []ForkResult `json:"forks"`
}

// Code returns the coordinate code bound to key.
func (r *Report) Code(key string) (string, bool) {
	for _, n := range r.Nodes {
		if n.Key == key {
			return n.Code, true
		}
	}
	return "", false
}

// Created is the number of nodes actually added.
func (r *Report) Created() int {
	count := 0
	for _, n := range r.Nodes {
		if !n.Skipped {
			count++
		}
	}
	return count
}

// Loader applies documents to a Space using an injected Allocator.
// It touches the Space only through Add, AddRelation and CreateFork.
type Loader struct {
	alloc *alloc.Allocator
	space *space.Space
	log   *zap.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger. Default: zap.NewNop().
func WithLogger(l *zap.Logger) LoaderOption {
	return func(ld *Loader) {
		ld.log = l
	}
}

// NewLoader binds an allocator and a Space.
func NewLoader(a *alloc.Allocator, sp *space.Space, opts ...LoaderOption) *Loader {
	l := &Loader{alloc: a, space: sp, log: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Apply adds nodes, then relations, then forks, in document order.
//
// Apply is not transactional: on error, everything applied before the
// failing item stays in the Space (and on its audit chain).
func (l *Loader) Apply(doc *Document) (*Report, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	report := &Report{}
	byKey := make(map[string]*space.Node, len(doc.Nodes))

	for _, spec := range doc.Nodes {
		id, err := l.alloc.Next(spec.Major, spec.Type, spec.Subtype)
		if err != nil {
			return report, errors.Wrapf(err, "node %q", spec.Key)
		}
		if existing, ok := l.space.Lookup(id); ok {
			l.log.Debug("seed node skipped, coordinate taken",
				zap.String("key", spec.Key),
				zap.String("code", id.Code()),
				zap.String("existing", existing.Label),
			)
			byKey[spec.Key] = existing
			report.Nodes = append(report.Nodes, NodeResult{Key: spec.Key, Code: id.Code(), Skipped: true})
			continue
		}
		n, err := l.space.Add(space.NewNode(id, spec.Label, spec.Metadata))
		if err != nil {
			return report, errors.Wrapf(err, "node %q", spec.Key)
		}
		byKey[spec.Key] = n
		report.Nodes = append(report.Nodes, NodeResult{Key: spec.Key, Code: n.Code()})
	}

	lookup := func(key string) (*space.Node, error) {
		n, ok := byKey[key]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownKey, "%q", key)
		}
		return n, nil
	}

	for i, spec := range doc.Relations {
		kind, err := space.ParseRelationKind(spec.Kind)
		if err != nil {
			return report, errors.Wrapf(err, "relations[%d]", i)
		}
		from, err := lookup(spec.From)
		if err != nil {
			return report, errors.Wrapf(err, "relations[%d].from", i)
		}
		to, err := lookup(spec.To)
		if err != nil {
			return report, errors.Wrapf(err, "relations[%d].to", i)
		}
		if err := l.space.AddRelation(from, kind, to); err != nil {
			return report, errors.Wrapf(err, "relations[%d]", i)
		}
		report.Relations++
	}

	for i, spec := range doc.Forks {
		source, err := lookup(spec.Node)
		if err != nil {
			return report, errors.Wrapf(err, "forks[%d].node", i)
		}
		_, branches, err := l.space.CreateFork(source, spec.Branches)
		if err != nil {
			return report, errors.Wrapf(err, "forks[%d]", i)
		}
		codes := make([]string, len(branches))
		for j, b := range branches {
			codes[j] = b.Code()
		}
		report.Forks = append(report.Forks, ForkResult{Node: spec.Node, Source: source.Code(), Branches: codes})
	}

	l.log.Info("seed applied",
		zap.Int("nodes", report.Created()),
		zap.Int("relations", report.Relations),
		zap.Int("forks", len(report.Forks)),
	)
	return report, nil
}

// LoadFile reads path and applies it.
func (l *Loader) LoadFile(path string) (*Report, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return l.Apply(doc)
}
