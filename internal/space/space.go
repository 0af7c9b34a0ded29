package space

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/roach88/axiom/internal/audit"
	"github.com/roach88/axiom/internal/coord"
)

var (
	// ErrDuplicateCoordinate is returned when adding a node whose coordinate is already stored.
	ErrDuplicateCoordinate = errors.New("duplicate coordinate")

	// ErrUnknownNode is returned when an operation names a coordinate that is not stored.
	ErrUnknownNode = errors.New("unknown node")

	// ErrNoFork is returned when resolving a node that has no fork.
	ErrNoFork = errors.New("no fork for node")
)

// Audit actions written by Space.
const (
	ActionAdd     = "ADD"
	ActionRelate  = "RELATE"
	ActionFork    = "FORK"
	ActionResolve = "RESOLVE"
	ActionDerive  = "DERIVE"
)

// Space owns every Node and Fork and the audit chain that records each
// mutation and derivation query.
//
// Nodes are kept in one table keyed by canonical code; every cross-reference
// (relation targets, fork branches) is a code looked up in that table.
// Scans visit nodes in insertion order, so derivations are reproducible for a
// given sequence of operations.
//
// Thread-safety: Space is NOT safe for concurrent use. Add and the audit
// append order are check-then-act sequences. Hosts with several goroutines
// must serialize all calls, e.g. through wrapper.Wrapper, which holds one
// lock per decision.
type Space struct {
	nodes     map[string]*Node
	order     []string
	forks     map[string]*Fork
	forkOrder []string

	chain *audit.Chain
	clock audit.Clock
	log   *zap.Logger
}

// Option configures a Space.
type Option func(*Space)

// WithChain uses an existing audit chain instead of creating one.
func WithChain(c *audit.Chain) Option {
	return func(s *Space) {
		s.chain = c
	}
}

// WithClock sets the clock for fork timestamps and for the chain Space
// creates. It does not affect a chain supplied through WithChain.
func WithClock(c audit.Clock) Option {
	return func(s *Space) {
		s.clock = c
	}
}

// WithLogger sets the logger. Default: zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(s *Space) {
		s.log = l
	}
}

// New creates an empty Space.
func New(opts ...Option) *Space {
	s := &Space{
		nodes: make(map[string]*Node),
		forks: make(map[string]*Fork),
		clock: audit.SystemClock{},
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.chain == nil {
		s.chain = audit.NewChain(audit.WithClock(s.clock))
	}
	return s
}

// Chain returns the audit chain.
func (s *Space) Chain() *audit.Chain {
	return s.chain
}

// Add stores n. Fails with ErrDuplicateCoordinate if its coordinate is
// taken, or audit.ErrUnsupportedArg if its label is not valid UTF-8; the
// store is unchanged on failure.
func (s *Space) Add(n *Node) (*Node, error) {
	if n == nil {
		return nil, errors.Wrap(ErrUnknownNode, "nil node")
	}
	if n.ID.IsZero() {
		return nil, errors.Wrap(coord.ErrRange, "node has zero coordinate")
	}
	if !utf8.ValidString(n.Label) {
		return nil, errors.Wrapf(audit.ErrUnsupportedArg, "label %q is not valid UTF-8", n.Label)
	}
	code := n.Code()
	if existing, ok := s.nodes[code]; ok {
		return nil, errors.Wrapf(ErrDuplicateCoordinate, "%s already holds %q", code, existing.Label)
	}
	s.store(n)
	s.chain.Append(ActionAdd, audit.S(code), audit.S(n.Label))
	s.log.Debug("node added", zap.String("code", code), zap.String("label", n.Label))
	return n, nil
}

func (s *Space) store(n *Node) {
	if n.Metadata == nil {
		n.Metadata = make(map[string]any)
	}
	if n.relations == nil {
		n.relations = make(map[RelationKind][]string)
	}
	code := n.Code()
	s.nodes[code] = n
	s.order = append(s.order, code)
}

// Get looks a node up by canonical code.
func (s *Space) Get(code string) (*Node, bool) {
	n, ok := s.nodes[code]
	return n, ok
}

// Lookup looks a node up by coordinate.
func (s *Space) Lookup(id coord.Coordinate) (*Node, bool) {
	return s.Get(id.Code())
}

// FindByLabel scans every node for a label match. O(n).
func (s *Space) FindByLabel(label string, caseSensitive bool) []*Node {
	var out []*Node
	for _, code := range s.order {
		n := s.nodes[code]
		if caseSensitive && n.Label == label || !caseSensitive && strings.EqualFold(n.Label, label) {
			out = append(out, n)
		}
	}
	return out
}

// resolve returns the stored node for n's coordinate.
func (s *Space) resolve(n *Node, role string) (*Node, error) {
	if n == nil {
		return nil, errors.Wrapf(ErrUnknownNode, "nil %s", role)
	}
	stored, ok := s.nodes[n.Code()]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownNode, "%s %s not in space", role, n.Code())
	}
	return stored, nil
}

// AddRelation records source -kind-> target. Both coordinates must be
// stored. The stored source node is mutated, whatever *Node is passed.
// Re-adding an existing relation is a no-op on the node but is still logged.
func (s *Space) AddRelation(source *Node, kind RelationKind, target *Node) error {
	src, err := s.resolve(source, "source")
	if err != nil {
		return err
	}
	dst, err := s.resolve(target, "target")
	if err != nil {
		return err
	}
	added, err := src.AddRelation(kind, dst)
	if err != nil {
		return err
	}
	s.chain.Append(ActionRelate, audit.S(src.Code()), audit.S(kind.String()), audit.S(dst.Code()))
	s.log.Debug("relation added",
		zap.String("source", src.Code()),
		zap.Stringer("kind", kind),
		zap.String("target", dst.Code()),
		zap.Bool("new", added),
	)
	return nil
}

// nextInstance is max(instance of nodes sharing id's subtype) + 1.
func (s *Space) nextInstance(id coord.Coordinate) int {
	highest := 0
	for _, code := range s.order {
		other := s.nodes[code].ID
		if other.SharesSubtype(id) && other.Instance() > highest {
			highest = other.Instance()
		}
	}
	return highest + 1
}

// NextInstance returns the instance a new node under (major, type, subtype)
// would receive: one past the highest stored instance, 1 if none. The
// answer depends on the full current store.
func (s *Space) NextInstance(major, typ, subtype int) (coord.Coordinate, error) {
	base, err := coord.New(major, typ, subtype, coord.MinInstance)
	if err != nil {
		return coord.Coordinate{}, err
	}
	return coord.New(major, typ, subtype, s.nextInstance(base))
}

// CreateFork splits source into one new branch node per label.
//
// Branches take sequential instances after the highest instance sharing
// source's subtype. Each branch is labeled "<source.label>:<label>", records
// metadata forked_from=<source code> and carries a FORKED_FROM relation back
// to source. Branch nodes enter the store directly; the audit trail records
// them in the single FORK entry.
//
// A second fork for the same source replaces the first. The old fork
// record is lost; its branch nodes stay in the store.
//
// Fails with ErrUnknownNode if source is absent, audit.ErrUnsupportedArg for
// a branch label that is not valid UTF-8, or coord.ErrRange if the instance
// space is exhausted; nothing is stored on failure.
func (s *Space) CreateFork(source *Node, branchLabels []string) (*Fork, []*Node, error) {
	src, err := s.resolve(source, "fork source")
	if err != nil {
		return nil, nil, err
	}

	for _, label := range branchLabels {
		if !utf8.ValidString(label) {
			return nil, nil, errors.Wrapf(audit.ErrUnsupportedArg, "branch label %q is not valid UTF-8", label)
		}
	}

	next := s.nextInstance(src.ID)
	ids := make([]coord.Coordinate, len(branchLabels))
	for i := range branchLabels {
		id, err := coord.New(src.ID.Major(), src.ID.Type(), src.ID.Subtype(), next+i)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "fork %s branch %d", src.Code(), i)
		}
		ids[i] = id
	}

	branches := make([]*Node, len(branchLabels))
	codes := make([]string, len(branchLabels))
	for i, label := range branchLabels {
		b := NewNode(ids[i], fmt.Sprintf("%s:%s", src.Label, label), map[string]any{
			"forked_from": src.Code(),
		})
		if _, err := b.AddRelation(ForkedFrom, src); err != nil {
			return nil, nil, err
		}
		s.store(b)
		branches[i] = b
		codes[i] = b.Code()
	}

	f := NewFork(src.ID, ids, s.clock.Now())
	if _, exists := s.forks[src.Code()]; exists {
		s.log.Warn("fork replaced; previous fork record discarded", zap.String("source", src.Code()))
	} else {
		s.forkOrder = append(s.forkOrder, src.Code())
	}
	s.forks[src.Code()] = f

	s.chain.Append(ActionFork, audit.S(src.Code()), audit.Strings(codes))
	s.log.Debug("fork created", zap.String("source", src.Code()), zap.Strings("branches", codes))
	return f, branches, nil
}

// Fork returns the fork registered for n, if any.
func (s *Space) Fork(n *Node) (*Fork, bool) {
	if n == nil {
		return nil, false
	}
	f, ok := s.forks[n.Code()]
	return f, ok
}

// ResolveFork resolves source's fork to chosen.
func (s *Space) ResolveFork(source *Node, chosen coord.Coordinate) error {
	src, err := s.resolve(source, "fork source")
	if err != nil {
		return err
	}
	f, ok := s.forks[src.Code()]
	if !ok {
		return errors.Wrapf(ErrNoFork, "%s", src.Code())
	}
	if err := f.Resolve(chosen); err != nil {
		return err
	}
	s.chain.Append(ActionResolve, audit.S(src.Code()), audit.S(chosen.Code()))
	s.log.Debug("fork resolved", zap.String("source", src.Code()), zap.Stringer("chosen", chosen))
	return nil
}

// Nodes returns all nodes in insertion order.
func (s *Space) Nodes() []*Node {
	out := make([]*Node, len(s.order))
	for i, code := range s.order {
		out[i] = s.nodes[code]
	}
	return out
}

// Forks returns all forks in first-creation order.
func (s *Space) Forks() []*Fork {
	out := make([]*Fork, len(s.forkOrder))
	for i, code := range s.forkOrder {
		out[i] = s.forks[code]
	}
	return out
}
