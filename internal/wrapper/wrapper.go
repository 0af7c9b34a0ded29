package wrapper

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/roach88/axiom/internal/audit"
	"github.com/roach88/axiom/internal/coord"
	"github.com/roach88/axiom/internal/space"
)

var (
	// ErrNoSuchLabel is returned when a strategy needs an existing node and none has the label.
	ErrNoSuchLabel = errors.New("no node with label")

	// ErrUnknownStrategy is returned for a strategy outside the closed set.
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrMissingContext is returned when a strategy needs a Context field that is empty.
	ErrMissingContext = errors.New("missing decision context")

	// ErrInvalidInput is returned when a label strategy receives non-string input.
	ErrInvalidInput = errors.New("input is not a label")
)

// ActionDecision is the audit action Handle appends.
const ActionDecision = "DECISION"

// Context carries the optional parameters of a decision. Zero fields fall
// back to the wrapper's Settings.
type Context struct {
	// Coordinate prefix for CreateNode.
	Major   int `json:"major,omitempty" yaml:"major"`
	Type    int `json:"type,omitempty" yaml:"type"`
	Subtype int `json:"subtype,omitempty" yaml:"subtype"`

	Metadata     map[string]any `json:"metadata,omitempty" yaml:"metadata"`
	BranchLabels []string       `json:"branch_labels,omitempty" yaml:"branch_labels"`

	// Chosen is the branch code for ResolveFork.
	Chosen string `json:"chosen,omitempty" yaml:"chosen"`
	// Target is the second node's label for AddRelation and DerivePath.
	Target string `json:"target,omitempty" yaml:"target"`
	// Relation is the kind name for AddRelation. Default SIMILAR_TO.
	Relation string `json:"relation,omitempty" yaml:"relation"`
}

// Settings are the wrapper's fallbacks.
type Settings struct {
	Major        int
	Type         int
	Subtype      int
	BranchLabels []string
	// Truncate caps each DECISION argument, in runes. A size limit only.
	Truncate int
}

// DefaultSettings files new nodes under 08-01-01 (Abstract) and forks into
// two generic senses.
func DefaultSettings() Settings {
	return Settings{
		Major:        8,
		Type:         1,
		Subtype:      1,
		BranchLabels: []string{"sense_1", "sense_2"},
		Truncate:     100,
	}
}

// Decision is the record of one Handle call.
type Decision struct {
	ID       string
	Strategy Strategy
	Input    any
	Context  Context
	Result   any
	// AuditIndex and AuditHash identify the DECISION entry, for external verification.
	AuditIndex int
	AuditHash  string
}

// Option configures a Wrapper.
type Option func(*Wrapper)

// WithProposer replaces the default RuleProposer.
func WithProposer(p Proposer) Option {
	return func(w *Wrapper) {
		w.proposer = p
	}
}

// WithIDGenerator sets the decision id source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(w *Wrapper) {
		w.ids = g
	}
}

// WithSettings replaces DefaultSettings.
func WithSettings(s Settings) Option {
	return func(w *Wrapper) {
		w.settings = s
	}
}

// WithLogger sets the logger. Default: zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(w *Wrapper) {
		w.log = l
	}
}

// Wrapper constrains every action on a Space to the closed Strategy set and
// records each decision on the Space's audit chain.
//
// Thread-safety: Handle, Propose, Apply and Decisions share one mutex, so a
// Wrapper is a single-writer entry point to its Space. Calling the Space
// directly while a Wrapper is in use bypasses that lock.
//
// Decisions are retained without bound; callers own retention.
type Wrapper struct {
	mu        sync.Mutex
	space     *space.Space
	proposer  Proposer
	ids       IDGenerator
	settings  Settings
	log       *zap.Logger
	decisions []Decision
}

// New creates a Wrapper over sp. A nil sp gets a fresh Space.
func New(sp *space.Space, opts ...Option) *Wrapper {
	if sp == nil {
		sp = space.New()
	}
	w := &Wrapper{
		space:    sp,
		proposer: RuleProposer{},
		ids:      UUIDv7Generator{},
		settings: DefaultSettings(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Space returns the owned Space.
func (w *Wrapper) Space() *space.Space {
	return w.space
}

// Audit returns the Space's audit chain.
func (w *Wrapper) Audit() *audit.Chain {
	return w.space.Chain()
}

// Propose asks the Proposer for a strategy without applying it.
func (w *Wrapper) Propose(input any, ctx Context) Strategy {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.proposer.Propose(w.space, input, ctx)
}

// Apply executes strategy against the Space without recording a decision.
//
// Same Space state and same input give the same result. CreateNode in
// particular takes the next free instance under its prefix, so its result
// depends on everything already stored.
func (w *Wrapper) Apply(strategy Strategy, input any, ctx Context) (any, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.apply(strategy, input, ctx)
}

// Handle runs propose, apply and record, and returns the Decision.
//
// Errors from the Proposer's choice or from the Space are returned
// unchanged and no DECISION entry is written.
func (w *Wrapper) Handle(input any, ctx Context) (Decision, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if label, ok := input.(string); ok && !utf8.ValidString(label) {
		return Decision{}, errors.Wrapf(audit.ErrUnsupportedArg, "input %q is not valid UTF-8", label)
	}

	strategy := w.proposer.Propose(w.space, input, ctx)
	result, err := w.apply(strategy, input, ctx)
	if err != nil {
		w.log.Debug("decision failed",
			zap.Stringer("strategy", strategy),
			zap.String("input", describeInput(input)),
			zap.Error(err),
		)
		return Decision{}, err
	}

	entry := w.space.Chain().Append(ActionDecision,
		audit.S(strategy.String()),
		audit.S(auditText(describeInput(input), w.settings.Truncate)),
		audit.S(auditText(Describe(result), w.settings.Truncate)),
	)
	d := Decision{
		ID:         w.ids.Generate(),
		Strategy:   strategy,
		Input:      input,
		Context:    ctx,
		Result:     result,
		AuditIndex: entry.Index,
		AuditHash:  entry.Hash,
	}
	w.decisions = append(w.decisions, d)

	w.log.Info("decision",
		zap.String("id", d.ID),
		zap.Stringer("strategy", strategy),
		zap.Int("audit_index", entry.Index),
		zap.String("audit_hash", entry.Hash),
	)
	return d, nil
}

// Decisions returns every recorded decision in order.
func (w *Wrapper) Decisions() []Decision {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.decisions)
}

func (w *Wrapper) apply(strategy Strategy, input any, ctx Context) (any, error) {
	if !strategy.Valid() {
		return nil, errors.Wrapf(ErrUnknownStrategy, "%d", int(strategy))
	}
	if strategy == Escalate {
		return Escalation{
			Input:  input,
			Reason: fmt.Sprintf("no rule for input of type %T", input),
		}, nil
	}

	s, ok := input.(string)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidInput, "%s given %T", strategy, input)
	}
	label := strings.TrimSpace(s)

	switch strategy {
	case CreateNode:
		return w.createNode(label, ctx)

	case ReturnExisting:
		return w.space.FindByLabel(label, false), nil

	case CreateFork:
		source, err := w.first(label)
		if err != nil {
			return nil, err
		}
		branches := ctx.BranchLabels
		if len(branches) == 0 {
			branches = w.settings.BranchLabels
		}
		fork, nodes, err := w.space.CreateFork(source, branches)
		if err != nil {
			return nil, err
		}
		return ForkResult{Fork: fork, Branches: nodes}, nil

	case ResolveFork:
		source, err := w.first(label)
		if err != nil {
			return nil, err
		}
		if ctx.Chosen == "" {
			return nil, errors.Wrap(ErrMissingContext, "resolve fork needs a chosen branch")
		}
		chosen, err := coord.Parse(ctx.Chosen)
		if err != nil {
			return nil, err
		}
		if err := w.space.ResolveFork(source, chosen); err != nil {
			return nil, err
		}
		fork, _ := w.space.Fork(source)
		return fork, nil

	case AddRelation:
		source, target, err := w.pair(label, ctx)
		if err != nil {
			return nil, err
		}
		kind := space.SimilarTo
		if ctx.Relation != "" {
			if kind, err = space.ParseRelationKind(ctx.Relation); err != nil {
				return nil, err
			}
		}
		if err := w.space.AddRelation(source, kind, target); err != nil {
			return nil, err
		}
		return RelationResult{Source: source, Kind: kind, Target: target}, nil

	case DerivePath:
		source, target, err := w.pair(label, ctx)
		if err != nil {
			return nil, err
		}
		return w.space.DerivePath(source, target), nil

	case DeriveSiblings:
		n, err := w.first(label)
		if err != nil {
			return nil, err
		}
		return w.space.DeriveSiblings(n), nil

	case DeriveTension:
		n, err := w.first(label)
		if err != nil {
			return nil, err
		}
		return w.space.DeriveTension(n), nil
	}
	return nil, errors.Wrapf(ErrUnknownStrategy, "%s", strategy)
}

func (w *Wrapper) createNode(label string, ctx Context) (*space.Node, error) {
	major, typ, subtype := ctx.Major, ctx.Type, ctx.Subtype
	if major == 0 {
		major = w.settings.Major
	}
	if typ == 0 {
		typ = w.settings.Type
	}
	if subtype == 0 {
		subtype = w.settings.Subtype
	}
	id, err := w.space.NextInstance(major, typ, subtype)
	if err != nil {
		return nil, err
	}
	return w.space.Add(space.NewNode(id, label, maps.Clone(ctx.Metadata)))
}

// first returns the first node labeled label, in insertion order.
func (w *Wrapper) first(label string) (*space.Node, error) {
	matches := w.space.FindByLabel(label, false)
	if len(matches) == 0 {
		return nil, errors.Wrapf(ErrNoSuchLabel, "%q", label)
	}
	return matches[0], nil
}

func (w *Wrapper) pair(label string, ctx Context) (*space.Node, *space.Node, error) {
	source, err := w.first(label)
	if err != nil {
		return nil, nil, err
	}
	if ctx.Target == "" {
		return nil, nil, errors.Wrap(ErrMissingContext, "target label required")
	}
	target, err := w.first(strings.TrimSpace(ctx.Target))
	if err != nil {
		return nil, nil, err
	}
	return source, target, nil
}
