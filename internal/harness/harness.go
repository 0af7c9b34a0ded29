package harness

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/roach88/axiom/internal/alloc"
	"github.com/roach88/axiom/internal/coord"
	"github.com/roach88/axiom/internal/seed"
	"github.com/roach88/axiom/internal/space"
	"github.com/roach88/axiom/internal/testutil"
	"github.com/roach88/axiom/internal/wrapper"
)

// errorNames maps the names scenarios use in expect.error to sentinels.
var errorNames = map[string]error{
	"RangeError":          coord.ErrRange,
	"FormatError":         coord.ErrFormat,
	"DuplicateCoordinate": space.ErrDuplicateCoordinate,
	"UnknownNode":         space.ErrUnknownNode,
	"UnknownRelationKind": space.ErrUnknownRelationKind,
	"NotABranch":          space.ErrNotABranch,
	"NoFork":              space.ErrNoFork,
	"NoSuchLabel":         wrapper.ErrNoSuchLabel,
	"UnknownStrategy":     wrapper.ErrUnknownStrategy,
	"MissingContext":      wrapper.ErrMissingContext,
	"InvalidInput":        wrapper.ErrInvalidInput,
}

// Harness executes scenarios against a fresh Space and Wrapper.
type Harness struct {
	log *zap.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger handed to the Space, Wrapper and seed loader.
func WithLogger(l *zap.Logger) Option {
	return func(h *Harness) {
		h.log = l
	}
}

// New creates a Harness. Default logger: zap.NewNop().
func New(opts ...Option) *Harness {
	h := &Harness{log: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default Harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(scenario)
}

// run is the state of one execution.
type run struct {
	space   *space.Space
	wrapper *wrapper.Wrapper
	keys    map[string]*space.Node
	result  *Result
}

// Run executes a scenario and returns its result.
//
// Each run gets a StepClock and sequential decision ids, so two runs of the
// same scenario produce identical traces and identical chain hashes.
// Step and assertion failures are collected in the Result; the returned
// error is reserved for setup failures such as an unreadable seed.
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	sp := space.New(
		space.WithClock(testutil.NewStepClock()),
		space.WithLogger(h.log),
	)
	r := &run{
		space: sp,
		wrapper: wrapper.New(sp,
			wrapper.WithIDGenerator(testutil.NewSequenceIDs("")),
			wrapper.WithLogger(h.log),
		),
		keys:   make(map[string]*space.Node),
		result: NewResult(),
	}

	if scenario.Seed != "" {
		report, err := seed.NewLoader(alloc.New(), sp, seed.WithLogger(h.log)).LoadFile(scenario.Seed)
		if err != nil {
			return nil, errors.Wrapf(err, "load seed %s", scenario.Seed)
		}
		for _, n := range report.Nodes {
			stored, _ := sp.Get(n.Code)
			r.keys[n.Key] = stored
		}
		for _, f := range report.Forks {
			source := r.keys[f.Node]
			for i, code := range f.Branches {
				branch, _ := sp.Get(code)
				r.keys[branchKey(f.Node, source, branch, i)] = branch
			}
		}
	}

	for i := range scenario.Steps {
		r.step(i, &scenario.Steps[i])
	}

	r.result.Trace = traceFrom(sp.Chain().Entries())
	r.result.Summary = sp.Summary()

	actx := &AssertionContext{Space: sp}
	for _, msg := range EvaluateAssertions(r.result, scenario.Assertions, actx) {
		r.result.AddError(msg)
	}

	h.log.Debug("scenario finished",
		zap.String("scenario", scenario.Name),
		zap.Bool("pass", r.result.Pass),
		zap.Int("trace", len(r.result.Trace)),
	)
	return r.result, nil
}

// branchKey names a branch "<node>.<suffix>", where suffix is the branch
// label after the source label prefix, or its ordinal if that is absent.
func branchKey(key string, source, branch *space.Node, i int) string {
	if source != nil && branch != nil {
		if suffix, ok := strings.CutPrefix(branch.Label, source.Label+":"); ok && suffix != "" {
			return key + "." + suffix
		}
	}
	return fmt.Sprintf("%s.%d", key, i+1)
}

// outcome is what a step produced, for checking against Expect.
type outcome struct {
	err      error
	nodes    []*space.Node
	labels   []string
	value    *float64
	strategy string
	result   any
	count    int
}

func nodesOutcome(nodes []*space.Node) outcome {
	labels := make([]string, len(nodes))
	for i, n := range nodes {
		labels[i] = n.Label
	}
	return outcome{nodes: nodes, labels: labels, count: len(nodes), result: nodes}
}

// ref resolves a node reference: a bound key, else a coordinate code.
// A parsed code not in the Space yields a detached node.
func (r *run) ref(name string) (*space.Node, error) {
	if n, ok := r.keys[name]; ok {
		return n, nil
	}
	id, err := coord.Parse(name)
	if err != nil {
		return nil, errors.Wrapf(err, "reference %q is neither a bound key nor a coordinate", name)
	}
	if n, ok := r.space.Lookup(id); ok {
		return n, nil
	}
	return space.NewNode(id, "", nil), nil
}

func (r *run) step(index int, st *Step) {
	var out outcome
	switch {
	case st.Add != nil:
		out = r.add(st.Add)
	case st.Relate != nil:
		out = r.relate(st.Relate)
	case st.Fork != nil:
		out = r.fork(st.Fork)
	case st.Resolve != nil:
		out = r.resolve(st.Resolve)
	case st.Handle != nil:
		out = r.handle(st.Handle)
	case st.Derive != nil:
		out = r.derive(st.Derive)
	}
	for _, msg := range checkExpect(st.Expect, out) {
		r.result.AddError(fmt.Sprintf("steps[%d]: %s", index, msg))
	}
}

func (r *run) add(a *AddStep) outcome {
	id, err := coord.Parse(a.Code)
	if err != nil {
		return outcome{err: err}
	}
	n, err := r.space.Add(space.NewNode(id, a.Label, a.Metadata))
	if err != nil {
		return outcome{err: err}
	}
	r.keys[a.Key] = n
	return nodesOutcome([]*space.Node{n})
}

func (r *run) relate(rel *RelateStep) outcome {
	kind, err := space.ParseRelationKind(rel.Kind)
	if err != nil {
		return outcome{err: err}
	}
	from, err := r.ref(rel.From)
	if err != nil {
		return outcome{err: err}
	}
	to, err := r.ref(rel.To)
	if err != nil {
		return outcome{err: err}
	}
	if err := r.space.AddRelation(from, kind, to); err != nil {
		return outcome{err: err}
	}
	return outcome{result: wrapper.RelationResult{Source: from, Kind: kind, Target: to}, count: 1}
}

func (r *run) fork(f *ForkStep) outcome {
	source, err := r.ref(f.Node)
	if err != nil {
		return outcome{err: err}
	}
	fk, branches, err := r.space.CreateFork(source, f.Branches)
	if err != nil {
		return outcome{err: err}
	}
	for i, b := range branches {
		r.keys[f.Node+"."+f.Branches[i]] = b
	}
	out := nodesOutcome(branches)
	out.result = wrapper.ForkResult{Fork: fk, Branches: branches}
	return out
}

func (r *run) resolve(res *ResolveStep) outcome {
	source, err := r.ref(res.Node)
	if err != nil {
		return outcome{err: err}
	}
	branch, err := r.ref(res.Branch)
	if err != nil {
		return outcome{err: err}
	}
	if err := r.space.ResolveFork(source, branch.ID); err != nil {
		return outcome{err: err}
	}
	fk, _ := r.space.Fork(source)
	return outcome{result: fk, nodes: []*space.Node{branch}, labels: []string{branch.Label}, count: 1}
}

func (r *run) handle(hs *HandleStep) outcome {
	d, err := r.wrapper.Handle(hs.Input, hs.Context)
	if err != nil {
		return outcome{err: err}
	}

	var out outcome
	switch res := d.Result.(type) {
	case *space.Node:
		out = nodesOutcome([]*space.Node{res})
	case []*space.Node:
		out = nodesOutcome(res)
	case wrapper.ForkResult:
		out = nodesOutcome(res.Branches)
	case space.Path:
		out = outcome{nodes: res.Nodes(), labels: res.Labels(), count: len(res)}
	case float64:
		out = outcome{value: &res, count: 1}
	default:
		out = outcome{count: 1}
	}
	out.strategy = d.Strategy.String()
	out.result = d.Result

	if hs.Bind != "" && len(out.nodes) > 0 {
		r.keys[hs.Bind] = out.nodes[0]
	}
	return out
}

func (r *run) derive(d *DeriveStep) outcome {
	if d.Op == DeriveCategory {
		return nodesOutcome(r.space.DeriveCategory(d.Major))
	}

	n, err := r.ref(d.Node)
	if err != nil {
		return outcome{err: err}
	}

	switch d.Op {
	case DeriveSiblings:
		return nodesOutcome(r.space.DeriveSiblings(n))
	case DeriveCousins:
		return nodesOutcome(r.space.DeriveCousins(n))
	case DerivePath:
		target, err := r.ref(d.Target)
		if err != nil {
			return outcome{err: err}
		}
		p := r.space.DerivePath(n, target)
		return outcome{nodes: p.Nodes(), labels: p.Labels(), count: len(p), result: p}
	case DeriveTension:
		t := r.space.DeriveTension(n)
		return outcome{value: &t, count: 1, result: t}
	case DeriveNeighbors:
		maxDistance := space.DefaultNeighborDistance
		if d.MaxDistance != nil {
			maxDistance = *d.MaxDistance
		}
		neighbors := r.space.DeriveNeighbors(n, maxDistance)
		nodes := make([]*space.Node, len(neighbors))
		for i, nb := range neighbors {
			nodes[i] = nb.Node
		}
		return nodesOutcome(nodes)
	}
	return outcome{err: errors.Newf("unknown derive op %q", d.Op)}
}

// checkExpect compares an outcome with its expectation. A nil expectation
// requires success.
func checkExpect(exp *Expect, out outcome) []string {
	if out.err != nil {
		if exp == nil || exp.Error == "" {
			return []string{fmt.Sprintf("unexpected error: %v", out.err)}
		}
		if !errors.Is(out.err, errorNames[exp.Error]) {
			return []string{fmt.Sprintf("expected %s error, got: %v", exp.Error, out.err)}
		}
		return nil
	}
	if exp == nil {
		return nil
	}
	if exp.Error != "" {
		return []string{fmt.Sprintf("expected %s error, step succeeded", exp.Error)}
	}

	var errs []string
	if exp.Labels != nil && !slices.Equal(exp.Labels, out.labels) {
		errs = append(errs, fmt.Sprintf("labels: expected %v, got %v", exp.Labels, out.labels))
	}
	if exp.Codes != nil {
		codes := make([]string, len(out.nodes))
		for i, n := range out.nodes {
			codes[i] = n.Code()
		}
		if !slices.Equal(exp.Codes, codes) {
			errs = append(errs, fmt.Sprintf("codes: expected %v, got %v", exp.Codes, codes))
		}
	}
	if exp.Count != nil && *exp.Count != out.count {
		errs = append(errs, fmt.Sprintf("count: expected %d, got %d", *exp.Count, out.count))
	}
	if exp.Value != nil {
		if out.value == nil {
			errs = append(errs, fmt.Sprintf("value: expected %g, step has no numeric result", *exp.Value))
		} else if math.Abs(*exp.Value-*out.value) > 1e-9 {
			errs = append(errs, fmt.Sprintf("value: expected %g, got %g", *exp.Value, *out.value))
		}
	}
	if exp.Strategy != "" && exp.Strategy != out.strategy {
		errs = append(errs, fmt.Sprintf("strategy: expected %s, got %s", exp.Strategy, out.strategy))
	}
	if exp.Result != "" {
		if got := wrapper.Describe(out.result); got != exp.Result {
			errs = append(errs, fmt.Sprintf("result: expected %q, got %q", exp.Result, got))
		}
	}
	return errs
}
