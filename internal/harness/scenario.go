package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/axiom/internal/wrapper"
)

// Scenario is a scripted sequence of Space and Wrapper operations with
// per-step expectations and final assertions over the audit trace.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Seed is an optional seed document loaded before the steps. Its keys
	// are usable as node references. Relative to the scenario file.
	Seed string `yaml:"seed,omitempty"`

	// Steps run in order. Each sets exactly one operation field.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and Space.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one operation. A node reference is a key bound by an earlier
// add, fork, handle or the seed; anything else is parsed as a coordinate
// code naming a node that need not be stored.
type Step struct {
	Add     *AddStep     `yaml:"add,omitempty"`
	Relate  *RelateStep  `yaml:"relate,omitempty"`
	Fork    *ForkStep    `yaml:"fork,omitempty"`
	Resolve *ResolveStep `yaml:"resolve,omitempty"`
	Handle  *HandleStep  `yaml:"handle,omitempty"`
	Derive  *DeriveStep  `yaml:"derive,omitempty"`

	// Expect validates the step's outcome. If nil the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// AddStep stores a node at an explicit coordinate.
type AddStep struct {
	Key      string         `yaml:"key"`
	Code     string         `yaml:"code"`
	Label    string         `yaml:"label"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

// RelateStep adds from -kind-> to.
type RelateStep struct {
	From string `yaml:"from"`
	Kind string `yaml:"kind"`
	To   string `yaml:"to"`
}

// ForkStep forks node. Branch nodes are bound as "<node>.<branch>".
type ForkStep struct {
	Node     string   `yaml:"node"`
	Branches []string `yaml:"branches"`
}

// ResolveStep resolves node's fork to the branch reference.
type ResolveStep struct {
	Node   string `yaml:"node"`
	Branch string `yaml:"branch"`
}

// HandleStep pushes an input through the Wrapper. Bind names a key for a
// node the decision creates or returns first.
type HandleStep struct {
	Input   any             `yaml:"input"`
	Context wrapper.Context `yaml:"context,omitempty"`
	Bind    string          `yaml:"bind,omitempty"`
}

// DeriveStep runs one derivation query.
type DeriveStep struct {
	// Op is siblings, cousins, category, path, tension or neighbors.
	Op          string `yaml:"op"`
	Node        string `yaml:"node,omitempty"`
	Target      string `yaml:"target,omitempty"`
	Major       int    `yaml:"major,omitempty"`
	MaxDistance *int   `yaml:"max_distance,omitempty"`
}

// Derivation ops.
const (
	DeriveSiblings  = "siblings"
	DeriveCousins   = "cousins"
	DeriveCategory  = "category"
	DerivePath      = "path"
	DeriveTension   = "tension"
	DeriveNeighbors = "neighbors"
)

// Expect checks a step outcome. Only set fields are checked.
type Expect struct {
	// Error names the expected failure, e.g. DuplicateCoordinate.
	Error string `yaml:"error,omitempty"`

	// Labels are the result nodes' labels in order; for a path, its steps.
	Labels []string `yaml:"labels,omitempty"`

	// Codes are the result nodes' coordinate codes in order.
	Codes []string `yaml:"codes,omitempty"`

	// Count is the number of result items.
	Count *int `yaml:"count,omitempty"`

	// Value is a numeric result (tension).
	Value *float64 `yaml:"value,omitempty"`

	// Strategy is the decision's strategy name (handle only).
	Strategy string `yaml:"strategy,omitempty"`

	// Result is wrapper.Describe of the result.
	Result string `yaml:"result,omitempty"`
}

// Assertion validates the final trace or Space.
type Assertion struct {
	// Type is trace_contains, trace_order, trace_count, chain_valid or stats.
	Type string `yaml:"type"`

	// Action is the audit action (trace_contains, trace_count).
	Action string `yaml:"action,omitempty"`

	// Args is a prefix of the entry's arguments (trace_contains).
	Args []string `yaml:"args,omitempty"`

	// Count is the exact number of entries with Action (trace_count).
	Count int `yaml:"count,omitempty"`

	// Actions must appear in this order, not necessarily adjacent (trace_order).
	Actions []string `yaml:"actions,omitempty"`

	// Valid is the expected Verify result (chain_valid). Default true.
	Valid *bool `yaml:"valid,omitempty"`

	// Nodes, Relations and Forks are expected Space counts (stats).
	Nodes     *int `yaml:"nodes,omitempty"`
	Relations *int `yaml:"relations,omitempty"`
	Forks     *int `yaml:"forks,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertChainValid    = "chain_valid"
	AssertStats         = "stats"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected. A relative Seed path is resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if scenario.Seed != "" && !filepath.IsAbs(scenario.Seed) {
		scenario.Seed = filepath.Join(filepath.Dir(path), scenario.Seed)
	}
	if scenario.Seed != "" {
		if _, err := os.Stat(scenario.Seed); err != nil {
			return nil, fmt.Errorf("invalid scenario: seed file not found: %s", scenario.Seed)
		}
	}
	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i]); err != nil {
			return err
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st *Step) error {
	set := 0
	for _, present := range []bool{st.Add != nil, st.Relate != nil, st.Fork != nil, st.Resolve != nil, st.Handle != nil, st.Derive != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of add, relate, fork, resolve, handle, derive is required (got %d)", index, set)
	}

	switch {
	case st.Add != nil:
		if st.Add.Key == "" || st.Add.Code == "" {
			return fmt.Errorf("steps[%d].add: key and code are required", index)
		}
	case st.Relate != nil:
		if st.Relate.From == "" || st.Relate.Kind == "" || st.Relate.To == "" {
			return fmt.Errorf("steps[%d].relate: from, kind and to are required", index)
		}
	case st.Fork != nil:
		if st.Fork.Node == "" || len(st.Fork.Branches) == 0 {
			return fmt.Errorf("steps[%d].fork: node and branches are required", index)
		}
	case st.Resolve != nil:
		if st.Resolve.Node == "" || st.Resolve.Branch == "" {
			return fmt.Errorf("steps[%d].resolve: node and branch are required", index)
		}
	case st.Handle != nil:
		if st.Handle.Input == nil {
			return fmt.Errorf("steps[%d].handle: input is required", index)
		}
	case st.Derive != nil:
		if err := validateDerive(index, st.Derive); err != nil {
			return err
		}
	}

	if st.Expect != nil && st.Expect.Error != "" {
		if _, ok := errorNames[st.Expect.Error]; !ok {
			return fmt.Errorf("steps[%d].expect: unknown error name %q", index, st.Expect.Error)
		}
	}
	return nil
}

func validateDerive(index int, d *DeriveStep) error {
	switch d.Op {
	case DeriveSiblings, DeriveCousins, DeriveTension, DeriveNeighbors:
		if d.Node == "" {
			return fmt.Errorf("steps[%d].derive: node is required for %s", index, d.Op)
		}
	case DerivePath:
		if d.Node == "" || d.Target == "" {
			return fmt.Errorf("steps[%d].derive: node and target are required for path", index)
		}
	case DeriveCategory:
		if d.Major == 0 {
			return fmt.Errorf("steps[%d].derive: major is required for category", index)
		}
	default:
		return fmt.Errorf("steps[%d].derive: unknown op %q", index, d.Op)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertChainValid:
	case AssertStats:
		if a.Nodes == nil && a.Relations == nil && a.Forks == nil {
			return fmt.Errorf("assertions[%d]: stats needs at least one of nodes, relations, forks", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
