package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_Valid(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/animals.yaml")
	require.NoError(t, err)

	assert.Equal(t, "animals", scenario.Name)
	require.Len(t, scenario.Steps, 11)
	require.NotNil(t, scenario.Steps[0].Add)
	assert.Equal(t, "01-01-01-0001", scenario.Steps[0].Add.Code)
	require.NotNil(t, scenario.Steps[4].Relate)
	assert.Equal(t, "IS_A", scenario.Steps[4].Relate.Kind)
	require.NotNil(t, scenario.Steps[5].Expect)
	assert.Equal(t, []string{"animal", "dog"}, scenario.Steps[5].Expect.Labels)
	require.NotNil(t, scenario.Steps[10].Expect.Value)
	assert.InDelta(t, 0.5, *scenario.Steps[10].Expect.Value, 1e-9)
	assert.Len(t, scenario.Assertions, 5)
}

func TestLoadScenario_ResolvesSeedPath(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/seeded_forest.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "seeds", "forest.yaml"), scenario.Seed)
}

func TestLoadScenario_MissingSeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	content := `name: s
description: d
seed: nowhere.yaml
steps:
  - add: { key: a, code: 01-01-01-0001, label: a }
assertions:
  - type: chain_valid
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed file not found")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Invalid(t *testing.T) {
	const header = "name: s\ndescription: d\n"
	const step = "steps:\n  - add: { key: a, code: 01-01-01-0001, label: a }\n"
	const assertion = "assertions:\n  - type: chain_valid\n"

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing name", "description: d\n" + step + assertion, "name is required"},
		{"missing description", "name: s\n" + step + assertion, "description is required"},
		{"no steps", header + assertion, "steps list is required"},
		{"no assertions", header + step, "assertions list is required"},
		{"unknown field", header + step + assertion + "flow_token: x\n", "failed to parse YAML"},
		{"empty step", header + "steps:\n  - {}\n" + assertion, "exactly one of"},
		{"two ops", header + "steps:\n  - add: { key: a, code: 01-01-01-0001 }\n    derive: { op: tension, node: a }\n" + assertion, "exactly one of"},
		{"add without code", header + "steps:\n  - add: { key: a }\n" + assertion, "key and code are required"},
		{"relate without kind", header + "steps:\n  - relate: { from: a, to: b }\n" + assertion, "from, kind and to"},
		{"fork without branches", header + "steps:\n  - fork: { node: a }\n" + assertion, "node and branches"},
		{"resolve without branch", header + "steps:\n  - resolve: { node: a }\n" + assertion, "node and branch"},
		{"handle without input", header + "steps:\n  - handle: { bind: a }\n" + assertion, "input is required"},
		{"unknown derive op", header + "steps:\n  - derive: { op: cycles, node: a }\n" + assertion, "unknown op"},
		{"path without target", header + "steps:\n  - derive: { op: path, node: a }\n" + assertion, "node and target"},
		{"category without major", header + "steps:\n  - derive: { op: category }\n" + assertion, "major is required"},
		{"unknown error name", header + "steps:\n  - add: { key: a, code: x }\n    expect: { error: Boom }\n" + assertion, "unknown error name"},
		{"unknown assertion", header + step + "assertions:\n  - type: final_state\n", "unknown assertion type"},
		{"trace_count without action", header + step + "assertions:\n  - type: trace_count\n    count: 1\n", "action is required"},
		{"trace_order without actions", header + step + "assertions:\n  - type: trace_order\n", "actions list is required"},
		{"empty stats", header + step + "assertions:\n  - type: stats\n", "at least one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
