package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decode unmarshals a JSON CLIResponse whose data is decoded into data.
func decode(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	raw := struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}{}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), out)
	if data != nil && raw.Data != nil {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return CLIResponse{Status: raw.Status, Error: raw.Error}
}

func TestSeedCommand(t *testing.T) {
	path := writeSeed(t, forestSeed)

	t.Run("text", func(t *testing.T) {
		out, err := execute(t, "seed", path)
		require.NoError(t, err)
		assert.Contains(t, out, "Loaded "+path)
		assert.Contains(t, out, "feline")
		assert.Contains(t, out, "01-01-02-0001")
		assert.Contains(t, out, "Nodes:            4")
		assert.Contains(t, out, "Relations:        2")
		assert.Contains(t, out, "Chain valid:      true")
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "seed", path, "--format", "json")
		require.NoError(t, err)

		var result SeedResult
		resp := decode(t, out, &result)
		assert.Equal(t, "ok", resp.Status)
		require.Len(t, result.Nodes, 4)
		assert.Equal(t, "canine", result.Nodes[2].Key)
		assert.Equal(t, "01-01-03-0001", result.Nodes[2].Code)
		assert.Equal(t, 2, result.Relations)
		assert.Equal(t, 6, result.Summary.AuditEntries)
	})

	t.Run("missing file", func(t *testing.T) {
		out, err := execute(t, "seed", filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.True(t, Reported(err))
		assert.Contains(t, out, "Error [E002]")
	})

	t.Run("invalid document", func(t *testing.T) {
		bad := writeSeed(t, "nodes:\n  - key: a\n    major: 1\n    type: 1\n    label: a\n    colour: red\n")
		out, err := execute(t, "seed", bad, "--format", "json")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))

		resp := decode(t, out, nil)
		assert.Equal(t, "error", resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, ErrCodeInvalidDoc, resp.Error.Code)
	})
}

func TestDeriveCommand(t *testing.T) {
	path := writeSeed(t, forestSeed)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"siblings", []string{"siblings", "feline"}, []string{"siblings of feline (01-01-02-0001):", "  animal (01-01-01-0001)", "  canine (01-01-03-0001)"}},
		{"cousins", []string{"cousins", "feline"}, []string{"  (none)"}},
		{"category", []string{"category", "1"}, []string{"category 1 (", "  vehicle (01-02-01-0001)"}},
		{"path", []string{"path", "feline", "animal"}, []string{"  feline -> animal"}},
		{"path by code", []string{"path", "01-01-02-0001", "ANIMAL"}, []string{"  feline -> animal"}},
		{"tension", []string{"tension", "feline"}, []string{"  0.50"}},
		{"neighbors", []string{"neighbors", "feline", "--max-distance", "2"}, []string{"  2  animal (01-01-01-0001)", "  2  canine (01-01-03-0001)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"derive", path}, tt.args...)...)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestDeriveCommandJSON(t *testing.T) {
	out, err := execute(t, "derive", writeSeed(t, forestSeed), "neighbors", "feline", "--format", "json")
	require.NoError(t, err)

	var result DeriveResult
	decode(t, out, &result)
	assert.Equal(t, "neighbors", result.Op)
	require.NotNil(t, result.Node)
	assert.Equal(t, "01-01-02-0001", result.Node.Code)
	require.Len(t, result.Nodes, 2)
	require.NotNil(t, result.Nodes[0].Distance)
	assert.Equal(t, 2, *result.Nodes[0].Distance)
}

func TestDeriveCommandErrors(t *testing.T) {
	path := writeSeed(t, forestSeed)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"unknown op", []string{"derive", path, "ancestors", "feline"}, ErrCodeDeriveOp},
		{"path without target", []string{"derive", path, "path", "feline"}, ErrCodeDeriveOp},
		{"unknown label", []string{"derive", path, "siblings", "unicorn"}, ErrCodeNoSuchLabel},
		{"major out of range", []string{"derive", path, "category", "9"}, ErrCodeCoordinate},
		{"major not a number", []string{"derive", path, "category", "one"}, ErrCodeCoordinate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append(tt.args, "--format", "json")...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			resp := decode(t, out, nil)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestHandleCommand(t *testing.T) {
	path := writeSeed(t, forestSeed)

	t.Run("rule proposer", func(t *testing.T) {
		out, err := execute(t, "handle", path, "justice", "feline", "--format", "json")
		require.NoError(t, err)

		var result HandleResult
		decode(t, out, &result)
		require.Len(t, result.Decisions, 2)

		first := result.Decisions[0]
		assert.Equal(t, "test-decision-0001", first.ID)
		assert.Equal(t, "CREATE_NODE", first.Strategy)
		assert.Equal(t, "justice (08-01-01-0001)", first.Result)
		assert.Equal(t, 7, first.AuditIndex) // ADD at 6, then DECISION

		second := result.Decisions[1]
		assert.Equal(t, "RETURN_EXISTING", second.Strategy)
		assert.Equal(t, "[feline (01-01-02-0001)]", second.Result)

		assert.Equal(t, 5, result.Summary.Nodes)
		assert.True(t, result.Summary.ChainValid)
	})

	t.Run("forced strategy", func(t *testing.T) {
		out, err := execute(t, "handle", path, "feline",
			"--strategy", "ADD_RELATION", "--target", "canine", "--relation", "SIMILAR_TO")
		require.NoError(t, err)
		assert.Contains(t, out, "ADD_RELATION")
		assert.Contains(t, out, "01-01-02-0001 SIMILAR_TO 01-01-03-0001")
		assert.Contains(t, out, "Relations:        3")
	})

	t.Run("create with context", func(t *testing.T) {
		out, err := execute(t, "handle", path, "ruin", "--major", "1", "--type", "2", "--subtype", "3")
		require.NoError(t, err)
		assert.Contains(t, out, "ruin (01-02-03-0001)")
	})

	t.Run("unknown strategy", func(t *testing.T) {
		out, err := execute(t, "handle", path, "feline", "--strategy", "GUESS")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error ["+ErrCodeDecision+"]")
	})

	t.Run("missing context", func(t *testing.T) {
		out, err := execute(t, "handle", path, "feline", "--strategy", "RESOLVE_FORK")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, `decision for "feline" failed`)
	})
}

func TestAuditCommand(t *testing.T) {
	path := writeSeed(t, forestSeed)

	t.Run("text", func(t *testing.T) {
		out, err := execute(t, "audit", path, "--last", "2", "--metrics")
		require.NoError(t, err)
		assert.Contains(t, out, "Audit chain: 6 entries, showing 2")
		assert.Contains(t, out, "RELATE")
		assert.Contains(t, out, "Valid: true")
		assert.Contains(t, out, "axiom_audit_entries_total{ADD} 4")
		assert.Contains(t, out, "axiom_audit_entries_total{RELATE} 2")
	})

	t.Run("json all entries", func(t *testing.T) {
		out, err := execute(t, "audit", path, "--last", "0", "--format", "json")
		require.NoError(t, err)

		var result AuditResult
		decode(t, out, &result)
		assert.Equal(t, 6, result.Total)
		assert.True(t, result.Valid)
		require.Len(t, result.Entries, 6)

		first := result.Entries[0]
		assert.Equal(t, 0, first.Index)
		assert.Equal(t, "ADD", first.Action)
		assert.Equal(t, []any{"01-01-01-0001", "animal"}, first.Args)
		for i := 1; i < len(result.Entries); i++ {
			assert.Equal(t, result.Entries[i-1].Hash, result.Entries[i].PrevHash)
		}
		assert.Equal(t, result.Entries[5].Hash, result.Head)
		assert.Empty(t, result.Metrics)
	})
}

func TestDemoCommand(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		out, err := execute(t, "demo", "--scale", "0")
		require.NoError(t, err)
		assert.Contains(t, out, "siblings of feline:  animal, canine, jaguar")
		assert.Contains(t, out, "feline -> animal:    feline -> animal")
		assert.Contains(t, out, "distance feline/car: 3")
		assert.Contains(t, out, "jaguar:animal (01-01-02-0003)")
		assert.Contains(t, out, "jaguar:car (01-01-02-0004)")
		assert.Contains(t, out, "tension at jaguar: 3.00")
		assert.Contains(t, out, "entries: 17, chain valid: true")
		assert.Contains(t, out, "8 nodes, 7 relations, 1 forks")
		assert.NotContains(t, out, "[6] Scale")
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "demo", "--scale", "200", "--rand-seed", "7", "--format", "json")
		require.NoError(t, err)

		var result DemoResult
		decode(t, out, &result)
		assert.Equal(t, 6, result.Seed.StoredNodes)
		assert.Equal(t, 3, result.Seed.StoredRelations)
		assert.Len(t, result.Seed.Category, 6)
		require.Len(t, result.Seed.Neighbors, 5)
		assert.Equal(t, "jaguar", result.Seed.Neighbors[0].Label)
		assert.Len(t, result.Seed.LastEntries, 5)

		require.NotNil(t, result.Scale)
		assert.Equal(t, 200, result.Scale.Nodes)
		assert.Greater(t, result.Scale.DerivationRatio, 1.0)
	})

	t.Run("deterministic scale", func(t *testing.T) {
		first, err := execute(t, "demo", "--scale", "300", "--rand-seed", "3", "--format", "json")
		require.NoError(t, err)
		second, err := execute(t, "demo", "--scale", "300", "--rand-seed", "3", "--format", "json")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("scale out of range", func(t *testing.T) {
		_, err := execute(t, "demo", "--scale", "-1")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}

const passingScenario = `name: tiny
description: "Two nodes and one sibling"
steps:
  - add: { key: a, code: 01-01-01-0001, label: a }
  - add: { key: b, code: 01-01-02-0001, label: b }
  - relate: { from: b, kind: IS_A, to: a }
  - derive: { op: siblings, node: b }
    expect: { labels: [a] }
assertions:
  - type: trace_count
    action: ADD
    count: 2
  - type: chain_valid
`

const failingScenario = `name: broken
description: "Expects a node that is never added"
steps:
  - add: { key: a, code: 01-01-01-0001, label: a }
assertions:
  - type: stats
    nodes: 2
`

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTestCommand(t *testing.T) {
	t.Run("harness scenarios", func(t *testing.T) {
		out, err := execute(t, "test", filepath.Join("..", "harness", "testdata", "scenarios"))
		require.NoError(t, err, out)
		assert.Contains(t, out, "✓ animals")
		assert.Contains(t, out, "✓ seeded_forest")
		assert.Contains(t, out, "✓ All scenarios passed")
	})

	t.Run("failure", func(t *testing.T) {
		dir := t.TempDir()
		writeScenario(t, dir, "tiny.yaml", passingScenario)
		writeScenario(t, dir, "broken.yaml", failingScenario)

		out, err := execute(t, "test", dir, "--format", "json")
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))

		var result TestResult
		resp := decode(t, out, &result)
		assert.Equal(t, "error", resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
		assert.Equal(t, 1, result.Passed)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, 2, result.Total)
	})

	t.Run("filter", func(t *testing.T) {
		dir := t.TempDir()
		writeScenario(t, dir, "tiny.yaml", passingScenario)
		writeScenario(t, dir, "broken.yaml", failingScenario)

		out, err := execute(t, "test", dir, "--filter", "ti*")
		require.NoError(t, err)
		assert.Contains(t, out, "1 passed, 0 failed, 1 total")
	})

	t.Run("golden update and compare", func(t *testing.T) {
		dir := t.TempDir()
		writeScenario(t, dir, "tiny.yaml", passingScenario)

		out, err := execute(t, "test", dir, "--update")
		require.NoError(t, err)
		assert.Contains(t, out, "✓ tiny (golden updated)")

		goldenPath := filepath.Join(dir, "golden", "tiny.golden")
		data, err := os.ReadFile(goldenPath)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"scenario_name":"tiny"`)

		_, err = execute(t, "test", dir)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(goldenPath, []byte(`{"scenario_name":"tiny","trace":[]}`), 0o644))
		out, err = execute(t, "test", dir)
		require.Error(t, err)
		assert.Contains(t, out, "trace does not match golden file")
	})

	t.Run("load error", func(t *testing.T) {
		dir := t.TempDir()
		writeScenario(t, dir, "junk.yaml", "name: [unterminated\n")

		out, err := execute(t, "test", dir)
		require.Error(t, err)
		assert.Contains(t, out, "✗ junk.yaml")
		assert.Contains(t, out, "failed to load scenario")
	})

	t.Run("empty directory", func(t *testing.T) {
		out, err := execute(t, "test", t.TempDir())
		require.NoError(t, err)
		assert.Contains(t, out, "No scenarios found.")
	})

	t.Run("missing directory", func(t *testing.T) {
		out, err := execute(t, "test", filepath.Join(t.TempDir(), "absent"))
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error [E002]")
	})
}
