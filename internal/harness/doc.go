// Package harness runs scripted scenarios against a Space and Wrapper and
// checks the resulting audit trace.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: animals
//	description: "Siblings, cousins and paths in a small taxonomy"
//	seed: ../seeds/forest.yaml   # optional, relative to this file
//	steps:
//	  - add: { key: cat, code: 01-01-02-0001, label: cat }
//	  - relate: { from: cat, kind: IS_A, to: animal }
//	  - fork: { node: cat, branches: [pet, wild] }
//	  - resolve: { node: cat, branch: cat.pet }
//	  - handle:
//	      input: justice
//	      bind: justice
//	    expect: { strategy: CREATE_NODE, codes: [08-01-01-0001] }
//	  - derive: { op: siblings, node: cat }
//	    expect: { labels: [dog] }
//	assertions:
//	  - type: trace_contains
//	    action: DERIVE
//	    args: [siblings]
//	  - type: stats
//	    nodes: 3
//
// Node references are keys bound by add, fork ("<node>.<branch>"), handle
// (bind) or the seed; any other reference is parsed as a coordinate code.
// A step without expect must succeed. expect.error names the failure a step
// must produce, e.g. DuplicateCoordinate or NotABranch.
//
// # Assertion Types
//
//   - trace_contains: an entry with the action whose args start with args
//   - trace_order: actions appear in the given order, gaps allowed
//   - trace_count: an action appears exactly count times
//   - chain_valid: the chain verifies (or not, with valid: false)
//   - stats: the Space holds the given numbers of nodes, relations and forks
//
// # Deterministic Testing
//
// Every run uses a fresh testutil.StepClock and testutil.SequenceIDs, so the
// same scenario always yields the same trace and the same chain hashes.
// Golden snapshots exclude timestamps and hashes and are written with
// audit.MarshalCanonical.
package harness
