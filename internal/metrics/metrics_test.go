package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/axiom/internal/audit"
)

func TestRecorderCountsEntries(t *testing.T) {
	r := NewRecorder()
	c := audit.NewChain(audit.WithObserver(r))

	c.Append("ADD", audit.S("01-01-01-0001"), audit.S("a"))
	c.Append("ADD", audit.S("01-01-01-0002"), audit.S("b"))
	c.Append("DERIVE", audit.S("category"), audit.I(1))
	c.Append("DECISION", audit.S("CREATE_NODE"), audit.S("x"), audit.S("x (08-01-01-0001)"))
	c.Append("DECISION", audit.S("ESCALATE"), audit.S("1"), audit.S("escalated: 1"))
	c.Append("DECISION", audit.S("CREATE_NODE"), audit.S("y"), audit.S("y (08-01-01-0002)"))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.entries.WithLabelValues("ADD")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.entries.WithLabelValues("DECISION")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.decisions.WithLabelValues("CREATE_NODE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.decisions.WithLabelValues("ESCALATE")))
}

func TestSnapshotSorted(t *testing.T) {
	r := NewRecorder()
	r.Observe(audit.Entry{Action: "RELATE"})
	r.Observe(audit.Entry{Action: "ADD"})
	r.Observe(audit.Entry{Action: "DECISION", Args: []audit.Value{audit.S("RETURN_EXISTING")}})

	snap, err := r.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, []Count{
		{Metric: "axiom_audit_entries_total", Label: "ADD", Value: 1},
		{Metric: "axiom_audit_entries_total", Label: "DECISION", Value: 1},
		{Metric: "axiom_audit_entries_total", Label: "RELATE", Value: 1},
		{Metric: "axiom_decisions_total", Label: "RETURN_EXISTING", Value: 1},
	}, snap)
}

func TestRecordersAreIndependent(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	a.Observe(audit.Entry{Action: "ADD"})

	assert.Equal(t, 1, mustGatherAndCount(t, a))
	assert.Equal(t, 0, mustGatherAndCount(t, b))
}

func mustGatherAndCount(t *testing.T, r *Recorder) int {
	t.Helper()
	n, err := testutil.GatherAndCount(r.Registry())
	require.NoError(t, err)
	return n
}
