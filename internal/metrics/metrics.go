// Package metrics counts audit activity with prometheus counters.
//
// A Recorder observes an audit chain: every appended entry increments
// axiom_audit_entries_total{action}, and DECISION entries also increment
// axiom_decisions_total{strategy}.
package metrics

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/axiom/internal/audit"
)

const namespace = "axiom"

// decisionAction matches wrapper.ActionDecision; metrics sits below wrapper
// in the import graph.
const decisionAction = "DECISION"

// Recorder owns a private registry so several Spaces in one process do not
// collide on global metric names.
type Recorder struct {
	registry  *prometheus.Registry
	entries   *prometheus.CounterVec
	decisions *prometheus.CounterVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		entries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_entries_total",
			Help:      "Audit entries appended, by action.",
		}, []string{"action"}),
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Wrapper decisions recorded, by strategy.",
		}, []string{"strategy"}),
	}
}

// Registry exposes the registry for an exporter.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe implements audit.Observer.
func (r *Recorder) Observe(e audit.Entry) {
	r.entries.WithLabelValues(e.Action).Inc()
	if e.Action != decisionAction || len(e.Args) == 0 {
		return
	}
	if strategy, ok := e.Args[0].(audit.String); ok {
		r.decisions.WithLabelValues(string(strategy)).Inc()
	}
}

// Count is one labeled counter value.
type Count struct {
	Metric string  `json:"metric"`
	Label  string  `json:"label"`
	Value  float64 `json:"value"`
}

// Snapshot returns every counter, sorted by metric then label.
func (r *Recorder) Snapshot() ([]Count, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return nil, err
	}
	var out []Count
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			label := ""
			if pairs := m.GetLabel(); len(pairs) > 0 {
				label = pairs[0].GetValue()
			}
			out = append(out, Count{
				Metric: mf.GetName(),
				Label:  label,
				Value:  m.GetCounter().GetValue(),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Metric != out[j].Metric {
			return out[i].Metric < out[j].Metric
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}
