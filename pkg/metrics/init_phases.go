package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPhaseMetrics() {
	r.PhasesAppliedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridtrace_phases_applied_total",
			Help: "Total number of terminal phase assignments changed",
		},
		[]string{"state", "operation"},
	)

	r.PhaseConflictsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridtrace_phase_conflicts_total",
			Help: "Total number of crossing phase conflicts raised",
		},
		[]string{"state"},
	)

	r.PhasesInferredTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridtrace_phases_inferred_total",
			Help: "Total number of terminals whose phases were inferred",
		},
		[]string{"state", "suspect"},
	)
}
