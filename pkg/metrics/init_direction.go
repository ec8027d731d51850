package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initDirectionMetrics() {
	r.DirectionsAppliedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridtrace_directions_applied_total",
			Help: "Total number of terminal feeder direction changes",
		},
		[]string{"state", "operation"},
	)

	r.FeederHeadsFound = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridtrace_feeder_heads_found_total",
			Help: "Start terminals reached while clearing directions",
		},
		[]string{"state"},
	)

	r.FeederAssignmentsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridtrace_feeder_assignments_total",
			Help: "Equipment assigned to feeders",
		},
		[]string{"state"},
	)
}
