package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initTraceMetrics() {
	r.TracesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridtrace_traces_total",
			Help: "Total number of traces run",
		},
		[]string{"trace", "status"},
	)

	r.TraceDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridtrace_trace_duration_seconds",
			Help:    "Trace run duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
		},
		[]string{"trace"},
	)

	r.TraceSteps = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridtrace_trace_steps",
			Help:    "Number of steps visited per trace run",
			Buckets: []float64{10, 100, 1000, 10000, 100000, 1000000},
		},
		[]string{"trace"},
	)

	r.SlowTraces = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridtrace_slow_traces_total",
			Help: "Total number of traces slower than 5s",
		},
		[]string{"trace"},
	)
}
