package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initNetworkMetrics() {
	r.NetworkEquipment = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gridtrace_network_equipment",
			Help: "Number of conducting equipment in the loaded network",
		},
		[]string{"kind"},
	)

	r.NetworkTerminals = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "gridtrace_network_terminals",
			Help: "Number of terminals in the loaded network",
		},
	)

	r.SnapshotOpsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridtrace_snapshot_operations_total",
			Help: "Total number of traced state snapshot reads and writes",
		},
		[]string{"operation", "status"},
	)

	r.SnapshotSizeBytes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "gridtrace_snapshot_size_bytes",
			Help: "Size of the last snapshot written or read",
		},
	)

	r.SnapshotRecordCount = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "gridtrace_snapshot_records",
			Help: "Number of terminal records in the last snapshot",
		},
	)
}
