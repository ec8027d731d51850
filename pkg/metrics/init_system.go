package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// initSystemMetrics registers process and freshness metrics. Most are
// computed at scrape time; the heap gauge is sampled by UpdateSystemMetrics.
func (r *Registry) initSystemMetrics() {
	factory := promauto.With(r.registry)

	r.UptimeSeconds = factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "gridtrace_uptime_seconds",
		Help: "Time since the process started in seconds",
	}, func() float64 { return time.Since(r.startedAt).Seconds() })

	r.GoRoutines = factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "gridtrace_goroutines",
		Help: "Number of goroutines",
	}, func() float64 { return float64(runtime.NumGoroutine()) })

	r.MemoryAllocBytes = factory.NewGauge(prometheus.GaugeOpts{
		Name: "gridtrace_memory_alloc_bytes",
		Help: "Bytes of allocated heap objects at the last sample",
	})

	r.NetworkLoadedTimestamp = factory.NewGauge(prometheus.GaugeOpts{
		Name: "gridtrace_network_loaded_timestamp_seconds",
		Help: "Unix time the network model was last loaded",
	})

	r.SnapshotAgeSeconds = factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "gridtrace_snapshot_age_seconds",
		Help: "Seconds since the last successful snapshot read or write, 0 before the first",
	}, r.snapshotAge)
}

func (r *Registry) snapshotAge() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastSnapshot.IsZero() {
		return 0
	}
	return time.Since(r.lastSnapshot).Seconds()
}
