package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// Trace Metrics
	TracesTotal   *prometheus.CounterVec
	TraceDuration *prometheus.HistogramVec
	TraceSteps    *prometheus.HistogramVec
	SlowTraces    *prometheus.CounterVec

	// Phase Metrics
	PhasesAppliedTotal  *prometheus.CounterVec
	PhaseConflictsTotal *prometheus.CounterVec
	PhasesInferredTotal *prometheus.CounterVec

	// Direction Metrics
	DirectionsAppliedTotal *prometheus.CounterVec
	FeederHeadsFound       *prometheus.CounterVec
	FeederAssignmentsTotal *prometheus.CounterVec

	// Network Metrics
	NetworkEquipment    *prometheus.GaugeVec
	NetworkTerminals    prometheus.Gauge
	SnapshotOpsTotal    *prometheus.CounterVec
	SnapshotSizeBytes   prometheus.Gauge
	SnapshotRecordCount prometheus.Gauge

	// HTTP Metrics (metrics endpoint)
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// System Metrics
	UptimeSeconds          prometheus.GaugeFunc
	GoRoutines             prometheus.GaugeFunc
	MemoryAllocBytes       prometheus.Gauge
	NetworkLoadedTimestamp prometheus.Gauge
	SnapshotAgeSeconds     prometheus.GaugeFunc

	registry     *prometheus.Registry
	startedAt    time.Time
	lastSnapshot time.Time
	mu           sync.Mutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with every gridtrace metric registered
func NewRegistry() *Registry {
	r := &Registry{
		registry:  prometheus.NewRegistry(),
		startedAt: time.Now(),
	}

	r.initTraceMetrics()
	r.initPhaseMetrics()
	r.initDirectionMetrics()
	r.initNetworkMetrics()
	r.initHTTPMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
