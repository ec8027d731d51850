package metrics

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SlowTraceThreshold is the duration past which a trace counts as slow
const SlowTraceThreshold = 5 * time.Second

// RecordTrace records one finished trace run
func (r *Registry) RecordTrace(trace, status string, duration time.Duration, steps int) {
	r.TracesTotal.WithLabelValues(trace, status).Inc()
	r.TraceDuration.WithLabelValues(trace).Observe(duration.Seconds())
	r.TraceSteps.WithLabelValues(trace).Observe(float64(steps))

	if duration > SlowTraceThreshold {
		r.SlowTraces.WithLabelValues(trace).Inc()
	}
}

// RecordPhaseChange records a terminal whose traced phases were set or cleared
func (r *Registry) RecordPhaseChange(state, operation string) {
	r.PhasesAppliedTotal.WithLabelValues(state, operation).Inc()
}

// RecordPhaseConflict records a crossing phase error
func (r *Registry) RecordPhaseConflict(state string) {
	r.PhaseConflictsTotal.WithLabelValues(state).Inc()
}

// RecordPhaseInference records a terminal with inferred phases
func (r *Registry) RecordPhaseInference(state string, suspect bool) {
	r.PhasesInferredTotal.WithLabelValues(state, strconv.FormatBool(suspect)).Inc()
}

// RecordDirectionChange records a terminal whose feeder direction changed
func (r *Registry) RecordDirectionChange(state, operation string) {
	r.DirectionsAppliedTotal.WithLabelValues(state, operation).Inc()
}

// RecordFeederHeads records start terminals reached by a clear
func (r *Registry) RecordFeederHeads(state string, n int) {
	r.FeederHeadsFound.WithLabelValues(state).Add(float64(n))
}

// RecordFeederAssignments records equipment assigned to feeders
func (r *Registry) RecordFeederAssignments(state string, n int) {
	r.FeederAssignmentsTotal.WithLabelValues(state).Add(float64(n))
}

// UpdateNetworkMetrics replaces the network size gauges
func (r *Registry) UpdateNetworkMetrics(equipmentByKind map[string]int, terminals int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.NetworkEquipment.Reset()
	for kind, n := range equipmentByKind {
		r.NetworkEquipment.WithLabelValues(kind).Set(float64(n))
	}
	r.NetworkTerminals.Set(float64(terminals))
	r.NetworkLoadedTimestamp.SetToCurrentTime()
}

// RecordSnapshot records a snapshot read or write
func (r *Registry) RecordSnapshot(operation, status string, sizeBytes int64, records int) {
	r.SnapshotOpsTotal.WithLabelValues(operation, status).Inc()
	if status == "success" {
		r.SnapshotSizeBytes.Set(float64(sizeBytes))
		r.SnapshotRecordCount.Set(float64(records))
		r.mu.Lock()
		r.lastSnapshot = time.Now()
		r.mu.Unlock()
	}
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// UpdateSystemMetrics samples heap usage
func (r *Registry) UpdateSystemMetrics() {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	r.MemoryAllocBytes.Set(float64(mem.Alloc))
}

// Handler serves the registry in the Prometheus exposition format,
// refreshing system metrics and recording each request
func (r *Registry) Handler() http.Handler {
	inner := promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		r.HTTPRequestsInFlight.Inc()
		defer r.HTTPRequestsInFlight.Dec()

		r.UpdateSystemMetrics()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		inner.ServeHTTP(rec, req)
		r.RecordHTTPRequest(req.Method, req.URL.Path, strconv.Itoa(rec.status), time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
