package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	counter, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func gaugeValue(t *testing.T, gauge prometheus.Metric) float64 {
	t.Helper()
	var metric dto.Metric
	if err := gauge.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Gauge.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()

	if r.TracesTotal == nil || r.TraceDuration == nil || r.TraceSteps == nil {
		t.Error("trace metrics not initialized")
	}
	if r.PhasesAppliedTotal == nil || r.DirectionsAppliedTotal == nil {
		t.Error("domain metrics not initialized")
	}
	if r.GetPrometheusRegistry() == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordTrace(t *testing.T) {
	r := NewRegistry()

	r.RecordTrace("set-phases", "success", 10*time.Millisecond, 40)
	r.RecordTrace("set-phases", "success", 20*time.Millisecond, 60)
	r.RecordTrace("set-phases", "error", 6*time.Second, 3)

	if got := counterValue(t, r.TracesTotal, "set-phases", "success"); got != 2 {
		t.Errorf("success traces = %v, want 2", got)
	}
	if got := counterValue(t, r.TracesTotal, "set-phases", "error"); got != 1 {
		t.Errorf("error traces = %v, want 1", got)
	}
	if got := counterValue(t, r.SlowTraces, "set-phases"); got != 1 {
		t.Errorf("slow traces = %v, want 1", got)
	}

	histogram, err := r.TraceSteps.GetMetricWithLabelValues("set-phases")
	if err != nil {
		t.Fatalf("Failed to get histogram: %v", err)
	}
	var metric dto.Metric
	if err := histogram.(prometheus.Histogram).Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 3 || metric.Histogram.GetSampleSum() != 103 {
		t.Errorf("steps histogram count=%d sum=%v", metric.Histogram.GetSampleCount(), metric.Histogram.GetSampleSum())
	}
}

func TestDomainCounters(t *testing.T) {
	r := NewRegistry()

	r.RecordPhaseChange("normal", "set")
	r.RecordPhaseChange("normal", "set")
	r.RecordPhaseChange("current", "remove")
	r.RecordPhaseConflict("normal")
	r.RecordPhaseInference("normal", true)
	r.RecordDirectionChange("current", "clear")
	r.RecordFeederHeads("current", 2)
	r.RecordFeederAssignments("normal", 3)

	tests := []struct {
		name     string
		vec      *prometheus.CounterVec
		labels   []string
		expected float64
	}{
		{"phases set", r.PhasesAppliedTotal, []string{"normal", "set"}, 2},
		{"phases removed", r.PhasesAppliedTotal, []string{"current", "remove"}, 1},
		{"conflicts", r.PhaseConflictsTotal, []string{"normal"}, 1},
		{"inferred", r.PhasesInferredTotal, []string{"normal", "true"}, 1},
		{"direction cleared", r.DirectionsAppliedTotal, []string{"current", "clear"}, 1},
		{"feeder heads", r.FeederHeadsFound, []string{"current"}, 2},
		{"feeder assignments", r.FeederAssignmentsTotal, []string{"normal"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := counterValue(t, tt.vec, tt.labels...); got != tt.expected {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.expected)
			}
		})
	}
}

func TestUpdateNetworkMetrics(t *testing.T) {
	r := NewRegistry()

	r.UpdateNetworkMetrics(map[string]int{"Breaker": 3, "AcLineSegment": 5}, 16)
	r.UpdateNetworkMetrics(map[string]int{"AcLineSegment": 2}, 4)

	if got := gaugeValue(t, r.NetworkTerminals); got != 4 {
		t.Errorf("terminals = %v, want 4", got)
	}
	if got := gaugeValue(t, r.NetworkEquipment.WithLabelValues("AcLineSegment")); got != 2 {
		t.Errorf("AcLineSegment = %v, want 2", got)
	}

	families, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}
	for _, f := range families {
		if f.GetName() != "gridtrace_network_equipment" {
			continue
		}
		if len(f.GetMetric()) != 1 {
			t.Errorf("stale kinds should be reset, got %d series", len(f.GetMetric()))
		}
	}
}

func TestRecordSnapshot(t *testing.T) {
	r := NewRegistry()

	r.RecordSnapshot("write", "success", 2048, 12)
	r.RecordSnapshot("read", "error", 0, 0)

	if got := gaugeValue(t, r.SnapshotSizeBytes); got != 2048 {
		t.Errorf("snapshot size = %v, want 2048", got)
	}
	if got := gaugeValue(t, r.SnapshotRecordCount); got != 12 {
		t.Errorf("snapshot records = %v, want 12", got)
	}
	if got := counterValue(t, r.SnapshotOpsTotal, "read", "error"); got != 1 {
		t.Errorf("read errors = %v, want 1", got)
	}
}

func TestFreshnessMetrics(t *testing.T) {
	r := NewRegistry()

	if got := gaugeValue(t, r.SnapshotAgeSeconds); got != 0 {
		t.Errorf("snapshot age before any snapshot = %v, want 0", got)
	}
	if got := gaugeValue(t, r.NetworkLoadedTimestamp); got != 0 {
		t.Errorf("network loaded timestamp before any load = %v, want 0", got)
	}

	before := float64(time.Now().Unix())
	r.UpdateNetworkMetrics(map[string]int{"Breaker": 1}, 2)
	if got := gaugeValue(t, r.NetworkLoadedTimestamp); got < before {
		t.Errorf("network loaded timestamp = %v, want >= %v", got, before)
	}

	r.RecordSnapshot("read", "error", 0, 0)
	if got := gaugeValue(t, r.SnapshotAgeSeconds); got != 0 {
		t.Errorf("a failed snapshot should not count, age = %v", got)
	}

	r.RecordSnapshot("write", "success", 10, 1)
	time.Sleep(10 * time.Millisecond)
	if got := gaugeValue(t, r.SnapshotAgeSeconds); got <= 0 || got > 5 {
		t.Errorf("snapshot age = %v, want a small positive value", got)
	}
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.RecordTrace("clear-direction", "success", time.Millisecond, 5)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, want := range []string{"gridtrace_traces_total", "gridtrace_uptime_seconds", "gridtrace_goroutines", "gridtrace_memory_alloc_bytes", "gridtrace_snapshot_age_seconds"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %s", want)
		}
	}
	if got := counterValue(t, r.HTTPRequestsTotal, "GET", "/metrics", "200"); got != 1 {
		t.Errorf("http requests = %v, want 1", got)
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.RecordTrace("tree", "success", time.Microsecond, 1)
			}
		}()
	}
	wg.Wait()

	if got := counterValue(t, r.TracesTotal, "tree", "success"); got != 1000 {
		t.Errorf("Counter = %v, want 1000", got)
	}
}

func TestMetricNaming(t *testing.T) {
	r := NewRegistry()
	r.RecordTrace("tree", "success", time.Millisecond, 1)

	families, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}
	for _, f := range families {
		if !strings.HasPrefix(f.GetName(), "gridtrace_") {
			t.Errorf("Metric %s does not have gridtrace_ prefix", f.GetName())
		}
	}
}

func BenchmarkRecordTrace(b *testing.B) {
	r := NewRegistry()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.RecordTrace("bench", "success", time.Millisecond, 10)
	}
}
