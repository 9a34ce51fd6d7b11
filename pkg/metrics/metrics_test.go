package metrics

import (
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewMetrics(reg, reg, "test", "pathfinder"), reg
}

func TestInitMetrics(t *testing.T) {
	// Create fresh registry to avoid conflicts
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	m := InitMetrics("test", "service")

	if m == nil {
		t.Fatal("InitMetrics returned nil")
	}

	if m.GenerationsTotal == nil {
		t.Error("GenerationsTotal should not be nil")
	}
	if m.SearchDuration == nil {
		t.Error("SearchDuration should not be nil")
	}
	if m.ForcedEdgesTotal == nil {
		t.Error("ForcedEdgesTotal should not be nil")
	}
}

func TestGet(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	defaultMetrics = nil

	m := Get()
	if m == nil {
		t.Error("Get() should not return nil")
	}

	// Second call should return same instance
	m2 := Get()
	if m2 != m {
		t.Error("Get() should return same instance")
	}
}

func TestRecordGeneration(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordGeneration(true, 20*time.Millisecond, 10, 42)
	m.RecordGeneration(true, 30*time.Millisecond, 10, 40)
	m.RecordGeneration(false, time.Millisecond, 0, 0)

	if got := testutil.ToFloat64(m.GenerationsTotal.WithLabelValues("success")); got != 2 {
		t.Errorf("generations success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.GenerationsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("generations error = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.GenerateDuration); got != 1 {
		t.Errorf("generate duration series = %d, want 1", got)
	}
}

func TestRecordForcedEdges(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordForcedEdges(3, 1)
	m.RecordForcedEdges(0, 2)

	if got := testutil.ToFloat64(m.ForcedEdgesTotal.WithLabelValues("outgoing")); got != 3 {
		t.Errorf("forced outgoing = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.ForcedEdgesTotal.WithLabelValues("incoming")); got != 3 {
		t.Errorf("forced incoming = %v, want 3", got)
	}
}

func TestRecordSearch(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordSearch(true, 5*time.Millisecond, 9, 1, 4)

	if got := testutil.ToFloat64(m.SearchesTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("searches success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SearchRounds); got != 9 {
		t.Errorf("search rounds = %v, want 9", got)
	}
	if got := testutil.ToFloat64(m.UnreachableVertices); got != 1 {
		t.Errorf("unreachable = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.EngineWorkers); got != 4 {
		t.Errorf("workers = %v, want 4", got)
	}

	// Failed searches do not touch the gauges
	m.RecordSearch(false, time.Millisecond, 100, 100, 100)
	if got := testutil.ToFloat64(m.SearchRounds); got != 9 {
		t.Errorf("search rounds after failure = %v, want 9", got)
	}
	if got := testutil.ToFloat64(m.SearchesTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("searches error = %v, want 1", got)
	}
}

func TestSetServiceInfo(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.SetServiceInfo("1.0.0", "production")

	if got := testutil.ToFloat64(m.ServiceInfo.WithLabelValues("1.0.0", "production")); got != 1 {
		t.Errorf("service info = %v, want 1", got)
	}
}

func gatherValues(t *testing.T, c prometheus.Collector) map[string]float64 {
	t.Helper()
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	values := make(map[string]float64, len(families))
	for _, mf := range families {
		m := mf.GetMetric()[0]
		switch {
		case m.GetGauge() != nil:
			values[mf.GetName()] = m.GetGauge().GetValue()
		case m.GetCounter() != nil:
			values[mf.GetName()] = m.GetCounter().GetValue()
		}
	}
	return values
}

func TestCapacityCollector_Describe(t *testing.T) {
	collector := NewCapacityCollector("test", "capacity", 4)

	descCh := make(chan *prometheus.Desc, 16)
	collector.Describe(descCh)
	close(descCh)

	count := 0
	for range descCh {
		count++
	}
	if count != 9 {
		t.Errorf("expected 9 descriptors, got %d", count)
	}
}

func TestCapacityCollector_Oversubscription(t *testing.T) {
	procs := runtime.GOMAXPROCS(0)
	values := gatherValues(t, NewCapacityCollector("test", "pf", 2*procs))

	if got := values["test_pf_capacity_engine_workers"]; got != float64(2*procs) {
		t.Errorf("engine workers = %v, want %d", got, 2*procs)
	}
	if got := values["test_pf_capacity_gomaxprocs"]; got != float64(procs) {
		t.Errorf("gomaxprocs = %v, want %d", got, procs)
	}
	if got := values["test_pf_capacity_worker_oversubscription_ratio"]; got != 2 {
		t.Errorf("oversubscription = %v, want 2", got)
	}
	if got := values["test_pf_capacity_heap_inuse_bytes"]; got <= 0 {
		t.Errorf("heap in use = %v, want > 0", got)
	}
}

func TestCapacityCollector_DefaultWorkers(t *testing.T) {
	collector := NewCapacityCollector("test", "pf", 0)
	if got := collector.Workers(); got != runtime.NumCPU() {
		t.Errorf("Workers() = %d, want NumCPU %d", got, runtime.NumCPU())
	}

	values := gatherValues(t, collector)
	if got := values["test_pf_capacity_engine_workers"]; got != float64(runtime.NumCPU()) {
		t.Errorf("engine workers = %v, want %d", got, runtime.NumCPU())
	}
}

func TestCapacityCollector_GCPause(t *testing.T) {
	runtime.GC()

	values := gatherValues(t, NewCapacityCollector("test", "gc", 1))
	if _, ok := values["test_gc_capacity_gc_last_pause_seconds"]; !ok {
		t.Error("should have collected GC pause metric")
	}
	if got := values["test_gc_capacity_gc_runs_total"]; got < 1 {
		t.Errorf("gc runs = %v, want >= 1", got)
	}
}

func TestHandler(t *testing.T) {
	handler := Handler()
	if handler == nil {
		t.Error("Handler() should not return nil")
	}
}

func TestServer_Routes(t *testing.T) {
	m, _ := newTestMetrics(t)
	m.RecordSearch(true, time.Millisecond, 3, 0, 2)

	srv := NewServer(0, "/custom", m.Handler())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/custom", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_pathfinder_search_rounds 3") {
		t.Errorf("metrics body missing search_rounds:\n%s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("health = %d %q, want 200 OK", rec.Code, rec.Body.String())
	}
}

func TestNewServer_DefaultPath(t *testing.T) {
	m, _ := newTestMetrics(t)
	srv := NewServer(0, "", m.Handler())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("default path status = %d, want 200", rec.Code)
	}
}
