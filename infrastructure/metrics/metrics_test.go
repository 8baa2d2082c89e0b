package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWithRegistry("test-engine", reg)
}

func TestNewWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry("test-engine", reg)

	if m == nil {
		t.Fatal("expected metrics instance, got nil")
	}

	metricFamilies, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	if len(metricFamilies) == 0 {
		t.Error("expected metrics to be registered")
	}
}

func TestRecordJobCompletion(t *testing.T) {
	m := newTestMetrics()
	m.RecordJobCompletion("query", "success", 15*time.Millisecond)

	got := testutil.ToFloat64(m.JobsTotal.WithLabelValues("query", "success"))
	if got != 1 {
		t.Errorf("JobsTotal = %v, want 1", got)
	}
}

func TestRecordVersionFallback(t *testing.T) {
	m := newTestMetrics()
	m.RecordVersionFallback("query", "events")
	m.RecordVersionFallback("query", "events")

	got := testutil.ToFloat64(m.QueryVersionFallbacksTotal.WithLabelValues("query", "events"))
	if got != 2 {
		t.Errorf("QueryVersionFallbacksTotal = %v, want 2", got)
	}
}

func TestRecordStorageQuery(t *testing.T) {
	m := newTestMetrics()
	m.RecordStorageQuery("query", "select_events", "ok", 5*time.Millisecond)

	got := testutil.ToFloat64(m.StorageQueriesTotal.WithLabelValues("query", "select_events", "ok"))
	if got != 1 {
		t.Errorf("StorageQueriesTotal = %v, want 1", got)
	}
}

func TestRecordLRUSweep(t *testing.T) {
	m := newTestMetrics()
	m.RecordLRUSweep(3, 1024)

	if got := testutil.ToFloat64(m.LRUEvictionsTotal); got != 3 {
		t.Errorf("LRUEvictionsTotal = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.LRUBytesResident); got != 1024 {
		t.Errorf("LRUBytesResident = %v, want 1024", got)
	}
}

func TestRecordError(t *testing.T) {
	m := newTestMetrics()
	m.RecordError("query", "validation", "resolve_track")

	got := testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("query", "validation", "resolve_track"))
	if got != 1 {
		t.Errorf("ErrorsTotal = %v, want 1", got)
	}
}

func TestUpdateUptime(t *testing.T) {
	m := newTestMetrics()
	start := time.Now().Add(-1 * time.Hour)
	m.UpdateUptime(start)

	if got := testutil.ToFloat64(m.ServiceUptime); got < 3599 {
		t.Errorf("ServiceUptime = %v, want >= 3599", got)
	}
}

func TestEnabledDefaultsByEnvironment(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "")
	t.Setenv("MARBLE_ENV", "production")
	if Enabled() {
		t.Error("expected metrics disabled by default in production")
	}

	t.Setenv("MARBLE_ENV", "development")
	if !Enabled() {
		t.Error("expected metrics enabled by default outside production")
	}

	t.Setenv("METRICS_ENABLED", "true")
	t.Setenv("MARBLE_ENV", "production")
	if !Enabled() {
		t.Error("expected METRICS_ENABLED=true to override production default")
	}
}
