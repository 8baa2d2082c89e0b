// Package metrics provides Prometheus metrics collection for the job
// system, the memory manager's LRU, and the query dispatch layer.
package metrics

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ROCm/roc-optiq-sub003/infrastructure/runtime"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Job system metrics.
	JobsPending    prometheus.Gauge
	JobsActive     prometheus.Gauge
	JobsTotal      *prometheus.CounterVec // labels: service, outcome (success|cancelled|failed)
	JobDuration    *prometheus.HistogramVec

	// Error metrics.
	ErrorsTotal *prometheus.CounterVec

	// Query dispatch metrics.
	QueryVersionFallbacksTotal *prometheus.CounterVec // labels: service, family
	StorageQueriesTotal        *prometheus.CounterVec // labels: service, operation, status
	StorageQueryDuration       *prometheus.HistogramVec

	// Memory manager / LRU metrics.
	LRUBytesResident  prometheus.Gauge
	LRUEvictionsTotal prometheus.Counter
	PoolAllocFailures prometheus.Counter

	// Service health.
	ServiceUptime prometheus.Gauge
	ServiceInfo   *prometheus.GaugeVec
}

// New creates a new Metrics instance with all collectors registered.
func New(serviceName string) *Metrics {
	return NewWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new Metrics instance with a custom registry.
func NewWithRegistry(serviceName string, registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		JobsPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "job_system_jobs_pending",
			Help: "Number of jobs waiting in the job-system queue",
		}),
		JobsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "job_system_jobs_active",
			Help: "Number of jobs currently executing on a worker",
		}),
		JobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "job_system_jobs_total",
				Help: "Total number of jobs completed, by outcome",
			},
			[]string{"service", "outcome"},
		),
		JobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "job_system_job_duration_seconds",
				Help:    "Job execution duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"service"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "errors_total",
				Help: "Total number of errors",
			},
			[]string{"service", "type", "operation"},
		),

		QueryVersionFallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "query_version_fallbacks_total",
				Help: "Number of times the query factory fell back to an older schema-version emission path",
			},
			[]string{"service", "family"},
		),
		StorageQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storage_queries_total",
				Help: "Total number of storage interface queries",
			},
			[]string{"service", "operation", "status"},
		),
		StorageQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storage_query_duration_seconds",
				Help:    "Storage query duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"service", "operation"},
		),

		LRUBytesResident: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lru_bytes_resident",
			Help: "Estimated bytes currently resident in the LRU-managed arrays",
		}),
		LRUEvictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lru_evictions_total",
			Help: "Total number of LRU entries evicted",
		}),
		PoolAllocFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "memory_pool_alloc_failures_total",
			Help: "Total number of memory pool allocation failures",
		}),

		ServiceUptime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "service_uptime_seconds",
			Help: "Service uptime in seconds",
		}),
		ServiceInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "service_info",
				Help: "Service information",
			},
			[]string{"service", "version", "environment"},
		),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.JobsPending,
			m.JobsActive,
			m.JobsTotal,
			m.JobDuration,
			m.ErrorsTotal,
			m.QueryVersionFallbacksTotal,
			m.StorageQueriesTotal,
			m.StorageQueryDuration,
			m.LRUBytesResident,
			m.LRUEvictionsTotal,
			m.PoolAllocFailures,
			m.ServiceUptime,
			m.ServiceInfo,
		)
	}

	m.ServiceInfo.WithLabelValues(serviceName, "1.0.0", getEnvironment()).Set(1)

	return m
}

// RecordJobCompletion records a job-system job completing.
func (m *Metrics) RecordJobCompletion(service, outcome string, duration time.Duration) {
	m.JobsTotal.WithLabelValues(service, outcome).Inc()
	m.JobDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordError records an error.
func (m *Metrics) RecordError(service, errorType, operation string) {
	m.ErrorsTotal.WithLabelValues(service, errorType, operation).Inc()
}

// RecordStorageQuery records a storage interface query.
func (m *Metrics) RecordStorageQuery(service, operation, status string, duration time.Duration) {
	m.StorageQueriesTotal.WithLabelValues(service, operation, status).Inc()
	m.StorageQueryDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordVersionFallback records the query factory choosing an older
// schema-version emission path for the given family.
func (m *Metrics) RecordVersionFallback(service, family string) {
	m.QueryVersionFallbacksTotal.WithLabelValues(service, family).Inc()
}

// RecordLRUSweep records an LRU eviction sweep outcome.
func (m *Metrics) RecordLRUSweep(evicted int, bytesResident int64) {
	m.LRUEvictionsTotal.Add(float64(evicted))
	m.LRUBytesResident.Set(float64(bytesResident))
}

// UpdateUptime updates the service uptime.
func (m *Metrics) UpdateUptime(startTime time.Time) {
	m.ServiceUptime.Set(time.Since(startTime).Seconds())
}

func getEnvironment() string {
	return string(runtime.Env())
}

// Enabled returns whether Prometheus metrics should be exposed.
//
// Defaults:
// - production: disabled unless explicitly enabled via METRICS_ENABLED
// - non-production: enabled unless explicitly disabled via METRICS_ENABLED
func Enabled() bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("METRICS_ENABLED")))
	if raw == "" {
		return !runtime.IsProduction()
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Global metrics instance.
var (
	globalMetrics *Metrics
	globalMu      sync.Mutex
)

// Init initializes the global metrics instance.
func Init(serviceName string) *Metrics {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalMetrics == nil {
		globalMetrics = New(serviceName)
	}
	return globalMetrics
}

// Global returns the global metrics instance.
func Global() *Metrics {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalMetrics == nil {
		globalMetrics = New("unknown")
	}
	return globalMetrics
}
