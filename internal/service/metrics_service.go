package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	dbQueryDuration *prometheus.HistogramVec
	writeConflicts  *prometheus.CounterVec
	degradedCells   *prometheus.CounterVec
	gridBuild       *prometheus.HistogramVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	writeConflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lesson_write_conflicts_total",
		Help: "Lesson writes rejected by a schedule constraint",
	}, []string{"operation", "reason"})

	degradedCells := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_degraded_cells_total",
		Help: "Timetable cells rendered as unavailable because a name could not be resolved",
	}, []string{"subject"})

	gridBuild := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_build_duration_seconds",
		Help:    "Time spent querying, assembling and formatting a timetable",
		Buckets: prometheus.DefBuckets,
	}, []string{"subject"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, dbQueryDuration, writeConflicts, degradedCells, gridBuild, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		dbQueryDuration: dbQueryDuration,
		writeConflicts:  writeConflicts,
		degradedCells:   degradedCells,
		gridBuild:       gridBuild,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordWriteConflict counts a lesson write rejected by the store.
func (m *MetricsService) RecordWriteConflict(operation, reason string) {
	if m == nil {
		return
	}
	m.writeConflicts.WithLabelValues(operation, reason).Inc()
}

// RecordDegradedCells counts cells rendered without their display names.
func (m *MetricsService) RecordDegradedCells(subject string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.degradedCells.WithLabelValues(subject).Add(float64(count))
}

// ObserveTimetableBuild records how long a timetable render took.
func (m *MetricsService) ObserveTimetableBuild(subject string, duration time.Duration) {
	if m == nil {
		return
	}
	m.gridBuild.WithLabelValues(subject).Observe(duration.Seconds())
}
