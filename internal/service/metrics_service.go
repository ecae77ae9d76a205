package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/journey-records-api/internal/models"
)

// Dataset rebuild sources.
const (
	RebuildSourceFile     = "file"
	RebuildSourceFallback = "fallback"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	datasetRebuilds    *prometheus.CounterVec
	reimports          *prometheus.CounterVec
	overlayPersist     prometheus.Observer
	overlayPersistFail prometheus.Counter

	requestCount         uint64
	requestDurationTotal uint64
	rebuildCount         uint64
	persistFailureCount  uint64
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

	datasetRebuilds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dataset_rebuilds_total",
		Help: "Number of times the merged records view was rebuilt",
	}, []string{"source"})

	reimports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dataset_reimports_total",
		Help: "Explicit reimport attempts by outcome",
	}, []string{"outcome"})

	overlayPersist := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "overlay_persist_duration_seconds",
		Help:    "Duration of overlay snapshot writes",
		Buckets: prometheus.DefBuckets,
	})

	overlayPersistFail := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "overlay_persist_failures_total",
		Help: "Overlay snapshot writes that failed",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, datasetRebuilds, reimports, overlayPersist, overlayPersistFail, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		datasetRebuilds:    datasetRebuilds,
		reimports:          reimports,
		overlayPersist:     overlayPersist,
		overlayPersistFail: overlayPersistFail,
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordDatasetRebuild counts a rebuild of the cached view.
func (m *MetricsService) RecordDatasetRebuild(fallback bool) {
	if m == nil {
		return
	}
	source := RebuildSourceFile
	if fallback {
		source = RebuildSourceFallback
	}
	m.datasetRebuilds.WithLabelValues(source).Inc()
	atomic.AddUint64(&m.rebuildCount, 1)
}

// RecordReimport counts an explicit reimport by outcome.
func (m *MetricsService) RecordReimport(success bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.reimports.WithLabelValues(outcome).Inc()
}

// ObserveOverlayPersist records the duration and outcome of a snapshot write.
func (m *MetricsService) ObserveOverlayPersist(duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.overlayPersist.Observe(duration.Seconds())
	if err != nil {
		m.overlayPersistFail.Inc()
		atomic.AddUint64(&m.persistFailureCount, 1)
	}
}

// Snapshot returns aggregated metrics suitable for the admin API.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{GeneratedAt: time.Now().UTC()}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		DatasetRebuilds:          atomic.LoadUint64(&m.rebuildCount),
		OverlayPersistFailures:   atomic.LoadUint64(&m.persistFailureCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
