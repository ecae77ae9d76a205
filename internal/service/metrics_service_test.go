package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest("GET", "/api/admin/stats", 200, 10*time.Millisecond)
	m.ObserveHTTPRequest("GET", "/api/admin/stats", 200, 30*time.Millisecond)
	m.RecordDatasetRebuild(false)
	m.RecordDatasetRebuild(true)
	m.ObserveOverlayPersist(time.Millisecond, nil)
	m.ObserveOverlayPersist(time.Millisecond, errors.New("disk full"))

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.RequestsTotal)
	assert.InDelta(t, 20.0, snap.AverageRequestDurationMs, 0.001)
	assert.Equal(t, uint64(2), snap.DatasetRebuilds)
	assert.Equal(t, uint64(1), snap.OverlayPersistFailures)
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.RecordDatasetRebuild(true)
	m.RecordReimport(false)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := w.Body.String()
	assert.True(t, strings.Contains(body, `dataset_rebuilds_total{source="fallback"} 1`))
	assert.True(t, strings.Contains(body, `dataset_reimports_total{outcome="failure"} 1`))
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
	m.RecordDatasetRebuild(false)
	m.RecordReimport(true)
	m.ObserveOverlayPersist(time.Millisecond, nil)
	assert.Zero(t, m.Snapshot().RequestsTotal)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
