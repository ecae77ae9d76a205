package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/journey-records-api/internal/models"
	"github.com/noah-isme/journey-records-api/internal/service"
	"github.com/noah-isme/journey-records-api/pkg/response"
)

type readinessProbe interface {
	Current(ctx context.Context) (*models.Dataset, error)
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	views   readinessProbe
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, views readinessProbe) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, views: views}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether a dataset is available and whether it is the demo fallback.
func (h *MetricsHandler) Ready(c *gin.Context) {
	ds, err := h.views.Current(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"fallback": ds.Fallback,
		"source":   ds.Source,
		"students": len(ds.Students),
	})
}

// System godoc
// @Summary Process metrics snapshot
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/system [get]
func (h *MetricsHandler) System(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot())
}
