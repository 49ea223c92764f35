package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tgdesk/support-bot/internal/observability"
)

// MetricsHandler exposes the in-memory counters as JSON.
type MetricsHandler struct {
	metrics *observability.Metrics
}

// NewMetricsHandler returns a new handler instance.
func NewMetricsHandler(metrics *observability.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Snapshot dumps all counters.
func (h *MetricsHandler) Snapshot(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}
