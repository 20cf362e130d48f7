package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// HubStats exposes websocket hub counters
type HubStats interface {
	GetHubMetrics() map[string]interface{}
}

// MetricsHandler serves a JSON summary of runtime counters; Prometheus
// scrapes /metrics instead.
type MetricsHandler struct {
	hub     HubStats
	service DashboardServiceInterface
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(hub HubStats, service DashboardServiceInterface) *MetricsHandler {
	return &MetricsHandler{hub: hub, service: service}
}

// Routes sets up the metrics routes
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetMetrics)
	return r
}

// GetMetrics handles GET /api/metrics
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"dataset": h.service.Status(),
	}
	if h.hub != nil {
		response["websocket"] = h.hub.GetHubMetrics()
	}
	render.JSON(w, r, response)
}
