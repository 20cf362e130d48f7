package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "schoolpulse/internal/errors"
	"schoolpulse/internal/exporter"
	custommw "schoolpulse/internal/middleware"
	apiv1 "schoolpulse/pkg/contracts/api/v1"
)

// DashboardHandler serves the JSON dashboard API with RFC 7807 errors
type DashboardHandler struct {
	service      DashboardServiceInterface
	validator    *custommw.RequestValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, validator *custommw.RequestValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/regions", h.GetRegions)
	r.Get("/dashboard", h.GetDashboard)
	r.Get("/export/{format}", h.Export)

	r.Route("/dataset", func(r chi.Router) {
		r.Get("/", h.GetStatus)
		r.Post("/reload", h.Reload)
	})

	return r
}

// GetRegions handles GET /api/regions
func (h *DashboardHandler) GetRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.service.Regions(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, apiv1.RegionsResponse{
		Regions: regions,
		Count:   len(regions),
	})
}

// GetDashboard handles GET /api/dashboard?region=A&region=B
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	req, err := h.validator.DashboardRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	dash, err := h.service.Dashboard(r.Context(), req.Regions)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, apiv1.DashboardResponse{
		Status:    "success",
		Dashboard: dash,
	})
}

// Export handles GET /api/export/{format}. The file is built in memory so a
// failure can still be reported as a problem response.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	req, err := h.validator.ExportRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	format, err := exporter.ParseFormat(req.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrUnsupportedFormat)
		return
	}

	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), &buf, string(format), req.Regions); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "export served",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("format", string(format)),
		slog.Int("regions", len(req.Regions)),
		slog.Int("bytes", buf.Len()))

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName()))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// GetStatus handles GET /api/dataset
func (h *DashboardHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Status())
}

// Reload handles POST /api/dataset/reload
func (h *DashboardHandler) Reload(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Reload(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, status)
}
