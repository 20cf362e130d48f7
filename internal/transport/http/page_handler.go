package http

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5/middleware"

	apierrors "schoolpulse/internal/errors"
	custommw "schoolpulse/internal/middleware"
	"schoolpulse/pkg/contracts/domain"
)

// PlotlyURL is the pinned chart library the page loads
const PlotlyURL = custommw.PlotlyCDN + "/plotly-2.35.2.min.js"

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// PageHandler renders the server-side dashboard page
type PageHandler struct {
	service      DashboardServiceInterface
	validator    *custommw.RequestValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewPageHandler creates a new page handler
func NewPageHandler(service DashboardServiceInterface, validator *custommw.RequestValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *PageHandler {
	return &PageHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "page_handler")),
		errorHandler: errorHandler,
	}
}

type dashboardPage struct {
	domain.Dashboard
	SelectedSet map[string]bool
	PlotlyURL   string
	ExportCSV   string
	ExportXLSX  string
}

type errorPage struct {
	Title     string
	Status    int
	Heading   string
	Detail    string
	RequestID string
}

// ServeDashboard handles GET /. A load failure replaces the whole page; no
// partial dashboard is ever shown.
func (h *PageHandler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	req, err := h.validator.DashboardRequest(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	dash, err := h.service.Dashboard(r.Context(), req.Regions)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	selected := make(map[string]bool, len(dash.Selected))
	for _, s := range dash.Selected {
		selected[s] = true
	}
	query := url.Values{"region": dash.Selected}.Encode()

	page := dashboardPage{
		Dashboard:   dash,
		SelectedSet: selected,
		PlotlyURL:   PlotlyURL,
		ExportCSV:   exportLink("csv", query),
		ExportXLSX:  exportLink("xlsx", query),
	}
	h.render(w, r, http.StatusOK, "dashboard.html", page)
}

func exportLink(format, query string) string {
	link := "/api/export/" + format
	if query != "" {
		link += "?" + query
	}
	return link
}

func (h *PageHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	problem := h.errorHandler.ErrorToProblem(err, r)
	reqID := middleware.GetReqID(r.Context())

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "dashboard page failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", reqID))

	h.render(w, r, problem.Status, "error.html", errorPage{
		Title:     "東京都立高校 入学試験応募状況",
		Status:    problem.Status,
		Heading:   problem.Title,
		Detail:    problem.Detail,
		RequestID: reqID,
	})
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
