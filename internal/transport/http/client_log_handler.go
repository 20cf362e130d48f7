package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	apierrors "schoolpulse/internal/errors"
	custommw "schoolpulse/internal/middleware"
)

// ClientLogHandler records browser-side errors (chart rendering, websocket drops)
type ClientLogHandler struct {
	logger       *slog.Logger
	validator    *custommw.RequestValidator
	errorHandler *apierrors.ErrorHandler
}

// NewClientLogHandler creates a new client log handler
func NewClientLogHandler(logger *slog.Logger, validator *custommw.RequestValidator, errorHandler *apierrors.ErrorHandler) *ClientLogHandler {
	return &ClientLogHandler{
		logger:       logger.With(slog.String("handler", "client_log")),
		validator:    validator,
		errorHandler: errorHandler,
	}
}

// LogRequest represents a client log entry
type LogRequest struct {
	Level   string                 `json:"level" validate:"omitempty,oneof=debug info warn error"`
	Message string                 `json:"message" validate:"required,max=2048"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Source  string                 `json:"source,omitempty" validate:"max=128"`
}

// Handle processes POST /api/logs
func (h *ClientLogHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req LogRequest
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, 16<<10), &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	attrs := []slog.Attr{
		slog.String("client_source", req.Source),
		slog.String("received_at", time.Now().Format(time.RFC3339)),
	}
	if req.Data != nil {
		attrs = append(attrs, slog.Any("data", req.Data))
	}

	level := slog.LevelInfo
	switch req.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	h.logger.LogAttrs(r.Context(), level, req.Message, attrs...)

	render.JSON(w, r, map[string]interface{}{"success": true})
}
