package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"schoolpulse/internal/config"
	apierrors "schoolpulse/internal/errors"
	ws "schoolpulse/internal/websocket"
)

// WebSocketHandler upgrades /ws connections and hands them to the hub
type WebSocketHandler struct {
	hub            *ws.Hub
	upgrader       websocket.Upgrader
	allowedOrigins []string
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
}

// NewWebSocketHandler creates the upgrade handler. Same-host origins are
// always accepted; other origins must be listed in allowedOrigins.
func NewWebSocketHandler(hub *ws.Hub, cfg config.WebSocketConfig, allowedOrigins []string, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:            hub,
		allowedOrigins: allowedOrigins,
		logger:         logger.With(slog.String("component", "websocket_handler")),
		errorHandler:   errorHandler,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.logger.WarnContext(r.Context(), "WebSocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			h.errorHandler.HandleError(w, r, apierrors.New(status, apierrors.ErrWebSocketUpgrade.ErrorCode, reason.Error()))
		},
	}
	return h
}

// ServeHTTP handles GET /ws
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader already responded
		return
	}

	reqID := middleware.GetReqID(r.Context())
	client := ws.ServeWS(h.hub, conn, reqID)
	h.logger.InfoContext(r.Context(), "WebSocket client connected",
		slog.String("client_id", client.ID()),
		slog.String("remote_addr", r.RemoteAddr))
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	h.logger.WarnContext(r.Context(), "WebSocket origin not allowed",
		slog.String("origin", origin),
		slog.Any("allowed_origins", h.allowedOrigins))
	return false
}
