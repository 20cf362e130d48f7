package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"schoolpulse/internal/config"
	"schoolpulse/internal/dataset"
	"schoolpulse/internal/infrastructure"
)

// Options tunes client keepalive
type Options struct {
	PingPeriod time.Duration
	PongWait   time.Duration
	WriteWait  time.Duration
}

// OptionsFromConfig fills unset values with package defaults
func OptionsFromConfig(cfg config.WebSocketConfig) Options {
	opts := Options{
		PingPeriod: cfg.PingPeriod,
		PongWait:   cfg.PongWait,
		WriteWait:  config.WebSocketWriteWait,
	}
	if opts.PongWait <= 0 {
		opts.PongWait = config.WebSocketPongWait
	}
	if opts.PingPeriod <= 0 || opts.PingPeriod >= opts.PongWait {
		opts.PingPeriod = (opts.PongWait * 9) / 10
	}
	return opts
}

// Hub maintains the set of active clients and broadcasts dataset events to them.
// It implements dataset.Listener.
type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	mu      sync.RWMutex
	running bool

	opts    Options
	logger  *slog.Logger
	metrics *infrastructure.DatasetMetrics

	totalConnections atomic.Int64
	messagesSent     atomic.Int64
	dropped          atomic.Int64
}

var _ dataset.Listener = (*Hub)(nil)

// NewHub creates a hub; metrics may be nil
func NewHub(opts Options, logger *slog.Logger, metrics *infrastructure.DatasetMetrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if opts.PongWait <= 0 {
		opts = OptionsFromConfig(config.WebSocketConfig{})
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = config.WebSocketWriteWait
	}

	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		opts:       opts,
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
	}
}

// Start runs the hub loop in its own goroutine
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.run()
}

// Stop disconnects every client and waits for the hub loop to exit
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })

	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()
	if running {
		<-h.done
	}
}

func (h *Hub) run() {
	defer close(h.done)

	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.logger.Info("Hub shutting down",
				slog.Int64("total_connections", h.totalConnections.Load()),
				slog.Int64("messages_sent", h.messagesSent.Load()))
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			h.totalConnections.Add(1)

			ctx := c.context()
			infrastructure.RecordWebSocketClients(ctx, h.metrics, 1)
			h.logger.InfoContext(ctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", c.id),
				slog.String("remote_addr", c.remoteAddr))

			if data, err := encode(TypeConnection, map[string]string{"status": "connected", "client_id": c.id}, c.traceID); err == nil {
				h.deliver(c, data)
			}

		case c := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[c]
			if ok {
				delete(h.clients, c)
				close(c.send)
			}
			count := len(h.clients)
			h.mu.Unlock()

			if ok {
				ctx := c.context()
				infrastructure.RecordWebSocketClients(ctx, h.metrics, -1)
				h.logger.InfoContext(ctx, "Client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", c.id),
					slog.Duration("connection_duration", time.Since(c.connectedAt)))
			}

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for c := range h.clients {
				clients = append(clients, c)
			}
			h.mu.RUnlock()

			for _, c := range clients {
				h.deliver(c, message)
			}
			h.logger.Debug("Broadcast delivered",
				slog.Int("client_count", len(clients)),
				slog.Int("message_size", len(message)))
		}
	}
}

// deliver queues message for c, dropping the client when its buffer is full.
// Only the hub loop calls it.
func (h *Hub) deliver(c *Client, message []byte) {
	select {
	case c.send <- message:
		h.messagesSent.Add(1)
	default:
		h.dropped.Add(1)
		h.mu.Lock()
		if _, ok := h.clients[c]; ok {
			delete(h.clients, c)
			close(c.send)
		}
		h.mu.Unlock()
		infrastructure.RecordWebSocketClients(c.context(), h.metrics, -1)
		h.logger.WarnContext(c.context(), "Client send buffer full, disconnecting",
			slog.String("client_id", c.id))
	}
}

// Register adds a client; it is a no-op once the hub stopped
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.quit:
		close(c.send)
	}
}

// Unregister removes a client
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// Broadcast sends a typed message to every connected client
func (h *Hub) Broadcast(ctx context.Context, msgType string, data interface{}) {
	message, err := encode(msgType, data, infrastructure.GetTraceID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", msgType))
		return
	}

	select {
	case h.broadcast <- message:
	case <-h.quit:
	case <-ctx.Done():
	}
}

// DatasetReloaded tells dashboards to fetch the new table
func (h *Hub) DatasetReloaded(ctx context.Context, snap dataset.Snapshot) {
	data := ReloadedData{
		Rows:        snap.Rows,
		Years:       snap.Years,
		Fingerprint: snap.Fingerprint,
	}
	if !snap.LoadedAt.IsZero() {
		data.LoadedAt = snap.LoadedAt.Format(time.RFC3339)
	}
	h.Broadcast(ctx, TypeDatasetReloaded, data)
}

// DatasetFailed tells dashboards the source files can no longer be read
func (h *Hub) DatasetFailed(ctx context.Context, err error) {
	h.Broadcast(ctx, TypeDatasetError, ErrorData{Message: err.Error()})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetHubMetrics returns current hub counters
func (h *Hub) GetHubMetrics() map[string]interface{} {
	return map[string]interface{}{
		"active_clients":    h.ClientCount(),
		"total_connections": h.totalConnections.Load(),
		"messages_sent":     h.messagesSent.Load(),
		"dropped_clients":   h.dropped.Load(),
	}
}

func encode(msgType string, data interface{}, traceID string) ([]byte, error) {
	return json.Marshal(Message{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC(),
		TraceID:   traceID,
	})
}
