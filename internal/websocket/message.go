package websocket

import "time"

// Message types pushed to dashboards
const (
	TypeConnection      = "connection"
	TypeDatasetReloaded = "dataset:reloaded"
	TypeDatasetError    = "dataset:error"
	TypeHeartbeat       = "heartbeat"
)

// Message is the JSON envelope of every server push
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// ReloadedData describes the table the dashboard should re-fetch
type ReloadedData struct {
	Rows        int    `json:"rows"`
	Years       []int  `json:"years"`
	Fingerprint string `json:"fingerprint"`
	LoadedAt    string `json:"loaded_at"`
}

// ErrorData carries a load failure
type ErrorData struct {
	Message string `json:"message"`
}
