package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"schoolpulse/pkg/contracts"
)

// ClientCounter reports connected websocket clients
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	buildID   string
	data      DatasetSource
	hub       ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a new health service. hub may be nil.
func NewHealthService(version, buildTime, buildID string, data DatasetSource, hub ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime),
		slog.String("build_id", buildID))

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		buildID:   buildID,
		data:      data,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
	hs.logger.DebugContext(ctx, "health check completed", slog.String("status", status.Status))
	return status
}

// ReadinessCheck loads the dataset if needed; the service is not ready while
// the admission files cannot be read.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	status.Services["dataset"] = hs.checkDatasetHealth(ctx)
	status.Services["websocket"] = hs.checkWebSocketHealth()

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}

	if status.Status != "ready" {
		hs.logger.WarnContext(ctx, "readiness check failed", slog.Any("services", status.Services))
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	result := map[string]interface{}{
		"version":      hs.version,
		"api_version":  info.APIVersion,
		"data_format":  info.DataFormat,
		"git_commit":   info.GitCommit,
		"go_version":   info.GoVersion,
		"os":           info.OS,
		"arch":         info.Architecture,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}

	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	if hs.buildID != "" {
		result["build_id"] = hs.buildID
	}
	return result
}

func (hs *HealthService) checkDatasetHealth(ctx context.Context) ServiceHealth {
	if hs.data == nil {
		return ServiceHealth{Status: "not_ready", Message: "dataset not configured"}
	}

	table, err := hs.data.Table(ctx)
	if err != nil {
		return ServiceHealth{Status: "not_ready", Message: err.Error()}
	}

	snap := hs.data.Snapshot()
	h := ServiceHealth{
		Status:  "ready",
		Message: "dataset loaded",
	}
	if !snap.LoadedAt.IsZero() {
		h.Uptime = time.Since(snap.LoadedAt).Round(time.Second).String()
	}
	if table.Len() == 0 {
		h.Message = "dataset loaded with no rows"
	}
	return h
}

func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: "ready", Message: "websocket disabled"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: "WebSocket service is healthy",
		Uptime:  time.Since(hs.startTime).Round(time.Second).String(),
	}
}
