package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolpulse/internal/config"
	"schoolpulse/internal/shared/testutil"
	ws "schoolpulse/internal/websocket"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir, _ := testutil.WriteSampleDataset(t)
	cfg := config.Default()
	cfg.BaseDir = dir
	cfg.Dataset.DataDir = dir
	cfg.Dataset.Watch = false
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Security.RateLimit.Enabled = false
	cfg.Telemetry.Environment = "test"
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()

	logger, _ := testutil.NewTestLogger(t)
	app, err := NewWithConfig(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		app.WebSocketHub.Stop()
		if app.Watcher != nil {
			app.Watcher.Close()
		}
	})
	return app
}

func serve(t *testing.T, app *Application) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(app.Router)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewWithConfig(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.NotNil(t, app.Cache)
	assert.NotNil(t, app.WebSocketHub)
	assert.NotNil(t, app.DashboardService)
	assert.NotNil(t, app.HealthService)
	assert.NotNil(t, app.OTelProviders.PrometheusHTTP)
	assert.Nil(t, app.Watcher, "watch disabled")
	assert.Equal(t, ":0", app.Server.Addr)
}

func TestNewWithConfig_Watcher(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dataset.Watch = true

	app := newTestApp(t, cfg)
	assert.NotNil(t, app.Watcher)
}

func TestApplication_Routes(t *testing.T) {
	srv := serve(t, newTestApp(t, testConfig(t)))

	tests := []struct {
		path        string
		status      int
		contentType string
	}{
		{"/", http.StatusOK, "text/html"},
		{"/api/health", http.StatusOK, "application/json"},
		{"/api/health/ready", http.StatusOK, "application/json"},
		{"/api/health/live", http.StatusOK, "application/json"},
		{"/api/version", http.StatusOK, "application/json"},
		{"/api/regions", http.StatusOK, "application/json"},
		{"/api/dashboard", http.StatusOK, "application/json"},
		{"/api/dataset", http.StatusOK, "application/json"},
		{"/api/metrics", http.StatusOK, "application/json"},
		{"/api/export/csv", http.StatusOK, "text/csv"},
		{"/metrics", http.StatusOK, "text/plain"},
		{"/api/missing", http.StatusNotFound, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()
			io.Copy(io.Discard, resp.Body)

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, resp.Header.Get("Content-Type"), tt.contentType)
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
		})
	}
}

func TestApplication_SecurityHeaders(t *testing.T) {
	srv := serve(t, newTestApp(t, testConfig(t)))

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "https://cdn.plot.ly")
}

func TestApplication_RateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.RateLimit.Enabled = true
	cfg.Security.RateLimit.RPS = 1
	cfg.Security.RateLimit.Burst = 1
	srv := serve(t, newTestApp(t, cfg))

	var limited bool
	for i := 0; i < 5; i++ {
		resp, err := http.Get(srv.URL + "/api/health")
		require.NoError(t, err)
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			assert.NotEmpty(t, resp.Header.Get("Retry-After"))
			break
		}
	}
	assert.True(t, limited)
}

func TestApplication_WebSocketReload(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	srv := serve(t, app)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var msg ws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, ws.TypeConnection, msg.Type)

	resp, err := http.Post(srv.URL+"/api/dataset/reload", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ws.TypeDatasetReloaded, msg.Type)
}

func TestApplication_MissingSource(t *testing.T) {
	cfg := testConfig(t)
	app := newTestApp(t, cfg)
	require.NoError(t, os.Remove(cfg.Sources()[1].Path))
	srv := serve(t, app)

	err := app.performStartupHealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset unavailable")

	resp, err := http.Get(srv.URL + "/api/health/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestApplication_getCORSConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.AllowedOrigins = []string{"https://dashboard.example"}

	app := newTestApp(t, cfg)
	assert.Equal(t, []string{"https://dashboard.example"}, app.getCORSConfig().AllowedOrigins)

	cfg.Telemetry.Environment = "development"
	origins := app.getCORSConfig().AllowedOrigins
	assert.Contains(t, origins, "http://localhost:0")
	assert.Equal(t, []string{"https://dashboard.example"}, cfg.Security.AllowedOrigins, "configured origins must not be mutated")
}

func TestApplication_isDevelopmentMode(t *testing.T) {
	tests := []struct {
		name   string
		env    string
		telEnv string
		want   bool
	}{
		{"env development", "development", "production", true},
		{"env dev", "dev", "production", true},
		{"env production", "production", "development", false},
		{"telemetry fallback", "", "development", true},
		{"telemetry production", "", "production", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SCHOOLPULSE_ENV", tt.env)
			cfg := config.Default()
			cfg.Telemetry.Environment = tt.telEnv
			app := &Application{Config: cfg}
			assert.Equal(t, tt.want, app.isDevelopmentMode())
		})
	}
}

func TestApplication_StartStop(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Host = "127.0.0.1"
	cfg.Dataset.Watch = true
	app := newTestApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, app.Start(ctx, cancel))
	assert.Equal(t, 9, app.Cache.Snapshot().Rows, "startup warms the cache")

	require.NoError(t, app.Stop(ctx))
	assert.Equal(t, 0, app.WebSocketHub.ClientCount())
}

func TestGenerateBuildID(t *testing.T) {
	id := generateBuildID()
	assert.Len(t, id, 12)
	assert.Equal(t, id, generateBuildID())
}
