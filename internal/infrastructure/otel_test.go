package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"schoolpulse/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewOTelConfig(t *testing.T) {
	cfg := NewOTelConfig(config.TelemetryConfig{
		Environment:    "test",
		TraceExporter:  "none",
		MetricExporter: "prometheus",
		SampleRatio:    0.5,
	})

	assert.Equal(t, ServiceName, cfg.ServiceName)
	assert.Equal(t, config.AppVersion, cfg.ServiceVersion)
	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, 0.5, cfg.SampleRatio)
}

func TestInitializeOTel_Disabled(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    ServiceName,
		TraceExporter:  "none",
		MetricExporter: "none",
	}, discardLogger())
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.Nil(t, providers.PrometheusHTTP)
	require.NotNil(t, providers.Tracer)
	require.NotNil(t, providers.Meter)

	// no-op instruments are still usable
	metrics, err := CreateDatasetMetrics(providers.Meter)
	require.NoError(t, err)
	RecordDatasetLoad(context.Background(), metrics, 10, time.Millisecond, nil)

	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_UnsupportedExporter(t *testing.T) {
	_, err := InitializeOTel(&OTelConfig{TraceExporter: "jaeger", MetricExporter: "none"}, discardLogger())
	assert.ErrorContains(t, err, "unsupported trace exporter")

	_, err = InitializeOTel(&OTelConfig{TraceExporter: "none", MetricExporter: "statsd"}, discardLogger())
	assert.ErrorContains(t, err, "unsupported metric exporter")
}

func TestPrometheusEndpoint(t *testing.T) {
	// Initialising twice must not trip duplicate registration.
	for i := 0; i < 2; i++ {
		providers, err := InitializeOTel(&OTelConfig{
			ServiceName:    ServiceName,
			ServiceVersion: "test",
			Environment:    "test",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1,
		}, discardLogger())
		require.NoError(t, err)
		require.NotNil(t, providers.PrometheusHTTP)

		metrics, err := CreateDatasetMetrics(providers.Meter)
		require.NoError(t, err)

		ctx := context.Background()
		RecordDatasetLoad(ctx, metrics, 42, 20*time.Millisecond, nil)
		RecordDatasetLoad(ctx, metrics, 0, time.Millisecond, errors.New("missing file"))
		RecordCacheLookup(ctx, metrics, true)
		RecordCacheLookup(ctx, metrics, false)
		RecordInvalidation(ctx, metrics, "manual")
		RecordExport(ctx, metrics, "csv", 42)

		rec := httptest.NewRecorder()
		providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		body := rec.Body.String()
		assert.Contains(t, body, "dataset_loads_total")
		assert.Contains(t, body, "dataset_rows")
		assert.Contains(t, body, "dataset_cache_hits_total")
		assert.Contains(t, body, "exports_total")
		assert.Contains(t, body, "go_goroutines")

		require.NoError(t, providers.Shutdown(ctx))
	}
}

func TestRecordHelpers_NilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordDatasetLoad(ctx, nil, 1, time.Second, nil)
		RecordCacheLookup(ctx, nil, true)
		RecordInvalidation(ctx, nil, "watch")
		RecordExport(ctx, nil, "xlsx", 0)
		RecordWebSocketClients(ctx, nil, 1)
	})
}

func TestSpanHelpers_NoRecordingSpan(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, TraceIDFromContext(ctx))
	assert.NotPanics(t, func() {
		AddSpanEvent(ctx, "dataset.loaded", attribute.Int("rows", 3))
		RecordError(ctx, errors.New("boom"))
		RecordError(ctx, nil)
	})
}
