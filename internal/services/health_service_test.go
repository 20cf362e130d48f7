package services

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolpulse/internal/config"
	"schoolpulse/internal/dataset"
	"schoolpulse/internal/shared/testutil"
)

func newHealthService(t *testing.T) (*HealthService, []config.Source) {
	t.Helper()
	_, sources := testutil.WriteSampleDataset(t)
	logger, _ := testutil.NewTestLogger(t)
	cache := dataset.NewCache(dataset.NewLoader(sources, config.EncodingAuto, logger), logger, nil)
	hub := new(MockClientCounter)
	return NewHealthService("1.2.3", "2026-01-01", "abc", cache, hub, logger), sources
}

func TestHealthService_HealthCheck(t *testing.T) {
	hs, _ := newHealthService(t)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.False(t, status.Timestamp.IsZero())
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	t.Run("ready once the dataset loads", func(t *testing.T) {
		hs, _ := newHealthService(t)

		status := hs.ReadinessCheck(context.Background())
		assert.Equal(t, "ready", status.Status)
		require.Contains(t, status.Services, "dataset")
		assert.Equal(t, "ready", status.Services["dataset"].(ServiceHealth).Status)
	})

	t.Run("not ready while a source is missing", func(t *testing.T) {
		hs, sources := newHealthService(t)
		require.NoError(t, os.Remove(sources[0].Path))

		status := hs.ReadinessCheck(context.Background())
		assert.Equal(t, "not_ready", status.Status)
		dataset := status.Services["dataset"].(ServiceHealth)
		assert.Equal(t, "not_ready", dataset.Status)
		assert.Contains(t, dataset.Message, sources[0].Path)
	})

	t.Run("not ready without a dataset", func(t *testing.T) {
		hs := NewHealthService("dev", "", "", nil, nil, nil)
		status := hs.ReadinessCheck(context.Background())
		assert.Equal(t, "not_ready", status.Status)
	})
}

func TestHealthService_LivenessCheck(t *testing.T) {
	hs, _ := newHealthService(t)

	status := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", status.Status)
	assert.Contains(t, status.Runtime, "go_version")
	assert.Contains(t, status.Runtime, "goroutines")
}

func TestHealthService_Version(t *testing.T) {
	hs, _ := newHealthService(t)

	v := hs.Version()
	assert.Equal(t, "1.2.3", v["version"])
	assert.Equal(t, "2026-01-01", v["build_time"])
	assert.Equal(t, "abc", v["build_id"])
	assert.Equal(t, "v1", v["api_version"])

	bare := NewHealthService("dev", "", "", nil, nil, nil).Version()
	assert.NotContains(t, bare, "build_time")
}
