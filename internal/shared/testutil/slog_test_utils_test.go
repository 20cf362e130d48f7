package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("table loaded", slog.Int("rows", 3))
		logger.Error("load failed", slog.String("path", "2022.csv"))

		require.Equal(t, 2, handler.Count())
		assert.True(t, handler.ContainsMessage("table loaded"))
		assert.True(t, handler.ContainsAttr("path", "2022.csv"))
		AssertLogContains(t, handler, slog.LevelError, "load failed")
	})

	t.Run("keeps bound attributes and groups", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With("component", "cache").WithGroup("load").Info("reloaded", "year", 2024)

		AssertLogAttr(t, handler, "component", "cache")
		AssertLogAttr(t, handler, "load.year", int64(2024))
	})

	t.Run("derived loggers share storage", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With("a", 1).Warn("one")
		logger.Warn("two")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelWarn), 2)
		handler.Clear()
		assert.Zero(t, handler.Count())
		AssertNoErrors(t, handler)
	})
}
