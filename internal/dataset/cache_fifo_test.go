//go:build linux || darwin

package dataset

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolpulse/internal/shared/testutil"
	"schoolpulse/pkg/contracts/domain"
)

// blockingSource swaps the last source for a FIFO so a load stalls on it after
// reading the earlier files. It returns the original content of that file.
func blockingSource(t *testing.T, path string) []byte {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))
	require.NoError(t, syscall.Mkfifo(path, 0o600))
	return content
}

// openWriter returns once the loader has opened the FIFO, i.e. every earlier
// source has been read.
func openWriter(t *testing.T, path string) *os.File {
	t.Helper()
	w, err := os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(t, err)
	return w
}

// release restores path as a regular file and feeds the stalled reader.
func release(t *testing.T, w *os.File, path string, content []byte) {
	t.Helper()
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.WriteFile(path, content, 0o644))
	_, err := w.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

type tableResult struct {
	table *domain.Table
	err   error
}

func tableAsync(ctx context.Context, cache *Cache) <-chan tableResult {
	ch := make(chan tableResult, 1)
	go func() {
		table, err := cache.Table(ctx)
		ch <- tableResult{table, err}
	}()
	return ch
}

func await(t *testing.T, ch <-chan tableResult) tableResult {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("table load did not finish")
		return tableResult{}
	}
}

func TestCache_InvalidateDuringLoad(t *testing.T) {
	cache, sources := newTestCache(t)
	last := sources[len(sources)-1].Path
	content := blockingSource(t, last)

	first := tableAsync(context.Background(), cache)
	w := openWriter(t, last)

	// The 2022 file was already read by the in-flight load.
	testutil.WriteCSV(t, "", sources[0].Path, testutil.SampleHeader,
		append(testutil.SampleRows[2022], "北区,飛鳥高校,236,200,0.85")...)
	cache.Invalidate()
	second := tableAsync(context.Background(), cache)

	release(t, w, last, content)

	for _, res := range []tableResult{await(t, first), await(t, second)} {
		require.NoError(t, res.err)
		assert.Equal(t, 10, res.table.Len(), "content changed after the read must not be served")
	}

	snap := cache.Snapshot()
	assert.False(t, snap.Stale)
	assert.Equal(t, 10, snap.Rows)

	table, err := cache.Table(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, table.Len())
}

func TestCache_CallerCancellation(t *testing.T) {
	cache, sources := newTestCache(t)
	last := sources[len(sources)-1].Path
	content := blockingSource(t, last)

	ctx, cancel := context.WithCancel(context.Background())
	pending := tableAsync(ctx, cache)
	w := openWriter(t, last)

	cancel()
	res := await(t, pending)
	assert.Nil(t, res.table)
	assert.ErrorIs(t, res.err, context.Canceled)

	// The shared load carries on for other callers.
	release(t, w, last, content)
	table, err := cache.Table(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, table.Len())
	assert.Equal(t, int64(1), cache.Snapshot().Parses)
}
