package dataset

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolpulse/internal/config"
	"schoolpulse/internal/shared/testutil"
)

func newTestCache(t *testing.T) (*Cache, []config.Source) {
	t.Helper()
	_, sources := testutil.WriteSampleDataset(t)
	logger, _ := testutil.NewTestLogger(t)
	return NewCache(NewLoader(sources, config.EncodingAuto, logger), logger, nil), sources
}

func TestCache_LazyLoadAndReuse(t *testing.T) {
	cache, _ := newTestCache(t)

	snap := cache.Snapshot()
	assert.False(t, snap.Loaded, "nothing is read before the first Table call")

	first, err := cache.Table(context.Background())
	require.NoError(t, err)
	second, err := cache.Table(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)

	snap = cache.Snapshot()
	assert.True(t, snap.Loaded)
	assert.Equal(t, 9, snap.Rows)
	assert.Equal(t, []int{2022, 2023, 2024}, snap.Years)
	assert.Len(t, snap.Fingerprint, 64)
	assert.Equal(t, int64(1), snap.Misses)
	assert.Equal(t, int64(1), snap.Hits)
	assert.Equal(t, int64(1), snap.Parses)
	assert.False(t, snap.LoadedAt.IsZero())
}

func TestCache_ConcurrentFirstCallersShareOneLoad(t *testing.T) {
	cache, _ := newTestCache(t)

	const callers = 16
	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Table(context.Background())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	for err := range results {
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), cache.Snapshot().Parses)
}

func TestCache_InvalidateUnchangedSkipsParse(t *testing.T) {
	cache, _ := newTestCache(t)

	first, err := cache.Table(context.Background())
	require.NoError(t, err)

	cache.Invalidate()
	assert.True(t, cache.Snapshot().Stale)

	second, err := cache.Table(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second, "same fingerprint keeps the cached table")
	assert.Equal(t, int64(1), cache.Snapshot().Parses)
	assert.False(t, cache.Snapshot().Stale)
}

func TestCache_ReloadPicksUpChanges(t *testing.T) {
	cache, sources := newTestCache(t)

	_, err := cache.Table(context.Background())
	require.NoError(t, err)
	before := cache.Snapshot().Fingerprint

	testutil.WriteCSV(t, "", sources[2].Path, testutil.SampleHeader, append(testutil.SampleRows[2024], "北区,飛鳥高校,236,200,0.85")...)

	snap, changed, err := cache.Reload(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotEqual(t, before, snap.Fingerprint)
	assert.Equal(t, 10, snap.Rows)
	assert.Equal(t, int64(2), snap.Parses)

	_, changed, err = cache.Reload(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestCache_FailuresAreNotCached(t *testing.T) {
	cache, sources := newTestCache(t)
	saved, err := os.ReadFile(sources[0].Path)
	require.NoError(t, err)
	require.NoError(t, os.Remove(sources[0].Path))

	_, err = cache.Table(context.Background())
	require.ErrorIs(t, err, ErrDataUnavailable)
	snap := cache.Snapshot()
	assert.False(t, snap.Loaded)
	assert.ErrorIs(t, snap.LastError, ErrDataUnavailable)

	require.NoError(t, os.WriteFile(sources[0].Path, saved, 0o644))

	table, err := cache.Table(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, table.Len())
	assert.NoError(t, cache.Snapshot().LastError)
}

func TestCache_StaleTableIsNotServedAfterFailure(t *testing.T) {
	cache, sources := newTestCache(t)

	_, err := cache.Table(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(sources[1].Path))
	cache.Invalidate()

	_, err = cache.Table(context.Background())
	assert.ErrorIs(t, err, ErrDataUnavailable)
}
