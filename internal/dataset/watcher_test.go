package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"schoolpulse/internal/config"
	"schoolpulse/internal/shared/testutil"
)

type recordingListener struct {
	reloaded chan Snapshot
	failed   chan error
}

func newRecordingListener() *recordingListener {
	return &recordingListener{
		reloaded: make(chan Snapshot, 8),
		failed:   make(chan error, 8),
	}
}

func (l *recordingListener) DatasetReloaded(_ context.Context, snap Snapshot) { l.reloaded <- snap }
func (l *recordingListener) DatasetFailed(_ context.Context, err error)       { l.failed <- err }

func TestWatcher_ReloadsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	cache, sources := newTestCache(t)
	_, err := cache.Table(context.Background())
	require.NoError(t, err)

	listener := newRecordingListener()
	w, err := NewWatcher(cache, 50*time.Millisecond, nil, listener)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Close()

	testutil.WriteCSV(t, "", sources[0].Path, testutil.SampleHeader, testutil.SampleRows[2022][:1]...)

	select {
	case snap := <-listener.reloaded:
		assert.Equal(t, 7, snap.Rows)
	case err := <-listener.failed:
		t.Fatalf("unexpected failure: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after source change")
	}

	require.NoError(t, w.Close())
}

func TestWatcher_ReportsFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	cache, sources := newTestCache(t)
	_, err := cache.Table(context.Background())
	require.NoError(t, err)

	listener := newRecordingListener()
	w, err := NewWatcher(cache, 50*time.Millisecond, nil, listener)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	require.NoError(t, os.Remove(sources[2].Path))

	select {
	case err := <-listener.failed:
		assert.ErrorIs(t, err, ErrDataUnavailable)
	case <-time.After(5 * time.Second):
		t.Fatal("no failure reported after source removal")
	}

	cancel()
	require.NoError(t, w.Close())
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	cache, sources := newTestCache(t)
	w, err := NewWatcher(cache, time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Close()

	_, err = os.Stat(sources[0].Path)
	require.NoError(t, err)

	assert.False(t, w.relevant(fsnotifyEvent(sources[0].Path+".bak")))
	assert.True(t, w.relevant(fsnotifyEvent(sources[0].Path)))
}

func TestNewWatcher_MissingDirectory(t *testing.T) {
	defer goleak.VerifyNone(t)

	logger, _ := testutil.NewTestLogger(t)
	missing := filepath.Join(t.TempDir(), "missing", "2022.csv")
	cache := NewCache(NewLoader([]config.Source{sourceAt(missing)}, "", logger), logger, nil)

	_, err := NewWatcher(cache, time.Millisecond, logger)
	assert.Error(t, err)
}
