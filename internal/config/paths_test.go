package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaths(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.BaseDir = base

	paths := cfg.GetPaths()

	assert.Equal(t, base, paths.BaseDir)
	assert.Equal(t, filepath.Join(base, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(base, "logs"), paths.LogsDir)
	assert.Equal(t, filepath.Join(base, "logs", "app.log"), paths.LogFile)
	assert.Equal(t, filepath.Join(base, "exports"), paths.ExportsDir)
}

func TestGetPaths_AbsoluteDataDir(t *testing.T) {
	cfg := Default()
	cfg.BaseDir = t.TempDir()
	cfg.Dataset.DataDir = "/srv/admissions"

	assert.Equal(t, "/srv/admissions", cfg.GetPaths().DataDir)
	assert.Equal(t, filepath.Join("/srv/admissions", cfg.Dataset.Sources[0].Path), cfg.Sources()[0].Path)
}

func TestPaths_EnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.BaseDir = base
	paths := cfg.GetPaths()

	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.LogsDir, paths.ExportsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	// Input directory is never created
	_, err := os.Stat(paths.DataDir)
	assert.True(t, os.IsNotExist(err))
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "present.csv")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(filepath.Join(dir, "missing.csv")))
	assert.False(t, FileExists(dir))
}
