package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolpulse/internal/config"
	"schoolpulse/internal/shared/testutil"
)

func TestSourceValidator_ValidateSource(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	v := NewSourceValidator(logger)

	tests := []struct {
		name          string
		setupFunc     func(t *testing.T) string
		errorContains string
	}{
		{
			name: "valid csv",
			setupFunc: func(t *testing.T) string {
				return testutil.WriteCSV(t, t.TempDir(), "2024.csv", testutil.SampleHeader, testutil.SampleRows[2024]...)
			},
		},
		{
			name: "upper-case extension",
			setupFunc: func(t *testing.T) string {
				return testutil.WriteCSV(t, t.TempDir(), "2024.CSV", testutil.SampleHeader)
			},
		},
		{
			name: "missing file",
			setupFunc: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "missing.csv")
			},
			errorContains: "does not exist",
		},
		{
			name: "directory",
			setupFunc: func(t *testing.T) string {
				dir := filepath.Join(t.TempDir(), "2024.csv")
				require.NoError(t, os.Mkdir(dir, 0o755))
				return dir
			},
			errorContains: "is a directory",
		},
		{
			name: "empty file",
			setupFunc: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "empty.csv")
				require.NoError(t, os.WriteFile(path, nil, 0o644))
				return path
			},
			errorContains: "is empty",
		},
		{
			name: "wrong extension",
			setupFunc: func(t *testing.T) string {
				return testutil.WriteCSV(t, t.TempDir(), "2024.xlsx", testutil.SampleHeader)
			},
			errorContains: "not a CSV file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setupFunc(t)
			report := v.ValidateSource(config.Source{Year: 2024, Path: path})

			assert.Equal(t, 2024, report.Year)
			assert.Equal(t, path, report.Path)
			if tt.errorContains == "" {
				assert.True(t, report.OK())
				assert.Positive(t, report.Size)
				return
			}
			require.Error(t, report.Err)
			assert.Contains(t, report.Err.Error(), tt.errorContains)
		})
	}
}

func TestSourceValidator_ValidateSources(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	v := NewSourceValidator(logger)

	_, sources := testutil.WriteSampleDataset(t)
	reports := v.ValidateSources(sources)
	require.Len(t, reports, 3)
	assert.NoError(t, FirstError(reports))

	require.NoError(t, os.Remove(sources[1].Path))
	reports = v.ValidateSources(sources)
	assert.True(t, reports[0].OK())
	assert.False(t, reports[1].OK())
	assert.True(t, reports[2].OK())

	err := FirstError(reports)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2023")
	assert.True(t, handler.ContainsMessage("Dataset source failed validation"))
}

func TestSourceValidator_ValidateDataDir(t *testing.T) {
	v := NewSourceValidator(nil)

	assert.NoError(t, v.ValidateDataDir(t.TempDir()))
	assert.ErrorContains(t, v.ValidateDataDir("/non/existent/path"), "does not exist")

	file := testutil.WriteCSV(t, t.TempDir(), "a.csv", "h")
	assert.ErrorContains(t, v.ValidateDataDir(file), "not a directory")
}
