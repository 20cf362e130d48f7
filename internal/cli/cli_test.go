package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"schoolpulse/internal/config"
	"schoolpulse/internal/shared/testutil"
)

// writeConfig points a config file at a freshly written sample dataset
func writeConfig(t *testing.T) (string, []config.Source) {
	t.Helper()

	dir, sources := testutil.WriteSampleDataset(t)
	path := filepath.Join(dir, "config.yaml")
	content := "dataset:\n  data_dir: .\n  watch: false\nlogging:\n  output: console\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path, sources
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "schoolpulse", cmd.Use)

	for _, name := range []string{"serve", "export", "regions", "check"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	flag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "c", flag.Shorthand)
}

func TestRegionsCommand(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	out, err := execute(t, "regions", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "八王子市\n千代田区\n新宿区\n", out)

	out, err = execute(t, "regions", "--json", "-c", cfgPath)
	require.NoError(t, err)
	var regions []string
	require.NoError(t, json.Unmarshal([]byte(out), &regions))
	assert.Len(t, regions, 3)
}

func TestExportCommand(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	t.Run("csv to stdout", func(t *testing.T) {
		out, err := execute(t, "export", "-c", cfgPath, "--region", "新宿区", "--out", "-")
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(out, "\ufeff")), "\n")
		require.Len(t, lines, 4)
		for _, line := range lines[1:] {
			assert.Contains(t, line, "新宿高校")
		}
	})

	t.Run("xlsx file", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "out", "admissions.xlsx")
		_, err := execute(t, "export", "-c", cfgPath, "--format", "xlsx", "--out", dest)
		require.NoError(t, err)

		f, err := excelize.OpenFile(dest)
		require.NoError(t, err)
		defer f.Close()
		assert.Contains(t, f.GetSheetList(), "詳細データ")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := execute(t, "export", "-c", cfgPath, "--format", "pdf", "--out", "-")
		require.Error(t, err)
		assert.Equal(t, ExitUsage, ExitCode(err))
	})
}

func TestDataUnavailableExitCode(t *testing.T) {
	cfgPath, sources := writeConfig(t)
	require.NoError(t, os.Remove(sources[0].Path))

	_, err := execute(t, "regions", "-c", cfgPath)
	require.Error(t, err)
	assert.Equal(t, ExitDataUnavailable, ExitCode(err))

	dest := filepath.Join(t.TempDir(), "admissions.csv")
	_, err = execute(t, "export", "-c", cfgPath, "--out", dest)
	require.Error(t, err)
	assert.Equal(t, ExitDataUnavailable, ExitCode(err))
	assert.NoFileExists(t, dest, "no partial export is left behind")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))

	_, err := execute(t, "regions", "-c", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitUsage, ExitCode(err))
}

func TestCheckCommand(t *testing.T) {
	cfgPath, sources := writeConfig(t)

	out, err := execute(t, "check", "-c", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "9 rows across [2022 2023 2024]")
	assert.Equal(t, 3, strings.Count(out, " ok "))

	require.NoError(t, os.Remove(sources[2].Path))
	out, err = execute(t, "check", "-c", cfgPath)
	require.Error(t, err)
	assert.Equal(t, ExitDataUnavailable, ExitCode(err))
	assert.Contains(t, out, "FAIL")
	assert.NotContains(t, out, "rows across")
}
