package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"schoolpulse/internal/config"
)

// SampleHeader is the header line the bureau publishes; loaders ignore its text.
const SampleHeader = "区市町村名,学校名,募集人員,最終応募人員,最終応募倍率"

// SampleRows holds three small yearly files, keyed by year. Every year has
// three schools across three regions; 2024 adds a thousands-separated count.
var SampleRows = map[int][]string{
	2022: {
		"千代田区,日比谷高校,316,612,1.94",
		"新宿区,新宿高校,316,525,1.66",
		"八王子市,八王子東高校,316,402,1.27",
	},
	2023: {
		"千代田区,日比谷高校,316,598,1.89",
		"新宿区,新宿高校,316,540,1.71",
		"八王子市,八王子東高校,316,389,1.23",
	},
	2024: {
		`千代田区,日比谷高校,316,"1,005",3.18`,
		"新宿区,新宿高校,316,560,1.77",
		"八王子市,八王子東高校,316,375,1.19",
	},
}

// SampleYears lists the fixture years in load order
var SampleYears = []int{2022, 2023, 2024}

// WriteCSV writes header plus rows to dir/name and returns the full path
func WriteCSV(t testing.TB, dir, name, header string, rows ...string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	content := header + "\n" + strings.Join(rows, "\n")
	if len(rows) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
	return path
}

// WriteSampleDataset writes the SampleRows files into a temp directory and
// returns the directory together with sources in year order.
func WriteSampleDataset(t testing.TB) (string, []config.Source) {
	t.Helper()

	dir := t.TempDir()
	sources := make([]config.Source, 0, len(SampleYears))
	for _, year := range SampleYears {
		name := filepath.Base(config.SourceFileName(year))
		path := WriteCSV(t, dir, name, SampleHeader, SampleRows[year]...)
		sources = append(sources, config.Source{Year: year, Path: path})
	}
	return dir, sources
}
