package exporter

import (
	"fmt"
	"strconv"
	"strings"
)

// Format is an export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FileBaseName is used for downloads when no name is given
const FileBaseName = "tokyo_high_school_admissions"

// ParseFormat accepts "csv" or "xlsx" in any case
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type served for the format
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// FileName returns the download file name for the format
func (f Format) FileName() string {
	return FileBaseName + "." + string(f)
}

// formatFloat writes ratios with exactly two decimals, the precision the bureau publishes
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
