package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"schoolpulse/internal/config"
)

// SourceReport is the pre-flight result for one configured dataset source
type SourceReport struct {
	Year int
	Path string
	Size int64
	Err  error
}

// OK reports whether the source passed every check
func (r SourceReport) OK() bool {
	return r.Err == nil
}

// SourceValidator checks dataset files before they are parsed
type SourceValidator struct {
	logger *slog.Logger
}

// NewSourceValidator creates a new source validator
func NewSourceValidator(logger *slog.Logger) *SourceValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceValidator{
		logger: logger.With(slog.String("component", "source_validator")),
	}
}

// ValidateDataDir checks that the data directory exists
func (v *SourceValidator) ValidateDataDir(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Data directory does not exist",
			slog.String("directory", dir))
		return fmt.Errorf("data directory %s does not exist", dir)
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// ValidateSource checks that a source is a readable, non-empty .csv file
func (v *SourceValidator) ValidateSource(src config.Source) SourceReport {
	report := SourceReport{Year: src.Year, Path: src.Path}

	info, err := os.Stat(src.Path)
	switch {
	case os.IsNotExist(err):
		report.Err = fmt.Errorf("file %s does not exist", src.Path)
	case err != nil:
		report.Err = fmt.Errorf("failed to stat file %s: %w", src.Path, err)
	case info.IsDir():
		report.Err = fmt.Errorf("%s is a directory, not a file", src.Path)
	case info.Size() == 0:
		report.Err = fmt.Errorf("file %s is empty", src.Path)
	case !strings.EqualFold(filepath.Ext(src.Path), ".csv"):
		report.Err = fmt.Errorf("file %s is not a CSV file (extension: %s)", src.Path, filepath.Ext(src.Path))
	}
	if report.Err != nil {
		v.logger.Warn("Dataset source failed validation",
			slog.Int("year", src.Year),
			slog.String("file", src.Path),
			slog.String("error", report.Err.Error()))
		return report
	}
	report.Size = info.Size()

	file, err := os.Open(src.Path)
	if err != nil {
		report.Err = fmt.Errorf("file %s is not readable: %w", src.Path, err)
		return report
	}
	file.Close()

	v.logger.Debug("Dataset source validated",
		slog.Int("year", src.Year),
		slog.String("file", src.Path),
		slog.Int64("size", report.Size))
	return report
}

// ValidateSources checks every source in load order and returns one report per source
func (v *SourceValidator) ValidateSources(sources []config.Source) []SourceReport {
	reports := make([]SourceReport, 0, len(sources))
	for _, src := range sources {
		reports = append(reports, v.ValidateSource(src))
	}
	return reports
}

// FirstError returns the first failing report's error, if any
func FirstError(reports []SourceReport) error {
	for _, r := range reports {
		if r.Err != nil {
			return fmt.Errorf("%d: %w", r.Year, r.Err)
		}
	}
	return nil
}
