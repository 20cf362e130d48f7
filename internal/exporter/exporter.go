package exporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"schoolpulse/internal/infrastructure"
	"schoolpulse/pkg/contracts/domain"
)

// Exporter writes table views in the supported formats
type Exporter struct {
	logger  *slog.Logger
	metrics *infrastructure.DatasetMetrics
}

// New creates an exporter; metrics may be nil
func New(logger *slog.Logger, metrics ...*infrastructure.DatasetMetrics) *Exporter {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	e := &Exporter{logger: logger.With(slog.String("component", "exporter"))}
	if len(metrics) > 0 {
		e.metrics = metrics[0]
	}
	return e
}

// Write encodes view to w
func (e *Exporter) Write(ctx context.Context, w io.Writer, format Format, view domain.TableView) error {
	var err error
	switch format {
	case FormatCSV:
		err = WriteCSV(w, view)
	case FormatXLSX:
		err = WriteXLSX(w, view)
	default:
		err = fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		e.logger.ErrorContext(ctx, "export failed",
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
		return err
	}

	infrastructure.RecordExport(ctx, e.metrics, string(format), len(view.Rows))
	e.logger.InfoContext(ctx, "table exported",
		slog.String("format", string(format)),
		slog.Int("rows", len(view.Rows)))
	return nil
}

// ErrOutputFile marks failures to create or finalise the export file itself,
// as opposed to failures encoding the view.
var ErrOutputFile = errors.New("export output file")

// WriteFile writes view to path, creating parent directories as needed.
// On any failure after the file was created it is removed, so no partial
// export is left behind.
func (e *Exporter) WriteFile(ctx context.Context, path string, format Format, view domain.TableView) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: failed to create directory: %w", ErrOutputFile, err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: failed to create file: %w", ErrOutputFile, err)
	}
	defer func() {
		if err != nil {
			if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				e.logger.WarnContext(ctx, "failed to remove partial export",
					slog.String("path", path),
					slog.String("error", rmErr.Error()))
			}
		}
	}()

	if err := e.Write(ctx, file, format, view); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: failed to write file: %w", ErrOutputFile, err)
	}
	return nil
}
