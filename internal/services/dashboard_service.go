package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"schoolpulse/internal/config"
	"schoolpulse/internal/dataset"
	apperrors "schoolpulse/internal/errors"
	"schoolpulse/internal/exporter"
	"schoolpulse/internal/presentation"
	apiv1 "schoolpulse/pkg/contracts/api/v1"
	"schoolpulse/pkg/contracts/domain"
)

// DatasetSource provides the unified admissions table
type DatasetSource interface {
	Table(ctx context.Context) (*domain.Table, error)
	Reload(ctx context.Context) (dataset.Snapshot, bool, error)
	Snapshot() dataset.Snapshot
}

// DashboardService builds dashboard models and exports from the cached dataset
type DashboardService struct {
	data      DatasetSource
	exporter  *exporter.Exporter
	listeners []dataset.Listener
	logger    *slog.Logger
}

// NewDashboardService creates the service. Listeners are told about manual reloads.
func NewDashboardService(data DatasetSource, exp *exporter.Exporter, logger *slog.Logger, listeners ...dataset.Listener) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if exp == nil {
		exp = exporter.New(logger)
	}
	return &DashboardService{
		data:      data,
		exporter:  exp,
		listeners: listeners,
		logger:    logger.With(slog.String("service", "dashboard")),
	}
}

// Regions returns the sorted distinct regions of the unified table
func (s *DashboardService) Regions(ctx context.Context) ([]string, error) {
	table, err := s.table(ctx)
	if err != nil {
		return nil, err
	}
	return dataset.Regions(table), nil
}

// Dashboard returns the page model for the selected regions; none selected means all
func (s *DashboardService) Dashboard(ctx context.Context, selected []string) (domain.Dashboard, error) {
	regions, err := NormalizeRegions(selected)
	if err != nil {
		return domain.Dashboard{}, err
	}

	table, err := s.table(ctx)
	if err != nil {
		return domain.Dashboard{}, err
	}

	dash := presentation.BuildDashboard(table, regions)
	s.logger.DebugContext(ctx, "dashboard built",
		slog.Int("selected", len(regions)),
		slog.Int("series", len(dash.Ratio.Series)),
		slog.Int("rows", len(dash.Table.Rows)))
	return dash, nil
}

// TableView returns the sorted detail table for the selected regions
func (s *DashboardService) TableView(ctx context.Context, selected []string) (domain.TableView, error) {
	regions, err := NormalizeRegions(selected)
	if err != nil {
		return domain.TableView{}, err
	}

	table, err := s.table(ctx)
	if err != nil {
		return domain.TableView{}, err
	}
	return presentation.SortedTable(dataset.Filter(table, regions).Rows), nil
}

// Export writes the selected detail table to w in format
func (s *DashboardService) Export(ctx context.Context, w io.Writer, format string, selected []string) error {
	f, err := exporter.ParseFormat(format)
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrTypeValidation, err.Error(), ErrUnsupportedFormat)
	}

	view, err := s.TableView(ctx, selected)
	if err != nil {
		return err
	}

	if err := s.exporter.Write(ctx, w, f, view); err != nil {
		return apperrors.NewExportError(string(f), err)
	}
	return nil
}

// ExportFile writes the selected detail table to path in format. The view is
// built before the file is created, so a dataset failure never touches path.
func (s *DashboardService) ExportFile(ctx context.Context, path, format string, selected []string) error {
	f, err := exporter.ParseFormat(format)
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrTypeValidation, err.Error(), ErrUnsupportedFormat)
	}

	view, err := s.TableView(ctx, selected)
	if err != nil {
		return err
	}

	if err := s.exporter.WriteFile(ctx, path, f, view); err != nil {
		if errors.Is(err, exporter.ErrOutputFile) {
			return apperrors.NewStorageError("failed to write export file", err)
		}
		return apperrors.NewExportError(string(f), err)
	}
	return nil
}

// Reload re-reads the source files and notifies listeners when the content changed
func (s *DashboardService) Reload(ctx context.Context) (apiv1.DatasetStatus, error) {
	snap, changed, err := s.data.Reload(ctx)
	if err != nil {
		for _, l := range s.listeners {
			l.DatasetFailed(ctx, err)
		}
		return StatusFromSnapshot(snap), unavailable(err)
	}

	s.logger.InfoContext(ctx, "dataset reloaded",
		slog.Bool("changed", changed),
		slog.Int("rows", snap.Rows))
	if changed {
		for _, l := range s.listeners {
			l.DatasetReloaded(ctx, snap)
		}
	}
	return StatusFromSnapshot(snap), nil
}

// Status reports the cache state without loading
func (s *DashboardService) Status() apiv1.DatasetStatus {
	return StatusFromSnapshot(s.data.Snapshot())
}

func (s *DashboardService) table(ctx context.Context) (*domain.Table, error) {
	table, err := s.data.Table(ctx)
	if err != nil {
		return nil, unavailable(err)
	}
	return table, nil
}

// unavailable converts loader failures into the application error taxonomy
func unavailable(err error) error {
	if !errors.Is(err, dataset.ErrDataUnavailable) {
		return err
	}

	appErr := apperrors.NewDataUnavailableError("admissions dataset could not be loaded", err)
	var due *dataset.DataUnavailableError
	if errors.As(err, &due) {
		appErr.WithContext("year", due.Year).WithContext("path", due.Path)
		if due.Line > 0 {
			appErr.WithContext("line", due.Line)
		}
	}
	return appErr
}

// NormalizeRegions trims names, drops blanks and duplicates, and enforces the
// selection limits. The result keeps first-occurrence order.
func NormalizeRegions(selected []string) ([]string, error) {
	regions := make([]string, 0, len(selected))
	seen := make(map[string]struct{}, len(selected))
	for _, r := range selected {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if len([]rune(r)) > config.MaxRegionNameLength {
			return nil, apperrors.NewAppError(apperrors.ErrTypeValidation,
				fmt.Sprintf("region name exceeds %d characters", config.MaxRegionNameLength), ErrRegionTooLong)
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		regions = append(regions, r)
	}
	if len(regions) > apiv1.MaxSelectedRegions {
		return nil, apperrors.NewAppError(apperrors.ErrTypeValidation,
			fmt.Sprintf("at most %d regions may be selected", apiv1.MaxSelectedRegions), ErrTooManyRegions)
	}
	return regions, nil
}

// StatusFromSnapshot converts a cache snapshot to its API shape
func StatusFromSnapshot(snap dataset.Snapshot) apiv1.DatasetStatus {
	status := apiv1.DatasetStatus{
		Loaded:      snap.Loaded,
		Rows:        snap.Rows,
		Years:       snap.Years,
		Fingerprint: snap.Fingerprint,
		Hits:        snap.Hits,
		Misses:      snap.Misses,
	}
	if status.Years == nil {
		status.Years = []int{}
	}
	if !snap.LoadedAt.IsZero() {
		status.LoadedAt = snap.LoadedAt.Format(time.RFC3339)
	}
	if snap.LastError != nil {
		status.LastError = snap.LastError.Error()
	}
	return status
}
