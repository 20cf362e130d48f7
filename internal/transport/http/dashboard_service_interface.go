package http

import (
	"context"
	"io"

	apiv1 "schoolpulse/pkg/contracts/api/v1"
	"schoolpulse/pkg/contracts/domain"
)

// DashboardServiceInterface defines the dashboard operations the handlers need
type DashboardServiceInterface interface {
	Regions(ctx context.Context) ([]string, error)
	Dashboard(ctx context.Context, selected []string) (domain.Dashboard, error)
	Export(ctx context.Context, w io.Writer, format string, selected []string) error
	Reload(ctx context.Context) (apiv1.DatasetStatus, error)
	Status() apiv1.DatasetStatus
}
