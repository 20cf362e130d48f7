// Package api contains API contract definitions for schoolpulse.
// Version v1 represents the current stable API version.
package api

import (
	"schoolpulse/pkg/contracts/domain"
)

// MaxSelectedRegions bounds the region multi-select; Tokyo has 62 municipalities.
const MaxSelectedRegions = 100

// DashboardRequest represents the region selection sent by the dashboard
type DashboardRequest struct {
	Regions []string `json:"regions" query:"region" validate:"max=100,dive,required,max=64,region"`
}

// ExportRequest represents a download of the filtered detail table
type ExportRequest struct {
	DashboardRequest
	Format string `json:"format" param:"format" validate:"required,oneof=csv xlsx"`
}

// RegionsResponse lists the selectable regions
type RegionsResponse struct {
	Regions []string `json:"regions"`
	Count   int      `json:"count"`
}

// DashboardResponse wraps the dashboard page model
type DashboardResponse struct {
	Status string `json:"status"`
	domain.Dashboard
}

// DatasetStatus describes the cached unified table
type DatasetStatus struct {
	Loaded      bool   `json:"loaded"`
	Rows        int    `json:"rows"`
	Years       []int  `json:"years"`
	Fingerprint string `json:"fingerprint,omitempty"`
	LoadedAt    string `json:"loaded_at,omitempty"`
	Hits        int64  `json:"cache_hits"`
	Misses      int64  `json:"cache_misses"`
	LastError   string `json:"last_error,omitempty"`
}
