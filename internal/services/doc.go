// Package services implements the business layer between the HTTP handlers and
// the dataset pipeline.
//
// DashboardService turns region selections into dashboard page models and
// exports. It never touches files directly: the unified table comes from a
// DatasetSource (the memoizing dataset.Cache in production), so every request
// reuses the same immutable table.
//
// Errors leave the package in the application taxonomy of internal/errors:
// loader failures become DATA_UNAVAILABLE, bad selections and unknown export
// formats become VALIDATION. Handlers pass them to errors.ErrorHandler unchanged.
//
// HealthService reports liveness, version and readiness. Readiness loads the
// dataset, so a deployment with missing admission files is never marked ready.
package services
