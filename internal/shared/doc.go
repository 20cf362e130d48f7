// Package shared holds helpers used by more than one layer of schoolpulse.
//
// The testutil subpackage provides a buffered slog handler for asserting on
// structured log output and fixtures that write small admissions CSV files
// into a test's temp directory:
//
//	dir, sources := testutil.WriteSampleDataset(t)
//	loader := dataset.NewLoader(sources, config.EncodingAuto, logger)
//
// Nothing here may import a domain package, so any package's tests can use it.
package shared
