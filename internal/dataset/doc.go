// Package dataset turns the bureau's yearly admissions CSV files into one
// in-memory table and keeps it current.
//
// The pipeline is deliberately small:
//
//	Loader  reads each configured source, maps its first five columns onto the
//	        canonical schema by position, stamps the year and concatenates the
//	        segments in source order.
//	Cache   memoises the unified table, keyed by a blake2b fingerprint of the
//	        raw source bytes, and shares concurrent first loads.
//	Watcher invalidates the cache when a source file changes on disk.
//	Filter  narrows a table to a set of regions without copying when the set
//	        is empty.
//
// Any failure to produce the table is reported as a *DataUnavailableError;
// callers test for it with errors.Is(err, ErrDataUnavailable). A partial table
// is never returned.
package dataset
