// Package exporter writes the sorted detail table of the admissions dashboard
// to downloadable files.
//
// Two formats are supported:
//
// CSV: UTF-8 with a byte order mark so Excel opens the Japanese headers
// correctly. Ratios are written with two decimals.
//
// XLSX: a 詳細データ sheet holding the same table, plus one pivot sheet per
// trend (school by year) carrying a native line chart.
//
// Example usage:
//
//	view := presentation.SortedTable(table.Rows)
//	err := exporter.New(logger).WriteFile(ctx, "exports/admissions.xlsx", exporter.FormatXLSX, view)
package exporter
