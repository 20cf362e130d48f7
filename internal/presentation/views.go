// Package presentation derives the declarative chart and table views of the
// admissions dashboard from a (filtered) table. Nothing here renders; the
// HTML page, the JSON API and the exporters all consume the same values.
package presentation

import (
	"sort"

	"schoolpulse/pkg/contracts/domain"
)

// Chart and page labels
const (
	LabelYear       = "年度"
	LabelRatio      = "応募倍率"
	LabelApplicants = "応募人数"

	RatioChartTitle = "高校別応募倍率の推移"
	CountChartTitle = "高校別応募人数の推移"

	YearTickFormat = "d"
	ChartHeight    = 600
)

// BuildViews returns the ratio chart, the applicant-count chart and the sorted
// detail table for table. An empty or nil table yields empty views.
func BuildViews(table *domain.Table) domain.Views {
	var rows []domain.Record
	if table != nil {
		rows = table.Rows
	}

	return domain.Views{
		Ratio: lineChart(rows, RatioChartTitle, domain.ColumnFinalRatio, LabelRatio,
			func(r domain.Record) float64 { return r.FinalRatio }),
		Count: lineChart(rows, CountChartTitle, domain.ColumnFinalApplicants, LabelApplicants,
			func(r domain.Record) float64 { return float64(r.FinalApplicants) }),
		Table: SortedTable(rows),
	}
}

// lineChart groups rows into one series per school, schools in order of first
// appearance and points in row order.
func lineChart(rows []domain.Record, title, yField, yLabel string, y func(domain.Record) float64) domain.ChartSpec {
	index := make(map[string]int)
	series := []domain.Series{}
	for _, r := range rows {
		i, ok := index[r.SchoolName]
		if !ok {
			i = len(series)
			index[r.SchoolName] = i
			series = append(series, domain.Series{Name: r.SchoolName})
		}
		series[i].Points = append(series[i].Points, domain.Point{X: r.Year, Y: y(r)})
	}

	return domain.ChartSpec{
		Title:       title,
		XField:      domain.ColumnYear,
		YField:      yField,
		XLabel:      LabelYear,
		YLabel:      yLabel,
		XTickFormat: YearTickFormat,
		Height:      ChartHeight,
		Markers:     true,
		Series:      series,
	}
}

// SortedTable copies rows and stable-sorts them by school name, then year
func SortedTable(rows []domain.Record) domain.TableView {
	sorted := make([]domain.Record, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].SchoolName != sorted[j].SchoolName {
			return sorted[i].SchoolName < sorted[j].SchoolName
		}
		return sorted[i].Year < sorted[j].Year
	})

	return domain.TableView{
		Columns: domain.Columns(),
		Rows:    sorted,
	}
}
