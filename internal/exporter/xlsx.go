package exporter

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"schoolpulse/internal/presentation"
	"schoolpulse/pkg/contracts/domain"
)

// Sheet names of the workbook
const (
	SheetDetail = "詳細データ"
	SheetRatio  = "応募倍率"
	SheetCount  = "応募人数"
)

// maxChartSeries is Excel's limit on series per chart
const maxChartSeries = 255

// WriteXLSX writes view as a workbook with the detail sheet and two pivot
// sheets, each with a line chart of one trend.
func WriteXLSX(w io.Writer, view domain.TableView) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetDetail); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeDetailSheet(f, view); err != nil {
		return err
	}

	pivot := newPivot(view.Rows)
	if err := writePivotSheet(f, SheetRatio, presentation.RatioChartTitle, presentation.LabelRatio, pivot,
		func(r domain.Record) interface{} { return r.FinalRatio }); err != nil {
		return err
	}
	if err := writePivotSheet(f, SheetCount, presentation.CountChartTitle, presentation.LabelApplicants, pivot,
		func(r domain.Record) interface{} { return r.FinalApplicants }); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeDetailSheet(f *excelize.File, view domain.TableView) error {
	header := make([]interface{}, len(view.Columns))
	for i, c := range view.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetDetail, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range view.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{r.Region, r.SchoolName, r.Capacity, r.FinalApplicants, r.FinalRatio, r.Year}
		if err := f.SetSheetRow(SheetDetail, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastHeader, _ := excelize.CoordinatesToCellName(max(len(view.Columns), 1), 1)
	if err := f.SetCellStyle(SheetDetail, "A1", lastHeader, bold); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetDetail, "A", "B", 18); err != nil {
		return err
	}
	return f.SetColWidth(SheetDetail, "C", "F", 12)
}

// pivot is the school-by-year layout behind the workbook charts. Rows are
// keyed by region and school so same-named schools in different regions stay
// separate; their labels then carry the region.
type pivot struct {
	keys   []pivotKey
	labels []string
	years  []int
	cells  map[pivotKey]map[int]domain.Record
}

type pivotKey struct {
	region string
	school string
}

func newPivot(rows []domain.Record) pivot {
	p := pivot{cells: make(map[pivotKey]map[int]domain.Record)}
	seenYear := make(map[int]bool)
	regionsPerSchool := make(map[string]int)
	for _, r := range rows {
		key := pivotKey{region: r.Region, school: r.SchoolName}
		byYear, ok := p.cells[key]
		if !ok {
			byYear = make(map[int]domain.Record)
			p.cells[key] = byYear
			p.keys = append(p.keys, key)
			regionsPerSchool[r.SchoolName]++
		}
		// a school listed twice in one year keeps its last row
		byYear[r.Year] = r
		if !seenYear[r.Year] {
			seenYear[r.Year] = true
			p.years = append(p.years, r.Year)
		}
	}
	sort.Ints(p.years)

	p.labels = make([]string, len(p.keys))
	for i, key := range p.keys {
		p.labels[i] = key.school
		if regionsPerSchool[key.school] > 1 {
			p.labels[i] = key.school + "（" + key.region + "）"
		}
	}
	return p
}

func writePivotSheet(f *excelize.File, sheet, title, yLabel string, p pivot, value func(domain.Record) interface{}) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	header := []interface{}{domain.ColumnSchoolName}
	for _, y := range p.years {
		header = append(header, y)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, key := range p.keys {
		row := []interface{}{p.labels[i]}
		for _, y := range p.years {
			if rec, ok := p.cells[key][y]; ok {
				row = append(row, value(rec))
			} else {
				row = append(row, nil)
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	if len(p.keys) == 0 || len(p.years) == 0 || len(p.keys) > maxChartSeries {
		return nil
	}
	return f.AddChart(sheet, chartAnchor(len(p.years)), lineChart(sheet, title, yLabel, p))
}

func chartAnchor(years int) string {
	cell, _ := excelize.CoordinatesToCellName(years+3, 2)
	return cell
}

func lineChart(sheet, title, yLabel string, p pivot) *excelize.Chart {
	firstCol, _ := excelize.ColumnNumberToName(2)
	lastCol, _ := excelize.ColumnNumberToName(len(p.years) + 1)
	categories := fmt.Sprintf("'%s'!$%s$1:$%s$1", sheet, firstCol, lastCol)

	series := make([]excelize.ChartSeries, 0, len(p.keys))
	for i := range p.keys {
		row := i + 2
		series = append(series, excelize.ChartSeries{
			Name:       fmt.Sprintf("'%s'!$A$%d", sheet, row),
			Categories: categories,
			Values:     fmt.Sprintf("'%s'!$%s$%d:$%s$%d", sheet, firstCol, row, lastCol, row),
			Marker:     excelize.ChartMarker{Symbol: "circle", Size: 5},
		})
	}

	return &excelize.Chart{
		Type:   excelize.Line,
		Series: series,
		Title:  []excelize.RichTextRun{{Text: title}},
		XAxis: excelize.ChartAxis{
			Title: []excelize.RichTextRun{{Text: presentation.LabelYear}},
		},
		YAxis: excelize.ChartAxis{
			Title: []excelize.RichTextRun{{Text: yLabel}},
		},
		Legend:    excelize.ChartLegend{Position: "right"},
		Dimension: excelize.ChartDimension{Width: 960, Height: uint(presentation.ChartHeight)},
	}
}
