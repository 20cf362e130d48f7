package presentation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolpulse/pkg/contracts/domain"
)

func TestBuildViews_Charts(t *testing.T) {
	table := domain.NewTable([]domain.Record{
		{Region: "RegionA", SchoolName: "SchoolB", FinalApplicants: 80, FinalRatio: 0.8, Year: 2023},
		{Region: "RegionA", SchoolName: "SchoolA", FinalApplicants: 120, FinalRatio: 1.2, Year: 2022},
		{Region: "RegionA", SchoolName: "SchoolA", FinalApplicants: 130, FinalRatio: 1.3, Year: 2023},
	})

	views := BuildViews(table)

	wantRatio := []domain.Series{
		{Name: "SchoolB", Points: []domain.Point{{X: 2023, Y: 0.8}}},
		{Name: "SchoolA", Points: []domain.Point{{X: 2022, Y: 1.2}, {X: 2023, Y: 1.3}}},
	}
	if diff := cmp.Diff(wantRatio, views.Ratio.Series); diff != "" {
		t.Errorf("ratio series (-want +got):\n%s", diff)
	}

	wantCount := []domain.Series{
		{Name: "SchoolB", Points: []domain.Point{{X: 2023, Y: 80}}},
		{Name: "SchoolA", Points: []domain.Point{{X: 2022, Y: 120}, {X: 2023, Y: 130}}},
	}
	if diff := cmp.Diff(wantCount, views.Count.Series); diff != "" {
		t.Errorf("count series (-want +got):\n%s", diff)
	}

	assert.Equal(t, domain.ChartSpec{
		Title: RatioChartTitle, XField: domain.ColumnYear, YField: domain.ColumnFinalRatio,
		XLabel: "年度", YLabel: "応募倍率", XTickFormat: "d", Height: 600, Markers: true,
		Series: views.Ratio.Series,
	}, views.Ratio)
	assert.Equal(t, "応募人数", views.Count.YLabel)
	assert.Equal(t, "高校別応募人数の推移", views.Count.Title)
}

func TestBuildViews_TableOrder(t *testing.T) {
	table := domain.NewTable([]domain.Record{
		{SchoolName: "SchoolB", Year: 2023},
		{SchoolName: "SchoolA", Year: 2023},
		{SchoolName: "SchoolA", Year: 2022},
	})

	views := BuildViews(table)

	got := make([][2]interface{}, 0, 3)
	for _, r := range views.Table.Rows {
		got = append(got, [2]interface{}{r.SchoolName, r.Year})
	}
	assert.Equal(t, [][2]interface{}{{"SchoolA", 2022}, {"SchoolA", 2023}, {"SchoolB", 2023}}, got)
	assert.Equal(t, domain.Columns(), views.Table.Columns)

	assert.Equal(t, "SchoolB", table.Rows[0].SchoolName, "input order is untouched")
}

func TestSortedTable_Stable(t *testing.T) {
	rows := []domain.Record{
		{Region: "first", SchoolName: "S", Year: 2022},
		{Region: "second", SchoolName: "S", Year: 2022},
	}
	view := SortedTable(rows)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, "first", view.Rows[0].Region)
	assert.Equal(t, "second", view.Rows[1].Region)
}

func TestBuildViews_Empty(t *testing.T) {
	for name, table := range map[string]*domain.Table{
		"empty": domain.NewTable(nil),
		"nil":   nil,
	} {
		t.Run(name, func(t *testing.T) {
			views := BuildViews(table)
			assert.Empty(t, views.Ratio.Series)
			assert.NotNil(t, views.Ratio.Series)
			assert.Empty(t, views.Count.Series)
			assert.Empty(t, views.Table.Rows)
			assert.Equal(t, 600, views.Count.Height)
		})
	}
}
