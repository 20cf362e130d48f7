package presentation

import (
	"schoolpulse/internal/dataset"
	"schoolpulse/pkg/contracts/domain"
)

// Page copy
const (
	DashboardTitle       = "東京都立高校 入学試験応募状況の推移 (2022-2024)"
	DashboardDescription = "過去3年間の都立高校の応募状況を可視化しています。"
	FilterHeader         = "フィルター"
	FilterLabel          = "区市町村名を選択"
	RatioHeader          = "応募倍率の推移"
	CountHeader          = "応募人数の推移"
	TableHeader          = "詳細データ"
)

// BuildDashboard assembles the page model: the region options come from the
// unified table, the views from the rows matching selected.
func BuildDashboard(unified *domain.Table, selected []string) domain.Dashboard {
	if selected == nil {
		selected = []string{}
	}

	return domain.Dashboard{
		Title:        DashboardTitle,
		Description:  DashboardDescription,
		FilterHeader: FilterHeader,
		FilterLabel:  FilterLabel,
		RatioHeader:  RatioHeader,
		CountHeader:  CountHeader,
		TableHeader:  TableHeader,
		Regions:      dataset.Regions(unified),
		Selected:     selected,
		Views:        BuildViews(dataset.Filter(unified, selected)),
	}
}
