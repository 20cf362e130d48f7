package dataset

import (
	"sort"

	"schoolpulse/pkg/contracts/domain"
)

// Filter returns the rows of table whose region is in regions, in their
// original order. An empty selection means "all" and returns table itself.
// Unknown regions match nothing; the input is never modified.
func Filter(table *domain.Table, regions []string) *domain.Table {
	if len(regions) == 0 {
		return table
	}

	want := make(map[string]struct{}, len(regions))
	for _, r := range regions {
		want[r] = struct{}{}
	}

	var rows []domain.Record
	if table != nil {
		for _, rec := range table.Rows {
			if _, ok := want[rec.Region]; ok {
				rows = append(rows, rec)
			}
		}
	}
	return domain.NewTable(rows)
}

// Regions returns the distinct regions of table sorted ascending
func Regions(table *domain.Table) []string {
	if table == nil {
		return []string{}
	}

	seen := make(map[string]struct{})
	regions := []string{}
	for _, rec := range table.Rows {
		if _, ok := seen[rec.Region]; ok {
			continue
		}
		seen[rec.Region] = struct{}{}
		regions = append(regions, rec.Region)
	}
	sort.Strings(regions)
	return regions
}
