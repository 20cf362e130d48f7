package domain

// Canonical column names of the unified admissions table, in positional order.
// Source files are mapped onto the first five by position, never by header text.
const (
	ColumnRegion          = "区市町村名"
	ColumnSchoolName      = "学校名"
	ColumnCapacity        = "募集人員"
	ColumnFinalApplicants = "最終応募人員"
	ColumnFinalRatio      = "最終応募倍率"
	ColumnYear            = "年度"
)

// SourceColumnCount is the number of leading columns every source file must carry.
const SourceColumnCount = 5

// Columns returns the canonical schema, source columns first and the year last.
func Columns() []string {
	return []string{
		ColumnRegion,
		ColumnSchoolName,
		ColumnCapacity,
		ColumnFinalApplicants,
		ColumnFinalRatio,
		ColumnYear,
	}
}

// Record is one school's admissions result for one year
type Record struct {
	Region          string  `json:"region" validate:"required"`
	SchoolName      string  `json:"school_name" validate:"required"`
	Capacity        int     `json:"capacity" validate:"min=0"`
	FinalApplicants int     `json:"final_applicants" validate:"min=0"`
	FinalRatio      float64 `json:"final_ratio" validate:"min=0"`
	Year            int     `json:"year" validate:"required"`
}

// Table is an ordered, read-only sequence of records.
//
// A Table handed out by the dataset package is shared between requests and must
// never be mutated; build a new Table instead.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Record `json:"rows"`
}

// NewTable creates a table with the canonical schema
func NewTable(rows []Record) *Table {
	if rows == nil {
		rows = []Record{}
	}
	return &Table{
		Columns: Columns(),
		Rows:    rows,
	}
}

// Len returns the number of rows; a nil table has none.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Years returns the distinct years in first-appearance order
func (t *Table) Years() []int {
	if t == nil {
		return nil
	}
	seen := make(map[int]struct{})
	var years []int
	for _, r := range t.Rows {
		if _, ok := seen[r.Year]; ok {
			continue
		}
		seen[r.Year] = struct{}{}
		years = append(years, r.Year)
	}
	return years
}
