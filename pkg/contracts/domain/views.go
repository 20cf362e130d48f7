package domain

// Point is a single (year, value) pair on a trend chart
type Point struct {
	X int     `json:"x"`
	Y float64 `json:"y"`
}

// Series is one line of a chart; one per school.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// ChartSpec is a renderer-independent line chart description.
type ChartSpec struct {
	Title       string   `json:"title"`
	XField      string   `json:"x_field"`
	YField      string   `json:"y_field"`
	XLabel      string   `json:"x_label"`
	YLabel      string   `json:"y_label"`
	XTickFormat string   `json:"x_tick_format"`
	Height      int      `json:"height"`
	Markers     bool     `json:"markers"`
	Series      []Series `json:"series"`
}

// TableView is the sorted detail table shown under the charts
type TableView struct {
	Columns []string `json:"columns"`
	Rows    []Record `json:"rows"`
}

// Views groups everything the presentation stage derives from a filtered table.
type Views struct {
	Ratio ChartSpec `json:"ratio_chart"`
	Count ChartSpec `json:"count_chart"`
	Table TableView `json:"table"`
}

// Dashboard is the complete page model
type Dashboard struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	FilterHeader string   `json:"filter_header"`
	FilterLabel  string   `json:"filter_label"`
	RatioHeader  string   `json:"ratio_header"`
	CountHeader  string   `json:"count_header"`
	TableHeader  string   `json:"table_header"`
	Regions      []string `json:"regions"`
	Selected     []string `json:"selected"`
	Views
}
