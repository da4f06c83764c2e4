package domain

// KpiSet holds the headline aggregates for a row subset.
type KpiSet struct {
	Revenue float64 `json:"revenue"`
	Units   float64 `json:"units"`
	Tx      int     `json:"tx"`
	ATV     float64 `json:"atv"`
}

// ChartKind identifies the chart a series is destined for. The rendering
// sink decides how to draw it; the server only ships labels and values.
type ChartKind string

const (
	ChartBar      ChartKind = "bar"
	ChartLine     ChartKind = "line"
	ChartDoughnut ChartKind = "doughnut"
)

// ValueFmt names the formatting the sink should apply to chart or table
// values.
type ValueFmt string

const (
	FmtCurrency ValueFmt = "currency"
	FmtCount    ValueFmt = "count"
)

// ChartSeries is the rendering-sink payload for one chart: parallel label
// and value slices plus the formatting hint for the value axis.
type ChartSeries struct {
	Kind     ChartKind `json:"kind"`
	Title    string    `json:"title"`
	Labels   []string  `json:"labels"`
	Values   []float64 `json:"values"`
	ValueFmt ValueFmt  `json:"value_fmt"`
}

// RankedEntry is one (key, value) pair of a top-N ranking.
type RankedEntry struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// RankedTable is the rendering-sink payload for one ranked table.
type RankedTable struct {
	ID       string        `json:"id"`
	Entries  []RankedEntry `json:"entries"`
	ValueFmt ValueFmt      `json:"value_fmt"`
}

// DashboardView is everything one render cycle needs for a given filter
// subset. It is recomputed from scratch on every request.
type DashboardView struct {
	Criteria     FilterCriteria `json:"criteria"`
	Kpis         KpiSet         `json:"kpis"`
	Charts       []ChartSeries  `json:"charts"`
	Tables       []RankedTable  `json:"tables"`
	Bounds       DateBounds     `json:"date_bounds"`
	MatchedRows  int            `json:"matched_rows"`
	ShowCategory bool           `json:"show_category"`
}
