package zonemeter

import (
	"fmt"
	"time"
)

// Mode selects the body rows of a summary block.
type Mode string

const (
	// ModeMetrics writes one row per metric expression.
	ModeMetrics Mode = "metrics"
	// ModeDaily writes one row per calendar day.
	ModeDaily Mode = "daily"
)

// ParseMode parses a mode name; the empty string selects ModeMetrics.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeMetrics:
		return ModeMetrics, nil
	case ModeDaily:
		return ModeDaily, nil
	}
	return "", fmt.Errorf("invalid block mode %q (must be %s or %s)", s, ModeMetrics, ModeDaily)
}

// BlockRow is one body row: a label in the first column, then one value per meter.
type BlockRow struct {
	Label  string
	Values []any // nil entries leave the cell empty
}

// SummaryBlock is the rendered content of one monthly block:
//
//	title row   "2025年9月"
//	header row  label header, then one header per meter
//	body rows   metrics or days
//	totals row  total label, then the monthly sum per meter
type SummaryBlock struct {
	Year   int
	Month  time.Month
	Title  string
	Header []string
	Rows   []BlockRow
	Totals BlockRow
}

// Width returns the number of columns the block occupies.
func (b SummaryBlock) Width() int {
	w := len(b.Header)
	for _, r := range b.Rows {
		if n := len(r.Values) + 1; n > w {
			w = n
		}
	}
	if n := len(b.Totals.Values) + 1; n > w {
		w = n
	}
	return w
}

// Height returns the number of rows the block occupies.
func (b SummaryBlock) Height() int {
	return 3 + len(b.Rows)
}

// BlockInput is the aggregated data a block is built from. Stats must be
// aligned with Columns; Rows are needed in daily mode only.
type BlockInput struct {
	Year    int
	Month   time.Month
	Columns []ColumnBinding
	Stats   []Stats
	Rows    []DailyRow
}

// BlockBuilder turns aggregates into a SummaryBlock.
type BlockBuilder struct {
	eval        ExpressionEvaluator
	metrics     []MetricRow
	labelHeader string
	totalLabel  string
}

// BuilderOption configures a BlockBuilder.
type BuilderOption func(*BlockBuilder)

// WithMetricRows sets the metric rows of metrics-mode blocks.
func WithMetricRows(rows []MetricRow) BuilderOption {
	return func(b *BlockBuilder) { b.metrics = append([]MetricRow(nil), rows...) }
}

// WithLabels sets the header of the label column and the label of the totals row.
func WithLabels(labelHeader, totalLabel string) BuilderOption {
	return func(b *BlockBuilder) {
		b.labelHeader = labelHeader
		b.totalLabel = totalLabel
	}
}

const (
	defaultLabelHeader = "项目"
	defaultTotalLabel  = "合计"
)

// TotalLabel returns the label of the totals row.
func (bb *BlockBuilder) TotalLabel() string { return bb.totalLabel }

// NewBlockBuilder creates a builder with the default metric rows.
func NewBlockBuilder(opts ...BuilderOption) *BlockBuilder {
	b := &BlockBuilder{
		eval:        NewExpressionEvaluator(),
		metrics:     DefaultMetricRows(),
		labelHeader: defaultLabelHeader,
		totalLabel:  defaultTotalLabel,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build renders the block for in. The totals row holds each column's monthly
// sum in column-map order.
func (bb *BlockBuilder) Build(in BlockInput, mode Mode) (SummaryBlock, error) {
	if len(in.Stats) != len(in.Columns) {
		return SummaryBlock{}, fmt.Errorf("block %s: %d stats for %d columns", TitleText(in.Year, in.Month), len(in.Stats), len(in.Columns))
	}

	block := SummaryBlock{
		Year:   in.Year,
		Month:  in.Month,
		Title:  TitleText(in.Year, in.Month),
		Header: make([]string, 0, len(in.Columns)+1),
		Totals: BlockRow{Label: bb.totalLabel, Values: make([]any, len(in.Stats))},
	}
	labelHeader := bb.labelHeader
	if mode == ModeDaily {
		labelHeader = "日期"
	}
	block.Header = append(block.Header, labelHeader)
	for _, c := range in.Columns {
		block.Header = append(block.Header, c.Header)
	}
	for i, st := range in.Stats {
		block.Totals.Values[i] = st.Sum
	}

	switch mode {
	case ModeDaily:
		block.Rows = bb.dailyRows(in)
	case ModeMetrics, "":
		rows, err := bb.metricRows(in)
		if err != nil {
			return SummaryBlock{}, err
		}
		block.Rows = rows
	default:
		return SummaryBlock{}, fmt.Errorf("invalid block mode %q", mode)
	}
	return block, nil
}

func (bb *BlockBuilder) metricRows(in BlockInput) ([]BlockRow, error) {
	rows := make([]BlockRow, 0, len(bb.metrics))
	for _, m := range bb.metrics {
		row := BlockRow{Label: m.Label, Values: make([]any, len(in.Stats))}
		for i, st := range in.Stats {
			v, err := bb.eval.Evaluate(m.Expr, statsEnv(st))
			if err != nil {
				return nil, fmt.Errorf("metric %q for %s: %w", m.Label, st.ID, err)
			}
			row.Values[i] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (bb *BlockBuilder) dailyRows(in BlockInput) []BlockRow {
	days := DaysIn(in.Year, in.Month)
	rows := make([]BlockRow, days)
	for d := 0; d < days; d++ {
		rows[d] = BlockRow{
			Label:  fmt.Sprintf("%d月%d日", int(in.Month), d+1),
			Values: make([]any, len(in.Columns)),
		}
	}
	for i, c := range in.Columns {
		for d, r := range Daily(in.Rows, c.Col, in.Year, in.Month) {
			if r.Present {
				rows[d].Values[i] = r.Value
			}
		}
	}
	return rows
}

// BuildBlock renders in with the given metric rows, or the default rows when
// metricRows is empty.
func BuildBlock(in BlockInput, mode Mode, metricRows []MetricRow) (SummaryBlock, error) {
	var opts []BuilderOption
	if len(metricRows) > 0 {
		opts = append(opts, WithMetricRows(metricRows))
	}
	return NewBlockBuilder(opts...).Build(in, mode)
}
