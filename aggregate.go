package zonemeter

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyRow is one data row of the source sheet: its date and the normalized
// value of every non-empty cell, keyed by column.
type DailyRow struct {
	Row    int
	Date   Date
	Values map[int]Value
}

// Extreme is a minimum or maximum reading and the day it occurred.
type Extreme struct {
	Value float64 `json:"value"`
	Date  Date    `json:"-"`
	Day   string  `json:"date"`
	Row   int     `json:"row"`
}

// Stats aggregates one meter column over one month.
type Stats struct {
	ID    string     `json:"id,omitempty"`
	Col   int        `json:"col"`
	Year  int        `json:"year"`
	Month time.Month `json:"month"`

	Sum   float64  `json:"sum"`
	Count int      `json:"count"`
	Min   *Extreme `json:"min,omitempty"`
	Max   *Extreme `json:"max,omitempty"`
	// Mean is nil when Count is zero.
	Mean *float64 `json:"mean,omitempty"`
}

// Aggregate computes sum, count, min, max and mean of column col over the rows
// dated within year-month, inclusive of both month ends. Cells that are empty or
// non-numeric are skipped without excluding the row from other columns. Ties
// on min or max resolve to the earliest date.
func Aggregate(rows []DailyRow, col int, year int, month time.Month) Stats {
	st := Stats{Col: col, Year: year, Month: month}
	sum := decimal.Zero

	for _, r := range rows {
		if r.Date.IsZero() || !r.Date.InMonth(year, month) {
			continue
		}
		v, ok := r.Values[col].AsNumber()
		if !ok {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(v))
		st.Count++
		if st.Min == nil || v < st.Min.Value || (v == st.Min.Value && r.Date.Before(st.Min.Date)) {
			st.Min = newExtreme(v, r)
		}
		if st.Max == nil || v > st.Max.Value || (v == st.Max.Value && r.Date.Before(st.Max.Date)) {
			st.Max = newExtreme(v, r)
		}
	}

	st.Sum = sum.InexactFloat64()
	if st.Count > 0 {
		mean := sum.Div(decimal.NewFromInt(int64(st.Count))).InexactFloat64()
		st.Mean = &mean
	}
	return st
}

func newExtreme(v float64, r DailyRow) *Extreme {
	return &Extreme{Value: v, Date: r.Date, Day: r.Date.String(), Row: r.Row}
}

// AggregateColumns aggregates every resolved meter in column-map order.
func AggregateColumns(rows []DailyRow, columns *ColumnMap, year int, month time.Month) []Stats {
	out := make([]Stats, 0, columns.Len())
	for _, b := range columns.Bindings() {
		st := Aggregate(rows, b.Col, year, month)
		st.ID = b.ID
		out = append(out, st)
	}
	return out
}

// DayReading is one calendar day's total for a column.
type DayReading struct {
	Date    Date
	Value   float64
	Present bool
}

// Daily returns one reading per calendar day of year-month for column col.
// Several rows carrying the same date are summed; days without a numeric
// reading have Present false.
func Daily(rows []DailyRow, col int, year int, month time.Month) []DayReading {
	days := DaysIn(year, month)
	sums := make([]decimal.Decimal, days)
	out := make([]DayReading, days)
	for i := range out {
		out[i].Date = Date{Year: year, Month: month, Day: i + 1}
	}
	for _, r := range rows {
		if r.Date.IsZero() || !r.Date.InMonth(year, month) {
			continue
		}
		v, ok := r.Values[col].AsNumber()
		if !ok {
			continue
		}
		i := r.Date.Day - 1
		sums[i] = sums[i].Add(decimal.NewFromFloat(v))
		out[i].Present = true
	}
	for i := range out {
		out[i].Value = sums[i].InexactFloat64()
	}
	return out
}
