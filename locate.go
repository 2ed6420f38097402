package zonemeter

import (
	"fmt"
	"strings"
	"time"
)

// BlockInfo locates one monthly summary block in a sheet.
type BlockInfo struct {
	Sheet   string     `json:"sheet"`
	Row     int        `json:"row"`      // title row
	Col     int        `json:"col"`      // title column
	LastRow int        `json:"last_row"` // last row belonging to the block
	Year    int        `json:"year"`
	Month   time.Month `json:"month"`
	Title   string     `json:"title"`
}

// Contains reports whether row lies within the block.
func (b BlockInfo) Contains(row int) bool {
	return row >= b.Row && row <= b.LastRow
}

// Locator finds monthly summary blocks by their title cells.
//
// A title is a cell that normalizes to a month: either a "YYYY年M月" label, or a
// date (native or day-count) on the first of the month that is alone in its
// row, has a non-date label directly beneath it and does not continue a run
// of dates directly above it. Day-1 data rows, filled or not, are not titles.
type Locator struct {
	norm        *Normalizer
	titleCols   []int
	totalsLabel string
}

// LocatorOption configures a Locator.
type LocatorOption func(*Locator)

// WithTitleColumns restricts the title scan to the given columns.
func WithTitleColumns(cols ...int) LocatorOption {
	return func(l *Locator) { l.titleCols = append([]int(nil), cols...) }
}

// WithTotalsLabel sets the label that closes a block. An empty label lets
// blocks run to the next title or the first empty row.
func WithTotalsLabel(label string) LocatorOption {
	return func(l *Locator) { l.totalsLabel = label }
}

// NewLocator creates a Locator sharing n's date recognition.
func NewLocator(n *Normalizer, opts ...LocatorOption) *Locator {
	if n == nil {
		n = NewNormalizer()
	}
	l := &Locator{norm: n, totalsLabel: defaultTotalLabel}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Find returns the block titled year-month, if one exists.
func (l *Locator) Find(g Grid, year int, month time.Month) (BlockInfo, bool) {
	for _, b := range l.ListAll(g) {
		if b.Year == year && b.Month == month {
			return b, true
		}
	}
	return BlockInfo{}, false
}

// BlockAt returns the block whose rows include row.
func (l *Locator) BlockAt(g Grid, row int) (BlockInfo, bool) {
	for _, b := range l.ListAll(g) {
		if b.Contains(row) {
			return b, true
		}
	}
	return BlockInfo{}, false
}

// ListAll returns every block in the sheet in row order. Each block extends
// from its title row down to its totals row, the row before the next title or
// the row before the first fully empty row, whichever comes first.
func (l *Locator) ListAll(g Grid) []BlockInfo {
	var blocks []BlockInfo
	maxRow := g.MaxRow()
	for row := 1; row <= maxRow; row++ {
		if b, ok := l.titleInRow(g, row); ok {
			blocks = append(blocks, b)
		}
	}
	for i := range blocks {
		end := maxRow
		if i+1 < len(blocks) {
			end = blocks[i+1].Row - 1
		}
		last := blocks[i].Row
		for row := blocks[i].Row + 1; row <= end; row++ {
			if IsRowEmpty(g, row, l.norm) {
				break
			}
			last = row
			if l.isTotalsRow(g, row, blocks[i].Col) {
				break
			}
		}
		blocks[i].LastRow = last
	}
	return blocks
}

func (l *Locator) columns(g Grid) []int {
	if len(l.titleCols) > 0 {
		return l.titleCols
	}
	cols := make([]int, g.MaxCol())
	for i := range cols {
		cols[i] = i + 1
	}
	return cols
}

func (l *Locator) titleInRow(g Grid, row int) (BlockInfo, bool) {
	for _, col := range l.columns(g) {
		v := l.norm.Normalize(g.Value(row, col))
		d, ok := v.AsDate()
		if !ok {
			continue
		}
		if !v.MonthOnly && (d.Day != 1 || l.rowHasOtherValues(g, row, col) || !l.hasBlockBeneath(g, row, col)) {
			continue
		}
		return BlockInfo{
			Sheet: g.Name(),
			Row:   row,
			Col:   col,
			Year:  d.Year,
			Month: d.Month,
			Title: TitleText(d.Year, d.Month),
		}, true
	}
	return BlockInfo{}, false
}

func (l *Locator) rowHasOtherValues(g Grid, row, skip int) bool {
	for col := 1; col <= g.MaxCol(); col++ {
		if col != skip && !l.norm.Normalize(g.Value(row, col)).IsEmpty() {
			return true
		}
	}
	return false
}

// hasBlockBeneath reports whether the date title at (row, col) heads a block:
// the cell below holds a label rather than a date, and the cell above is not
// part of a date column.
func (l *Locator) hasBlockBeneath(g Grid, row, col int) bool {
	if row > 1 && l.norm.Normalize(g.Value(row-1, col)).Kind == KindDate {
		return false
	}
	below := l.norm.Normalize(g.Value(row+1, col))
	return below.Kind == KindText
}

func (l *Locator) isTotalsRow(g Grid, row, col int) bool {
	if l.totalsLabel == "" {
		return false
	}
	v := l.norm.Normalize(g.Value(row, col))
	return v.Kind == KindText && strings.TrimSpace(v.Text) == l.totalsLabel
}

// TitleText renders the canonical block title, e.g. "2025年9月".
func TitleText(year int, month time.Month) string {
	return fmt.Sprintf("%d年%d月", year, int(month))
}
