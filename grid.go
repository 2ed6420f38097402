package zonemeter

import "fmt"

// Grid abstracts one worksheet as a mutable grid of raw cell values plus its
// merged regions. Rows and columns are 1-based.
//
// Raw values are whatever the backing store holds: nil, string, float64, bool
// or time.Time. Consumers pass them through a Normalizer.
type Grid interface {
	// Name returns the sheet name.
	Name() string

	// Cell data access
	Value(row, col int) any
	MaxRow() int
	MaxCol() int

	// SetValue writes a raw value, preserving the cell's style. Writing to a
	// non-anchor cell of a merged region fails with ErrMergedCellWrite.
	SetValue(row, col int, value any) error

	// Merged regions
	MergedRegions() ([]AreaRef, error)
	MergeCells(region AreaRef) error

	// InsertRows inserts n empty rows before row at. Rows, styles and merged
	// regions at or below at shift down by n.
	InsertRows(at, n int) error

	// CopyRowStyle clones the style of cells 1..width in row src onto row dst,
	// together with the row height. Values are not copied.
	CopyRowStyle(src, dst, width int) error
}

// IsRowEmpty reports whether every cell of row is empty or blank text.
func IsRowEmpty(g Grid, row int, n *Normalizer) bool {
	for col := 1; col <= g.MaxCol(); col++ {
		if !n.Normalize(g.Value(row, col)).IsEmpty() {
			return false
		}
	}
	return true
}

// checkWritable rejects writes to display-only cells of merged regions.
func checkWritable(sheet string, regions []AreaRef, row, col int) error {
	for _, r := range regions {
		if r.Contains(row, col) && !r.IsAnchor(row, col) {
			return fmt.Errorf("%s (region %s): %w", NewCellRef(sheet, row, col), r, ErrMergedCellWrite)
		}
	}
	return nil
}

// straddlingRegion returns the first merged region cut by an insertion after row.
func straddlingRegion(regions []AreaRef, after int) (AreaRef, bool) {
	for _, r := range regions {
		if r.Straddles(after) {
			return r, true
		}
	}
	return AreaRef{}, false
}
