package zonemeter

import "sort"

// MemSheet is an in-memory Grid. Styles are opaque integer IDs, so the sheet can
// stand in for a workbook sheet in tests and in dry runs.
type MemSheet struct {
	name    string
	cells   map[int]map[int]any
	styles  map[int]map[int]int
	heights map[int]float64
	merges  []AreaRef
}

var _ Grid = (*MemSheet)(nil)

// NewMemSheet creates an empty in-memory sheet.
func NewMemSheet(name string) *MemSheet {
	return &MemSheet{
		name:    name,
		cells:   make(map[int]map[int]any),
		styles:  make(map[int]map[int]int),
		heights: make(map[int]float64),
	}
}

// Name returns the sheet name.
func (s *MemSheet) Name() string { return s.name }

// Value returns the raw value at (row, col), or nil.
func (s *MemSheet) Value(row, col int) any {
	if r, ok := s.cells[row]; ok {
		return r[col]
	}
	return nil
}

// MaxRow returns the highest row holding a value.
func (s *MemSheet) MaxRow() int {
	max := 0
	for row, r := range s.cells {
		if len(r) > 0 && row > max {
			max = row
		}
	}
	return max
}

// MaxCol returns the highest column holding a value.
func (s *MemSheet) MaxCol() int {
	max := 0
	for _, r := range s.cells {
		for col := range r {
			if col > max {
				max = col
			}
		}
	}
	return max
}

// SetValue writes a raw value. A nil value clears the cell.
func (s *MemSheet) SetValue(row, col int, value any) error {
	if err := checkWritable(s.name, s.merges, row, col); err != nil {
		return err
	}
	if value == nil {
		if r, ok := s.cells[row]; ok {
			delete(r, col)
		}
		return nil
	}
	r, ok := s.cells[row]
	if !ok {
		r = make(map[int]any)
		s.cells[row] = r
	}
	r[col] = value
	return nil
}

// Set is SetValue for test fixtures; it panics on error.
func (s *MemSheet) Set(row, col int, value any) *MemSheet {
	if err := s.SetValue(row, col, value); err != nil {
		panic(err)
	}
	return s
}

// SetStyle assigns a style ID to a cell.
func (s *MemSheet) SetStyle(row, col, style int) {
	r, ok := s.styles[row]
	if !ok {
		r = make(map[int]int)
		s.styles[row] = r
	}
	r[col] = style
}

// Style returns the style ID of a cell (0 = default).
func (s *MemSheet) Style(row, col int) int {
	return s.styles[row][col]
}

// SetRowHeight sets the height of a row.
func (s *MemSheet) SetRowHeight(row int, h float64) { s.heights[row] = h }

// RowHeight returns the height of a row (0 = default).
func (s *MemSheet) RowHeight(row int) float64 { return s.heights[row] }

// MergedRegions returns a copy of the merged regions sorted by position.
func (s *MemSheet) MergedRegions() ([]AreaRef, error) {
	out := append([]AreaRef(nil), s.merges...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].First.Row != out[j].First.Row {
			return out[i].First.Row < out[j].First.Row
		}
		return out[i].First.Col < out[j].First.Col
	})
	return out, nil
}

// MergeCells records a merged region. Values in non-anchor cells are discarded.
func (s *MemSheet) MergeCells(region AreaRef) error {
	region.First.Sheet, region.Last.Sheet = s.name, s.name
	for row := region.First.Row; row <= region.Last.Row; row++ {
		for col := region.First.Col; col <= region.Last.Col; col++ {
			if !region.IsAnchor(row, col) {
				delete(s.cells[row], col)
			}
		}
	}
	s.merges = append(s.merges, region)
	return nil
}

// InsertRows inserts n empty rows before row at.
func (s *MemSheet) InsertRows(at, n int) error {
	if n <= 0 {
		return nil
	}
	if r, ok := straddlingRegion(s.merges, at-1); ok {
		return &StraddlingRegionError{Sheet: s.name, Region: r, After: at - 1}
	}
	s.cells = shiftRows(s.cells, at, n)
	s.styles = shiftRows(s.styles, at, n)
	heights := make(map[int]float64, len(s.heights))
	for row, h := range s.heights {
		if row >= at {
			row += n
		}
		heights[row] = h
	}
	s.heights = heights
	for i, r := range s.merges {
		if r.First.Row >= at {
			s.merges[i] = r.Shift(n)
		}
	}
	return nil
}

// CopyRowStyle clones styles and height from row src to row dst.
func (s *MemSheet) CopyRowStyle(src, dst, width int) error {
	for col := 1; col <= width; col++ {
		if style := s.Style(src, col); style != 0 {
			s.SetStyle(dst, col, style)
		}
	}
	if h, ok := s.heights[src]; ok {
		s.heights[dst] = h
	}
	return nil
}

func shiftRows[V any](rows map[int]map[int]V, at, n int) map[int]map[int]V {
	out := make(map[int]map[int]V, len(rows))
	for row, r := range rows {
		if row >= at {
			row += n
		}
		out[row] = r
	}
	return out
}
