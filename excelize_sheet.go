package zonemeter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExcelizeSheet implements Grid on top of an excelize worksheet. Cell values are
// read into memory once and kept in sync with writes and row insertions.
type ExcelizeSheet struct {
	file *excelize.File
	name string
	rows map[int]map[int]any // in-memory raw values read from the sheet

	maxRow, maxCol int
}

var _ Grid = (*ExcelizeSheet)(nil)

// NewExcelizeSheet reads a sheet of f into memory.
func NewExcelizeSheet(f *excelize.File, name string) (*ExcelizeSheet, error) {
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", name, err)
	}
	if idx < 0 {
		return nil, fmt.Errorf("sheet %q: %w", name, ErrSheetNotFound)
	}
	s := &ExcelizeSheet{file: f, name: name, rows: make(map[int]map[int]any)}
	if err := s.readAllCellData(); err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}
	return s, nil
}

// readAllCellData reads every non-empty cell with its raw (unformatted) value.
func (s *ExcelizeSheet) readAllCellData() error {
	rows, err := s.file.GetRows(s.name, excelize.Options{RawCellValue: true})
	if err != nil {
		return err
	}
	for rowIdx, row := range rows {
		for colIdx, raw := range row {
			if raw == "" {
				continue
			}
			cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return err
			}
			typ, err := s.file.GetCellType(s.name, cellName)
			if err != nil {
				return fmt.Errorf("cell %s: %w", cellName, err)
			}
			s.put(rowIdx+1, colIdx+1, decodeRaw(raw, typ))
		}
	}
	return nil
}

// decodeRaw turns excelize's raw cell text into a typed raw value.
func decodeRaw(raw string, typ excelize.CellType) any {
	switch typ {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeDate:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
		return raw
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
		return raw
	default:
		return raw
	}
}

func (s *ExcelizeSheet) put(row, col int, v any) {
	r, ok := s.rows[row]
	if !ok {
		r = make(map[int]any)
		s.rows[row] = r
	}
	r[col] = v
	if row > s.maxRow {
		s.maxRow = row
	}
	if col > s.maxCol {
		s.maxCol = col
	}
}

// Name returns the sheet name.
func (s *ExcelizeSheet) Name() string { return s.name }

// Value returns the cached raw value at (row, col).
func (s *ExcelizeSheet) Value(row, col int) any {
	if r, ok := s.rows[row]; ok {
		return r[col]
	}
	return nil
}

// MaxRow returns the highest row that held a value.
func (s *ExcelizeSheet) MaxRow() int { return s.maxRow }

// MaxCol returns the highest column that held a value.
func (s *ExcelizeSheet) MaxCol() int { return s.maxCol }

// SetValue sets a value on a cell, preserving style.
func (s *ExcelizeSheet) SetValue(row, col int, value any) error {
	regions, err := s.MergedRegions()
	if err != nil {
		return err
	}
	if err := checkWritable(s.name, regions, row, col); err != nil {
		return err
	}
	cell := NewCellRef(s.name, row, col).CellName()
	styleID, _ := s.file.GetCellStyle(s.name, cell)
	if err := s.file.SetCellValue(s.name, cell, value); err != nil {
		return fmt.Errorf("set %s!%s: %w", s.name, cell, err)
	}
	if styleID > 0 {
		if err := s.file.SetCellStyle(s.name, cell, cell, styleID); err != nil {
			return fmt.Errorf("restore style %s!%s: %w", s.name, cell, err)
		}
	}
	if value == nil {
		if r, ok := s.rows[row]; ok {
			delete(r, col)
		}
		return nil
	}
	s.put(row, col, value)
	return nil
}

// MergedRegions returns the sheet's merged regions.
func (s *ExcelizeSheet) MergedRegions() ([]AreaRef, error) {
	merges, err := s.file.GetMergeCells(s.name)
	if err != nil {
		return nil, fmt.Errorf("merged cells of %q: %w", s.name, err)
	}
	out := make([]AreaRef, 0, len(merges))
	for _, mc := range merges {
		area, err := ParseAreaRef(mc.GetStartAxis() + ":" + mc.GetEndAxis())
		if err != nil {
			return nil, fmt.Errorf("merged cells of %q: %w", s.name, err)
		}
		area.First.Sheet, area.Last.Sheet = s.name, s.name
		out = append(out, area)
	}
	return out, nil
}

// MergeCells merges a cell range.
func (s *ExcelizeSheet) MergeCells(region AreaRef) error {
	return s.file.MergeCell(s.name, region.First.CellName(), region.Last.CellName())
}

// InsertRows inserts n rows before row at. Merged regions straddling the
// insertion point are refused; excelize would silently stretch them.
func (s *ExcelizeSheet) InsertRows(at, n int) error {
	if n <= 0 {
		return nil
	}
	regions, err := s.MergedRegions()
	if err != nil {
		return err
	}
	if r, ok := straddlingRegion(regions, at-1); ok {
		return &StraddlingRegionError{Sheet: s.name, Region: r, After: at - 1}
	}
	if err := s.file.InsertRows(s.name, at, n); err != nil {
		return fmt.Errorf("insert %d rows at %s!%d: %w", n, s.name, at, err)
	}
	s.rows = shiftRows(s.rows, at, n)
	if s.maxRow >= at {
		s.maxRow += n
	}
	return nil
}

// CopyRowStyle copies cell styles and row height from row src to row dst.
func (s *ExcelizeSheet) CopyRowStyle(src, dst, width int) error {
	for col := 1; col <= width; col++ {
		srcCell := NewCellRef(s.name, src, col).CellName()
		dstCell := NewCellRef(s.name, dst, col).CellName()
		styleID, err := s.file.GetCellStyle(s.name, srcCell)
		if err != nil {
			return fmt.Errorf("style of %s!%s: %w", s.name, srcCell, err)
		}
		if err := s.file.SetCellStyle(s.name, dstCell, dstCell, styleID); err != nil {
			return fmt.Errorf("apply style to %s!%s: %w", s.name, dstCell, err)
		}
	}
	if h, err := s.file.GetRowHeight(s.name, src); err == nil && h > 0 {
		if err := s.file.SetRowHeight(s.name, dst, h); err != nil {
			return fmt.Errorf("row height %s!%d: %w", s.name, dst, err)
		}
	}
	return nil
}
