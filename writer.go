package zonemeter

import (
	"errors"
	"fmt"
)

// RowRole identifies the part of a summary block a row belongs to.
type RowRole int

const (
	RoleTitle RowRole = iota
	RoleHeader
	RoleBody
	RoleTotals
)

func (r RowRole) String() string {
	switch r {
	case RoleTitle:
		return "title"
	case RoleHeader:
		return "header"
	case RoleBody:
		return "body"
	case RoleTotals:
		return "totals"
	}
	return fmt.Sprintf("RowRole(%d)", int(r))
}

// Writer renders summary blocks into a Grid.
type Writer struct {
	locator    *Locator
	templates  map[RowRole]int
	mergeTitle bool
	separator  bool
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithRoleTemplate takes the style of role rows from row instead of the
// template row passed to Write. Row numbers refer to the sheet before insertion.
func WithRoleTemplate(role RowRole, row int) WriterOption {
	return func(w *Writer) { w.templates[role] = row }
}

// WithTitleMerge controls whether the title cell is merged across the block width (default: true).
func WithTitleMerge(merge bool) WriterOption {
	return func(w *Writer) { w.mergeTitle = merge }
}

// WithSeparatorRow controls whether an empty row is kept between the new block
// and non-empty content directly below it (default: true). Without it the
// content below would read as part of the block.
func WithSeparatorRow(keep bool) WriterOption {
	return func(w *Writer) { w.separator = keep }
}

// NewWriter creates a Writer that checks for existing blocks with loc.
func NewWriter(loc *Locator, opts ...WriterOption) *Writer {
	if loc == nil {
		loc = NewLocator(nil)
	}
	w := &Writer{
		locator:    loc,
		templates:  make(map[RowRole]int),
		mergeTitle: true,
		separator:  true,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write inserts block below insertAfterRow and returns the block's last row,
// which is the row to pass as insertAfterRow when chaining the next block. It
// is not the sheet's new MaxRow when content sits below the insertion point.
// Rows below the insertion point shift down together with their merged
// regions; styles of the new rows are cloned from styleTemplateRow (0 leaves
// them unstyled).
//
// Write refuses, leaving g unchanged, when a block for the same month exists
// (*DuplicateBlockError), when insertAfterRow lies inside an existing block
// (*BlockConflictError), or when a merged region spans the insertion point
// (*StraddlingRegionError).
func (w *Writer) Write(g Grid, block SummaryBlock, insertAfterRow, styleTemplateRow int) (int, error) {
	if insertAfterRow < 0 {
		return 0, fmt.Errorf("sheet %q: invalid insertion row %d", g.Name(), insertAfterRow)
	}
	blocks := w.locator.ListAll(g)
	for _, b := range blocks {
		if b.Year == block.Year && b.Month == block.Month {
			return 0, &DuplicateBlockError{Sheet: g.Name(), Year: b.Year, Month: int(b.Month), Row: b.Row}
		}
	}
	for _, b := range blocks {
		if b.Row <= insertAfterRow && insertAfterRow < b.LastRow {
			return 0, &BlockConflictError{Sheet: g.Name(), After: insertAfterRow, Block: b}
		}
	}
	regions, err := g.MergedRegions()
	if err != nil {
		return 0, fmt.Errorf("sheet %q: read merged regions: %w", g.Name(), err)
	}
	if r, ok := straddlingRegion(regions, insertAfterRow); ok {
		return 0, &StraddlingRegionError{Sheet: g.Name(), Region: r, After: insertAfterRow}
	}

	first := insertAfterRow + 1
	height := block.Height()
	width := block.Width()
	inserted := height
	if w.separator && first <= g.MaxRow() && !IsRowEmpty(g, first, w.locator.norm) {
		inserted++
	}

	if err := g.InsertRows(first, inserted); err != nil {
		var sre *StraddlingRegionError
		if errors.As(err, &sre) {
			return 0, err
		}
		return 0, fmt.Errorf("sheet %q: insert %d rows at %d: %w", g.Name(), inserted, first, err)
	}

	roles := blockRoles(block)
	for i, role := range roles {
		src := w.template(role, styleTemplateRow)
		if src <= 0 {
			continue
		}
		if src >= first {
			src += inserted
		}
		if err := g.CopyRowStyle(src, first+i, width); err != nil {
			return 0, fmt.Errorf("sheet %q: clone %s style from row %d: %w", g.Name(), role, src, err)
		}
	}

	if err := w.fill(g, block, first); err != nil {
		return 0, err
	}
	if w.mergeTitle && width > 1 {
		title := NewAreaRef(NewCellRef(g.Name(), first, 1), NewCellRef(g.Name(), first, width))
		if err := g.MergeCells(title); err != nil {
			return 0, fmt.Errorf("sheet %q: merge title %s: %w", g.Name(), title, err)
		}
	}
	return first + height - 1, nil
}

func (w *Writer) template(role RowRole, fallback int) int {
	if row, ok := w.templates[role]; ok {
		return row
	}
	return fallback
}

// blockRoles lists the role of each row of block, top to bottom.
func blockRoles(block SummaryBlock) []RowRole {
	roles := make([]RowRole, 0, block.Height())
	roles = append(roles, RoleTitle, RoleHeader)
	for range block.Rows {
		roles = append(roles, RoleBody)
	}
	return append(roles, RoleTotals)
}

func (w *Writer) fill(g Grid, block SummaryBlock, first int) error {
	set := func(row, col int, v any) error {
		if err := g.SetValue(row, col, v); err != nil {
			return fmt.Errorf("write %s: %w", NewCellRef(g.Name(), row, col), err)
		}
		return nil
	}

	if err := set(first, 1, block.Title); err != nil {
		return err
	}
	for i, h := range block.Header {
		if err := set(first+1, i+1, h); err != nil {
			return err
		}
	}
	for i, r := range append(append([]BlockRow(nil), block.Rows...), block.Totals) {
		row := first + 2 + i
		if err := set(row, 1, r.Label); err != nil {
			return err
		}
		for j, v := range r.Values {
			if v == nil {
				continue
			}
			if err := set(row, j+2, v); err != nil {
				return err
			}
		}
	}
	return nil
}
