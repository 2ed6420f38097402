package zonemeter

import (
	"fmt"
	"strings"
)

// Describe opens the workbook at path and returns a human-readable inventory
// of its sheets, summary blocks and header diagnostics. Useful when checking a
// workbook by hand before a run.
func Describe(path string, meters []MeterLabel, opts ...Option) (string, error) {
	wb, err := Open(path)
	if err != nil {
		return "", err
	}
	defer wb.Close()
	return New(opts...).Describe(wb, meters)
}

// Describe returns the inventory of wb. Header diagnostics are included for
// sheets where at least one of meters resolves.
func (e *Engine) Describe(wb *Workbook, meters []MeterLabel) (string, error) {
	var b strings.Builder
	b.WriteString("Workbook: ")
	if wb.Path() != "" {
		b.WriteString(wb.Path())
	} else {
		b.WriteString("<reader>")
	}
	b.WriteByte('\n')

	for _, name := range wb.SheetNames() {
		g, err := wb.Sheet(name)
		if err != nil {
			return "", fmt.Errorf("describe sheet %q: %w", name, err)
		}
		if err := e.describeGrid(&b, g, meters); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// describeGrid writes one sheet's section of the inventory.
func (e *Engine) describeGrid(b *strings.Builder, g Grid, meters []MeterLabel) error {
	regions, err := g.MergedRegions()
	if err != nil {
		return fmt.Errorf("describe sheet %q: %w", g.Name(), err)
	}
	fmt.Fprintf(b, "%s %s merged=%d\n", g.Name(), Size{Width: g.MaxCol(), Height: g.MaxRow()}, len(regions))

	blocks := e.locator.ListAll(g)
	if len(blocks) > 0 {
		b.WriteString("  Blocks:\n")
		for _, blk := range blocks {
			fmt.Fprintf(b, "    %s rows %d-%d %s\n", NewCellRef("", blk.Row, blk.Col).CellName(), blk.Row, blk.LastRow, blk.Title)
		}
	}

	if len(meters) == 0 {
		return nil
	}
	row := e.opts.layout.withDefaults().HeaderRow
	header := HeaderCells(g, row, e.norm)
	columns, unresolved := e.resolver.Resolve(header, meters)
	if columns.Len() == 0 {
		return nil
	}
	fmt.Fprintf(b, "  Header row %d:\n", row)
	for _, bind := range columns.Bindings() {
		note := ""
		if c := e.resolver.Candidates(header, bind.Expected); len(c) > 1 {
			cols := make([]string, len(c))
			for i, cell := range c {
				cols[i] = ColToName(cell.Col)
			}
			note = " (also matches " + strings.Join(cols[1:], ",") + ")"
		}
		fmt.Fprintf(b, "    %s → %s %q%s\n", bind.ID, ColToName(bind.Col), oneLine(bind.Header), note)
	}
	for _, id := range unresolved {
		fmt.Fprintf(b, "    %s unresolved (%q)\n", id, expectedLabel(meters, id))
	}
	return nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
