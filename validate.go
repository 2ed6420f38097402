package zonemeter

import (
	"fmt"
)

// Validate checks a target sheet for layout problems that would make a run
// refuse or misplace its write. It needs no source data. A non-nil error
// means the sheet could not be inspected at all.
func (e *Engine) Validate(g Grid) ([]Issue, error) {
	regions, err := g.MergedRegions()
	if err != nil {
		return nil, fmt.Errorf("validate sheet %q: %w", g.Name(), err)
	}
	blocks := e.locator.ListAll(g)

	var issues []Issue
	issues = append(issues, validateBlockIdentity(blocks)...)
	issues = append(issues, validateBlockExtents(blocks)...)
	issues = append(issues, validateInsertionPoint(g, blocks, regions)...)
	issues = append(issues, e.validateMetricRows()...)
	return issues, nil
}

// validateBlockIdentity reports months that carry more than one block.
func validateBlockIdentity(blocks []BlockInfo) []Issue {
	var issues []Issue
	first := make(map[YearMonth]BlockInfo, len(blocks))
	for _, b := range blocks {
		key := YearMonth{Year: b.Year, Month: b.Month}
		if prev, ok := first[key]; ok {
			issues = append(issues, NewIssue(SeverityError, IssueDuplicateBlock, NewCellRef(b.Sheet, b.Row, b.Col),
				"second %s block; first is at row %d", b.Title, prev.Row))
			continue
		}
		first[key] = b
	}
	return issues
}

// validateBlockExtents reports titles with no rows below them.
func validateBlockExtents(blocks []BlockInfo) []Issue {
	var issues []Issue
	for _, b := range blocks {
		if b.LastRow == b.Row {
			issues = append(issues, NewIssue(SeverityWarning, IssueBlockConflict, NewCellRef(b.Sheet, b.Row, b.Col),
				"%s title has no block rows below it", b.Title))
		}
	}
	return issues
}

// validateInsertionPoint checks the row a run with automatic placement would
// insert after.
func validateInsertionPoint(g Grid, blocks []BlockInfo, regions []AreaRef) []Issue {
	after := g.MaxRow()
	if len(blocks) > 0 {
		after = blocks[len(blocks)-1].LastRow
	}
	r, ok := straddlingRegion(regions, after)
	if !ok {
		return nil
	}
	return []Issue{NewIssue(SeverityError, IssueStraddlingRegion, NewCellRef(g.Name(), r.First.Row, r.First.Col),
		"merged region %s spans the insertion point after row %d", r, after)}
}

// validateMetricRows compiles every metric expression.
func (e *Engine) validateMetricRows() []Issue {
	var issues []Issue
	for _, m := range e.builder.metrics {
		if err := CompileCheck(m.Expr); err != nil {
			issues = append(issues, NewIssue(SeverityError, IssueInvalidExpression, CellRef{},
				"metric row %q has invalid expression %q: %v", m.Label, m.Expr, err))
		}
	}
	return issues
}
