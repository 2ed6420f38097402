package zonemeter

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// MeterLabel maps a logical meter identifier to the header label expected in
// the source sheet.
type MeterLabel struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
}

// MeterTableFromMap converts an unordered mapping into a table sorted by ID.
func MeterTableFromMap(m map[string]string) []MeterLabel {
	out := make([]MeterLabel, 0, len(m))
	for id, label := range m {
		out = append(out, MeterLabel{ID: id, Label: label})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// HeaderCell is one non-empty cell of the header row.
type HeaderCell struct {
	Col   int
	Label string
}

// HeaderCells reads the non-empty cells of row in column order.
func HeaderCells(g Grid, row int, n *Normalizer) []HeaderCell {
	var out []HeaderCell
	for col := 1; col <= g.MaxCol(); col++ {
		raw := g.Value(row, col)
		v := n.Normalize(raw)
		if v.IsEmpty() {
			continue
		}
		label, ok := raw.(string)
		if !ok {
			label = v.String()
		}
		out = append(out, HeaderCell{Col: col, Label: label})
	}
	return out
}

// ColumnBinding is one resolved logical meter.
type ColumnBinding struct {
	ID       string `json:"id"`
	Col      int    `json:"col"`
	Header   string `json:"header"`   // header text as found in the sheet
	Expected string `json:"expected"` // label from the meter table
}

// ColumnMap is the ordered, read-only result of header resolution. Order
// follows the meter table, not the sheet.
type ColumnMap struct {
	bindings []ColumnBinding
	byID     map[string]int
}

// Bindings returns the resolved meters in meter-table order.
func (m *ColumnMap) Bindings() []ColumnBinding {
	return append([]ColumnBinding(nil), m.bindings...)
}

// Column returns the resolved column for id.
func (m *ColumnMap) Column(id string) (int, bool) {
	i, ok := m.byID[id]
	if !ok {
		return 0, false
	}
	return m.bindings[i].Col, true
}

// Len returns the number of resolved meters.
func (m *ColumnMap) Len() int { return len(m.bindings) }

// Resolver matches logical meter names to header columns.
type Resolver struct {
	foldWidth bool
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithWidthFolding folds full-width characters to their half-width forms
// before matching, so "（m³）" and "(m³)" compare equal.
func WithWidthFolding(enabled bool) ResolverOption {
	return func(r *Resolver) { r.foldWidth = enabled }
}

// NewResolver creates a Resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Normalize strips all whitespace, including line breaks and U+3000, from label.
func (r *Resolver) Normalize(label string) string {
	if r.foldWidth {
		label = width.Fold.String(label)
	}
	return strings.Map(func(c rune) rune {
		if unicode.IsSpace(c) {
			return -1
		}
		return c
	}, label)
}

// Matches reports whether header and expected contain one another once normalized.
// Empty labels never match.
func (r *Resolver) Matches(header, expected string) bool {
	h, e := r.Normalize(header), r.Normalize(expected)
	if h == "" || e == "" {
		return false
	}
	return strings.Contains(e, h) || strings.Contains(h, e)
}

// Resolve maps each meter to the first header cell, in column order, whose
// label matches. A header cell may satisfy several meters. Meters without a
// match are returned as unresolved, in table order.
func (r *Resolver) Resolve(header []HeaderCell, table []MeterLabel) (*ColumnMap, []string) {
	cells := append([]HeaderCell(nil), header...)
	sort.SliceStable(cells, func(i, j int) bool { return cells[i].Col < cells[j].Col })

	m := &ColumnMap{byID: make(map[string]int, len(table))}
	var unresolved []string
	for _, meter := range table {
		if _, dup := m.byID[meter.ID]; dup {
			continue
		}
		found := false
		for _, cell := range cells {
			if r.Matches(cell.Label, meter.Label) {
				m.byID[meter.ID] = len(m.bindings)
				m.bindings = append(m.bindings, ColumnBinding{
					ID:       meter.ID,
					Col:      cell.Col,
					Header:   cell.Label,
					Expected: meter.Label,
				})
				found = true
				break
			}
		}
		if !found {
			unresolved = append(unresolved, meter.ID)
		}
	}
	return m, unresolved
}

// Candidates returns every header cell matching label, in column order. More
// than one candidate means Resolve's first-match choice may be ambiguous.
func (r *Resolver) Candidates(header []HeaderCell, label string) []HeaderCell {
	var out []HeaderCell
	for _, cell := range header {
		if r.Matches(cell.Label, label) {
			out = append(out, cell)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Col < out[j].Col })
	return out
}
