package zonemeter

// SourceLayout locates the header and data region of a source sheet.
type SourceLayout struct {
	HeaderRow    int `yaml:"header_row" json:"header_row"`
	DataStartRow int `yaml:"data_start_row" json:"data_start_row"`
	DateCol      int `yaml:"date_col" json:"date_col"`
}

// DefaultSourceLayout is the layout of the daily metering sheets: header in
// row 4, one row per day from row 5, date in column A.
func DefaultSourceLayout() SourceLayout {
	return SourceLayout{HeaderRow: 4, DataStartRow: 5, DateCol: 1}
}

func (l SourceLayout) withDefaults() SourceLayout {
	d := DefaultSourceLayout()
	if l.HeaderRow <= 0 {
		l.HeaderRow = d.HeaderRow
	}
	if l.DataStartRow <= 0 {
		l.DataStartRow = l.HeaderRow + 1
	}
	if l.DateCol <= 0 {
		l.DateCol = d.DateCol
	}
	return l
}

// Source is the materialized content of a source sheet.
type Source struct {
	Sheet  string
	Header []HeaderCell
	Rows   []DailyRow
	Issues []Issue
}

// ReadSource reads the header row and the dated data rows of g. Rows whose
// date cell is empty or not a date are skipped; date cells that look like a
// date but fail to parse are reported as ambiguous-date issues.
func ReadSource(g Grid, layout SourceLayout, n *Normalizer) Source {
	if n == nil {
		n = NewNormalizer()
	}
	layout = layout.withDefaults()
	src := Source{
		Sheet:  g.Name(),
		Header: HeaderCells(g, layout.HeaderRow, n),
	}
	for row := layout.DataStartRow; row <= g.MaxRow(); row++ {
		dv := n.Normalize(g.Value(row, layout.DateCol))
		d, ok := dv.AsDate()
		if !ok || dv.MonthOnly {
			if dv.Ambiguous {
				src.Issues = append(src.Issues, NewIssue(SeverityWarning, IssueAmbiguousDate,
					NewCellRef(g.Name(), row, layout.DateCol), "unparseable date %q, row skipped", dv.Text))
			}
			continue
		}
		dr := DailyRow{Row: row, Date: d, Values: make(map[int]Value)}
		for col := 1; col <= g.MaxCol(); col++ {
			if col == layout.DateCol {
				continue
			}
			v := n.Normalize(g.Value(row, col))
			if v.IsEmpty() {
				continue
			}
			if v.Ambiguous {
				src.Issues = append(src.Issues, NewIssue(SeverityWarning, IssueAmbiguousDate,
					NewCellRef(g.Name(), row, col), "value %q looks like a malformed date, treated as text", v.Text))
			}
			dr.Values[col] = v
		}
		src.Rows = append(src.Rows, dr)
	}
	return src
}
