package zonemeter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Status is the result class of a run.
type Status string

const (
	StatusWritten   Status = "written"   // a new block was inserted
	StatusDuplicate Status = "duplicate" // the block already existed; nothing changed
	StatusFailed    Status = "failed"
)

// Request describes one aggregation run.
type Request struct {
	Source Grid // daily readings
	Target Grid // sheet receiving the summary block
	Year   int
	Month  time.Month
	Meters []MeterLabel
	Mode   Mode

	// InsertAfter is the row below which the block is inserted. Zero selects
	// the last row of the last existing block, or the last populated row.
	InsertAfter int

	// StyleTemplateRow is the row whose style the new rows clone. Zero clones
	// each row role from the last existing block, if any.
	StyleTemplateRow int

	// SourceFor, when set, supplies the source sheet of each month in
	// RunMonths, replacing Source.
	SourceFor func(YearMonth) (Grid, error)
}

// Outcome is the structured result of a run, suitable for notification and
// web collaborators.
type Outcome struct {
	Status     Status          `json:"status"`
	Sheet      string          `json:"sheet,omitempty"`
	Source     string          `json:"source,omitempty"`
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	Title      string          `json:"title"`
	TitleRow   int             `json:"title_row,omitempty"`
	LastRow    int             `json:"last_row,omitempty"`
	Columns    []ColumnBinding `json:"columns,omitempty"`
	Unresolved []string        `json:"unresolved,omitempty"`
	Issues     []Issue         `json:"issues,omitempty"`
	Stats      []Stats         `json:"stats,omitempty"`
	Error      string          `json:"error,omitempty"`

	Err     error         `json:"-"`
	Elapsed time.Duration `json:"-"`
}

// Fail marks the outcome as failed by err, recording an issue for the
// structural error kinds.
func (o *Outcome) Fail(err error) {
	if err == nil {
		return
	}
	o.Status = StatusFailed
	o.Err = err
	o.Error = err.Error()

	var (
		sre *StraddlingRegionError
		bce *BlockConflictError
		rle *ResourceLockedError
	)
	switch {
	case errors.As(err, &sre):
		o.Issues = append(o.Issues, NewIssue(SeverityError, IssueStraddlingRegion,
			NewCellRef(sre.Sheet, sre.Region.First.Row, sre.Region.First.Col),
			"merged region %s spans the insertion point after row %d", sre.Region, sre.After))
	case errors.As(err, &bce):
		o.Issues = append(o.Issues, NewIssue(SeverityError, IssueBlockConflict,
			NewCellRef(bce.Sheet, bce.Block.Row, bce.Block.Col),
			"insertion after row %d falls inside block %s (rows %d-%d)", bce.After, bce.Block.Title, bce.Block.Row, bce.Block.LastRow))
	case errors.As(err, &rle):
		o.Issues = append(o.Issues, NewIssue(SeverityError, IssueResourceLocked, CellRef{},
			"%s is held by another process; retry later", rle.Path))
	}
}

// Engine runs the read, resolve, aggregate, locate and write sequence.
type Engine struct {
	opts     *Options
	logger   *slog.Logger
	norm     *Normalizer
	resolver *Resolver
	locator  *Locator
	builder  *BlockBuilder
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	norm := NewNormalizer(o.normalizerOpts...)
	builder := NewBlockBuilder(o.builderOpts...)
	locOpts := append([]LocatorOption{WithTotalsLabel(builder.TotalLabel())}, o.locatorOpts...)
	return &Engine{
		opts:     o,
		logger:   o.logger,
		norm:     norm,
		resolver: NewResolver(o.resolverOpts...),
		locator:  NewLocator(norm, locOpts...),
		builder:  builder,
	}
}

// Normalizer returns the engine's cell normalizer.
func (e *Engine) Normalizer() *Normalizer { return e.norm }

// Resolver returns the engine's header resolver.
func (e *Engine) Resolver() *Resolver { return e.resolver }

// Locator returns the engine's block locator.
func (e *Engine) Locator() *Locator { return e.locator }

// Run aggregates req.Source for the requested month and writes the summary
// block into req.Target unless one already exists. Structural conflicts are
// reported through the outcome, never as a panic.
func (e *Engine) Run(req Request) Outcome {
	start := time.Now()
	return e.finish(e.run(req), start)
}

// RunMonths runs req once per month in order, chaining each block below the
// previous one when req.InsertAfter is explicit. A month whose source sheet
// req.SourceFor cannot supply fails on its own; the others still run.
func (e *Engine) RunMonths(req Request, months []YearMonth) []Outcome {
	outs := make([]Outcome, 0, len(months))
	for _, ym := range months {
		start := time.Now()
		req.Year, req.Month = ym.Year, ym.Month
		if req.SourceFor != nil {
			src, err := req.SourceFor(ym)
			if err != nil {
				out := Outcome{Year: ym.Year, Month: int(ym.Month), Title: TitleText(ym.Year, ym.Month)}
				if req.Target != nil {
					out.Sheet = req.Target.Name()
				}
				out.Fail(fmt.Errorf("source sheet for %s: %w", out.Title, err))
				outs = append(outs, e.finish(out, start))
				continue
			}
			req.Source = src
		}
		out := e.finish(e.run(req), start)
		if req.InsertAfter > 0 && out.Status == StatusWritten {
			req.InsertAfter = out.LastRow
		}
		outs = append(outs, out)
	}
	return outs
}

func (e *Engine) finish(out Outcome, start time.Time) Outcome {
	out.Elapsed = time.Since(start)
	e.report(out)
	for _, obs := range e.opts.observers {
		obs.Observe(out, out.Elapsed)
	}
	return out
}

func (e *Engine) run(req Request) Outcome {
	out := Outcome{Year: req.Year, Month: int(req.Month), Title: TitleText(req.Year, req.Month)}
	if req.Source == nil || req.Target == nil {
		out.Fail(errors.New("source and target sheets are required"))
		return out
	}
	out.Source = req.Source.Name()
	out.Sheet = req.Target.Name()
	if req.Month < time.January || req.Month > time.December {
		out.Fail(fmt.Errorf("invalid month %d", req.Month))
		return out
	}
	mode, err := ParseMode(string(req.Mode))
	if err != nil {
		out.Fail(err)
		return out
	}

	src := ReadSource(req.Source, e.opts.layout, e.norm)
	out.Issues = append(out.Issues, src.Issues...)

	// All unresolved names are known before aggregation starts.
	columns, unresolved := e.resolver.Resolve(src.Header, req.Meters)
	out.Columns = columns.Bindings()
	out.Unresolved = unresolved
	headerRow := e.opts.layout.withDefaults().HeaderRow
	for _, id := range unresolved {
		out.Issues = append(out.Issues, NewIssue(SeverityWarning, IssueUnresolvedColumn,
			NewCellRef(req.Source.Name(), headerRow, 0), "meter %q (%s) matches no header in row %d",
			id, expectedLabel(req.Meters, id), headerRow))
	}
	if columns.Len() == 0 {
		out.Fail(fmt.Errorf("sheet %q: no meter column resolved in header row %d", req.Source.Name(), headerRow))
		return out
	}

	out.Stats = AggregateColumns(src.Rows, columns, req.Year, req.Month)

	blocks := e.locator.ListAll(req.Target)
	for _, b := range blocks {
		if b.Year == req.Year && b.Month == req.Month {
			return duplicate(out, b)
		}
	}

	block, err := e.builder.Build(BlockInput{
		Year:    req.Year,
		Month:   req.Month,
		Columns: out.Columns,
		Stats:   out.Stats,
		Rows:    src.Rows,
	}, mode)
	if err != nil {
		out.Fail(err)
		return out
	}

	after := req.InsertAfter
	if after <= 0 {
		after = req.Target.MaxRow()
		if len(blocks) > 0 {
			after = blocks[len(blocks)-1].LastRow
		}
	}
	writerOpts := e.opts.writerOpts
	if req.StyleTemplateRow <= 0 && len(blocks) > 0 {
		writerOpts = append(roleTemplates(blocks[len(blocks)-1]), writerOpts...)
	}
	last, err := NewWriter(e.locator, writerOpts...).Write(req.Target, block, after, req.StyleTemplateRow)
	if err != nil {
		var dbe *DuplicateBlockError
		if errors.As(err, &dbe) {
			b, _ := e.locator.Find(req.Target, req.Year, req.Month)
			return duplicate(out, b)
		}
		out.Fail(err)
		return out
	}

	out.Status = StatusWritten
	out.TitleRow = after + 1
	out.LastRow = last
	return out
}

// roleTemplates clones each row role from the matching row of an existing block.
func roleTemplates(b BlockInfo) []WriterOption {
	opts := []WriterOption{WithRoleTemplate(RoleTitle, b.Row)}
	if b.LastRow > b.Row {
		opts = append(opts, WithRoleTemplate(RoleHeader, b.Row+1), WithRoleTemplate(RoleTotals, b.LastRow))
	}
	if b.LastRow > b.Row+2 {
		opts = append(opts, WithRoleTemplate(RoleBody, b.Row+2))
	}
	return opts
}

func duplicate(out Outcome, b BlockInfo) Outcome {
	out.Status = StatusDuplicate
	out.TitleRow = b.Row
	out.LastRow = b.LastRow
	out.Issues = append(out.Issues, NewIssue(SeverityWarning, IssueDuplicateBlock,
		NewCellRef(b.Sheet, b.Row, b.Col), "block %s already exists, nothing written", b.Title))
	return out
}

func expectedLabel(table []MeterLabel, id string) string {
	for _, m := range table {
		if m.ID == id {
			return m.Label
		}
	}
	return ""
}

// report logs the outcome and its full diagnostic list.
func (e *Engine) report(out Outcome) {
	for _, is := range out.Issues {
		level := slog.LevelWarn
		if is.Severity == SeverityError {
			level = slog.LevelError
		}
		e.logger.Log(context.Background(), level, is.Message, "kind", is.Kind, "cell", is.Cell)
	}
	attrs := []any{
		"status", out.Status,
		"sheet", out.Sheet,
		"month", out.Title,
		"columns", len(out.Columns),
		"unresolved", len(out.Unresolved),
		"issues", len(out.Issues),
	}
	switch out.Status {
	case StatusWritten:
		e.logger.Info("summary block written", append(attrs, "title_row", out.TitleRow, "last_row", out.LastRow)...)
	case StatusDuplicate:
		e.logger.Info("summary block exists", append(attrs, "title_row", out.TitleRow)...)
	default:
		e.logger.Error("summary run failed", append(attrs, "error", out.Error)...)
	}
}
