package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/waterops/zonemeter"
	"github.com/waterops/zonemeter/config"
	"github.com/waterops/zonemeter/metrics"
)

func newSummarizeCmd() *cobra.Command {
	var (
		month  string
		until  string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Insert the summary block for a month",
		Example: `  zonemeter summarize -c zones.yaml --month 2025-09
  zonemeter summarize -c zones.yaml --month 2025-07 --until 2025-09 --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			first, err := zonemeter.ParseYearMonth(month)
			if err != nil {
				return err
			}
			last := first
			if until != "" {
				if last, err = zonemeter.ParseYearMonth(until); err != nil {
					return err
				}
			}
			return summarize(cmd, cfg, zonemeter.MonthRange(first, last), dryRun)
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "Month to summarize (YYYY-MM)")
	cmd.Flags().StringVar(&until, "until", "", "Summarize every month from --month through this one")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report outcomes without saving the target workbook")
	cmd.Flags().String("source", "", "Source workbook with daily readings")
	cmd.Flags().String("source-sheet", "", "Source sheet (default: the month's sheet)")
	cmd.Flags().String("target", "", "Target workbook (default: the source workbook)")
	cmd.Flags().String("sheet", "", "Target sheet (default: first sheet)")
	cmd.Flags().String("mode", "", "Block mode: metrics or daily")
	cmd.Flags().Int("insert-after", 0, "Insert below this row (default: after the last block)")
	cmd.Flags().Int("template-row", 0, "Clone styles from this row (default: the last block)")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}

func summarize(cmd *cobra.Command, cfg config.Config, months []zonemeter.YearMonth, dryRun bool) error {
	logger := newLogger(cmd.ErrOrStderr())
	engine := zonemeter.New(append(cfg.EngineOptions(), zonemeter.WithLogger(logger))...)

	if cfg.Source.Path == "" {
		return fmt.Errorf("source workbook required (--source or ZONEMETER_SOURCE)")
	}
	src, err := zonemeter.Open(cfg.Source.Path)
	if err != nil {
		return err
	}
	defer src.Close()

	target := src
	if cfg.Target.Path != "" && cfg.Target.Path != cfg.Source.Path {
		if target, err = zonemeter.Open(cfg.Target.Path); err != nil {
			return err
		}
		defer target.Close()
	}
	targetSheet := cfg.Target.Sheet
	if targetSheet == "" {
		targetSheet = target.SheetNames()[0]
	}
	tg, err := target.Sheet(targetSheet)
	if err != nil {
		return err
	}

	mode, _ := zonemeter.ParseMode(cfg.Target.Mode)
	outcomes := engine.RunMonths(zonemeter.Request{
		Target:           tg,
		Meters:           cfg.Meters,
		Mode:             mode,
		InsertAfter:      cfg.Target.InsertAfter,
		StyleTemplateRow: cfg.Target.StyleTemplateRow,
		SourceFor: func(ym zonemeter.YearMonth) (zonemeter.Grid, error) {
			name, ok := sourceSheet(src, cfg, ym)
			if !ok {
				return nil, fmt.Errorf("no sheet for %s in %s", ym, src.Path())
			}
			return src.Sheet(name)
		},
	}, months)

	m := metrics.New()
	commit(target, outcomes, m, logger, dryRun)
	if cfg.MetricsTextfile != "" {
		if err := m.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Warn("write metrics textfile", "path", cfg.MetricsTextfile, "error", err)
		}
	}

	if err := writeJSON(cmd.OutOrStdout(), outcomes); err != nil {
		return err
	}
	for _, out := range outcomes {
		if out.Status == zonemeter.StatusFailed {
			return errRunFailed
		}
	}
	return nil
}

type saver interface {
	Save() error
	Path() string
}

// commit saves target when a block was written, fails the written outcomes if
// the save does, and records metrics for the final outcomes.
func commit(target saver, outcomes []zonemeter.Outcome, m *metrics.Metrics, logger *slog.Logger, dryRun bool) {
	written := false
	for _, out := range outcomes {
		if out.Status == zonemeter.StatusWritten {
			written = true
		}
	}
	if written && !dryRun {
		if err := target.Save(); err != nil {
			logger.Error("save target workbook", "path", target.Path(), "error", err)
			for i := range outcomes {
				if outcomes[i].Status == zonemeter.StatusWritten {
					outcomes[i].Fail(err)
				}
			}
		} else {
			logger.Info("target workbook saved", "path", target.Path())
		}
	}
	for _, out := range outcomes {
		m.Observe(out, out.Elapsed)
	}
}

// sourceSheet picks the configured source sheet, else the month's sheet by name.
func sourceSheet(src *zonemeter.Workbook, cfg config.Config, ym zonemeter.YearMonth) (string, bool) {
	if cfg.Source.Sheet != "" {
		return cfg.Source.Sheet, true
	}
	names := src.SheetNames()
	if cfg.Target.Region != "" {
		want := zonemeter.MonthlySheetName(cfg.Target.Region, ym.Year, ym.Month)
		for _, n := range names {
			if n == want {
				return n, true
			}
		}
	}
	if name, ok := zonemeter.FindMonthlySheet(names, ym.Year, ym.Month); ok {
		return name, true
	}
	if len(names) == 1 {
		return names[0], true
	}
	return "", false
}
