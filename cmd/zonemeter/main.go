// Package main provides the zonemeter CLI: monthly summary blocks for zoned
// water-metering workbooks.
package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/waterops/zonemeter/config"
)

var (
	configPath string
	verbose    bool
	pretty     bool
)

// errRunFailed makes the process exit non-zero after the outcomes were printed.
var errRunFailed = errors.New("one or more runs failed")

func main() {
	rootCmd := &cobra.Command{
		Use:   "zonemeter",
		Short: "Aggregate daily meter readings into monthly summary blocks",
		Long: `zonemeter reads daily per-meter readings from a source workbook, resolves
meter columns by their header labels and inserts a monthly summary block into
the target workbook unless one already exists for that month.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("ZONEMETER_CONFIG"), "YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")

	rootCmd.AddCommand(newSummarizeCmd(), newBlocksCmd(), newDescribeCmd(), newValidateCmd())

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errRunFailed) {
			slog.Error("MAIN", "error", err)
		}
		os.Exit(1)
	}
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Source.Path, _ = flags.GetString("source")
	}
	if flags.Changed("source-sheet") {
		cfg.Source.Sheet, _ = flags.GetString("source-sheet")
	}
	if flags.Changed("target") {
		cfg.Target.Path, _ = flags.GetString("target")
	}
	if flags.Changed("sheet") {
		cfg.Target.Sheet, _ = flags.GetString("sheet")
	}
	if flags.Changed("mode") {
		cfg.Target.Mode, _ = flags.GetString("mode")
	}
	if flags.Changed("insert-after") {
		cfg.Target.InsertAfter, _ = flags.GetInt("insert-after")
	}
	if flags.Changed("template-row") {
		cfg.Target.StyleTemplateRow, _ = flags.GetInt("template-row")
	}
	return cfg, cfg.Validate()
}
