package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/waterops/zonemeter"
)

func newBlocksCmd() *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "blocks [workbook.xlsx]",
		Short: "List the monthly summary blocks of a workbook as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			wb, err := zonemeter.Open(args[0])
			if err != nil {
				return err
			}
			defer wb.Close()

			engine := zonemeter.New(append(cfg.EngineOptions(), zonemeter.WithLogger(newLogger(cmd.ErrOrStderr())))...)
			names := wb.SheetNames()
			if sheet != "" {
				names = []string{sheet}
			}
			blocks := []zonemeter.BlockInfo{}
			for _, name := range names {
				g, err := wb.Sheet(name)
				if err != nil {
					return fmt.Errorf("list blocks: %w", err)
				}
				blocks = append(blocks, engine.Locator().ListAll(g)...)
			}
			return writeJSON(cmd.OutOrStdout(), blocks)
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "Only this sheet")
	return cmd
}

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe [workbook.xlsx]",
		Short: "Print sheets, summary blocks and header resolution of a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out, err := zonemeter.Describe(args[0], cfg.Meters, cfg.EngineOptions()...)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
}

func newValidateCmd() *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "validate [workbook.xlsx]",
		Short: "Check target sheets for layout problems before a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			wb, err := zonemeter.Open(args[0])
			if err != nil {
				return err
			}
			defer wb.Close()

			engine := zonemeter.New(cfg.EngineOptions()...)
			names := wb.SheetNames()
			if sheet != "" {
				names = []string{sheet}
			}
			failed := false
			for _, name := range names {
				g, err := wb.Sheet(name)
				if err != nil {
					return err
				}
				issues, err := engine.Validate(g)
				if err != nil {
					return err
				}
				for _, is := range issues {
					fmt.Fprintln(cmd.OutOrStdout(), is.String())
					failed = failed || is.Severity == zonemeter.SeverityError
				}
			}
			if failed {
				return errRunFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "Only this sheet")
	return cmd
}
