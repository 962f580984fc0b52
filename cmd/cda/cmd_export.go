package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pe-ge/cda/engine"
)

// newExportCmd creates the "cda export" subcommand.
func newExportCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Export a data file to an Excel workbook",
		Long:  "Writes the trials of a data file and the per set size summary to an .xlsx\nworkbook, by default next to FILE.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			path := args[0]
			if output == "" {
				output = strings.TrimSuffix(path, ".csv") + ".xlsx"
			}

			header, rows, err := engine.ReadRows(path, cfg.Comma())
			if err != nil {
				return err
			}
			if header == nil {
				return fmt.Errorf("%s is empty", path)
			}
			trials, err := engine.ReadTrials(path, cfg.Comma())
			if err != nil {
				return err
			}
			if err := engine.ExportWorkbook(output, header, rows, trials); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, successStyle.Render("Exported"))
			printField(out, "trials:", fmt.Sprint(len(rows)))
			printField(out, "workbook:", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "workbook path")
	return cmd
}
