package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pe-ge/cda/engine"
)

type summaryConfig struct {
	mode  string
	write bool
}

// newSummaryCmd creates the "cda summary" subcommand.
func newSummaryCmd(opts *rootOptions) *cobra.Command {
	var sc summaryConfig

	cmd := &cobra.Command{
		Use:   "summary FILE",
		Short: "Summarise a recorded data file",
		Long:  "Reads the trials of a data file, including one left behind by a crash, and\nprints the accuracy per set size. --write also stores the results file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("mode") {
				sc.mode = cfg.SummaryMode
			}
			mode, err := engine.ParseSummaryMode(sc.mode)
			if err != nil {
				return err
			}

			trials, err := engine.ReadTrials(args[0], cfg.Comma())
			if err != nil {
				return err
			}
			if len(trials) == 0 {
				return fmt.Errorf("%s holds no complete trials", args[0])
			}
			summary := engine.Summarize(trials)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render(args[0]))
			fmt.Fprint(out, summaryText(summary, mode))
			if sc.write {
				path, err := engine.WriteResults(args[0], summary, mode)
				if err != nil {
					return err
				}
				printField(out, "results:", path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sc.mode, "mode", "accuracy", "accuracy or wmc")
	cmd.Flags().BoolVar(&sc.write, "write", false, "write the results file next to FILE")
	return cmd
}

func summaryText(s engine.Summary, mode engine.SummaryMode) string {
	var b strings.Builder
	_ = s.WriteText(&b, mode)
	return b.String()
}
