package main

import (
	"github.com/spf13/cobra"

	"github.com/pe-ge/cda/engine"
)

// rootOptions holds flags shared by all subcommands.
type rootOptions struct {
	config string
}

// newRootCmd creates the root cda command with all subcommands attached.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "cda",
		Short:         "Change-detection working-memory task",
		Long:          "cda generates trial lists, runs the change-detection task with EEG triggers\nand summarises the recorded data files.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.config, "config", "", "YAML file overriding the default configuration")

	cmd.AddCommand(
		newGenerateCmd(opts),
		newRunCmd(opts),
		newPracticeCmd(opts),
		newSummaryCmd(opts),
		newExportCmd(opts),
		newMonitorCmd(opts),
		newSessionsCmd(opts),
		newTriggersCmd(opts),
	)
	return cmd
}

func (o *rootOptions) loadConfig() (engine.Config, error) {
	return engine.LoadConfig(o.config)
}
