package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/pe-ge/cda/engine"
)

type sessionsConfig struct {
	db          string
	participant string
}

// newSessionsCmd creates the "cda sessions" subcommand.
func newSessionsCmd(opts *rootOptions) *cobra.Command {
	var sc sessionsConfig

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded sessions",
		Long:  "Lists the sessions in the registry, newest first. Use --participant to see\nwhich visits one participant has done.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if sc.db == "" {
				sc.db = cfg.Registry
			}
			reg, err := engine.OpenRegistry(sc.db)
			if err != nil {
				return err
			}
			defer reg.Close()

			sessions, err := reg.List(cmd.Context(), sc.participant)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("no sessions recorded"))
				return nil
			}
			fmt.Fprintln(out, sessionsTable(sessions))
			return nil
		},
	}
	cmd.Flags().StringVar(&sc.db, "db", "", "registry database (default from config)")
	cmd.Flags().StringVarP(&sc.participant, "participant", "p", "", "only sessions of this participant label")
	return cmd
}

func sessionsTable(sessions []engine.Session) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("STARTED", "PARTICIPANT", "VISIT", "MODE", "STATUS", "TRIALS", "ACCURACY").
		StyleFunc(cellStyle)
	for _, s := range sessions {
		t.Row(
			s.StartedAt.Format("2006-01-02 15:04"),
			s.Participant,
			strconv.Itoa(s.Visit),
			s.Mode,
			statusText(s.Status),
			strconv.Itoa(s.Trials),
			s.Accuracy.Percent(),
		)
	}
	return t.Render()
}

func statusText(status string) string {
	switch status {
	case engine.StatusFinished:
		return successStyle.Render(status)
	case engine.StatusAborted, engine.StatusRunning:
		return warnStyle.Render(status)
	case engine.StatusFailed:
		return errorStyle.Render(status)
	}
	return status
}
