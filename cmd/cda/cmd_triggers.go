package main

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/pe-ge/cda/engine"
)

// newTriggersCmd creates the "cda triggers" subcommand.
func newTriggersCmd(opts *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "triggers",
		Short: "Print the trigger wiring sheet",
		Long:  "Prints the code each task event latches on the DLP-IO8-G lines. With --all it\nalso lists every channel combination and its code.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			writeTriggerSheet(cmd.OutOrStdout(), cfg, all)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "also list every channel combination")
	return cmd
}

func cellStyle(row, col int) lipgloss.Style {
	if row == table.HeaderRow {
		return titleStyle.Padding(0, 1)
	}
	return lipgloss.NewStyle().Padding(0, 1)
}

func channelList(chs engine.Channels) string {
	parts := make([]string, len(chs))
	for i, ch := range chs {
		parts[i] = strconv.Itoa(ch)
	}
	return strings.Join(parts, "+")
}

func writeTriggerSheet(w io.Writer, cfg engine.Config, all bool) {
	tt := cfg.Triggers
	events := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("EVENT", "CHANNELS", "CODE").
		StyleFunc(cellStyle)
	add := func(event string, chs engine.Channels) {
		code, _ := chs.Code()
		events.Row(event, channelList(chs), strconv.Itoa(int(code)))
	}
	add("cue left", tt.CueLeft)
	add("cue right", tt.CueRight)
	add("memory array, same", tt.Same)
	add("memory array, change", tt.Change)
	add("test array", tt.TestArray)

	answers := make([]string, 0, len(tt.AnswerCodes))
	for code := range tt.AnswerCodes {
		answers = append(answers, code)
	}
	slices.Sort(answers)
	for _, a := range answers {
		events.Row("answer "+a, "", strconv.Itoa(int(tt.AnswerCodes[a])))
	}
	fmt.Fprintln(w, events.Render())

	if !all {
		return
	}
	sheet := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("CHANNELS", "CODE").
		StyleFunc(cellStyle)
	for _, cc := range engine.ChannelCodes() {
		sheet.Row(channelList(cc.Channels), strconv.Itoa(int(cc.Code)))
	}
	fmt.Fprintln(w, sheet.Render())
}
