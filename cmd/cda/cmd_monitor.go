package main

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/pe-ge/cda/engine"
)

// newMonitorCmd creates the "cda monitor" subcommand.
func newMonitorCmd(opts *rootOptions) *cobra.Command {
	var total int
	var modeName string

	cmd := &cobra.Command{
		Use:   "monitor FILE",
		Short: "Follow a running session from a second terminal",
		Long:  "Watches a data file while the task writes it and shows the running accuracy\nper set size. Press q to leave; the session is not affected.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("mode") {
				modeName = cfg.SummaryMode
			}
			mode, err := engine.ParseSummaryMode(modeName)
			if err != nil {
				return err
			}

			m := newMonitorModel(args[0], cfg.Comma(), mode, total)
			watcher := initWatcher(filepath.Dir(m.path))
			if watcher != nil {
				defer watcher.Close()
				m.watcher = watcher
			}
			_, err = tea.NewProgram(m, tea.WithOutput(cmd.OutOrStdout())).Run()
			return err
		},
	}
	cmd.Flags().IntVar(&total, "total", 0, "expected number of trials, for the progress bar")
	cmd.Flags().StringVar(&modeName, "mode", "accuracy", "accuracy or wmc")
	return cmd
}

// fileChangedMsg is sent when the watched data file was written.
type fileChangedMsg struct{}

// pollMsg re-reads the file when no watcher could be set up.
type pollMsg struct{}

// watchFailedMsg ends file watching; the monitor polls from then on.
type watchFailedMsg struct{ err error }

// loadedMsg carries a fresh read of the data file.
type loadedMsg struct {
	trials []*engine.Trial
	err    error
	at     time.Time
}

const pollInterval = 2 * time.Second

var errWatcherClosed = errors.New("watcher closed")

type monitorModel struct {
	path  string
	delim rune
	mode  engine.SummaryMode
	total int

	watcher *fsnotify.Watcher
	bar     progress.Model

	summary engine.Summary
	last    *engine.Trial
	err     error
	warning string
	updated time.Time
}

func newMonitorModel(path string, delim rune, mode engine.SummaryMode, total int) monitorModel {
	return monitorModel{
		path:  filepath.Clean(path),
		delim: delim,
		mode:  mode,
		total: total,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(m.load, m.watch())
}

func (m monitorModel) load() tea.Msg {
	trials, err := engine.ReadTrials(m.path, m.delim)
	return loadedMsg{trials: trials, err: err, at: time.Now()}
}

func (m monitorModel) watch() tea.Cmd {
	if m.watcher == nil {
		return tea.Tick(pollInterval, func(time.Time) tea.Msg { return pollMsg{} })
	}
	return runWatcher(m.watcher, m.path)
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case fileChangedMsg, pollMsg:
		return m, tea.Batch(m.load, m.watch())
	case watchFailedMsg:
		m.watcher = nil
		m.warning = fmt.Sprintf("file watching stopped (%v), polling every %s", msg.err, pollInterval)
		return m, tea.Batch(m.load, m.watch())
	case loadedMsg:
		m.err = msg.err
		m.updated = msg.at
		if msg.err == nil {
			m.summary = engine.Summarize(msg.trials)
			m.last = nil
			if n := len(msg.trials); n > 0 {
				m.last = msg.trials[n-1]
			}
		}
	}
	return m, nil
}

func (m monitorModel) View() string {
	var b strings.Builder
	fmt.Fprintln(&b, titleStyle.Render("Monitoring ")+m.path)
	if m.err != nil {
		fmt.Fprintln(&b, errorStyle.Render(m.err.Error()))
	}
	if m.warning != "" {
		fmt.Fprintln(&b, warnStyle.Render(m.warning))
	}

	if m.total > 0 {
		frac := float64(m.summary.Trials) / float64(m.total)
		fmt.Fprintf(&b, "%s %d/%d\n", m.bar.ViewAs(min(frac, 1)), m.summary.Trials, m.total)
	} else {
		fmt.Fprintf(&b, "%s %d\n", mutedStyle.Render("trials:"), m.summary.Trials)
	}
	if m.last != nil {
		answer := m.last.Response
		if !m.last.Responded {
			answer = "none"
		}
		fmt.Fprintf(&b, "%s #%d T=%d D=%d %s %s, answer %s\n", mutedStyle.Render("last:"),
			m.last.NoTotal, m.last.NumTargets, m.last.NumDistractors, m.last.CueSide, m.last.ProbeType, answer)
	}
	if m.summary.Trials > 0 {
		fmt.Fprintln(&b, boxStyle.Render(strings.TrimRight(summaryText(m.summary, m.mode), "\n")))
	}
	if !m.updated.IsZero() {
		fmt.Fprintln(&b, mutedStyle.Render("updated "+m.updated.Format("15:04:05")+", q to quit"))
	}
	return b.String()
}

// initWatcher watches dir, or returns nil so the monitor falls back to
// polling.
func initWatcher(dir string) *fsnotify.Watcher {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("fsnotify: failed to create watcher: %v (falling back to polling)", err)
		return nil
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		log.Printf("fsnotify: failed to watch %s: %v (falling back to polling)", dir, err)
		return nil
	}
	return watcher
}

// runWatcher returns a tea.Cmd that waits for writes to path. Bursts of
// events are debounced into one fileChangedMsg. A watcher error or a closed
// watcher yields watchFailedMsg.
func runWatcher(watcher *fsnotify.Watcher, path string) tea.Cmd {
	return func() tea.Msg {
		timer := newDebounceTimer()
		defer timer.Stop()

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return watchFailedMsg{err: errWatcherClosed}
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					resetDebounceTimer(timer)
				}
			case <-timer.C:
				return fileChangedMsg{}
			case err, ok := <-watcher.Errors:
				if !ok {
					return watchFailedMsg{err: errWatcherClosed}
				}
				return watchFailedMsg{err: err}
			}
		}
	}
}

func newDebounceTimer() *time.Timer {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	return timer
}

func resetDebounceTimer(timer *time.Timer) {
	const debounceDuration = 100 * time.Millisecond
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(debounceDuration)
}
