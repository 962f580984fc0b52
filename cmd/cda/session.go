package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pe-ge/cda/engine"
)

// session is one recorded run: the trial list, the devices it is shown on
// and where its data goes.
type session struct {
	cfg      engine.Config
	mode     engine.Mode
	settings engine.Settings
	design   engine.Design
	trials   []*engine.Trial

	display  engine.Display
	input    engine.Input
	trigger  engine.Trigger
	clock    engine.Clock
	registry *engine.Registry
	rng      *rand.Rand

	logger *log.Logger
	out    io.Writer
	now    func() time.Time
}

// outcome is what a finished, aborted or failed session leaves behind.
type outcome struct {
	dataPath    string
	resultsPath string
	status      string
	summary     engine.Summary
	completed   int
}

func (s *session) runInfo(started time.Time) engine.RunInfo {
	return engine.RunInfo{
		Date:        started.Format("2006-01-02_15h04.05"),
		Session:     strconv.Itoa(s.settings.Visit),
		Participant: s.settings.Participant.Label(),
	}
}

func (s *session) sequencer(m engine.Mode, sink engine.Sink, started time.Time) (*engine.Sequencer, error) {
	return engine.NewSequencer(s.cfg, m, s.display, s.input, sink,
		engine.WithTrigger(s.trigger),
		engine.WithClock(s.clock),
		engine.WithLogger(s.logger),
		engine.WithRunInfo(s.runInfo(started)),
	)
}

// walkthrough runs the instructions and practice blocks. Practice trials go
// to their own data file. It reports whether the operator quit.
func (s *session) walkthrough(ctx context.Context) (bool, error) {
	started := s.now()
	name := "practice " + s.settings.Participant.DataFileName(s.settings.Visit, started)
	w, err := engine.NewWriter(filepath.Join(s.cfg.OutputDir, name), s.cfg.Comma(), s.cfg.CrashSafe)
	if err != nil {
		return false, err
	}
	defer w.Close()

	design := s.design
	if len(design.Targets) == 0 {
		design = s.cfg.Practice
	}
	wt := &engine.Walkthrough{
		Config:  s.cfg,
		Factory: engine.NewFactory(s.cfg, s.rng, s.logger),
		Design:  design,
		Sequencer: func(m engine.Mode) (*engine.Sequencer, error) {
			return s.sequencer(m, w, started)
		},
		Evaluated: func(sum engine.Summary) {
			fmt.Fprintln(s.out, titleStyle.Render("Practice"))
			fmt.Fprintln(s.out, sum.Evaluation())
		},
	}
	return wt.Run(ctx)
}

// run presents the trial list. Completed trials are summarised whatever the
// run ends with, and the registry row is closed with the matching status.
func (s *session) run(ctx context.Context) (outcome, error) {
	started := s.now()
	out := outcome{status: engine.StatusFailed}
	out.dataPath = filepath.Join(s.cfg.OutputDir, s.settings.Participant.DataFileName(s.settings.Visit, started))

	w, err := engine.NewWriter(out.dataPath, s.cfg.Comma(), s.cfg.CrashSafe)
	if err != nil {
		return out, err
	}
	id := s.startRegistry(ctx, out.dataPath, started)

	res, runErr := s.present(ctx, w, id, started)
	if err := w.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("close %s: %w", out.dataPath, err)
	}

	switch {
	case runErr != nil:
		out.status = engine.StatusFailed
	case res.Aborted:
		out.status = engine.StatusAborted
	default:
		out.status = engine.StatusFinished
	}

	out.completed = len(res.Completed)
	out.summary = engine.Summarize(res.Completed)
	if out.completed > 0 {
		mode, err := engine.ParseSummaryMode(s.cfg.SummaryMode)
		if err != nil {
			mode = engine.AccuracyMode
		}
		path, err := engine.WriteResults(out.dataPath, out.summary, mode)
		if err != nil {
			s.logger.Printf("warning: %v", err)
		} else {
			out.resultsPath = path
		}
	} else {
		// Nothing was written; drop the empty data file.
		_ = os.Remove(out.dataPath)
		out.dataPath = ""
	}

	s.finishRegistry(ctx, id, out)
	return out, runErr
}

func (s *session) present(ctx context.Context, w *engine.Writer, id string, started time.Time) (engine.Result, error) {
	var res engine.Result
	seq, err := s.sequencer(s.mode, w, started)
	if err != nil {
		return res, err
	}

	if s.cfg.Barcode.Enabled && s.mode.Triggers {
		stamps, err := engine.Barcode(s.display, s.clock, s.cfg.Barcode, s.cfg.FramePeriod())
		if err != nil {
			return res, err
		}
		s.logger.Printf("barcode pulses at %v", engine.FormatStamps(stamps))
		if s.registry != nil && id != "" {
			if err := s.registry.SetBarcode(ctx, id, engine.FormatStamps(stamps)); err != nil {
				s.logger.Printf("warning: %v", err)
			}
		}
	}

	code, err := seq.Ask(ctx, s.cfg.Texts.Experiment)
	if err != nil {
		return res, err
	}
	if s.cfg.Response.IsQuit(code) {
		res.Aborted = true
		return res, nil
	}

	bar := newProgress(len(s.trials), s.mode.Name)
	seq.OnTrial = func(done, total int, t *engine.Trial) {
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	res, err = seq.Run(ctx, s.trials)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil || res.Aborted {
		return res, err
	}

	if _, err := seq.Ask(ctx, s.cfg.Texts.Finish); err != nil {
		s.logger.Printf("warning: %v", err)
	}
	return res, nil
}

func (s *session) startRegistry(ctx context.Context, dataPath string, at time.Time) string {
	if s.registry == nil {
		return ""
	}
	id, err := s.registry.Start(ctx, s.settings.Participant.Label(), s.settings.Visit, s.mode.Name, dataPath, at)
	if err != nil {
		s.logger.Printf("warning: session not registered: %v", err)
		return ""
	}
	return id
}

func (s *session) finishRegistry(ctx context.Context, id string, out outcome) {
	if s.registry == nil || id == "" {
		return
	}
	// The run context may already be cancelled by an interrupt.
	ctx = context.WithoutCancel(ctx)
	if err := s.registry.Finish(ctx, id, out.status, out.completed, out.summary.Accuracy, s.now()); err != nil {
		s.logger.Printf("warning: %v", err)
	}
}

// report prints the outcome of a session.
func report(w io.Writer, out outcome, mode engine.SummaryMode) {
	status := successStyle.Render(out.status)
	switch out.status {
	case engine.StatusAborted:
		status = warnStyle.Render(out.status)
	case engine.StatusFailed:
		status = errorStyle.Render(out.status)
	}
	fmt.Fprintln(w, titleStyle.Render("Session ")+status)
	printField(w, "trials:", strconv.Itoa(out.completed))
	if out.dataPath != "" {
		printField(w, "data:", out.dataPath)
	}
	if out.resultsPath != "" {
		printField(w, "results:", out.resultsPath)
	}
	if out.completed > 0 {
		fmt.Fprintln(w, boxStyle.Render(summaryText(out.summary, mode)))
	}
}
