package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pe-ge/cda/engine"
)

var testParticipant = engine.Participant{
	Initials:  "AB",
	ID:        "01",
	Condition: "A",
	TimePoint: "T1",
	Cohort:    "2",
	Location:  "KE",
}

// newTestSession builds a session over fakes. The design has four trials in
// one block.
func newTestSession(t *testing.T, waits ...string) (*session, *fakeScreen, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	cfg := engine.DefaultConfig()
	cfg.OutputDir = filepath.Join(dir, "results")
	cfg.Barcode.Enabled = false

	reg, err := engine.OpenRegistry(filepath.Join(dir, "sessions.db"))
	if err != nil {
		t.Fatalf("OpenRegistry: %v", err)
	}
	t.Cleanup(func() { reg.Close() })

	clock := &fakeClock{now: t0}
	scr := &fakeScreen{clock: clock, period: cfg.FramePeriod(), waits: waits}
	rng := rand.New(rand.NewPCG(1, 2))
	logger := log.New(io.Discard, "", 0)

	design := engine.Design{Targets: []int{1}, Distractors: []int{0}, Blocks: 1, Repetitions: 1}
	trials, err := engine.NewFactory(cfg, rng, logger).Generate(design)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	mode, _ := engine.ModeByName("experiment")

	var out bytes.Buffer
	s := &session{
		cfg:      cfg,
		mode:     mode,
		settings: engine.Settings{Participant: testParticipant, Visit: 1},
		design:   design,
		trials:   trials,
		display:  scr,
		input:    scr,
		trigger:  engine.NopTrigger{},
		clock:    clock,
		registry: reg,
		rng:      rng,
		logger:   logger,
		out:      &out,
		now:      clock.Now,
	}
	return s, scr, &out
}

func TestSessionRunFinished(t *testing.T) {
	s, _, _ := newTestSession(t, "0", "0")

	out, err := s.run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.status != engine.StatusFinished {
		t.Errorf("status = %q, want %q", out.status, engine.StatusFinished)
	}
	if out.completed != 4 {
		t.Errorf("completed = %d, want 4", out.completed)
	}

	trials, err := engine.ReadTrials(out.dataPath, s.cfg.Comma())
	if err != nil {
		t.Fatalf("ReadTrials: %v", err)
	}
	if len(trials) != 4 {
		t.Fatalf("data file holds %d trials, want 4", len(trials))
	}
	for _, tr := range trials {
		if tr.Participant != "AB_01" || tr.Session != "1" {
			t.Errorf("trial %d stamped %q session %q", tr.NoTotal, tr.Participant, tr.Session)
		}
		if tr.Responded {
			t.Errorf("trial %d has a response without a press", tr.NoTotal)
		}
	}

	if _, err := os.Stat(out.resultsPath); err != nil {
		t.Errorf("results file: %v", err)
	}

	sessions, err := s.registry.List(context.Background(), "AB_01")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("registry has %d sessions, want 1", len(sessions))
	}
	if got := sessions[0]; got.Status != engine.StatusFinished || got.Trials != 4 || got.DataFile != out.dataPath {
		t.Errorf("registry row = %+v", got)
	}
}

func TestSessionRunAbortedBeforeFirstTrial(t *testing.T) {
	s, _, _ := newTestSession(t, "escape")

	out, err := s.run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.status != engine.StatusAborted {
		t.Errorf("status = %q, want %q", out.status, engine.StatusAborted)
	}
	if out.dataPath != "" || out.resultsPath != "" {
		t.Errorf("expected no files, got %q and %q", out.dataPath, out.resultsPath)
	}
	entries, _ := os.ReadDir(s.cfg.OutputDir)
	if len(entries) != 0 {
		t.Errorf("output dir holds %d files, want none", len(entries))
	}

	sessions, err := s.registry.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Status != engine.StatusAborted {
		t.Errorf("registry = %+v", sessions)
	}
}

func TestSessionRunInputFailure(t *testing.T) {
	// The Finish screen is never answered; the trials are still kept.
	s, _, _ := newTestSession(t, "0")

	out, err := s.run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.completed != 4 || out.status != engine.StatusFinished {
		t.Errorf("got %d trials with status %q", out.completed, out.status)
	}
}

func TestSessionExecuteSplashes(t *testing.T) {
	s, scr, buf := newTestSession(t, "0", "0")
	s.cfg.StartSplash = "start.png"
	s.cfg.EndSplash = "end.png"

	if err := s.execute(context.Background(), scr, false, false); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if strings.Join(scr.splash, ",") != "start.png,end.png" {
		t.Errorf("splashes = %v", scr.splash)
	}
	if !strings.Contains(buf.String(), "Final accuracy:") {
		t.Errorf("report missing summary:\n%s", buf.String())
	}
}

func TestSessionExecuteQuitAtStartSplash(t *testing.T) {
	s, scr, buf := newTestSession(t)
	scr.noStart = true

	if err := s.execute(context.Background(), scr, false, false); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if scr.shows != 0 || buf.Len() != 0 {
		t.Errorf("expected nothing shown, got %d frames and %q", scr.shows, buf.String())
	}
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	report(&buf, outcome{status: engine.StatusAborted}, engine.AccuracyMode)
	got := buf.String()
	if !strings.Contains(got, "aborted") || !strings.Contains(got, "trials:") {
		t.Errorf("report = %q", got)
	}
	if strings.Contains(got, "Final accuracy") {
		t.Errorf("report of an empty session has a summary: %q", got)
	}
}
