package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pe-ge/cda/engine"
)

var errCancelled = errors.New("setup cancelled")

// runConfig holds configuration for the run and practice commands.
type runConfig struct {
	designFlags
	participant engine.Participant
	trialsFile  string
	preset      int
	visit       int
	mode        string
	dlp         string
	language    string
	outputDir   string
	seed        uint64
	setup       bool
	practice    bool
}

func (rc *runConfig) register(cmd *cobra.Command) {
	rc.designFlags.register(cmd)
	f := cmd.Flags()
	f.StringVar(&rc.participant.Initials, "initials", "", "participant initials")
	f.StringVar(&rc.participant.ID, "id", "", "participant id")
	f.StringVar(&rc.participant.Condition, "condition", "", "experimental condition")
	f.StringVar(&rc.participant.TimePoint, "timepoint", "", "time point")
	f.StringVar(&rc.participant.Cohort, "cohort", "", "cohort")
	f.StringVar(&rc.participant.Location, "location", "", "recording site (KE or BA)")
	f.StringVar(&rc.trialsFile, "trials-file", "", "pre-generated trials file")
	f.IntVar(&rc.preset, "preset", 0, "preset design whose trials file to use (1-based)")
	f.IntVar(&rc.visit, "visit", 1, "visit to run from the trials file (1-based)")
	f.StringVar(&rc.mode, "mode", "experiment", "experiment, practice, pace_all or pace_array")
	f.StringVar(&rc.dlp, "dlp", "", "DLP-IO8-G serial device")
	f.StringVar(&rc.language, "language", "", "instruction language (en or sk)")
	f.StringVar(&rc.outputDir, "output-dir", "", "directory for data files")
	f.Uint64Var(&rc.seed, "seed", 0, "random seed (0 uses the clock)")
	f.BoolVar(&rc.setup, "setup", false, "open the setup form even when all flags are given")
}

// settings merges flags over the cached settings. Flags the operator did not
// set keep the cached value.
func (rc *runConfig) settings(cmd *cobra.Command, cached engine.Settings) engine.Settings {
	s := cached
	changed := cmd.Flags().Changed
	str := func(name string, dst *string, v string) {
		if changed(name) || *dst == "" {
			*dst = v
		}
	}
	str("initials", &s.Participant.Initials, rc.participant.Initials)
	str("id", &s.Participant.ID, rc.participant.ID)
	str("condition", &s.Participant.Condition, rc.participant.Condition)
	str("timepoint", &s.Participant.TimePoint, rc.participant.TimePoint)
	str("cohort", &s.Participant.Cohort, rc.participant.Cohort)
	str("location", &s.Participant.Location, rc.participant.Location)
	str("trials-file", &s.TrialsFile, rc.trialsFile)
	str("mode", &s.Mode, rc.mode)
	str("dlp", &s.DLPDevice, rc.dlp)
	str("language", &s.Language, rc.language)
	if changed("preset") {
		s.Preset = rc.preset
		if !changed("trials-file") {
			s.TrialsFile = ""
		}
	}
	if changed("trials-file") && !changed("preset") {
		s.Preset = 0
	}
	if changed("visit") || s.Visit == 0 {
		s.Visit = rc.visit
	}
	return s
}

// plan is a validated session: the mode, the design and the trial list.
type plan struct {
	mode   engine.Mode
	design engine.Design
	trials []*engine.Trial
}

// preparePlan validates s and builds the trial list. Problems the operator
// can fix come back as *engine.ConfigError.
func preparePlan(cfg engine.Config, s engine.Settings, flagDesign engine.Design, rng *rand.Rand, logger *log.Logger) (plan, error) {
	var p plan
	if err := s.Participant.Validate(); err != nil {
		return p, err
	}
	mode, err := engine.ModeByName(s.Mode)
	if err != nil {
		return p, err
	}
	p.mode = mode

	path := s.TrialsFile
	if s.Preset > 0 {
		if s.Preset > len(engine.Presets) {
			return p, &engine.ConfigError{Field: "preset", Err: fmt.Errorf("%w: no preset %d", engine.ErrInvalidConfig, s.Preset)}
		}
		p.design = engine.Presets[s.Preset-1].Design
		path = filepath.Join(cfg.TrialsDir, engine.TrialsFileName(p.design))
	}

	if path == "" {
		p.design = flagDesign
		p.trials, err = engine.NewFactory(cfg, rng, logger).Generate(flagDesign)
		return p, err
	}

	blocks, err := engine.LoadVisit(path, s.Visit)
	if err != nil {
		return p, err
	}
	p.trials = engine.PrepareVisit(blocks, rng, cfg.Reshuffle, cfg.Triggers)
	return p, nil
}

// resolve loops through the setup form until the settings make a valid plan.
func (rc *runConfig) resolve(cmd *cobra.Command, cfg engine.Config, rng *rand.Rand, logger *log.Logger) (engine.Settings, plan, error) {
	cached, err := engine.LoadCache(engine.CacheFile)
	if err != nil {
		logger.Printf("warning: %v", err)
	}
	s := rc.settings(cmd, cached)

	var problem error
	if rc.setup {
		var ok bool
		if s, ok, err = runSetup(s, nil); err != nil {
			return s, plan{}, err
		} else if !ok {
			return s, plan{}, errCancelled
		}
	}
	for {
		p, err := preparePlan(withLanguage(cfg, s.Language), s, rc.design, rng, logger)
		if err == nil {
			if err := engine.SaveCache(engine.CacheFile, s); err != nil {
				logger.Printf("warning: %v", err)
			}
			return s, p, nil
		}
		if !engine.IsConfigError(err) || !interactive() {
			return s, p, err
		}
		problem = err

		var ok bool
		if s, ok, err = runSetup(s, problem); err != nil {
			return s, plan{}, err
		} else if !ok {
			return s, plan{}, errCancelled
		}
	}
}

func withLanguage(cfg engine.Config, lang string) engine.Config {
	if lang != "" && lang != cfg.Language {
		cfg.Language = lang
		cfg.Texts = engine.TextsFor(lang)
	}
	return cfg
}

// newRunCmd creates the "cda run" subcommand.
func newRunCmd(opts *rootOptions) *cobra.Command {
	var rc runConfig

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a recorded session",
		Long:  "Runs one session of the task. Participant details and the trial list come from\nflags, the cached values of the previous session or the setup form.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rc.execute(cmd, opts, false)
		},
	}
	rc.register(cmd)
	cmd.Flags().BoolVar(&rc.practice, "practice", false, "run the instructions and practice blocks first")
	return cmd
}

// newPracticeCmd creates the "cda practice" subcommand.
func newPracticeCmd(opts *rootOptions) *cobra.Command {
	var rc runConfig

	cmd := &cobra.Command{
		Use:   "practice",
		Short: "Run the instructions and practice blocks",
		Long:  "Walks the participant through one paced trial, a few untimed trials and a timed\npractice block. The experimenter repeats the block with R or continues with C.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rc.execute(cmd, opts, true)
		},
	}
	rc.register(cmd)
	return cmd
}

func (rc *runConfig) execute(cmd *cobra.Command, opts *rootOptions, practiceOnly bool) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if rc.outputDir != "" {
		cfg.OutputDir = rc.outputDir
	}
	logger := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
	rng := newRand(rc.seed)

	s, p, err := rc.resolve(cmd, cfg, rng, logger)
	if err != nil {
		return err
	}
	cfg = withLanguage(cfg, s.Language)

	trigger, closeTrigger := openTrigger(cfg, s.DLPDevice, logger)
	defer closeTrigger()

	reg := openRegistry(cfg.Registry, logger)
	if reg != nil {
		defer reg.Close()
	}

	win, release, err := openScreen(cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	ss := &session{
		cfg:      cfg,
		mode:     p.mode,
		settings: s,
		design:   p.design,
		trials:   p.trials,
		display:  win,
		input:    win,
		trigger:  trigger,
		clock:    engine.SystemClock{},
		registry: reg,
		rng:      rng,
		logger:   logger,
		out:      cmd.OutOrStdout(),
		now:      time.Now,
	}
	return ss.execute(cmd.Context(), win, practiceOnly || rc.practice, practiceOnly)
}

// splasher shows a start or end image.
type splasher interface {
	Splash(ctx context.Context, path string) (bool, error)
}

func (s *session) execute(ctx context.Context, sp splasher, practice, practiceOnly bool) error {
	if ok, err := sp.Splash(ctx, s.cfg.StartSplash); err != nil {
		s.logger.Printf("warning: %v", err)
	} else if !ok {
		return nil
	}

	if practice {
		quit, err := s.walkthrough(ctx)
		if err != nil || quit || practiceOnly {
			return err
		}
	}

	out, err := s.run(ctx)
	mode, perr := engine.ParseSummaryMode(s.cfg.SummaryMode)
	if perr != nil {
		mode = engine.AccuracyMode
	}
	report(s.out, out, mode)
	if err != nil {
		return err
	}

	if out.status == engine.StatusFinished {
		if _, err := sp.Splash(ctx, s.cfg.EndSplash); err != nil {
			s.logger.Printf("warning: %v", err)
		}
	}
	return nil
}
