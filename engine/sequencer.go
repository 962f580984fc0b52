package engine

import (
	"context"
	"fmt"
	"log"
	"slices"
	"time"
)

// Input delivers participant and operator presses as device codes.
type Input interface {
	// Poll returns and consumes the oldest pending press among codes. It never
	// blocks.
	Poll(codes []string) (string, bool)
	// Wait blocks until one of codes is pressed.
	Wait(ctx context.Context, codes []string) (string, error)
	// Clear drops all pending presses.
	Clear()
	// Discard drops pending presses among codes and keeps the rest.
	Discard(codes []string)
}

// Sink receives finished trials.
type Sink interface {
	Append(Row) error
}

// Mode selects durations and behaviour of one run.
type Mode struct {
	Name      string
	Durations string
	// Triggers enables the hardware line.
	Triggers bool
	// Timed ends the probe at its deadline; otherwise it waits for a response.
	Timed bool
	// Paced shows an instruction on the first frame of each phase and waits
	// for the advance button. No response is collected.
	Paced bool
}

var modes = map[string]Mode{
	"experiment": {Name: "experiment", Durations: "experiment", Triggers: true, Timed: true},
	"practice":   {Name: "practice", Durations: "practice", Timed: true},
	"pace_all":   {Name: "pace_all", Durations: "practice", Paced: true},
	"pace_array": {Name: "pace_array", Durations: "practice"},
}

func ModeByName(name string) (Mode, error) {
	m, ok := modes[name]
	if !ok {
		return Mode{}, configErr("mode", fmt.Errorf("%w: %q", ErrUnknownMode, name))
	}
	return m, nil
}

// Result is what a run reports back to its caller.
type Result struct {
	Completed []*Trial
	Aborted   bool
}

// Sequencer presents trials phase by phase.
type Sequencer struct {
	cfg     Config
	mode    Mode
	dur     Durations
	display Display
	input   Input
	trigger Trigger
	clock   Clock
	sink    Sink
	logger  *log.Logger
	queue   FlipQueue

	info        RunInfo
	triggerDown bool

	// OnTrial is called after each trial is persisted.
	OnTrial func(done, total int, t *Trial)
}

type SequencerOption func(*Sequencer)

func WithTrigger(t Trigger) SequencerOption {
	return func(s *Sequencer) { s.trigger = t }
}

func WithClock(c Clock) SequencerOption {
	return func(s *Sequencer) { s.clock = c }
}

func WithLogger(l *log.Logger) SequencerOption {
	return func(s *Sequencer) { s.logger = l }
}

func WithRunInfo(info RunInfo) SequencerOption {
	return func(s *Sequencer) { s.info = info }
}

func NewSequencer(cfg Config, mode Mode, display Display, input Input, sink Sink, opts ...SequencerOption) (*Sequencer, error) {
	dur, ok := cfg.Durations[mode.Durations]
	if !ok {
		return nil, configErr("durations", fmt.Errorf("%w: no %q table", ErrInvalidConfig, mode.Durations))
	}
	s := &Sequencer{
		cfg:     cfg,
		mode:    mode,
		dur:     dur,
		display: display,
		input:   input,
		trigger: NopTrigger{},
		clock:   SystemClock{},
		sink:    sink,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.info.ExpPhase = mode.Name
	if s.info.ExpName == "" {
		s.info.ExpName = cfg.ExpName
	}
	if s.info.FrameRate == 0 {
		s.info.FrameRate = cfg.FrameRate
	}
	if s.info.ResponseDevice == "" {
		s.info.ResponseDevice = cfg.Response.Name
	}
	return s, nil
}

// Run presents trials in order. The quit button and ctx are checked between
// trials, after the current one is persisted. A quit ends the run with
// Aborted set and a nil error. Write and display failures end it with an
// error.
func (s *Sequencer) Run(ctx context.Context, trials []*Trial) (Result, error) {
	var res Result
	dev := s.cfg.Response
	s.input.Clear()

	for i, t := range trials {
		t.RunInfo = s.info

		if t.NoBlock == 1 && t.Block > 1 {
			code, err := s.Ask(ctx, s.cfg.Texts.Break)
			if err != nil {
				return res, err
			}
			if dev.IsQuit(code) {
				res.Aborted = true
				return res, nil
			}
		}

		if err := s.runTrial(ctx, t); err != nil {
			return res, fmt.Errorf("trial %d: %w", t.NoTotal, err)
		}

		if err := s.sink.Append(t); err != nil {
			return res, fmt.Errorf("persist trial %d: %w", t.NoTotal, err)
		}
		res.Completed = append(res.Completed, t)
		if s.OnTrial != nil {
			s.OnTrial(i+1, len(trials), t)
		}

		if _, quit := s.input.Poll(dev.Quit); quit || ctx.Err() != nil {
			s.logger.Printf("run %s stopped after %d of %d trials", s.mode.Name, i+1, len(trials))
			res.Aborted = true
			return res, nil
		}
	}
	return res, nil
}

// Ask shows text with the continue prompt and waits for the advance or quit
// button. Presses during the first InstructionDelay are ignored.
func (s *Sequencer) Ask(ctx context.Context, text string) (string, error) {
	if _, err := Flip(s.display, &s.queue, Scene{Text: text, Prompt: s.cfg.Texts.Continue}); err != nil {
		return "", err
	}
	return s.awaitAdvance(ctx)
}

// Choose shows text and prompt and waits for one of codes or the quit button.
func (s *Sequencer) Choose(ctx context.Context, text, prompt string, codes []string) (string, error) {
	if _, err := Flip(s.display, &s.queue, Scene{Text: text, Prompt: prompt}); err != nil {
		return "", err
	}
	s.input.Clear()
	return s.input.Wait(ctx, append(slices.Clone(codes), s.cfg.Response.Quit...))
}

func (s *Sequencer) awaitAdvance(ctx context.Context) (string, error) {
	s.clock.Sleep(s.cfg.InstructionDelay)
	s.input.Clear()
	dev := s.cfg.Response
	codes := append(slices.Clone(dev.Advance), dev.Quit...)
	return s.input.Wait(ctx, codes)
}

func (s *Sequencer) runTrial(ctx context.Context, t *Trial) error {
	fix := Scene{Fixation: true}

	cue := fix
	cue.Arrow = t.Side()
	cue.Patch = true

	array := fix
	array.Patch = true
	array.Rects = rects(t, false)

	probe := array
	probe.Rects = rects(t, true)

	steps := []struct {
		phase  Phase
		scene  Scene
		frames int
		line   byte
		intro  string
	}{
		{PhaseITI, fix, s.dur.ITI, 0, s.cfg.Texts.IntroFix},
		{PhaseCue, cue, s.dur.Cue, s.cfg.Triggers.CueLine(t.CueSide), s.cfg.Texts.IntroCue},
		{PhaseSOA, fix, s.dur.SOA, 0, ""},
		{PhaseArray, array, s.dur.Array, s.cfg.Triggers.ArrayLine(t.ProbeType), s.cfg.Texts.IntroArray},
		{PhaseRetention, fix, s.dur.Retention, 0, s.cfg.Texts.IntroRetention},
	}
	for _, st := range steps {
		if err := s.framePhase(ctx, t, st.phase, st.scene, st.frames, st.line, st.intro); err != nil {
			return err
		}
	}
	return s.probePhase(ctx, t, probe)
}

// framePhase shows scene for exactly frames flips. The onset and the line
// code go out with the first flip; the line is cleared on the second.
func (s *Sequencer) framePhase(ctx context.Context, t *Trial, p Phase, scene Scene, frames int, line byte, intro string) error {
	scene.Phase = p
	s.queue.CallOnFlip(func(at time.Time) { t.MarkOnset(p, at) })
	if line != 0 && s.mode.Triggers {
		s.queue.CallOnFlip(func(time.Time) { s.send(line) })
	}

	for frame := 0; frame < frames; frame++ {
		sc := scene
		paced := frame == 0 && s.mode.Paced && intro != ""
		if paced {
			sc.Text = intro
			sc.Prompt = s.cfg.Texts.Continue
		}
		if _, err := Flip(s.display, &s.queue, sc); err != nil {
			return fmt.Errorf("%s frame %d: %w", p, frame, err)
		}
		if frame == 0 && line != 0 && s.mode.Triggers {
			s.queue.CallOnFlip(func(time.Time) { s.send(0) })
		}
		if paced {
			if _, err := s.awaitAdvance(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Sequencer) probePhase(ctx context.Context, t *Trial, scene Scene) error {
	scene.Phase = PhaseProbe
	period := s.cfg.FramePeriod()
	dev := s.cfg.Response

	s.queue.CallOnFlip(func(at time.Time) { t.MarkOnset(PhaseProbe, at) })
	if s.mode.Triggers {
		s.queue.CallOnFlip(func(time.Time) { s.send(s.cfg.Triggers.ProbeLine()) })
	}
	if s.mode.Paced {
		scene.Text = s.cfg.Texts.IntroProbe
		scene.Prompt = s.cfg.Texts.Continue
	}
	onset, err := Flip(s.display, &s.queue, scene)
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	// Only presses after probe onset answer the trial. A pending quit stays
	// for the check after the trial.
	answers := dev.AnswerCodes()
	s.input.Discard(answers)

	s.clock.Sleep(period)
	if s.mode.Triggers {
		s.send(0)
	}

	if s.mode.Paced {
		_, err := s.awaitAdvance(ctx)
		return err
	}

	deadline := onset.Add(time.Duration(s.dur.Probe)*period - s.cfg.LatencyMargin)

	var (
		code string
		ok   bool
	)
	if s.mode.Timed {
		code, ok = s.pollUntil(answers, deadline)
	} else {
		code, err = s.input.Wait(ctx, answers)
		if err != nil {
			return err
		}
		ok = true
	}

	if !ok {
		dev.Score(t, "", false, 0)
		return nil
	}

	rt := s.clock.Now().Sub(onset)
	if ans, found := s.cfg.Triggers.AnswerCode(code); found && s.mode.Triggers {
		s.send(ans)
		s.clock.Sleep(period)
		s.send(0)
	} else {
		s.clock.Sleep(period)
	}
	dev.Score(t, code, true, rt)

	if s.mode.Timed {
		s.clock.Sleep(deadline.Sub(s.clock.Now()))
	}
	return nil
}

const pollInterval = time.Millisecond

// pollUntil polls for a press among codes until deadline.
func (s *Sequencer) pollUntil(codes []string, deadline time.Time) (string, bool) {
	for {
		if code, ok := s.input.Poll(codes); ok {
			return code, true
		}
		left := deadline.Sub(s.clock.Now())
		if left <= 0 {
			return "", false
		}
		s.clock.Sleep(min(left, pollInterval))
	}
}

// send writes a line code. The first failure is logged and later ones are
// dropped; the run goes on without triggers.
func (s *Sequencer) send(code byte) {
	if err := s.trigger.Send(code); err != nil && !s.triggerDown {
		s.triggerDown = true
		s.logger.Printf("warning: trigger line failed, continuing without it: %v", err)
	}
}

func rects(t *Trial, probe bool) []Rect {
	out := make([]Rect, len(t.Positions))
	for i, pos := range t.Positions {
		ori := t.Orientations[i]
		if probe && i == t.ProbeIndex {
			ori = t.ProbeOrientation
		}
		out[i] = Rect{Pos: pos, Ori: ori, Color: t.Colors[i]}
	}
	return out
}
