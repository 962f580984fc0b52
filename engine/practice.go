package engine

import (
	"context"
	"fmt"
	"slices"
)

const maxPracticeDraws = 100

// PracticeTrials draws full-factorial blocks of d and picks, in order, one
// trial for each wanted condition code.
func PracticeTrials(f *Factory, d Design, conditions []int) ([]*Trial, error) {
	d.RandomProbeAndCue = false
	d.Blocks = 1
	if len(conditions) == 0 {
		return nil, configErr("practice_conditions", fmt.Errorf("%w: empty", ErrInvalidConfig))
	}
	for _, c := range conditions {
		if c < 1 || c > 16 {
			return nil, configErr("practice_conditions", fmt.Errorf("%w: condition %d outside 1..16", ErrInvalidConfig, c))
		}
	}

	want := slices.Clone(conditions)
	var picked []*Trial
	for draw := 0; len(want) > 0; draw++ {
		if draw == maxPracticeDraws {
			return nil, configErr("practice_conditions", fmt.Errorf("%w: design never produces condition %d", ErrInvalidConfig, want[0]))
		}
		trials, err := f.Generate(d)
		if err != nil {
			return nil, err
		}
		for _, t := range trials {
			if len(want) > 0 && t.Condition == want[0] {
				picked = append(picked, t)
				want = want[1:]
			}
		}
	}
	for i, t := range picked {
		t.Block, t.NoBlock, t.NoTotal = 1, i+1, i
	}
	return picked, nil
}

// Walkthrough is the instruction and practice sequence run before the
// experiment: a paced trial with an explanation of every phase, trials with
// untimed responses, then a timed practice block the experimenter can repeat.
type Walkthrough struct {
	Config  Config
	Factory *Factory
	// Design provides the set sizes for the demonstration trials.
	Design Design
	// Sequencer builds a sequencer for one mode.
	Sequencer func(Mode) (*Sequencer, error)
	// Evaluated is called with the summary of each timed practice block.
	Evaluated func(Summary)
}

// Run executes the walkthrough until the experimenter continues. It reports
// whether the operator quit.
func (w *Walkthrough) Run(ctx context.Context) (bool, error) {
	for {
		again, quit, err := w.round(ctx)
		if err != nil || quit {
			return quit, err
		}
		if !again {
			return false, nil
		}
	}
}

func (w *Walkthrough) round(ctx context.Context) (again, quit bool, err error) {
	texts := w.Config.Texts
	demo, err := PracticeTrials(w.Factory, w.Design, w.Config.PracticeConditions)
	if err != nil {
		return false, false, err
	}

	paced, err := w.sequencer("pace_all")
	if err != nil {
		return false, false, err
	}
	if quit, err := w.ask(ctx, paced, texts.Intro); quit || err != nil {
		return false, quit, err
	}
	if res, err := paced.Run(ctx, demo[:1]); err != nil || res.Aborted {
		return false, res.Aborted, err
	}

	untimed, err := w.sequencer("pace_array")
	if err != nil {
		return false, false, err
	}
	for _, text := range []string{texts.Practice0, texts.Practice1} {
		if quit, err := w.ask(ctx, untimed, text); quit || err != nil {
			return false, quit, err
		}
	}
	if res, err := untimed.Run(ctx, demo[1:]); err != nil || res.Aborted {
		return false, res.Aborted, err
	}

	timed, err := w.sequencer("practice")
	if err != nil {
		return false, false, err
	}
	if quit, err := w.ask(ctx, timed, texts.Practice2); quit || err != nil {
		return false, quit, err
	}
	trials, err := w.Factory.Generate(w.Config.Practice)
	if err != nil {
		return false, false, err
	}
	res, err := timed.Run(ctx, trials)
	if err != nil || res.Aborted {
		return false, res.Aborted, err
	}

	s := Summarize(res.Completed)
	if w.Evaluated != nil {
		w.Evaluated(s)
	}
	code, err := timed.Choose(ctx, s.Evaluation(), texts.Evaluation, []string{"r", "c"})
	if err != nil {
		return false, false, err
	}
	if w.Config.Response.IsQuit(code) {
		return false, true, nil
	}
	return code == "r", false, nil
}

func (w *Walkthrough) sequencer(name string) (*Sequencer, error) {
	m, err := ModeByName(name)
	if err != nil {
		return nil, err
	}
	return w.Sequencer(m)
}

func (w *Walkthrough) ask(ctx context.Context, s *Sequencer, text string) (bool, error) {
	code, err := s.Ask(ctx, text)
	if err != nil {
		return false, err
	}
	return w.Config.Response.IsQuit(code), nil
}
