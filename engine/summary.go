package engine

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"
)

// Rate is a proportion that may be undefined when its denominator is zero.
type Rate struct {
	Value float64
	Valid bool
}

func ratio(num, den int) Rate {
	if den == 0 {
		return Rate{}
	}
	return Rate{Value: float64(num) / float64(den), Valid: true}
}

// Percent formats r as "12.34%" or "undefined".
func (r Rate) Percent() string {
	if !r.Valid {
		return "undefined"
	}
	return fmt.Sprintf("%.2f%%", 100*r.Value)
}

func (r Rate) Format(prec int) string {
	if !r.Valid {
		return "undefined"
	}
	return fmt.Sprintf("%.*f", prec, r.Value)
}

// SummaryMode selects which statistics the results file carries.
type SummaryMode string

const (
	AccuracyMode SummaryMode = "accuracy"
	WMCMode      SummaryMode = "wmc"
)

func ParseSummaryMode(s string) (SummaryMode, error) {
	switch SummaryMode(s) {
	case AccuracyMode, WMCMode:
		return SummaryMode(s), nil
	}
	return "", configErr("summary_mode", fmt.Errorf("%w: unknown summary mode %q", ErrInvalidConfig, s))
}

// Cell holds the statistics of one (targets, distractors) set size.
type Cell struct {
	Targets     int
	Distractors int

	Trials  int
	Correct int

	Changes       int
	ChangeCorrect int
	Sames         int
	SameCorrect   int

	rtSum   time.Duration
	rtCount int

	Accuracy   Rate
	HitRate    Rate
	FalseAlarm Rate
	// KTargets is Cowan's K over the targets; KAll counts distractors too.
	KTargets Rate
	KAll     Rate
	// MeanRT is in seconds, over trials with a response.
	MeanRT Rate
}

type Summary struct {
	Cells    []Cell
	Trials   int
	Correct  int
	Accuracy Rate
}

// Summarize groups trials by set size, ordered by 100*targets+distractors.
func Summarize(trials []*Trial) Summary {
	byKey := map[int]*Cell{}
	var s Summary
	for _, t := range trials {
		key := 100*t.NumTargets + t.NumDistractors
		c, ok := byKey[key]
		if !ok {
			c = &Cell{Targets: t.NumTargets, Distractors: t.NumDistractors}
			byKey[key] = c
		}
		c.Trials++
		c.Correct += t.Correct
		switch t.ProbeType {
		case ProbeChange:
			c.Changes++
			c.ChangeCorrect += t.Correct
		case ProbeSame:
			c.Sames++
			c.SameCorrect += t.Correct
		}
		if t.Responded {
			c.rtSum += t.ReactionTime
			c.rtCount++
		}
		s.Trials++
		s.Correct += t.Correct
	}

	keys := make([]int, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		c := byKey[k]
		c.Accuracy = ratio(c.Correct, c.Trials)
		c.HitRate = ratio(c.ChangeCorrect, c.Changes)
		sameRate := ratio(c.SameCorrect, c.Sames)
		if sameRate.Valid {
			c.FalseAlarm = Rate{Value: 1 - sameRate.Value, Valid: true}
		}
		if c.HitRate.Valid && c.FalseAlarm.Valid {
			d := c.HitRate.Value - c.FalseAlarm.Value
			c.KTargets = Rate{Value: float64(c.Targets) * d, Valid: true}
			c.KAll = Rate{Value: float64(c.Targets+c.Distractors) * d, Valid: true}
		}
		if c.rtCount > 0 {
			c.MeanRT = Rate{Value: c.rtSum.Seconds() / float64(c.rtCount), Valid: true}
		}
		s.Cells = append(s.Cells, *c)
	}
	s.Accuracy = ratio(s.Correct, s.Trials)
	return s
}

// WriteText writes the results report: one line per cell and the overall
// accuracy. WMC mode adds hit rate, false alarm rate and K; K over targets
// plus distractors is only listed when it differs.
func (s Summary) WriteText(w io.Writer, mode SummaryMode) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "Accuracy for each class:")
	for _, c := range s.Cells {
		fmt.Fprintf(bw, "T=%d, D=%d: %s", c.Targets, c.Distractors, c.Accuracy.Percent())
		if mode == WMCMode {
			fmt.Fprintf(bw, ", HR=%s, FA=%s, K=%s", c.HitRate.Format(3), c.FalseAlarm.Format(3), c.KTargets.Format(2))
			if c.Distractors != 0 {
				fmt.Fprintf(bw, ", K(T+D)=%s", c.KAll.Format(2))
			}
		}
		fmt.Fprintln(bw)
	}
	fmt.Fprintf(bw, "Final accuracy: %s\n", s.Accuracy.Percent())
	return bw.Flush()
}

// Evaluation is the practice feedback shown to the experimenter.
func (s Summary) Evaluation() string {
	lines := make([]string, 0, len(s.Cells))
	for _, c := range s.Cells {
		acc := "undefined"
		if c.Accuracy.Valid {
			acc = fmt.Sprintf("%.2f", 100*c.Accuracy.Value)
		}
		lines = append(lines, fmt.Sprintf("SS%d+%d: %s %% of %d trials", c.Targets, c.Distractors, acc, c.Trials))
	}
	return strings.Join(lines, "\n")
}

// ResultsPath is the results file that goes with a data file.
func ResultsPath(dataPath string) string {
	return strings.TrimSuffix(dataPath, ".csv") + "-results.csv"
}

// WriteResults writes the report for s next to dataPath and returns its path.
func WriteResults(dataPath string, s Summary, mode SummaryMode) (string, error) {
	path := ResultsPath(dataPath)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create results file: %w", err)
	}
	if err := s.WriteText(f, mode); err != nil {
		f.Close()
		return "", fmt.Errorf("write results file: %w", err)
	}
	return path, f.Close()
}
