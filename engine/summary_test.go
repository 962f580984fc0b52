package engine

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func outcome(targets, distractors int, probe string, correct int) *Trial {
	tr := &Trial{NumTargets: targets, NumDistractors: distractors, ProbeType: probe, Correct: correct, Scored: true}
	tr.Response = probe
	if correct == 0 {
		tr.Response = map[string]string{ProbeSame: ProbeChange, ProbeChange: ProbeSame}[probe]
	}
	tr.Responded = true
	tr.ReactionTime = 500 * time.Millisecond
	return tr
}

func TestRate(t *testing.T) {
	if got := ratio(1, 0); got.Valid {
		t.Errorf("expected undefined rate, got %v", got)
	}
	if got := ratio(0, 0).Percent(); got != "undefined" {
		t.Errorf("expected undefined, got %q", got)
	}
	if got := ratio(1, 3).Percent(); got != "33.33%" {
		t.Errorf("expected 33.33%%, got %q", got)
	}
	if got := ratio(3, 4).Format(3); got != "0.750" {
		t.Errorf("expected 0.750, got %q", got)
	}
}

func TestSummarize(t *testing.T) {
	trials := []*Trial{
		outcome(3, 2, ProbeChange, 1),
		outcome(1, 0, ProbeChange, 1),
		outcome(1, 0, ProbeChange, 0),
		outcome(1, 0, ProbeSame, 1),
		outcome(1, 0, ProbeSame, 1),
		outcome(3, 2, ProbeSame, 0),
	}
	trials[5].Responded = false
	trials[5].Response = NoResponse

	s := Summarize(trials)
	if len(s.Cells) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(s.Cells))
	}
	small, large := s.Cells[0], s.Cells[1]
	if small.Targets != 1 || large.Targets != 3 || large.Distractors != 2 {
		t.Fatalf("cells out of order: %+v %+v", small, large)
	}

	if small.Accuracy.Value != 0.75 || small.HitRate.Value != 0.5 || small.FalseAlarm.Value != 0 {
		t.Errorf("small cell: acc=%v hr=%v fa=%v", small.Accuracy, small.HitRate, small.FalseAlarm)
	}
	if small.KTargets.Value != 0.5 || small.KAll.Value != 0.5 {
		t.Errorf("small cell: K=%v K(T+D)=%v", small.KTargets, small.KAll)
	}
	if large.HitRate.Value != 1 || large.FalseAlarm.Value != 1 || large.KAll.Value != 0 {
		t.Errorf("large cell: hr=%v fa=%v K(T+D)=%v", large.HitRate, large.FalseAlarm, large.KAll)
	}
	if math.Abs(large.MeanRT.Value-0.5) > 1e-9 {
		t.Errorf("expected mean rt over answered trials only, got %v", large.MeanRT)
	}
	if s.Trials != 6 || s.Correct != 4 {
		t.Errorf("expected 4 of 6 correct, got %d of %d", s.Correct, s.Trials)
	}
}

func TestSummarizeUndefinedHitRate(t *testing.T) {
	s := Summarize([]*Trial{outcome(2, 0, ProbeSame, 1)})
	c := s.Cells[0]
	if c.HitRate.Valid || c.KTargets.Valid || c.KAll.Valid {
		t.Errorf("expected undefined hit rate and K, got %+v", c)
	}
	if !c.FalseAlarm.Valid || c.FalseAlarm.Value != 0 {
		t.Errorf("expected a false alarm rate of 0, got %v", c.FalseAlarm)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if len(s.Cells) != 0 || s.Accuracy.Valid {
		t.Errorf("expected an empty summary, got %+v", s)
	}
	var b strings.Builder
	if err := s.WriteText(&b, AccuracyMode); err != nil {
		t.Fatal(err)
	}
	if want := "Accuracy for each class:\nFinal accuracy: undefined\n"; b.String() != want {
		t.Errorf("expected %q, got %q", want, b.String())
	}
}

func TestWriteText(t *testing.T) {
	s := Summarize([]*Trial{
		outcome(1, 0, ProbeChange, 1),
		outcome(1, 0, ProbeSame, 0),
		outcome(3, 2, ProbeChange, 1),
		outcome(3, 2, ProbeSame, 1),
	})

	var acc strings.Builder
	if err := s.WriteText(&acc, AccuracyMode); err != nil {
		t.Fatal(err)
	}
	want := "Accuracy for each class:\n" +
		"T=1, D=0: 50.00%\n" +
		"T=3, D=2: 100.00%\n" +
		"Final accuracy: 75.00%\n"
	if acc.String() != want {
		t.Errorf("accuracy mode:\nexpected %q\ngot      %q", want, acc.String())
	}

	var wmc strings.Builder
	if err := s.WriteText(&wmc, WMCMode); err != nil {
		t.Fatal(err)
	}
	want = "Accuracy for each class:\n" +
		"T=1, D=0: 50.00%, HR=1.000, FA=1.000, K=0.00\n" +
		"T=3, D=2: 100.00%, HR=1.000, FA=0.000, K=3.00, K(T+D)=5.00\n" +
		"Final accuracy: 75.00%\n"
	if wmc.String() != want {
		t.Errorf("wmc mode:\nexpected %q\ngot      %q", want, wmc.String())
	}
}

func TestEvaluation(t *testing.T) {
	s := Summarize([]*Trial{
		outcome(1, 0, ProbeChange, 1),
		outcome(1, 0, ProbeSame, 0),
		outcome(3, 2, ProbeChange, 1),
	})
	want := "SS1+0: 50.00 % of 2 trials\nSS3+2: 100.00 % of 1 trials"
	if got := s.Evaluation(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestParseSummaryMode(t *testing.T) {
	if m, err := ParseSummaryMode("wmc"); err != nil || m != WMCMode {
		t.Errorf("expected wmc, got %q %v", m, err)
	}
	if _, err := ParseSummaryMode("dprime"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestWriteResults(t *testing.T) {
	data := filepath.Join(t.TempDir(), "AB 01 x y C1-LKE-D1 01-03-2024 09-00-00.csv")
	s := Summarize([]*Trial{outcome(1, 0, ProbeChange, 1)})

	path, err := WriteResults(data, s, AccuracyMode)
	if err != nil {
		t.Fatalf("WriteResults: %v", err)
	}
	if !strings.HasSuffix(path, "09-00-00-results.csv") {
		t.Errorf("unexpected results path %s", path)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(got), "Accuracy for each class:\nT=1, D=0: 100.00%\n") {
		t.Errorf("unexpected report %q", got)
	}
}
