package engine

import (
	"fmt"
	"slices"
	"time"
)

// ResponseDevice maps raw input codes to answers. Codes are strings so mouse
// buttons ("0", "2") and key names ("left", "escape") share one table.
type ResponseDevice struct {
	Name    string            `yaml:"name"`
	Answers map[string]string `yaml:"answers"`
	Advance []string          `yaml:"advance"`
	Quit    []string          `yaml:"quit"`
}

// MouseDevice is the lab default: left button means change, right means same.
func MouseDevice() ResponseDevice {
	return ResponseDevice{
		Name:    "mouse",
		Answers: map[string]string{"0": ProbeChange, "2": ProbeSame},
		Advance: []string{"0"},
		Quit:    []string{"escape"},
	}
}

func KeyboardDevice() ResponseDevice {
	return ResponseDevice{
		Name:    "keyboard",
		Answers: map[string]string{"left": ProbeChange, "right": ProbeSame},
		Advance: []string{"space", "return"},
		Quit:    []string{"escape"},
	}
}

func (d ResponseDevice) Validate() error {
	if len(d.Answers) == 0 {
		return fmt.Errorf("%w: device %q has no answer buttons", ErrInvalidConfig, d.Name)
	}
	for code, label := range d.Answers {
		if label != ProbeSame && label != ProbeChange {
			return fmt.Errorf("%w: button %q maps to %q", ErrInvalidConfig, code, label)
		}
		if slices.Contains(d.Quit, code) {
			return fmt.Errorf("%w: button %q is both an answer and quit", ErrInvalidConfig, code)
		}
	}
	if len(d.Advance) == 0 {
		return fmt.Errorf("%w: device %q has no advance button", ErrInvalidConfig, d.Name)
	}
	return nil
}

// AnswerCodes lists the codes that count as a response, sorted.
func (d ResponseDevice) AnswerCodes() []string {
	codes := make([]string, 0, len(d.Answers))
	for c := range d.Answers {
		codes = append(codes, c)
	}
	slices.Sort(codes)
	return codes
}

// Label returns the answer for a raw code, or NoResponse for a timeout or
// an unmapped code.
func (d ResponseDevice) Label(code string, ok bool) string {
	if !ok {
		return NoResponse
	}
	if l, found := d.Answers[code]; found {
		return l
	}
	return NoResponse
}

func (d ResponseDevice) IsQuit(code string) bool {
	return slices.Contains(d.Quit, code)
}

// Score records the response on t. A timeout is scored incorrect and leaves
// the reaction time empty. Later calls are ignored.
func (d ResponseDevice) Score(t *Trial, code string, ok bool, rt time.Duration) {
	if t.Scored {
		return
	}
	label := d.Label(code, ok)
	t.Response = label
	t.Scored = true
	if label == t.ProbeType {
		t.Correct = 1
	}
	if label != NoResponse {
		t.ReactionTime = rt
		t.Responded = true
	}
}
