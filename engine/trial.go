package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const (
	CueLeft  = "left"
	CueRight = "right"

	ProbeSame   = "same"
	ProbeChange = "change"

	// NoResponse is the label recorded when the probe deadline passes.
	NoResponse = "none"
)

// TimeLayout is the onset timestamp format, always UTC.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// Phase is one stage of a trial.
type Phase int

const (
	PhaseITI Phase = iota
	PhaseCue
	PhaseSOA
	PhaseArray
	PhaseRetention
	PhaseProbe
)

var phaseNames = [...]string{"iti", "cue", "soa", "array", "retention", "probe"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// TrialColumns is the persisted column order. It follows the field order of
// Trial.
var TrialColumns = []string{
	"cue_side", "block", "num_targets", "num_distractors", "probe_type", "condition", "cue_code",
	"positions", "orientations", "colors", "target_indices", "probe_index", "probe_orientation",
	"no_block", "no_total",
	"iti_time", "cue_time", "soa_time", "array_time", "retention_time", "probe_time",
	"response", "correct", "reaction_time",
	"exp_phase", "date", "session", "frame_rate", "exp_name", "participant", "response_device",
}

// Trial is one change-detection trial. The design fields are fixed by the
// factory; the sequencer fills in onsets and the response.
type Trial struct {
	CueSide          string   `json:"cue_side"`
	Block            int      `json:"block"`
	NumTargets       int      `json:"num_targets"`
	NumDistractors   int      `json:"num_distractors"`
	ProbeType        string   `json:"probe_type"`
	Condition        int      `json:"condition"`
	CueCode          int      `json:"cue_code"`
	Positions        []Point  `json:"positions"`
	Orientations     []int    `json:"orientations"`
	Colors           []string `json:"colors"`
	TargetIndices    []int    `json:"target_indices"`
	ProbeIndex       int      `json:"probe_index"`
	ProbeOrientation int      `json:"probe_orientation"`
	NoBlock          int      `json:"no_block"`
	NoTotal          int      `json:"no_total"`

	Onsets [6]time.Time `json:"-"`

	Response     string        `json:"-"`
	Correct      int           `json:"-"`
	ReactionTime time.Duration `json:"-"`
	Responded    bool          `json:"-"`
	Scored       bool          `json:"-"`

	RunInfo `json:"-"`
}

// RunInfo is stamped onto every trial of a run.
type RunInfo struct {
	ExpPhase       string
	Date           string
	Session        string
	FrameRate      float64
	ExpName        string
	Participant    string
	ResponseDevice string
}

// Side returns the cued hemifield.
func (t *Trial) Side() Hemifield {
	if t.CueSide == CueLeft {
		return Left
	}
	return Right
}

// MarkOnset records the onset of phase p. Only the first call per phase
// has an effect.
func (t *Trial) MarkOnset(p Phase, at time.Time) {
	if !t.Onsets[p].IsZero() {
		return
	}
	t.Onsets[p] = at.UTC()
}

func (t *Trial) Onset(p Phase) time.Time {
	return t.Onsets[p]
}

func (t *Trial) Columns() []string {
	return TrialColumns
}

func (t *Trial) Values() []string {
	vals := []string{
		t.CueSide,
		strconv.Itoa(t.Block),
		strconv.Itoa(t.NumTargets),
		strconv.Itoa(t.NumDistractors),
		t.ProbeType,
		strconv.Itoa(t.Condition),
		strconv.Itoa(t.CueCode),
		jsonCell(t.Positions),
		jsonCell(t.Orientations),
		jsonCell(t.Colors),
		jsonCell(t.TargetIndices),
		strconv.Itoa(t.ProbeIndex),
		strconv.Itoa(t.ProbeOrientation),
		strconv.Itoa(t.NoBlock),
		strconv.Itoa(t.NoTotal),
	}
	for _, at := range t.Onsets {
		vals = append(vals, formatTime(at))
	}

	correct, rt := "", ""
	if t.Scored {
		correct = strconv.Itoa(t.Correct)
	}
	if t.Responded {
		rt = strconv.FormatFloat(t.ReactionTime.Seconds(), 'f', 6, 64)
	}
	return append(vals,
		t.Response,
		correct,
		rt,
		t.ExpPhase,
		t.Date,
		t.Session,
		strconv.FormatFloat(t.FrameRate, 'f', -1, 64),
		t.ExpName,
		t.Participant,
		t.ResponseDevice,
	)
}

func formatTime(at time.Time) string {
	if at.IsZero() {
		return ""
	}
	return at.UTC().Format(TimeLayout)
}

func jsonCell(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// ParseTrial rebuilds a trial from one row of a data file keyed by column
// name. Unknown columns are ignored and missing ones stay zero.
func ParseTrial(rec map[string]string) (*Trial, error) {
	t := &Trial{
		CueSide:   rec["cue_side"],
		ProbeType: rec["probe_type"],
		Response:  rec["response"],
		RunInfo: RunInfo{
			ExpPhase:       rec["exp_phase"],
			Date:           rec["date"],
			Session:        rec["session"],
			ExpName:        rec["exp_name"],
			Participant:    rec["participant"],
			ResponseDevice: rec["response_device"],
		},
	}

	ints := []struct {
		col string
		dst *int
	}{
		{"block", &t.Block},
		{"num_targets", &t.NumTargets},
		{"num_distractors", &t.NumDistractors},
		{"condition", &t.Condition},
		{"cue_code", &t.CueCode},
		{"probe_index", &t.ProbeIndex},
		{"probe_orientation", &t.ProbeOrientation},
		{"no_block", &t.NoBlock},
		{"no_total", &t.NoTotal},
	}
	for _, f := range ints {
		s := rec[f.col]
		if s == "" {
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", f.col, err)
		}
		*f.dst = v
	}

	lists := []struct {
		col string
		dst any
	}{
		{"positions", &t.Positions},
		{"orientations", &t.Orientations},
		{"colors", &t.Colors},
		{"target_indices", &t.TargetIndices},
	}
	for _, f := range lists {
		s := rec[f.col]
		if s == "" {
			continue
		}
		if err := json.Unmarshal([]byte(s), f.dst); err != nil {
			return nil, fmt.Errorf("column %s: %w", f.col, err)
		}
	}

	for p := PhaseITI; p <= PhaseProbe; p++ {
		s := rec[p.String()+"_time"]
		if s == "" {
			continue
		}
		at, err := time.Parse(TimeLayout, s)
		if err != nil {
			return nil, fmt.Errorf("column %s_time: %w", p, err)
		}
		t.Onsets[p] = at
	}

	if s := rec["correct"]; s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("column correct: %w", err)
		}
		t.Correct = v
		t.Scored = true
	}
	if s := rec["reaction_time"]; s != "" {
		secs, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("column reaction_time: %w", err)
		}
		t.ReactionTime = time.Duration(secs * float64(time.Second))
		t.Responded = true
	}
	if s := rec["frame_rate"]; s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("column frame_rate: %w", err)
		}
		t.FrameRate = v
	}
	return t, nil
}
