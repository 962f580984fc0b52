package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pe-ge/cda/engine"
)

type setupField struct {
	label string
	help  string
}

const (
	fieldInitials = iota
	fieldID
	fieldCondition
	fieldTimePoint
	fieldCohort
	fieldLocation
	fieldPreset
	fieldTrialsFile
	fieldVisit
	fieldMode
	fieldDLP
	fieldLanguage
)

var setupFields = []setupField{
	fieldInitials:   {"Initials", ""},
	fieldID:         {"ID", ""},
	fieldCondition:  {"Condition", ""},
	fieldTimePoint:  {"Time point", ""},
	fieldCohort:     {"Cohort", ""},
	fieldLocation:   {"Location", strings.Join(engine.Locations, " or ")},
	fieldPreset:     {"Preset", "number from the list below, empty for a trials file"},
	fieldTrialsFile: {"Trials file", "used when no preset is chosen"},
	fieldVisit:      {"Visit", "1-based index into the trials file"},
	fieldMode:       {"Mode", "experiment, practice, pace_all or pace_array"},
	fieldDLP:        {"DLP device", "empty runs without triggers"},
	fieldLanguage:   {"Language", "en or sk"},
}

// setupModel is the session setup form. It only collects text; validation
// happens in the caller, which reopens the form with the error.
type setupModel struct {
	inputs    []textinput.Model
	focus     int
	problem   string
	done      bool
	cancelled bool
}

func newSetupModel(s engine.Settings, problem string) setupModel {
	vals := settingsValues(s)
	inputs := make([]textinput.Model, len(setupFields))
	for i := range inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 256
		ti.SetValue(vals[i])
		inputs[i] = ti
	}
	inputs[0].Focus()
	return setupModel{inputs: inputs, problem: problem}
}

// Init implements tea.Model.
func (m setupModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m setupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			if m.focus == len(m.inputs)-1 {
				m.done = true
				return m, tea.Quit
			}
			return m.move(1), nil
		case "tab", "down":
			return m.move(1), nil
		case "shift+tab", "up":
			return m.move(-1), nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m setupModel) move(delta int) setupModel {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	m.inputs[m.focus].Focus()
	return m
}

// View implements tea.Model.
func (m setupModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("CDA session setup") + "\n\n")
	for i, f := range setupFields {
		label := fmt.Sprintf("%-12s", f.label)
		if i == m.focus {
			label = titleStyle.Render(label)
		} else {
			label = mutedStyle.Render(label)
		}
		b.WriteString(label + " " + m.inputs[i].View())
		if i == m.focus && f.help != "" {
			b.WriteString("  " + mutedStyle.Render(f.help))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + mutedStyle.Render("Presets:") + "\n")
	for i, p := range engine.Presets {
		fmt.Fprintf(&b, "  %d  %s\n", i+1, p)
	}
	if m.problem != "" {
		b.WriteString("\n" + errorStyle.Render("✗ "+m.problem) + "\n")
	}
	b.WriteString("\n" + mutedStyle.Render("tab next • shift+tab back • enter on the last field starts • esc cancels") + "\n")
	return b.String()
}

func (m setupModel) values() []string {
	vals := make([]string, len(m.inputs))
	for i, in := range m.inputs {
		vals[i] = strings.TrimSpace(in.Value())
	}
	return vals
}

func settingsValues(s engine.Settings) []string {
	vals := make([]string, len(setupFields))
	p := s.Participant
	vals[fieldInitials] = p.Initials
	vals[fieldID] = p.ID
	vals[fieldCondition] = p.Condition
	vals[fieldTimePoint] = p.TimePoint
	vals[fieldCohort] = p.Cohort
	vals[fieldLocation] = p.Location
	if s.Preset > 0 {
		vals[fieldPreset] = strconv.Itoa(s.Preset)
	}
	vals[fieldTrialsFile] = s.TrialsFile
	if s.Visit > 0 {
		vals[fieldVisit] = strconv.Itoa(s.Visit)
	}
	vals[fieldMode] = s.Mode
	if vals[fieldMode] == "" {
		vals[fieldMode] = "experiment"
	}
	vals[fieldDLP] = s.DLPDevice
	vals[fieldLanguage] = s.Language
	return vals
}

// formSettings converts form values. On a bad number it still returns the
// rest of the values so the form can be reopened with them.
func formSettings(vals []string) (engine.Settings, error) {
	s := engine.Settings{
		Participant: engine.Participant{
			Initials:  vals[fieldInitials],
			ID:        vals[fieldID],
			Condition: vals[fieldCondition],
			TimePoint: vals[fieldTimePoint],
			Cohort:    vals[fieldCohort],
			Location:  strings.ToUpper(vals[fieldLocation]),
		},
		TrialsFile: vals[fieldTrialsFile],
		Mode:       vals[fieldMode],
		DLPDevice:  vals[fieldDLP],
		Language:   vals[fieldLanguage],
	}

	var err error
	s.Preset, err = formInt("preset", vals[fieldPreset])
	if err != nil {
		return s, err
	}
	if s.Preset < 0 || s.Preset > len(engine.Presets) {
		return s, &engine.ConfigError{Field: "preset", Err: fmt.Errorf("%w: choose 1 to %d", engine.ErrInvalidConfig, len(engine.Presets))}
	}
	s.Visit, err = formInt("visit", vals[fieldVisit])
	if err != nil {
		return s, err
	}
	return s, nil
}

func formInt(field, v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &engine.ConfigError{Field: field, Err: fmt.Errorf("%w: %q is not a number", engine.ErrInvalidConfig, v)}
	}
	return n, nil
}

// runSetup shows the form prefilled with s and the previous problem, if any.
// ok is false when the operator cancelled.
func runSetup(s engine.Settings, problem error) (engine.Settings, bool, error) {
	for {
		msg := ""
		if problem != nil {
			msg = problem.Error()
		}
		final, err := tea.NewProgram(newSetupModel(s, msg)).Run()
		if err != nil {
			return s, false, fmt.Errorf("setup form: %w", err)
		}
		m := final.(setupModel)
		if m.cancelled || !m.done {
			return s, false, nil
		}
		next, err := formSettings(m.values())
		if err != nil {
			s, problem = next, err
			continue
		}
		return next, true, nil
	}
}
