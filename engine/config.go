package engine

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Durations are phase lengths in rendered frames.
type Durations struct {
	ITI       int `yaml:"iti"`
	Cue       int `yaml:"cue"`
	SOA       int `yaml:"soa"`
	Array     int `yaml:"array"`
	Retention int `yaml:"retention"`
	Probe     int `yaml:"probe"`
}

// Field is the stimulus placement geometry, in cm.
type Field struct {
	MinDist    float64 `yaml:"min_dist"`
	Height     float64 `yaml:"height"`
	Width      float64 `yaml:"width"`
	CenterDist float64 `yaml:"center_dist"`
}

type Monitor struct {
	WidthCM    float64 `yaml:"width_cm"`
	DistanceCM float64 `yaml:"distance_cm"`
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Display    int     `yaml:"display"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	Background string  `yaml:"background"`
	TextColor  string  `yaml:"text_color"`
	FontFile   string  `yaml:"font_file"`
	FontSize   int     `yaml:"font_size"`
}

type Config struct {
	ExpName            string               `yaml:"exp_name"`
	FrameRate          float64              `yaml:"frame_rate"`
	Durations          map[string]Durations `yaml:"durations"`
	Field              Field                `yaml:"field"`
	Orientations       []int                `yaml:"orientations"`
	TargetColor        string               `yaml:"target_color"`
	DistractorColors   []string             `yaml:"distractor_colors"`
	RectSize           [2]float64           `yaml:"rect_size"`
	Triggers           TriggerTable         `yaml:"triggers"`
	Response           ResponseDevice       `yaml:"response"`
	LatencyMargin      time.Duration        `yaml:"latency_margin"`
	InstructionDelay   time.Duration        `yaml:"instruction_delay"`
	Language           string               `yaml:"language"`
	Texts              Texts                `yaml:"texts"`
	Monitor            Monitor              `yaml:"monitor"`
	Barcode            BarcodeConfig        `yaml:"barcode"`
	Practice           Design               `yaml:"practice"`
	PracticeConditions []int                `yaml:"practice_conditions"`
	Delimiter          string               `yaml:"delimiter"`
	CrashSafe          bool                 `yaml:"crash_safe"`
	TrialsDir          string               `yaml:"trials_dir"`
	OutputDir          string               `yaml:"output_dir"`
	Visits             int                  `yaml:"visits"`
	Reshuffle          bool                 `yaml:"reshuffle"`
	SummaryMode        string               `yaml:"summary_mode"`
	Registry           string               `yaml:"registry"`
	StartSplash        string               `yaml:"start_splash"`
	EndSplash          string               `yaml:"end_splash"`
	DLPBaudrate        int                  `yaml:"dlp_baudrate"`
}

func DefaultConfig() Config {
	return Config{
		ExpName:   "CDA_rrLab",
		FrameRate: 60,
		Durations: map[string]Durations{
			"experiment": {ITI: 45, Cue: 12, SOA: 12, Array: 12, Retention: 54, Probe: 180},
			"practice":   {ITI: 45, Cue: 12, SOA: 12, Array: 12, Retention: 36, Probe: 120},
		},
		Field: Field{
			MinDist:    2.3,
			Height:     7.6,
			Width:      4.8,
			CenterDist: 1.5,
		},
		Orientations:     []int{0, 45, 90, 135},
		TargetColor:      "red",
		DistractorColors: []string{"blue", "green"},
		RectSize:         [2]float64{1.5, 0.5},
		Triggers:         DefaultTriggerTable(),
		Response:         MouseDevice(),
		LatencyMargin:    8 * time.Millisecond,
		InstructionDelay: 2 * time.Second,
		Language:         "en",
		Texts:            TextsFor("en"),
		Monitor: Monitor{
			WidthCM:    59.5,
			DistanceCM: 75,
			Width:      2560,
			Height:     1440,
			VSync:      true,
			Background: "150,150,150",
			TextColor:  "0,0,0",
			FontSize:   24,
		},
		Barcode: BarcodeConfig{
			Enabled:   true,
			Pulses:    5,
			FramesOn:  2,
			FramesOff: 2,
			Lead:      time.Second,
		},
		Practice: Design{
			Targets:           []int{1, 3},
			Distractors:       []int{0, 2},
			Blocks:            1,
			Repetitions:       3,
			RandomProbeAndCue: true,
		},
		PracticeConditions: []int{2, 4, 5, 6, 13, 16},
		Delimiter:          "|",
		CrashSafe:          true,
		TrialsDir:          "trials",
		OutputDir:          "results",
		Visits:             3,
		Reshuffle:          true,
		SummaryMode:        string(AccuracyMode),
		Registry:           "results/sessions.db",
		DLPBaudrate:        9600,
	}
}

// LoadConfig overlays the YAML file at path onto DefaultConfig. The language is
// read first so that texts left out of the file come from the right pack.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	var head struct {
		Language string         `yaml:"language"`
		Response map[string]any `yaml:"response"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if head.Language != "" {
		cfg.Language = head.Language
		cfg.Texts = TextsFor(head.Language)
	}
	// yaml merges into existing maps; a device given in the file replaces the
	// default buttons instead of adding to them.
	if _, ok := head.Response["answers"]; ok {
		cfg.Response.Answers = nil
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (cfg Config) Validate() error {
	if cfg.FrameRate < 0 {
		return configErr("frame_rate", fmt.Errorf("%w: must not be negative", ErrInvalidConfig))
	}
	for _, name := range []string{"experiment", "practice"} {
		d, ok := cfg.Durations[name]
		if !ok {
			return configErr("durations", fmt.Errorf("%w: missing %q table", ErrInvalidConfig, name))
		}
		if d.ITI < 1 || d.Cue < 1 || d.SOA < 1 || d.Array < 1 || d.Retention < 1 || d.Probe < 1 {
			return configErr("durations."+name, fmt.Errorf("%w: every phase needs at least one frame", ErrInvalidConfig))
		}
	}
	if cfg.Field.MinDist <= 0 || cfg.Field.Height <= 0 || cfg.Field.Width <= 0 || cfg.Field.CenterDist < 0 {
		return configErr("field", fmt.Errorf("%w: non-positive field dimension", ErrInvalidConfig))
	}
	if len(cfg.Orientations) < 2 {
		return configErr("orientations", fmt.Errorf("%w: need at least two orientations for change probes", ErrInvalidConfig))
	}
	for i, o := range cfg.Orientations {
		if slices.Contains(cfg.Orientations[:i], o) {
			return configErr("orientations", fmt.Errorf("%w: duplicate orientation %d", ErrInvalidConfig, o))
		}
	}
	if len(cfg.DistractorColors) == 0 {
		return configErr("distractor_colors", fmt.Errorf("%w: empty", ErrInvalidConfig))
	}
	if len(cfg.Delimiter) != 1 {
		return configErr("delimiter", fmt.Errorf("%w: must be a single character", ErrInvalidConfig))
	}
	if _, err := ParseSummaryMode(cfg.SummaryMode); err != nil {
		return err
	}
	if err := cfg.Triggers.Validate(); err != nil {
		return configErr("triggers", err)
	}
	if err := cfg.Response.Validate(); err != nil {
		return configErr("response", err)
	}
	return nil
}

// Comma is the data file delimiter.
func (cfg Config) Comma() rune {
	if cfg.Delimiter == "" {
		return '|'
	}
	return rune(cfg.Delimiter[0])
}

// FramePeriod is the duration of one rendered frame.
func (cfg Config) FramePeriod() time.Duration {
	if cfg.FrameRate <= 0 {
		return time.Second / 60
	}
	return time.Duration(float64(time.Second) / cfg.FrameRate)
}

type Color struct {
	R, G, B, A uint8
}

// ParseColor reads "r,g,b" or "r,g,b,a". A missing alpha means opaque.
func ParseColor(s string) Color {
	var c Color
	n, _ := fmt.Sscanf(strings.ReplaceAll(s, " ", ""), "%d,%d,%d,%d", &c.R, &c.G, &c.B, &c.A)
	if n < 4 {
		c.A = 255
	}
	return c
}

var namedColors = map[string]Color{
	"red":   {R: 255, A: 255},
	"green": {G: 128, A: 255},
	"blue":  {B: 255, A: 255},
	"black": {A: 255},
	"white": {R: 255, G: 255, B: 255, A: 255},
}

// NamedColor resolves a stimulus color name, falling back to ParseColor.
func NamedColor(name string) Color {
	if c, ok := namedColors[strings.ToLower(name)]; ok {
		return c
	}
	return ParseColor(name)
}
