package engine

import "fmt"

// Trigger latches an integer code on the external signal line. Code 0 clears it.
type Trigger interface {
	Send(code byte) error
}

// NopTrigger stands in when no trigger hardware is attached.
type NopTrigger struct{}

func (NopTrigger) Send(byte) error { return nil }

// Channels is a set of Dig-I/O-2 input channels (5..8) wired to the recorder.
type Channels []int

const (
	firstChannel = 5
	lastChannel  = 8
)

// Code packs the channels into the output byte: channel 5 is bit 0, 6 bit 1,
// 7 bit 2 and 8 bit 3.
func (c Channels) Code() (byte, error) {
	if len(c) == 0 {
		return 0, fmt.Errorf("%w: empty channel set", ErrInvalidConfig)
	}
	var code byte
	for _, ch := range c {
		if ch < firstChannel || ch > lastChannel {
			return 0, fmt.Errorf("%w: channel %d outside %d..%d", ErrInvalidConfig, ch, firstChannel, lastChannel)
		}
		bit := byte(1) << (ch - firstChannel)
		if code&bit != 0 {
			return 0, fmt.Errorf("%w: channel %d listed twice", ErrInvalidConfig, ch)
		}
		code |= bit
	}
	return code, nil
}

func (c Channels) mustCode() byte {
	code, err := c.Code()
	if err != nil {
		panic(err)
	}
	return code
}

type TriggerTable struct {
	CueLeft     Channels        `yaml:"cue_left"`
	CueRight    Channels        `yaml:"cue_right"`
	Same        Channels        `yaml:"same"`
	Change      Channels        `yaml:"change"`
	TestArray   Channels        `yaml:"test_array"`
	CueCodes    map[string]int  `yaml:"cue_codes"`
	AnswerCodes map[string]byte `yaml:"answer_codes"`
}

func DefaultTriggerTable() TriggerTable {
	return TriggerTable{
		CueLeft:   Channels{5},
		CueRight:  Channels{6},
		Same:      Channels{7},
		Change:    Channels{8},
		TestArray: Channels{5, 6},
		CueCodes:  map[string]int{CueLeft: 21, CueRight: 22},
	}
}

func (t TriggerTable) Validate() error {
	for _, c := range []Channels{t.CueLeft, t.CueRight, t.Same, t.Change, t.TestArray} {
		if _, err := c.Code(); err != nil {
			return err
		}
	}
	for _, side := range []string{CueLeft, CueRight} {
		if _, ok := t.CueCodes[side]; !ok {
			return fmt.Errorf("%w: no cue code for %q", ErrInvalidConfig, side)
		}
	}
	return nil
}

// CueCode is the cue identifier stored with each trial.
func (t TriggerTable) CueCode(side string) int {
	return t.CueCodes[side]
}

// CueLine is the line code latched at cue onset.
func (t TriggerTable) CueLine(side string) byte {
	if side == CueLeft {
		return t.CueLeft.mustCode()
	}
	return t.CueRight.mustCode()
}

// ArrayLine is the line code latched at memory array onset.
func (t TriggerTable) ArrayLine(probeType string) byte {
	if probeType == ProbeChange {
		return t.Change.mustCode()
	}
	return t.Same.mustCode()
}

// ProbeLine is the line code latched at test array onset.
func (t TriggerTable) ProbeLine() byte {
	return t.TestArray.mustCode()
}

// AnswerCode returns the optional code for a response button.
func (t TriggerTable) AnswerCode(code string) (byte, bool) {
	c, ok := t.AnswerCodes[code]
	return c, ok
}

// ChannelCode pairs a channel combination with its packed code.
type ChannelCode struct {
	Channels Channels
	Code     byte
}

// ChannelCodes lists every non-empty channel combination ordered by code. The
// `cda triggers` command prints it as the wiring sheet.
func ChannelCodes() []ChannelCode {
	var out []ChannelCode
	for mask := 1; mask < 1<<(lastChannel-firstChannel+1); mask++ {
		var chs Channels
		for i := 0; i <= lastChannel-firstChannel; i++ {
			if mask&(1<<i) != 0 {
				chs = append(chs, firstChannel+i)
			}
		}
		out = append(out, ChannelCode{Channels: chs, Code: byte(mask)})
	}
	return out
}
