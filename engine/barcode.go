package engine

import (
	"fmt"
	"time"
)

// BarcodeConfig describes the photodiode pulse train that marks the start of
// a task.
type BarcodeConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Pulses    int           `yaml:"pulses"`
	FramesOn  int           `yaml:"frames_on"`
	FramesOff int           `yaml:"frames_off"`
	Lead      time.Duration `yaml:"lead"`
}

// Barcode flashes the photodiode patch: one dark frame, the lead time, then
// Pulses on/off cycles. It returns the flip time of every on frame.
func Barcode(d Display, clock Clock, bc BarcodeConfig, period time.Duration) ([]time.Time, error) {
	var q FlipQueue
	if _, err := Flip(d, &q, Scene{}); err != nil {
		return nil, fmt.Errorf("barcode: %w", err)
	}
	clock.Sleep(bc.Lead)

	stamps := make([]time.Time, 0, bc.Pulses)
	for i := 0; i < bc.Pulses; i++ {
		q.CallOnFlip(func(at time.Time) { stamps = append(stamps, at.UTC()) })
		if _, err := Flip(d, &q, Scene{Patch: true}); err != nil {
			return stamps, fmt.Errorf("barcode pulse %d: %w", i+1, err)
		}
		clock.Sleep(time.Duration(bc.FramesOn) * period)

		if _, err := Flip(d, &q, Scene{}); err != nil {
			return stamps, fmt.Errorf("barcode pulse %d: %w", i+1, err)
		}
		clock.Sleep(time.Duration(bc.FramesOff) * period)
	}
	return stamps, nil
}

// FormatStamps renders flip times in the onset timestamp format.
func FormatStamps(stamps []time.Time) []string {
	out := make([]string, len(stamps))
	for i, at := range stamps {
		out[i] = formatTime(at)
	}
	return out
}
