package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// TrialsFileName names a pre-generated trials file after its design, e.g.
// "T=(1, 3),D=(0, 2),B=5,R=3.json".
func TrialsFileName(d Design) string {
	return fmt.Sprintf("T=%s,D=%s,B=%d,R=%d.json", tuple(d.Targets), tuple(d.Distractors), d.Blocks, d.Repetitions)
}

func tuple(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// SaveTrialsFile writes visits as nested JSON arrays, visit then block then
// trial, under dir. It returns the written path.
func SaveTrialsFile(dir string, d Design, visits [][][]*Trial) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create trials dir: %w", err)
	}
	data, err := json.Marshal(visits)
	if err != nil {
		return "", fmt.Errorf("encode trials: %w", err)
	}
	path := filepath.Join(dir, TrialsFileName(d))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write trials file: %w", err)
	}
	return path, nil
}

// LoadVisit reads the trials file at path and returns the blocks of the
// 1-based visit.
func LoadVisit(path string, visit int) ([][]*Trial, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, configErr("trials_file", fmt.Errorf("%w: %s", ErrTrialsFileMissing, path))
	}
	if err != nil {
		return nil, fmt.Errorf("read trials file: %w", err)
	}

	var visits [][][]*Trial
	if err := json.Unmarshal(data, &visits); err != nil {
		return nil, fmt.Errorf("decode trials file %s: %w", path, err)
	}
	if visit < 1 || visit > len(visits) {
		return nil, configErr("visit", fmt.Errorf("%w: visit %d, file has %d", ErrVisitOutOfRange, visit, len(visits)))
	}
	return visits[visit-1], nil
}

// PrepareVisit turns loaded blocks into a run list. With reshuffle set each
// block is permuted again. Block positions, global numbering and cue codes
// are reassigned from the current trigger table.
func PrepareVisit(blocks [][]*Trial, rng *rand.Rand, reshuffle bool, triggers TriggerTable) []*Trial {
	for _, b := range blocks {
		if reshuffle {
			rng.Shuffle(len(b), func(i, j int) { b[i], b[j] = b[j], b[i] })
		}
		for i, t := range b {
			t.NoBlock = i + 1
			t.CueCode = triggers.CueCode(t.CueSide)
		}
	}
	return Flatten(blocks)
}

// Preset is a named design offered by the setup form.
type Preset struct {
	Name   string
	Design Design
}

// Presets are the designs used at the recording sites.
var Presets = []Preset{
	{Name: "CDT", Design: Design{Targets: []int{2, 3, 4}, Distractors: []int{0, 2}, Blocks: 5, Repetitions: 2}},
	{Name: "CDA", Design: Design{Targets: []int{2, 3}, Distractors: []int{0, 2}, Blocks: 5, Repetitions: 3}},
	{Name: "CDA", Design: Design{Targets: []int{3, 4}, Distractors: []int{0, 2}, Blocks: 5, Repetitions: 3}},
}

func (p Preset) String() string {
	return fmt.Sprintf("%s: t=%s b=%d r=%d", p.Name, tuple(p.Design.Targets), p.Design.Blocks, p.Design.Repetitions)
}
