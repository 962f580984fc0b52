package engine

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"
)

func TestTrialsFileName(t *testing.T) {
	tests := []struct {
		d    Design
		want string
	}{
		{labDesign, "T=(1, 3),D=(0, 2),B=1,R=2.json"},
		{Design{Targets: []int{2}, Distractors: []int{0}, Blocks: 5, Repetitions: 3}, "T=(2,),D=(0,),B=5,R=3.json"},
	}
	for _, tt := range tests {
		if got := TrialsFileName(tt.d); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestSaveAndLoadVisit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "trials")
	d := Design{Targets: []int{1, 3}, Distractors: []int{0, 2}, Blocks: 2, Repetitions: 1}
	visits, err := newTestFactory(11).Visits(d, 3)
	if err != nil {
		t.Fatalf("Visits: %v", err)
	}

	path, err := SaveTrialsFile(dir, d, visits)
	if err != nil {
		t.Fatalf("SaveTrialsFile: %v", err)
	}
	if filepath.Base(path) != TrialsFileName(d) {
		t.Errorf("unexpected file name %s", path)
	}

	blocks, err := LoadVisit(path, 2)
	if err != nil {
		t.Fatalf("LoadVisit: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	for b := range blocks {
		for i, tr := range blocks[b] {
			if !slices.Equal(tr.Values(), visits[1][b][i].Values()) {
				t.Fatalf("block %d trial %d differs after reload", b+1, i)
			}
		}
	}
}

func TestLoadVisitErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadVisit(filepath.Join(dir, "missing.json"), 1)
	if !errors.Is(err, ErrTrialsFileMissing) || !IsConfigError(err) {
		t.Errorf("expected a ConfigError wrapping ErrTrialsFileMissing, got %v", err)
	}

	visits, err := newTestFactory(12).Visits(labDesign, 2)
	if err != nil {
		t.Fatal(err)
	}
	path, err := SaveTrialsFile(dir, labDesign, visits)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range []int{0, 3} {
		_, err := LoadVisit(path, v)
		if !errors.Is(err, ErrVisitOutOfRange) || !IsConfigError(err) {
			t.Errorf("visit %d: expected a ConfigError wrapping ErrVisitOutOfRange, got %v", v, err)
		}
	}
}

func TestPrepareVisit(t *testing.T) {
	d := Design{Targets: []int{1, 3}, Distractors: []int{0, 2}, Blocks: 2, Repetitions: 1}
	blocks, err := newTestFactory(13).Blocks(d)
	if err != nil {
		t.Fatal(err)
	}
	before := map[*Trial]bool{}
	for _, b := range blocks {
		for _, tr := range b {
			before[tr] = true
		}
	}

	triggers := DefaultTriggerTable()
	triggers.CueCodes = map[string]int{CueLeft: 31, CueRight: 32}
	trials := PrepareVisit(blocks, testRand(14), true, triggers)

	if len(trials) != 2*d.CellsPerBlock() {
		t.Fatalf("expected %d trials, got %d", 2*d.CellsPerBlock(), len(trials))
	}
	for i, tr := range trials {
		if !before[tr] {
			t.Fatal("PrepareVisit introduced a new trial")
		}
		if tr.NoTotal != i {
			t.Errorf("trial %d: no_total %d", i, tr.NoTotal)
		}
		if want := i%d.CellsPerBlock() + 1; tr.NoBlock != want {
			t.Errorf("trial %d: expected no_block %d, got %d", i, want, tr.NoBlock)
		}
		if want := i/d.CellsPerBlock() + 1; tr.Block != want {
			t.Errorf("trial %d: expected block %d, got %d", i, want, tr.Block)
		}
		if want := triggers.CueCodes[tr.CueSide]; tr.CueCode != want {
			t.Errorf("trial %d: expected cue code %d, got %d", i, want, tr.CueCode)
		}
	}
}

func TestPresets(t *testing.T) {
	want := []string{
		"CDT: t=(2, 3, 4) b=5 r=2",
		"CDA: t=(2, 3) b=5 r=3",
		"CDA: t=(3, 4) b=5 r=3",
	}
	for i, p := range Presets {
		if got := p.String(); got != want[i] {
			t.Errorf("preset %d: expected %q, got %q", i, want[i], got)
		}
		if err := p.Design.Validate(); err != nil {
			t.Errorf("preset %d: %v", i, err)
		}
	}
}
