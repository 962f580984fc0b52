package engine

import (
	"fmt"
	"log"
	"math/rand/v2"
	"slices"
)

var (
	ProbeTypes = []string{ProbeSame, ProbeChange}
	CueSides   = []string{CueLeft, CueRight}
)

// Design is the factorial layout of a trial list.
type Design struct {
	Targets           []int `yaml:"targets" toml:"targets"`
	Distractors       []int `yaml:"distractors" toml:"distractors"`
	Blocks            int   `yaml:"blocks" toml:"blocks"`
	Repetitions       int   `yaml:"repetitions" toml:"repetitions"`
	RandomProbeAndCue bool  `yaml:"random_probe_and_cue" toml:"random_probe_and_cue"`
}

func (d Design) Validate() error {
	if err := checkCounts("targets", d.Targets, false); err != nil {
		return err
	}
	if err := checkCounts("distractors", d.Distractors, true); err != nil {
		return err
	}
	if d.Blocks < 1 {
		return configErr("blocks", fmt.Errorf("%w: need at least one block, got %d", ErrInvalidDesign, d.Blocks))
	}
	if d.Repetitions < 1 {
		return configErr("repetitions", fmt.Errorf("%w: need at least one repetition, got %d", ErrInvalidDesign, d.Repetitions))
	}
	return nil
}

func checkCounts(field string, counts []int, zeroOK bool) error {
	if len(counts) == 0 {
		return configErr(field, fmt.Errorf("%w: empty set", ErrInvalidDesign))
	}
	for i, n := range counts {
		if n < 0 || (n == 0 && !zeroOK) {
			return configErr(field, fmt.Errorf("%w: bad count %d", ErrInvalidDesign, n))
		}
		if slices.Contains(counts[:i], n) {
			return configErr(field, fmt.Errorf("%w: duplicate count %d", ErrInvalidDesign, n))
		}
	}
	return nil
}

// Ambiguity reports whether the condition code loses information for this
// design. Sets with more than two members map their third and later values
// onto the same code bit as the first.
func (d Design) Ambiguity() error {
	if len(d.Targets) > 2 || len(d.Distractors) > 2 {
		return fmt.Errorf("%w: targets=%v distractors=%v", ErrAmbiguousCondition, d.Targets, d.Distractors)
	}
	return nil
}

// CellsPerBlock is the number of trials one block of the design holds.
func (d Design) CellsPerBlock() int {
	n := d.Repetitions * len(d.Targets) * len(d.Distractors)
	if d.RandomProbeAndCue {
		return n
	}
	return n * len(ProbeTypes) * len(CueSides)
}

// ConditionCode packs the factor indices into 1..16. Only an index of exactly
// one sets its bit.
func ConditionCode(probeIdx, cueIdx, distIdx, targetIdx int) int {
	code := 1
	if probeIdx == 1 {
		code++
	}
	if cueIdx == 1 {
		code += 2
	}
	if distIdx == 1 {
		code += 4
	}
	if targetIdx == 1 {
		code += 8
	}
	return code
}

// Factory builds trial lists from a design and the stimulus configuration.
type Factory struct {
	cfg     Config
	rng     *rand.Rand
	sampler *Sampler
	logger  *log.Logger
}

func NewFactory(cfg Config, rng *rand.Rand, logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.Default()
	}
	return &Factory{
		cfg:     cfg,
		rng:     rng,
		sampler: NewSampler(cfg.Field, rng),
		logger:  logger,
	}
}

// Generate returns the blocks of d concatenated, with no_total numbered over
// the whole list.
func (f *Factory) Generate(d Design) ([]*Trial, error) {
	blocks, err := f.Blocks(d)
	if err != nil {
		return nil, err
	}
	return Flatten(blocks), nil
}

// Blocks returns one shuffled slice per block. Trials carry block and
// no_block but not yet no_total.
func (f *Factory) Blocks(d Design) ([][]*Trial, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if err := d.Ambiguity(); err != nil {
		f.logger.Printf("warning: %v", err)
	}

	blocks := make([][]*Trial, d.Blocks)
	for b := range blocks {
		trials := make([]*Trial, 0, d.CellsPerBlock())
		for rep := 0; rep < d.Repetitions; rep++ {
			for ti, nt := range d.Targets {
				for di, nd := range d.Distractors {
					if d.RandomProbeAndCue {
						pi, ci := f.rng.IntN(len(ProbeTypes)), f.rng.IntN(len(CueSides))
						trials = append(trials, f.trial(b+1, nt, nd, pi, ci, di, ti))
						continue
					}
					for pi := range ProbeTypes {
						for ci := range CueSides {
							trials = append(trials, f.trial(b+1, nt, nd, pi, ci, di, ti))
						}
					}
				}
			}
		}
		f.rng.Shuffle(len(trials), func(i, j int) { trials[i], trials[j] = trials[j], trials[i] })
		for i, t := range trials {
			t.NoBlock = i + 1
		}
		blocks[b] = trials
	}
	return blocks, nil
}

// Visits generates n independent trial lists for the pre-generated trials
// file.
func (f *Factory) Visits(d Design, n int) ([][][]*Trial, error) {
	if n < 1 {
		return nil, configErr("visits", fmt.Errorf("%w: need at least one visit, got %d", ErrInvalidDesign, n))
	}
	visits := make([][][]*Trial, n)
	for v := range visits {
		blocks, err := f.Blocks(d)
		if err != nil {
			return nil, err
		}
		Flatten(blocks)
		visits[v] = blocks
	}
	return visits, nil
}

func (f *Factory) trial(block, nTargets, nDistractors, probeIdx, cueIdx, distIdx, targetIdx int) *Trial {
	probe, cue := ProbeTypes[probeIdx], CueSides[cueIdx]
	half := nTargets + nDistractors

	t := &Trial{
		CueSide:        cue,
		Block:          block,
		NumTargets:     nTargets,
		NumDistractors: nDistractors,
		ProbeType:      probe,
		Condition:      ConditionCode(probeIdx, cueIdx, distIdx, targetIdx),
		CueCode:        f.cfg.Triggers.CueCode(cue),
	}

	t.Positions = append(f.sampler.Sample(half, Left), f.sampler.Sample(half, Right)...)

	t.Orientations = make([]int, 2*half)
	for i := range t.Orientations {
		t.Orientations[i] = f.cfg.Orientations[f.rng.IntN(len(f.cfg.Orientations))]
	}

	left := f.perm(0, nTargets)
	right := f.perm(half, nTargets)
	t.TargetIndices = append(left, right...)

	t.Colors = make([]string, 2*half)
	for i := range t.Colors {
		if slices.Contains(t.TargetIndices, i) {
			t.Colors[i] = f.cfg.TargetColor
		} else {
			t.Colors[i] = f.cfg.DistractorColors[f.rng.IntN(len(f.cfg.DistractorColors))]
		}
	}

	cued := right
	if cue == CueLeft {
		cued = left
	}
	t.ProbeIndex = cued[f.rng.IntN(len(cued))]

	current := t.Orientations[t.ProbeIndex]
	if probe == ProbeChange {
		others := make([]int, 0, len(f.cfg.Orientations))
		for _, o := range f.cfg.Orientations {
			if o != current {
				others = append(others, o)
			}
		}
		t.ProbeOrientation = others[f.rng.IntN(len(others))]
	} else {
		t.ProbeOrientation = current
	}
	return t
}

// perm returns a random ordering of offset..offset+n-1.
func (f *Factory) perm(offset, n int) []int {
	idx := f.rng.Perm(n)
	for i := range idx {
		idx[i] += offset
	}
	return idx
}

// Flatten concatenates blocks in order and numbers no_total from zero.
func Flatten(blocks [][]*Trial) []*Trial {
	var all []*Trial
	for _, b := range blocks {
		all = append(all, b...)
	}
	for i, t := range all {
		t.NoTotal = i
	}
	return all
}
