package main

import (
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/pe-ge/cda/engine"
)

// designFlags binds the factorial design to -t -d -b -r.
type designFlags struct {
	design engine.Design
}

func (f *designFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntSliceVarP(&f.design.Targets, "targets", "t", []int{1, 3}, "target counts per hemifield")
	cmd.Flags().IntSliceVarP(&f.design.Distractors, "distractors", "d", []int{0, 2}, "distractor counts per hemifield")
	cmd.Flags().IntVarP(&f.design.Blocks, "blocks", "b", 5, "number of blocks")
	cmd.Flags().IntVarP(&f.design.Repetitions, "repetitions", "r", 3, "repetitions of each cell per block")
	cmd.Flags().BoolVar(&f.design.RandomProbeAndCue, "random-probe-cue", false, "draw probe type and cue side at random instead of crossing them")
}

// newRand seeds a PCG source. A zero seed takes the clock.
func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed>>1|1))
}

type generateConfig struct {
	designFlags
	visits int
	seed   uint64
	dir    string
}

// newGenerateCmd creates the "cda generate" subcommand.
func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var gc generateConfig

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Pre-generate the trial lists of every visit",
		Long:  "Generates one shuffled trial list per visit and stores them in a trials file\nnamed after the design, e.g. \"T=(1, 3),D=(0, 2),B=5,R=3.json\".",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("visits") {
				gc.visits = cfg.Visits
			}
			if !cmd.Flags().Changed("dir") {
				gc.dir = cfg.TrialsDir
			}

			logger := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
			f := engine.NewFactory(cfg, newRand(gc.seed), logger)
			visits, err := f.Visits(gc.design, gc.visits)
			if err != nil {
				return err
			}
			path, err := engine.SaveTrialsFile(gc.dir, gc.design, visits)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, successStyle.Render("✓ ")+path)
			printField(w, "visits:", fmt.Sprint(len(visits)))
			printField(w, "trials per visit:", fmt.Sprint(gc.design.Blocks*gc.design.CellsPerBlock()))
			return nil
		},
	}

	gc.register(cmd)
	cmd.Flags().IntVar(&gc.visits, "visits", 3, "number of visits to generate")
	cmd.Flags().Uint64Var(&gc.seed, "seed", 0, "random seed (0 uses the clock)")
	cmd.Flags().StringVar(&gc.dir, "dir", "trials", "output directory")
	return cmd
}
