package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/imitate/internal/learning"
	"github.com/danielpatrickdp/imitate/internal/registry"
	"github.com/danielpatrickdp/imitate/internal/replay"
	"github.com/danielpatrickdp/imitate/internal/session"
	"github.com/danielpatrickdp/imitate/internal/textframe"
)

type runOutput struct {
	Round   int             `json:"round"`
	Session string          `json:"session"`
	Results []replay.Result `json:"results"`
	Summary replay.Summary  `json:"summary"`
}

func runFixture(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	f, err := replay.LoadFixture(args[0])
	if err != nil {
		return err
	}
	st, err := openStack(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if st.table != nil {
		for _, seq := range f.Sequences {
			if err := st.table.Save(seq); err != nil {
				return fmt.Errorf("save sequence %s: %w", seq.Name, err)
			}
		}
	}
	reg := textframe.Register(registry.New(registry.Chain(f.SequenceSource(), st.sequences)))
	rec := learning.NewRecorder(st.backend)

	seed := f.Config.Seed
	if cfg.Seed != 0 {
		seed = cfg.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	scfg := f.Config.Apply(cfg.Session())

	ctx := cmd.Context()
	var outputs []runOutput
	for round := 1; round <= repeat; round++ {
		s := session.New(textframe.New(f.Text), session.Options{
			Registry:    reg,
			Feedback:    textframe.GrowthFeedback{},
			Persistence: rec,
			Frames:      textframe.Provider(),
			Rand:        rng,
			Config:      scfg,
		})
		results := replay.Replay(ctx, s, f.Steps)
		out := runOutput{Round: round, Session: s.ID(), Results: results, Summary: replay.Summarize(results, f.Steps)}
		outputs = append(outputs, out)
		if !jsonOut {
			printRound(out, s)
		}
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outputs)
	}
	last := outputs[len(outputs)-1].Summary
	if last.Mismatches > 0 {
		return fmt.Errorf("%d step(s) did not match their expected action", last.Mismatches)
	}
	return nil
}

func printRound(out runOutput, s *session.Session) {
	fmt.Printf("round %d  session %s\n", out.Round, out.Session)
	fmt.Printf("%-16s  %-12s  %-40s  %s\n", "Step", "Action", "Statement", "Serialization")
	fmt.Printf("%-16s+-%-12s+-%-40s+-%s\n", "----------------", "------------", "----------------------------------------", "--------------------")
	for _, r := range out.Results {
		detail := r.Serialization
		if r.Reason != "" {
			detail = r.Reason
		}
		fmt.Printf("%-16s  %-12s  %-40s  %s\n", r.StepID, r.Action, r.Statement, detail)
	}
	sum := out.Summary
	fmt.Printf("\nsteps=%d commits=%d side_effects=%d soft_failures=%d errors=%d mismatches=%d final_step=%d\n",
		sum.TotalSteps, sum.Commits, sum.SideEffects, sum.SoftFailures, sum.Errors, sum.Mismatches, sum.FinalStep)
	fmt.Printf("state=%q current=%q\n", s.SerializeCurrentState(), s.Current().(*textframe.Frame).String())
	fmt.Printf("memory:\n%s\n", s.Display())
}
