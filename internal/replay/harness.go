package replay

import (
	"context"
	"log"

	"github.com/danielpatrickdp/imitate/internal/session"
)

// #region types

// Action classifies what a step did.
type Action string

const (
	ActionCommit      Action = "commit"
	ActionSideEffect  Action = "side_effect"
	ActionSoftFailure Action = "soft_failure"
	ActionError       Action = "error"
)

// Result captures the outcome of replaying one step.
type Result struct {
	StepID        string `json:"step_id"`
	Statement     string `json:"statement"` // for imitator steps, the chosen statement
	Action        Action `json:"action"`
	Reason        string `json:"reason,omitempty"`
	Serialization string `json:"serialization,omitempty"`
	Step          int    `json:"step"` // session step after this one ran
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	TotalSteps   int `json:"total_steps"`
	Commits      int `json:"commits"`
	SideEffects  int `json:"side_effects"`
	SoftFailures int `json:"soft_failures"`
	Errors       int `json:"errors"`
	Mismatches   int `json:"mismatches"`
	FinalStep    int `json:"final_step"`
}

// #endregion types

// #region replay

// Replay runs the steps through s in order. Errors are recorded per step and
// do not stop the run.
func Replay(ctx context.Context, s *session.Session, steps []FixtureStep) []Result {
	results := make([]Result, 0, len(steps))
	for _, st := range steps {
		r := runStep(ctx, s, st)
		if st.Reward != nil {
			if err := s.Reward(ctx, *st.Reward); err != nil {
				log.Printf("[REPLAY] %s: reward failed: %v", st.ID, err)
			}
		}
		r.Step = s.CurrentStep()
		results = append(results, r)
	}
	return results
}

func runStep(ctx context.Context, s *session.Session, st FixtureStep) Result {
	r := Result{StepID: st.ID, Statement: st.Input}
	if st.Imitate {
		text, err := s.NextStatement(ctx)
		if err != nil {
			r.Action, r.Reason = ActionError, err.Error()
			return r
		}
		r.Statement = text
	}

	prepared, err := s.Prepare(ctx, r.Statement)
	if err != nil {
		r.Action, r.Reason = ActionError, err.Error()
		return r
	}
	// Prepare evaluated the statement; commit it the same way a step would.
	_, ok, err := s.Commit(ctx, prepared)
	if err != nil {
		r.Action, r.Reason = ActionError, err.Error()
		return r
	}
	r.Serialization = prepared.Serialization()
	switch {
	case !ok:
		r.Action = ActionSoftFailure
	case s.Registry().IsPure(prepared.Function):
		r.Action = ActionCommit
	default:
		r.Action = ActionSideEffect
	}
	return r
}

// Summarize computes aggregate stats, counting results that differ from a
// step's expected action as mismatches.
func Summarize(results []Result, steps []FixtureStep) Summary {
	sum := Summary{TotalSteps: len(results)}
	for i, r := range results {
		switch r.Action {
		case ActionCommit:
			sum.Commits++
		case ActionSideEffect:
			sum.SideEffects++
		case ActionSoftFailure:
			sum.SoftFailures++
		case ActionError:
			sum.Errors++
		}
		if i < len(steps) && steps[i].Expect != "" && steps[i].Expect != r.Action {
			sum.Mismatches++
		}
		sum.FinalStep = r.Step
	}
	return sum
}

// #endregion replay
