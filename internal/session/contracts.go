package session

import (
	"context"

	"github.com/danielpatrickdp/imitate/internal/frame"
)

// Feedback scores transitions of the current frame.
type Feedback interface {
	// Score rates the change from previous to current caused by a side effect.
	Score(previous, current frame.Frame) int
	// Failed is the score attached to a statement that produced no result.
	Failed() int
}

// FixedFeedback scores every transition with the same value.
type FixedFeedback struct {
	Success int
	Failure int
}

func (f FixedFeedback) Score(_, _ frame.Frame) int { return f.Success }
func (f FixedFeedback) Failed() int                { return f.Failure }

// Persistence accumulates feedback keyed by state and answers which
// statement tends to follow a state.
type Persistence interface {
	BestFor(ctx context.Context, state string, minObservations int) (string, bool, error)
	Update(ctx context.Context, s *Session, score int) error
	UpdateWith(ctx context.Context, s *Session, trigger *Statement, score int) error
}

// Rand is the randomness source used for perturbation. *math/rand.Rand
// satisfies it.
type Rand interface {
	Intn(n int) int
}
