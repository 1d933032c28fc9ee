package learning

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/danielpatrickdp/imitate/internal/frame"
	"github.com/danielpatrickdp/imitate/internal/session"
)

// #region recorder

// Recorder turns a session's working memory into observations and answers
// which statement tends to follow a state. It implements session.Persistence
// on top of any Backend.
type Recorder struct {
	backend Backend
}

// NewRecorder wraps a backend.
func NewRecorder(b Backend) *Recorder {
	return &Recorder{backend: b}
}

// Backend returns the underlying store.
func (r *Recorder) Backend() Backend { return r.backend }

// #endregion recorder

// #region best-for

// BestFor returns the statement with the highest expected value among those
// observed at least minObservations times after state. Ties keep the
// backend's order. A leading annotation is stripped so the text can be
// parsed again.
func (r *Recorder) BestFor(ctx context.Context, state string, minObservations int) (string, bool, error) {
	stats, err := r.backend.Stats(ctx, state)
	if err != nil {
		return "", false, fmt.Errorf("stats for %q: %w", state, err)
	}
	best := -1
	for i, s := range stats {
		if s.Count < minObservations {
			continue
		}
		if best < 0 || s.ExpectedValue() > stats[best].ExpectedValue() {
			best = i
		}
	}
	if best < 0 {
		return "", false, nil
	}
	return frame.StripAnnotation(stats[best].Subsequent), true, nil
}

// #endregion best-for

// #region update

// Update credits score to every in-scope committed entry, keyed by the
// state that preceded it.
func (r *Recorder) Update(ctx context.Context, s *session.Session, score int) error {
	return r.UpdateWith(ctx, s, nil, score)
}

// UpdateWith is Update plus a credit for trigger, the side effect that
// produced the score, keyed by the state after the most recent commit.
func (r *Recorder) UpdateWith(ctx context.Context, s *session.Session, trigger *session.Statement, score int) error {
	mem := s.Memory()
	step := mem.CurrentStep()
	var errs []error
	add := func(prior, next string, score int) {
		obs := Observation{Prior: prior, Subsequent: next, Score: score, SessionID: s.ID()}
		if err := r.backend.AddObservation(ctx, obs); err != nil {
			errs = append(errs, err)
		}
	}

	prev := session.Text
	for _, e := range mem.Entries() {
		alias := e.Alias()
		if e.InSequence || !mem.InScope(alias) {
			continue
		}
		if alias == session.Text {
			for _, f := range e.Failures {
				add(prev, f.Statement.Serialization(), f.Feedback)
			}
			continue
		}

		add(prev, e.Statement.Serialization(), score)
		for _, f := range e.Failures {
			add(prev, f.Statement.Serialization(), f.Feedback)
		}

		prev = mem.SerializePrevious(alias)
		if trigger != nil && e.Step == step-1 {
			add(prev, trigger.Serialization(), score)
		}
	}

	if err := errors.Join(errs...); err != nil {
		log.Printf("[LEARN] %s: %d observation(s) failed", s.ID(), len(errs))
		return err
	}
	return nil
}

// #endregion update
