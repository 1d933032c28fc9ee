package learning

import "context"

// #region feedback-stats

// FeedbackStats aggregates the scores observed when Subsequent ran right
// after state Prior.
type FeedbackStats struct {
	Prior      string `json:"prior"`
	Subsequent string `json:"subsequent"`
	Count      int    `json:"count"`
	Cumulative int    `json:"cumulative"`
}

// ExpectedValue is the mean observed score.
func (s FeedbackStats) ExpectedValue() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Cumulative) / float64(s.Count)
}

// Observation is one scored (prior, subsequent) transition.
type Observation struct {
	Prior      string
	Subsequent string
	Score      int
	SessionID  string
}

// #endregion feedback-stats

// #region backend

// Backend stores feedback stats. Stats returns a state's entries in the
// order their pairs were first observed. Implementations are safe for
// concurrent use and read their own writes.
type Backend interface {
	Stats(ctx context.Context, prior string) ([]FeedbackStats, error)
	AddObservation(ctx context.Context, obs Observation) error
}

// #endregion backend
