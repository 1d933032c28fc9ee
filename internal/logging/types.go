package logging

import "time"

// #region observation-entry
// ObservationEntry is a single row in the observation_log table: one
// (prior state, subsequent statement, score) triple recorded by a session.
type ObservationEntry struct {
	ObservationID string
	SessionID     string
	Prior         string
	Subsequent    string
	Score         int
	CreatedAt     time.Time
}
// #endregion observation-entry
