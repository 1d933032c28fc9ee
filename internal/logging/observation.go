package logging

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// #region log-observation
// LogObservation appends an entry to the observation_log table.
func LogObservation(ctx context.Context, db Execer, entry ObservationEntry) error {
	if entry.ObservationID == "" {
		entry.ObservationID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO observation_log (observation_id, session_id, prior, subsequent, score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ObservationID,
		orUnknown(entry.SessionID),
		entry.Prior,
		entry.Subsequent,
		entry.Score,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log observation: %w", err)
	}
	return nil
}
// #endregion log-observation

// #region list-observations
// ListObservations returns a session's log, oldest first.
func ListObservations(ctx context.Context, db *sql.DB, sessionID string) ([]ObservationEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT observation_id, session_id, prior, subsequent, score, created_at
		 FROM observation_log WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	defer rows.Close()

	var out []ObservationEntry
	for rows.Next() {
		var e ObservationEntry
		var created string
		if err := rows.Scan(&e.ObservationID, &e.SessionID, &e.Prior, &e.Subsequent, &e.Score, &created); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, e)
	}
	return out, rows.Err()
}
// #endregion list-observations

// #region helpers
func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
// #endregion helpers
