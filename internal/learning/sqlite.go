package learning

// #region imports
import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/danielpatrickdp/imitate/internal/logging"
)

// #endregion

// #region schema

const feedbackStatsSchema = `
CREATE TABLE IF NOT EXISTS feedback_stats (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    prior       TEXT NOT NULL,
    subsequent  TEXT NOT NULL,
    count       INTEGER NOT NULL DEFAULT 0,
    cumulative  INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL,
    UNIQUE(prior, subsequent)
);
`

const feedbackStatsIndex = `
CREATE INDEX IF NOT EXISTS idx_feedback_stats_prior
ON feedback_stats(prior);
`

// #endregion

// #region backend-struct

// SQLiteBackend persists feedback stats in SQLite. When logObservations is
// set every observation is also appended to observation_log in the same
// transaction.
type SQLiteBackend struct {
	db              *sql.DB
	logObservations bool
}

// NewSQLiteBackend initializes the feedback_stats table.
func NewSQLiteBackend(db *sql.DB, logObservations bool) (*SQLiteBackend, error) {
	if _, err := db.Exec(feedbackStatsSchema); err != nil {
		return nil, fmt.Errorf("migrate feedback_stats: %w", err)
	}
	if _, err := db.Exec(feedbackStatsIndex); err != nil {
		return nil, fmt.Errorf("migrate feedback_stats index: %w", err)
	}
	return &SQLiteBackend{db: db, logObservations: logObservations}, nil
}

// #endregion

// #region add-observation

// AddObservation increments count by one and cumulative by the score.
func (b *SQLiteBackend) AddObservation(ctx context.Context, obs Observation) error {
	now := time.Now().UTC()
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO feedback_stats (prior, subsequent, count, cumulative, created_at, updated_at)
		 VALUES (?, ?, 1, ?, ?, ?)
		 ON CONFLICT(prior, subsequent) DO UPDATE SET
		   count = feedback_stats.count + 1,
		   cumulative = feedback_stats.cumulative + excluded.cumulative,
		   updated_at = excluded.updated_at`,
		obs.Prior, obs.Subsequent, obs.Score,
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert feedback: %w", err)
	}

	if b.logObservations {
		err := logging.LogObservation(ctx, tx, logging.ObservationEntry{
			SessionID:  obs.SessionID,
			Prior:      obs.Prior,
			Subsequent: obs.Subsequent,
			Score:      obs.Score,
			CreatedAt:  now,
		})
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// #endregion

// #region stats

// Stats returns the stats recorded after prior, in first-observed order.
func (b *SQLiteBackend) Stats(ctx context.Context, prior string) ([]FeedbackStats, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT prior, subsequent, count, cumulative
		 FROM feedback_stats
		 WHERE prior = ?
		 ORDER BY id`,
		prior,
	)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	var out []FeedbackStats
	for rows.Next() {
		var s FeedbackStats
		if err := rows.Scan(&s.Prior, &s.Subsequent, &s.Count, &s.Cumulative); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// TopStates returns the prior states with the most observations.
func (b *SQLiteBackend) TopStates(ctx context.Context, limit int) ([]string, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT prior FROM feedback_stats
		 GROUP BY prior
		 ORDER BY SUM(count) DESC, prior
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query states: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// #endregion
