package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/danielpatrickdp/imitate/internal/learning"
	"github.com/danielpatrickdp/imitate/internal/logging"
	"github.com/danielpatrickdp/imitate/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to imitate.db")
	top := flag.Int("top", 20, "show the N most observed states")
	stateKey := flag.String("state", "", "show feedback stats for one state")
	session := flag.String("session", "", "show the observation log of one session")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/imitate.db [--top N] [--state key] [--session id] [--json]")
		os.Exit(2)
	}

	st, err := store.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	backend, err := learning.NewSQLiteBackend(st.DB(), false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open backend: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	switch {
	case *session != "":
		err = runSessionMode(ctx, st, *session, *jsonOut)
	case *stateKey != "":
		err = runStateMode(ctx, backend, *stateKey, *jsonOut)
	default:
		err = runTopMode(ctx, backend, *top, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region top-mode

type stateRow struct {
	State        string  `json:"state"`
	Observations int     `json:"observations"`
	Subsequents  int     `json:"subsequents"`
	Best         string  `json:"best,omitempty"`
	BestValue    float64 `json:"best_value"`
}

func runTopMode(ctx context.Context, backend *learning.SQLiteBackend, top int, jsonOut bool) error {
	states, err := backend.TopStates(ctx, top)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		fmt.Fprintln(os.Stderr, "no feedback recorded")
		return nil
	}

	rows := make([]stateRow, 0, len(states))
	for _, key := range states {
		stats, err := backend.Stats(ctx, key)
		if err != nil {
			return err
		}
		row := stateRow{State: key, Subsequents: len(stats)}
		for i, s := range stats {
			row.Observations += s.Count
			if i == 0 || s.ExpectedValue() > row.BestValue {
				row.Best, row.BestValue = s.Subsequent, s.ExpectedValue()
			}
		}
		rows = append(rows, row)
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%6s  %5s  %8s  %-32s  %s\n", "OBS", "NEXT", "BEST EV", "BEST", "STATE")
	fmt.Printf("%6s+-%5s+-%8s+-%-32s+-%s\n", "------", "-----", "--------", "--------------------------------", "-----")
	for _, r := range rows {
		fmt.Printf("%6d  %5d  %8.2f  %-32s  %s\n", r.Observations, r.Subsequents, r.BestValue, truncate(r.Best, 32), r.State)
	}
	return nil
}

// #endregion top-mode

// #region state-mode

type statRow struct {
	Subsequent    string  `json:"subsequent"`
	Count         int     `json:"count"`
	Cumulative    int     `json:"cumulative"`
	ExpectedValue float64 `json:"expected_value"`
}

func runStateMode(ctx context.Context, backend *learning.SQLiteBackend, key string, jsonOut bool) error {
	stats, err := backend.Stats(ctx, key)
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Fprintf(os.Stderr, "no feedback recorded for %q\n", key)
		return nil
	}

	rows := make([]statRow, len(stats))
	for i, s := range stats {
		rows[i] = statRow{
			Subsequent:    s.Subsequent,
			Count:         s.Count,
			Cumulative:    s.Cumulative,
			ExpectedValue: s.ExpectedValue(),
		}
	}
	// Stable keeps first-observed order among equal values.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ExpectedValue > rows[j].ExpectedValue })

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("State: %s\n\n", key)
	fmt.Printf("%8s  %6s  %6s  %s\n", "EV", "COUNT", "SUM", "SUBSEQUENT")
	fmt.Printf("%8s+-%6s+-%6s+-%s\n", "--------", "------", "------", "----------")
	for _, r := range rows {
		fmt.Printf("%8.2f  %6d  %6d  %s\n", r.ExpectedValue, r.Count, r.Cumulative, r.Subsequent)
	}
	return nil
}

// #endregion state-mode

// #region session-mode

type observationRow struct {
	ObservationID string `json:"observation_id"`
	Prior         string `json:"prior"`
	Subsequent    string `json:"subsequent"`
	Score         int    `json:"score"`
	CreatedAt     string `json:"created_at"`
}

func runSessionMode(ctx context.Context, st *store.Store, sessionID string, jsonOut bool) error {
	entries, err := logging.ListObservations(ctx, st.DB(), sessionID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(os.Stderr, "no observations for session %s\n", sessionID)
		return nil
	}

	rows := make([]observationRow, len(entries))
	for i, e := range entries {
		rows[i] = observationRow{
			ObservationID: e.ObservationID,
			Prior:         e.Prior,
			Subsequent:    e.Subsequent,
			Score:         e.Score,
			CreatedAt:     e.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-8s  %-19s  %6s  %-32s  %s\n", "ID", "CREATED", "SCORE", "SUBSEQUENT", "PRIOR")
	fmt.Printf("%-8s+-%-19s+-%6s+-%-32s+-%s\n", "--------", "-------------------", "------", "--------------------------------", "-----")
	for _, r := range rows {
		fmt.Printf("%-8s  %-19s  %6d  %-32s  %s\n", shortID(r.ObservationID), r.CreatedAt, r.Score, truncate(r.Subsequent, 32), r.Prior)
	}
	return nil
}

// #endregion session-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// #endregion output
