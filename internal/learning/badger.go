package learning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/dgraph-io/badger/v4"
)

// #region config

// BadgerConfig configures the embedded key-value backend.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path string
	// InMemory keeps everything in RAM, for tests.
	InMemory bool
	// SyncWrites fsyncs every commit.
	SyncWrites bool
}

// #endregion config

// #region backend

const (
	statsPrefix = "fs/"
	keySep      = 0x00
	maxRetries  = 64
)

// badgerStats is the stored value. Order preserves first-observation order
// within a prior state.
type badgerStats struct {
	Count      int    `json:"count"`
	Cumulative int    `json:"cumulative"`
	Order      uint64 `json:"order"`
}

// BadgerBackend stores feedback stats in BadgerDB under
// "fs/<prior>\x00<subsequent>".
type BadgerBackend struct {
	db  *badger.DB
	seq *badger.Sequence
}

// OpenBadger opens (or creates) a badger backend.
func OpenBadger(cfg BadgerConfig) (*BadgerBackend, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	seq, err := db.GetSequence([]byte("seq/feedback"), 64)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("feedback sequence: %w", err)
	}
	return &BadgerBackend{db: db, seq: seq}, nil
}

// Close releases the sequence lease and closes the database.
func (b *BadgerBackend) Close() error {
	if err := b.seq.Release(); err != nil {
		b.db.Close()
		return fmt.Errorf("release sequence: %w", err)
	}
	return b.db.Close()
}

func statsKey(prior, subsequent string) []byte {
	k := make([]byte, 0, len(statsPrefix)+len(prior)+1+len(subsequent))
	k = append(k, statsPrefix...)
	k = append(k, prior...)
	k = append(k, keySep)
	return append(k, subsequent...)
}

func statsPrefixFor(prior string) []byte {
	return append(append([]byte(statsPrefix), prior...), keySep)
}

// #endregion backend

// #region add-observation

// AddObservation increments the pair's count and cumulative score. Write
// conflicts are retried.
func (b *BadgerBackend) AddObservation(ctx context.Context, obs Observation) error {
	key := statsKey(obs.Prior, obs.Subsequent)
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := b.db.Update(func(txn *badger.Txn) error {
			var v badgerStats
			item, err := txn.Get(key)
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
				order, err := b.seq.Next()
				if err != nil {
					return fmt.Errorf("next order: %w", err)
				}
				v.Order = order
			case err != nil:
				return err
			default:
				if err := item.Value(func(val []byte) error {
					return json.Unmarshal(val, &v)
				}); err != nil {
					return fmt.Errorf("decode stats: %w", err)
				}
			}
			v.Count++
			v.Cumulative += obs.Score
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			return txn.Set(key, data)
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("add observation: %w", err)
		}
		return nil
	}
	return fmt.Errorf("add observation: %w", badger.ErrConflict)
}

// #endregion add-observation

// #region stats

// Stats scans the prior's prefix and returns entries in first-observed order.
func (b *BadgerBackend) Stats(ctx context.Context, prior string) ([]FeedbackStats, error) {
	prefix := statsPrefixFor(prior)
	type ordered struct {
		order uint64
		stats FeedbackStats
	}
	var found []ordered

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			subsequent := string(bytes.TrimPrefix(item.KeyCopy(nil), prefix))
			var v badgerStats
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &v)
			}); err != nil {
				return fmt.Errorf("decode stats %q: %w", subsequent, err)
			}
			found = append(found, ordered{v.Order, FeedbackStats{
				Prior:      prior,
				Subsequent: subsequent,
				Count:      v.Count,
				Cumulative: v.Cumulative,
			}})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].order < found[j].order })
	out := make([]FeedbackStats, len(found))
	for i, f := range found {
		out[i] = f.stats
	}
	return out, nil
}

// #endregion stats
