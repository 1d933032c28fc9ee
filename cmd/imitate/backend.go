package main

import (
	"fmt"
	"log"

	"github.com/danielpatrickdp/imitate/internal/codec"
	"github.com/danielpatrickdp/imitate/internal/config"
	"github.com/danielpatrickdp/imitate/internal/learning"
	"github.com/danielpatrickdp/imitate/internal/registry"
	"github.com/danielpatrickdp/imitate/internal/store"
)

// stack is the persistence wiring chosen by configuration.
type stack struct {
	backend   learning.Backend
	sequences registry.SequenceSource
	table     *registry.SQLSequences // nil unless the backend is sqlite
	closers   []func() error
}

func (s *stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Printf("close: %v", err)
		}
	}
}

// openStack opens the feedback backend and the sequence source. Sequences
// come from the YAML file when configured and from the SQLite table when the
// backend is sqlite; the file wins where both define a name.
func openStack(cfg config.Config) (*stack, error) {
	st := &stack{}
	switch cfg.Backend {
	case config.BackendMemory:
		st.backend = learning.NewMemoryBackend()
	case config.BackendSQLite:
		db, err := store.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		st.closers = append(st.closers, db.Close)
		b, err := learning.NewSQLiteBackend(db.DB(), true)
		if err != nil {
			st.Close()
			return nil, err
		}
		st.backend = b
		seqs, err := registry.NewSQLSequences(db.DB())
		if err != nil {
			st.Close()
			return nil, err
		}
		st.table = seqs
		st.sequences = seqs
	case config.BackendBadger:
		b, err := learning.OpenBadger(learning.BadgerConfig{Path: cfg.BadgerDir, SyncWrites: true})
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, b.Close)
		st.backend = b
	case config.BackendRemote:
		c, err := codec.NewClient(cfg.CodecAddr)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, c.Close)
		st.backend = c
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	if cfg.SequencesPath != "" {
		seqs, err := registry.LoadSequences(cfg.SequencesPath)
		if err != nil {
			st.Close()
			return nil, err
		}
		st.sequences = registry.Chain(seqs, st.sequences)
	}
	return st, nil
}
