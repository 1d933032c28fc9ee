package learning

import (
	"context"
	"sync"
)

// MemoryBackend keeps stats in process. The zero value is not usable; call
// NewMemoryBackend.
type MemoryBackend struct {
	mu    sync.RWMutex
	data  map[string]map[string]*FeedbackStats
	order map[string][]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data:  make(map[string]map[string]*FeedbackStats),
		order: make(map[string][]string),
	}
}

func (m *MemoryBackend) Stats(_ context.Context, prior string) ([]FeedbackStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	next := m.data[prior]
	out := make([]FeedbackStats, 0, len(next))
	for _, key := range m.order[prior] {
		out = append(out, *next[key])
	}
	return out, nil
}

func (m *MemoryBackend) AddObservation(_ context.Context, obs Observation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, ok := m.data[obs.Prior]
	if !ok {
		next = make(map[string]*FeedbackStats)
		m.data[obs.Prior] = next
	}
	s, ok := next[obs.Subsequent]
	if !ok {
		s = &FeedbackStats{Prior: obs.Prior, Subsequent: obs.Subsequent}
		next[obs.Subsequent] = s
		m.order[obs.Prior] = append(m.order[obs.Prior], obs.Subsequent)
	}
	s.Count++
	s.Cumulative += obs.Score
	return nil
}

// States returns every prior state with recorded stats.
func (m *MemoryBackend) States() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.order))
	for k := range m.order {
		out = append(out, k)
	}
	return out
}
