package registry

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// #region sequence

// Sequence is a named macro: run Scripts in order under a private namespace,
// then wrap the frames bound to Components into the base frame.
type Sequence struct {
	Name       string   `yaml:"name" json:"name"`
	Scripts    []string `yaml:"scripts" json:"scripts"`
	Components []string `yaml:"components" json:"components"`
}

// SequenceSource supplies pre-authored sequences by name.
type SequenceSource interface {
	HasSequence(name string) bool
	ForName(name string) (Sequence, bool)
}

// SequenceLister is implemented by sources that can enumerate their names.
type SequenceLister interface {
	Names() []string
}

// #endregion sequence

// #region in-memory

// Sequences is an in-memory SequenceSource.
type Sequences struct {
	mu   sync.RWMutex
	byID map[string]Sequence
}

// NewSequences creates a source holding seqs.
func NewSequences(seqs ...Sequence) *Sequences {
	s := &Sequences{byID: make(map[string]Sequence)}
	for _, seq := range seqs {
		s.Add(seq)
	}
	return s
}

// Add stores seq, replacing any sequence with the same name.
func (s *Sequences) Add(seq Sequence) *Sequences {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[seq.Name] = seq
	return s
}

// HasSequence implements SequenceSource.
func (s *Sequences) HasSequence(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byID[name]
	return ok
}

// ForName implements SequenceSource.
func (s *Sequences) ForName(name string) (Sequence, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seq, ok := s.byID[name]
	return seq, ok
}

// Names implements SequenceLister.
func (s *Sequences) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.byID))
	for name := range s.byID {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// #endregion in-memory

// #region yaml-loader

type sequenceFile struct {
	Sequences []Sequence `yaml:"sequences"`
}

// LoadSequences reads a YAML file of the form
//
//	sequences:
//	  - name: seq1
//	    scripts: ["a = f text", "b = f a"]
//	    components: [a]
func LoadSequences(path string) (*Sequences, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sequences %s: %w", path, err)
	}
	var f sequenceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sequences %s: %w", path, err)
	}
	for i, seq := range f.Sequences {
		if seq.Name == "" {
			return nil, fmt.Errorf("sequence %d in %s has no name", i, path)
		}
	}
	return NewSequences(f.Sequences...), nil
}

// #endregion yaml-loader

// #region chain

// Chain consults sources in order; the first that knows a name wins. Nil
// sources are skipped.
func Chain(sources ...SequenceSource) SequenceSource {
	var c chain
	for _, s := range sources {
		if s != nil {
			c = append(c, s)
		}
	}
	return c
}

type chain []SequenceSource

func (c chain) HasSequence(name string) bool {
	for _, s := range c {
		if s.HasSequence(name) {
			return true
		}
	}
	return false
}

func (c chain) ForName(name string) (Sequence, bool) {
	for _, s := range c {
		if seq, ok := s.ForName(name); ok {
			return seq, true
		}
	}
	return Sequence{}, false
}

// Names merges the names of every source that can list them.
func (c chain) Names() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range c {
		lister, ok := s.(SequenceLister)
		if !ok {
			continue
		}
		for _, n := range lister.Names() {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	sort.Strings(out)
	return out
}

// #endregion chain
