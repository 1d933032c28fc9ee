package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/danielpatrickdp/imitate/internal/frame"
)

// #region kind

// Kind tags how a registered name is dispatched.
type Kind int

const (
	// KindPure functions produce an aliasable result and leave external state alone.
	KindPure Kind = iota
	// KindSideEffect functions mutate external state and never need an alias.
	KindSideEffect
	// KindSequence names expand into a nested, privately scoped execution.
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindPure:
		return "pure"
	case KindSideEffect:
		return "side_effect"
	case KindSequence:
		return "sequence"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// #endregion kind

// #region entry

// Func applies a function to argument frames. ok=false means "no result",
// which is a soft failure rather than an error.
type Func func(args []frame.Frame) (result frame.Frame, ok bool)

// Entry is an immutable registration.
type Entry struct {
	Name  string
	Arity int
	Kind  Kind
	Fn    Func
}

// #endregion entry

// #region registry

// Registry maps names to functions and falls back to a SequenceSource.
type Registry struct {
	mu        sync.RWMutex
	functions map[string]Entry
	sequences SequenceSource
}

// New creates a registry. sequences may be nil.
func New(sequences SequenceSource) *Registry {
	return &Registry{
		functions: make(map[string]Entry),
		sequences: sequences,
	}
}

// Register adds fn under name. A later registration of the same name wins.
func (r *Registry) Register(name string, arity int, kind Kind, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions[name] = Entry{Name: name, Arity: arity, Kind: kind, Fn: fn}
}

// RegisterPure registers a pure function and returns r for chaining.
func (r *Registry) RegisterPure(name string, arity int, fn Func) *Registry {
	r.Register(name, arity, KindPure, fn)
	return r
}

// RegisterSideEffect registers a side-effecting function and returns r for chaining.
func (r *Registry) RegisterSideEffect(name string, arity int, fn Func) *Registry {
	r.Register(name, arity, KindSideEffect, fn)
	return r
}

// Sequences returns the configured sequence source, or nil.
func (r *Registry) Sequences() SequenceSource {
	return r.sequences
}

// #endregion registry

// #region lookup

// Lookup resolves name to a function, or to a zero-arity Sequence entry when
// only the sequence source knows it.
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	e, ok := r.functions[name]
	r.mu.RUnlock()
	if ok {
		return e, true
	}
	if r.sequences != nil && r.sequences.HasSequence(name) {
		return Entry{Name: name, Arity: 0, Kind: KindSequence}, true
	}
	return Entry{}, false
}

// Has reports whether name resolves to a function or a sequence.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// IsPure reports whether name must be assigned to an alias. Sequences count as pure.
func (r *Registry) IsPure(name string) bool {
	e, ok := r.Lookup(name)
	return ok && e.Kind != KindSideEffect
}

// Arity returns the declared argument count for name.
func (r *Registry) Arity(name string) (int, bool) {
	e, ok := r.Lookup(name)
	return e.Arity, ok
}

// Entries returns all functions sorted by name, followed by the sequences the
// source can enumerate.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.functions))
	known := make(map[string]bool, len(r.functions))
	for name, e := range r.functions {
		out = append(out, e)
		known[name] = true
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	if lister, ok := r.sequences.(SequenceLister); ok {
		for _, name := range lister.Names() {
			if known[name] {
				continue
			}
			out = append(out, Entry{Name: name, Arity: 0, Kind: KindSequence})
		}
	}
	return out
}

// Describe lists entries as "name(arity)" lines, sorted by name.
func (r *Registry) Describe() string {
	entries := r.Entries()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = fmt.Sprintf("%s(%d)", e.Name, e.Arity)
	}
	return strings.Join(lines, "\n")
}

// #endregion lookup
