package session

import (
	"fmt"
	"slices"
	"strings"

	"github.com/danielpatrickdp/imitate/internal/frame"
)

// #region memory

// displaced is a serialization-index slot overwritten by a sequence-private
// entry. It is restored when the sequence namespace is purged.
type displaced struct {
	key   string
	entry *Entry
	depth int
}

// Memory is the session's working memory: a bounded archive of committed
// statements reachable by alias and by serialization, a step counter, and
// the current frame.
type Memory struct {
	scopeSize   int
	archiveSize int

	step     int
	seq      uint64
	byAlias  map[string]*Entry
	bySerial map[string]*Entry
	shadowed []displaced

	current frame.Frame
	text    *Statement
}

// NewMemory seeds memory with the text sentinel at step zero.
func NewMemory(initial frame.Frame, scopeSize, archiveSize int) *Memory {
	m := &Memory{
		scopeSize:   scopeSize,
		archiveSize: archiveSize,
		byAlias:     make(map[string]*Entry),
		bySerial:    make(map[string]*Entry),
		current:     initial,
		text:        textStatement(),
	}
	e := &Entry{Statement: m.text, Result: initial, Step: 0}
	m.byAlias[Text] = e
	m.bySerial[Text] = e
	return m
}

// CurrentStep returns the number of statements committed outside sequences.
func (m *Memory) CurrentStep() int { return m.step }

// Current returns the session's current frame.
func (m *Memory) Current() frame.Frame { return m.current }

// Len returns the sizes of the alias and serialization indices.
func (m *Memory) Len() (aliases, serials int) { return len(m.byAlias), len(m.bySerial) }

// #endregion memory

// #region lookup

func (m *Memory) entry(arg string) *Entry {
	if e, ok := m.byAlias[arg]; ok {
		return e
	}
	return m.bySerial[arg]
}

// Input returns the statement bound to arg, or nil.
func (m *Memory) Input(arg string) *Statement {
	if arg == Text {
		return m.text
	}
	if e := m.entry(arg); e != nil {
		return e.Statement
	}
	return nil
}

// Frame returns the frame bound to arg. "text" is always the current frame.
func (m *Memory) Frame(arg string) (frame.Frame, bool) {
	if arg == Text {
		return m.current, m.current != nil
	}
	if e := m.entry(arg); e != nil {
		return e.Result, true
	}
	return nil, false
}

// InScope reports whether arg may be used as an argument at this step.
func (m *Memory) InScope(arg string) bool {
	if arg == Text {
		return true
	}
	e := m.entry(arg)
	return e != nil && e.Step >= m.step-m.scopeSize
}

// MostRecent returns the newest entry in the alias index.
func (m *Memory) MostRecent() *Entry {
	var best *Entry
	for _, e := range m.byAlias {
		if best == nil || e.newer(best) {
			best = e
		}
	}
	return best
}

// Entries returns the alias index oldest first.
func (m *Memory) Entries() []*Entry {
	out := make([]*Entry, 0, len(m.byAlias))
	for _, e := range m.byAlias {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *Entry) int {
		switch {
		case a.newer(b):
			return 1
		case b.newer(a):
			return -1
		}
		return 0
	})
	return out
}

// RecentAliases returns up to n aliases, most recent first.
func (m *Memory) RecentAliases(n int) []string {
	entries := m.Entries()
	slices.Reverse(entries)
	if len(entries) > n {
		entries = entries[:n]
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Alias()
	}
	return out
}

// #endregion lookup

// #region commit

// AddStep commits a statement's result. Outside a sequence the step counter
// advances.
func (m *Memory) AddStep(st *Statement, result frame.Frame, inSequence bool) {
	depth := 0
	if inSequence {
		depth = 1
	}
	m.addStep(st, result, depth)
}

func (m *Memory) addStep(st *Statement, result frame.Frame, depth int) {
	m.seq++
	e := &Entry{
		Statement:  st,
		Result:     result,
		Step:       m.step,
		InSequence: depth > 0,
		depth:      depth,
		seq:        m.seq,
	}
	m.byAlias[st.Alias] = e

	key := st.Serialization()
	if prev, ok := m.bySerial[key]; ok && depth > 0 && prev.depth < depth {
		m.shadowed = append(m.shadowed, displaced{key: key, entry: prev, depth: depth})
	}
	m.bySerial[key] = e

	// Sequence-private entries sit above the archive bound until purged.
	if depth == 0 {
		evictOldest(m.byAlias, m.archiveSize)
		evictOldest(m.bySerial, m.archiveSize)
		m.step++
	}
}

// evictOldest drops the smallest-step entry once index exceeds limit.
func evictOldest(index map[string]*Entry, limit int) {
	for len(index) > limit {
		var oldKey string
		var oldest *Entry
		for k, e := range index {
			if oldest == nil || oldest.newer(e) {
				oldKey, oldest = k, e
			}
		}
		delete(index, oldKey)
	}
}

// LogFailure attaches a no-result statement to the most recent entry.
func (m *Memory) LogFailure(st *Statement, feedback int) {
	if e := m.MostRecent(); e != nil {
		e.Failures = append(e.Failures, Failure{Statement: st, Feedback: feedback})
	}
}

// purge removes every entry committed at depth or deeper from both indices
// and restores the serialization slots those entries displaced, leaving the
// indices as they were before the sequence began.
func (m *Memory) purge(depth int) {
	if depth <= 0 {
		return
	}
	for k, e := range m.byAlias {
		if e.depth >= depth {
			delete(m.byAlias, k)
		}
	}
	for k, e := range m.bySerial {
		if e.depth >= depth {
			delete(m.bySerial, k)
		}
	}

	kept := make([]displaced, 0, len(m.shadowed))
	for i := len(m.shadowed) - 1; i >= 0; i-- {
		d := m.shadowed[i]
		if d.depth < depth {
			kept = append(kept, d)
			continue
		}
		if _, taken := m.bySerial[d.key]; !taken {
			m.bySerial[d.key] = d.entry
		}
	}
	slices.Reverse(kept)
	m.shadowed = kept
}

// #endregion commit

// #region serialize

// SerializePrevious returns the sorted, comma-joined serializations of the
// entries committed between the given alias's step and the edge of scope.
// It is the state key of the learning walk.
func (m *Memory) SerializePrevious(alias string) string {
	e := m.entry(alias)
	if e == nil {
		return Text
	}
	var parts []string
	for _, o := range m.byAlias {
		if o.Step <= e.Step && o.Step > m.step-m.scopeSize {
			parts = append(parts, o.Statement.Serialization())
		}
	}
	if len(parts) == 0 {
		return Text
	}
	slices.Sort(parts)
	return strings.Join(parts, ",")
}

// Display renders the most recent ScopeSize entries as
// "step\talias\tserialization" lines, newest first.
func (m *Memory) Display() string {
	entries := m.Entries()
	slices.Reverse(entries)
	if len(entries) > m.scopeSize {
		entries = entries[:m.scopeSize]
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%d\t%s\t%s\n", e.Step, e.Alias(), e.Statement.Serialization())
	}
	return b.String()
}

// #endregion serialize
