package session

import "github.com/danielpatrickdp/imitate/internal/frame"

// Failure records a statement that produced no result, together with the
// feedback assigned to it.
type Failure struct {
	Statement *Statement
	Feedback  int
}

// Entry is one committed statement. The alias index and the serialization
// index point at the same *Entry, so failures logged through either are
// visible through both.
type Entry struct {
	Statement  *Statement
	Result     frame.Frame
	Step       int
	Failures   []Failure
	InSequence bool

	depth int
	seq   uint64
}

// Alias returns the alias the entry was committed under.
func (e *Entry) Alias() string { return e.Statement.Alias }

// newer orders entries by step, ties broken by later insertion.
func (e *Entry) newer(o *Entry) bool {
	if e.Step != o.Step {
		return e.Step > o.Step
	}
	return e.seq > o.seq
}
