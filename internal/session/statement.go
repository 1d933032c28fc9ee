package session

import (
	"slices"
	"strings"

	"github.com/danielpatrickdp/imitate/internal/frame"
)

// #region constants

// Text is the sentinel argument naming the session's current frame. It is
// always in scope.
const Text = "text"

// #endregion constants

// #region statement

// Statement is one function application. The parser builds it with its
// argument statements already resolved; evaluation happens once and freezes
// the result, the serialization and the dependency closure.
type Statement struct {
	Function string
	Args     []string
	Alias    string

	inputs    []*Statement
	evaluated bool
	result    frame.Frame
	ok        bool
	serial    string
	deps      []string
	sentinel  bool
}

func textStatement() *Statement {
	return &Statement{
		Function:  Text,
		Alias:     Text,
		evaluated: true,
		ok:        true,
		serial:    Text,
		sentinel:  true,
	}
}

// HasAlias reports whether the statement assigns its result.
func (st *Statement) HasAlias() bool { return st.Alias != "" }

// Evaluated reports whether the result has been frozen.
func (st *Statement) Evaluated() bool { return st.evaluated }

// Result returns the memoized result. ok=false means no result.
func (st *Statement) Result() (frame.Frame, bool) { return st.result, st.ok }

// Serialization returns the canonical form
// "<annotation><function> (<arg0>, <arg1>, ...)". It is the cache and
// equality key everywhere and does not depend on alias names.
func (st *Statement) Serialization() string { return st.serial }

// DependsOn returns the sorted dependency closure: each argument's
// serialization plus each argument's own closure.
func (st *Statement) DependsOn() []string { return slices.Clone(st.deps) }

// String returns the serialization, or the function name before evaluation.
func (st *Statement) String() string {
	if st.evaluated {
		return st.serial
	}
	return st.Function
}

// #endregion statement

// #region finalize

// finalize freezes the statement. Calling it twice is a no-op.
func (st *Statement) finalize(result frame.Frame, ok bool) {
	if st.evaluated {
		return
	}
	if result == nil {
		ok = false
	}
	st.result, st.ok = result, ok
	if !ok {
		st.result = nil
	}

	parts := make([]string, len(st.inputs))
	var deps []string
	for i, in := range st.inputs {
		parts[i] = in.serial
		deps = append(deps, in.serial)
		deps = append(deps, in.deps...)
	}
	st.serial = frame.Annotation(st.result, st.ok) + st.Function + " (" + strings.Join(parts, ", ") + ")"

	slices.Sort(deps)
	st.deps = slices.Compact(deps)
	st.evaluated = true
}

// #endregion finalize
