// Package textframe is a small word-list domain for exercising sessions
// from the command line and in tests.
package textframe

import (
	"slices"
	"strings"

	"github.com/danielpatrickdp/imitate/internal/frame"
	"github.com/danielpatrickdp/imitate/internal/registry"
)

// #region frame

// Frame is an ordered list of words.
type Frame struct {
	Words []string
}

// New splits text on whitespace.
func New(text string) *Frame {
	return &Frame{Words: strings.Fields(text)}
}

func (f *Frame) Copy() frame.Frame { return &Frame{Words: slices.Clone(f.Words)} }

// Wrap appends the words of each wrapped text frame.
func (f *Frame) Wrap(others []frame.Frame) {
	for _, o := range others {
		if tf, ok := o.(*Frame); ok {
			f.Words = append(f.Words, tf.Words...)
		}
	}
}

func (f *Frame) Empty() bool { return len(f.Words) == 0 }

func (f *Frame) String() string { return strings.Join(f.Words, " ") }

// Provider returns empty frames for sequence results.
func Provider() frame.Provider {
	return frame.ProviderFunc(func() frame.Frame { return &Frame{} })
}

// #endregion frame

// #region functions

func words(f frame.Frame) []string {
	if tf, ok := f.(*Frame); ok {
		return tf.Words
	}
	return nil
}

func mapWords(fn func(string) string) registry.Func {
	return func(args []frame.Frame) (frame.Frame, bool) {
		in := words(args[0])
		out := make([]string, len(in))
		for i, w := range in {
			out[i] = fn(w)
		}
		return &Frame{Words: out}, true
	}
}

func first(args []frame.Frame) (frame.Frame, bool) {
	in := words(args[0])
	if len(in) == 0 {
		return nil, false
	}
	return &Frame{Words: []string{in[0]}}, true
}

func rest(args []frame.Frame) (frame.Frame, bool) {
	in := words(args[0])
	if len(in) == 0 {
		return nil, false
	}
	return &Frame{Words: slices.Clone(in[1:])}, true
}

func reverse(args []frame.Frame) (frame.Frame, bool) {
	out := slices.Clone(words(args[0]))
	slices.Reverse(out)
	return &Frame{Words: out}, true
}

func join(args []frame.Frame) (frame.Frame, bool) {
	out := slices.Concat(words(args[0]), words(args[1]))
	return &Frame{Words: out}, true
}

func emit(args []frame.Frame) (frame.Frame, bool) {
	return &Frame{Words: slices.Clone(words(args[0]))}, true
}

func clearFrame(_ []frame.Frame) (frame.Frame, bool) {
	return &Frame{}, true
}

// Register adds the text functions to reg. upper, lower, first, rest,
// reverse and join are pure; emit replaces the current frame with its
// argument and clear empties it.
func Register(reg *registry.Registry) *registry.Registry {
	return reg.
		RegisterPure("upper", 1, mapWords(strings.ToUpper)).
		RegisterPure("lower", 1, mapWords(strings.ToLower)).
		RegisterPure("first", 1, first).
		RegisterPure("rest", 1, rest).
		RegisterPure("reverse", 1, reverse).
		RegisterPure("join", 2, join).
		RegisterSideEffect("emit", 1, emit).
		RegisterSideEffect("clear", 0, clearFrame)
}

// #endregion functions

// #region feedback

// GrowthFeedback rewards side effects by how many words they add to the
// current frame.
type GrowthFeedback struct{}

func (GrowthFeedback) Score(previous, current frame.Frame) int {
	return len(words(current)) - len(words(previous))
}

func (GrowthFeedback) Failed() int { return -1 }

// #endregion feedback
