package session

import (
	"errors"
	"slices"
	"testing"
)

func TestParseSyntax(t *testing.T) {
	tests := []struct {
		text     string
		alias    string
		function string
		args     []string
	}{
		{"a = f text;", "a", "f", []string{"text"}},
		{"a = f text", "a", "f", []string{"text"}},
		{"e a b;", "", "e", []string{"a", "b"}},
		{"a = h (text, b);", "a", "h", []string{"text", "b"}},
		{"a = h (h text, b);", "a", "h", []string{"h (text)", "b"}},
		{"a = g (f (text));", "a", "g", []string{"f (text)"}},
		{"a = g (~z (f (text)));", "a", "g", []string{"~z (f (text))"}},
		{"__3 = e ();", "__3", "e", nil},
		{"b = e () ;", "b", "e", nil},
		{"s = seq1", "s", "seq1", nil},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := parseSyntax(tt.text)
			if err != nil {
				t.Fatalf("parseSyntax: %v", err)
			}
			if got.alias != tt.alias || got.function != tt.function {
				t.Errorf("got %q = %q, want %q = %q", got.alias, got.function, tt.alias, tt.function)
			}
			if !slices.Equal(got.args, tt.args) {
				t.Errorf("args = %q, want %q", got.args, tt.args)
			}
		})
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	for _, text := range []string{"= f text", "a = f (text", "a = f (,)", "a = f text; b"} {
		if _, err := parseSyntax(text); !errors.Is(err, ErrSyntax) {
			t.Errorf("parseSyntax(%q) err = %v, want ErrSyntax", text, err)
		}
	}
}

func TestNamespaced(t *testing.T) {
	if got := namespaced("a", 0); got != "a" {
		t.Errorf("depth 0 = %q", got)
	}
	if got := namespaced("a", 2); got != "____a" {
		t.Errorf("depth 2 = %q", got)
	}
	if got := namespaced(Text, 3); got != Text {
		t.Errorf("text = %q", got)
	}
}
