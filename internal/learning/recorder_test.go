package learning

import (
	"context"
	"database/sql"
	"math/rand"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/imitate/internal/frame"
	"github.com/danielpatrickdp/imitate/internal/registry"
	"github.com/danielpatrickdp/imitate/internal/session"
)

// #region helpers

type testFrame struct{ wrapped []frame.Frame }

func (f *testFrame) Copy() frame.Frame       { return &testFrame{wrapped: f.wrapped} }
func (f *testFrame) Wrap(others []frame.Frame) { f.wrapped = append(f.wrapped, others...) }
func (f *testFrame) Empty() bool               { return false }

func newFrame(_ []frame.Frame) (frame.Frame, bool) { return &testFrame{}, true }

func testRegistry() *registry.Registry {
	reg := registry.New(registry.NewSequences())
	reg.RegisterPure("f", 1, newFrame).
		RegisterPure("g", 1, newFrame).
		RegisterPure("h", 2, newFrame)
	return reg
}

func newSession(t *testing.T, p session.Persistence) *session.Session {
	t.Helper()
	return session.New(&testFrame{}, session.Options{
		Registry:    testRegistry(),
		Persistence: p,
		Rand:        rand.New(rand.NewSource(1)),
	})
}

func commit(t *testing.T, s *session.Session, text string) *session.Statement {
	t.Helper()
	st, err := s.Prepare(context.Background(), text)
	if err != nil {
		t.Fatalf("Prepare(%q): %v", text, err)
	}
	s.Memory().AddStep(st, &testFrame{}, false)
	return st
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// backends returns a fresh instance of every Backend implementation.
func backends(t *testing.T) map[string]Backend {
	t.Helper()
	sqlite, err := NewSQLiteBackend(newTestDB(t), false)
	if err != nil {
		t.Fatal(err)
	}
	bdg, err := OpenBadger(BadgerConfig{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { bdg.Close() })
	return map[string]Backend{
		"memory": NewMemoryBackend(),
		"sqlite": sqlite,
		"badger": bdg,
	}
}

func statFor(t *testing.T, b Backend, prior, subsequent string) FeedbackStats {
	t.Helper()
	stats, err := b.Stats(context.Background(), prior)
	if err != nil {
		t.Fatalf("Stats(%q): %v", prior, err)
	}
	for _, s := range stats {
		if s.Subsequent == subsequent {
			return s
		}
	}
	t.Fatalf("no stats for %q after %q in %+v", subsequent, prior, stats)
	return FeedbackStats{}
}

// #endregion helpers

// #region update-tests

func TestRecorder_Update(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			r := NewRecorder(b)
			s := newSession(t, r)
			input1 := commit(t, s, "a = f text;")
			input2 := commit(t, s, "b = f a;")
			if err := r.Update(ctx, s, 1); err != nil {
				t.Fatalf("Update: %v", err)
			}

			st := statFor(t, b, "text", input1.Serialization())
			if st.Count != 1 || st.Cumulative != 1 {
				t.Errorf("first = %+v", st)
			}
			prior := s.SerializePrevious("a")
			if prior != "f (text),text" {
				t.Fatalf("SerializePrevious(a) = %q", prior)
			}
			st = statFor(t, b, prior, input2.Serialization())
			if st.Count != 1 || st.Cumulative != 1 {
				t.Errorf("second = %+v", st)
			}

			// the same statements applied again in a new session
			s = newSession(t, r)
			s.Memory().AddStep(input1, &testFrame{}, false)
			s.Memory().AddStep(input2, &testFrame{}, false)
			if err := r.Update(ctx, s, 1); err != nil {
				t.Fatalf("Update: %v", err)
			}
			if st := statFor(t, b, "text", input1.Serialization()); st.Count != 2 || st.Cumulative != 2 {
				t.Errorf("first again = %+v", st)
			}
			if st := statFor(t, b, prior, input2.Serialization()); st.Count != 2 || st.Cumulative != 2 {
				t.Errorf("second again = %+v", st)
			}
		})
	}
}

func TestRecorder_UpdateSkipsSequenceAndFailures(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	r := NewRecorder(b)
	s := newSession(t, r)

	a := commit(t, s, "a = f text;")
	failed, err := s.Prepare(ctx, "y = h a a;")
	if err != nil {
		t.Fatal(err)
	}
	s.Memory().LogFailure(failed, -2)
	inner, err := s.Prepare(ctx, "x = g a;")
	if err != nil {
		t.Fatal(err)
	}
	s.Memory().AddStep(inner, &testFrame{}, true)

	if err := r.Update(ctx, s, 3); err != nil {
		t.Fatal(err)
	}
	if st := statFor(t, b, "text", a.Serialization()); st.Cumulative != 3 {
		t.Errorf("a = %+v", st)
	}
	if st := statFor(t, b, "text", failed.Serialization()); st.Cumulative != -2 {
		t.Errorf("failure = %+v", st)
	}
	for _, state := range b.States() {
		stats, _ := b.Stats(ctx, state)
		for _, st := range stats {
			if st.Subsequent == inner.Serialization() {
				t.Errorf("in-sequence entry recorded under %q", state)
			}
		}
	}
}

func TestRecorder_UpdateWithTrigger(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	r := NewRecorder(b)
	s := newSession(t, r)
	commit(t, s, "a = f text;")
	trigger := commit(t, s, "b = g a;")

	if err := r.UpdateWith(ctx, s, trigger, 4); err != nil {
		t.Fatal(err)
	}
	// credited at the state after the most recent commit
	st := statFor(t, b, s.SerializePrevious("b"), trigger.Serialization())
	if st.Count != 1 || st.Cumulative != 4 {
		t.Errorf("trigger = %+v", st)
	}
}

// #endregion update-tests

// #region best-for-tests

func TestRecorder_BestFor(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			r := NewRecorder(b)
			run := func(text string, score int) {
				s := newSession(t, r)
				commit(t, s, text)
				if err := r.Update(ctx, s, score); err != nil {
					t.Fatal(err)
				}
			}
			run("a = f text;", 1)
			run("a = f text;", 1)

			if best, ok, err := r.BestFor(ctx, "text", 3); err != nil || ok {
				t.Fatalf("below threshold: %q %v %v", best, ok, err)
			}

			run("a = g text;", 1)
			run("a = g text;", 2)

			best, ok, err := r.BestFor(ctx, "text", 2)
			if err != nil || !ok {
				t.Fatalf("BestFor: %v %v", ok, err)
			}
			if best != "g (text)" {
				t.Fatalf("best = %q, want g (text)", best)
			}

			s := newSession(t, r)
			commit(t, s, "b = "+best+";")
			if s.Memory().Input("b") == nil {
				t.Error("best statement did not bind")
			}
		})
	}
}

func TestRecorder_BestForTiesAndAnnotations(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	for i := 0; i < 2; i++ {
		b.AddObservation(ctx, Observation{Prior: "p", Subsequent: "~f (text)", Score: 1})
		b.AddObservation(ctx, Observation{Prior: "p", Subsequent: "g (text)", Score: 1})
	}
	best, ok, err := NewRecorder(b).BestFor(ctx, "p", 2)
	if err != nil || !ok {
		t.Fatalf("BestFor: %v %v", ok, err)
	}
	if best != "f (text)" {
		t.Errorf("best = %q, want the first-observed pair with its annotation stripped", best)
	}
}

func TestRecorder_ImitatorConverges(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(NewMemoryBackend())
	for i := 0; i < 2; i++ {
		s := newSession(t, r)
		commit(t, s, "a = g text;")
		if err := r.Update(ctx, s, 5); err != nil {
			t.Fatal(err)
		}
	}
	s := newSession(t, r)
	next, err := s.NextStatement(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if next != "__0 = g (text)" {
		t.Errorf("next = %q", next)
	}
}

// #endregion best-for-tests
