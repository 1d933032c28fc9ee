package learning

import (
	"context"
	"testing"

	"github.com/danielpatrickdp/imitate/internal/logging"
	"github.com/danielpatrickdp/imitate/internal/store"
)

func TestSQLiteBackend_LogsObservations(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	b, err := NewSQLiteBackend(st.DB(), true)
	if err != nil {
		t.Fatal(err)
	}
	for _, score := range []int{2, -1} {
		err := b.AddObservation(ctx, Observation{Prior: "text", Subsequent: "f (text)", Score: score, SessionID: "s1"})
		if err != nil {
			t.Fatalf("AddObservation: %v", err)
		}
	}

	stats, err := b.Stats(ctx, "text")
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 1 || stats[0].Count != 2 || stats[0].Cumulative != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if ev := stats[0].ExpectedValue(); ev != 0.5 {
		t.Errorf("expected value = %v", ev)
	}

	logged, err := logging.ListObservations(ctx, st.DB(), "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(logged) != 2 || logged[1].Score != -1 {
		t.Errorf("observation log = %+v", logged)
	}
}

func TestSQLiteBackend_TopStates(t *testing.T) {
	ctx := context.Background()
	b, err := NewSQLiteBackend(newTestDB(t), false)
	if err != nil {
		t.Fatal(err)
	}
	obs := []Observation{
		{Prior: "a", Subsequent: "x"},
		{Prior: "b", Subsequent: "x"},
		{Prior: "b", Subsequent: "y"},
		{Prior: "b", Subsequent: "y"},
	}
	for _, o := range obs {
		if err := b.AddObservation(ctx, o); err != nil {
			t.Fatal(err)
		}
	}
	states, err := b.TopStates(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(states) != 2 || states[0] != "b" || states[1] != "a" {
		t.Errorf("states = %v", states)
	}
}

func TestSQLiteBackend_StatsEmpty(t *testing.T) {
	b, err := NewSQLiteBackend(newTestDB(t), false)
	if err != nil {
		t.Fatal(err)
	}
	stats, err := b.Stats(context.Background(), "nothing")
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 0 {
		t.Errorf("stats = %+v", stats)
	}
}
