package learning

import (
	"context"
	"sync"
	"testing"
)

func TestBadgerBackend_Persists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b, err := OpenBadger(BadgerConfig{Path: dir})
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"g (text)", "f (text)", "g (text)"} {
		if err := b.AddObservation(ctx, Observation{Prior: "text", Subsequent: s, Score: 1}); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}

	b, err = OpenBadger(BadgerConfig{Path: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	stats, err := b.Stats(ctx, "text")
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats[0].Subsequent != "g (text)" || stats[0].Count != 2 {
		t.Errorf("first = %+v, want g (text) observed twice", stats[0])
	}
	if stats[1].Subsequent != "f (text)" || stats[1].Count != 1 {
		t.Errorf("second = %+v", stats[1])
	}
}

func TestBadgerBackend_PrefixIsolation(t *testing.T) {
	ctx := context.Background()
	b, err := OpenBadger(BadgerConfig{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	b.AddObservation(ctx, Observation{Prior: "text", Subsequent: "f (text)", Score: 1})
	b.AddObservation(ctx, Observation{Prior: "text:f (text)", Subsequent: "g (text)", Score: 1})

	stats, err := b.Stats(ctx, "text")
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 1 || stats[0].Subsequent != "f (text)" {
		t.Errorf("stats = %+v", stats)
	}
}

func TestBadgerBackend_Concurrent(t *testing.T) {
	ctx := context.Background()
	b, err := OpenBadger(BadgerConfig{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 4; j++ {
				if err := b.AddObservation(ctx, Observation{Prior: "p", Subsequent: "s", Score: 2}); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
	stats, _ := b.Stats(ctx, "p")
	if len(stats) != 1 || stats[0].Count != 16 || stats[0].Cumulative != 32 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestOpenBadger_RequiresPath(t *testing.T) {
	if _, err := OpenBadger(BadgerConfig{}); err == nil {
		t.Fatal("expected error without path")
	}
}
