package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestGatewayRoundTrip(t *testing.T) {
	g, err := Open(FixedConfig(t.TempDir()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	type doc struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	if err := g.Put(KeySettings, doc{Name: "a", Count: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out doc
	found, err := g.Get(context.Background(), KeySettings, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatalf("expected key to exist")
	}
	if out.Name != "a" || out.Count != 3 {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestGatewayMissingKey(t *testing.T) {
	g, err := Open(FixedConfig(t.TempDir()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out []string
	found, err := g.Get(context.Background(), KeyContacts, &out)
	if err != nil {
		t.Fatalf("absence must not be an error, got %v", err)
	}
	if found {
		t.Fatalf("expected absence")
	}
}

func TestGatewayCanceledContext(t *testing.T) {
	g, _ := Open(FixedConfig(t.TempDir()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out []string
	if _, err := g.Get(ctx, KeyContacts, &out); err == nil {
		t.Fatalf("expected context error")
	}
}

// memGateway records Puts for Writer tests.
type memGateway struct {
	mu   sync.Mutex
	puts []string
	fail error
}

func (g *memGateway) Get(ctx context.Context, key string, out any) (bool, error) {
	return false, nil
}

func (g *memGateway) Put(key string, value any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail != nil {
		return g.fail
	}
	g.puts = append(g.puts, key)
	return nil
}

func (g *memGateway) Watch(ctx context.Context) (<-chan ChangeEvent, error) {
	return make(chan ChangeEvent), nil
}

func TestWriterDrainsOnClose(t *testing.T) {
	g := &memGateway{}
	w := NewWriter(g, nil)

	w.Enqueue(KeyEvents, []string{"a"})
	w.Enqueue(KeyMyTasks, []string{"b"})
	w.Enqueue(KeyEvents, []string{"c"})
	w.Close()

	g.mu.Lock()
	defer g.mu.Unlock()
	want := []string{KeyEvents, KeyMyTasks, KeyEvents}
	if len(g.puts) != len(want) {
		t.Fatalf("expected %d writes, got %v", len(want), g.puts)
	}
	for i, key := range want {
		if g.puts[i] != key {
			t.Fatalf("writes out of order: %v", g.puts)
		}
	}
}

func TestWriterReportsFailures(t *testing.T) {
	g := &memGateway{fail: errors.New("disk full")}

	var mu sync.Mutex
	var failed []string
	w := NewWriter(g, func(key string, err error) {
		mu.Lock()
		failed = append(failed, key)
		mu.Unlock()
	})

	w.Enqueue(KeyEvents, []string{"a"})
	w.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(failed) != 1 || failed[0] != KeyEvents {
		t.Fatalf("expected one failure for %s, got %v", KeyEvents, failed)
	}
}

func TestWriterSnapshotsAtEnqueue(t *testing.T) {
	dir := t.TempDir()
	g, _ := Open(FixedConfig(dir))
	w := NewWriter(g, nil)

	value := []string{"before"}
	w.Enqueue(KeyContacts, value)
	value[0] = "after" // must not leak into the queued write
	w.Close()

	var out []string
	if _, err := g.Get(context.Background(), KeyContacts, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0] != "before" {
		t.Fatalf("write must capture the value at enqueue time, got %v", out)
	}
}

func TestDebouncerCoalesces(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var mu sync.Mutex
	var got []int
	record := func(n int) func() {
		return func() {
			mu.Lock()
			got = append(got, n)
			mu.Unlock()
		}
	}

	d.Trigger(record(1))
	d.Trigger(record(2))
	d.Trigger(record(3))
	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != 3 {
		t.Fatalf("burst must coalesce to the last call, got %v", got)
	}
}

func TestDebouncerFlushRunsPendingOnce(t *testing.T) {
	d := NewDebouncer(time.Hour)

	calls := 0
	d.Trigger(func() { calls++ })
	d.Flush()
	d.Flush()

	if calls != 1 {
		t.Fatalf("flush must run the pending call exactly once, got %d", calls)
	}
}

func TestDebouncerStopDropsPending(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)

	calls := 0
	d.Trigger(func() { calls++ })
	d.Stop()
	time.Sleep(50 * time.Millisecond)

	if calls != 0 {
		t.Fatalf("stop must drop the pending call, got %d", calls)
	}
}
