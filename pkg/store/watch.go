package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeEvent is emitted by Gateway.Watch when a durable aggregate changes
// on disk. Key is empty when the change could not be attributed to a single
// aggregate and callers should refresh everything.
type ChangeEvent struct {
	Key string
}

// Watch streams change events until ctx is cancelled. Callers should drain
// the returned channel to avoid losing notifications. The channel is closed
// once ctx is done or the watcher encounters an unrecoverable error.
func (g *gateway) Watch(ctx context.Context) (<-chan ChangeEvent, error) {
	if g.basePath == "" {
		return nil, errors.New("store: base path unknown")
	}
	if err := os.MkdirAll(g.basePath, 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: create watcher: %w", err)
	}
	if err := watcher.Add(g.basePath); err != nil {
		if cerr := watcher.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "store: watcher close: %v\n", cerr)
		}
		return nil, fmt.Errorf("store: watch %s: %w", g.basePath, err)
	}

	events := make(chan ChangeEvent, 16)

	go func() {
		defer close(events)
		defer func() {
			if err := watcher.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "store: watcher close: %v\n", err)
			}
		}()

		send := func(ev ChangeEvent) {
			select {
			case events <- ev:
			default:
				// Drop when the consumer is behind; the next notification
				// triggers a refresh anyway and the watcher must not stall.
			}
		}

		throttle := newChangeThrottle(100 * time.Millisecond)
		defer throttle.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Surface watcher errors as a full refresh so clients stay
				// in sync even when the change cannot be classified.
				fmt.Fprintf(os.Stderr, "store: watch: %v\n", err)
				throttle.Enqueue(ChangeEvent{}, send)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				key := filepath.Base(evt.Name)
				throttle.Enqueue(ChangeEvent{Key: key}, send)
			}
		}
	}()

	return events, nil
}

// changeThrottle coalesces rapid notifications so a consumer redraws once
// per burst of filesystem activity instead of on every single write.
type changeThrottle struct {
	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]struct{}
	delay   time.Duration
}

func newChangeThrottle(delay time.Duration) *changeThrottle {
	return &changeThrottle{
		delay:   delay,
		pending: make(map[string]struct{}),
	}
}

func (t *changeThrottle) Enqueue(ev ChangeEvent, send func(ChangeEvent)) {
	t.mu.Lock()
	t.pending[ev.Key] = struct{}{}
	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, func() {
			t.flush(send)
		})
	}
	t.mu.Unlock()
}

func (t *changeThrottle) flush(send func(ChangeEvent)) {
	t.mu.Lock()
	pending := t.pending
	t.pending = make(map[string]struct{})
	t.timer = nil
	t.mu.Unlock()

	for key := range pending {
		send(ChangeEvent{Key: key})
	}
}

func (t *changeThrottle) Stop() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}
