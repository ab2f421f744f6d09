package store

import (
	"encoding/json"
	"fmt"
	"os"
)

// ErrorHandler receives persistence failures. The default logs to stderr;
// a retry or backoff policy can be swapped in without touching call sites.
type ErrorHandler func(key string, err error)

func stderrHandler(key string, err error) {
	fmt.Fprintf(os.Stderr, "store: persist %s: %v\n", key, err)
}

type writeReq struct {
	key  string
	data json.RawMessage
}

// Writer is the one-way outbound persistence port. Enqueue snapshots the
// value immediately (JSON-encoded on the caller's goroutine, so later
// in-memory mutations cannot leak into the write) and returns without
// waiting for the disk. A single goroutine drains the queue in order;
// failures go to the error handler and are never retried. In-memory state
// stays authoritative for the session either way.
type Writer struct {
	gateway Gateway
	queue   chan writeReq
	done    chan struct{}
	onError ErrorHandler
}

// NewWriter starts the drain goroutine. Pass nil to use the stderr handler.
func NewWriter(g Gateway, onError ErrorHandler) *Writer {
	if onError == nil {
		onError = stderrHandler
	}
	w := &Writer{
		gateway: g,
		queue:   make(chan writeReq, 128),
		done:    make(chan struct{}),
		onError: onError,
	}
	go w.drain()
	return w
}

// Enqueue schedules a write. It never blocks a mutation on disk latency;
// if the queue is somehow full the write happens inline instead of being
// dropped.
func (w *Writer) Enqueue(key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		w.onError(key, err)
		return
	}
	req := writeReq{key: key, data: data}
	select {
	case w.queue <- req:
	default:
		w.write(req)
	}
}

// Close drains pending writes and stops the goroutine. Call on shutdown so
// the last mutation reaches disk.
func (w *Writer) Close() {
	close(w.queue)
	<-w.done
}

func (w *Writer) drain() {
	defer close(w.done)
	for req := range w.queue {
		w.write(req)
	}
}

func (w *Writer) write(req writeReq) {
	if err := w.gateway.Put(req.key, req.data); err != nil {
		w.onError(req.key, err)
	}
}
