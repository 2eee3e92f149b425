package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Closer flushes buffered records on shutdown.
type Closer interface {
	Close()
}

// nopCloser is the Closer for synchronous mode.
type nopCloser struct{}

func (nopCloser) Close() {}

// entry pairs a record with the handler that enqueued it, so records
// logged through WithAttrs or WithGroup derivatives keep their attributes
// when a worker encodes them.
type entry struct {
	h   slog.Handler
	rec slog.Record
}

// asyncCore is the state shared by an AsyncHandler and all its derivatives:
// one queue, one worker pool, one drop counter.
type asyncCore struct {
	queue   chan entry
	workers sync.WaitGroup
	drops   atomic.Int64
}

// AsyncHandler hands records to background workers through a bounded
// queue. The dispatcher and executor log while holding the manager lock,
// so emission must never block: when the queue is full the record is
// dropped and counted instead.
type AsyncHandler struct {
	next slog.Handler
	core *asyncCore
}

// NewAsyncHandler starts workers draining a queue of the given capacity
// into next.
func NewAsyncHandler(next slog.Handler, capacity, workers int) *AsyncHandler {
	core := &asyncCore{queue: make(chan entry, capacity)}
	for range workers {
		core.workers.Add(1)
		go func() {
			defer core.workers.Done()
			for e := range core.queue {
				_ = e.h.Handle(context.Background(), e.rec)
			}
		}()
	}
	return &AsyncHandler{next: next, core: core}
}

// Enabled delegates to the wrapped handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle enqueues the record, dropping it when the queue is full.
func (h *AsyncHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	select {
	case h.core.queue <- entry{h: h.next, rec: rec}:
	default:
		h.core.drops.Add(1)
	}
	return nil
}

// WithAttrs derives a handler sharing the queue and workers.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{next: h.next.WithAttrs(attrs), core: h.core}
}

// WithGroup derives a handler sharing the queue and workers.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{next: h.next.WithGroup(name), core: h.core}
}

// DroppedCount reports how many records were discarded on a full queue.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.core.drops.Load()
}

// Close stops accepting records and waits for the workers to drain the
// queue. Call once, on the handler returned by NewAsyncHandler.
func (h *AsyncHandler) Close() {
	close(h.core.queue)
	h.core.workers.Wait()
}
