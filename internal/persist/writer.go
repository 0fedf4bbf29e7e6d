// Package persist decouples Session Store writes from live propagation.
// Deltas are queued without blocking and applied in order by a background
// goroutine that retries failures with exponential backoff.
package persist

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/vk/widgetgrid/internal/ctxlog"
	"github.com/vk/widgetgrid/internal/sessionstore"
	"go.trai.ch/zerr"
)

// ErrQueueFull is logged when a delta is dropped because the queue is full.
var ErrQueueFull = zerr.New("persistence queue full")

// Options tunes the writer.
type Options struct {
	QueueSize       int
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultOptions returns production defaults.
func DefaultOptions() Options {
	return Options{
		QueueSize:       1024,
		MaxRetries:      5,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// Writer applies deltas to a store in enqueue order.
type Writer struct {
	store sessionstore.Store
	opts  Options
	queue chan Delta

	pending  sync.WaitGroup
	degraded atomic.Bool
}

// New creates a writer. Zero option fields take their defaults.
func New(store sessionstore.Store, opts Options) *Writer {
	def := DefaultOptions()
	if opts.QueueSize <= 0 {
		opts.QueueSize = def.QueueSize
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = def.MaxRetries
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = def.InitialInterval
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = def.MaxInterval
	}
	return &Writer{
		store: store,
		opts:  opts,
		queue: make(chan Delta, opts.QueueSize),
	}
}

// Enqueue schedules d without blocking. It reports false and marks the
// writer degraded when the queue is full.
func (w *Writer) Enqueue(ctx context.Context, d Delta) bool {
	w.pending.Add(1)
	select {
	case w.queue <- d:
		return true
	default:
		w.pending.Done()
		w.degraded.Store(true)
		err := zerr.With(zerr.With(zerr.Wrap(ErrQueueFull, "enqueue delta"), "op", d.Op), "session", d.Session)
		zerr.Log(ctx, ctxlog.FromContext(ctx), err)
		return false
	}
}

// Run applies queued deltas until ctx is cancelled, then drains what is
// already queued with a fresh context bounded by one retry cycle.
func (w *Writer) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Persistence writer started.", "queue_size", w.opts.QueueSize)
	for {
		select {
		case d := <-w.queue:
			w.apply(ctx, d)
		case <-ctx.Done():
			w.drain(ctxlog.WithLogger(context.Background(), logger))
			logger.Info("Persistence writer stopped.")
			return nil
		}
	}
}

// Flush blocks until every enqueued delta has been applied or dropped.
func (w *Writer) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		w.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Degraded reports whether the last write failed or a delta was dropped.
func (w *Writer) Degraded() bool {
	return w.degraded.Load()
}

func (w *Writer) drain(ctx context.Context) {
	for {
		select {
		case d := <-w.queue:
			w.apply(ctx, d)
		default:
			return
		}
	}
}

func (w *Writer) apply(ctx context.Context, d Delta) {
	defer w.pending.Done()
	logger := ctxlog.FromContext(ctx)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.opts.InitialInterval
	b.MaxInterval = w.opts.MaxInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(w.opts.MaxRetries)), ctx)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := d.Apply(ctx, w.store)
		if err != nil {
			logger.Debug("Session store write failed, retrying.", "op", d.Op, "session", d.Session, "attempt", attempt, "error", err)
		}
		return err
	}, policy)
	if err != nil {
		w.degraded.Store(true)
		err = zerr.With(zerr.With(zerr.Wrap(err, "persist delta"), "op", d.Op), "session", d.Session)
		zerr.Log(ctx, logger, err)
		return
	}
	if w.degraded.Swap(false) {
		logger.Info("Session store writes recovered.")
	}
}
