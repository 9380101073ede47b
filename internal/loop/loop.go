// Package loop runs all layout-core mutations on one goroutine. Other
// goroutines hand work to it with Post or Do; timers fire on it too.
package loop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrStopped is returned when work is handed to a loop that is not running.
var ErrStopped = errors.New("event loop stopped")

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop prevents the callback from running and reports whether it was
	// still pending.
	Stop() bool
}

// Scheduler runs a callback on the loop goroutine after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// Loop is a single-goroutine work queue.
type Loop struct {
	queue  chan func()
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

var _ Scheduler = (*Loop)(nil)

// New creates a loop with a queue of the given capacity.
func New(logger *slog.Logger, capacity int) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	if capacity <= 0 {
		capacity = 64
	}
	return &Loop{
		queue:  make(chan func(), capacity),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Run executes queued work until ctx is cancelled. Blocks.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.done) })

	l.logger.Debug("event loop started")
	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("event loop stopped")
			return ctx.Err()
		case fn := <-l.queue:
			l.run(fn)
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if err := recover(); err != nil {
			l.logger.Error("event loop task panicked", "error", err)
		}
	}()
	fn()
}

// Post enqueues fn. It reports false if the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for its result.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	if !l.Post(func() { result <- fn() }) {
		return ErrStopped
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

const (
	timerPending int32 = iota
	timerFired
	timerStopped
)

type loopTimer struct {
	state atomic.Int32
	timer *time.Timer
}

func (t *loopTimer) Stop() bool {
	if !t.state.CompareAndSwap(timerPending, timerStopped) {
		return false
	}
	t.timer.Stop()
	return true
}

// AfterFunc runs fn on the loop goroutine after d. A Stop issued from the
// loop goroutine before fn runs always wins, even if the underlying timer
// already expired.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.state.CompareAndSwap(timerPending, timerFired) {
				fn()
			}
		})
	})
	return t
}
