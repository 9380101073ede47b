package txn

import (
	"log/slog"

	"github.com/1broseidon/tilewm/internal/events"
	"github.com/1broseidon/tilewm/internal/loop"
	"github.com/1broseidon/tilewm/internal/platform"
)

// Manager owns the single active transaction. It must only be used from the
// event-loop goroutine.
type Manager struct {
	actor  platform.WindowActor
	sched  loop.Scheduler
	sink   events.Sink
	logger *slog.Logger
	strict bool

	active  *Transaction
	nextID  uint64
	applies uint64
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithSink sets where the per-batch change notification goes.
func WithSink(s events.Sink) Option {
	return func(m *Manager) {
		if s != nil {
			m.sink = s
		}
	}
}

// WithStrictSerials only accepts an acknowledgment carrying the serial that
// was returned for the window's resize request.
func WithStrictSerials(strict bool) Option {
	return func(m *Manager) {
		m.strict = strict
	}
}

// NewManager creates a manager that sends resize requests through actor and
// arms timeouts on sched.
func NewManager(actor platform.WindowActor, sched loop.Scheduler, opts ...Option) *Manager {
	m := &Manager{
		actor:  actor,
		sched:  sched,
		sink:   events.Discard,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Active returns the transaction currently open or awaiting
// acknowledgments, or nil.
func (m *Manager) Active() *Transaction {
	return m.active
}

// Applies returns how many transactions have been applied.
func (m *Manager) Applies() uint64 {
	return m.applies
}

// SetStrictSerials switches the acknowledgment policy on config reload.
func (m *Manager) SetStrictSerials(strict bool) { m.strict = strict }

// Begin starts a new open transaction. Any transaction still active is
// committed and applied first, so two batches never interleave.
func (m *Manager) Begin() *Transaction {
	m.Flush()

	m.nextID++
	t := &Transaction{
		mgr:     m,
		id:      m.nextID,
		byID:    make(map[platform.WindowID]*entry),
		waiting: make(map[platform.WindowID]struct{}),
	}
	m.active = t
	return t
}

// Flush commits and applies the active transaction without waiting for
// acknowledgments.
func (m *Manager) Flush() {
	prev := m.active
	if prev == nil {
		return
	}
	if prev.Open() {
		prev.Commit()
	}
	if !prev.Applied() {
		m.logger.Debug("flushing active transaction", "txn", prev.id, "waiting", len(prev.waiting))
		prev.finish()
	}
}

// Batch runs fn against the open active transaction, or against a new one
// that is committed when fn returns.
func (m *Manager) Batch(fn func(*Transaction)) {
	if t := m.active; t != nil && t.Open() {
		fn(t)
		return
	}
	t := m.Begin()
	fn(t)
	t.Commit()
}

// HandleCommit records that the client of id has redrawn after a resize. It
// reports whether the acknowledgment matched a pending change.
func (m *Manager) HandleCommit(id platform.WindowID, serial uint32) bool {
	if m.active == nil {
		return false
	}
	return m.active.handleCommit(id, serial)
}

// RemoveWindow strikes a destroyed window from the active transaction.
func (m *Manager) RemoveWindow(id platform.WindowID) {
	if m.active == nil {
		return
	}
	m.active.removeWindow(id)
}
