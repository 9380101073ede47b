// Package txn applies batches of window geometry changes atomically. A
// transaction asks every window to resize, waits for the clients to
// acknowledge, and then makes all new geometries visible in one pass. A fixed
// timeout bounds the wait so one slow client cannot stall layout.
package txn

import (
	"time"

	"github.com/1broseidon/tilewm/internal/events"
	"github.com/1broseidon/tilewm/internal/loop"
	"github.com/1broseidon/tilewm/internal/platform"
)

// Timeout is how long a committed transaction waits for acknowledgments.
const Timeout = 300 * time.Millisecond

// Window is the part of a managed window a transaction needs.
type Window interface {
	ID() platform.WindowID
	SetPendingGeometry(platform.Rect)
	ApplyGeometry(platform.Rect)
	Destroyed() bool
}

type state int

const (
	stateOpen state = iota
	stateCommitted
	stateApplied
)

func (s state) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateCommitted:
		return "committed"
	default:
		return "applied"
	}
}

type entry struct {
	// window is nil once the entry has been resolved without applying.
	window    Window
	target    platform.Rect
	serial    uint32
	committed bool
}

// Transaction is one batch of pending geometry changes.
type Transaction struct {
	mgr     *Manager
	id      uint64
	state   state
	entries []*entry
	byID    map[platform.WindowID]*entry
	waiting map[platform.WindowID]struct{}
	timer   loop.Timer
}

// ID returns a sequence number for logging.
func (t *Transaction) ID() uint64 { return t.id }

// Open reports whether the transaction still accepts changes.
func (t *Transaction) Open() bool { return t.state == stateOpen }

// Applied reports whether the transaction has reached its terminal state.
func (t *Transaction) Applied() bool { return t.state == stateApplied }

// Waiting returns how many windows have not acknowledged yet.
func (t *Transaction) Waiting() int { return len(t.waiting) }

// Len returns the number of windows with a pending change.
func (t *Transaction) Len() int {
	n := 0
	for _, e := range t.entries {
		if e.window != nil {
			n++
		}
	}
	return n
}

// Target returns the pending geometry for id, if any.
func (t *Transaction) Target(id platform.WindowID) (platform.Rect, bool) {
	e, ok := t.byID[id]
	if !ok || e.window == nil {
		return platform.Rect{}, false
	}
	return e.target, true
}

// Acknowledged reports whether the client of id has confirmed its resize.
func (t *Transaction) Acknowledged(id platform.WindowID) bool {
	e, ok := t.byID[id]
	return ok && e.committed
}

// AddChange records geometry as w's target. A later call for the same window
// replaces the earlier target. It reports false once the transaction is
// committed.
func (t *Transaction) AddChange(w Window, geometry platform.Rect) bool {
	if t.state != stateOpen || w == nil {
		return false
	}

	if e, ok := t.byID[w.ID()]; ok {
		e.window = w
		e.target = geometry
		return true
	}

	e := &entry{window: w, target: geometry}
	t.entries = append(t.entries, e)
	t.byID[w.ID()] = e
	return true
}

// Commit sends a resize request for every pending change and arms the
// timeout. Changes with no area are resolved immediately and never applied.
// If nothing is left to wait for, the transaction applies at once.
func (t *Transaction) Commit() {
	if t.state != stateOpen {
		return
	}
	t.state = stateCommitted

	m := t.mgr
	decorated, _ := m.actor.(platform.Decorated)

	for _, e := range t.entries {
		if e.window == nil {
			continue
		}
		id := e.window.ID()

		if e.target.Empty() {
			m.logger.Debug("dropping change with no area", "txn", t.id, "window", id, "target", e.target)
			e.window = nil
			continue
		}

		e.window.SetPendingGeometry(e.target)

		width, height := e.target.Width, e.target.Height
		if decorated != nil {
			ext := decorated.Extents(id)
			width -= ext.Left + ext.Right
			height -= ext.Top + ext.Bottom
		}
		if width < 1 {
			width = 1
		}
		if height < 1 {
			height = 1
		}

		e.serial = m.actor.RequestResize(id, width, height)
		t.waiting[id] = struct{}{}
	}

	m.logger.Debug("transaction committed", "txn", t.id, "waiting", len(t.waiting))

	if len(t.waiting) == 0 {
		t.finish()
		return
	}
	t.timer = m.sched.AfterFunc(Timeout, t.onTimeout)
}

func (t *Transaction) handleCommit(id platform.WindowID, serial uint32) bool {
	if _, ok := t.waiting[id]; !ok {
		return false
	}
	e := t.byID[id]
	if t.mgr.strict && serial != e.serial {
		t.mgr.logger.Debug("ignoring commit with stale serial",
			"txn", t.id, "window", id, "serial", serial, "expected", e.serial)
		return false
	}

	e.committed = true
	delete(t.waiting, id)
	if len(t.waiting) == 0 {
		t.finish()
	}
	return true
}

func (t *Transaction) removeWindow(id platform.WindowID) {
	e, ok := t.byID[id]
	if !ok {
		return
	}
	e.window = nil
	delete(t.waiting, id)

	if t.state == stateCommitted && len(t.waiting) == 0 {
		t.finish()
	}
}

func (t *Transaction) onTimeout() {
	if t.state != stateCommitted {
		return
	}

	pending := make([]platform.WindowID, 0, len(t.waiting))
	for id := range t.waiting {
		pending = append(pending, id)
	}
	t.mgr.logger.Warn("transaction timed out, forcing apply", "txn", t.id, "unacknowledged", pending)
	t.finish()
}

// finish detaches the transaction from the manager and applies it.
func (t *Transaction) finish() {
	if t.mgr.active == t {
		t.mgr.active = nil
	}
	t.apply()
}

// apply makes every surviving change visible and notifies once.
func (t *Transaction) apply() {
	if t.state == stateApplied {
		return
	}
	t.state = stateApplied
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}

	m := t.mgr
	positioner, _ := m.actor.(platform.Positioner)

	applied := 0
	for _, e := range t.entries {
		w := e.window
		if w == nil || w.Destroyed() || !m.actor.IsMapped(w.ID()) {
			continue
		}
		w.ApplyGeometry(e.target)
		if positioner != nil {
			positioner.Move(w.ID(), e.target.X, e.target.Y)
		}
		applied++
	}
	t.waiting = nil

	m.logger.Debug("transaction applied", "txn", t.id, "windows", applied)
	m.applies++
	if applied > 0 {
		m.sink.Notify(events.WindowsChanged)
	}
}
