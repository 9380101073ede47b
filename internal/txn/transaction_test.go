package txn

import (
	"testing"
	"time"

	"github.com/1broseidon/tilewm/internal/events"
	"github.com/1broseidon/tilewm/internal/loop"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/platform/platformtest"
)

type testWindow struct {
	id        platform.WindowID
	geometry  platform.Rect
	pending   platform.Rect
	destroyed bool
}

func (w *testWindow) ID() platform.WindowID              { return w.id }
func (w *testWindow) SetPendingGeometry(r platform.Rect) { w.pending = r }
func (w *testWindow) ApplyGeometry(r platform.Rect)      { w.geometry = r }
func (w *testWindow) Destroyed() bool                    { return w.destroyed }

type harness struct {
	actor   *platformtest.Actor
	sched   *loop.ManualScheduler
	mgr     *Manager
	notices []events.Change
}

func newHarness(opts ...Option) *harness {
	h := &harness{
		actor: platformtest.NewActor(),
		sched: loop.NewManualScheduler(),
	}
	sink := events.SinkFunc(func(c events.Change) { h.notices = append(h.notices, c) })
	h.mgr = NewManager(h.actor, h.sched, append([]Option{WithSink(sink)}, opts...)...)
	return h
}

func (h *harness) ack(t *testing.T, id platform.WindowID) {
	t.Helper()
	serial, ok := h.actor.LastSerial(id)
	if !ok {
		t.Fatalf("window %d was never asked to resize", id)
	}
	if !h.mgr.HandleCommit(id, serial) {
		t.Fatalf("commit for window %d was not accepted", id)
	}
}

func windows(ids ...platform.WindowID) []*testWindow {
	ws := make([]*testWindow, len(ids))
	for i, id := range ids {
		ws[i] = &testWindow{id: id}
	}
	return ws
}

func rectN(n int) platform.Rect {
	return platform.Rect{X: n * 100, Y: 0, Width: 100, Height: 100}
}

func TestTransaction_AtomicAcrossAcknowledgmentOrders(t *testing.T) {
	orders := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}}

	for _, order := range orders {
		h := newHarness()
		ws := windows(1, 2, 3)

		tx := h.mgr.Begin()
		for i, w := range ws {
			tx.AddChange(w, rectN(i+1))
		}
		tx.Commit()

		for step, idx := range order {
			// Nothing may become visible until the last acknowledgment.
			for _, w := range ws {
				if w.geometry != (platform.Rect{}) {
					t.Fatalf("order %v step %d: window %d visible early", order, step, w.id)
				}
			}
			h.ack(t, ws[idx].id)
		}

		for i, w := range ws {
			if w.geometry != rectN(i+1) {
				t.Fatalf("order %v: window %d geometry %v", order, w.id, w.geometry)
			}
		}
		if len(h.notices) != 1 || h.notices[0] != events.WindowsChanged {
			t.Fatalf("order %v: expected one windows notification, got %v", order, h.notices)
		}
		if h.mgr.Applies() != 1 {
			t.Fatalf("order %v: applied %d times", order, h.mgr.Applies())
		}
		if h.mgr.Active() != nil {
			t.Fatalf("order %v: transaction still active", order)
		}
		if h.sched.Pending() != 0 {
			t.Fatalf("order %v: timeout left armed", order)
		}
	}
}

func TestTransaction_TimeoutForcesApply(t *testing.T) {
	h := newHarness()
	ws := windows(1, 2)

	tx := h.mgr.Begin()
	tx.AddChange(ws[0], rectN(1))
	tx.AddChange(ws[1], rectN(2))
	tx.Commit()

	h.ack(t, 1)
	h.sched.Advance(Timeout - time.Millisecond)
	if ws[0].geometry != (platform.Rect{}) {
		t.Fatalf("applied before timeout")
	}

	h.sched.Advance(time.Millisecond)
	if ws[0].geometry != rectN(1) || ws[1].geometry != rectN(2) {
		t.Fatalf("timeout did not force both windows: %v %v", ws[0].geometry, ws[1].geometry)
	}
	if !tx.Applied() || h.mgr.Applies() != 1 {
		t.Fatalf("expected exactly one apply")
	}

	// A late acknowledgment is ignored.
	if h.mgr.HandleCommit(2, 0) {
		t.Fatalf("late commit should not be accepted")
	}
	h.sched.Advance(time.Second)
	if h.mgr.Applies() != 1 || len(h.notices) != 1 {
		t.Fatalf("apply ran again: applies=%d notices=%v", h.mgr.Applies(), h.notices)
	}
}

func TestTransaction_AddChangeUpserts(t *testing.T) {
	h := newHarness()
	w := &testWindow{id: 4}

	tx := h.mgr.Begin()
	tx.AddChange(w, rectN(1))
	tx.AddChange(w, rectN(2))
	if tx.Len() != 1 {
		t.Fatalf("expected one entry, got %d", tx.Len())
	}
	tx.Commit()

	if len(h.actor.Resizes) != 1 {
		t.Fatalf("expected one resize request, got %d", len(h.actor.Resizes))
	}
	if w.pending != rectN(2) {
		t.Fatalf("pending geometry %v, want latest target", w.pending)
	}
	if tx.AddChange(w, rectN(3)) {
		t.Fatalf("committed transaction must reject changes")
	}
}

func TestTransaction_BeginCommitsPrevious(t *testing.T) {
	h := newHarness()
	a, b := &testWindow{id: 1}, &testWindow{id: 2}

	first := h.mgr.Begin()
	first.AddChange(a, rectN(1))

	second := h.mgr.Begin()
	if !first.Applied() {
		t.Fatalf("previous transaction should be applied by Begin")
	}
	if a.geometry != rectN(1) {
		t.Fatalf("previous change was discarded: %v", a.geometry)
	}
	if len(h.actor.Resizes) != 1 {
		t.Fatalf("previous transaction was not committed")
	}
	if h.mgr.Active() != second {
		t.Fatalf("new transaction is not active")
	}

	second.AddChange(b, rectN(2))
	second.Commit()
	h.ack(t, 2)
	if b.geometry != rectN(2) || h.mgr.Applies() != 2 {
		t.Fatalf("second transaction did not apply")
	}
}

func TestTransaction_BeginFlushesCommittedTransaction(t *testing.T) {
	h := newHarness()
	a := &testWindow{id: 1}

	first := h.mgr.Begin()
	first.AddChange(a, rectN(1))
	first.Commit()

	h.mgr.Begin()
	if a.geometry != rectN(1) || !first.Applied() {
		t.Fatalf("committed transaction should be applied before a new one starts")
	}
	if h.sched.Pending() != 0 {
		t.Fatalf("flushed transaction left its timer armed")
	}
}

func TestTransaction_DropsEmptyTargets(t *testing.T) {
	h := newHarness()
	a, b := &testWindow{id: 1}, &testWindow{id: 2}

	tx := h.mgr.Begin()
	tx.AddChange(a, platform.Rect{Width: 0, Height: 100})
	tx.AddChange(b, rectN(2))
	tx.Commit()

	if tx.Waiting() != 1 {
		t.Fatalf("expected only the valid change to wait, got %d", tx.Waiting())
	}
	h.ack(t, 2)
	if a.geometry != (platform.Rect{}) {
		t.Fatalf("empty target was applied: %v", a.geometry)
	}
	if b.geometry != rectN(2) {
		t.Fatalf("valid target not applied")
	}
}

func TestTransaction_CommitWithNothingToWaitForAppliesNow(t *testing.T) {
	h := newHarness()
	tx := h.mgr.Begin()
	tx.AddChange(&testWindow{id: 1}, platform.Rect{Width: -5, Height: 10})
	tx.Commit()

	if !tx.Applied() {
		t.Fatalf("expected immediate apply")
	}
	if len(h.notices) != 0 {
		t.Fatalf("nothing changed, got notices %v", h.notices)
	}
	if h.sched.Pending() != 0 {
		t.Fatalf("no timeout should be armed")
	}
}

func TestTransaction_RemovedWindowShortcut(t *testing.T) {
	h := newHarness()
	ws := windows(1, 2)

	tx := h.mgr.Begin()
	tx.AddChange(ws[0], rectN(1))
	tx.AddChange(ws[1], rectN(2))
	tx.Commit()

	h.ack(t, 1)
	ws[1].destroyed = true
	h.mgr.RemoveWindow(2)

	if !tx.Applied() {
		t.Fatalf("removing the last waiting window should apply immediately")
	}
	if ws[0].geometry != rectN(1) {
		t.Fatalf("surviving window not applied")
	}
	if ws[1].geometry != (platform.Rect{}) {
		t.Fatalf("removed window should not be applied")
	}
}

func TestTransaction_SkipsUnmappedAndDestroyed(t *testing.T) {
	h := newHarness()
	ws := windows(1, 2, 3)

	tx := h.mgr.Begin()
	for i, w := range ws {
		tx.AddChange(w, rectN(i+1))
	}
	tx.Commit()

	h.actor.Unmapped[2] = true
	ws[2].destroyed = true
	h.sched.Advance(Timeout)

	if ws[0].geometry != rectN(1) {
		t.Fatalf("mapped window not applied")
	}
	if ws[1].geometry != (platform.Rect{}) || ws[2].geometry != (platform.Rect{}) {
		t.Fatalf("unmapped or destroyed windows were applied")
	}
	if len(h.notices) != 1 {
		t.Fatalf("expected one notification, got %d", len(h.notices))
	}
}

func TestTransaction_DecorationExtents(t *testing.T) {
	h := newHarness()
	h.actor.Decor[1] = platform.Extents{Left: 2, Right: 2, Top: 20, Bottom: 2}

	tx := h.mgr.Begin()
	tx.AddChange(&testWindow{id: 1}, platform.Rect{X: 0, Y: 0, Width: 400, Height: 300})
	tx.Commit()

	req := h.actor.Resizes[0]
	if req.Width != 396 || req.Height != 278 {
		t.Fatalf("resize request %dx%d, want 396x278", req.Width, req.Height)
	}
}

func TestTransaction_PositionsOnApply(t *testing.T) {
	h := newHarness()
	tx := h.mgr.Begin()
	tx.AddChange(&testWindow{id: 1}, platform.Rect{X: 40, Y: 50, Width: 10, Height: 10})
	tx.Commit()
	if _, moved := h.actor.Moves[1]; moved {
		t.Fatalf("window moved before apply")
	}
	h.ack(t, 1)
	if got := h.actor.Moves[1]; got != [2]int{40, 50} {
		t.Fatalf("move = %v, want [40 50]", got)
	}
}

func TestTransaction_SerialPolicy(t *testing.T) {
	t.Run("loose accepts any serial", func(t *testing.T) {
		h := newHarness()
		tx := h.mgr.Begin()
		tx.AddChange(&testWindow{id: 1}, rectN(1))
		tx.Commit()
		if !h.mgr.HandleCommit(1, 9999) {
			t.Fatalf("loose policy should accept any commit")
		}
		if !tx.Acknowledged(1) {
			t.Fatalf("entry not marked acknowledged")
		}
	})

	t.Run("strict requires matching serial", func(t *testing.T) {
		h := newHarness(WithStrictSerials(true))
		tx := h.mgr.Begin()
		tx.AddChange(&testWindow{id: 1}, rectN(1))
		tx.Commit()
		if h.mgr.HandleCommit(1, 9999) {
			t.Fatalf("strict policy accepted a stale serial")
		}
		if tx.Applied() {
			t.Fatalf("stale commit applied the transaction")
		}
		h.ack(t, 1)
		if !tx.Applied() {
			t.Fatalf("matching serial should apply")
		}
	})
}

func TestManager_Batch(t *testing.T) {
	h := newHarness()
	a, b := &testWindow{id: 1}, &testWindow{id: 2}

	outer := h.mgr.Begin()
	h.mgr.Batch(func(tx *Transaction) {
		if tx != outer {
			t.Fatalf("batch should join the open transaction")
		}
		tx.AddChange(a, rectN(1))
	})
	if !outer.Open() {
		t.Fatalf("joined batch must not commit the outer transaction")
	}
	outer.Commit()
	h.ack(t, 1)

	var own *Transaction
	h.mgr.Batch(func(tx *Transaction) {
		own = tx
		tx.AddChange(b, rectN(2))
	})
	if own == outer || own.Open() {
		t.Fatalf("batch without an open transaction should begin and commit its own")
	}
}
