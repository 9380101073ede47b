package wm

import (
	"fmt"
	"testing"

	"github.com/1broseidon/tilewm/internal/events"
	"github.com/1broseidon/tilewm/internal/loop"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/platform/platformtest"
	"github.com/1broseidon/tilewm/internal/tiling"
	"github.com/1broseidon/tilewm/internal/txn"
)

type harness struct {
	actor   *platformtest.Actor
	shell   *platformtest.Shell
	sched   *loop.ManualScheduler
	srv     *Server
	changes []events.Change
}

func newHarness(t *testing.T, d Defaults) *harness {
	t.Helper()
	h := &harness{
		actor: platformtest.NewActor(),
		shell: &platformtest.Shell{},
		sched: loop.NewManualScheduler(),
	}
	sink := events.SinkFunc(func(c events.Change) { h.changes = append(h.changes, c) })
	txns := txn.NewManager(h.actor, h.sched, txn.WithSink(sink))
	h.srv = NewServer(h.actor, h.shell, txns, WithSink(sink), WithDefaults(d))
	return h
}

func tilingDefaults() Defaults {
	return DefaultDefaults()
}

func floatingDefaults() Defaults {
	d := DefaultDefaults()
	d.AutoTile = false
	return d
}

// settle applies any in-flight transaction.
func (h *harness) settle() {
	h.srv.Transactions().Flush()
}

func (h *harness) output(name string, layout platform.Rect) *Output {
	o := h.srv.Outputs().AddOutput(name, layout, layout)
	h.settle()
	return o
}

func (h *harness) mapAt(id platform.WindowID, r platform.Rect) *Window {
	h.actor.Geometries[id] = r
	w := h.srv.MapWindow(id, fmt.Sprintf("win-%d", id))
	h.settle()
	return w
}

func (h *harness) count(c events.Change) int {
	n := 0
	for _, got := range h.changes {
		if got&c != 0 {
			n++
		}
	}
	return n
}

func rect(x, y, w, hgt int) platform.Rect {
	return platform.Rect{X: x, Y: y, Width: w, Height: hgt}
}

func TestWorkspace_GridScenario(t *testing.T) {
	h := newHarness(t, tilingDefaults())
	h.output("eDP-1", rect(0, 0, 1200, 800))

	w1 := h.mapAt(1, rect(0, 0, 100, 100))
	w2 := h.mapAt(2, rect(700, 0, 100, 100))
	w3 := h.mapAt(3, rect(0, 500, 100, 100))

	want := map[*Window]platform.Rect{
		w1: rect(0, 0, 600, 400),
		w2: rect(600, 0, 600, 400),
		w3: rect(0, 400, 1200, 400),
	}
	for w, r := range want {
		if w.Geometry() != r {
			t.Errorf("window %d geometry = %v, want %v", w.ID(), w.Geometry(), r)
		}
	}
}

func TestWorkspace_AddToplevelSingleMembership(t *testing.T) {
	h := newHarness(t, floatingDefaults())
	o := h.output("eDP-1", rect(0, 0, 1000, 800))
	ws1 := o.Active()
	ws2 := o.EnsureWorkspace(2)

	w := h.mapAt(1, rect(0, 0, 100, 100))
	if w.Workspace() != ws1 || ws1.Active() != w {
		t.Fatalf("window should land on the active workspace")
	}

	ws2.AddToplevel(w, false)
	if ws1.Len() != 0 || ws2.Len() != 1 || w.Workspace() != ws2 {
		t.Fatalf("window must belong to exactly one workspace: ws1=%d ws2=%d", ws1.Len(), ws2.Len())
	}
	if ws1.Active() != nil {
		t.Fatalf("source active should be cleared")
	}
	if !w.Hidden() || h.actor.Enabled[1] {
		t.Fatalf("window on an inactive workspace should be hidden")
	}

	ws2.AddToplevel(w, false)
	if ws2.Len() != 1 {
		t.Fatalf("second add should be a no-op")
	}
}

func TestServer_MapFocusesAndUnmapPurges(t *testing.T) {
	h := newHarness(t, Defaults{Mode: tiling.ModeBSP, AutoTile: true, MaxWorkspaces: 10})
	o := h.output("eDP-1", rect(0, 0, 1000, 800))
	ws := o.Active()

	h.mapAt(1, rect(0, 0, 10, 10))
	h.mapAt(2, rect(0, 0, 10, 10))
	if h.shell.Focused != 2 || h.srv.FocusedWindow().ID() != 2 {
		t.Fatalf("newest window should be focused, got %d", h.shell.Focused)
	}

	h.srv.UnmapWindow(2)
	h.settle()

	if h.srv.Window(2) != nil {
		t.Fatalf("window still registered")
	}
	if ws.Tree().Contains(2) || ws.Tree().CountLeaves() != 1 {
		t.Fatalf("window still in BSP tree")
	}
	if ws.Len() != 1 || ws.Active().ID() != 1 {
		t.Fatalf("membership not updated")
	}
	if h.shell.Focused != 1 {
		t.Fatalf("focus should move to the remaining window")
	}
	if got := h.srv.Window(1).Geometry(); got != rect(0, 0, 1000, 800) {
		t.Fatalf("remaining window should fill the area, got %v", got)
	}
}

func TestServer_UnmapMidTransaction(t *testing.T) {
	h := newHarness(t, tilingDefaults())
	h.output("eDP-1", rect(0, 0, 1000, 800))
	h.mapAt(1, rect(0, 0, 10, 10))

	h.actor.Geometries[2] = rect(900, 0, 10, 10)
	h.srv.MapWindow(2, "slow")
	tx := h.srv.Transactions().Active()
	if tx == nil || tx.Waiting() != 2 {
		t.Fatalf("expected a transaction waiting on both windows")
	}

	h.srv.UnmapWindow(2)
	if !tx.Applied() {
		t.Fatalf("unmapping should resolve the pending transaction")
	}
}

func TestWorkspace_Close(t *testing.T) {
	h := newHarness(t, floatingDefaults())
	o := h.output("eDP-1", rect(0, 0, 1000, 800))
	ws := o.Active()
	h.mapAt(1, rect(0, 0, 10, 10))
	h.mapAt(2, rect(0, 0, 10, 10))

	ws.CloseActive()
	if h.shell.Focused != 1 {
		t.Fatalf("focus should move before closing, got %d", h.shell.Focused)
	}
	if len(h.shell.Closed) != 1 || h.shell.Closed[0] != 2 {
		t.Fatalf("close requests = %v", h.shell.Closed)
	}

	h.srv.UnmapWindow(2)
	ws.Close(h.srv.Window(1))
	if ws.Active() != nil {
		t.Fatalf("closing the last window should clear active")
	}
	if h.shell.HasFocus || h.shell.Clears == 0 {
		t.Fatalf("keyboard focus should be cleared")
	}
}

func TestWorkspace_MoveTo(t *testing.T) {
	h := newHarness(t, tilingDefaults())
	o := h.output("eDP-1", rect(0, 0, 1000, 800))
	ws1 := o.Active()
	ws2 := o.EnsureWorkspace(2)
	ws3 := o.EnsureWorkspace(3)

	w1 := h.mapAt(1, rect(0, 0, 10, 10))
	w2 := h.mapAt(2, rect(900, 0, 10, 10))

	if ws1.MoveTo(w1, ws1) {
		t.Fatalf("move onto self must fail")
	}
	if ws2.MoveTo(w1, ws3) {
		t.Fatalf("move of a non-member must fail")
	}

	ws3.AddToplevel(h.mapAt(3, rect(0, 0, 10, 10)), false)
	ws3.SetFullscreen(h.srv.Window(3), true)
	if ws1.MoveTo(w1, ws3) {
		t.Fatalf("move onto a fullscreen workspace must fail")
	}
	if w1.Workspace() != ws1 || ws1.Len() != 2 {
		t.Fatalf("failed move mutated state")
	}

	if !ws1.MoveTo(w2, ws2) {
		t.Fatalf("valid move failed")
	}
	h.settle()
	if w2.Workspace() != ws2 || ws2.Active() != w2 {
		t.Fatalf("window not reparented")
	}
	if ws1.Active() != w1 || h.shell.Focused != 1 {
		t.Fatalf("source should refocus the remaining window")
	}
	if !w2.Hidden() {
		t.Fatalf("window moved to an inactive workspace should be hidden")
	}
	if w1.Geometry() != rect(0, 0, 1000, 800) {
		t.Fatalf("source not retiled: %v", w1.Geometry())
	}
}

func TestWorkspace_MoveToCarriesFullscreen(t *testing.T) {
	h := newHarness(t, tilingDefaults())
	o := h.output("eDP-1", rect(0, 0, 1000, 800))
	ws1, ws2 := o.Active(), o.EnsureWorkspace(2)

	w := h.mapAt(1, rect(0, 0, 10, 10))
	ws1.SetFullscreen(w, true)
	if !ws1.MoveTo(w, ws2) {
		t.Fatalf("move failed")
	}
	if ws1.FullscreenWindow() != nil || ws2.FullscreenWindow() != w {
		t.Fatalf("fullscreen marker not carried")
	}
	if ws2.Tree().Contains(1) {
		t.Fatalf("fullscreen window should stay out of the tree")
	}
}

func TestWorkspace_InDirection(t *testing.T) {
	h := newHarness(t, floatingDefaults())
	o := h.output("eDP-1", rect(0, 0, 2000, 2000))
	ws := o.Active()

	left := h.mapAt(1, rect(0, 100, 50, 50))
	nearRight := h.mapAt(2, rect(300, 100, 50, 50))
	farCross := h.mapAt(3, rect(300, 400, 50, 50))
	farRight := h.mapAt(4, rect(500, 100, 50, 50))
	active := h.mapAt(5, rect(100, 100, 50, 50))
	_ = farRight

	if ws.Active() != active {
		t.Fatalf("expected window 5 active")
	}

	tests := []struct {
		dir  Direction
		want *Window
	}{
		{DirRight, nearRight},
		{DirLeft, left},
		{DirUp, nil},
		{DirDown, farCross},
	}
	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			if got := ws.InDirection(tt.dir); got != tt.want {
				t.Fatalf("InDirection(%s) = %v, want %v", tt.dir, got, tt.want)
			}
		})
	}
}

func TestWorkspace_InDirectionTiesKeepListOrder(t *testing.T) {
	h := newHarness(t, floatingDefaults())
	o := h.output("eDP-1", rect(0, 0, 2000, 2000))
	ws := o.Active()

	first := h.mapAt(1, rect(300, 50, 50, 50))
	h.mapAt(2, rect(300, 150, 50, 50))
	active := h.mapAt(3, rect(100, 100, 50, 50))
	ws.Focus(active)

	if got := ws.InDirection(DirRight); got != first {
		t.Fatalf("tie should go to the earlier member, got %v", got)
	}
}

func TestWorkspace_InDirectionEdgeCases(t *testing.T) {
	h := newHarness(t, floatingDefaults())
	o := h.output("eDP-1", rect(0, 0, 1000, 1000))
	ws := o.Active()

	if ws.InDirection(DirLeft) != nil {
		t.Fatalf("empty workspace has no neighbor")
	}
	h.mapAt(1, rect(0, 0, 10, 10))
	if ws.InDirection(DirRight) != nil {
		t.Fatalf("single member has no neighbor")
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("invalid direction should panic")
		}
	}()
	ws.InDirection(Direction(42))
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{"left": DirLeft, "RIGHT": DirRight, " up ": DirUp, "j": DirDown} {
		got, err := ParseDirection(in)
		if err != nil || got != want {
			t.Errorf("ParseDirection(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Errorf("expected error for unknown direction")
	}
}

func TestWorkspace_TileSkipsFullscreenMaximizedAndExcluded(t *testing.T) {
	h := newHarness(t, floatingDefaults())
	o := h.output("eDP-1", rect(0, 0, 1200, 600))
	ws := o.Active()

	a := h.mapAt(1, rect(0, 0, 10, 10))
	b := h.mapAt(2, rect(600, 0, 10, 10))
	c := h.mapAt(3, rect(0, 300, 10, 10))
	d := h.mapAt(4, rect(600, 300, 10, 10))

	ws.SetMaximized(c, true)
	ws.SetFullscreen(d, true)
	h.settle()

	ws.Tile(b)
	h.settle()

	if a.Geometry() != rect(0, 0, 1200, 600) {
		t.Fatalf("only window a should be tiled, got %v", a.Geometry())
	}
	if b.Geometry() != rect(600, 0, 10, 10) {
		t.Fatalf("excluded window moved: %v", b.Geometry())
	}
	if c.Geometry() != rect(0, 0, 1200, 600) {
		t.Fatalf("maximized window should keep the usable area, got %v", c.Geometry())
	}
	if d.Geometry() != rect(0, 0, 1200, 600) {
		t.Fatalf("fullscreen window should keep the output area, got %v", d.Geometry())
	}
}

func TestWorkspace_TileNoOpWithoutMembers(t *testing.T) {
	h := newHarness(t, tilingDefaults())
	o := h.output("eDP-1", rect(0, 0, 1000, 800))
	before := h.srv.Transactions().Applies()
	o.Active().Tile()
	if h.srv.Transactions().Active() != nil || h.srv.Transactions().Applies() != before {
		t.Fatalf("tiling an empty workspace should not start a transaction")
	}
}

func TestWorkspace_BSPLayoutAndResize(t *testing.T) {
	h := newHarness(t, Defaults{Mode: tiling.ModeBSP, AutoTile: true, MaxWorkspaces: 10})
	o := h.output("eDP-1", rect(0, 0, 1000, 800))
	ws := o.Active()

	w1 := h.mapAt(1, rect(0, 0, 10, 10))
	w2 := h.mapAt(2, rect(0, 0, 10, 10))
	w3 := h.mapAt(3, rect(0, 0, 10, 10))

	if w1.Geometry() != rect(0, 0, 500, 400) ||
		w3.Geometry() != rect(0, 400, 500, 400) ||
		w2.Geometry() != rect(500, 0, 500, 800) {
		t.Fatalf("unexpected BSP layout: %v %v %v", w1.Geometry(), w2.Geometry(), w3.Geometry())
	}

	if !ws.Resize(w2, rect(300, 0, 700, 800)) {
		t.Fatalf("resize rejected")
	}
	h.settle()
	if w2.Geometry() != rect(300, 0, 700, 800) || w1.Geometry().Width != 300 {
		t.Fatalf("ratio not back-solved: w1=%v w2=%v", w1.Geometry(), w2.Geometry())
	}
	if err := ws.Tree().Validate(); err != nil {
		t.Fatalf("tree invalid: %v", err)
	}
}

func TestWorkspace_SetTilingModeRebuildsTree(t *testing.T) {
	h := newHarness(t, tilingDefaults())
	o := h.output("eDP-1", rect(0, 0, 1000, 800))
	ws := o.Active()
	for id := platform.WindowID(1); id <= 4; id++ {
		h.mapAt(id, rect(int(id)*10, 0, 10, 10))
	}
	ws.Tree().Clear()

	ws.SetTilingMode(tiling.ModeBSP)
	h.settle()
	if ws.Tree().CountLeaves() != 4 {
		t.Fatalf("tree should be rebuilt from members, got %d leaves", ws.Tree().CountLeaves())
	}
	if ws.Mode() != tiling.ModeBSP {
		t.Fatalf("mode not switched")
	}
}

func TestWorkspace_FocusCycleWraps(t *testing.T) {
	h := newHarness(t, floatingDefaults())
	o := h.output("eDP-1", rect(0, 0, 1000, 800))
	ws := o.Active()
	for id := platform.WindowID(1); id <= 3; id++ {
		h.mapAt(id, rect(0, 0, 10, 10))
	}

	ws.FocusNext()
	if h.shell.Focused != 1 {
		t.Fatalf("FocusNext should wrap to the first member, got %d", h.shell.Focused)
	}
	ws.FocusPrev()
	if h.shell.Focused != 3 {
		t.Fatalf("FocusPrev should wrap to the last member, got %d", h.shell.Focused)
	}
	ws.FocusPrev()
	if ws.Active().ID() != 2 {
		t.Fatalf("FocusPrev should step back, got %d", ws.Active().ID())
	}
}

func TestWorkspace_MaximizeRestoresSavedGeometry(t *testing.T) {
	h := newHarness(t, floatingDefaults())
	o := h.srv.Outputs().AddOutput("eDP-1", rect(0, 0, 1000, 800), rect(0, 30, 1000, 770))
	h.settle()
	ws := o.Active()
	w := h.mapAt(1, rect(10, 40, 300, 200))

	ws.SetMaximized(w, true)
	h.settle()
	if w.Geometry() != rect(0, 30, 1000, 770) {
		t.Fatalf("maximize should take the usable area, got %v", w.Geometry())
	}

	ws.SetFullscreen(w, true)
	h.settle()
	if w.Geometry() != rect(0, 0, 1000, 800) {
		t.Fatalf("fullscreen should take the layout geometry, got %v", w.Geometry())
	}

	ws.SetFullscreen(w, false)
	h.settle()
	if w.Geometry() != rect(0, 30, 1000, 770) {
		t.Fatalf("leaving fullscreen should return to maximized, got %v", w.Geometry())
	}

	ws.SetMaximized(w, false)
	h.settle()
	if w.Geometry() != rect(10, 40, 300, 200) {
		t.Fatalf("restore should return to the saved geometry, got %v", w.Geometry())
	}
	if ws.SetMaximized(w, false) {
		t.Fatalf("unchanged flag should report false")
	}
}

func TestOutput_SetWorkspace(t *testing.T) {
	h := newHarness(t, tilingDefaults())
	o := h.output("eDP-1", rect(0, 0, 1000, 800))
	ws1 := o.Active()

	w1 := h.mapAt(1, rect(0, 0, 10, 10))
	w2 := h.mapAt(2, rect(0, 0, 10, 10))
	ws1.SetPinned(w2, true)

	h.changes = nil
	if !o.SetWorkspace(2) {
		t.Fatalf("switch failed")
	}
	h.settle()
	ws2 := o.Active()

	if ws2.Number() != 2 {
		t.Fatalf("active workspace = %d", ws2.Number())
	}
	if !w1.Hidden() || h.actor.Enabled[1] {
		t.Fatalf("outgoing window should be hidden")
	}
	if w2.Workspace() != ws2 || w2.Hidden() {
		t.Fatalf("pinned window should follow the switch")
	}
	if h.shell.Focused != 2 {
		t.Fatalf("incoming workspace should be focused, got %d", h.shell.Focused)
	}
	if w2.Geometry() != rect(0, 0, 1000, 800) {
		t.Fatalf("incoming workspace not retiled: %v", w2.Geometry())
	}
	if h.count(events.WorkspacesChanged) == 0 {
		t.Fatalf("expected a workspaces notification")
	}

	h.changes = nil
	if o.SetWorkspace(2) {
		t.Fatalf("switching to the active workspace should be a no-op")
	}
	if len(h.changes) != 0 {
		t.Fatalf("no-op switch notified: %v", h.changes)
	}

	if o.SetWorkspace(11) || o.Workspace(11) != nil {
		t.Fatalf("workspace beyond the maximum must not be created")
	}

	o.SetWorkspace(1)
	if w1.Hidden() || h.shell.Focused != 1 {
		t.Fatalf("switching back should show and focus window 1")
	}
}

func TestOutput_SwitchToEmptyWorkspaceClearsFocus(t *testing.T) {
	h := newHarness(t, tilingDefaults())
	o := h.output("eDP-1", rect(0, 0, 1000, 800))
	h.mapAt(1, rect(0, 0, 10, 10))

	o.SetWorkspace(4)
	if h.shell.HasFocus {
		t.Fatalf("focus should be cleared on an empty workspace")
	}
	if len(o.Workspaces()) != 2 {
		t.Fatalf("expected workspaces 1 and 4, got %d", len(o.Workspaces()))
	}
	if o.Workspaces()[1].Number() != 4 {
		t.Fatalf("workspaces should be ordered by number")
	}
}

func TestWorkspaceManager_OrphanAdoptRoundTrip(t *testing.T) {
	h := newHarness(t, tilingDefaults())
	m := h.srv.Outputs()
	h.output("eDP-1", rect(0, 0, 1000, 800))
	ext := h.output("DP-1", rect(1000, 0, 1920, 1080))

	ext.SetWorkspace(3)
	m.Focus(ext)
	w := h.mapAt(7, rect(1000, 0, 10, 10))
	before := ext.Workspaces()

	if !m.RemoveOutput("DP-1") {
		t.Fatalf("remove failed")
	}
	if m.Output("DP-1") != nil {
		t.Fatalf("output still registered")
	}
	if got := m.Orphaned("DP-1"); len(got) != len(before) {
		t.Fatalf("orphaned %d workspaces, want %d", len(got), len(before))
	}
	if !w.Hidden() || w.Workspace().Output() != nil {
		t.Fatalf("orphaned window should be hidden and detached")
	}
	if m.Focused() == nil || m.Focused().Name() != "eDP-1" {
		t.Fatalf("focus should move to the remaining output")
	}

	again := m.AddOutput("DP-1", rect(1000, 0, 1920, 1080), rect(1000, 0, 1920, 1080))
	h.settle()

	after := again.Workspaces()
	if len(after) != len(before) {
		t.Fatalf("adopted %d workspaces, want %d", len(after), len(before))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("workspace %d was not restored", i)
		}
	}
	if again.Active().Number() != 3 {
		t.Fatalf("active workspace = %d, want 3", again.Active().Number())
	}
	if w.Hidden() || w.Workspace().Output() != again {
		t.Fatalf("window should be visible on the adopted output")
	}
	if w.Geometry() != rect(1000, 0, 1920, 1080) {
		t.Fatalf("adopted workspace not retiled: %v", w.Geometry())
	}
	if m.Orphaned("DP-1") != nil {
		t.Fatalf("orphan entry should be consumed")
	}
}

func TestWorkspaceManager_AdoptWithoutOrphans(t *testing.T) {
	h := newHarness(t, tilingDefaults())
	m := h.srv.Outputs()
	o := h.output("eDP-1", rect(0, 0, 1000, 800))
	if m.AdoptWorkspaces(o) {
		t.Fatalf("nothing to adopt")
	}
	if m.RemoveOutput("HDMI-9") {
		t.Fatalf("removing an unknown output should fail")
	}
	if m.Output("HDMI-9") != nil {
		t.Fatalf("lookup of an unknown output should be nil")
	}
}

func TestWorkspaceManager_UnassignedWindowsJoinFirstOutput(t *testing.T) {
	h := newHarness(t, tilingDefaults())
	w := h.srv.MapWindow(1, "early")
	if w.Workspace() != nil {
		t.Fatalf("no output yet, window should be unassigned")
	}

	o := h.output("eDP-1", rect(0, 0, 800, 600))
	if w.Workspace() != o.Active() {
		t.Fatalf("window should join the first output")
	}
	if w.Geometry() != rect(0, 0, 800, 600) {
		t.Fatalf("window not tiled: %v", w.Geometry())
	}
}

func TestOutput_SetUsableRetiles(t *testing.T) {
	h := newHarness(t, tilingDefaults())
	o := h.output("eDP-1", rect(0, 0, 800, 600))
	w := h.mapAt(1, rect(0, 0, 10, 10))

	o.SetUsable(rect(0, 24, 800, 576))
	h.settle()
	if w.Geometry() != rect(0, 24, 800, 576) {
		t.Fatalf("window not retiled into the new usable area: %v", w.Geometry())
	}
	if h.count(events.OutputsChanged) == 0 {
		t.Fatalf("expected an outputs notification")
	}
}

func TestServer_Snapshot(t *testing.T) {
	h := newHarness(t, tilingDefaults())
	h.output("eDP-1", rect(0, 0, 1000, 800))
	h.mapAt(1, rect(0, 0, 10, 10))
	h.srv.SetTitle(1, "terminal")

	snap := h.srv.Snapshot()
	if len(snap.Outputs) != 1 || snap.Outputs[0].Usable.Width != 1000 || !snap.Outputs[0].Focused {
		t.Fatalf("unexpected outputs: %+v", snap.Outputs)
	}
	if len(snap.Workspaces) != 1 || snap.Workspaces[0].Active != 1 || snap.Workspaces[0].Toplevels != 1 {
		t.Fatalf("unexpected workspaces: %+v", snap.Workspaces)
	}
	win, ok := snap.Window(1)
	if !ok {
		t.Fatalf("window missing from snapshot")
	}
	if win.Title != "terminal" || !win.Focused || win.Width != 1000 || win.UUID == "" {
		t.Fatalf("unexpected window record: %+v", win)
	}
	if snap.FocusedWindow != 1 || snap.FocusedOutput != "eDP-1" {
		t.Fatalf("focus fields = %d %q", snap.FocusedWindow, snap.FocusedOutput)
	}
}

func TestServer_MoveActiveToAndDefaults(t *testing.T) {
	h := newHarness(t, tilingDefaults())
	o := h.output("eDP-1", rect(0, 0, 1000, 800))
	w := h.mapAt(1, rect(0, 0, 10, 10))

	if !h.srv.MoveActiveTo(5) {
		t.Fatalf("move failed")
	}
	if w.Workspace() != o.Workspace(5) {
		t.Fatalf("window not on workspace 5")
	}
	if h.srv.MoveActiveTo(2) {
		t.Fatalf("nothing active on workspace 1 any more")
	}

	d := h.srv.Defaults()
	d.Mode = tiling.ModeMaster
	h.srv.SetDefaults(d)
	for _, ws := range o.Workspaces() {
		if ws.Mode() != tiling.ModeMaster {
			t.Fatalf("workspace %d kept mode %s", ws.Number(), ws.Mode())
		}
	}
}

func TestOutput_PinnedFullscreenJoiningHolderDropsFullscreen(t *testing.T) {
	h := newHarness(t, tilingDefaults())
	o := h.srv.Outputs().AddOutput("eDP-1", rect(0, 0, 1000, 800), rect(0, 30, 1000, 770))
	h.settle()
	ws1, ws2 := o.Active(), o.EnsureWorkspace(2)

	o.SetWorkspace(2)
	b := h.mapAt(2, rect(0, 0, 10, 10))
	ws2.SetFullscreen(b, true)
	h.settle()

	o.SetWorkspace(1)
	a := h.mapAt(1, rect(0, 0, 10, 10))
	ws1.SetFullscreen(a, true)
	ws1.SetPinned(a, true)
	h.settle()

	o.SetWorkspace(2)
	h.settle()

	if a.Workspace() != ws2 {
		t.Fatalf("pinned window should follow the switch")
	}
	if ws2.FullscreenWindow() != b || !b.Fullscreen() {
		t.Fatalf("existing holder must keep fullscreen, marker = %v", ws2.FullscreenWindow())
	}
	if a.Fullscreen() || !ws2.Tree().Contains(a.ID()) {
		t.Fatalf("newcomer must leave fullscreen and join the tree")
	}
	if a.Geometry() != rect(0, 30, 1000, 770) {
		t.Fatalf("newcomer should be tiled, got %v", a.Geometry())
	}

	ws2.SetFullscreen(b, false)
	h.settle()
	if ws2.FullscreenWindow() != nil {
		t.Fatalf("marker should clear, still %v", ws2.FullscreenWindow().ID())
	}
	for _, w := range ws2.Windows() {
		if w.Fullscreen() {
			t.Fatalf("window %d still fullscreen", w.ID())
		}
	}
}

func TestWorkspace_MoveToRefitsMaximizedAcrossOutputs(t *testing.T) {
	h := newHarness(t, tilingDefaults())
	a := h.output("A", rect(0, 0, 1000, 800))
	b := h.output("B", rect(1000, 0, 500, 400))

	w := h.mapAt(1, rect(0, 0, 10, 10))
	src := w.Workspace()
	if src.Output() != a {
		t.Fatalf("window should start on A")
	}
	src.SetMaximized(w, true)
	h.settle()
	if w.Geometry() != a.Usable() {
		t.Fatalf("maximized on A = %v", w.Geometry())
	}

	if !src.MoveTo(w, b.Active()) {
		t.Fatalf("move failed")
	}
	h.settle()
	if w.Geometry() != b.Usable() {
		t.Fatalf("maximized window on B = %v, want %v", w.Geometry(), b.Usable())
	}

	b.SetUsable(rect(1000, 20, 500, 380))
	h.settle()
	if w.Geometry() != rect(1000, 20, 500, 380) {
		t.Fatalf("usable change should refit the maximized window, got %v", w.Geometry())
	}
}

func TestServer_SetDefaultsEnablingAutoTileRetiles(t *testing.T) {
	h := newHarness(t, floatingDefaults())
	o := h.output("eDP-1", rect(0, 0, 1000, 800))
	w := h.mapAt(1, rect(5, 5, 10, 10))
	if w.Geometry() != rect(5, 5, 10, 10) {
		t.Fatalf("floating window moved to %v", w.Geometry())
	}

	d := h.srv.Defaults()
	d.AutoTile = true
	h.srv.SetDefaults(d)
	h.settle()

	if !o.Active().AutoTile() {
		t.Fatalf("auto-tile not applied")
	}
	if w.Geometry() != rect(0, 0, 1000, 800) {
		t.Fatalf("enabling auto-tile should retile, got %v", w.Geometry())
	}
}

func TestWorkspace_HiddenWindowsReceiveGeometry(t *testing.T) {
	h := newHarness(t, tilingDefaults())
	o := h.output("eDP-1", rect(0, 0, 1000, 800))
	ws1, ws2 := o.Active(), o.EnsureWorkspace(2)

	h.mapAt(1, rect(0, 0, 10, 10))
	w := h.mapAt(2, rect(0, 0, 10, 10))
	if !ws1.MoveTo(w, ws2) {
		t.Fatalf("move failed")
	}
	h.settle()

	if !w.Hidden() || h.actor.Enabled[2] {
		t.Fatalf("window on the inactive workspace should be hidden")
	}
	if w.Geometry() != rect(0, 0, 1000, 800) {
		t.Fatalf("hidden window should still take its tiled geometry, got %v", w.Geometry())
	}
}
