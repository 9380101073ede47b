// Package platformtest provides in-memory collaborators for exercising the
// layout core without a display server.
package platformtest

import (
	"sync"

	"github.com/1broseidon/tilewm/internal/platform"
)

// ResizeRequest records one RequestResize call.
type ResizeRequest struct {
	ID     platform.WindowID
	Width  int
	Height int
	Serial uint32
}

// Actor is a fake window actor. Windows are mapped unless marked otherwise.
type Actor struct {
	Geometries map[platform.WindowID]platform.Rect
	Unmapped   map[platform.WindowID]bool
	Enabled    map[platform.WindowID]bool
	Decor      map[platform.WindowID]platform.Extents
	Moves      map[platform.WindowID][2]int
	Resizes    []ResizeRequest

	serial uint32
}

var (
	_ platform.WindowActor = (*Actor)(nil)
	_ platform.Decorated   = (*Actor)(nil)
	_ platform.Positioner  = (*Actor)(nil)
)

// NewActor returns an empty fake actor.
func NewActor() *Actor {
	return &Actor{
		Geometries: make(map[platform.WindowID]platform.Rect),
		Unmapped:   make(map[platform.WindowID]bool),
		Enabled:    make(map[platform.WindowID]bool),
		Decor:      make(map[platform.WindowID]platform.Extents),
		Moves:      make(map[platform.WindowID][2]int),
	}
}

func (a *Actor) RequestResize(id platform.WindowID, width, height int) uint32 {
	a.serial++
	a.Resizes = append(a.Resizes, ResizeRequest{ID: id, Width: width, Height: height, Serial: a.serial})
	return a.serial
}

func (a *Actor) Geometry(id platform.WindowID) platform.Rect {
	return a.Geometries[id]
}

func (a *Actor) SetEnabled(id platform.WindowID, enabled bool) {
	a.Enabled[id] = enabled
}

func (a *Actor) IsMapped(id platform.WindowID) bool {
	return !a.Unmapped[id]
}

func (a *Actor) Extents(id platform.WindowID) platform.Extents {
	return a.Decor[id]
}

func (a *Actor) Move(id platform.WindowID, x, y int) {
	a.Moves[id] = [2]int{x, y}
}

// LastSerial returns the serial of the most recent resize request for id.
func (a *Actor) LastSerial(id platform.WindowID) (uint32, bool) {
	for i := len(a.Resizes) - 1; i >= 0; i-- {
		if a.Resizes[i].ID == id {
			return a.Resizes[i].Serial, true
		}
	}
	return 0, false
}

// Shell records focus and close requests.
type Shell struct {
	Focused  platform.WindowID
	HasFocus bool
	Closed   []platform.WindowID
	Clears   int
}

var _ platform.Shell = (*Shell)(nil)

func (s *Shell) Focus(id platform.WindowID) {
	s.Focused = id
	s.HasFocus = true
}

func (s *Shell) ClearFocus() {
	s.Focused = 0
	s.HasFocus = false
	s.Clears++
}

func (s *Shell) Close(id platform.WindowID) {
	s.Closed = append(s.Closed, id)
}

// Displays is a DisplayLister whose result can be swapped between calls.
type Displays struct {
	mu   sync.Mutex
	list []platform.Display
	err  error
}

// NewDisplays returns a lister reporting list.
func NewDisplays(list ...platform.Display) *Displays {
	return &Displays{list: list}
}

// Set replaces the reported displays and error.
func (d *Displays) Set(err error, list ...platform.Display) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.list = list
	d.err = err
}

func (d *Displays) Displays() ([]platform.Display, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	out := make([]platform.Display, len(d.list))
	copy(out, d.list)
	return out, nil
}
