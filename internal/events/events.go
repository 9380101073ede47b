// Package events carries the change notifications emitted after a completed
// batch of layout work.
package events

import (
	"strings"
	"sync"
)

// Change is a bit set of categories a subscriber may need to re-fetch.
type Change uint8

const (
	WindowsChanged Change = 1 << iota
	WorkspacesChanged
	OutputsChanged
)

func (c Change) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	if c&WindowsChanged != 0 {
		parts = append(parts, "windows")
	}
	if c&WorkspacesChanged != 0 {
		parts = append(parts, "workspaces")
	}
	if c&OutputsChanged != 0 {
		parts = append(parts, "outputs")
	}
	return strings.Join(parts, "|")
}

// Sink is notified once per completed batch.
type Sink interface {
	Notify(Change)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Change)

func (f SinkFunc) Notify(c Change) { f(c) }

// Discard drops every notification.
var Discard Sink = SinkFunc(func(Change) {})

// Bus fans notifications out to subscribers in subscription order.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(Change)
	ids  []int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Change))}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn func(Change)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	b.subs[id] = fn
	b.ids = append(b.ids, id)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
		for i, v := range b.ids {
			if v == id {
				b.ids = append(b.ids[:i], b.ids[i+1:]...)
				break
			}
		}
	}
}

// Notify delivers c to every subscriber.
func (b *Bus) Notify(c Change) {
	if c == 0 {
		return
	}

	b.mu.RLock()
	fns := make([]func(Change), 0, len(b.ids))
	for _, id := range b.ids {
		fns = append(fns, b.subs[id])
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}
