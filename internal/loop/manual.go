package loop

import (
	"sort"
	"time"
)

// ManualScheduler fires timers only when Advance is called. It is meant for
// tests that drive the layout core synchronously.
type ManualScheduler struct {
	now    time.Duration
	nextID int
	timers map[int]*manualEntry
}

type manualEntry struct {
	at time.Duration
	fn func()
}

var _ Scheduler = (*ManualScheduler)(nil)

// NewManualScheduler returns a scheduler at time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{timers: make(map[int]*manualEntry)}
}

type manualTimer struct {
	s  *ManualScheduler
	id int
}

func (t *manualTimer) Stop() bool {
	if _, ok := t.s.timers[t.id]; !ok {
		return false
	}
	delete(t.s.timers, t.id)
	return true
}

func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	s.nextID++
	s.timers[s.nextID] = &manualEntry{at: s.now + d, fn: fn}
	return &manualTimer{s: s, id: s.nextID}
}

// Pending returns the number of armed timers.
func (s *ManualScheduler) Pending() int {
	return len(s.timers)
}

// Advance moves the clock forward and fires due timers in deadline order.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.now += d
	for {
		id, ok := s.nextDue()
		if !ok {
			return
		}
		e := s.timers[id]
		delete(s.timers, id)
		e.fn()
	}
}

func (s *ManualScheduler) nextDue() (int, bool) {
	var due []int
	for id, e := range s.timers {
		if e.at <= s.now {
			due = append(due, id)
		}
	}
	if len(due) == 0 {
		return 0, false
	}
	sort.Slice(due, func(i, j int) bool {
		ei, ej := s.timers[due[i]], s.timers[due[j]]
		if ei.at != ej.at {
			return ei.at < ej.at
		}
		return due[i] < due[j]
	})
	return due[0], true
}
