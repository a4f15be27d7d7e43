// SPDX-License-Identifier: GPL-3.0-or-later

package click

import (
	"container/heap"
	"sync"
	"time"
)

// Timer fires a callback once its expiry is reached, see spec.md
// §4.5.5. A Timer belongs to at most one [TimerSet] at a time.
type Timer struct {
	expiry   time.Time
	callback func(now time.Time)
	set      *TimerSet
	index    int // position in the owning heap; -1 when not scheduled
}

// NewTimer returns an unscheduled timer that invokes callback on firing.
// The callback may call ScheduleAt/ScheduleAfter again on the same
// timer; re-entry is explicitly permitted (spec.md §4.5.5).
func NewTimer(callback func(now time.Time)) *Timer {
	return &Timer{callback: callback, index: -1}
}

// Expiry returns the timer's current expiry without modifying it.
func (t *Timer) Expiry() time.Time { return t.expiry }

// Scheduled reports whether the timer is currently queued.
func (t *Timer) Scheduled() bool { return t.index >= 0 }

// ScheduleAt inserts the timer into set, keyed by the steady-clock
// timestamp at. If already scheduled, it is first removed, so callers
// never need to Unschedule before rescheduling.
func (t *Timer) ScheduleAt(set *TimerSet, at time.Time) {
	t.Unschedule()
	t.expiry = at
	t.set = set
	set.push(t)
}

// ScheduleAfter is ScheduleAt(set, now.Add(d)).
func (t *Timer) ScheduleAfter(set *TimerSet, now time.Time, d time.Duration) {
	t.ScheduleAt(set, now.Add(d))
}

// Unschedule removes the timer from its set, if scheduled.
func (t *Timer) Unschedule() {
	if t.set != nil {
		t.set.remove(t)
	}
}

// TimerSet is a per-thread min-heap of timers keyed by expiry (spec.md
// §4.5.5). Single-thread scheduling never contends the lock; it exists
// only for the cross-thread case spec.md §5 calls out ("guarded by a
// per-thread lock only when crossing threads").
type TimerSet struct {
	mu sync.Mutex
	h  timerHeap
}

// NewTimerSet returns an empty timer set.
func NewTimerSet() *TimerSet {
	return &TimerSet{}
}

func (s *TimerSet) push(t *Timer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	heap.Push(&s.h, t)
}

func (s *TimerSet) remove(t *Timer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.index >= 0 {
		heap.Remove(&s.h, t.index)
		t.index = -1
		t.set = nil
	}
}

// Len returns the number of scheduled timers.
func (s *TimerSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.h)
}

// NextExpiry returns the earliest scheduled expiry, if any.
func (s *TimerSet) NextExpiry() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.h) == 0 {
		return time.Time{}, false
	}
	return s.h[0].expiry, true
}

// FireExpired pops and invokes every timer whose expiry is <= now, in
// expiry order (spec.md §8 law 8), and returns how many fired. A
// callback that reschedules itself or another timer is observed by a
// later iteration of this same loop if its new expiry is also <= now.
func (s *TimerSet) FireExpired(now time.Time) int {
	fired := 0
	for {
		s.mu.Lock()
		if len(s.h) == 0 || s.h[0].expiry.After(now) {
			s.mu.Unlock()
			return fired
		}
		top := heap.Pop(&s.h).(*Timer)
		top.index = -1
		top.set = nil
		s.mu.Unlock()

		top.callback(now)
		fired++
	}
}

// timerHeap implements container/heap.Interface over *Timer, keeping
// each timer's index in sync so it can be removed in O(log n).
type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool { return h[i].expiry.Before(h[j].expiry) }

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
