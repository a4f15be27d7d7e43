// SPDX-License-Identifier: GPL-3.0-or-later

package click

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// SchedulerThread owns one thread's worth of tasks and timers, see
// spec.md §4.5.1. A task runs only on its home thread; rescheduling
// from another goroutine is allowed (the notifier wake path does
// exactly this) but never migrates the task to a different thread.
type SchedulerThread struct {
	id int

	mu      sync.Mutex
	ready   taskHeap
	seq     uint64

	timers *TimerSet
	now    func() time.Time

	idle time.Duration
}

// NewSchedulerThread returns an empty thread identified by id. now
// supplies the current steady-clock time; tests typically pass a fake
// clock, production code [time.Now].
func NewSchedulerThread(id int, now func() time.Time) *SchedulerThread {
	if now == nil {
		now = time.Now
	}
	return &SchedulerThread{
		id:     id,
		timers: NewTimerSet(),
		now:    now,
		idle:   time.Millisecond,
	}
}

// ID returns the thread's index within its router.
func (s *SchedulerThread) ID() int { return s.id }

// Timers returns the thread's private timer set.
func (s *SchedulerThread) Timers() *TimerSet { return s.timers }

func (s *SchedulerThread) currentPass() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ready) == 0 {
		return 0
	}
	return s.ready[0].pass
}

func (s *SchedulerThread) insert(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.hindex >= 0 {
		return
	}
	t.seq = s.seq
	s.seq++
	heap.Push(&s.ready, t)
}

func (s *SchedulerThread) remove(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.hindex >= 0 {
		heap.Remove(&s.ready, t.hindex)
	}
}

// pop removes and returns the task with the smallest pass, breaking
// ties by insertion order (spec.md §4.5.2).
func (s *SchedulerThread) pop() *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ready) == 0 {
		return nil
	}
	return heap.Pop(&s.ready).(*Task)
}

// RunOnce performs one iteration of the thread loop: fire expired
// timers, then run at most one task (spec.md §4.5.1). It returns
// (ran, worked): ran is false if there was nothing scheduled at all.
func (s *SchedulerThread) RunOnce(ctx context.Context) (ran, worked bool) {
	s.timers.FireExpired(s.now())

	task := s.pop()
	if task == nil {
		return false, false
	}

	worked = task.runOnce(ctx)

	task.mu.Lock()
	stillScheduled := task.sched
	task.mu.Unlock()
	if stillScheduled {
		// Still wants to run: reinsert directly rather than through
		// Reschedule, since that call only flips an already-true flag
		// to true again and the task was already popped out of the
		// heap above (spec.md §4.5.3, fast_reschedule).
		s.insert(task)
	}
	return true, worked
}

// Run drives the thread loop until ctx is cancelled, sleeping briefly
// whenever a pass produced no work and no timer is imminent, matching
// the backoff spec.md §4.5.3 describes ("used by schedulers to
// implement basic backoff").
func (s *SchedulerThread) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ran, worked := s.RunOnce(ctx)
		if ran && worked {
			continue
		}

		wait := s.idle
		if next, ok := s.timers.NextExpiry(); ok {
			if d := next.Sub(s.now()); d > 0 && d < wait {
				wait = d
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// taskHeap implements container/heap.Interface over *Task, ordered by
// pass and then by insertion sequence (spec.md §4.5.2, "ties break by
// insertion order").
type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].pass != h[j].pass {
		return h[i].pass < h[j].pass
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].hindex = i
	h[j].hindex = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*Task)
	t.hindex = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.hindex = -1
	*h = old[:n-1]
	return t
}
