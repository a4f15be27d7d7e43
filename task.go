// SPDX-License-Identifier: GPL-3.0-or-later

package click

import (
	"context"
	"sync"
)

// TicketFactor is a rational multiplier applied to a task's ticket
// count, used to compose nested `ScheduleInfo` entries (spec.md §4.5.2,
// "Ticket composition across nesting"): an outer factor of 4 combined
// with an inner factor of 1/2 yields an effective factor of 2.
type TicketFactor struct {
	Num, Den uint32
}

// UnitFactor is the identity multiplier.
var UnitFactor = TicketFactor{Num: 1, Den: 1}

// Compose combines two factors by multiplying numerators and
// denominators, the fixed-point composition spec.md §4.5.2 calls for.
func (f TicketFactor) Compose(inner TicketFactor) TicketFactor {
	return TicketFactor{Num: f.Num * inner.Num, Den: f.Den * inner.Den}
}

// Apply scales tickets by the factor, saturating at [MaxTickets] and
// flooring at 1.
func (f TicketFactor) Apply(tickets uint32) uint32 {
	if f.Den == 0 {
		return tickets
	}
	scaled := uint64(tickets) * uint64(f.Num) / uint64(f.Den)
	if scaled > MaxTickets {
		return MaxTickets
	}
	if scaled < 1 {
		return 1
	}
	return uint32(scaled)
}

// Task is one unit of stride-scheduled work, see spec.md §4.5.2-§4.5.3.
// A Task is normally embedded in an element that has no upstream push
// source or downstream pull sink — it is the thing the scheduler runs
// to pull packets in, or to drive a periodic push.
type Task struct {
	mu      sync.Mutex
	owner   *ElementInstance
	run     func(ctx context.Context) bool
	thread  *SchedulerThread
	tickets uint32
	stride  uint32
	pass    int64
	sched   bool
	seq     uint64
	hindex  int // position in the thread's ready heap; -1 when not queued
}

// NewTask returns an unscheduled task with default tickets, bound to
// owner and driven by run on each scheduler pass. run should perform one
// unit of work and report whether it "worked" (spec.md §4.5.3): false
// lets the scheduler apply backoff instead of busy-looping.
func NewTask(owner *ElementInstance, run func(ctx context.Context) bool) *Task {
	return &Task{
		owner:   owner,
		run:     run,
		tickets: DefaultTickets,
		stride:  Stride1 / DefaultTickets,
		hindex:  -1,
	}
}

// Owner returns the element this task belongs to.
func (t *Task) Owner() *ElementInstance { return t.owner }

// Initialize binds the task to its home thread and optionally schedules
// it immediately (spec.md §4.5.3, "initialize(owner, start_scheduled)").
func (t *Task) Initialize(thread *SchedulerThread, startScheduled bool) {
	t.mu.Lock()
	t.thread = thread
	t.mu.Unlock()
	if startScheduled {
		t.Reschedule()
	}
}

// SetTickets changes the task's ticket count; the change applies to the
// stride used by subsequent runs, not the current one (spec.md §4.5.2).
func (t *Task) SetTickets(tickets uint32) {
	if tickets < 1 {
		tickets = 1
	}
	if tickets > MaxTickets {
		tickets = MaxTickets
	}
	t.mu.Lock()
	t.tickets = tickets
	t.stride = Stride1 / tickets
	t.mu.Unlock()
}

// Tickets returns the task's current ticket count.
func (t *Task) Tickets() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tickets
}

// Stride returns the task's current stride.
func (t *Task) Stride() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stride
}

// Pass returns the task's current virtual time.
func (t *Task) Pass() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pass
}

// Scheduled reports whether the task is currently in its thread's run
// queue (or queued to be, if it has no home thread yet).
func (t *Task) Scheduled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sched
}

// Reschedule inserts the task into its thread's run queue if it isn't
// already scheduled. A task catching up from sleep is inserted no
// earlier than the thread's current pass plus one stride, so it cannot
// unfairly preempt every other task (spec.md §4.5.3).
func (t *Task) Reschedule() {
	t.mu.Lock()
	if t.sched {
		t.mu.Unlock()
		return
	}
	t.sched = true
	thread := t.thread
	if thread != nil {
		if catchUp := thread.currentPass() + int64(t.stride); t.pass < catchUp {
			t.pass = catchUp
		}
	}
	t.mu.Unlock()
	if thread != nil {
		thread.insert(t)
	}
}

// Unschedule removes the task from its thread's run queue. A task may
// call this on itself during its own run.
func (t *Task) Unschedule() {
	t.mu.Lock()
	t.sched = false
	thread := t.thread
	t.mu.Unlock()
	if thread != nil {
		thread.remove(t)
	}
}

// FastReschedule marks the task to keep running without a queue
// round-trip, for use at the end of a run that wants to go again
// immediately (spec.md §4.5.3, "avoids a re-insertion when the task was
// selected this pass").
func (t *Task) FastReschedule() {
	t.mu.Lock()
	t.sched = true
	t.mu.Unlock()
}

// runOnce invokes the bound run function and advances the task's pass
// by one stride, as the scheduler does on every selection (spec.md
// §4.5.2, "pop the task with smallest pass, run it once, increment its
// pass").
func (t *Task) runOnce(ctx context.Context) bool {
	if t.run == nil {
		return false
	}
	worked := t.run(ctx)
	t.mu.Lock()
	t.pass += int64(t.stride)
	t.mu.Unlock()
	return worked
}
