// SPDX-License-Identifier: GPL-3.0-or-later

package elements

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/clickrouter/click"
)

// InfiniteSource is a zero-input, one-output push element with no
// upstream to drive it, so it registers a [*click.Task] with the
// scheduler and pushes one packet of Length bytes every time the
// scheduler selects it (spec.md §2, "a task source with no upstream").
// Limit bounds the total number of packets it will ever emit; a Limit
// of 0 means unbounded.
type InfiniteSource struct {
	Length  int
	Limit   uint64
	Tickets uint32

	self  *click.ElementInstance
	task  *click.Task
	count atomic.Uint64
}

// NewInfiniteSource returns an [*InfiniteSource] generating packets of
// length bytes, stopping after limit packets (0 for unbounded).
func NewInfiniteSource(length int, limit uint64) *InfiniteSource {
	return &InfiniteSource{Length: length, Limit: limit, Tickets: click.DefaultTickets}
}

var _ click.Element = (*InfiniteSource)(nil)
var _ click.SelfBinder = (*InfiniteSource)(nil)
var _ click.Tasked = (*InfiniteSource)(nil)
var _ click.HandlerProvider = (*InfiniteSource)(nil)

func (e *InfiniteSource) ClassName() string { return "InfiniteSource" }

func (e *InfiniteSource) PortCount() click.PortCountSpec { return click.Fixed(0, 1) }

func (e *InfiniteSource) Processing(dir click.Direction, index int) click.ProcessingKind {
	return click.Push
}

// Configure accepts up to two positional arguments, LENGTH and LIMIT,
// overriding whatever [NewInfiniteSource] set; either may be left empty
// to keep the constructor's value.
func (e *InfiniteSource) Configure(ctx context.Context, args []string, errh *click.ErrorHandler) error {
	if len(args) > 0 && args[0] != "" {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			errh.Error(click.ErrConfigure, "InfiniteSource", "invalid LENGTH %q", args[0])
			return err
		}
		e.Length = n
	}
	if len(args) > 1 && args[1] != "" {
		n, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			errh.Error(click.ErrConfigure, "InfiniteSource", "invalid LIMIT %q", args[1])
			return err
		}
		e.Limit = n
	}
	return nil
}

// BindSelf records the element's resolved identity so the task's run
// closure can push into the connections its output port was linked to.
func (e *InfiniteSource) BindSelf(r *click.Router, self *click.ElementInstance) { e.self = self }

// Initialize constructs the task the scheduler will drive; the task
// itself is created with a nil owner, following this codebase's
// established convention that the router records the element/task
// association independently (via [click.ElementInstance.Task]) rather
// than through the task's own owner field.
func (e *InfiniteSource) Initialize(ctx context.Context, errh *click.ErrorHandler) error {
	e.task = click.NewTask(nil, e.runOnce)
	e.task.SetTickets(e.Tickets)
	return nil
}

func (e *InfiniteSource) Cleanup(stage click.CleanupStage) {}

// Task implements [click.Tasked].
func (e *InfiniteSource) Task() *click.Task { return e.task }

func (e *InfiniteSource) runOnce(ctx context.Context) bool {
	if e.Limit != 0 && e.count.Load() >= e.Limit {
		e.task.Unschedule()
		return false
	}
	p, err := click.MakePacket(0, e.Length, 0, 0)
	if err != nil {
		return false
	}
	e.count.Add(1)
	if err := Push(ctx, e.self, 0, p); err != nil {
		return false
	}
	e.task.FastReschedule()
	return true
}

// Count returns the number of packets generated so far.
func (e *InfiniteSource) Count() uint64 { return e.count.Load() }

// Handlers exposes a read-only "count" handler.
func (e *InfiniteSource) Handlers() []click.HandlerSpec {
	return []click.HandlerSpec{
		{
			Name:  "count",
			Flags: click.HandlerRead | click.HandlerCalm,
			Read: func(ctx context.Context) (string, error) {
				return strconv.FormatUint(e.count.Load(), 10), nil
			},
		},
	}
}
