// SPDX-License-Identifier: GPL-3.0-or-later

package elements

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/clickrouter/click"
)

// Unqueue2 is a one-input (pull), one-output (push) bridge task: it
// repeatedly pulls from upstream and pushes downstream, the mirror
// image of [Queue] (spec.md §4.5.4, "Unqueue2 finds downstream queues
// to respect backpressure" — here read as "finds the upstream queue it
// should sleep on", since Unqueue2 is the pull side of that bridge).
// When a pull comes back empty, Unqueue2 locates its nearest upstream
// element with a Listen method (such as [Queue]) via
// [click.Router.VisitUpstream] and registers its task as a listener, so
// it sleeps instead of busy-polling
// (spec.md §4.5.4).
type Unqueue2 struct {
	Tickets uint32

	self     *click.ElementInstance
	router   *click.Router
	task     *click.Task
	listener notifierListener
	listened bool
	pulled   atomic.Uint64
}

// notifierListener is the subset of [Queue] that Unqueue2 needs:
// anything that can register a task to be woken on its next push.
type notifierListener interface {
	Listen(t *click.Task)
}

// NewUnqueue2 returns a fresh [*Unqueue2].
func NewUnqueue2() *Unqueue2 {
	return &Unqueue2{Tickets: click.DefaultTickets}
}

var _ click.Element = (*Unqueue2)(nil)
var _ click.SelfBinder = (*Unqueue2)(nil)
var _ click.Tasked = (*Unqueue2)(nil)
var _ click.HandlerProvider = (*Unqueue2)(nil)

func (e *Unqueue2) ClassName() string { return "Unqueue2" }

func (e *Unqueue2) PortCount() click.PortCountSpec { return click.Fixed(1, 1) }

func (e *Unqueue2) Processing(dir click.Direction, index int) click.ProcessingKind {
	if dir == click.Input {
		return click.Pull
	}
	return click.Push
}

func (e *Unqueue2) Configure(ctx context.Context, args []string, errh *click.ErrorHandler) error {
	return nil
}

func (e *Unqueue2) BindSelf(r *click.Router, self *click.ElementInstance) {
	e.self = self
	e.router = r
}

func (e *Unqueue2) Initialize(ctx context.Context, errh *click.ErrorHandler) error {
	e.task = click.NewTask(nil, e.runOnce)
	e.task.SetTickets(e.Tickets)
	return nil
}

func (e *Unqueue2) Cleanup(stage click.CleanupStage) {}

// Task implements [click.Tasked].
func (e *Unqueue2) Task() *click.Task { return e.task }

func (e *Unqueue2) runOnce(ctx context.Context) bool {
	p, err := Pull(ctx, e.self, 0)
	if err != nil {
		return false
	}
	if p == nil {
		e.sleepOnUpstreamNotifier()
		return false
	}
	e.pulled.Add(1)
	if err := Push(ctx, e.self, 0, p); err != nil {
		return false
	}
	e.task.FastReschedule()
	return true
}

// sleepOnUpstreamNotifier registers this task with the nearest upstream
// queue-like element so a future push reschedules it, unscheduling the
// task in the meantime. It only needs to resolve the listener once: the
// graph shape never changes without a live reconfigure, which would
// recreate this element anyway.
func (e *Unqueue2) sleepOnUpstreamNotifier() {
	if !e.listened {
		matches := e.router.VisitUpstream(e.self, 0, func(up *click.ElementInstance) bool {
			_, ok := up.Impl.(notifierListener)
			return ok
		})
		if len(matches) > 0 {
			if nl, ok := matches[0].Impl.(notifierListener); ok {
				e.listener = nl
			}
		}
		e.listened = true
	}
	if e.listener != nil {
		e.listener.Listen(e.task)
	}
	e.task.Unschedule()
}

// Pulled returns the number of packets pulled so far.
func (e *Unqueue2) Pulled() uint64 { return e.pulled.Load() }

// Handlers exposes a read-only "pulled" handler.
func (e *Unqueue2) Handlers() []click.HandlerSpec {
	return []click.HandlerSpec{
		{
			Name:  "pulled",
			Flags: click.HandlerRead | click.HandlerCalm,
			Read: func(ctx context.Context) (string, error) {
				return strconv.FormatUint(e.pulled.Load(), 10), nil
			},
		},
	}
}
