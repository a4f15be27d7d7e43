// SPDX-License-Identifier: GPL-3.0-or-later

package elements

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/clickrouter/click"
)

// Queue is a push-input, pull-output ring buffer bridging the two
// dataflow disciplines (spec.md §2, "Queues bridge push into pull").
// It owns an active [click.Notifier] over its empty signal, so a
// downstream pull task can sleep when the queue is empty and be woken
// the instant a push arrives (spec.md §4.5.4).
type Queue struct {
	Capacity int

	mu       sync.Mutex
	buf      []*click.Packet
	head     int
	notifier *click.Notifier
	drops    atomic.Uint64
}

// NewQueue returns a [*Queue] with the given ring capacity.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{Capacity: capacity, notifier: click.NewActiveNotifier()}
}

var _ click.Element = (*Queue)(nil)
var _ click.Pusher = (*Queue)(nil)
var _ click.Puller = (*Queue)(nil)
var _ click.EmptyNotifierProvider = (*Queue)(nil)
var _ click.HandlerProvider = (*Queue)(nil)

func (e *Queue) ClassName() string { return "Queue" }

func (e *Queue) PortCount() click.PortCountSpec { return click.Fixed(1, 1) }

func (e *Queue) Processing(dir click.Direction, index int) click.ProcessingKind {
	if dir == click.Input {
		return click.Push
	}
	return click.Pull
}

// Configure accepts an optional positional capacity, as well as a
// `CAPACITY n` keyword argument (the form [click.HandlerSpec]'s
// reconfigure_keyword_handler writes back on a live change).
func (e *Queue) Configure(ctx context.Context, args []string, errh *click.ErrorHandler) error {
	capacity := e.Capacity
	if capacity == 0 {
		capacity = 1000
	}
	if len(args) > 0 && args[0] != "" {
		if n, err := strconv.Atoi(args[0]); err == nil {
			capacity = n
		}
	}
	for i := 0; i+1 < len(args); i++ {
		if strings.EqualFold(args[i], "CAPACITY") {
			if n, err := strconv.Atoi(args[i+1]); err == nil {
				capacity = n
			}
		}
	}
	if capacity < 1 {
		capacity = 1
	}
	e.mu.Lock()
	e.Capacity = capacity
	e.mu.Unlock()
	return nil
}

func (e *Queue) Initialize(ctx context.Context, errh *click.ErrorHandler) error { return nil }

func (e *Queue) Cleanup(stage click.CleanupStage) {}

// Push enqueues p, dropping and killing it if the ring is already at
// capacity (spec.md §8 scenario 2, "Queue never overflows because
// pushes stop at capacity").
func (e *Queue) Push(ctx context.Context, port int, p *click.Packet) error {
	e.mu.Lock()
	if len(e.buf) >= e.Capacity {
		e.mu.Unlock()
		e.drops.Add(1)
		p.Kill()
		return nil
	}
	wasEmpty := len(e.buf) == 0
	e.buf = append(e.buf, p)
	e.mu.Unlock()
	if wasEmpty {
		e.notifier.SetActive(true)
	}
	return nil
}

// Pull dequeues and returns the oldest packet, or nil if the ring is
// empty.
func (e *Queue) Pull(ctx context.Context, port int) (*click.Packet, error) {
	e.mu.Lock()
	if len(e.buf) == 0 {
		e.mu.Unlock()
		return nil, nil
	}
	p := e.buf[0]
	e.buf = e.buf[1:]
	empty := len(e.buf) == 0
	e.mu.Unlock()
	if empty {
		e.notifier.SetActive(false)
	}
	return p, nil
}

// EmptyNotifierSignal implements [click.EmptyNotifierProvider]: the
// signal is active whenever the queue is non-empty, the convention
// spec.md §4.5.4 calls "the universal empty notifier".
func (e *Queue) EmptyNotifierSignal() *click.NotifierSignal {
	sig := e.notifier.Signal()
	return &sig
}

// Listen registers t to be woken on the next push into an empty queue;
// [Unqueue2] calls this once it has found this queue via
// [click.Router.VisitUpstream].
func (e *Queue) Listen(t *click.Task) { e.notifier.Listen(t) }

// Length returns the number of packets currently buffered.
func (e *Queue) Length() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.buf)
}

// Drops returns the number of packets dropped for lack of capacity.
func (e *Queue) Drops() uint64 { return e.drops.Load() }

// Handlers exposes length/capacity/drops reads and a capacity write
// that sets Capacity directly, without re-running Configure.
func (e *Queue) Handlers() []click.HandlerSpec {
	return []click.HandlerSpec{
		{
			Name:  "length",
			Flags: click.HandlerRead,
			Read: func(ctx context.Context) (string, error) {
				return strconv.Itoa(e.Length()), nil
			},
		},
		{
			Name:  "capacity",
			Flags: click.HandlerRead | click.HandlerWrite,
			Read: func(ctx context.Context) (string, error) {
				e.mu.Lock()
				defer e.mu.Unlock()
				return strconv.Itoa(e.Capacity), nil
			},
			Write: func(ctx context.Context, value string) error {
				n, err := strconv.Atoi(value)
				if err != nil {
					return err
				}
				e.mu.Lock()
				e.Capacity = n
				e.mu.Unlock()
				return nil
			},
		},
		{
			Name:  "drops",
			Flags: click.HandlerRead | click.HandlerCalm,
			Read: func(ctx context.Context) (string, error) {
				return strconv.FormatUint(e.drops.Load(), 10), nil
			},
		},
	}
}
