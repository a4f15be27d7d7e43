// SPDX-License-Identifier: GPL-3.0-or-later

package elements

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/clickrouter/click"
)

// Discard is a one-input, zero-output push sink that kills every packet
// it receives and counts them, the configuration language's standard
// "drop the rest" terminal element.
type Discard struct {
	count atomic.Uint64
}

// NewDiscard returns a fresh [*Discard].
func NewDiscard() *Discard { return &Discard{} }

var _ click.Element = (*Discard)(nil)
var _ click.Pusher = (*Discard)(nil)
var _ click.HandlerProvider = (*Discard)(nil)

func (e *Discard) ClassName() string { return "Discard" }

func (e *Discard) PortCount() click.PortCountSpec { return click.Fixed(1, 0) }

func (e *Discard) Processing(dir click.Direction, index int) click.ProcessingKind {
	return click.Push
}

func (e *Discard) Configure(ctx context.Context, args []string, errh *click.ErrorHandler) error {
	return nil
}

func (e *Discard) Initialize(ctx context.Context, errh *click.ErrorHandler) error { return nil }

func (e *Discard) Cleanup(stage click.CleanupStage) {}

// Push kills p and increments the count handler exposes.
func (e *Discard) Push(ctx context.Context, port int, p *click.Packet) error {
	e.count.Add(1)
	p.Kill()
	return nil
}

// Count returns the number of packets discarded so far.
func (e *Discard) Count() uint64 { return e.count.Load() }

// Handlers exposes a read-only "count" handler reporting Count.
func (e *Discard) Handlers() []click.HandlerSpec {
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
