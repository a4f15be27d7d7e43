// SPDX-License-Identifier: GPL-3.0-or-later

package elements

import (
	"context"

	"github.com/clickrouter/click"
)

// Null is a one-input, one-output element that forwards every packet
// unchanged. It declares both ports [click.Agnostic], so linking Null
// between two push elements resolves it to push and between two pull
// elements resolves it to pull; this makes it the simplest element that
// exercises agnostic port propagation end to end.
type Null struct{}

// NewNull returns a fresh [*Null].
func NewNull() *Null { return &Null{} }

var _ click.Element = (*Null)(nil)
var _ click.SimpleActioner = (*Null)(nil)

func (e *Null) ClassName() string { return "Null" }

func (e *Null) PortCount() click.PortCountSpec { return click.Fixed(1, 1) }

func (e *Null) Processing(dir click.Direction, index int) click.ProcessingKind {
	return click.Agnostic
}

func (e *Null) Configure(ctx context.Context, args []string, errh *click.ErrorHandler) error {
	return nil
}

func (e *Null) Initialize(ctx context.Context, errh *click.ErrorHandler) error { return nil }

func (e *Null) Cleanup(stage click.CleanupStage) {}

// SimpleAction returns p unchanged.
func (e *Null) SimpleAction(ctx context.Context, p *click.Packet) (*click.Packet, error) {
	return p, nil
}
