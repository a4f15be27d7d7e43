// SPDX-License-Identifier: GPL-3.0-or-later

package elements

import (
	"context"

	"github.com/clickrouter/click"
)

// genStubElement is a minimal push source used only to exercise port
// resolution and dispatch in this package's own tests; it has no task
// and emits nothing on its own.
type genStubElement struct{}

func (e *genStubElement) ClassName() string               { return "GenStub" }
func (e *genStubElement) PortCount() click.PortCountSpec   { return click.Fixed(0, 1) }
func (e *genStubElement) Configure(context.Context, []string, *click.ErrorHandler) error {
	return nil
}
func (e *genStubElement) Initialize(context.Context, *click.ErrorHandler) error { return nil }
func (e *genStubElement) Cleanup(click.CleanupStage)                           {}
func (e *genStubElement) Processing(dir click.Direction, _ int) click.ProcessingKind {
	if dir == click.Output {
		return click.Push
	}
	return click.Agnostic
}

// sinkStubElement is a minimal push sink counting received packets.
type sinkStubElement struct {
	received int
}

func (e *sinkStubElement) ClassName() string             { return "SinkStub" }
func (e *sinkStubElement) PortCount() click.PortCountSpec { return click.Fixed(1, 0) }
func (e *sinkStubElement) Configure(context.Context, []string, *click.ErrorHandler) error {
	return nil
}
func (e *sinkStubElement) Initialize(context.Context, *click.ErrorHandler) error { return nil }
func (e *sinkStubElement) Cleanup(click.CleanupStage)                           {}
func (e *sinkStubElement) Processing(dir click.Direction, _ int) click.ProcessingKind {
	if dir == click.Input {
		return click.Push
	}
	return click.Agnostic
}
func (e *sinkStubElement) Push(_ context.Context, _ int, p *click.Packet) error {
	e.received++
	p.Kill()
	return nil
}

// testElementsRegistry returns a class registry combining this
// package's real elements with the minimal stubs above, for tests that
// need a concrete push source/sink around an element under test.
func testElementsRegistry() map[string]click.ElementFactory {
	return map[string]click.ElementFactory{
		"GenStub":         func() click.Element { return &genStubElement{} },
		"SinkStub":        func() click.Element { return &sinkStubElement{} },
		"Null":            func() click.Element { return NewNull() },
		"Discard":         func() click.Element { return NewDiscard() },
		"InfiniteSource":  func() click.Element { return NewInfiniteSource(64, 0) },
		"Queue":           func() click.Element { return NewQueue(16) },
		"Unqueue2":        func() click.Element { return NewUnqueue2() },
	}
}
