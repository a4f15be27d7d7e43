// SPDX-License-Identifier: GPL-3.0-or-later

package elements

import (
	"context"
	"fmt"

	"github.com/clickrouter/click"
)

// portForFlow picks the output port a packet entering inPort should
// leave through (or the input port an outPort's pull should draw from),
// consulting [click.FlowCoder] when the element implements it and
// otherwise assuming the common single-in/single-out identity mapping
// every [click.SimpleActioner] in this package relies on.
func portForFlow(e *click.ElementInstance, fixed int, total int, reaches func(i, o int) bool) int {
	for i := 0; i < total; i++ {
		if reaches(fixed, i) {
			return i
		}
	}
	return 0
}

// Push delivers p to every connection fed by from's output port out,
// recursively driving agnostic [click.SimpleActioner] elements along the
// way. This is the push half of the scheduler-facing glue spec.md §4.2
// describes informally as "an element pushes a packet to the next
// element's input"; elements in this package that originate packets
// (e.g. [InfiniteSource]) call it directly once bound via BindSelf.
func Push(ctx context.Context, from *click.ElementInstance, out int, p *click.Packet) error {
	for _, conn := range from.OutputConnections(out) {
		if err := deliverPush(ctx, conn.To.Element, conn.To.Index, p); err != nil {
			return err
		}
	}
	return nil
}

func deliverPush(ctx context.Context, e *click.ElementInstance, in int, p *click.Packet) error {
	switch impl := e.Impl.(type) {
	case click.Pusher:
		return impl.Push(ctx, in, p)
	case click.SimpleActioner:
		out, err := impl.SimpleAction(ctx, p)
		if err != nil || out == nil {
			return err
		}
		outPort := portForFlow(e, in, e.NumOutputs(), func(i, o int) bool { return flowReaches(e, i, o) })
		return Push(ctx, e, outPort, out)
	default:
		return fmt.Errorf("%s: input %d does not accept a pushed packet", e.Name, in)
	}
}

// Pull requests a packet from whatever feeds from's input port in,
// recursively driving agnostic [click.SimpleActioner] elements along the
// way. This is the pull half of the glue; elements that consume packets
// via a pull output (e.g. [Unqueue2]) call it directly.
func Pull(ctx context.Context, from *click.ElementInstance, in int) (*click.Packet, error) {
	conns := from.InputConnections(in)
	if len(conns) == 0 {
		return nil, nil
	}
	// A resolved pull input has exactly one upstream connection
	// (the linker rejects any other count, spec.md §4.3 step 5).
	conn := conns[0]
	return requestPull(ctx, conn.From.Element, conn.From.Index)
}

func requestPull(ctx context.Context, e *click.ElementInstance, out int) (*click.Packet, error) {
	switch impl := e.Impl.(type) {
	case click.Puller:
		return impl.Pull(ctx, out)
	case click.SimpleActioner:
		inPort := portForFlow(e, out, e.NumInputs(), func(o, i int) bool { return flowReaches(e, i, o) })
		p, err := Pull(ctx, e, inPort)
		if err != nil || p == nil {
			return nil, err
		}
		return impl.SimpleAction(ctx, p)
	default:
		return nil, fmt.Errorf("%s: output %d does not support a pulled packet", e.Name, out)
	}
}

// flowReaches mirrors the router's private flow_code lookup: it
// defaults to a full crossbar unless the element narrows it.
func flowReaches(e *click.ElementInstance, in, out int) bool {
	if fc, ok := e.Impl.(click.FlowCoder); ok {
		return fc.FlowCode(in, out)
	}
	return true
}
