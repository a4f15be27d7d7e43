// SPDX-License-Identifier: GPL-3.0-or-later

package elements

import (
	"net"
	"net/netip"

	"github.com/clickrouter/click"
)

// NewDialPipeline composes the four socket-setup stages into a single
// [click.Func] that dials endpoint over network and returns a connection
// that logs every I/O operation and closes itself when the enclosing
// context is cancelled.
//
// This is what FromSocket and ToSocket call from Initialize when they are
// configured with a Network/Endpoint pair instead of a pre-built
// [net.Conn]: [NewEndpointFunc] lifts the fixed endpoint into the
// pipeline, [NewConnectFunc] dials it, [NewObserveConnFunc] wraps the
// result for structured logging, and [NewCancelWatchFunc] arranges for
// the connection to be torn down on context cancellation.
func NewDialPipeline(cfg *Config, network string, endpoint netip.AddrPort, logger click.SLogger) click.Func[click.Unit, net.Conn] {
	return click.Compose4[click.Unit, netip.AddrPort, net.Conn, net.Conn, net.Conn](
		NewEndpointFunc(endpoint),
		NewConnectFunc(cfg, network, logger),
		NewObserveConnFunc(cfg, logger),
		NewCancelWatchFunc(),
	)
}
