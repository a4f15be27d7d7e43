// SPDX-License-Identifier: GPL-3.0-or-later

package elements

import (
	"net/netip"

	"github.com/clickrouter/click"
)

// NewEndpointFunc returns a [click.Func] that always returns the given
// [netip.AddrPort]. [NewDialPipeline] uses this to inject a fixed remote
// endpoint ahead of [*ConnectFunc].
//
// This is a convenience wrapper around [click.ConstFunc] for the common
// case of injecting a network endpoint into a pipeline.
func NewEndpointFunc(endpoint netip.AddrPort) click.Func[click.Unit, netip.AddrPort] {
	return click.ConstFunc(endpoint)
}
