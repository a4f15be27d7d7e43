// SPDX-License-Identifier: GPL-3.0-or-later

package elements

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"strconv"
	"sync/atomic"

	"github.com/clickrouter/click"
)

// ToSocket is a one-input, zero-output push sink writing every packet
// it receives to a [net.Conn], the Go analogue of Click's `ToSocket.u`
// (spec.md §4.6). It has no downstream pull sink, so unlike [FromSocket]
// it needs no task: a write is driven synchronously by the push call.
//
// Conn may be supplied directly, or left nil with Network/Endpoint/
// DialConfig set, in which case Initialize dials it with
// [NewDialPipeline].
type ToSocket struct {
	Conn          net.Conn
	Network       string
	Endpoint      netip.AddrPort
	DialConfig    *Config
	Logger        click.SLogger
	ErrClassifier click.ErrClassifier

	written atomic.Uint64
	drops   atomic.Uint64
}

// NewToSocket returns a [*ToSocket] writing to conn.
func NewToSocket(conn net.Conn, logger click.SLogger, classifier click.ErrClassifier) *ToSocket {
	return &ToSocket{Conn: conn, Logger: logger, ErrClassifier: classifier}
}

// NewToSocketDial returns a [*ToSocket] that dials network/endpoint from
// Initialize instead of writing to a pre-built connection.
func NewToSocketDial(network string, endpoint netip.AddrPort, logger click.SLogger, classifier click.ErrClassifier) *ToSocket {
	return &ToSocket{
		Network:       network,
		Endpoint:      endpoint,
		DialConfig:    NewConfig(),
		Logger:        logger,
		ErrClassifier: classifier,
	}
}

var _ click.Element = (*ToSocket)(nil)
var _ click.Pusher = (*ToSocket)(nil)
var _ click.HandlerProvider = (*ToSocket)(nil)

func (e *ToSocket) ClassName() string { return "ToSocket" }

func (e *ToSocket) PortCount() click.PortCountSpec { return click.Fixed(1, 0) }

func (e *ToSocket) Processing(dir click.Direction, index int) click.ProcessingKind {
	return click.Push
}

func (e *ToSocket) Configure(ctx context.Context, args []string, errh *click.ErrorHandler) error {
	return nil
}

func (e *ToSocket) Initialize(ctx context.Context, errh *click.ErrorHandler) error {
	if e.Conn == nil && e.Network != "" && e.Endpoint.IsValid() {
		cfg := e.DialConfig
		if cfg == nil {
			cfg = NewConfig()
		}
		logger := e.Logger
		if logger == nil {
			logger = click.NewDiscardLogger()
		}
		conn, err := NewDialPipeline(cfg, e.Network, e.Endpoint, logger).Call(ctx, click.Unit{})
		if err != nil {
			errh.Error(click.ErrInitialize, "ToSocket", "dial %s %s: %s", e.Network, e.Endpoint, err)
			return err
		}
		e.Conn = conn
	}
	if e.Conn == nil {
		errh.Error(click.ErrInitialize, "ToSocket", "no connection configured")
		return errors.New("tosocket: no connection configured")
	}
	if e.Logger == nil {
		e.Logger = click.NewDiscardLogger()
	}
	if e.ErrClassifier == nil {
		e.ErrClassifier = click.DefaultErrClassifier
	}
	return nil
}

func (e *ToSocket) Cleanup(stage click.CleanupStage) {
	if e.Conn != nil {
		e.Conn.Close()
	}
}

// Push writes p's data to the underlying connection and kills it.
func (e *ToSocket) Push(ctx context.Context, port int, p *click.Packet) error {
	defer p.Kill()
	if _, err := e.Conn.Write(p.Data()); err != nil {
		e.Logger.Debug("toSocketWriteError", "class", e.ErrClassifier.Classify(err))
		e.drops.Add(1)
		return nil
	}
	e.written.Add(1)
	return nil
}

// Handlers exposes read-only "written" and "drops" counters.
func (e *ToSocket) Handlers() []click.HandlerSpec {
	return []click.HandlerSpec{
		{
			Name:  "written",
			Flags: click.HandlerRead | click.HandlerCalm,
			Read: func(ctx context.Context) (string, error) {
				return strconv.FormatUint(e.written.Load(), 10), nil
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
