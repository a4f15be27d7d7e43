// SPDX-License-Identifier: GPL-3.0-or-later

package elements

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/clickrouter/click"
)

// FromSocket is a zero-input, one-output tasked device element reading
// packets off a [net.Conn] and pushing them into the graph, the Go
// analogue of Click's `FromSocket.u` (spec.md §4.6). It has no upstream
// push source, so it registers a task the scheduler drives; each run
// attempts one bounded-deadline read so a stalled socket backs off
// instead of blocking the whole scheduler thread.
//
// Conn may be supplied directly (e.g. for a file descriptor handed off
// by a driver), or left nil with Network/Endpoint/DialConfig set, in
// which case Initialize dials it with [NewDialPipeline].
type FromSocket struct {
	Conn          net.Conn
	Network       string
	Endpoint      netip.AddrPort
	DialConfig    *Config
	ReadSize      int
	ReadTimeout   time.Duration
	Logger        click.SLogger
	ErrClassifier click.ErrClassifier

	self  *click.ElementInstance
	task  *click.Task
	read  atomic.Uint64
	drops atomic.Uint64
}

// NewFromSocket returns a [*FromSocket] reading from conn. readSize
// bounds how many bytes each packet's data region holds.
func NewFromSocket(conn net.Conn, readSize int, logger click.SLogger, classifier click.ErrClassifier) *FromSocket {
	return &FromSocket{
		Conn:          conn,
		ReadSize:      readSize,
		ReadTimeout:   50 * time.Millisecond,
		Logger:        logger,
		ErrClassifier: classifier,
	}
}

// NewFromSocketDial returns a [*FromSocket] that dials network/endpoint
// from Initialize instead of reading from a pre-built connection.
func NewFromSocketDial(network string, endpoint netip.AddrPort, readSize int, logger click.SLogger, classifier click.ErrClassifier) *FromSocket {
	return &FromSocket{
		Network:       network,
		Endpoint:      endpoint,
		DialConfig:    NewConfig(),
		ReadSize:      readSize,
		ReadTimeout:   50 * time.Millisecond,
		Logger:        logger,
		ErrClassifier: classifier,
	}
}

var _ click.Element = (*FromSocket)(nil)
var _ click.SelfBinder = (*FromSocket)(nil)
var _ click.Tasked = (*FromSocket)(nil)
var _ click.HandlerProvider = (*FromSocket)(nil)

func (e *FromSocket) ClassName() string { return "FromSocket" }

func (e *FromSocket) PortCount() click.PortCountSpec { return click.Fixed(0, 1) }

func (e *FromSocket) Processing(dir click.Direction, index int) click.ProcessingKind {
	return click.Push
}

func (e *FromSocket) Configure(ctx context.Context, args []string, errh *click.ErrorHandler) error {
	return nil
}

func (e *FromSocket) BindSelf(r *click.Router, self *click.ElementInstance) { e.self = self }

func (e *FromSocket) Initialize(ctx context.Context, errh *click.ErrorHandler) error {
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
			errh.Error(click.ErrInitialize, "FromSocket", "dial %s %s: %s", e.Network, e.Endpoint, err)
			return err
		}
		e.Conn = conn
	}
	if e.Conn == nil {
		errh.Error(click.ErrInitialize, "FromSocket", "no connection configured")
		return errors.New("fromsocket: no connection configured")
	}
	if e.ReadSize <= 0 {
		e.ReadSize = 1500
	}
	if e.Logger == nil {
		e.Logger = click.NewDiscardLogger()
	}
	if e.ErrClassifier == nil {
		e.ErrClassifier = click.DefaultErrClassifier
	}
	e.task = click.NewTask(nil, e.runOnce)
	return nil
}

func (e *FromSocket) Cleanup(stage click.CleanupStage) {
	if e.Conn != nil {
		e.Conn.Close()
	}
}

// Task implements [click.Tasked].
func (e *FromSocket) Task() *click.Task { return e.task }

func (e *FromSocket) runOnce(ctx context.Context) bool {
	e.Conn.SetReadDeadline(time.Now().Add(e.ReadTimeout))
	buf := make([]byte, e.ReadSize)
	n, err := e.Conn.Read(buf)
	if err != nil {
		if isTimeout(err) {
			return false
		}
		e.Logger.Debug("fromSocketReadError", "class", e.ErrClassifier.Classify(err))
		e.drops.Add(1)
		e.task.Unschedule()
		return false
	}
	p := click.WrapBuffer(buf[:n], 0, nil)
	e.read.Add(1)
	if err := Push(ctx, e.self, 0, p); err != nil {
		return false
	}
	e.task.FastReschedule()
	return true
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return errors.Is(err, os.ErrDeadlineExceeded)
}

// Handlers exposes read-only "read" and "drops" counters.
func (e *FromSocket) Handlers() []click.HandlerSpec {
	return []click.HandlerSpec{
		{
			Name:  "read",
			Flags: click.HandlerRead | click.HandlerCalm,
			Read: func(ctx context.Context) (string, error) {
				return strconv.FormatUint(e.read.Load(), 10), nil
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
