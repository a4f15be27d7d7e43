// SPDX-License-Identifier: GPL-3.0-or-later

package elements

import (
	"context"
	"net"
	"time"

	"github.com/clickrouter/click"
)

// Dialer abstracts the [*net.Dialer] behavior used by [*ConnectFunc].
//
// By making [*ConnectFunc] depend on an abstract implementation we allow
// for unit testing and for using alternative dialers (e.g. a dialer that
// resolves through a local cache, or one instrumented for a test).
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Config holds configuration shared by the socket-facing elements in
// this package (FromSocket, ToSocket, and their connect/observe
// building blocks).
//
// Pass this to the New*Func constructors to pre-wire dependencies. All
// fields have sensible defaults set by [NewConfig]; customize before
// passing to a constructor.
type Config struct {
	// Dialer is used by [*ConnectFunc].
	//
	// Set by [NewConfig] to [*net.Dialer].
	Dialer Dialer

	// ErrClassifier classifies errors for structured logging, the same
	// classifier the router core uses for its own runtime-error
	// categories.
	//
	// Set by [NewConfig] to [click.DefaultErrClassifier].
	ErrClassifier click.ErrClassifier

	// TimeNow returns the current time.
	//
	// Set by [NewConfig] to [time.Now].
	TimeNow func() time.Time
}

// NewConfig creates a [*Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Dialer:        &net.Dialer{},
		ErrClassifier: click.DefaultErrClassifier,
		TimeNow:       time.Now,
	}
}
