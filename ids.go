// SPDX-License-Identifier: GPL-3.0-or-later

package click

import (
	"github.com/bassosimone/runtimex"
	"github.com/google/uuid"
)

// NewRunID returns a UUIDv7 identifying one run of a correlated sequence
// of router events: a single configure/initialize pass, a live reconfigure
// generation, or a [*DriverManager] script step. Time-ordering makes run
// IDs sort chronologically, which is convenient when correlating log
// lines emitted by different router threads.
//
// This function panics if the system random number generator fails,
// which should only happen under extraordinary circumstances.
func NewRunID() string {
	return runtimex.PanicOnError1(uuid.NewV7()).String()
}
