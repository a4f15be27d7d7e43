// SPDX-License-Identifier: GPL-3.0-or-later

package click

import "github.com/bassosimone/errclass"

// ErrClassifier classifies runtime packet and resource errors (spec.md §7
// categories 5-7) into categorical strings for structured logging and
// per-element counters.
//
// Implementations map errors to short, descriptive labels (e.g.,
// "ETIMEDOUT", "ECONNRESET") that facilitate systematic analysis of
// router drop statistics.
type ErrClassifier interface {
	Classify(err error) string
}

// ErrClassifierFunc adapts a function to the [ErrClassifier] interface.
//
// This allows using simple functions as classifiers:
//
//	cfg.ErrClassifier = ErrClassifierFunc(errclass.New)
type ErrClassifierFunc func(error) string

var _ ErrClassifier = ErrClassifierFunc(nil)

// Classify implements [ErrClassifier].
func (f ErrClassifierFunc) Classify(err error) string {
	return f(err)
}

// DefaultErrClassifier classifies errors using [github.com/bassosimone/errclass],
// which maps OS-level socket errors (ECONNRESET, ETIMEDOUT, ...) to short
// labels. A nil error classifies to the empty string.
var DefaultErrClassifier = ErrClassifierFunc(errclass.New)
