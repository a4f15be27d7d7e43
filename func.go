// SPDX-License-Identifier: GPL-3.0-or-later

package click

import "context"

// Func is a generic operation that accepts an input and returns a result.
//
// Func instances can be composed using [Compose2], [Compose3], [Compose4]
// to create type-safe pipelines where the output of one stage flows to
// the input of the next. package elements uses this to assemble a
// device element's connection setup (resolve an endpoint, dial it,
// wrap the result for logging and context-bound cancellation) from four
// independently testable stages instead of one monolithic dial routine.
//
// Resource cleanup contract: when a Func receives a closeable resource
// as input and returns an error, it is responsible for closing that
// resource before returning, so composed pipelines do not leak resources
// on partial failure.
type Func[A, B any] interface {
	Call(ctx context.Context, input A) (B, error)
}

// FuncAdapter wraps a function as a [Func] implementation.
//
// Use this to create ad-hoc [Func] instances from closures when you need
// custom behavior that doesn't fit an existing primitive.
type FuncAdapter[A, B any] func(ctx context.Context, input A) (B, error)

// Call implements [Func].
func (f FuncAdapter[A, B]) Call(ctx context.Context, input A) (B, error) {
	return f(ctx, input)
}
