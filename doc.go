// SPDX-License-Identifier: GPL-3.0-or-later

// Package click implements the runtime for a modular packet-processing
// router: a directed graph of small typed vertices ("elements") wired
// together by typed ports, driven by a stride-scheduled cooperative task
// scheduler and a timer wheel, with a filesystem-like handler namespace
// for introspection and live reconfiguration.
//
// # Core Abstraction
//
// A configuration declares elements and connections between their ports:
//
//	src :: InfiniteSource;
//	q   :: Queue(1024);
//	src -> q -> Unqueue2 -> Discard;
//
// [Lexer] tokenizes that text for the [Parser], whose output [Link]
// consumes: it resolves classes, binds connections, infers agnostic port disciplines,
// and drives the configure/initialize lifecycle to produce a running
// [*Router].
//
// # Packet flow
//
// Packets move along edges by one of two disciplines: push (the producer
// calls the consumer) or pull (the consumer calls the producer). Every
// edge has exactly one active end, see [Connection] and [ProcessingKind].
// Elements with no upstream push source or no downstream pull sink
// register a [*Task] with a [*SchedulerThread]; a [*NotifierSignal] lets
// pull-driven tasks sleep when their upstream queue is empty and wake
// when it becomes non-empty again.
//
// # Ambient stack
//
// Structured logging goes through [SLogger] (backed by [log/slog]),
// runtime packet/resource errors are classified with [ErrClassifier], and
// parse/link/configure/initialize failures accumulate in an
// [*ErrorHandler]. [*Config] carries defaults for all of the above, built
// with [NewConfig] and customized with [Option] values.
//
// # Design boundaries
//
// This package provides the graph, the two dataflow disciplines, the
// packet abstraction, the scheduler/notifier/timer, and the handler
// plane. It does not itself define packet semantics above Ethernet and
// does not mandate a threading model: [*Router] supports both a single
// cooperative thread and many. Specific wire-protocol elements live in
// package [github.com/clickrouter/click/elements] as narrow collaborators
// reached only through the [Element] interface.
package click
