// SPDX-License-Identifier: GPL-3.0-or-later

package elements

import "github.com/clickrouter/click"

// Registry returns the class table for every element in this package
// that can be constructed from configuration text alone: it is what
// cmd/clickd registers before linking a configuration file.
//
// FromSocket, ToSocket, CloudQueueSink, CloudQueueSource, BlobDump,
// NoiseEncap, and NoiseDecap are deliberately absent: each wraps a
// concrete collaborator (a net.Conn, an Azure SDK client, a pre-shared
// key) that configuration text has no syntax to express, so a caller
// that wants them wires an element instance into a router by hand
// instead of going through the text-driven linker.
func Registry() map[string]click.ElementFactory {
	return map[string]click.ElementFactory{
		"Null":           func() click.Element { return NewNull() },
		"Discard":        func() click.Element { return NewDiscard() },
		"InfiniteSource": func() click.Element { return NewInfiniteSource(64, 0) },
		"Queue":          func() click.Element { return NewQueue(1000) },
		"Unqueue2":       func() click.Element { return NewUnqueue2() },
		"Classifier":     func() click.Element { return &Classifier{} },
	}
}
