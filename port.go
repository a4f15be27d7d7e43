// SPDX-License-Identifier: GPL-3.0-or-later

package click

import "fmt"

// ProcessingKind is the dataflow discipline of a port, see spec.md §3
// ("Port") and §4.2 ("Port typing rules").
type ProcessingKind int

const (
	// Agnostic ports have their discipline inferred at link time.
	Agnostic ProcessingKind = iota
	// Push ports are driven by their producer.
	Push
	// Pull ports are driven by their consumer.
	Pull
)

// String implements [fmt.Stringer].
func (k ProcessingKind) String() string {
	switch k {
	case Push:
		return "push"
	case Pull:
		return "pull"
	default:
		return "agnostic"
	}
}

// Direction is a port's own view of itself, see spec.md §3 ("Port").
type Direction int

const (
	// Input ports receive packets.
	Input Direction = iota
	// Output ports send packets.
	Output
)

// String implements [fmt.Stringer].
func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// PortRef identifies a port within a linked graph as the triple
// (element, port index, direction), see spec.md §3 ("Port").
type PortRef struct {
	Element *ElementInstance
	Index   int
	Dir     Direction
}

// String renders a PortRef as "name[index]" with a direction-appropriate
// bracket placement, matching the configuration language's own notation
// (spec.md §4.3 grammar, "port_decl").
func (r PortRef) String() string {
	if r.Dir == Output {
		return fmt.Sprintf("%s[%d]", r.Element.Name, r.Index)
	}
	return fmt.Sprintf("[%d]%s", r.Index, r.Element.Name)
}

// PortCountSpec describes how many input/output ports an element class
// allows, see spec.md §4.2 ("port_count()"). A count of -1 means
// "wildcard, any number".
type PortCountSpec struct {
	// MinIn/MaxIn bound the number of input ports. MaxIn == -1 means
	// unbounded.
	MinIn, MaxIn int
	// MinOut/MaxOut bound the number of output ports. MaxOut == -1
	// means unbounded.
	MinOut, MaxOut int
}

// Fixed returns a [PortCountSpec] requiring exactly nIn inputs and nOut
// outputs.
func Fixed(nIn, nOut int) PortCountSpec {
	return PortCountSpec{MinIn: nIn, MaxIn: nIn, MinOut: nOut, MaxOut: nOut}
}

// Range returns a [PortCountSpec] allowing [minIn,maxIn] inputs and
// [minOut,maxOut] outputs.
func Range(minIn, maxIn, minOut, maxOut int) PortCountSpec {
	return PortCountSpec{MinIn: minIn, MaxIn: maxIn, MinOut: minOut, MaxOut: maxOut}
}

// Wildcard returns a [PortCountSpec] allowing any number of inputs
// starting at minIn and any number of outputs starting at minOut.
func Wildcard(minIn, minOut int) PortCountSpec {
	return PortCountSpec{MinIn: minIn, MaxIn: -1, MinOut: minOut, MaxOut: -1}
}

// Accepts reports whether nIn inputs and nOut outputs satisfy the spec.
func (s PortCountSpec) Accepts(nIn, nOut int) bool {
	if nIn < s.MinIn || (s.MaxIn != -1 && nIn > s.MaxIn) {
		return false
	}
	if nOut < s.MinOut || (s.MaxOut != -1 && nOut > s.MaxOut) {
		return false
	}
	return true
}
