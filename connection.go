// SPDX-License-Identifier: GPL-3.0-or-later

package click

import "fmt"

// Connection is one edge of the element graph, from an output port to
// an input port, see spec.md §3 ("Connection").
type Connection struct {
	From PortRef
	To   PortRef
}

// String renders a connection the way the configuration language would,
// e.g. "a[0] -> [1]b".
func (c Connection) String() string {
	return fmt.Sprintf("%s -> %s", c.From.String(), c.To.String())
}

// portKind is a union-find node used during agnostic resolution (spec.md
// §4.2 rule 4, §4.3 step 4, "fixed-point propagation").
type portKind struct {
	parent int
	rank   int
	kind   ProcessingKind // Agnostic until unified with a push/pull node
}

// portUnionFind resolves every port in a graph to push or pull by
// unioning ports joined by a connection or co-located on the same
// agnostic element, then propagating any concrete kind found in a
// component to every member of that component.
//
// This is the generalization spec.md §4.2 describes informally
// ("an agnostic-on-agnostic element adopts its neighbor's kind"): rather
// than iterating to a fixed point by repeated local propagation, ports
// that must share a kind are placed in one union-find set up front, and
// the set's kind is read off once every union has been processed.
type portUnionFind struct {
	nodes []portKind
}

func newPortUnionFind(n int) *portUnionFind {
	nodes := make([]portKind, n)
	for i := range nodes {
		nodes[i] = portKind{parent: i, kind: Agnostic}
	}
	return &portUnionFind{nodes: nodes}
}

func (u *portUnionFind) find(i int) int {
	for u.nodes[i].parent != i {
		u.nodes[i].parent = u.nodes[u.nodes[i].parent].parent
		i = u.nodes[i].parent
	}
	return i
}

// union merges the sets containing i and j, returning an error if they
// carry conflicting concrete kinds (spec.md §4.2 rule 4, "conflicts are
// a link error").
func (u *portUnionFind) union(i, j int) error {
	ri, rj := u.find(i), u.find(j)
	if ri == rj {
		return nil
	}
	merged, err := mergeKind(u.nodes[ri].kind, u.nodes[rj].kind)
	if err != nil {
		return err
	}
	if u.nodes[ri].rank < u.nodes[rj].rank {
		ri, rj = rj, ri
	}
	u.nodes[rj].parent = ri
	u.nodes[ri].kind = merged
	if u.nodes[ri].rank == u.nodes[rj].rank {
		u.nodes[ri].rank++
	}
	return nil
}

// setKind forces the set containing i to carry kind, failing on
// conflict with an already-resolved kind in that set.
func (u *portUnionFind) setKind(i int, kind ProcessingKind) error {
	r := u.find(i)
	merged, err := mergeKind(u.nodes[r].kind, kind)
	if err != nil {
		return err
	}
	u.nodes[r].kind = merged
	return nil
}

func (u *portUnionFind) kindOf(i int) ProcessingKind {
	return u.nodes[u.find(i)].kind
}

func mergeKind(a, b ProcessingKind) (ProcessingKind, error) {
	switch {
	case a == Agnostic:
		return b, nil
	case b == Agnostic:
		return a, nil
	case a == b:
		return a, nil
	default:
		return Agnostic, fmt.Errorf("push/pull conflict: %s vs %s", a, b)
	}
}
