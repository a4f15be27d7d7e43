// SPDX-License-Identifier: GPL-3.0-or-later

package click

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionString(t *testing.T) {
	a := &ElementInstance{Name: "a"}
	b := &ElementInstance{Name: "b"}
	c := Connection{From: PortRef{Element: a, Index: 0, Dir: Output}, To: PortRef{Element: b, Index: 1, Dir: Input}}
	assert.Equal(t, "a[0] -> [1]b", c.String())
}

func TestPortUnionFindPropagatesConcreteKind(t *testing.T) {
	u := newPortUnionFind(3)
	require.NoError(t, u.setKind(0, Push))
	require.NoError(t, u.union(0, 1))
	require.NoError(t, u.union(1, 2))

	assert.Equal(t, Push, u.kindOf(0))
	assert.Equal(t, Push, u.kindOf(1))
	assert.Equal(t, Push, u.kindOf(2))
}

func TestPortUnionFindLeavesAllAgnosticSetsAgnostic(t *testing.T) {
	u := newPortUnionFind(2)
	require.NoError(t, u.union(0, 1))
	assert.Equal(t, Agnostic, u.kindOf(0))
}

func TestPortUnionFindDetectsConflict(t *testing.T) {
	u := newPortUnionFind(2)
	require.NoError(t, u.setKind(0, Push))
	require.NoError(t, u.setKind(1, Pull))

	err := u.union(0, 1)
	require.Error(t, err)
}

func TestPortUnionFindSetKindConflict(t *testing.T) {
	u := newPortUnionFind(1)
	require.NoError(t, u.setKind(0, Push))
	require.Error(t, u.setKind(0, Pull))
}
