// SPDX-License-Identifier: GPL-3.0-or-later

package click

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInodeRoundTrip(t *testing.T) {
	ino := EncodeInode(InodeHandlerFile, 3, 7)
	kind, eindex, hindex := ino.Decode()
	assert.Equal(t, InodeHandlerFile, kind)
	assert.Equal(t, 3, eindex)
	assert.Equal(t, 7, hindex)
}

func TestInodeRoundTripZeroIndices(t *testing.T) {
	ino := EncodeInode(InodeElementDir, 0, 0)
	kind, eindex, hindex := ino.Decode()
	assert.Equal(t, InodeElementDir, kind)
	assert.Equal(t, 0, eindex)
	assert.Equal(t, 0, hindex)
}

func TestInodeGlobalHandlerUsesNegativeEindex(t *testing.T) {
	ino := EncodeInode(InodeGlobalHandlerFile, GlobalEindex, 2)
	kind, eindex, hindex := ino.Decode()
	assert.Equal(t, InodeGlobalHandlerFile, kind)
	assert.Equal(t, GlobalEindex, eindex)
	assert.Equal(t, 2, hindex)
}

func TestHandlerFSRootListsElementsAndMirrors(t *testing.T) {
	r, err := Link(context.Background(), NewConfig(), testRegistry(), "test",
		`a :: GenStub -> b :: SinkStub;`)
	require.NoError(t, err)

	fs := NewHandlerFS(r)
	root := fs.Root()
	assert.Contains(t, root, "a")
	assert.Contains(t, root, "b")
	assert.Contains(t, root, ".e")
	assert.Contains(t, root, ".h")
}

func TestHandlerFSElementDirAndNumberDirAgree(t *testing.T) {
	r, err := Link(context.Background(), NewConfig(), testRegistry(), "test",
		`a :: GenStub -> b :: SinkStub;`)
	require.NoError(t, err)

	fs := NewHandlerFS(r)
	a, ok := r.ElementByName("a")
	require.True(t, ok)

	byName, err := fs.ElementDir("a")
	require.NoError(t, err)
	byIndex, err := fs.ElementNumberDir(a.Eindex)
	require.NoError(t, err)
	assert.ElementsMatch(t, byName, byIndex)
}

func TestHandlerFSElementDirUnknownName(t *testing.T) {
	r, err := Link(context.Background(), NewConfig(), testRegistry(), "test",
		`a :: GenStub -> b :: SinkStub;`)
	require.NoError(t, err)

	fs := NewHandlerFS(r)
	_, err = fs.ElementDir("nope")
	require.Error(t, err)
}

func TestHandlerFSGlobalDirListsRouterHandlers(t *testing.T) {
	r, err := Link(context.Background(), NewConfig(), testRegistry(), "test",
		`a :: GenStub -> b :: SinkStub;`)
	require.NoError(t, err)

	fs := NewHandlerFS(r)
	assert.Contains(t, fs.GlobalDir(), "list")
	assert.Contains(t, fs.GlobalDir(), "stop")
}

func TestHandlerFSStaleAfterGenerationBump(t *testing.T) {
	r, err := Link(context.Background(), NewConfig(), testRegistry(), "test",
		`a :: GenStub -> b :: SinkStub;`)
	require.NoError(t, err)

	fs := NewHandlerFS(r)
	assert.False(t, fs.Stale())
	r.generation++
	assert.True(t, fs.Stale())
}
