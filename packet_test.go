// SPDX-License-Identifier: GPL-3.0-or-later

package click

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakePacket(t *testing.T) {
	t.Run("allocates headroom, data, tailroom", func(t *testing.T) {
		p, err := MakePacket(16, 64, 8, DefaultAnnotationSize)
		require.NoError(t, err)
		assert.Equal(t, 16, p.Headroom())
		assert.Equal(t, 64, p.Length())
		assert.Equal(t, 8, p.Tailroom())
		assert.Equal(t, int32(1), p.Shares())
	})

	t.Run("rejects negative dimensions", func(t *testing.T) {
		_, err := MakePacket(-1, 64, 8, DefaultAnnotationSize)
		require.Error(t, err)
	})
}

// Packet conservation under clone: clone();kill() leaves share count
// unchanged, see spec.md §8 law 3.
func TestPacketCloneKillConservation(t *testing.T) {
	p, err := MakePacket(0, 32, 0, DefaultAnnotationSize)
	require.NoError(t, err)

	before := p.Shares()
	clone := p.Clone()
	assert.Equal(t, before+1, p.Shares())

	clone.Kill()
	assert.Equal(t, before, p.Shares())
}

func TestPacketKillFreesOnLastShare(t *testing.T) {
	var freed bool
	p := WrapBuffer(make([]byte, 16), DefaultAnnotationSize, func([]byte) { freed = true })

	clone := p.Clone()
	p.Kill()
	assert.False(t, freed, "destructor must not run while a share remains")

	clone.Kill()
	assert.True(t, freed, "destructor must run exactly once the last share is killed")
}

// Uniqueify idempotence: spec.md §8 law 4.
func TestPacketUniqueifyIdempotent(t *testing.T) {
	p, err := MakePacket(8, 16, 8, DefaultAnnotationSize)
	require.NoError(t, err)

	same := p.Uniqueify()
	assert.Same(t, p, same)
}

func TestPacketUniqueifyCopiesOnShare(t *testing.T) {
	p, err := MakePacket(8, 16, 8, DefaultAnnotationSize)
	require.NoError(t, err)
	copy(p.Data(), []byte("0123456789012345"))

	clone1 := p.Clone()
	clone2 := p.Clone()
	require.Equal(t, int32(3), p.Shares())

	unique := clone1.Uniqueify()
	unique.Data()[0] = 'X'

	assert.Equal(t, byte('0'), p.Data()[0], "original must observe the pre-write data")
	assert.Equal(t, byte('0'), clone2.Data()[0], "other clones must observe the pre-write data")
	assert.Equal(t, byte('X'), unique.Data()[0])

	assert.Equal(t, int32(2), p.Shares(), "original buffer retains the two untouched clones")
	assert.Equal(t, int32(1), unique.Shares(), "the uniqueified packet owns a fresh buffer")
}

// Header offsets stable across uniqueify: spec.md §8 law 5.
func TestPacketHeaderOffsetsStableAcrossUniqueify(t *testing.T) {
	p, err := MakePacket(8, 64, 8, DefaultAnnotationSize)
	require.NoError(t, err)
	require.NoError(t, p.SetMACHeaderOffset(0))
	require.NoError(t, p.SetNetworkHeaderOffset(14))
	require.NoError(t, p.SetTransportHeaderOffset(34))

	clone := p.Clone()
	unique := clone.Uniqueify()

	assert.Equal(t, 0, unique.MACHeaderOffset())
	assert.Equal(t, 14, unique.NetworkHeaderOffset())
	assert.Equal(t, 34, unique.TransportHeaderOffset())
}

func TestPacketSetHeaderOffsetOutOfRange(t *testing.T) {
	p, err := MakePacket(0, 16, 0, DefaultAnnotationSize)
	require.NoError(t, err)

	require.ErrorIs(t, p.SetNetworkHeaderOffset(-1), ErrHeaderOffsetOutOfRange)
	require.ErrorIs(t, p.SetNetworkHeaderOffset(17), ErrHeaderOffsetOutOfRange)
}

func TestPacketPushPull(t *testing.T) {
	t.Run("push within headroom", func(t *testing.T) {
		p, err := MakePacket(8, 16, 0, DefaultAnnotationSize)
		require.NoError(t, err)

		grown, err := p.Push(4)
		require.NoError(t, err)
		assert.Same(t, p, grown)
		assert.Equal(t, 4, grown.Headroom())
		assert.Equal(t, 20, grown.Length())
	})

	t.Run("push beyond headroom reallocates", func(t *testing.T) {
		p, err := MakePacket(4, 16, 0, DefaultAnnotationSize)
		require.NoError(t, err)
		copy(p.Data(), []byte("0123456789012345"))

		grown, err := p.Push(10)
		require.NoError(t, err)
		require.NotSame(t, p, grown)
		assert.Equal(t, 26, grown.Length())
		assert.Equal(t, []byte("0123456789012345"), grown.Data()[10:])
	})

	t.Run("pull returns headroom", func(t *testing.T) {
		p, err := MakePacket(8, 16, 0, DefaultAnnotationSize)
		require.NoError(t, err)

		shrunk, err := p.Pull(4)
		require.NoError(t, err)
		assert.Equal(t, 12, shrunk.Length())
		assert.Equal(t, 12, shrunk.Headroom())
	})

	t.Run("pull beyond length fails", func(t *testing.T) {
		p, err := MakePacket(0, 4, 0, DefaultAnnotationSize)
		require.NoError(t, err)

		_, err = p.Pull(5)
		require.Error(t, err)
	})
}

func TestPacketPutTake(t *testing.T) {
	t.Run("put within tailroom", func(t *testing.T) {
		p, err := MakePacket(0, 16, 8, DefaultAnnotationSize)
		require.NoError(t, err)

		grown, err := p.Put(4)
		require.NoError(t, err)
		assert.Same(t, p, grown)
		assert.Equal(t, 4, grown.Tailroom())
		assert.Equal(t, 20, grown.Length())
	})

	t.Run("put beyond tailroom reallocates", func(t *testing.T) {
		p, err := MakePacket(0, 16, 4, DefaultAnnotationSize)
		require.NoError(t, err)

		grown, err := p.Put(10)
		require.NoError(t, err)
		require.NotSame(t, p, grown)
		assert.Equal(t, 26, grown.Length())
	})

	t.Run("take returns tailroom", func(t *testing.T) {
		p, err := MakePacket(0, 16, 0, DefaultAnnotationSize)
		require.NoError(t, err)

		shrunk, err := p.Take(4)
		require.NoError(t, err)
		assert.Equal(t, 12, shrunk.Length())
	})
}

func TestPacketAnnotations(t *testing.T) {
	p, err := MakePacket(0, 16, 0, DefaultAnnotationSize)
	require.NoError(t, err)

	p.SetAnnotationUint32(0, 0xdeadbeef)
	assert.Equal(t, uint32(0xdeadbeef), p.AnnotationUint32(0))

	clone := p.Clone()
	clone.SetAnnotationUint32(0, 0)
	assert.Equal(t, uint32(0xdeadbeef), p.AnnotationUint32(0), "annotations are copied, not shared, on clone")
}
