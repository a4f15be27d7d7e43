// SPDX-License-Identifier: GPL-3.0-or-later

package elements

import (
	"context"
	"testing"

	"github.com/clickrouter/click"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueuePushThenPull(t *testing.T) {
	q := NewQueue(4)
	p, err := click.MakePacket(0, 8, 0, 0)
	require.NoError(t, err)

	require.NoError(t, q.Push(context.Background(), 0, p))
	assert.Equal(t, 1, q.Length())

	out, err := q.Pull(context.Background(), 0)
	require.NoError(t, err)
	assert.Same(t, p, out)
	assert.Equal(t, 0, q.Length())
}

func TestQueuePullOnEmptyReturnsNil(t *testing.T) {
	q := NewQueue(4)
	out, err := q.Pull(context.Background(), 0)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestQueueDropsAtCapacity(t *testing.T) {
	q := NewQueue(1)
	p1, err := click.MakePacket(0, 8, 0, 0)
	require.NoError(t, err)
	p2, err := click.MakePacket(0, 8, 0, 0)
	require.NoError(t, err)

	require.NoError(t, q.Push(context.Background(), 0, p1))
	require.NoError(t, q.Push(context.Background(), 0, p2))

	assert.Equal(t, 1, q.Length())
	assert.Equal(t, uint64(1), q.Drops())
}

func TestQueueEmptyNotifierTransitionsOnPush(t *testing.T) {
	q := NewQueue(4)
	sig := q.EmptyNotifierSignal()
	assert.False(t, sig.Active())

	p, err := click.MakePacket(0, 8, 0, 0)
	require.NoError(t, err)
	require.NoError(t, q.Push(context.Background(), 0, p))

	assert.True(t, sig.Active())
}

func TestQueueConfigureAcceptsPositionalCapacity(t *testing.T) {
	q := NewQueue(4)
	require.NoError(t, q.Configure(context.Background(), []string{"8"}, click.NewErrorHandler()))
	assert.Equal(t, 8, q.Capacity)
}

func TestQueueConfigureAcceptsCapacityKeyword(t *testing.T) {
	q := NewQueue(4)
	require.NoError(t, q.Configure(context.Background(), []string{"CAPACITY", "32"}, click.NewErrorHandler()))
	assert.Equal(t, 32, q.Capacity)
}

func TestQueueHandlersReadLengthCapacityDrops(t *testing.T) {
	q := NewQueue(2)
	p, err := click.MakePacket(0, 8, 0, 0)
	require.NoError(t, err)
	require.NoError(t, q.Push(context.Background(), 0, p))

	handlers := q.Handlers()
	byName := map[string]click.HandlerSpec{}
	for _, h := range handlers {
		byName[h.Name] = h
	}

	length, err := byName["length"].Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", length)

	capacity, err := byName["capacity"].Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2", capacity)

	require.NoError(t, byName["capacity"].Write(context.Background(), "9"))
	assert.Equal(t, 9, q.Capacity)
}

func TestQueueResolvesPushInputPullOutput(t *testing.T) {
	registry := testElementsRegistry()
	src := `a :: GenStub; q :: Queue(16); u :: Unqueue2; b :: SinkStub;
a -> q;
q -> u;
u -> b;`
	r, err := click.Link(context.Background(), click.NewConfig(), registry, "test", src)
	require.NoError(t, err)

	qElem, ok := r.ElementByName("q")
	require.True(t, ok)
	assert.Equal(t, click.Push, qElem.InputKind(0))
	assert.Equal(t, click.Pull, qElem.OutputKind(0))
}
