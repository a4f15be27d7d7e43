// SPDX-License-Identifier: GPL-3.0-or-later

package elements

import (
	"context"
	"testing"

	"github.com/clickrouter/click"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoiseEncapThenDecapRoundTrips(t *testing.T) {
	var key [32]byte
	for i := range key {
		key[i] = byte(i)
	}

	encap := NewNoiseEncap(key)
	decap := NewNoiseDecap(key)

	p, err := click.MakePacket(0, 5, 0, 0)
	require.NoError(t, err)
	copy(p.Data(), "hello")

	sealed, err := encap.SimpleAction(context.Background(), p)
	require.NoError(t, err)
	require.NotNil(t, sealed)
	assert.NotEqual(t, "hello", string(sealed.Data()))

	opened, err := decap.SimpleAction(context.Background(), sealed)
	require.NoError(t, err)
	require.NotNil(t, opened)
	assert.Equal(t, "hello", string(opened.Data()))
}

func TestNoiseDecapDropsOnAuthFailure(t *testing.T) {
	var key [32]byte
	decap := NewNoiseDecap(key)

	p, err := click.MakePacket(0, 8, 0, 0)
	require.NoError(t, err)

	out, err := decap.SimpleAction(context.Background(), p)
	require.NoError(t, err)
	assert.Nil(t, out)
}
