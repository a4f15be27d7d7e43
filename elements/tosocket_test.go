// SPDX-License-Identifier: GPL-3.0-or-later

package elements

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"testing"

	"github.com/bassosimone/netstub"
	"github.com/clickrouter/click"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSocketInitializeFailsWithoutConn(t *testing.T) {
	e := NewToSocket(nil, click.NewDiscardLogger(), click.DefaultErrClassifier)
	errh := click.NewErrorHandler()
	err := e.Initialize(context.Background(), errh)
	require.Error(t, err)
	assert.False(t, errh.OK())
}

// Initialize dials Network/Endpoint through DialConfig when Conn is nil.
func TestToSocketInitializeDialsWhenConnNotSet(t *testing.T) {
	conn := newMinimalConn()
	conn.CloseFunc = func() error { return nil }

	e := NewToSocketDial("tcp", netip.MustParseAddrPort("93.184.216.34:443"),
		click.NewDiscardLogger(), click.DefaultErrClassifier)
	e.DialConfig.Dialer = &netstub.FuncDialer{
		DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
			return conn, nil
		},
	}

	errh := click.NewErrorHandler()
	require.NoError(t, e.Initialize(context.Background(), errh))
	require.NotNil(t, e.Conn)
}

// Initialize surfaces a dial failure instead of silently leaving Conn nil.
func TestToSocketInitializeReportsDialError(t *testing.T) {
	e := NewToSocketDial("tcp", netip.MustParseAddrPort("93.184.216.34:443"),
		click.NewDiscardLogger(), click.DefaultErrClassifier)
	e.DialConfig.Dialer = &netstub.FuncDialer{
		DialContextFunc: func(ctx context.Context, network, address string) (net.Conn, error) {
			return nil, errors.New("connection refused")
		},
	}

	errh := click.NewErrorHandler()
	err := e.Initialize(context.Background(), errh)
	require.Error(t, err)
	assert.False(t, errh.OK())
}

func TestToSocketPushWritesAndCounts(t *testing.T) {
	conn := newMinimalConn()
	var written []byte
	conn.WriteFunc = func(b []byte) (int, error) {
		written = append([]byte(nil), b...)
		return len(b), nil
	}
	sink := NewToSocket(conn, click.NewDiscardLogger(), click.DefaultErrClassifier)
	require.NoError(t, sink.Initialize(context.Background(), click.NewErrorHandler()))

	p, err := click.MakePacket(0, 4, 0, 0)
	require.NoError(t, err)
	copy(p.Data(), "ping")

	require.NoError(t, sink.Push(context.Background(), 0, p))
	assert.Equal(t, "ping", string(written))
	assert.Equal(t, uint64(1), sink.written.Load())
}

func TestToSocketPushCountsDropOnWriteError(t *testing.T) {
	conn := newMinimalConn()
	conn.WriteFunc = func(b []byte) (int, error) {
		return 0, errors.New("broken pipe")
	}
	sink := NewToSocket(conn, click.NewDiscardLogger(), click.DefaultErrClassifier)
	require.NoError(t, sink.Initialize(context.Background(), click.NewErrorHandler()))

	p, err := click.MakePacket(0, 4, 0, 0)
	require.NoError(t, err)

	require.NoError(t, sink.Push(context.Background(), 0, p))
	assert.Equal(t, uint64(1), sink.drops.Load())
	assert.Equal(t, uint64(0), sink.written.Load())
}
