// SPDX-License-Identifier: GPL-3.0-or-later

package click

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type llrpcStub struct {
	nullElement
	switchVal bool
}

func (e *llrpcStub) LLRPC(cmd uint32, data []byte) ([]byte, error) {
	switch cmd {
	case LLRPCGetSwitch:
		if e.switchVal {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case LLRPCSetSwitch:
		if len(data) != 1 {
			return nil, &LLRPCError{Cmd: cmd, Message: "expected 1 byte"}
		}
		e.switchVal = data[0] != 0
		return nil, nil
	default:
		return nil, &LLRPCError{Cmd: cmd, Message: "unknown command"}
	}
}

func TestRouterLLRPCRoundTrip(t *testing.T) {
	impl := &llrpcStub{}
	r := &Router{Elements: []*ElementInstance{{Eindex: 0, Impl: impl}}}

	_, err := r.LLRPC(0, LLRPCSetSwitch, []byte{1})
	require.NoError(t, err)

	out, err := r.LLRPC(0, LLRPCGetSwitch, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, out)
}

func TestRouterLLRPCUnsupportedElement(t *testing.T) {
	r := &Router{Elements: []*ElementInstance{{Eindex: 0, Impl: &nullElement{}}}}
	_, err := r.LLRPC(0, LLRPCGetSwitch, nil)
	require.Error(t, err)
}

func TestRouterLLRPCOutOfRange(t *testing.T) {
	r := &Router{}
	_, err := r.LLRPC(5, LLRPCGetSwitch, nil)
	require.Error(t, err)
}
