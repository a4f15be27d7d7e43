// SPDX-License-Identifier: GPL-3.0-or-later

package click

import "fmt"

// LLRPC command numbers, see spec.md §6 ("A small set of numbered
// ioctls let external tools read/write handlers without going through
// the handler filesystem").
const (
	LLRPCGetSwitch uint32 = iota + 1
	LLRPCSetSwitch
	LLRPCGetCount
)

// LLRPCError is returned by [Router.LLRPC] for an invalid command or
// argument, category 7 of spec.md §7 ("Returns an error code; never
// crashes the router").
type LLRPCError struct {
	Cmd     uint32
	Message string
}

func (e *LLRPCError) Error() string {
	return fmt.Sprintf("llrpc %d: %s", e.Cmd, e.Message)
}

// LLRPC dispatches a numbered low-level RPC to the named element's
// [LLRPCHandler], if it implements one. This is the fast path external
// tools use instead of the handler filesystem (spec.md §6).
func (r *Router) LLRPC(eindex int, cmd uint32, data []byte) ([]byte, error) {
	if eindex < 0 || eindex >= len(r.Elements) {
		return nil, &LLRPCError{Cmd: cmd, Message: "no such element"}
	}
	h, ok := r.Elements[eindex].Impl.(LLRPCHandler)
	if !ok {
		return nil, &LLRPCError{Cmd: cmd, Message: "element does not support LLRPC"}
	}
	out, err := h.LLRPC(cmd, data)
	if err != nil {
		return nil, &LLRPCError{Cmd: cmd, Message: err.Error()}
	}
	return out, nil
}
