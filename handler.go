// SPDX-License-Identifier: GPL-3.0-or-later

package click

import (
	"context"
	"fmt"
	"strings"
)

// HandlerFlag describes a handler's calling convention, see spec.md §4.4
// and §6 ("Handler filesystem").
type HandlerFlag int

const (
	HandlerRead HandlerFlag = 1 << iota
	HandlerWrite
	// HandlerCheckbox marks a boolean read/write pair rendered as 0/1.
	HandlerCheckbox
	// HandlerButton marks a write-only handler ignoring its value.
	HandlerButton
	// HandlerCalm marks a read handler whose value rarely changes,
	// letting callers cache more aggressively.
	HandlerCalm
	// HandlerRaw marks a handler whose value is binary, not text.
	HandlerRaw
)

// GlobalEindex is the element index used for router-wide handlers such
// as "config", "flatconfig", "list", and "stop" (spec.md §6,
// "/.h/<handler> — global handlers").
const GlobalEindex = -1

// HandlerSpec is what an [Element] returns from [HandlerProvider] to
// register a named handler (spec.md §4.4).
type HandlerSpec struct {
	Name  string
	Flags HandlerFlag
	Read  func(ctx context.Context) (string, error)
	Write func(ctx context.Context, value string) error
}

// Handler is the router-owned, bound form of a [HandlerSpec]: it knows
// which element (if any) it belongs to and has a stable index into the
// router's flat handler table (spec.md §4.4, "identified by
// (eindex, hindex)").
type Handler struct {
	Hindex int
	Eindex int
	Name   string
	Flags  HandlerFlag
	Read   func(ctx context.Context) (string, error)
	Write  func(ctx context.Context, value string) error
}

// CanRead reports whether the handler supports reads.
func (h *Handler) CanRead() bool { return h.Flags&HandlerRead != 0 && h.Read != nil }

// CanWrite reports whether the handler supports writes.
func (h *Handler) CanWrite() bool { return h.Flags&HandlerWrite != 0 && h.Write != nil }

// handlerKey identifies a handler by owning element and name, the
// lookup spec.md §4.4 describes as "by (eindex, name)".
type handlerKey struct {
	Eindex int
	Name   string
}

// handlerTable is the router's flat handler registry: a name, once
// resolved to an index, can be cached by the caller (spec.md §4.4,
// "returns an index into the flat table so callers can cache").
type handlerTable struct {
	handlers []*Handler
	byKey    map[handlerKey]int
}

func newHandlerTable() *handlerTable {
	return &handlerTable{byKey: map[handlerKey]int{}}
}

// register adds h, assigning it the next handler index.
func (t *handlerTable) register(h *Handler) *Handler {
	h.Hindex = len(t.handlers)
	t.handlers = append(t.handlers, h)
	t.byKey[handlerKey{Eindex: h.Eindex, Name: h.Name}] = h.Hindex
	return h
}

// Lookup resolves (eindex, name) to a handler, or nil.
func (t *handlerTable) Lookup(eindex int, name string) *Handler {
	idx, ok := t.byKey[handlerKey{Eindex: eindex, Name: name}]
	if !ok {
		return nil
	}
	return t.handlers[idx]
}

// ByIndex returns the handler at hindex, or nil if out of range.
func (t *handlerTable) ByIndex(hindex int) *Handler {
	if hindex < 0 || hindex >= len(t.handlers) {
		return nil
	}
	return t.handlers[hindex]
}

// reconfigurePositionalHandler returns a write handler that replaces
// positional argument index in elem's configuration and re-invokes
// Configure, the core-supplied handler spec.md §4.4 names
// ("reconfigure_positional_handler").
func reconfigurePositionalHandler(ctx context.Context, elem *ElementInstance, index int, errh *ErrorHandler) func(context.Context, string) error {
	return func(ctx context.Context, value string) error {
		args := append([]string(nil), elem.Config...)
		for len(args) <= index {
			args = append(args, "")
		}
		args[index] = value
		if err := elem.Impl.Configure(ctx, args, errh); err != nil {
			return err
		}
		elem.Config = args
		return nil
	}
}

// reconfigureKeywordHandler returns a write handler that replaces a
// `KEYWORD value` pair (appending it if absent) and re-invokes Configure
// (spec.md §4.4, "reconfigure_keyword_handler").
func reconfigureKeywordHandler(elem *ElementInstance, keyword string, errh *ErrorHandler) func(context.Context, string) error {
	return func(ctx context.Context, value string) error {
		args := append([]string(nil), elem.Config...)
		found := false
		for i := 0; i+1 < len(args); i++ {
			if strings.EqualFold(args[i], keyword) {
				args[i+1] = value
				found = true
				break
			}
		}
		if !found {
			args = append(args, keyword, value)
		}
		if err := elem.Impl.Configure(ctx, args, errh); err != nil {
			return err
		}
		elem.Config = args
		return nil
	}
}

// FormatPositionalRead renders a reconfigure_positional_handler's paired
// read handler: the current value of the positional argument at index.
func FormatPositionalRead(elem *ElementInstance, index int) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		if index < 0 || index >= len(elem.Config) {
			return "", fmt.Errorf("positional argument %d not set", index)
		}
		return elem.Config[index], nil
	}
}
