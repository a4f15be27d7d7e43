// SPDX-License-Identifier: GPL-3.0-or-later

package click

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DriverInstructionKind names one step of a [DriverManager] script, see
// spec.md §6 ("a DriverManager element, if present, executes a scripted
// sequence of instructions (wait, wait_stop, wait_time, read, write,
// save, append, loop, stop) against stop events").
type DriverInstructionKind int

const (
	DriverWait DriverInstructionKind = iota
	DriverWaitStop
	DriverWaitTime
	DriverRead
	DriverWrite
	DriverSave
	DriverAppend
	DriverLoop
	DriverStop
)

// DriverInstruction is one parsed step of a driver script.
type DriverInstruction struct {
	Kind DriverInstructionKind
	// Handler/Element name the instruction targets, for read/write/save/append.
	Target string
	// Value is the write/append payload, or the save variable name.
	Value string
	// Reason is matched against stop-request reasons for wait_stop, empty
	// meaning "any reason".
	Reason string
	// Duration is the sleep for wait_time.
	Duration time.Duration
	// LoopTo is the zero-based instruction index "loop" jumps back to.
	LoopTo int
}

// DriverManager is a handler-addressable, scripted driver: it reads stop
// requests off a [Router]'s [Router.StopRequests] channel and executes a
// fixed instruction sequence, letting a configuration decide whether the
// first stop request should actually halt the router or merely advance a
// multi-stage test script (spec.md §6). It is itself zero-input,
// zero-output [Element], so it plugs into a configuration like any other
// element and exposes its progress through a handler.
type DriverManager struct {
	router *Router
	script []DriverInstruction
	saved  map[string]string
	now    func() time.Time
	pc     int
}

func (dm *DriverManager) ClassName() string                        { return "DriverManager" }
func (dm *DriverManager) PortCount() PortCountSpec                  { return Fixed(0, 0) }
func (dm *DriverManager) Processing(Direction, int) ProcessingKind  { return Agnostic }
func (dm *DriverManager) Configure(context.Context, []string, *ErrorHandler) error { return nil }
func (dm *DriverManager) Initialize(context.Context, *ErrorHandler) error          { return nil }
func (dm *DriverManager) Cleanup(CleanupStage)                                     {}

// Handlers exposes the script's current instruction pointer for
// introspection, the handler-filesystem surface spec.md §6 expects every
// addressable component to offer.
func (dm *DriverManager) Handlers() []HandlerSpec {
	return []HandlerSpec{{
		Name:  "step",
		Flags: HandlerRead,
		Read: func(context.Context) (string, error) {
			return strconv.Itoa(dm.pc), nil
		},
	}}
}

// NewDriverManager parses script text (one instruction per line, blank
// lines and "#" comments ignored) into a [*DriverManager] bound to router.
func NewDriverManager(router *Router, scriptText string) (*DriverManager, error) {
	dm := &DriverManager{router: router, saved: map[string]string{}, now: time.Now}
	instrs, err := parseDriverScript(scriptText)
	if err != nil {
		return nil, err
	}
	dm.script = instrs
	return dm, nil
}

func parseDriverScript(text string) ([]DriverInstruction, error) {
	var out []DriverInstruction
	for lineNo, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		instr, err := parseDriverInstruction(fields)
		if err != nil {
			return nil, fmt.Errorf("drivermanager script line %d: %w", lineNo+1, err)
		}
		out = append(out, instr)
	}
	return out, nil
}

func parseDriverInstruction(fields []string) (DriverInstruction, error) {
	if len(fields) == 0 {
		return DriverInstruction{}, fmt.Errorf("empty instruction")
	}
	switch fields[0] {
	case "wait":
		return DriverInstruction{Kind: DriverWait}, nil
	case "wait_stop":
		reason := ""
		if len(fields) > 1 {
			reason = fields[1]
		}
		return DriverInstruction{Kind: DriverWaitStop, Reason: reason}, nil
	case "wait_time":
		if len(fields) != 2 {
			return DriverInstruction{}, fmt.Errorf("wait_time requires a duration")
		}
		d, err := time.ParseDuration(fields[1])
		if err != nil {
			return DriverInstruction{}, fmt.Errorf("wait_time: %w", err)
		}
		return DriverInstruction{Kind: DriverWaitTime, Duration: d}, nil
	case "read":
		if len(fields) != 2 {
			return DriverInstruction{}, fmt.Errorf("read requires a handler name")
		}
		return DriverInstruction{Kind: DriverRead, Target: fields[1]}, nil
	case "write":
		if len(fields) < 2 {
			return DriverInstruction{}, fmt.Errorf("write requires a handler name")
		}
		return DriverInstruction{Kind: DriverWrite, Target: fields[1], Value: strings.Join(fields[2:], " ")}, nil
	case "save":
		if len(fields) != 3 {
			return DriverInstruction{}, fmt.Errorf("save requires a handler name and a variable")
		}
		return DriverInstruction{Kind: DriverSave, Target: fields[1], Value: fields[2]}, nil
	case "append":
		if len(fields) != 3 {
			return DriverInstruction{}, fmt.Errorf("append requires a handler name and a variable")
		}
		return DriverInstruction{Kind: DriverAppend, Target: fields[1], Value: fields[2]}, nil
	case "loop":
		if len(fields) != 2 {
			return DriverInstruction{}, fmt.Errorf("loop requires a target instruction index")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return DriverInstruction{}, fmt.Errorf("loop: %w", err)
		}
		return DriverInstruction{Kind: DriverLoop, LoopTo: n}, nil
	case "stop":
		return DriverInstruction{Kind: DriverStop}, nil
	default:
		return DriverInstruction{}, fmt.Errorf("unknown instruction %q", fields[0])
	}
}

// Run executes the script against router's stop-request stream until a
// "stop" instruction runs, ctx is cancelled, or the script falls off its
// end (which also stops the driver, matching the no-script default
// behavior spec.md §6 describes).
func (dm *DriverManager) Run(ctx context.Context) error {
	dm.pc = 0
	for dm.pc < len(dm.script) {
		if err := ctx.Err(); err != nil {
			return err
		}
		instr := dm.script[dm.pc]
		switch instr.Kind {
		case DriverWait, DriverWaitStop:
			reason, err := dm.waitForStop(ctx, instr.Reason)
			if err != nil {
				return err
			}
			_ = reason
		case DriverWaitTime:
			t := time.NewTimer(instr.Duration)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		case DriverRead:
			if _, err := dm.router.ReadHandler(ctx, GlobalEindex, instr.Target); err != nil {
				return fmt.Errorf("drivermanager read %s: %w", instr.Target, err)
			}
		case DriverWrite:
			if err := dm.router.WriteHandler(ctx, GlobalEindex, instr.Target, instr.Value); err != nil {
				return fmt.Errorf("drivermanager write %s: %w", instr.Target, err)
			}
		case DriverSave:
			v, err := dm.router.ReadHandler(ctx, GlobalEindex, instr.Target)
			if err != nil {
				return fmt.Errorf("drivermanager save %s: %w", instr.Target, err)
			}
			dm.saved[instr.Value] = v
		case DriverAppend:
			v, err := dm.router.ReadHandler(ctx, GlobalEindex, instr.Target)
			if err != nil {
				return fmt.Errorf("drivermanager append %s: %w", instr.Target, err)
			}
			dm.saved[instr.Value] += v
		case DriverLoop:
			dm.pc = instr.LoopTo
			continue
		case DriverStop:
			return nil
		}
		dm.pc++
	}
	return nil
}

// waitForStop blocks until a stop request matching reason (empty matches
// any) arrives, discarding non-matching requests.
func (dm *DriverManager) waitForStop(ctx context.Context, reason string) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case got := <-dm.router.StopRequests():
			if reason == "" || got == reason {
				return got, nil
			}
		}
	}
}

// Saved returns the value a "save" or "append" instruction stored under
// name, for test and handler inspection.
func (dm *DriverManager) Saved(name string) (string, bool) {
	v, ok := dm.saved[name]
	return v, ok
}
