// SPDX-License-Identifier: GPL-3.0-or-later

package click

import "context"

// CleanupStage distinguishes why [Element.Cleanup] is being called, see
// spec.md §4.2.
type CleanupStage int

const (
	// CleanupNormal marks an orderly router teardown.
	CleanupNormal CleanupStage = iota
	// CleanupConfigFailed marks a teardown triggered by a configure-phase
	// error elsewhere in the router.
	CleanupConfigFailed
	// CleanupInitFailed marks a teardown triggered by an initialize-phase
	// error elsewhere in the router.
	CleanupInitFailed
)

// Element is the capability set every vertex in the dataflow graph
// implements, see spec.md §4.2.
//
// Compound elements (config-language subgraphs reused as a single
// element) never implement this interface directly: the linker desugars
// them into a flat list of elements with hierarchical names before any
// Element method is called (spec.md §4.3, §9 "Element subclassing").
type Element interface {
	// ClassName returns the element's class identity, used by the
	// linker to resolve `name :: Class(args)` declarations.
	ClassName() string

	// PortCount describes the allowed (n_in, n_out) pairs for this
	// element. The linker validates the declared connections against
	// it before any Configure runs (spec.md §4.2, §4.3 step 5).
	PortCount() PortCountSpec

	// Processing returns the processing kind the element itself
	// declares for one of its ports, before agnostic resolution.
	Processing(dir Direction, index int) ProcessingKind

	// Configure parses positional/keyword arguments. It may be called
	// again during live reconfigure; implementations should be
	// idempotent when possible (spec.md §4.2, §4.3 step 6).
	Configure(ctx context.Context, args []string, errh *ErrorHandler) error

	// Initialize allocates tasks, opens devices, and starts timers.
	// It runs only after every element's Configure has succeeded
	// (spec.md §4.3 step 7).
	Initialize(ctx context.Context, errh *ErrorHandler) error

	// Cleanup releases resources. stage distinguishes a normal
	// teardown from one triggered by a configure/initialize failure
	// elsewhere in the router.
	Cleanup(stage CleanupStage)
}

// Pusher is implemented by elements with one or more push inputs.
type Pusher interface {
	Push(ctx context.Context, port int, p *Packet) error
}

// Puller is implemented by elements with one or more pull outputs.
type Puller interface {
	Pull(ctx context.Context, port int) (*Packet, error)
}

// SimpleActioner is a shorthand for elements that transform one packet
// into at most one packet and work under either discipline, see spec.md
// §4.2. The scheduler-facing push/pull glue (in package elements) calls
// SimpleAction and forwards the result; returning a nil packet with a
// nil error drops the input silently.
type SimpleActioner interface {
	SimpleAction(ctx context.Context, p *Packet) (*Packet, error)
}

// FlowCoder is implemented by elements whose inputs do not all reach all
// outputs, narrowing the BFS performed by [Router.VisitUpstream] and
// [Router.VisitDownstream] (spec.md §4.2 "flow_code()").
type FlowCoder interface {
	FlowCode(inIndex, outIndex int) bool
}

// LiveReconfigurable is implemented by elements that can be reconfigured
// in place when the element graph shape is otherwise unchanged (spec.md
// §4.3 "Live reconfigure").
type LiveReconfigurable interface {
	CanLiveReconfigure() bool
}

// HandlerProvider is implemented by elements that expose named
// introspection/control handlers (spec.md §4.4 "Handler").
type HandlerProvider interface {
	Handlers() []HandlerSpec
}

// Tasked is implemented by elements that register a [*Task] with the
// scheduler, typically because they have no upstream push source or no
// downstream pull sink (spec.md §2 "Data flow").
type Tasked interface {
	Task() *Task
}

// EmptyNotifierProvider is implemented by queue-like elements exposing
// an empty [*NotifierSignal] that downstream pull tasks can sleep on,
// the "universal empty notifier convention" of spec.md §4.5.4.
type EmptyNotifierProvider interface {
	EmptyNotifierSignal() *NotifierSignal
}

// LLRPCHandler is implemented by elements that respond to numbered
// low-level RPCs, see spec.md §6 ("Driver LLRPC").
type LLRPCHandler interface {
	LLRPC(cmd uint32, data []byte) ([]byte, error)
}

// SelfBinder is implemented by elements whose task or handler closures
// need to address their own resolved ports, or walk the graph around
// them (e.g. a pull-to-push bridge locating its upstream queue via
// [Router.VisitUpstream]), neither of which Configure/Initialize's
// arguments expose (spec.md §2, "Data flow"; §4.5.4, "how pull elements
// find the queue they should sleep on"). The linker calls BindSelf once
// per element, after linking and before Initialize, so Initialize can
// rely on the binding already being in place.
type SelfBinder interface {
	BindSelf(r *Router, e *ElementInstance)
}

// ElementFactory constructs a fresh [Element] instance for a class name,
// used by the linker to resolve `name :: Class(args)` declarations
// (spec.md §4.3 step 1).
type ElementFactory func() Element

// portState is the linker's resolved view of one port: its discipline
// after agnostic propagation, and the connections touching it.
type portState struct {
	kind  ProcessingKind
	conns []*Connection
}

// ElementInstance is one vertex materialized by the linker: an [Element]
// implementation bound to a stable index, a hierarchical name, and its
// resolved ports (spec.md §3 "Element").
type ElementInstance struct {
	Eindex int
	Name   string
	Class  string
	Config []string
	Impl   Element

	inputs  []portState
	outputs []portState

	handlers []*Handler

	task   *Task
	timers []*Timer

	phase int // configure-phase ordering, spec.md §4.3 step 6
}

// NumInputs returns the element's current resolved input port count.
func (e *ElementInstance) NumInputs() int { return len(e.inputs) }

// NumOutputs returns the element's current resolved output port count.
func (e *ElementInstance) NumOutputs() int { return len(e.outputs) }

// InputKind returns the resolved discipline of input port i.
func (e *ElementInstance) InputKind(i int) ProcessingKind { return e.inputs[i].kind }

// OutputKind returns the resolved discipline of output port i.
func (e *ElementInstance) OutputKind(i int) ProcessingKind { return e.outputs[i].kind }

// InputConnections returns the connections feeding input port i.
func (e *ElementInstance) InputConnections(i int) []*Connection {
	return e.inputs[i].conns
}

// OutputConnections returns the connections fed by output port i.
func (e *ElementInstance) OutputConnections(i int) []*Connection {
	return e.outputs[i].conns
}

// Task returns the element's registered task, or nil if it has none.
func (e *ElementInstance) Task() *Task { return e.task }
