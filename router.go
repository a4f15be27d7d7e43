// SPDX-License-Identifier: GPL-3.0-or-later

package click

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// RouterState is the router's position in its lifecycle, see spec.md §2
// ("configure -> initialize -> running -> cleanup -> destroyed").
type RouterState int

const (
	RouterConfiguring RouterState = iota
	RouterInitializing
	RouterRunning
	RouterCleaningUp
	RouterDestroyed
)

// Router holds the linked element graph, the authoritative handler
// table, and the per-thread schedulers that drive it (spec.md §4.4).
type Router struct {
	RunID string

	Elements    []*ElementInstance
	Connections []*Connection

	handlers *handlerTable
	byName   map[string]*ElementInstance
	threads  []*SchedulerThread

	cfg        *Config
	generation uint64
	state      RouterState

	stopRequests chan string
}

func newRouter(cfg *Config) *Router {
	r := &Router{
		RunID:        NewRunID(),
		handlers:     newHandlerTable(),
		byName:       map[string]*ElementInstance{},
		cfg:          cfg,
		stopRequests: make(chan string, 16),
	}
	for i := 0; i < cfg.Threads; i++ {
		r.threads = append(r.threads, NewSchedulerThread(i, cfg.TimeNow))
	}
	return r
}

// ElementByName returns the element with the given hierarchical name.
func (r *Router) ElementByName(name string) (*ElementInstance, bool) {
	e, ok := r.byName[name]
	return e, ok
}

// Threads returns the router's scheduler threads.
func (r *Router) Threads() []*SchedulerThread { return r.threads }

// ThreadFor returns the thread an element's task should run on, a
// simple round-robin placement; see spec.md §5 ("Elements are pinned to
// a thread by ScheduleInfo/StaticThreadSched") for the richer policy a
// production scheduler would implement instead.
func (r *Router) ThreadFor(eindex int) *SchedulerThread {
	if len(r.threads) == 0 {
		return nil
	}
	return r.threads[eindex%len(r.threads)]
}

// State returns the router's current lifecycle state.
func (r *Router) State() RouterState { return r.state }

// Handler resolves a handler by owning element index and name.
func (r *Router) Handler(eindex int, name string) *Handler {
	return r.handlers.Lookup(eindex, name)
}

// ReadHandler invokes the named handler's read callback.
func (r *Router) ReadHandler(ctx context.Context, eindex int, name string) (string, error) {
	h := r.Handler(eindex, name)
	if h == nil {
		return "", fmt.Errorf("no such handler: %d/%s", eindex, name)
	}
	if !h.CanRead() {
		return "", fmt.Errorf("handler %s is not readable", name)
	}
	return h.Read(ctx)
}

// WriteHandler invokes the named handler's write callback (spec.md §4.4,
// "a write handler may mutate state").
func (r *Router) WriteHandler(ctx context.Context, eindex int, name, value string) error {
	h := r.Handler(eindex, name)
	if h == nil {
		return fmt.Errorf("no such handler: %d/%s", eindex, name)
	}
	if !h.CanWrite() {
		return fmt.Errorf("handler %s is not writable", name)
	}
	return h.Write(ctx, value)
}

// Handlers returns every registered handler in registration order, for
// callers that walk the whole table rather than looking up one name —
// e.g. an attachment exporting every element's counters on a timer
// (spec.md §3, "Router... attachments").
func (r *Router) Handlers() []*Handler {
	return r.handlers.handlers
}

// reaches reports whether elem's input port inIdx can reach output port
// outIdx, consulting [FlowCoder] if elem implements it and otherwise
// assuming a full crossbar (spec.md §4.2, "flow_code()").
func reaches(elem *ElementInstance, inIdx, outIdx int) bool {
	if fc, ok := elem.Impl.(FlowCoder); ok {
		return fc.FlowCode(inIdx, outIdx)
	}
	return true
}

// VisitUpstream performs a BFS from (start, inputPort) against the flow
// of packets, constrained by each visited element's flow_code, and
// returns every element matching pred. Matched elements are not
// expanded further, so VisitUpstream finds the *nearest* match on every
// path (spec.md §4.4, "how pull elements find the queue they should
// sleep on").
func (r *Router) VisitUpstream(start *ElementInstance, inputPort int, pred func(*ElementInstance) bool) []*ElementInstance {
	type frontier struct {
		elem *ElementInstance
		port int
	}
	visited := map[*ElementInstance]bool{start: true}
	var found []*ElementInstance
	queue := []frontier{{start, inputPort}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.port < 0 || cur.port >= cur.elem.NumInputs() {
			continue
		}
		for _, conn := range cur.elem.InputConnections(cur.port) {
			up := conn.From.Element
			if pred(up) {
				found = append(found, up)
				continue
			}
			if visited[up] {
				continue
			}
			visited[up] = true
			for i := 0; i < up.NumInputs(); i++ {
				if reaches(up, i, conn.From.Index) {
					queue = append(queue, frontier{up, i})
				}
			}
		}
	}
	return found
}

// VisitDownstream is [Router.VisitUpstream]'s mirror image, walking from
// (start, outputPort) forward through the graph.
func (r *Router) VisitDownstream(start *ElementInstance, outputPort int, pred func(*ElementInstance) bool) []*ElementInstance {
	type frontier struct {
		elem *ElementInstance
		port int
	}
	visited := map[*ElementInstance]bool{start: true}
	var found []*ElementInstance
	queue := []frontier{{start, outputPort}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.port < 0 || cur.port >= cur.elem.NumOutputs() {
			continue
		}
		for _, conn := range cur.elem.OutputConnections(cur.port) {
			down := conn.To.Element
			if pred(down) {
				found = append(found, down)
				continue
			}
			if visited[down] {
				continue
			}
			visited[down] = true
			for o := 0; o < down.NumOutputs(); o++ {
				if reaches(down, conn.To.Index, o) {
					queue = append(queue, frontier{down, o})
				}
			}
		}
	}
	return found
}

// Run starts every scheduler thread and blocks until ctx is cancelled or
// one thread returns an error, via [errgroup.Group] (spec.md §5,
// "multi-threaded: N router threads, each owning a partition of
// tasks").
func (r *Router) Run(ctx context.Context) error {
	r.state = RouterRunning
	group, gctx := errgroup.WithContext(ctx)
	for _, thread := range r.threads {
		thread := thread
		group.Go(func() error { return thread.Run(gctx) })
	}
	return group.Wait()
}

// RequestStop records a stop request; the default driver behavior is to
// exit on the first one, unless a [*DriverManager] is consuming the
// channel against a script (spec.md §6, "Exit codes / driver stop").
func (r *Router) RequestStop(reason string) {
	select {
	case r.stopRequests <- reason:
	default:
	}
}

// StopRequests exposes the stop-request channel for a [*DriverManager]
// or the default driver loop to consume.
func (r *Router) StopRequests() <-chan string { return r.stopRequests }

// Cleanup calls Cleanup(stage) on every element in reverse index order,
// the teardown order spec.md §4.3 step 7 requires after an initialize
// failure, and that spec.md §2 requires on normal shutdown too.
func (r *Router) Cleanup(stage CleanupStage) {
	r.state = RouterCleaningUp
	for i := len(r.Elements) - 1; i >= 0; i-- {
		r.Elements[i].Impl.Cleanup(stage)
	}
	r.state = RouterDestroyed
}
