// SPDX-License-Identifier: GPL-3.0-or-later

package click

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// PhaseOrderer lets an element request to be configured before others
// that don't implement it, see spec.md §4.3 step 6 ("elements with
// earlier phase run first — used for info elements such as AddressInfo
// and ScheduleInfo to populate shared tables before consumers").
type PhaseOrderer interface {
	ConfigurePhase() int
}

// compoundProxy records, for one compound-element instance, which real
// element stands in for its pseudo "input" port and which for its
// pseudo "output" port, see the expansion notes on [flattenConfig].
type compoundProxy struct {
	HasInput   bool
	InputElem  string
	InputPort  int
	HasOutput  bool
	OutputElem string
	OutputPort int
}

// flattenConfig expands every `elementclass` reference in cfg into a
// flat declaration and connection list with hierarchical names
// (spec.md §4.3 step 2). Compound-element "input"/"output" pseudo-ports
// are resolved to a single boundary element and port (port 0 unless
// given explicitly): a compound element with more than one real
// consumer of "input" or producer of "output" keeps only the first one
// encountered. This is a deliberate simplification of Click's full
// pass-through port aliasing; see DESIGN.md.
func flattenConfig(cfg *astConfig) (*astConfig, map[string]compoundProxy, error) {
	autoDeclareBareNames(cfg)

	classDefs := map[string]astClassDef{}
	for _, def := range cfg.ClassDefs {
		classDefs[def.Name] = def
	}

	flat := &astConfig{}
	proxies := map[string]compoundProxy{}

	var expandDecl func(name, class string, args []string, prefix string) error
	expandDecl = func(name, class string, args []string, prefix string) error {
		fullName := prefix + name
		def, isCompound := classDefs[class]
		if !isCompound {
			flat.Decls = append(flat.Decls, astDecl{Names: []string{fullName}, Class: class, Args: args})
			return nil
		}

		bindings := map[string]string{}
		for i, param := range def.Params {
			if i < len(args) {
				bindings[param] = args[i]
			}
		}
		subPrefix := fullName + "/"

		for _, d := range def.Body.Decls {
			for _, n := range d.Names {
				if err := expandDecl(n, d.Class, substituteParams(d.Args, bindings), subPrefix); err != nil {
					return err
				}
			}
		}

		var proxy compoundProxy
		for _, conn := range def.Body.Connections {
			ports := conn.Ports
			for i := 0; i+1 < len(ports); i++ {
				left, right := ports[i], ports[i+1]
				leftOut, rightIn := defaultIndex(left.OutIndex), defaultIndex(right.InIndex)
				leftIsInput := left.Elem == "input"
				rightIsOutput := right.Elem == "output"

				switch {
				case leftIsInput && rightIsOutput:
					continue
				case leftIsInput:
					if !proxy.HasInput {
						proxy.HasInput = true
						proxy.InputElem = subPrefix + right.Elem
						proxy.InputPort = rightIn
					}
				case rightIsOutput:
					if !proxy.HasOutput {
						proxy.HasOutput = true
						proxy.OutputElem = subPrefix + left.Elem
						proxy.OutputPort = leftOut
					}
				default:
					flat.Connections = append(flat.Connections, astConnection{Ports: []astPortDecl{
						{Elem: subPrefix + left.Elem, OutIndex: leftOut},
						{Elem: subPrefix + right.Elem, InIndex: rightIn},
					}})
				}
			}
		}
		proxies[fullName] = proxy
		return nil
	}

	for _, d := range cfg.Decls {
		for _, n := range d.Names {
			if err := expandDecl(n, d.Class, d.Args, ""); err != nil {
				return nil, nil, err
			}
		}
	}

	resolveSource := func(p astPortDecl) astPortDecl {
		if proxy, ok := proxies[p.Elem]; ok && proxy.HasOutput {
			return astPortDecl{Elem: proxy.OutputElem, OutIndex: proxy.OutputPort}
		}
		return p
	}
	resolveDest := func(p astPortDecl) astPortDecl {
		if proxy, ok := proxies[p.Elem]; ok && proxy.HasInput {
			return astPortDecl{Elem: proxy.InputElem, InIndex: proxy.InputPort}
		}
		return p
	}

	for _, conn := range cfg.Connections {
		ports := conn.Ports
		for i := 0; i+1 < len(ports); i++ {
			left := resolveSource(astPortDecl{Elem: ports[i].Elem, OutIndex: defaultIndex(ports[i].OutIndex)})
			right := resolveDest(astPortDecl{Elem: ports[i+1].Elem, InIndex: defaultIndex(ports[i+1].InIndex)})
			flat.Connections = append(flat.Connections, astConnection{Ports: []astPortDecl{left, right}})
		}
	}

	return flat, proxies, nil
}

// autoDeclareBareNames implements the common configuration-language
// shorthand where a connection endpoint with no `::class` and no
// `(args)` is simultaneously the element's name and its class (spec.md
// §8 end-to-end scenarios all rely on chains like "Gen -> Null ->
// Discard" with no explicit declarations). It mutates cfg and every
// nested elementclass body in place, adding one synthetic decl per
// first-seen bare name.
func autoDeclareBareNames(cfg *astConfig) {
	declared := map[string]bool{}
	for _, d := range cfg.Decls {
		for _, n := range d.Names {
			declared[n] = true
		}
	}
	for _, conn := range cfg.Connections {
		for _, p := range conn.Ports {
			if p.Elem == "input" || p.Elem == "output" || declared[p.Elem] {
				continue
			}
			declared[p.Elem] = true
			cfg.Decls = append(cfg.Decls, astDecl{Names: []string{p.Elem}, Class: p.Elem})
		}
	}
	for i := range cfg.ClassDefs {
		autoDeclareBareNames(cfg.ClassDefs[i].Body)
	}
}

func defaultIndex(idx int) int {
	if idx < 0 {
		return 0
	}
	return idx
}

func substituteParams(args []string, bindings map[string]string) []string {
	if len(bindings) == 0 {
		return args
	}
	out := make([]string, len(args))
	for i, a := range args {
		if strings.HasPrefix(a, "$") {
			if v, ok := bindings[a[1:]]; ok {
				out[i] = v
				continue
			}
		}
		out[i] = a
	}
	return out
}

// Link parses src as a configuration document, expands compound
// elements, builds the element graph, resolves agnostic port kinds, and
// runs configure/initialize across every element, see spec.md §4.3
// ("The linker performs") steps 1-7.
func Link(ctx context.Context, cfg *Config, registry map[string]ElementFactory, file, src string) (*Router, error) {
	ast, err := NewParser(file, src).ParseConfig()
	if err != nil {
		return nil, &ErrorRecord{Kind: ErrParse, Context: file, Message: err.Error()}
	}

	flat, _, err := flattenConfig(ast)
	if err != nil {
		return nil, &ErrorRecord{Kind: ErrLink, Context: file, Message: err.Error()}
	}

	r := newRouter(cfg)
	errh := NewErrorHandler()

	for _, d := range flat.Decls {
		name := d.Names[0]
		factory, ok := registry[d.Class]
		if !ok {
			errh.Error(ErrLink, name, "unknown element class %q", d.Class)
			continue
		}
		inst := &ElementInstance{
			Eindex: len(r.Elements),
			Name:   name,
			Class:  d.Class,
			Config: d.Args,
			Impl:   factory(),
		}
		r.Elements = append(r.Elements, inst)
		r.byName[name] = inst
	}
	if !errh.OK() {
		return nil, errh.Err()
	}

	conns, err := resolveConnections(r, flat.Connections)
	if err != nil {
		return nil, err
	}
	r.Connections = conns

	resolvePortKinds(r, errh)
	if !errh.OK() {
		return nil, errh.Err()
	}

	validatePortCounts(r, errh)
	validateSingleActiveEnd(r, errh)
	if !errh.OK() {
		return nil, errh.Err()
	}

	registerGlobalHandlers(r)

	configureInPhaseOrder(ctx, r, errh)
	if !errh.OK() {
		return nil, errh.Err()
	}

	if err := initializeElements(ctx, r, errh); err != nil {
		return nil, err
	}

	r.generation = 1
	return r, nil
}

func resolveConnections(r *Router, astConns []astConnection) ([]*Connection, error) {
	var conns []*Connection
	for _, c := range astConns {
		from, to := c.Ports[0], c.Ports[1]
		fromElem, ok := r.byName[from.Elem]
		if !ok {
			return nil, &ErrorRecord{Kind: ErrLink, Context: from.Elem, Message: "connection references undeclared element"}
		}
		toElem, ok := r.byName[to.Elem]
		if !ok {
			return nil, &ErrorRecord{Kind: ErrLink, Context: to.Elem, Message: "connection references undeclared element"}
		}
		conns = append(conns, &Connection{
			From: PortRef{Element: fromElem, Index: defaultIndex(from.OutIndex), Dir: Output},
			To:   PortRef{Element: toElem, Index: defaultIndex(to.InIndex), Dir: Input},
		})
	}
	return conns, nil
}

// resolvePortKinds sizes every element's port arrays from the widest
// connected index and the class's declared minimums, then unifies
// connected ports and any concretely-declared processing kind into one
// union-find per spec.md §4.2 rule 4 and §4.3 step 4. A fully agnostic
// connected component (no concrete anchor anywhere in it) defaults to
// push, the conventional choice for a pipeline with no pull source.
func resolvePortKinds(r *Router, errh *ErrorHandler) {
	nIn := make([]int, len(r.Elements))
	nOut := make([]int, len(r.Elements))
	for i, e := range r.Elements {
		spec := e.Impl.PortCount()
		nIn[i], nOut[i] = spec.MinIn, spec.MinOut
	}
	for _, c := range r.Connections {
		if n := c.From.Index + 1; n > nOut[c.From.Element.Eindex] {
			nOut[c.From.Element.Eindex] = n
		}
		if n := c.To.Index + 1; n > nIn[c.To.Element.Eindex] {
			nIn[c.To.Element.Eindex] = n
		}
	}

	inBase := make([]int, len(r.Elements))
	outBase := make([]int, len(r.Elements))
	total := 0
	for i, e := range r.Elements {
		inBase[i] = total
		total += nIn[i]
		outBase[i] = total
		total += nOut[i]
		e.inputs = make([]portState, nIn[i])
		e.outputs = make([]portState, nOut[i])
	}

	uf := newPortUnionFind(total)
	for i, e := range r.Elements {
		for p := 0; p < nIn[i]; p++ {
			if kind := e.Impl.Processing(Input, p); kind != Agnostic {
				if err := uf.setKind(inBase[i]+p, kind); err != nil {
					errh.Error(ErrLink, e.Name, "input %d: %v", p, err)
				}
			}
		}
		for p := 0; p < nOut[i]; p++ {
			if kind := e.Impl.Processing(Output, p); kind != Agnostic {
				if err := uf.setKind(outBase[i]+p, kind); err != nil {
					errh.Error(ErrLink, e.Name, "output %d: %v", p, err)
				}
			}
		}
	}
	for _, c := range r.Connections {
		fromIdx := outBase[c.From.Element.Eindex] + c.From.Index
		toIdx := inBase[c.To.Element.Eindex] + c.To.Index
		if err := uf.union(fromIdx, toIdx); err != nil {
			errh.Error(ErrLink, c.String(), "%v", err)
		}
	}
	if !errh.OK() {
		return
	}

	for i, e := range r.Elements {
		for p := 0; p < nIn[i]; p++ {
			kind := uf.kindOf(inBase[i] + p)
			if kind == Agnostic {
				kind = Push
			}
			e.inputs[p].kind = kind
		}
		for p := 0; p < nOut[i]; p++ {
			kind := uf.kindOf(outBase[i] + p)
			if kind == Agnostic {
				kind = Push
			}
			e.outputs[p].kind = kind
		}
	}
	for _, c := range r.Connections {
		c.From.Element.outputs[c.From.Index].conns = append(c.From.Element.outputs[c.From.Index].conns, c)
		c.To.Element.inputs[c.To.Index].conns = append(c.To.Element.inputs[c.To.Index].conns, c)
	}
}

func validatePortCounts(r *Router, errh *ErrorHandler) {
	for _, e := range r.Elements {
		if !e.Impl.PortCount().Accepts(len(e.inputs), len(e.outputs)) {
			errh.Error(ErrLink, e.Name, "port count (%d in, %d out) rejected by %s", len(e.inputs), len(e.outputs), e.Class)
		}
	}
}

// validateSingleActiveEnd checks spec.md §8 law 2: every push output has
// exactly one downstream input, and every pull input has exactly one
// upstream output.
func validateSingleActiveEnd(r *Router, errh *ErrorHandler) {
	for _, e := range r.Elements {
		for i, out := range e.outputs {
			if out.kind == Push && len(out.conns) != 1 {
				errh.Error(ErrLink, e.Name, "push output %d has %d connections, want exactly 1", i, len(out.conns))
			}
		}
		for i, in := range e.inputs {
			if in.kind == Pull && len(in.conns) != 1 {
				errh.Error(ErrLink, e.Name, "pull input %d has %d connections, want exactly 1", i, len(in.conns))
			}
		}
	}
}

func configureInPhaseOrder(ctx context.Context, r *Router, errh *ErrorHandler) {
	order := make([]*ElementInstance, len(r.Elements))
	copy(order, r.Elements)
	sort.SliceStable(order, func(i, j int) bool {
		return configurePhase(order[i]) < configurePhase(order[j])
	})
	for _, e := range order {
		if err := e.Impl.Configure(ctx, e.Config, errh); err != nil {
			errh.Error(ErrConfigure, e.Name, "%v", err)
		}
	}
}

func configurePhase(e *ElementInstance) int {
	if po, ok := e.Impl.(PhaseOrderer); ok {
		return po.ConfigurePhase()
	}
	return 0
}

// initializeElements runs Initialize on every element in declaration
// order. On the first failure it tears down every previously
// initialized element in reverse order and aborts, per spec.md §4.3
// step 7.
func initializeElements(ctx context.Context, r *Router, errh *ErrorHandler) error {
	for i, e := range r.Elements {
		if sb, ok := e.Impl.(SelfBinder); ok {
			sb.BindSelf(r, e)
		}
		if err := e.Impl.Initialize(ctx, errh); err != nil {
			for j := i - 1; j >= 0; j-- {
				r.Elements[j].Impl.Cleanup(CleanupInitFailed)
			}
			return fmt.Errorf("initialize %s: %w", e.Name, err)
		}
		if tasked, ok := e.Impl.(Tasked); ok {
			if t := tasked.Task(); t != nil {
				e.task = t
				t.Initialize(r.ThreadFor(e.Eindex), true)
			}
		}
		if hp, ok := e.Impl.(HandlerProvider); ok {
			for _, spec := range hp.Handlers() {
				r.handlers.register(&Handler{
					Eindex: e.Eindex, Name: spec.Name, Flags: spec.Flags,
					Read: spec.Read, Write: spec.Write,
				})
			}
		}
	}
	return nil
}

func registerGlobalHandlers(r *Router) {
	r.handlers.register(&Handler{
		Eindex: GlobalEindex, Name: "list", Flags: HandlerRead,
		Read: func(context.Context) (string, error) {
			names := make([]string, len(r.Elements))
			for i, e := range r.Elements {
				names[i] = e.Name
			}
			return strings.Join(names, "\n"), nil
		},
	})
	r.handlers.register(&Handler{
		Eindex: GlobalEindex, Name: "stop", Flags: HandlerWrite | HandlerButton,
		Write: func(_ context.Context, reason string) error {
			r.RequestStop(reason)
			return nil
		},
	})
}
