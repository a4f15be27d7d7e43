// SPDX-License-Identifier: GPL-3.0-or-later

package elements

import (
	"context"
	"fmt"

	"github.com/clickrouter/click"
	"golang.org/x/net/bpf"
)

// ClassifierRule describes one output port's match: load Size bytes
// (1, 2, or 4) from Offset into a packet's [click.Packet.Data], mask
// them with Mask (0 skips masking), and compare against Value.
type ClassifierRule struct {
	Offset int
	Size   int
	Mask   uint32
	Value  uint32
}

// Classifier is a generic byte-pattern multi-way push element: each
// output port gets its own compiled BPF program, run in declaration
// order against the packet's data, and the packet is pushed out the
// first port whose program matches. An extra trailing output port
// (index len(rules)) catches unmatched packets, the default-output
// convention the original's flow-code-driven classifiers use.
type Classifier struct {
	rules []*bpf.VM
	self  *click.ElementInstance
}

// NewClassifier compiles rules into one BPF program per output port.
func NewClassifier(rules ...ClassifierRule) (*Classifier, error) {
	c := &Classifier{}
	for i, r := range rules {
		vm, err := compileClassifierRule(r)
		if err != nil {
			return nil, fmt.Errorf("classifier rule %d: %w", i, err)
		}
		c.rules = append(c.rules, vm)
	}
	return c, nil
}

func compileClassifierRule(r ClassifierRule) (*bpf.VM, error) {
	var load bpf.Instruction
	switch r.Size {
	case 1, 2, 4:
		load = bpf.LoadAbsolute{Off: uint32(r.Offset), Size: r.Size}
	default:
		return nil, fmt.Errorf("unsupported match size %d, want 1, 2, or 4", r.Size)
	}
	insns := []bpf.Instruction{load}
	if r.Mask != 0 {
		insns = append(insns, bpf.ALUOpConstant{Op: bpf.ALUOpAnd, Val: r.Mask})
	}
	insns = append(insns,
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: r.Value, SkipTrue: 1},
		bpf.RetConstant{Val: 0},
		bpf.RetConstant{Val: 1},
	)
	return bpf.NewVM(insns)
}

var _ click.Element = (*Classifier)(nil)
var _ click.Pusher = (*Classifier)(nil)
var _ click.SelfBinder = (*Classifier)(nil)

func (e *Classifier) ClassName() string { return "Classifier" }

func (e *Classifier) PortCount() click.PortCountSpec {
	return click.Fixed(1, len(e.rules)+1)
}

func (e *Classifier) Processing(dir click.Direction, index int) click.ProcessingKind {
	return click.Push
}

func (e *Classifier) Configure(ctx context.Context, args []string, errh *click.ErrorHandler) error {
	return nil
}

func (e *Classifier) BindSelf(r *click.Router, self *click.ElementInstance) { e.self = self }

func (e *Classifier) Initialize(ctx context.Context, errh *click.ErrorHandler) error { return nil }

func (e *Classifier) Cleanup(stage click.CleanupStage) {}

// Push runs every rule's program against p.Data() in order and forwards
// p out the first matching output, or the trailing default output if
// none match.
func (e *Classifier) Push(ctx context.Context, port int, p *click.Packet) error {
	data := p.Data()
	for i, vm := range e.rules {
		matched, err := vm.Run(data)
		if err != nil {
			continue
		}
		if matched != 0 {
			return Push(ctx, e.self, i, p)
		}
	}
	return Push(ctx, e.self, len(e.rules), p)
}
