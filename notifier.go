// SPDX-License-Identifier: GPL-3.0-or-later

package click

import "sync/atomic"

// NotifierSignal is a (word, mask) pair identifying one bit of shared
// state, see spec.md §4.5.4. Signals are cheap to copy: the word is a
// pointer to a shared atomic cell, so copies observe the same bit.
type NotifierSignal struct {
	word *atomic.Uint32
	mask uint32
}

// NewNotifierSignal returns a signal over a fresh word with mask bit 0
// set, initially inactive.
func NewNotifierSignal() NotifierSignal {
	return NotifierSignal{word: new(atomic.Uint32), mask: 1}
}

// IdleSignal returns a signal that is always inactive, used as a
// zero-listener default so callers need not nil-check.
func IdleSignal() NotifierSignal {
	return NotifierSignal{word: new(atomic.Uint32), mask: 1}
}

// Active reports whether any bit in the mask is set, with acquire
// semantics (spec.md §5, "the consumer uses acquire-load").
func (s NotifierSignal) Active() bool {
	if s.word == nil {
		return false
	}
	return s.word.Load()&s.mask != 0
}

// SetActive sets or clears the signal's bit, with release semantics on
// the 0->1 transition (spec.md §5, "the producer uses release-store on
// 0->1").
func (s NotifierSignal) SetActive(active bool) {
	if s.word == nil {
		return
	}
	if active {
		s.word.Or(s.mask)
	} else {
		s.word.And(^s.mask)
	}
}

// Plus composes two signals into one that is active whenever either
// input is, see spec.md §4.5.4 ("operator+= ORs two signals"). If the
// two signals already share a word and don't overlap in mask, Plus
// widens the mask in place; otherwise it allocates a fresh word and
// copies both bits' current state into it, since two independently
// owned atomic cells cannot be OR'd without a common word.
func (s NotifierSignal) Plus(other NotifierSignal) NotifierSignal {
	if other.word == nil {
		return s
	}
	if s.word == nil {
		return other
	}
	if s.word == other.word {
		return NotifierSignal{word: s.word, mask: s.mask | other.mask}
	}
	combined := new(atomic.Uint32)
	if s.Active() || other.Active() {
		combined.Store(1)
	}
	return NotifierSignal{word: combined, mask: 1}
}

// Notifier owns a signal and, for the active flavor, a list of listener
// tasks woken on the signal's 0->1 transition (spec.md §4.5.4).
type Notifier struct {
	signal   NotifierSignal
	active   bool
	tasks    []*Task
}

// NewPassiveNotifier returns a notifier with no wake list: producers set
// the bit, consumers poll it directly.
func NewPassiveNotifier() *Notifier {
	return &Notifier{signal: NewNotifierSignal()}
}

// NewActiveNotifier returns a notifier that reschedules its listeners on
// every 0->1 transition.
func NewActiveNotifier() *Notifier {
	return &Notifier{signal: NewNotifierSignal(), active: true}
}

// Signal returns the notifier's underlying signal.
func (n *Notifier) Signal() NotifierSignal { return n.signal }

// Listen registers t to be rescheduled on the next 0->1 transition. Only
// meaningful for an active notifier; passive notifiers ignore listeners
// since consumers are expected to poll.
func (n *Notifier) Listen(t *Task) {
	if !n.active || t == nil {
		return
	}
	n.tasks = append(n.tasks, t)
}

// SetActive sets or clears the underlying bit. On a 0->1 transition of
// an active notifier, every registered listener is rescheduled; on a
// 1->0 transition listeners are left alone to sleep on their next
// failed pull (spec.md §4.5.4).
func (n *Notifier) SetActive(active bool) {
	wasActive := n.signal.Active()
	n.signal.SetActive(active)
	if n.active && active && !wasActive {
		for _, t := range n.tasks {
			t.Reschedule()
		}
	}
}
