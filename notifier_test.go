// SPDX-License-Identifier: GPL-3.0-or-later

package click

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifierSignalActive(t *testing.T) {
	s := NewNotifierSignal()
	assert.False(t, s.Active())

	s.SetActive(true)
	assert.True(t, s.Active())

	s.SetActive(false)
	assert.False(t, s.Active())
}

func TestNotifierSignalCopySharesWord(t *testing.T) {
	s := NewNotifierSignal()
	copied := s
	s.SetActive(true)
	assert.True(t, copied.Active(), "copies observe the same underlying word")
}

func TestNotifierSignalPlusSameWord(t *testing.T) {
	s := NewNotifierSignal()
	wider := NotifierSignal{word: s.word, mask: 2}
	combined := s.Plus(wider)

	s.SetActive(true)
	assert.True(t, combined.Active())

	s.SetActive(false)
	wider.SetActive(true)
	assert.True(t, combined.Active())
}

func TestNotifierSignalPlusDifferentWords(t *testing.T) {
	a := NewNotifierSignal()
	b := NewNotifierSignal()
	b.SetActive(true)

	combined := a.Plus(b)
	assert.True(t, combined.Active())
}

// Notifier liveness: spec.md §8 law 7.
func TestActiveNotifierWakesListenersOnTransition(t *testing.T) {
	n := NewActiveNotifier()
	task := NewTask(nil, nil)
	task.Unschedule()
	n.Listen(task)

	n.SetActive(true)
	assert.True(t, task.Scheduled())
}

func TestActiveNotifierDoesNotWakeOnFalling(t *testing.T) {
	n := NewActiveNotifier()
	n.SetActive(true)

	task := NewTask(nil, nil)
	task.Unschedule()
	n.Listen(task)

	n.SetActive(false)
	assert.False(t, task.Scheduled(), "1->0 transition leaves listeners asleep")
}

func TestPassiveNotifierIgnoresListeners(t *testing.T) {
	n := NewPassiveNotifier()
	task := NewTask(nil, nil)
	task.Unschedule()
	n.Listen(task)

	n.SetActive(true)
	assert.False(t, task.Scheduled(), "passive notifiers never reschedule")
}
