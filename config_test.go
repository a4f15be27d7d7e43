// SPDX-License-Identifier: GPL-3.0-or-later

package click

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, 1, cfg.Threads)
	assert.Equal(t, uint32(DefaultTickets), cfg.DefaultTickets)
	assert.Equal(t, DefaultAnnotationSize, cfg.AnnotationSize)

	// ErrClassifier should use errclass by default.
	assert.Equal(t, "", cfg.ErrClassifier.Classify(nil))
	assert.Equal(t, "ETIMEDOUT", cfg.ErrClassifier.Classify(context.DeadlineExceeded))

	now := cfg.TimeNow()
	assert.False(t, now.IsZero())
}

func TestConfigOptions(t *testing.T) {
	t.Run("WithThreads clamps below one", func(t *testing.T) {
		cfg := NewConfig(WithThreads(0))
		assert.Equal(t, 1, cfg.Threads)
	})

	t.Run("WithThreads sets a positive value", func(t *testing.T) {
		cfg := NewConfig(WithThreads(4))
		assert.Equal(t, 4, cfg.Threads)
	})

	t.Run("WithDefaultTickets overrides the default", func(t *testing.T) {
		cfg := NewConfig(WithDefaultTickets(256))
		assert.Equal(t, uint32(256), cfg.DefaultTickets)
	})

	t.Run("WithAnnotationSize overrides the default", func(t *testing.T) {
		cfg := NewConfig(WithAnnotationSize(64))
		assert.Equal(t, 64, cfg.AnnotationSize)
	})

	t.Run("WithLogger overrides the default", func(t *testing.T) {
		logger, _ := newCapturingLogger()
		cfg := NewConfig(WithLogger(logger))
		assert.NotNil(t, cfg.Logger)
	})
}
