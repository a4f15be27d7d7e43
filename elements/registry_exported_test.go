// SPDX-License-Identifier: GPL-3.0-or-later

package elements

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryConstructsEveryEntry(t *testing.T) {
	registry := Registry()
	require.NotEmpty(t, registry)
	for class, factory := range registry {
		elem := factory()
		assert.NotNil(t, elem, "class %s produced a nil element", class)
		assert.Equal(t, class, elem.ClassName())
	}
}
