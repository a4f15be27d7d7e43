// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunRequiresConfigFlag(t *testing.T) {
	assert.Equal(t, 2, run(nil))
}

func TestRunReportsMissingConfigFile(t *testing.T) {
	assert.Equal(t, 1, run([]string{"-config", "/nonexistent/clickd-config-that-does-not-exist.click"}))
}

func TestRunReportsParseError(t *testing.T) {
	path := t.TempDir() + "/broken.click"
	writeFile(t, path, "this is not a valid configuration ->>> ;;;")

	assert.Equal(t, 1, run([]string{"-config", path}))
}

func TestClampStaysWithinShellExitRange(t *testing.T) {
	assert.Equal(t, 1, clamp(0))
	assert.Equal(t, 1, clamp(-3))
	assert.Equal(t, 5, clamp(5))
	assert.Equal(t, 125, clamp(999))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writeFile: %v", err)
	}
}
