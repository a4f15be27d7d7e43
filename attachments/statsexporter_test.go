// SPDX-License-Identifier: GPL-3.0-or-later

package attachments

import (
	"context"
	"testing"
	"time"

	"github.com/clickrouter/click"
	"github.com/clickrouter/click/elements"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(t *testing.T) *click.Router {
	t.Helper()
	registry := map[string]click.ElementFactory{
		"InfiniteSource": func() click.Element { return elements.NewInfiniteSource(8, 1) },
		"Discard":        func() click.Element { return elements.NewDiscard() },
	}
	r, err := click.Link(context.Background(), click.NewConfig(), registry, "test",
		`src :: InfiniteSource -> ctr :: Discard;`)
	require.NoError(t, err)
	return r
}

func TestCollectRowsReadsEveryHandlerAcrossElements(t *testing.T) {
	r := testRouter(t)

	rows := collectRows(context.Background(), r, click.NewDiscardLogger())

	// Two element counters plus the linker's readable global "list"
	// handler; the write-only global "stop" is skipped.
	require.Len(t, rows, 3)
	keys := map[string]string{}
	for _, row := range rows {
		keys[row.RowKey] = row.Value
	}
	assert.Contains(t, keys, ".h/list")
	assert.Equal(t, "0", keys["src/count"])
	assert.Equal(t, "0", keys["ctr/count"])
}

func TestStatsExporterStartSchedulesAndStopUnschedules(t *testing.T) {
	r := testRouter(t)
	exp := NewStatsExporter(r, nil, nil)

	set := click.NewTimerSet()
	now := time.Unix(0, 0)
	timer := exp.Start(set, now, time.Second)
	require.NotNil(t, timer)
	assert.True(t, timer.Scheduled())

	exp.Stop()
	assert.False(t, timer.Scheduled())
}
