// SPDX-License-Identifier: GPL-3.0-or-later

// Package attachments holds router attachments: optional components
// that observe a running [click.Router] through its public handler and
// attachment surface without the core router depending on them, or on
// what they depend on in turn (spec.md §3, "Router... attachments").
package attachments

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/clickrouter/click"
)

// StatsExporter walks a router's handler table on every timer fire and
// writes each readable handler's current value into an Azure Table row,
// keyed by run ID (partition) and "<element>/<handler>" (row), for
// external monitoring of a fleet of router processes.
type StatsExporter struct {
	Router *click.Router
	Table  *aztables.Client
	Logger click.SLogger

	timer *click.Timer
}

// NewStatsExporter returns a [*StatsExporter] exporting r's handlers
// into table.
func NewStatsExporter(r *click.Router, table *aztables.Client, logger click.SLogger) *StatsExporter {
	if logger == nil {
		logger = click.NewDiscardLogger()
	}
	return &StatsExporter{Router: r, Table: table, Logger: logger}
}

// Start schedules the first export onto set, every interval, using now
// as the steady clock. The returned [*click.Timer] re-arms itself on
// every fire, the re-entrant pattern spec.md §4.5.5 documents.
func (s *StatsExporter) Start(set *click.TimerSet, now time.Time, interval time.Duration) *click.Timer {
	s.timer = click.NewTimer(func(fired time.Time) {
		s.exportOnce(context.Background())
		s.timer.ScheduleAfter(set, fired, interval)
	})
	s.timer.ScheduleAfter(set, now, interval)
	return s.timer
}

// Stop unschedules the export timer.
func (s *StatsExporter) Stop() {
	if s.timer != nil {
		s.timer.Unschedule()
	}
}

// statRow is one handler's value, addressed the way the handler
// filesystem would (spec.md §6).
type statRow struct {
	RowKey string
	Value  string
}

// collectRows reads every readable handler in r's table into a row,
// skipping any that fail to read. It touches no Azure API, so it is the
// part of export worth testing directly.
func collectRows(ctx context.Context, r *click.Router, logger click.SLogger) []statRow {
	byEindex := map[int]string{}
	for _, e := range r.Elements {
		byEindex[e.Eindex] = e.Name
	}

	var rows []statRow
	for _, h := range r.Handlers() {
		if !h.CanRead() {
			continue
		}
		value, err := h.Read(ctx)
		if err != nil {
			logger.Debug("statsExporterReadError", "handler", h.Name, "error", err.Error())
			continue
		}
		elementName := byEindex[h.Eindex]
		if elementName == "" {
			elementName = ".h"
		}
		rows = append(rows, statRow{
			RowKey: fmt.Sprintf("%s/%s", elementName, h.Name),
			Value:  value,
		})
	}
	return rows
}

func (s *StatsExporter) exportOnce(ctx context.Context) {
	for _, row := range collectRows(ctx, s.Router, s.Logger) {
		entity := aztables.EDMEntity{
			Entity: aztables.Entity{
				PartitionKey: s.Router.RunID,
				RowKey:       row.RowKey,
			},
			Properties: map[string]any{"Value": row.Value},
		}
		marshaled, err := json.Marshal(entity)
		if err != nil {
			s.Logger.Debug("statsExporterMarshalError", "error", err.Error())
			continue
		}
		if _, err := s.Table.UpsertEntity(ctx, marshaled, nil); err != nil {
			s.Logger.Debug("statsExporterUpsertError", "error", err.Error())
		}
	}
}
