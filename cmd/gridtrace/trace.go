package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/feeder"
	"github.com/dd0wney/cluso-gridtrace/pkg/networktrace"
	"github.com/dd0wney/cluso-gridtrace/pkg/phases"
)

// energise sets phases then feeder directions for one state, inferring
// missing phases when the config asks for it.
func (a *app) energise(ctx context.Context, network *cim.Network, ops networktrace.NetworkStateOperators) ([]phases.InferredPhase, error) {
	if err := phases.NewSetPhases(ops, phases.WithLogger(a.logger), phases.WithMetrics(a.metrics)).Run(ctx, network); err != nil {
		return nil, fmt.Errorf("set %s phases: %w", ops.Description(), err)
	}

	var inferred []phases.InferredPhase
	if a.cfg.InferPhases {
		var err error
		inferred, err = phases.NewPhaseInferrer(ops, phases.WithLogger(a.logger), phases.WithMetrics(a.metrics)).Run(ctx, network)
		if err != nil {
			return nil, fmt.Errorf("infer %s phases: %w", ops.Description(), err)
		}
	}

	if err := feeder.NewSetDirection(ops, feeder.WithLogger(a.logger), feeder.WithMetrics(a.metrics)).Run(ctx, network); err != nil {
		return nil, fmt.Errorf("set %s feeder directions: %w", ops.Description(), err)
	}
	return inferred, nil
}

// energiseAll energises both states.
func (a *app) energiseAll(ctx context.Context, network *cim.Network) error {
	for _, ops := range a.ops.Both() {
		if _, err := a.energise(ctx, network, ops); err != nil {
			return err
		}
	}
	return nil
}

// formatPhases renders traced phases as a phase code when they form one and
// as nominal:traced pairs otherwise.
func formatPhases(status cim.PhaseStatus) string {
	if code, ok := status.AsPhaseCode(); ok {
		return code.String()
	}
	t := status.Terminal()
	pairs := make([]string, 0, t.Phases().NumPhases())
	for _, nominal := range t.Phases().SinglePhases() {
		pairs = append(pairs, nominal.String()+":"+status.Get(nominal).String())
	}
	return strings.Join(pairs, " ")
}

// newTable returns a borderless table with left-aligned columns.
func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	if len(header) > 0 {
		table.SetHeader(header)
	}
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetColumnSeparator("")
	table.SetCenterSeparator("")
	table.SetRowSeparator("")
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}

// printTerminals writes one row per terminal with its nominal and traced
// phases and its feeder direction.
func printTerminals(w io.Writer, network *cim.Network, ops networktrace.NetworkStateOperators) {
	table := newTable(w, "terminal", "equipment", "nominal", "traced", "direction")
	for _, t := range network.AllTerminals() {
		eq := "-"
		if t.Equipment() != nil {
			eq = t.Equipment().MRID()
		}
		table.Append([]string{t.MRID(), eq, t.Phases().String(), formatPhases(ops.PhaseStatus(t)), ops.Direction(t).String()})
	}
	table.Render()
}
