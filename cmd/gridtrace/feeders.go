package main

import (
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/feeder"
	"github.com/dd0wney/cluso-gridtrace/pkg/networktrace"
)

func newFeedersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "feeders",
		Short: "Assign equipment to the feeders that energise it and print each feeder's equipment",
		Example: `  gridtrace feeders --network feeder.yaml
  gridtrace feeders --network feeder.yaml --state current`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			network, err := a.loadNetwork()
			if err != nil {
				return err
			}
			ops, err := a.state()
			if err != nil {
				return err
			}
			if err := feeder.NewAssignToFeeders(ops, feeder.WithLogger(a.logger), feeder.WithMetrics(a.metrics)).Run(cmd.Context(), network); err != nil {
				return err
			}
			printFeeders(cmd.OutOrStdout(), network, ops)
			return nil
		},
	}
}

// printFeeders writes one row per feeder and piece of equipment it energises
// in the state of ops, sorted by feeder then equipment.
func printFeeders(w io.Writer, network *cim.Network, ops networktrace.NetworkStateOperators) {
	type row struct{ feeder, eq, kind string }
	var rows []row
	for _, eq := range network.AllEquipment() {
		for _, f := range ops.Feeders(eq) {
			rows = append(rows, row{feeder: f.MRID(), eq: eq.MRID(), kind: string(eq.Kind())})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].feeder != rows[j].feeder {
			return rows[i].feeder < rows[j].feeder
		}
		return rows[i].eq < rows[j].eq
	})

	table := newTable(w, "feeder", "equipment", "kind")
	for _, r := range rows {
		table.Append([]string{r.feeder, r.eq, r.kind})
	}
	table.Render()
}
