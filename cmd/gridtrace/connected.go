package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/connectivity"
)

type connectedOpts struct {
	maxSteps  int
	direction string
	all       bool
}

func newConnectedCmd(a *app) *cobra.Command {
	var opts connectedOpts

	cmd := &cobra.Command{
		Use:   "connected EQUIPMENT...",
		Short: "List equipment within a number of steps of the given equipment",
		Example: `  gridtrace connected --network feeder.yaml brk --max-steps 3
  gridtrace connected --network feeder.yaml line --direction DOWNSTREAM
  gridtrace connected --network feeder.yaml src --all`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			network, err := a.loadNetwork()
			if err != nil {
				return err
			}
			ops, err := a.state()
			if err != nil {
				return err
			}
			start, err := findEquipment(network, args)
			if err != nil {
				return err
			}

			var dir *cim.FeederDirection
			if opts.direction != "" {
				d, ok := cim.ParseFeederDirection(strings.ToUpper(opts.direction))
				if !ok {
					return fmt.Errorf("unknown feeder direction %q", opts.direction)
				}
				// Directions only exist once the network has been energised.
				if _, err := a.energise(cmd.Context(), network, ops); err != nil {
					return err
				}
				dir = &d
			}

			maxSteps := a.cfg.MaxSteps
			if cmd.Flags().Changed("max-steps") {
				maxSteps = opts.maxSteps
			}

			trace := connectivity.NewLimitedConnectedEquipmentTrace(ops,
				connectivity.WithLogger(a.logger), connectivity.WithMetrics(a.metrics))
			var steps connectivity.EquipmentSteps
			if opts.all {
				steps, err = trace.RunAll(cmd.Context(), start)
			} else {
				steps, err = trace.Run(cmd.Context(), start, maxSteps, dir)
			}
			if err != nil {
				return err
			}

			mRIDs := make([]string, 0, len(steps))
			for mRID := range steps {
				mRIDs = append(mRIDs, mRID)
			}
			sort.Slice(mRIDs, func(i, j int) bool {
				if steps[mRIDs[i]] != steps[mRIDs[j]] {
					return steps[mRIDs[i]] < steps[mRIDs[j]]
				}
				return mRIDs[i] < mRIDs[j]
			})

			table := newTable(cmd.OutOrStdout(), "equipment", "steps")
			for _, mRID := range mRIDs {
				table.Append([]string{mRID, strconv.Itoa(steps[mRID])})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.maxSteps, "max-steps", 0, "maximum steps from the start equipment (default from config)")
	cmd.Flags().StringVar(&opts.direction, "direction", "", "only follow this feeder direction: UPSTREAM, DOWNSTREAM, BOTH")
	cmd.Flags().BoolVar(&opts.all, "all", false, "follow every connection with no step limit")
	cmd.MarkFlagsMutuallyExclusive("all", "max-steps")
	cmd.MarkFlagsMutuallyExclusive("all", "direction")
	return cmd
}
