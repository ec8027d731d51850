package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-gridtrace/pkg/feeder"
)

type directionOpts struct {
	clear  string
	remove bool
}

func newDirectionCmd(a *app) *cobra.Command {
	var opts directionOpts

	cmd := &cobra.Command{
		Use:   "direction",
		Short: "Assign feeder directions from every feeder head and print them",
		Example: `  gridtrace direction --network feeder.yaml
  gridtrace direction --network feeder.yaml --clear brk-t2`,
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
			if _, err := a.energise(cmd.Context(), network, ops); err != nil {
				return err
			}

			switch {
			case opts.clear != "":
				t, err := network.Terminal(opts.clear)
				if err != nil {
					return err
				}
				starts, err := feeder.NewClearDirection(ops, feeder.WithLogger(a.logger), feeder.WithMetrics(a.metrics)).Run(cmd.Context(), t)
				if err != nil {
					return err
				}
				for _, s := range starts {
					fmt.Fprintf(cmd.OutOrStdout(), "reassign from %s\n", s.MRID())
				}
			case opts.remove:
				feeder.NewRemoveDirection(ops, feeder.WithLogger(a.logger), feeder.WithMetrics(a.metrics)).Run(network)
			}
			printTerminals(cmd.OutOrStdout(), network, ops)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.clear, "clear", "", "clear directions downstream of this terminal after assigning them")
	cmd.Flags().BoolVar(&opts.remove, "remove", false, "remove every direction after assigning them")
	cmd.MarkFlagsMutuallyExclusive("clear", "remove")
	return cmd
}
