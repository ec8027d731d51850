package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-gridtrace/pkg/phases"
)

type phasesOpts struct {
	remove bool
	infer  bool
}

func newPhasesCmd(a *app) *cobra.Command {
	var opts phasesOpts

	cmd := &cobra.Command{
		Use:   "phases",
		Short: "Energise the network from its sources and print the traced phases",
		Example: `  gridtrace phases --network feeder.yaml
  gridtrace phases --network feeder.yaml --state current --infer`,
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
			if cmd.Flags().Changed("infer") {
				a.cfg.InferPhases = opts.infer
			}

			inferred, err := a.energise(cmd.Context(), network, ops)
			if err != nil {
				return err
			}

			if opts.remove {
				if _, err := phases.NewRemovePhases(ops, phases.WithLogger(a.logger), phases.WithMetrics(a.metrics)).Run(cmd.Context(), network); err != nil {
					return err
				}
			}

			printTerminals(cmd.OutOrStdout(), network, ops)
			for _, inf := range inferred {
				note := "inferred"
				if inf.Suspect {
					note = "inferred, suspect"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", inf.Equipment.MRID(), note, inf.State)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.remove, "remove", false, "remove the phases again after tracing them")
	cmd.Flags().BoolVar(&opts.infer, "infer", false, "infer phases missing from the source data (default from config)")
	return cmd
}
