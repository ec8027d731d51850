package main

import (
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-gridtrace/pkg/netio"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that a network document loads and summarise it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			network, err := a.loadNetwork()
			if err != nil {
				return err
			}

			kinds := make(map[string]int)
			for _, eq := range network.AllEquipment() {
				kinds[string(eq.Kind())]++
			}
			names := make([]string, 0, len(kinds))
			for kind := range kinds {
				names = append(names, kind)
			}
			sort.Strings(names)

			table := newTable(cmd.OutOrStdout())
			for _, kind := range names {
				table.Append([]string{kind, strconv.Itoa(kinds[kind])})
			}
			table.Append([]string{"terminals", strconv.Itoa(len(network.AllTerminals()))})
			table.Append([]string{"connectivity nodes", strconv.Itoa(len(network.ConnectivityNodes()))})
			table.Append([]string{"feeders", strconv.Itoa(len(network.Feeders()))})
			table.Render()
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write the network back out as a YAML document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			network, err := a.loadNetwork()
			if err != nil {
				return err
			}
			return netio.Encode(cmd.OutOrStdout(), network)
		},
	}
}
