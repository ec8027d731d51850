package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-gridtrace/pkg/logging"
	"github.com/dd0wney/cluso-gridtrace/pkg/netio"
)

func newSnapshotCmd(a *app) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save or restore the traced state of a network",
	}
	cmd.PersistentFlags().StringVarP(&path, "file", "o", "", "snapshot file (default from config)")

	snapshotPath := func() (string, error) {
		if path != "" {
			return path, nil
		}
		if a.cfg.Snapshot.Path != "" {
			return a.cfg.Snapshot.Path, nil
		}
		return "", errors.New("no snapshot file: use --file or set snapshot.path")
	}
	store := func() *netio.Store {
		return netio.NewStore(
			netio.WithCompression(a.cfg.Snapshot.Compress),
			netio.WithLogger(a.logger),
			netio.WithMetrics(a.metrics),
		)
	}

	save := &cobra.Command{
		Use:   "save",
		Short: "Energise both network states and save the traced phases and directions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, err := snapshotPath()
			if err != nil {
				return err
			}
			network, err := a.loadNetwork()
			if err != nil {
				return err
			}
			if err := a.energiseAll(cmd.Context(), network); err != nil {
				return err
			}

			snap := netio.Capture(network)
			size, err := store().Save(file, snap)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved snapshot %s: %d terminals, %d bytes\n", snap.ID, len(snap.Terminals), size)
			return nil
		},
	}

	load := &cobra.Command{
		Use:   "load",
		Short: "Restore a saved snapshot onto the network and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, err := snapshotPath()
			if err != nil {
				return err
			}
			network, err := a.loadNetwork()
			if err != nil {
				return err
			}
			ops, err := a.state()
			if err != nil {
				return err
			}

			snap, err := store().Load(file)
			if err != nil {
				return err
			}
			restored, missing := snap.Restore(network)
			if len(missing) > 0 {
				a.logger.Warn("snapshot terminals missing from the network",
					logging.Count(len(missing)), logging.String("first", missing[0]))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored snapshot %s taken %s: %d terminals, %d missing\n",
				snap.ID, snap.Created.Format(time.RFC3339), restored, len(missing))
			printTerminals(cmd.OutOrStdout(), network, ops)
			return nil
		},
	}

	cmd.AddCommand(save, load)
	return cmd
}
