package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/config"
	"github.com/dd0wney/cluso-gridtrace/pkg/logging"
	"github.com/dd0wney/cluso-gridtrace/pkg/metrics"
	"github.com/dd0wney/cluso-gridtrace/pkg/netio"
	"github.com/dd0wney/cluso-gridtrace/pkg/networktrace"
	"github.com/dd0wney/cluso-gridtrace/pkg/networktrace/operators"
)

type rootOpts struct {
	cfgFile     string
	networkFile string
	logLevel    string
	state       string
}

// app is the state shared by every subcommand once the root has loaded the
// configuration.
type app struct {
	opts    rootOpts
	cfg     *config.Config
	logger  logging.Logger
	metrics *metrics.Registry
	ops     operators.Set
}

var longRootCmdDescription = `gridtrace loads a power network from a YAML document and traces it:
energising phases from the sources, assigning feeder directions from the
feeder heads, and walking connected equipment in the normal or current
state of the network.
`

// Execute runs the root command. It is called by main.main.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "gridtrace: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{ops: operators.NewSet()}

	rootCmd := &cobra.Command{
		Use:           "gridtrace",
		Short:         "Trace phases, feeder directions and connectivity through a power network",
		Long:          longRootCmdDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.opts.cfgFile, "config", "c", "", "config file (YAML); GRIDTRACE_* environment variables override it")
	rootCmd.PersistentFlags().StringVarP(&a.opts.networkFile, "network", "n", "", "network document to load")
	rootCmd.PersistentFlags().StringVar(&a.opts.logLevel, "log-level", "", "override the configured log level")
	rootCmd.PersistentFlags().StringVar(&a.opts.state, "state", "", "network state to trace: normal or current (default from config)")

	rootCmd.AddCommand(
		newPhasesCmd(a),
		newDirectionCmd(a),
		newFeedersCmd(a),
		newConnectedCmd(a),
		newTreeCmd(a),
		newSnapshotCmd(a),
		newValidateCmd(a),
		newExportCmd(a),
		newServeCmd(a),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.opts.cfgFile)
	if err != nil {
		return err
	}
	if err := a.applyOverrides(cfg); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logging.NewJSONLogger(cmd.ErrOrStderr(), cfg.Level()).
		With(logging.Component("gridtrace"), logging.String("command", cmd.Name()))
	a.metrics = metrics.NewRegistry()
	return nil
}

// applyOverrides applies the root flags on top of cfg.
func (a *app) applyOverrides(cfg *config.Config) error {
	if a.opts.logLevel != "" {
		cfg.LogLevel = strings.ToLower(a.opts.logLevel)
	}
	if a.opts.state != "" {
		cfg.State = strings.ToLower(a.opts.state)
	}
	return cfg.Validate()
}

// state returns the operators for the configured network state.
func (a *app) state() (networktrace.NetworkStateOperators, error) {
	return a.ops.Select(a.cfg.State)
}

// loadNetwork reads the document named by --network.
func (a *app) loadNetwork() (*cim.Network, error) {
	if a.opts.networkFile == "" {
		return nil, errors.New("no network document: use --network")
	}

	timer := logging.StartTimer(a.logger, "network loaded", logging.Path(a.opts.networkFile))
	network, err := netio.LoadNetwork(a.opts.networkFile)
	if err != nil {
		timer.EndError(err)
		return nil, err
	}

	kinds := make(map[string]int)
	for _, eq := range network.AllEquipment() {
		kinds[string(eq.Kind())]++
	}
	a.metrics.UpdateNetworkMetrics(kinds, len(network.AllTerminals()))
	timer.End(logging.Int("equipment", len(network.AllEquipment())), logging.Int("terminals", len(network.AllTerminals())))
	return network, nil
}

// findEquipment resolves mRIDs to equipment.
func findEquipment(network *cim.Network, mRIDs []string) ([]cim.ConductingEquipment, error) {
	out := make([]cim.ConductingEquipment, 0, len(mRIDs))
	for _, mRID := range mRIDs {
		eq, err := network.Equipment(mRID)
		if err != nil {
			return nil, err
		}
		out = append(out, eq)
	}
	return out, nil
}
