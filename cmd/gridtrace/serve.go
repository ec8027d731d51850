package main

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-gridtrace/pkg/cim"
	"github.com/dd0wney/cluso-gridtrace/pkg/config"
	"github.com/dd0wney/cluso-gridtrace/pkg/health"
	"github.com/dd0wney/cluso-gridtrace/pkg/logging"
	"github.com/dd0wney/cluso-gridtrace/pkg/server"
)

const systemMetricsInterval = 15 * time.Second

type serveOpts struct {
	addr           string
	snapshotMaxAge time.Duration
}

func newServeCmd(a *app) *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Energise the network and serve metrics and health endpoints until stopped",
		Long: `serve loads and energises the network, then serves /metrics, /health,
/ready and /live. SIGHUP reloads the config and the network document;
SIGINT or SIGTERM shut the server down gracefully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr := a.cfg.Metrics.Addr
			if opts.addr != "" {
				addr = opts.addr
			}

			var current atomic.Pointer[cim.Network]
			load := func(ctx context.Context) error {
				network, err := a.loadNetwork()
				if err != nil {
					return err
				}
				if err := a.energiseAll(ctx, network); err != nil {
					return err
				}
				current.Store(network)
				return nil
			}
			if err := load(cmd.Context()); err != nil {
				return err
			}

			checker := health.NewChecker()
			a.registerChecks(checker, current.Load, opts.snapshotMaxAge)

			mux := http.NewServeMux()
			mux.Handle("/metrics", a.metrics.Handler())
			checker.Mount(mux)

			srv := server.NewGracefulServer(addr, mux, a.logger)
			srv.SetReloadFunc(func() error {
				cfg, err := config.Load(a.opts.cfgFile)
				if err != nil {
					return err
				}
				if err := a.applyOverrides(cfg); err != nil {
					return err
				}
				a.cfg = cfg
				a.logger.SetLevel(cfg.Level())
				a.logger.Info("config reloaded", logging.String("state", cfg.State), logging.String("log_level", cfg.LogLevel))
				return load(cmd.Context())
			})

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			go a.refreshSystemMetrics(ctx)

			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config metrics.addr)")
	cmd.Flags().DurationVar(&opts.snapshotMaxAge, "snapshot-max-age", 0, "report the snapshot as degraded when older than this")
	return cmd
}

func (a *app) registerChecks(c *health.Checker, getNetwork func() *cim.Network, snapshotMaxAge time.Duration) {
	c.Register(health.KindHealth, "network", health.NetworkCheck(getNetwork))
	c.Register(health.KindHealth, "normal_phases", health.PhasesCheck(getNetwork, false))
	c.Register(health.KindHealth, "current_phases", health.PhasesCheck(getNetwork, true))
	c.Register(health.KindHealth, "memory", health.MemoryCheck(health.RuntimeMemory))
	if a.cfg.Snapshot.Path != "" {
		c.Register(health.KindHealth, "snapshot", health.SnapshotCheck(a.cfg.Snapshot.Path, snapshotMaxAge))
	}

	c.Register(health.KindReadiness, "network", health.NetworkCheck(getNetwork))
	c.Register(health.KindReadiness, "normal_phases", health.PhasesCheck(getNetwork, false))

	c.Register(health.KindLiveness, "memory", health.MemoryCheck(health.RuntimeMemory))
}

func (a *app) refreshSystemMetrics(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	a.metrics.UpdateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.metrics.UpdateSystemMetrics()
		}
	}
}
