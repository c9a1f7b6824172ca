package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/clustergate/hostgate/internal/cli"
	"github.com/clustergate/hostgate/internal/metrics"
	"github.com/clustergate/hostgate/internal/scheduler"
	"github.com/clustergate/hostgate/internal/server"
)

func newWatchCommand() *cobra.Command {
	var (
		cfgFlags configFlags
		schedule string
		listen   string
		noEmail  bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run health checks on a schedule and serve the latest result over HTTP",
		Long: `Run health checks on a cron schedule until interrupted. The latest snapshot is
served on /readyz and /api/v1/report, scheduler liveness on /healthz and
Prometheus metrics on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cfgFlags.load()
			if err != nil {
				return fatal(err)
			}
			if schedule == "" {
				schedule = cfg.Watch.Schedule
			}
			if listen == "" {
				listen = cfg.Watch.Listen
			}

			sched, err := scheduler.New(schedule)
			if err != nil {
				return fatal(err)
			}

			rec := metrics.NewRecorder()
			rec.RegisterRuntimeCollectors()
			pipeline, err := cli.NewPipeline(cfg, cli.BuildOptions{DisableAlerts: noEmail, Metrics: rec})
			if err != nil {
				return fatal(err)
			}

			state := server.NewSnapshotState()
			router := server.NewRouter(server.Options{
				State:   state,
				Metrics: rec.Handler(),
				Checks:  map[string]healthz.Checker{"scheduler": sched.Check},
			})

			ctx := cmd.Context()
			log.FromContext(ctx).Info("watch mode", "schedule", schedule, "listen", listen, "config", cfg.Source)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.Serve(gctx, listen, router)
			})
			g.Go(func() error {
				return sched.Run(gctx, func(ctx context.Context) {
					res := pipeline.Run(ctx)
					if errors.Is(res.Err, cli.ErrInterrupted) {
						return
					}
					state.Update(res.Snapshot)
				})
			})

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return fatal(err)
			}
			return nil
		},
	}

	cfgFlags.bind(cmd)
	cmd.Flags().StringVar(&schedule, "schedule", "", `Cron expression or descriptor, e.g. "@every 5m" (default from config)`)
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (default from config)")
	cmd.Flags().BoolVar(&noEmail, "no-email", false, "Disable alert delivery")
	return cmd
}
