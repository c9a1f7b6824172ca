package main

import (
	"github.com/spf13/cobra"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/clustergate/hostgate/internal/cli"
)

func newCheckCommand() *cobra.Command {
	var (
		cfgFlags configFlags
		noEmail  bool
		quiet    bool
		output   string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one health check and exit with the verdict",
		Long: `Run one health check: sample the host, probe configured services, classify,
write the report and dispatch an alert when the policy triggers.

Exit status is 0 for HEALTHY, 1 for WARNING, 2 for CRITICAL, 3 when the run
could not complete (invalid configuration, report write failure) and 130 when
interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return fatal(err)
			}
			cfg, err := cfgFlags.load()
			if err != nil {
				return fatal(err)
			}
			ctx := cmd.Context()
			log.FromContext(ctx).V(1).Info("configuration loaded", "source", cfg.Source)

			pipeline, err := cli.NewPipeline(cfg, cli.BuildOptions{DisableAlerts: noEmail})
			if err != nil {
				return fatal(err)
			}
			res := pipeline.Run(ctx)

			if !quiet && res.Snapshot != nil {
				out := cmd.OutOrStdout()
				switch output {
				case outputJSON:
					if err := cli.FormatJSON(out, res); err != nil {
						return fatal(err)
					}
				default:
					cli.FormatText(out, res.Snapshot)
					cli.FormatOutcome(out, res, cfg.Alerts.Enabled && !noEmail)
				}
			}

			if code := res.ExitCode(); code != cli.ExitHealthy || res.Err != nil {
				return &exitError{code: code, err: res.Err}
			}
			return nil
		},
	}

	cfgFlags.bind(cmd)
	cmd.Flags().BoolVar(&noEmail, "no-email", false, "Disable alert delivery for this run")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress console output")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text or json")
	return cmd
}
