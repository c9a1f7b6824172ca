package main

import (
	"github.com/spf13/cobra"

	"github.com/clustergate/hostgate/internal/cli"
	"github.com/clustergate/hostgate/internal/report"
)

func newShowCommand() *cobra.Command {
	var (
		cfgFlags configFlags
		output   string
	)

	cmd := &cobra.Command{
		Use:   "show [report-file]",
		Short: "Print a persisted health report",
		Long: `Print a persisted health report. Without an argument the latest report in the
configured report directory is shown. Exit status follows the stored verdict.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return fatal(err)
			}

			var path string
			if len(args) == 1 {
				path = args[0]
			} else {
				cfg, err := cfgFlags.load()
				if err != nil {
					return fatal(err)
				}
				path = report.LatestPath(cfg.Report.Path, cfg.Report.Format)
			}

			snap, err := report.Read(path)
			if err != nil {
				return fatal(err)
			}

			out := cmd.OutOrStdout()
			switch output {
			case outputJSON:
				if err := cli.FormatJSON(out, snap); err != nil {
					return fatal(err)
				}
			default:
				cli.FormatText(out, snap)
			}

			if code := cli.ExitCodeFor(snap.Overall); code != cli.ExitHealthy {
				return &exitError{code: code}
			}
			return nil
		},
	}

	cfgFlags.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text or json")
	return cmd
}
