package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/clustergate/hostgate/internal/config"
)

const (
	outputText = "text"
	outputJSON = "json"
)

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := zap.Options{}
	zapFlags := flag.NewFlagSet("zap", flag.ContinueOnError)
	opts.BindFlags(zapFlags)

	root := &cobra.Command{
		Use:   "hostgate",
		Short: "Host health monitoring with threshold classification and alerting",
		Long: `hostgate samples CPU, memory, disk, network and process usage, probes the
external services a host depends on, classifies the result as HEALTHY, WARNING
or CRITICAL, persists a report and sends an alert when the policy says so.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger := zap.New(zap.UseFlagOptions(&opts), zap.WriteTo(stderr))
			log.SetLogger(logger)
			cmd.SetContext(log.IntoContext(cmd.Context(), logger))
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().AddGoFlagSet(zapFlags)

	root.AddCommand(
		newCheckCommand(),
		newWatchCommand(),
		newShowCommand(),
		newVersionCommand(),
	)
	return root
}

// configFlags are shared by every command that reads the configuration file.
type configFlags struct {
	path    string
	envFile string
}

func (f *configFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.path, "config", "config.json", "Path to the configuration file (YAML or JSON)")
	cmd.Flags().StringVar(&f.envFile, "env-file", "", "Optional .env file loaded before the configuration")
}

func (f *configFlags) load() (*config.Config, error) {
	if f.envFile != "" {
		if err := config.LoadEnvFile(f.envFile); err != nil {
			return nil, err
		}
	}
	return config.Load(f.path)
}

func validateOutput(output string) error {
	switch output {
	case outputText, outputJSON:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q: use %s or %s", output, outputText, outputJSON)
	}
}
