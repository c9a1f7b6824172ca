package cli

import (
	"github.com/clustergate/hostgate/internal/alert"
	"github.com/clustergate/hostgate/internal/config"
	"github.com/clustergate/hostgate/internal/health"
	"github.com/clustergate/hostgate/internal/metrics"
	"github.com/clustergate/hostgate/internal/probe"
	"github.com/clustergate/hostgate/internal/probe/builtin"
	"github.com/clustergate/hostgate/internal/report"
	"github.com/clustergate/hostgate/internal/sampler"
)

// BuildOptions adjusts a pipeline beyond what the configuration file says.
type BuildOptions struct {
	// DisableAlerts suppresses delivery regardless of alerts.enabled.
	DisableAlerts bool

	// Registry overrides the compiled-in probers.
	Registry *probe.Registry

	// Metrics is shared with a long-running server; nil creates a fresh recorder.
	Metrics *metrics.Recorder
}

// NewPipeline wires the sampler, probers, report sink, alert dispatcher and
// metrics recorder from cfg.
func NewPipeline(cfg *config.Config, opts BuildOptions) (*Pipeline, error) {
	reg := opts.Registry
	if reg == nil {
		reg = builtin.NewRegistry()
	}

	s := sampler.New(sampler.Options{
		CPUInterval:  cfg.Sampling.CPUInterval.Duration,
		TopProcesses: cfg.Sampling.TopProcesses,
	})
	runner := probe.NewRunner(reg, probe.RunnerOptions{
		MaxConcurrency: cfg.Connectivity.MaxConcurrency,
		DefaultTimeout: cfg.Connectivity.DefaultTimeout.Duration,
	})
	agg := health.NewAggregator(s, runner, health.Options{
		Thresholds:   cfg.Thresholds,
		Targets:      cfg.Targets(),
		ProbeEnabled: cfg.Connectivity.CheckEnabled,
	})

	dispatcher, err := alert.FromConfig(cfg.Alerts)
	if err != nil {
		return nil, err
	}
	if opts.DisableAlerts {
		dispatcher.Disable()
	}

	rec := opts.Metrics
	if rec == nil {
		rec = metrics.NewRecorder()
	}

	return &Pipeline{
		Aggregator: agg,
		Reports: report.NewSink(report.Options{
			Dir:         cfg.Report.Path,
			KeepHistory: cfg.Report.KeepHistory,
			Format:      cfg.Report.Format,
		}),
		Alerts:  dispatcher,
		Metrics: rec,
		Export: MetricsExport{
			TextfilePath:   cfg.Metrics.TextfilePath,
			PushgatewayURL: cfg.Metrics.PushgatewayURL,
			Job:            cfg.Metrics.Job,
		},
	}, nil
}
