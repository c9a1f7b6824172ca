// Package cli runs one health pass end to end and maps the verdict onto
// process exit codes.
package cli

import (
	"context"
	"errors"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/clustergate/hostgate/api/v1alpha1"
	"github.com/clustergate/hostgate/internal/alert"
	"github.com/clustergate/hostgate/internal/metrics"
)

// Process exit codes.
const (
	ExitHealthy     = 0
	ExitWarning     = 1
	ExitCritical    = 2
	ExitFatal       = 3
	ExitInterrupted = 130
)

// ErrInterrupted marks a run cancelled before its snapshot was persisted.
var ErrInterrupted = errors.New("run interrupted")

// ExitCodeFor maps a severity onto its exit code.
func ExitCodeFor(s v1alpha1.Severity) int {
	switch s {
	case v1alpha1.SeverityHealthy:
		return ExitHealthy
	case v1alpha1.SeverityWarning:
		return ExitWarning
	case v1alpha1.SeverityCritical:
		return ExitCritical
	default:
		return ExitFatal
	}
}

// Aggregator produces a fresh snapshot per call.
type Aggregator interface {
	Run(ctx context.Context) *v1alpha1.HealthSnapshot
}

// ReportWriter persists a snapshot and returns where it went.
type ReportWriter interface {
	Write(ctx context.Context, snap *v1alpha1.HealthSnapshot) (string, error)
}

// AlertDispatcher evaluates and delivers alerts.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, snap *v1alpha1.HealthSnapshot) alert.Outcome
}

// MetricsExport says where to send metrics after a run. Empty fields are skipped.
type MetricsExport struct {
	TextfilePath   string
	PushgatewayURL string
	Job            string
}

// Pipeline wires one run: aggregate, persist, alert, export metrics.
type Pipeline struct {
	Aggregator Aggregator
	Reports    ReportWriter

	// Alerts and Metrics are optional.
	Alerts  AlertDispatcher
	Metrics *metrics.Recorder
	Export  MetricsExport

	Now func() time.Time
}

// RunResult is everything one run produced.
type RunResult struct {
	Snapshot   *v1alpha1.HealthSnapshot `json:"snapshot"`
	ReportPath string                   `json:"reportPath,omitempty"`
	Alert      alert.Outcome            `json:"alert"`
	Duration   time.Duration            `json:"duration"`

	// Err is set when the run failed fatally or was interrupted.
	Err error `json:"-"`
}

// ExitCode maps the result onto the process exit contract.
func (r *RunResult) ExitCode() int {
	switch {
	case errors.Is(r.Err, ErrInterrupted):
		return ExitInterrupted
	case r.Err != nil:
		return ExitFatal
	case r.Snapshot == nil:
		return ExitFatal
	default:
		return ExitCodeFor(r.Snapshot.Overall)
	}
}

// Run performs one pass. A report write failure is fatal and suppresses the
// alert; alert and metrics export failures are logged and the run continues.
func (p *Pipeline) Run(ctx context.Context) *RunResult {
	logger := log.FromContext(ctx)
	now := p.Now
	if now == nil {
		now = time.Now
	}
	start := now()

	res := &RunResult{}
	res.Snapshot = p.Aggregator.Run(ctx)
	defer func() { res.Duration = now().Sub(start) }()

	if err := ctx.Err(); err != nil {
		res.Err = errors.Join(ErrInterrupted, err)
		logger.Info("run interrupted before the report was written")
		return res
	}

	path, err := p.Reports.Write(ctx, res.Snapshot)
	if err != nil {
		res.Err = err
		logger.Error(err, "unable to persist health report")
		return res
	}
	res.ReportPath = path

	if p.Alerts != nil {
		res.Alert = p.Alerts.Dispatch(ctx, res.Snapshot)
	} else {
		res.Alert = alert.Outcome{Reason: "alerts disabled"}
	}

	if p.Metrics != nil {
		p.Metrics.RecordAlert(res.Alert.Result())
		p.Metrics.Observe(res.Snapshot, now().Sub(start))
		p.export(ctx, res.Snapshot.System.Hostname)
	}

	logger.Info("health run complete",
		"overall", res.Snapshot.Overall.String(),
		"report", res.ReportPath,
		"alert", res.Alert.Result())
	return res
}

func (p *Pipeline) export(ctx context.Context, instance string) {
	logger := log.FromContext(ctx)

	if p.Export.TextfilePath != "" {
		if err := p.Metrics.WriteTextfile(p.Export.TextfilePath); err != nil {
			logger.Error(err, "metrics textfile export failed")
		}
	}
	if p.Export.PushgatewayURL != "" {
		if err := p.Metrics.Push(ctx, p.Export.PushgatewayURL, p.Export.Job, instance); err != nil {
			logger.Error(err, "metrics push failed")
		}
	}
}
