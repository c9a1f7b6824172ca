package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/clustergate/hostgate/api/v1alpha1"
)

const (
	// DefaultTimeout bounds a single probe when the target sets none.
	DefaultTimeout = 5 * time.Second

	// DefaultMaxConcurrency caps the number of probes in flight.
	DefaultMaxConcurrency = 4
)

// RunnerOptions tunes a Runner.
type RunnerOptions struct {
	MaxConcurrency int
	DefaultTimeout time.Duration
}

// Runner probes a batch of targets with bounded parallelism.
type Runner struct {
	registry *Registry
	opts     RunnerOptions
	now      func() time.Time
}

// NewRunner creates a Runner resolving probers through reg.
func NewRunner(reg *Registry, opts RunnerOptions) *Runner {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = DefaultTimeout
	}
	return &Runner{registry: reg, opts: opts, now: time.Now}
}

// ProbeAll probes every target and returns one result per target in input order.
// It never fails: every outcome, including timeouts and panics, is a result.
func (r *Runner) ProbeAll(ctx context.Context, targets []Target) []v1alpha1.ConnectivityResult {
	results := make([]v1alpha1.ConnectivityResult, len(targets))

	g := new(errgroup.Group)
	g.SetLimit(r.opts.MaxConcurrency)
	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			results[i] = r.probeOne(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (r *Runner) probeOne(ctx context.Context, t Target) v1alpha1.ConnectivityResult {
	logger := log.FromContext(ctx).WithValues("probe", t.Name, "type", t.Type)

	result := v1alpha1.ConnectivityResult{
		Name: t.Name,
		Type: t.Type,
		Host: t.Host,
		Port: t.Port,
	}

	p, capability := r.registry.Lookup(t.Type)
	switch capability {
	case Unrecognized:
		result.State = v1alpha1.ConnectionUnknown
		result.Message = fmt.Sprintf("Unknown service type: %s", t.Type)
		return result
	case Unsupported:
		canonical, _ := Canonical(t.Type)
		result.State = v1alpha1.ConnectionSkipped
		result.Message = fmt.Sprintf("%s support is not available in this build", canonical)
		return result
	case Available:
	}

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = r.opts.DefaultTimeout
	}

	start := r.now()
	detail, err := runWithTimeout(ctx, timeout, p, t)
	result.LatencyMS = r.now().Sub(start).Milliseconds()

	if err != nil {
		result.State = v1alpha1.ConnectionFailed
		result.Message = describeFailure(ctx, err, timeout)
		logger.V(1).Info("probe failed", "error", result.Message)
		return result
	}

	result.State = v1alpha1.ConnectionConnected
	result.Message = "Connection successful"
	if detail != "" {
		result.Message += " (" + detail + ")"
	}
	logger.V(1).Info("probe connected", "latencyMs", result.LatencyMS)
	return result
}

// runWithTimeout returns when the prober finishes or the deadline passes,
// whichever is first, so a driver that ignores ctx cannot stall the batch.
func runWithTimeout(ctx context.Context, timeout time.Duration, p Prober, t Target) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		detail string
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{err: fmt.Errorf("prober panicked: %v", rec)}
			}
		}()
		detail, err := p.Probe(pctx, t)
		done <- outcome{detail: detail, err: err}
	}()

	select {
	case o := <-done:
		return o.detail, o.err
	case <-pctx.Done():
		return "", pctx.Err()
	}
}

func describeFailure(parent context.Context, err error, timeout time.Duration) string {
	switch {
	case parent.Err() != nil:
		return fmt.Sprintf("probe cancelled: %v", parent.Err())
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("connection timed out after %s", timeout)
	default:
		return err.Error()
	}
}
