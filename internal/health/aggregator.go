// Package health turns raw samples and probe results into a classified,
// immutable HealthSnapshot.
package health

import (
	"context"
	"time"

	"github.com/google/uuid"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/clustergate/hostgate/api/v1alpha1"
	"github.com/clustergate/hostgate/internal/probe"
	"github.com/clustergate/hostgate/internal/sampler"
)

// MetricSampler reads host resources. A subsystem that cannot be read is
// reported as unavailable inside the Sample, never as an error.
type MetricSampler interface {
	Sample(ctx context.Context) sampler.Sample
}

// ConnectivityProber probes configured services, one result per target in order.
type ConnectivityProber interface {
	ProbeAll(ctx context.Context, targets []probe.Target) []v1alpha1.ConnectivityResult
}

// State is a phase of a single aggregation pass.
type State int

const (
	StateIdle State = iota
	StateSampling
	StateProbing
	StateClassifying
	StateSnapshotReady
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateSampling:
		return "Sampling"
	case StateProbing:
		return "Probing"
	case StateClassifying:
		return "Classifying"
	case StateSnapshotReady:
		return "SnapshotReady"
	default:
		return "Invalid"
	}
}

// Options configures an Aggregator. The values are read once per run and never mutated.
type Options struct {
	Thresholds v1alpha1.Thresholds

	// Targets are probed only when ProbeEnabled is set and the list is non-empty.
	Targets      []probe.Target
	ProbeEnabled bool

	Now          func() time.Time
	NewRunID     func() string
	OnTransition func(from, to State)
}

// Aggregator drives one linear pass: sample, optionally probe, classify.
type Aggregator struct {
	sampler MetricSampler
	prober  ConnectivityProber
	opts    Options
}

// NewAggregator creates an Aggregator. prober may be nil when probing is disabled.
func NewAggregator(s MetricSampler, p ConnectivityProber, opts Options) *Aggregator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewRunID == nil {
		opts.NewRunID = func() string { return uuid.NewString() }
	}
	return &Aggregator{sampler: s, prober: p, opts: opts}
}

// ShouldProbe reports whether a run will enter the probing phase.
func (a *Aggregator) ShouldProbe() bool {
	return a.opts.ProbeEnabled && len(a.opts.Targets) > 0 && a.prober != nil
}

// Run performs a fresh pass and returns the finished snapshot. There are no
// retries; a cancelled ctx still yields a snapshot with degraded parts.
func (a *Aggregator) Run(ctx context.Context) *v1alpha1.HealthSnapshot {
	runID := a.opts.NewRunID()
	logger := log.FromContext(ctx).WithName("aggregator").WithValues("run", runID)
	ctx = log.IntoContext(ctx, logger)

	state := StateIdle
	advance := func(next State) {
		logger.V(1).Info("state transition", "from", state.String(), "to", next.String())
		if a.opts.OnTransition != nil {
			a.opts.OnTransition(state, next)
		}
		state = next
	}

	started := a.opts.Now()
	b := NewBuilder(runID, started.UTC(), a.opts.Thresholds)

	advance(StateSampling)
	sample := a.sampler.Sample(ctx)
	b.WithSystem(sample.System).
		WithCPU(sample.CPU).
		WithMemory(sample.Memory).
		WithDisk(sample.Disk).
		WithNetwork(sample.Network).
		WithProcesses(sample.Processes)

	if a.ShouldProbe() {
		advance(StateProbing)
		b.WithConnectivity(a.prober.ProbeAll(ctx, a.opts.Targets))
	}

	advance(StateClassifying)
	snap := b.Build()

	advance(StateSnapshotReady)
	logger.Info("health snapshot ready",
		"overall", snap.Overall.String(),
		"cpu", snap.CPU.Severity.String(),
		"memory", snap.Memory.Severity.String(),
		"disk", snap.Disk.Severity.String(),
		"probes", len(snap.Connectivity),
		"elapsed", a.opts.Now().Sub(started).String())
	return snap
}

func metaHealthSnapshot() metav1.TypeMeta {
	return metav1.TypeMeta{
		APIVersion: v1alpha1.GroupVersion,
		Kind:       v1alpha1.KindHealthSnapshot,
	}
}
