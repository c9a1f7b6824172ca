package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clustergate/hostgate/api/v1alpha1"
	"github.com/clustergate/hostgate/internal/probe"
	"github.com/clustergate/hostgate/internal/sampler"
)

type fixedSampler struct {
	sample sampler.Sample
	calls  int
}

func (f *fixedSampler) Sample(context.Context) sampler.Sample {
	f.calls++
	return f.sample
}

type fixedProber struct {
	results []v1alpha1.ConnectivityResult
	got     []probe.Target
}

func (f *fixedProber) ProbeAll(_ context.Context, targets []probe.Target) []v1alpha1.ConnectivityResult {
	f.got = targets
	return f.results
}

func hostSample(cpu, mem float64, disks ...float64) sampler.Sample {
	s := sampler.Sample{
		System:    v1alpha1.HostInfo{Hostname: "web-1", OS: "linux"},
		CPU:       v1alpha1.CPUReading{Availability: v1alpha1.Ready(), Percent: cpu, PerCore: []float64{cpu}},
		Memory:    v1alpha1.MemoryReading{Availability: v1alpha1.Ready(), Percent: mem},
		Disk:      v1alpha1.DiskReport{Availability: v1alpha1.Ready()},
		Network:   v1alpha1.NetworkReading{Availability: v1alpha1.Ready()},
		Processes: v1alpha1.ProcessReport{Availability: v1alpha1.Ready(), Total: 3},
	}
	for i, d := range disks {
		s.Disk.Partitions = append(s.Disk.Partitions, v1alpha1.DiskReading{
			Device:     "/dev/sd" + string(rune('a'+i)),
			Mountpoint: "/mnt/" + string(rune('a'+i)),
			Percent:    d,
		})
	}
	return s
}

func fixedClock() func() time.Time {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	return func() time.Time { return ts }
}

func TestAggregator_EndToEndCritical(t *testing.T) {
	agg := NewAggregator(&fixedSampler{sample: hostSample(70, 45, 95)}, nil, Options{
		Thresholds: v1alpha1.DefaultThresholds(),
		Now:        fixedClock(),
		NewRunID:   func() string { return "run-1" },
	})

	snap := agg.Run(context.Background())

	assert.Equal(t, v1alpha1.SeverityWarning, snap.CPU.Severity)
	assert.Equal(t, v1alpha1.SeverityHealthy, snap.Memory.Severity)
	assert.Equal(t, v1alpha1.SeverityCritical, snap.Disk.Severity)
	assert.Equal(t, v1alpha1.SeverityCritical, snap.Overall)
	assert.Empty(t, snap.Connectivity)
	assert.Equal(t, "run-1", snap.RunID)
	assert.Equal(t, v1alpha1.KindHealthSnapshot, snap.Kind)
	assert.Equal(t, v1alpha1.GroupVersion, snap.APIVersion)
	assert.Equal(t, v1alpha1.DefaultThresholds(), snap.Thresholds)
}

func TestAggregator_WorstDiskDrivesSubsystem(t *testing.T) {
	agg := NewAggregator(&fixedSampler{sample: hostSample(10, 10, 10, 65, 20)}, nil, Options{
		Thresholds: v1alpha1.DefaultThresholds(),
	})

	snap := agg.Run(context.Background())

	require.Len(t, snap.Disk.Partitions, 3)
	assert.Equal(t, v1alpha1.SeverityHealthy, snap.Disk.Partitions[0].Severity)
	assert.Equal(t, v1alpha1.SeverityWarning, snap.Disk.Partitions[1].Severity)
	assert.Equal(t, v1alpha1.SeverityHealthy, snap.Disk.Partitions[2].Severity)
	assert.Equal(t, v1alpha1.SeverityWarning, snap.Disk.Severity)
	assert.Equal(t, v1alpha1.SeverityWarning, snap.Overall)
}

func TestAggregator_NoPartitionsIsHealthy(t *testing.T) {
	snap := NewAggregator(&fixedSampler{sample: hostSample(1, 1)}, nil, Options{
		Thresholds: v1alpha1.DefaultThresholds(),
	}).Run(context.Background())

	assert.Equal(t, v1alpha1.SeverityHealthy, snap.Disk.Severity)
	assert.Equal(t, v1alpha1.SeverityHealthy, snap.Overall)
}

func TestAggregator_UnavailableSubsystemDoesNotElevate(t *testing.T) {
	s := hostSample(99, 10)
	s.CPU.Availability = v1alpha1.Unavailable("cpu: permission denied")

	snap := NewAggregator(&fixedSampler{sample: s}, nil, Options{
		Thresholds: v1alpha1.DefaultThresholds(),
	}).Run(context.Background())

	assert.False(t, snap.CPU.Available)
	assert.Equal(t, v1alpha1.SeverityHealthy, snap.CPU.Severity)
	assert.Equal(t, v1alpha1.SeverityHealthy, snap.Overall)
}

func TestAggregator_ProbingPhase(t *testing.T) {
	targets := []probe.Target{{Name: "pg", Type: "postgresql", Host: "db", Port: 5432}}

	tests := []struct {
		name      string
		enabled   bool
		targets   []probe.Target
		results   []v1alpha1.ConnectivityResult
		wantProbe bool
		want      v1alpha1.Severity
	}{
		{
			name:    "disabled skips probing",
			enabled: false,
			targets: targets,
			want:    v1alpha1.SeverityHealthy,
		},
		{
			name:    "no entries skips probing",
			enabled: true,
			want:    v1alpha1.SeverityHealthy,
		},
		{
			name:      "skipped driver does not elevate",
			enabled:   true,
			targets:   targets,
			results:   []v1alpha1.ConnectivityResult{{Name: "pg", State: v1alpha1.ConnectionSkipped}},
			wantProbe: true,
			want:      v1alpha1.SeverityHealthy,
		},
		{
			name:      "failed probe elevates to critical",
			enabled:   true,
			targets:   targets,
			results:   []v1alpha1.ConnectivityResult{{Name: "pg", State: v1alpha1.ConnectionFailed, Message: "refused"}},
			wantProbe: true,
			want:      v1alpha1.SeverityCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := &fixedProber{results: tt.results}
			var states []State
			agg := NewAggregator(&fixedSampler{sample: hostSample(10, 10, 10)}, prober, Options{
				Thresholds:   v1alpha1.DefaultThresholds(),
				Targets:      tt.targets,
				ProbeEnabled: tt.enabled,
				OnTransition: func(_, to State) { states = append(states, to) },
			})

			snap := agg.Run(context.Background())

			assert.Equal(t, tt.want, snap.Overall)
			assert.Equal(t, tt.wantProbe, agg.ShouldProbe())
			if tt.wantProbe {
				assert.Equal(t, tt.targets, prober.got)
				assert.Equal(t, []State{StateSampling, StateProbing, StateClassifying, StateSnapshotReady}, states)
			} else {
				assert.Nil(t, prober.got)
				assert.Equal(t, []State{StateSampling, StateClassifying, StateSnapshotReady}, states)
			}
		})
	}
}

func TestAggregator_OverallIsAtLeastEverySubsystem(t *testing.T) {
	values := []float64{0, 30, 60, 70, 80, 99}
	for _, cpu := range values {
		for _, mem := range values {
			for _, disk := range values {
				snap := NewAggregator(&fixedSampler{sample: hostSample(cpu, mem, disk)}, nil, Options{
					Thresholds: v1alpha1.DefaultThresholds(),
				}).Run(context.Background())

				for _, sub := range []v1alpha1.Severity{snap.CPU.Severity, snap.Memory.Severity, snap.Disk.Severity} {
					if snap.Overall < sub {
						t.Fatalf("cpu=%v mem=%v disk=%v: overall %s below subsystem %s", cpu, mem, disk, snap.Overall, sub)
					}
				}
			}
		}
	}
}

func TestAggregator_EachRunStartsFresh(t *testing.T) {
	fs := &fixedSampler{sample: hostSample(10, 10)}
	n := 0
	agg := NewAggregator(fs, nil, Options{
		Thresholds: v1alpha1.DefaultThresholds(),
		NewRunID: func() string {
			n++
			return "run-" + string(rune('0'+n))
		},
	})

	first := agg.Run(context.Background())
	second := agg.Run(context.Background())

	assert.Equal(t, 2, fs.calls)
	assert.Equal(t, "run-1", first.RunID)
	assert.Equal(t, "run-2", second.RunID)
	assert.NotSame(t, first, second)
}

func TestBuilder_CopiesInputs(t *testing.T) {
	perCore := []float64{10, 20}
	results := []v1alpha1.ConnectivityResult{{Name: "pg", State: v1alpha1.ConnectionConnected}}

	snap := NewBuilder("r", time.Unix(0, 0).UTC(), v1alpha1.DefaultThresholds()).
		WithCPU(v1alpha1.CPUReading{Availability: v1alpha1.Ready(), Percent: 15, PerCore: perCore}).
		WithConnectivity(results).
		Build()

	perCore[0] = 99
	results[0].State = v1alpha1.ConnectionFailed

	assert.Equal(t, 10.0, snap.CPU.PerCore[0])
	assert.Equal(t, v1alpha1.ConnectionConnected, snap.Connectivity[0].State)
	assert.Equal(t, v1alpha1.SeverityHealthy, snap.Overall)
	assert.False(t, snap.Memory.Available, "unset parts default to unavailable")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Probing", StateProbing.String())
	assert.Equal(t, "Invalid", State(42).String())
}
