package health

import (
	"slices"
	"time"

	"github.com/clustergate/hostgate/api/v1alpha1"
)

// Builder assembles independently sampled parts into one HealthSnapshot.
// Parts are copied in, classified against the thresholds, and frozen by Build.
type Builder struct {
	runID      string
	timestamp  time.Time
	thresholds v1alpha1.Thresholds

	system       v1alpha1.HostInfo
	cpu          v1alpha1.CPUReading
	memory       v1alpha1.MemoryReading
	disk         v1alpha1.DiskReport
	network      v1alpha1.NetworkReading
	processes    v1alpha1.ProcessReport
	connectivity []v1alpha1.ConnectivityResult
}

// NewBuilder starts a snapshot for one run.
func NewBuilder(runID string, timestamp time.Time, thresholds v1alpha1.Thresholds) *Builder {
	return &Builder{
		runID:      runID,
		timestamp:  timestamp,
		thresholds: thresholds,
		cpu:        v1alpha1.CPUReading{Availability: v1alpha1.Unavailable("not sampled")},
		memory:     v1alpha1.MemoryReading{Availability: v1alpha1.Unavailable("not sampled")},
		disk:       v1alpha1.DiskReport{Availability: v1alpha1.Unavailable("not sampled")},
		network:    v1alpha1.NetworkReading{Availability: v1alpha1.Unavailable("not sampled")},
		processes:  v1alpha1.ProcessReport{Availability: v1alpha1.Unavailable("not sampled")},
	}
}

func (b *Builder) WithSystem(h v1alpha1.HostInfo) *Builder {
	b.system = h
	return b
}

func (b *Builder) WithCPU(r v1alpha1.CPUReading) *Builder {
	r.PerCore = slices.Clone(r.PerCore)
	if r.Load != nil {
		load := *r.Load
		r.Load = &load
	}
	b.cpu = r
	return b
}

func (b *Builder) WithMemory(r v1alpha1.MemoryReading) *Builder {
	b.memory = r
	return b
}

func (b *Builder) WithDisk(r v1alpha1.DiskReport) *Builder {
	r.Partitions = slices.Clone(r.Partitions)
	b.disk = r
	return b
}

func (b *Builder) WithNetwork(r v1alpha1.NetworkReading) *Builder {
	b.network = r
	return b
}

func (b *Builder) WithProcesses(r v1alpha1.ProcessReport) *Builder {
	r.TopCPU = slices.Clone(r.TopCPU)
	b.processes = r
	return b
}

func (b *Builder) WithConnectivity(results []v1alpha1.ConnectivityResult) *Builder {
	b.connectivity = slices.Clone(results)
	return b
}

// Build classifies every quantitative reading and returns the finished snapshot.
// The builder must not be reused afterwards.
func (b *Builder) Build() *v1alpha1.HealthSnapshot {
	cpu := b.cpu
	cpu.Severity = v1alpha1.SeverityHealthy
	if cpu.Available {
		cpu.Severity = Classify(cpu.Percent, b.thresholds.CPU)
	}

	memory := b.memory
	memory.Severity = v1alpha1.SeverityHealthy
	if memory.Available {
		memory.Severity = Classify(memory.Percent, b.thresholds.Memory)
	}

	disk := b.disk
	disk.Severity = v1alpha1.SeverityHealthy
	if disk.Available {
		for i := range disk.Partitions {
			disk.Partitions[i].Severity = Classify(disk.Partitions[i].Percent, b.thresholds.Disk)
			disk.Severity = v1alpha1.MaxSeverity(disk.Severity, disk.Partitions[i].Severity)
		}
	}

	return &v1alpha1.HealthSnapshot{
		TypeMeta: metaHealthSnapshot(),

		RunID:      b.runID,
		Timestamp:  b.timestamp,
		Thresholds: b.thresholds,

		System:       b.system,
		CPU:          cpu,
		Memory:       memory,
		Disk:         disk,
		Network:      b.network,
		Processes:    b.processes,
		Connectivity: b.connectivity,

		Overall: Overall(cpu.Severity, memory.Severity, disk.Severity, b.connectivity),
	}
}
