package v1alpha1

import (
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	// GroupVersion identifies the report schema written by hostgate.
	GroupVersion = "hostgate.io/v1alpha1"

	// KindHealthSnapshot is the kind recorded in every persisted report.
	KindHealthSnapshot = "HealthSnapshot"
)

// Availability records whether a subsystem could be read during sampling.
// An unavailable subsystem keeps its zero readings and never elevates severity.
type Availability struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// Unavailable returns an Availability marking the subsystem as degraded.
func Unavailable(reason string) Availability {
	return Availability{Available: false, Reason: reason}
}

// Ready returns an Availability marking the subsystem as read successfully.
func Ready() Availability {
	return Availability{Available: true}
}

// HostInfo identifies the sampled host.
type HostInfo struct {
	Hostname        string `json:"hostname"`
	OS              string `json:"os"`
	Platform        string `json:"platform,omitempty"`
	PlatformVersion string `json:"platformVersion,omitempty"`
	KernelVersion   string `json:"kernelVersion,omitempty"`
	Architecture    string `json:"architecture"`
	UptimeSeconds   uint64 `json:"uptimeSeconds,omitempty"`
	GoVersion       string `json:"goVersion"`
}

// LoadAverage holds the 1, 5 and 15 minute run-queue averages.
type LoadAverage struct {
	Load1  float64 `json:"load1"`
	Load5  float64 `json:"load5"`
	Load15 float64 `json:"load15"`
}

// CPUReading is the processor utilization for one sampling pass.
type CPUReading struct {
	Availability  `json:",inline"`
	Percent       float64      `json:"percent"`
	PerCore       []float64    `json:"perCore,omitempty"`
	PhysicalCores int          `json:"physicalCores"`
	LogicalCores  int          `json:"logicalCores"`
	FrequencyMHz  float64      `json:"frequencyMHz,omitempty"`
	Load          *LoadAverage `json:"load,omitempty"`
	Severity      Severity     `json:"severity"`
}

// MemoryReading is physical memory and swap usage. Swap is informational only.
type MemoryReading struct {
	Availability   `json:",inline"`
	TotalBytes     uint64   `json:"totalBytes"`
	AvailableBytes uint64   `json:"availableBytes"`
	UsedBytes      uint64   `json:"usedBytes"`
	Percent        float64  `json:"percent"`
	SwapTotalBytes uint64   `json:"swapTotalBytes"`
	SwapUsedBytes  uint64   `json:"swapUsedBytes"`
	SwapPercent    float64  `json:"swapPercent"`
	Severity       Severity `json:"severity"`
}

// DiskReading is the usage of one mounted partition.
type DiskReading struct {
	Device     string   `json:"device"`
	Mountpoint string   `json:"mountpoint"`
	FSType     string   `json:"fstype"`
	TotalBytes uint64   `json:"totalBytes"`
	UsedBytes  uint64   `json:"usedBytes"`
	FreeBytes  uint64   `json:"freeBytes"`
	Percent    float64  `json:"percent"`
	Severity   Severity `json:"severity"`
}

// DiskReport groups every readable partition. Severity is the worst partition.
type DiskReport struct {
	Availability `json:",inline"`
	Partitions   []DiskReading `json:"partitions"`
	Severity     Severity      `json:"severity"`
}

// NetworkReading holds cumulative counters since boot. Never classified.
type NetworkReading struct {
	Availability   `json:",inline"`
	BytesSent      uint64 `json:"bytesSent"`
	BytesRecv      uint64 `json:"bytesRecv"`
	PacketsSent    uint64 `json:"packetsSent"`
	PacketsRecv    uint64 `json:"packetsRecv"`
	ErrorsIn       uint64 `json:"errorsIn"`
	ErrorsOut      uint64 `json:"errorsOut"`
	DropsIn        uint64 `json:"dropsIn"`
	DropsOut       uint64 `json:"dropsOut"`
	InterfaceCount int    `json:"interfaceCount"`
}

// ProcessInfo describes one process in the top-by-CPU list.
type ProcessInfo struct {
	PID           int32   `json:"pid"`
	Name          string  `json:"name"`
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryPercent float64 `json:"memoryPercent"`
}

// ProcessReport holds the process count and the heaviest CPU consumers. Never classified.
type ProcessReport struct {
	Availability `json:",inline"`
	Total        int           `json:"total"`
	TopCPU       []ProcessInfo `json:"topCPU"`
}

// ConnectivityResult is the outcome of probing one configured external service.
type ConnectivityResult struct {
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Host      string          `json:"host"`
	Port      int             `json:"port"`
	State     ConnectionState `json:"state"`
	Message   string          `json:"message"`
	LatencyMS int64           `json:"latencyMs"`
}

// HealthSnapshot is one immutable, timestamped health report for a single run.
// It is produced once by the aggregator and only read afterwards.
type HealthSnapshot struct {
	metav1.TypeMeta `json:",inline"`

	RunID      string     `json:"runId"`
	Timestamp  time.Time  `json:"timestamp"`
	Thresholds Thresholds `json:"thresholds"`

	System    HostInfo       `json:"system"`
	CPU       CPUReading     `json:"cpu"`
	Memory    MemoryReading  `json:"memory"`
	Disk      DiskReport     `json:"disk"`
	Network   NetworkReading `json:"network"`
	Processes ProcessReport  `json:"processes"`

	// Connectivity is empty when probing was disabled or nothing was configured.
	Connectivity []ConnectivityResult `json:"connectivity,omitempty"`

	Overall Severity `json:"overall"`
}

// HasConnectivityFailure reports whether any probed service is FAILED.
func (s *HealthSnapshot) HasConnectivityFailure() bool {
	for _, r := range s.Connectivity {
		if r.State == ConnectionFailed {
			return true
		}
	}
	return false
}
