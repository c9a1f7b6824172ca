package health

import (
	"github.com/clustergate/hostgate/api/v1alpha1"
)

// Classify maps a utilization percentage onto a severity tier.
// A value equal to a boundary belongs to the higher tier. Values outside
// [0,100] follow the same rule rather than being rejected.
func Classify(percent float64, t v1alpha1.ThresholdPair) v1alpha1.Severity {
	switch {
	case percent < t.Warning:
		return v1alpha1.SeverityHealthy
	case percent < t.Critical:
		return v1alpha1.SeverityWarning
	default:
		return v1alpha1.SeverityCritical
	}
}

// Overall computes the host verdict from the classified subsystems.
// Swap, network and processes are informational and never contribute.
func Overall(cpu, memory, worstDisk v1alpha1.Severity, connectivity []v1alpha1.ConnectivityResult) v1alpha1.Severity {
	overall := v1alpha1.MaxSeverity(cpu, memory, worstDisk)
	for _, r := range connectivity {
		overall = v1alpha1.MaxSeverity(overall, r.State.Severity())
	}
	return overall
}
