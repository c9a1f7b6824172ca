package v1alpha1

import "fmt"

// ThresholdPair holds the warning and critical boundaries, in percent, for one resource type.
type ThresholdPair struct {
	Warning  float64 `json:"warning"`
	Critical float64 `json:"critical"`
}

// Validate enforces 0 <= warning < critical <= 100.
func (p ThresholdPair) Validate() error {
	if p.Warning < 0 || p.Critical > 100 {
		return fmt.Errorf("thresholds must lie within [0,100], got warning=%v critical=%v", p.Warning, p.Critical)
	}
	if p.Warning >= p.Critical {
		return fmt.Errorf("warning threshold %v must be below critical threshold %v", p.Warning, p.Critical)
	}
	return nil
}

// Thresholds holds the classification boundaries for every classified resource.
type Thresholds struct {
	CPU    ThresholdPair `json:"cpu"`
	Memory ThresholdPair `json:"memory"`
	Disk   ThresholdPair `json:"disk"`
}

// DefaultThresholds returns 60% warning and 80% critical for every resource.
func DefaultThresholds() Thresholds {
	pair := ThresholdPair{Warning: 60, Critical: 80}
	return Thresholds{CPU: pair, Memory: pair, Disk: pair}
}

// Validate checks every pair and names the offending resource.
func (t Thresholds) Validate() error {
	for _, entry := range []struct {
		name string
		pair ThresholdPair
	}{
		{"cpu", t.CPU},
		{"memory", t.Memory},
		{"disk", t.Disk},
	} {
		if err := entry.pair.Validate(); err != nil {
			return fmt.Errorf("%s: %w", entry.name, err)
		}
	}
	return nil
}
