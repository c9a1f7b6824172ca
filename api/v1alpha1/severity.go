package v1alpha1

import (
	"fmt"
	"strings"
)

// Severity is the ordered health tier of a reading, a subsystem, or the whole host.
// The zero value is SeverityHealthy. Aggregation always takes the maximum.
type Severity int

const (
	// SeverityHealthy indicates utilization below the warning threshold.
	SeverityHealthy Severity = iota

	// SeverityWarning indicates utilization at or above warning but below critical.
	SeverityWarning

	// SeverityCritical indicates utilization at or above the critical threshold,
	// or a configured external service that could not be reached.
	SeverityCritical
)

// Severities lists every tier in ascending order.
var Severities = []Severity{SeverityHealthy, SeverityWarning, SeverityCritical}

func (s Severity) String() string {
	switch s {
	case SeverityHealthy:
		return "HEALTHY"
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// ParseSeverity parses a tier name case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HEALTHY":
		return SeverityHealthy, nil
	case "WARNING":
		return SeverityWarning, nil
	case "CRITICAL":
		return SeverityCritical, nil
	default:
		return SeverityHealthy, fmt.Errorf("unknown severity %q", s)
	}
}

// MarshalText encodes the severity by name so reports stay readable.
func (s Severity) MarshalText() ([]byte, error) {
	switch s {
	case SeverityHealthy, SeverityWarning, SeverityCritical:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("cannot marshal %s", s)
	}
}

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MaxSeverity returns the highest tier among its arguments, SeverityHealthy when empty.
func MaxSeverity(severities ...Severity) Severity {
	worst := SeverityHealthy
	for _, s := range severities {
		if s > worst {
			worst = s
		}
	}
	return worst
}
