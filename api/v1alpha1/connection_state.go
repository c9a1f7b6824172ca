package v1alpha1

// ConnectionState is the outcome of probing one configured external service.
type ConnectionState string

const (
	// ConnectionConnected indicates the service accepted a connection.
	ConnectionConnected ConnectionState = "CONNECTED"

	// ConnectionFailed indicates the connection attempt errored or timed out.
	// Any failed entry forces the overall severity to CRITICAL.
	ConnectionFailed ConnectionState = "FAILED"

	// ConnectionSkipped indicates this build cannot test the declared service type.
	ConnectionSkipped ConnectionState = "SKIPPED"

	// ConnectionUnknown indicates the declared service type is not recognized.
	ConnectionUnknown ConnectionState = "UNKNOWN"
)

// Valid reports whether s is one of the declared states.
func (s ConnectionState) Valid() bool {
	switch s {
	case ConnectionConnected, ConnectionFailed, ConnectionSkipped, ConnectionUnknown:
		return true
	default:
		return false
	}
}

// Severity returns the floor this state imposes on the overall severity.
func (s ConnectionState) Severity() Severity {
	switch s {
	case ConnectionFailed:
		return SeverityCritical
	case ConnectionConnected, ConnectionSkipped, ConnectionUnknown:
		return SeverityHealthy
	default:
		return SeverityHealthy
	}
}
