package probe

import (
	"context"
	"net"
	"strconv"
	"time"
)

// Prober is the interface every connectivity check must implement.
type Prober interface {
	// Type returns the canonical service type handled by this prober (e.g. "postgresql").
	Type() string

	// Probe attempts a short-lived connection to the target and releases it.
	// A nil error means the service is reachable; detail optionally describes
	// what answered (e.g. a server version). Implementations must honor ctx.
	Probe(ctx context.Context, target Target) (detail string, err error)
}

// Target describes one configured external service.
type Target struct {
	Name     string
	Type     string
	Host     string
	Port     int
	Database string
	Username string
	Password string

	// Timeout bounds the probe. Zero means the runner default.
	Timeout time.Duration

	// Options carries type-specific settings (e.g. "sslmode", "kubeconfig", "path").
	Options map[string]string
}

// Address returns host:port, or just the host when no port is set.
func (t Target) Address() string {
	if t.Port == 0 {
		return t.Host
	}
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// Option returns a type-specific option, or def when unset.
func (t Target) Option(key, def string) string {
	if v, ok := t.Options[key]; ok && v != "" {
		return v
	}
	return def
}
