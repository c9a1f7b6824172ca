// Package netprobe holds protocol-level probers that need no client library:
// a TCP dial, an HTTP request with an expected status code and a DNS lookup.
package netprobe

import (
	"context"
	"net"

	"github.com/clustergate/hostgate/internal/probe"
)

// TCPType is the canonical service type handled by TCP.
const TCPType = "tcp"

// TCP succeeds when a TCP handshake with the target completes.
type TCP struct {
	dialer net.Dialer
}

// NewTCP creates a TCP prober.
func NewTCP() *TCP { return &TCP{} }

func (p *TCP) Type() string { return TCPType }

func (p *TCP) Probe(ctx context.Context, t probe.Target) (string, error) {
	conn, err := p.dialer.DialContext(ctx, "tcp", t.Address())
	if err != nil {
		return "", err
	}
	remote := conn.RemoteAddr().String()
	_ = conn.Close()
	return "connected to " + remote, nil
}
