package netprobe

import (
	"context"
	"fmt"
	"net"
	"slices"
	"strings"

	"github.com/clustergate/hostgate/internal/probe"
)

// DNSType is the canonical service type handled by DNS.
const DNSType = "dns"

// DNS resolves a name and optionally checks the answer.
//
// Options: "domain" (name to resolve, default the target host), "server"
// (resolver address, default the system resolver) and "expect" (an address
// that must appear in the answer).
type DNS struct {
	resolver *net.Resolver
}

// NewDNS creates a DNS prober using the system resolver unless a target sets "server".
func NewDNS() *DNS { return &DNS{resolver: net.DefaultResolver} }

func (p *DNS) Type() string { return DNSType }

func (p *DNS) Probe(ctx context.Context, t probe.Target) (string, error) {
	domain := t.Option("domain", t.Host)
	if domain == "" {
		return "", fmt.Errorf("no domain to resolve")
	}

	resolver := p.resolver
	if server := t.Option("server", ""); server != "" {
		resolver = serverResolver(server)
	}

	addrs, err := resolver.LookupHost(ctx, domain)
	if err != nil {
		return "", fmt.Errorf("DNS resolution failed for %s: %w", domain, err)
	}
	if expect := t.Option("expect", ""); expect != "" && !slices.Contains(addrs, expect) {
		return "", fmt.Errorf("%s resolves to [%s], expected %s", domain, strings.Join(addrs, ", "), expect)
	}
	return fmt.Sprintf("%s resolves to [%s]", domain, strings.Join(addrs, ", ")), nil
}

// serverResolver sends every query to server, adding port 53 when absent.
func serverResolver(server string) *net.Resolver {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	return &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, server)
		},
	}
}
