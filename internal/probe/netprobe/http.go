package netprobe

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/clustergate/hostgate/internal/probe"
)

// HTTPType is the canonical service type handled by HTTP.
const HTTPType = "http"

// HTTP issues one request and checks the response status.
//
// Options: "url" (full URL, overrides host/port), "scheme" (default http, or
// https when the declared type is https), "path", "method" (default GET),
// "expected_status" (comma-separated, default 200) and "insecure_skip_verify".
type HTTP struct{}

// NewHTTP creates an HTTP prober.
func NewHTTP() *HTTP { return &HTTP{} }

func (p *HTTP) Type() string { return HTTPType }

func (p *HTTP) Probe(ctx context.Context, t probe.Target) (string, error) {
	method := strings.ToUpper(t.Option("method", http.MethodGet))
	target := requestURL(t)

	expected, err := expectedCodes(t.Option("expected_status", ""))
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if t.Username != "" {
		req.SetBasicAuth(t.Username, t.Password)
	}

	resp, err := httpClient(t.Option("insecure_skip_verify", "") == "true").Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	for _, code := range expected {
		if resp.StatusCode == code {
			return fmt.Sprintf("%s %s returned %d", method, target, resp.StatusCode), nil
		}
	}

	want := make([]string, len(expected))
	for i, c := range expected {
		want[i] = strconv.Itoa(c)
	}
	return "", fmt.Errorf("%s %s returned %d, expected one of [%s]", method, target, resp.StatusCode, strings.Join(want, ", "))
}

func requestURL(t probe.Target) string {
	if u := t.Option("url", ""); u != "" {
		return u
	}
	scheme := "http"
	if strings.EqualFold(strings.TrimSpace(t.Type), "https") {
		scheme = "https"
	}
	scheme = t.Option("scheme", scheme)

	host := t.Host
	if t.Port != 0 {
		host = net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
	}
	path := t.Option("path", "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return scheme + "://" + host + path
}

func expectedCodes(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return []int{http.StatusOK}, nil
	}
	var codes []int
	for _, part := range strings.Split(raw, ",") {
		code, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || code < 100 || code > 599 {
			return nil, fmt.Errorf("invalid expected_status %q", part)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// httpClient returns a client without its own timeout; the probe context
// carries the deadline.
func httpClient(insecureSkipTLS bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableKeepAlives = true
	if insecureSkipTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	return &http.Client{Transport: transport}
}
