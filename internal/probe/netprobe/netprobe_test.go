package netprobe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/clustergate/hostgate/internal/probe"
)

func targetFor(t *testing.T, srv *httptest.Server, typ string, opts map[string]string) probe.Target {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parsing server URL: %v", err)
	}
	port, _ := strconv.Atoi(u.Port())
	return probe.Target{Name: "svc", Type: typ, Host: u.Hostname(), Port: port, Options: opts}
}

func TestHTTP_Returns200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	detail, err := NewHTTP().Probe(context.Background(), targetFor(t, srv, "http", map[string]string{"path": "healthz"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "GET " + srv.URL + "/healthz returned 200"; detail != want {
		t.Errorf("detail = %q, want %q", detail, want)
	}
}

func TestHTTP_Returns500(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTP().Probe(context.Background(), targetFor(t, srv, "http", nil))
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestHTTP_CustomExpectedCodesAndMethod(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	_, err := NewHTTP().Probe(context.Background(), targetFor(t, srv, "http", map[string]string{
		"method":          "head",
		"expected_status": "200, 204",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHTTP_BasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "monitor" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	target := targetFor(t, srv, "http", nil)
	target.Username, target.Password = "monitor", "secret"
	if _, err := NewHTTP().Probe(context.Background(), target); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHTTP_TLSInsecure(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if _, err := NewHTTP().Probe(context.Background(), targetFor(t, srv, "https", nil)); err == nil {
		t.Error("expected certificate verification failure")
	}
	if _, err := NewHTTP().Probe(context.Background(), targetFor(t, srv, "https", map[string]string{"insecure_skip_verify": "true"})); err != nil {
		t.Errorf("unexpected error with verification disabled: %v", err)
	}
}

func TestHTTP_InvalidExpectedStatus(t *testing.T) {
	_, err := NewHTTP().Probe(context.Background(), probe.Target{Host: "x", Options: map[string]string{"expected_status": "ok"}})
	if err == nil {
		t.Fatal("expected error for invalid expected_status")
	}
}

func TestRequestURL(t *testing.T) {
	tests := []struct {
		name   string
		target probe.Target
		want   string
	}{
		{name: "defaults", target: probe.Target{Type: "http", Host: "api"}, want: "http://api/"},
		{name: "https type", target: probe.Target{Type: "HTTPS", Host: "api", Port: 8443}, want: "https://api:8443/"},
		{name: "explicit url", target: probe.Target{Host: "ignored", Options: map[string]string{"url": "http://x/y"}}, want: "http://x/y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := requestURL(tt.target); got != tt.want {
				t.Errorf("requestURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTCP_ConnectsAndFails(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			_ = c.Close()
		}
	}()

	if _, err := NewTCP().Probe(context.Background(), probe.Target{Host: "127.0.0.1", Port: port}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_ = l.Close()
	if _, err := NewTCP().Probe(context.Background(), probe.Target{Host: "127.0.0.1", Port: port}); err == nil {
		t.Error("expected error after listener closed")
	}
}

func TestDNS_ResolvesLiteral(t *testing.T) {
	detail, err := NewDNS().Probe(context.Background(), probe.Target{Name: "dns", Type: "dns", Host: "127.0.0.1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail != "127.0.0.1 resolves to [127.0.0.1]" {
		t.Errorf("unexpected detail %q", detail)
	}
}

func TestDNS_ExpectMismatch(t *testing.T) {
	_, err := NewDNS().Probe(context.Background(), probe.Target{
		Name:    "dns",
		Type:    "dns",
		Options: map[string]string{"domain": "127.0.0.1", "expect": "10.9.8.7"},
	})
	if err == nil {
		t.Fatal("expected an error when the expected address is missing")
	}
}

func TestDNS_NoDomain(t *testing.T) {
	if _, err := NewDNS().Probe(context.Background(), probe.Target{Name: "dns", Type: "dns"}); err == nil {
		t.Fatal("expected an error without a domain")
	}
}

func TestServerResolverAddsPort(t *testing.T) {
	r := serverResolver("127.0.0.1")
	if !r.PreferGo || r.Dial == nil {
		t.Fatal("expected a Go resolver with a custom dialer")
	}
}
