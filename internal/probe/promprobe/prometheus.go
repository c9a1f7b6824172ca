// Package promprobe checks a Prometheus server through its HTTP API.
package promprobe

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/api"
	promv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"

	"github.com/clustergate/hostgate/internal/probe"
)

// Type is the canonical service type handled by this package.
const Type = "prometheus"

// Condition kinds understood by the "condition" option.
const (
	ConditionResultCount = "result_count"
	ConditionValue       = "value"
)

// Prober reads build info and, when a "query" option is set, evaluates an
// instant query against a condition.
//
// Options: "url" (overrides host/port), "scheme" (default http), "query",
// "condition" (result_count or value, default result_count), "operator"
// (gt, gte, lt, lte, eq, ne; default gte) and "threshold" (default 1).
type Prober struct {
	now func() time.Time
}

// New creates a Prometheus prober.
func New() *Prober { return &Prober{now: time.Now} }

func (p *Prober) Type() string { return Type }

func (p *Prober) Probe(ctx context.Context, t probe.Target) (string, error) {
	client, err := api.NewClient(api.Config{
		Address:      address(t),
		RoundTripper: roundTripper(),
	})
	if err != nil {
		return "", fmt.Errorf("invalid Prometheus endpoint: %w", err)
	}
	promAPI := promv1.NewAPI(client)

	info, err := promAPI.Buildinfo(ctx)
	if err != nil {
		return "", fmt.Errorf("Prometheus build info failed: %w", err)
	}
	detail := "Prometheus " + info.Version

	query := t.Option("query", "")
	if query == "" {
		return detail, nil
	}

	cond, err := parseCondition(t)
	if err != nil {
		return "", err
	}
	value, _, err := promAPI.Query(ctx, query, p.now())
	if err != nil {
		return "", fmt.Errorf("Prometheus query failed: %w", err)
	}
	msg, err := cond.evaluate(value)
	if err != nil {
		return "", err
	}
	return detail + ", " + msg, nil
}

func address(t probe.Target) string {
	if u := t.Option("url", ""); u != "" {
		return u
	}
	host := t.Host
	if t.Port != 0 {
		host = net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
	}
	return t.Option("scheme", "http") + "://" + host
}

// roundTripper mirrors the HTTP prober's transport: no keep-alives, with the
// probe context carrying the deadline.
func roundTripper() http.RoundTripper {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableKeepAlives = true
	return transport
}

type condition struct {
	kind      string
	operator  string
	threshold float64
}

func parseCondition(t probe.Target) (condition, error) {
	c := condition{
		kind:     t.Option("condition", ConditionResultCount),
		operator: t.Option("operator", "gte"),
	}
	switch c.kind {
	case ConditionResultCount, ConditionValue:
	default:
		return c, fmt.Errorf("unknown condition type: %s", c.kind)
	}
	if _, ok := compare(0, c.operator, 0); !ok {
		return c, fmt.Errorf("unknown operator: %s", c.operator)
	}
	raw := t.Option("threshold", "1")
	threshold, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return c, fmt.Errorf("invalid threshold %q: %w", raw, err)
	}
	c.threshold = threshold
	return c, nil
}

func (c condition) evaluate(v model.Value) (string, error) {
	samples := sampleValues(v)

	if c.kind == ConditionResultCount {
		n := float64(len(samples))
		if pass, _ := compare(n, c.operator, c.threshold); !pass {
			return "", fmt.Errorf("query returned %d results, expected %s %.0f", len(samples), c.operator, c.threshold)
		}
		return fmt.Sprintf("query returned %d results", len(samples)), nil
	}

	if len(samples) == 0 {
		return "", fmt.Errorf("query returned no results to evaluate")
	}
	var failed []string
	for _, s := range samples {
		if pass, _ := compare(s, c.operator, c.threshold); !pass {
			failed = append(failed, strconv.FormatFloat(s, 'f', 4, 64))
		}
	}
	if len(failed) > 0 {
		return "", fmt.Errorf("%d values failed condition %s %.4f: [%s]", len(failed), c.operator, c.threshold, strings.Join(failed, ", "))
	}
	return fmt.Sprintf("all %d sample values satisfy %s %.4f", len(samples), c.operator, c.threshold), nil
}

// sampleValues flattens a query result. Range vectors contribute their last point.
func sampleValues(v model.Value) []float64 {
	var out []float64
	switch val := v.(type) {
	case model.Vector:
		for _, s := range val {
			out = append(out, float64(s.Value))
		}
	case *model.Scalar:
		out = append(out, float64(val.Value))
	case model.Matrix:
		for _, series := range val {
			if n := len(series.Values); n > 0 {
				out = append(out, float64(series.Values[n-1].Value))
			}
		}
	}
	return out
}

func compare(actual float64, operator string, threshold float64) (pass, ok bool) {
	switch operator {
	case "gt":
		return actual > threshold, true
	case "gte":
		return actual >= threshold, true
	case "lt":
		return actual < threshold, true
	case "lte":
		return actual <= threshold, true
	case "eq":
		return actual == threshold, true
	case "ne":
		return actual != threshold, true
	default:
		return false, false
	}
}
