// Package metrics exports health snapshots as Prometheus metrics, either
// scraped over HTTP, written as a node_exporter textfile, or pushed to a
// Pushgateway.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/clustergate/hostgate/api/v1alpha1"
)

const namespace = "hostgate"

// Alert results recorded by RecordAlert.
const (
	AlertSent       = "sent"
	AlertSuppressed = "suppressed"
	AlertFailed     = "failed"
)

// Recorder owns a private registry so one-shot exports contain only hostgate series.
type Recorder struct {
	registry *prometheus.Registry

	// OverallSeverity is the host verdict: 0 HEALTHY, 1 WARNING, 2 CRITICAL.
	OverallSeverity prometheus.Gauge

	// SeverityState is one-hot over the severity names. Labels: state.
	SeverityState *prometheus.GaugeVec

	// ResourcePercent is utilization in percent. Labels: resource (cpu, memory, swap, disk), name.
	ResourcePercent *prometheus.GaugeVec

	// ResourceSeverity is the classified tier per reading. Labels: resource, name.
	ResourceSeverity *prometheus.GaugeVec

	// SubsystemAvailable reports whether a subsystem could be sampled. Labels: subsystem.
	SubsystemAvailable *prometheus.GaugeVec

	// ConnectivityUp is 1 when a probed service is CONNECTED. Labels: name, type, state.
	ConnectivityUp *prometheus.GaugeVec

	// RunDuration records how long a full health run takes.
	RunDuration prometheus.Histogram

	// AlertsTotal counts dispatch outcomes. Labels: result.
	AlertsTotal *prometheus.CounterVec

	// LastRunTimestamp is the Unix time of the last completed run.
	LastRunTimestamp prometheus.Gauge
}

// NewRecorder creates a Recorder with all hostgate collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		OverallSeverity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overall_severity",
			Help:      "Overall host severity: 0 HEALTHY, 1 WARNING, 2 CRITICAL.",
		}),
		SeverityState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "severity_state",
			Help:      "Overall host severity as a one-hot gauge. Active state=1.",
		}, []string{"state"}),
		ResourcePercent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resource_percent",
			Help:      "Resource utilization in percent.",
		}, []string{"resource", "name"}),
		ResourceSeverity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resource_severity",
			Help:      "Classified severity of a resource reading: 0 HEALTHY, 1 WARNING, 2 CRITICAL.",
		}, []string{"resource", "name"}),
		SubsystemAvailable: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subsystem_available",
			Help:      "Whether a subsystem could be sampled (1) or was degraded (0).",
		}, []string{"subsystem"}),
		ConnectivityUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connectivity_up",
			Help:      "Whether a configured external service was reachable (1) or not (0).",
		}, []string{"name", "type", "state"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a health run in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		AlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Alert dispatch outcomes by result (sent, suppressed, failed).",
		}, []string{"result"}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed health run.",
		}),
	}

	r.registry.MustRegister(
		r.OverallSeverity, r.SeverityState, r.ResourcePercent, r.ResourceSeverity,
		r.SubsystemAvailable, r.ConnectivityUp, r.RunDuration, r.AlertsTotal, r.LastRunTimestamp,
	)
	return r
}

// RegisterRuntimeCollectors adds Go runtime and process metrics. Long-running
// modes call it; textfile exports leave it out.
func (r *Recorder) RegisterRuntimeCollectors() {
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
	)
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Observe replaces every per-run series with the values from snap.
// Vectors are reset first so vanished partitions and services do not linger.
func (r *Recorder) Observe(snap *v1alpha1.HealthSnapshot, took time.Duration) {
	r.OverallSeverity.Set(float64(snap.Overall))
	for _, s := range v1alpha1.Severities {
		v := 0.0
		if s == snap.Overall {
			v = 1
		}
		r.SeverityState.WithLabelValues(s.String()).Set(v)
	}

	r.ResourcePercent.Reset()
	r.ResourceSeverity.Reset()
	if snap.CPU.Available {
		r.setResource("cpu", "total", snap.CPU.Percent, snap.CPU.Severity)
	}
	if snap.Memory.Available {
		r.setResource("memory", "physical", snap.Memory.Percent, snap.Memory.Severity)
		r.ResourcePercent.WithLabelValues("swap", "swap").Set(snap.Memory.SwapPercent)
	}
	if snap.Disk.Available {
		for _, d := range snap.Disk.Partitions {
			r.setResource("disk", d.Mountpoint, d.Percent, d.Severity)
		}
	}

	r.SubsystemAvailable.WithLabelValues("cpu").Set(boolFloat(snap.CPU.Available))
	r.SubsystemAvailable.WithLabelValues("memory").Set(boolFloat(snap.Memory.Available))
	r.SubsystemAvailable.WithLabelValues("disk").Set(boolFloat(snap.Disk.Available))
	r.SubsystemAvailable.WithLabelValues("network").Set(boolFloat(snap.Network.Available))
	r.SubsystemAvailable.WithLabelValues("processes").Set(boolFloat(snap.Processes.Available))

	r.ConnectivityUp.Reset()
	for _, c := range snap.Connectivity {
		r.ConnectivityUp.WithLabelValues(c.Name, c.Type, string(c.State)).
			Set(boolFloat(c.State == v1alpha1.ConnectionConnected))
	}

	r.RunDuration.Observe(took.Seconds())
	r.LastRunTimestamp.Set(float64(snap.Timestamp.Unix()))
}

func (r *Recorder) setResource(resource, name string, percent float64, sev v1alpha1.Severity) {
	r.ResourcePercent.WithLabelValues(resource, name).Set(percent)
	r.ResourceSeverity.WithLabelValues(resource, name).Set(float64(sev))
}

// RecordAlert counts one dispatch outcome.
func (r *Recorder) RecordAlert(result string) {
	r.AlertsTotal.WithLabelValues(result).Inc()
}

// WriteTextfile writes the registry in the node_exporter textfile format.
// The write is atomic, so the collector never reads a partial file.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}

// Push sends the registry to a Pushgateway under job, grouped by instance.
func (r *Recorder) Push(ctx context.Context, url, job, instance string) error {
	pusher := push.New(url, job).Gatherer(r.registry)
	if instance != "" {
		pusher = pusher.Grouping("instance", instance)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", url, err)
	}
	return nil
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
