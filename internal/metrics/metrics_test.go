package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/clustergate/hostgate/api/v1alpha1"
)

func testSnapshot() *v1alpha1.HealthSnapshot {
	return &v1alpha1.HealthSnapshot{
		Timestamp: time.Unix(1767225600, 0).UTC(),
		System:    v1alpha1.HostInfo{Hostname: "web-1"},
		CPU:       v1alpha1.CPUReading{Availability: v1alpha1.Ready(), Percent: 70, Severity: v1alpha1.SeverityWarning},
		Memory:    v1alpha1.MemoryReading{Availability: v1alpha1.Ready(), Percent: 45, SwapPercent: 10},
		Disk: v1alpha1.DiskReport{
			Availability: v1alpha1.Ready(),
			Partitions: []v1alpha1.DiskReading{
				{Mountpoint: "/", Percent: 95, Severity: v1alpha1.SeverityCritical},
				{Mountpoint: "/data", Percent: 20},
			},
			Severity: v1alpha1.SeverityCritical,
		},
		Network:   v1alpha1.NetworkReading{Availability: v1alpha1.Unavailable("denied")},
		Processes: v1alpha1.ProcessReport{Availability: v1alpha1.Ready()},
		Connectivity: []v1alpha1.ConnectivityResult{
			{Name: "db", Type: "postgresql", State: v1alpha1.ConnectionConnected},
			{Name: "cache", Type: "redis", State: v1alpha1.ConnectionFailed},
		},
		Overall: v1alpha1.SeverityCritical,
	}
}

func TestObserve(t *testing.T) {
	r := NewRecorder()
	r.Observe(testSnapshot(), 1500*time.Millisecond)

	if got := testutil.ToFloat64(r.OverallSeverity); got != 2 {
		t.Errorf("overall_severity = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.SeverityState.WithLabelValues("CRITICAL")); got != 1 {
		t.Errorf("severity_state{CRITICAL} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.SeverityState.WithLabelValues("HEALTHY")); got != 0 {
		t.Errorf("severity_state{HEALTHY} = %v, want 0", got)
	}
	if got := testutil.ToFloat64(r.ResourcePercent.WithLabelValues("disk", "/")); got != 95 {
		t.Errorf("resource_percent{disk,/} = %v, want 95", got)
	}
	if got := testutil.ToFloat64(r.ResourceSeverity.WithLabelValues("cpu", "total")); got != 1 {
		t.Errorf("resource_severity{cpu} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.SubsystemAvailable.WithLabelValues("network")); got != 0 {
		t.Errorf("subsystem_available{network} = %v, want 0", got)
	}
	if got := testutil.ToFloat64(r.ConnectivityUp.WithLabelValues("cache", "redis", "FAILED")); got != 0 {
		t.Errorf("connectivity_up{cache} = %v, want 0", got)
	}
	if got := testutil.ToFloat64(r.ConnectivityUp.WithLabelValues("db", "postgresql", "CONNECTED")); got != 1 {
		t.Errorf("connectivity_up{db} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.LastRunTimestamp); got != 1767225600 {
		t.Errorf("last_run_timestamp_seconds = %v", got)
	}
}

func TestObserve_ResetsVanishedSeries(t *testing.T) {
	r := NewRecorder()
	r.Observe(testSnapshot(), time.Second)

	next := testSnapshot()
	next.Disk.Partitions = next.Disk.Partitions[:1]
	next.Connectivity = nil
	r.Observe(next, time.Second)

	if n := testutil.CollectAndCount(r.ConnectivityUp); n != 0 {
		t.Errorf("connectivity_up series = %d, want 0", n)
	}
	// cpu, memory, swap and one disk
	if n := testutil.CollectAndCount(r.ResourcePercent); n != 4 {
		t.Errorf("resource_percent series = %d, want 4", n)
	}
}

func TestRecordAlert(t *testing.T) {
	r := NewRecorder()
	r.RecordAlert(AlertSent)
	r.RecordAlert(AlertSuppressed)
	r.RecordAlert(AlertSuppressed)

	expected := `
# HELP hostgate_alerts_total Alert dispatch outcomes by result (sent, suppressed, failed).
# TYPE hostgate_alerts_total counter
hostgate_alerts_total{result="sent"} 1
hostgate_alerts_total{result="suppressed"} 2
`
	if err := testutil.CollectAndCompare(r.AlertsTotal, strings.NewReader(expected)); err != nil {
		t.Error(err)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.Observe(testSnapshot(), time.Second)

	path := filepath.Join(t.TempDir(), "hostgate.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading textfile: %v", err)
	}
	if !strings.Contains(string(data), "hostgate_overall_severity 2") {
		t.Errorf("textfile missing overall severity:\n%s", data)
	}
	if strings.Contains(string(data), "go_goroutines") {
		t.Error("textfile should not contain runtime metrics")
	}
}

func TestPush(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotPath, gotMethod = req.URL.Path, req.Method
		_, _ = io.Copy(io.Discard, req.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRecorder()
	r.Observe(testSnapshot(), time.Second)
	if err := r.Push(context.Background(), srv.URL, "hostgate", "web-1"); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Errorf("method = %s, want PUT", gotMethod)
	}
	if gotPath != "/metrics/job/hostgate/instance/web-1" {
		t.Errorf("path = %s", gotPath)
	}
}

func TestHandler(t *testing.T) {
	r := NewRecorder()
	r.RegisterRuntimeCollectors()
	r.Observe(testSnapshot(), time.Second)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"hostgate_run_duration_seconds_count 1", "go_goroutines"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}
