package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/clustergate/hostgate/api/v1alpha1"
)

func sampleSnapshot() *v1alpha1.HealthSnapshot {
	return &v1alpha1.HealthSnapshot{
		TypeMeta:   metav1.TypeMeta{APIVersion: v1alpha1.GroupVersion, Kind: v1alpha1.KindHealthSnapshot},
		RunID:      "0b6c2f7e-5d0c-4a51-9a43-1f1f0e3c9b10",
		Timestamp:  time.Date(2026, 3, 4, 5, 6, 7, 123456000, time.UTC),
		Thresholds: v1alpha1.DefaultThresholds(),
		System:     v1alpha1.HostInfo{Hostname: "web-1", OS: "linux", Architecture: "amd64", GoVersion: "go1.25"},
		CPU: v1alpha1.CPUReading{
			Availability:  v1alpha1.Ready(),
			Percent:       70,
			PerCore:       []float64{65, 75},
			PhysicalCores: 1,
			LogicalCores:  2,
			Load:          &v1alpha1.LoadAverage{Load1: 1.5, Load5: 1.2, Load15: 0.9},
			Severity:      v1alpha1.SeverityWarning,
		},
		Memory: v1alpha1.MemoryReading{
			Availability: v1alpha1.Ready(),
			TotalBytes:   16 << 30,
			UsedBytes:    7 << 30,
			Percent:      45,
			SwapPercent:  12.5,
		},
		Disk: v1alpha1.DiskReport{
			Availability: v1alpha1.Ready(),
			Partitions: []v1alpha1.DiskReading{
				{Device: "/dev/sda1", Mountpoint: "/", FSType: "ext4", TotalBytes: 100, UsedBytes: 95, FreeBytes: 5, Percent: 95, Severity: v1alpha1.SeverityCritical},
			},
			Severity: v1alpha1.SeverityCritical,
		},
		Network: v1alpha1.NetworkReading{Availability: v1alpha1.Unavailable("network: not permitted")},
		Processes: v1alpha1.ProcessReport{
			Availability: v1alpha1.Ready(),
			Total:        120,
			TopCPU: []v1alpha1.ProcessInfo{
				{PID: 42, Name: "postgres", CPUPercent: 33.3, MemoryPercent: 12.1},
				{PID: 7, Name: "nginx", CPUPercent: 5, MemoryPercent: 0.4},
			},
		},
		Connectivity: []v1alpha1.ConnectivityResult{
			{Name: "main-db", Type: "postgresql", Host: "db", Port: 5432, State: v1alpha1.ConnectionFailed, Message: "connection refused", LatencyMS: 3},
			{Name: "cache", Type: "redis", Host: "cache", Port: 6379, State: v1alpha1.ConnectionSkipped, Message: "redis support is not available in this build"},
		},
		Overall: v1alpha1.SeverityCritical,
	}
}

func TestSink_RoundTrip(t *testing.T) {
	for _, format := range []string{FormatJSON, FormatYAML} {
		t.Run(format, func(t *testing.T) {
			sink := NewSink(Options{Dir: t.TempDir(), Format: format})
			want := sampleSnapshot()

			path, err := sink.Write(context.Background(), want)
			require.NoError(t, err)
			assert.Equal(t, "system_health_report."+format, filepath.Base(path))

			got, err := Read(path)
			require.NoError(t, err)

			require.True(t, want.Timestamp.Equal(got.Timestamp))
			got.Timestamp = want.Timestamp
			assert.Equal(t, want, got)
		})
	}
}

func TestSink_LatestOverwrites(t *testing.T) {
	sink := NewSink(Options{Dir: t.TempDir()})

	first := sampleSnapshot()
	_, err := sink.Write(context.Background(), first)
	require.NoError(t, err)

	second := sampleSnapshot()
	second.RunID = "second"
	second.Overall = v1alpha1.SeverityHealthy
	path, err := sink.Write(context.Background(), second)
	require.NoError(t, err)

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "second", got.RunID)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files or extra reports left behind")
}

func TestSink_HistoryCreatesTimestampedFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	sink := NewSink(Options{Dir: dir, KeepHistory: true})

	a := sampleSnapshot()
	b := sampleSnapshot()
	b.Timestamp = a.Timestamp.Add(time.Minute)

	pathA, err := sink.Write(context.Background(), a)
	require.NoError(t, err)
	pathB, err := sink.Write(context.Background(), b)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "health_report_20260304_050607.json"), pathA)
	assert.Equal(t, filepath.Join(dir, "health_report_20260304_050707.json"), pathB)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestSink_WriteFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := NewSink(Options{Dir: filepath.Join(blocker, "sub")}).Write(context.Background(), sampleSnapshot())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWriteFailed)
}

func TestSink_UnsupportedFormat(t *testing.T) {
	_, err := NewSink(Options{Dir: t.TempDir(), Format: "xml"}).Write(context.Background(), sampleSnapshot())
	assert.ErrorIs(t, err, ErrWriteFailed)
}

func TestRead_Errors(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"kind":"Pod"}`), 0o600))
	_, err = Read(bad)
	assert.ErrorContains(t, err, "unexpected kind")
}

func TestLatestPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "system_health_report.json"), LatestPath("out", ""))
	assert.Equal(t, filepath.Join("out", "system_health_report.yaml"), LatestPath("out", "YAML"))
}
