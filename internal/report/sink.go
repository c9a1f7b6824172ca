// Package report persists health snapshots as flat JSON or YAML files and
// reads them back for consumers such as the show command and dashboards.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/yaml"

	"github.com/clustergate/hostgate/api/v1alpha1"
)

// ErrWriteFailed wraps every failure to persist a report. It is fatal for a
// run and distinct from a CRITICAL health verdict.
var ErrWriteFailed = errors.New("report write failed")

const (
	FormatJSON = "json"
	FormatYAML = "yaml"

	latestBase    = "system_health_report"
	historyPrefix = "health_report_"
	historyLayout = "20060102_150405"
)

// Options configures a Sink.
type Options struct {
	Dir         string
	KeepHistory bool
	Format      string
}

// Sink writes snapshots under a directory, either overwriting one "latest"
// file or creating one timestamp-named file per run.
type Sink struct {
	opts Options
}

// NewSink creates a Sink. An empty Dir means the working directory.
func NewSink(opts Options) *Sink {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	opts.Format = strings.ToLower(opts.Format)
	if opts.Format == "" {
		opts.Format = FormatJSON
	}
	return &Sink{opts: opts}
}

// PathFor returns the file a snapshot will be written to.
func (s *Sink) PathFor(snap *v1alpha1.HealthSnapshot) string {
	name := latestBase
	if s.opts.KeepHistory {
		name = historyPrefix + snap.Timestamp.UTC().Format(historyLayout)
	}
	return filepath.Join(s.opts.Dir, name+"."+s.opts.Format)
}

// Write serializes snap and atomically replaces the target file, creating
// missing parent directories. It returns the written path.
func (s *Sink) Write(ctx context.Context, snap *v1alpha1.HealthSnapshot) (string, error) {
	path := s.PathFor(snap)

	data, err := Marshal(snap, s.opts.Format)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if err := os.MkdirAll(s.opts.Dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating %s: %w", ErrWriteFailed, s.opts.Dir, err)
	}
	if err := writeAtomic(path, data); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	log.FromContext(ctx).V(1).Info("report written", "path", path, "bytes", len(data))
	return path, nil
}

// Marshal encodes a snapshot in the given format.
func Marshal(snap *v1alpha1.HealthSnapshot, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatYAML, "yml":
		return yaml.Marshal(snap)
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}

// Read loads a persisted report. JSON and YAML are both accepted regardless
// of the file extension.
func Read(path string) (*v1alpha1.HealthSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	snap := &v1alpha1.HealthSnapshot{}
	if err := yaml.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", path, err)
	}
	if snap.Kind != "" && snap.Kind != v1alpha1.KindHealthSnapshot {
		return nil, fmt.Errorf("decoding report %s: unexpected kind %q", path, snap.Kind)
	}
	return snap, nil
}

// writeAtomic writes to a temporary file in the destination directory and
// renames it over path, so readers never observe a partial report.
func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}

// LatestPath returns where the "latest" report lives for a directory and format.
func LatestPath(dir, format string) string {
	if format == "" {
		format = FormatJSON
	}
	return filepath.Join(dir, latestBase+"."+strings.ToLower(format))
}
