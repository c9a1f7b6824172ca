package alert

import (
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/aymerick/raymond"

	"github.com/clustergate/hostgate/api/v1alpha1"
)

//go:embed templates/*.hbs
var templateFS embed.FS

// severityColors are the header colors of the HTML body.
var severityColors = map[v1alpha1.Severity]string{
	v1alpha1.SeverityHealthy:  "#28a745",
	v1alpha1.SeverityWarning:  "#ffc107",
	v1alpha1.SeverityCritical: "#dc3545",
}

// Content is a rendered alert, ready to hand to a Transport.
type Content struct {
	Subject string
	Text    string
	HTML    string
}

// Renderer turns a snapshot into alert content using Handlebars templates.
type Renderer struct {
	html *raymond.Template
	text *raymond.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	html, err := parseTemplate("templates/alert.html.hbs")
	if err != nil {
		return nil, err
	}
	text, err := parseTemplate("templates/alert.txt.hbs")
	if err != nil {
		return nil, err
	}
	return &Renderer{html: html, text: text}, nil
}

func parseTemplate(name string) (*raymond.Template, error) {
	content, err := templateFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("template not found: %s", name)
	}
	tmpl, err := raymond.Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	return tmpl, nil
}

// Subject formats the alert subject line.
func Subject(snap *v1alpha1.HealthSnapshot) string {
	return fmt.Sprintf("[%s] System Health Alert - %s", snap.Overall, snap.System.Hostname)
}

// Render produces the subject and both bodies for snap.
func (r *Renderer) Render(snap *v1alpha1.HealthSnapshot) (Content, error) {
	ctx := newView(snap)

	html, err := r.html.Exec(ctx)
	if err != nil {
		return Content{}, fmt.Errorf("failed to render html body: %w", err)
	}
	text, err := r.text.Exec(ctx)
	if err != nil {
		return Content{}, fmt.Errorf("failed to render text body: %w", err)
	}

	return Content{
		Subject: Subject(snap),
		Text:    text,
		HTML:    html,
	}, nil
}

type view struct {
	Hostname  string
	Overall   string
	Color     string
	Timestamp string
	RunID     string

	Resources    []resourceView
	Disks        []diskView
	DiskNote     string
	Connectivity []connectivityView
	Processes    []processView
}

type resourceView struct {
	Name, Status, Class, Detail string
}

type diskView struct {
	Mountpoint, Used, Total, Percent, Status, Class string
}

type connectivityView struct {
	Name, Type, State, Class, Message string
}

type processView struct {
	PID               int32
	Name, CPU, Memory string
}

func newView(snap *v1alpha1.HealthSnapshot) view {
	v := view{
		Hostname:  snap.System.Hostname,
		Overall:   snap.Overall.String(),
		Color:     severityColors[snap.Overall],
		Timestamp: snap.Timestamp.Format(time.RFC1123),
		RunID:     snap.RunID,
	}

	cpu := resourceView{Name: "CPU"}
	if snap.CPU.Available {
		cpu.Status, cpu.Class = severityLabel(snap.CPU.Severity)
		cpu.Detail = fmt.Sprintf("Usage: %s, %d logical cores (%d physical)",
			percent(snap.CPU.Percent), snap.CPU.LogicalCores, snap.CPU.PhysicalCores)
	} else {
		cpu.Status, cpu.Class, cpu.Detail = "UNAVAILABLE", "", snap.CPU.Reason
	}

	memory := resourceView{Name: "Memory"}
	if snap.Memory.Available {
		memory.Status, memory.Class = severityLabel(snap.Memory.Severity)
		memory.Detail = fmt.Sprintf("Used: %s / %s (%s), swap %s",
			HumanBytes(snap.Memory.UsedBytes), HumanBytes(snap.Memory.TotalBytes),
			percent(snap.Memory.Percent), percent(snap.Memory.SwapPercent))
	} else {
		memory.Status, memory.Class, memory.Detail = "UNAVAILABLE", "", snap.Memory.Reason
	}
	v.Resources = []resourceView{cpu, memory}

	switch {
	case !snap.Disk.Available:
		v.DiskNote = "Disk usage unavailable: " + snap.Disk.Reason
	case len(snap.Disk.Partitions) == 0:
		v.DiskNote = "No accessible partitions."
	}
	for _, d := range snap.Disk.Partitions {
		status, class := severityLabel(d.Severity)
		v.Disks = append(v.Disks, diskView{
			Mountpoint: d.Mountpoint,
			Used:       HumanBytes(d.UsedBytes),
			Total:      HumanBytes(d.TotalBytes),
			Percent:    percent(d.Percent),
			Status:     status,
			Class:      class,
		})
	}

	for _, c := range snap.Connectivity {
		v.Connectivity = append(v.Connectivity, connectivityView{
			Name:    c.Name,
			Type:    c.Type,
			State:   string(c.State),
			Class:   strings.ToLower(c.State.Severity().String()),
			Message: c.Message,
		})
	}

	for _, p := range snap.Processes.TopCPU {
		v.Processes = append(v.Processes, processView{
			PID:    p.PID,
			Name:   p.Name,
			CPU:    percent(p.CPUPercent),
			Memory: percent(p.MemoryPercent),
		})
	}
	return v
}

func severityLabel(s v1alpha1.Severity) (status, class string) {
	return s.String(), strings.ToLower(s.String())
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// HumanBytes formats a byte count with a binary unit suffix.
func HumanBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
