package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/clustergate/hostgate/api/v1alpha1"
	"github.com/clustergate/hostgate/internal/alert"
)

const ruleWidth = 72

// FormatText writes a human-readable health report to the writer.
func FormatText(w io.Writer, snap *v1alpha1.HealthSnapshot) {
	heavy := strings.Repeat("=", ruleWidth)
	light := strings.Repeat("-", ruleWidth)

	fmt.Fprintln(w, heavy)
	fmt.Fprintf(w, "SYSTEM HEALTH REPORT - %s\n", snap.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Fprintln(w, heavy)
	fmt.Fprintf(w, "\nOVERALL HEALTH: %s\n", snap.Overall)

	section := func(title string) {
		fmt.Fprintln(w)
		fmt.Fprintln(w, light)
		fmt.Fprintln(w, title)
		fmt.Fprintln(w, light)
	}

	section("SYSTEM INFORMATION")
	fmt.Fprintf(w, "  Hostname: %s\n", snap.System.Hostname)
	fmt.Fprintf(w, "  Platform: %s %s (%s)\n", snap.System.Platform, snap.System.PlatformVersion, snap.System.OS)
	fmt.Fprintf(w, "  Kernel: %s\n", snap.System.KernelVersion)
	fmt.Fprintf(w, "  Architecture: %s\n", snap.System.Architecture)
	fmt.Fprintf(w, "  Uptime: %ds\n", snap.System.UptimeSeconds)

	section("CPU - " + statusOf(snap.CPU.Availability, snap.CPU.Severity))
	if snap.CPU.Available {
		fmt.Fprintf(w, "  Physical Cores: %d\n", snap.CPU.PhysicalCores)
		fmt.Fprintf(w, "  Logical Cores: %d\n", snap.CPU.LogicalCores)
		fmt.Fprintf(w, "  Total Usage: %.1f%%\n", snap.CPU.Percent)
		if snap.CPU.Load != nil {
			fmt.Fprintf(w, "  Load Average: %.2f %.2f %.2f\n", snap.CPU.Load.Load1, snap.CPU.Load.Load5, snap.CPU.Load.Load15)
		}
	} else {
		fmt.Fprintf(w, "  %s\n", snap.CPU.Reason)
	}

	section("MEMORY - " + statusOf(snap.Memory.Availability, snap.Memory.Severity))
	if snap.Memory.Available {
		fmt.Fprintf(w, "  Total: %s\n", alert.HumanBytes(snap.Memory.TotalBytes))
		fmt.Fprintf(w, "  Used: %s (%.1f%%)\n", alert.HumanBytes(snap.Memory.UsedBytes), snap.Memory.Percent)
		fmt.Fprintf(w, "  Available: %s\n", alert.HumanBytes(snap.Memory.AvailableBytes))
		fmt.Fprintf(w, "  Swap Used: %s (%.1f%%)\n", alert.HumanBytes(snap.Memory.SwapUsedBytes), snap.Memory.SwapPercent)
	} else {
		fmt.Fprintf(w, "  %s\n", snap.Memory.Reason)
	}

	section("DISK USAGE - " + statusOf(snap.Disk.Availability, snap.Disk.Severity))
	if !snap.Disk.Available {
		fmt.Fprintf(w, "  %s\n", snap.Disk.Reason)
	}
	for _, d := range snap.Disk.Partitions {
		fmt.Fprintf(w, "  %s (%s) - %s\n", d.Mountpoint, d.Device, d.Severity)
		fmt.Fprintf(w, "    Total: %s | Used: %s (%.1f%%)\n", alert.HumanBytes(d.TotalBytes), alert.HumanBytes(d.UsedBytes), d.Percent)
	}

	section("NETWORK")
	if snap.Network.Available {
		fmt.Fprintf(w, "  Data Sent: %s\n", alert.HumanBytes(snap.Network.BytesSent))
		fmt.Fprintf(w, "  Data Received: %s\n", alert.HumanBytes(snap.Network.BytesRecv))
		fmt.Fprintf(w, "  Packets Sent: %d\n", snap.Network.PacketsSent)
		fmt.Fprintf(w, "  Packets Received: %d\n", snap.Network.PacketsRecv)
		fmt.Fprintf(w, "  Errors In/Out: %d/%d\n", snap.Network.ErrorsIn, snap.Network.ErrorsOut)
	} else {
		fmt.Fprintf(w, "  %s\n", snap.Network.Reason)
	}

	if len(snap.Connectivity) > 0 {
		section("SERVICE CONNECTIVITY")
		for _, c := range snap.Connectivity {
			marker := "[FAIL]"
			switch c.State {
			case v1alpha1.ConnectionConnected:
				marker = "[ OK ]"
			case v1alpha1.ConnectionSkipped:
				marker = "[SKIP]"
			case v1alpha1.ConnectionUnknown:
				marker = "[ ?? ]"
			case v1alpha1.ConnectionFailed:
			}
			fmt.Fprintf(w, "  %s %s (%s) - %s\n", marker, c.Name, c.Type, c.State)
			fmt.Fprintf(w, "         Host: %s:%d | %s\n", c.Host, c.Port, c.Message)
		}
	}

	section("TOP CPU CONSUMING PROCESSES")
	if !snap.Processes.Available {
		fmt.Fprintf(w, "  %s\n", snap.Processes.Reason)
	}
	for _, p := range snap.Processes.TopCPU {
		fmt.Fprintf(w, "  PID: %d | %s | CPU: %.1f%% | MEM: %.1f%%\n", p.PID, p.Name, p.CPUPercent, p.MemoryPercent)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, heavy)
}

// FormatOutcome writes the post-run lines: where the report went, what
// happened to the alert, and a closing verdict.
func FormatOutcome(w io.Writer, res *RunResult, alertsEnabled bool) {
	if res.ReportPath != "" {
		fmt.Fprintf(w, "\nHealth report exported to: %s\n", res.ReportPath)
	}
	switch {
	case res.Alert.Sent:
		fmt.Fprintf(w, "\n[EMAIL] %s\n", res.Alert.Reason)
	case alertsEnabled:
		fmt.Fprintf(w, "\n[EMAIL] Alert not sent: %s\n", res.Alert.Reason)
	}

	if res.Snapshot == nil {
		return
	}
	switch res.Snapshot.Overall {
	case v1alpha1.SeverityCritical:
		fmt.Fprintln(w, "\n[ALERT] System is in CRITICAL state! Immediate attention required.")
	case v1alpha1.SeverityWarning:
		fmt.Fprintln(w, "\n[WARNING] System resources are running high. Monitor closely.")
	case v1alpha1.SeverityHealthy:
		fmt.Fprintln(w, "\n[OK] System is healthy.")
	}
}

// FormatJSON writes v as indented JSON to the writer.
func FormatJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func statusOf(a v1alpha1.Availability, s v1alpha1.Severity) string {
	if !a.Available {
		return "UNAVAILABLE"
	}
	return s.String()
}
