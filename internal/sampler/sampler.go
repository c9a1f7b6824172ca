// Package sampler reads host resource usage through gopsutil.
//
// Every subsystem is read independently. A subsystem that cannot be read is
// returned with Available=false and a reason instead of failing the whole pass.
package sampler

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/clustergate/hostgate/api/v1alpha1"
)

const (
	// DefaultCPUInterval is the window over which CPU utilization is averaged.
	DefaultCPUInterval = time.Second

	// DefaultTopProcesses is how many processes are kept in the top-by-CPU list.
	DefaultTopProcesses = 5
)

// Options tunes a Sampler.
type Options struct {
	CPUInterval  time.Duration
	TopProcesses int
}

// Sample is the raw, unclassified result of one sampling pass.
type Sample struct {
	System    v1alpha1.HostInfo
	CPU       v1alpha1.CPUReading
	Memory    v1alpha1.MemoryReading
	Disk      v1alpha1.DiskReport
	Network   v1alpha1.NetworkReading
	Processes v1alpha1.ProcessReport
}

// Sampler collects host metrics. The collector functions are fields so tests
// can replace the operating system with fixtures.
type Sampler struct {
	opts Options

	hostInfo   func(context.Context) (*host.InfoStat, error)
	cpuPercent func(context.Context, time.Duration, bool) ([]float64, error)
	cpuCounts  func(context.Context, bool) (int, error)
	cpuInfo    func(context.Context) ([]cpu.InfoStat, error)
	loadAvg    func(context.Context) (*load.AvgStat, error)
	virtualMem func(context.Context) (*mem.VirtualMemoryStat, error)
	swapMem    func(context.Context) (*mem.SwapMemoryStat, error)
	partitions func(context.Context, bool) ([]disk.PartitionStat, error)
	diskUsage  func(context.Context, string) (*disk.UsageStat, error)
	netIO      func(context.Context, bool) ([]net.IOCountersStat, error)
	netIfaces  func(context.Context) (net.InterfaceStatList, error)
	pids       func(context.Context) ([]int32, error)
	procInfo   func(context.Context, int32) (v1alpha1.ProcessInfo, error)
}

// New creates a Sampler reading from the local operating system.
func New(opts Options) *Sampler {
	if opts.CPUInterval <= 0 {
		opts.CPUInterval = DefaultCPUInterval
	}
	if opts.TopProcesses <= 0 {
		opts.TopProcesses = DefaultTopProcesses
	}
	return &Sampler{
		opts:       opts,
		hostInfo:   host.InfoWithContext,
		cpuPercent: cpu.PercentWithContext,
		cpuCounts:  cpu.CountsWithContext,
		cpuInfo:    cpu.InfoWithContext,
		loadAvg:    load.AvgWithContext,
		virtualMem: mem.VirtualMemoryWithContext,
		swapMem:    mem.SwapMemoryWithContext,
		partitions: disk.PartitionsWithContext,
		diskUsage:  disk.UsageWithContext,
		netIO:      net.IOCountersWithContext,
		netIfaces:  net.InterfacesWithContext,
		pids:       process.PidsWithContext,
		procInfo:   readProcess,
	}
}

// Sample reads every subsystem concurrently and returns once all have finished.
// Each goroutine writes only its own field of the result.
func (s *Sampler) Sample(ctx context.Context) Sample {
	var (
		out Sample
		wg  sync.WaitGroup
	)

	run := func(f func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f()
		}()
	}

	run(func() { out.System = s.sampleHost(ctx) })
	run(func() { out.CPU = s.sampleCPU(ctx) })
	run(func() { out.Memory = s.sampleMemory(ctx) })
	run(func() { out.Disk = s.sampleDisk(ctx) })
	run(func() { out.Network = s.sampleNetwork(ctx) })
	run(func() { out.Processes = s.sampleProcesses(ctx) })

	wg.Wait()
	return out
}

func (s *Sampler) sampleHost(ctx context.Context) v1alpha1.HostInfo {
	info := v1alpha1.HostInfo{
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		GoVersion:    runtime.Version(),
	}

	h, err := s.hostInfo(ctx)
	if err != nil {
		log.FromContext(ctx).V(1).Info("host info unavailable, falling back to os.Hostname", "error", err.Error())
		info.Hostname, _ = os.Hostname()
		return info
	}

	info.Hostname = h.Hostname
	info.Platform = h.Platform
	info.PlatformVersion = h.PlatformVersion
	info.KernelVersion = h.KernelVersion
	info.UptimeSeconds = h.Uptime
	if h.OS != "" {
		info.OS = h.OS
	}
	if h.KernelArch != "" {
		info.Architecture = h.KernelArch
	}
	return info
}

func (s *Sampler) sampleCPU(ctx context.Context) v1alpha1.CPUReading {
	logger := log.FromContext(ctx)

	perCore, err := s.cpuPercent(ctx, s.opts.CPUInterval, true)
	if err != nil {
		return v1alpha1.CPUReading{Availability: v1alpha1.Unavailable("cpu: " + err.Error())}
	}
	if len(perCore) == 0 {
		return v1alpha1.CPUReading{Availability: v1alpha1.Unavailable("cpu: no per-core data returned")}
	}

	var sum float64
	for _, p := range perCore {
		sum += p
	}

	reading := v1alpha1.CPUReading{
		Availability: v1alpha1.Ready(),
		Percent:      sum / float64(len(perCore)),
		PerCore:      perCore,
		LogicalCores: len(perCore),
	}

	if n, err := s.cpuCounts(ctx, false); err == nil {
		reading.PhysicalCores = n
	} else {
		logger.V(1).Info("physical core count unavailable", "error", err.Error())
	}
	if n, err := s.cpuCounts(ctx, true); err == nil && n > 0 {
		reading.LogicalCores = n
	}
	if infos, err := s.cpuInfo(ctx); err == nil && len(infos) > 0 {
		reading.FrequencyMHz = infos[0].Mhz
	}
	if avg, err := s.loadAvg(ctx); err == nil {
		reading.Load = &v1alpha1.LoadAverage{Load1: avg.Load1, Load5: avg.Load5, Load15: avg.Load15}
	} else {
		logger.V(1).Info("load average unavailable", "error", err.Error())
	}

	return reading
}

func (s *Sampler) sampleMemory(ctx context.Context) v1alpha1.MemoryReading {
	vm, err := s.virtualMem(ctx)
	if err != nil {
		return v1alpha1.MemoryReading{Availability: v1alpha1.Unavailable("memory: " + err.Error())}
	}

	reading := v1alpha1.MemoryReading{
		Availability:   v1alpha1.Ready(),
		TotalBytes:     vm.Total,
		AvailableBytes: vm.Available,
		UsedBytes:      vm.Used,
		Percent:        vm.UsedPercent,
	}

	// Swap is informational; losing it does not degrade the memory reading.
	if sw, err := s.swapMem(ctx); err == nil {
		reading.SwapTotalBytes = sw.Total
		reading.SwapUsedBytes = sw.Used
		reading.SwapPercent = sw.UsedPercent
	} else {
		log.FromContext(ctx).V(1).Info("swap usage unavailable", "error", err.Error())
	}

	return reading
}

func (s *Sampler) sampleDisk(ctx context.Context) v1alpha1.DiskReport {
	logger := log.FromContext(ctx)

	parts, err := s.partitions(ctx, false)
	if err != nil {
		return v1alpha1.DiskReport{Availability: v1alpha1.Unavailable("disk: " + err.Error())}
	}

	report := v1alpha1.DiskReport{
		Availability: v1alpha1.Ready(),
		Partitions:   make([]v1alpha1.DiskReading, 0, len(parts)),
	}
	for _, p := range parts {
		usage, err := s.diskUsage(ctx, p.Mountpoint)
		if err != nil {
			if !errors.Is(err, fs.ErrPermission) {
				logger.V(1).Info("skipping unreadable partition", "mountpoint", p.Mountpoint, "error", err.Error())
			}
			continue
		}
		report.Partitions = append(report.Partitions, v1alpha1.DiskReading{
			Device:     p.Device,
			Mountpoint: p.Mountpoint,
			FSType:     p.Fstype,
			TotalBytes: usage.Total,
			UsedBytes:  usage.Used,
			FreeBytes:  usage.Free,
			Percent:    usage.UsedPercent,
		})
	}
	return report
}

func (s *Sampler) sampleNetwork(ctx context.Context) v1alpha1.NetworkReading {
	counters, err := s.netIO(ctx, false)
	if err != nil {
		return v1alpha1.NetworkReading{Availability: v1alpha1.Unavailable("network: " + err.Error())}
	}
	if len(counters) == 0 {
		return v1alpha1.NetworkReading{Availability: v1alpha1.Unavailable("network: no counters returned")}
	}

	c := counters[0]
	reading := v1alpha1.NetworkReading{
		Availability: v1alpha1.Ready(),
		BytesSent:    c.BytesSent,
		BytesRecv:    c.BytesRecv,
		PacketsSent:  c.PacketsSent,
		PacketsRecv:  c.PacketsRecv,
		ErrorsIn:     c.Errin,
		ErrorsOut:    c.Errout,
		DropsIn:      c.Dropin,
		DropsOut:     c.Dropout,
	}
	if ifaces, err := s.netIfaces(ctx); err == nil {
		reading.InterfaceCount = len(ifaces)
	}
	return reading
}

func (s *Sampler) sampleProcesses(ctx context.Context) v1alpha1.ProcessReport {
	pids, err := s.pids(ctx)
	if err != nil {
		return v1alpha1.ProcessReport{Availability: v1alpha1.Unavailable("processes: " + err.Error())}
	}

	procs := make([]v1alpha1.ProcessInfo, 0, len(pids))
	for _, pid := range pids {
		if ctx.Err() != nil {
			break
		}
		info, err := s.procInfo(ctx, pid)
		if err != nil {
			// Exited between enumeration and lookup, or access denied.
			continue
		}
		procs = append(procs, info)
	}

	sort.SliceStable(procs, func(i, j int) bool {
		return procs[i].CPUPercent > procs[j].CPUPercent
	})
	if len(procs) > s.opts.TopProcesses {
		procs = procs[:s.opts.TopProcesses]
	}

	return v1alpha1.ProcessReport{
		Availability: v1alpha1.Ready(),
		Total:        len(pids),
		TopCPU:       procs,
	}
}

func readProcess(ctx context.Context, pid int32) (v1alpha1.ProcessInfo, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return v1alpha1.ProcessInfo{}, err
	}
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return v1alpha1.ProcessInfo{}, err
	}
	cpuPct, err := p.CPUPercentWithContext(ctx)
	if err != nil {
		return v1alpha1.ProcessInfo{}, err
	}
	memPct, err := p.MemoryPercentWithContext(ctx)
	if err != nil {
		return v1alpha1.ProcessInfo{}, err
	}
	return v1alpha1.ProcessInfo{
		PID:           pid,
		Name:          name,
		CPUPercent:    cpuPct,
		MemoryPercent: float64(memPct),
	}, nil
}
