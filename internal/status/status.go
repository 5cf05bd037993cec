// Package status samples host metrics on demand for the mobile
// application's device-status view.
package status

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// DefaultTimeout bounds a single snapshot; sampling must fail rather than
// hang the request.
const DefaultTimeout = 2 * time.Second

// cpuSampleInterval is how long the CPU usage delta is measured for. It has
// to fit well inside the snapshot timeout.
const cpuSampleInterval = 250 * time.Millisecond

// Snapshot is a point-in-time view of the host.
type Snapshot struct {
	CPUUsagePercent  float64 `json:"cpu_usage_percent"`
	MemoryUsedBytes  uint64  `json:"memory_used_bytes"`
	MemoryTotalBytes uint64  `json:"memory_total_bytes"`
	DiskUsedBytes    uint64  `json:"disk_used_bytes"`
	DiskTotalBytes   uint64  `json:"disk_total_bytes"`
	UptimeSeconds    uint64  `json:"uptime_seconds"`
	LoadAverage1     float64 `json:"load_average_1"`
	LoadAverage5     float64 `json:"load_average_5"`
	LoadAverage15    float64 `json:"load_average_15"`
}

// Reporter samples host counters. It is stateless and safe for concurrent
// use.
type Reporter struct {
	diskPath string
	timeout  time.Duration
}

// NewReporter returns a reporter measuring disk usage of the filesystem
// holding diskPath (the service base directory).
func NewReporter(diskPath string, timeout time.Duration) *Reporter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Reporter{diskPath: diskPath, timeout: timeout}
}

// Snapshot samples the host, bounded by the reporter timeout. The sampling
// goroutine is abandoned on timeout; gopsutil calls do not block once their
// context is cancelled.
func (r *Reporter) Snapshot(ctx context.Context) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type result struct {
		snap *Snapshot
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		snap, err := r.sample(ctx)
		ch <- result{snap, err}
	}()
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("status snapshot: %w", ctx.Err())
	case res := <-ch:
		return res.snap, res.err
	}
}

func (r *Reporter) sample(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot

	percents, err := cpu.PercentWithContext(ctx, cpuSampleInterval, false)
	if err != nil {
		return nil, fmt.Errorf("sample cpu: %w", err)
	}
	if len(percents) > 0 {
		snap.CPUUsagePercent = percents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("sample memory: %w", err)
	}
	snap.MemoryUsedBytes = vm.Used
	snap.MemoryTotalBytes = vm.Total

	du, err := disk.UsageWithContext(ctx, r.diskPath)
	if err != nil {
		return nil, fmt.Errorf("sample disk: %w", err)
	}
	snap.DiskUsedBytes = du.Used
	snap.DiskTotalBytes = du.Total

	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("sample uptime: %w", err)
	}
	snap.UptimeSeconds = uptime

	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("sample load: %w", err)
	}
	snap.LoadAverage1 = avg.Load1
	snap.LoadAverage5 = avg.Load5
	snap.LoadAverage15 = avg.Load15

	return &snap, nil
}
