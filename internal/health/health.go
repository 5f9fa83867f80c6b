// Package health reports host resource usage for the rig, so a starved
// control loop can be traced to CPU or memory pressure.
package health

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot is a point-in-time view of host resources.
type Snapshot struct {
	CPUPercent    float64   `json:"cpu_percent"`
	Load1         float64   `json:"load_1"`
	MemoryPercent float64   `json:"memory_percent"`
	MemoryTotal   uint64    `json:"memory_total"`
	MemoryUsed    uint64    `json:"memory_used"`
	UptimeSeconds uint64    `json:"uptime_seconds"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collect gathers a snapshot. CPU usage is sampled without blocking
// (delta since the previous call).
func Collect() (*Snapshot, error) {
	snap := &Snapshot{CollectedAt: time.Now()}

	percents, err := cpu.Percent(0, false)
	if err != nil {
		return nil, fmt.Errorf("cpu usage: %w", err)
	}
	if len(percents) > 0 {
		snap.CPUPercent = percents[0]
	}

	if avg, err := load.Avg(); err == nil {
		snap.Load1 = avg.Load1
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil, fmt.Errorf("memory usage: %w", err)
	}
	snap.MemoryPercent = vm.UsedPercent
	snap.MemoryTotal = vm.Total
	snap.MemoryUsed = vm.Used

	if up, err := host.Uptime(); err == nil {
		snap.UptimeSeconds = up
	}

	return snap, nil
}
