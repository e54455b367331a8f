// Package health reports process and host health for the status endpoint.
package health

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot is a point-in-time view of the host the server runs on.
type Snapshot struct {
	Status        string  `json:"status"`
	Hostname      string  `json:"hostname"`
	Platform      string  `json:"platform"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	Goroutines    int     `json:"goroutines"`
	Timestamp     string  `json:"timestamp"`
}

// Collect gathers a snapshot. Collection failures degrade to partial data
// rather than an error; a health probe should not fail because a gauge is
// unavailable.
func Collect(ctx context.Context) Snapshot {
	snap := Snapshot{
		Status:     "ok",
		Goroutines: runtime.NumGoroutine(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	if info, err := host.InfoWithContext(ctx); err == nil {
		snap.Hostname = info.Hostname
		snap.Platform = info.Platform
		snap.UptimeSeconds = info.Uptime
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		snap.MemoryPercent = vm.UsedPercent
	}
	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		snap.CPUPercent = percents[0]
	}
	return snap
}
