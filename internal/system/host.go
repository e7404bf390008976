// Package system reads host facts and per-core CPU usage through gopsutil.
package system

import (
	"context"
	"runtime"

	"cputop/internal/logger"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
)

type SystemReader struct {
	log logger.Logger
}

func NewReader(log logger.Logger) *SystemReader {
	return &SystemReader{log: log}
}

type HostInfo struct {
	Hostname      string `json:"hostname"`
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	KernelVersion string `json:"kernel_version"`
	UptimeSeconds uint64 `json:"uptime_seconds"`
	Cores         int    `json:"cores"`
}

func (r *SystemReader) Host(ctx context.Context) HostInfo {
	info := HostInfo{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}

	stat, err := host.InfoWithContext(ctx)
	if err != nil {
		r.log.Debug("failed to read host info", "error", err.Error())
	} else {
		info.Hostname = stat.Hostname
		info.KernelVersion = stat.KernelVersion
		info.UptimeSeconds = stat.Uptime
	}

	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		r.log.Debug("failed to count cpus", "error", err.Error())
	}
	info.Cores = cores

	return info
}

// CPUPercentPerCore returns utilisation per logical core since the previous
// call. The first call measures against boot time.
func (r *SystemReader) CPUPercentPerCore(ctx context.Context) ([]float64, error) {
	return cpu.PercentWithContext(ctx, 0, true)
}
