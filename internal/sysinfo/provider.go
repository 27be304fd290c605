// Package sysinfo collects host health metrics and derives a health
// score. Metrics come from one of two interchangeable providers selected
// at startup: the gopsutil library when it can read this host, or a
// command-based fallback producing the same field set.
package sysinfo

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/microdiag/windoctor/internal/winexec"
)

// Memory summarizes physical memory usage.
type Memory struct {
	TotalGB     float64 `json:"total_gb"`
	AvailableGB float64 `json:"available_gb"`
	UsedGB      float64 `json:"used_gb"`
	Percent     float64 `json:"percent"`
}

// Disk summarizes one mounted volume.
type Disk struct {
	Device     string  `json:"device"`
	Mountpoint string  `json:"mountpoint"`
	Fstype     string  `json:"fstype"`
	TotalGB    float64 `json:"total_gb"`
	UsedGB     float64 `json:"used_gb"`
	FreeGB     float64 `json:"free_gb"`
	Percent    float64 `json:"percent"`
}

// Iface is one interface address pair.
type Iface struct {
	Interface string `json:"interface"`
	IP        string `json:"ip"`
}

// Provider abstracts the raw metric source. Both implementations return
// the same field set so the collector never branches on the source.
type Provider interface {
	Name() string
	CPUPercent(ctx context.Context) (float64, error)
	Memory(ctx context.Context) (*Memory, error)
	Disks(ctx context.Context) ([]Disk, error)
	Interfaces(ctx context.Context) ([]Iface, error)
	BootTime(ctx context.Context) (time.Time, error)
	ProcessCount(ctx context.Context) (int, error)
}

// SelectProvider picks the preferred library-backed provider when it can
// read this host, falling back to the command-based provider otherwise.
// The choice is made once, at startup, not per metric access.
func SelectProvider(ctx context.Context, runner winexec.Runner, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	preferred := &GopsutilProvider{}
	if _, err := preferred.Memory(ctx); err == nil {
		logger.Debug("metric provider selected", zap.String("provider", preferred.Name()))
		return preferred
	}
	fallback := NewCommandProvider(runner)
	logger.Warn("preferred metric source unavailable, using command fallback",
		zap.String("provider", fallback.Name()))
	return fallback
}

const gib = 1024 * 1024 * 1024

func toGB(bytes uint64) float64 {
	return round2(float64(bytes) / gib)
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
