package sysinfo

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	gopsnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
)

// GopsutilProvider reads metrics through the gopsutil library. This is
// the preferred source.
type GopsutilProvider struct{}

func (p *GopsutilProvider) Name() string { return "gopsutil" }

// CPUPercent samples overall CPU usage over one second.
func (p *GopsutilProvider) CPUPercent(ctx context.Context) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, time.Second, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, nil
	}
	return round2(percents[0]), nil
}

func (p *GopsutilProvider) Memory(ctx context.Context) (*Memory, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return &Memory{
		TotalGB:     toGB(vm.Total),
		AvailableGB: toGB(vm.Available),
		UsedGB:      toGB(vm.Used),
		Percent:     round2(vm.UsedPercent),
	}, nil
}

func (p *GopsutilProvider) Disks(ctx context.Context) ([]Disk, error) {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, err
	}
	disks := make([]Disk, 0, len(partitions))
	for _, part := range partitions {
		usage, err := disk.UsageWithContext(ctx, part.Mountpoint)
		if err != nil {
			// Unreadable mounts (card readers, locked volumes) are skipped.
			continue
		}
		disks = append(disks, Disk{
			Device:     part.Device,
			Mountpoint: part.Mountpoint,
			Fstype:     part.Fstype,
			TotalGB:    toGB(usage.Total),
			UsedGB:     toGB(usage.Used),
			FreeGB:     toGB(usage.Free),
			Percent:    round2(usage.UsedPercent),
		})
	}
	return disks, nil
}

func (p *GopsutilProvider) Interfaces(ctx context.Context) ([]Iface, error) {
	stats, err := gopsnet.InterfacesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	var ifaces []Iface
	for _, stat := range stats {
		for _, addr := range stat.Addrs {
			ifaces = append(ifaces, Iface{Interface: stat.Name, IP: addr.Addr})
		}
	}
	return ifaces, nil
}

func (p *GopsutilProvider) BootTime(ctx context.Context) (time.Time, error) {
	epoch, err := host.BootTimeWithContext(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(epoch), 0), nil
}

func (p *GopsutilProvider) ProcessCount(ctx context.Context) (int, error) {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return len(pids), nil
}
