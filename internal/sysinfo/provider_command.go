package sysinfo

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/microdiag/windoctor/internal/winexec"
)

// CommandProvider is the fallback metric source. It shells out to the OS
// utilities (wmic, tasklist) and parses their output into the same field
// set the library provider produces.
type CommandProvider struct {
	runner winexec.Runner
}

// NewCommandProvider returns a command-backed Provider.
func NewCommandProvider(runner winexec.Runner) *CommandProvider {
	return &CommandProvider{runner: runner}
}

func (p *CommandProvider) Name() string { return "command" }

func (p *CommandProvider) run(ctx context.Context, name string, args ...string) (string, error) {
	out := p.runner.Run(ctx, winexec.Command{Name: name, Args: args})
	if err := out.Err(); err != nil {
		return "", err
	}
	return out.Stdout, nil
}

// CPUPercent parses `wmic cpu get loadpercentage`.
func (p *CommandProvider) CPUPercent(ctx context.Context) (float64, error) {
	raw, err := p.run(ctx, "wmic", "cpu", "get", "loadpercentage")
	if err != nil {
		return 0, err
	}
	for _, line := range strings.Split(raw, "\n")[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		value, err := strconv.ParseFloat(line, 64)
		if err != nil {
			continue
		}
		return value, nil
	}
	return 0, errors.New("no load value in wmic output")
}

// Memory parses `wmic OS get FreePhysicalMemory,TotalVisibleMemorySize`.
// wmic reports kilobytes.
func (p *CommandProvider) Memory(ctx context.Context) (*Memory, error) {
	raw, err := p.run(ctx, "wmic", "OS", "get", "FreePhysicalMemory,TotalVisibleMemorySize", "/Value")
	if err != nil {
		return nil, err
	}
	values := map[string]uint64{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		key, val, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSpace(val), 10, 64)
		if err != nil {
			continue
		}
		values[strings.TrimSpace(key)] = n
	}

	total := values["TotalVisibleMemorySize"] * 1024
	free := values["FreePhysicalMemory"] * 1024
	used := total - free
	percent := 0.0
	if total > 0 {
		percent = round2(float64(used) / float64(total) * 100)
	}
	return &Memory{
		TotalGB:     toGB(total),
		AvailableGB: toGB(free),
		UsedGB:      toGB(used),
		Percent:     percent,
	}, nil
}

// Disks parses `wmic logicaldisk get caption,freespace,size /Format:csv`.
// The CSV columns are Node,Caption,FreeSpace,Size after a header line.
func (p *CommandProvider) Disks(ctx context.Context) ([]Disk, error) {
	raw, err := p.run(ctx, "wmic", "logicaldisk", "get", "caption,freespace,size", "/Format:csv")
	if err != nil {
		return nil, err
	}
	var disks []Disk
	sawHeader := false
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}
		if !sawHeader {
			sawHeader = true
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < 4 || parts[2] == "" || parts[3] == "" {
			continue
		}
		free, err1 := strconv.ParseUint(parts[2], 10, 64)
		total, err2 := strconv.ParseUint(parts[3], 10, 64)
		if err1 != nil || err2 != nil || total == 0 {
			continue
		}
		used := total - free
		disks = append(disks, Disk{
			Device:     parts[1],
			Mountpoint: parts[1],
			Fstype:     "NTFS",
			TotalGB:    toGB(total),
			UsedGB:     toGB(used),
			FreeGB:     toGB(free),
			Percent:    round2(float64(used) / float64(total) * 100),
		})
	}
	return disks, nil
}

// Interfaces enumerates local interface addresses without shelling out.
func (p *CommandProvider) Interfaces(ctx context.Context) ([]Iface, error) {
	netIfaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	var ifaces []Iface
	for _, ni := range netIfaces {
		addrs, err := ni.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ifaces = append(ifaces, Iface{Interface: ni.Name, IP: addr.String()})
		}
	}
	return ifaces, nil
}

// BootTime is not recoverable from the fallback commands; `net stats srv`
// only yields a human-readable line, surfaced through UptimeReadable.
func (p *CommandProvider) BootTime(ctx context.Context) (time.Time, error) {
	return time.Time{}, errors.New("boot time unavailable from command source")
}

// UptimeReadable parses the "Statistics since ..." line of `net stats srv`.
func (p *CommandProvider) UptimeReadable(ctx context.Context) string {
	raw, err := p.run(ctx, "net", "stats", "srv")
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(raw, "\n") {
		if strings.Contains(strings.ToLower(line), "since") {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

// ProcessCount counts the non-empty lines of `tasklist /NH`.
func (p *CommandProvider) ProcessCount(ctx context.Context) (int, error) {
	raw, err := p.run(ctx, "tasklist", "/NH")
	if err != nil {
		return 0, err
	}
	count := 0
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count, nil
}
