package sysinfo

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/microdiag/windoctor/internal/config"
	"github.com/microdiag/windoctor/internal/winexec"
)

// Snapshot is one complete metrics collection pass.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Hostname  string    `json:"hostname"`
	OS        OSInfo    `json:"os"`
	CPU       CPUInfo   `json:"cpu"`
	Memory    Memory    `json:"memory"`
	Disks     []Disk    `json:"disks"`
	Network   Network   `json:"network"`
	Security  Security  `json:"security"`
	Uptime    Uptime    `json:"uptime"`
	Processes int       `json:"processes_count"`
	Health    *Health   `json:"health,omitempty"`
}

// OSInfo identifies the host platform.
type OSInfo struct {
	Type     string `json:"type"`
	Version  string `json:"version"`
	Platform string `json:"platform"`
}

// CPUInfo is the CPU usage block.
type CPUInfo struct {
	UsagePercent float64 `json:"usage_percent"`
	Cores        int     `json:"cores"`
}

// Network is the address block.
type Network struct {
	Hostname    string  `json:"hostname"`
	LocalIP     string  `json:"local_ip"`
	IPAddresses []Iface `json:"ip_addresses"`
}

// Security reports the protection services' state: active, inactive, or
// unknown when the host does not answer.
type Security struct {
	Antivirus          string `json:"antivirus"`
	RealtimeProtection string `json:"realtime_protection,omitempty"`
	Firewall           string `json:"firewall"`
}

// Uptime reports how long the host has been up.
type Uptime struct {
	BootTime       string `json:"boot_time,omitempty"`
	UptimeSeconds  int64  `json:"uptime_seconds,omitempty"`
	UptimeReadable string `json:"uptime_readable"`
}

// Collector assembles snapshots from a Provider plus the security and
// address collaborators.
type Collector struct {
	provider Provider
	runner   winexec.Runner
	cfg      config.SysInfoConfig
	logger   *zap.Logger

	// Injection points for tests.
	now      func() time.Time
	hostname func() (string, error)
	dial     func(network, addr string, timeout time.Duration) (net.Conn, error)
}

// NewCollector returns a Collector bound to the given provider.
func NewCollector(provider Provider, runner winexec.Runner, cfg config.SysInfoConfig, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		provider: provider,
		runner:   runner,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		hostname: os.Hostname,
		dial:     net.DialTimeout,
	}
}

// Collect gathers every metric group into one snapshot. Failing groups
// contribute zero values; collection itself never fails.
func (c *Collector) Collect(ctx context.Context) *Snapshot {
	hostname, _ := c.hostname()

	snap := &Snapshot{
		Timestamp: c.now(),
		Hostname:  hostname,
		OS: OSInfo{
			Type:     runtime.GOOS,
			Version:  runtime.GOARCH,
			Platform: runtime.GOOS + "/" + runtime.GOARCH,
		},
		Security: c.collectSecurity(ctx),
	}

	snap.CPU.Cores = runtime.NumCPU()
	if usage, err := c.provider.CPUPercent(ctx); err == nil {
		snap.CPU.UsagePercent = usage
	} else {
		c.logger.Warn("cpu metrics unavailable", zap.Error(err))
	}

	if mem, err := c.provider.Memory(ctx); err == nil {
		snap.Memory = *mem
	} else {
		c.logger.Warn("memory metrics unavailable", zap.Error(err))
	}

	if disks, err := c.provider.Disks(ctx); err == nil {
		snap.Disks = disks
	} else {
		c.logger.Warn("disk metrics unavailable", zap.Error(err))
	}

	snap.Network = Network{Hostname: hostname, LocalIP: c.localIP()}
	if ifaces, err := c.provider.Interfaces(ctx); err == nil {
		snap.Network.IPAddresses = ifaces
	}

	snap.Uptime = c.collectUptime(ctx)

	if count, err := c.provider.ProcessCount(ctx); err == nil {
		snap.Processes = count
	}

	return snap
}

// CollectWithHealth collects a snapshot and attaches its health score.
func (c *Collector) CollectWithHealth(ctx context.Context) *Snapshot {
	snap := c.Collect(ctx)
	snap.Health = ScoreHealth(snap)
	return snap
}

func (c *Collector) localIP() string {
	conn, err := c.dial("udp", c.cfg.LocalIPTarget, 3*time.Second)
	if err != nil {
		return "unknown"
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok && addr.IP != nil {
		return addr.IP.String()
	}
	return "unknown"
}

func (c *Collector) collectUptime(ctx context.Context) Uptime {
	boot, err := c.provider.BootTime(ctx)
	if err == nil && !boot.IsZero() {
		up := c.now().Sub(boot).Truncate(time.Second)
		return Uptime{
			BootTime:       boot.Format(time.RFC3339),
			UptimeSeconds:  int64(up.Seconds()),
			UptimeReadable: up.String(),
		}
	}
	if cp, ok := c.provider.(*CommandProvider); ok {
		if readable := cp.UptimeReadable(ctx); readable != "" {
			return Uptime{UptimeReadable: readable}
		}
	}
	return Uptime{UptimeReadable: "unknown"}
}

// mpStatus mirrors the fields of Get-MpComputerStatus we consume.
type mpStatus struct {
	AntivirusEnabled          bool `json:"AntivirusEnabled"`
	RealTimeProtectionEnabled bool `json:"RealTimeProtectionEnabled"`
}

func (c *Collector) collectSecurity(ctx context.Context) Security {
	sec := Security{Antivirus: "unknown", Firewall: "unknown"}
	if runtime.GOOS != "windows" {
		return sec
	}

	out := c.runner.Run(ctx, winexec.Command{
		Name: "powershell",
		Args: []string{"-NoProfile", "-Command",
			"Get-MpComputerStatus | Select-Object AntivirusEnabled,RealTimeProtectionEnabled | ConvertTo-Json"},
		Timeout: c.cfg.SecurityTimeout,
	})
	if out.OK() {
		var status mpStatus
		if err := json.Unmarshal([]byte(out.Stdout), &status); err == nil {
			sec.Antivirus = activeWord(status.AntivirusEnabled)
			sec.RealtimeProtection = activeWord(status.RealTimeProtectionEnabled)
		}
	}

	fw := c.runner.Run(ctx, winexec.Command{
		Name:    "netsh",
		Args:    []string{"advfirewall", "show", "allprofiles", "state"},
		Timeout: 5 * time.Second,
	})
	if fw.OK() {
		sec.Firewall = "inactive"
		if strings.Contains(strings.ToUpper(fw.Stdout), "ON") {
			sec.Firewall = "active"
		}
	}

	return sec
}

func activeWord(enabled bool) string {
	if enabled {
		return "active"
	}
	return "inactive"
}
