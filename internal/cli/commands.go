// Package cli provides testable command implementations for the windoctor
// CLI. The cobra commands in cmd/windoctor delegate here so the command
// logic can be exercised without a real terminal or a real host.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/microdiag/windoctor/internal/cleanup"
	"github.com/microdiag/windoctor/internal/config"
	"github.com/microdiag/windoctor/internal/diagnostics"
	"github.com/microdiag/windoctor/internal/repair"
	"github.com/microdiag/windoctor/internal/sysinfo"
	"github.com/microdiag/windoctor/internal/winexec"
)

// Options carries the flags shared by every subcommand.
type Options struct {
	Verbose bool
	Output  string // json, yaml, or table
	DryRun  bool
}

// Toolkit binds the collaborators one invocation needs.
type Toolkit struct {
	cfg    *config.Config
	logger *zap.Logger
	runner winexec.Runner
	env    *diagnostics.Env
}

// NewToolkit wires a toolkit over the real operating system.
func NewToolkit(cfg *config.Config, logger *zap.Logger, opts Options) *Toolkit {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	runner := winexec.NewExecRunner(logger, winexec.WithDryRun(opts.DryRun))
	return &Toolkit{
		cfg:    cfg,
		logger: logger,
		runner: runner,
		env:    diagnostics.NewEnv(runner, cfg, logger),
	}
}

// NewToolkitWithEnv injects a prepared environment; tests use this to
// substitute the runner and network primitives.
func NewToolkitWithEnv(env *diagnostics.Env) *Toolkit {
	return &Toolkit{
		cfg:    env.Config,
		logger: env.Logger,
		runner: env.Runner,
		env:    env,
	}
}

// RunNetwork executes one network action and writes the report. The
// returned report's Success field decides the process exit code.
func (t *Toolkit) RunNetwork(ctx context.Context, action string, opts Options, w io.Writer) (*repair.Report, error) {
	fixer := repair.NewFixer(t.env)

	var success bool
	switch strings.ToLower(action) {
	case "", "diagnose":
		report := fixer.DiagnoseNetwork(ctx)
		return report, writeReport(report, opts, w)
	case "full":
		success = fixer.NetworkFullRepair(ctx)
	case "wifi":
		success = fixer.ResetWiFiAdapter(ctx)
	case "dns":
		success = fixer.FlushDNS(ctx)
	case "dhcp":
		success = fixer.RenewDHCP(ctx)
	case "winsock":
		success = fixer.ResetWinsock(ctx)
	case "tcpip":
		success = fixer.ResetTCPIP(ctx)
	case "setdns":
		success = fixer.SetStaticDNS(ctx)
	default:
		return nil, errors.Newf("unknown network action: %s", action)
	}

	report := &repair.Report{Success: success, Action: action, Logs: fixer.Log().Entries()}
	return report, writeReport(report, opts, w)
}

// RunPrinter executes one printer action and writes the report.
func (t *Toolkit) RunPrinter(ctx context.Context, action string, opts Options, w io.Writer) (*repair.Report, error) {
	fixer := repair.NewFixer(t.env)

	var success bool
	switch strings.ToLower(action) {
	case "", "diagnose":
		report := fixer.DiagnosePrinter(ctx)
		return report, writeReport(report, opts, w)
	case "full":
		success = fixer.PrinterFullRepair(ctx)
	case "spooler":
		success = fixer.RestartSpooler(ctx)
	case "clear":
		success = fixer.ClearPrintQueue(ctx)
	default:
		return nil, errors.Newf("unknown printer action: %s", action)
	}

	report := &repair.Report{Success: success, Action: action, Logs: fixer.Log().Entries()}
	return report, writeReport(report, opts, w)
}

// RunCleanup executes one cleanup pass and writes its summary.
func (t *Toolkit) RunCleanup(ctx context.Context, opts Options, w io.Writer) (*cleanup.Result, error) {
	cleaner := cleanup.NewCleaner(t.runner, t.cfg.Cleanup, t.logger, cleanup.WithDryRun(opts.DryRun))
	result := cleaner.Run(ctx)

	if opts.Output == "table" {
		printCleanupTable(result, w)
	}
	return result, outputFinal(result, opts, w)
}

// SysInfoOptions carries the metrics collector flags.
type SysInfoOptions struct {
	JSON     bool
	Watch    bool
	Interval time.Duration
}

// RunSysInfo collects one snapshot (or loops in watch mode) and reports
// whether the host is healthy.
func (t *Toolkit) RunSysInfo(ctx context.Context, opts Options, sopts SysInfoOptions, w io.Writer) (bool, error) {
	provider := sysinfo.SelectProvider(ctx, t.runner, t.logger)
	collector := sysinfo.NewCollector(provider, t.runner, t.cfg.SysInfo, t.logger)

	if sopts.Watch {
		return true, t.watch(ctx, collector, sopts, w)
	}

	snap := collector.CollectWithHealth(ctx)
	if sopts.JSON || opts.Output == "json" {
		if err := outputJSON(snap, w); err != nil {
			return false, err
		}
	} else {
		printSnapshotTable(snap, w)
	}
	return snap.Health.Status == "healthy", nil
}

// watch loops until interrupted, emitting one line per interval. An
// interrupt is a clean shutdown, not an error.
func (t *Toolkit) watch(ctx context.Context, collector *sysinfo.Collector, sopts SysInfoOptions, w io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	interval := sopts.Interval
	if interval <= 0 {
		interval = t.cfg.SysInfo.WatchInterval
	}

	fmt.Fprintln(w, "watch mode enabled, Ctrl+C to stop")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		snap := collector.CollectWithHealth(ctx)
		if sopts.JSON {
			if err := outputJSON(snap, w); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(w, "[%s] CPU: %.1f%% | RAM: %.1f%% | Score: %d/100 (%s)\n",
				snap.Timestamp.Format(time.RFC3339),
				snap.CPU.UsagePercent,
				snap.Memory.Percent,
				snap.Health.Score,
				snap.Health.Status)
		}

		select {
		case <-ctx.Done():
			fmt.Fprintln(w, "watch stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// writeReport renders a repair report: human-readable text in table mode,
// then the single-line JSON object every mode ends with.
func writeReport(report *repair.Report, opts Options, w io.Writer) error {
	if opts.Output == "table" {
		printReportTable(report, opts.Verbose, w)
	}
	return outputFinal(report, opts, w)
}

// outputFinal emits the machine-readable summary. The default and json
// modes end with exactly one JSON object on the last stdout line.
func outputFinal(v any, opts Options, w io.Writer) error {
	if strings.ToLower(opts.Output) == "yaml" {
		return outputYAML(v, w)
	}
	return outputJSON(v, w)
}

func outputJSON(v any, w io.Writer) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encoding report")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func outputYAML(v any, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(v)
}

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
	warnColor = color.New(color.FgYellow)
)

func printReportTable(report *repair.Report, verbose bool, w io.Writer) {
	fmt.Fprintf(w, "windoctor - %s\n", report.Action)
	fmt.Fprintln(w, strings.Repeat("=", 50))
	for _, entry := range report.Logs {
		if !verbose && entry.Level == "run" {
			continue
		}
		switch entry.Level {
		case "success":
			okColor.Fprintf(w, "  ✅ %s\n", entry.Message)
		case "error":
			failColor.Fprintf(w, "  ❌ %s\n", entry.Message)
		case "warning":
			warnColor.Fprintf(w, "  ⚠️  %s\n", entry.Message)
		default:
			fmt.Fprintf(w, "  %s\n", entry.Message)
		}
	}
	fmt.Fprintln(w, strings.Repeat("=", 50))
	if report.Success {
		okColor.Fprintln(w, "RESULT: OK")
	} else {
		failColor.Fprintln(w, "RESULT: FAILED")
	}
}

func printCleanupTable(result *cleanup.Result, w io.Writer) {
	fmt.Fprintln(w, "windoctor - cleanup")
	fmt.Fprintln(w, strings.Repeat("=", 50))
	if result.DryRun {
		warnColor.Fprintln(w, "dry-run mode: nothing was deleted")
	}
	fmt.Fprintf(w, "  Files deleted: %d\n", result.FilesDeleted)
	fmt.Fprintf(w, "  Folders deleted: %d\n", result.DirsDeleted)
	fmt.Fprintf(w, "  Space freed: %s\n", result.BytesFreedFormatted)
	if result.ErrorsCount > 0 {
		warnColor.Fprintf(w, "  Errors: %d\n", result.ErrorsCount)
	}
	fmt.Fprintln(w, strings.Repeat("=", 50))
}

func printSnapshotTable(snap *sysinfo.Snapshot, w io.Writer) {
	fmt.Fprintln(w, "windoctor - system info")
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintf(w, "  Host: %s\n", snap.Hostname)
	fmt.Fprintf(w, "  OS: %s\n", snap.OS.Platform)
	fmt.Fprintf(w, "  Uptime: %s\n", snap.Uptime.UptimeReadable)
	fmt.Fprintf(w, "  CPU: %.1f%% (%d cores)\n", snap.CPU.UsagePercent, snap.CPU.Cores)
	fmt.Fprintf(w, "  RAM: %.1f / %.1f GB (%.1f%%)\n",
		snap.Memory.UsedGB, snap.Memory.TotalGB, snap.Memory.Percent)
	for _, disk := range snap.Disks {
		fmt.Fprintf(w, "  Disk %s: %.1f%% used (%.1f GB free)\n",
			disk.Device, disk.Percent, disk.FreeGB)
	}
	fmt.Fprintf(w, "  Security: antivirus=%s firewall=%s\n",
		snap.Security.Antivirus, snap.Security.Firewall)

	line := fmt.Sprintf("  Health: %d/100 (%s)", snap.Health.Score, snap.Health.Status)
	switch snap.Health.Status {
	case "healthy":
		okColor.Fprintln(w, line)
	case "warning":
		warnColor.Fprintln(w, line)
	default:
		failColor.Fprintln(w, line)
	}
	for _, issue := range snap.Health.Issues {
		warnColor.Fprintf(w, "    - %s\n", issue)
	}
	fmt.Fprintln(w, strings.Repeat("=", 50))
}
