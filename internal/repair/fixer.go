package repair

import (
	"context"
	"time"

	"github.com/microdiag/windoctor/internal/diagnostics"
	"github.com/microdiag/windoctor/internal/winexec"
)

// Fixer sequences remedies for one repair invocation. It owns the run log
// and an injectable sleep so tests can observe settle waits without
// waiting.
type Fixer struct {
	env   *diagnostics.Env
	agg   *diagnostics.Aggregator
	log   *Log
	sleep func(time.Duration)
}

// NewFixer returns a Fixer with a fresh run log.
func NewFixer(env *diagnostics.Env) *Fixer {
	return &Fixer{
		env:   env,
		agg:   diagnostics.NewAggregator(env),
		log:   NewLog(env.Logger),
		sleep: time.Sleep,
	}
}

// Log exposes the run-scoped log for report building.
func (f *Fixer) Log() *Log { return f.log }

// SetSleep replaces the settle-wait clock; tests use this to record waits.
func (f *Fixer) SetSleep(sleep func(time.Duration)) { f.sleep = sleep }

// runRemedy executes one mutating command, logging start and outcome, and
// returns whether it succeeded. Failures are logged, never propagated.
func (f *Fixer) runRemedy(ctx context.Context, desc, name string, args ...string) bool {
	f.log.Runf("%s...", desc)
	out := f.env.Runner.Run(ctx, winexec.Command{
		Name:    name,
		Args:    args,
		Timeout: f.env.Config.CommandTimeout,
		Mutates: true,
	})
	switch out.Status {
	case winexec.StatusOK:
		f.log.Successf("%s - OK", desc)
		return true
	case winexec.StatusTimeout:
		f.log.Errorf("%s - timed out", desc)
		return false
	default:
		f.log.Errorf("%s - error: %s", desc, out.Stderr)
		return false
	}
}

// cmdRead builds a read-only command with the configured timeout.
func cmdRead(env *diagnostics.Env, name string, args ...string) winexec.Command {
	return winexec.Command{Name: name, Args: args, Timeout: env.Config.CommandTimeout}
}

// diagnoseNetwork runs a fresh network diagnostic pass and logs it.
func (f *Fixer) diagnoseNetwork(ctx context.Context) *diagnostics.NetworkDiagnosis {
	f.log.Infof("=== NETWORK DIAGNOSIS ===")
	diag := f.agg.Network(ctx)
	f.logProbe("internet connectivity", diag.Internet)
	f.logProbe("DNS resolution", diag.DNS)
	f.logProbe("default gateway", diag.Gateway)
	if diag.LocalIP != "" {
		f.log.Successf("local IP: %s", diag.LocalIP)
	}
	return diag
}

// diagnosePrinter runs a fresh printer diagnostic pass and logs it.
func (f *Fixer) diagnosePrinter(ctx context.Context) *diagnostics.PrinterDiagnosis {
	f.log.Infof("=== PRINTER DIAGNOSIS ===")
	diag := f.agg.Printer(ctx)
	f.logProbe("print spooler service", diag.SpoolerRunning)
	f.log.Infof("printers found: %d", len(diag.Printers))
	for _, printer := range diag.Printers {
		if printer.Default {
			f.log.Infof("  %s (default)", printer.Name)
		} else {
			f.log.Infof("  %s", printer.Name)
		}
	}
	if diag.QueueCount > 0 {
		f.log.Warningf("documents queued: %d", diag.QueueCount)
	}
	if len(diag.Issues) == 0 {
		f.log.Successf("no issues detected")
	}
	for _, issue := range diag.Issues {
		f.log.Errorf("issue: %s", issue)
	}
	return diag
}

func (f *Fixer) logProbe(what string, ok bool) {
	if ok {
		f.log.Successf("%s: OK", what)
	} else {
		f.log.Errorf("%s: FAILED", what)
	}
}

// DiagnoseNetwork runs one network diagnostic pass and returns the report
// with the embedded diagnosis. Healthy means internet and DNS both pass.
func (f *Fixer) DiagnoseNetwork(ctx context.Context) *Report {
	diag := f.diagnoseNetwork(ctx)
	return &Report{
		Success:   diag.Healthy(),
		Action:    "diagnose",
		Logs:      f.log.Entries(),
		Diagnosis: diag,
	}
}

// DiagnosePrinter runs one printer diagnostic pass and returns the report
// with the embedded diagnosis.
func (f *Fixer) DiagnosePrinter(ctx context.Context) *Report {
	diag := f.diagnosePrinter(ctx)
	return &Report{
		Success:   diag.Healthy(),
		Action:    "diagnose",
		Logs:      f.log.Entries(),
		Diagnosis: diag,
	}
}

// NetworkFullRepair is the network repair state machine: initial diagnosis,
// remedy sequencing with settle waits, final diagnosis. Individual remedy
// failures do not abort the sequence; the final re-diagnosis is the
// authoritative success signal.
func (f *Fixer) NetworkFullRepair(ctx context.Context) bool {
	f.log.Infof("FULL NETWORK REPAIR")

	diag := f.diagnoseNetwork(ctx)
	if diag.Healthy() {
		f.log.Successf("network appears to be working correctly")
		return true
	}

	f.FlushDNS(ctx)

	if !diag.Internet {
		f.ResetWiFiAdapter(ctx)
		f.sleep(f.env.Config.Network.RepairSettle)
	}

	f.RenewDHCP(ctx)
	f.sleep(f.env.Config.Network.RenewSettle)

	after := f.diagnoseNetwork(ctx)
	if after.Internet {
		f.log.Successf("network repaired successfully")
		return true
	}
	f.log.Warningf("problem persists - try a winsock reset and reboot")
	return false
}

// PrinterFullRepair mirrors the network flow for the printing subsystem:
// diagnose, purge the queue, restart the spooler, settle, re-diagnose.
func (f *Fixer) PrinterFullRepair(ctx context.Context) bool {
	f.log.Infof("FULL PRINTER REPAIR")

	diag := f.diagnosePrinter(ctx)
	if diag.Healthy() {
		f.log.Successf("printing appears to be working correctly")
		return true
	}

	f.ClearPrintQueue(ctx)
	f.RestartSpooler(ctx)
	f.sleep(f.env.Config.Printer.RepairSettle)

	after := f.diagnosePrinter(ctx)
	if after.Healthy() {
		f.log.Successf("printers repaired successfully")
		return true
	}
	f.log.Warningf("problems persist - check the printer cable or network")
	return false
}
