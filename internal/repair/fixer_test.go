package repair

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microdiag/windoctor/internal/config"
	"github.com/microdiag/windoctor/internal/diagnostics"
	"github.com/microdiag/windoctor/internal/winexec"
)

// scriptRunner records every command and delegates outcomes to a hook, so
// a test can model system state that changes as remedies run.
type scriptRunner struct {
	calls   []string
	outcome func(cmd winexec.Command) winexec.Outcome
}

func (r *scriptRunner) Run(_ context.Context, cmd winexec.Command) winexec.Outcome {
	r.calls = append(r.calls, cmd.String())
	if r.outcome != nil {
		return r.outcome(cmd)
	}
	return winexec.Outcome{Status: winexec.StatusOK}
}

func (r *scriptRunner) called(prefix string) bool {
	for _, call := range r.calls {
		if strings.HasPrefix(call, prefix) {
			return true
		}
	}
	return false
}

func okOutcome(stdout string) winexec.Outcome {
	return winexec.Outcome{Status: winexec.StatusOK, Stdout: stdout}
}

type fakeConn struct{}

func (fakeConn) Read([]byte) (int, error)  { return 0, nil }
func (fakeConn) Write([]byte) (int, error) { return 0, nil }
func (fakeConn) Close() error              { return nil }
func (fakeConn) LocalAddr() net.Addr {
	return &net.UDPAddr{IP: net.IPv4(10, 0, 0, 7)}
}
func (fakeConn) RemoteAddr() net.Addr             { return nil }
func (fakeConn) SetDeadline(time.Time) error      { return nil }
func (fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (fakeConn) SetWriteDeadline(time.Time) error { return nil }

// networkWorld models the host network as one switchable flag: offline
// hosts fail to dial and resolve, online ones succeed.
type networkWorld struct {
	online bool
	runner *scriptRunner
	env    *diagnostics.Env
}

func newNetworkWorld(online bool) *networkWorld {
	w := &networkWorld{online: online, runner: &scriptRunner{}}
	w.runner.outcome = func(cmd winexec.Command) winexec.Outcome {
		switch {
		case strings.HasPrefix(cmd.String(), "route print"):
			if w.online {
				return okOutcome("0.0.0.0   0.0.0.0   192.168.1.1")
			}
			return okOutcome("no default route")
		case strings.HasPrefix(cmd.String(), "netsh wlan show interfaces"):
			return okOutcome("Name : Wi-Fi\nState : connected")
		}
		return winexec.Outcome{Status: winexec.StatusOK}
	}

	w.env = diagnostics.NewEnv(w.runner, config.Default(), nil)
	w.env.Dial = func(_, _ string, _ time.Duration) (net.Conn, error) {
		if w.online {
			return fakeConn{}, nil
		}
		return nil, errors.New("network is unreachable")
	}
	w.env.LookupHost = func(context.Context, string) ([]string, error) {
		if w.online {
			return []string{"142.250.74.78"}, nil
		}
		return nil, errors.New("no such host")
	}
	return w
}

func recordSleeps(f *Fixer) *[]time.Duration {
	sleeps := &[]time.Duration{}
	f.SetSleep(func(d time.Duration) { *sleeps = append(*sleeps, d) })
	return sleeps
}

func TestNetworkFullRepair_AlreadyHealthy(t *testing.T) {
	world := newNetworkWorld(true)
	fixer := NewFixer(world.env)
	recordSleeps(fixer)

	assert.True(t, fixer.NetworkFullRepair(context.Background()))
	assert.False(t, world.runner.called("ipconfig"), "healthy network must not be touched")
	assert.False(t, world.runner.called("netsh"))
}

func TestNetworkFullRepair_RecoversAfterRemedies(t *testing.T) {
	world := newNetworkWorld(false)
	base := world.runner.outcome
	world.runner.outcome = func(cmd winexec.Command) winexec.Outcome {
		// The DHCP renewal is what brings this host back online.
		if cmd.String() == "ipconfig /renew" {
			world.online = true
		}
		return base(cmd)
	}

	fixer := NewFixer(world.env)
	sleeps := recordSleeps(fixer)

	assert.True(t, fixer.NetworkFullRepair(context.Background()))

	cfg := world.env.Config.Network
	assert.Equal(t, []time.Duration{
		cfg.AdapterSettle,
		cfg.RepairSettle,
		cfg.ReleaseSettle,
		cfg.RenewSettle,
	}, *sleeps)

	wifi := "netsh interface set interface " + cfg.WiFiInterface
	for i, prefix := range []string{
		"ipconfig /flushdns",
		wifi + " disable",
		wifi + " enable",
		"ipconfig /release",
		"ipconfig /renew",
	} {
		assert.True(t, world.runner.called(prefix), "step %d (%s) missing", i, prefix)
	}

	entries := fixer.Log().Entries()
	require.NotEmpty(t, entries)
	assert.Equal(t, "success", entries[len(entries)-1].Level)
	assert.Contains(t, entries[len(entries)-1].Message, "repaired successfully")
}

func TestNetworkFullRepair_PersistentFailure(t *testing.T) {
	world := newNetworkWorld(false)
	fixer := NewFixer(world.env)
	recordSleeps(fixer)

	assert.False(t, fixer.NetworkFullRepair(context.Background()))

	entries := fixer.Log().Entries()
	require.NotEmpty(t, entries)
	last := entries[len(entries)-1]
	assert.Equal(t, "warning", last.Level)
	assert.Contains(t, last.Message, "winsock reset")
}

// A remedy failing mid-sequence never aborts the run; the final diagnosis
// alone decides the outcome.
func TestNetworkFullRepair_RemedyFailureDoesNotAbort(t *testing.T) {
	world := newNetworkWorld(false)
	base := world.runner.outcome
	world.runner.outcome = func(cmd winexec.Command) winexec.Outcome {
		switch cmd.String() {
		case "ipconfig /flushdns":
			return winexec.Outcome{Status: winexec.StatusFailed, Stderr: "access denied"}
		case "ipconfig /renew":
			world.online = true
		}
		return base(cmd)
	}

	fixer := NewFixer(world.env)
	recordSleeps(fixer)

	assert.True(t, fixer.NetworkFullRepair(context.Background()))
	assert.True(t, world.runner.called("ipconfig /release"))
}

func TestResetWiFiAdapter_NoWirelessAdapter(t *testing.T) {
	world := newNetworkWorld(false)
	base := world.runner.outcome
	world.runner.outcome = func(cmd winexec.Command) winexec.Outcome {
		if strings.HasPrefix(cmd.String(), "netsh wlan show interfaces") {
			return okOutcome("There is no wireless interface on the system.")
		}
		return base(cmd)
	}

	fixer := NewFixer(world.env)
	recordSleeps(fixer)

	assert.False(t, fixer.ResetWiFiAdapter(context.Background()))
	assert.False(t, world.runner.called("netsh interface set interface"),
		"adapter must not be toggled when absent")
}

func TestRenewDHCP_Idempotent(t *testing.T) {
	world := newNetworkWorld(true)
	fixer := NewFixer(world.env)
	recordSleeps(fixer)

	assert.True(t, fixer.RenewDHCP(context.Background()))
	assert.True(t, fixer.RenewDHCP(context.Background()))
}

func TestSetStaticDNS_FallsThroughInterfaces(t *testing.T) {
	world := newNetworkWorld(true)
	cfg := world.env.Config.Network
	require.GreaterOrEqual(t, len(cfg.DNSInterfaces), 2)

	firstSet := "netsh interface ip set dns " + cfg.DNSInterfaces[0]
	base := world.runner.outcome
	world.runner.outcome = func(cmd winexec.Command) winexec.Outcome {
		if strings.HasPrefix(cmd.String(), firstSet) {
			return winexec.Outcome{Status: winexec.StatusFailed, Stderr: "interface not found"}
		}
		return base(cmd)
	}

	fixer := NewFixer(world.env)
	recordSleeps(fixer)

	assert.True(t, fixer.SetStaticDNS(context.Background()))
	assert.True(t, world.runner.called("netsh interface ip set dns "+cfg.DNSInterfaces[1]))
	assert.True(t, world.runner.called("netsh interface ip add dns "+cfg.DNSInterfaces[1]))
	assert.False(t, world.runner.called("netsh interface ip add dns "+cfg.DNSInterfaces[0]))
}

func TestDiagnoseNetwork_Report(t *testing.T) {
	world := newNetworkWorld(true)
	fixer := NewFixer(world.env)

	report := fixer.DiagnoseNetwork(context.Background())
	assert.True(t, report.Success)
	assert.Equal(t, "diagnose", report.Action)
	assert.NotEmpty(t, report.Logs)

	diag, ok := report.Diagnosis.(*diagnostics.NetworkDiagnosis)
	require.True(t, ok)
	assert.True(t, diag.Healthy())
}

// printerWorld models a host whose spooler tracks net stop/start and whose
// spool directory is a real temp dir the remedies purge.
type printerWorld struct {
	running bool
	runner  *scriptRunner
	env     *diagnostics.Env
}

func newPrinterWorld(t *testing.T, running bool, queued int) *printerWorld {
	t.Helper()
	w := &printerWorld{running: running, runner: &scriptRunner{}}
	w.env = diagnostics.NewEnv(w.runner, config.Default(), nil)

	service := w.env.Config.Printer.SpoolerService
	w.runner.outcome = func(cmd winexec.Command) winexec.Outcome {
		switch {
		case strings.HasPrefix(cmd.String(), "sc query"):
			if w.running {
				return okOutcome("STATE : 4 RUNNING")
			}
			return okOutcome("STATE : 1 STOPPED")
		case strings.HasPrefix(cmd.String(), "wmic printer"):
			return okOutcome("\nNode,Default,Name,Status\nPC,TRUE,HP LaserJet,OK\n")
		case cmd.String() == "net stop "+service:
			w.running = false
		case cmd.String() == "net start "+service:
			w.running = true
		}
		return winexec.Outcome{Status: winexec.StatusOK}
	}

	dir := t.TempDir()
	w.env.Config.Printer.SpoolDir = dir
	for i := 0; i < queued; i++ {
		name := filepath.Join(dir, "FP"+strings.Repeat("0", 4)+string(rune('A'+i))+".SPL")
		require.NoError(t, os.WriteFile(name, []byte("job"), 0o644))
	}
	return w
}

func TestPrinterFullRepair_AlreadyHealthy(t *testing.T) {
	world := newPrinterWorld(t, true, 2)
	fixer := NewFixer(world.env)
	recordSleeps(fixer)

	assert.True(t, fixer.PrinterFullRepair(context.Background()))
	assert.False(t, world.runner.called("net stop"), "healthy spooler must not be restarted")
}

func TestPrinterFullRepair_ClearsBacklogAndRestartsSpooler(t *testing.T) {
	world := newPrinterWorld(t, false, 7)
	fixer := NewFixer(world.env)
	sleeps := recordSleeps(fixer)

	assert.True(t, fixer.PrinterFullRepair(context.Background()))
	assert.True(t, world.running, "spooler must be running afterwards")

	entries, err := os.ReadDir(world.env.Config.Printer.SpoolDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "queued job files must be purged")

	cfg := world.env.Config.Printer
	assert.Equal(t, []time.Duration{
		cfg.StopSettle,
		cfg.RestartSettle,
		cfg.RepairSettle,
	}, *sleeps)
}

func TestClearPrintQueue_MissingSpoolDir(t *testing.T) {
	world := newPrinterWorld(t, true, 0)
	world.env.Config.Printer.SpoolDir = filepath.Join(t.TempDir(), "absent")
	fixer := NewFixer(world.env)
	recordSleeps(fixer)

	assert.True(t, fixer.ClearPrintQueue(context.Background()))

	var warned bool
	for _, entry := range fixer.Log().Entries() {
		if entry.Level == "warning" && strings.Contains(entry.Message, "spool directory not found") {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestDiagnosePrinter_Report(t *testing.T) {
	world := newPrinterWorld(t, false, 7)
	fixer := NewFixer(world.env)

	report := fixer.DiagnosePrinter(context.Background())
	assert.False(t, report.Success)
	assert.Equal(t, "diagnose", report.Action)

	diag, ok := report.Diagnosis.(*diagnostics.PrinterDiagnosis)
	require.True(t, ok)
	assert.Contains(t, diag.Issues, diagnostics.IssueSpoolerStopped)
	assert.Contains(t, diag.Issues, diagnostics.QueueBacklogIssue(7))
}
