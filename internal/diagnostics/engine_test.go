package diagnostics

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microdiag/windoctor/internal/winexec"
)

func healthyNetworkEnv() *Env {
	runner := &fakeRunner{outcomes: map[string]winexec.Outcome{
		"route print": {Status: winexec.StatusOK, Stdout: "0.0.0.0   0.0.0.0   192.168.1.1"},
	}}
	return testEnv(runner)
}

func TestAggregator_Network_Healthy(t *testing.T) {
	agg := NewAggregator(healthyNetworkEnv())

	diag := agg.Network(context.Background())
	assert.True(t, diag.Internet)
	assert.True(t, diag.DNS)
	assert.True(t, diag.Gateway)
	assert.Equal(t, "192.168.1.20", diag.LocalIP)
	assert.Empty(t, diag.Issues)
	assert.True(t, diag.Healthy())
}

func TestAggregator_Network_AllDown(t *testing.T) {
	env := testEnv(&fakeRunner{outcomes: map[string]winexec.Outcome{
		"route print": {Status: winexec.StatusFailed, Stderr: "denied"},
	}})
	env.Dial = func(_, _ string, _ time.Duration) (net.Conn, error) {
		return nil, errors.New("network is unreachable")
	}
	env.LookupHost = func(context.Context, string) ([]string, error) {
		return nil, errors.New("no such host")
	}
	agg := NewAggregator(env)

	diag := agg.Network(context.Background())
	assert.False(t, diag.Healthy())
	assert.Equal(t, []string{
		IssueNoInternet,
		IssueDNSFailure,
		IssueNoLocalIP,
		IssueNoGateway,
	}, diag.Issues)
	assert.Empty(t, diag.LocalIP)
}

// DNS alone failing still makes the network unhealthy; the gateway alone
// failing does not.
func TestAggregator_Network_PartialFailures(t *testing.T) {
	env := healthyNetworkEnv()
	env.LookupHost = func(context.Context, string) ([]string, error) {
		return nil, errors.New("no such host")
	}
	diag := NewAggregator(env).Network(context.Background())
	assert.True(t, diag.Internet)
	assert.False(t, diag.DNS)
	assert.False(t, diag.Healthy())

	env = healthyNetworkEnv()
	env.Runner.(*fakeRunner).outcomes["route print"] = winexec.Outcome{
		Status: winexec.StatusFailed,
	}
	diag = NewAggregator(env).Network(context.Background())
	assert.False(t, diag.Gateway)
	assert.True(t, diag.Healthy())
	assert.Equal(t, []string{IssueNoGateway}, diag.Issues)
}

// Diagnosis is rebuilt from scratch every pass; two passes over the same
// state are identical.
func TestAggregator_Network_FreshEveryPass(t *testing.T) {
	agg := NewAggregator(healthyNetworkEnv())

	first := agg.Network(context.Background())
	second := agg.Network(context.Background())
	assert.Equal(t, first, second)
	assert.NotSame(t, first, second)
}

func printerEnv(t *testing.T, spoolerState string, queued int) *Env {
	t.Helper()
	runner := &fakeRunner{outcomes: map[string]winexec.Outcome{
		"sc query":     {Status: winexec.StatusOK, Stdout: "STATE : " + spoolerState},
		"wmic printer": {Status: winexec.StatusOK, Stdout: "\nNode,Default,Name,Status\nPC,TRUE,HP LaserJet,OK\n"},
	}}
	env := testEnv(runner)

	dir := t.TempDir()
	env.Config.Printer.SpoolDir = dir
	for i := 0; i < queued; i++ {
		name := filepath.Join(dir, "FP"+string(rune('A'+i))+".SPL")
		require.NoError(t, os.WriteFile(name, []byte("job"), 0o644))
	}
	return env
}

func TestAggregator_Printer_Healthy(t *testing.T) {
	agg := NewAggregator(printerEnv(t, "4 RUNNING", 2))

	diag := agg.Printer(context.Background())
	assert.True(t, diag.SpoolerRunning)
	assert.Equal(t, 2, diag.QueueCount)
	require.Len(t, diag.Printers, 1)
	assert.Equal(t, "HP LaserJet", diag.Printers[0].Name)
	assert.Empty(t, diag.Issues)
	assert.True(t, diag.Healthy())
}

func TestAggregator_Printer_SpoolerStopped(t *testing.T) {
	agg := NewAggregator(printerEnv(t, "1 STOPPED", 0))

	diag := agg.Printer(context.Background())
	assert.False(t, diag.SpoolerRunning)
	assert.Contains(t, diag.Issues, IssueSpoolerStopped)
	assert.False(t, diag.Healthy())
}

// The backlog threshold is strictly greater-than: a queue of exactly the
// threshold is fine, one more is an issue.
func TestAggregator_Printer_BacklogBoundary(t *testing.T) {
	threshold := printerEnv(t, "4 RUNNING", 0).Config.Printer.BacklogThreshold

	diag := NewAggregator(printerEnv(t, "4 RUNNING", threshold)).Printer(context.Background())
	assert.Empty(t, diag.Issues)

	diag = NewAggregator(printerEnv(t, "4 RUNNING", threshold+1)).Printer(context.Background())
	assert.Equal(t, []string{QueueBacklogIssue(threshold + 1)}, diag.Issues)
	assert.False(t, diag.Healthy())
}

func TestAggregator_Printer_OfflinePrinter(t *testing.T) {
	env := printerEnv(t, "4 RUNNING", 0)
	env.Runner.(*fakeRunner).outcomes["wmic printer"] = winexec.Outcome{
		Status: winexec.StatusOK,
		Stdout: "\nNode,Default,Name,Status\nPC,TRUE,HP LaserJet,OK\nPC,FALSE,Old Inkjet,Offline\n",
	}

	diag := NewAggregator(env).Printer(context.Background())
	assert.Equal(t, []string{PrinterOfflineIssue("Old Inkjet")}, diag.Issues)
	assert.False(t, diag.Healthy())
}
