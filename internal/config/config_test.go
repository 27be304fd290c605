package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 30*time.Second, cfg.CommandTimeout)
	assert.Equal(t, "8.8.8.8:53", cfg.Network.ConnectivityTarget)
	assert.Equal(t, "google.com", cfg.Network.ResolveHost)
	assert.Equal(t, "Wi-Fi", cfg.Network.WiFiInterface)
	assert.Equal(t, []string{"Wi-Fi", "Ethernet", "Local Area Connection"}, cfg.Network.DNSInterfaces)
	assert.Equal(t, 2*time.Second, cfg.Network.ReleaseSettle)
	assert.Equal(t, 5*time.Second, cfg.Network.RepairSettle)

	assert.Equal(t, "spooler", cfg.Printer.SpoolerService)
	assert.Equal(t, 5, cfg.Printer.BacklogThreshold)
	assert.Contains(t, cfg.Printer.SpoolDir, "PRINTERS")

	assert.Equal(t, time.Hour, cfg.Cleanup.TempMinAge)
	assert.Equal(t, 7*24*time.Hour, cfg.Cleanup.LogMaxAge)

	assert.Equal(t, 60*time.Second, cfg.SysInfo.WatchInterval)
	assert.Equal(t, "8.8.8.8:80", cfg.SysInfo.LocalIPTarget)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "windoctor.yaml")
	body := `
network:
  resolve_host: example.org
  repair_settle: 1s
printer:
  backlog_threshold: 10
cleanup:
  extra_roots:
    - C:\Scratch
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "example.org", cfg.Network.ResolveHost)
	assert.Equal(t, time.Second, cfg.Network.RepairSettle)
	assert.Equal(t, 10, cfg.Printer.BacklogThreshold)
	assert.Equal(t, []string{`C:\Scratch`}, cfg.Cleanup.ExtraRoots)

	// Untouched keys keep their defaults.
	assert.Equal(t, "8.8.8.8:53", cfg.Network.ConnectivityTarget)
	assert.Equal(t, "spooler", cfg.Printer.SpoolerService)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WINDOCTOR_NETWORK_RESOLVE_HOST", "env.example.org")
	t.Setenv("WINDOCTOR_PRINTER_BACKLOG_THRESHOLD", "3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env.example.org", cfg.Network.ResolveHost)
	assert.Equal(t, 3, cfg.Printer.BacklogThreshold)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("network: ["), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
