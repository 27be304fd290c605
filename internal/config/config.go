// Package config loads toolkit configuration from an optional YAML file,
// environment variables, and built-in defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// Config holds every tunable of the maintenance toolkit. All values have
// working defaults; a config file is never required.
type Config struct {
	Network NetworkConfig `mapstructure:"network"`
	Printer PrinterConfig `mapstructure:"printer"`
	Cleanup CleanupConfig `mapstructure:"cleanup"`
	SysInfo SysInfoConfig `mapstructure:"sysinfo"`

	// CommandTimeout bounds every external command invocation.
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
}

// NetworkConfig configures the network probes and repair flow.
type NetworkConfig struct {
	// ConnectivityTarget is the host:port the connectivity probe dials.
	ConnectivityTarget  string        `mapstructure:"connectivity_target"`
	ConnectivityTimeout time.Duration `mapstructure:"connectivity_timeout"`
	// ResolveHost is the hostname the name-resolution probe looks up.
	ResolveHost string `mapstructure:"resolve_host"`
	// WiFiInterface is the adapter name toggled by the adapter reset remedy.
	WiFiInterface string `mapstructure:"wifi_interface"`
	// DNSInterfaces are tried in order by the static DNS remedy.
	DNSInterfaces []string `mapstructure:"dns_interfaces"`

	// Settle delays between dependent repair steps.
	ReleaseSettle time.Duration `mapstructure:"release_settle"`
	AdapterSettle time.Duration `mapstructure:"adapter_settle"`
	RepairSettle  time.Duration `mapstructure:"repair_settle"`
	RenewSettle   time.Duration `mapstructure:"renew_settle"`
}

// PrinterConfig configures the printer probes and repair flow.
type PrinterConfig struct {
	SpoolerService string `mapstructure:"spooler_service"`
	SpoolDir       string `mapstructure:"spool_dir"`
	// BacklogThreshold is the queue depth above which a backlog issue is
	// raised. A queue of exactly this many jobs is not an issue.
	BacklogThreshold int `mapstructure:"backlog_threshold"`

	StopSettle    time.Duration `mapstructure:"stop_settle"`
	RestartSettle time.Duration `mapstructure:"restart_settle"`
	RepairSettle  time.Duration `mapstructure:"repair_settle"`
}

// CleanupConfig configures the cleanup pass.
type CleanupConfig struct {
	// TempMinAge protects recently modified temp entries from deletion.
	TempMinAge time.Duration `mapstructure:"temp_min_age"`
	// LogMaxAge is how old a log file must be before it is removed.
	LogMaxAge time.Duration `mapstructure:"log_max_age"`
	// ExtraRoots are additional directories cleaned like temp folders.
	ExtraRoots []string `mapstructure:"extra_roots"`
}

// SysInfoConfig configures metric collection.
type SysInfoConfig struct {
	WatchInterval   time.Duration `mapstructure:"watch_interval"`
	SecurityTimeout time.Duration `mapstructure:"security_timeout"`
	// LocalIPTarget is the address dialed to learn the outbound local IP.
	LocalIPTarget string `mapstructure:"local_ip_target"`
}

// Load reads configuration from the given file, or from windoctor.yaml in
// the working directory and %ProgramData%\windoctor when path is empty.
// Environment variables prefixed WINDOCTOR_ override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("WINDOCTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("windoctor")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if pd := os.Getenv("ProgramData"); pd != "" {
			v.AddConfigPath(filepath.Join(pd, "windoctor"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "reading config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}
	return &cfg, nil
}

// Default returns the built-in configuration without touching the
// filesystem or environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults are statically well-formed; Unmarshal cannot fail on them.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("command_timeout", 30*time.Second)

	v.SetDefault("network.connectivity_target", "8.8.8.8:53")
	v.SetDefault("network.connectivity_timeout", 3*time.Second)
	v.SetDefault("network.resolve_host", "google.com")
	v.SetDefault("network.wifi_interface", "Wi-Fi")
	v.SetDefault("network.dns_interfaces", []string{"Wi-Fi", "Ethernet", "Local Area Connection"})
	v.SetDefault("network.release_settle", 2*time.Second)
	v.SetDefault("network.adapter_settle", 3*time.Second)
	v.SetDefault("network.repair_settle", 5*time.Second)
	v.SetDefault("network.renew_settle", 3*time.Second)

	v.SetDefault("printer.spooler_service", "spooler")
	v.SetDefault("printer.spool_dir", defaultSpoolDir())
	v.SetDefault("printer.backlog_threshold", 5)
	v.SetDefault("printer.stop_settle", 1*time.Second)
	v.SetDefault("printer.restart_settle", 2*time.Second)
	v.SetDefault("printer.repair_settle", 2*time.Second)

	v.SetDefault("cleanup.temp_min_age", time.Hour)
	v.SetDefault("cleanup.log_max_age", 7*24*time.Hour)

	v.SetDefault("sysinfo.watch_interval", 60*time.Second)
	v.SetDefault("sysinfo.security_timeout", 10*time.Second)
	v.SetDefault("sysinfo.local_ip_target", "8.8.8.8:80")
}

func defaultSpoolDir() string {
	windir := os.Getenv("WINDIR")
	if windir == "" {
		windir = `C:\Windows`
	}
	return filepath.Join(windir, "System32", "spool", "PRINTERS")
}
