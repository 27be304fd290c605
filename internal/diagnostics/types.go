// Package diagnostics contains the read-only probe set and the aggregators
// that turn probe results into a diagnosis for the network and printer
// repair flows.
package diagnostics

import "fmt"

// ProbeResult is the immutable outcome of a single probe.
type ProbeResult struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
	// Value carries numeric facts such as the queue depth.
	Value int `json:"value,omitempty"`
	// Printers is populated by the printer list probe only.
	Printers []Printer `json:"printers,omitempty"`
}

// Printer describes one installed printer as reported by the OS.
type Printer struct {
	Name    string `json:"name"`
	Default bool   `json:"default"`
	Status  string `json:"status"`
}

// NetworkDiagnosis is one diagnostic pass over the network probes. It is
// built fresh every pass and never mutated afterwards.
type NetworkDiagnosis struct {
	Internet bool     `json:"internet"`
	DNS      bool     `json:"dns"`
	Gateway  bool     `json:"gateway"`
	LocalIP  string   `json:"local_ip,omitempty"`
	Issues   []string `json:"issues"`
}

// Healthy reports whether the network needs no repair.
func (d *NetworkDiagnosis) Healthy() bool { return d.Internet && d.DNS }

// PrinterDiagnosis is one diagnostic pass over the printer probes.
type PrinterDiagnosis struct {
	SpoolerRunning bool      `json:"spooler_running"`
	Printers       []Printer `json:"printers"`
	QueueCount     int       `json:"print_queue_count"`
	Issues         []string  `json:"issues"`
}

// Healthy reports whether the printing subsystem needs no repair.
func (d *PrinterDiagnosis) Healthy() bool { return len(d.Issues) == 0 }

// Issue messages derived by the aggregators. Fixed strings so callers and
// tests can match on them.
const (
	IssueNoInternet       = "no internet connection"
	IssueDNSFailure       = "DNS resolution failed"
	IssueNoGateway        = "no default gateway"
	IssueNoLocalIP        = "could not determine local IP address"
	IssueSpoolerStopped   = "print spooler service not running"
	issuePrinterOfflineFm = "printer %q offline or in error"
	issueQueueBacklogFmt  = "%d documents stuck in print queue"
)

// PrinterOfflineIssue formats the per-printer offline/error issue.
func PrinterOfflineIssue(name string) string {
	return fmt.Sprintf(issuePrinterOfflineFm, name)
}

// QueueBacklogIssue formats the queue backlog issue.
func QueueBacklogIssue(count int) string {
	return fmt.Sprintf(issueQueueBacklogFmt, count)
}
