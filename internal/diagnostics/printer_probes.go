package diagnostics

import (
	"context"
	"os"
	"strings"
)

// SpoolerProbe queries the print spooler service state.
type SpoolerProbe struct{}

func (p *SpoolerProbe) Name() string { return "spooler_service" }

func (p *SpoolerProbe) Description() string {
	return "Checking the print spooler service state"
}

func (p *SpoolerProbe) Run(ctx context.Context, env *Env) ProbeResult {
	out := env.run(ctx, "sc", "query", env.Config.Printer.SpoolerService)
	if !out.OK() {
		// Unknown service or sc failure both read as "not running".
		return ProbeResult{Name: p.Name(), OK: false, Detail: "unknown"}
	}
	if strings.Contains(strings.ToUpper(out.Stdout), "RUNNING") {
		return ProbeResult{Name: p.Name(), OK: true, Detail: "running"}
	}
	return ProbeResult{Name: p.Name(), OK: false, Detail: "stopped"}
}

// QueueDepthProbe counts pending job files in the spool directory. An
// absent directory counts as an empty queue.
type QueueDepthProbe struct{}

func (p *QueueDepthProbe) Name() string { return "queue_depth" }

func (p *QueueDepthProbe) Description() string {
	return "Counting queued print jobs"
}

func (p *QueueDepthProbe) Run(ctx context.Context, env *Env) ProbeResult {
	entries, err := os.ReadDir(env.Config.Printer.SpoolDir)
	if err != nil {
		return ProbeResult{Name: p.Name(), OK: true, Value: 0, Detail: "spool directory absent"}
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if hasSuffixFold(entry.Name(), ".spl") {
			count++
		}
	}
	return ProbeResult{Name: p.Name(), OK: true, Value: count}
}

func hasSuffixFold(name, suffix string) bool {
	return len(name) >= len(suffix) &&
		strings.EqualFold(name[len(name)-len(suffix):], suffix)
}

// PrinterListProbe lists installed printers through WMI.
type PrinterListProbe struct{}

func (p *PrinterListProbe) Name() string { return "printer_list" }

func (p *PrinterListProbe) Description() string {
	return "Listing installed printers"
}

func (p *PrinterListProbe) Run(ctx context.Context, env *Env) ProbeResult {
	out := env.run(ctx, "wmic", "printer", "get", "name,status,default", "/Format:csv")
	if !out.OK() {
		return ProbeResult{Name: p.Name(), OK: false, Detail: out.Stderr}
	}
	printers := parsePrinterCSV(out.Stdout)
	return ProbeResult{Name: p.Name(), OK: true, Value: len(printers), Printers: printers}
}

// parsePrinterCSV parses `wmic ... /Format:csv` output. The CSV columns
// are Node,Default,Name,Status; wmic emits a blank line and a header
// before the rows.
func parsePrinterCSV(raw string) []Printer {
	var printers []Printer
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
		if len(parts) < 4 {
			continue
		}
		printers = append(printers, Printer{
			Default: strings.EqualFold(strings.TrimSpace(parts[1]), "TRUE"),
			Name:    strings.TrimSpace(parts[2]),
			Status:  strings.TrimSpace(parts[3]),
		})
	}
	return printers
}

// PrinterProbes returns the probe set the printer aggregator runs, in
// execution order.
func PrinterProbes() []Probe {
	return []Probe{
		&SpoolerProbe{},
		&PrinterListProbe{},
		&QueueDepthProbe{},
	}
}
