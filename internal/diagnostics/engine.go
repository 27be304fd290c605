package diagnostics

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Aggregator runs the relevant probe set and derives the issue list. It is
// read-only and safe to call repeatedly: every call rebuilds the diagnosis
// from fresh probe results.
type Aggregator struct {
	env *Env
}

// NewAggregator returns an aggregator bound to the given environment.
func NewAggregator(env *Env) *Aggregator {
	return &Aggregator{env: env}
}

// Network runs the network probe set sequentially and derives the issues.
func (a *Aggregator) Network(ctx context.Context) *NetworkDiagnosis {
	diag := &NetworkDiagnosis{Issues: []string{}}

	for _, probe := range NetworkProbes() {
		res := probe.Run(ctx, a.env)
		a.env.Logger.Debug("probe finished",
			zap.String("probe", res.Name),
			zap.Bool("ok", res.OK),
			zap.String("detail", res.Detail))

		switch probe.(type) {
		case *ConnectivityProbe:
			diag.Internet = res.OK
			if !res.OK {
				diag.Issues = append(diag.Issues, IssueNoInternet)
			}
		case *ResolutionProbe:
			diag.DNS = res.OK
			if !res.OK {
				diag.Issues = append(diag.Issues, IssueDNSFailure)
			}
		case *LocalIPProbe:
			if res.OK {
				diag.LocalIP = res.Detail
			} else {
				diag.Issues = append(diag.Issues, IssueNoLocalIP)
			}
		case *GatewayProbe:
			diag.Gateway = res.OK
			if !res.OK {
				diag.Issues = append(diag.Issues, IssueNoGateway)
			}
		}
	}

	return diag
}

// Printer runs the printer probe set sequentially and derives the issues.
func (a *Aggregator) Printer(ctx context.Context) *PrinterDiagnosis {
	diag := &PrinterDiagnosis{Printers: []Printer{}, Issues: []string{}}

	for _, probe := range PrinterProbes() {
		res := probe.Run(ctx, a.env)
		a.env.Logger.Debug("probe finished",
			zap.String("probe", res.Name),
			zap.Bool("ok", res.OK),
			zap.Int("value", res.Value))

		switch probe.(type) {
		case *SpoolerProbe:
			diag.SpoolerRunning = res.OK
			if !res.OK {
				diag.Issues = append(diag.Issues, IssueSpoolerStopped)
			}
		case *PrinterListProbe:
			diag.Printers = res.Printers
			for _, printer := range res.Printers {
				if printerTroubled(printer.Status) {
					diag.Issues = append(diag.Issues, PrinterOfflineIssue(printer.Name))
				}
			}
		case *QueueDepthProbe:
			diag.QueueCount = res.Value
			if res.Value > a.env.Config.Printer.BacklogThreshold {
				diag.Issues = append(diag.Issues, QueueBacklogIssue(res.Value))
			}
		}
	}

	return diag
}

func printerTroubled(status string) bool {
	upper := strings.ToUpper(status)
	return strings.Contains(upper, "ERROR") || strings.Contains(upper, "OFFLINE")
}
