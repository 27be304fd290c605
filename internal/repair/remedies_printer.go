package repair

import (
	"context"
	"os"
	"path/filepath"

	"github.com/microdiag/windoctor/internal/diagnostics"
)

// RestartSpooler stops and restarts the print spooler service with a
// settle wait so the service fully stops before the restart.
func (f *Fixer) RestartSpooler(ctx context.Context) bool {
	f.log.Infof("=== SPOOLER RESTART ===")

	service := f.env.Config.Printer.SpoolerService
	stopped := f.runRemedy(ctx, "Stopping the spooler service", "net", "stop", service)
	f.sleep(f.env.Config.Printer.RestartSettle)
	started := f.runRemedy(ctx, "Starting the spooler service", "net", "start", service)

	return stopped && started
}

// ClearPrintQueue stops the spooler, purges the spool directory, and
// starts the spooler again. Files that cannot be deleted are logged and
// skipped; the remedy succeeds iff the spooler comes back up.
func (f *Fixer) ClearPrintQueue(ctx context.Context) bool {
	f.log.Infof("=== CLEARING PRINT QUEUE ===")

	service := f.env.Config.Printer.SpoolerService
	f.runRemedy(ctx, "Stopping the spooler service", "net", "stop", service)
	f.sleep(f.env.Config.Printer.StopSettle)

	f.purgeSpoolDir()

	return f.runRemedy(ctx, "Restarting the spooler service", "net", "start", service)
}

func (f *Fixer) purgeSpoolDir() {
	spoolDir := f.env.Config.Printer.SpoolDir
	entries, err := os.ReadDir(spoolDir)
	if err != nil {
		f.log.Warningf("spool directory not found: %s", spoolDir)
		return
	}

	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(spoolDir, entry.Name())
		if err := os.Remove(path); err != nil {
			f.log.Warningf("could not delete %s: %v (%s)",
				entry.Name(), err, diagnostics.Classify(err))
			continue
		}
		deleted++
	}
	f.log.Successf("deleted %d queued file(s)", deleted)
}
