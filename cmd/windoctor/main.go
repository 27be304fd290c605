// windoctor is a Windows maintenance toolkit: it diagnoses and repairs
// common network and printing faults, cleans temporary files, and collects
// system health metrics. Every command ends with a single JSON summary on
// stdout and exits 0 when the system is healthy or the repair succeeded.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/microdiag/windoctor/internal/cli"
	"github.com/microdiag/windoctor/internal/config"
)

// errUnhealthy marks a run that completed but found (or left) a problem.
// It maps to exit code 1 without an extra error message.
var errUnhealthy = errors.New("unhealthy")

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errUnhealthy) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		opts       cli.Options
		configPath string
	)

	root := &cobra.Command{
		Use:           "windoctor",
		Short:         "Windows maintenance toolkit",
		Long:          "Diagnose and repair common network and printer faults, clean temporary files, and collect system health metrics.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().StringVarP(&opts.Output, "output", "o", "table", "output format: table, json, or yaml")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path")

	newToolkit := func() (*cli.Toolkit, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		logger, err := newLogger(opts.Verbose)
		if err != nil {
			return nil, err
		}
		return cli.NewToolkit(cfg, logger, opts), nil
	}

	root.AddCommand(
		newNetworkCmd(&opts, newToolkit),
		newPrinterCmd(&opts, newToolkit),
		newCleanupCmd(&opts, newToolkit),
		newSysInfoCmd(&opts, newToolkit),
	)

	return root
}

type toolkitFactory func() (*cli.Toolkit, error)

func newNetworkCmd(opts *cli.Options, newToolkit toolkitFactory) *cobra.Command {
	return &cobra.Command{
		Use:       "network [action]",
		Short:     "Diagnose and repair network faults",
		Long:      "Actions: diagnose (default), full, wifi, dns, dhcp, winsock, tcpip, setdns.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"diagnose", "full", "wifi", "dns", "dhcp", "winsock", "tcpip", "setdns"},
		RunE: func(cmd *cobra.Command, args []string) error {
			toolkit, err := newToolkit()
			if err != nil {
				return err
			}
			report, err := toolkit.RunNetwork(cmd.Context(), actionArg(args), *opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if !report.Success {
				return errUnhealthy
			}
			return nil
		},
	}
}

func newPrinterCmd(opts *cli.Options, newToolkit toolkitFactory) *cobra.Command {
	return &cobra.Command{
		Use:       "printer [action]",
		Short:     "Diagnose and repair printing faults",
		Long:      "Actions: diagnose (default), full, spooler, clear.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"diagnose", "full", "spooler", "clear"},
		RunE: func(cmd *cobra.Command, args []string) error {
			toolkit, err := newToolkit()
			if err != nil {
				return err
			}
			report, err := toolkit.RunPrinter(cmd.Context(), actionArg(args), *opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if !report.Success {
				return errUnhealthy
			}
			return nil
		},
	}
}

func newCleanupCmd(opts *cli.Options, newToolkit toolkitFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete temporary files, caches, and stale logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			toolkit, err := newToolkit()
			if err != nil {
				return err
			}
			_, err = toolkit.RunCleanup(cmd.Context(), *opts, cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report what would be deleted without deleting")
	return cmd
}

func newSysInfoCmd(opts *cli.Options, newToolkit toolkitFactory) *cobra.Command {
	var sopts cli.SysInfoOptions
	var intervalSeconds int

	cmd := &cobra.Command{
		Use:   "sysinfo",
		Short: "Collect system health metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			toolkit, err := newToolkit()
			if err != nil {
				return err
			}
			sopts.Interval = time.Duration(intervalSeconds) * time.Second
			healthy, err := toolkit.RunSysInfo(cmd.Context(), *opts, sopts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if !healthy {
				return errUnhealthy
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&sopts.JSON, "json", false, "JSON output only")
	cmd.Flags().BoolVar(&sopts.Watch, "watch", false, "continuous monitoring mode")
	cmd.Flags().IntVar(&intervalSeconds, "interval", 60, "watch interval in seconds")
	return cmd
}

func actionArg(args []string) string {
	if len(args) == 0 {
		return "diagnose"
	}
	return args[0]
}

// newLogger builds the operational logger. It writes to stderr so the
// JSON summary owns stdout.
func newLogger(verbose bool) (*zap.Logger, error) {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
