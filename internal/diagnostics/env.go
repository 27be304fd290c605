package diagnostics

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/microdiag/windoctor/internal/config"
	"github.com/microdiag/windoctor/internal/winexec"
)

// Env carries the collaborators every probe and remedy needs: the command
// runner, network primitives, and configuration. Tests substitute the
// function fields to simulate any system state.
type Env struct {
	Runner winexec.Runner
	Config *config.Config
	Logger *zap.Logger

	// Dial is used by the connectivity and local-IP probes.
	Dial func(network, addr string, timeout time.Duration) (net.Conn, error)
	// LookupHost is used by the name-resolution probe.
	LookupHost func(ctx context.Context, host string) ([]string, error)
}

// NewEnv builds an Env with production network primitives.
func NewEnv(runner winexec.Runner, cfg *config.Config, logger *zap.Logger) *Env {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Env{
		Runner: runner,
		Config: cfg,
		Logger: logger,
		Dial:   net.DialTimeout,
		LookupHost: func(ctx context.Context, host string) ([]string, error) {
			return net.DefaultResolver.LookupHost(ctx, host)
		},
	}
}

// run executes a read-only command through the runner.
func (e *Env) run(ctx context.Context, name string, args ...string) winexec.Outcome {
	return e.Runner.Run(ctx, winexec.Command{
		Name:    name,
		Args:    args,
		Timeout: e.Config.CommandTimeout,
	})
}
