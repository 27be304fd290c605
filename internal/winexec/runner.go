// Package winexec executes external maintenance commands with a hard
// timeout and captured output. It is the single collaborator every probe
// and remedy goes through to touch the operating system.
package winexec

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a command when the caller does not set one.
const DefaultTimeout = 30 * time.Second

// Status classifies the outcome of a single command invocation.
type Status int

const (
	// StatusOK means the command exited with code zero.
	StatusOK Status = iota
	// StatusFailed means the command exited nonzero or could not start.
	StatusFailed
	// StatusTimeout means the command was killed at its deadline.
	StatusTimeout
)

// Sentinel errors for outcome classification. Callers convert these into
// log entries; they never abort a repair flow.
var (
	ErrCommandFailed  = errors.New("command failed")
	ErrCommandTimeout = errors.New("command timed out")
)

// Command describes one external command invocation. Arguments are passed
// verbatim to the process; there is no shell interpretation.
type Command struct {
	Name    string
	Args    []string
	Timeout time.Duration

	// Mutates marks commands that change system state. Mutating commands
	// are skipped (and reported OK) when the runner is in dry-run mode.
	Mutates bool
}

// String renders the command the way it would appear on a prompt.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Outcome is the tri-state result of running a Command.
type Outcome struct {
	Status   Status
	ExitCode int
	Stdout   string
	Stderr   string
}

// OK reports whether the command succeeded.
func (o Outcome) OK() bool { return o.Status == StatusOK }

// Err maps the outcome onto the error taxonomy; nil on success.
func (o Outcome) Err() error {
	switch o.Status {
	case StatusFailed:
		return errors.Wrapf(ErrCommandFailed, "exit code %d: %s", o.ExitCode, o.Stderr)
	case StatusTimeout:
		return ErrCommandTimeout
	default:
		return nil
	}
}

// Runner runs a single external command to completion or timeout. The
// runner never retries; retry policy belongs to the caller.
type Runner interface {
	Run(ctx context.Context, cmd Command) Outcome
}

// ExecRunner is the production Runner backed by os/exec.
type ExecRunner struct {
	logger *zap.Logger
	dryRun bool
}

// Option configures an ExecRunner.
type Option func(*ExecRunner)

// WithDryRun makes the runner skip mutating commands, reporting them OK.
func WithDryRun(dry bool) Option {
	return func(r *ExecRunner) { r.dryRun = dry }
}

// NewExecRunner returns a Runner logging through the given logger.
func NewExecRunner(logger *zap.Logger, opts ...Option) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &ExecRunner{logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes cmd and classifies the result. The context deadline (or the
// command's own timeout, whichever is sooner) hard-kills the child process
// rather than blocking indefinitely.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if r.dryRun && cmd.Mutates {
		r.logger.Info("dry-run: skipping mutating command", zap.String("command", cmd.String()))
		return Outcome{Status: StatusOK}
	}

	r.logger.Debug("running command", zap.String("command", cmd.String()))

	var stdout, stderr bytes.Buffer
	child := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	child.Stdout = &stdout
	child.Stderr = &stderr

	err := child.Run()
	out := Outcome{
		Stdout: stdout.String(),
		Stderr: strings.TrimSpace(stderr.String()),
	}

	switch {
	case err == nil:
		out.Status = StatusOK
	case ctx.Err() == context.DeadlineExceeded:
		out.Status = StatusTimeout
		out.ExitCode = -1
		r.logger.Error("command timed out",
			zap.String("command", cmd.String()),
			zap.Duration("timeout", timeout))
	default:
		out.Status = StatusFailed
		out.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
		}
		if out.Stderr == "" {
			out.Stderr = err.Error()
		}
		r.logger.Debug("command failed",
			zap.String("command", cmd.String()),
			zap.Int("exit_code", out.ExitCode),
			zap.String("stderr", out.Stderr))
	}

	return out
}
