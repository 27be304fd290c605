package diagnostics

import (
	"context"
	"io/fs"

	"github.com/cockroachdb/errors"

	"github.com/microdiag/windoctor/internal/winexec"
)

// Kind classifies the faults observed while probing or repairing. Every
// fault becomes a log entry plus a boolean; none of them propagates out of
// an orchestrated flow.
type Kind int

const (
	// KindNone: no fault.
	KindNone Kind = iota
	// KindCommandFailed: an external command exited nonzero.
	KindCommandFailed
	// KindCommandTimeout: an external command hit its deadline.
	KindCommandTimeout
	// KindResourceAbsent: a probed path or service does not exist. This is
	// a negative probe result, not an error.
	KindResourceAbsent
	// KindPermissionDenied: a deletion or query was refused.
	KindPermissionDenied
	// KindUnknown: anything else.
	KindUnknown
)

// String returns the taxonomy name for logging.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindCommandFailed:
		return "command_failed"
	case KindCommandTimeout:
		return "command_timeout"
	case KindResourceAbsent:
		return "resource_absent"
	case KindPermissionDenied:
		return "permission_denied"
	default:
		return "unknown"
	}
}

// Classify maps an error onto the toolkit taxonomy.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, winexec.ErrCommandTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return KindCommandTimeout
	case errors.Is(err, winexec.ErrCommandFailed):
		return KindCommandFailed
	case errors.Is(err, fs.ErrNotExist):
		return KindResourceAbsent
	case errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	default:
		return KindUnknown
	}
}
