// Package repair contains the remedy set and the repair orchestrators for
// the network and printer flows.
package repair

import (
	"fmt"

	"go.uber.org/zap"
)

// Entry is one line of the run-scoped outcome log.
type Entry struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Log collects the ordered probe/remedy outcomes of a single repair
// invocation. It is owned by that invocation and discarded with it; there
// is no process-wide accumulation.
type Log struct {
	entries []Entry
	logger  *zap.Logger
}

// NewLog returns a collector mirroring entries to the given zap logger.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

// Entries returns the ordered log for the final report.
func (l *Log) Entries() []Entry {
	if l.entries == nil {
		return []Entry{}
	}
	return l.entries
}

func (l *Log) append(level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.entries = append(l.entries, Entry{Level: level, Message: msg})
	switch level {
	case "error":
		l.logger.Error(msg)
	case "warning":
		l.logger.Warn(msg)
	case "run":
		l.logger.Debug(msg)
	default:
		l.logger.Info(msg)
	}
}

// Infof records an informational entry.
func (l *Log) Infof(format string, args ...any) { l.append("info", format, args...) }

// Successf records a successful step.
func (l *Log) Successf(format string, args ...any) { l.append("success", format, args...) }

// Warningf records a non-fatal anomaly.
func (l *Log) Warningf(format string, args ...any) { l.append("warning", format, args...) }

// Errorf records a failed step. Failed steps never abort the flow.
func (l *Log) Errorf(format string, args ...any) { l.append("error", format, args...) }

// Runf records the start of a step.
func (l *Log) Runf(format string, args ...any) { l.append("run", format, args...) }

// Report is the sole externally observable result of a repair invocation.
type Report struct {
	Success bool    `json:"success"`
	Action  string  `json:"action"`
	Logs    []Entry `json:"logs"`
	// Diagnosis is included by the diagnose actions only.
	Diagnosis any `json:"diagnosis,omitempty"`
}
