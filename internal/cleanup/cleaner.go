// Package cleanup removes temporary files, caches, and stale logs,
// reporting how much space a pass freed (or would free in dry-run mode).
package cleanup

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/microdiag/windoctor/internal/config"
	"github.com/microdiag/windoctor/internal/diagnostics"
	"github.com/microdiag/windoctor/internal/winexec"
)

// Stats accumulates the effect of one cleanup pass. In dry-run mode the
// same numbers are accumulated without any filesystem mutation.
type Stats struct {
	FilesDeleted int
	DirsDeleted  int
	BytesFreed   int64
	Errors       []string
}

// Result is the JSON summary of a cleanup pass.
type Result struct {
	Success             bool   `json:"success"`
	DryRun              bool   `json:"dry_run,omitempty"`
	FilesDeleted        int    `json:"files_deleted"`
	DirsDeleted         int    `json:"dirs_deleted"`
	BytesFreed          int64  `json:"bytes_freed"`
	BytesFreedFormatted string `json:"bytes_freed_formatted"`
	ErrorsCount         int    `json:"errors_count"`
}

// Cleaner runs a cleanup pass over a fixed target set.
type Cleaner struct {
	dryRun  bool
	runner  winexec.Runner
	logger  *zap.Logger
	cfg     config.CleanupConfig
	targets Targets
	now     func() time.Time

	stats Stats
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithDryRun reports totals without deleting anything.
func WithDryRun(dry bool) Option { return func(c *Cleaner) { c.dryRun = dry } }

// WithTargets overrides the default target set.
func WithTargets(t Targets) Option { return func(c *Cleaner) { c.targets = t } }

// WithNow overrides the clock used for age cutoffs.
func WithNow(now func() time.Time) Option { return func(c *Cleaner) { c.now = now } }

// NewCleaner builds a Cleaner over the default Windows target set.
func NewCleaner(runner winexec.Runner, cfg config.CleanupConfig, logger *zap.Logger, opts ...Option) *Cleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cleaner{
		runner:  runner,
		logger:  logger,
		cfg:     cfg,
		targets: DefaultTargets(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes the full cleanup pass and returns its summary. Individual
// failures are counted, never fatal; the pass always completes.
func (c *Cleaner) Run(ctx context.Context) *Result {
	c.CleanTempDirs()
	c.CleanSystemCaches()
	c.CleanBrowserCaches()
	c.EmptyRecycleBin(ctx)
	c.CleanOldLogs()

	return &Result{
		Success:             true,
		DryRun:              c.dryRun,
		FilesDeleted:        c.stats.FilesDeleted,
		DirsDeleted:         c.stats.DirsDeleted,
		BytesFreed:          c.stats.BytesFreed,
		BytesFreedFormatted: humanize.IBytes(uint64(c.stats.BytesFreed)),
		ErrorsCount:         len(c.stats.Errors),
	}
}

// Stats returns the accumulated counters.
func (c *Cleaner) Stats() Stats { return c.stats }

// CleanTempDirs removes entries of the temp roots, sparing anything
// modified within the configured minimum age.
func (c *Cleaner) CleanTempDirs() {
	c.logger.Info("cleaning temporary folders")
	cutoff := c.now().Add(-c.cfg.TempMinAge)

	roots := append(append([]string{}, c.targets.TempRoots...), c.cfg.ExtraRoots...)
	for _, root := range dedup(roots) {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			path := filepath.Join(root, entry.Name())
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}
			c.deletePath(path)
		}
	}
}

// CleanSystemCaches removes the OS cache locations wholesale.
func (c *Cleaner) CleanSystemCaches() {
	c.logger.Info("cleaning system caches")
	for _, root := range c.targets.CacheRoots {
		c.deleteMatches(root)
	}
}

// CleanBrowserCaches removes each known browser's cache directory.
func (c *Cleaner) CleanBrowserCaches() {
	for browser, root := range c.targets.BrowserCaches {
		c.logger.Info("cleaning browser cache", zap.String("browser", browser))
		c.deleteMatches(root)
	}
}

// CleanOldLogs removes log files older than the configured maximum age.
func (c *Cleaner) CleanOldLogs() {
	c.logger.Info("cleaning old logs")
	cutoff := c.now().Add(-c.cfg.LogMaxAge)

	for _, root := range c.targets.LogRoots {
		for _, path := range c.expand(root) {
			info, err := os.Lstat(path)
			if err != nil {
				continue
			}
			if info.IsDir() {
				c.cleanOldFilesIn(path, cutoff)
				continue
			}
			if info.ModTime().Before(cutoff) {
				c.deletePath(path)
			}
		}
	}
}

func (c *Cleaner) cleanOldFilesIn(dir string, cutoff time.Time) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			c.deletePath(filepath.Join(dir, entry.Name()))
		}
	}
}

// EmptyRecycleBin asks the shell to purge the recycle bin. The command
// runner's dry-run handling keeps this a no-op in simulation mode.
func (c *Cleaner) EmptyRecycleBin(ctx context.Context) {
	c.logger.Info("emptying the recycle bin")
	out := c.runner.Run(ctx, winexec.Command{
		Name:    "powershell",
		Args:    []string{"-NoProfile", "-Command", "Clear-RecycleBin -Force -ErrorAction SilentlyContinue"},
		Mutates: true,
	})
	if !out.OK() {
		c.logger.Warn("could not empty the recycle bin", zap.String("stderr", out.Stderr))
	}
}

// deleteMatches deletes a path, expanding it first when it is a glob.
func (c *Cleaner) deleteMatches(pattern string) {
	for _, path := range c.expand(pattern) {
		c.deletePath(path)
	}
}

// expand resolves glob patterns; plain paths pass through if they exist.
func (c *Cleaner) expand(pattern string) []string {
	if !strings.Contains(pattern, "*") {
		if _, err := os.Lstat(pattern); err != nil {
			return nil
		}
		return []string{pattern}
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil
	}
	return matches
}

// deletePath removes one file or directory tree, accumulating stats. In
// dry-run mode the counters advance identically with zero mutations.
func (c *Cleaner) deletePath(path string) {
	info, err := os.Lstat(path)
	if err != nil {
		return
	}
	size := c.sizeOf(path, info)

	if c.dryRun {
		c.logger.Info("dry-run: would delete",
			zap.String("path", path),
			zap.String("size", humanize.IBytes(uint64(size))))
		c.count(info.IsDir(), size)
		return
	}

	if info.IsDir() {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil {
		c.stats.Errors = append(c.stats.Errors, err.Error())
		c.logger.Warn("could not delete",
			zap.String("path", path),
			zap.String("kind", diagnostics.Classify(err).String()),
			zap.Error(err))
		return
	}

	c.count(info.IsDir(), size)
	c.logger.Debug("deleted",
		zap.String("path", path),
		zap.String("size", humanize.IBytes(uint64(size))))
}

func (c *Cleaner) count(isDir bool, size int64) {
	if isDir {
		c.stats.DirsDeleted++
	} else {
		c.stats.FilesDeleted++
	}
	c.stats.BytesFreed += size
}

// sizeOf returns the size of a file, or the recursive size of a tree.
// Unreadable entries contribute zero.
func (c *Cleaner) sizeOf(path string, info os.FileInfo) int64 {
	if !info.IsDir() {
		return info.Size()
	}
	var total int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if fi, err := d.Info(); err == nil {
			total += fi.Size()
		}
		return nil
	})
	return total
}
