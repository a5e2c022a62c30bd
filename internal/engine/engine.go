// Package engine drives batch destruction: it expands the requested paths,
// filters them through the whitelist and the open-file guard, and hands each
// surviving target to a destroy.Destroyer, deepest entries first.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/bamsammich/purge/internal/destroy"
	"github.com/bamsammich/purge/internal/event"
	"github.com/bamsammich/purge/internal/filter"
	"github.com/bamsammich/purge/internal/stats"
)

// Skip reasons reported on TargetSkipped events.
const (
	ReasonWhitelisted = "whitelisted"
	ReasonOpen        = "open"
	ReasonNotEmpty    = "not empty"
)

// ErrIsDirectory is returned for a directory argument without Recursive.
var ErrIsDirectory = errors.New("is a directory (use -r)")

// OpenChecker reports whether another process holds path open.
type OpenChecker interface {
	IsOpen(path string) (bool, error)
}

// Config describes a destroy batch.
type Config struct {
	Paths     []string
	Recursive bool
	Method    destroy.Method
	DryRun    bool
	SkipOpen  bool

	Whitelist *filter.Whitelist // nil protects nothing
	Destroyer *destroy.Destroyer
	Tracker   OpenChecker // required when SkipOpen is set
	Events    chan<- event.Event
	Stats     *stats.Collector
}

// Result is the outcome of a batch.
type Result struct {
	Stats stats.Snapshot
	Err   error
}

// Run destroys every target named by cfg, blocking until complete. Per-item
// failures do not stop the batch; they are reported as TargetFailed events
// and folded into Result.Err.
func Run(ctx context.Context, cfg Config) Result {
	if cfg.Destroyer == nil {
		cfg.Destroyer = destroy.New(destroy.Options{})
	}
	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}
	if cfg.SkipOpen && cfg.Tracker == nil {
		return Result{Err: errors.New("skip-open requested without an open-file tracker")}
	}

	r := &run{cfg: cfg, ctx: ctx, kept: make(map[string]bool)}

	r.emit(event.Event{Type: event.ScanStarted})
	targets := r.scan()
	var totalSize int64
	for _, t := range targets {
		totalSize += t.size
	}
	cfg.Stats.SetTotals(int64(len(targets)), totalSize)
	r.emit(event.Event{Type: event.ScanComplete, Total: int64(len(targets)), TotalSize: totalSize})

	for _, t := range targets {
		if ctx.Err() != nil {
			break
		}
		r.process(t)
	}
	if err := ctx.Err(); err != nil {
		r.fail(err)
	}

	return Result{Stats: cfg.Stats.Snapshot(), Err: r.err()}
}

type run struct {
	cfg  Config
	ctx  context.Context //nolint:containedctx // scoped to one Run call
	kept map[string]bool // directories that will still hold something

	firstErr error
	errCount int
}

func (r *run) process(t target) {
	switch {
	case r.cfg.Whitelist.Protects(t.path, t.kind == destroy.KindDir):
		r.skip(t, ReasonWhitelisted)
		return

	case t.kind == destroy.KindDir && r.kept[t.path]:
		r.cfg.Stats.AddDirsKept(1)
		r.skip(t, ReasonNotEmpty)
		return

	case r.cfg.SkipOpen && t.kind == destroy.KindRegular:
		open, err := r.cfg.Tracker.IsOpen(t.path)
		if err != nil {
			r.failTarget(t, fmt.Errorf("check open files for %s: %w", t.path, err))
			return
		}
		if open {
			r.skip(t, ReasonOpen)
			return
		}
	}

	if r.cfg.DryRun {
		r.cfg.Stats.AddTargetsDestroyed(1)
		r.cfg.Stats.AddBytesDestroyed(t.size)
		r.emit(event.Event{Type: event.TargetPreview, Path: t.path, Size: t.size})
		return
	}

	if err := r.cfg.Destroyer.Destroy(t.path, r.cfg.Method); err != nil {
		r.failTarget(t, err)
		return
	}
	r.cfg.Stats.AddTargetsDestroyed(1)
	r.cfg.Stats.AddBytesDestroyed(t.size)
	r.emit(event.Event{Type: event.TargetDestroyed, Path: t.path, Size: t.size})
}

func (r *run) skip(t target, reason string) {
	slog.Debug("skipping", "path", t.path, "reason", reason)
	r.keepAncestors(t.path)
	r.cfg.Stats.AddTargetsSkipped(1)
	r.emit(event.Event{Type: event.TargetSkipped, Path: t.path, Size: t.size, Reason: reason})
}

func (r *run) failTarget(t target, err error) {
	slog.Warn("destroy failed", "path", t.path, "error", err)
	r.keepAncestors(t.path)
	r.cfg.Stats.AddTargetsFailed(1)
	r.emit(event.Event{Type: event.TargetFailed, Path: t.path, Size: t.size, Error: err})
	r.fail(err)
}

// keepAncestors marks every parent of path as non-empty so the batch does
// not try to remove or rename it.
func (r *run) keepAncestors(path string) {
	for dir := filepath.Dir(path); !r.kept[dir]; dir = filepath.Dir(dir) {
		r.kept[dir] = true
		if parent := filepath.Dir(dir); parent == dir {
			break
		}
	}
}

func (r *run) fail(err error) {
	r.errCount++
	if r.firstErr == nil {
		r.firstErr = err
	}
}

func (r *run) err() error {
	if r.errCount > 1 {
		return fmt.Errorf("%w (and %d more errors)", r.firstErr, r.errCount-1)
	}
	return r.firstErr
}

func (r *run) emit(e event.Event) {
	if r.cfg.Events == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case r.cfg.Events <- e:
	case <-r.ctx.Done():
	}
}
