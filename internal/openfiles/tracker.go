// Package openfiles answers whether a path is held open by any running
// process, from a cached scan of the per-process descriptor tables.
package openfiles

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/procfs"
)

// StaleAfter is how long a scan answers queries before it is refreshed.
const StaleAfter = 10 * time.Second

// excludedRoots are pseudo filesystems whose descriptors never name
// destroyable files.
var excludedRoots = []string{"/dev", "/proc", "/sys"}

// Tracker caches the set of open file paths. A scan may be up to
// StaleAfter old when it answers, so callers must treat "not open" as
// advisory.
type Tracker struct {
	procRoot string
	now      func() time.Time

	mu       sync.Mutex
	lastScan time.Time
	files    map[string]struct{}
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithProcRoot scans an alternate procfs mount.
func WithProcRoot(root string) Option {
	return func(t *Tracker) { t.procRoot = root }
}

// WithClock replaces time.Now for staleness checks.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// New returns a Tracker that has not scanned yet.
func New(opts ...Option) *Tracker {
	t := &Tracker{procRoot: procfs.DefaultMountPoint, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var (
	defaultOnce    sync.Once
	defaultTracker *Tracker
)

// Default returns the process-wide Tracker.
func Default() *Tracker {
	defaultOnce.Do(func() { defaultTracker = New() })
	return defaultTracker
}

// IsOpen reports whether path is open by any process visible to the
// caller, rescanning first if the cache is older than StaleAfter. A
// directory is open when it, or any file below it, is open.
func (t *Tracker) IsOpen(path string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.lastScan.IsZero() || t.now().Sub(t.lastScan) > StaleAfter {
		if err := t.scanLocked(); err != nil {
			return false, err
		}
	}
	key := canonical(path)
	if _, ok := t.files[key]; ok {
		return true, nil
	}
	if info, err := os.Stat(key); err != nil || !info.IsDir() {
		return false, nil
	}
	for f := range t.files {
		if within(f, key) {
			return true, nil
		}
	}
	return false, nil
}

// Scan refreshes the cache unconditionally.
func (t *Tracker) Scan() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scanLocked()
}

func (t *Tracker) scanLocked() error {
	files := make(map[string]struct{})
	defer func() {
		t.files = files
		t.lastScan = t.now()
	}()

	if _, err := os.Stat(t.procRoot); errors.Is(err, fs.ErrNotExist) {
		slog.Debug("no procfs, open-file detection disabled", "root", t.procRoot)
		return nil
	}
	pfs, err := procfs.NewFS(t.procRoot)
	if err != nil {
		return fmt.Errorf("open procfs %s: %w", t.procRoot, err)
	}
	procs, err := pfs.AllProcs()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	for _, p := range procs {
		targets, err := p.FileDescriptorTargets()
		if err != nil {
			if t.unreadable(p.PID) {
				continue
			}
			return fmt.Errorf("read descriptors of pid %d: %w", p.PID, err)
		}
		for _, target := range targets {
			if path, ok := t.qualify(target); ok {
				files[path] = struct{}{}
			}
		}
	}
	slog.Debug("scanned open files", "processes", len(procs), "files", len(files))
	return nil
}

// unreadable reports whether a descriptor table failed to read because
// the process exited or belongs to another user.
func (t *Tracker) unreadable(pid int) bool {
	f, err := os.Open(filepath.Join(t.procRoot, strconv.Itoa(pid), "fd"))
	if err == nil {
		f.Close()
		return false
	}
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission)
}

// qualify turns a descriptor target into a cache key. Sockets, pipes,
// anonymous inodes, deleted files and pseudo filesystems are dropped.
func (t *Tracker) qualify(target string) (string, bool) {
	if !filepath.IsAbs(target) || strings.HasSuffix(target, " (deleted)") {
		return "", false
	}
	resolved, err := filepath.EvalSymlinks(target)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		return "", false
	default:
		resolved = filepath.Clean(target)
	}
	if within(resolved, t.procRoot) {
		return "", false
	}
	for _, root := range excludedRoots {
		if within(resolved, root) {
			return "", false
		}
	}
	return resolved, true
}

func within(path, root string) bool {
	if root == "/" {
		return strings.HasPrefix(path, "/")
	}
	return path == root || strings.HasPrefix(path, root+"/")
}

func canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
