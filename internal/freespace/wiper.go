// Package freespace overwrites the unallocated space of a volume by
// filling it with zeroed temporary files and releasing them afterwards.
package freespace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/bamsammich/purge/internal/fsname"
)

const (
	// DefaultBlockSize is the bulk write size.
	DefaultBlockSize = 4096

	// DefaultProgressInterval is the wall-clock spacing of progress reports.
	DefaultProgressInterval = 2 * time.Second
)

var (
	// ErrAlreadyRun is yielded when Run is called a second time.
	ErrAlreadyRun = errors.New("free space wipe already run")

	errNameBudget = errors.New("no usable temporary file name")
)

// Options tunes a Wiper.
type Options struct {
	BlockSize        int
	ProgressInterval time.Duration

	// BytesPerSec caps write throughput. Zero means unlimited.
	BytesPerSec int64
}

// Progress is one report from a running wipe.
type Progress struct {
	// Fraction of the starting free space consumed, in [0, 1] and
	// non-decreasing across one run.
	Fraction float64
	ETA      time.Duration
	Written  int64
	Files    int
}

// Wiper fills the free space of the volume holding one directory. A
// Wiper runs once; its temporary files are released when the run ends,
// when the caller stops iterating, or on Close.
type Wiper struct {
	dir     string
	opts    Options
	limiter *rate.Limiter

	files   []*os.File
	written int64
	ran     bool
}

// New validates dir and returns a Wiper for it.
func New(dir string, opts Options) (*Wiper, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", dir, syscall.ENOTDIR)
	}
	if opts.BlockSize <= 0 {
		opts.BlockSize = DefaultBlockSize
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}

	w := &Wiper{dir: dir, opts: opts}
	if opts.BytesPerSec > 0 {
		w.limiter = NewBWLimiter(opts.BytesPerSec, opts.BlockSize)
	}
	return w, nil
}

// Run returns the sequence of progress reports for one wipe. The sequence
// ends after a final report with Fraction 1 once the volume is full, or
// with a single error. Breaking out of the loop or cancelling ctx stops
// the wipe; either way every temporary file is truncated, closed and
// removed before the sequence returns.
func (w *Wiper) Run(ctx context.Context) iter.Seq2[Progress, error] {
	return func(yield func(Progress, error) bool) {
		if w.ran {
			yield(Progress{}, ErrAlreadyRun)
			return
		}
		w.ran = true
		defer func() {
			if err := w.Close(); err != nil {
				slog.Warn("releasing free space", "dir", w.dir, "error", err)
			}
		}()

		startFree, err := FreeBytes(w.dir)
		if err != nil {
			yield(Progress{}, fmt.Errorf("statfs %s: %w", w.dir, err))
			return
		}
		slog.Info("wiping free space", "dir", w.dir, "free", startFree)

		est := newEstimator(startFree, time.Now())
		lastReport := time.Now()
		// stopped is set once the consumer has broken out of the loop;
		// yield must not be called again after that.
		stopped := false
		report := func() bool {
			if time.Since(lastReport) < w.opts.ProgressInterval {
				return true
			}
			lastReport = time.Now()
			if ctx.Err() != nil {
				return false
			}
			free, err := FreeBytes(w.dir)
			if err != nil {
				slog.Debug("statfs during wipe", "dir", w.dir, "error", err)
				return true
			}
			if !yield(w.progress(est.update(free, lastReport)), nil) {
				stopped = true
				return false
			}
			return true
		}

		for {
			if err := ctx.Err(); err != nil {
				yield(Progress{}, err)
				return
			}
			f, err := w.createTemp()
			if err != nil {
				if isCreateExhausted(err) {
					slog.Debug("temporary file creation exhausted", "dir", w.dir, "files", len(w.files), "error", err)
					break
				}
				yield(Progress{}, err)
				return
			}
			w.files = append(w.files, f)

			more, err := w.fill(ctx, f, report)
			if err != nil {
				yield(Progress{}, err)
				return
			}
			if !more {
				if err := ctx.Err(); err != nil && !stopped {
					yield(Progress{}, err)
				}
				return
			}
		}

		yield(w.progress(est.finish()), nil)
	}
}

func (w *Wiper) progress(fraction float64, eta time.Duration) Progress {
	return Progress{Fraction: fraction, ETA: eta, Written: w.written, Files: len(w.files)}
}

// fill writes zero blocks until the device is full, then single zero
// bytes until it is full again. It returns false when report asks to stop.
func (w *Wiper) fill(ctx context.Context, f *os.File, report func() bool) (bool, error) {
	block := make([]byte, w.opts.BlockSize)
	for {
		if w.limiter != nil {
			if err := w.limiter.WaitN(ctx, len(block)); err != nil {
				return false, err
			}
		}
		n, err := f.Write(block)
		w.written += int64(n)
		if err != nil {
			if IsDeviceFull(err) {
				break
			}
			return false, fmt.Errorf("write %s: %w", f.Name(), err)
		}
		if !report() {
			return false, nil
		}
	}

	one := block[:1]
	for {
		n, err := f.Write(one)
		w.written += int64(n)
		if err != nil {
			if IsDeviceFull(err) {
				break
			}
			return false, fmt.Errorf("write %s: %w", f.Name(), err)
		}
	}

	if err := f.Sync(); err != nil && !IsDeviceFull(err) {
		return false, fmt.Errorf("sync %s: %w", f.Name(), err)
	}
	return true, nil
}

// createTemp creates a uniquely named file in the target directory with a
// name as long as the filesystem allows, shrinking on ENAMETOOLONG.
func (w *Wiper) createTemp() (*os.File, error) {
	n := fsname.MaxLen(w.dir)
	for range fsname.MaxAttempts {
		path := filepath.Join(w.dir, fsname.Random(n))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		switch {
		case err == nil:
			registerTmp(path)
			return f, nil
		case errors.Is(err, fs.ErrExist):
			continue
		case errors.Is(err, syscall.ENAMETOOLONG):
			n = fsname.Shrink(n)
		default:
			return nil, err
		}
	}
	return nil, fmt.Errorf("create temporary file in %s: %w", w.dir, errNameBudget)
}

// Close truncates, closes and removes every temporary file. It is safe to
// call more than once.
func (w *Wiper) Close() error {
	var errs []error
	for _, f := range w.files {
		name := f.Name()
		if err := f.Truncate(0); err != nil {
			errs = append(errs, fmt.Errorf("truncate %s: %w", name, err))
		}
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
		if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", name, err))
		}
		deregisterTmp(name)
	}
	if len(w.files) > 0 {
		slog.Info("released free space", "dir", w.dir, "files", len(w.files), "bytes", w.written)
	}
	w.files = nil
	return errors.Join(errs...)
}
