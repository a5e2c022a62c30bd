// Package destroy removes filesystem entries so that neither their
// contents nor their names are trivially recoverable.
package destroy

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/spf13/afero"
)

// Options configures a Destroyer.
type Options struct {
	// Fs defaults to the host filesystem.
	Fs afero.Fs

	// AlwaysShred makes MethodDefault shred content and name.
	AlwaysShred bool

	// Verify reads back every overwrite performed by Destroy.
	Verify bool
}

// Destroyer composes content wiping, name wiping and removal for single
// filesystem entries. It holds no per-target state and is safe for
// concurrent use on distinct paths.
type Destroyer struct {
	fs          afero.Fs
	alwaysShred bool
	verify      bool
}

// New returns a Destroyer configured by opts.
func New(opts Options) *Destroyer {
	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Destroyer{fs: fsys, alwaysShred: opts.AlwaysShred, verify: opts.Verify}
}

// Resolve maps MethodDefault to the process-wide default.
func (d *Destroyer) Resolve(m Method) Method {
	if m != MethodDefault {
		return m
	}
	if d.alwaysShred {
		return ShredContentAndName
	}
	return Unlink
}

// Inspect lstats path. Symlinks are reported as such, never followed.
func (d *Destroyer) Inspect(path string) (Target, error) {
	info, err := d.lstat(path)
	if err != nil {
		return Target{}, newError("lstat", path, err)
	}
	return Target{Path: path, Kind: KindOf(info.Mode())}, nil
}

// Destroy removes path using method. Content is wiped before the name and
// the name before the unlink. A directory that is not empty is left in
// place and reported as success.
func (d *Destroyer) Destroy(path string, method Method) error {
	method = d.Resolve(method)
	target, err := d.Inspect(path)
	if err != nil {
		return err
	}
	slog.Info("removing", "path", path, "kind", target.Kind, "method", method)

	switch target.Kind {
	case KindSymlink, KindFIFO:
		return d.remove(path)

	case KindDir:
		if method.wipesName() {
			path = d.WipeName(path)
		}
		err := d.remove(path)
		if errors.Is(err, ErrNotEmpty) {
			slog.Info("directory not empty", "path", path)
			return nil
		}
		return err

	case KindRegular:
		if method.shredsContent() {
			err := d.WipeContent(path, ContentOptions{Truncate: true, Verify: d.verify})
			if err != nil {
				if !errors.Is(err, fs.ErrPermission) {
					return err
				}
				slog.Debug("permission denied while shredding, removing anyway", "path", path, "error", err)
			}
		}
		if method.wipesName() {
			path = d.WipeName(path)
		}
		return d.remove(path)

	default:
		return &Error{Op: "destroy", Path: path, Err: ErrUnsupportedType}
	}
}

func (d *Destroyer) remove(path string) error {
	err := d.fs.Remove(path)
	switch {
	case err == nil:
		return nil
	case isNotEmpty(err):
		return &Error{Op: "remove", Path: path, Err: ErrNotEmpty}
	default:
		return newError("remove", path, err)
	}
}

func (d *Destroyer) lstat(path string) (fs.FileInfo, error) {
	if l, ok := d.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return d.fs.Stat(path)
}

func (d *Destroyer) exists(path string) bool {
	_, err := d.lstat(path)
	return err == nil
}
