package destroy

import (
	"log/slog"
	"path/filepath"

	"github.com/bamsammich/purge/internal/fsname"
)

// WipeName renames path within its directory, first to a random name as
// long as the filesystem accepts and then to a short one, and returns the
// final path. If the long rename never succeeds the original path is
// returned and the entry is left untouched.
func (d *Destroyer) WipeName(path string) string {
	dir := filepath.Dir(path)

	long, ok := d.renameLong(path, dir)
	if !ok {
		slog.Warn("could not wipe name, keeping original", "path", path)
		return path
	}
	short, ok := d.renameShort(long, dir)
	if !ok {
		slog.Warn("could not shorten wiped name", "path", long)
		return long
	}
	return short
}

func (d *Destroyer) renameLong(path, dir string) (string, bool) {
	n := fsname.MaxLen(dir)
	for range fsname.MaxAttempts {
		candidate := filepath.Join(dir, fsname.Random(n))
		if d.exists(candidate) {
			continue
		}
		err := d.fs.Rename(path, candidate)
		if err == nil {
			return candidate, true
		}
		slog.Debug("rename failed", "path", path, "length", n, "error", err)
		n = fsname.Shrink(n)
	}
	return path, false
}

func (d *Destroyer) renameShort(path, dir string) (string, bool) {
	n := 1
	for range fsname.MaxAttempts {
		candidate := filepath.Join(dir, fsname.Random(n))
		if !d.exists(candidate) {
			if err := d.fs.Rename(path, candidate); err == nil {
				return candidate, true
			}
		}
		n++
	}
	return path, false
}
