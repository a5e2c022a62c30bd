package engine

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/bamsammich/purge/internal/destroy"
)

type target struct {
	path string
	kind destroy.Kind
	size int64
}

// scan expands cfg.Paths into targets ordered so that every entry comes
// before the directory containing it. Paths that cannot be read are
// reported as failures and left out.
func (r *run) scan() []target {
	var targets []target
	seen := make(map[string]bool)

	add := func(t target) {
		if seen[t.path] {
			return
		}
		seen[t.path] = true
		r.cfg.Stats.AddTargetsScanned(1)
		targets = append(targets, t)
	}

	for _, p := range r.cfg.Paths {
		if r.ctx.Err() != nil {
			break
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			r.failTarget(target{path: p}, err)
			continue
		}
		info, err := os.Lstat(abs)
		if err != nil {
			r.failTarget(target{path: abs}, err)
			continue
		}
		if !info.IsDir() {
			add(newTarget(abs, info))
			continue
		}
		if !r.cfg.Recursive {
			r.failTarget(target{path: abs, kind: destroy.KindDir}, fmt.Errorf("%s: %w", abs, ErrIsDirectory))
			continue
		}
		for _, t := range r.walk(abs) {
			add(t)
		}
	}
	return targets
}

// walk lists root and everything below it, deepest first. WalkDir does not
// follow symlinks, so a link to a directory is a single target.
func (r *run) walk(root string) []target {
	var out []target
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// Unreadable subtree; its parents cannot be emptied.
			r.failTarget(target{path: path, kind: destroy.KindDir}, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := r.ctx.Err(); err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			r.failTarget(target{path: path}, err)
			return nil
		}
		out = append(out, newTarget(path, info))
		return nil
	})
	if err != nil && r.ctx.Err() == nil {
		r.failTarget(target{path: root, kind: destroy.KindDir}, err)
	}
	slices.Reverse(out)
	return out
}

func newTarget(path string, info fs.FileInfo) target {
	return target{path: path, kind: destroy.KindOf(info.Mode()), size: destroy.SizeOf(info)}
}
