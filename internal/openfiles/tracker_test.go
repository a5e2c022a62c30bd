package openfiles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProc builds a procfs-shaped tree whose fd entries are symlinks.
func fakeProc(t *testing.T, fds map[string]map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for pid, links := range fds {
		fdDir := filepath.Join(root, pid, "fd")
		require.NoError(t, os.MkdirAll(fdDir, 0o755))
		for fd, target := range links {
			require.NoError(t, os.Symlink(target, filepath.Join(fdDir, fd)))
		}
	}
	return root
}

func TestIsOpenFakeProcTree(t *testing.T) {
	dir := t.TempDir()
	held := filepath.Join(dir, "held.db")
	idle := filepath.Join(dir, "idle.db")
	removed := filepath.Join(dir, "removed.log")
	for _, p := range []string{held, idle, removed} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}

	root := fakeProc(t, map[string]map[string]string{
		"101": {
			"0": "/dev/null",
			"3": held,
			"4": "socket:[4242]",
			"5": removed + " (deleted)",
		},
		"202": {"7": "pipe:[99]"},
	})
	// Exited between listing and descriptor read.
	require.NoError(t, os.Mkdir(filepath.Join(root, "303"), 0o755))
	// Not a pid.
	require.NoError(t, os.Mkdir(filepath.Join(root, "self-ish"), 0o755))

	tr := New(WithProcRoot(root))

	open, err := tr.IsOpen(held)
	require.NoError(t, err)
	assert.True(t, open)

	open, err = tr.IsOpen(idle)
	require.NoError(t, err)
	assert.False(t, open)

	open, err = tr.IsOpen(removed)
	require.NoError(t, err)
	assert.False(t, open)

	open, err = tr.IsOpen("/dev/null")
	require.NoError(t, err)
	assert.False(t, open)
}

func TestIsOpenRelativeQuery(t *testing.T) {
	dir := t.TempDir()
	held := filepath.Join(dir, "held")
	require.NoError(t, os.WriteFile(held, nil, 0o644))
	root := fakeProc(t, map[string]map[string]string{"1": {"3": held}})

	t.Chdir(dir)
	open, err := New(WithProcRoot(root)).IsOpen("held")
	require.NoError(t, err)
	assert.True(t, open)
}

func TestIsOpenDirectoryHoldingOpenFile(t *testing.T) {
	base := t.TempDir()
	busy := filepath.Join(base, "busy")
	nested := filepath.Join(busy, "cache", "entries")
	quiet := filepath.Join(base, "quiet")
	sibling := filepath.Join(base, "busy-old")
	for _, d := range []string{nested, quiet, sibling} {
		require.NoError(t, os.MkdirAll(d, 0o755))
	}
	held := filepath.Join(nested, "held")
	require.NoError(t, os.WriteFile(held, nil, 0o644))
	root := fakeProc(t, map[string]map[string]string{"1": {"3": held}})

	tr := New(WithProcRoot(root))
	for _, tt := range []struct {
		path string
		want bool
	}{
		{busy, true},
		{nested, true},
		{base, true},
		{quiet, false},
		{sibling, false},
	} {
		open, err := tr.IsOpen(tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, open, tt.path)
	}
}

func TestWithin(t *testing.T) {
	assert.True(t, within("/srv/data/a", "/srv/data"))
	assert.True(t, within("/srv/data", "/srv/data"))
	assert.False(t, within("/srv/data-old/a", "/srv/data"))
	assert.True(t, within("/etc/hosts", "/"))
}

func TestIsOpenWithoutProcfs(t *testing.T) {
	tr := New(WithProcRoot(filepath.Join(t.TempDir(), "missing")))
	open, err := tr.IsOpen("/etc/hosts")
	require.NoError(t, err)
	assert.False(t, open)
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}
