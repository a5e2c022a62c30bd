package engine_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/purge/internal/destroy"
	"github.com/bamsammich/purge/internal/engine"
	"github.com/bamsammich/purge/internal/event"
	"github.com/bamsammich/purge/internal/filter"
)

func TestRun_RecursiveDestroysBottomUp(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "tree")
	outside := filepath.Join(dir, "outside")
	writeFile(t, outside, "must survive")
	createTestTree(t, root, outside)

	events, collected := collectEvents(t)
	res := engine.Run(context.Background(), engine.Config{
		Paths:     []string{root},
		Recursive: true,
		Method:    destroy.ShredContentAndName,
		Events:    events,
	})
	require.NoError(t, res.Err)

	_, err := os.Lstat(root)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	data, err := os.ReadFile(outside)
	require.NoError(t, err)
	assert.Equal(t, "must survive", string(data))

	evs := collected()
	require.GreaterOrEqual(t, len(evs), 2)
	assert.Equal(t, event.ScanStarted, evs[0].Type)
	assert.Equal(t, event.ScanComplete, evs[1].Type)
	assert.Equal(t, int64(8), evs[1].Total)

	destroyed := paths(ofType(evs, event.TargetDestroyed))
	require.Len(t, destroyed, 8)
	assert.Equal(t, root, destroyed[len(destroyed)-1])
	leaf := slices.Index(destroyed, filepath.Join(root, "sub", "deep", "leaf.txt"))
	deep := slices.Index(destroyed, filepath.Join(root, "sub", "deep"))
	sub := slices.Index(destroyed, filepath.Join(root, "sub"))
	assert.Less(t, leaf, deep)
	assert.Less(t, deep, sub)

	assert.Equal(t, int64(8), res.Stats.TargetsDestroyed)
	assert.Equal(t, int64(8), res.Stats.TargetsScanned)
	assert.Zero(t, res.Stats.TargetsFailed)
	assert.Positive(t, res.Stats.BytesDestroyed)
}

func TestRun_DirectoryWithoutRecursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	file := filepath.Join(dir, "f.txt")
	writeFile(t, file, "x")

	res := engine.Run(context.Background(), engine.Config{
		Paths:  []string{sub, file},
		Method: destroy.Unlink,
	})
	require.ErrorIs(t, res.Err, engine.ErrIsDirectory)

	assert.DirExists(t, sub)
	assert.NoFileExists(t, file)
	assert.Equal(t, int64(1), res.Stats.TargetsDestroyed)
	assert.Equal(t, int64(1), res.Stats.TargetsFailed)
}

func TestRun_WhitelistKeepsFileAndParents(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "cache")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "keep"), 0o755))
	kept := filepath.Join(root, "keep", "wallet.kdbx")
	writeFile(t, kept, "secret")
	writeFile(t, filepath.Join(root, "keep", "junk.tmp"), "junk")
	writeFile(t, filepath.Join(root, "other.tmp"), "junk")

	wl := filter.NewWhitelist()
	require.NoError(t, wl.Keep("*.kdbx"))

	events, collected := collectEvents(t)
	res := engine.Run(context.Background(), engine.Config{
		Paths:     []string{root},
		Recursive: true,
		Method:    destroy.ShredContentAndName,
		Whitelist: wl,
		Events:    events,
	})
	require.NoError(t, res.Err)

	assert.FileExists(t, kept)
	assert.NoFileExists(t, filepath.Join(root, "keep", "junk.tmp"))
	assert.NoFileExists(t, filepath.Join(root, "other.tmp"))

	// Parents of a kept file are neither renamed nor removed.
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keep", entries[0].Name())

	skipped := ofType(collected(), event.TargetSkipped)
	require.Len(t, skipped, 3)
	assert.Equal(t, kept, skipped[0].Path)
	assert.Equal(t, engine.ReasonWhitelisted, skipped[0].Reason)
	assert.Equal(t, engine.ReasonNotEmpty, skipped[1].Reason)
	assert.Equal(t, engine.ReasonNotEmpty, skipped[2].Reason)
	assert.Equal(t, int64(2), res.Stats.DirsKept)
	assert.Equal(t, int64(3), res.Stats.TargetsSkipped)
}

func TestRun_WhitelistedDirectoryProtectsSubtree(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "home")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))
	writeFile(t, filepath.Join(root, "docs", "a.txt"), "a")

	wl := filter.NewWhitelist()
	require.NoError(t, wl.Keep(filepath.Join(root, "docs")+"/"))

	res := engine.Run(context.Background(), engine.Config{
		Paths:     []string{root},
		Recursive: true,
		Whitelist: wl,
	})
	require.NoError(t, res.Err)
	assert.FileExists(t, filepath.Join(root, "docs", "a.txt"))
	assert.Zero(t, res.Stats.TargetsDestroyed)
}

func TestRun_SkipOpen(t *testing.T) {
	dir := t.TempDir()
	busy := filepath.Join(dir, "busy.db")
	idle := filepath.Join(dir, "idle.db")
	writeFile(t, busy, "b")
	writeFile(t, idle, "i")

	events, collected := collectEvents(t)
	res := engine.Run(context.Background(), engine.Config{
		Paths:    []string{busy, idle},
		SkipOpen: true,
		Tracker:  fakeTracker{open: map[string]bool{busy: true}},
		Events:   events,
	})
	require.NoError(t, res.Err)

	assert.FileExists(t, busy)
	assert.NoFileExists(t, idle)
	skipped := ofType(collected(), event.TargetSkipped)
	require.Len(t, skipped, 1)
	assert.Equal(t, engine.ReasonOpen, skipped[0].Reason)
}

func TestRun_TrackerErrorFailsTarget(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "f")
	writeFile(t, f, "x")

	res := engine.Run(context.Background(), engine.Config{
		Paths:    []string{f},
		SkipOpen: true,
		Tracker:  fakeTracker{err: assert.AnError},
	})
	require.ErrorIs(t, res.Err, assert.AnError)
	assert.FileExists(t, f)
}

func TestRun_SkipOpenNeedsTracker(t *testing.T) {
	res := engine.Run(context.Background(), engine.Config{Paths: []string{"x"}, SkipOpen: true})
	require.Error(t, res.Err)
}

func TestRun_DryRun(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "tree")
	createTestTree(t, root, filepath.Join(dir, "nowhere"))

	events, collected := collectEvents(t)
	res := engine.Run(context.Background(), engine.Config{
		Paths:     []string{root},
		Recursive: true,
		DryRun:    true,
		Events:    events,
	})
	require.NoError(t, res.Err)

	assert.FileExists(t, filepath.Join(root, "sub", "deep", "leaf.txt"))
	evs := collected()
	assert.Len(t, ofType(evs, event.TargetPreview), 8)
	assert.Empty(t, ofType(evs, event.TargetDestroyed))
	assert.Equal(t, evs[1].TotalSize, res.Stats.BytesDestroyed)
}

func TestRun_MissingPathsAggregate(t *testing.T) {
	dir := t.TempDir()
	res := engine.Run(context.Background(), engine.Config{
		Paths: []string{filepath.Join(dir, "a"), filepath.Join(dir, "b")},
	})
	require.ErrorIs(t, res.Err, fs.ErrNotExist)
	assert.Contains(t, res.Err.Error(), "(and 1 more errors)")
	assert.Equal(t, int64(2), res.Stats.TargetsFailed)
}

func TestRun_DuplicatePathsDestroyedOnce(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "f")
	writeFile(t, f, "x")

	res := engine.Run(context.Background(), engine.Config{Paths: []string{f, f}})
	require.NoError(t, res.Err)
	assert.Equal(t, int64(1), res.Stats.TargetsDestroyed)
}

func TestRun_Cancelled(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "f")
	writeFile(t, f, "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := engine.Run(ctx, engine.Config{Paths: []string{f}})
	require.True(t, errors.Is(res.Err, context.Canceled))
	assert.FileExists(t, f)
}
