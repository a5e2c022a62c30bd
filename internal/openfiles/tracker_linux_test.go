//go:build linux

package openfiles

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsOpenSeesOwnDescriptor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mine")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	other := filepath.Join(dir, "other")
	require.NoError(t, os.WriteFile(other, nil, 0o644))

	tr := New()
	open, err := tr.IsOpen(path)
	require.NoError(t, err)
	assert.True(t, open)

	open, err = tr.IsOpen(other)
	require.NoError(t, err)
	assert.False(t, open)
}

func TestIsOpenCachesUntilStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "briefly-open")
	f, err := os.Create(path)
	require.NoError(t, err)

	now := time.Now()
	tr := New(WithClock(func() time.Time { return now }))

	open, err := tr.IsOpen(path)
	require.NoError(t, err)
	require.True(t, open)

	require.NoError(t, f.Close())

	now = now.Add(StaleAfter / 2)
	open, err = tr.IsOpen(path)
	require.NoError(t, err)
	assert.True(t, open, "answer served from cache")

	now = now.Add(StaleAfter)
	open, err = tr.IsOpen(path)
	require.NoError(t, err)
	assert.False(t, open, "cache refreshed after StaleAfter")
}
