package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whitelist")
	content := `# keep password stores
- *.kdbx
+ /tmp/scratch/*.kdbx

/home/ana/Documents/
noprefix.txt
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	w := NewWhitelist()
	require.NoError(t, w.LoadFile(path))

	require.Len(t, w.rules, 4)
	assert.True(t, w.rules[0].Keep)
	assert.False(t, w.rules[1].Keep)
	assert.True(t, w.rules[2].Keep)
	assert.True(t, w.rules[3].Keep)

	assert.True(t, w.Protects("/home/ana/vault.kdbx", false))
	assert.True(t, w.Protects("/home/ana/Documents", true))
	assert.True(t, w.Protects("/var/noprefix.txt", false))
	assert.False(t, w.Protects("/home/ana/Downloads/x.iso", false))
}

func TestLoadFileOnlyComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, []byte("# only comments\n\n"), 0o644))

	w := NewWhitelist()
	require.NoError(t, w.LoadFile(path))
	assert.True(t, w.Empty())
}

func TestLoadFileNotExists(t *testing.T) {
	assert.Error(t, NewWhitelist().LoadFile("/nonexistent/path"))
}

func TestLoadFileBadPattern(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad")
	require.NoError(t, os.WriteFile(path, []byte("- *.log\n- [z-a]\n"), 0o644))

	err := NewWhitelist().LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
