//go:build darwin

package destroy

import (
	"io/fs"
	"syscall"
)

// allocatedSize returns st_blocks*512, falling back to the logical size
// when the platform stat is unavailable.
func allocatedSize(info fs.FileInfo) int64 {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return st.Blocks * 512
	}
	return info.Size()
}

func ownerUID(info fs.FileInfo) (uint32, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return st.Uid, true
}
