//go:build linux

package fsname

import "golang.org/x/sys/unix"

func nameMax(dir string) int {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return 0
	}
	return int(st.Namelen)
}
