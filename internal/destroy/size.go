package destroy

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Size returns the bytes path occupies on disk. Symlinks are not followed.
func Size(path string) (int64, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return 0, err
	}
	return allocatedSize(info), nil
}

// SizeOf returns the bytes an lstat result occupies on disk.
func SizeOf(info fs.FileInfo) int64 {
	return allocatedSize(info)
}

// SizeDir sums Size over every entry below root, root included.
func SizeDir(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += allocatedSize(info)
		return nil
	})
	return total, err
}

// OwnedByCaller reports whether path belongs to the real user of this
// process.
func OwnedByCaller(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return false, err
	}
	uid, ok := ownerUID(info)
	if !ok {
		return true, nil
	}
	return int(uid) == os.Getuid(), nil
}
