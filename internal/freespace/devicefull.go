package freespace

import (
	"errors"
	"syscall"
)

// ErrDeviceFull is matched by IsDeviceFull for callers that synthesize
// the condition.
var ErrDeviceFull = errors.New("device full")

// IsDeviceFull reports whether a write failed because the volume, the
// caller's quota, or the per-file size limit is exhausted.
func IsDeviceFull(err error) bool {
	return errors.Is(err, ErrDeviceFull) ||
		errors.Is(err, syscall.ENOSPC) ||
		errors.Is(err, syscall.EDQUOT) ||
		errors.Is(err, syscall.EFBIG)
}

// isCreateExhausted reports whether creating another temporary file
// failed for lack of space, inodes or descriptors.
func isCreateExhausted(err error) bool {
	return errors.Is(err, ErrDeviceFull) ||
		errors.Is(err, syscall.ENOSPC) ||
		errors.Is(err, syscall.EDQUOT) ||
		errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE)
}
