// Package fsname generates random file names sized to what the
// filesystem holding a directory accepts.
package fsname

import "math/rand/v2"

const (
	// Cap is the longest name ever generated. It sits below the usual
	// 255-byte NAME_MAX to leave headroom for stacked filesystems.
	Cap = 226

	// MaxAttempts bounds every rename/create retry loop.
	MaxAttempts = 100
)

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Random returns an alphanumeric name of length n (at least 1).
func Random(n int) string {
	n = max(n, 1)
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.IntN(len(alphabet))] //nolint:gosec // G404: names need not be unpredictable
	}
	return string(b)
}

// MaxLen returns the maximum name length usable in dir, clamped to Cap.
func MaxLen(dir string) int {
	n := nameMax(dir)
	if n <= 0 || n > Cap {
		return Cap
	}
	return n
}

// Shrink returns the next shorter candidate length after a name was
// rejected as too long.
func Shrink(n int) int {
	return max(n-max(n/4, 1), 1)
}
