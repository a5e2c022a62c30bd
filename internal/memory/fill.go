package memory

import (
	"errors"
	"log/slog"
	"math"

	"github.com/prometheus/procfs"
)

// FillWorkerFlag is the hidden argument that makes the binary run as the
// memory fill child.
const FillWorkerFlag = "__purge-fill-memory"

const (
	maxFillLevels = 32
	minFillBytes  = 1 << 10
)

// ChildFiller fills memory from a re-executed child process so that the
// allocation, and any OOM kill it provokes, never touches the caller.
type ChildFiller struct {
	ProcRoot string
}

// fillLevels repeatedly allocates three quarters of the reported free
// memory until the remainder is below minFillBytes, an allocation fails,
// or maxFillLevels is reached. It returns the number of levels allocated.
func fillLevels(free func() (uint64, error), alloc func(size int) error) (int, error) {
	for level := range maxFillLevels {
		avail, err := free()
		if err != nil {
			return level, err
		}
		size := avail / 4 * 3
		if size < minFillBytes {
			return level, nil
		}
		size = min(size, math.MaxInt)
		if err := alloc(int(size)); err != nil {
			slog.Debug("allocation refused", "level", level, "bytes", size, "error", err)
			return level, nil
		}
		slog.Debug("filled memory", "level", level, "bytes", size)
	}
	return maxFillLevels, nil
}

// physicalFree is MemFree plus page cache, which the kernel reclaims
// under allocation pressure.
func physicalFree(pfs procfs.FS) (uint64, error) {
	mi, err := pfs.Meminfo()
	if err != nil {
		return 0, err
	}
	if mi.MemFree == nil {
		return 0, errors.New("meminfo has no MemFree")
	}
	free := *mi.MemFree
	if mi.Cached != nil {
		free += *mi.Cached
	}
	return free * 1024, nil
}
