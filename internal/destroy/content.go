package destroy

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/afero"
)

// BlockSize is the size of every zero write issued by WipeContent.
const BlockSize = 4096

var zeroBlock [BlockSize]byte

// ContentOptions tunes WipeContent.
type ContentOptions struct {
	// Truncate shrinks the file to zero length after the overwrite.
	Truncate bool

	// Size overrides the number of bytes to overwrite. Block devices
	// report a zero file size and must set it.
	Size int64

	// Verify reads the overwritten extents back and compares digests.
	Verify bool
}

type extent struct {
	off int64
	n   int64
}

// WipeContent overwrites the allocated storage of path with zeros in place
// and flushes it to stable storage. Sparse holes are skipped, every data
// extent is rewritten, and the overwrite continues past the logical size
// until at least the allocated byte count has been written. Files that
// deny write access get owner-write permission and one retry.
func (d *Destroyer) WipeContent(path string, opts ContentOptions) error {
	f, err := d.openForWrite(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck // synced below; close error carries no data loss

	info, err := f.Stat()
	if err != nil {
		return newError("stat", path, err)
	}

	extents, err := overwrite(f, info, opts.Size)
	if err != nil {
		return newError("overwrite", path, err)
	}
	if err := f.Sync(); err != nil {
		return newError("sync", path, err)
	}
	slog.Debug("overwrote content", "path", path, "bytes", extentBytes(extents))

	if opts.Verify {
		if err := d.verifyZeroed(path, extents); err != nil {
			return err
		}
	}

	if opts.Truncate {
		if err := f.Truncate(0); err != nil {
			return newError("truncate", path, err)
		}
		if err := f.Sync(); err != nil {
			return newError("sync", path, err)
		}
	}
	return nil
}

func (d *Destroyer) openForWrite(path string) (afero.File, error) {
	f, err := d.fs.OpenFile(path, os.O_WRONLY, 0)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrPermission) {
		return nil, newError("open", path, err)
	}

	slog.Debug("forcing owner write permission", "path", path)
	if chErr := d.fs.Chmod(path, 0o200); chErr != nil {
		return nil, newError("chmod", path, chErr)
	}
	f, err = d.fs.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, newError("open", path, err)
	}
	return f, nil
}

func overwrite(f afero.File, info fs.FileInfo, size int64) ([]extent, error) {
	logical := info.Size()
	target := size
	if target <= 0 {
		target = allocatedSize(info)
	}

	var extents []extent
	var written, end int64
	for _, seg := range dataSegments(f, logical) {
		if err := writeZeros(f, seg.Offset, seg.Length); err != nil {
			return nil, err
		}
		extents = append(extents, extent{off: seg.Offset, n: seg.Length})
		written += seg.Length
		end = seg.Offset + seg.Length
	}

	// Preallocated blocks past EOF, or a device with no logical size.
	if written < target {
		off := max(end, logical)
		n := target - written
		if err := writeZeros(f, off, n); err != nil {
			return nil, err
		}
		extents = append(extents, extent{off: off, n: n})
	}
	return extents, nil
}

func dataSegments(f afero.File, size int64) []Segment {
	if size == 0 {
		return nil
	}
	osFile, ok := f.(*os.File)
	if !ok {
		return wholeFileSegment(size)
	}
	segs, err := DetectSparseSegments(osFile, size)
	if err != nil {
		slog.Debug("sparse detection failed, overwriting whole file", "path", f.Name(), "error", err)
		return wholeFileSegment(size)
	}
	data := segs[:0]
	for _, s := range segs {
		if s.IsData {
			data = append(data, s)
		}
	}
	return data
}

func writeZeros(w io.WriterAt, off, n int64) error {
	for n > 0 {
		chunk := min(n, BlockSize)
		if _, err := w.WriteAt(zeroBlock[:chunk], off); err != nil {
			return err
		}
		off += chunk
		n -= chunk
	}
	return nil
}

func extentBytes(extents []extent) int64 {
	var total int64
	for _, e := range extents {
		total += e.n
	}
	return total
}
