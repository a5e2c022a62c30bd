package destroy

import (
	"errors"
	"io/fs"
	"os"
	"syscall"
)

var (
	// ErrUnsupportedType is returned for device nodes, sockets and other
	// entries that are neither files, directories, symlinks nor FIFOs.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrNotEmpty reports a directory that still had entries at removal.
	ErrNotEmpty = errors.New("directory not empty")

	// ErrVerifyFailed is returned when read-back after an overwrite finds
	// non-zero bytes.
	ErrVerifyFailed = errors.New("overwrite verification failed")
)

// Error records the step and path of a failed destroy operation.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// newError strips the os-level path wrapper so the message names the path once.
func newError(op, path string, err error) error {
	var pe *fs.PathError
	var le *os.LinkError
	switch {
	case errors.As(err, &pe):
		err = pe.Err
	case errors.As(err, &le):
		err = le.Err
	}
	return &Error{Op: op, Path: path, Err: err}
}

func isNotEmpty(err error) bool {
	return errors.Is(err, syscall.ENOTEMPTY) || errors.Is(err, syscall.EEXIST)
}
