package destroy

import (
	"fmt"
	"io/fs"
)

// Kind is the un-followed type of a filesystem entry.
type Kind int

const (
	KindOther Kind = iota
	KindRegular
	KindDir
	KindSymlink
	KindFIFO
)

var kindNames = [...]string{
	KindOther:   "other",
	KindRegular: "file",
	KindDir:     "directory",
	KindSymlink: "symlink",
	KindFIFO:    "fifo",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// KindOf classifies a mode as returned by lstat.
func KindOf(mode fs.FileMode) Kind {
	switch {
	case mode.IsRegular():
		return KindRegular
	case mode.IsDir():
		return KindDir
	case mode&fs.ModeSymlink != 0:
		return KindSymlink
	case mode&fs.ModeNamedPipe != 0:
		return KindFIFO
	default:
		return KindOther
	}
}

// Target is a path and the type found by lstat when it was inspected.
type Target struct {
	Path string
	Kind Kind
}

// Method selects which wipers run before the final removal.
type Method int

const (
	// MethodDefault resolves to ShredContentAndName when the Destroyer was
	// built with AlwaysShred, Unlink otherwise.
	MethodDefault Method = iota
	Unlink
	ShredContent
	ShredContentAndName
)

var methodNames = [...]string{
	MethodDefault:       "default",
	Unlink:              "unlink",
	ShredContent:        "shred",
	ShredContentAndName: "shred-name",
}

func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return "unknown"
}

func (m Method) shredsContent() bool {
	return m == ShredContent || m == ShredContentAndName
}

func (m Method) wipesName() bool { return m == ShredContentAndName }

// ParseMethod maps a CLI method name to a Method.
func ParseMethod(s string) (Method, error) {
	for i, name := range methodNames {
		if s == name {
			return Method(i), nil
		}
	}
	return MethodDefault, fmt.Errorf("unknown method %q (want unlink, shred or shred-name)", s)
}
