// Package memory wipes swap devices and overwrites free physical memory
// so that residue of destroyed data cannot be paged back in.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/procfs"

	"github.com/bamsammich/purge/internal/destroy"
)

// DefaultMaxSwapSize bounds the size of any device treated as swap.
const DefaultMaxSwapSize = 8 << 30

var (
	// ErrUnexpectedToolOutput is returned when swapoff or blkid print
	// something that cannot be parsed. Swap is never wiped on guesses.
	ErrUnexpectedToolOutput = errors.New("unexpected tool output")

	// ErrSizeSanity is returned when a swap device is larger than the
	// configured bound.
	ErrSizeSanity = errors.New("swap device exceeds size bound")

	// ErrSwapStillActive is returned when swap is listed as active after
	// swapoff reported success.
	ErrSwapStillActive = errors.New("swap still active after swapoff")

	// ErrSwapRestore is returned when swap could not be re-enabled.
	ErrSwapRestore = errors.New("re-enable swap")

	// ErrToolMissing is returned when a required system tool is not on PATH.
	ErrToolMissing = errors.New("required tool not found")

	// ErrPlatformUnsupported is returned on platforms without Linux swap
	// management.
	ErrPlatformUnsupported = errors.New("swap and memory wiping is only supported on linux")
)

// State is a step of the swap and memory wipe.
type State int

const (
	StateIdle State = iota
	StateSwapDisabling
	StateSwapWiping
	StateMemoryFilling
	StateSwapRestoring
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:          "idle",
	StateSwapDisabling: "disabling swap",
	StateSwapWiping:    "wiping swap",
	StateMemoryFilling: "filling memory",
	StateSwapRestoring: "restoring swap",
	StateDone:          "done",
	StateFailed:        "failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// SwapDevice is an active swap area discovered before swapoff.
type SwapDevice struct {
	Path string
	Size int64
	UUID string
}

// Milestone is reported at every state transition. Device is set for the
// per-device StateSwapWiping milestones.
type Milestone struct {
	State  State
	Device SwapDevice
}

// Runner executes system tools. It returns stdout; a non-zero exit is an
// error that carries stderr.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
	LookPath(name string) (string, error)
}

// SwapWiper overwrites a swap device in place.
type SwapWiper interface {
	WipeContent(path string, opts destroy.ContentOptions) error
}

// Filler overwrites free physical memory.
type Filler interface {
	Fill(ctx context.Context) error
}

// Config wires a Destroyer. Zero fields take production defaults.
type Config struct {
	MaxSwapSize int64
	ProcRoot    string
	Runner      Runner
	Wiper       SwapWiper
	Filler      Filler
}

// Destroyer runs the swap and memory wipe.
type Destroyer struct {
	cfg Config
}

// NewDestroyer fills in defaults for unset fields of cfg.
func NewDestroyer(cfg Config) *Destroyer {
	if cfg.MaxSwapSize <= 0 {
		cfg.MaxSwapSize = DefaultMaxSwapSize
	}
	if cfg.ProcRoot == "" {
		cfg.ProcRoot = procfs.DefaultMountPoint
	}
	if cfg.Runner == nil {
		cfg.Runner = ExecRunner{}
	}
	if cfg.Wiper == nil {
		cfg.Wiper = destroy.New(destroy.Options{})
	}
	if cfg.Filler == nil {
		cfg.Filler = ChildFiller{ProcRoot: cfg.ProcRoot}
	}
	return &Destroyer{cfg: cfg}
}

// requiredTools are invoked by a swap wipe.
var requiredTools = []string{"swapoff", "swapon", "mkswap", "blkid"}

// CheckTools verifies every required tool resolves on PATH.
func (d *Destroyer) CheckTools() error {
	var missing []string
	for _, tool := range requiredTools {
		if _, err := d.cfg.Runner.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrToolMissing, strings.Join(missing, ", "))
	}
	return nil
}
