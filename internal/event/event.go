package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	ScanStarted Type = iota + 1
	ScanComplete
	TargetDestroyed
	TargetFailed
	TargetSkipped
	TargetPreview
	FreeSpaceProgress
	SwapMilestone
)

var typeNames = [...]string{
	ScanStarted:       "ScanStarted",
	ScanComplete:      "ScanComplete",
	TargetDestroyed:   "TargetDestroyed",
	TargetFailed:      "TargetFailed",
	TargetSkipped:     "TargetSkipped",
	TargetPreview:     "TargetPreview",
	FreeSpaceProgress: "FreeSpaceProgress",
	SwapMilestone:     "SwapMilestone",
}

func (t Type) String() string {
	if int(t) < len(typeNames) && typeNames[t] != "" {
		return typeNames[t]
	}
	return "Unknown"
}

// Event is a single progress report from a destroy, free-space or swap run.
type Event struct {
	Type      Type
	Timestamp time.Time
	Path      string
	Size      int64 // allocated bytes of the target, or bytes written
	Total     int64 // total targets (ScanComplete), temp files (FreeSpaceProgress)
	TotalSize int64 // total bytes (ScanComplete)
	Error     error
	Reason    string // why a target was skipped

	Fraction float64       // FreeSpaceProgress
	ETA      time.Duration // FreeSpaceProgress
	Stage    string        // SwapMilestone
}
