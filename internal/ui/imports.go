package ui

import "github.com/bamsammich/purge/internal/event"

// Re-export event types for convenience.
const (
	ScanStarted       = event.ScanStarted
	ScanComplete      = event.ScanComplete
	TargetDestroyed   = event.TargetDestroyed
	TargetFailed      = event.TargetFailed
	TargetSkipped     = event.TargetSkipped
	TargetPreview     = event.TargetPreview
	FreeSpaceProgress = event.FreeSpaceProgress
	SwapMilestone     = event.SwapMilestone
)

// Event is re-exported so presenters read as ui.Event.
type Event = event.Event
