package ui

import (
	"fmt"

	"github.com/bamsammich/purge/internal/stats"
)

// CompletionSummary builds a final summary line from a snapshot.
// Format: done ✓  targets 1,204  size 2.1 GiB  time 3m 17s  skipped 2  errors 0
func CompletionSummary(snap stats.Snapshot) string {
	icon := "✓"
	if snap.TargetsFailed > 0 {
		icon = "✗"
	}

	base := fmt.Sprintf("done %s  targets %s  size %s",
		icon,
		FormatCount(snap.TargetsDestroyed),
		FormatBytes(snap.BytesDestroyed),
	)

	if snap.BytesWritten > 0 {
		avgSpeed := 0.0
		if snap.Elapsed.Seconds() > 0 {
			avgSpeed = float64(snap.BytesWritten) / snap.Elapsed.Seconds()
		}
		base += fmt.Sprintf("  wrote %s  avg %s", FormatBytes(snap.BytesWritten), FormatRate(avgSpeed))
	}

	base += "  time " + FormatDuration(snap.Elapsed)

	if snap.TargetsSkipped > 0 {
		base += fmt.Sprintf("  skipped %s", FormatCount(snap.TargetsSkipped))
	}
	if snap.DirsKept > 0 {
		base += fmt.Sprintf("  kept dirs %s", FormatCount(snap.DirsKept))
	}

	base += fmt.Sprintf("  errors %d", snap.TargetsFailed)

	return base
}
