package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/purge/internal/stats"
)

// plainPresenter outputs one line per target to stdout, and periodic
// progress to stderr when not a TTY.
type plainPresenter struct {
	w     io.Writer
	errW  io.Writer
	stats stats.Reader
	root  string

	lastFraction float64
	lastETA      time.Duration
	freeSpace    bool
}

func (p *plainPresenter) Run(events <-chan Event) error {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ev)
		case <-ticker.C:
			p.printProgress()
		}
	}
}

func (p *plainPresenter) handleEvent(ev Event) {
	path := StripRoot(p.root, ev.Path)
	switch ev.Type {
	case TargetDestroyed:
		fmt.Fprintf(p.w, "%s  %s\n", path, FormatBytes(ev.Size))
	case TargetFailed:
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		fmt.Fprintf(p.w, "%s  %s\n", path, errMsg)
	case TargetSkipped:
		if ev.Reason != "" {
			fmt.Fprintf(p.w, "%s  skipped (%s)\n", path, ev.Reason)
		} else {
			fmt.Fprintf(p.w, "%s  skipped\n", path)
		}
	case TargetPreview:
		fmt.Fprintf(p.w, "would destroy: %s  %s\n", path, FormatBytes(ev.Size))
	case FreeSpaceProgress:
		p.freeSpace = true
		p.lastFraction = ev.Fraction
		p.lastETA = ev.ETA
	case SwapMilestone:
		switch {
		case ev.Error != nil:
			fmt.Fprintf(p.w, "swap: %s: %v\n", ev.Stage, ev.Error)
		case ev.Path != "":
			fmt.Fprintf(p.w, "swap: %s %s\n", ev.Stage, ev.Path)
		default:
			fmt.Fprintf(p.w, "swap: %s\n", ev.Stage)
		}
	case ScanStarted, ScanComplete:
		// totals are read from the collector
	}
}

func (p *plainPresenter) printProgress() {
	snap := p.stats.Snapshot()
	switch {
	case p.freeSpace:
		fmt.Fprintf(p.errW, "progress: %.0f%% %s written eta %s\n",
			p.lastFraction*100,
			FormatBytes(snap.BytesWritten),
			FormatETA(p.lastETA),
		)
	case snap.BytesTotal > 0:
		pct := float64(snap.BytesDestroyed) / float64(snap.BytesTotal) * 100
		fmt.Fprintf(p.errW, "progress: %.0f%% %s/%s %s/%s targets eta %s\n",
			pct,
			FormatBytes(snap.BytesDestroyed), FormatBytes(snap.BytesTotal),
			FormatCount(snap.TargetsDestroyed), FormatCount(snap.TargetsTotal),
			FormatETA(p.stats.ETA()),
		)
	default:
		fmt.Fprintf(p.errW, "progress: %s destroyed %s targets\n",
			FormatBytes(snap.BytesDestroyed),
			FormatCount(snap.TargetsDestroyed),
		)
	}
}

func (p *plainPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}
