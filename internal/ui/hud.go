package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/bamsammich/purge/internal/stats"
)

// ANSI escape sequences.
const (
	ansiDim   = "\033[2m"
	ansiBold  = "\033[1m"
	ansiReset = "\033[0m"
)

// hudPresenter provides a rich TTY display with a scrolling feed of destroyed
// targets and a 2-line HUD that redraws in place.
type hudPresenter struct {
	w         io.Writer
	stats     stats.ReadTicker
	forceFeed bool
	forceRate bool
	root      string // stripped from displayed paths

	// Internal state.
	hudDrawn     bool
	hudLineCount int // actual number of lines in the last HUD draw
	rateMode     bool
	rateSwitched bool // whether we've printed the switch notice
	lastHUDDraw  time.Time

	// Free-space runs report a fraction rather than target totals.
	freeSpaceDir string
	fraction     float64
	fractionETA  time.Duration
}

const (
	rateThreshHigh   = 200.0
	rateThreshLow    = 100.0
	sparklineWidth   = 20
	progressBarWidth = 20
	pathWidth        = 40
	hudMinInterval   = 50 * time.Millisecond // don't redraw faster than this
)

func (p *hudPresenter) Run(events <-chan Event) error {
	if p.forceRate {
		p.rateMode = true
	}

	// Fire first tick quickly to seed the ring buffer with initial speed data,
	// then switch to 1s interval.
	secTicker := time.NewTicker(250 * time.Millisecond)
	defer secTicker.Stop()
	firstTickDone := false

	// Redraw ticker for when no events are flowing (e.g. one huge file).
	redrawTicker := time.NewTicker(100 * time.Millisecond)
	defer redrawTicker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				p.clearHUD()
				return nil
			}
			p.handleEvent(ev)
			p.maybeDrawHUD()

		case <-redrawTicker.C:
			p.maybeSwitch()
			p.drawHUD()

		case <-secTicker.C:
			p.stats.Tick()
			if !firstTickDone {
				firstTickDone = true
				secTicker.Reset(1 * time.Second)
			}
		}
	}
}

func (p *hudPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case TargetDestroyed:
		p.feedLine(func() {
			fmt.Fprintf(p.w, "✓  %s  %10s\n", p.styledPath(ev.Path), FormatBytes(ev.Size))
		})

	case TargetFailed:
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		// Failures are shown even in rate mode.
		p.clearHUD()
		fmt.Fprintf(p.w, "✗  %s  %s\n", p.styledPath(ev.Path), errMsg)
		p.drawHUD()

	case TargetSkipped:
		p.feedLine(func() {
			reason := "skipped"
			if ev.Reason != "" {
				reason = "skipped: " + ev.Reason
			}
			fmt.Fprintf(p.w, "–  %s  %s%s%s\n", p.styledPath(ev.Path), ansiDim, reason, ansiReset)
		})

	case TargetPreview:
		p.feedLine(func() {
			fmt.Fprintf(p.w, "×  %s  %10s  %s(would destroy)%s\n",
				p.styledPath(ev.Path), FormatBytes(ev.Size), ansiDim, ansiReset)
		})

	case FreeSpaceProgress:
		p.freeSpaceDir = ev.Path
		p.fraction = ev.Fraction
		p.fractionETA = ev.ETA

	case SwapMilestone:
		p.clearHUD()
		switch {
		case ev.Error != nil:
			fmt.Fprintf(p.w, "✗  %sswap%s  %s: %v\n", ansiBold, ansiReset, ev.Stage, ev.Error)
		case ev.Path != "":
			fmt.Fprintf(p.w, "•  %sswap%s  %s %s\n", ansiBold, ansiReset, ev.Stage, ev.Path)
		default:
			fmt.Fprintf(p.w, "•  %sswap%s  %s\n", ansiBold, ansiReset, ev.Stage)
		}
		p.drawHUD()

	case ScanStarted, ScanComplete:
		// totals are read from the collector
	}
}

// feedLine prints one feed entry above the HUD unless in rate mode.
func (p *hudPresenter) feedLine(print func()) {
	if p.rateMode {
		return
	}
	p.clearHUD()
	print()
	p.drawHUD() // always redraw HUD after feed line
}

func (p *hudPresenter) maybeSwitch() {
	if p.forceFeed || p.forceRate {
		return
	}

	tps := p.stats.RollingTargetsPerSec(2)

	if !p.rateMode && tps > rateThreshHigh {
		p.rateMode = true
		if !p.rateSwitched {
			p.rateSwitched = true
			p.clearHUD()
			fmt.Fprintf(p.w, "↯ rate view (%s targets/s · use --feed to see individual targets)\n",
				FormatCount(int64(tps)))
		}
	} else if p.rateMode && tps < rateThreshLow {
		p.rateMode = false
	}
}

// maybeDrawHUD redraws the HUD if enough time has passed since the last draw.
func (p *hudPresenter) maybeDrawHUD() {
	if time.Since(p.lastHUDDraw) < hudMinInterval {
		return
	}
	p.drawHUD()
}

func (p *hudPresenter) drawHUD() {
	snap := p.stats.Snapshot()

	p.clearHUD()

	speed := p.stats.RollingSpeed(10)
	sparkData := p.stats.SparklineData(sparklineWidth)
	spark := Sparkline(sparkData, sparklineWidth)
	lines := 0

	if p.freeSpaceDir != "" {
		// Line 1: write throughput and bytes written.
		fmt.Fprintf(p.w, "       %s   %s   %s written\n",
			spark, FormatRate(speed), FormatBytes(snap.BytesWritten))
		// Line 2: fraction of free space consumed.
		fmt.Fprintf(p.w, " %3.0f%%  %s   %s   eta %s\n",
			p.fraction*100, ProgressBar(p.fraction, progressBarWidth),
			truncPath(p.freeSpaceDir, pathWidth), FormatETA(p.fractionETA))
		p.hudDrawn = true
		p.hudLineCount = 2
		p.lastHUDDraw = time.Now()
		return
	}

	var pct float64
	if snap.BytesTotal > 0 {
		pct = float64(snap.BytesDestroyed) / float64(snap.BytesTotal)
	}

	// Rate mode: extra targets/s line above the main HUD.
	if p.rateMode {
		tps := p.stats.RollingTargetsPerSec(5)
		fmt.Fprintf(p.w, "targets/s  %s  %s/s   %s / %s done\n",
			spark, FormatCount(int64(tps)),
			FormatCount(snap.TargetsDestroyed), FormatCount(snap.TargetsTotal))
		lines++
	}

	// Line 1: throughput sparkline + speed + byte totals.
	fmt.Fprintf(p.w, "       %s   %s   %s / %s\n",
		spark, FormatRate(speed),
		FormatBytes(snap.BytesDestroyed), FormatBytes(snap.BytesTotal))
	lines++

	// Line 2: progress bar + targets + eta.
	fmt.Fprintf(p.w, " %3.0f%%  %s   %s / %s targets   eta %s\n",
		pct*100, ProgressBar(pct, progressBarWidth),
		FormatCount(snap.TargetsDestroyed), FormatCount(snap.TargetsTotal),
		FormatETA(p.stats.ETA()))
	lines++

	p.hudDrawn = true
	p.hudLineCount = lines
	p.lastHUDDraw = time.Now()
}

func (p *hudPresenter) clearHUD() {
	if !p.hudDrawn {
		return
	}
	lines := p.hudLineCount
	if lines == 0 {
		lines = 2 // fallback
	}
	// Move cursor up N lines and clear to end of screen.
	fmt.Fprintf(p.w, "\033[%dA\033[J", lines)
	p.hudDrawn = false
}

func (p *hudPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}

// styledPath returns the path with the directory portion dimmed and the
// final element in normal weight.
func (p *hudPresenter) styledPath(path string) string {
	path = StripRoot(p.root, path)
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if dir == "." || dir == "" {
		return base
	}
	if dir == "/" {
		return "/" + base
	}
	return fmt.Sprintf("%s%s/%s%s", ansiDim, dir, ansiReset, base)
}

// truncPath shortens a path to fit within maxLen characters.
func truncPath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	if maxLen <= 3 {
		return path[:maxLen]
	}
	return "..." + path[len(path)-maxLen+3:]
}

// StripRoot removes a root prefix from a path, returning a clean relative path.
// Exported for use by the TUI.
func StripRoot(root, path string) string {
	if root == "" {
		return path
	}
	if !strings.HasSuffix(root, string(filepath.Separator)) {
		root += string(filepath.Separator)
	}
	if strings.HasPrefix(path, root) {
		return path[len(root):]
	}
	return path
}
