package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/bamsammich/purge/internal/event"
	"github.com/bamsammich/purge/internal/stats"
	"github.com/bamsammich/purge/internal/ui"
)

type milestone struct {
	stage  string
	device string
	failed bool
}

// wipeView shows free-space and swap wipes, which report a fraction and
// milestones instead of per-target results.
type wipeView struct {
	bar        progress.Model
	dir        string
	fraction   float64
	eta        time.Duration
	tempFiles  int64
	milestones []milestone
}

func newWipeView() wipeView {
	return wipeView{
		bar: progress.New(
			progress.WithGradient(string(ColorTeal), string(ColorGreen)),
			progress.WithoutPercentage(),
		),
	}
}

func (w *wipeView) handleEvent(ev event.Event) {
	switch ev.Type {
	case event.FreeSpaceProgress:
		w.dir = ev.Path
		w.fraction = ev.Fraction
		w.eta = ev.ETA
		w.tempFiles = ev.Total
	case event.SwapMilestone:
		w.milestones = append(w.milestones, milestone{
			stage:  ev.Stage,
			device: ev.Path,
			failed: ev.Error != nil,
		})
	}
}

func (w *wipeView) view(width int, snap stats.Snapshot, collector stats.Reader) string {
	width = max(width, 20)

	var b strings.Builder

	speed := collector.RollingSpeed(5)
	b.WriteString("  " + styleBigNumber.Render(ui.FormatRate(speed)))
	b.WriteString("\n\n")

	if w.dir != "" {
		w.bar.Width = width - 12
		fmt.Fprintf(&b, "  %s  %3.0f%%\n\n", w.bar.ViewAs(w.fraction), w.fraction*100)

		spark := ui.Sparkline(collector.SparklineData(width-4), width-4)
		b.WriteString("  " + styleSparkline.Render(spark))
		b.WriteString("\n\n")

		fmt.Fprintf(&b, "  %s   %s   %s   %s\n",
			styleRate.Render(ui.FormatBytes(snap.BytesWritten)+" written"),
			styleTargetSize.Render(fmt.Sprintf("%d temp files", w.tempFiles)),
			styleTargetSize.Render("eta "+ui.FormatETA(w.eta)),
			styleTargetDir.Render(w.dir),
		)
	}

	if len(w.milestones) > 0 {
		b.WriteString("\n  " + styleDivider.Render("swap") + "\n")
		for _, m := range w.milestones {
			icon := styleIconDestroyed.Render("•")
			if m.failed {
				icon = styleIconFailed.Render("✗")
			}
			line := "  " + icon + "  " + m.stage
			if m.device != "" {
				line += "  " + styleTargetDir.Render(m.device)
			}
			b.WriteString(line + "\n")
		}
	}

	return b.String()
}
