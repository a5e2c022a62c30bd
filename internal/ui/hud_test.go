package ui

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/purge/internal/event"
	"github.com/bamsammich/purge/internal/stats"
)

func newHUD(out *bytes.Buffer) *hudPresenter {
	collector := stats.NewCollector()
	collector.SetTotals(10, 10240)
	return &hudPresenter{w: out, stats: collector, forceFeed: true}
}

func runHUD(t *testing.T, p *hudPresenter, evs ...Event) string {
	t.Helper()
	events := make(chan Event, len(evs))
	for _, ev := range evs {
		events <- ev
	}
	close(events)
	require.NoError(t, p.Run(events))
	return p.w.(*bytes.Buffer).String()
}

func TestHudPresenterTargetDestroyed(t *testing.T) {
	var out bytes.Buffer
	output := runHUD(t, newHUD(&out),
		Event{Type: event.TargetDestroyed, Path: "test/file.txt", Size: 1024},
	)

	assert.Contains(t, output, "file.txt")
	assert.Contains(t, output, "✓")
	// Directory part is dimmed.
	assert.Contains(t, output, ansiDim)
}

func TestHudPresenterRelativePaths(t *testing.T) {
	var out bytes.Buffer
	p := newHUD(&out)
	p.root = "/home/user/cache"

	output := runHUD(t, p,
		Event{Type: event.TargetDestroyed, Path: "/home/user/cache/subdir/file.txt", Size: 1024},
	)

	assert.NotContains(t, output, "/home/user/cache/")
	assert.Contains(t, output, "subdir")
	assert.Contains(t, output, "file.txt")
}

func TestHudPresenterFailedShownInRateMode(t *testing.T) {
	var out bytes.Buffer
	p := newHUD(&out)
	p.forceFeed = false
	p.forceRate = true

	output := runHUD(t, p,
		Event{Type: event.TargetDestroyed, Path: "quiet.txt"},
		Event{Type: event.TargetFailed, Path: "loud.txt", Error: assert.AnError},
	)

	assert.NotContains(t, output, "quiet.txt")
	assert.Contains(t, output, "loud.txt")
	assert.Contains(t, output, assert.AnError.Error())
}

func TestHudPresenterSkippedAndPreview(t *testing.T) {
	var out bytes.Buffer
	output := runHUD(t, newHUD(&out),
		Event{Type: event.TargetSkipped, Path: "db.sqlite", Reason: "open"},
		Event{Type: event.TargetPreview, Path: "old.log", Size: 10},
	)

	assert.Contains(t, output, "skipped: open")
	assert.Contains(t, output, "(would destroy)")
}

func TestHudPresenterSwapMilestone(t *testing.T) {
	var out bytes.Buffer
	output := runHUD(t, newHUD(&out),
		Event{Type: event.SwapMilestone, Stage: "wiping swap", Path: "/dev/sda5"},
	)
	assert.Contains(t, output, "wiping swap /dev/sda5")
}

func TestHudFreeSpaceView(t *testing.T) {
	var out bytes.Buffer
	p := newHUD(&out)
	p.handleEvent(Event{
		Type:     event.FreeSpaceProgress,
		Path:     "/mnt/scratch",
		Fraction: 0.25,
		ETA:      30 * time.Second,
	})
	p.drawHUD()

	output := out.String()
	assert.Contains(t, output, " 25%")
	assert.Contains(t, output, "/mnt/scratch")
	assert.Contains(t, output, "eta 30s")
	assert.Equal(t, 2, p.hudLineCount)
}

func TestHudPresenterSummary(t *testing.T) {
	collector := stats.NewCollector()
	collector.AddTargetsDestroyed(500)
	collector.AddBytesDestroyed(1024 * 1024 * 100)

	p := &hudPresenter{stats: collector}
	s := p.Summary()
	assert.Contains(t, s, "done")
	assert.Contains(t, s, "targets 500")
}

func TestTruncPath(t *testing.T) {
	assert.Equal(t, "short.txt", truncPath("short.txt", 20))
	assert.Equal(t, "...ry/long/path.txt", truncPath("a/very/long/directory/long/path.txt", 19))
	assert.Equal(t, "ab", truncPath("abcdef", 2))
}

func TestStyledPath(t *testing.T) {
	p := &hudPresenter{}

	assert.Equal(t, "file.txt", p.styledPath("file.txt"))
	assert.Equal(t, "/file.txt", p.styledPath("/file.txt"))
	assert.Contains(t, p.styledPath("some/dir/file.txt"), ansiDim+"some/dir/"+ansiReset+"file.txt")
}

func TestStyledPathWithRoot(t *testing.T) {
	p := &hudPresenter{root: "/home/user/backup"}

	styled := p.styledPath("/home/user/backup/photos/img.jpg")
	assert.NotContains(t, styled, "/home/user/backup")
	assert.Contains(t, styled, ansiDim+"photos/"+ansiReset+"img.jpg")

	assert.Equal(t, "file.txt", p.styledPath("/home/user/backup/file.txt"))
}

func TestStripRoot(t *testing.T) {
	assert.Equal(t, "sub/file.txt", StripRoot("/home/user/dst", "/home/user/dst/sub/file.txt"))
	assert.Equal(t, "file.txt", StripRoot("/home/user/dst/", "/home/user/dst/file.txt"))
	assert.Equal(t, "/other/path/file.txt", StripRoot("/home/user/dst", "/other/path/file.txt"))
	assert.Equal(t, "file.txt", StripRoot("", "file.txt"))
}

func TestHudClearHUDSequence(t *testing.T) {
	var out bytes.Buffer
	p := &hudPresenter{w: &out, stats: stats.NewCollector()}

	p.drawHUD()
	assert.True(t, p.hudDrawn)
	assert.Equal(t, 2, p.hudLineCount)

	out.Reset()
	p.clearHUD()
	assert.Contains(t, out.String(), "\033[2A")
	assert.False(t, p.hudDrawn)
}

func TestHudClearHUDRateMode(t *testing.T) {
	var out bytes.Buffer
	p := &hudPresenter{w: &out, stats: stats.NewCollector(), rateMode: true}

	p.drawHUD()
	assert.Equal(t, 3, p.hudLineCount)

	out.Reset()
	p.clearHUD()
	assert.Contains(t, out.String(), "\033[3A")
}

func TestHudAlwaysRedrawsAfterFeedLine(t *testing.T) {
	var out bytes.Buffer
	output := runHUD(t, newHUD(&out),
		Event{Type: event.TargetDestroyed, Path: "a.txt", Size: 100},
		Event{Type: event.TargetDestroyed, Path: "b.txt", Size: 200},
	)

	assert.Contains(t, output, "a.txt")
	assert.Contains(t, output, "b.txt")
	// The progress bar character shows the HUD was drawn.
	assert.Contains(t, output, "□")
}
