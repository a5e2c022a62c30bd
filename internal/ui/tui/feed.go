package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bamsammich/purge/internal/event"
	"github.com/bamsammich/purge/internal/ui"
)

type entryKind int

const (
	entryDestroyed entryKind = iota
	entryFailed
	entrySkipped
	entryPreview
)

type feedEntry struct {
	kind   entryKind
	path   string
	size   int64
	detail string // error text or skip reason
}

type errorEntry struct {
	path string
	err  string
	time time.Time
}

type feedView struct {
	entries      []feedEntry  // unbounded history
	errors       []errorEntry // never evicted
	root         string
	scrollOffset int  // viewport offset into entries
	autoScroll   bool // follow new entries
}

func newFeedView(root string) feedView {
	return feedView{
		root:       root,
		autoScroll: true,
	}
}

func (f *feedView) handleEvent(ev event.Event) {
	switch ev.Type {
	case event.TargetDestroyed:
		f.entries = append(f.entries, feedEntry{kind: entryDestroyed, path: ev.Path, size: ev.Size})

	case event.TargetFailed:
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		f.entries = append(f.entries, feedEntry{kind: entryFailed, path: ev.Path, size: ev.Size, detail: errMsg})
		f.errors = append(f.errors, errorEntry{path: ev.Path, err: errMsg, time: ev.Timestamp})

	case event.TargetSkipped:
		f.entries = append(f.entries, feedEntry{kind: entrySkipped, path: ev.Path, size: ev.Size, detail: ev.Reason})

	case event.TargetPreview:
		f.entries = append(f.entries, feedEntry{kind: entryPreview, path: ev.Path, size: ev.Size})

	case event.SwapMilestone:
		if ev.Error != nil {
			f.errors = append(f.errors, errorEntry{path: ev.Stage, err: ev.Error.Error(), time: ev.Timestamp})
		}
	}
}

// scrollDown moves the viewport down one line and disables autoScroll.
func (f *feedView) scrollDown() {
	f.autoScroll = false
	f.scrollOffset++
}

// scrollUp moves the viewport up one line and disables autoScroll.
func (f *feedView) scrollUp() {
	f.autoScroll = false
	if f.scrollOffset > 0 {
		f.scrollOffset--
	}
}

// scrollToTop jumps to the first entry.
func (f *feedView) scrollToTop() {
	f.autoScroll = false
	f.scrollOffset = 0
}

// scrollToBottom jumps to the most recent entry and re-enables autoScroll.
func (f *feedView) scrollToBottom() {
	f.autoScroll = true
}

func (f *feedView) view(width, height int) string {
	if width < 20 {
		width = 20
	}

	errCount := min(len(f.errors), 5)

	dividers := 0
	if errCount > 0 {
		dividers++
	}
	if len(f.entries) > 0 {
		dividers++
	}

	entriesHeight := max(height-errCount-dividers, 1)

	maxOffset := max(len(f.entries)-entriesHeight, 0)
	if f.autoScroll {
		f.scrollOffset = maxOffset
	}
	f.scrollOffset = max(min(f.scrollOffset, maxOffset), 0)

	var b strings.Builder

	if lines := f.renderEntries(width, entriesHeight); lines != "" {
		b.WriteString(styleDivider.Render(fmt.Sprintf("─ targets (%d)", len(f.entries))))
		b.WriteByte('\n')
		b.WriteString(lines)
	}

	// Errors stay pinned at the bottom.
	if lines := f.renderErrors(errCount); lines != "" {
		b.WriteString(styleDivider.Render(fmt.Sprintf("─ errors (%d)", len(f.errors))))
		b.WriteByte('\n')
		b.WriteString(lines)
	}

	return b.String()
}

func (f *feedView) renderEntries(width, viewportHeight int) string {
	if len(f.entries) == 0 {
		return ""
	}

	var b strings.Builder
	end := min(f.scrollOffset+viewportHeight, len(f.entries))

	for _, e := range f.entries[f.scrollOffset:end] {
		var icon, extra string
		path := f.styledPath(e.path, width/2)
		sizeStr := styleTargetSize.Render(fmt.Sprintf("%10s", ui.FormatBytes(e.size)))

		switch e.kind {
		case entryFailed:
			icon = styleIconFailed.Render("✗")
			extra = styleError.Render(e.detail)
		case entrySkipped:
			icon = styleIconKept.Render("–")
			label := "skipped"
			if e.detail != "" {
				label += ": " + e.detail
			}
			extra = styleIconKept.Render(label)
		case entryPreview:
			icon = styleIconKept.Render("×")
			extra = styleIconKept.Render("would destroy")
		default:
			icon = styleIconDestroyed.Render("✓")
		}

		line := fmt.Sprintf("  %s  %s  %s", icon, path, sizeStr)
		if extra != "" {
			line += "  " + extra
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func (f *feedView) renderErrors(maxLines int) string {
	if len(f.errors) == 0 {
		return ""
	}

	var b strings.Builder
	// Show the most recent errors.
	start := max(len(f.errors)-maxLines, 0)
	for _, e := range f.errors[start:] {
		path := styleErrorPath.Render(ui.StripRoot(f.root, e.path))
		fmt.Fprintf(&b, "  %s  %s  %s\n", styleIconFailed.Render("✗"), path, styleError.Render(e.err))
	}
	return b.String()
}

func (f *feedView) styledPath(path string, maxLen int) string {
	path = ui.StripRoot(f.root, path)
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if dir == "." || dir == "" {
		return styleTargetName.Render(base)
	}
	if maxLen > 0 && len(dir) > maxLen {
		dir = "…" + dir[len(dir)-maxLen+1:]
	}
	return styleTargetDir.Render(dir+"/") + styleTargetName.Render(base)
}
