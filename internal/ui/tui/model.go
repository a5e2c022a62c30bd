package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bamsammich/purge/internal/event"
	"github.com/bamsammich/purge/internal/stats"
	"github.com/bamsammich/purge/internal/ui"
)

type viewMode int

const (
	viewFeed viewMode = iota
	viewWipe
)

// Bubble Tea messages.
type engineEventMsg event.Event
type channelDoneMsg struct{}
type tickMsg time.Time
type saveResultMsg struct{ err error }

// readNextEvent returns a tea.Cmd that blocks on the event channel.
func readNextEvent(ch <-chan event.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return channelDoneMsg{}
		}
		return engineEventMsg(ev)
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// saveModal manages the text input overlay for saving a report.
type saveModal struct {
	active bool
	input  string
	cursor int
}

func (s *saveModal) insertRune(r rune) {
	s.input = s.input[:s.cursor] + string(r) + s.input[s.cursor:]
	s.cursor++
}

func (s *saveModal) backspace() {
	if s.cursor > 0 {
		s.input = s.input[:s.cursor-1] + s.input[s.cursor:]
		s.cursor--
	}
}

func (s *saveModal) deleteChar() {
	if s.cursor < len(s.input) {
		s.input = s.input[:s.cursor] + s.input[s.cursor+1:]
	}
}

func (s *saveModal) moveLeft() {
	if s.cursor > 0 {
		s.cursor--
	}
}

func (s *saveModal) moveRight() {
	if s.cursor < len(s.input) {
		s.cursor++
	}
}

func (s *saveModal) render() string {
	prompt := styleSavePrompt.Render("Save to: ")
	before := s.input[:s.cursor]
	after := s.input[s.cursor:]
	cursor := styleSaveInput.Render("█")
	return "  " + prompt + styleSaveInput.Render(before) + cursor + styleSaveInput.Render(after)
}

// Model is the root Bubble Tea model.
type Model struct {
	events <-chan event.Event
	stats  stats.ReadTicker
	root   string
	cancel func() // stops the run behind the event channel; may be nil

	mode       viewMode
	modeChosen bool // user picked a view; stop auto-switching
	feed       feedView
	wipe       wipeView
	width      int
	height     int
	statusMsg  string // transient notification
	done       bool   // run complete
	quitting   bool

	lastSnap  stats.Snapshot
	lastSpeed float64
	lastETA   time.Duration

	save saveModal
}

// NewModel creates a new TUI model.
func NewModel(events <-chan event.Event, collector stats.ReadTicker, root string, cancel func()) Model {
	return Model{
		events: events,
		stats:  collector,
		root:   root,
		cancel: cancel,
		feed:   newFeedView(root),
		wipe:   newWipeView(),
		width:  80,
		height: 24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		readNextEvent(m.events),
		tickCmd(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case engineEventMsg:
		return m.handleEngineEvent(event.Event(msg))

	case channelDoneMsg:
		m.done = true
		m.lastSnap = m.stats.Snapshot()
		m.lastSpeed = m.stats.RollingSpeed(10)
		m.lastETA = 0
		return m, tickCmd()

	case tickMsg:
		m.stats.Tick()
		m.lastSnap = m.stats.Snapshot()
		m.lastSpeed = m.stats.RollingSpeed(10)
		if !m.done {
			m.lastETA = m.stats.ETA()
		}
		return m, tickCmd()

	case saveResultMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("save failed: %v", msg.err)
		} else {
			m.statusMsg = fmt.Sprintf("saved to %s", m.save.input)
		}
		m.save.active = false
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// When save modal is active, capture all input.
	if m.save.active {
		return m.handleSaveKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		if !m.done && m.cancel != nil {
			m.cancel()
		}
		m.quitting = true
		return m, tea.Quit

	case "w":
		m.mode = viewWipe
		m.modeChosen = true
		m.statusMsg = ""
		return m, nil

	case "f", "e":
		m.mode = viewFeed
		m.modeChosen = true
		m.statusMsg = ""
		return m, nil

	case "j", "down":
		if m.mode == viewFeed {
			m.feed.scrollDown()
		}
		return m, nil

	case "k", "up":
		if m.mode == viewFeed {
			m.feed.scrollUp()
		}
		return m, nil

	case "G":
		if m.mode == viewFeed {
			m.feed.scrollToBottom()
		}
		return m, nil

	case "g":
		if m.mode == viewFeed {
			m.feed.scrollToTop()
		}
		return m, nil

	case "s":
		if m.done {
			m.save.active = true
			m.save.input = fmt.Sprintf("purge-%s.log", time.Now().Format("2006-01-02-150405"))
			m.save.cursor = len(m.save.input)
			m.statusMsg = ""
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleSaveKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.save.active = false
		m.statusMsg = ""
		return m, nil

	case tea.KeyEnter:
		return m, m.writeReport(m.save.input)

	case tea.KeyBackspace:
		m.save.backspace()
		return m, nil

	case tea.KeyDelete:
		m.save.deleteChar()
		return m, nil

	case tea.KeyLeft:
		m.save.moveLeft()
		return m, nil

	case tea.KeyRight:
		m.save.moveRight()
		return m, nil

	case tea.KeyRunes:
		for _, r := range msg.Runes {
			m.save.insertRune(r)
		}
		return m, nil
	}

	return m, nil
}

func (m Model) writeReport(path string) tea.Cmd {
	// Capture data needed by the goroutine.
	snap := m.lastSnap
	root := m.root
	entries := make([]feedEntry, len(m.feed.entries))
	copy(entries, m.feed.entries)
	milestones := make([]milestone, len(m.wipe.milestones))
	copy(milestones, m.wipe.milestones)
	wipedDir := m.wipe.dir

	return func() tea.Msg {
		var b strings.Builder

		b.WriteString("purge report\n")
		b.WriteString("============\n")
		if root != "" {
			fmt.Fprintf(&b, "root:        %s\n", root)
		}
		if wipedDir != "" {
			fmt.Fprintf(&b, "free space:  %s\n", wipedDir)
		}
		fmt.Fprintf(&b, "completed:   %s\n", time.Now().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&b, "duration:    %s\n", ui.FormatDuration(snap.Elapsed))
		fmt.Fprintf(&b, "destroyed:   %s\n", ui.FormatCount(snap.TargetsDestroyed))
		fmt.Fprintf(&b, "size:        %s\n", ui.FormatBytes(snap.BytesDestroyed))
		if snap.BytesWritten > 0 {
			fmt.Fprintf(&b, "written:     %s\n", ui.FormatBytes(snap.BytesWritten))
		}
		fmt.Fprintf(&b, "skipped:     %d\n", snap.TargetsSkipped)
		fmt.Fprintf(&b, "errors:      %d\n", snap.TargetsFailed)

		if len(entries) > 0 {
			b.WriteString("\n--- targets ---\n")
		}
		for _, e := range entries {
			relPath := ui.StripRoot(root, e.path)
			switch e.kind {
			case entryFailed:
				fmt.Fprintf(&b, "x  %-50s  %s\n", relPath, e.detail)
			case entrySkipped:
				fmt.Fprintf(&b, "-  %-50s  skipped %s\n", relPath, e.detail)
			case entryPreview:
				fmt.Fprintf(&b, "?  %-50s  %s\n", relPath, ui.FormatBytes(e.size))
			default:
				fmt.Fprintf(&b, "v  %-50s  %s\n", relPath, ui.FormatBytes(e.size))
			}
		}

		if len(milestones) > 0 {
			b.WriteString("\n--- swap ---\n")
		}
		for _, ms := range milestones {
			fmt.Fprintf(&b, "%s %s\n", ms.stage, ms.device)
		}

		err := os.WriteFile(path, []byte(b.String()), 0o600)
		return saveResultMsg{err: err}
	}
}

func (m Model) handleEngineEvent(ev event.Event) (tea.Model, tea.Cmd) {
	m.feed.handleEvent(ev)
	m.wipe.handleEvent(ev)

	if !m.modeChosen && (ev.Type == event.FreeSpaceProgress || ev.Type == event.SwapMilestone) {
		m.mode = viewWipe
	}

	return m, readNextEvent(m.events)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteByte('\n')

	// header (1) + footer (1) + save/status (1)
	contentHeight := max(m.height-3, 3)

	switch m.mode {
	case viewFeed:
		b.WriteString(m.feed.view(m.width, contentHeight))
	case viewWipe:
		b.WriteString(m.wipe.view(m.width, m.lastSnap, m.stats))
	}

	switch {
	case m.save.active:
		b.WriteString(m.save.render())
		b.WriteByte('\n')
	case m.statusMsg != "":
		b.WriteString(styleStatus.Render("  " + m.statusMsg))
		b.WriteByte('\n')
	default:
		b.WriteByte('\n')
	}

	b.WriteString(m.renderFooter())

	return b.String()
}

func (m Model) renderHeader() string {
	snap := m.lastSnap
	label := styleHeaderLabel.Render("purge")

	if m.done {
		return styleHeader.Render(fmt.Sprintf("  %s  %s  %s  %s targets  %s",
			label,
			styleIconDestroyed.Render("done"),
			ui.FormatBytes(snap.BytesDestroyed+snap.BytesWritten),
			ui.FormatCount(snap.TargetsDestroyed),
			ui.FormatDuration(snap.Elapsed),
		))
	}

	if m.wipe.dir != "" {
		return styleHeader.Render(fmt.Sprintf("  %s  %3.0f%%  %s  %s written  eta %s",
			label,
			m.wipe.fraction*100,
			styleProgressFilled.Render(ui.ProgressBar(m.wipe.fraction, 10)),
			ui.FormatBytes(snap.BytesWritten),
			ui.FormatETA(m.wipe.eta),
		))
	}

	var pct float64
	if snap.BytesTotal > 0 {
		pct = float64(snap.BytesDestroyed) / float64(snap.BytesTotal)
	}
	return styleHeader.Render(fmt.Sprintf("  %s  %3.0f%%  %s  %s / %s  %s / %s targets  eta %s",
		label,
		pct*100,
		styleProgressFilled.Render(ui.ProgressBar(pct, 10)),
		ui.FormatBytes(snap.BytesDestroyed),
		ui.FormatBytes(snap.BytesTotal),
		ui.FormatCount(snap.TargetsDestroyed),
		ui.FormatCount(snap.TargetsTotal),
		ui.FormatETA(m.lastETA),
	))
}

func (m Model) renderFooter() string {
	type keybind struct {
		key   string
		label string
	}

	var binds []keybind
	if m.done {
		binds = []keybind{
			{"s", "save"},
			{"j/k", "scroll"},
			{"w", "wipe"},
			{"f", "feed"},
			{"q", "quit"},
		}
	} else {
		binds = []keybind{
			{"q", "cancel"},
			{"w", "wipe"},
			{"f", "feed"},
			{"j/k", "scroll"},
		}
	}

	var parts []string
	for _, kb := range binds {
		parts = append(parts,
			styleKeybindKey.Render(kb.key)+" "+styleKeybindLabel.Render(kb.label))
	}

	return "  " + strings.Join(parts, "   ")
}
