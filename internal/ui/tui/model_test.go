package tui

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/purge/internal/event"
	"github.com/bamsammich/purge/internal/stats"
)

func newTestModel() (Model, *stats.Collector) {
	ch := make(chan event.Event, 10)
	c := stats.NewCollector()
	c.SetTotals(100, 1024*1024*1024)
	return NewModel(ch, c, "/home", nil), c
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	model, ok := updated.(Model)
	require.True(t, ok)
	return model, cmd
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestModel_Init(t *testing.T) {
	m, _ := newTestModel()
	assert.NotNil(t, m.Init())
}

func TestModel_KeyQ_QuitsAndCancels(t *testing.T) {
	m, _ := newTestModel()
	cancelled := false
	m.cancel = func() { cancelled = true }

	model, cmd := press(t, m, key('q'))
	assert.True(t, model.quitting)
	assert.True(t, cancelled)
	assert.NotNil(t, cmd) // tea.Quit
}

func TestModel_KeyQ_AfterDoneDoesNotCancel(t *testing.T) {
	m, _ := newTestModel()
	m.done = true
	cancelled := false
	m.cancel = func() { cancelled = true }

	model, _ := press(t, m, key('q'))
	assert.True(t, model.quitting)
	assert.False(t, cancelled)
}

func TestModel_ViewKeys(t *testing.T) {
	m, _ := newTestModel()

	model, _ := press(t, m, key('w'))
	assert.Equal(t, viewWipe, model.mode)
	assert.True(t, model.modeChosen)

	model, _ = press(t, model, key('f'))
	assert.Equal(t, viewFeed, model.mode)

	model.mode = viewWipe
	model, _ = press(t, model, key('e'))
	assert.Equal(t, viewFeed, model.mode)
}

func TestModel_WindowResize(t *testing.T) {
	m, _ := newTestModel()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	model, ok := updated.(Model)
	require.True(t, ok)
	assert.Equal(t, 120, model.width)
	assert.Equal(t, 40, model.height)
}

func TestModel_EngineEvent(t *testing.T) {
	m, _ := newTestModel()
	updated, cmd := m.Update(engineEventMsg(event.Event{
		Type: event.TargetDestroyed,
		Path: "/home/test.txt",
		Size: 4096,
	}))
	model, ok := updated.(Model)
	require.True(t, ok)

	require.Len(t, model.feed.entries, 1)
	assert.Equal(t, viewFeed, model.mode)
	assert.NotNil(t, cmd)
}

func TestModel_FreeSpaceEventSwitchesView(t *testing.T) {
	m, _ := newTestModel()
	updated, _ := m.Update(engineEventMsg(event.Event{
		Type:     event.FreeSpaceProgress,
		Path:     "/mnt",
		Fraction: 0.1,
	}))
	model, ok := updated.(Model)
	require.True(t, ok)
	assert.Equal(t, viewWipe, model.mode)

	// A user choice sticks.
	model.mode = viewFeed
	model.modeChosen = true
	updated, _ = model.Update(engineEventMsg(event.Event{Type: event.FreeSpaceProgress, Path: "/mnt"}))
	model, ok = updated.(Model)
	require.True(t, ok)
	assert.Equal(t, viewFeed, model.mode)
}

func TestModel_ChannelDone_StaysOpen(t *testing.T) {
	m, _ := newTestModel()
	updated, cmd := m.Update(channelDoneMsg{})
	model, ok := updated.(Model)
	require.True(t, ok)
	assert.True(t, model.done)
	assert.False(t, model.quitting)
	assert.NotNil(t, cmd) // tickCmd keeps TUI alive
}

func TestModel_Tick(t *testing.T) {
	m, c := newTestModel()
	c.AddTargetsDestroyed(5)
	c.AddBytesDestroyed(1024 * 1024)

	updated, cmd := m.Update(tickMsg(time.Now()))
	model, ok := updated.(Model)
	require.True(t, ok)
	assert.Equal(t, int64(5), model.lastSnap.TargetsDestroyed)
	assert.NotNil(t, cmd)
}

func TestModel_ViewFeed(t *testing.T) {
	m, _ := newTestModel()
	m.width = 80
	m.height = 30
	out := m.View()
	assert.Contains(t, out, "purge")
	assert.Contains(t, out, "targets")
	assert.Contains(t, out, "cancel")
}

func TestModel_ViewWipe(t *testing.T) {
	m, _ := newTestModel()
	m.mode = viewWipe
	m.width = 80
	m.height = 30
	m.wipe.handleEvent(event.Event{Type: event.FreeSpaceProgress, Path: "/mnt", Fraction: 0.3})

	out := m.View()
	assert.Contains(t, out, "purge")
	assert.Contains(t, out, " 30%")
	assert.Contains(t, out, "written")
}

func TestModel_ViewQuitting(t *testing.T) {
	m, _ := newTestModel()
	m.quitting = true
	assert.Empty(t, m.View())
}

func TestModel_ScrollKeys(t *testing.T) {
	m, _ := newTestModel()
	for i := range 10 {
		m.feed.handleEvent(event.Event{
			Type: event.TargetDestroyed,
			Path: "/home/" + string(rune('a'+i)) + ".txt",
			Size: 100,
		})
	}

	model, _ := press(t, m, key('j'))
	assert.False(t, model.feed.autoScroll)

	model, _ = press(t, model, key('G'))
	assert.True(t, model.feed.autoScroll)

	model, _ = press(t, model, key('g'))
	assert.Equal(t, 0, model.feed.scrollOffset)
	assert.False(t, model.feed.autoScroll)
}

func TestModel_SaveModal_ActivatesOnlyWhenDone(t *testing.T) {
	m, _ := newTestModel()

	model, _ := press(t, m, key('s'))
	assert.False(t, model.save.active)

	model.done = true
	model, _ = press(t, model, key('s'))
	assert.True(t, model.save.active)
	assert.Contains(t, model.save.input, "purge-")
	assert.Contains(t, model.save.input, ".log")
}

func TestModel_SaveModal_EscCancels(t *testing.T) {
	m, _ := newTestModel()
	m.done = true
	m.save.active = true
	m.save.input = "test.log"

	model, _ := press(t, m, tea.KeyMsg{Type: tea.KeyEscape})
	assert.False(t, model.save.active)
}

func TestModel_SaveModal_TextInput(t *testing.T) {
	m, _ := newTestModel()
	m.save.active = true

	model, _ := press(t, m, key('a'))
	model, _ = press(t, model, key('b'))
	model, _ = press(t, model, key('c'))
	assert.Equal(t, "abc", model.save.input)
	assert.Equal(t, 3, model.save.cursor)

	model, _ = press(t, model, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "ab", model.save.input)

	model, _ = press(t, model, tea.KeyMsg{Type: tea.KeyLeft})
	model, _ = press(t, model, tea.KeyMsg{Type: tea.KeyDelete})
	assert.Equal(t, "a", model.save.input)
}

func TestModel_SaveModal_WritesFile(t *testing.T) {
	m, c := newTestModel()
	m.done = true
	c.AddTargetsDestroyed(1)
	m.lastSnap = c.Snapshot()

	m.feed.handleEvent(event.Event{Type: event.TargetDestroyed, Path: "/home/test.txt", Size: 1024})
	m.feed.handleEvent(event.Event{Type: event.TargetSkipped, Path: "/home/keep.txt", Reason: "whitelisted"})
	m.wipe.handleEvent(event.Event{Type: event.SwapMilestone, Stage: "wiping swap", Path: "/dev/sda5"})

	path := filepath.Join(t.TempDir(), "report.log")
	m.save.input = path

	msg := m.writeReport(path)()
	result, ok := msg.(saveResultMsg)
	require.True(t, ok)
	require.NoError(t, result.err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "purge report")
	assert.Contains(t, string(content), "root:        /home")
	assert.Contains(t, string(content), "test.txt")
	assert.Contains(t, string(content), "skipped whitelisted")
	assert.Contains(t, string(content), "wiping swap /dev/sda5")
}

func TestModel_FooterChangesWhenDone(t *testing.T) {
	m, _ := newTestModel()
	assert.Contains(t, m.renderFooter(), "cancel")

	m.done = true
	footer := m.renderFooter()
	assert.Contains(t, footer, "save")
	assert.Contains(t, footer, "scroll")
}
