package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bamsammich/purge/internal/config"
	"github.com/bamsammich/purge/internal/event"
	"github.com/bamsammich/purge/internal/stats"
	"github.com/bamsammich/purge/internal/ui"
)

// Config configures the TUI presenter.
type Config struct {
	Stats  *stats.Collector
	Root   string
	Theme  config.ThemeConfig
	Cancel func() // called when the user quits before the run ends
}

// Presenter wraps a Bubble Tea program and implements ui.Presenter.
type Presenter struct {
	cfg   Config
	model Model
}

var _ ui.Presenter = (*Presenter)(nil)

// NewPresenter creates a new TUI presenter.
func NewPresenter(cfg Config) *Presenter {
	ApplyTheme(cfg.Theme)
	return &Presenter{cfg: cfg}
}

// Run starts the Bubble Tea program and blocks until done.
func (p *Presenter) Run(events <-chan event.Event) error {
	p.model = NewModel(events, p.cfg.Stats, p.cfg.Root, p.cfg.Cancel)
	prog := tea.NewProgram(
		p.model,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)
	finalModel, err := prog.Run()
	if err != nil {
		return err
	}
	p.model = finalModel.(Model) //nolint:forcetypeassert // the program only ever holds a Model
	// Drain so the producer never blocks after an early quit.
	for range events {
	}
	return nil
}

// Summary returns the final completion summary line.
func (p *Presenter) Summary() string {
	return ui.CompletionSummary(p.cfg.Stats.Snapshot())
}
