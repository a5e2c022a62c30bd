package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/bamsammich/purge/internal/config"
	"github.com/bamsammich/purge/internal/event"
	"github.com/bamsammich/purge/internal/stats"
	"github.com/bamsammich/purge/internal/ui"
	"github.com/bamsammich/purge/internal/ui/tui"
)

// setupLogging installs the default slog logger. With --log a JSON handler
// at debug level is added next to the stderr text handler. The returned
// func closes the log file.
func setupLogging(g globalFlags) (func(), error) {
	logLevel := slog.LevelWarn
	if g.verbose {
		logLevel = slog.LevelDebug
	} else if !g.quiet {
		logLevel = slog.LevelInfo
	}
	textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	var logHandler slog.Handler = textHandler
	closeFn := func() {}
	if g.logFile != "" {
		lf, err := os.OpenFile(g.logFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		closeFn = func() { _ = lf.Close() } //nolint:errcheck // best-effort close of the log file
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
	}
	slog.SetDefault(slog.New(logHandler))
	return closeFn, nil
}

// session pairs an event channel with the presenter that drains it.
type session struct {
	events    chan event.Event
	presenter ui.Presenter
	useTUI    bool
	cancel    context.CancelFunc
	logEvents bool
}

func newSession(
	g globalFlags,
	cfg config.Config,
	collector *stats.Collector,
	root string,
	cancel context.CancelFunc,
) *session {
	isTTY := ui.IsTTY(os.Stderr.Fd())
	s := &session{
		events:    make(chan event.Event, 256),
		useTUI:    g.tui && isTTY && !g.quiet,
		cancel:    cancel,
		logEvents: g.logFile != "",
	}
	if s.useTUI {
		s.presenter = tui.NewPresenter(tui.Config{
			Stats:  collector,
			Root:   root,
			Theme:  cfg.Theme,
			Cancel: cancel,
		})
		return s
	}
	if g.tui && !isTTY {
		slog.Warn("--tui requires a terminal, falling back to inline output")
	}
	s.presenter = ui.NewPresenter(ui.Config{
		Writer:     os.Stdout,
		ErrWriter:  os.Stderr,
		Stats:      collector,
		Root:       root,
		IsTTY:      isTTY,
		Quiet:      g.quiet,
		ForceFeed:  g.feed,
		ForceRate:  g.rate,
		NoProgress: g.noProgress,
	})
	return s
}

// run executes produce while the presenter consumes its events, and closes
// the event channel once produce returns. In TUI mode Bubble Tea owns the
// foreground so it can read stdin.
func (s *session) run(produce func()) {
	presenterEvents := s.tee()

	if s.useTUI {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			produce()
			close(s.events)
		}()

		_ = s.presenter.Run(presenterEvents) //nolint:errcheck // presenter error is non-fatal

		// User quit the TUI; stop the producer if still running.
		s.cancel()
		wg.Wait()
		return
	}

	var presenterErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		presenterErr = s.presenter.Run(presenterEvents)
	}()

	produce()
	close(s.events)
	wg.Wait()
	if presenterErr != nil {
		fmt.Fprintf(os.Stderr, "presenter: %v\n", presenterErr)
	}
}

// tee writes each event to the structured log before forwarding it when
// --log is set.
func (s *session) tee() <-chan event.Event {
	if !s.logEvents {
		return s.events
	}
	teed := make(chan event.Event, 256)
	go func() {
		for ev := range s.events {
			attrs := []slog.Attr{
				slog.String("type", ev.Type.String()),
				slog.String("path", ev.Path),
				slog.Int64("size", ev.Size),
			}
			if ev.Reason != "" {
				attrs = append(attrs, slog.String("reason", ev.Reason))
			}
			if ev.Stage != "" {
				attrs = append(attrs, slog.String("stage", ev.Stage))
			}
			if ev.Error != nil {
				attrs = append(attrs, slog.String("error", ev.Error.Error()))
			}
			slog.LogAttrs(context.Background(), slog.LevelDebug, "purge.event", attrs...)
			teed <- ev
		}
		close(teed)
	}()
	return teed
}

// emit sends ev unless ctx is done.
func (s *session) emit(ctx context.Context, ev event.Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}
