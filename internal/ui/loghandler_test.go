package ui_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/purge/internal/ui"
)

// cliHandlers mirrors the --log setup: text at info for the terminal and
// JSON at debug for the log file.
func cliHandlers() (*ui.MultiHandler, *bytes.Buffer, *bytes.Buffer) {
	var text, js bytes.Buffer
	m := ui.NewMultiHandler(
		slog.NewTextHandler(&text, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&js, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	return m, &text, &js
}

func TestMultiHandler_DebugOnlyReachesLogFile(t *testing.T) {
	t.Parallel()

	m, text, js := cliHandlers()
	logger := slog.New(m)

	logger.Debug("purge.event", "type", "TargetDestroyed", "path", "/tmp/a")
	logger.Warn("target is owned by another user", "path", "/srv/b")

	assert.NotContains(t, text.String(), "purge.event")
	assert.Contains(t, text.String(), "path=/srv/b")

	dec := json.NewDecoder(js)
	var first, second map[string]any
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))
	assert.Equal(t, "TargetDestroyed", first["type"])
	assert.Equal(t, "WARN", second["level"])
}

func TestMultiHandler_Enabled(t *testing.T) {
	t.Parallel()

	m, _, _ := cliHandlers()
	ctx := context.Background()

	assert.True(t, m.Enabled(ctx, slog.LevelDebug))

	quiet := ui.NewMultiHandler(
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	assert.False(t, quiet.Enabled(ctx, slog.LevelInfo))
	assert.True(t, quiet.Enabled(ctx, slog.LevelError))
}

func TestMultiHandler_WithAttrsAndGroup(t *testing.T) {
	t.Parallel()

	m, text, js := cliHandlers()
	logger := slog.New(m.WithAttrs([]slog.Attr{slog.String("component", "freespace")}).WithGroup("wipe"))

	logger.Info("progress", "fraction", 0.5)

	assert.Contains(t, text.String(), "component=freespace")
	assert.Contains(t, text.String(), "wipe.fraction=0.5")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &rec))
	group, ok := rec["wipe"].(map[string]any)
	require.True(t, ok, "expected group 'wipe' in JSON output")
	assert.InDelta(t, 0.5, group["fraction"], 1e-9)
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("disk full")
}

func TestMultiHandler_ErrorDoesNotStarveOthers(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ok := slog.NewTextHandler(&buf, nil)
	m := ui.NewMultiHandler(failingHandler{ok}, ok)

	err := m.Handle(context.Background(), slog.NewRecord(time.Time{}, slog.LevelInfo, "swap restored", 0))
	require.Error(t, err)
	assert.Contains(t, buf.String(), "swap restored")
}
