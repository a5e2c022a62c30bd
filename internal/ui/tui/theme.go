package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/purge/internal/config"
)

// Palette colors. Config may override any of them before the TUI starts.
var (
	ColorGreen  = lipgloss.Color("#a6e3a1")
	ColorBlue   = lipgloss.Color("#89b4fa")
	ColorYellow = lipgloss.Color("#f9e2af")
	ColorRed    = lipgloss.Color("#f38ba8")
	ColorTeal   = lipgloss.Color("#94e2d5")
	ColorMauve  = lipgloss.Color("#cba6f7")
	ColorMuted  = lipgloss.Color("#5a6278")
	ColorDim    = lipgloss.Color("#3a4055")
	ColorBright = lipgloss.Color("#cdd6f4")
)

var (
	styleHeader         lipgloss.Style
	styleHeaderLabel    lipgloss.Style
	styleDivider        lipgloss.Style
	styleIconDestroyed  lipgloss.Style
	styleIconFailed     lipgloss.Style
	styleIconKept       lipgloss.Style
	styleTargetName     lipgloss.Style
	styleTargetDir      lipgloss.Style
	styleTargetSize     lipgloss.Style
	styleRate           lipgloss.Style
	styleError          lipgloss.Style
	styleErrorPath      lipgloss.Style
	styleKeybindKey     lipgloss.Style
	styleKeybindLabel   lipgloss.Style
	styleBigNumber      lipgloss.Style
	styleSparkline      lipgloss.Style
	styleProgressFilled lipgloss.Style
	styleStatus         lipgloss.Style
	styleSavePrompt     lipgloss.Style
	styleSaveInput      lipgloss.Style
)

func init() {
	rebuildStyles()
}

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func rebuildStyles() {
	styleHeader = fg(ColorBright).Bold(true)
	styleHeaderLabel = fg(ColorRed).Bold(true)
	styleDivider = fg(ColorDim)

	styleIconDestroyed = fg(ColorGreen)
	styleIconFailed = fg(ColorRed)
	styleIconKept = fg(ColorMuted)
	styleTargetName = fg(ColorBright)
	styleTargetDir = fg(ColorMuted)
	styleTargetSize = fg(ColorMuted)
	styleRate = fg(ColorTeal)

	styleError = fg(ColorRed)
	styleErrorPath = fg(ColorRed).Bold(true)

	styleKeybindKey = fg(ColorMauve).Bold(true)
	styleKeybindLabel = fg(ColorMuted)

	styleBigNumber = fg(ColorGreen).Bold(true)
	styleSparkline = fg(ColorBlue)
	styleProgressFilled = fg(ColorGreen)
	styleStatus = fg(ColorYellow).Italic(true)
	styleSavePrompt = fg(ColorMuted)
	styleSaveInput = fg(ColorBright)
}

// ApplyTheme overrides palette colors set in tc and rebuilds the styles.
func ApplyTheme(tc config.ThemeConfig) {
	overrides := []struct {
		hex *string
		dst *lipgloss.Color
	}{
		{tc.Green, &ColorGreen},
		{tc.Blue, &ColorBlue},
		{tc.Yellow, &ColorYellow},
		{tc.Red, &ColorRed},
		{tc.Teal, &ColorTeal},
		{tc.Mauve, &ColorMauve},
		{tc.Muted, &ColorMuted},
		{tc.Dim, &ColorDim},
		{tc.Bright, &ColorBright},
	}
	for _, o := range overrides {
		if o.hex != nil {
			*o.dst = lipgloss.Color(*o.hex)
		}
	}
	rebuildStyles()
}
