// Package ui provides the visual styling and interactive components for
// the forge CLI: the shared color themes, a static table renderer, and the
// strategy explorer.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Semantic colors shared by both themes.
var (
	ColorSuccess = lipgloss.Color("#4CAF50") // green
	ColorError   = lipgloss.Color("#e53935") // red
	ColorWarning = lipgloss.Color("#FFB300") // amber
	ColorInfo    = lipgloss.Color("#42A5F5") // blue
)

// Theme holds one color scheme.
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Card       lipgloss.Color
	IsDark     bool
}

// DarkTheme returns the dark scheme.
func DarkTheme() Theme {
	return Theme{
		Background: lipgloss.Color("#10141f"),
		Foreground: lipgloss.Color("#e8eaf0"),
		Primary:    lipgloss.Color("#7E9CD8"), // steel blue
		Accent:     lipgloss.Color("#E6C384"), // brass
		Muted:      lipgloss.Color("#54546D"),
		Border:     lipgloss.Color("#2A2A37"),
		Card:       lipgloss.Color("#1a1f2e"),
		IsDark:     true,
	}
}

// LightTheme returns the light scheme.
func LightTheme() Theme {
	return Theme{
		Background: lipgloss.Color("#f7f7f9"),
		Foreground: lipgloss.Color("#1f2430"),
		Primary:    lipgloss.Color("#2D4F93"),
		Accent:     lipgloss.Color("#B8860B"),
		Muted:      lipgloss.Color("#9094a6"),
		Border:     lipgloss.Color("#d8dae2"),
		Card:       lipgloss.Color("#ffffff"),
		IsDark:     false,
	}
}

// ThemeFromName resolves a configured theme name; unknown names fall back
// to terminal detection.
func ThemeFromName(name string) Theme {
	switch name {
	case "dark":
		return DarkTheme()
	case "light":
		return LightTheme()
	default:
		return DetectTheme()
	}
}

// DetectTheme picks a theme from the terminal environment. FORGE_DARK_MODE=1
// forces dark; otherwise COLORFGBG's background index decides, and the
// default without signals is dark.
func DetectTheme() Theme {
	if os.Getenv("FORGE_DARK_MODE") == "1" {
		return DarkTheme()
	}
	if fgbg := os.Getenv("COLORFGBG"); fgbg != "" {
		parts := strings.Split(fgbg, ";")
		if len(parts) >= 2 {
			if bg, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
				if bg >= 7 && bg != 8 {
					return LightTheme()
				}
			}
		}
	}
	return DarkTheme()
}

// Styles holds the styled components the forge commands and explorer use.
type Styles struct {
	Theme Theme

	Header lipgloss.Style
	Footer lipgloss.Style

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	CodeBlock lipgloss.Style
	Badge     lipgloss.Style
}

// NewStyles builds the component styles for a theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(ColorInfo),

		CodeBlock: lipgloss.NewStyle().
			Background(theme.Card).
			Foreground(theme.Foreground).
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),

		Badge: lipgloss.NewStyle().
			Background(theme.Accent).
			Foreground(lipgloss.Color("#1f2430")).
			Padding(0, 1).
			Bold(true),
	}
}

// DefaultStyles returns styles with the detected theme.
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}
