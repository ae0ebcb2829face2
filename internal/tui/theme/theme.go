package theme

import (
	"maps"
	"os"
	"runtime"

	"github.com/charmbracelet/lipgloss"
)

// IconSet maps a semantic name to the glyph shown for it.
type IconSet map[string]string

// Colors holds the palette shared by every view.
type Colors struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Accent     lipgloss.Color
	Background lipgloss.Color
	Muted      lipgloss.Color
	Success    lipgloss.Color
	Error      lipgloss.Color
}

// BadgeKind selects a badge variant.
type BadgeKind int

const (
	BadgeInfo BadgeKind = iota
	BadgeSuccess
	BadgeError
	BadgeMuted
)

// Theme bundles palette, panel border and icons.
type Theme struct {
	colors   Colors
	border   lipgloss.Border
	padding  int
	icons    IconSet
	fallback IconSet
}

// Option configures a Theme.
type Option func(*Theme)

// WithColors overrides the palette.
func WithColors(colors Colors) Option {
	return func(t *Theme) { t.colors = colors }
}

// WithIconSet overrides the icons.
func WithIconSet(set IconSet) Option {
	return func(t *Theme) { t.icons = maps.Clone(set) }
}

// WithBorder overrides the panel border.
func WithBorder(border lipgloss.Border) Option {
	return func(t *Theme) { t.border = border }
}

// New builds a Theme, applying opts over the defaults.
func New(opts ...Option) Theme {
	t := Theme{
		colors: Colors{
			Primary:    lipgloss.Color("#1f4e79"),
			Secondary:  lipgloss.Color("#2e6da4"),
			Accent:     lipgloss.Color("#5bc0de"),
			Background: lipgloss.Color("#f8f8f8"),
			Muted:      lipgloss.Color("#9ba8c0"),
			Success:    lipgloss.Color("#5dc796"),
			Error:      lipgloss.Color("#f04c56"),
		},
		border:   lipgloss.RoundedBorder(),
		padding:  1,
		icons:    defaultIconSet(),
		fallback: maps.Clone(asciiIcons),
	}
	for _, opt := range opts {
		opt(&t)
	}
	if t.icons == nil {
		t.icons = defaultIconSet()
	}
	return t
}

// Default returns the stock theme.
func Default() Theme {
	return New()
}

func (t Theme) Colors() Colors {
	return t.colors
}

// Icon returns the glyph for name, falling back to ASCII, then "".
func (t Theme) Icon(name string) string {
	if icon, ok := t.icons[name]; ok {
		return icon
	}
	return t.fallback[name]
}

func (t Theme) HeaderStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Background(t.colors.Primary).
		Foreground(t.colors.Background).
		Align(lipgloss.Center)
}

func (t Theme) StatusBarStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Background(t.colors.Secondary).
		Foreground(t.colors.Background).
		Padding(0, 1)
}

func (t Theme) PanelStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(t.border).
		BorderForeground(t.colors.Accent).
		Padding(t.padding)
}

// BadgeStyle returns the style for a short inline label.
func (t Theme) BadgeStyle(kind BadgeKind) lipgloss.Style {
	base := lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(t.colors.Background)
	switch kind {
	case BadgeSuccess:
		return base.Background(t.colors.Success)
	case BadgeError:
		return base.Background(t.colors.Error)
	case BadgeMuted:
		return base.Background(t.colors.Muted)
	default:
		return base.Background(t.colors.Accent)
	}
}

// ProgressGradient returns the start and end colors for progress bars.
func (t Theme) ProgressGradient() []string {
	return []string{string(t.colors.Primary), string(t.colors.Accent)}
}

func defaultIconSet() IconSet {
	if isLimitedTerminal() {
		return maps.Clone(asciiIcons)
	}
	return maps.Clone(emojiIcons)
}

// isLimitedTerminal reports environments that render emoji poorly.
func isLimitedTerminal() bool {
	if os.Getenv("SSH_CLIENT") != "" || os.Getenv("SSH_TTY") != "" || os.Getenv("SSH_CONNECTION") != "" {
		return true
	}
	return runtime.GOOS == "windows"
}

var emojiIcons = IconSet{
	"playlist": "📜",
	"series":   "📺",
	"episode":  "🎬",
	"search":   "🔎",
	"link":     "🔗",
	"skip":     "⏭",
	"success":  "✅",
	"error":    "❌",
	"stats":    "📊",
	"save":     "💾",
}

var asciiIcons = IconSet{
	"playlist": "[P]",
	"series":   "[TV]",
	"episode":  "[E]",
	"search":   "[?]",
	"link":     "[->]",
	"skip":     "[-]",
	"success":  "[v]",
	"error":    "[!]",
	"stats":    "[#]",
	"save":     "[S]",
}
