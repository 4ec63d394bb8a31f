package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the resolved colors the views draw with.
type Theme struct {
	Name string

	Background string // behind overlays
	Surface    string // header, command bar and footer
	FocusBg    string // title bar of the focused box

	SelectionBg   string
	SelectionText string

	Border      string
	BorderFocus string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// BadgeColors maps a badge label to its background.
	BadgeColors map[string]string
}

// palette is the small set of colors a theme is derived from.
type palette struct {
	bg, surface, raised      string
	selection, selectionText string
	border, accent           string
	text, muted, faint       string
	green, yellow, red, cyan string
	orange, violet           string
}

func newTheme(name string, p palette) Theme {
	return Theme{
		Name:          name,
		Background:    p.bg,
		Surface:       p.surface,
		FocusBg:       p.raised,
		SelectionBg:   p.selection,
		SelectionText: p.selectionText,
		Border:        p.border,
		BorderFocus:   p.accent,
		Text:          p.text,
		Muted:         p.muted,
		Faint:         p.faint,
		Accent:        p.accent,
		Success:       p.green,
		Warning:       p.yellow,
		Danger:        p.red,
		Info:          p.cyan,
		BadgeColors: map[string]string{
			badgeSearching: p.cyan,
			badgeSettled:   p.green,
			badgeCached:    p.yellow,
			badgeOffline:   p.red,
			badgeSoldOut:   p.faint,
			badgeLowStock:  p.orange,
			badgeYours:     p.violet,
		},
	}
}

// Badge labels shown next to listings and in the header.
const (
	badgeSearching = "searching"
	badgeSettled   = "settled"
	badgeCached    = "cached"
	badgeOffline   = "offline"
	badgeSoldOut   = "sold out"
	badgeLowStock  = "low stock"
	badgeYours     = "yours"
)

// Styles are the Lip Gloss styles built from a Theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header   lipgloss.Style
	Footer   lipgloss.Style
	Logo     lipgloss.Style
	Selected lipgloss.Style

	badgeColors   map[string]string
	badgeText     string
	badgeFallback string
}

// Styles builds the styles for t.
func (t Theme) Styles() Styles {
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	bar := lipgloss.NewStyle().
		Background(lipgloss.Color(t.Surface)).
		Padding(0, 1)

	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),

		Header: bar.Foreground(lipgloss.Color(t.Text)),
		Footer: bar.Foreground(lipgloss.Color(t.Muted)),
		Logo:   fg(t.Warning).Bold(true),
		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.SelectionText)),

		badgeColors:   t.BadgeColors,
		badgeText:     t.Background,
		badgeFallback: t.Muted,
	}
}

// BadgeStyle returns the pill style for a badge label. Unknown labels use
// the muted color.
func (s Styles) BadgeStyle(label string) lipgloss.Style {
	color, ok := s.badgeColors[label]
	if !ok {
		color = s.badgeFallback
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.badgeText)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

// WithBackground returns a copy whose text styles paint bgColor behind
// them, for text drawn on bars instead of the terminal background.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	out := s
	for _, st := range []*lipgloss.Style{
		&out.Text, &out.MutedText, &out.FaintText, &out.AccentText,
		&out.SuccessText, &out.WarningText, &out.DangerText, &out.InfoText,
		&out.Header, &out.Footer, &out.Logo,
	} {
		*st = st.Background(bg)
	}
	return out
}

var themeOrder = []string{"Nightfox", "Kanagawa", "Slate"}

var themes = map[string]Theme{
	// https://github.com/EdenEast/nightfox.nvim
	"Nightfox": newTheme("Nightfox", palette{
		bg: "#131a24", surface: "#192330", raised: "#29394f",
		selection: "#2b3b51", selectionText: "#cdcecf",
		border: "#39506d", accent: "#719cd6",
		text: "#cdcecf", muted: "#738091", faint: "#71839b",
		green: "#81b29a", yellow: "#dbc074", red: "#c94f6d", cyan: "#63cdcf",
		orange: "#f4a261", violet: "#9d79d6",
	}),
	// https://github.com/rebelot/kanagawa.nvim
	"Kanagawa": newTheme("Kanagawa", palette{
		bg: "#16161D", surface: "#1F1F28", raised: "#2A2A37",
		selection: "#2D4F67", selectionText: "#DCD7BA",
		border: "#54546D", accent: "#7E9CD8",
		text: "#DCD7BA", muted: "#C8C093", faint: "#727169",
		green: "#98BB6C", yellow: "#E6C384", red: "#E46876", cyan: "#7FB4CA",
		orange: "#FFA066", violet: "#957FB8",
	}),
	// Tailwind slate with sky accents.
	"Slate": newTheme("Slate", palette{
		bg: "#020617", surface: "#0f172a", raised: "#283548",
		selection: "#0284c7", selectionText: "#f8fafc",
		border: "#334155", accent: "#38bdf8",
		text: "#f1f5f9", muted: "#94a3b8", faint: "#64748b",
		green: "#22c55e", yellow: "#f59e0b", red: "#dc2626", cyan: "#06b6d4",
		orange: "#fb923c", violet: "#a78bfa",
	}),
}

// GetTheme returns a theme by name, or Nightfox.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[themeOrder[0]]
}

// NextTheme returns the theme after current in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns the theme names in cycle order.
func ThemeNames() []string {
	return themeOrder
}
