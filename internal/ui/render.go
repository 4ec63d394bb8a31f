package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/five82/stall/internal/market"
)

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the minimum width to show the location column.
	LayoutWideWidth = 120
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second

	// requestTimeout bounds every API call started from the UI.
	requestTimeout = 10 * time.Second

	// flashDuration is how long a status message stays in the footer.
	flashDuration = 4 * time.Second

	// logBufferLimit is the maximum number of log lines kept in memory.
	logBufferLimit = 2000
)

// BgStyle renders text segments that all share one background color.
// lipgloss resets the background between separately styled segments, so
// spaces between them are styled too.
type BgStyle struct {
	bg    lipgloss.Color
	space string
}

// NewBgStyle creates a background style helper for the given color.
func NewBgStyle(bgColor string) BgStyle {
	bg := lipgloss.Color(bgColor)
	return BgStyle{
		bg:    bg,
		space: lipgloss.NewStyle().Background(bg).Render(" "),
	}
}

// Render renders text with style, keeping the background on every space.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	wordStyle := style.Background(b.bg)
	if !strings.Contains(text, " ") {
		return wordStyle.Render(text)
	}
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = wordStyle.Render(w)
		}
	}
	return strings.Join(words, b.space)
}

// Space returns a single styled space.
func (b BgStyle) Space() string {
	return b.space
}

// Spaces returns n styled spaces.
func (b BgStyle) Spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Background(b.bg).Render(strings.Repeat(" ", n))
}

// Sep returns a styled separator string.
func (b BgStyle) Sep(sep string) string {
	return lipgloss.NewStyle().Background(b.bg).Render(sep)
}

// Join joins parts with a styled separator.
func (b BgStyle) Join(parts []string, sep string) string {
	return strings.Join(parts, b.Sep(sep))
}

// FillLine pads rendered content to width with the background color.
func (b BgStyle) FillLine(content string, width int) string {
	return lipgloss.NewStyle().Background(b.bg).Width(width).Render(content)
}

// renderBox draws a titled, bordered panel of the given outer size.
func (m Model) renderBox(title, content string, width, height int, focused bool) string {
	border := m.theme.Border
	if focused {
		border = m.theme.BorderFocus
	}
	bgColor := m.theme.Surface
	if focused {
		bgColor = m.theme.FocusBg
	}
	innerW := max(width-2, 1)
	innerH := max(height-2, 1)

	body := lipgloss.NewStyle().
		Background(lipgloss.Color(bgColor)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(innerW).
		Height(innerH).
		MaxHeight(innerH).
		Render(content)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		BorderBackground(lipgloss.Color(m.theme.Background)).
		Render(body)

	if title == "" {
		return box
	}
	// Overlay the title on the top border.
	lines := strings.SplitN(box, "\n", 2)
	label := lipgloss.NewStyle().
		Foreground(lipgloss.Color(border)).
		Bold(true).
		Render(" " + truncate(title, innerW-4) + " ")
	top := lipgloss.NewStyle().Foreground(lipgloss.Color(border)).Render("╭─") + label +
		lipgloss.NewStyle().Foreground(lipgloss.Color(border)).
			Render(strings.Repeat("─", max(innerW-1-lipgloss.Width(label), 0))+"╮")
	if len(lines) == 1 {
		return top
	}
	return top + "\n" + lines[1]
}

// truncate shortens s to max display cells, ending with "..." when there
// is room for it. Wide runes count as two cells.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if max <= 3 {
		return runewidth.Truncate(s, max, "")
	}
	return runewidth.Truncate(s, max, "...")
}

// padRight pads s with spaces to width display cells.
func padRight(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// formatPrice renders a listing price the way the storefront shows it.
func formatPrice(n market.Number) string {
	return strconv.FormatFloat(float64(n), 'f', -1, 64) + " TK"
}

// formatTotal renders a cart total with two decimals.
func formatTotal(n market.Number) string {
	return fmt.Sprintf("%.2f TK", float64(n))
}

// stockBadge returns the badge label for an item's stock, or "".
func stockBadge(it market.Item) string {
	switch q := it.Quantity.Int(); {
	case q <= 0:
		return badgeSoldOut
	case q <= 3:
		return badgeLowStock
	default:
		return ""
	}
}

// formatAge renders how long ago t was.
func formatAge(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t)
	switch {
	case d < 5*time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("Jan 2 15:04")
	}
}
