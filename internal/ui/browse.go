package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/stall/internal/market"
	"github.com/five82/stall/internal/search"
)

// browseState holds the listing view: search box, filtered view and cursor.
type browseState struct {
	input   textinput.Model
	typing  bool
	spinner spinner.Model

	view     search.View[market.Item]
	hasView  bool
	selected int

	// loaded is set once the store delivered listings; generation is the
	// last snapshot generation handed to the search controller.
	loaded     bool
	generation uint64
}

func newBrowseState() browseState {
	ti := textinput.New()
	ti.Placeholder = "Search by title..."
	ti.Prompt = "/ "
	ti.CharLimit = 100

	s := spinner.New()
	s.Spinner = spinner.Dot

	return browseState{input: ti, spinner: s}
}

// busy reports whether the spinner should animate.
func (b browseState) busy() bool {
	return !b.loaded || b.view.Phase.Busy()
}

// applySearchView installs v unless a newer view is already shown.
func (m *Model) applySearchView(v search.View[market.Item]) {
	if m.browse.hasView && v.Revision <= m.browse.view.Revision {
		return
	}
	m.browse.view = v
	m.browse.hasView = true
	m.browse.selected = clampIndex(m.browse.selected, len(v.Visible))
}

// handleSpinnerTick advances the spinner while something is loading.
func (m Model) handleSpinnerTick(msg spinner.TickMsg) (tea.Model, tea.Cmd) {
	if !m.browse.busy() {
		return m, nil
	}
	var cmd tea.Cmd
	m.browse.spinner, cmd = m.browse.spinner.Update(msg)
	return m, cmd
}

// handleSearchInput feeds keystrokes to the search box.
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.browse.typing = false
		m.browse.input.Blur()
		m.browse.input.SetValue("")
		cmd := m.setQuery("")
		return m, cmd
	case tea.KeyEnter:
		m.browse.typing = false
		m.browse.input.Blur()
		return m, nil
	case tea.KeyUp, tea.KeyDown:
		m.browse.typing = false
		m.browse.input.Blur()
		return m.handleBrowseKey(msg)
	}

	before := m.browse.input.Value()
	var cmd tea.Cmd
	m.browse.input, cmd = m.browse.input.Update(msg)
	if after := m.browse.input.Value(); after != before {
		queryCmd := m.setQuery(after)
		return m, tea.Batch(cmd, queryCmd)
	}
	return m, cmd
}

// setQuery hands q to the search controller and shows its immediate view.
// Later transitions arrive as searchMsg.
func (m *Model) setQuery(q string) tea.Cmd {
	wasBusy := m.browse.busy()
	m.search.SetQuery(q)
	m.applySearchView(m.search.View())
	return m.startSpinner(wasBusy)
}

// startSpinner restarts the spinner animation when loading just began.
func (m Model) startSpinner(wasBusy bool) tea.Cmd {
	if !wasBusy && m.browse.busy() {
		return m.browse.spinner.Tick
	}
	return nil
}

// handleBrowseKey processes keyboard input for the listing view.
func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.browse.view.Visible

	switch {
	case key.Matches(msg, m.keys.Search):
		m.browse.typing = true
		cmd := m.browse.input.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Open):
		if it, ok := m.selectedBrowseItem(); ok {
			return m.openDetail(it)
		}
		return m, nil
	case key.Matches(msg, m.keys.Copy):
		if it, ok := m.selectedBrowseItem(); ok {
			return m, m.copyCmd(it.ID)
		}
		return m, nil
	}

	m.browse.selected = moveCursor(m.keys, msg, m.browse.selected, len(items), m.listHeight())
	return m, nil
}

func (m Model) selectedBrowseItem() (market.Item, bool) {
	items := m.browse.view.Visible
	if m.browse.view.Phase.Busy() || m.browse.selected < 0 || m.browse.selected >= len(items) {
		return market.Item{}, false
	}
	return items[m.browse.selected], true
}

// browseStatus is the line above the listing.
func (m Model) browseStatus() string {
	v := m.browse.view
	switch {
	case !m.browse.loaded:
		return "Fetching all items..."
	case v.Phase.Busy():
		return "Searching..."
	case len(v.Visible) == 0 && v.Query != "":
		return `No Items Found for "` + v.Query + `"`
	default:
		return fmt.Sprintf("(%d) Items Found", len(v.Visible))
	}
}

// listHeight is the number of rows available to a listing box.
func (m Model) listHeight() int {
	// Box borders plus the search and status lines.
	return max(m.contentHeight()-4, 1)
}

// renderBrowse renders the listing with an optional preview pane.
func (m Model) renderBrowse() string {
	height := m.contentHeight()
	listWidth := m.width
	showPreview := m.width >= LayoutCompactWidth
	if showPreview {
		listWidth = m.width * 3 / 5
	}

	list := m.renderBox("Items", m.browseContent(listWidth-2), listWidth, height, !m.browse.typing)
	if !showPreview {
		return list
	}

	preview := ""
	if it, ok := m.selectedBrowseItem(); ok {
		preview = m.itemSummary(it, m.width-listWidth-4)
	}
	side := m.renderBox("Preview", preview, m.width-listWidth, height, false)
	return lipgloss.JoinHorizontal(lipgloss.Top, list, side)
}

func (m Model) browseContent(width int) string {
	styles := m.theme.Styles()
	var b strings.Builder

	b.WriteString(m.browse.input.View())
	b.WriteString("\n")

	status := m.browseStatus()
	switch {
	case m.browse.busy():
		b.WriteString(m.browse.spinner.View() + " " + styles.WarningText.Render(status))
	case len(m.browse.view.Visible) == 0:
		b.WriteString(styles.MutedText.Render(status))
	default:
		b.WriteString(styles.AccentText.Render(status))
	}

	if m.browse.busy() {
		return b.String()
	}

	rows := m.listingRows(m.browse.view.Visible, m.browse.selected, width, m.listHeight())
	if rows != "" {
		b.WriteString("\n")
		b.WriteString(rows)
	}
	return b.String()
}

// listingRows renders a window of items around the selected row.
func (m Model) listingRows(items []market.Item, selected, width, height int) string {
	if len(items) == 0 || height <= 0 {
		return ""
	}
	styles := m.theme.Styles()
	email := m.watcher.Email()
	wide := m.width >= LayoutWideWidth

	start := 0
	if selected >= height {
		start = selected - height + 1
	}
	end := min(start+height, len(items))

	priceW := 12
	locW := 0
	if wide {
		locW = 16
	}
	titleW := max(width-priceW-locW-14, 8)

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		it := items[i]
		row := padRight(truncate(it.Title, titleW), titleW) + " " +
			padRight(formatPrice(it.Price), priceW)
		if wide {
			row += padRight(truncate(it.Location, locW-1), locW)
		}
		badge := stockBadge(it)
		if badge == "" && it.OwnedBy(email) {
			badge = badgeYours
		}
		if i == selected {
			row = styles.Selected.Render(padRight(row, width-lipgloss.Width(badge)-3))
		} else {
			row = styles.Text.Render(row)
		}
		if badge != "" {
			row += " " + styles.BadgeStyle(badge).Render(badge)
		}
		lines = append(lines, row)
	}
	return strings.Join(lines, "\n")
}

// itemSummary renders the short description block used by the preview.
func (m Model) itemSummary(it market.Item, width int) string {
	styles := m.theme.Styles()
	wrap := lipgloss.NewStyle().Width(max(width, 10))
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(it.Title))
	b.WriteString("\n")
	b.WriteString(styles.AccentText.Render(formatPrice(it.Price)))
	if it.Location != "" {
		b.WriteString(styles.MutedText.Render("  " + it.Location))
	}
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("%d in stock", it.Quantity.Int())))
	b.WriteString("\n\n")
	b.WriteString(wrap.Render(it.Short))
	return b.String()
}

// moveCursor applies the navigation bindings to a list cursor.
func moveCursor(keys keyMap, msg tea.KeyMsg, cur, n, page int) int {
	if n == 0 {
		return 0
	}
	switch {
	case key.Matches(msg, keys.Down):
		cur++
	case key.Matches(msg, keys.Up):
		cur--
	case key.Matches(msg, keys.Top):
		cur = 0
	case key.Matches(msg, keys.Bottom):
		cur = n - 1
	case key.Matches(msg, keys.HalfPageDown):
		cur += max(page/2, 1)
	case key.Matches(msg, keys.HalfPageUp):
		cur -= max(page/2, 1)
	}
	return clampIndex(cur, n)
}

func clampIndex(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
