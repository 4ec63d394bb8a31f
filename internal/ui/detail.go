package ui

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/stall/internal/auth"
	"github.com/five82/stall/internal/market"
)

// detailState holds the item page: the listing, the order quantity and a
// scrollable body.
type detailState struct {
	item     market.Item
	loading  bool
	err      error
	qty      int
	adding   bool
	viewport viewport.Model

	// md renders the full description as Markdown at mdWidth columns.
	md      *glamour.TermRenderer
	mdWidth int
}

type itemLoadedMsg struct {
	id   string
	item market.Item
	err  error
}

type cartAddedMsg struct {
	entry market.CartEntry
	err   error
}

// openDetail shows it immediately and refreshes it from the backend.
func (m Model) openDetail(it market.Item) (tea.Model, tea.Cmd) {
	if m.currentView != ViewDetail {
		m.prevView = m.currentView
	}
	m.currentView = ViewDetail
	m.detail = detailState{
		item:     it,
		qty:      1,
		viewport: m.detail.viewport,
		md:       m.detail.md,
		mdWidth:  m.detail.mdWidth,
	}
	m.updateDetailViewport()
	cmd := m.loadItem(it.ID)
	return m, cmd
}

// loadItem fetches one listing by id.
func (m *Model) loadItem(id string) tea.Cmd {
	if m.client == nil || id == "" {
		return nil
	}
	m.detail.loading = true
	client := m.client
	ctx, cancel := m.requestContext()
	return func() tea.Msg {
		defer cancel()
		it, err := client.FetchItem(ctx, id)
		return itemLoadedMsg{id: id, item: it, err: err}
	}
}

func (m *Model) handleItemLoaded(msg itemLoadedMsg) {
	if msg.id != m.detail.item.ID {
		return
	}
	m.detail.loading = false
	m.detail.err = msg.err
	if msg.err != nil {
		if errors.Is(msg.err, market.ErrNotFound) && m.store != nil {
			m.store.Remove(msg.id)
		}
		log.Printf("load item %s: %v", msg.id, msg.err)
	} else {
		m.detail.item = msg.item
		m.detail.qty = clampQty(m.detail.qty, msg.item.Quantity.Int())
	}
	m.updateDetailViewport()
}

// handleDetailKey processes keyboard input for the item page.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	it := m.detail.item
	switch {
	case key.Matches(msg, m.keys.QtyUp):
		m.detail.qty = clampQty(m.detail.qty+1, it.Quantity.Int())
		m.updateDetailViewport()
		return m, nil
	case key.Matches(msg, m.keys.QtyDown):
		m.detail.qty = clampQty(m.detail.qty-1, it.Quantity.Int())
		m.updateDetailViewport()
		return m, nil
	case key.Matches(msg, m.keys.AddToBag):
		return m.addToCart()
	case key.Matches(msg, m.keys.Copy):
		return m, m.copyCmd(it.ID)
	case key.Matches(msg, m.keys.Edit):
		if it.OwnedBy(m.watcher.Email()) {
			return m.openEditForm(it)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detail.viewport, cmd = m.detail.viewport.Update(msg)
	return m, cmd
}

// addToCart posts the chosen quantity for the signed-in buyer.
func (m Model) addToCart() (tea.Model, tea.Cmd) {
	if m.detail.adding {
		return m, nil
	}
	s, err := auth.RequireSession(m.watcher)
	if err != nil {
		m.setError("Sign in to add items to your cart")
		return m.openLogin(ViewDetail)
	}
	it := m.detail.item
	if err := it.CheckQuantity(m.detail.qty); err != nil {
		m.setError(err.Error())
		return m, nil
	}
	if m.client == nil {
		return m, nil
	}

	entry := market.NewCartEntry(it, s.Email, m.detail.qty)
	m.detail.adding = true
	client := m.client
	ctx, cancel := m.requestContext()
	return m, func() tea.Msg {
		defer cancel()
		return cartAddedMsg{entry: entry, err: client.AddToCart(ctx, entry)}
	}
}

func (m Model) handleCartAdded(msg cartAddedMsg) (tea.Model, tea.Cmd) {
	m.detail.adding = false
	if msg.err != nil {
		log.Printf("add to cart %s: %v", msg.entry.ItemID, msg.err)
		m.setError("Add to cart failed: " + msg.err.Error())
		return m, nil
	}
	log.Printf("added %d x %s to cart of %s", msg.entry.Quantity.Int(), msg.entry.ItemID, msg.entry.BuyerEmail)
	m.setFlash(fmt.Sprintf("Added %d x %s to cart", msg.entry.Quantity.Int(), msg.entry.Title))
	m.cart.stale = true
	return m, nil
}

// clampQty keeps an order quantity within 1..stock, or 0 when sold out.
func clampQty(q, stock int) int {
	if stock <= 0 {
		return 0
	}
	return max(1, min(q, stock))
}

// updateDetailViewport sizes the body viewport and refreshes its content.
func (m *Model) updateDetailViewport() {
	if m.width == 0 {
		return
	}
	w := max(m.width-4, 10)
	// Box borders plus the order line.
	h := max(m.contentHeight()-4, 1)
	if m.detail.viewport.Width == 0 {
		m.detail.viewport = viewport.New(w, h)
	}
	m.detail.viewport.Width = w
	m.detail.viewport.Height = h
	md := m.markdownRenderer(w)
	m.detail.viewport.SetContent(m.detailBody(w, md))
}

// markdownRenderer returns a renderer wrapping at width, reusing the last
// one when the width is unchanged. It returns nil if glamour fails.
func (m *Model) markdownRenderer(width int) *glamour.TermRenderer {
	if m.detail.md != nil && m.detail.mdWidth == width {
		return m.detail.md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		log.Printf("markdown renderer: %v", err)
		return nil
	}
	m.detail.md = r
	m.detail.mdWidth = width
	return r
}

// detailBody renders the listing fields. The full description is Markdown
// when md is set and plain wrapped text otherwise.
func (m Model) detailBody(width int, md *glamour.TermRenderer) string {
	styles := m.theme.Styles()
	it := m.detail.item
	wrap := lipgloss.NewStyle().Width(width)
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Muted)).Width(12)

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(it.Title))
	if badge := stockBadge(it); badge != "" {
		b.WriteString(" " + styles.BadgeStyle(badge).Render(badge))
	}
	b.WriteString("\n\n")

	rows := []struct{ k, v string }{
		{"Price", formatPrice(it.Price)},
		{"In stock", fmt.Sprintf("%d", it.Quantity.Int())},
		{"Location", it.Location},
		{"Posted", it.Date},
		{"Seller", it.OwnerEmail},
		{"Image", it.Image},
		{"ID", it.ID},
	}
	for _, r := range rows {
		if r.v == "" {
			continue
		}
		b.WriteString(label.Render(r.k))
		b.WriteString(styles.Text.Render(r.v))
		b.WriteString("\n")
	}

	if it.Short != "" {
		b.WriteString("\n")
		b.WriteString(wrap.Render(styles.AccentText.Render(it.Short)))
		b.WriteString("\n")
	}
	if it.Full != "" {
		b.WriteString("\n")
		b.WriteString(renderDescription(it.Full, wrap, md))
		b.WriteString("\n")
	}
	return b.String()
}

func renderDescription(text string, wrap lipgloss.Style, md *glamour.TermRenderer) string {
	if md != nil {
		if out, err := md.Render(text); err == nil {
			return strings.Trim(out, "\n")
		}
	}
	return wrap.Render(text)
}

// renderDetail renders the item page.
func (m Model) renderDetail() string {
	styles := m.theme.Styles()
	title := "Item"
	switch {
	case m.detail.loading:
		title = "Item (refreshing)"
	case m.detail.err != nil:
		title = "Item (" + truncate(m.detail.err.Error(), 40) + ")"
	}

	var order string
	switch stock := m.detail.item.Quantity.Int(); {
	case stock <= 0:
		order = styles.DangerText.Render("Sold out")
	case m.detail.adding:
		order = styles.WarningText.Render("Adding to cart...")
	default:
		order = styles.MutedText.Render("Quantity ") +
			styles.AccentText.Render(fmt.Sprintf("- %d +", m.detail.qty)) +
			styles.MutedText.Render(fmt.Sprintf("  of %d   ", stock)) +
			styles.AccentText.Render("enter") + styles.MutedText.Render(" add to cart")
	}

	content := m.detail.viewport.View() + "\n" + order
	return m.renderBox(title, content, m.width, m.contentHeight(), true)
}
