package ui

import (
	"fmt"
	"log"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/stall/internal/auth"
	"github.com/five82/stall/internal/market"
)

// cartState holds the signed-in buyer's cart.
type cartState struct {
	buyer    string
	entries  []market.CartEntry
	loading  bool
	loaded   bool
	stale    bool
	err      error
	selected int
}

type cartLoadedMsg struct {
	buyer   string
	entries []market.CartEntry
	err     error
}

// loadCart fetches the cart of the signed-in buyer.
func (m *Model) loadCart() tea.Cmd {
	s, err := auth.RequireSession(m.watcher)
	if err != nil || m.client == nil {
		return nil
	}
	if m.cart.buyer != s.Email {
		m.cart = cartState{buyer: s.Email}
	}
	m.cart.loading = true
	client := m.client
	buyer := s.Email
	ctx, cancel := m.requestContext()
	return func() tea.Msg {
		defer cancel()
		entries, err := client.FetchCart(ctx, buyer)
		return cartLoadedMsg{buyer: buyer, entries: entries, err: err}
	}
}

func (m *Model) handleCartLoaded(msg cartLoadedMsg) {
	if msg.buyer != m.cart.buyer {
		return
	}
	m.cart.loading = false
	m.cart.err = msg.err
	if msg.err != nil {
		log.Printf("load cart: %v", msg.err)
		return
	}
	m.cart.entries = msg.entries
	m.cart.loaded = true
	m.cart.stale = false
	m.cart.selected = clampIndex(m.cart.selected, len(msg.entries))
}

// handleCartKey processes keyboard input for the cart view.
func (m Model) handleCartKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.cart.selected = moveCursor(m.keys, msg, m.cart.selected, len(m.cart.entries), m.contentHeight()-4)
	return m, nil
}

// renderCart renders the cart entries and their total.
func (m Model) renderCart() string {
	styles := m.theme.Styles()
	width := m.width - 2
	title := "Cart"
	if m.cart.buyer != "" {
		title = "Cart of " + m.cart.buyer
	}

	var b strings.Builder
	switch {
	case m.cart.loading && !m.cart.loaded:
		b.WriteString(styles.WarningText.Render("Loading cart..."))
	case m.cart.err != nil:
		b.WriteString(styles.DangerText.Render("Could not load cart: " + m.cart.err.Error()))
	case len(m.cart.entries) == 0:
		b.WriteString(styles.MutedText.Render("Your cart is empty"))
	default:
		b.WriteString(m.cartRows(width))
		b.WriteString("\n\n")
		b.WriteString(styles.MutedText.Render(fmt.Sprintf("%d entries   Total ", len(m.cart.entries))))
		b.WriteString(styles.SuccessText.Render(formatTotal(market.CartTotal(m.cart.entries))))
	}
	if m.cart.stale {
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("r to reload"))
	}
	return m.renderBox(title, b.String(), m.width, m.contentHeight(), true)
}

func (m Model) cartRows(width int) string {
	styles := m.theme.Styles()
	height := max(m.contentHeight()-6, 1)
	entries := m.cart.entries

	start := 0
	if m.cart.selected >= height {
		start = m.cart.selected - height + 1
	}
	end := min(start+height, len(entries))

	titleW := max(width-36, 8)
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		e := entries[i]
		row := padRight(truncate(e.Title, titleW), titleW) + " " +
			padRight(fmt.Sprintf("%d x %s", e.Quantity.Int(), formatPrice(e.Price)), 20) +
			formatTotal(e.TotalPrice)
		if i == m.cart.selected {
			lines = append(lines, styles.Selected.Render(padRight(row, width-2)))
		} else {
			lines = append(lines, styles.Text.Render(row))
		}
	}
	return strings.Join(lines, "\n")
}
