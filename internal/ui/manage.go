package ui

import (
	"errors"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/stall/internal/market"
)

// manageState holds the cursor over the signed-in user's own listings.
type manageState struct {
	selected int
}

func (s *manageState) clamp(n int) {
	s.selected = clampIndex(s.selected, n)
}

type itemDeletedMsg struct {
	id    string
	title string
	err   error
}

// ownedItems filters the current listings by the signed-in email.
func (m Model) ownedItems() []market.Item {
	return market.Owned(m.snapshot.Items, m.watcher.Email())
}

// handleManageKey processes keyboard input for the owner's listings.
func (m Model) handleManageKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.ownedItems()
	var sel market.Item
	ok := m.manage.selected < len(items)
	if ok {
		sel = items[m.manage.selected]
	}

	switch {
	case key.Matches(msg, m.keys.Edit):
		if ok {
			return m.openEditForm(sel)
		}
		return m, nil
	case key.Matches(msg, m.keys.Delete):
		if ok {
			m.modal = confirmModal{
				title: "Delete item",
				body:  `Delete "` + sel.Title + `"? This cannot be undone.`,
				onConfirm: func() tea.Cmd {
					return m.deleteItemCmd(sel)
				},
			}
		}
		return m, nil
	case key.Matches(msg, m.keys.Open):
		if ok {
			return m.openDetail(sel)
		}
		return m, nil
	case key.Matches(msg, m.keys.Copy):
		if ok {
			return m, m.copyCmd(sel.ID)
		}
		return m, nil
	}

	m.manage.selected = moveCursor(m.keys, msg, m.manage.selected, len(items), m.contentHeight()-3)
	return m, nil
}

// deleteItemCmd removes it from the backend.
func (m Model) deleteItemCmd(it market.Item) tea.Cmd {
	if m.client == nil {
		return nil
	}
	client := m.client
	ctx, cancel := m.requestContext()
	return func() tea.Msg {
		defer cancel()
		return itemDeletedMsg{id: it.ID, title: it.Title, err: client.DeleteItem(ctx, it.ID)}
	}
}

func (m Model) handleItemDeleted(msg itemDeletedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil && !errors.Is(msg.err, market.ErrNotFound) {
		log.Printf("delete item %s: %v", msg.id, msg.err)
		m.setError("Delete failed: " + msg.err.Error())
		return m, nil
	}
	log.Printf("deleted item %s", msg.id)
	if m.store != nil {
		m.store.Remove(msg.id)
	}
	m.setFlash(`Deleted "` + msg.title + `"`)
	if m.currentView == ViewDetail && m.detail.item.ID == msg.id {
		m.currentView = ViewManage
	}
	if m.store == nil {
		return m, nil
	}
	return m, fetchSnapshotCmd(m.store)
}

// renderManage renders the signed-in user's listings.
func (m Model) renderManage() string {
	styles := m.theme.Styles()
	items := m.ownedItems()
	title := "My Items"
	if email := m.watcher.Email(); email != "" {
		title = "Items posted by " + email
	}

	var b strings.Builder
	if len(items) == 0 {
		b.WriteString(styles.MutedText.Render("You have not posted any items. Press a to add one."))
	} else {
		b.WriteString(m.listingRows(items, m.manage.selected, m.width-2, m.contentHeight()-3))
	}
	return m.renderBox(title, b.String(), m.width, m.contentHeight(), true)
}
