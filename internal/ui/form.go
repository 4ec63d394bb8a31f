package ui

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/stall/internal/auth"
	"github.com/five82/stall/internal/market"
)

// Item form fields, in tab order.
const (
	fieldTitle = iota
	fieldShort
	fieldFull
	fieldPrice
	fieldQuantity
	fieldLocation
	fieldImage
	itemFieldCount
)

var itemFieldLabels = [itemFieldCount]string{
	"Title",
	"Short description",
	"Full description",
	"Price (TK)",
	"Quantity",
	"Location",
	"Image URL",
}

// itemForm is the add and edit form for a listing. original carries the
// listing being edited; its ID is empty when adding.
type itemForm struct {
	inputs   []textinput.Model
	focus    int
	original market.Item
	saving   bool
	err      string
}

type itemSavedMsg struct {
	item    market.Item
	created bool
	err     error
}

func newItemForm(it market.Item) itemForm {
	values := [itemFieldCount]string{
		fieldTitle:    it.Title,
		fieldShort:    it.Short,
		fieldFull:     it.Full,
		fieldLocation: it.Location,
		fieldImage:    it.Image,
	}
	if it.ID != "" {
		values[fieldPrice] = strconv.FormatFloat(float64(it.Price), 'f', -1, 64)
		values[fieldQuantity] = strconv.Itoa(it.Quantity.Int())
	}

	inputs := make([]textinput.Model, itemFieldCount)
	for i := range inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = itemFieldLabels[i]
		ti.CharLimit = 500
		ti.SetValue(values[i])
		inputs[i] = ti
	}
	inputs[fieldTitle].CharLimit = 120
	inputs[fieldPrice].CharLimit = 16
	inputs[fieldQuantity].CharLimit = 8
	inputs[0].Focus()
	return itemForm{inputs: inputs, original: it}
}

func (f itemForm) editing() bool {
	return f.original.ID != ""
}

func (f itemForm) values() []string {
	out := make([]string, len(f.inputs))
	for i, in := range f.inputs {
		out[i] = in.Value()
	}
	return out
}

// validateItemForm checks the form values and returns the listing fields
// they describe. Title is required, price is a non-negative number and
// quantity a non-negative whole number.
func validateItemForm(values []string) (market.Item, error) {
	if len(values) != itemFieldCount {
		return market.Item{}, fmt.Errorf("expected %d fields, got %d", itemFieldCount, len(values))
	}
	for i := range values {
		values[i] = strings.TrimSpace(values[i])
	}

	if values[fieldTitle] == "" {
		return market.Item{}, errors.New("title is required")
	}

	if values[fieldPrice] == "" {
		return market.Item{}, errors.New("price is required")
	}
	price, err := strconv.ParseFloat(values[fieldPrice], 64)
	if err != nil {
		return market.Item{}, fmt.Errorf("price %q is not a number", values[fieldPrice])
	}
	if price < 0 {
		return market.Item{}, errors.New("price must not be negative")
	}

	if values[fieldQuantity] == "" {
		return market.Item{}, errors.New("quantity is required")
	}
	qty, err := strconv.Atoi(values[fieldQuantity])
	if err != nil {
		return market.Item{}, fmt.Errorf("quantity %q is not a whole number", values[fieldQuantity])
	}
	if qty < 0 {
		return market.Item{}, errors.New("quantity must not be negative")
	}

	return market.Item{
		Title:    values[fieldTitle],
		Short:    values[fieldShort],
		Full:     values[fieldFull],
		Price:    market.Number(price),
		Quantity: market.Number(qty),
		Location: values[fieldLocation],
		Image:    values[fieldImage],
	}, nil
}

// openAddForm starts a blank listing.
func (m Model) openAddForm() (tea.Model, tea.Cmd) {
	if _, err := auth.RequireSession(m.watcher); err != nil {
		m.setError("Sign in to post items")
		return m.openLogin(ViewForm)
	}
	return m.showForm(newItemForm(market.Item{}))
}

// openEditForm starts an edit of the owner's listing.
func (m Model) openEditForm(it market.Item) (tea.Model, tea.Cmd) {
	s, err := auth.RequireSession(m.watcher)
	if err != nil {
		return m.openLogin(m.currentView)
	}
	if !it.OwnedBy(s.Email) {
		m.setError("Only the seller can edit this item")
		return m, nil
	}
	return m.showForm(newItemForm(it))
}

func (m Model) showForm(f itemForm) (tea.Model, tea.Cmd) {
	if m.currentView != ViewForm {
		m.prevView = m.currentView
	}
	m.currentView = ViewForm
	m.form = f
	return m, textinput.Blink
}

// handleFormKey processes keyboard input while the item form is open.
func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form.saving {
		return m, nil
	}
	last := len(m.form.inputs) - 1

	switch {
	case msg.Type == tea.KeyEsc:
		target := m.prevView
		if target == ViewForm || target == ViewLogin {
			target = ViewBrowse
		}
		m.currentView = target
		return m, nil
	case msg.Type == tea.KeyEnter && m.form.focus < last:
		cmd := m.form.focusField(m.form.focus + 1)
		return m, cmd
	case key.Matches(msg, m.keys.Submit):
		return m.submitForm()
	case key.Matches(msg, m.keys.NextField):
		cmd := m.form.focusField(m.form.focus + 1)
		return m, cmd
	case key.Matches(msg, m.keys.PrevField):
		cmd := m.form.focusField(m.form.focus - 1)
		return m, cmd
	}

	var cmd tea.Cmd
	m.form.inputs[m.form.focus], cmd = m.form.inputs[m.form.focus].Update(msg)
	return m, cmd
}

// focusField moves focus to field i, wrapping around.
func (f *itemForm) focusField(i int) tea.Cmd {
	n := len(f.inputs)
	i = ((i % n) + n) % n
	f.inputs[f.focus].Blur()
	f.focus = i
	return f.inputs[i].Focus()
}

// submitForm validates the form and posts or patches the listing.
func (m Model) submitForm() (tea.Model, tea.Cmd) {
	s, err := auth.RequireSession(m.watcher)
	if err != nil {
		m.setError("Session expired, sign in again")
		return m.openLogin(ViewForm)
	}
	fields, err := validateItemForm(m.form.values())
	if err != nil {
		m.form.err = err.Error()
		return m, nil
	}
	m.form.err = ""
	if m.client == nil {
		return m, nil
	}

	m.form.saving = true
	client := m.client
	ctx, cancel := m.requestContext()

	if m.form.editing() {
		orig := m.form.original
		update := market.UpdateFor(fields)
		return m, func() tea.Msg {
			defer cancel()
			err := client.UpdateItem(ctx, orig.ID, update)
			return itemSavedMsg{item: update.Apply(orig), err: err}
		}
	}

	item := fields
	item.Date = m.now().Format(market.DateLayout)
	item.OwnerEmail = s.Email
	return m, func() tea.Msg {
		defer cancel()
		id, err := client.CreateItem(ctx, item)
		item.ID = id
		return itemSavedMsg{item: item, created: true, err: err}
	}
}

func (m Model) handleItemSaved(msg itemSavedMsg) (tea.Model, tea.Cmd) {
	m.form.saving = false
	switch {
	case errors.Is(msg.err, market.ErrNotModified):
		m.setFlash("No changes to save")
	case msg.err != nil:
		log.Printf("save item %q: %v", msg.item.Title, msg.err)
		m.form.err = msg.err.Error()
		return m, nil
	case msg.created:
		log.Printf("created item %s", msg.item.ID)
		m.setFlash(`Posted "` + msg.item.Title + `"`)
	default:
		log.Printf("updated item %s", msg.item.ID)
		m.setFlash(`Saved "` + msg.item.Title + `"`)
	}

	if m.store != nil && msg.err == nil {
		m.store.Upsert(msg.item)
	}
	if m.detail.item.ID == msg.item.ID && msg.err == nil {
		m.detail.item = msg.item
		m.updateDetailViewport()
	}
	m.currentView = ViewManage
	if m.store == nil {
		return m, nil
	}
	return m, fetchSnapshotCmd(m.store)
}

// renderForm renders the item form.
func (m Model) renderForm() string {
	styles := m.theme.Styles()
	title := "Add Item"
	if m.form.editing() {
		title = "Edit " + m.form.original.Title
	}
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Muted)).Width(20)
	focusLabel := label.Foreground(lipgloss.Color(m.theme.Accent)).Bold(true)

	var b strings.Builder
	for i, in := range m.form.inputs {
		l := label
		if i == m.form.focus {
			l = focusLabel
		}
		b.WriteString(l.Render(itemFieldLabels[i]))
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	switch {
	case m.form.saving:
		b.WriteString(styles.WarningText.Render("Saving..."))
	case m.form.err != "":
		b.WriteString(styles.DangerText.Render(m.form.err))
	default:
		b.WriteString(styles.FaintText.Render("tab next field  ctrl+s save  esc cancel"))
	}
	return m.renderBox(title, b.String(), m.width, m.contentHeight(), true)
}
