package ui

import (
	"errors"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/stall/internal/auth"
)

const (
	loginEmail = iota
	loginPassword
)

// loginForm signs a user in or registers a new account. after is the view
// to show once signed in.
type loginForm struct {
	inputs   []textinput.Model
	focus    int
	register bool
	busy     bool
	err      string
	after    View
}

type signedInMsg struct {
	session  auth.Session
	register bool
	err      error
}

func newLoginForm(email string) loginForm {
	emailInput := textinput.New()
	emailInput.Prompt = ""
	emailInput.Placeholder = "you@example.com"
	emailInput.CharLimit = 254
	emailInput.SetValue(email)

	password := textinput.New()
	password.Prompt = ""
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return loginForm{inputs: []textinput.Model{emailInput, password}}
}

// openLogin shows the sign-in form, returning to after on success.
func (m Model) openLogin(after View) (tea.Model, tea.Cmd) {
	if m.currentView != ViewLogin {
		m.prevView = m.currentView
	}
	m.currentView = ViewLogin
	m.login.after = after
	m.login.busy = false
	m.login.err = ""
	m.login.inputs[loginPassword].SetValue("")
	if m.login.inputs[loginEmail].Value() == "" {
		m.login.inputs[loginEmail].SetValue(m.lastEmail())
	}

	target := loginEmail
	if m.login.inputs[loginEmail].Value() != "" {
		target = loginPassword
	}
	for i := range m.login.inputs {
		m.login.inputs[i].Blur()
	}
	m.login.focus = target
	cmd := m.login.inputs[target].Focus()
	return m, cmd
}

// handleLoginKey processes keyboard input on the sign-in form.
func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.login.busy {
		return m, nil
	}

	switch {
	case msg.Type == tea.KeyEsc:
		target := m.prevView
		if target == ViewLogin || requiresSession(target) {
			target = ViewBrowse
		}
		m.currentView = target
		return m, nil
	case key.Matches(msg, m.keys.ToggleMode):
		m.login.register = !m.login.register
		m.login.err = ""
		return m, nil
	case msg.Type == tea.KeyEnter && m.login.focus == loginEmail:
		cmd := m.login.focusField(loginPassword)
		return m, cmd
	case key.Matches(msg, m.keys.Submit):
		return m.submitLogin()
	case key.Matches(msg, m.keys.NextField):
		cmd := m.login.focusField(m.login.focus + 1)
		return m, cmd
	case key.Matches(msg, m.keys.PrevField):
		cmd := m.login.focusField(m.login.focus - 1)
		return m, cmd
	}

	var cmd tea.Cmd
	m.login.inputs[m.login.focus], cmd = m.login.inputs[m.login.focus].Update(msg)
	return m, cmd
}

func (f *loginForm) focusField(i int) tea.Cmd {
	n := len(f.inputs)
	i = ((i % n) + n) % n
	f.inputs[f.focus].Blur()
	f.focus = i
	return f.inputs[i].Focus()
}

// submitLogin sends the credentials to the identity provider.
func (m Model) submitLogin() (tea.Model, tea.Cmd) {
	email := strings.TrimSpace(m.login.inputs[loginEmail].Value())
	password := m.login.inputs[loginPassword].Value()
	switch {
	case email == "":
		m.login.err = "email is required"
		return m, nil
	case password == "":
		m.login.err = "password is required"
		return m, nil
	case m.identity == nil:
		m.login.err = "sign-in is not configured"
		return m, nil
	}

	m.login.busy = true
	m.login.err = ""
	provider := m.identity
	register := m.login.register
	ctx, cancel := m.requestContext()
	return m, func() tea.Msg {
		defer cancel()
		var (
			s   auth.Session
			err error
		)
		if register {
			s, err = provider.SignUp(ctx, email, password)
		} else {
			s, err = provider.SignIn(ctx, email, password)
		}
		return signedInMsg{session: s, register: register, err: err}
	}
}

func (m Model) handleSignedIn(msg signedInMsg) (tea.Model, tea.Cmd) {
	m.login.busy = false
	if msg.err != nil {
		log.Printf("sign in: %v", msg.err)
		m.login.err = loginErrorText(msg.err)
		return m, nil
	}

	m.watcher.Set(msg.session)
	m.login.inputs[loginPassword].SetValue("")
	m.login.err = ""
	m.cart = cartState{}
	m.savePrefs()
	log.Printf("signed in as %s", msg.session.Email)
	if msg.register {
		m.setFlash("Welcome, " + msg.session.Email)
	} else {
		m.setFlash("Signed in as " + msg.session.Email)
	}

	switch m.login.after {
	case ViewForm:
		if m.form.editing() {
			m.currentView = ViewForm
			return m, textinput.Blink
		}
		return m.openAddForm()
	case ViewDetail:
		m.currentView = ViewDetail
		return m, nil
	case ViewLogin:
		return m.switchView(ViewBrowse)
	}
	return m.switchView(m.login.after)
}

// loginErrorText maps provider errors to a message for the form.
func loginErrorText(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, auth.ErrEmailExists):
		return "An account with this email already exists"
	case errors.Is(err, auth.ErrWeakPassword):
		return "Password should be at least 6 characters"
	default:
		return err.Error()
	}
}

// renderLogin renders the sign-in form.
func (m Model) renderLogin() string {
	styles := m.theme.Styles()
	title := "Sign in"
	if m.login.register {
		title = "Create account"
	}
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Muted)).Width(12)
	focusLabel := label.Foreground(lipgloss.Color(m.theme.Accent)).Bold(true)
	labels := []string{"Email", "Password"}

	var b strings.Builder
	for i, in := range m.login.inputs {
		l := label
		if i == m.login.focus {
			l = focusLabel
		}
		b.WriteString(l.Render(labels[i]))
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	switch {
	case m.login.busy:
		b.WriteString(styles.WarningText.Render("Contacting identity provider..."))
	case m.login.err != "":
		b.WriteString(styles.DangerText.Render(m.login.err))
	default:
		hint := "enter submit  ctrl+n create account  esc cancel"
		if m.login.register {
			hint = "enter submit  ctrl+n sign in instead  esc cancel"
		}
		b.WriteString(styles.FaintText.Render(hint))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		Padding(1, 2).
		Width(min(64, max(m.width-4, 20))).
		Render(styles.AccentText.Bold(true).Render(title) + "\n\n" + b.String())

	return lipgloss.Place(m.width, m.contentHeight(), lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)))
}
