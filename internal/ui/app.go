package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/stall/internal/auth"
	"github.com/five82/stall/internal/config"
	"github.com/five82/stall/internal/logtail"
	"github.com/five82/stall/internal/market"
	"github.com/five82/stall/internal/prefs"
	"github.com/five82/stall/internal/search"
	"github.com/five82/stall/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewBrowse View = iota
	ViewDetail
	ViewCart
	ViewManage
	ViewForm
	ViewLogin
	ViewLogs
)

// tabOrder is the cycle followed by tab and shift+tab.
var tabOrder = []View{ViewBrowse, ViewCart, ViewManage, ViewLogs}

// Market is the backend surface the views call. *market.Client implements it.
type Market interface {
	market.Catalog
	CreateItem(ctx context.Context, item market.Item) (string, error)
	UpdateItem(ctx context.Context, id string, update market.ItemUpdate) error
	DeleteItem(ctx context.Context, id string) error
	AddToCart(ctx context.Context, entry market.CartEntry) error
	FetchCart(ctx context.Context, buyer string) ([]market.CartEntry, error)
}

var _ Market = (*market.Client)(nil)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Client    Market
	Store     *state.Store
	Config    *config.Config
	Watcher   *auth.Watcher
	Identity  auth.Provider
	PollTick  time.Duration
	ThemeName string
	PrefsPath string

	// Copy writes to the system clipboard. Nil uses atotto/clipboard.
	Copy func(string) error
	// SearchScheduler and SearchNow drive the browse search timers. Nil
	// values use wall-clock time.
	SearchScheduler search.Scheduler
	SearchNow       func() time.Time

	// LogChanges signals writes to the log file. Nil polls on the UI tick.
	LogChanges <-chan struct{}
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	client    Market
	store     *state.Store
	config    *config.Config
	watcher   *auth.Watcher
	identity  auth.Provider
	prefsPath string
	pollTick  time.Duration
	copy      func(string) error
	now       func() time.Time
	logWatch  <-chan struct{}

	// UI state
	keys        keyMap
	theme       Theme
	currentView View
	prevView    View
	width       int
	height      int
	ready       bool

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time

	// Search state
	search *search.Controller[market.Item]
	feed   *viewFeed

	// Per-view state
	browse browseState
	detail detailState
	cart   cartState
	manage manageState
	form   itemForm
	login  loginForm
	logs   logState

	// Overlays
	showHelp bool
	modal    Modal

	// Footer message
	flash    string
	flashErr bool
	flashAt  time.Time
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = DefaultUIInterval
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Nightfox"
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	copyFn := opts.Copy
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	watcher := opts.Watcher
	if watcher == nil {
		watcher = auth.NewWatcher()
	}

	var searchCfg config.SearchConfig
	logPath := ""
	if opts.Config != nil {
		searchCfg = opts.Config.Search
		logPath = opts.Config.LogPath()
	}

	feed := newViewFeed()
	ctrl := search.New[market.Item](nil, search.Options[market.Item]{
		Title:     market.ItemTitle,
		Debounce:  searchCfg.Debounce,
		MinSearch: searchCfg.MinSearch,
		Scheduler: opts.SearchScheduler,
		Now:       opts.SearchNow,
		OnChange:  feed.push,
	})

	m := Model{
		ctx:         ctx,
		client:      opts.Client,
		store:       opts.Store,
		config:      opts.Config,
		watcher:     watcher,
		identity:    opts.Identity,
		prefsPath:   prefsPath,
		pollTick:    pollTick,
		copy:        copyFn,
		now:         time.Now,
		logWatch:    opts.LogChanges,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(themeName),
		currentView: ViewBrowse,
		search:      ctrl,
		feed:        feed,
		browse:      newBrowseState(),
		logs:        newLogState(logPath),
	}
	m.login = newLoginForm(m.lastEmail())
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.pollTick),
		waitSearchCmd(m.ctx, m.feed),
		m.browse.spinner.Tick,
	}
	if m.logWatch != nil {
		cmds = append(cmds, waitLogChangeCmd(m.ctx, m.logWatch))
	}
	// Fetch snapshot immediately on start
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		wasBusy := m.browse.busy()
		m.applySnapshot(state.Snapshot(msg))
		return m, m.startSpinner(wasBusy)

	case searchMsg:
		wasBusy := m.browse.busy()
		m.applySearchView(search.View[market.Item](msg))
		return m, tea.Batch(waitSearchCmd(m.ctx, m.feed), m.startSpinner(wasBusy))

	case spinner.TickMsg:
		return m.handleSpinnerTick(msg)

	case itemLoadedMsg:
		m.handleItemLoaded(msg)
		return m, nil

	case cartLoadedMsg:
		m.handleCartLoaded(msg)
		return m, nil

	case cartAddedMsg:
		return m.handleCartAdded(msg)

	case itemSavedMsg:
		return m.handleItemSaved(msg)

	case itemDeletedMsg:
		return m.handleItemDeleted(msg)

	case signedInMsg:
		return m.handleSignedIn(msg)

	case logLinesMsg:
		m.handleLogLines(msg)
		return m, nil

	case logChangedMsg:
		cmds := []tea.Cmd{waitLogChangeCmd(m.ctx, m.logWatch)}
		if m.currentView == ViewLogs && m.logs.follow {
			cmds = append(cmds, m.pollLogs())
		}
		return m, tea.Batch(cmds...)

	case copiedMsg:
		if msg.err != nil {
			m.setError("copy failed: " + msg.err.Error())
		} else {
			m.setFlash("Copied " + msg.text)
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	// Show help overlay if active
	if m.showHelp {
		return m.renderHelp()
	}

	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	return m.renderMain()
}

// handleKey routes keyboard input: overlays first, then text entry, then
// global bindings, then the active view.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key closes help
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		next, cmd, done := m.modal.Update(msg, m.keys)
		if done {
			m.modal = nil
		} else {
			m.modal = next
		}
		return m, cmd
	}

	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	// Views with focused inputs take every other key.
	switch {
	case m.currentView == ViewBrowse && m.browse.typing:
		return m.handleSearchInput(msg)
	case m.currentView == ViewForm:
		return m.handleFormKey(msg)
	case m.currentView == ViewLogin:
		return m.handleLoginKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		return m.switchView(m.cycleView(1))

	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchView(m.cycleView(-1))

	case key.Matches(msg, m.keys.Escape):
		if m.currentView == ViewDetail && m.prevView != ViewDetail {
			return m.switchView(m.prevView)
		}
		return m.switchView(ViewBrowse)

	case key.Matches(msg, m.keys.Refresh):
		cmd := m.reload()
		return m, cmd

	case key.Matches(msg, m.keys.ViewBrowse):
		return m.switchView(ViewBrowse)

	case key.Matches(msg, m.keys.ViewCart):
		return m.switchView(ViewCart)

	case key.Matches(msg, m.keys.ViewManage):
		return m.switchView(ViewManage)

	case key.Matches(msg, m.keys.ViewAdd):
		return m.openAddForm()

	case key.Matches(msg, m.keys.ViewLogs):
		return m.switchView(ViewLogs)

	case key.Matches(msg, m.keys.SignIn):
		return m.openLogin(m.currentView)

	case key.Matches(msg, m.keys.SignOut):
		return m.signOut()
	}

	// View-specific keys
	switch m.currentView {
	case ViewBrowse:
		return m.handleBrowseKey(msg)
	case ViewDetail:
		return m.handleDetailKey(msg)
	case ViewCart:
		return m.handleCartKey(msg)
	case ViewManage:
		return m.handleManageKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	}

	return m, nil
}

// cycleView returns the view step positions away in the tab order.
func (m Model) cycleView(step int) View {
	idx := 0
	for i, v := range tabOrder {
		if v == m.currentView {
			idx = i
			break
		}
	}
	n := len(tabOrder)
	return tabOrder[((idx+step)%n+n)%n]
}

// switchView activates target, redirecting to the sign-in form when the
// view acts on behalf of a user.
func (m Model) switchView(target View) (tea.Model, tea.Cmd) {
	if requiresSession(target) {
		if _, err := auth.RequireSession(m.watcher); err != nil {
			return m.openLogin(target)
		}
	}
	if target != m.currentView {
		m.prevView = m.currentView
	}
	m.currentView = target

	switch target {
	case ViewCart:
		cmd := m.loadCart()
		return m, cmd
	case ViewManage:
		m.manage.clamp(len(m.ownedItems()))
		return m, nil
	case ViewLogs:
		cmd := m.pollLogs()
		return m, cmd
	}
	return m, nil
}

func requiresSession(v View) bool {
	return v == ViewCart || v == ViewManage || v == ViewForm
}

// reload refreshes whatever the active view shows.
func (m *Model) reload() tea.Cmd {
	switch m.currentView {
	case ViewDetail:
		return m.loadItem(m.detail.item.ID)
	case ViewCart:
		return m.loadCart()
	case ViewLogs:
		return m.pollLogs()
	}
	if m.store != nil {
		return fetchSnapshotCmd(m.store)
	}
	return nil
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Fetch latest snapshot
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}

	// Without a watcher, refresh logs if in log view and following
	if m.logWatch == nil && m.currentView == ViewLogs && m.logs.follow {
		if cmd := m.pollLogs(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	if m.flash != "" && m.now().Sub(m.flashAt) > flashDuration {
		m.flash = ""
	}

	// Schedule next tick
	cmds = append(cmds, tickCmd(m.pollTick))

	return m, tea.Batch(cmds...)
}

// applySnapshot stores a new snapshot and feeds changed listings to the
// search controller.
func (m *Model) applySnapshot(snap state.Snapshot) {
	m.snapshot = snap
	m.lastUpdated = m.now()
	if !snap.HasItems {
		return
	}
	if m.browse.loaded && snap.Generation == m.browse.generation {
		return
	}
	m.browse.loaded = true
	m.browse.generation = snap.Generation
	m.search.SetItems(snap.Items)
	m.applySearchView(m.search.View())
	m.manage.clamp(len(m.ownedItems()))
}

// signOut clears the session and leaves views that need one.
func (m Model) signOut() (tea.Model, tea.Cmd) {
	if _, ok := m.watcher.Current(); !ok {
		m.setFlash("Not signed in")
		return m, nil
	}
	m.watcher.SignOut()
	m.cart = cartState{}
	m.setFlash("Signed out")
	if requiresSession(m.currentView) {
		m.currentView = ViewBrowse
	}
	return m, nil
}

// savePrefs persists theme and last sign-in email.
func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	_ = prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, LastEmail: m.lastEmail()})
}

// lastEmail returns the signed-in email, falling back to the saved one.
func (m Model) lastEmail() string {
	if email := m.watcher.Email(); email != "" {
		return email
	}
	if m.prefsPath == "" {
		return ""
	}
	p, err := prefs.Load(m.prefsPath)
	if err != nil {
		return ""
	}
	return p.LastEmail
}

func (m *Model) setFlash(text string) {
	m.flash = text
	m.flashErr = false
	m.flashAt = m.now()
}

func (m *Model) setError(text string) {
	m.flash = text
	m.flashErr = true
	m.flashAt = m.now()
}

// copyCmd copies text to the clipboard.
func (m Model) copyCmd(text string) tea.Cmd {
	if text == "" {
		return nil
	}
	copyFn := m.copy
	return func() tea.Msg {
		return copiedMsg{text: text, err: copyFn(text)}
	}
}

// resize propagates the window size to sized components.
func (m *Model) resize() {
	m.browse.input.Width = max(m.width-16, 10)
	m.updateDetailViewport()
	m.updateLogViewport()
}

// contentHeight is the space left under the header and command bar and
// above the footer.
func (m Model) contentHeight() int {
	return max(m.height-3, 3)
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	// Header line 1: logo + status
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// Header line 2: command bar
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	// Main content
	b.WriteString(m.renderContent())
	b.WriteString("\n")

	b.WriteString(m.renderFooter())

	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewBrowse:
		return m.renderBrowse()
	case ViewDetail:
		return m.renderDetail()
	case ViewCart:
		return m.renderCart()
	case ViewManage:
		return m.renderManage()
	case ViewForm:
		return m.renderForm()
	case ViewLogin:
		return m.renderLogin()
	case ViewLogs:
		return m.renderLogs()
	default:
		return ""
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type searchMsg search.View[market.Item]

type copiedMsg struct {
	text string
	err  error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// requestContext bounds a backend call started from the UI.
func (m Model) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(m.ctx, requestTimeout)
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	parent := opts.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	opts.Context = ctx

	m := New(opts)
	defer m.search.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && parent.Err() != nil {
		return nil
	}
	return err
}

// logTail is the subset of *logtail.Tail the logs view reads.
type logTail interface {
	Path() string
	Poll() ([]string, bool, error)
}

var _ logTail = (*logtail.Tail)(nil)
