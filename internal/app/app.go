package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/vidyasagar/framesurf/internal/browser"
	"github.com/vidyasagar/framesurf/internal/storage"
	"github.com/vidyasagar/framesurf/internal/theme"
	"github.com/vidyasagar/framesurf/internal/ui"
)

// Mode represents the current input mode.
type Mode int

const (
	ModeNormal  Mode = iota
	ModeInsert       // URL bar focused
	ModeCommand      // command bar active
	ModeFollow       // link follow mode
	ModeSearch       // search mode
	ModeHistory      // history panel active
	ModeLeader       // leader key palette active
)

// commands lists the : commands offered by completion.
var commands = []string{
	"back", "bookmark", "bookmarks", "clear", "external", "forward", "help",
	"history", "open", "quit", "reader", "reload", "theme", "unbookmark", "yank",
}

// Options configures a Model.
type Options struct {
	Fetcher   browser.Fetcher
	Bookmarks *storage.BookmarkStore // nil disables bookmarks
	Logger    *zap.Logger
	StartURL  string

	// PlainRender uses the lipgloss renderer instead of glamour.
	PlainRender     bool
	RenderCacheSize int

	OpenURL func(string) error // defaults to the system browser
	CopyURL func(string) error // defaults to the clipboard
}

// renderKey identifies one rendering of one loaded page.
type renderKey struct {
	token  uint64
	width  int
	theme  string
	reader bool
}

// Model is the top-level bubbletea model for framesurf. The controller owns
// navigation state; the model only mirrors it onto the screen.
type Model struct {
	// UI components
	urlBar       ui.URLBar
	statusBar    ui.StatusBar
	commandBar   ui.CommandBar
	viewport     ui.PageViewport
	historyPanel ui.HistoryPanel
	leaderPanel  ui.LeaderPanel

	controller  *browser.Controller
	interceptor *browser.Interceptor

	// Sandbox surface. view is doc or its reader article.
	doc       *browser.Document
	readerDoc *browser.Document
	view      *browser.Document
	reader    bool
	token     uint64 // result currently on screen
	page      *browser.RenderedPage
	listing   []browser.Link // links of a local listing such as bookmarks
	isListing bool

	renderCache *lru.Cache[renderKey, *browser.RenderedPage]
	bookmarks   *storage.BookmarkStore
	logger      *zap.Logger
	openURL     func(string) error
	copyURL     func(string) error
	plain       bool

	keys     KeyMap
	leader   LeaderKeyMap
	mode     Mode
	width    int
	height   int
	lastGKey bool // for "gg" detection
	ready    bool
	startURL string
}

// loadDoneMsg is sent when a load ticket finishes running.
type loadDoneMsg struct {
	result browser.Result
}

// leaderTimeoutMsg is sent when the leader key palette times out.
type leaderTimeoutMsg struct{}

// New creates a framesurf Model.
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	size := opts.RenderCacheSize
	if size <= 0 {
		size = 32
	}
	cache, _ := lru.New[renderKey, *browser.RenderedPage](size)

	openFn := opts.OpenURL
	if openFn == nil {
		openFn = openInSystemBrowser
	}
	copyFn := opts.CopyURL
	if copyFn == nil {
		copyFn = copyToClipboard
	}

	controller := browser.NewController(opts.Fetcher, logger.Named("controller"))
	leader := DefaultLeaderKeyMap()

	m := Model{
		urlBar:       ui.NewURLBar(),
		statusBar:    ui.NewStatusBar(),
		commandBar:   ui.NewCommandBar(),
		viewport:     ui.NewPageViewport(DefaultKeyMap()),
		historyPanel: ui.NewHistoryPanel(),
		leaderPanel:  ui.NewLeaderPanel(leader),
		controller:   controller,
		interceptor:  browser.NewInterceptor(controller, logger.Named("interceptor")),
		renderCache:  cache,
		bookmarks:    opts.Bookmarks,
		logger:       logger,
		openURL:      openFn,
		copyURL:      copyFn,
		plain:        opts.PlainRender,
		keys:         DefaultKeyMap(),
		leader:       leader,
		mode:         ModeNormal,
		startURL:     opts.StartURL,
	}
	m.commandBar.SetCommands(commands)
	return m
}

// Controller exposes the navigation controller driving this model.
func (m Model) Controller() *browser.Controller {
	return m.controller
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.startURL == "" {
		return nil
	}
	load, ok := m.controller.Submit(m.startURL)
	if !ok {
		return nil
	}
	return runLoad(load)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		m.render()
		m.syncChrome()
		return m, nil

	case loadDoneMsg:
		return m.handleLoadDone(msg)

	case statusMsg:
		if msg.err != nil {
			m.statusBar.SetMessage("Error: " + msg.err.Error())
		} else {
			m.statusBar.SetMessage(msg.text)
		}
		return m, nil

	case leaderTimeoutMsg:
		if m.mode == ModeLeader {
			m.leaderPanel.Hide()
			m.setMode(ModeNormal)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	var cmds []tea.Cmd
	ub, cmd := m.urlBar.Update(msg)
	m.urlBar = *ub
	cmds = append(cmds, cmd)
	vp, cmd := m.viewport.Update(msg)
	m.viewport = *vp
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "\n  Loading framesurf..."
	}

	var sections []string
	sections = append(sections, m.urlBar.View())

	if m.historyPanel.IsVisible() {
		dividerStyle := lipgloss.NewStyle().
			Foreground(theme.Current.Border).
			Background(theme.Current.Background)
		lines := make([]string, m.contentHeight())
		for i := range lines {
			lines[i] = "│"
		}
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top,
			m.historyPanel.View(),
			dividerStyle.Render(strings.Join(lines, "\n")),
			m.viewport.View(),
		))
	} else {
		sections = append(sections, m.viewport.View())
	}

	sections = append(sections, m.statusBar.View())
	if m.commandBar.IsActive() {
		sections = append(sections, m.commandBar.View())
	}

	result := lipgloss.JoinVertical(lipgloss.Left, sections...)

	if m.leaderPanel.IsVisible() {
		result = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.leaderPanel.View(),
			lipgloss.WithWhitespaceChars(" "),
			lipgloss.WithWhitespaceForeground(theme.Current.Background),
		)
	}
	return result
}

func (m *Model) contentHeight() int {
	const urlBarHeight, statusBarHeight = 3, 1
	h := m.height - urlBarHeight - statusBarHeight
	if m.commandBar.IsActive() {
		h--
	}
	if h < 1 {
		h = 1
	}
	return h
}

// layout recalculates dimensions for all components.
func (m *Model) layout() {
	m.urlBar.SetWidth(m.width)
	m.statusBar.SetWidth(m.width)
	m.commandBar.SetWidth(m.width)

	height := m.contentHeight()
	width := m.width
	if m.historyPanel.IsVisible() {
		panelWidth := m.width * 30 / 100
		if panelWidth < 20 {
			panelWidth = 20
		}
		m.historyPanel.SetSize(panelWidth, height)
		width = m.width - panelWidth - 1
	}
	m.viewport.SetSize(width, height)
}

func (m *Model) setMode(mode Mode) {
	m.mode = mode
	names := map[Mode]string{
		ModeNormal:  "NORMAL",
		ModeInsert:  "INSERT",
		ModeCommand: "COMMAND",
		ModeFollow:  "FOLLOW",
		ModeSearch:  "SEARCH",
		ModeHistory: "HISTORY",
		ModeLeader:  "LEADER",
	}
	m.statusBar.SetMode(names[mode])
}

// runLoad runs the ticket off the UI loop. No deadline is imposed here; the
// gateway enforces its own.
func runLoad(load *browser.Load) tea.Cmd {
	return func() tea.Msg {
		return loadDoneMsg{result: load.Run(context.Background())}
	}
}

// start begins a load the controller handed out, if any.
func (m *Model) start(load *browser.Load, ok bool) tea.Cmd {
	if !ok || load == nil {
		return nil
	}
	m.statusBar.SetMessage("")
	spin := m.urlBar.SetLoading(true)
	m.syncChrome()
	return tea.Batch(spin, runLoad(load))
}

func (m *Model) submit(raw string) tea.Cmd {
	return m.start(m.controller.Submit(raw))
}

// handleLoadDone applies a finished load. Results of superseded intents are
// dropped by the controller and leave the screen untouched.
func (m Model) handleLoadDone(msg loadDoneMsg) (tea.Model, tea.Cmd) {
	if !m.controller.Complete(msg.result) {
		return m, nil
	}

	st := m.controller.State()
	m.urlBar.SetLoading(false)

	switch st.Phase {
	case browser.PhaseLoaded:
		doc, err := browser.NewDocument(st.Markup, st.URL)
		if err != nil {
			m.logger.Warn("building document", zap.String("url", st.URL), zap.Error(err))
			m.showError(st.URL, err.Error())
			break
		}
		m.setDocument(doc, msg.result.Token)
		m.statusBar.SetMessage(fmt.Sprintf("Loaded in %s", msg.result.Duration.Round(time.Millisecond)))
	case browser.PhaseFailed:
		m.showError(st.URL, st.Err)
	}

	m.syncChrome()
	return m, nil
}

// setDocument replaces the sandbox content with doc.
func (m *Model) setDocument(doc *browser.Document, token uint64) {
	m.closeDocuments()
	m.doc = doc
	m.view = doc
	m.token = token
	m.reader = false
	m.isListing = false
	m.listing = nil
	m.render()
}

// closeDocuments detaches the current surface so late clicks on it are ignored.
func (m *Model) closeDocuments() {
	if m.doc != nil {
		m.doc.Close()
	}
	if m.readerDoc != nil {
		m.readerDoc.Close()
	}
	m.doc, m.readerDoc, m.view, m.page = nil, nil, nil, nil
}

// render draws the current view document into the viewport.
func (m *Model) render() {
	if m.view == nil || !m.viewport.Ready() {
		return
	}
	k := renderKey{token: m.token, width: m.viewport.Width(), theme: theme.Current.Name, reader: m.reader}
	page, ok := m.renderCache.Get(k)
	if !ok {
		mode := browser.RenderGlamour
		if m.plain {
			mode = browser.RenderPlain
		}
		page = browser.Render(m.view, k.width, mode)
		m.renderCache.Add(k, page)
	}
	m.page = page
	m.isListing = false
	m.listing = nil
	m.viewport.SetContent(page.Content)
}

func (m *Model) showError(url, msg string) {
	m.closeDocuments()
	m.isListing = false
	m.listing = nil
	if browser.IsErrorPayload(msg) {
		m.statusBar.SetMessage(msg)
	} else {
		m.statusBar.SetMessage("Error: " + msg)
	}

	errStyle := lipgloss.NewStyle().
		Foreground(theme.Current.Error).
		Bold(true).
		Padding(2, 4)
	detailStyle := lipgloss.NewStyle().
		Foreground(theme.Current.TextDim).
		Padding(0, 4)

	m.viewport.SetContent(errStyle.Render("Failed to load page") + "\n\n" +
		detailStyle.Render(fmt.Sprintf("URL: %s\n%s", url, msg)))
}

// syncChrome mirrors controller state onto the URL bar and status bar.
func (m *Model) syncChrome() {
	st := m.controller.State()

	m.urlBar.SetNav(m.controller.CanGoBack(), m.controller.CanGoForward())
	if !m.urlBar.IsActive() {
		m.urlBar.SetValue(st.URL)
	}

	m.statusBar.SetPhase(st.Phase.String())
	m.statusBar.SetURL(st.URL)
	m.statusBar.SetTitle(st.Title)
	m.statusBar.SetScrollInfo(m.viewport.ScrollInfo())
	switch {
	case m.isListing:
		m.statusBar.SetLinkCount(len(m.listing))
	case m.page != nil:
		m.statusBar.SetLinkCount(len(m.page.Links))
	default:
		m.statusBar.SetLinkCount(0)
	}

	if m.historyPanel.IsVisible() {
		m.historyPanel.SetEntries(m.controller.History())
	}
}

// handleKeyMsg processes key events based on current mode.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case ModeInsert:
		return m.handleInsertMode(msg)
	case ModeCommand, ModeSearch, ModeFollow:
		return m.handleCommandMode(msg)
	case ModeHistory:
		return m.handleHistoryMode(msg)
	case ModeLeader:
		return m.handleLeaderMode(msg)
	default:
		return m.handleNormalMode(msg)
	}
}

// handleNormalMode processes keys in normal (browsing) mode.
func (m Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "g" {
		if m.lastGKey {
			m.lastGKey = false
			m.viewport.GotoTop()
			m.syncChrome()
			return m, nil
		}
		m.lastGKey = true
		return m, nil
	}
	m.lastGKey = false

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case msg.String() == " ":
		m.leaderPanel.SetSize(m.width, m.height)
		m.leaderPanel.Show()
		m.setMode(ModeLeader)
		return m, tea.Tick(2*time.Second, func(time.Time) tea.Msg {
			return leaderTimeoutMsg{}
		})

	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.LineDown(1)
	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.LineUp(1)
	case key.Matches(msg, m.keys.HalfPageDown):
		m.viewport.HalfPageDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.viewport.HalfPageUp()
	case key.Matches(msg, m.keys.GotoBottom):
		m.viewport.GotoBottom()

	case key.Matches(msg, m.keys.OpenURL):
		return m, m.focusURLBar()
	case key.Matches(msg, m.keys.Back):
		return m, m.start(m.controller.Back())
	case key.Matches(msg, m.keys.Forward):
		return m, m.start(m.controller.Forward())
	case key.Matches(msg, m.keys.Reload):
		return m, m.start(m.controller.Reload())
	case key.Matches(msg, m.keys.Clear):
		m.clear()
		return m, nil

	case key.Matches(msg, m.keys.FollowLink):
		m.setMode(ModeFollow)
		return m, m.commandBar.Open(ui.CommandFollow)
	case key.Matches(msg, m.keys.CommandMode):
		m.setMode(ModeCommand)
		return m, m.commandBar.Open(ui.CommandEx)
	case key.Matches(msg, m.keys.SearchMode):
		m.setMode(ModeSearch)
		return m, m.commandBar.Open(ui.CommandSearch)
	case key.Matches(msg, m.keys.SearchNext):
		m.reportSearch(m.viewport.SearchNext())

	case key.Matches(msg, m.keys.Reader):
		m.toggleReader()
	case key.Matches(msg, m.keys.OpenExternal):
		return m, m.openExternal()
	case key.Matches(msg, m.keys.Yank):
		return m, m.yank()
	case key.Matches(msg, m.keys.Bookmark):
		m.addBookmark()
	case key.Matches(msg, m.keys.Help):
		m.showHelp()
	case key.Matches(msg, m.keys.HistoryToggle):
		m.toggleHistory()

	default:
		vp, cmd := m.viewport.Update(msg)
		m.viewport = *vp
		m.syncChrome()
		return m, cmd
	}

	m.syncChrome()
	return m, nil
}

func (m *Model) focusURLBar() tea.Cmd {
	m.setMode(ModeInsert)
	m.urlBar.Reset()
	return m.urlBar.Focus()
}

func (m *Model) clear() {
	m.controller.Clear()
	m.closeDocuments()
	m.isListing = false
	m.listing = nil
	m.urlBar.SetLoading(false)
	m.statusBar.SetMessage("Cleared")
	m.viewport.SetContent("")
}

func (m *Model) toggleHistory() {
	if m.historyPanel.IsVisible() {
		m.historyPanel.Hide()
		m.setMode(ModeNormal)
	} else {
		m.historyPanel.SetEntries(m.controller.History())
		m.historyPanel.Show()
		m.setMode(ModeHistory)
	}
	m.layout()
	m.render()
}

// handleHistoryMode processes keys when the history panel is active.
func (m Model) handleHistoryMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		entry := m.historyPanel.SelectedEntry()
		m.toggleHistory()
		if entry != nil {
			return m, m.submit(entry.URL)
		}
	case "esc", "ctrl+h", "q":
		m.toggleHistory()
	default:
		m.historyPanel.Update(msg)
	}
	return m, nil
}

// handleLeaderMode runs the action bound to the key pressed after Space.
func (m Model) handleLeaderMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.leaderPanel.Hide()
	m.setMode(ModeNormal)

	l := m.leader
	switch {
	case key.Matches(msg, l.OpenURL):
		return m, m.focusURLBar()
	case key.Matches(msg, l.Back):
		return m, m.start(m.controller.Back())
	case key.Matches(msg, l.Forward):
		return m, m.start(m.controller.Forward())
	case key.Matches(msg, l.Follow):
		m.setMode(ModeFollow)
		return m, m.commandBar.Open(ui.CommandFollow)
	case key.Matches(msg, l.Reload):
		return m, m.start(m.controller.Reload())
	case key.Matches(msg, l.Clear):
		m.clear()
	case key.Matches(msg, l.Reader):
		m.toggleReader()
	case key.Matches(msg, l.OpenExternal):
		return m, m.openExternal()
	case key.Matches(msg, l.Yank):
		return m, m.yank()
	case key.Matches(msg, l.Search):
		m.setMode(ModeSearch)
		return m, m.commandBar.Open(ui.CommandSearch)
	case key.Matches(msg, l.AddBookmark):
		m.addBookmark()
	case key.Matches(msg, l.Bookmarks):
		return m.executeCommand("bookmarks")
	case key.Matches(msg, l.History):
		m.toggleHistory()
	case key.Matches(msg, l.Command):
		m.setMode(ModeCommand)
		return m, m.commandBar.Open(ui.CommandEx)
	case key.Matches(msg, l.Theme):
		m.setTheme(theme.Next())
	case key.Matches(msg, l.Help):
		m.showHelp()
	}
	m.syncChrome()
	return m, nil
}

// handleInsertMode processes keys when the URL bar is focused.
func (m Model) handleInsertMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.urlBar.Blur()
		m.setMode(ModeNormal)
		m.syncChrome()
		return m, nil

	case tea.KeyEnter:
		raw := m.urlBar.Value()
		m.urlBar.Blur()
		m.setMode(ModeNormal)
		if cmd := m.submit(raw); cmd != nil {
			return m, cmd
		}
		m.syncChrome()
		return m, nil
	}

	ub, cmd := m.urlBar.Update(msg)
	m.urlBar = *ub
	return m, cmd
}

// handleCommandMode processes keys in command/search/follow mode.
func (m Model) handleCommandMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.commandBar.Close()
		m.setMode(ModeNormal)
		m.layout()
		return m, nil

	case tea.KeyEnter:
		result := m.commandBar.Submit()
		m.setMode(ModeNormal)
		m.layout()
		return m.handleCommandResult(result)
	}

	cb, cmd := m.commandBar.Update(msg)
	m.commandBar = *cb
	return m, cmd
}

func (m Model) handleCommandResult(result ui.CommandResult) (tea.Model, tea.Cmd) {
	switch result.Type {
	case ui.CommandEx:
		return m.executeCommand(result.Value)
	case ui.CommandSearch:
		m.reportSearch(m.viewport.Search(result.Value))
		m.syncChrome()
	case ui.CommandFollow:
		return m.followLink(result.Value)
	}
	return m, nil
}

func (m *Model) reportSearch(line int, ok bool) {
	if ok {
		m.statusBar.SetMessage(fmt.Sprintf("Match on line %d", line))
		return
	}
	m.statusBar.SetMessage("Pattern not found")
}

// executeCommand handles :commands.
func (m Model) executeCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	arg := strings.Join(parts[1:], " ")

	switch parts[0] {
	case "q", "quit":
		return m, tea.Quit
	case "o", "open":
		if arg == "" {
			m.statusBar.SetMessage("Usage: :open <url>")
			break
		}
		return m, m.submit(arg)
	case "back":
		return m, m.start(m.controller.Back())
	case "forward":
		return m, m.start(m.controller.Forward())
	case "reload":
		return m, m.start(m.controller.Reload())
	case "clear":
		m.clear()
	case "reader":
		m.toggleReader()
	case "external":
		return m, m.openExternal()
	case "yank":
		return m, m.yank()
	case "theme":
		if arg == "" {
			m.statusBar.SetMessage(fmt.Sprintf("Current: %s | Available: %s", theme.Current.Name, strings.Join(theme.List(), ", ")))
			break
		}
		m.setTheme(arg)
	case "history":
		m.toggleHistory()
	case "help":
		m.showHelp()
	case "bookmark":
		m.addBookmark(parts[1:]...)
	case "unbookmark":
		m.removeBookmark()
	case "bookmarks", "bm":
		m.showBookmarks(arg)
	default:
		m.statusBar.SetMessage(fmt.Sprintf("Unknown command: %s", parts[0]))
	}

	m.syncChrome()
	return m, nil
}

// followLink follows the numbered link. Page links go through the click
// interceptor as a click on the anchor node; listing links are submitted.
func (m Model) followLink(input string) (tea.Model, tea.Cmd) {
	num, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		m.statusBar.SetMessage(fmt.Sprintf("Invalid link number: %s", input))
		return m, nil
	}

	if m.isListing {
		if num < 1 || num > len(m.listing) {
			m.statusBar.SetMessage(fmt.Sprintf("Link [%d] not found", num))
			return m, nil
		}
		return m, m.submit(m.listing[num-1].URL)
	}

	if m.page == nil {
		m.statusBar.SetMessage("No page loaded")
		return m, nil
	}
	link, ok := m.page.Link(num)
	if !ok {
		m.statusBar.SetMessage(fmt.Sprintf("Link [%d] not found", num))
		return m, nil
	}

	ev := &browser.ClickEvent{Target: link.Node}
	load, ok := m.interceptor.Handle(m.view, ev)
	if !ok {
		m.statusBar.SetMessage(fmt.Sprintf("Link [%d] does not navigate", num))
		return m, nil
	}
	return m, m.start(load, true)
}

func (m *Model) toggleReader() {
	if m.doc == nil {
		m.statusBar.SetMessage("No page loaded")
		return
	}
	if m.reader {
		m.reader = false
		m.view = m.doc
		m.statusBar.SetMessage("Reader mode off")
		m.render()
		return
	}

	if m.readerDoc == nil {
		article, err := browser.ExtractReadable(m.doc)
		if err == nil {
			m.readerDoc, err = article.Document()
		}
		if err != nil {
			m.statusBar.SetMessage("Reader mode unavailable: " + err.Error())
			return
		}
	}
	m.reader = true
	m.view = m.readerDoc
	m.statusBar.SetMessage("Reader mode on")
	m.render()
}

// currentURL is the address the passthrough actions act on.
func (m *Model) currentURL() (string, bool) {
	st := m.controller.State()
	return st.URL, st.URL != ""
}

func (m *Model) openExternal() tea.Cmd {
	u, ok := m.currentURL()
	if !ok {
		m.statusBar.SetMessage("No page to open")
		return nil
	}
	return openExternalCmd(u, m.openURL, m.copyURL)
}

func (m *Model) yank() tea.Cmd {
	u, ok := m.currentURL()
	if !ok {
		m.statusBar.SetMessage("No URL to copy")
		return nil
	}
	return copyURLCmd(u, m.copyURL)
}

func (m *Model) setTheme(name string) {
	if !theme.Set(name) {
		m.statusBar.SetMessage(fmt.Sprintf("Unknown theme: %s (available: %s)", name, strings.Join(theme.List(), ", ")))
		return
	}
	m.statusBar.SetMessage("Theme: " + theme.Current.Name)
	m.render()
}

func (m *Model) addBookmark(tags ...string) {
	if m.bookmarks == nil {
		m.statusBar.SetMessage("Bookmarks not available")
		return
	}
	st := m.controller.State()
	if st.Phase != browser.PhaseLoaded {
		m.statusBar.SetMessage("No page to bookmark")
		return
	}
	err := m.bookmarks.Add(st.URL, st.Title, tags...)
	switch {
	case errors.Is(err, storage.ErrAlreadyBookmarked):
		m.statusBar.SetMessage("Already bookmarked")
	case err != nil:
		m.logger.Warn("bookmark failed", zap.String("url", st.URL), zap.Error(err))
		m.statusBar.SetMessage("Error: " + err.Error())
	default:
		title := st.Title
		if title == "" {
			title = st.URL
		}
		m.statusBar.SetMessage("Bookmarked: " + title)
	}
}

func (m *Model) removeBookmark() {
	if m.bookmarks == nil {
		m.statusBar.SetMessage("Bookmarks not available")
		return
	}
	u, ok := m.currentURL()
	if !ok {
		m.statusBar.SetMessage("No page loaded")
		return
	}
	removed, err := m.bookmarks.Remove(u)
	switch {
	case err != nil:
		m.statusBar.SetMessage("Error: " + err.Error())
	case removed:
		m.statusBar.SetMessage("Bookmark removed")
	default:
		m.statusBar.SetMessage("Page was not bookmarked")
	}
}

// showBookmarks lists bookmarks, optionally filtered by query. The listing is
// local content; the sandboxed document stays as it was.
func (m *Model) showBookmarks(query string) {
	if m.bookmarks == nil {
		m.statusBar.SetMessage("Bookmarks not available")
		return
	}
	var (
		list []storage.Bookmark
		err  error
	)
	if query == "" {
		list, err = m.bookmarks.List()
	} else {
		list, err = m.bookmarks.Search(query)
	}
	if err != nil {
		m.statusBar.SetMessage("Error: " + err.Error())
		return
	}

	content, links := storage.RenderBookmarks(list)
	m.isListing = true
	m.listing = links
	m.viewport.SetContent(content)
	m.statusBar.SetMessage(fmt.Sprintf("%d bookmarks", len(links)))
}

// showHelp lists the key bindings and : commands in the viewport.
func (m *Model) showHelp() {
	t := theme.Current
	h := help.New()
	h.ShowAll = true
	h.Width = m.viewport.Width()
	h.Styles.FullKey = lipgloss.NewStyle().Bold(true).Foreground(t.Secondary)
	h.Styles.FullDesc = lipgloss.NewStyle().Foreground(t.Text)

	heading := lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	cmds := lipgloss.NewStyle().Foreground(t.Text).Width(max(m.viewport.Width()-2, 20)).
		Render(":" + strings.Join(commands, "  :"))

	// Help is local content like a listing; link numbers no longer apply.
	m.isListing = true
	m.listing = nil
	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left,
		heading.Render("Keys"), "", h.View(m.keys), "",
		heading.Render("Leader (Space)"), "", h.View(m.leader), "",
		heading.Render("Commands"), "", cmds,
	))
	m.statusBar.SetMessage("Help")
}
