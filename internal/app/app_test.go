package app

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyasagar/framesurf/internal/browser"
	"github.com/vidyasagar/framesurf/internal/storage"
	"github.com/vidyasagar/framesurf/internal/theme"
	"github.com/vidyasagar/framesurf/internal/ui"
)

const (
	pageA = `<html><head><title>A</title></head><body><p>Alpha <a href="/b">to b</a> <a href="#top">top</a></p></body></html>`
	pageB = `<html><head><title>B</title></head><body><p>Bravo</p></body></html>`
)

type stubFetcher map[string]string

func (s stubFetcher) Fetch(_ context.Context, u string) (string, error) {
	if body, ok := s[u]; ok {
		return body, nil
	}
	return "Error: HTTP error 404", nil
}

type recorder struct {
	opened, copied []string
	openErr        error
}

func (r *recorder) open(u string) error {
	r.opened = append(r.opened, u)
	return r.openErr
}

func (r *recorder) copy(u string) error {
	r.copied = append(r.copied, u)
	return nil
}

func newTestModel(t *testing.T, opts Options) (Model, *recorder) {
	t.Helper()
	rec := &recorder{}
	if opts.Fetcher == nil {
		opts.Fetcher = stubFetcher{"https://a.test/": pageA, "https://a.test/b": pageB}
	}
	opts.PlainRender = true
	opts.OpenURL = rec.open
	opts.CopyURL = rec.copy

	next, _ := New(opts).Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), rec
}

// collect runs cmd and any batch it expands to.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// drain feeds load and status results of cmd back into the model.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range collect(cmd) {
		switch msg.(type) {
		case loadDoneMsg, statusMsg:
			next, more := m.Update(msg)
			m = drain(t, next.(Model), more)
		}
	}
	return m
}

func command(t *testing.T, m Model, input string) Model {
	t.Helper()
	next, cmd := m.executeCommand(input)
	return drain(t, next.(Model), cmd)
}

func press(t *testing.T, m Model, k string) Model {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, cmd := m.Update(msg)
	return drain(t, next.(Model), cmd)
}

func TestOpenLoadsAndRenders(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = command(t, m, "open a.test/")

	st := m.controller.State()
	assert.Equal(t, browser.PhaseLoaded, st.Phase)
	assert.Equal(t, "https://a.test/", st.URL)
	assert.Equal(t, "A", st.Title)
	require.NotNil(t, m.page)
	assert.Contains(t, m.page.Content, "Alpha")
	// Fragment links are not numbered.
	require.Len(t, m.page.Links, 1)
	assert.Equal(t, "https://a.test/b", m.page.Links[0].URL)
	assert.Contains(t, m.statusBar.Message(), "Loaded in")
}

func TestURLBarSubmit(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = press(t, m, "o")
	assert.Equal(t, ModeInsert, m.mode)

	m.urlBar.SetValue("a.test/b")
	m = press(t, m, "enter")
	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, "https://a.test/b", m.controller.State().URL)
	assert.Equal(t, "https://a.test/b", m.urlBar.Value())
}

func TestInitLoadsStartURL(t *testing.T) {
	m, _ := newTestModel(t, Options{StartURL: "a.test/"})
	m = drain(t, m, m.Init())
	assert.Equal(t, "A", m.controller.State().Title)

	m, _ = newTestModel(t, Options{})
	assert.Nil(t, m.Init())
}

func TestFailedLoadShowsError(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = command(t, m, "open a.test/")
	m = command(t, m, "open a.test/missing")

	st := m.controller.State()
	assert.Equal(t, browser.PhaseFailed, st.Phase)
	assert.Equal(t, "Error: HTTP error 404", st.Err)
	assert.Equal(t, "Error: HTTP error 404", m.statusBar.Message())
	assert.Nil(t, m.page)
	assert.Nil(t, m.doc)
}

func TestFetcherErrorShowsError(t *testing.T) {
	m, _ := newTestModel(t, Options{Fetcher: failingFetcher{}})
	m = command(t, m, "open a.test/")
	assert.Equal(t, "Error: connection refused", m.statusBar.Message())
}

type failingFetcher struct{}

func (failingFetcher) Fetch(context.Context, string) (string, error) {
	return "", errors.New("connection refused")
}

func TestStaleLoadIsDropped(t *testing.T) {
	m, _ := newTestModel(t, Options{})

	next, first := m.executeCommand("open a.test/")
	m = next.(Model)
	next, second := m.executeCommand("open a.test/b")
	m = drain(t, next.(Model), second)
	m = drain(t, m, first)

	st := m.controller.State()
	assert.Equal(t, "https://a.test/b", st.URL)
	assert.Equal(t, "B", st.Title)
	assert.Contains(t, m.page.Content, "Bravo")
}

func TestFollowLinkGoesThroughInterceptor(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = command(t, m, "open a.test/")

	next, cmd := m.followLink("1")
	m = drain(t, next.(Model), cmd)
	assert.Equal(t, "https://a.test/b", m.controller.State().URL)
	assert.True(t, m.controller.CanGoBack())

	next, _ = m.followLink("7")
	m = next.(Model)
	assert.Equal(t, "Link [7] not found", m.statusBar.Message())

	next, _ = m.followLink("x")
	m = next.(Model)
	assert.Equal(t, "Invalid link number: x", m.statusBar.Message())
}

func TestFollowModeKeys(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = command(t, m, "open a.test/")

	m = press(t, m, "f")
	assert.Equal(t, ModeFollow, m.mode)
	assert.Equal(t, ui.CommandFollow, m.commandBar.Type())
	m.commandBar.SetValue("1")
	m = press(t, m, "enter")

	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, "B", m.controller.State().Title)
}

func TestBackAndForward(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = command(t, m, "open a.test/")
	m = command(t, m, "open a.test/b")

	m = press(t, m, "H")
	assert.Equal(t, "A", m.controller.State().Title)
	assert.True(t, m.controller.CanGoForward())

	m = press(t, m, "L")
	assert.Equal(t, "B", m.controller.State().Title)
	assert.False(t, m.controller.CanGoForward())

	entries, current := m.controller.History()
	assert.Len(t, entries, 2)
	assert.Equal(t, 1, current)
}

func TestReloadKeepsHistory(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = command(t, m, "open a.test/")
	m = press(t, m, "r")

	entries, _ := m.controller.History()
	assert.Len(t, entries, 1)
	assert.Equal(t, browser.PhaseLoaded, m.controller.State().Phase)
}

func TestClearSupersedesInFlightLoad(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = command(t, m, "open a.test/")

	next, pending := m.executeCommand("open a.test/b")
	m = next.(Model)
	m = press(t, m, "x")
	m = drain(t, m, pending)

	st := m.controller.State()
	assert.Equal(t, browser.PhaseIdle, st.Phase)
	assert.Empty(t, st.URL)
	assert.Nil(t, m.doc)
	assert.Nil(t, m.page)

	entries, _ := m.controller.History()
	assert.Len(t, entries, 1)
}

func TestReaderToggle(t *testing.T) {
	article := `<html><head><title>Story</title></head><body>
<nav><a href="/home">Home</a></nav>
<article><h1>Story</h1>
<p>The first paragraph of a long story carries enough words to count as real content for extraction, with commas, and more commas, and detail.</p>
<p>The second paragraph continues the story with more sentences, more words, more commas, and enough length to keep the article scored above the threshold.</p>
<p>The third paragraph closes the story with a final set of words, phrases, and clauses that make it unmistakably the main content of this page.</p>
</article></body></html>`
	m, _ := newTestModel(t, Options{Fetcher: stubFetcher{"https://news.test/story": article}})

	m = press(t, m, "m")
	assert.Equal(t, "No page loaded", m.statusBar.Message())

	m = command(t, m, "open news.test/story")
	m = press(t, m, "m")
	require.True(t, m.reader, m.statusBar.Message())
	assert.Same(t, m.readerDoc, m.view)
	assert.Contains(t, m.page.Content, "second paragraph")

	m = press(t, m, "m")
	assert.False(t, m.reader)
	assert.Same(t, m.doc, m.view)
}

func TestSearch(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = command(t, m, "open a.test/")

	next, _ := m.handleCommandResult(ui.CommandResult{Type: ui.CommandSearch, Value: "alpha"})
	m = next.(Model)
	assert.Contains(t, m.statusBar.Message(), "Match on line")

	next, _ = m.handleCommandResult(ui.CommandResult{Type: ui.CommandSearch, Value: "zebra"})
	m = next.(Model)
	assert.Equal(t, "Pattern not found", m.statusBar.Message())
}

func TestPassthrough(t *testing.T) {
	m, rec := newTestModel(t, Options{})

	m = press(t, m, "y")
	assert.Equal(t, "No URL to copy", m.statusBar.Message())

	m = command(t, m, "open a.test/")
	m = press(t, m, "y")
	assert.Equal(t, []string{"https://a.test/"}, rec.copied)
	assert.Equal(t, "URL copied to clipboard", m.statusBar.Message())

	m = press(t, m, "O")
	assert.Equal(t, []string{"https://a.test/"}, rec.opened)
	assert.Equal(t, "Opened in system browser", m.statusBar.Message())

	rec.openErr = errors.New("no browser")
	m = press(t, m, "O")
	assert.Len(t, rec.copied, 2)
	assert.Equal(t, "Could not open browser, URL copied to clipboard", m.statusBar.Message())
}

func TestBookmarks(t *testing.T) {
	db, err := storage.OpenDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := storage.NewBookmarkStore(db)

	m, _ := newTestModel(t, Options{Bookmarks: store})
	m = command(t, m, "bookmark")
	assert.Equal(t, "No page to bookmark", m.statusBar.Message())

	m = command(t, m, "open a.test/b")
	m = command(t, m, "bookmark reading")
	assert.Equal(t, "Bookmarked: B", m.statusBar.Message())
	m = press(t, m, "B")
	assert.Equal(t, "Already bookmarked", m.statusBar.Message())

	m = command(t, m, "open a.test/")
	m = command(t, m, "bookmarks")
	require.True(t, m.isListing)
	require.Len(t, m.listing, 1)
	assert.Equal(t, "1 bookmarks", m.statusBar.Message())

	next, cmd := m.followLink("1")
	m = drain(t, next.(Model), cmd)
	assert.False(t, m.isListing)
	assert.Equal(t, "https://a.test/b", m.controller.State().URL)

	m = command(t, m, "unbookmark")
	assert.Equal(t, "Bookmark removed", m.statusBar.Message())
	assert.Equal(t, 0, store.Count())
}

func TestBookmarksUnavailable(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = command(t, m, "bookmarks")
	assert.Equal(t, "Bookmarks not available", m.statusBar.Message())
}

func TestThemeCommand(t *testing.T) {
	t.Cleanup(func() { theme.Set("default") })
	m, _ := newTestModel(t, Options{})
	m = command(t, m, "open a.test/")

	m = command(t, m, "theme dracula")
	assert.Equal(t, "dracula", theme.Current.Name)
	assert.Equal(t, "Theme: dracula", m.statusBar.Message())

	m = command(t, m, "theme nope")
	assert.Contains(t, m.statusBar.Message(), "Unknown theme: nope")
	assert.Equal(t, "dracula", theme.Current.Name)
}

func TestHistoryPanelOpensEntry(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = command(t, m, "open a.test/")
	m = command(t, m, "open a.test/b")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlH})
	m = next.(Model)
	require.Equal(t, ModeHistory, m.mode)
	assert.True(t, m.historyPanel.IsVisible())

	m = press(t, m, "k")
	m = press(t, m, "enter")
	assert.False(t, m.historyPanel.IsVisible())
	assert.Equal(t, "https://a.test/", m.controller.State().URL)

	entries, _ := m.controller.History()
	assert.Len(t, entries, 3)
}

func TestUnknownCommand(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = command(t, m, "frobnicate")
	assert.Equal(t, "Unknown command: frobnicate", m.statusBar.Message())
}

func TestLeaderDispatch(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = command(t, m, "open a.test/")
	m = command(t, m, "open a.test/b")

	// The leader timeout tick is not run here.
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(" ")})
	m = next.(Model)
	require.Equal(t, ModeLeader, m.mode)
	assert.True(t, m.leaderPanel.IsVisible())

	m = press(t, m, "b")
	assert.False(t, m.leaderPanel.IsVisible())
	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, "https://a.test/", m.controller.State().URL)
}

func TestLeaderKeysAreDistinct(t *testing.T) {
	seen := map[string]string{}
	for _, col := range DefaultLeaderKeyMap().FullHelp() {
		for _, b := range col {
			for _, k := range b.Keys() {
				assert.NotContains(t, seen, k, "%s also bound to %s", k, seen[k])
				seen[k] = b.Help().Desc
			}
		}
	}
	assert.Len(t, seen, 16)
}

func TestHelpListsKeysAndCommands(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = command(t, m, "help")
	assert.Equal(t, "Help", m.statusBar.Message())

	for _, want := range []string{"open outside sandbox", "next theme", ":unbookmark"} {
		_, ok := m.viewport.Search(want)
		assert.True(t, ok, want)
	}
}
