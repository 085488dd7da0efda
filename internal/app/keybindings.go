package app

import "github.com/charmbracelet/bubbles/key"

func bind(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// KeyMap holds the normal-mode bindings.
type KeyMap struct {
	ScrollDown, ScrollUp       key.Binding
	HalfPageDown, HalfPageUp   key.Binding
	GotoTop, GotoBottom        key.Binding
	OpenURL, Back, Forward     key.Binding
	Reload, Clear, FollowLink  key.Binding
	CommandMode, SearchMode    key.Binding
	SearchNext                 key.Binding
	Reader, OpenExternal, Yank key.Binding
	Bookmark                   key.Binding
	Quit, Help, HistoryToggle  key.Binding
}

// DefaultKeyMap returns the default vim-style keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		ScrollDown:    bind("j/↓", "scroll down", "j", "down"),
		ScrollUp:      bind("k/↑", "scroll up", "k", "up"),
		HalfPageDown:  bind("ctrl+d", "half page down", "ctrl+d"),
		HalfPageUp:    bind("ctrl+u", "half page up", "ctrl+u"),
		GotoTop:       bind("gg", "top", "g"),
		GotoBottom:    bind("G", "bottom", "G"),
		OpenURL:       bind("o", "open URL", "o"),
		Back:          bind("H", "back", "H"),
		Forward:       bind("L", "forward", "L"),
		Reload:        bind("r", "reload", "r"),
		Clear:         bind("x", "clear frame", "x"),
		FollowLink:    bind("f", "follow link #", "f"),
		CommandMode:   bind(":", "command", ":"),
		SearchMode:    bind("/", "search page", "/"),
		SearchNext:    bind("n", "next match", "n"),
		Reader:        bind("m", "reader mode", "m"),
		OpenExternal:  bind("O", "open outside sandbox", "O"),
		Yank:          bind("y", "copy URL", "y"),
		Bookmark:      bind("B", "bookmark page", "B"),
		Quit:          bind("q", "quit", "q", "ctrl+c"),
		Help:          bind("?", "help", "?"),
		HistoryToggle: bind("ctrl+h", "session history", "ctrl+h"),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.OpenURL, k.FollowLink, k.Back, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap. Each slice is one column.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ScrollDown, k.ScrollUp, k.HalfPageDown, k.HalfPageUp, k.GotoTop, k.GotoBottom},
		{k.OpenURL, k.FollowLink, k.Back, k.Forward, k.Reload, k.Clear, k.HistoryToggle},
		{k.Reader, k.SearchMode, k.SearchNext, k.OpenExternal, k.Yank, k.Bookmark},
		{k.CommandMode, k.Help, k.Quit},
	}
}

// LeaderKeyMap holds the bindings reachable after the Space leader.
type LeaderKeyMap struct {
	OpenURL, Back, Forward, Follow, Reload, Clear key.Binding
	Reader, OpenExternal, Yank, Search            key.Binding
	AddBookmark, Bookmarks, History, Command      key.Binding
	Theme, Help                                   key.Binding
}

// DefaultLeaderKeyMap returns the leader shortcuts.
func DefaultLeaderKeyMap() LeaderKeyMap {
	return LeaderKeyMap{
		OpenURL:      bind("o", "open URL", "o"),
		Back:         bind("b", "back", "b"),
		Forward:      bind("f", "forward", "f"),
		Follow:       bind("l", "follow link", "l"),
		Reload:       bind("r", "reload", "r"),
		Clear:        bind("x", "clear", "x"),
		Reader:       bind("m", "reader mode", "m"),
		OpenExternal: bind("O", "open outside", "O"),
		Yank:         bind("y", "copy URL", "y"),
		Search:       bind("/", "search page", "/"),
		AddBookmark:  bind("a", "add bookmark", "a"),
		Bookmarks:    bind("B", "bookmarks", "B"),
		History:      bind("H", "history", "H"),
		Command:      bind(":", "command", ":"),
		Theme:        bind("T", "next theme", "T"),
		Help:         bind("?", "help", "?"),
	}
}

// ShortHelp implements help.KeyMap.
func (k LeaderKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.OpenURL, k.Follow, k.Bookmarks, k.Help}
}

// FullHelp implements help.KeyMap.
func (k LeaderKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.OpenURL, k.Back, k.Forward, k.Follow, k.Reload, k.Clear},
		{k.Reader, k.OpenExternal, k.Yank, k.Search},
		{k.AddBookmark, k.Bookmarks, k.History, k.Command},
		{k.Theme, k.Help},
	}
}
