package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/vidyasagar/framesurf/internal/theme"
)

// StatusBar shows the current page info at the bottom of the screen.
type StatusBar struct {
	url        string
	title      string
	phase      string
	scrollInfo string
	mode       string
	linkCount  int
	width      int
	message    string // temporary status message
	failed     bool
}

// NewStatusBar creates a new status bar.
func NewStatusBar() StatusBar {
	return StatusBar{
		mode:  "NORMAL",
		phase: "idle",
	}
}

// SetWidth sets the status bar width.
func (s *StatusBar) SetWidth(w int) {
	s.width = w
}

// SetURL updates the displayed URL.
func (s *StatusBar) SetURL(url string) {
	s.url = url
}

// SetTitle updates the page title.
func (s *StatusBar) SetTitle(title string) {
	s.title = title
}

// SetPhase shows the navigation phase ("idle", "loading", "loaded", "failed").
func (s *StatusBar) SetPhase(phase string) {
	s.phase = phase
	s.failed = phase == "failed"
}

// SetScrollInfo sets the scroll position string (e.g. "42%", "TOP", "BOT").
func (s *StatusBar) SetScrollInfo(info string) {
	s.scrollInfo = info
}

// SetMode sets the current mode indicator (NORMAL, INSERT, COMMAND, etc).
func (s *StatusBar) SetMode(mode string) {
	s.mode = mode
}

// SetLinkCount sets the total link count displayed.
func (s *StatusBar) SetLinkCount(n int) {
	s.linkCount = n
}

// SetMessage sets a temporary status message.
func (s *StatusBar) SetMessage(msg string) {
	s.message = msg
}

// Message returns the current temporary message.
func (s *StatusBar) Message() string {
	return s.message
}

func (s *StatusBar) modeColor() lipgloss.Color {
	t := theme.Current
	switch s.mode {
	case "INSERT":
		return t.Success
	case "COMMAND":
		return t.Accent
	case "FOLLOW":
		return t.Link
	case "SEARCH":
		return t.Warning
	case "HISTORY":
		return t.Secondary
	default:
		return t.Primary
	}
}

// View renders the status bar.
func (s *StatusBar) View() string {
	t := theme.Current

	mode := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Foreground(t.Background).
		Background(s.modeColor()).
		Render(s.mode)

	barStyle := lipgloss.NewStyle().
		Foreground(t.Text).
		Background(t.Surface)

	// Left side: phase or message, then title.
	var left string
	leftStyle := lipgloss.NewStyle().Background(t.Surface).Padding(0, 1)
	switch {
	case s.phase == "loading":
		left = leftStyle.Foreground(t.Warning).Bold(true).Render("Loading " + s.url)
	case s.message != "":
		color := t.Info
		if s.failed {
			color = t.Error
		}
		left = leftStyle.Foreground(color).Render(s.message)
	case s.title != "":
		left = leftStyle.Foreground(t.Text).Render(s.title)
	case s.url != "":
		left = leftStyle.Foreground(t.TextDim).Render(s.url)
	}

	// Right side: link count + scroll position.
	rightStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface).
		Padding(0, 1)

	var right string
	if s.linkCount > 0 {
		right += rightStyle.Render(fmt.Sprintf("%d links", s.linkCount))
	}
	if s.scrollInfo != "" {
		right += rightStyle.Bold(true).Foreground(t.Secondary).Render(s.scrollInfo)
	}

	spacerWidth := s.width - lipgloss.Width(mode) - lipgloss.Width(left) - lipgloss.Width(right)
	if spacerWidth < 0 {
		spacerWidth = 0
	}
	spacer := lipgloss.NewStyle().
		Background(t.Surface).
		Render(fmt.Sprintf("%*s", spacerWidth, ""))

	return barStyle.Render(mode + left + spacer + right)
}
