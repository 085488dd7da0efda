package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/vidyasagar/framesurf/internal/theme"
)

// PageViewport wraps bubbles/viewport with in-page search and scroll info.
type PageViewport struct {
	viewport   viewport.Model
	ready      bool
	contentSet bool
	keys       help.KeyMap

	// plain holds the content lines with styling stripped, for search.
	plain      []string
	searchTerm string
	matchLine  int
}

// NewPageViewport creates a viewport whose welcome screen lists the short
// help of keys. Dimensions arrive with the first WindowSizeMsg.
func NewPageViewport(keys help.KeyMap) PageViewport {
	return PageViewport{keys: keys, matchLine: -1}
}

// SetSize updates the viewport dimensions.
func (pv *PageViewport) SetSize(width, height int) {
	if !pv.ready {
		pv.viewport = viewport.New(width, height)
		pv.viewport.MouseWheelEnabled = true
		pv.viewport.MouseWheelDelta = 3
		pv.ready = true
		return
	}
	pv.viewport.Width = width
	pv.viewport.Height = height
}

// SetContent replaces the viewport content and scrolls to the top.
func (pv *PageViewport) SetContent(content string) {
	if !pv.ready {
		return
	}
	pv.viewport.SetContent(content)
	pv.plain = strings.Split(ansi.Strip(content), "\n")
	pv.searchTerm = ""
	pv.matchLine = -1
	pv.contentSet = true
	pv.viewport.GotoTop()
}

// Search scrolls to the first line containing term, case-insensitively,
// starting after the previous match. It wraps around once.
func (pv *PageViewport) Search(term string) (int, bool) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || len(pv.plain) == 0 {
		return 0, false
	}
	start := 0
	if term == pv.searchTerm && pv.matchLine >= 0 {
		start = pv.matchLine + 1
	}
	pv.searchTerm = term

	n := len(pv.plain)
	for i := 0; i < n; i++ {
		line := (start + i) % n
		if strings.Contains(strings.ToLower(pv.plain[line]), term) {
			pv.matchLine = line
			if pv.ready {
				pv.viewport.SetYOffset(line)
			}
			return line + 1, true
		}
	}
	pv.matchLine = -1
	return 0, false
}

// SearchNext repeats the last search.
func (pv *PageViewport) SearchNext() (int, bool) {
	return pv.Search(pv.searchTerm)
}

// Update forwards messages to the viewport.
func (pv *PageViewport) Update(msg tea.Msg) (*PageViewport, tea.Cmd) {
	if !pv.ready {
		return pv, nil
	}
	var cmd tea.Cmd
	pv.viewport, cmd = pv.viewport.Update(msg)
	return pv, cmd
}

// View renders the viewport.
func (pv *PageViewport) View() string {
	if !pv.ready {
		return "\n  Initializing..."
	}
	if !pv.contentSet {
		return pv.renderWelcome()
	}
	return pv.viewport.View()
}

// ScrollPercent returns the scroll percentage.
func (pv *PageViewport) ScrollPercent() float64 {
	if !pv.ready {
		return 0
	}
	return pv.viewport.ScrollPercent()
}

// ScrollInfo returns a string like "42%" or "TOP" or "BOT".
func (pv *PageViewport) ScrollInfo() string {
	pct := pv.ScrollPercent()
	switch {
	case pct <= 0:
		return "TOP"
	case pct >= 1:
		return "BOT"
	default:
		return fmt.Sprintf("%d%%", int(pct*100))
	}
}

// HalfPageDown scrolls down half a page.
func (pv *PageViewport) HalfPageDown() {
	if pv.ready {
		pv.viewport.HalfViewDown()
	}
}

// HalfPageUp scrolls up half a page.
func (pv *PageViewport) HalfPageUp() {
	if pv.ready {
		pv.viewport.HalfViewUp()
	}
}

// LineDown scrolls down n lines.
func (pv *PageViewport) LineDown(n int) {
	if pv.ready {
		pv.viewport.LineDown(n)
	}
}

// LineUp scrolls up n lines.
func (pv *PageViewport) LineUp(n int) {
	if pv.ready {
		pv.viewport.LineUp(n)
	}
}

// GotoTop scrolls to the top.
func (pv *PageViewport) GotoTop() {
	if pv.ready {
		pv.viewport.GotoTop()
	}
}

// GotoBottom scrolls to the bottom.
func (pv *PageViewport) GotoBottom() {
	if pv.ready {
		pv.viewport.GotoBottom()
	}
}

// YOffset returns the first visible line.
func (pv *PageViewport) YOffset() int {
	if !pv.ready {
		return 0
	}
	return pv.viewport.YOffset
}

// Ready reports whether the viewport has been initialized.
func (pv *PageViewport) Ready() bool {
	return pv.ready
}

// Width returns the viewport width.
func (pv *PageViewport) Width() int {
	if !pv.ready {
		return 0
	}
	return pv.viewport.Width
}

const logo = `
   __                                       __
  / _|_ __ __ _ _ __ ___   ___  ___ _   _ _ _/ _|
 | |_| '__/ _' | '_ ' _ \ / _ \/ __| | | | '__| |_
 |  _| | | (_| | | | | | |  __/\__ \ |_| | |  |  _|
 |_| |_|  \__,_|_| |_| |_|\___||___/\__,_|_|  |_|
`

// renderWelcome is shown until the first page or listing arrives.
func (pv *PageViewport) renderWelcome() string {
	t := theme.Current
	parts := []string{
		lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Render(logo),
		lipgloss.NewStyle().Foreground(t.TextDim).
			Render("  Pages are fetched through the gateway and shown in a sandboxed frame"),
	}
	if pv.keys != nil {
		h := help.New()
		h.ShortSeparator = "  ·  "
		h.Styles.ShortKey = lipgloss.NewStyle().Bold(true).Foreground(t.Secondary)
		h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(t.Text)
		parts = append(parts, "", "  "+h.ShortHelpView(pv.keys.ShortHelp()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
