package ui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/framesurf/internal/theme"
)

// LeaderPanel is the popup listing what can follow the leader key. It
// draws whatever key map the app dispatches on.
type LeaderPanel struct {
	keys    help.KeyMap
	help    help.Model
	visible bool
	width   int
}

// NewLeaderPanel creates a hidden panel for keys.
func NewLeaderPanel(keys help.KeyMap) LeaderPanel {
	h := help.New()
	h.ShowAll = true
	return LeaderPanel{keys: keys, help: h}
}

func (lp *LeaderPanel) Show()           { lp.visible = true }
func (lp *LeaderPanel) Hide()           { lp.visible = false }
func (lp *LeaderPanel) IsVisible() bool { return lp.visible }

// SetSize bounds the popup to the terminal.
func (lp *LeaderPanel) SetSize(w, _ int) { lp.width = w }

// View renders the popup, or "" while hidden.
func (lp *LeaderPanel) View() string {
	if !lp.visible {
		return ""
	}
	t := theme.Current

	lp.help.Width = max(lp.width-8, 0)
	lp.help.FullSeparator = "   "
	lp.help.Styles.FullKey = lipgloss.NewStyle().Bold(true).Foreground(t.Secondary)
	lp.help.Styles.FullDesc = lipgloss.NewStyle().Foreground(t.Text)
	lp.help.Styles.FullSeparator = lipgloss.NewStyle().Foreground(t.Border)

	title := lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Render("Leader Key")
	hint := lipgloss.NewStyle().Foreground(t.TextDim).Italic(true).Render("press a key or Esc to dismiss")
	body := lipgloss.JoinVertical(lipgloss.Left, title, "", lp.help.View(lp.keys), "", hint)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2).
		Render(body)
}
