package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/framesurf/internal/browser"
	"github.com/vidyasagar/framesurf/internal/theme"
)

// HistoryPanel shows the controller's history as a table. The entry the
// controller points at is marked with a dot.
type HistoryPanel struct {
	table   table.Model
	entries []browser.HistoryEntry
	visible bool
	width   int
	height  int
}

// NewHistoryPanel creates a hidden, empty panel.
func NewHistoryPanel() HistoryPanel {
	return HistoryPanel{table: table.New(table.WithFocused(true))}
}

// SetEntries replaces the rows and selects the current entry.
func (hp *HistoryPanel) SetEntries(entries []browser.HistoryEntry, current int) {
	hp.entries = entries
	rows := make([]table.Row, len(entries))
	for i, e := range entries {
		mark := " "
		if i == current {
			mark = "●"
		}
		title := e.Title
		if title == "" {
			title = e.URL
		}
		rows[i] = table.Row{mark, title, e.URL}
	}
	hp.table.SetRows(rows)
	if current < 0 || current >= len(entries) {
		current = 0
	}
	hp.table.SetCursor(current)
}

// SetSize splits the width between the title and URL columns.
func (hp *HistoryPanel) SetSize(w, h int) {
	hp.width, hp.height = w, h
	// Each cell is padded by one column on both sides.
	avail := max(w-6-1, 2)
	title := avail * 2 / 5
	hp.table.SetColumns([]table.Column{
		{Title: "", Width: 1},
		{Title: "Title", Width: title},
		{Title: "URL", Width: avail - title},
	})
	hp.table.SetWidth(w)
	hp.table.SetHeight(max(h-2, 1))
}

func (hp *HistoryPanel) Show()           { hp.visible = true }
func (hp *HistoryPanel) Hide()           { hp.visible = false }
func (hp *HistoryPanel) IsVisible() bool { return hp.visible }

// Update moves the selection with the table's vim-style keys.
func (hp *HistoryPanel) Update(msg tea.KeyMsg) {
	hp.table, _ = hp.table.Update(msg)
}

// SelectedEntry returns the entry under the cursor, or nil if empty.
func (hp *HistoryPanel) SelectedEntry() *browser.HistoryEntry {
	i := hp.table.Cursor()
	if i < 0 || i >= len(hp.entries) {
		return nil
	}
	e := hp.entries[i]
	return &e
}

// View renders the panel, or "" while hidden.
func (hp *HistoryPanel) View() string {
	if !hp.visible {
		return ""
	}
	t := theme.Current

	title := lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1).
		Render(fmt.Sprintf("History (%d)", len(hp.entries)))

	body := lipgloss.NewStyle().Foreground(t.TextDim).Padding(0, 1).
		Render("Nothing visited in this session.")
	if len(hp.entries) > 0 {
		styles := table.DefaultStyles()
		styles.Header = styles.Header.Foreground(t.Accent).BorderForeground(t.Border)
		styles.Cell = styles.Cell.Foreground(t.Text)
		styles.Selected = styles.Selected.Foreground(t.TextBright).Background(t.Selected)
		hp.table.SetStyles(styles)
		body = hp.table.View()
	}

	return lipgloss.NewStyle().Width(hp.width).Height(hp.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
}
