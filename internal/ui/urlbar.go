package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/vidyasagar/framesurf/internal/theme"
)

// URLBar is the address input at the top of the browser. Besides the text
// input it shows back/forward availability and a spinner while loading.
type URLBar struct {
	input   textinput.Model
	spinner spinner.Model
	active  bool
	width   int

	canBack    bool
	canForward bool
	loading    bool
}

// NewURLBar creates a new URL bar.
func NewURLBar() URLBar {
	ti := textinput.New()
	ti.Placeholder = "Enter a URL (https:// is added when missing)"
	ti.CharLimit = 2048
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	return URLBar{
		input:   ti,
		spinner: sp,
	}
}

// SetWidth updates the URL bar width.
func (u *URLBar) SetWidth(w int) {
	u.width = w
	u.input.Width = w - 14 // prompt, nav arrows and padding
}

// SetNav records whether back and forward are currently possible.
func (u *URLBar) SetNav(canBack, canForward bool) {
	u.canBack = canBack
	u.canForward = canForward
}

// SetLoading toggles the spinner. The returned command starts it ticking.
func (u *URLBar) SetLoading(loading bool) tea.Cmd {
	was := u.loading
	u.loading = loading
	if loading && !was {
		return u.spinner.Tick
	}
	return nil
}

// Focus activates the URL bar for input.
func (u *URLBar) Focus() tea.Cmd {
	u.active = true
	return u.input.Focus()
}

// Blur deactivates the URL bar.
func (u *URLBar) Blur() {
	u.active = false
	u.input.Blur()
}

// IsActive reports whether the URL bar is focused.
func (u *URLBar) IsActive() bool {
	return u.active
}

// Value returns the current input text.
func (u *URLBar) Value() string {
	return u.input.Value()
}

// SetValue sets the URL bar text.
func (u *URLBar) SetValue(s string) {
	u.input.SetValue(s)
}

// Reset clears the URL bar.
func (u *URLBar) Reset() {
	u.input.Reset()
}

// Update handles key input while focused and spinner ticks while loading.
func (u *URLBar) Update(msg tea.Msg) (*URLBar, tea.Cmd) {
	if tick, ok := msg.(spinner.TickMsg); ok {
		if !u.loading {
			return u, nil
		}
		var cmd tea.Cmd
		u.spinner, cmd = u.spinner.Update(tick)
		return u, cmd
	}
	if !u.active {
		return u, nil
	}
	var cmd tea.Cmd
	u.input, cmd = u.input.Update(msg)
	return u, cmd
}

// View renders the URL bar.
func (u *URLBar) View() string {
	t := theme.Current

	border := t.Border
	fg := t.TextDim
	if u.active {
		border = t.BorderFocus
		fg = t.Text
	}
	barStyle := lipgloss.NewStyle().
		Foreground(fg).
		Background(t.Surface).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(u.width - 2)

	on := lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	off := lipgloss.NewStyle().Foreground(t.Muted)

	arrow := func(s string, enabled bool) string {
		if enabled {
			return on.Render(s)
		}
		return off.Render(s)
	}

	prompt := on.Render(" ")
	if u.loading {
		prompt = lipgloss.NewStyle().Foreground(t.Warning).Render(u.spinner.View())
	}

	content := arrow("◀", u.canBack) + " " + arrow("▶", u.canForward) + "  " +
		prompt + " " + u.input.View()

	return barStyle.Render(content)
}
