package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/framesurf/internal/theme"
)

// CommandType identifies what the command bar is collecting.
type CommandType int

const (
	CommandNone   CommandType = iota
	CommandEx                 // : commands
	CommandSearch             // / search
	CommandFollow             // f link number
)

var prompts = map[CommandType][2]string{
	CommandEx:     {":", "command..."},
	CommandSearch: {"/", "search..."},
	CommandFollow: {"f", "link #..."},
}

// CommandResult is what the bar held when Enter was pressed.
type CommandResult struct {
	Type  CommandType
	Value string
}

// CommandBar is the one-line prompt under the status bar. In : mode Tab
// accepts the suggested command name and Up/Down recall earlier commands.
type CommandBar struct {
	input  textinput.Model
	kind   CommandType
	width  int
	recall []string
	pos    int // index into recall from the newest, -1 when not recalling
}

func NewCommandBar() CommandBar {
	ti := textinput.New()
	ti.CharLimit = 256
	return CommandBar{input: ti, pos: -1}
}

func (c *CommandBar) SetWidth(w int) {
	c.width = w
	c.input.Width = w - 4
}

// SetCommands sets the names suggested in : mode.
func (c *CommandBar) SetCommands(names []string) {
	c.input.SetSuggestions(names)
}

// Open activates the bar for kind and focuses the input.
func (c *CommandBar) Open(kind CommandType) tea.Cmd {
	c.kind = kind
	c.pos = -1
	c.input.Reset()
	p := prompts[kind]
	c.input.Prompt, c.input.Placeholder = p[0], p[1]
	c.input.ShowSuggestions = kind == CommandEx
	return c.input.Focus()
}

func (c *CommandBar) Close() {
	c.kind = CommandNone
	c.input.Blur()
	c.input.Reset()
}

func (c *CommandBar) IsActive() bool    { return c.kind != CommandNone }
func (c *CommandBar) Type() CommandType { return c.kind }

func (c *CommandBar) SetValue(val string) {
	c.input.SetValue(val)
	c.input.CursorEnd()
}

// Submit closes the bar and returns its trimmed value. Non-empty :
// commands are kept for recall.
func (c *CommandBar) Submit() CommandResult {
	res := CommandResult{Type: c.kind, Value: strings.TrimSpace(c.input.Value())}
	if res.Value != "" && c.kind == CommandEx {
		c.recall = append(c.recall, res.Value)
	}
	c.Close()
	return res
}

// Update feeds a message to the input. Enter is left to the caller.
func (c *CommandBar) Update(msg tea.Msg) (*CommandBar, tea.Cmd) {
	if !c.IsActive() {
		return c, nil
	}
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.Type {
		case tea.KeyEsc:
			c.Close()
			return c, nil
		case tea.KeyEnter:
			return c, nil
		case tea.KeyUp, tea.KeyDown:
			if c.kind == CommandEx {
				c.step(k.Type == tea.KeyUp)
			}
			return c, nil
		}
	}
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

// step walks the recall list, older when back is true.
func (c *CommandBar) step(back bool) {
	switch {
	case back && c.pos < len(c.recall)-1:
		c.pos++
	case !back && c.pos >= 0:
		c.pos--
	default:
		return
	}
	if c.pos < 0 {
		c.input.Reset()
		return
	}
	c.SetValue(c.recall[len(c.recall)-1-c.pos])
}

func (c *CommandBar) View() string {
	if !c.IsActive() {
		return ""
	}
	t := theme.Current
	return lipgloss.NewStyle().
		Foreground(t.Text).
		Background(t.Surface).
		Width(c.width).
		Render(c.input.View())
}
