package theme

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the colour set shared by the chrome and the plain renderer.
type Theme struct {
	Name string
	// Glamour names the glamour standard style used for page bodies.
	Glamour string

	Primary, Secondary, Accent lipgloss.Color
	Text, TextDim, TextBright  lipgloss.Color
	Background, Surface        lipgloss.Color
	Border, BorderFocus        lipgloss.Color

	Link, LinkIndex lipgloss.Color
	Heading, Quote  lipgloss.Color
	Code, CodeBg    lipgloss.Color

	Error, Success, Warning, Info lipgloss.Color
	Selected, Muted               lipgloss.Color
}

// palette holds the base colours of a theme. build derives the rest.
type palette struct {
	primary, secondary, accent string
	text, dim, bright          string
	bg, surface, border        string
	link, heading, code        string
	red, green                 string
}

func build(name, glamour string, p palette) Theme {
	c := func(hex string) lipgloss.Color { return lipgloss.Color(hex) }
	return Theme{
		Name:        name,
		Glamour:     glamour,
		Primary:     c(p.primary),
		Secondary:   c(p.secondary),
		Accent:      c(p.accent),
		Text:        c(p.text),
		TextDim:     c(p.dim),
		TextBright:  c(p.bright),
		Background:  c(p.bg),
		Surface:     c(p.surface),
		Border:      c(p.border),
		BorderFocus: c(p.primary),
		Link:        c(p.link),
		LinkIndex:   c(p.accent),
		Heading:     c(p.heading),
		Quote:       c(p.dim),
		Code:        c(p.code),
		CodeBg:      c(p.surface),
		Error:       c(p.red),
		Success:     c(p.green),
		Warning:     c(p.accent),
		Info:        c(p.link),
		Selected:    c(p.primary),
		Muted:       c(p.border),
	}
}

// Default is the theme active at startup.
var Default = build("default", "dark", palette{
	"#7C3AED", "#06B6D4", "#F59E0B",
	"#E2E8F0", "#64748B", "#F8FAFC",
	"#0F172A", "#1E293B", "#334155",
	"#38BDF8", "#A78BFA", "#34D399",
	"#EF4444", "#22C55E",
})

var themes = map[string]Theme{
	"default": Default,
	"gruvbox": build("gruvbox", "dark", palette{
		"#D65D0E", "#458588", "#FABD2F",
		"#EBDBB2", "#928374", "#FBF1C7",
		"#282828", "#3C3836", "#504945",
		"#83A598", "#FB4934", "#B8BB26",
		"#FB4934", "#B8BB26",
	}),
	"catppuccin": build("catppuccin", "dark", palette{
		"#CBA6F7", "#89DCEB", "#F9E2AF",
		"#CDD6F4", "#6C7086", "#F5E0DC",
		"#1E1E2E", "#313244", "#45475A",
		"#89B4FA", "#CBA6F7", "#A6E3A1",
		"#F38BA8", "#A6E3A1",
	}),
	"nord": build("nord", "dark", palette{
		"#88C0D0", "#81A1C1", "#EBCB8B",
		"#ECEFF4", "#4C566A", "#ECEFF4",
		"#2E3440", "#3B4252", "#434C5E",
		"#88C0D0", "#81A1C1", "#A3BE8C",
		"#BF616A", "#A3BE8C",
	}),
	"dracula": build("dracula", "dracula", palette{
		"#BD93F9", "#8BE9FD", "#F1FA8C",
		"#F8F8F2", "#6272A4", "#F8F8F2",
		"#282A36", "#44475A", "#6272A4",
		"#8BE9FD", "#FF79C6", "#50FA7B",
		"#FF5555", "#50FA7B",
	}),
	"solarized": build("solarized", "dark", palette{
		"#268BD2", "#2AA198", "#B58900",
		"#839496", "#586E75", "#FDF6E3",
		"#002B36", "#073642", "#586E75",
		"#268BD2", "#CB4B16", "#859900",
		"#DC322F", "#859900",
	}),
	"tokyonight": build("tokyonight", "tokyo-night", palette{
		"#7AA2F7", "#7DCFFF", "#E0AF68",
		"#C0CAF5", "#565F89", "#C0CAF5",
		"#1A1B26", "#24283B", "#3B4261",
		"#7DCFFF", "#BB9AF7", "#9ECE6A",
		"#F7768E", "#9ECE6A",
	}),
	"light": build("light", "light", palette{
		"#6D28D9", "#0E7490", "#B45309",
		"#1E293B", "#64748B", "#0F172A",
		"#F8FAFC", "#E2E8F0", "#CBD5E1",
		"#1D4ED8", "#7C3AED", "#047857",
		"#B91C1C", "#15803D",
	}),
}

// Current is the active theme.
var Current = Default

// Set changes the active theme by name.
func Set(name string) bool {
	t, ok := Get(name)
	if ok {
		Current = t
	}
	return ok
}

// Get looks up a theme by name, ignoring case.
func Get(name string) (Theme, bool) {
	t, ok := themes[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// List returns all available theme names in sorted order.
func List() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Next returns the theme that follows the current one in List order.
func Next() string {
	names := List()
	for i, n := range names {
		if n == Current.Name {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}
