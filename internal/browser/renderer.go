package browser

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vidyasagar/framesurf/internal/theme"
)

// RenderMode selects how a Document is drawn.
type RenderMode int

const (
	// RenderGlamour builds markdown and styles it with glamour.
	RenderGlamour RenderMode = iota
	// RenderPlain styles text directly with lipgloss.
	RenderPlain
)

// Link is a numbered, followable anchor in a rendered page.
type Link struct {
	Index int
	Text  string
	URL   string
	Node  *html.Node // anchor element inside the source Document
}

// RenderedPage holds the final terminal-ready output.
type RenderedPage struct {
	Title   string
	Content string
	Links   []Link
}

// Link returns the link numbered n, if any.
func (p *RenderedPage) Link(n int) (Link, bool) {
	if n < 1 || n > len(p.Links) {
		return Link{}, false
	}
	return p.Links[n-1], true
}

func contentWidth(width int) int {
	if width <= 0 {
		width = 80
	}
	return min(width-4, 100)
}

// Render walks doc once. Every followable anchor is numbered in document
// order and keeps a pointer to its node, so following link n is the same
// as clicking that element.
func Render(doc *Document, width int, mode RenderMode) *RenderedPage {
	page := &RenderedPage{Title: doc.Title()}
	root := doc.Selection()
	if root == nil {
		return page
	}
	body := root.Find("body")
	if body.Length() == 0 {
		body = root
	}

	cw := contentWidth(width)
	w := &walker{base: doc.Base()}
	if mode == RenderPlain {
		w.ink = plainInk{width: cw}
	} else {
		w.ink = markdownInk{width: cw}
	}

	w.out.WriteString(w.ink.title(page.Title))
	for _, n := range body.Nodes {
		w.children(n, 0)
	}
	page.Content = w.ink.finish(w.out.String())
	page.Links = w.links
	return page
}

type walker struct {
	base  Base
	ink   ink
	links []Link
	out   strings.Builder
}

// children emits n's children as blocks. Inline runs between blocks are
// gathered into one paragraph.
func (w *walker) children(n *html.Node, depth int) {
	var run strings.Builder
	flush := func() {
		if text := strings.TrimSpace(run.String()); text != "" {
			w.out.WriteString(w.ink.paragraph(text))
		}
		run.Reset()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && blockTags[c.DataAtom] {
			flush()
			w.block(c, depth)
			continue
		}
		w.inline(c, &run)
	}
	flush()
}

func (w *walker) block(n *html.Node, depth int) {
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		if text := w.inlineText(n); text != "" {
			w.out.WriteString(w.ink.heading(int(n.Data[1]-'0'), text))
		}
	case atom.P, atom.Dt, atom.Dd, atom.Summary:
		if text := w.inlineText(n); text != "" {
			w.out.WriteString(w.ink.paragraph(text))
		}
	case atom.Figcaption:
		if text := w.inlineText(n); text != "" {
			w.out.WriteString(w.ink.paragraph(w.ink.em(text)))
		}
	case atom.Ul, atom.Ol:
		w.list(n, depth)
		if depth == 0 {
			w.out.WriteString("\n")
		}
	case atom.Blockquote:
		inner := &walker{base: w.base, ink: w.ink, links: w.links}
		inner.children(n, 0)
		w.links = inner.links
		if body := strings.TrimSpace(inner.out.String()); body != "" {
			w.out.WriteString(w.ink.quote(body))
		}
	case atom.Pre:
		w.out.WriteString(w.ink.codeBlock(codeLanguage(n), nodeText(n)))
	case atom.Hr:
		w.out.WriteString(w.ink.rule())
	case atom.Table:
		if rows := w.tableRows(n); len(rows) > 0 {
			w.out.WriteString(w.ink.table(rows))
		}
	default:
		w.children(n, depth)
	}
}

func (w *walker) list(n *html.Node, depth int) {
	ordered := n.DataAtom == atom.Ol
	num := 0
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.DataAtom != atom.Li {
			continue
		}
		num++
		var text strings.Builder
		var nested []*html.Node
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.DataAtom == atom.Ul || c.DataAtom == atom.Ol {
				nested = append(nested, c)
				continue
			}
			w.inline(c, &text)
		}
		w.out.WriteString(w.ink.item(ordered, num, depth, strings.TrimSpace(text.String())))
		for _, sub := range nested {
			w.list(sub, depth+1)
		}
	}
}

// tableRows collects cell text row by row. Nested tables are skipped and
// short rows are padded to the widest one.
func (w *walker) tableRows(n *html.Node) [][]string {
	var rows [][]string
	var visit func(*html.Node)
	visit = func(p *html.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			switch c.DataAtom {
			case atom.Table:
			case atom.Tr:
				var row []string
				for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.DataAtom == atom.Td || cell.DataAtom == atom.Th {
						row = append(row, w.inlineText(cell))
					}
				}
				rows = append(rows, row)
			default:
				visit(c)
			}
		}
	}
	visit(n)

	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	if cols == 0 {
		return nil
	}
	for i := range rows {
		for len(rows[i]) < cols {
			rows[i] = append(rows[i], "")
		}
	}
	return rows
}

func (w *walker) inlineText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.inline(c, &sb)
	}
	return strings.TrimSpace(sb.String())
}

func (w *walker) inline(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(squashSpace(n.Data))
		return
	case html.ElementNode:
	default:
		return
	}
	if hiddenTags[n.DataAtom] {
		return
	}

	switch n.DataAtom {
	case atom.A:
		w.anchor(n, sb)
	case atom.Strong, atom.B:
		if text := w.inlineText(n); text != "" {
			sb.WriteString(w.ink.strong(text))
		}
	case atom.Em, atom.I:
		if text := w.inlineText(n); text != "" {
			sb.WriteString(w.ink.em(text))
		}
	case atom.Code, atom.Kbd, atom.Samp:
		sb.WriteString(w.ink.code(nodeText(n)))
	case atom.Br:
		sb.WriteString(w.ink.lineBreak())
	case atom.Img:
		alt := strings.TrimSpace(attrOf(n, "alt"))
		if alt == "" {
			alt = "image"
		}
		sb.WriteString(w.ink.image(alt, attrOf(n, "src")))
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.inline(c, sb)
		}
	}
}

// anchor records a followable anchor as the next numbered link. Anchors
// that cannot be followed render as their text.
func (w *walker) anchor(n *html.Node, sb *strings.Builder) {
	dest := anchorDestination(n, w.base)
	label := strings.Join(strings.Fields(nodeText(n)), " ")
	if label == "" {
		label = dest
	}
	if !followable(dest) {
		sb.WriteString(label)
		return
	}
	l := Link{Index: len(w.links) + 1, Text: label, URL: dest, Node: n}
	w.links = append(w.links, l)
	sb.WriteString(w.ink.link(l))
}

// anchorDestination is where anchor n leads: the marker attribute when
// present, else its href resolved against base.
func anchorDestination(n *html.Node, base Base) string {
	if dest := strings.TrimSpace(attrOf(n, MarkerAttr)); dest != "" {
		return dest
	}
	return Resolve(strings.TrimSpace(attrOf(n, "href")), base)
}

// followable is false for empty, fragment-only and javascript: targets.
func followable(dest string) bool {
	return dest != "" && !strings.HasPrefix(dest, "#") && !hasPrefixFold(dest, "javascript:")
}

var blockTags = map[atom.Atom]bool{
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.P: true, atom.Ul: true, atom.Ol: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.Blockquote: true, atom.Pre: true, atom.Hr: true, atom.Table: true,
	atom.Div: true, atom.Article: true, atom.Section: true, atom.Main: true,
	atom.Header: true, atom.Footer: true, atom.Nav: true, atom.Aside: true,
	atom.Figure: true, atom.Figcaption: true, atom.Form: true, atom.Center: true,
	atom.Details: true, atom.Summary: true,
}

var hiddenTags = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Template: true,
	atom.Iframe: true, atom.Svg: true, atom.Head: true, atom.Input: true,
	atom.Button: true, atom.Select: true, atom.Textarea: true,
}

func attrOf(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// nodeText concatenates the visible text under n without collapsing space.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(p *html.Node) {
		if p.Type == html.TextNode {
			sb.WriteString(p.Data)
			return
		}
		if p.Type == html.ElementNode && hiddenTags[p.DataAtom] {
			return
		}
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return sb.String()
}

// squashSpace collapses runs of whitespace to one space, keeping a single
// space at either edge so adjacent inline nodes stay separated.
func squashSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s == "" {
			return ""
		}
		return " "
	}
	out := strings.Join(fields, " ")
	if strings.TrimLeft(s, " \t\r\n\f") != s {
		out = " " + out
	}
	if strings.TrimRight(s, " \t\r\n\f") != s {
		out += " "
	}
	return out
}

func codeLanguage(pre *html.Node) string {
	for c := pre.FirstChild; c != nil; c = c.NextSibling {
		if c.DataAtom != atom.Code {
			continue
		}
		for _, class := range strings.Fields(attrOf(c, "class")) {
			if lang, ok := strings.CutPrefix(class, "language-"); ok {
				return lang
			}
		}
	}
	return ""
}

// ink turns the walker's structure into terminal text.
type ink interface {
	title(text string) string
	heading(level int, text string) string
	paragraph(text string) string
	item(ordered bool, num, depth int, text string) string
	quote(body string) string
	codeBlock(lang, code string) string
	rule() string
	table(rows [][]string) string
	strong(text string) string
	em(text string) string
	code(text string) string
	image(alt, src string) string
	link(l Link) string
	lineBreak() string
	finish(out string) string
}

// markdownInk writes markdown and hands the result to glamour.
type markdownInk struct{ width int }

func (markdownInk) title(text string) string {
	if text == "" {
		return "---\n\n"
	}
	return "# " + text + "\n\n---\n\n"
}

func (markdownInk) heading(level int, text string) string {
	return strings.Repeat("#", level) + " " + text + "\n\n"
}

func (markdownInk) paragraph(text string) string { return text + "\n\n" }

func (markdownInk) item(ordered bool, num, depth int, text string) string {
	indent := strings.Repeat("  ", depth)
	if ordered {
		return fmt.Sprintf("%s%d. %s\n", indent, num, text)
	}
	return indent + "- " + text + "\n"
}

func (markdownInk) quote(body string) string {
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight("> "+l, " ")
	}
	return strings.Join(lines, "\n") + "\n\n"
}

func (markdownInk) codeBlock(lang, code string) string {
	return "```" + lang + "\n" + strings.TrimRight(code, "\n") + "\n```\n\n"
}

func (markdownInk) rule() string { return "---\n\n" }

func (markdownInk) table(rows [][]string) string {
	var sb strings.Builder
	writeRow := func(cells []string) {
		escaped := make([]string, len(cells))
		for i, c := range cells {
			escaped[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		sb.WriteString("| " + strings.Join(escaped, " | ") + " |\n")
	}
	writeRow(rows[0])
	sep := make([]string, len(rows[0]))
	for i := range sep {
		sep[i] = "---"
	}
	sb.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, r := range rows[1:] {
		writeRow(r)
	}
	sb.WriteString("\n")
	return sb.String()
}

func (markdownInk) strong(text string) string { return "**" + text + "**" }
func (markdownInk) em(text string) string     { return "*" + text + "*" }
func (markdownInk) code(text string) string   { return "`" + text + "`" }
func (markdownInk) lineBreak() string         { return "  \n" }

func (markdownInk) image(alt, src string) string {
	return fmt.Sprintf("![%s](%s)", alt, src)
}

func (markdownInk) link(l Link) string {
	return fmt.Sprintf("[%s](%s) **[%d]**", l.Text, l.URL, l.Index)
}

// finish falls back to the raw markdown if glamour fails.
func (m markdownInk) finish(out string) string {
	r, err := glamourFor(m.width, theme.Current.Glamour)
	if err != nil {
		return out
	}
	rendered, err := r.Render(out)
	if err != nil {
		return out
	}
	return rendered
}

// One glamour renderer is kept and rebuilt when the width or style changes.
var glamourCache struct {
	sync.Mutex
	r     *glamour.TermRenderer
	width int
	style string
}

func glamourFor(width int, style string) (*glamour.TermRenderer, error) {
	glamourCache.Lock()
	defer glamourCache.Unlock()
	if glamourCache.r != nil && glamourCache.width == width && glamourCache.style == style {
		return glamourCache.r, nil
	}
	opt := glamour.WithAutoStyle()
	if style != "" {
		opt = glamour.WithStandardStyle(style)
	}
	r, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(width))
	if err != nil {
		return nil, err
	}
	glamourCache.r, glamourCache.width, glamourCache.style = r, width, style
	return r, nil
}

// plainInk styles text with lipgloss and the active theme.
type plainInk struct{ width int }

func (p plainInk) title(text string) string {
	if text == "" {
		return p.rule()
	}
	st := lipgloss.NewStyle().Bold(true).Foreground(theme.Current.Heading)
	return st.Render(text) + "\n\n" + p.rule()
}

func (plainInk) heading(level int, text string) string {
	st := lipgloss.NewStyle().Bold(true).Foreground(theme.Current.Heading)
	if level == 1 {
		return st.Underline(true).Render(text) + "\n\n"
	}
	return st.Render(strings.Repeat("#", min(level, 4))+" "+text) + "\n\n"
}

func (p plainInk) paragraph(text string) string {
	return lipgloss.NewStyle().Foreground(theme.Current.Text).Width(p.width).Render(text) + "\n\n"
}

func (plainInk) item(ordered bool, num, depth int, text string) string {
	bullet := "• "
	if ordered {
		bullet = fmt.Sprintf("%d. ", num)
	}
	prefix := lipgloss.NewStyle().Foreground(theme.Current.Accent).
		Render(strings.Repeat("  ", depth+1) + bullet)
	return prefix + lipgloss.NewStyle().Foreground(theme.Current.Text).Render(text) + "\n"
}

func (plainInk) quote(body string) string {
	return lipgloss.NewStyle().
		Foreground(theme.Current.Quote).
		Italic(true).
		PaddingLeft(2).
		BorderLeft(true).
		BorderStyle(lipgloss.ThickBorder()).
		BorderForeground(theme.Current.Accent).
		Render(body) + "\n\n"
}

func (p plainInk) codeBlock(_, code string) string {
	return lipgloss.NewStyle().
		Foreground(theme.Current.Code).
		Background(theme.Current.CodeBg).
		Padding(1, 2).
		Width(p.width).
		Render(strings.TrimRight(code, "\n")) + "\n\n"
}

func (p plainInk) rule() string {
	return lipgloss.NewStyle().Foreground(theme.Current.Border).
		Render(strings.Repeat("─", min(p.width, 60))) + "\n\n"
}

func (plainInk) table(rows [][]string) string {
	head := lipgloss.NewStyle().Bold(true).Foreground(theme.Current.Heading).Padding(0, 1)
	cell := lipgloss.NewStyle().Foreground(theme.Current.Text).Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Current.Border)).
		Headers(rows[0]...).
		Rows(rows[1:]...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return head
			}
			return cell
		})
	return t.Render() + "\n\n"
}

func (plainInk) strong(text string) string { return lipgloss.NewStyle().Bold(true).Render(text) }
func (plainInk) em(text string) string     { return lipgloss.NewStyle().Italic(true).Render(text) }
func (plainInk) lineBreak() string         { return "\n" }

func (plainInk) code(text string) string {
	return lipgloss.NewStyle().
		Foreground(theme.Current.Code).
		Background(theme.Current.CodeBg).
		Render(text)
}

func (plainInk) image(alt, _ string) string {
	return lipgloss.NewStyle().Foreground(theme.Current.TextDim).Italic(true).Render("[IMG: " + alt + "]")
}

func (plainInk) link(l Link) string {
	text := lipgloss.NewStyle().Foreground(theme.Current.Link).Underline(true).Render(l.Text)
	index := lipgloss.NewStyle().Foreground(theme.Current.LinkIndex).Bold(true).Render(fmt.Sprintf(" [%d]", l.Index))
	return text + index
}

func (plainInk) finish(out string) string { return out }
