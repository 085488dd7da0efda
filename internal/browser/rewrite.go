package browser

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// MarkerAttr carries the resolved destination of an anchor alongside its live href.
const MarkerAttr = "data-proxy-href"

// tagBody matches the inside of a start tag, skipping '>' inside quoted values.
const tagBody = `(?:[^>"']|"[^"]*"|'[^']*')*>`

var (
	anchorTag = regexp.MustCompile(`(?i)<a\b` + tagBody)
	mediaTag  = regexp.MustCompile(`(?i)<(?:img|script|iframe|video|audio|source|embed)\b` + tagBody)
	linkTag   = regexp.MustCompile(`(?i)<link\b` + tagBody)
	formTag   = regexp.MustCompile(`(?i)<form\b` + tagBody)
	headTag   = regexp.MustCompile(`(?i)<head\b` + tagBody)
	startTag  = regexp.MustCompile(`(?i)<[a-z][a-z0-9-]*\b` + tagBody)
	baseTag   = regexp.MustCompile(`(?i)<base\b`)

	styleBlock = regexp.MustCompile(`(?is)(<style\b[^>]*>)(.*?)(</style\s*>)`)
	cssURL     = regexp.MustCompile(`(?i)url\(\s*(?:"([^"]*)"|'([^']*)'|([^)"'\s]*))\s*\)`)

	titleTag = regexp.MustCompile(`(?is)<title\b[^>]*>(.*?)</title\s*>`)
)

// Rewrite makes every URL-bearing construct in markup absolute against
// requestedURL, tags anchors with MarkerAttr and injects a <base> element.
// On any failure the original markup is returned untouched.
func Rewrite(markup, requestedURL string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = markup
		}
	}()

	rewritten, err := rewrite(markup, requestedURL)
	if err != nil {
		return markup
	}
	return rewritten
}

func rewrite(markup, requestedURL string) (string, error) {
	base, err := NewBase(requestedURL)
	if err != nil {
		return "", fmt.Errorf("rewrite: %w", err)
	}

	passes := []func(string) string{
		func(s string) string {
			return anchorTag.ReplaceAllStringFunc(s, func(tag string) string {
				return rewriteAnchor(tag, base)
			})
		},
		func(s string) string { return rewriteTags(s, mediaTag, "src", base) },
		func(s string) string { return rewriteTags(s, linkTag, "href", base) },
		func(s string) string { return rewriteTags(s, formTag, "action", base) },
		func(s string) string { return rewriteStyles(s, base) },
	}
	for _, pass := range passes {
		markup = pass(markup)
	}

	return injectBase(markup, requestedURL), nil
}

func rewriteTags(markup string, tag *regexp.Regexp, attr string, base Base) string {
	return tag.ReplaceAllStringFunc(markup, func(t string) string {
		out, _, _ := resolveAttr(t, attr, base)
		return out
	})
}

// rewriteAnchor resolves href and replaces any previous marker with a fresh one.
func rewriteAnchor(tag string, base Base) string {
	attrs := scanAttrs(tag)
	for i := len(attrs) - 1; i >= 0; i-- {
		if attrs[i].name == MarkerAttr {
			tag = tag[:attrs[i].start] + tag[attrs[i].end:]
		}
	}
	out, resolved, ok := resolveAttr(tag, "href", base)
	if !ok || resolved == "" {
		return out
	}
	return insertAttr(out, MarkerAttr, resolved)
}

// resolveAttr resolves the first attribute called name inside tag. The
// returned value is the resolved reference, decoded; ok is false when the
// attribute is absent or has no value.
func resolveAttr(tag, name string, base Base) (out, resolved string, ok bool) {
	a, found := findAttr(scanAttrs(tag), name)
	if !found || a.valStart < 0 {
		return tag, "", false
	}

	ref := strings.TrimSpace(html.UnescapeString(tag[a.valStart:a.valEnd]))
	resolved = Resolve(ref, base)
	if resolved == ref {
		return tag, resolved, true
	}
	val := html.EscapeString(resolved)
	if a.quote == 0 {
		val = `"` + val + `"`
	}
	return tag[:a.valStart] + val + tag[a.valEnd:], resolved, true
}

func insertAttr(tag, name, value string) string {
	end := len(tag) - 1
	if end > 0 && tag[end-1] == '/' {
		end--
	}
	return tag[:end] + " " + name + `="` + html.EscapeString(value) + `"` + tag[end:]
}

// rewriteStyles resolves url(...) references in <style> blocks and style attributes.
func rewriteStyles(markup string, base Base) string {
	markup = styleBlock.ReplaceAllStringFunc(markup, func(block string) string {
		m := styleBlock.FindStringSubmatch(block)
		return m[1] + rewriteCSSURLs(m[2], base) + m[3]
	})
	return startTag.ReplaceAllStringFunc(markup, func(tag string) string {
		attrs := scanAttrs(tag)
		for i := len(attrs) - 1; i >= 0; i-- {
			a := attrs[i]
			if a.name != "style" || a.quote == 0 {
				continue
			}
			tag = tag[:a.valStart] + rewriteCSSURLs(tag[a.valStart:a.valEnd], base) + tag[a.valEnd:]
		}
		return tag
	})
}

func rewriteCSSURLs(css string, base Base) string {
	return cssURL.ReplaceAllStringFunc(css, func(match string) string {
		m := cssURL.FindStringSubmatchIndex(match)
		var ref, quote string
		switch {
		case m[2] >= 0:
			ref, quote = match[m[2]:m[3]], `"`
		case m[4] >= 0:
			ref, quote = match[m[4]:m[5]], "'"
		default:
			ref = match[m[6]:m[7]]
		}
		ref = strings.TrimSpace(ref)
		if hasPrefixFold(ref, "data:") {
			return match
		}
		resolved := Resolve(ref, base)
		if resolved == ref {
			return match
		}
		return "url(" + quote + resolved + quote + ")"
	})
}

// injectBase adds <base href> right after the opening head tag unless the
// document already declares one.
func injectBase(markup, requestedURL string) string {
	if baseTag.MatchString(markup) {
		return markup
	}
	loc := headTag.FindStringIndex(markup)
	if loc == nil {
		return markup
	}
	tag := `<base href="` + html.EscapeString(requestedURL) + `">`
	return markup[:loc[1]] + tag + markup[loc[1]:]
}

// ExtractTitle returns the trimmed, entity-decoded text of the first <title>
// element. ok is false when the markup has none.
func ExtractTitle(markup string) (title string, ok bool) {
	m := titleTag.FindStringSubmatch(markup)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(html.UnescapeString(m[1])), true
}
