package browser

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNoBase is returned when a page URL cannot serve as a resolution base.
var ErrNoBase = errors.New("url has no scheme or host")

// Base is the resolution context derived from the URL a page was requested with.
// It lives for a single rewrite pass.
type Base struct {
	Origin    string // scheme://host[:port]
	Protocol  string // "https:"
	Directory string // everything up to and including the last "/" of the path

	doc *url.URL
	dir *url.URL
}

// NewBase derives a Base from an absolute page URL.
func NewBase(rawURL string) (Base, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Base{}, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Base{}, fmt.Errorf("%q: %w", rawURL, ErrNoBase)
	}

	dirPath := u.EscapedPath()
	if i := strings.LastIndex(dirPath, "/"); i >= 0 {
		dirPath = dirPath[:i+1]
	} else {
		dirPath = "/"
	}

	origin := u.Scheme + "://" + u.Host
	dir, err := url.Parse(origin + dirPath)
	if err != nil {
		return Base{}, fmt.Errorf("parsing base directory: %w", err)
	}

	return Base{
		Origin:    origin,
		Protocol:  u.Scheme + ":",
		Directory: dir.String(),
		doc:       u,
		dir:       dir,
	}, nil
}

// Resolve turns ref into an absolute URL relative to base. Non-navigable and
// self-referential references pass through untouched, as does anything that
// fails to parse.
func Resolve(ref string, base Base) string {
	switch {
	case ref == "",
		hasPrefixFold(ref, "data:"),
		hasPrefixFold(ref, "javascript:"),
		strings.HasPrefix(ref, "#"):
		return ref
	case hasPrefixFold(ref, "http://"), hasPrefixFold(ref, "https://"):
		return ref
	case strings.HasPrefix(ref, "//"):
		return base.Protocol + ref
	case strings.HasPrefix(ref, "/"):
		return base.Origin + ref
	}

	if base.dir == nil {
		return ref
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	// A query-only reference keeps the document's own path.
	if strings.HasPrefix(ref, "?") && base.doc != nil {
		return base.doc.ResolveReference(rel).String()
	}
	return base.dir.ResolveReference(rel).String()
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
