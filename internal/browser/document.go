package browser

import (
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is the isolated surface a rewritten page is displayed in. It is
// built from markup only, never from a live URL, and becomes inaccessible once
// closed.
type Document struct {
	mu     sync.RWMutex
	dom    *goquery.Document
	url    string
	base   Base
	title  string
	closed bool
}

// NewDocument parses rewritten markup for the page at pageURL.
func NewDocument(markup, pageURL string) (*Document, error) {
	dom, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}

	base, err := NewBase(pageURL)
	if err != nil {
		return nil, fmt.Errorf("document base: %w", err)
	}
	// A declared <base> wins over the page URL, like in a browser.
	if href, ok := dom.Find("base[href]").First().Attr("href"); ok {
		if b, err := NewBase(Resolve(strings.TrimSpace(href), base)); err == nil {
			base = b
		}
	}

	title, _ := ExtractTitle(markup)
	return &Document{dom: dom, url: pageURL, base: base, title: title}, nil
}

// URL returns the page URL the document was built for.
func (d *Document) URL() string { return d.url }

// Title returns the page title, empty when absent.
func (d *Document) Title() string { return d.title }

// Base returns the context relative references in the document resolve against.
func (d *Document) Base() Base { return d.base }

// Accessible reports whether the document content can still be read.
func (d *Document) Accessible() bool {
	if d == nil {
		return false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return !d.closed && d.dom != nil
}

// Close detaches the content. Later reads see an inaccessible document.
func (d *Document) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.dom = nil
}

// Selection returns the document root, or nil when inaccessible.
func (d *Document) Selection() *goquery.Selection {
	if d == nil {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed || d.dom == nil {
		return nil
	}
	return d.dom.Selection
}

// Anchors returns every <a> element in document order.
func (d *Document) Anchors() []*html.Node {
	sel := d.Selection()
	if sel == nil {
		return nil
	}
	return sel.Find("a").Nodes
}

// Markup serializes the current document content.
func (d *Document) Markup() (string, error) {
	sel := d.Selection()
	if sel == nil {
		return "", fmt.Errorf("document %s is closed", d.url)
	}
	return goquery.OuterHtml(sel)
}
