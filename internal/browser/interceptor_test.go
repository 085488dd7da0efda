package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

type recordingNav struct {
	hrefs []string
}

func (r *recordingNav) ClickLink(href string) (*Load, bool) {
	r.hrefs = append(r.hrefs, href)
	return &Load{URL: href, Intent: IntentClick}, true
}

func mustDoc(t *testing.T, markup, pageURL string) *Document {
	t.Helper()
	doc, err := NewDocument(markup, pageURL)
	require.NoError(t, err)
	return doc
}

func node(t *testing.T, doc *Document, selector string) *html.Node {
	t.Helper()
	sel := doc.Selection().Find(selector)
	require.Equal(t, 1, sel.Length(), selector)
	return sel.Get(0)
}

func TestInterceptorFollowsMarker(t *testing.T) {
	markup := Rewrite(`<p><a id="l" href="/next">go</a></p>`, "https://a.com/dir/page")
	doc := mustDoc(t, markup, "https://a.com/dir/page")
	// Content script rewrote the live href after load.
	doc.Selection().Find("#l").SetAttr("href", "https://tracker.example/")

	nav := &recordingNav{}
	ev := &ClickEvent{Target: node(t, doc, "#l")}
	load, ok := NewInterceptor(nav, nil).Handle(doc, ev)

	require.True(t, ok)
	assert.Equal(t, "https://a.com/next", load.URL)
	assert.Equal(t, []string{"https://a.com/next"}, nav.hrefs)
	assert.True(t, ev.DefaultPrevented())
	assert.True(t, ev.PropagationStopped())
}

func TestInterceptorFallsBackToHref(t *testing.T) {
	doc := mustDoc(t, `<a id="l" href="other.html">x</a>`, "https://a.com/dir/page")
	nav := &recordingNav{}

	_, ok := NewInterceptor(nav, nil).Handle(doc, &ClickEvent{Target: node(t, doc, "#l")})
	require.True(t, ok)
	assert.Equal(t, []string{"https://a.com/dir/other.html"}, nav.hrefs)
}

func TestInterceptorUsesDeclaredBase(t *testing.T) {
	doc := mustDoc(t, `<head><base href="https://cdn.b.org/root/"></head><a id="l" href="x.html">x</a>`, "https://a.com/dir/page")
	nav := &recordingNav{}

	NewInterceptor(nav, nil).Handle(doc, &ClickEvent{Target: node(t, doc, "#l")})
	assert.Equal(t, []string{"https://cdn.b.org/root/x.html"}, nav.hrefs)
}

func TestInterceptorClosestAnchor(t *testing.T) {
	doc := mustDoc(t, Rewrite(`<a href="/deep"><span><b id="t">bold</b></span></a>`, "https://a.com/"), "https://a.com/")
	nav := &recordingNav{}

	target := node(t, doc, "#t").FirstChild // text node
	require.Equal(t, html.TextNode, target.Type)

	_, ok := NewInterceptor(nav, nil).Handle(doc, &ClickEvent{Target: target})
	require.True(t, ok)
	assert.Equal(t, []string{"https://a.com/deep"}, nav.hrefs)
}

func TestInterceptorIgnores(t *testing.T) {
	markup := Rewrite(`<a id="frag" href="#top">f</a>`+
		`<a id="js" href="javascript:void(0)">j</a>`+
		`<a id="JS" href="JavaScript:go()">J</a>`+
		`<a id="none">no href</a>`+
		`<p id="text">plain</p>`, "https://a.com/")
	doc := mustDoc(t, markup, "https://a.com/")

	for _, id := range []string{"#frag", "#js", "#JS", "#none", "#text"} {
		t.Run(id, func(t *testing.T) {
			nav := &recordingNav{}
			ev := &ClickEvent{Target: node(t, doc, id)}
			load, ok := NewInterceptor(nav, nil).Handle(doc, ev)

			assert.False(t, ok)
			assert.Nil(t, load)
			assert.Empty(t, nav.hrefs)
			assert.False(t, ev.DefaultPrevented())
			assert.False(t, ev.PropagationStopped())
		})
	}
}

func TestInterceptorInaccessibleDocument(t *testing.T) {
	nav := &recordingNav{}
	in := NewInterceptor(nav, nil)

	_, ok := in.Handle(nil, &ClickEvent{})
	assert.False(t, ok)

	doc := mustDoc(t, `<a id="l" href="/x">x</a>`, "https://a.com/")
	target := node(t, doc, "#l")
	doc.Close()

	ev := &ClickEvent{Target: target}
	_, ok = in.Handle(doc, ev)
	assert.False(t, ok)
	assert.False(t, ev.DefaultPrevented())
	assert.Empty(t, nav.hrefs)
}

func TestInterceptorForeignTarget(t *testing.T) {
	doc := mustDoc(t, `<a href="/x">x</a>`, "https://a.com/")
	other := mustDoc(t, `<a id="o" href="/y">y</a>`, "https://b.com/")
	nav := &recordingNav{}

	_, ok := NewInterceptor(nav, nil).Handle(doc, &ClickEvent{Target: node(t, other, "#o")})
	assert.False(t, ok)
	assert.Empty(t, nav.hrefs)
}

func TestInterceptorWithController(t *testing.T) {
	f := newStub().page("https://a.com/next", "Next")
	c := NewController(f, nil)
	doc := mustDoc(t, Rewrite(`<a id="l" href="next">n</a>`, "https://a.com/page"), "https://a.com/page")

	load, ok := NewInterceptor(c, nil).Handle(doc, &ClickEvent{Target: node(t, doc, "#l")})
	require.True(t, ok)
	assert.Equal(t, IntentClick, load.Intent)
	assert.True(t, c.State().Loading())
}

func TestDocumentBasics(t *testing.T) {
	doc := mustDoc(t, `<html><head><title> T </title></head><body><a href="/a">a</a><a href="/b">b</a></body></html>`, "https://a.com/x/y")
	assert.True(t, doc.Accessible())
	assert.Equal(t, "T", doc.Title())
	assert.Equal(t, "https://a.com/x/", doc.Base().Directory)
	assert.Len(t, doc.Anchors(), 2)

	out, err := doc.Markup()
	require.NoError(t, err)
	assert.Contains(t, out, `<a href="/b">b</a>`)

	doc.Close()
	assert.False(t, doc.Accessible())
	assert.Nil(t, doc.Selection())
	assert.Nil(t, doc.Anchors())
	_, err = doc.Markup()
	assert.Error(t, err)
}

func TestNewDocumentRejectsRelativeURL(t *testing.T) {
	_, err := NewDocument("<p>x</p>", "relative/page")
	assert.ErrorIs(t, err, ErrNoBase)
}
