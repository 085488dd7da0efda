package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const pageURL = "https://a.com/dir/page.html"

func TestRewriteAnchors(t *testing.T) {
	out := Rewrite(`<a href="/path">root</a> <a href='img/x.html' class="c">rel</a> <a href=next.html>bare</a>`, pageURL)

	assert.Contains(t, out, `<a href="https://a.com/path" data-proxy-href="https://a.com/path">root</a>`)
	assert.Contains(t, out, `<a href='https://a.com/dir/img/x.html' class="c" data-proxy-href="https://a.com/dir/img/x.html">rel</a>`)
	assert.Contains(t, out, `<a href="https://a.com/dir/next.html" data-proxy-href="https://a.com/dir/next.html">bare</a>`)
}

func TestRewriteAnchorPassThrough(t *testing.T) {
	out := Rewrite(`<a href="#top">top</a><a href="javascript:void(0)">js</a><a name="x">no href</a>`, pageURL)

	assert.Contains(t, out, `<a href="#top" data-proxy-href="#top">top</a>`)
	assert.Contains(t, out, `<a href="javascript:void(0)" data-proxy-href="javascript:void(0)">js</a>`)
	assert.Contains(t, out, `<a name="x">no href</a>`)
}

func TestRewriteAnchorKeepsEncodedQuery(t *testing.T) {
	out := Rewrite(`<a href="list?a=1&amp;b=2">q</a>`, pageURL)
	assert.Contains(t, out, `href="https://a.com/dir/list?a=1&amp;b=2"`)
	assert.Contains(t, out, `data-proxy-href="https://a.com/dir/list?a=1&amp;b=2"`)
}

func TestRewriteAnchorDoesNotMatchOtherTags(t *testing.T) {
	in := `<abbr href="/x">a</abbr><area href="/y">`
	assert.Equal(t, in, Rewrite(in, pageURL))
}

func TestRewriteMarkerIsIdempotent(t *testing.T) {
	in := `<html><head><title>t</title></head><body><a href="/p">p</a></body></html>`
	once := Rewrite(in, pageURL)
	twice := Rewrite(once, pageURL)

	assert.Equal(t, once, twice)
	assert.Equal(t, 1, strings.Count(twice, MarkerAttr))
	assert.Equal(t, 1, strings.Count(twice, "<base"))
}

func TestRewriteReplacesStaleMarker(t *testing.T) {
	out := Rewrite(`<a data-proxy-href="https://evil.example/" href="/p">p</a>`, pageURL)
	assert.Equal(t, `<a href="https://a.com/p" data-proxy-href="https://a.com/p">p</a>`, out)
}

func TestRewriteIgnoresAttributeNamesInsideValues(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"href in title",
			`<a title="see href=x" href="/real">r</a>`,
			`<a title="see href=x" href="https://a.com/real" data-proxy-href="https://a.com/real">r</a>`,
		},
		{
			"src in alt",
			`<img alt="a src=b" src="pic.png">`,
			`<img alt="a src=b" src="https://a.com/dir/pic.png">`,
		},
		{
			"action in data attribute",
			`<form data-x='action=/no' action="go">`,
			`<form data-x='action=/no' action="https://a.com/dir/go">`,
		},
		{
			"marker text in title",
			`<a title="data-proxy-href=z" href="/p">p</a>`,
			`<a title="data-proxy-href=z" href="https://a.com/p" data-proxy-href="https://a.com/p">p</a>`,
		},
		{
			"style text in title",
			`<p title="style='url(x.png)'" style="background:url(y.png)">`,
			`<p title="style='url(x.png)'" style="background:url(https://a.com/dir/y.png)">`,
		},
		{
			"no value",
			`<a href>empty</a>`,
			`<a href>empty</a>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rewrite(tt.in, pageURL))
		})
	}
}

func TestScanAttrs(t *testing.T) {
	tag := `<a HREF = 'x' title="a>b" download data-n=7>`
	attrs := scanAttrs(tag)

	names := make([]string, len(attrs))
	for i, a := range attrs {
		names[i] = a.name
	}
	assert.Equal(t, []string{"href", "title", "download", "data-n"}, names)
	assert.Equal(t, "x", tag[attrs[0].valStart:attrs[0].valEnd])
	assert.Equal(t, byte('\''), attrs[0].quote)
	assert.Equal(t, "a>b", tag[attrs[1].valStart:attrs[1].valEnd])
	assert.Equal(t, -1, attrs[2].valStart)
	assert.Equal(t, "7", tag[attrs[3].valStart:attrs[3].valEnd])
	assert.Equal(t, byte(0), attrs[3].quote)
}

func TestRewriteSrc(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"img", `<img src="logo.png" alt="x">`, `<img src="https://a.com/dir/logo.png" alt="x">`},
		{"script", `<script src="//cdn.b.org/app.js"></script>`, `<script src="https://cdn.b.org/app.js"></script>`},
		{"iframe", `<IFRAME SRC='/embed'></IFRAME>`, `<IFRAME SRC='https://a.com/embed'></IFRAME>`},
		{"video", `<video src="v.mp4">`, `<video src="https://a.com/dir/v.mp4">`},
		{"audio", `<audio src="a.mp3">`, `<audio src="https://a.com/dir/a.mp3">`},
		{"source", `<source src="/s.webm" srcset="x.webp">`, `<source src="https://a.com/s.webm" srcset="x.webp">`},
		{"embed", `<embed src="f.swf"/>`, `<embed src="https://a.com/dir/f.swf"/>`},
		{"data uri untouched", `<img src="data:image/png;base64,AA==">`, `<img src="data:image/png;base64,AA==">`},
		{"absolute untouched", `<img src="http://b.org/x.png">`, `<img src="http://b.org/x.png">`},
		{"other tags untouched", `<div src="x.png"></div>`, `<div src="x.png"></div>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rewrite(tt.in, pageURL))
		})
	}
}

func TestRewriteLinkAndForm(t *testing.T) {
	out := Rewrite(`<link rel="stylesheet" href="css/site.css"><form method="post" action="/search"></form>`, pageURL)

	assert.Contains(t, out, `<link rel="stylesheet" href="https://a.com/dir/css/site.css">`)
	assert.Contains(t, out, `<form method="post" action="https://a.com/search">`)
	assert.NotContains(t, out, MarkerAttr)
}

func TestRewriteCSSURLs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"style block double quotes",
			`<style>body{background:url("bg.png")}</style>`,
			`<style>body{background:url("https://a.com/dir/bg.png")}</style>`,
		},
		{
			"style block single quotes",
			`<style>.x{background:url('/i/bg.png')}</style>`,
			`<style>.x{background:url('https://a.com/i/bg.png')}</style>`,
		},
		{
			"style block unquoted",
			`<style>@font-face{src:url(fonts/a.woff)}</style>`,
			`<style>@font-face{src:url(https://a.com/dir/fonts/a.woff)}</style>`,
		},
		{
			"style attribute",
			`<div style="background: url('bg.png')"></div>`,
			`<div style="background: url('https://a.com/dir/bg.png')"></div>`,
		},
		{
			"data uri excluded",
			`<style>a{background:url(data:image/png;base64,AA==)}</style>`,
			`<style>a{background:url(data:image/png;base64,AA==)}</style>`,
		},
		{
			"script text untouched",
			`<script>new URL(location.href)</script>`,
			`<script>new URL(location.href)</script>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rewrite(tt.in, pageURL))
		})
	}
}

func TestRewriteInjectsBase(t *testing.T) {
	out := Rewrite(`<html><head lang="en"><title>x</title></head></html>`, pageURL)
	assert.Equal(t, `<html><head lang="en"><base href="https://a.com/dir/page.html"><title>x</title></head></html>`, out)
}

func TestRewriteKeepsExistingBase(t *testing.T) {
	in := `<html><head><BASE href="https://other.org/"></head></html>`
	out := Rewrite(in, pageURL)
	assert.Equal(t, in, out)
	assert.Equal(t, 1, strings.Count(strings.ToLower(out), "<base"))
}

func TestRewriteWithoutHead(t *testing.T) {
	in := `<header><p>fragment</p></header>`
	assert.Equal(t, in, Rewrite(in, pageURL))
}

func TestRewriteBaseEscaped(t *testing.T) {
	out := Rewrite(`<head></head>`, "https://a.com/?q=x&y=1")
	assert.Contains(t, out, `<base href="https://a.com/?q=x&amp;y=1">`)
}

func TestRewriteFailureReturnsOriginal(t *testing.T) {
	in := `<head></head><a href="/x">x</a>`
	for _, bad := range []string{"", "not a url", "/relative/only", "http://%zz"} {
		assert.Equal(t, in, Rewrite(in, bad), bad)
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"simple", "<title>Hello</title>", "Hello", true},
		{"absent", "<p>no title</p>", "", false},
		{"attributes and case", `<TITLE id="t">  Mixed Case </Title>`, "Mixed Case", true},
		{"multiline", "<title>\n  Line one\n  line two\n</title>", "Line one\n  line two", true},
		{"entities", "<title>Tom &amp; Jerry</title>", "Tom & Jerry", true},
		{"first wins", "<title>One</title><title>Two</title>", "One", true},
		{"not titlebar", "<titlebar>x</titlebar>", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractTitle(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
