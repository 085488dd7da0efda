package browser

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// Article holds the extracted readable content from a page.
type Article struct {
	Title       string
	Byline      string
	Content     string // cleaned HTML
	TextContent string // plain text
	Excerpt     string
	SiteName    string
	URL         string
}

// ExtractReadable runs readability over the document's current content.
func ExtractReadable(doc *Document) (*Article, error) {
	markup, err := doc.Markup()
	if err != nil {
		return nil, err
	}

	parsedURL, err := url.Parse(doc.URL())
	if err != nil {
		return nil, fmt.Errorf("parsing URL: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(markup), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("extracting article: %w", err)
	}

	title := article.Title
	if title == "" {
		title = doc.Title()
	}
	return &Article{
		Title:       title,
		Byline:      article.Byline,
		Content:     article.Content,
		TextContent: article.TextContent,
		Excerpt:     article.Excerpt,
		SiteName:    article.SiteName,
		URL:         doc.URL(),
	}, nil
}

// Document wraps the article in its own isolated Document so that it can be
// rendered and intercepted like the full page.
func (a *Article) Document() (*Document, error) {
	var sb strings.Builder
	sb.WriteString("<html><head><title>")
	sb.WriteString(html.EscapeString(a.Title))
	sb.WriteString("</title></head><body>")
	if a.Byline != "" {
		sb.WriteString("<p><em>" + html.EscapeString(a.Byline) + "</em></p>")
	}
	sb.WriteString(a.Content)
	sb.WriteString("</body></html>")
	return NewDocument(sb.String(), a.URL)
}
