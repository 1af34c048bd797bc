package processor

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/mfenderov/docsearch/internal/markdown"
	"github.com/mfenderov/docsearch/pkg/models"
	"golang.org/x/net/html"
)

// Processor converts HTML content to Markdown.
type Processor struct{}

// New creates a new HTML to Markdown processor.
func New() *Processor {
	return &Processor{}
}

// Convert transforms HTML content into Markdown.
func (p *Processor) Convert(htmlContent string) (string, error) {
	if htmlContent == "" {
		return "", nil
	}

	markdown, err := htmltomarkdown.ConvertString(htmlContent)
	if err != nil {
		return "", err
	}

	// Clean up excessive whitespace
	markdown = strings.TrimSpace(markdown)
	return markdown, nil
}

// Normalize returns the page body as Markdown. Pages already in Markdown
// pass through unchanged, as does plain text from reader services.
// Anything else is treated as HTML.
func (p *Processor) Normalize(page models.Page) (string, error) {
	if markdown.Detect(page.URL, page.ContentType, page.Content) ||
		strings.HasPrefix(strings.ToLower(page.ContentType), "text/plain") {
		return page.Content, nil
	}

	md, err := p.Convert(page.Content)
	if err != nil {
		return "", fmt.Errorf("failed to convert %s: %w", page.URL, err)
	}
	return md, nil
}

// ExtractTitle extracts the <title> content from HTML.
func (p *Processor) ExtractTitle(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var title string
	var findTitle func(*html.Node)
	findTitle = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil {
				title = n.FirstChild.Data
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findTitle(c)
		}
	}
	findTitle(doc)

	return strings.TrimSpace(title)
}
