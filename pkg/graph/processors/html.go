package processors

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	mapset "github.com/deckarep/golang-set/v2"
)

// HTMLConverter is responsible for extracting readable text from HTML content.
type HTMLConverter struct{}

// NewHTMLConverter creates a new instance of HTMLConverter.
func NewHTMLConverter() *HTMLConverter {
	return &HTMLConverter{}
}

const (
	htmlNoise   = "script, style, noscript, iframe, svg, nav, header, footer, form"
	htmlContent = "h1, h2, h3, h4, h5, h6, p, li, blockquote, pre, tr"
)

// Convert keeps headings, paragraphs, list items and table rows as separate
// blocks, dropping repeated blocks and page chrome.
func (c *HTMLConverter) Convert(ctx context.Context, content []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to create document from HTML content: %w", err)
	}
	doc.Find(htmlNoise).Remove()

	seen := mapset.NewThreadUnsafeSet[string]()
	var blocks []string
	doc.Find(htmlContent).Each(func(_ int, s *goquery.Selection) {
		// Nested matches are emitted by their innermost element.
		if s.Find(htmlContent).Length() > 0 {
			return
		}

		var text string
		if goquery.NodeName(s) == "tr" {
			var cells []string
			s.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				if t := collapse(cell.Text()); t != "" {
					cells = append(cells, t)
				}
			})
			text = strings.Join(cells, " | ")
		} else {
			text = collapse(s.Text())
		}

		if text != "" && seen.Add(text) {
			blocks = append(blocks, text)
		}
	})

	if len(blocks) == 0 {
		return collapse(doc.Find("body").Text()), nil
	}
	return strings.Join(blocks, "\n\n"), nil
}

// SupportedTypes returns the MIME types supported by the HTMLConverter.
func (c *HTMLConverter) SupportedTypes() []string {
	return []string{"text/html"}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
