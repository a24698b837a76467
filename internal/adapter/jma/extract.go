package jma

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"

	"github.com/couchcryptid/quake-catalog/internal/domain"
)

// ExtractPreformatted decodes page to UTF-8 and returns the direct text
// children of every <pre> element concatenated in document order.
// Returns domain.ErrExtraction when the page has no preformatted text.
func ExtractPreformatted(page Page) (string, error) {
	if len(bytes.TrimSpace(page.Body)) == 0 {
		return "", domain.ErrExtraction
	}
	r, err := charset.NewReader(bytes.NewReader(page.Body), page.ContentType)
	if err != nil {
		return "", fmt.Errorf("decode page charset: %w", err)
	}
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Pre {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					b.WriteString(c.Data)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if strings.TrimSpace(b.String()) == "" {
		return "", domain.ErrExtraction
	}
	return b.String(), nil
}
