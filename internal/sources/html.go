package sources

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

func parseDocument(body []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

// visibleText flattens the document's text nodes into a single
// space-separated string, skipping script and style content. Date phrases
// are often split across inline elements, so plain node text is not enough.
func visibleText(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, whitespaceRe.ReplaceAllString(t, " "))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}

// metaContent returns the first non-empty content attribute among the given
// selectors.
func metaContent(doc *goquery.Document, selectors ...string) string {
	if doc == nil {
		return ""
	}
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr("content"); ok {
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func documentTitle(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	return collapseSpace(doc.Find("title").First().Text())
}

func collapseSpace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// firstNonEmpty runs candidate producers in order and returns the first
// non-empty result. Fallback chains across the extractors all reduce to
// this shape.
func firstNonEmpty(candidates ...func() string) string {
	for _, produce := range candidates {
		if v := produce(); v != "" {
			return v
		}
	}
	return ""
}

func splitPath(p string) []string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
