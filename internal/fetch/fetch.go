// Package fetch provides the HTTP GET capability consumed by the source
// extractors: a Colly-backed client with pooled transport, per-request
// timeout, and a jittered retry wrapper.
package fetch

import (
	"context"
	"net/http"
)

// Request captures everything needed to fetch a URL.
type Request struct {
	URL     string
	Headers http.Header
}

// Page is the result of a successful fetch. FinalURL reflects redirects,
// which extractors use to detect login or not-found pages.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Text returns the body as a string.
func (p Page) Text() string {
	return string(p.Body)
}

// Getter issues a single HTTP GET. Implementations must be safe for
// concurrent use.
type Getter interface {
	Get(ctx context.Context, req Request) (Page, error)
}
