package sources

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/bugdex/bugdex/internal/fetch"
)

// fakeGetter serves canned pages keyed by URL. Unknown URLs come back as
// 404s so fallback chains can be exercised without a network.
type fakeGetter struct {
	mu    sync.Mutex
	pages map[string]fetch.Page
	errs  map[string]error
	calls []string
}

func newFakeGetter() *fakeGetter {
	return &fakeGetter{
		pages: make(map[string]fetch.Page),
		errs:  make(map[string]error),
	}
}

func (f *fakeGetter) page(url, body string) {
	f.pages[url] = fetch.Page{
		URL:        url,
		FinalURL:   url,
		StatusCode: http.StatusOK,
		Body:       []byte(body),
	}
}

func (f *fakeGetter) redirectedPage(url, finalURL, body string) {
	f.pages[url] = fetch.Page{
		URL:        url,
		FinalURL:   finalURL,
		StatusCode: http.StatusOK,
		Body:       []byte(body),
	}
}

func (f *fakeGetter) fail(url string, err error) {
	f.errs[url] = err
}

func (f *fakeGetter) Get(_ context.Context, req fetch.Request) (fetch.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.URL)
	f.mu.Unlock()

	if err, ok := f.errs[req.URL]; ok {
		return fetch.Page{}, err
	}
	if page, ok := f.pages[req.URL]; ok {
		return page, nil
	}
	return fetch.Page{
		URL:        req.URL,
		FinalURL:   req.URL,
		StatusCode: http.StatusNotFound,
		Body:       []byte(`{"message":"Not Found"}`),
	}, nil
}

func (f *fakeGetter) requested(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == url {
			return true
		}
	}
	return false
}

// noReadme is a humanize.ReadmeFetcher with no evidence to offer.
type noReadme struct{}

func (noReadme) Readme(context.Context, string, string) (string, error) {
	return "", errors.New("no readme available")
}

// textReadme serves a fixed readme for every repo.
type textReadme struct {
	text string
}

func (t textReadme) Readme(context.Context, string, string) (string, error) {
	return t.text, nil
}
