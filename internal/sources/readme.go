package sources

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/bugdex/bugdex/internal/fetch"
)

// conventional readme filenames tried against the raw content host when the
// API route fails.
var readmeFilenames = []string{
	"README.md",
	"README.rst",
	"README.txt",
	"Readme.md",
	"readme.md",
	"README",
}

// GitHubReadmes fetches readme prose via the GitHub API first and falls
// back to conventional filenames on the raw content host. It satisfies
// humanize.ReadmeFetcher.
type GitHubReadmes struct {
	getter  fetch.Getter
	apiBase string
	rawBase string
	token   string
}

// NewGitHubReadmes builds the provider. apiBase and rawBase default to the
// public GitHub endpoints.
func NewGitHubReadmes(getter fetch.Getter, apiBase, rawBase, token string) *GitHubReadmes {
	if apiBase == "" {
		apiBase = "https://api.github.com"
	}
	if rawBase == "" {
		rawBase = "https://raw.githubusercontent.com"
	}
	return &GitHubReadmes{
		getter:  getter,
		apiBase: apiBase,
		rawBase: rawBase,
		token:   token,
	}
}

// Readme returns the repository's readme text, or an error when every route
// fails.
func (g *GitHubReadmes) Readme(ctx context.Context, owner, repo string) (string, error) {
	headers := http.Header{"Accept": []string{"application/vnd.github.raw+json"}}
	if g.token != "" {
		headers.Set("Authorization", "Bearer "+g.token)
	}
	api := fmt.Sprintf("%s/repos/%s/%s/readme", g.apiBase, owner, repo)
	if page, err := g.getter.Get(ctx, fetch.Request{URL: api, Headers: headers}); err == nil {
		if page.StatusCode == http.StatusOK && len(page.Body) > 0 && !isAPIError(page.Body) {
			return page.Text(), nil
		}
	}

	for _, name := range readmeFilenames {
		raw := fmt.Sprintf("%s/%s/%s/HEAD/%s", g.rawBase, owner, repo, name)
		page, err := g.getter.Get(ctx, fetch.Request{URL: raw})
		if err != nil {
			continue
		}
		if page.StatusCode == http.StatusOK && len(page.Body) > 0 {
			return page.Text(), nil
		}
	}
	return "", fmt.Errorf("no readme found for %s/%s", owner, repo)
}

// isAPIError detects a JSON error envelope where raw readme content was
// expected.
func isAPIError(body []byte) bool {
	if !gjson.ValidBytes(body) {
		return false
	}
	payload := gjson.ParseBytes(body)
	return payload.IsObject() && payload.Get("message").Exists()
}
