package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/bugdex/bugdex/internal/bugs"
	"github.com/bugdex/bugdex/internal/dates"
	"github.com/bugdex/bugdex/internal/fetch"
	"github.com/bugdex/bugdex/internal/humanize"
)

// junkTitles are chrome strings that must never be mistaken for an issue
// title.
var junkTitles = map[string]bool{
	"GitHub":            true,
	"Page not found":    true,
	"Sign in to GitHub": true,
}

var isoTimestampRe = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+\-]\d{2}:\d{2})\b`)

// GitHubExtractor normalizes GitHub issue URLs. The structured API is tried
// first; rendered markup covers rate-limited or partial payloads.
type GitHubExtractor struct {
	getter    fetch.Getter
	humanizer *humanize.Humanizer
	names     *humanize.Store
	apiBase   string
	token     string
	logger    *zap.Logger
}

// NewGitHubExtractor builds the extractor. names caches canonical repo
// names for the run; apiBase defaults to the public API.
func NewGitHubExtractor(
	getter fetch.Getter,
	humanizer *humanize.Humanizer,
	names *humanize.Store,
	apiBase string,
	token string,
	logger *zap.Logger,
) *GitHubExtractor {
	if apiBase == "" {
		apiBase = "https://api.github.com"
	}
	return &GitHubExtractor{
		getter:    getter,
		humanizer: humanizer,
		names:     names,
		apiBase:   apiBase,
		token:     token,
		logger:    logger,
	}
}

// Extract produces a Record for a /{owner}/{repo}/issues/{number} URL.
func (e *GitHubExtractor) Extract(ctx context.Context, rawURL, lead string) (bugs.Record, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return bugs.Record{}, &bugs.MalformedURLError{URL: rawURL, Reason: err.Error()}
	}
	seg := splitPath(parsed.Path)
	if len(seg) < 4 || seg[2] != "issues" {
		return bugs.Record{}, &bugs.MalformedURLError{
			URL:    rawURL,
			Reason: "expected path /{owner}/{repo}/issues/{number}",
		}
	}
	owner, repo, number := seg[0], seg[1], seg[3]

	title, created := "", ""
	api := fmt.Sprintf("%s/repos/%s/%s/issues/%s", e.apiBase, owner, repo, number)
	apiPage, err := e.getter.Get(ctx, fetch.Request{URL: api, Headers: e.apiHeaders()})
	if err != nil {
		return bugs.Record{}, err
	}
	if payload := gjson.ParseBytes(apiPage.Body); payload.IsObject() && !payload.Get("message").Exists() {
		title = strings.TrimSpace(payload.Get("title").String())
		if raw := payload.Get("created_at").String(); raw != "" {
			created = dates.ISODate(raw)
		}
	}

	var doc *goquery.Document
	if title == "" || created == "" {
		page, err := e.getter.Get(ctx, fetch.Request{
			URL:     rawURL,
			Headers: http.Header{"Accept": []string{"text/html"}},
		})
		if err != nil {
			return bugs.Record{}, err
		}
		doc, err = parseDocument(page.Body)
		if err != nil {
			e.logger.Debug("unparseable issue page", zap.String("url", rawURL), zap.Error(err))
			doc = nil
		}
		if doc != nil && validIssuePath(page.FinalURL) {
			if title == "" {
				title = e.htmlTitle(doc)
			}
			if created == "" {
				created = e.htmlCreationDate(doc, page.Body)
			}
		}
	}

	canonical := e.names.Get(owner+"/"+repo, func() (string, error) {
		return e.resolveRepoName(ctx, owner, repo, doc), nil
	})
	if canonical == "" {
		canonical = repo
	}
	display := e.humanizer.Humanize(ctx, owner, canonical)

	return bugs.Record{
		ID:   fmt.Sprintf("%s #%s", display, number),
		URL:  rawURL,
		Lead: lead,
		Date: created,
		Desc: title,
	}, nil
}

func (e *GitHubExtractor) apiHeaders() http.Header {
	headers := http.Header{"Accept": []string{"application/vnd.github+json"}}
	if e.token != "" {
		headers.Set("Authorization", "Bearer "+e.token)
	}
	return headers
}

// validIssuePath guards against redirects to login or not-found pages
// before the rendered markup is trusted.
func validIssuePath(finalURL string) bool {
	parsed, err := url.Parse(finalURL)
	if err != nil {
		return false
	}
	seg := splitPath(parsed.Path)
	return len(seg) >= 4 && seg[2] == "issues"
}

func (e *GitHubExtractor) htmlTitle(doc *goquery.Document) string {
	return firstNonEmpty(
		func() string { return cleanGitHubTitle(collapseSpace(doc.Find("span.js-issue-title").First().Text())) },
		func() string {
			return cleanGitHubTitle(metaContent(doc, `meta[property="og:title"]`, `meta[name="twitter:title"]`))
		},
		func() string { return cleanGitHubTitle(documentTitle(doc)) },
	)
}

// htmlCreationDate collects every timestamp candidate on the page and keeps
// the earliest. Activity timestamps are all at or after creation, so the
// minimum approximates the creation moment; a date embedded in linked
// content can still win, which is why this stays best-effort.
func (e *GitHubExtractor) htmlCreationDate(doc *goquery.Document, raw []byte) string {
	var candidates []string
	doc.Find("[datetime]").Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr("datetime"); ok {
			if d := dates.Normalize(v); d != "" {
				candidates = append(candidates, d)
			}
		}
	})
	for _, m := range isoTimestampRe.FindAllString(string(raw), -1) {
		if d := dates.Normalize(m); d != "" {
			candidates = append(candidates, d)
		}
	}
	text := visibleText(doc)
	if d := dates.FindAnyDateText(text); d != "" {
		candidates = append(candidates, d)
	}
	if len(candidates) > 0 {
		return slices.Min(candidates)
	}
	return dates.FindAnyDateText(text)
}

// resolveRepoName recovers the repository's canonical name, preferring the
// API and degrading through page markup to the literal path segment.
func (e *GitHubExtractor) resolveRepoName(ctx context.Context, owner, repo string, doc *goquery.Document) string {
	return firstNonEmpty(
		func() string { return e.apiRepoName(ctx, owner, repo) },
		func() string { return nwoName(metaContent(doc, `meta[name="octolytics-dimension-repository_nwo"]`)) },
		func() string { return nwoName(repoFromMetaTitle(doc, owner)) },
		func() string { return repoAnchorName(doc) },
		func() string { return repo },
	)
}

func (e *GitHubExtractor) apiRepoName(ctx context.Context, owner, repo string) string {
	api := fmt.Sprintf("%s/repos/%s/%s", e.apiBase, owner, repo)
	page, err := e.getter.Get(ctx, fetch.Request{URL: api, Headers: e.apiHeaders()})
	if err != nil {
		return ""
	}
	payload := gjson.ParseBytes(page.Body)
	if !payload.IsObject() || payload.Get("message").Exists() {
		return ""
	}
	return strings.TrimSpace(payload.Get("name").String())
}

// repoFromMetaTitle digs an owner/repo pair out of page metadata titles
// like "Crash on load · Issue #12 · owner/repo".
func repoFromMetaTitle(doc *goquery.Document, owner string) string {
	if doc == nil {
		return ""
	}
	content := metaContent(doc, `meta[property="og:title"]`, `meta[name="twitter:title"]`)
	for _, part := range strings.Split(content, "·") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(strings.ToLower(part), strings.ToLower(owner)+"/") {
			return part
		}
	}
	return ""
}

func repoAnchorName(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	return firstNonEmpty(
		func() string { return collapseSpace(doc.Find(`a[itemprop="name codeRepository"]`).First().Text()) },
		func() string {
			return collapseSpace(doc.Find(`a[data-hovercard-type="repository"]`).First().Text())
		},
	)
}

// nwoName reduces "owner/repo" to the repo half.
func nwoName(nwo string) string {
	if nwo == "" {
		return ""
	}
	parts := strings.Split(nwo, "/")
	return strings.TrimSpace(parts[len(parts)-1])
}

// cleanGitHubTitle strips the site-branding suffix and rejects chrome
// strings.
func cleanGitHubTitle(t string) string {
	if t == "" {
		return ""
	}
	t = strings.TrimSpace(strings.SplitN(t, "·", 2)[0])
	if junkTitles[t] {
		return ""
	}
	return t
}
