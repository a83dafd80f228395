package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/bugdex/bugdex/internal/bugs"
	"github.com/bugdex/bugdex/internal/dates"
	"github.com/bugdex/bugdex/internal/fetch"
	"github.com/bugdex/bugdex/internal/humanize"
)

// GitLabExtractor normalizes issues hosted on gitlab.com or self-managed
// GitLab instances such as invent.kde.org.
type GitLabExtractor struct {
	getter    fetch.Getter
	humanizer *humanize.Humanizer
	logger    *zap.Logger
}

// NewGitLabExtractor builds the extractor.
func NewGitLabExtractor(getter fetch.Getter, humanizer *humanize.Humanizer, logger *zap.Logger) *GitLabExtractor {
	return &GitLabExtractor{
		getter:    getter,
		humanizer: humanizer,
		logger:    logger,
	}
}

// Extract produces a Record for a group[/subgroup...]/project/-/issues/{iid}
// URL. The API host is the URL's own host, so enterprise instances work
// unchanged.
func (e *GitLabExtractor) Extract(ctx context.Context, rawURL, lead string) (bugs.Record, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return bugs.Record{}, &bugs.MalformedURLError{URL: rawURL, Reason: err.Error()}
	}
	group, project, number, err := parseGitLabPath(rawURL, parsed.Path)
	if err != nil {
		return bugs.Record{}, err
	}

	projPath := url.PathEscape(group + "/" + project)
	api := fmt.Sprintf("https://%s/api/v4/projects/%s/issues/%s", parsed.Host, projPath, number)
	page, err := e.getter.Get(ctx, fetch.Request{
		URL:     api,
		Headers: http.Header{"Accept": []string{"application/json"}},
	})
	if err != nil {
		return bugs.Record{}, err
	}
	payload := gjson.ParseBytes(page.Body)
	created := ""
	if raw := payload.Get("created_at").String(); raw != "" {
		created = dates.ISODate(raw)
	}
	title := strings.TrimSpace(payload.Get("title").String())

	name := e.projectName(ctx, parsed.Host, projPath, project)
	display := e.humanizer.Humanize(ctx, group, name)

	return bugs.Record{
		ID:   fmt.Sprintf("%s #%s", display, number),
		URL:  rawURL,
		Lead: lead,
		Date: created,
		Desc: title,
	}, nil
}

// projectName asks the projects API for the display name, best effort; the
// final path segment serves when the call fails.
func (e *GitLabExtractor) projectName(ctx context.Context, host, projPath, project string) string {
	fallback := project
	if i := strings.LastIndex(project, "/"); i >= 0 {
		fallback = project[i+1:]
	}

	api := fmt.Sprintf("https://%s/api/v4/projects/%s", host, projPath)
	page, err := e.getter.Get(ctx, fetch.Request{
		URL:     api,
		Headers: http.Header{"Accept": []string{"application/json"}},
	})
	if err != nil {
		e.logger.Debug("project name lookup failed", zap.String("api", api), zap.Error(err))
		return fallback
	}
	payload := gjson.ParseBytes(page.Body)
	if !payload.IsObject() || payload.Get("message").Exists() {
		return fallback
	}
	if name := strings.TrimSpace(payload.Get("name").String()); name != "" {
		return name
	}
	return fallback
}

// parseGitLabPath decomposes group[/subgroup...]/project/-/issues/{iid},
// dropping the "-" separator placeholder.
func parseGitLabPath(rawURL, path string) (group, project, number string, err error) {
	seg := splitPath(path)
	i := slices.Index(seg, "issues")
	if i < 0 || i+1 >= len(seg) {
		return "", "", "", &bugs.MalformedURLError{URL: rawURL, Reason: "no issues segment in path"}
	}
	number = seg[i+1]

	projSegs := make([]string, 0, i)
	for _, s := range seg[:i] {
		if s != "-" {
			projSegs = append(projSegs, s)
		}
	}
	if len(projSegs) < 2 {
		return "", "", "", &bugs.MalformedURLError{URL: rawURL, Reason: "unexpected project path"}
	}
	return projSegs[0], strings.Join(projSegs[1:], "/"), number, nil
}
