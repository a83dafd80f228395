// Package sources implements the per-tracker extractors and the host-based
// router that picks between them.
package sources

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/bugdex/bugdex/internal/bugs"
	"github.com/bugdex/bugdex/internal/fetch"
	"github.com/bugdex/bugdex/internal/humanize"
)

// Kind labels the tracker family a URL was routed to.
type Kind string

// Tracker families recognized by the router.
const (
	KindGitHub      Kind = "github"
	KindGitLab      Kind = "gitlab"
	KindMailArchive Kind = "mailarchive"
	KindForum       Kind = "forum"
	KindUnknown     Kind = "unknown"
)

// Options configure the router's extractors.
type Options struct {
	// GitHubAPIBase overrides the public API endpoint, mainly for tests.
	GitHubAPIBase string
	// GitHubRawBase overrides the raw content host used for readmes.
	GitHubRawBase string
	// GitHubToken is the optional bearer token for API calls.
	GitHubToken string
	// ForumTag prefixes forum thread IDs; defaults to QCADForum.
	ForumTag string
}

// Router classifies a URL by hostname substring and dispatches it to the
// matching extractor. The priority order is fixed; unknown hosts are a
// deterministic failure.
type Router struct {
	github *GitHubExtractor
	gitlab *GitLabExtractor
	mail   *MailArchiveExtractor
	forum  *ForumExtractor
}

// NewRouter wires the four extractors around a shared fetch capability. The
// humanizer's readme cache and the canonical-name cache live as long as the
// router, one run per process.
func NewRouter(getter fetch.Getter, opts Options, logger *zap.Logger) *Router {
	readmes := NewGitHubReadmes(getter, opts.GitHubAPIBase, opts.GitHubRawBase, opts.GitHubToken)
	humanizer := humanize.New(readmes)
	names := humanize.NewStore()

	return &Router{
		github: NewGitHubExtractor(getter, humanizer, names, opts.GitHubAPIBase, opts.GitHubToken, logger),
		gitlab: NewGitLabExtractor(getter, humanizer, logger),
		mail:   NewMailArchiveExtractor(getter),
		forum:  NewForumExtractor(getter, opts.ForumTag),
	}
}

// Classify maps a hostname onto a tracker family. First match wins.
func Classify(host string) Kind {
	host = strings.ToLower(host)
	switch {
	case strings.Contains(host, "github.com"):
		return KindGitHub
	case strings.Contains(host, "gitlab") || strings.Contains(host, "invent.kde.org"):
		return KindGitLab
	case strings.Contains(host, "mail-archive.com"):
		return KindMailArchive
	case strings.Contains(host, "qcad.org"):
		return KindForum
	default:
		return KindUnknown
	}
}

// Dispatch routes a single URL through its extractor. Transport-level
// faults come back wrapped with the offending URL; malformed and
// unsupported URLs keep their typed errors.
func (r *Router) Dispatch(ctx context.Context, rawURL, lead string) (bugs.Record, Kind, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return bugs.Record{}, KindUnknown, &bugs.MalformedURLError{URL: rawURL, Reason: err.Error()}
	}

	kind := Classify(parsed.Hostname())
	var record bugs.Record
	switch kind {
	case KindGitHub:
		record, err = r.github.Extract(ctx, rawURL, lead)
	case KindGitLab:
		record, err = r.gitlab.Extract(ctx, rawURL, lead)
	case KindMailArchive:
		record, err = r.mail.Extract(ctx, rawURL, lead)
	case KindForum:
		record, err = r.forum.Extract(ctx, rawURL, lead)
	default:
		return bugs.Record{}, KindUnknown, &bugs.UnsupportedSourceError{Host: parsed.Hostname()}
	}
	if err != nil {
		var malformed *bugs.MalformedURLError
		if errors.As(err, &malformed) {
			return bugs.Record{}, kind, err
		}
		return bugs.Record{}, kind, &bugs.TransportError{URL: rawURL, Err: err}
	}
	return record, kind, nil
}
