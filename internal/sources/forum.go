package sources

import (
	"context"
	"fmt"
	"net/url"
	"regexp"

	"github.com/bugdex/bugdex/internal/bugs"
	"github.com/bugdex/bugdex/internal/dates"
	"github.com/bugdex/bugdex/internal/fetch"
)

var (
	postedDateRe = regexp.MustCompile(`(?i)Posted:\s+(?:Mon|Tue|Wed|Thu|Fri|Sat|Sun)\s+[A-Z][a-z]{2}\s+\d{1,2},\s+\d{4}(?:\s+\d{1,2}:\d{2}\s*(?:am|pm))?`)
	crumbDateRe  = regexp.MustCompile(`(?i)»\s+(\d{1,2}\s+[A-Z][a-z]{2}\s+\d{4})`)
)

// ForumExtractor normalizes phpBB-style forum threads from the QCAD board.
type ForumExtractor struct {
	getter fetch.Getter
	tag    string
}

// NewForumExtractor builds the extractor; tag prefixes every thread ID.
func NewForumExtractor(getter fetch.Getter, tag string) *ForumExtractor {
	if tag == "" {
		tag = "QCADForum"
	}
	return &ForumExtractor{getter: getter, tag: tag}
}

// Extract produces a Record for a forum thread URL. The thread ID comes
// from the "t" query parameter, or the URL basename without one.
func (e *ForumExtractor) Extract(ctx context.Context, rawURL, lead string) (bugs.Record, error) {
	page, err := e.getter.Get(ctx, fetch.Request{URL: rawURL})
	if err != nil {
		return bugs.Record{}, err
	}
	doc, err := parseDocument(page.Body)
	if err != nil {
		return bugs.Record{}, err
	}

	title := firstNonEmpty(
		func() string { return collapseSpace(doc.Find("h2.topic-title").First().Text()) },
		func() string { return documentTitle(doc) },
		func() string { return rawURL },
	)

	text := visibleText(doc)
	date := firstNonEmpty(
		func() string {
			if v, ok := doc.Find("time").First().Attr("datetime"); ok && v != "" {
				return dates.ISODate(v)
			}
			return ""
		},
		func() string {
			if m := postedDateRe.FindString(text); m != "" {
				return dates.FindAnyDateText(m)
			}
			return ""
		},
		func() string {
			if m := crumbDateRe.FindStringSubmatch(text); m != nil {
				return dates.ISODate(m[1])
			}
			return ""
		},
		func() string { return dates.FindAnyDateText(text) },
	)

	tid := threadID(rawURL)

	return bugs.Record{
		ID:   fmt.Sprintf("%s #%s", e.tag, tid),
		URL:  rawURL,
		Lead: lead,
		Date: date,
		Desc: title,
	}, nil
}

func threadID(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return basename(rawURL)
	}
	if t := parsed.Query().Get("t"); t != "" {
		return t
	}
	return basename(rawURL)
}
