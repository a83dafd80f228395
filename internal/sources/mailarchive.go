package sources

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode"

	"github.com/bugdex/bugdex/internal/bugs"
	"github.com/bugdex/bugdex/internal/dates"
	"github.com/bugdex/bugdex/internal/fetch"
)

// mailSubjectRe matches archived subjects shaped like
// "[project] [Bug 1234] New: something broke".
var mailSubjectRe = regexp.MustCompile(`(?i)\[([^\]]+)\]\s+\[Bug\s+(\d+)\]\s*(?:New:\s*)?(.*)`)

// MailArchiveExtractor normalizes archived mailing-list threads.
type MailArchiveExtractor struct {
	getter fetch.Getter
}

// NewMailArchiveExtractor builds the extractor.
func NewMailArchiveExtractor(getter fetch.Getter) *MailArchiveExtractor {
	return &MailArchiveExtractor{getter: getter}
}

// Extract reads the page title as the mail subject and mines it for a
// project and bug number.
func (e *MailArchiveExtractor) Extract(ctx context.Context, rawURL, lead string) (bugs.Record, error) {
	page, err := e.getter.Get(ctx, fetch.Request{URL: rawURL})
	if err != nil {
		return bugs.Record{}, err
	}
	doc, err := parseDocument(page.Body)
	if err != nil {
		return bugs.Record{}, err
	}

	subject := documentTitle(doc)
	id := ""
	desc := subject
	if m := mailSubjectRe.FindStringSubmatch(subject); m != nil {
		project, bugNum, tail := strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), strings.TrimSpace(m[3])
		id = fmt.Sprintf("%s #%s", capitalizeProject(project), bugNum)
		if tail != "" {
			desc = tail
		}
	}
	if id == "" {
		id = "MailArchive " + basename(rawURL)
	}

	date := firstNonEmpty(
		func() string {
			if meta := metaContent(doc, `meta[name="date"]`); meta != "" {
				return dates.ISODate(meta)
			}
			return ""
		},
		func() string { return dates.FindAnyDateText(visibleText(doc)) },
	)

	return bugs.Record{
		ID:   id,
		URL:  rawURL,
		Lead: lead,
		Date: date,
		Desc: desc,
	}, nil
}

// capitalizeProject renders a project token for display: existing casing is
// trusted, separator-joined names get each segment title-cased, plain
// lowercase names get an initial capital.
func capitalizeProject(name string) string {
	if strings.ContainsFunc(name, unicode.IsUpper) {
		return name
	}
	if strings.ContainsAny(name, "-_") {
		segs := strings.Split(strings.ReplaceAll(name, "_", "-"), "-")
		for i, seg := range segs {
			segs[i] = capitalizeWord(seg)
		}
		return strings.Join(segs, "-")
	}
	return capitalizeWord(name)
}

func capitalizeWord(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func basename(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return path.Base(rawURL)
	}
	return path.Base(parsed.Path)
}
