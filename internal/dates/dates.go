// Package dates recovers calendar dates from the mixed timestamp formats
// found across tracker APIs, mail archives, and forum markup.
package dates

import (
	"regexp"
	"strings"
	"time"
)

const isoDay = "2006-01-02"

// strictLayouts cover structured timestamps: ISO-8601 with or without a
// zone marker, optionally fractional.
var strictLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// textLayouts are tried in order after the strict stage. The order matters:
// more specific shapes first so a shorter layout cannot swallow a longer
// candidate.
var textLayouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 -07:00",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon Jan 2, 2006 3:04 PM",
	"Mon Jan 2, 2006",
	"Jan 2, 2006",
	"2 Jan 2006 15:04",
	"2 Jan 2006",
	"2006-01-02",
	"Mon Jan 2 15:04:05 2006",
}

var meridiemRe = regexp.MustCompile(`(?i)\b([ap]m)\b`)

// Normalize parses a raw date-like string and returns the ISO calendar date
// (YYYY-MM-DD), or "" when no known format matches.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	for _, layout := range strictLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(isoDay)
		}
	}
	// Go only accepts AM/PM in a single case per layout; inputs mix freely.
	s = meridiemRe.ReplaceAllStringFunc(s, strings.ToUpper)
	for _, layout := range textLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(isoDay)
		}
	}
	return ""
}

// ISODate normalizes raw when possible and otherwise returns it unchanged,
// so a best-effort textual date is never silently dropped.
func ISODate(raw string) string {
	if d := Normalize(raw); d != "" {
		return d
	}
	return raw
}

// textPatterns are scanned in priority order by FindAnyDateText. Each shape
// must also survive Normalize before it is trusted.
var textPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:Mon|Tue|Wed|Thu|Fri|Sat|Sun)\s+[A-Z][a-z]{2}\s+\d{1,2},\s+\d{4}(?:\s+\d{1,2}:\d{2}\s*(?:am|pm))?`),
	regexp.MustCompile(`(?i)\b\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{4}(?:\s+\d{1,2}:\d{2})?`),
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`(?i)\b(?:Mon|Tue|Wed|Thu|Fri|Sat|Sun),\s+\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{4}(?:\s+\d{2}:\d{2}:\d{2}\s+\S+)?`),
}

// FindAnyDateText scans free text for the first phrase that looks like a
// date and normalizes. A pattern match that fails to normalize is rejected,
// guarding against date-shaped noise.
func FindAnyDateText(blob string) string {
	for _, pat := range textPatterns {
		m := pat.FindString(blob)
		if m == "" {
			continue
		}
		if d := Normalize(m); d != "" {
			return d
		}
	}
	return ""
}
