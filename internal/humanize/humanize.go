// Package humanize derives the human-preferred casing of project names by
// mining readme-style prose, with deterministic structural fallbacks.
package humanize

import (
	"context"
	"regexp"
	"strings"
	"unicode"
)

// ReadmeFetcher retrieves the readme-style prose document linked to an
// owner/repo pair. Implementations live with the source extractors; a fetch
// failure simply means no casing evidence.
type ReadmeFetcher interface {
	Readme(ctx context.Context, owner, repo string) (string, error)
}

// Humanizer turns canonical repository names into display names, e.g.
// "librecad" -> "LibreCAD" when the project's readme spells it that way.
type Humanizer struct {
	fetcher ReadmeFetcher
	readmes *Store
}

// New builds a Humanizer around the given readme capability. The readme
// cache lives for the process lifetime.
func New(fetcher ReadmeFetcher) *Humanizer {
	return &Humanizer{
		fetcher: fetcher,
		readmes: NewStore(),
	}
}

const headingWeight = 3

var (
	separatorRe      = regexp.MustCompile(`[-_]`)
	shortAlphaDigits = regexp.MustCompile(`^([A-Za-z]{1,4})(\d+)$`)
	digitRunRe       = regexp.MustCompile(`\d+|\D+`)
)

// Humanize derives the display name for a canonical repository name. The
// name is split on hyphens/underscores, each token resolved independently,
// and the tokens rejoined with hyphens.
func (h *Humanizer) Humanize(ctx context.Context, owner, name string) string {
	if name == "" {
		return name
	}
	doc := h.readmeDoc(ctx, owner, name)

	tokens := separatorRe.Split(name, -1)
	for i, tok := range tokens {
		if tok == "" {
			continue
		}
		resolved := doc.preferredCasing(tok)
		if resolved == "" {
			resolved = structuralToken(tok)
		}
		if resolved == strings.ToLower(resolved) {
			resolved = capitalizeFirst(resolved)
		}
		tokens[i] = resolved
	}
	return strings.Join(tokens, "-")
}

func (h *Humanizer) readmeDoc(ctx context.Context, owner, name string) *proseDoc {
	if h.fetcher == nil {
		return parseProse("")
	}
	text := h.readmes.Get(owner+"/"+name, func() (string, error) {
		return h.fetcher.Readme(ctx, owner, name)
	})
	return parseProse(text)
}

// proseDoc is a readme split into prose lines with code regions removed.
type proseDoc struct {
	lines []proseLine
}

type proseLine struct {
	text    string
	heading bool
}

func parseProse(text string) *proseDoc {
	doc := &proseDoc{}
	inFence := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		// Indented blocks are code in both markdown and rst conventions.
		if strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
			continue
		}
		if trimmed == "" {
			continue
		}
		doc.lines = append(doc.lines, proseLine{
			text:    trimmed,
			heading: strings.HasPrefix(trimmed, "#"),
		})
	}
	return doc
}

// preferredCasing returns the most deliberate casing variant of token found
// in the document, or "" when the document offers no evidence. Variants on
// heading lines count triple, since headings carry brand styling.
func (d *proseDoc) preferredCasing(token string) string {
	if len(d.lines) == 0 {
		return ""
	}
	pat, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(token) + `\b`)
	if err != nil {
		return ""
	}
	counts := make(map[string]int)
	for _, line := range d.lines {
		weight := 1
		if line.heading {
			weight = headingWeight
		}
		for _, m := range pat.FindAllString(line.text, -1) {
			counts[m] += weight
		}
	}
	if len(counts) == 0 {
		return ""
	}

	// Exact rank+count ties break lexicographically so the same document
	// always yields the same spelling.
	best, bestRank, bestCount := "", -1, 0
	for variant, count := range counts {
		rank := casingRank(variant)
		switch {
		case rank > bestRank,
			rank == bestRank && count > bestCount,
			rank == bestRank && count == bestCount && variant < best:
			best, bestRank, bestCount = variant, rank, count
		}
	}

	// Short names like "zig" or "go" read wrong in all-caps; when the
	// document also title-cases them, trust that spelling instead.
	if bestRank == rankAllCaps && len(token) <= 4 && isAlpha(token) {
		if tc := bestTitleCase(counts); tc != "" {
			return tc
		}
	}
	return best
}

const (
	rankOther = iota
	rankAllCaps
	rankTitle
	rankMixed
)

func casingRank(variant string) int {
	upper := 0
	letters := 0
	for _, r := range variant {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	switch {
	case letters == 0:
		return rankOther
	case upper == letters:
		return rankAllCaps
	case isTitleCase(variant):
		return rankTitle
	case upper >= 2:
		return rankMixed
	default:
		return rankOther
	}
}

func bestTitleCase(counts map[string]int) string {
	best, bestCount := "", 0
	for variant, count := range counts {
		if !isTitleCase(variant) {
			continue
		}
		if count > bestCount || (count == bestCount && best != "" && variant < best) {
			best, bestCount = variant, count
		}
	}
	return best
}

func isTitleCase(s string) bool {
	runes := []rune(s)
	if len(runes) == 0 || !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if unicode.IsLetter(r) && unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return len(s) > 0
}

// structuralToken renders a token with no readme evidence. Short
// letters+digits names become acronym style (hdf5 -> HDF5), other
// digit-bearing tokens capitalize each alphabetic run (go2hx -> Go2Hx),
// and plain tokens keep existing caps or gain an initial capital.
func structuralToken(tok string) string {
	if m := shortAlphaDigits.FindStringSubmatch(tok); m != nil {
		return strings.ToUpper(m[1]) + m[2]
	}
	if strings.IndexFunc(tok, unicode.IsDigit) >= 0 {
		segs := digitRunRe.FindAllString(tok, -1)
		for i, seg := range segs {
			if !strings.ContainsFunc(seg, unicode.IsDigit) {
				segs[i] = capitalizeFirst(seg)
			}
		}
		return strings.Join(segs, "")
	}
	if len(tok) <= 4 && tok == strings.ToUpper(tok) {
		return tok
	}
	return capitalizeFirst(tok)
}

func capitalizeFirst(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
