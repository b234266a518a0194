package parser

import (
	"net/url"
	"regexp"
	"strings"
)

// Vocabulary is the ordered set of known category labels. A line opens a
// category span when it begins with one of these labels, case-insensitively;
// earlier entries win when labels overlap.
type Vocabulary []string

// DefaultVocabulary lists the category labels observed across the
// document's format eras.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		"AI News",
		"Web3",
		"Crypto",
		"Wellness",
		"Marketing Innovators",
		"Reports",
		"Reports & Guides",
		"Guides",
	}
}

// Match reports the canonical label the line opens, if any.
func (v Vocabulary) Match(line string) (string, bool) {
	for _, name := range v {
		if len(line) >= len(name) && strings.EqualFold(line[:len(name)], name) {
			return name, true
		}
	}
	return "", false
}

var (
	subjectLineRe = regexp.MustCompile(`(?mi)^(?:Subject Line|Subject):[ \t]*(.+)$`)

	bulletPrefixRe = regexp.MustCompile(`^[-*•][ \t]*`)
	parenURLRe     = regexp.MustCompile(`(?i)\((https?:[^)]+)\)`)
	dashURLRe      = regexp.MustCompile(`\s[-–—]\s(https?:\S+)`)
	bareURLRe      = regexp.MustCompile(`^https?://`)

	// A line starting with a capital letter ends a running topline value.
	capitalLineRe = regexp.MustCompile(`\n[A-Z]`)
)

var toplineMarkers = []struct {
	key     string
	pattern *regexp.Regexp
}{
	{key: "shift", pattern: regexp.MustCompile(`(?i)\*{0,2}The shift\*{0,2}:?[ \t]*`)},
	{key: "signal", pattern: regexp.MustCompile(`(?i)\*{0,2}The signal\*{0,2}:?[ \t]*`)},
	{key: "why", pattern: regexp.MustCompile(`(?i)\*{0,2}Why it matters\*{0,2}:?[ \t]*`)},
}

// ParseBlock structures one issue block: subject line, takeaway narrative
// and category spans. Every heuristic here degrades to absence instead of
// failing; a block where no category label is recognized comes back with
// Structured=false so the caller can try the markup fallback.
func ParseBlock(block string, vocab Vocabulary) Result {
	issue := ParsedIssue{}

	if m := subjectLineRe.FindStringSubmatch(block); m != nil {
		subject := strings.TrimSpace(m[1])
		if subject != "" {
			issue.SubjectLine = &subject
		}
	}

	issue.Topline = extractTopline(block)

	categories, dropped := extractCategories(block, vocab)
	issue.Categories = categories

	return Result{
		Issue:        issue,
		Structured:   len(categories) > 0,
		DroppedLines: dropped,
	}
}

// extractTopline pulls each labeled takeaway field independently. A value
// runs from the end of its marker to the next marker occurrence or the next
// capitalized line, whichever comes first.
func extractTopline(block string) Topline {
	values := map[string]*string{}

	for _, marker := range toplineMarkers {
		loc := marker.pattern.FindStringIndex(block)
		if loc == nil {
			continue
		}
		start := loc[1]
		rest := block[start:]

		end := len(rest)
		for _, other := range toplineMarkers {
			if other.key == marker.key {
				continue
			}
			if otherLoc := other.pattern.FindStringIndex(rest); otherLoc != nil && otherLoc[0] < end {
				end = otherLoc[0]
			}
		}
		if capLoc := capitalLineRe.FindStringIndex(rest); capLoc != nil && capLoc[0] < end {
			end = capLoc[0]
		}

		value := strings.TrimSpace(rest[:end])
		if value != "" {
			values[marker.key] = &value
		}
	}

	return Topline{
		Shift:  values["shift"],
		Signal: values["signal"],
		Why:    values["why"],
	}
}

func extractCategories(block string, vocab Vocabulary) ([]CategoryGroup, int) {
	lines := splitLines(block)

	var categories []CategoryGroup
	dropped := 0

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		name, ok := vocab.Match(line)
		if !ok {
			i++
			continue
		}

		var articles []ArticleDraft
		i++
		for i < len(lines) {
			entry := strings.TrimSpace(lines[i])
			if _, next := vocab.Match(entry); next {
				break
			}
			if entry != "" {
				nextLine := ""
				if i+1 < len(lines) {
					nextLine = strings.TrimSpace(lines[i+1])
				}
				title, sourceURL, consumedNext := extractEntry(entry, nextLine)
				if consumedNext {
					i++
				}
				if title != "" && sourceURL != "" {
					articles = append(articles, ArticleDraft{
						Title:        title,
						SourceURL:    sourceURL,
						SourceDomain: DomainFromURL(sourceURL),
					})
				} else {
					dropped++
				}
			}
			i++
		}

		categories = append(categories, CategoryGroup{Name: name, Articles: articles})
	}

	return categories, dropped
}

// extractEntry strips the bullet marker and pulls a trailing URL from the
// line, either parenthesized or dash-delimited. When the line itself carries
// no URL and the following line is a bare URL, that line is consumed instead.
func extractEntry(line, nextLine string) (title, sourceURL string, consumedNext bool) {
	title = bulletPrefixRe.ReplaceAllString(line, "")

	if m := parenURLRe.FindStringSubmatch(title); m != nil {
		sourceURL = m[1]
		title = strings.TrimSpace(strings.Replace(title, m[0], "", 1))
	}
	if m := dashURLRe.FindStringSubmatch(title); m != nil {
		sourceURL = m[1]
		title = strings.TrimSpace(strings.Replace(title, m[0], "", 1))
	}
	if sourceURL == "" && bareURLRe.MatchString(nextLine) {
		sourceURL = nextLine
		consumedNext = true
	}

	return strings.TrimSpace(title), sourceURL, consumedNext
}

// DomainFromURL derives the source domain from a URL: the host with any
// leading "www." stripped. Malformed URLs yield an empty domain rather than
// an error so a draft with a good title still survives.
func DomainFromURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}
