package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DefaultHeaderLabel is the literal that opens an issue header line in the
// current document format.
const DefaultHeaderLabel = "DISRUPTION WEEKLY"

// datePhrase captures a "Month d, yyyy" date with flexible spacing.
const datePhrase = `([A-Za-z]+\s+\d{1,2},\s*\d{4})`

// HeaderRule is one issue-header pattern variant. Rules are evaluated in
// order and the first match wins for a line, so the list must run from the
// most specific current format down to the most permissive legacy fallback.
type HeaderRule struct {
	Name    string
	Pattern *regexp.Regexp
}

// HeaderRules builds the ordered rule list for a given header label.
// The header format drifted over the document's lifetime; each rule covers
// one observed era.
func HeaderRules(label string) []HeaderRule {
	lbl := labelPattern(label)
	return []HeaderRule{
		{Name: "label-angle", Pattern: regexp.MustCompile(`(?i)^` + lbl + `\s*>\s*` + datePhrase)},
		{Name: "label-dash", Pattern: regexp.MustCompile(`(?i)^` + lbl + `\s*[-–—>]\s*` + datePhrase)},
		{Name: "label-plain", Pattern: regexp.MustCompile(`(?i)^` + lbl + `\s+` + datePhrase)},
		{Name: "label-loose", Pattern: regexp.MustCompile(`(?i)^` + lbl + `.*?` + datePhrase)},
		{Name: "bare-date", Pattern: regexp.MustCompile(`(?i)^` + datePhrase + `\s*$`)},
	}
}

// DefaultHeaderRules returns the rule list for the current header label.
func DefaultHeaderRules() []HeaderRule {
	return HeaderRules(DefaultHeaderLabel)
}

// labelPattern quotes each label token and joins them with flexible
// whitespace, so "DISRUPTION  WEEKLY" still matches.
func labelPattern(label string) string {
	tokens := strings.Fields(label)
	quoted := make([]string, 0, len(tokens))
	for _, token := range tokens {
		quoted = append(quoted, regexp.QuoteMeta(token))
	}
	return strings.Join(quoted, `\s+`)
}

// ScanBoundaries examines every line of the document against the ordered
// rule list. The first rule that matches a line and yields a parseable date
// produces a boundary; an unparseable date phrase discards that match and
// evaluation continues with the next rule. Boundaries come back sorted by
// line index ascending.
func ScanBoundaries(text string, rules []HeaderRule) []Boundary {
	lines := splitLines(text)

	var boundaries []Boundary
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		for _, rule := range rules {
			match := rule.Pattern.FindStringSubmatch(line)
			if match == nil || match[1] == "" {
				continue
			}

			date, err := NormalizeDate(match[1])
			if err != nil {
				// Matched but unparseable; a more permissive rule may
				// still capture a usable phrase on this line.
				continue
			}

			boundaries = append(boundaries, Boundary{Line: i, Date: date})
			break
		}
	}

	sort.SliceStable(boundaries, func(a, b int) bool {
		return boundaries[a].Line < boundaries[b].Line
	})

	return boundaries
}

// NormalizeDate parses a loosely formatted date phrase and truncates it to a
// UTC calendar date.
func NormalizeDate(phrase string) (time.Time, error) {
	parsed, err := dateparse.ParseAny(strings.TrimSpace(phrase))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", phrase, err)
	}
	return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), nil
}
