package parser

import (
	"strings"
	"time"
)

// Boundary is one detected issue header: the line it starts on and the
// calendar date extracted from it.
type Boundary struct {
	Line int
	Date time.Time
}

// Block is one contiguous slice of the source document belonging to a
// single issue.
type Block struct {
	Date time.Time
	Text string
}

// ArticleDraft is one article entry extracted from an issue block.
type ArticleDraft struct {
	Title           string
	SourceURL       string
	SourceDomain    string
	SummaryText     *string
	SummaryMarkdown *string
	QuotedStat      *string
}

// CategoryGroup is an ordered, named bucket of article drafts.
type CategoryGroup struct {
	Name     string
	Articles []ArticleDraft
}

// Topline holds the narrative takeaway fields; any of them may be absent.
type Topline struct {
	Shift  *string
	Signal *string
	Why    *string
}

// ParsedIssue is the structured form of one issue block.
type ParsedIssue struct {
	Date        time.Time
	SubjectLine *string
	Topline     Topline
	Categories  []CategoryGroup
}

// Result is the outcome of structuring one block. Structured is false when
// the category heuristics found nothing, which signals the caller to try the
// markup fallback extractor. DroppedLines counts candidate entry lines that
// yielded no usable title+URL pair.
type Result struct {
	Issue        ParsedIssue
	Structured   bool
	DroppedLines int
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
