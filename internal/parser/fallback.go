package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FallbackCategoryName labels the synthetic category produced by the markup
// fallback extractor.
const FallbackCategoryName = "Uncategorized"

// ExtractAnchors recovers a flat article list from the hyperlink-bearing
// markup representation of the document. Every anchor with a non-empty
// target and non-empty visible text yields one draft; no further heuristics
// are applied. This is the last-resort path when the text heuristics found
// no category structure at all.
func ExtractAnchors(markup string) ([]ArticleDraft, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	var drafts []ArticleDraft
	doc.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
		href, _ := anchor.Attr("href")
		href = strings.TrimSpace(href)
		title := strings.TrimSpace(anchor.Text())
		if href == "" || title == "" {
			return
		}
		drafts = append(drafts, ArticleDraft{
			Title:        title,
			SourceURL:    href,
			SourceDomain: DomainFromURL(href),
		})
	})

	return drafts, nil
}
