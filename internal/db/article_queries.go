package db

import (
	"context"
	"fmt"
	"time"
)

// ArticleListOptions controls article listing queries.
type ArticleListOptions struct {
	From  time.Time
	To    time.Time
	Limit int
}

// ArticleListItem is used by the articles CLI command and feeds the
// cross-issue deduplicator; IssueDate is the owning issue's calendar date.
type ArticleListItem struct {
	ArticleID    int64     `json:"article_id"`
	Title        string    `json:"title"`
	SourceURL    string    `json:"source_url"`
	SourceDomain string    `json:"source_domain"`
	CategoryName *string   `json:"category_name,omitempty"`
	IssueDate    time.Time `json:"issue_date"`
	SubjectLine  *string   `json:"subject_line,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListArticles lists articles whose owning issue falls in a UTC date window.
// Ordering is by issue date ascending so re-ingested duplicates surface in
// document order; the caller is expected to collapse duplicate source URLs.
func (p *Pool) ListArticles(ctx context.Context, opts ArticleListOptions) ([]ArticleListItem, error) {
	if opts.Limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}

	from := opts.From.UTC()
	to := opts.To.UTC()
	if !from.Before(to) {
		return nil, fmt.Errorf("from must be before to")
	}

	const q = `
SELECT
	a.article_id,
	a.title,
	a.source_url,
	a.source_domain,
	c.name,
	i.issue_date,
	i.subject_line,
	a.created_at
FROM digest.articles a
JOIN digest.issues i ON i.issue_id = a.issue_id
LEFT JOIN digest.categories c ON c.category_id = a.category_id
WHERE i.issue_date >= $1
  AND i.issue_date < $2
ORDER BY i.issue_date ASC, a.article_id ASC
LIMIT $3
`

	rows, err := p.Query(ctx, q, from.Format("2006-01-02"), to.Format("2006-01-02"), opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	items := make([]ArticleListItem, 0, opts.Limit)
	for rows.Next() {
		var row ArticleListItem
		if err := rows.Scan(
			&row.ArticleID,
			&row.Title,
			&row.SourceURL,
			&row.SourceDomain,
			&row.CategoryName,
			&row.IssueDate,
			&row.SubjectLine,
			&row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan article row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate article rows: %w", err)
	}

	return items, nil
}
