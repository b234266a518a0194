package db

import (
	"context"
	"fmt"
	"time"
)

// IssueFingerprint is the stored state the change-detection gate compares
// against before deciding to re-parse an issue block.
type IssueFingerprint struct {
	IssueID int64
	Hash    string
}

// GetIssueFingerprint returns the stored fingerprint for a calendar date.
// ErrNoRows is returned when no issue exists for that date.
func (p *Pool) GetIssueFingerprint(ctx context.Context, issueDate time.Time) (IssueFingerprint, error) {
	const q = `
SELECT issue_id, hash
FROM digest.issues
WHERE issue_date = $1
`

	var fp IssueFingerprint
	err := p.QueryRow(ctx, q, issueDate.UTC().Format("2006-01-02")).Scan(&fp.IssueID, &fp.Hash)
	if err != nil {
		return IssueFingerprint{}, err
	}
	return fp, nil
}

// PersistArticleParams is one article draft to insert for the issue.
type PersistArticleParams struct {
	Title           string
	SummaryText     *string
	SummaryMarkdown *string
	QuotedStat      *string
	SourceURL       string
	SourceDomain    string
}

// PersistCategoryParams is one named article bucket; slug is the upsert key.
type PersistCategoryParams struct {
	Slug     string
	Name     string
	Articles []PersistArticleParams
}

// PersistIssueParams carries everything needed to upsert one issue and
// replace its article set.
type PersistIssueParams struct {
	IssueDate     time.Time
	SubjectLine   *string
	ToplineShift  *string
	ToplineSignal *string
	ToplineWhy    *string
	RawText       string
	RawMarkup     string
	Hash          string
	Categories    []PersistCategoryParams
	Now           time.Time
}

type PersistIssueResult struct {
	IssueID          int64
	ArticlesInserted int
}

// PersistIssue upserts the issue row keyed by date, drops the issue's stale
// article rows, upserts each category by slug and inserts the fresh article
// set, all inside one transaction. Prior issues committed in the same run are
// unaffected when this fails.
func (p *Pool) PersistIssue(ctx context.Context, params PersistIssueParams) (PersistIssueResult, error) {
	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return PersistIssueResult{}, fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const upsertIssue = `
INSERT INTO digest.issues (
	issue_date,
	subject_line,
	topline_shift,
	topline_signal,
	topline_why,
	raw_text,
	raw_markup,
	hash,
	created_at,
	updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
ON CONFLICT (issue_date) DO UPDATE
SET
	subject_line = EXCLUDED.subject_line,
	topline_shift = EXCLUDED.topline_shift,
	topline_signal = EXCLUDED.topline_signal,
	topline_why = EXCLUDED.topline_why,
	raw_text = EXCLUDED.raw_text,
	raw_markup = EXCLUDED.raw_markup,
	hash = EXCLUDED.hash,
	updated_at = EXCLUDED.updated_at
RETURNING issue_id
`

	now := params.Now.UTC()
	var issueID int64
	err = tx.QueryRow(
		ctx,
		upsertIssue,
		params.IssueDate.UTC().Format("2006-01-02"),
		params.SubjectLine,
		params.ToplineShift,
		params.ToplineSignal,
		params.ToplineWhy,
		params.RawText,
		params.RawMarkup,
		params.Hash,
		now,
	).Scan(&issueID)
	if err != nil {
		return PersistIssueResult{}, fmt.Errorf("upsert issue: %w", err)
	}

	// A re-ingested issue replaces its article set wholesale.
	const deleteStale = `
DELETE FROM digest.articles
WHERE issue_id = $1
`
	if _, err := tx.Exec(ctx, deleteStale, issueID); err != nil {
		return PersistIssueResult{}, fmt.Errorf("delete stale articles: %w", err)
	}

	const upsertCategory = `
INSERT INTO digest.categories (slug, name, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (slug) DO UPDATE
SET name = EXCLUDED.name
RETURNING category_id
`

	const insertArticle = `
INSERT INTO digest.articles (
	issue_id,
	category_id,
	title,
	summary_text,
	summary_markdown,
	quoted_stat,
	source_url,
	source_domain,
	created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

	inserted := 0
	for _, cat := range params.Categories {
		var categoryID int64
		if err := tx.QueryRow(ctx, upsertCategory, cat.Slug, cat.Name, now).Scan(&categoryID); err != nil {
			return PersistIssueResult{}, fmt.Errorf("upsert category %q: %w", cat.Slug, err)
		}

		for _, art := range cat.Articles {
			_, err := tx.Exec(
				ctx,
				insertArticle,
				issueID,
				categoryID,
				art.Title,
				art.SummaryText,
				art.SummaryMarkdown,
				art.QuotedStat,
				art.SourceURL,
				art.SourceDomain,
				now,
			)
			if err != nil {
				return PersistIssueResult{}, fmt.Errorf("insert article %q: %w", art.Title, err)
			}
			inserted++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return PersistIssueResult{}, fmt.Errorf("commit transaction: %w", err)
	}

	return PersistIssueResult{
		IssueID:          issueID,
		ArticlesInserted: inserted,
	}, nil
}
