package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/digest-pipeline/internal/db"
	"horse.fit/digest-pipeline/internal/docsource"
	"horse.fit/digest-pipeline/internal/globaltime"
	"horse.fit/digest-pipeline/internal/parser"
)

// Mode selects how much of the document one run processes.
type Mode string

const (
	// ModeWeekly processes only the block with the most recent date.
	ModeWeekly Mode = "weekly"
	// ModeBackfill processes every detected block.
	ModeBackfill Mode = "backfill"
)

// ParseMode validates a mode flag value.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.TrimSpace(strings.ToLower(raw))) {
	case ModeWeekly:
		return ModeWeekly, nil
	case ModeBackfill:
		return ModeBackfill, nil
	default:
		return "", fmt.Errorf("mode must be %q or %q", ModeWeekly, ModeBackfill)
	}
}

// Failure categories recorded in the job ledger.
const (
	CategoryAuthentication = "authentication"
	CategoryStore          = "store"
	CategoryParsing        = "parsing"
	CategoryUnknown        = "unknown"
)

// Store is the record-store contract the gate needs: a fingerprint lookup
// per calendar date, a transactional issue+articles upsert and the job
// ledger operations.
type Store interface {
	GetIssueFingerprint(ctx context.Context, issueDate time.Time) (db.IssueFingerprint, error)
	PersistIssue(ctx context.Context, params db.PersistIssueParams) (db.PersistIssueResult, error)
	InsertJobRun(ctx context.Context, jobType string, startedAt time.Time) (int64, error)
	MarkJobRunSucceeded(ctx context.Context, jobRunID int64, processed int, endedAt time.Time) error
	MarkJobRunFailed(ctx context.Context, jobRunID int64, detail string, endedAt time.Time) error
}

// Service runs the ingestion pipeline: fetch, scan, segment, structure,
// gate, persist. One run is a sequential, single-writer batch job.
type Service struct {
	store  Store
	source docsource.Source
	rules  []parser.HeaderRule
	vocab  parser.Vocabulary
	logger zerolog.Logger
}

// Option adjusts Service construction; used by tests to substitute header
// rules and category vocabularies from other format eras.
type Option func(*Service)

func WithHeaderRules(rules []parser.HeaderRule) Option {
	return func(s *Service) { s.rules = rules }
}

func WithVocabulary(vocab parser.Vocabulary) Option {
	return func(s *Service) { s.vocab = vocab }
}

func NewService(store Store, source docsource.Source, logger zerolog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:  store,
		source: source,
		rules:  parser.DefaultHeaderRules(),
		vocab:  parser.DefaultVocabulary(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Request configures one ingestion run.
type Request struct {
	DocID string
	Mode  Mode
}

// Result reports a completed run.
type Result struct {
	JobRunID    int64
	Mode        Mode
	IssuesFound int
	Processed   int
}

// Run executes one ingestion run end to end. The job ledger entry moves
// running -> success|failure; failures carry a category label and the full
// diagnostic detail. Issues committed before a failure stay committed.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	if s == nil || s.store == nil || s.source == nil {
		return Result{}, fmt.Errorf("ingest service is not initialized")
	}

	docID := strings.TrimSpace(req.DocID)
	if docID == "" {
		return Result{}, fmt.Errorf("document id is required")
	}
	if req.Mode != ModeWeekly && req.Mode != ModeBackfill {
		return Result{}, fmt.Errorf("invalid mode %q", req.Mode)
	}

	jobType := "ingest:" + string(req.Mode)
	jobRunID, err := s.store.InsertJobRun(ctx, jobType, globaltime.UTC())
	if err != nil {
		return Result{}, fmt.Errorf("insert job run: %w", err)
	}

	result, runErr := s.run(ctx, jobRunID, docID, req.Mode)
	if runErr != nil {
		return Result{}, s.fail(ctx, jobRunID, runErr)
	}

	if err := s.store.MarkJobRunSucceeded(ctx, jobRunID, result.Processed, globaltime.UTC()); err != nil {
		return Result{}, fmt.Errorf("mark job run succeeded: %w", err)
	}

	s.logger.Info().
		Int64("job_run_id", jobRunID).
		Str("mode", string(req.Mode)).
		Int("issues_found", result.IssuesFound).
		Int("processed", result.Processed).
		Msg("ingestion run completed")

	return result, nil
}

// categorizedError tags a failure with its ledger category.
type categorizedError struct {
	category string
	err      error
}

func (e *categorizedError) Error() string {
	return e.category + ": " + e.err.Error()
}

func (e *categorizedError) Unwrap() error {
	return e.err
}

func categorize(category string, err error) error {
	return &categorizedError{category: category, err: err}
}

func (s *Service) run(ctx context.Context, jobRunID int64, docID string, mode Mode) (Result, error) {
	export, err := s.source.Fetch(ctx, docID)
	if err != nil {
		category := CategoryUnknown
		if fetchErr, ok := err.(*docsource.FetchError); ok && fetchErr.Unauthorized() {
			category = CategoryAuthentication
		}
		return Result{}, categorize(category, fmt.Errorf("fetch document: %w", err))
	}

	boundaries := parser.ScanBoundaries(export.Text, s.rules)
	blocks := parser.SegmentBlocks(export.Text, boundaries)

	s.logger.Info().
		Int64("job_run_id", jobRunID).
		Str("mode", string(mode)).
		Int("blocks", len(blocks)).
		Msg("segmented document")

	var latest time.Time
	for _, block := range blocks {
		if block.Date.After(latest) {
			latest = block.Date
		}
	}

	processed := 0
	for _, block := range blocks {
		if mode == ModeWeekly && !block.Date.Equal(latest) {
			continue
		}

		changed, err := s.processBlock(ctx, block, export.Markup)
		if err != nil {
			return Result{}, err
		}
		if changed {
			processed++
		}
	}

	return Result{
		JobRunID:    jobRunID,
		Mode:        mode,
		IssuesFound: len(blocks),
		Processed:   processed,
	}, nil
}

// processBlock applies the change-detection gate to one block: skip when the
// stored fingerprint matches, otherwise parse and upsert. Returns whether
// the issue was written.
func (s *Service) processBlock(ctx context.Context, block parser.Block, markup string) (bool, error) {
	sum := sha256.Sum256([]byte(block.Text))
	hash := hex.EncodeToString(sum[:])

	fingerprint, err := s.store.GetIssueFingerprint(ctx, block.Date)
	switch {
	case err == nil:
		if fingerprint.Hash == hash {
			s.logger.Debug().
				Str("issue_date", block.Date.Format("2006-01-02")).
				Msg("issue unchanged, skipping")
			return false, nil
		}
	case db.IsNoRows(err):
		// New issue date.
	default:
		return false, categorize(CategoryStore, fmt.Errorf("lookup issue fingerprint: %w", err))
	}

	res := parser.ParseBlock(block.Text, s.vocab)
	if res.DroppedLines > 0 {
		s.logger.Warn().
			Str("issue_date", block.Date.Format("2006-01-02")).
			Int("dropped_lines", res.DroppedLines).
			Msg("entry lines dropped during structuring")
	}

	categories := res.Issue.Categories
	if !res.Structured {
		drafts, err := parser.ExtractAnchors(markup)
		if err != nil {
			return false, categorize(CategoryParsing, fmt.Errorf("fallback extraction: %w", err))
		}
		if len(drafts) > 0 {
			categories = []parser.CategoryGroup{{Name: parser.FallbackCategoryName, Articles: drafts}}
		}
		s.logger.Info().
			Str("issue_date", block.Date.Format("2006-01-02")).
			Int("anchors", len(drafts)).
			Msg("no category structure found, used markup fallback")
	}

	params := db.PersistIssueParams{
		IssueDate:     block.Date,
		SubjectLine:   res.Issue.SubjectLine,
		ToplineShift:  res.Issue.Topline.Shift,
		ToplineSignal: res.Issue.Topline.Signal,
		ToplineWhy:    res.Issue.Topline.Why,
		RawText:       block.Text,
		RawMarkup:     markup,
		Hash:          hash,
		Categories:    make([]db.PersistCategoryParams, 0, len(categories)),
		Now:           globaltime.UTC(),
	}
	for _, cat := range categories {
		persistCat := db.PersistCategoryParams{
			Slug:     Slugify(cat.Name),
			Name:     cat.Name,
			Articles: make([]db.PersistArticleParams, 0, len(cat.Articles)),
		}
		for _, art := range cat.Articles {
			persistCat.Articles = append(persistCat.Articles, db.PersistArticleParams{
				Title:           art.Title,
				SummaryText:     art.SummaryText,
				SummaryMarkdown: art.SummaryMarkdown,
				QuotedStat:      art.QuotedStat,
				SourceURL:       art.SourceURL,
				SourceDomain:    art.SourceDomain,
			})
		}
		params.Categories = append(params.Categories, persistCat)
	}

	persisted, err := s.store.PersistIssue(ctx, params)
	if err != nil {
		return false, categorize(CategoryStore, fmt.Errorf("persist issue %s: %w", block.Date.Format("2006-01-02"), err))
	}

	s.logger.Info().
		Str("issue_date", block.Date.Format("2006-01-02")).
		Int64("issue_id", persisted.IssueID).
		Int("categories", len(params.Categories)).
		Int("articles", persisted.ArticlesInserted).
		Msg("issue persisted")

	return true, nil
}

// fail records the run failure in the job ledger and returns the original
// error. The ledger detail keeps the category prefix for operational
// tooling.
func (s *Service) fail(ctx context.Context, jobRunID int64, runErr error) error {
	detail := runErr.Error()
	if _, ok := runErr.(*categorizedError); !ok {
		detail = CategoryUnknown + ": " + detail
	}

	if markErr := s.store.MarkJobRunFailed(ctx, jobRunID, detail, globaltime.UTC()); markErr != nil {
		return fmt.Errorf("run failed (%v); failed to mark job run failed: %w", runErr, markErr)
	}

	s.logger.Error().
		Int64("job_run_id", jobRunID).
		Err(runErr).
		Msg("ingestion run failed")

	return runErr
}

var slugCleanRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify normalizes a category name into its unique, URL-safe upsert key.
func Slugify(name string) string {
	slug := slugCleanRe.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
