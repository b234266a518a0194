package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/digest-pipeline/internal/db"
	"horse.fit/digest-pipeline/internal/docsource"
)

type stubSource struct {
	export   docsource.Export
	fetchErr error
}

func (s *stubSource) Fetch(_ context.Context, _ string) (docsource.Export, error) {
	if s.fetchErr != nil {
		return docsource.Export{}, s.fetchErr
	}
	return s.export, nil
}

type stubStore struct {
	fingerprints map[string]db.IssueFingerprint
	persistCalls []db.PersistIssueParams
	persistErr   error

	jobTypes      []string
	succeededWith []int
	failedWith    []string
}

func newStubStore() *stubStore {
	return &stubStore{fingerprints: map[string]db.IssueFingerprint{}}
}

func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func (s *stubStore) GetIssueFingerprint(_ context.Context, issueDate time.Time) (db.IssueFingerprint, error) {
	fp, ok := s.fingerprints[dateKey(issueDate)]
	if !ok {
		return db.IssueFingerprint{}, db.ErrNoRows
	}
	return fp, nil
}

func (s *stubStore) PersistIssue(_ context.Context, params db.PersistIssueParams) (db.PersistIssueResult, error) {
	if s.persistErr != nil {
		return db.PersistIssueResult{}, s.persistErr
	}
	s.persistCalls = append(s.persistCalls, params)

	articles := 0
	for _, cat := range params.Categories {
		articles += len(cat.Articles)
	}
	s.fingerprints[dateKey(params.IssueDate)] = db.IssueFingerprint{
		IssueID: int64(len(s.fingerprints) + 1),
		Hash:    params.Hash,
	}
	return db.PersistIssueResult{IssueID: 1, ArticlesInserted: articles}, nil
}

func (s *stubStore) InsertJobRun(_ context.Context, jobType string, _ time.Time) (int64, error) {
	s.jobTypes = append(s.jobTypes, jobType)
	return int64(len(s.jobTypes)), nil
}

func (s *stubStore) MarkJobRunSucceeded(_ context.Context, _ int64, processed int, _ time.Time) error {
	s.succeededWith = append(s.succeededWith, processed)
	return nil
}

func (s *stubStore) MarkJobRunFailed(_ context.Context, _ int64, detail string, _ time.Time) error {
	s.failedWith = append(s.failedWith, detail)
	return nil
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

const testDocument = `DISRUPTION WEEKLY > January 5, 2024
Subject: First week

AI News
- Story one (https://example.com/one)
- Story two (https://example.com/two)

DISRUPTION WEEKLY > January 12, 2024
Subject: Second week

Web3
- Story three (https://example.com/three)
`

func TestRun_BackfillProcessesAllBlocks(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	source := &stubSource{export: docsource.Export{Text: testDocument}}
	svc := NewService(store, source, testLogger())

	result, err := svc.Run(context.Background(), Request{DocID: "doc-1", Mode: ModeBackfill})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.IssuesFound != 2 {
		t.Fatalf("expected 2 issues found, got %d", result.IssuesFound)
	}
	if result.Processed != 2 {
		t.Fatalf("expected 2 issues processed, got %d", result.Processed)
	}
	if len(store.persistCalls) != 2 {
		t.Fatalf("expected 2 persist calls, got %d", len(store.persistCalls))
	}
	if len(store.succeededWith) != 1 || store.succeededWith[0] != 2 {
		t.Fatalf("job ledger not closed with processed count: %v", store.succeededWith)
	}
	if store.jobTypes[0] != "ingest:backfill" {
		t.Fatalf("unexpected job type: %q", store.jobTypes[0])
	}
}

func TestRun_WeeklyProcessesOnlyLatestBlock(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	source := &stubSource{export: docsource.Export{Text: testDocument}}
	svc := NewService(store, source, testLogger())

	result, err := svc.Run(context.Background(), Request{DocID: "doc-1", Mode: ModeWeekly})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Processed != 1 {
		t.Fatalf("expected 1 issue processed, got %d", result.Processed)
	}
	if len(store.persistCalls) != 1 {
		t.Fatalf("expected 1 persist call, got %d", len(store.persistCalls))
	}
	want := time.Date(2024, time.January, 12, 0, 0, 0, 0, time.UTC)
	if !store.persistCalls[0].IssueDate.Equal(want) {
		t.Fatalf("weekly mode must process the latest block, got %s", store.persistCalls[0].IssueDate)
	}
}

func TestRun_SecondRunSkipsUnchangedIssues(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	source := &stubSource{export: docsource.Export{Text: testDocument}}
	svc := NewService(store, source, testLogger())

	if _, err := svc.Run(context.Background(), Request{DocID: "doc-1", Mode: ModeBackfill}); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	result, err := svc.Run(context.Background(), Request{DocID: "doc-1", Mode: ModeBackfill})
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if result.Processed != 0 {
		t.Fatalf("expected unchanged issues to be skipped, processed=%d", result.Processed)
	}
	if len(store.persistCalls) != 2 {
		t.Fatalf("second run must not write, persist calls=%d", len(store.persistCalls))
	}
}

func TestRun_ChangedBlockTriggersUpdate(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	source := &stubSource{export: docsource.Export{Text: testDocument}}
	svc := NewService(store, source, testLogger())

	if _, err := svc.Run(context.Background(), Request{DocID: "doc-1", Mode: ModeBackfill}); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// Any byte-level change to a block flips its fingerprint.
	source.export.Text = strings.Replace(testDocument, "Story one", "Story one updated", 1)

	result, err := svc.Run(context.Background(), Request{DocID: "doc-1", Mode: ModeBackfill})
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if result.Processed != 1 {
		t.Fatalf("expected exactly the changed issue to be processed, got %d", result.Processed)
	}
	last := store.persistCalls[len(store.persistCalls)-1]
	want := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	if !last.IssueDate.Equal(want) {
		t.Fatalf("unexpected updated issue date: %s", last.IssueDate)
	}
}

func TestRun_FallbackOnUnstructuredBlock(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	source := &stubSource{export: docsource.Export{
		Text: "DISRUPTION WEEKLY > March 1, 2024\njust prose, no category headers",
		Markup: `<html><body>
<a href="https://example.com/a">Link A</a>
<a href="https://example.com/b">Link B</a>
<a href="https://example.com/c">Link C</a>
</body></html>`,
	}}
	svc := NewService(store, source, testLogger())

	if _, err := svc.Run(context.Background(), Request{DocID: "doc-1", Mode: ModeBackfill}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(store.persistCalls) != 1 {
		t.Fatalf("expected 1 persist call, got %d", len(store.persistCalls))
	}

	cats := store.persistCalls[0].Categories
	if len(cats) != 1 || cats[0].Name != "Uncategorized" {
		t.Fatalf("expected a single Uncategorized category, got %+v", cats)
	}
	if len(cats[0].Articles) != 3 {
		t.Fatalf("expected 3 fallback articles, got %d", len(cats[0].Articles))
	}
	if cats[0].Slug != "uncategorized" {
		t.Fatalf("unexpected slug: %q", cats[0].Slug)
	}
}

func TestRun_FetchFailureAbortsBeforeWrites(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	source := &stubSource{fetchErr: &docsource.FetchError{DocID: "doc-1", Status: 403, Err: errors.New("forbidden")}}
	svc := NewService(store, source, testLogger())

	_, err := svc.Run(context.Background(), Request{DocID: "doc-1", Mode: ModeWeekly})
	if err == nil {
		t.Fatal("expected fetch failure")
	}
	if len(store.persistCalls) != 0 {
		t.Fatalf("fetch failure must not write issues, persist calls=%d", len(store.persistCalls))
	}
	if len(store.failedWith) != 1 {
		t.Fatalf("expected job run marked failed, got %v", store.failedWith)
	}
	if !strings.HasPrefix(store.failedWith[0], CategoryAuthentication) {
		t.Fatalf("expected authentication category, got %q", store.failedWith[0])
	}
}

func TestRun_ArticleWriteFailureFailsRun(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	store.persistErr = fmt.Errorf("insert article %q: disk full", "Story one")
	source := &stubSource{export: docsource.Export{Text: testDocument}}
	svc := NewService(store, source, testLogger())

	_, err := svc.Run(context.Background(), Request{DocID: "doc-1", Mode: ModeBackfill})
	if err == nil {
		t.Fatal("expected run failure")
	}
	if len(store.failedWith) != 1 || !strings.HasPrefix(store.failedWith[0], CategoryStore) {
		t.Fatalf("expected store category failure, got %v", store.failedWith)
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	if mode, err := ParseMode(" Weekly "); err != nil || mode != ModeWeekly {
		t.Fatalf("unexpected: %v %v", mode, err)
	}
	if mode, err := ParseMode("backfill"); err != nil || mode != ModeBackfill {
		t.Fatalf("unexpected: %v %v", mode, err)
	}
	if _, err := ParseMode("monthly"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	if got := Slugify("Reports & Guides"); got != "reports-guides" {
		t.Fatalf("unexpected slug: %q", got)
	}
	if got := Slugify("AI News"); got != "ai-news" {
		t.Fatalf("unexpected slug: %q", got)
	}
	if got := Slugify("--"); got != "" {
		t.Fatalf("unexpected slug: %q", got)
	}
}
