package db

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const maxJobErrorLength = 4000

// InsertJobRun opens a job ledger entry in the running state.
func (p *Pool) InsertJobRun(ctx context.Context, jobType string, startedAt time.Time) (int64, error) {
	const q = `
INSERT INTO digest.job_runs (job_type, status, started_at, processed, updated_at)
VALUES ($1, 'running', $2, 0, $2)
RETURNING job_run_id
`

	var jobRunID int64
	if err := p.QueryRow(ctx, q, jobType, startedAt.UTC()).Scan(&jobRunID); err != nil {
		return 0, err
	}
	return jobRunID, nil
}

// MarkJobRunSucceeded closes a job ledger entry with its processed count.
func (p *Pool) MarkJobRunSucceeded(ctx context.Context, jobRunID int64, processed int, endedAt time.Time) error {
	const q = `
UPDATE digest.job_runs
SET
	status = 'success',
	processed = $2,
	ended_at = $3,
	updated_at = $3,
	error = NULL
WHERE job_run_id = $1
`
	_, err := p.Exec(ctx, q, jobRunID, processed, endedAt.UTC())
	return err
}

// MarkJobRunFailed records the failure detail for later inspection.
func (p *Pool) MarkJobRunFailed(ctx context.Context, jobRunID int64, detail string, endedAt time.Time) error {
	const q = `
UPDATE digest.job_runs
SET
	status = 'failure',
	error = $2,
	ended_at = $3,
	updated_at = $3
WHERE job_run_id = $1
`

	msg := strings.TrimSpace(detail)
	if len(msg) > maxJobErrorLength {
		msg = msg[:maxJobErrorLength]
	}

	_, err := p.Exec(ctx, q, jobRunID, msg, endedAt.UTC())
	return err
}

// JobRunRow is used by the jobs CLI command.
type JobRunRow struct {
	JobRunID  int64      `json:"job_run_id"`
	JobType   string     `json:"job_type"`
	Status    string     `json:"status"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Error     *string    `json:"error,omitempty"`
	Processed int        `json:"processed"`
}

// ListJobRuns lists the most recent job ledger entries.
func (p *Pool) ListJobRuns(ctx context.Context, limit int) ([]JobRunRow, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}

	const q = `
SELECT job_run_id, job_type, status, started_at, ended_at, error, processed
FROM digest.job_runs
ORDER BY started_at DESC, job_run_id DESC
LIMIT $1
`

	rows, err := p.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query job runs: %w", err)
	}
	defer rows.Close()

	items := make([]JobRunRow, 0, limit)
	for rows.Next() {
		var row JobRunRow
		if err := rows.Scan(
			&row.JobRunID,
			&row.JobType,
			&row.Status,
			&row.StartedAt,
			&row.EndedAt,
			&row.Error,
			&row.Processed,
		); err != nil {
			return nil, fmt.Errorf("scan job run row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job run rows: %w", err)
	}

	return items, nil
}
