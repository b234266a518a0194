package db

import (
	"time"
)

// Issue maps digest.issues. At most one issue exists per calendar date;
// the hash column fingerprints the raw text block the issue was parsed from.
type Issue struct {
	IssueID       int64     `gorm:"column:issue_id;primaryKey;autoIncrement"`
	IssueDate     time.Time `gorm:"column:issue_date;type:date;not null;unique"`
	SubjectLine   *string   `gorm:"column:subject_line;type:text"`
	ToplineShift  *string   `gorm:"column:topline_shift;type:text"`
	ToplineSignal *string   `gorm:"column:topline_signal;type:text"`
	ToplineWhy    *string   `gorm:"column:topline_why;type:text"`
	RawText       string    `gorm:"column:raw_text;type:text;not null"`
	RawMarkup     string    `gorm:"column:raw_markup;type:text;not null;default:''"`
	Hash          string    `gorm:"column:hash;type:text;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt     time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Issue) TableName() string { return "digest.issues" }

// Category maps digest.categories; slug is the natural upsert key.
type Category struct {
	CategoryID int64     `gorm:"column:category_id;primaryKey;autoIncrement"`
	Slug       string    `gorm:"column:slug;type:text;not null;unique"`
	Name       string    `gorm:"column:name;type:text;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (Category) TableName() string { return "digest.categories" }

// Article maps digest.articles. Articles are owned by their issue and are
// recreated whenever the issue is re-ingested; categories are referenced,
// not owned.
type Article struct {
	ArticleID       int64     `gorm:"column:article_id;primaryKey;autoIncrement"`
	IssueID         int64     `gorm:"column:issue_id;type:bigint;not null;index"`
	CategoryID      *int64    `gorm:"column:category_id;type:bigint;index"`
	Title           string    `gorm:"column:title;type:text;not null"`
	SummaryText     *string   `gorm:"column:summary_text;type:text"`
	SummaryMarkdown *string   `gorm:"column:summary_markdown;type:text"`
	QuotedStat      *string   `gorm:"column:quoted_stat;type:text"`
	SourceURL       string    `gorm:"column:source_url;type:text;not null"`
	SourceDomain    string    `gorm:"column:source_domain;type:text;not null;default:''"`
	CreatedAt       time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`

	Issue    Issue     `gorm:"foreignKey:IssueID;references:IssueID;constraint:OnDelete:CASCADE"`
	Category *Category `gorm:"foreignKey:CategoryID;references:CategoryID;constraint:OnDelete:SET NULL"`
}

func (Article) TableName() string { return "digest.articles" }

// JobRun maps digest.job_runs, the ingestion job ledger.
type JobRun struct {
	JobRunID  int64      `gorm:"column:job_run_id;primaryKey;autoIncrement"`
	JobType   string     `gorm:"column:job_type;type:text;not null"`
	Status    string     `gorm:"column:status;type:text;not null;default:running"`
	StartedAt time.Time  `gorm:"column:started_at;type:timestamptz;not null;default:now()"`
	EndedAt   *time.Time `gorm:"column:ended_at;type:timestamptz"`
	Error     *string    `gorm:"column:error;type:text"`
	Processed int        `gorm:"column:processed;type:integer;not null;default:0"`
	UpdatedAt time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (JobRun) TableName() string { return "digest.job_runs" }

func autoMigrateModels() []any {
	return []any{
		&Issue{},
		&Category{},
		&Article{},
		&JobRun{},
	}
}
