package ports

import (
	"context"
	"time"

	"ComplianceRadar/internal/domain"
)

// RecordStore persists and queries canonical news records.
type RecordStore interface {
	Create(ctx context.Context, record *domain.NewsRecord) error
	GetBySource(ctx context.Context, src domain.Source, offset, limit int) ([]domain.NewsRecord, error)
	GetAll(ctx context.Context, offset, limit int) ([]domain.NewsRecord, error)
	GetByDateRange(ctx context.Context, start, end time.Time, src *domain.Source, status *domain.Status) ([]domain.NewsRecord, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.NewsRecord, error)
	UpdateStatus(ctx context.Context, id int64, status domain.Status) (*domain.NewsRecord, error)
	UpdateTitleAndSummary(ctx context.Context, id int64, title, summary *string) (*domain.NewsRecord, error)
	StatisticsBySourceAndStatus(ctx context.Context) ([]domain.SourceStatusCount, error)
}

// Summarizer generates a natural-language digest of extracted content.
type Summarizer interface {
	Summarize(ctx context.Context, content string) (string, error)
}

// Notifier streams batch digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when recurring ingestion runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
