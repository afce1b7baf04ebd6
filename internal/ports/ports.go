package ports

import (
	"context"
	"time"

	"FeedScanner/internal/domain"
)

// FeedFetcher retrieves the raw entries of a single source.
type FeedFetcher interface {
	Fetch(ctx context.Context, source domain.SourceDescriptor) ([]domain.RawItem, error)
}

// ContentRepository persists content items; link uniqueness is enforced by the store.
type ContentRepository interface {
	FindByLink(ctx context.Context, link string) (domain.ContentItem, bool, error)
	Insert(ctx context.Context, item domain.ContentItem) error
	Query(ctx context.Context, query domain.ContentQuery) (domain.ContentPage, error)
}

// Notifier broadcasts events to live subscribers (SSE, Redis, Telegram, ...).
type Notifier interface {
	Broadcast(ctx context.Context, event string, item domain.ContentItem) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

// Item outcomes reported to a CycleObserver.
const (
	OutcomeAdded   = "added"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// CycleObserver receives ingestion measurements.
type CycleObserver interface {
	ObserveItem(source, outcome string)
	ObserveSourceError(source string, err error)
	ObserveNotifyFailure()
	ObserveCycle(report domain.CycleReport)
}
