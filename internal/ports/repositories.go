package ports

import (
	"context"
	"encoding/json"
	"time"

	"prospect/internal/domain"
)

// BusinessRepository stores businesses keyed by their primary-directory
// place id.
type BusinessRepository interface {
	Upsert(ctx context.Context, b domain.BusinessUpsert) (domain.Business, error)
	Get(ctx context.Context, id string) (domain.Business, error)
	UpdateDirectorySignals(ctx context.Context, id string, rating, popularity, confidence *float64) error
	SetChecked(ctx context.Context, id string, checked bool) (domain.Business, error)
	SetFinalScore(ctx context.Context, id string, score *int) error
	// ListStale returns ids of businesses whose latest analysis is older
	// than the window, or that were never analyzed.
	ListStale(ctx context.Context, olderThan time.Duration, limit int) ([]string, error)
}

// SnapshotRepository replaces the live snapshot for one (business, provider)
// pair; replacement is delete-then-insert in one transaction.
type SnapshotRepository interface {
	Replace(ctx context.Context, businessID, provider string, raw json.RawMessage) error
}

// AnalysisRepository stores immutable scoring runs, most-recent-wins on read.
type AnalysisRepository interface {
	Insert(ctx context.Context, a domain.Analysis) (string, error)
	Latest(ctx context.Context, businessID string) (*domain.Analysis, error)
}
