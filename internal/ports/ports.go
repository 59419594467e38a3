package ports

import (
	"context"

	"prospect/internal/domain"
)

// SearchService runs a directory search and returns enriched businesses.
type SearchService interface {
	Search(ctx context.Context, p domain.SearchParams) ([]domain.BusinessView, error)
}

// AnalysisService scores one business and persists the result.
type AnalysisService interface {
	Analyze(ctx context.Context, businessID string) (domain.AnalysisBreakdown, error)
	View(ctx context.Context, businessID string) (domain.BusinessView, error)
}
