// Package rescorer re-runs analyses whose freshness window has lapsed.
// Businesses are processed strictly one at a time with a deliberate pause
// between items; the third parties ahead of us rate-limit aggressively and
// the backpressure lives here, not in the adapters.
package rescorer

import (
	"context"
	"log"
	"time"

	"prospect/internal/ports"
	"prospect/internal/services/analysis"
)

const (
	batchSize = 25
	itemDelay = 1200 * time.Millisecond
)

// Run polls for stale businesses and re-analyzes them until the context is
// cancelled. pollInterval controls how often a new batch is looked up.
func Run(ctx context.Context, businesses ports.BusinessRepository, svc *analysis.Service, pollInterval time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runBatch(ctx, businesses, svc, logger)
		}
	}
}

func runBatch(ctx context.Context, businesses ports.BusinessRepository, svc *analysis.Service, logger *log.Logger) {
	ids, err := businesses.ListStale(ctx, analysis.FreshnessWindow, batchSize)
	if err != nil {
		logger.Printf("rescorer: list stale: %v", err)
		return
	}
	if len(ids) == 0 {
		return
	}
	logger.Printf("rescorer: re-analyzing %d businesses", len(ids))

	for i, id := range ids {
		if err := svc.Refresh(ctx, id); err != nil {
			logger.Printf("rescorer: business %s: %v", id, err)
		}
		if i == len(ids)-1 {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(itemDelay):
		}
	}
}
