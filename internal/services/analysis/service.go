// Package analysis orchestrates one scoring run: reuse a fresh snapshot when
// one exists, otherwise gather the signals, score and persist.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"prospect/internal/domain"
	"prospect/internal/ports"
	"prospect/internal/services/scoring"
	"prospect/internal/services/website"
)

// FreshnessWindow is how long a persisted analysis satisfies reads before a
// recomputation is due.
const FreshnessWindow = 7 * 24 * time.Hour

var (
	ErrNotFound  = errString("business not found")
	ErrNoWebsite = errString("business has no website")
)

type errString string

func (e errString) Error() string { return string(e) }

// Auditor runs the performance audit; nil means no audit succeeded.
type Auditor interface {
	Audit(ctx context.Context, url string) *domain.PageSpeedResult
}

// WebsiteAnalyzer runs the structural analysis; it never fails.
type WebsiteAnalyzer interface {
	Analyze(ctx context.Context, url string) domain.WebsiteAnalysis
}

type Service struct {
	businesses ports.BusinessRepository
	analyses   ports.AnalysisRepository
	auditor    Auditor
	analyzer   WebsiteAnalyzer
	logger     *log.Logger
}

func New(businesses ports.BusinessRepository, analyses ports.AnalysisRepository, auditor Auditor, analyzer WebsiteAnalyzer, logger *log.Logger) *Service {
	return &Service{
		businesses: businesses,
		analyses:   analyses,
		auditor:    auditor,
		analyzer:   analyzer,
		logger:     logger,
	}
}

// Analyze scores one business. A stored analysis inside the freshness window
// is reused unless its breakdown predates the current shape; the audit and
// the structural analysis run concurrently since they are independent.
func (s *Service) Analyze(ctx context.Context, businessID string) (domain.AnalysisBreakdown, error) {
	business, err := s.businesses.Get(ctx, businessID)
	if err != nil {
		return domain.AnalysisBreakdown{}, ErrNotFound
	}
	if business.Website == nil || *business.Website == "" {
		return domain.AnalysisBreakdown{}, ErrNoWebsite
	}

	if prior, err := s.analyses.Latest(ctx, businessID); err == nil && prior != nil {
		if time.Since(prior.CreatedAt) < FreshnessWindow && !Stale(prior.Breakdown) {
			var breakdown domain.AnalysisBreakdown
			if err := json.Unmarshal(prior.Breakdown, &breakdown); err == nil {
				return breakdown, nil
			}
			s.logger.Printf("analysis %s: unreadable stored breakdown, recomputing", prior.ID)
		}
	} else if err != nil {
		return domain.AnalysisBreakdown{}, err
	}

	breakdown := s.compute(ctx, business)
	if err := s.persist(ctx, business.ID, breakdown); err != nil {
		return breakdown, err
	}
	return breakdown, nil
}

func (s *Service) compute(ctx context.Context, business domain.Business) domain.AnalysisBreakdown {
	var ps *domain.PageSpeedResult
	var analysis domain.WebsiteAnalysis

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		ps = s.auditor.Audit(ctx, *business.Website)
	}()
	go func() {
		defer wg.Done()
		analysis = s.analyzer.Analyze(ctx, *business.Website)
	}()
	wg.Wait()

	meta := &scoring.DirectoryMeta{MatchConfidence: business.FoursquareMatchConfidence}
	return scoring.Score(ps, analysis, business.FoursquareRating, business.FoursquarePopularity, meta)
}

// Refresh is the rescoring entry point: unlike Analyze it accepts businesses
// without a website and records a directory-only breakdown for them.
func (s *Service) Refresh(ctx context.Context, businessID string) error {
	business, err := s.businesses.Get(ctx, businessID)
	if err != nil {
		return ErrNotFound
	}
	if business.Website == nil || *business.Website == "" {
		_, err = s.analyzeWithoutWebsite(ctx, business)
		return err
	}
	_, err = s.Analyze(ctx, businessID)
	return err
}

func (s *Service) analyzeWithoutWebsite(ctx context.Context, business domain.Business) (domain.AnalysisBreakdown, error) {
	meta := &scoring.DirectoryMeta{MatchConfidence: business.FoursquareMatchConfidence}
	breakdown := scoring.Score(nil, website.NoWebsite(), business.FoursquareRating, business.FoursquarePopularity, meta)
	if err := s.persist(ctx, business.ID, breakdown); err != nil {
		return breakdown, err
	}
	return breakdown, nil
}

func (s *Service) persist(ctx context.Context, businessID string, breakdown domain.AnalysisBreakdown) error {
	raw, err := json.Marshal(breakdown)
	if err != nil {
		return fmt.Errorf("encode breakdown: %w", err)
	}
	if _, err := s.analyses.Insert(ctx, domain.Analysis{
		BusinessID:        businessID,
		PagespeedScore:    breakdown.PagespeedScore,
		FoursquareScore:   breakdown.FoursquareScore,
		WebStandardsScore: breakdown.WebStandardsScore,
		FinalScore:        breakdown.FinalScore,
		Breakdown:         raw,
	}); err != nil {
		return fmt.Errorf("store analysis: %w", err)
	}
	if err := s.businesses.SetFinalScore(ctx, businessID, breakdown.FinalScore); err != nil {
		return fmt.Errorf("update final score: %w", err)
	}
	return nil
}

// View assembles the read shape for one business: the row plus its latest
// breakdown when one is stored.
func (s *Service) View(ctx context.Context, businessID string) (domain.BusinessView, error) {
	business, err := s.businesses.Get(ctx, businessID)
	if err != nil {
		return domain.BusinessView{}, ErrNotFound
	}
	view := toView(business)
	if prior, err := s.analyses.Latest(ctx, businessID); err == nil && prior != nil {
		var breakdown domain.AnalysisBreakdown
		if err := json.Unmarshal(prior.Breakdown, &breakdown); err == nil {
			view.Breakdown = &breakdown
		}
	}
	return view, nil
}

func toView(b domain.Business) domain.BusinessView {
	categories := b.Categories
	if categories == nil {
		categories = []string{}
	}
	return domain.BusinessView{
		ID:                b.ID,
		PlaceID:           b.PlaceID,
		Name:              b.Name,
		Website:           b.Website,
		Address:           b.Address,
		Phone:             b.Phone,
		Categories:        categories,
		GoogleRating:      b.GoogleRating,
		GoogleReviewCount: b.GoogleReviewCount,
		FoursquareRating:  b.FoursquareRating,
		FinalScore:        b.FinalScore,
		Checked:           b.Checked,
	}
}

// Stale reports whether a stored breakdown predates the current output
// shape. Older revisions omitted the pagespeed, website and
// web_standards_score keys entirely; their absence (as opposed to an
// explicit null) marks the record as eligible for recomputation.
func Stale(breakdown json.RawMessage) bool {
	if len(breakdown) == 0 {
		return true
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(breakdown, &keys); err != nil {
		return true
	}
	for _, k := range []string{"pagespeed", "website", "web_standards_score"} {
		if _, ok := keys[k]; !ok {
			return true
		}
	}
	return false
}
