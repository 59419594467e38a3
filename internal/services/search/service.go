// Package search runs the primary-directory search and enriches each result
// with secondary-directory signals before handing rows back to the API.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"prospect/internal/domain"
	"prospect/internal/ports"
	"prospect/internal/services/directory"
)

// PlacesClient is the primary-directory surface the service consumes.
type PlacesClient interface {
	Enabled() bool
	TextSearch(ctx context.Context, query string, maxResults int) ([]domain.Place, error)
	Details(ctx context.Context, placeID string) (*domain.Place, error)
}

type Service struct {
	places     PlacesClient
	resolver   *directory.Resolver
	businesses ports.BusinessRepository
	snapshots  ports.SnapshotRepository
	analyses   ports.AnalysisRepository
	logger     *log.Logger
}

func New(places PlacesClient, resolver *directory.Resolver, businesses ports.BusinessRepository, snapshots ports.SnapshotRepository, analyses ports.AnalysisRepository, logger *log.Logger) *Service {
	return &Service{
		places:     places,
		resolver:   resolver,
		businesses: businesses,
		snapshots:  snapshots,
		analyses:   analyses,
		logger:     logger,
	}
}

// buildQuery mirrors the search form: free-form location, optional category
// and keywords prepended in front of it.
func buildQuery(p domain.SearchParams) string {
	query := p.Location
	if p.Category == "" && p.Keywords == "" {
		return "businesses in " + p.Location
	}
	if p.Category != "" {
		query = p.Category + " " + query
	}
	if p.Keywords != "" {
		query = p.Keywords + " " + query
	}
	return query
}

// Search upserts every place the directory returns and refreshes its
// secondary-directory signals. One failing place is logged and skipped; the
// batch never fails because of it.
func (s *Service) Search(ctx context.Context, p domain.SearchParams) ([]domain.BusinessView, error) {
	if !s.places.Enabled() {
		return nil, fmt.Errorf("place search is not configured")
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	places, err := s.places.TextSearch(ctx, buildQuery(p), limit)
	if err != nil {
		return nil, err
	}

	views := make([]domain.BusinessView, 0, len(places))
	for _, place := range places {
		view, err := s.processPlace(ctx, place, p.Location)
		if err != nil {
			s.logger.Printf("search: place %s: %v", place.PlaceID, err)
			continue
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *Service) processPlace(ctx context.Context, place domain.Place, location string) (domain.BusinessView, error) {
	// Details carry the website and phone the text search omits; fall back
	// to the summary when the fetch fails.
	if details, err := s.places.Details(ctx, place.PlaceID); err == nil && details != nil {
		place = *details
	} else if err != nil {
		s.logger.Printf("search: details %s: %v", place.PlaceID, err)
	}

	business, err := s.businesses.Upsert(ctx, domain.BusinessUpsert{
		PlaceID:           place.PlaceID,
		Name:              place.Name,
		Website:           place.Website,
		WebsiteDomain:     registrableDomain(place.Website),
		Address:           place.FormattedAddress,
		Phone:             place.Phone,
		Categories:        place.Types,
		GoogleRating:      place.Rating,
		GoogleReviewCount: place.UserRatingsTotal,
	})
	if err != nil {
		return domain.BusinessView{}, err
	}

	if raw, err := json.Marshal(place); err == nil {
		if err := s.snapshots.Replace(ctx, business.ID, domain.ProviderGoogle, raw); err != nil {
			s.logger.Printf("search: snapshot %s: %v", business.ID, err)
		}
	}

	if place.Lat != nil && place.Lng != nil {
		s.enrich(ctx, &business, place, location)
	}

	view := domain.BusinessView{
		ID:                business.ID,
		PlaceID:           business.PlaceID,
		Name:              business.Name,
		Website:           business.Website,
		Address:           business.Address,
		Phone:             business.Phone,
		Categories:        business.Categories,
		GoogleRating:      business.GoogleRating,
		GoogleReviewCount: business.GoogleReviewCount,
		FoursquareRating:  business.FoursquareRating,
		FinalScore:        business.FinalScore,
		Checked:           business.Checked,
	}
	if view.Categories == nil {
		view.Categories = []string{}
	}
	if prior, err := s.analyses.Latest(ctx, business.ID); err == nil && prior != nil {
		var breakdown domain.AnalysisBreakdown
		if err := json.Unmarshal(prior.Breakdown, &breakdown); err == nil {
			view.Breakdown = &breakdown
		}
	}
	return view, nil
}

// enrich refreshes the secondary-directory match for one business. The match
// confidence persisted here is the plain name overlap between the stored name
// and the matched candidate, a simpler number than the resolver's internal
// ranking score.
func (s *Service) enrich(ctx context.Context, business *domain.Business, place domain.Place, location string) {
	hint := location
	if place.FormattedAddress != nil {
		hint = *place.FormattedAddress
	}
	match := s.resolver.Resolve(ctx, place.Name, *place.Lat, *place.Lng, hint)
	if match == nil {
		return
	}

	confidence := directory.TokenOverlap(place.Name, match.Name)
	if err := s.businesses.UpdateDirectorySignals(ctx, business.ID, match.Rating, match.Popularity, &confidence); err != nil {
		s.logger.Printf("search: directory signals %s: %v", business.ID, err)
		return
	}
	business.FoursquareRating = match.Rating
	business.FoursquarePopularity = match.Popularity
	business.FoursquareMatchConfidence = &confidence

	if raw, err := json.Marshal(match); err == nil {
		if err := s.snapshots.Replace(ctx, business.ID, domain.ProviderFoursquare, raw); err != nil {
			s.logger.Printf("search: snapshot %s: %v", business.ID, err)
		}
	}
}

// registrableDomain reduces a website URL to its eTLD+1 for storage; nil when
// the URL has no usable host.
func registrableDomain(website *string) *string {
	if website == nil || *website == "" {
		return nil
	}
	u, err := url.Parse(*website)
	if err != nil || u.Hostname() == "" {
		return nil
	}
	host := strings.ToLower(u.Hostname())
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		registrable = host
	}
	return &registrable
}
