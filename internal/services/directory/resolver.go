// Package directory resolves a business against the secondary ratings
// directory and quantifies how confident the match is.
package directory

import (
	"context"
	"log"
	"sort"
	"strings"

	"prospect/internal/domain"
)

// Client is the raw directory API surface the resolver consumes.
type Client interface {
	Enabled() bool
	Search(ctx context.Context, query string, lat, lng float64, limit int) ([]domain.DirectoryPlace, error)
	Details(ctx context.Context, fsqID string) (*domain.DirectoryPlace, error)
}

type Resolver struct {
	client Client
	logger *log.Logger
}

func New(client Client, logger *log.Logger) *Resolver {
	return &Resolver{client: client, logger: logger}
}

// TokenOverlap is the name-similarity heuristic: intersection of the
// lowercased whitespace token sets over the larger set's size. It is
// symmetric, and two empty names count as a perfect match.
func TokenOverlap(a, b string) float64 {
	ta := tokens(a)
	tb := tokens(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1
	}
	common := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			common++
		}
	}
	return float64(common) / float64(max(max(len(ta), len(tb)), 1))
}

func tokens(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range strings.Fields(strings.ToLower(s)) {
		out[t] = struct{}{}
	}
	return out
}

// matchScore ranks a search candidate: name overlap carries 0.7, a locality
// hit in the caller's location hint carries the remaining 0.3.
func matchScore(name string, candidate domain.DirectoryPlace, locationHint string) float64 {
	score := TokenOverlap(name, candidate.Name) * 0.7
	if locationHint != "" && candidate.Locality != nil {
		if strings.Contains(strings.ToLower(locationHint), strings.ToLower(*candidate.Locality)) {
			score += 0.3
		}
	}
	return score
}

// Resolve searches the directory near the given coordinates and picks the
// best candidate scoring above 0.5, ties broken by the provider's original
// result order. Missing credential, upstream failure and zero results all
// resolve to nil; the directory signal degrades, it never errors.
func (r *Resolver) Resolve(ctx context.Context, name string, lat, lng float64, locationHint string) *domain.DirectoryPlace {
	if !r.client.Enabled() {
		return nil
	}

	results, err := r.client.Search(ctx, name, lat, lng, 5)
	if err != nil {
		r.logger.Printf("directory search %q: %v", name, err)
		return nil
	}
	if len(results) == 0 {
		return nil
	}

	type scored struct {
		place domain.DirectoryPlace
		score float64
	}
	var candidates []scored
	for _, p := range results {
		s := matchScore(name, p, locationHint)
		if s > 0.5 {
			candidates = append(candidates, scored{place: p, score: s})
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	best := candidates[0].place
	return &best
}

// ResolveWithDetails upgrades the best match to its full record; if the
// details fetch fails the search summary stands in.
func (r *Resolver) ResolveWithDetails(ctx context.Context, name string, lat, lng float64, locationHint string) *domain.DirectoryPlace {
	match := r.Resolve(ctx, name, lat, lng, locationHint)
	if match == nil {
		return nil
	}
	details, err := r.client.Details(ctx, match.FsqID)
	if err != nil || details == nil {
		if err != nil {
			r.logger.Printf("directory details %s: %v", match.FsqID, err)
		}
		return match
	}
	return details
}
