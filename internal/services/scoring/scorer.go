// Package scoring blends the enrichment signals into one opportunity score.
// Everything in here is pure: null inputs propagate as nil sub-scores, the
// scorer itself never fails.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"prospect/internal/domain"
)

// DirectoryMeta carries the optional secondary-directory match context.
type DirectoryMeta struct {
	FsqID           *string
	MatchConfidence *float64
}

// DirectoryScore converts a secondary-directory rating and popularity into a
// 0-100 score. Rating is assumed on a 0-10 scale and contributes up to 70
// points; popularity is assumed roughly 0-100 and contributes up to 30,
// hard-capped even when the provider reports more. A missing term is simply
// omitted, so a rating-only business tops out at 70. The scales are not
// validated; confirm them against the live provider before changing weights.
func DirectoryScore(rating, popularity *float64) *int {
	if rating == nil && popularity == nil {
		return nil
	}
	score := 0.0
	if rating != nil {
		score += (*rating / 10) * 70
	}
	if popularity != nil {
		score += math.Min(30, (*popularity/100)*30)
	}
	v := int(math.Round(math.Min(100, score)))
	return &v
}

// FinalScore is the rounded median of the non-nil sub-scores. With two
// independent signals the median is their mean; using it instead of a
// weighted composite keeps a missing signal from dragging the result down
// through an implicit zero.
func FinalScore(pagespeed, directory *int) *int {
	var scores []int
	for _, s := range []*int{pagespeed, directory} {
		if s != nil {
			scores = append(scores, *s)
		}
	}
	if len(scores) == 0 {
		return nil
	}
	sort.Ints(scores)
	mid := len(scores) / 2
	var median float64
	if len(scores)%2 == 0 {
		median = float64(scores[mid-1]+scores[mid]) / 2
	} else {
		median = float64(scores[mid])
	}
	v := int(math.Round(median))
	return &v
}

// checksScore is the percentage of structural flags that passed. Flags that
// were never evaluated (nil pointers on older analyses) are excluded from
// both sides of the ratio.
func checksScore(w domain.WebsiteAnalysis) int {
	known := []bool{
		w.HasHTTPS,
		w.HasTitle,
		w.HasMetaDescription,
		w.HasH1,
		w.HasSchema,
		w.HasLocalBusinessSchema,
		w.HasCTA,
		w.HasContactForm,
		w.HasReviews,
	}
	optional := []*bool{
		w.HasViewportMeta,
		w.HasCanonical,
		w.HasLangAttribute,
		w.HasFavicon,
		w.HasOpenGraph,
		w.HasTwitterCard,
	}
	total := len(known)
	passed := 0
	for _, c := range known {
		if c {
			passed++
		}
	}
	for _, c := range optional {
		if c == nil {
			continue
		}
		total++
		if *c {
			passed++
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(passed) / float64(total) * 100))
}

// WebStandardsScore measures adherence to modern markup and performance
// conventions. The Lighthouse category average is weighted 3:1 over the
// static checklist when an audit is available; with no website there is no
// score at all.
func WebStandardsScore(ps *domain.PageSpeedResult, w domain.WebsiteAnalysis) *int {
	if !w.HasWebsite {
		return nil
	}
	checks := checksScore(w)
	if ps == nil {
		v := checks
		return &v
	}
	sum := float64(ps.Performance)
	n := 1
	for _, c := range []*int{ps.Accessibility, ps.BestPractices, ps.SEO} {
		if c != nil {
			sum += float64(*c)
			n++
		}
	}
	avg := sum / float64(n)
	v := int(math.Round(avg*0.75 + float64(checks)*0.25))
	return &v
}

// Score combines the performance audit, the structural analysis and the
// secondary-directory signals into a breakdown. The weakness notes start with
// the analyzer's own notes and grow in a fixed order; each condition is
// evaluated independently, so several notes routinely co-occur.
func Score(ps *domain.PageSpeedResult, website domain.WebsiteAnalysis, rating, popularity *float64, meta *DirectoryMeta) domain.AnalysisBreakdown {
	notes := make([]string, 0, len(website.WeaknessNotes)+8)
	notes = append(notes, website.WeaknessNotes...)

	var pagespeedScore *int
	if ps != nil {
		v := ps.Performance
		pagespeedScore = &v
		if v < 50 {
			notes = append(notes, fmt.Sprintf("Low PageSpeed score: %d/100", v))
		}
		if !ps.MobileFriendly {
			notes = append(notes, "Not mobile-friendly")
		}
		if ps.DesktopPerformance != nil && *ps.DesktopPerformance < 50 {
			notes = append(notes, fmt.Sprintf("Low desktop PageSpeed: %d/100", *ps.DesktopPerformance))
		}
	} else if website.HasWebsite {
		// Pointless to report an unavailable audit for a nonexistent site.
		notes = append(notes, "PageSpeed unavailable (check GOOGLE_API_KEY or API quota)")
	}

	if ps != nil && ps.CoreWebVitals != nil {
		cwv := ps.CoreWebVitals
		if cwv.LCP != nil && *cwv.LCP > 4000 {
			notes = append(notes, fmt.Sprintf("Poor LCP: %dms", *cwv.LCP))
		}
		if cwv.CLS != nil && *cwv.CLS > 0.25 {
			notes = append(notes, "High CLS: "+strconv.FormatFloat(*cwv.CLS, 'f', -1, 64))
		}
		if cwv.INP != nil && *cwv.INP > 500 {
			notes = append(notes, fmt.Sprintf("Poor INP: %dms", *cwv.INP))
		}
	}

	foursquareScore := DirectoryScore(rating, popularity)
	if foursquareScore == nil {
		notes = append(notes, "No Foursquare presence")
	} else if *foursquareScore < 50 {
		notes = append(notes, fmt.Sprintf("Low Foursquare authority: %d/100", *foursquareScore))
	}
	if meta != nil && meta.MatchConfidence != nil && *meta.MatchConfidence < 0.5 {
		notes = append(notes, "Low confidence Foursquare match")
	}

	match := &domain.DirectoryMatch{Rating: rating, Popularity: popularity}
	if meta != nil {
		match.FsqID = meta.FsqID
		match.MatchConfidence = meta.MatchConfidence
	}

	return domain.AnalysisBreakdown{
		PagespeedScore:    pagespeedScore,
		FoursquareScore:   foursquareScore,
		FinalScore:        FinalScore(pagespeedScore, foursquareScore),
		WebStandardsScore: WebStandardsScore(ps, website),
		WeaknessNotes:     notes,
		Pagespeed:         ps,
		Website:           &website,
		Foursquare:        match,
	}
}
