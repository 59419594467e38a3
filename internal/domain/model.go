package domain

import (
	"encoding/json"
	"time"
)

// Core domain models. Wire payloads from the external providers live in their
// adapter packages; only normalized shapes cross into here.

type Business struct {
	ID                        string
	PlaceID                   string
	Name                      string
	Website                   *string
	WebsiteDomain             *string // registrable domain (eTLD+1) of Website
	Address                   *string
	Phone                     *string
	Categories                []string
	GoogleRating              *float64
	GoogleReviewCount         *int
	FoursquareRating          *float64
	FoursquarePopularity      *float64
	FoursquareMatchConfidence *float64
	Checked                   bool
	FinalScore                *int
	LastScanned               *time.Time
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// BusinessUpsert carries the fields refreshed on every directory search.
// Upserts are keyed by PlaceID; businesses are never deleted.
type BusinessUpsert struct {
	PlaceID           string
	Name              string
	Website           *string
	WebsiteDomain     *string
	Address           *string
	Phone             *string
	Categories        []string
	GoogleRating      *float64
	GoogleReviewCount *int
}

// SourceSnapshot is an immutable, provider-tagged capture of one raw upstream
// response. At most one live snapshot exists per (business, provider); each
// refresh replaces the prior one.
type SourceSnapshot struct {
	ID         string
	BusinessID string
	Provider   string
	Raw        json.RawMessage
	CreatedAt  time.Time
}

const (
	ProviderGoogle     = "google"
	ProviderFoursquare = "foursquare"
)

// Analysis is one persisted scoring run. The denormalized sub-score columns
// mirror the breakdown JSON; the JSON is authoritative for read paths.
type Analysis struct {
	ID                string
	BusinessID        string
	PagespeedScore    *int
	FoursquareScore   *int
	WebStandardsScore *int
	FinalScore        *int
	Breakdown         json.RawMessage
	CreatedAt         time.Time
}

// WebsiteAnalysis holds the structural checks for one page. The six pointer
// flags were added after the first persisted analyses; nil means the check was
// never evaluated and it is excluded from the checks score entirely.
type WebsiteAnalysis struct {
	HasWebsite             bool     `json:"has_website"`
	HasHTTPS               bool     `json:"hasHttps"`
	HasTitle               bool     `json:"hasTitle"`
	HasMetaDescription     bool     `json:"hasMetaDescription"`
	HasH1                  bool     `json:"hasH1"`
	HasSchema              bool     `json:"hasSchema"`
	HasLocalBusinessSchema bool     `json:"hasLocalBusinessSchema"`
	HasViewportMeta        *bool    `json:"hasViewportMeta,omitempty"`
	HasCanonical           *bool    `json:"hasCanonical,omitempty"`
	HasLangAttribute       *bool    `json:"hasLangAttribute,omitempty"`
	HasFavicon             *bool    `json:"hasFavicon,omitempty"`
	HasOpenGraph           *bool    `json:"hasOpenGraph,omitempty"`
	HasTwitterCard         *bool    `json:"hasTwitterCard,omitempty"`
	HasCTA                 bool     `json:"hasCTA"`
	HasContactForm         bool     `json:"hasContactForm"`
	HasReviews             bool     `json:"hasReviews"`
	WeaknessNotes          []string `json:"weaknessNotes"`
}

// NoteNoWebsite is kept alongside the HasWebsite flag so persisted breakdowns
// stay readable by everything that already keys off the note text.
const NoteNoWebsite = "No website found"

type CoreWebVitals struct {
	LCP *int     `json:"lcp,omitempty"` // ms
	INP *int     `json:"inp,omitempty"` // ms, field data percentile
	CLS *float64 `json:"cls,omitempty"`
}

// PageSpeedResult is the merged mobile/desktop audit. Performance is the
// primary (mobile when available) score; the optional categories are omitted
// when the audit did not report them.
type PageSpeedResult struct {
	Performance        int            `json:"performance"`
	Accessibility      *int           `json:"accessibility,omitempty"`
	BestPractices      *int           `json:"bestPractices,omitempty"`
	SEO                *int           `json:"seo,omitempty"`
	MobileFriendly     bool           `json:"mobileFriendly"`
	DesktopPerformance *int           `json:"desktopPerformance,omitempty"`
	CoreWebVitals      *CoreWebVitals `json:"coreWebVitals,omitempty"`
}

// DirectoryMatch summarizes the secondary-directory signals that fed a
// scoring run.
type DirectoryMatch struct {
	FsqID           *string  `json:"fsq_id,omitempty"`
	Rating          *float64 `json:"rating"`
	Popularity      *float64 `json:"popularity"`
	MatchConfidence *float64 `json:"match_confidence"`
}

// AnalysisBreakdown is the scorer output. The pagespeed, website,
// web_standards_score and foursquare keys are always emitted (null when
// unknown): their absence is the staleness signal for breakdowns written by
// older revisions.
type AnalysisBreakdown struct {
	PagespeedScore    *int             `json:"pagespeed_score"`
	FoursquareScore   *int             `json:"foursquare_score"`
	FinalScore        *int             `json:"final_score"`
	WebStandardsScore *int             `json:"web_standards_score"`
	WeaknessNotes     []string         `json:"weakness_notes"`
	Pagespeed         *PageSpeedResult `json:"pagespeed"`
	Website           *WebsiteAnalysis `json:"website"`
	Foursquare        *DirectoryMatch  `json:"foursquare"`
}

// Place is a normalized primary-directory result.
type Place struct {
	PlaceID          string
	Name             string
	Website          *string
	FormattedAddress *string
	Phone            *string
	Types            []string
	Rating           *float64
	UserRatingsTotal *int
	Lat              *float64
	Lng              *float64
}

// DirectoryPlace is a normalized secondary-directory candidate.
type DirectoryPlace struct {
	FsqID      string
	Name       string
	Rating     *float64
	Popularity *float64
	Locality   *string
	Address    *string
	Categories []string
}

type SearchParams struct {
	Location string `validate:"required"`
	Category string
	Keywords string
	Limit    int `validate:"omitempty,min=1,max=60"`
}

/// BusinessView is the API/read shape: the business row plus the latest
// breakdown when one exists.
type BusinessView struct {
	ID                string             `json:"id"`
	PlaceID           string             `json:"place_id"`
	Name              string             `json:"name"`
	Website           *string            `json:"website"`
	Address           *string            `json:"address"`
	Phone             *string            `json:"phone"`
	Categories        []string           `json:"categories"`
	GoogleRating      *float64           `json:"google_rating"`
	GoogleReviewCount *int               `json:"google_review_count"`
	FoursquareRating  *float64           `json:"foursquare_rating"`
	FinalScore        *int               `json:"final_score"`
	Checked           bool               `json:"checked"`
	Breakdown         *AnalysisBreakdown `json:"breakdown"`
}
