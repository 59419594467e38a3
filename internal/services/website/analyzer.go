// Package website performs the structural analysis of a business's own site:
// one fetch, one parse, a fixed checklist of markup signals.
package website

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"prospect/internal/domain"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

type Analyzer struct {
	client *http.Client
	logger *log.Logger
}

func New(logger *log.Logger) *Analyzer {
	return &Analyzer{
		client: &http.Client{Timeout: 20 * time.Second},
		logger: logger,
	}
}

// NoWebsite synthesizes the analysis for a business without a site: every
// flag false plus the single sentinel note. Downstream scoring keys off
// HasWebsite and must not fabricate a performance score for it.
func NoWebsite() domain.WebsiteAnalysis {
	f := false
	return domain.WebsiteAnalysis{
		HasWebsite:       false,
		HasViewportMeta:  &f,
		HasCanonical:     &f,
		HasLangAttribute: &f,
		HasFavicon:       &f,
		HasOpenGraph:     &f,
		HasTwitterCard:   &f,
		WeaknessNotes:    []string{domain.NoteNoWebsite},
	}
}

// Analyze fetches the page and evaluates each flag independently. It never
// returns an error: fetch and parse failures degrade to an analysis with a
// single weakness note and whatever the URL alone can prove (the HTTPS flag).
func (a *Analyzer) Analyze(ctx context.Context, rawurl string) domain.WebsiteAnalysis {
	f := false
	out := domain.WebsiteAnalysis{
		HasWebsite:       true,
		HasHTTPS:         strings.HasPrefix(rawurl, "https://"),
		HasViewportMeta:  &f,
		HasCanonical:     &f,
		HasLangAttribute: &f,
		HasFavicon:       &f,
		HasOpenGraph:     &f,
		HasTwitterCard:   &f,
		WeaknessNotes:    []string{},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		out.WeaknessNotes = append(out.WeaknessNotes, "Failed to analyze website")
		return out
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Printf("website analyze: fetch %s: %v", rawurl, err)
		out.WeaknessNotes = append(out.WeaknessNotes, "Failed to analyze website")
		return out
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		out.WeaknessNotes = append(out.WeaknessNotes, "Website returned error status")
		return out
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		a.logger.Printf("website analyze: parse %s: %v", rawurl, err)
		out.WeaknessNotes = append(out.WeaknessNotes, "Failed to analyze website")
		return out
	}

	evaluate(doc, &out)
	return out
}

// boolSet writes v through one of the optional flags.
func boolSet(dst **bool, v bool) {
	*dst = &v
}

// evaluate fills the flags and appends weakness notes in their fixed order:
// viewport, canonical, lang, favicon, Open Graph, Twitter Card, title, meta
// description, H1, schema, local-business schema, CTA/contact, reviews,
// HTTPS. Outreach drafts surface the first note, so the order is contract.
func evaluate(doc *goquery.Document, out *domain.WebsiteAnalysis) {
	note := func(s string) {
		out.WeaknessNotes = append(out.WeaknessNotes, s)
	}

	boolSet(&out.HasViewportMeta, doc.Find(`meta[name="viewport"]`).Length() > 0)
	if !*out.HasViewportMeta {
		note("No viewport meta tag found")
	}

	canonical, _ := doc.Find(`link[rel="canonical"]`).Attr("href")
	boolSet(&out.HasCanonical, strings.TrimSpace(canonical) != "")
	if !*out.HasCanonical {
		note("No canonical link found")
	}

	lang, _ := doc.Find("html").Attr("lang")
	boolSet(&out.HasLangAttribute, strings.TrimSpace(lang) != "")
	if !*out.HasLangAttribute {
		note("No lang attribute found")
	}

	favicon := doc.Find(`link[rel="icon"], link[rel="shortcut icon"], link[rel="apple-touch-icon"]`)
	boolSet(&out.HasFavicon, favicon.Length() > 0)
	if !*out.HasFavicon {
		note("No favicon found")
	}

	boolSet(&out.HasOpenGraph, doc.Find(`meta[property^="og:"]`).Length() > 0)
	if !*out.HasOpenGraph {
		note("No Open Graph tags found")
	}

	boolSet(&out.HasTwitterCard, doc.Find(`meta[name^="twitter:"]`).Length() > 0)
	if !*out.HasTwitterCard {
		note("No Twitter Card tags found")
	}

	out.HasTitle = strings.TrimSpace(doc.Find("title").Text()) != ""
	if !out.HasTitle {
		note("No page title found")
	}

	metaDesc, _ := doc.Find(`meta[name="description"]`).Attr("content")
	out.HasMetaDescription = metaDesc != ""
	if !out.HasMetaDescription {
		note("No meta description found")
	}

	out.HasH1 = strings.TrimSpace(doc.Find("h1").First().Text()) != ""
	if !out.HasH1 {
		note("No H1 heading found")
	}

	schemaBlocks := doc.Find(`script[type="application/ld+json"]`)
	out.HasSchema = schemaBlocks.Length() > 0
	schemaBlocks.Each(func(_ int, s *goquery.Selection) {
		types, ok := parseSchemaTypes(s.Text())
		if !ok {
			// Malformed embedded JSON is skipped, not reported.
			return
		}
		for _, t := range types {
			if t == "LocalBusiness" || t == "Restaurant" || t == "Store" {
				out.HasLocalBusinessSchema = true
			}
		}
	})
	if !out.HasSchema {
		note("No schema markup found")
	} else if !out.HasLocalBusinessSchema {
		note("No LocalBusiness schema markup found")
	}

	// Coarse keyword heuristics over the visible body text; incidental
	// occurrences are accepted.
	pageText := strings.ToLower(doc.Find("body").Text())
	ctaKeywords := []string{"contact", "book", "call", "email", "get quote", "request", "schedule"}
	for _, kw := range ctaKeywords {
		if strings.Contains(pageText, kw) {
			out.HasCTA = true
			break
		}
	}

	hasForm := doc.Find("form").Length() > 0
	hasMailto := doc.Find(`a[href^="mailto:"]`).Length() > 0
	out.HasContactForm = hasForm || hasMailto
	if !out.HasCTA && !out.HasContactForm {
		note("No clear call-to-action or contact form found")
	}

	reviewKeywords := []string{"review", "testimonial", "rating", "customer", "client"}
	for _, kw := range reviewKeywords {
		if strings.Contains(pageText, kw) {
			out.HasReviews = true
			break
		}
	}
	if !out.HasReviews {
		note("No reviews or testimonials found on site")
	}

	if !out.HasHTTPS {
		note("Website does not use HTTPS")
	}
}

// parseSchemaTypes decodes one JSON-LD block and returns its @type values.
// The second return reports whether the block parsed at all; a malformed
// block is an explicit skip, not an error.
func parseSchemaTypes(raw string) ([]string, bool) {
	var block struct {
		Type any `json:"@type"`
	}
	if err := json.Unmarshal([]byte(raw), &block); err != nil {
		return nil, false
	}
	switch t := block.Type.(type) {
	case string:
		return []string{t}, true
	case []any:
		var types []string
		for _, v := range t {
			if s, ok := v.(string); ok {
				types = append(types, s)
			}
		}
		return types, true
	}
	return nil, true
}
