// Package audit adapts raw performance reports into the one record the
// scorer consumes: mobile and desktop runs requested concurrently, merged
// mobile-first.
package audit

import (
	"context"
	"log"
	"math"
	"sync"

	"prospect/internal/adapters/pagespeed"
	"prospect/internal/domain"
)

// Runner is the raw audit API surface.
type Runner interface {
	Enabled() bool
	Run(ctx context.Context, pageURL, strategy string) (*pagespeed.Report, error)
}

type Auditor struct {
	runner Runner
	logger *log.Logger
}

func New(runner Runner, logger *log.Logger) *Auditor {
	return &Auditor{runner: runner, logger: logger}
}

// Audit runs both strategies concurrently. Either run may fail on its own;
// only both failing (or a missing credential) yields nil. The mobile run is
// primary; when it fails the desktop run stands in with MobileFriendly forced
// false, since that signal is only evaluable on a mobile run.
func (a *Auditor) Audit(ctx context.Context, pageURL string) *domain.PageSpeedResult {
	if !a.runner.Enabled() {
		return nil
	}

	var mobile, desktop *domain.PageSpeedResult
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		mobile = a.run(ctx, pageURL, pagespeed.StrategyMobile)
	}()
	go func() {
		defer wg.Done()
		desktop = a.run(ctx, pageURL, pagespeed.StrategyDesktop)
	}()
	wg.Wait()

	if mobile == nil && desktop == nil {
		return nil
	}

	primary := mobile
	if primary == nil {
		primary = desktop
	}
	out := *primary
	if desktop != nil {
		v := desktop.Performance
		out.DesktopPerformance = &v
	}
	return &out
}

func (a *Auditor) run(ctx context.Context, pageURL, strategy string) *domain.PageSpeedResult {
	report, err := a.runner.Run(ctx, pageURL, strategy)
	if err != nil {
		a.logger.Printf("pagespeed audit (%s) %s: %v", strategy, pageURL, err)
		return nil
	}
	return extract(report, strategy)
}

// extract normalizes one report. Category scores arrive as 0-1 fractions and
// become 0-100 integers; a zero or absent category is omitted, except
// performance which defaults to 0.
func extract(report *pagespeed.Report, strategy string) *domain.PageSpeedResult {
	if report == nil || report.LighthouseResult == nil {
		return nil
	}
	lr := report.LighthouseResult

	out := &domain.PageSpeedResult{
		Performance:   categoryScoreOrZero(lr.Categories.Performance),
		Accessibility: categoryScore(lr.Categories.Accessibility),
		BestPractices: categoryScore(lr.Categories.BestPractices),
		SEO:           categoryScore(lr.Categories.SEO),
	}

	if strategy == pagespeed.StrategyMobile {
		out.MobileFriendly = auditPassed(lr.Audits, "viewport") && auditPassed(lr.Audits, "uses-responsive-images")
	}

	cwv := &domain.CoreWebVitals{}
	if lcp := auditValue(lr.Audits, "largest-contentful-paint"); lcp != nil && *lcp != 0 {
		v := int(math.Round(*lcp))
		cwv.LCP = &v
	}
	if cls := auditValue(lr.Audits, "cumulative-layout-shift"); cls != nil {
		v := math.Round(*cls*100) / 100
		cwv.CLS = &v
	}
	if report.LoadingExperience != nil {
		if m, ok := report.LoadingExperience.Metrics["INTERACTION_TO_NEXT_PAINT"]; ok && m.Percentile != nil {
			v := int(math.Round(*m.Percentile))
			cwv.INP = &v
		}
	}
	out.CoreWebVitals = cwv

	return out
}

func categoryScore(c *pagespeed.Category) *int {
	if c == nil || c.Score == nil || *c.Score == 0 {
		return nil
	}
	v := int(math.Round(*c.Score * 100))
	return &v
}

func categoryScoreOrZero(c *pagespeed.Category) int {
	if s := categoryScore(c); s != nil {
		return *s
	}
	return 0
}

func auditPassed(audits map[string]pagespeed.Audit, key string) bool {
	a, ok := audits[key]
	return ok && a.Score != nil && *a.Score == 1
}

func auditValue(audits map[string]pagespeed.Audit, key string) *float64 {
	if a, ok := audits[key]; ok {
		return a.NumericValue
	}
	return nil
}
