// Package pagespeed is the raw client for the page-performance auditor. The
// report structs are the schema boundary: the JSON is validated into them
// here and nothing upstream sees the raw response.
package pagespeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://www.googleapis.com"

const (
	StrategyMobile  = "mobile"
	StrategyDesktop = "desktop"
)

type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func New(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		// Lighthouse runs are slow; give the audit room to finish.
		client: &http.Client{Timeout: 90 * time.Second},
	}
}

// NewWithBaseURL is used by tests to point the client at a stub server.
func NewWithBaseURL(apiKey, baseURL string) *Client {
	c := New(apiKey)
	c.baseURL = baseURL
	return c
}

func (c *Client) Enabled() bool { return c.apiKey != "" }

type Category struct {
	Score *float64 `json:"score"`
}

type Categories struct {
	Performance   *Category `json:"performance"`
	Accessibility *Category `json:"accessibility"`
	BestPractices *Category `json:"best-practices"`
	SEO           *Category `json:"seo"`
}

type Audit struct {
	Score        *float64 `json:"score"`
	NumericValue *float64 `json:"numericValue"`
}

type LighthouseResult struct {
	Categories Categories       `json:"categories"`
	Audits     map[string]Audit `json:"audits"`
}

type Metric struct {
	Percentile *float64 `json:"percentile"`
}

type LoadingExperience struct {
	Metrics map[string]Metric `json:"metrics"`
}

// Report is one runPagespeed response.
type Report struct {
	LighthouseResult  *LighthouseResult  `json:"lighthouseResult"`
	LoadingExperience *LoadingExperience `json:"loadingExperience"`
}

// Run requests one audit for the given strategy.
func (c *Client) Run(ctx context.Context, pageURL, strategy string) (*Report, error) {
	params := url.Values{}
	params.Set("url", pageURL)
	params.Set("key", c.apiKey)
	params.Set("strategy", strategy)
	for _, cat := range []string{"performance", "accessibility", "best-practices", "seo"} {
		params.Add("category", cat)
	}

	endpoint := c.baseURL + "/pagespeedonline/v5/runPagespeed?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pagespeed api (%s): %s", strategy, resp.Status)
	}

	var report Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("pagespeed api (%s): decode: %w", strategy, err)
	}
	return &report, nil
}
