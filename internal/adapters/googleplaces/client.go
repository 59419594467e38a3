// Package googleplaces is the raw client for the primary business directory
// (Places text search + details).
package googleplaces

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"prospect/internal/domain"
)

const defaultBaseURL = "https://maps.googleapis.com"

const detailsFields = "place_id,name,website,formatted_address,formatted_phone_number,types,rating,user_ratings_total,geometry"

var ErrNoCredential = fmt.Errorf("google places api key is not configured")

type Client struct {
	apiKey    string
	baseURL   string
	client    *http.Client
	pageDelay time.Duration
}

func New(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 20 * time.Second},
		// The provider requires a short pause before a next_page_token
		// becomes valid.
		pageDelay: 2 * time.Second,
	}
}

// NewWithBaseURL is used by tests to point the client at a stub server and
// skip the pagination delay.
func NewWithBaseURL(apiKey, baseURL string) *Client {
	c := New(apiKey)
	c.baseURL = baseURL
	c.pageDelay = 0
	return c
}

func (c *Client) Enabled() bool { return c.apiKey != "" }

type placePayload struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Website          *string  `json:"website"`
	FormattedAddress *string  `json:"formatted_address"`
	FormattedPhone   *string  `json:"formatted_phone_number"`
	Types            []string `json:"types"`
	Rating           *float64 `json:"rating"`
	UserRatingsTotal *int     `json:"user_ratings_total"`
	Geometry         *struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

func (p placePayload) toDomain() domain.Place {
	out := domain.Place{
		PlaceID:          p.PlaceID,
		Name:             p.Name,
		Website:          p.Website,
		FormattedAddress: p.FormattedAddress,
		Phone:            p.FormattedPhone,
		Types:            p.Types,
		Rating:           p.Rating,
		UserRatingsTotal: p.UserRatingsTotal,
	}
	if p.Geometry != nil {
		lat := p.Geometry.Location.Lat
		lng := p.Geometry.Location.Lng
		out.Lat = &lat
		out.Lng = &lng
	}
	return out
}

type searchResponse struct {
	Status        string         `json:"status"`
	ErrorMessage  string         `json:"error_message"`
	Results       []placePayload `json:"results"`
	NextPageToken string         `json:"next_page_token"`
}

// TextSearch pages through text search results up to maxResults.
func (c *Client) TextSearch(ctx context.Context, query string, maxResults int) ([]domain.Place, error) {
	if !c.Enabled() {
		return nil, ErrNoCredential
	}
	if maxResults <= 0 {
		maxResults = 20
	}

	var all []domain.Place
	pageToken := ""
	for {
		params := url.Values{}
		params.Set("key", c.apiKey)
		if pageToken != "" {
			params.Set("pagetoken", pageToken)
		} else {
			params.Set("query", query)
		}

		var payload searchResponse
		if err := c.get(ctx, "/maps/api/place/textsearch/json?"+params.Encode(), &payload); err != nil {
			return nil, err
		}

		if payload.Status != "OK" && payload.Status != "ZERO_RESULTS" {
			if payload.Status == "REQUEST_DENIED" {
				return nil, fmt.Errorf("google places api: request denied (billing?): %s", payload.ErrorMessage)
			}
			return nil, fmt.Errorf("google places api: %s: %s", payload.Status, payload.ErrorMessage)
		}

		for _, p := range payload.Results {
			all = append(all, p.toDomain())
		}

		pageToken = payload.NextPageToken
		if pageToken == "" || len(all) >= maxResults {
			break
		}
		select {
		case <-ctx.Done():
			return all, ctx.Err()
		case <-time.After(c.pageDelay):
		}
	}

	if len(all) > maxResults {
		all = all[:maxResults]
	}
	return all, nil
}

// Details fetches the full record for one place id.
func (c *Client) Details(ctx context.Context, placeID string) (*domain.Place, error) {
	if !c.Enabled() {
		return nil, ErrNoCredential
	}

	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("key", c.apiKey)
	params.Set("fields", detailsFields)

	var payload struct {
		Status       string        `json:"status"`
		ErrorMessage string        `json:"error_message"`
		Result       *placePayload `json:"result"`
	}
	if err := c.get(ctx, "/maps/api/place/details/json?"+params.Encode(), &payload); err != nil {
		return nil, err
	}
	if payload.Status != "OK" || payload.Result == nil {
		return nil, fmt.Errorf("google places details: %s: %s", payload.Status, payload.ErrorMessage)
	}
	place := payload.Result.toDomain()
	return &place, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("google places api: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
