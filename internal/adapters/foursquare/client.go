// Package foursquare is the raw client for the secondary ratings directory.
// Responses are decoded into typed payloads at this boundary; untyped maps
// never leave the adapter.
package foursquare

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"prospect/internal/domain"
)

const defaultBaseURL = "https://api.foursquare.com"

const searchFields = "fsq_id,name,rating,popularity,location,categories,geocodes"

type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func New(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// NewWithBaseURL is used by tests to point the client at a stub server.
func NewWithBaseURL(apiKey, baseURL string) *Client {
	c := New(apiKey)
	c.baseURL = baseURL
	return c
}

func (c *Client) Enabled() bool { return c.apiKey != "" }

type placePayload struct {
	FsqID      string   `json:"fsq_id"`
	Name       string   `json:"name"`
	Rating     *float64 `json:"rating"`
	Popularity *float64 `json:"popularity"`
	Location   struct {
		Address  *string `json:"address"`
		Locality *string `json:"locality"`
	} `json:"location"`
	Categories []struct {
		Name string `json:"name"`
	} `json:"categories"`
}

func (p placePayload) toDomain() domain.DirectoryPlace {
	out := domain.DirectoryPlace{
		FsqID:      p.FsqID,
		Name:       p.Name,
		Rating:     p.Rating,
		Popularity: p.Popularity,
		Locality:   p.Location.Locality,
		Address:    p.Location.Address,
	}
	for _, c := range p.Categories {
		out.Categories = append(out.Categories, c.Name)
	}
	return out
}

// Search runs the proximity search. Callers are expected to treat any error
// as "no match"; the client itself never retries.
func (c *Client) Search(ctx context.Context, query string, lat, lng float64, limit int) ([]domain.DirectoryPlace, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("ll", fmt.Sprintf("%f,%f", lat, lng))
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("fields", searchFields)

	var payload struct {
		Results []placePayload `json:"results"`
	}
	if err := c.get(ctx, "/v3/places/search?"+params.Encode(), &payload); err != nil {
		return nil, err
	}

	out := make([]domain.DirectoryPlace, 0, len(payload.Results))
	for _, p := range payload.Results {
		out = append(out, p.toDomain())
	}
	return out, nil
}

// Details fetches the full record for a known candidate id.
func (c *Client) Details(ctx context.Context, fsqID string) (*domain.DirectoryPlace, error) {
	params := url.Values{}
	params.Set("fields", searchFields)

	var payload placePayload
	if err := c.get(ctx, "/v3/places/"+url.PathEscape(fsqID)+"?"+params.Encode(), &payload); err != nil {
		return nil, err
	}
	place := payload.toDomain()
	return &place, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("foursquare api: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
