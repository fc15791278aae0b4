package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client queries the external pageview-counting service. Every failure mode
// (unconfigured, network error, bad status, malformed body) yields a count of
// zero — analytics must never break a giveaway page.
type Client struct {
	baseURL   string
	profileID string
	http      *http.Client
}

func NewClient(baseURL, profileID string) *Client {
	return &Client{
		baseURL:   baseURL,
		profileID: profileID,
		http:      &http.Client{Timeout: 5 * time.Second},
	}
}

type countResponse struct {
	Pageviews int `json:"pageviews"`
}

// Pageviews returns the all-time pageview count for the given path.
func (c *Client) Pageviews(ctx context.Context, path string) int {
	if c.baseURL == "" {
		return 0
	}
	q := url.Values{}
	q.Set("profile", c.profileID)
	q.Set("path", path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/pageviews?"+q.Encode(), nil)
	if err != nil {
		return 0
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0
	}
	var body countResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0
	}
	return body.Pageviews
}

// GiveawayPageviews counts views of a giveaway's detail page.
func (c *Client) GiveawayPageviews(ctx context.Context, giveawayID string) int {
	return c.Pageviews(ctx, fmt.Sprintf("/giveaway/%s", giveawayID))
}

// InfoboxOpens counts opens of a giveaway's map infobox.
func (c *Client) InfoboxOpens(ctx context.Context, giveawayID string) int {
	return c.Pageviews(ctx, fmt.Sprintf("/modal/giveaway/infobox-open/%s", giveawayID))
}
