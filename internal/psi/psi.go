// Package psi implements a client for Google's PageSpeed Insights API,
// used by the orchestrator's optional performance probe.
package psi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const endpoint = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

// Client calls the PageSpeed Insights API for a single URL's performance
// score. It satisfies orchestrator.PSIClient.
type Client struct {
	APIKey     string
	HTTPClient *http.Client
}

func New(apiKey string) *Client {
	return &Client{APIKey: apiKey, HTTPClient: &http.Client{Timeout: 5 * time.Second}}
}

type psiResponse struct {
	LighthouseResult struct {
		Categories struct {
			Performance struct {
				Score float64 `json:"score"`
			} `json:"performance"`
		} `json:"categories"`
	} `json:"lighthouseResult"`
}

// Score fetches the 0-100 performance score for target, rounding
// lighthouseResult.categories.performance.score (0-1) to the nearest int.
func (c *Client) Score(ctx context.Context, target string) (int, error) {
	q := url.Values{}
	q.Set("url", target)
	q.Set("category", "PERFORMANCE")
	if c.APIKey != "" {
		q.Set("key", c.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("build psi request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("psi request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("psi responded %d", resp.StatusCode)
	}

	var out psiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode psi response: %w", err)
	}

	return int(out.LighthouseResult.Categories.Performance.Score*100 + 0.5), nil
}
