// Package search finds LinkedIn profile URLs for director/company query
// rows through a web search API restricted to linkedin.com/in/, and
// verifies candidate profiles by matching the director's name and company
// against the result title.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"dirscraper/pkg/config"
	"dirscraper/pkg/errors"
	"dirscraper/pkg/logger"
)

// Item is one search result
type Item struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

type searchResponse struct {
	Items []Item `json:"items"`
}

// Client calls the web search API
type Client struct {
	httpClient *http.Client
	cfg        config.SearchConfig
	logger     logger.Logger
}

// NewClient creates a search API client
func NewClient(cfg config.SearchConfig, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
		logger:     log,
	}
}

// Search runs one query and returns the result items. Failures are
// reported as typed errors so callers can distinguish quota exhaustion
// from transient trouble.
func (c *Client) Search(ctx context.Context, query string) ([]Item, error) {
	params := url.Values{}
	params.Set("key", c.cfg.APIKey)
	params.Set("cx", c.cfg.EngineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(c.cfg.ResultsPerQuery))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeUnknown, "failed to build search request: %v", err)
	}

	c.logger.DebugWithFields("Search API request", map[string]interface{}{
		"query": query,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeNetwork, "search request failed: %v", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Fall through to decoding
	case resp.StatusCode == http.StatusForbidden:
		// The search API reports daily quota exhaustion as 403
		return nil, errors.NewWithCode(errors.ErrorTypeQuotaExceeded, resp.StatusCode, "search API quota exceeded")
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.NewWithCode(errors.ErrorTypeRateLimit, resp.StatusCode, "search API rate limited")
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, errors.NewWithCode(errors.ErrorTypeAuth, resp.StatusCode, "search API rejected credentials")
	case resp.StatusCode >= 500:
		return nil, errors.NewWithCode(errors.ErrorTypeServerError, resp.StatusCode,
			fmt.Sprintf("search API server error: %s", resp.Status))
	default:
		return nil, errors.NewWithCode(errors.ErrorTypeUnknown, resp.StatusCode,
			fmt.Sprintf("unexpected search API response: %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeNetwork, "failed to read search response: %v", err)
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, errors.Newf(errors.ErrorTypeParsing, "failed to parse search response: %v", err)
	}

	return result.Items, nil
}
