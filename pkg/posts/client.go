// Package posts collects LinkedIn posts for resolved profile URLs through
// a third-party scraping API actor. Each lookup submits one profile URL
// to the actor's synchronous run endpoint and parses the returned dataset
// items, where each item is one post.
package posts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dirscraper/pkg/config"
	"dirscraper/pkg/errors"
	"dirscraper/pkg/logger"
)

// Post is one scraped post. The actor returns a flat list where each
// item is one post; profile_input is the URL we submitted (the join key).
type Post struct {
	ProfileInput string   `json:"profile_input"`
	Text         string   `json:"text"`
	URL          string   `json:"url"`
	PostType     string   `json:"post_type"`
	PostedAt     PostedAt `json:"posted_at"`
	Author       Author   `json:"author"`
	Stats        Stats    `json:"stats"`
}

// PostedAt carries the post timestamp in both forms the actor emits
type PostedAt struct {
	Date      string `json:"date"`
	Timestamp int64  `json:"timestamp"`
}

// Author is the nested post author record
type Author struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Headline  string `json:"headline"`
	Username  string `json:"username"`
}

// Stats is the nested engagement block
type Stats struct {
	TotalReactions int `json:"total_reactions"`
	Like           int `json:"like"`
	Comments       int `json:"comments"`
	Reposts        int `json:"reposts"`
}

type runInput struct {
	Usernames []string `json:"usernames"`
	MaxPosts  int      `json:"maxPosts"`
}

// Client calls the scraping API's synchronous actor-run endpoint
type Client struct {
	httpClient *http.Client
	cfg        config.ScraperConfig
	logger     logger.Logger
}

// NewClient creates a scraping API client
func NewClient(cfg config.ScraperConfig, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
		logger:     log,
	}
}

// ScrapeProfile runs the actor for one profile URL and returns its posts.
// Failures are reported as typed errors so quota exhaustion is
// distinguishable from transient trouble.
func (c *Client) ScrapeProfile(ctx context.Context, profileURL string) ([]Post, error) {
	body, err := json.Marshal(runInput{
		Usernames: []string{profileURL},
		MaxPosts:  c.cfg.MaxPosts,
	})
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeUnknown, "failed to encode run input: %v", err)
	}

	endpoint := fmt.Sprintf("%s/acts/%s/run-sync-get-dataset-items?token=%s",
		c.cfg.BaseURL, actorPath(c.cfg.Actor), url.QueryEscape(c.cfg.APIToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeUnknown, "failed to build scrape request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.DebugWithFields("Scraper API request", map[string]interface{}{
		"profile_url": profileURL,
		"max_posts":   c.cfg.MaxPosts,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeNetwork, "scrape request failed: %v", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		// Fall through to decoding
	case resp.StatusCode == http.StatusPaymentRequired:
		// Account ran out of platform credit
		return nil, errors.NewWithCode(errors.ErrorTypeQuotaExceeded, resp.StatusCode, "scraping API credit exhausted")
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.NewWithCode(errors.ErrorTypeRateLimit, resp.StatusCode, "scraping API rate limited")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.NewWithCode(errors.ErrorTypeAuth, resp.StatusCode, "scraping API rejected credentials")
	case resp.StatusCode >= 500:
		return nil, errors.NewWithCode(errors.ErrorTypeServerError, resp.StatusCode,
			fmt.Sprintf("scraping API server error: %s", resp.Status))
	default:
		return nil, errors.NewWithCode(errors.ErrorTypeUnknown, resp.StatusCode,
			fmt.Sprintf("unexpected scraping API response: %s", resp.Status))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeNetwork, "failed to read scrape response: %v", err)
	}

	var items []Post
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, errors.Newf(errors.ErrorTypeParsing, "failed to parse scrape response: %v", err)
	}

	return items, nil
}

// actorPath converts "user/actor" to the "user~actor" path form the API
// expects
func actorPath(actor string) string {
	return strings.ReplaceAll(actor, "/", "~")
}

// NormalizeURL strips query params and a trailing slash so submitted and
// returned profile URLs compare equal
func NormalizeURL(u string) string {
	if i := strings.Index(u, "?"); i >= 0 {
		u = u[:i]
	}
	return strings.TrimRight(u, "/")
}
