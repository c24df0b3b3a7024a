package posts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirscraper/pkg/config"
	"dirscraper/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.ScraperConfig{
		APIToken: "test-token",
		Actor:    "vendor/profile-posts-scraper",
		BaseURL:  server.URL,
		MaxPosts: 100,
	}, 5*time.Second, nil)
}

func TestScrapeProfile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		// Actor path uses the user~actor form and carries the token
		assert.Contains(t, r.URL.Path, "vendor~profile-posts-scraper")
		assert.Contains(t, r.URL.Path, "run-sync-get-dataset-items")
		assert.Equal(t, "test-token", r.URL.Query().Get("token"))

		var input struct {
			Usernames []string `json:"usernames"`
			MaxPosts  int      `json:"maxPosts"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		assert.Equal(t, []string{"https://www.linkedin.com/in/janesmith"}, input.Usernames)
		assert.Equal(t, 100, input.MaxPosts)

		json.NewEncoder(w).Encode([]Post{
			{
				ProfileInput: "https://www.linkedin.com/in/janesmith",
				Text:         "Excited to share our results",
				PostedAt:     PostedAt{Date: "2025-06-01", Timestamp: 1748736000000},
				Author:       Author{FirstName: "Jane", LastName: "Smith", Headline: "CFO at Acme"},
				Stats:        Stats{TotalReactions: 42, Comments: 5},
			},
		})
	})

	items, err := client.ScrapeProfile(context.Background(), "https://www.linkedin.com/in/janesmith")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Jane", items[0].Author.FirstName)
	assert.Equal(t, 42, items[0].Stats.TotalReactions)
}

func TestScrapeProfileErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantType errors.ErrorType
	}{
		{"CreditExhaustedFrom402", http.StatusPaymentRequired, errors.ErrorTypeQuotaExceeded},
		{"RateLimitFrom429", http.StatusTooManyRequests, errors.ErrorTypeRateLimit},
		{"AuthFrom401", http.StatusUnauthorized, errors.ErrorTypeAuth},
		{"AuthFrom403", http.StatusForbidden, errors.ErrorTypeAuth},
		{"ServerErrorFrom503", http.StatusServiceUnavailable, errors.ErrorTypeServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := client.ScrapeProfile(context.Background(), "https://www.linkedin.com/in/x")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantType), "got %v", err)
		})
	}
}

func TestScrapeProfileMalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "a list"}`))
	})

	_, err := client.ScrapeProfile(context.Background(), "https://www.linkedin.com/in/x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeParsing))
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://www.linkedin.com/in/jane",
		NormalizeURL("https://www.linkedin.com/in/jane/?utm=x"))
	assert.Equal(t, "https://www.linkedin.com/in/jane",
		NormalizeURL("https://www.linkedin.com/in/jane/"))
	assert.Equal(t, "https://www.linkedin.com/in/jane",
		NormalizeURL("https://www.linkedin.com/in/jane"))
}
