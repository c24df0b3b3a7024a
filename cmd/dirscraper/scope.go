package main

import (
	"fmt"
	"path/filepath"

	"dirscraper/pkg/config"
	"dirscraper/pkg/lookup"
	"dirscraper/pkg/posts"
	"dirscraper/pkg/search"
)

// Pipeline scopes. Each scope is one billed stage with its own batch,
// checkpoint and result directories so quota pauses in one stage never
// interfere with the other.
const (
	scopeURL   = "url"
	scopePosts = "posts"
)

// scopeDirs holds the per-scope working directories
type scopeDirs struct {
	batch      string
	checkpoint string
	results    string
}

func dirsFor(cfg *config.Config, scope string) scopeDirs {
	return scopeDirs{
		batch:      filepath.Join(cfg.Paths.BatchDir, scope),
		checkpoint: filepath.Join(cfg.Paths.CheckpointDir, scope),
		results:    filepath.Join(cfg.Paths.ResultsDir, scope),
	}
}

// combinedPath is where the combine command writes a scope's merged results
func combinedPath(dirs scopeDirs) string {
	return filepath.Join(dirs.results, "combined_results.csv")
}

func validScope(scope string) error {
	if scope != scopeURL && scope != scopePosts {
		return fmt.Errorf("invalid scope %q (must be %q or %q)", scope, scopeURL, scopePosts)
	}
	return nil
}

// newLookup builds the lookup capability for a scope, validating that the
// credentials it needs are present
func newLookup(cfg *config.Config, scope string, dirs scopeDirs) (lookup.Lookup, error) {
	switch scope {
	case scopeURL:
		if cfg.Search.APIKey == "" || cfg.Search.EngineID == "" {
			return nil, fmt.Errorf("search API credentials missing: set DIRSCRAPER_SEARCH_API_KEY and DIRSCRAPER_SEARCH_ENGINE_ID or run 'dirscraper auth login'")
		}
		client := search.NewClient(cfg.Search, cfg.Batch.CallTimeout, nil)
		return search.NewURLLookup(client, cfg.RateLimit, nil), nil

	case scopePosts:
		if cfg.Scraper.APIToken == "" {
			return nil, fmt.Errorf("scraping API token missing: set DIRSCRAPER_SCRAPER_API_TOKEN or run 'dirscraper auth login'")
		}
		client := posts.NewClient(cfg.Scraper, cfg.Batch.CallTimeout, nil)
		rawDir := filepath.Join(dirs.results, "raw_posts")
		return posts.NewPostsLookup(client, rawDir, cfg.RateLimit, nil), nil
	}

	return nil, validScope(scope)
}
