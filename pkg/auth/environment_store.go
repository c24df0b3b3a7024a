package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment variables.
// This keeps compatibility with the original research scripts, which read
// GOOGLE_API_KEY, GOOGLE_CSE_ID and APIFY_API_TOKEN from the environment.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(profile *Profile) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(name string) (*Profile, error) {
	apiKey := firstEnv("DIRSCRAPER_SEARCH_API_KEY", "GOOGLE_API_KEY")
	engineID := firstEnv("DIRSCRAPER_SEARCH_ENGINE_ID", "GOOGLE_CSE_ID")
	scrapeToken := firstEnv("DIRSCRAPER_SCRAPER_API_TOKEN", "APIFY_API_TOKEN")

	if apiKey == "" && scrapeToken == "" {
		return nil, ErrCredentialsNotFound
	}

	// Environment variables don't carry a profile name
	if name == "" {
		name = "default"
	}

	return &Profile{
		Name:           name,
		SearchAPIKey:   apiKey,
		SearchEngineID: engineID,
		ScrapeToken:    scrapeToken,
		LastModified:   time.Now(),
	}, nil
}

// List returns a single profile if environment variables are set
func (e *EnvironmentStore) List() ([]*Profile, error) {
	profile, err := e.Retrieve("")
	if err != nil {
		return []*Profile{}, nil
	}
	return []*Profile{profile}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(name string) bool {
	_, err := e.Retrieve(name)
	return err == nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
