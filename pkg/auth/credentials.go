// Package auth stores API credentials for the pipeline: the search API
// key pair used for URL discovery and the scraping API token used for
// post collection. Credentials are grouped into named profiles so
// multiple quota pools can be rotated between runs.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Profile represents one set of API credentials
type Profile struct {
	Name           string    `json:"name"`
	SearchAPIKey   string    `json:"search_api_key"`
	SearchEngineID string    `json:"search_engine_id"`
	ScrapeToken    string    `json:"scrape_token,omitempty"`
	LastModified   time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves a credential profile
	Store(profile *Profile) error

	// Retrieve gets a profile by name
	Retrieve(name string) (*Profile, error)

	// List returns all stored profiles
	List() ([]*Profile, error)

	// Delete removes a profile by name
	Delete(name string) error

	// Exists checks if a profile exists
	Exists(name string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager with appropriate storage backends
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	// Try keyring first (system keychain)
	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	// Always add encrypted file store as fallback
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	// Add environment store as last resort
	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// Store saves a profile using the first available store
func (m *Manager) Store(profile *Profile) error {
	if profile.Name == "" {
		return errors.New("profile name is required")
	}
	if profile.SearchAPIKey == "" && profile.ScrapeToken == "" {
		return errors.New("at least one API credential is required")
	}
	if profile.SearchAPIKey != "" && profile.SearchEngineID == "" {
		return errors.New("search engine ID is required with a search API key")
	}

	profile.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(profile); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets a profile from the first store that has it
func (m *Manager) Retrieve(name string) (*Profile, error) {
	for _, store := range m.stores {
		if profile, err := store.Retrieve(name); err == nil && profile != nil {
			return profile, nil
		}
	}
	return nil, fmt.Errorf("credentials not found for profile: %s", name)
}

// RetrieveDefault gets the default profile or the first available
func (m *Manager) RetrieveDefault() (*Profile, error) {
	// Environment variables take precedence for script compatibility
	if envStore, ok := m.stores[len(m.stores)-1].(*EnvironmentStore); ok {
		if profile, err := envStore.Retrieve(""); err == nil && profile != nil {
			return profile, nil
		}
	}

	profiles, err := m.List()
	if err == nil && len(profiles) > 0 {
		return profiles[0], nil
	}

	return nil, errors.New("no credentials found")
}

// List returns all stored profiles from all stores
func (m *Manager) List() ([]*Profile, error) {
	profileMap := make(map[string]*Profile)

	for _, store := range m.stores {
		profiles, err := store.List()
		if err != nil {
			continue
		}
		for _, profile := range profiles {
			// Use the most recently modified version
			if existing, ok := profileMap[profile.Name]; !ok || profile.LastModified.After(existing.LastModified) {
				profileMap[profile.Name] = profile
			}
		}
	}

	var result []*Profile
	for _, profile := range profileMap {
		result = append(result, profile)
	}

	return result, nil
}

// Delete removes a profile from all stores
func (m *Manager) Delete(name string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("credentials not found for profile: %s", name)
	}

	return nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "dirscraper")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "dirscraper")
	default: // Linux and others
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "dirscraper")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "dirscraper")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// SanitizeProfile creates a copy of the profile with secrets masked
func SanitizeProfile(profile *Profile) *Profile {
	if profile == nil {
		return nil
	}

	return &Profile{
		Name:           profile.Name,
		SearchAPIKey:   maskString(profile.SearchAPIKey),
		SearchEngineID: profile.SearchEngineID,
		ScrapeToken:    maskString(profile.ScrapeToken),
		LastModified:   profile.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
