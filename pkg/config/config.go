package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the director pipeline
type Config struct {
	// Search API used for LinkedIn profile URL discovery
	Search SearchConfig `yaml:"search" json:"search"`

	// Scraper API used for post collection
	Scraper ScraperConfig `yaml:"scraper" json:"scraper"`

	// Batch execution settings
	Batch BatchConfig `yaml:"batch" json:"batch"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// File locations
	Paths PathsConfig `yaml:"paths" json:"paths"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SearchConfig holds web search API settings for URL discovery
type SearchConfig struct {
	APIKey          string `yaml:"api_key" json:"api_key"`
	EngineID        string `yaml:"engine_id" json:"engine_id"`
	BaseURL         string `yaml:"base_url" json:"base_url"`
	ResultsPerQuery int    `yaml:"results_per_query" json:"results_per_query"`
}

// ScraperConfig holds scraping API settings for post collection
type ScraperConfig struct {
	APIToken string `yaml:"api_token" json:"api_token"`
	Actor    string `yaml:"actor" json:"actor"`
	BaseURL  string `yaml:"base_url" json:"base_url"`
	MaxPosts int    `yaml:"max_posts" json:"max_posts"`
}

// BatchConfig holds batch execution settings
type BatchConfig struct {
	Size         int           `yaml:"size" json:"size"`
	FlushEvery   int           `yaml:"flush_every" json:"flush_every"`
	RequestDelay time.Duration `yaml:"request_delay" json:"request_delay"`
	CallTimeout  time.Duration `yaml:"call_timeout" json:"call_timeout"`
	BatchDelay   time.Duration `yaml:"batch_delay" json:"batch_delay"`
	CostPerCall  float64       `yaml:"cost_per_call" json:"cost_per_call"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay        time.Duration `yaml:"retry_delay" json:"retry_delay"`
}

// PathsConfig holds input/output file locations
type PathsConfig struct {
	Input         string `yaml:"input" json:"input"`
	BatchDir      string `yaml:"batch_dir" json:"batch_dir"`
	CheckpointDir string `yaml:"checkpoint_dir" json:"checkpoint_dir"`
	ResultsDir    string `yaml:"results_dir" json:"results_dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			BaseURL:         "https://www.googleapis.com/customsearch/v1",
			ResultsPerQuery: 5,
		},
		Scraper: ScraperConfig{
			Actor:    "apimaestro/linkedin-batch-profile-posts-scraper",
			BaseURL:  "https://api.apify.com/v2",
			MaxPosts: 1000,
		},
		Batch: BatchConfig{
			Size:         1000,
			FlushEvery:   25,
			RequestDelay: 1500 * time.Millisecond,
			CallTimeout:  60 * time.Second,
			BatchDelay:   5 * time.Second,
			CostPerCall:  0.005,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 40,
			MaxRetries:        3,
			RetryDelay:        2 * time.Second,
		},
		Paths: PathsConfig{
			Input:         "data/directors.csv",
			BatchDir:      "data/batches",
			CheckpointDir: "data/checkpoints",
			ResultsDir:    "data/results",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if key := os.Getenv("DIRSCRAPER_SEARCH_API_KEY"); key != "" {
		c.Search.APIKey = key
	}
	if id := os.Getenv("DIRSCRAPER_SEARCH_ENGINE_ID"); id != "" {
		c.Search.EngineID = id
	}
	if token := os.Getenv("DIRSCRAPER_SCRAPER_API_TOKEN"); token != "" {
		c.Scraper.APIToken = token
	}

	// Legacy variable names from the research scripts still work
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" && c.Search.APIKey == "" {
		c.Search.APIKey = key
	}
	if id := os.Getenv("GOOGLE_CSE_ID"); id != "" && c.Search.EngineID == "" {
		c.Search.EngineID = id
	}
	if token := os.Getenv("APIFY_API_TOKEN"); token != "" && c.Scraper.APIToken == "" {
		c.Scraper.APIToken = token
	}

	if size := os.Getenv("DIRSCRAPER_BATCH_SIZE"); size != "" {
		var val int
		fmt.Sscanf(size, "%d", &val)
		if val > 0 {
			c.Batch.Size = val
		}
	}
	if rpm := os.Getenv("DIRSCRAPER_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if dir := os.Getenv("DIRSCRAPER_RESULTS_DIR"); dir != "" {
		c.Paths.ResultsDir = dir
	}
	if level := os.Getenv("DIRSCRAPER_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".dirscraper.yaml",
		".dirscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "dirscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".dirscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Batch.Size <= 0 {
		errs = append(errs, errors.New("batch size must be positive"))
	}
	if c.Batch.FlushEvery <= 0 {
		errs = append(errs, errors.New("flush interval must be positive"))
	}
	if c.Batch.CallTimeout <= 0 {
		errs = append(errs, errors.New("call timeout must be positive"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}

	if c.Paths.BatchDir == "" {
		errs = append(errs, errors.New("batch directory is required"))
	}
	if c.Paths.CheckpointDir == "" {
		errs = append(errs, errors.New("checkpoint directory is required"))
	}
	if c.Paths.ResultsDir == "" {
		errs = append(errs, errors.New("results directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if input, ok := flags["input"].(string); ok && input != "" {
		c.Paths.Input = input
	}
	if dir, ok := flags["results-dir"].(string); ok && dir != "" {
		c.Paths.ResultsDir = dir
	}
	if size, ok := flags["batch-size"].(int); ok && size > 0 {
		c.Batch.Size = size
	}
	if rpm, ok := flags["requests-per-minute"].(int); ok && rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if maxPosts, ok := flags["max-posts"].(int); ok && maxPosts > 0 {
		c.Scraper.MaxPosts = maxPosts
	}
	if level, ok := flags["log-level"].(string); ok && level != "" {
		c.Logging.Level = level
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".dirscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
