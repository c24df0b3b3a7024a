package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"dirscraper/pkg/auth"
	"dirscraper/pkg/config"
	"dirscraper/pkg/logger"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	inputFile  string
	resultsDir string
	profile    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dirscraper",
	Short: "Batch pipeline for collecting LinkedIn data on corporate directors",
	Long: `dirscraper collects LinkedIn data for corporate board directors in
checkpointed, resumable batches.

The pipeline has two billed stages, run separately so quota can be
managed per API:

  url    - resolve each director to a LinkedIn profile URL via web search
  posts  - scrape posts for each resolved profile URL

Typical workflow:
  dirscraper partition --scope url
  dirscraper run all --scope url
  dirscraper status
  dirscraper combine --scope url
  dirscraper partition --scope posts
  dirscraper run all --scope posts
  dirscraper combine --scope posts

Every batch keeps a checkpoint; an interrupted or quota-paused run
resumes exactly where it stopped and never re-bills a finished row.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .dirscraper.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&inputFile, "input", "i", "", "input CSV of directors")
	rootCmd.PersistentFlags().StringVar(&resultsDir, "results-dir", "", "directory for result files")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "stored credential profile to use")

	rootCmd.SetVersionTemplate(`dirscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads configuration with global flags applied and initializes
// the logger. Stored credential profiles fill in API keys the environment
// and config file left empty.
func loadConfig() (*config.Config, error) {
	flags := map[string]interface{}{
		"input":       inputFile,
		"results-dir": resultsDir,
		"log-level":   logLevel,
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	applyCredentialProfile(cfg)

	return cfg, nil
}

// applyCredentialProfile fills empty API credentials from the credential
// store. A missing store or profile is not an error here; the commands
// that need credentials validate them.
func applyCredentialProfile(cfg *config.Config) {
	manager, err := auth.NewManager()
	if err != nil {
		return
	}

	var p *auth.Profile
	if profile != "" {
		p, err = manager.Retrieve(profile)
	} else {
		p, err = manager.RetrieveDefault()
	}
	if err != nil || p == nil {
		return
	}

	if cfg.Search.APIKey == "" {
		cfg.Search.APIKey = p.SearchAPIKey
	}
	if cfg.Search.EngineID == "" {
		cfg.Search.EngineID = p.SearchEngineID
	}
	if cfg.Scraper.APIToken == "" {
		cfg.Scraper.APIToken = p.ScrapeToken
	}
}
