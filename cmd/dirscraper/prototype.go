package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"dirscraper/pkg/checkpoint"
	"dirscraper/pkg/lookup"
	"dirscraper/pkg/ratelimit"
	"dirscraper/pkg/runner"
	"dirscraper/pkg/search"
	"dirscraper/pkg/task"
	"dirscraper/pkg/ui"
)

var (
	protoDirector string
	protoCompany  string
	protoURL      string
)

// prototypeCmd represents the prototype command
var prototypeCmd = &cobra.Command{
	Use:   "prototype",
	Short: "Run a single lookup without touching any checkpoint",
	Long: `Run one lookup against the live API and print the result without
creating or modifying batches or checkpoints.

Use this to validate credentials and query construction before
spending quota on a full batch. The call is billed like any other.`,
	Example: `  # Try one director query against the search API
  dirscraper prototype --director "Jane Smith" --company "Acme Corp"

  # Try one profile URL against the scraping API
  dirscraper prototype --url https://www.linkedin.com/in/janesmith`,
	Run: runPrototype,
}

func init() {
	rootCmd.AddCommand(prototypeCmd)
	prototypeCmd.Flags().StringVar(&protoDirector, "director", "", "director name for a URL-discovery lookup")
	prototypeCmd.Flags().StringVar(&protoCompany, "company", "", "company name for a URL-discovery lookup")
	prototypeCmd.Flags().StringVar(&protoURL, "url", "", "profile URL for a post-scraping lookup")
}

func runPrototype(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	var scope string
	var row task.Row
	switch {
	case protoURL != "":
		scope = scopePosts
		row = task.Row{Fields: map[string]string{search.ColumnURL: protoURL}}
	case protoDirector != "" && protoCompany != "":
		scope = scopeURL
		row = task.Row{Fields: map[string]string{
			search.ColumnDirectorName: protoDirector,
			search.ColumnCompanyName:  protoCompany,
		}}
	default:
		ui.PrintError("Invalid arguments", "provide --director and --company, or --url")
		os.Exit(1)
	}

	dirs := dirsFor(cfg, scope)
	lk, err := newLookup(cfg, scope, dirs)
	if err != nil {
		ui.PrintError("Cannot build lookup", err.Error())
		os.Exit(1)
	}

	// The prototype store is never written to; RunOne bypasses checkpoints
	store, err := checkpoint.NewStore(dirs.checkpoint)
	if err != nil {
		ui.PrintError("Failed to open checkpoint store", err.Error())
		os.Exit(1)
	}

	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute)
	r := runner.New(store, lk, limiter, cfg.Batch, nil)

	ui.PrintInfo("Capability", lk.Name())
	res := r.RunOne(context.Background(), row)

	switch res.Outcome {
	case lookup.OutcomeFound:
		ui.PrintSuccess("Found")
	case lookup.OutcomeNotFound:
		ui.PrintWarning("Not found")
	case lookup.OutcomeQuotaExceeded:
		ui.PrintError("Quota exceeded", res.Err)
		os.Exit(2)
	case lookup.OutcomeFatal:
		ui.PrintError("Fatal", res.Err)
		os.Exit(1)
	default:
		ui.PrintError("Lookup error", res.Err)
		os.Exit(1)
	}

	keys := make([]string, 0, len(res.Output))
	for k := range res.Output {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s: %s\n", ui.Cyan(k), res.Output[k])
	}
}
