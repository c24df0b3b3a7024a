package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dirscraper/pkg/batch"
	"dirscraper/pkg/config"
	"dirscraper/pkg/logger"
	"dirscraper/pkg/search"
	"dirscraper/pkg/task"
	"dirscraper/pkg/ui"
)

var (
	partitionScope    string
	partitionSize     int
	partitionNoFilter bool
)

// partitionCmd represents the partition command
var partitionCmd = &cobra.Command{
	Use:   "partition",
	Short: "Split the input CSV into numbered batch files",
	Long: `Split the input CSV into fixed-size batch files, numbered from 1.

Partitioning is deterministic: the same input and batch size always
produce identical batch files, which the checkpoint scheme depends on.
Partition once per scope and do not re-partition while checkpoints
exist.

For the url scope, director and company names are cleaned and a
search_query column is generated for each row.

For the posts scope, the input defaults to the combined url results;
rows are filtered to verified profiles and deduplicated by URL unless
--no-filter is given.`,
	Example: `  # Partition director queries for URL discovery
  dirscraper partition --scope url --input data/directors.csv

  # Partition verified profile URLs for post scraping
  dirscraper partition --scope posts`,
	Run: runPartition,
}

func init() {
	rootCmd.AddCommand(partitionCmd)
	partitionCmd.Flags().StringVar(&partitionScope, "scope", scopeURL, "pipeline scope (url or posts)")
	partitionCmd.Flags().IntVar(&partitionSize, "batch-size", 0, "rows per batch (default from config)")
	partitionCmd.Flags().BoolVar(&partitionNoFilter, "no-filter", false, "skip verified-only filtering for the posts scope")
}

func runPartition(cmd *cobra.Command, args []string) {
	if err := validScope(partitionScope); err != nil {
		ui.PrintError("Invalid arguments", err.Error())
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	size := cfg.Batch.Size
	if partitionSize > 0 {
		size = partitionSize
	}

	dirs := dirsFor(cfg, partitionScope)

	inputPath := partitionInput(cfg)
	table, err := task.ReadTable(inputPath)
	if err != nil {
		ui.PrintError("Failed to read input", err.Error())
		os.Exit(1)
	}
	ui.PrintInfo("Input", fmt.Sprintf("%s (%d rows)", inputPath, len(table.Rows)))

	switch partitionScope {
	case scopeURL:
		prepareQueries(table)
	case scopePosts:
		// The url stage's bookkeeping columns would collide with the
		// ones the posts results add
		dropColumns(table, "row_status", "row_error")
		if !partitionNoFilter {
			before := len(table.Rows)
			filterVerified(table)
			ui.PrintInfo("Filtered", fmt.Sprintf("%d verified unique profiles (of %d rows)", len(table.Rows), before))
		}
		if len(table.Rows) == 0 {
			ui.PrintError("No rows to partition", "no verified profile URLs in input (try --no-filter)")
			os.Exit(1)
		}
	}

	batches, err := batch.Partition(table, size)
	if err != nil {
		ui.PrintError("Failed to partition input", err.Error())
		os.Exit(1)
	}

	if err := os.MkdirAll(dirs.batch, 0755); err != nil {
		ui.PrintError("Failed to create batch directory", err.Error())
		os.Exit(1)
	}
	if err := batch.WriteBatches(dirs.batch, batches); err != nil {
		ui.PrintError("Failed to write batch files", err.Error())
		os.Exit(1)
	}

	logger.WithFields(map[string]interface{}{
		"scope":   partitionScope,
		"batches": len(batches),
		"rows":    len(table.Rows),
		"size":    size,
	}).Info("Partitioned input")

	ui.PrintSuccess(fmt.Sprintf("Wrote %d batch files to %s", len(batches), dirs.batch))
}

// partitionInput resolves the input file for the current scope. The posts
// scope defaults to the combined url results.
func partitionInput(cfg *config.Config) string {
	if inputFile != "" {
		return inputFile
	}
	if partitionScope == scopePosts {
		return combinedPath(dirsFor(cfg, scopeURL))
	}
	return cfg.Paths.Input
}

// prepareQueries adds cleaned name columns and a search_query column to
// every row
func prepareQueries(table *task.Table) {
	addColumn(table, search.ColumnDirectorClean)
	addColumn(table, search.ColumnCompanyClean)
	addColumn(table, search.ColumnSearchQuery)

	for i := range table.Rows {
		row := &table.Rows[i]
		director := search.CleanDirectorName(row.Field(search.ColumnDirectorName))
		company := search.CleanCompanyName(row.Field(search.ColumnCompanyName))

		row.Fields[search.ColumnDirectorClean] = director
		row.Fields[search.ColumnCompanyClean] = company
		if row.Field(search.ColumnSearchQuery) == "" && director != "" && company != "" {
			row.Fields[search.ColumnSearchQuery] = director + " " + company
		}
	}
}

// filterVerified keeps only verified rows with a profile URL, dropping
// duplicate URLs so each profile is scraped once
func filterVerified(table *task.Table) {
	seen := make(map[string]bool)
	kept := table.Rows[:0]
	for _, row := range table.Rows {
		if row.Field(search.ColumnVerified) != "true" {
			continue
		}
		url := row.Field(search.ColumnURL)
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		row.Index = len(kept)
		kept = append(kept, row)
	}
	table.Rows = kept
}

// dropColumns removes columns carried over from a previous stage's
// results file
func dropColumns(table *task.Table, names ...string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := table.Header[:0]
	for _, h := range table.Header {
		if !drop[h] {
			kept = append(kept, h)
		}
	}
	table.Header = kept
}

// addColumn appends a column to the header if not already present
func addColumn(table *task.Table, name string) {
	for _, h := range table.Header {
		if h == name {
			return
		}
	}
	table.Header = append(table.Header, name)
}
