package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dirscraper/pkg/batch"
	"dirscraper/pkg/checkpoint"
	"dirscraper/pkg/task"
	"dirscraper/pkg/ui"
)

var (
	combineScope   string
	combinePartial bool
	combineOutput  string
)

// combineCmd represents the combine command
var combineCmd = &cobra.Command{
	Use:   "combine",
	Short: "Merge completed batch results into one CSV",
	Long: `Merge the result files of completed batches into one CSV, in batch
order with row order preserved within each batch.

If any batch has not completed the combine fails and names the missing
batches, unless --partial is given, in which case only the completed
subset is merged.`,
	Example: `  # Combine URL discovery results once every batch is done
  dirscraper combine --scope url

  # Combine what is finished so far
  dirscraper combine --scope url --partial`,
	Run: runCombine,
}

func init() {
	rootCmd.AddCommand(combineCmd)
	combineCmd.Flags().StringVar(&combineScope, "scope", scopeURL, "pipeline scope (url or posts)")
	combineCmd.Flags().BoolVar(&combinePartial, "partial", false, "combine completed batches even if some are unfinished")
	combineCmd.Flags().StringVarP(&combineOutput, "output", "o", "", "output file (default <results-dir>/<scope>/combined_results.csv)")
}

func runCombine(cmd *cobra.Command, args []string) {
	if err := validScope(combineScope); err != nil {
		ui.PrintError("Invalid arguments", err.Error())
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	dirs := dirsFor(cfg, combineScope)
	store, err := checkpoint.NewStore(dirs.checkpoint)
	if err != nil {
		ui.PrintError("Failed to open checkpoint store", err.Error())
		os.Exit(1)
	}

	table, err := batch.Combine(store, dirs.batch, dirs.results, combinePartial)
	if err != nil {
		ui.PrintError("Combine failed", err.Error())
		os.Exit(1)
	}

	output := combineOutput
	if output == "" {
		output = combinedPath(dirs)
	}
	if err := task.WriteTable(output, table); err != nil {
		ui.PrintError("Failed to write combined results", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Combined %d rows into %s", len(table.Rows), output))
}
