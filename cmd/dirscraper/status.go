package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"dirscraper/pkg/checkpoint"
	"dirscraper/pkg/config"
	"dirscraper/pkg/errors"
	"dirscraper/pkg/report"
	"dirscraper/pkg/ui"
)

var statusScope string

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show batch progress, remaining time and cost estimates",
	Long: `Show per-batch progress for each scope, computed purely from batch
files and checkpoints. Producing the report never calls the APIs.

Remaining time is estimated from the configured request delay and cost
from the configured cost per call.`,
	Run: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusScope, "scope", "", "limit to one scope (url or posts)")
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	scopes := []string{scopeURL, scopePosts}
	if statusScope != "" {
		if err := validScope(statusScope); err != nil {
			ui.PrintError("Invalid arguments", err.Error())
			os.Exit(1)
		}
		scopes = []string{statusScope}
	}

	shown := false
	for _, scope := range scopes {
		if printScopeStatus(cfg, scope) {
			shown = true
		}
	}
	if !shown {
		ui.PrintInfo("No batches found", "run 'dirscraper partition' first")
	}
}

// printScopeStatus prints one scope's summary, returning false if the
// scope has no batch files yet
func printScopeStatus(cfg *config.Config, scope string) bool {
	dirs := dirsFor(cfg, scope)

	store, err := checkpoint.NewStore(dirs.checkpoint)
	if err != nil {
		ui.PrintError("Failed to open checkpoint store", err.Error())
		os.Exit(1)
	}

	summary, err := report.Collect(store, dirs.batch, cfg.Batch.RequestDelay, cfg.Batch.CostPerCall)
	if err != nil {
		if errors.Is(err, errors.ErrorTypeInputMissing) {
			return false
		}
		ui.PrintError("Failed to collect status", err.Error())
		os.Exit(1)
	}
	if len(summary.Batches) == 0 {
		return false
	}

	ui.PrintHighlight(fmt.Sprintf("Scope: %s", scope))
	fmt.Printf("  %-6s %-14s %10s %8s %8s %12s %10s\n",
		"batch", "status", "done", "found", "errors", "remaining", "cost")
	for _, bs := range summary.Batches {
		fmt.Printf("  %-6d %-14s %6d/%-4d %8d %8d %12s %9.2f$\n",
			bs.Num, statusLabel(bs.Status), bs.Done, bs.Total,
			bs.Found, bs.Errors, bs.Remaining.Round(time.Second).String(), bs.Cost)
	}
	fmt.Printf("  total: %d/%d rows, est. %s and %.2f$ remaining\n\n",
		summary.TotalDone, summary.TotalRows,
		summary.Remaining.Round(time.Second).String(), summary.Cost)
	return true
}

func statusLabel(status string) string {
	switch status {
	case string(checkpoint.StatusCompleted):
		return ui.Green(status)
	case string(checkpoint.StatusQuotaPaused), "corrupt":
		return ui.Yellow(status)
	case string(checkpoint.StatusFatalStopped):
		return ui.Red(status)
	default:
		return status
	}
}
