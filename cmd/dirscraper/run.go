package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"dirscraper/pkg/batch"
	"dirscraper/pkg/checkpoint"
	"dirscraper/pkg/config"
	"dirscraper/pkg/logger"
	"dirscraper/pkg/lookup"
	"dirscraper/pkg/ratelimit"
	"dirscraper/pkg/runner"
	"dirscraper/pkg/task"
	"dirscraper/pkg/ui"
)

var (
	runScope    string
	runRestart  bool
	runNoResume bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <batch|all>",
	Short: "Run one batch or all batches for a scope",
	Long: `Run one batch, or all batches in order, against the scope's API.

Each batch keeps a checkpoint: an interrupted run resumes strictly
after the last completed row and never re-issues a billed call for a
row that already has a result. A fully completed batch runs again as a
no-op with zero API calls.

When the API reports quota exhaustion the batch pauses; run the same
command after the quota resets to continue. --restart discards a
batch's checkpoint and reprocesses it from the first row.`,
	Example: `  # Run the first batch of URL discovery
  dirscraper run 1 --scope url

  # Run everything, resuming wherever previous runs stopped
  dirscraper run all --scope url

  # Reprocess batch 3 from scratch
  dirscraper run 3 --scope url --restart`,
	Args: cobra.ExactArgs(1),
	Run:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runScope, "scope", scopeURL, "pipeline scope (url or posts)")
	runCmd.Flags().BoolVar(&runRestart, "restart", false, "discard the checkpoint and reprocess from row 0")
	runCmd.Flags().BoolVar(&runNoResume, "no-resume", false, "alias for --restart")
}

func runRun(cmd *cobra.Command, args []string) {
	if err := validScope(runScope); err != nil {
		ui.PrintError("Invalid arguments", err.Error())
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	dirs := dirsFor(cfg, runScope)
	restart := runRestart || runNoResume

	store, err := checkpoint.NewStore(dirs.checkpoint)
	if err != nil {
		ui.PrintError("Failed to open checkpoint store", err.Error())
		os.Exit(1)
	}

	lk, err := newLookup(cfg, runScope, dirs)
	if err != nil {
		ui.PrintError("Cannot build lookup", err.Error())
		os.Exit(1)
	}

	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute)
	r := runner.New(store, lk, limiter, cfg.Batch, nil)
	r.SetShowProgress(true)

	if err := os.MkdirAll(dirs.results, 0755); err != nil {
		ui.PrintError("Failed to create results directory", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var nums []int
	if args[0] == "all" {
		nums, err = batch.ListBatches(dirs.batch)
		if err != nil {
			ui.PrintError("Failed to list batches", err.Error())
			os.Exit(1)
		}
		if len(nums) == 0 {
			ui.PrintError("No batch files found", fmt.Sprintf("run 'dirscraper partition --scope %s' first", runScope))
			os.Exit(1)
		}
	} else {
		n, convErr := strconv.Atoi(args[0])
		if convErr != nil || n < 1 {
			ui.PrintError("Invalid batch number", args[0])
			os.Exit(1)
		}
		nums = []int{n}
	}

	for i, n := range nums {
		if i > 0 {
			time.Sleep(cfg.Batch.BatchDelay)
		}
		cp, err := runBatch(ctx, cfg, r, dirs, lk, n, restart)
		if err != nil {
			if ctx.Err() != nil {
				ui.PrintWarning("Interrupted, progress saved", fmt.Sprintf("batch %d", n))
				os.Exit(130)
			}
			ui.PrintError(fmt.Sprintf("Batch %d failed", n), err.Error())
			os.Exit(1)
		}
		if cp.Status == checkpoint.StatusQuotaPaused {
			ui.PrintWarning("Quota exhausted, pausing", fmt.Sprintf("batch %d at %d/%d rows", n, cp.RowsCompleted, cp.TotalRows))
			ui.PrintInfo("Resume with", fmt.Sprintf("dirscraper run %s --scope %s", args[0], runScope))
			os.Exit(2)
		}
	}

	ui.PrintSuccess("All requested batches completed")
}

// runBatch runs one batch and writes its results file when it completes
func runBatch(ctx context.Context, cfg *config.Config, r *runner.Runner, dirs scopeDirs, lk lookup.Lookup, num int, restart bool) (*checkpoint.Checkpoint, error) {
	b, err := batch.ReadBatch(dirs.batch, num)
	if err != nil {
		return nil, err
	}

	cp, err := r.Run(ctx, b, restart)
	if err != nil {
		return nil, err
	}

	if cp.Status == checkpoint.StatusCompleted {
		if err := batch.WriteResults(dirs.results, b, cp.Results, lk.ResultHeader()); err != nil {
			return nil, fmt.Errorf("failed to write results for batch %d: %w", num, err)
		}
		logger.WithFields(map[string]interface{}{
			"batch": num,
			"found": countResults(cp.Results, task.StatusFound),
			"rows":  cp.RowsCompleted,
		}).Info("Batch results written")
	}

	return cp, nil
}

func countResults(results []task.Result, status task.Status) int {
	n := 0
	for _, res := range results {
		if res.Status == status {
			n++
		}
	}
	return n
}
