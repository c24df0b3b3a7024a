// Package runner drives one batch of task rows against an external lookup
// capability with checkpointed, resumable progress. Rows are processed
// strictly in order, one at a time; a call is never re-issued for a row
// that already has a terminal result, even across process restarts.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"dirscraper/pkg/checkpoint"
	"dirscraper/pkg/config"
	"dirscraper/pkg/errors"
	"dirscraper/pkg/logger"
	"dirscraper/pkg/lookup"
	"dirscraper/pkg/ratelimit"
	"dirscraper/pkg/task"
)

// Runner processes batches against one lookup capability
type Runner struct {
	store        *checkpoint.Store
	lookup       lookup.Lookup
	limiter      ratelimit.Limiter
	cfg          config.BatchConfig
	logger       logger.Logger
	showProgress bool
}

// New creates a Runner. The lookup capability, rate limiter and batch
// settings are fixed at construction; nothing is read from process-global
// state afterwards.
func New(store *checkpoint.Store, lk lookup.Lookup, limiter ratelimit.Limiter, cfg config.BatchConfig, log logger.Logger) *Runner {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Runner{
		store:   store,
		lookup:  lk,
		limiter: limiter,
		cfg:     cfg,
		logger:  log,
	}
}

// SetShowProgress toggles the terminal progress bar
func (r *Runner) SetShowProgress(show bool) {
	r.showProgress = show
}

// Run processes a batch to completion or to a recoverable stopping point.
//
// With restart false (the default resume behavior), processing begins
// strictly after the last checkpointed row; a fully completed batch
// issues zero external calls. With restart true, any existing checkpoint
// is discarded and the batch reprocesses from row 0.
//
// The returned checkpoint's Status tells the caller how the batch ended:
// Completed, QuotaPaused (resume later) or FatalStopped (the error is
// also returned). A context cancellation saves progress and returns the
// context error with the batch still InProgress.
func (r *Runner) Run(ctx context.Context, b *task.Batch, restart bool) (*checkpoint.Checkpoint, error) {
	log := r.logger.WithFields(map[string]interface{}{
		"batch":      b.Num,
		"capability": r.lookup.Name(),
	})

	cp, err := r.store.Load(b.Num)
	if err != nil {
		// Corrupt checkpoint: never silently discard recorded results.
		// The operator clears it with an explicit restart.
		if errors.Is(err, errors.ErrorTypeCheckpointCorrupt) && restart {
			log.Warn("Discarding corrupt checkpoint on explicit restart")
			cp = nil
		} else {
			return nil, err
		}
	}

	if restart && cp != nil {
		log.WithField("rows_completed", cp.RowsCompleted).Warn("Restart requested, discarding existing checkpoint")
		cp = nil
	}
	if restart {
		if err := r.store.Delete(b.Num); err != nil {
			return nil, fmt.Errorf("failed to clear checkpoint for restart: %w", err)
		}
	}

	if cp != nil && cp.Status == checkpoint.StatusCompleted {
		log.Info("Batch already completed, nothing to do")
		return cp, nil
	}

	if cp == nil {
		cp = &checkpoint.Checkpoint{
			BatchNum:   b.Num,
			RunID:      uuid.NewString(),
			Capability: r.lookup.Name(),
			TotalRows:  len(b.Rows),
			Status:     checkpoint.StatusInProgress,
			CreatedAt:  time.Now(),
			Version:    1,
		}
		if err := r.store.Save(cp); err != nil {
			return nil, fmt.Errorf("failed to create checkpoint: %w", err)
		}
		log.WithField("total_rows", cp.TotalRows).Info("Starting batch")
	} else {
		if cp.TotalRows != len(b.Rows) {
			cp.Status = checkpoint.StatusFatalStopped
			_ = r.store.Save(cp)
			return cp, errors.Newf(errors.ErrorTypeFatal,
				"batch %d has %d rows but checkpoint expects %d; input changed under a checkpoint",
				b.Num, len(b.Rows), cp.TotalRows)
		}
		cp.Status = checkpoint.StatusInProgress
		log.WithField("rows_completed", cp.RowsCompleted).Info("Resuming batch from checkpoint")
	}

	bar := r.newProgressBar(cp)

	sinceFlush := 0
	for _, row := range b.Rows[cp.RowsCompleted:] {
		if err := ctx.Err(); err != nil {
			if saveErr := r.store.Save(cp); saveErr != nil {
				log.WithError(saveErr).Error("Failed to save checkpoint on cancellation")
			}
			return cp, err
		}

		r.limiter.Wait()

		callCtx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
		res := r.lookup.Do(callCtx, row)
		cancel()

		// An interrupt can land while the call is in flight, in which
		// case the outcome is whatever shape the aborted transport
		// produced. The row has no trustworthy terminal result; leave it
		// unrecorded so the next resume re-issues it.
		if err := ctx.Err(); err != nil {
			if saveErr := r.store.Save(cp); saveErr != nil {
				log.WithError(saveErr).Error("Failed to save checkpoint on cancellation")
			}
			return cp, err
		}

		switch res.Outcome {
		case lookup.OutcomeFound, lookup.OutcomeNotFound:
			cp.Results = append(cp.Results, task.Result{
				Index:  row.Index,
				Status: resultStatus(res.Outcome),
				Output: res.Output,
			})
			cp.RowsCompleted++

		case lookup.OutcomeError:
			// A single bad row must not abort the batch
			log.WithError(res.Err).WithField("row", row.Index).Warn("Row lookup failed, recording error row")
			cp.Results = append(cp.Results, task.Result{
				Index:  row.Index,
				Status: task.StatusError,
				Error:  errString(res.Err),
			})
			cp.RowsCompleted++

		case lookup.OutcomeQuotaExceeded:
			// Stop immediately; remaining rows stay untouched so a later
			// resume continues cleanly from this exact row.
			log.WithField("row", row.Index).Warn("Quota exceeded, pausing batch")
			cp.Status = checkpoint.StatusQuotaPaused
			if err := r.store.Save(cp); err != nil {
				return cp, fmt.Errorf("failed to save checkpoint on quota pause: %w", err)
			}
			return cp, nil

		case lookup.OutcomeFatal:
			cp.Status = checkpoint.StatusFatalStopped
			if err := r.store.Save(cp); err != nil {
				log.WithError(err).Error("Failed to save checkpoint on fatal stop")
			}
			return cp, errors.Newf(errors.ErrorTypeFatal,
				"batch %d stopped at row %d: %v", b.Num, row.Index, res.Err)

		default:
			cp.Status = checkpoint.StatusFatalStopped
			_ = r.store.Save(cp)
			return cp, errors.Newf(errors.ErrorTypeFatal,
				"batch %d row %d: unknown lookup outcome %q", b.Num, row.Index, res.Outcome)
		}

		if bar != nil {
			_ = bar.Add(1)
		}

		sinceFlush++
		if sinceFlush >= r.cfg.FlushEvery {
			if err := r.store.Save(cp); err != nil {
				return cp, fmt.Errorf("failed to flush checkpoint: %w", err)
			}
			sinceFlush = 0
		}
	}

	cp.Status = checkpoint.StatusCompleted
	if err := r.store.Save(cp); err != nil {
		return cp, fmt.Errorf("failed to save completed checkpoint: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"rows_completed": cp.RowsCompleted,
		"found":          countStatus(cp.Results, task.StatusFound),
		"errors":         countStatus(cp.Results, task.StatusError),
	}).Info("Batch completed")

	return cp, nil
}

// RunOne performs a single lookup synchronously without touching any
// checkpoint state. Used by prototype mode to validate credentials and
// query construction before spending quota on a full batch.
func (r *Runner) RunOne(ctx context.Context, row task.Row) lookup.Result {
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
	defer cancel()
	return r.lookup.Do(callCtx, row)
}

func (r *Runner) newProgressBar(cp *checkpoint.Checkpoint) *progressbar.ProgressBar {
	if !r.showProgress {
		return nil
	}
	bar := progressbar.NewOptions(cp.TotalRows,
		progressbar.OptionSetDescription(fmt.Sprintf("batch %03d", cp.BatchNum)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
	)
	_ = bar.Set(cp.RowsCompleted)
	return bar
}

func resultStatus(o lookup.Outcome) task.Status {
	if o == lookup.OutcomeFound {
		return task.StatusFound
	}
	return task.StatusNotFound
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func countStatus(results []task.Result, status task.Status) int {
	n := 0
	for _, res := range results {
		if res.Status == status {
			n++
		}
	}
	return n
}
