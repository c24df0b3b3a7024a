// Package report summarizes pipeline progress from checkpoints and batch
// files alone; producing a status report never invokes the external APIs.
package report

import (
	"time"

	"dirscraper/pkg/batch"
	"dirscraper/pkg/checkpoint"
	"dirscraper/pkg/task"
)

// BatchStatus is the progress summary for one batch
type BatchStatus struct {
	Num       int
	Status    string
	Done      int
	Total     int
	Found     int
	Errors    int
	Remaining time.Duration
	Cost      float64
}

// Summary aggregates all batch statuses
type Summary struct {
	Batches   []BatchStatus
	TotalRows int
	TotalDone int
	Remaining time.Duration
	Cost      float64
}

// StatusNotStarted is reported for batches with no checkpoint on disk
const StatusNotStarted = "not_started"

// Collect builds the status summary. requestDelay and costPerCall size the
// estimates for the remaining work.
func Collect(store *checkpoint.Store, batchDir string, requestDelay time.Duration, costPerCall float64) (*Summary, error) {
	nums, err := batch.ListBatches(batchDir)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	for _, n := range nums {
		b, err := batch.ReadBatch(batchDir, n)
		if err != nil {
			return nil, err
		}

		bs := BatchStatus{
			Num:    n,
			Status: StatusNotStarted,
			Total:  len(b.Rows),
		}

		cp, err := store.Load(n)
		if err != nil {
			// Surface corrupt checkpoints in the report instead of failing it
			bs.Status = "corrupt"
		} else if cp != nil {
			bs.Status = string(cp.Status)
			bs.Done = cp.RowsCompleted
			for _, res := range cp.Results {
				switch res.Status {
				case task.StatusFound:
					bs.Found++
				case task.StatusError:
					bs.Errors++
				}
			}
		}

		remaining := bs.Total - bs.Done
		bs.Remaining = time.Duration(remaining) * requestDelay
		bs.Cost = float64(remaining) * costPerCall

		summary.Batches = append(summary.Batches, bs)
		summary.TotalRows += bs.Total
		summary.TotalDone += bs.Done
		summary.Remaining += bs.Remaining
		summary.Cost += bs.Cost
	}

	return summary, nil
}
