package batch

import (
	"fmt"
	"strings"

	"dirscraper/pkg/checkpoint"
	"dirscraper/pkg/errors"
	"dirscraper/pkg/task"
)

// Combine concatenates the result files of completed batches into one
// table, preserving row order within each batch and batch order by batch
// number. The runner never touches the combined output; only this path
// produces it.
//
// If any batch lacks a Completed checkpoint the combiner fails with an
// incomplete_batches error naming them, unless partial is set, in which
// case the completed subset is combined.
func Combine(store *checkpoint.Store, batchDir, resultsDir string, partial bool) (*task.Table, error) {
	nums, err := ListBatches(batchDir)
	if err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return nil, errors.Newf(errors.ErrorTypeInputMissing, "no batch files in %s", batchDir)
	}

	completed, err := store.ListCompleted()
	if err != nil {
		return nil, err
	}
	completedSet := make(map[int]bool, len(completed))
	for _, n := range completed {
		completedSet[n] = true
	}

	var missing []string
	for _, n := range nums {
		if !completedSet[n] {
			missing = append(missing, fmt.Sprintf("%d", n))
		}
	}
	if len(missing) > 0 && !partial {
		return nil, errors.Newf(errors.ErrorTypeIncompleteBatches,
			"batches not completed: %s", strings.Join(missing, ", "))
	}

	var combined *task.Table
	for _, n := range nums {
		if !completedSet[n] {
			continue
		}
		table, err := task.ReadTable(ResultsPath(resultsDir, n))
		if err != nil {
			return nil, fmt.Errorf("failed to read results for batch %d: %w", n, err)
		}
		if combined == nil {
			combined = &task.Table{Header: table.Header}
		}
		for _, row := range table.Rows {
			row.Index = len(combined.Rows)
			combined.Rows = append(combined.Rows, row)
		}
	}
	if combined == nil {
		return nil, errors.New(errors.ErrorTypeIncompleteBatches, "no completed batches to combine")
	}

	return combined, nil
}
