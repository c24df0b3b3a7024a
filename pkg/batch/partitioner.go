package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"dirscraper/pkg/errors"
	"dirscraper/pkg/task"
)

// Partition splits a task table into fixed-size ordered batches numbered
// from 1. Batches cover every row exactly once and row order matches the
// input; re-partitioning unchanged input yields identical batches, which
// the checkpoint scheme depends on.
func Partition(table *task.Table, size int) ([]task.Batch, error) {
	if size <= 0 {
		return nil, errors.Newf(errors.ErrorTypeInvalidBatchSize, "batch size must be positive, got %d", size)
	}
	if table == nil || len(table.Rows) == 0 {
		return nil, errors.New(errors.ErrorTypeInputMissing, "no task rows to partition")
	}

	numBatches := (len(table.Rows) + size - 1) / size
	batches := make([]task.Batch, 0, numBatches)
	for i := 0; i < numBatches; i++ {
		start := i * size
		end := start + size
		if end > len(table.Rows) {
			end = len(table.Rows)
		}

		rows := make([]task.Row, end-start)
		for j, src := range table.Rows[start:end] {
			// Row index restarts at 0 within each batch
			rows[j] = task.Row{Index: j, Fields: src.Fields}
		}
		batches = append(batches, task.Batch{
			Num:    i + 1,
			Header: table.Header,
			Rows:   rows,
		})
	}

	return batches, nil
}

// FilePath returns the on-disk location of a batch's query file
func FilePath(dir string, num int) string {
	return filepath.Join(dir, fmt.Sprintf("batch_%03d_queries.csv", num))
}

// ResultsPath returns the on-disk location of a batch's results file
func ResultsPath(dir string, num int) string {
	return filepath.Join(dir, fmt.Sprintf("batch_%03d_results.csv", num))
}

// WriteBatches writes each batch's query file under dir
func WriteBatches(dir string, batches []task.Batch) error {
	for i := range batches {
		b := &batches[i]
		table := &task.Table{Header: b.Header, Rows: b.Rows}
		if err := task.WriteTable(FilePath(dir, b.Num), table); err != nil {
			return fmt.Errorf("failed to write batch %d: %w", b.Num, err)
		}
	}
	return nil
}

// ReadBatch reads one batch's query file back into a Batch
func ReadBatch(dir string, num int) (*task.Batch, error) {
	table, err := task.ReadTable(FilePath(dir, num))
	if err != nil {
		return nil, err
	}
	return &task.Batch{Num: num, Header: table.Header, Rows: table.Rows}, nil
}

var batchFilePattern = regexp.MustCompile(`^batch_(\d+)_queries\.csv$`)

// ListBatches returns the batch numbers present in dir, in ascending order
func ListBatches(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrorTypeInputMissing, "batch directory not found: %s", dir)
		}
		return nil, fmt.Errorf("failed to read batch directory: %w", err)
	}

	var nums []int
	for _, entry := range entries {
		m := batchFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums, nil
}

// WriteResults writes a batch's terminal result rows to the results dir
func WriteResults(dir string, b *task.Batch, results []task.Result, resultHeader []string) error {
	table := task.ResultTable(b, results, resultHeader)
	return task.WriteTable(ResultsPath(dir, b.Num), table)
}
