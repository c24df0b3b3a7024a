// Package checkpoint persists per-batch progress so interrupted runs
// resume exactly where they stopped. One JSON file per batch; writes go
// through a temp file and rename so a reader never sees a half-written
// checkpoint. Checkpoints are only removed by an explicit restart.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"dirscraper/pkg/errors"
	"dirscraper/pkg/logger"
	"dirscraper/pkg/task"
)

// Status is the batch lifecycle state recorded in a checkpoint
type Status string

const (
	StatusInProgress   Status = "in_progress"
	StatusCompleted    Status = "completed"
	StatusQuotaPaused  Status = "quota_paused"
	StatusFatalStopped Status = "fatal_stopped"
)

// Checkpoint records a batch's durable progress. Results is append-only
// and RowsCompleted always equals len(Results): a row is either fully
// recorded or fully absent.
type Checkpoint struct {
	BatchNum      int           `json:"batch_num"`
	RunID         string        `json:"run_id"`
	Capability    string        `json:"capability"`
	TotalRows     int           `json:"total_rows"`
	RowsCompleted int           `json:"rows_completed"`
	Status        Status        `json:"status"`
	Results       []task.Result `json:"results"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	Version       int           `json:"version"`
}

// Store handles checkpoint persistence for all batches of one pipeline
type Store struct {
	dir    string
	logger logger.Logger
}

// NewStore creates a checkpoint store rooted at dir
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	return &Store{dir: dir, logger: logger.GetLogger()}, nil
}

func (s *Store) path(batchNum int) string {
	return filepath.Join(s.dir, fmt.Sprintf("batch_%03d_checkpoint.json", batchNum))
}

// Load reads the checkpoint for a batch. Returns (nil, nil) when no
// checkpoint exists. An unreadable or malformed file reports a
// checkpoint_corrupt error so callers can require operator confirmation
// instead of silently discarding recorded results.
func (s *Store) Load(batchNum int) (*Checkpoint, error) {
	data, err := os.ReadFile(s.path(batchNum))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Newf(errors.ErrorTypeCheckpointCorrupt,
			"checkpoint for batch %d is unreadable: %v", batchNum, err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, errors.Newf(errors.ErrorTypeCheckpointCorrupt,
			"checkpoint for batch %d is malformed: %v", batchNum, err)
	}
	if cp.RowsCompleted != len(cp.Results) {
		return nil, errors.Newf(errors.ErrorTypeCheckpointCorrupt,
			"checkpoint for batch %d is inconsistent: %d rows completed but %d results",
			batchNum, cp.RowsCompleted, len(cp.Results))
	}

	s.logger.DebugWithFields("Checkpoint loaded", map[string]interface{}{
		"batch":          batchNum,
		"rows_completed": cp.RowsCompleted,
		"status":         string(cp.Status),
	})

	return &cp, nil
}

// Save writes the checkpoint to disk atomically
func (s *Store) Save(cp *Checkpoint) error {
	cp.UpdatedAt = time.Now()

	tempPath := s.path(cp.BatchNum) + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cp); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, s.path(cp.BatchNum)); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	s.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"batch":          cp.BatchNum,
		"rows_completed": cp.RowsCompleted,
		"status":         string(cp.Status),
	})

	return nil
}

// Delete removes a batch's checkpoint. Only the explicit restart path
// calls this.
func (s *Store) Delete(batchNum int) error {
	if err := os.Remove(s.path(batchNum)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	s.logger.InfoWithFields("Checkpoint deleted", map[string]interface{}{
		"batch": batchNum,
	})
	return nil
}

// Exists checks if a checkpoint file exists for a batch
func (s *Store) Exists(batchNum int) bool {
	_, err := os.Stat(s.path(batchNum))
	return err == nil
}

var checkpointFilePattern = regexp.MustCompile(`^batch_(\d+)_checkpoint\.json$`)

// List loads every checkpoint in the store, ordered by batch number.
// Corrupt checkpoints are skipped here; Load reports them individually.
// The anchored pattern keeps crash leftovers like *.json.tmp out of the
// listing.
func (s *Store) List() ([]*Checkpoint, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint directory: %w", err)
	}

	var cps []*Checkpoint
	for _, entry := range entries {
		m := checkpointFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		cp, err := s.Load(num)
		if err != nil || cp == nil {
			continue
		}
		cps = append(cps, cp)
	}
	sort.Slice(cps, func(i, j int) bool { return cps[i].BatchNum < cps[j].BatchNum })
	return cps, nil
}

// ListCompleted returns the batch numbers whose checkpoints report
// StatusCompleted
func (s *Store) ListCompleted() ([]int, error) {
	cps, err := s.List()
	if err != nil {
		return nil, err
	}
	var nums []int
	for _, cp := range cps {
		if cp.Status == StatusCompleted {
			nums = append(nums, cp.BatchNum)
		}
	}
	return nums, nil
}
