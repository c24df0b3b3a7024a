package runner

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirscraper/pkg/checkpoint"
	"dirscraper/pkg/config"
	"dirscraper/pkg/errors"
	"dirscraper/pkg/lookup"
	"dirscraper/pkg/ratelimit"
	"dirscraper/pkg/task"
)

// scriptedLookup returns a scripted outcome per row index and records
// every call it receives
type scriptedLookup struct {
	outcomes map[int]lookup.Outcome
	calls    []int
}

func newScriptedLookup() *scriptedLookup {
	return &scriptedLookup{outcomes: make(map[int]lookup.Outcome)}
}

func (s *scriptedLookup) Name() string           { return "scripted" }
func (s *scriptedLookup) ResultHeader() []string { return []string{"value"} }

func (s *scriptedLookup) Do(ctx context.Context, row task.Row) lookup.Result {
	s.calls = append(s.calls, row.Index)

	outcome, ok := s.outcomes[row.Index]
	if !ok {
		outcome = lookup.OutcomeFound
	}

	switch outcome {
	case lookup.OutcomeFound:
		return lookup.Result{
			Outcome: lookup.OutcomeFound,
			Output:  map[string]string{"value": fmt.Sprintf("v%d", row.Index)},
		}
	case lookup.OutcomeNotFound:
		return lookup.Result{Outcome: lookup.OutcomeNotFound}
	default:
		return lookup.Result{
			Outcome: outcome,
			Err:     errors.Newf(errors.ErrorTypeUnknown, "scripted failure at row %d", row.Index),
		}
	}
}

func testBatch(num, rows int) *task.Batch {
	b := &task.Batch{Num: num, Header: []string{"name"}}
	for i := 0; i < rows; i++ {
		b.Rows = append(b.Rows, task.Row{
			Index:  i,
			Fields: map[string]string{"name": fmt.Sprintf("row%d", i)},
		})
	}
	return b
}

func testConfig() config.BatchConfig {
	return config.BatchConfig{
		Size:        1000,
		FlushEvery:  2,
		CallTimeout: 5 * time.Second,
	}
}

func newTestRunner(t *testing.T, lk lookup.Lookup) (*Runner, *checkpoint.Store) {
	t.Helper()
	store, err := checkpoint.NewStore(t.TempDir())
	require.NoError(t, err)
	limiter := ratelimit.NewTokenBucket(100000, time.Minute)
	return New(store, lk, limiter, testConfig(), nil), store
}

func TestRunnerCompletesBatch(t *testing.T) {
	lk := newScriptedLookup()
	r, store := newTestRunner(t, lk)

	cp, err := r.Run(context.Background(), testBatch(1, 5), false)
	require.NoError(t, err)

	assert.Equal(t, checkpoint.StatusCompleted, cp.Status)
	assert.Equal(t, 5, cp.RowsCompleted)
	assert.Len(t, cp.Results, 5)
	assert.Len(t, lk.calls, 5)
	assert.NotEmpty(t, cp.RunID)

	// Result order matches row order
	for i, res := range cp.Results {
		assert.Equal(t, i, res.Index)
		assert.Equal(t, task.StatusFound, res.Status)
	}

	// Checkpoint survives completion
	loaded, err := store.Load(1)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, checkpoint.StatusCompleted, loaded.Status)
}

func TestRunnerCompletedBatchIsNoOp(t *testing.T) {
	lk := newScriptedLookup()
	r, _ := newTestRunner(t, lk)

	_, err := r.Run(context.Background(), testBatch(1, 3), false)
	require.NoError(t, err)
	require.Len(t, lk.calls, 3)

	// Second run must not issue a single call
	cp, err := r.Run(context.Background(), testBatch(1, 3), false)
	require.NoError(t, err)
	assert.Equal(t, checkpoint.StatusCompleted, cp.Status)
	assert.Len(t, lk.calls, 3)
}

func TestRunnerQuotaPause(t *testing.T) {
	lk := newScriptedLookup()
	lk.outcomes[3] = lookup.OutcomeQuotaExceeded
	r, store := newTestRunner(t, lk)

	cp, err := r.Run(context.Background(), testBatch(1, 5), false)
	require.NoError(t, err)

	assert.Equal(t, checkpoint.StatusQuotaPaused, cp.Status)
	assert.Equal(t, 3, cp.RowsCompleted)
	assert.Len(t, cp.Results, 3)
	// Quota row plus nothing after it
	assert.Equal(t, []int{0, 1, 2, 3}, lk.calls)

	// Pause state is durable
	loaded, err := store.Load(1)
	require.NoError(t, err)
	assert.Equal(t, checkpoint.StatusQuotaPaused, loaded.Status)
}

func TestRunnerResumeAfterQuotaPause(t *testing.T) {
	lk := newScriptedLookup()
	lk.outcomes[1] = lookup.OutcomeQuotaExceeded
	r, _ := newTestRunner(t, lk)

	cp, err := r.Run(context.Background(), testBatch(1, 3), false)
	require.NoError(t, err)
	require.Equal(t, checkpoint.StatusQuotaPaused, cp.Status)
	require.Equal(t, 1, cp.RowsCompleted)

	// Quota reset: the same row now succeeds
	delete(lk.outcomes, 1)
	lk.calls = nil

	cp, err = r.Run(context.Background(), testBatch(1, 3), false)
	require.NoError(t, err)
	assert.Equal(t, checkpoint.StatusCompleted, cp.Status)
	assert.Equal(t, 3, cp.RowsCompleted)
	// Resumes at the paused row, never re-billing row 0
	assert.Equal(t, []int{1, 2}, lk.calls)
}

func TestRunnerRowErrorDoesNotAbort(t *testing.T) {
	lk := newScriptedLookup()
	lk.outcomes[1] = lookup.OutcomeError
	r, _ := newTestRunner(t, lk)

	cp, err := r.Run(context.Background(), testBatch(1, 3), false)
	require.NoError(t, err)

	assert.Equal(t, checkpoint.StatusCompleted, cp.Status)
	assert.Equal(t, 3, cp.RowsCompleted)
	assert.Equal(t, task.StatusError, cp.Results[1].Status)
	assert.NotEmpty(t, cp.Results[1].Error)

	// Error rows are terminal: a re-run does not retry them
	lk.calls = nil
	_, err = r.Run(context.Background(), testBatch(1, 3), false)
	require.NoError(t, err)
	assert.Empty(t, lk.calls)
}

func TestRunnerFatalStop(t *testing.T) {
	lk := newScriptedLookup()
	lk.outcomes[2] = lookup.OutcomeFatal
	r, store := newTestRunner(t, lk)

	cp, err := r.Run(context.Background(), testBatch(1, 5), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeFatal))
	assert.Equal(t, checkpoint.StatusFatalStopped, cp.Status)
	assert.Equal(t, 2, cp.RowsCompleted)

	loaded, err := store.Load(1)
	require.NoError(t, err)
	assert.Equal(t, checkpoint.StatusFatalStopped, loaded.Status)
}

func TestRunnerRestartDiscardsProgress(t *testing.T) {
	lk := newScriptedLookup()
	lk.outcomes[1] = lookup.OutcomeQuotaExceeded
	r, _ := newTestRunner(t, lk)

	_, err := r.Run(context.Background(), testBatch(1, 3), false)
	require.NoError(t, err)

	delete(lk.outcomes, 1)
	lk.calls = nil

	cp, err := r.Run(context.Background(), testBatch(1, 3), true)
	require.NoError(t, err)
	assert.Equal(t, checkpoint.StatusCompleted, cp.Status)
	// Restart reprocesses from row 0
	assert.Equal(t, []int{0, 1, 2}, lk.calls)
}

func TestRunnerContextCancellationSavesProgress(t *testing.T) {
	lk := newScriptedLookup()
	r, store := newTestRunner(t, lk)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cp, err := r.Run(ctx, testBatch(1, 3), false)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, checkpoint.StatusInProgress, cp.Status)
	assert.Empty(t, lk.calls)

	loaded, err := store.Load(1)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, checkpoint.StatusInProgress, loaded.Status)
}

// interruptingLookup cancels the run context while the call for one row
// is in flight, returning the error shape an aborted adapter produces
type interruptingLookup struct {
	*scriptedLookup
	cancelAt int
	cancel   context.CancelFunc
}

func (l *interruptingLookup) Do(ctx context.Context, row task.Row) lookup.Result {
	if row.Index == l.cancelAt && l.cancel != nil {
		l.calls = append(l.calls, row.Index)
		l.cancel()
		l.cancel = nil
		return lookup.Result{
			Outcome: lookup.OutcomeError,
			Err:     fmt.Errorf("request aborted: %w", context.Canceled),
		}
	}
	return l.scriptedLookup.Do(ctx, row)
}

func TestRunnerInterruptMidCallLeavesRowUnrecorded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	lk := &interruptingLookup{scriptedLookup: newScriptedLookup(), cancelAt: 2, cancel: cancel}
	r, store := newTestRunner(t, lk)

	cp, err := r.Run(ctx, testBatch(1, 5), false)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, checkpoint.StatusInProgress, cp.Status)

	// The interrupted row must not get a terminal status
	assert.Equal(t, 2, cp.RowsCompleted)
	assert.Len(t, cp.Results, 2)

	loaded, err := store.Load(1)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 2, loaded.RowsCompleted)

	// Resume re-issues the interrupted row; the final results match an
	// uninterrupted run
	lk.calls = nil
	cp, err = r.Run(context.Background(), testBatch(1, 5), false)
	require.NoError(t, err)
	assert.Equal(t, checkpoint.StatusCompleted, cp.Status)
	assert.Equal(t, []int{2, 3, 4}, lk.calls)
	for i, res := range cp.Results {
		assert.Equal(t, i, res.Index)
		assert.Equal(t, task.StatusFound, res.Status)
	}
}

func TestRunnerRowCountMismatchIsFatal(t *testing.T) {
	lk := newScriptedLookup()
	lk.outcomes[0] = lookup.OutcomeQuotaExceeded
	r, _ := newTestRunner(t, lk)

	_, err := r.Run(context.Background(), testBatch(1, 3), false)
	require.NoError(t, err)

	delete(lk.outcomes, 0)

	// The batch file changed size under the checkpoint
	cp, err := r.Run(context.Background(), testBatch(1, 4), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeFatal))
	assert.Equal(t, checkpoint.StatusFatalStopped, cp.Status)
}

func TestRunnerFlushKeepsProgressDurable(t *testing.T) {
	lk := newScriptedLookup()
	lk.outcomes[4] = lookup.OutcomeQuotaExceeded
	r, store := newTestRunner(t, lk) // FlushEvery is 2

	cp, err := r.Run(context.Background(), testBatch(1, 6), false)
	require.NoError(t, err)
	require.Equal(t, checkpoint.StatusQuotaPaused, cp.Status)

	// All four completed rows are on disk despite the pause mid-flush-window
	loaded, err := store.Load(1)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.RowsCompleted)
	assert.Len(t, loaded.Results, 4)
}

func TestRunnerCorruptCheckpointRequiresRestart(t *testing.T) {
	lk := newScriptedLookup()
	store, err := checkpoint.NewStore(t.TempDir())
	require.NoError(t, err)

	// Plant a corrupt checkpoint file
	cp := &checkpoint.Checkpoint{BatchNum: 1, TotalRows: 3, RowsCompleted: 2, Status: checkpoint.StatusInProgress}
	require.NoError(t, store.Save(cp)) // RowsCompleted != len(Results): corrupt on load

	limiter := ratelimit.NewTokenBucket(100000, time.Minute)
	r := New(store, lk, limiter, testConfig(), nil)

	_, err = r.Run(context.Background(), testBatch(1, 3), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeCheckpointCorrupt))
	assert.Empty(t, lk.calls)

	// Explicit restart clears it and reprocesses
	out, err := r.Run(context.Background(), testBatch(1, 3), true)
	require.NoError(t, err)
	assert.Equal(t, checkpoint.StatusCompleted, out.Status)
	assert.Equal(t, []int{0, 1, 2}, lk.calls)
}

func TestRunnerRunOne(t *testing.T) {
	lk := newScriptedLookup()
	r, store := newTestRunner(t, lk)

	res := r.RunOne(context.Background(), task.Row{Index: 0, Fields: map[string]string{"name": "x"}})
	assert.Equal(t, lookup.OutcomeFound, res.Outcome)

	// RunOne never touches checkpoints
	cp, err := store.Load(0)
	require.NoError(t, err)
	assert.Nil(t, cp)
}
