package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirscraper/pkg/errors"
	"dirscraper/pkg/task"
)

func TestStoreSaveAndLoad(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	cp := &Checkpoint{
		BatchNum:      2,
		RunID:         "run-1",
		Capability:    "url_discovery",
		TotalRows:     10,
		RowsCompleted: 3,
		Status:        StatusInProgress,
		Results: []task.Result{
			{Index: 0, Status: task.StatusFound, Output: map[string]string{"linkedin_url": "https://www.linkedin.com/in/a"}},
			{Index: 1, Status: task.StatusNotFound},
			{Index: 2, Status: task.StatusError, Error: "network error: boom"},
		},
		Version: 1,
	}
	require.NoError(t, store.Save(cp))

	loaded, err := store.Load(2)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, cp.RunID, loaded.RunID)
	assert.Equal(t, cp.Capability, loaded.Capability)
	assert.Equal(t, 3, loaded.RowsCompleted)
	assert.Len(t, loaded.Results, 3)
	assert.Equal(t, task.StatusError, loaded.Results[2].Status)
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestStoreLoadMissingReturnsNil(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	cp, err := store.Load(7)
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestStoreLoadMalformedReportsCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "batch_001_checkpoint.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err = store.Load(1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeCheckpointCorrupt))
}

func TestStoreLoadInconsistentReportsCorrupt(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	// RowsCompleted disagrees with recorded results
	cp := &Checkpoint{BatchNum: 1, TotalRows: 5, RowsCompleted: 3, Status: StatusInProgress}
	require.NoError(t, store.Save(cp))

	_, err = store.Load(1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeCheckpointCorrupt))
}

func TestStoreSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	cp := &Checkpoint{BatchNum: 1, Status: StatusInProgress}
	require.NoError(t, store.Save(cp))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "batch_001_checkpoint.json", entries[0].Name())
}

func TestStoreDelete(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	cp := &Checkpoint{BatchNum: 1, Status: StatusCompleted}
	require.NoError(t, store.Save(cp))
	require.True(t, store.Exists(1))

	require.NoError(t, store.Delete(1))
	assert.False(t, store.Exists(1))

	// Deleting a missing checkpoint is not an error
	assert.NoError(t, store.Delete(1))
}

func TestStoreListCompleted(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(&Checkpoint{BatchNum: 1, Status: StatusCompleted}))
	require.NoError(t, store.Save(&Checkpoint{BatchNum: 2, Status: StatusQuotaPaused}))
	require.NoError(t, store.Save(&Checkpoint{BatchNum: 3, Status: StatusCompleted}))

	nums, err := store.ListCompleted()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, nums)
}

func TestStoreListIgnoresLeftoverTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(&Checkpoint{BatchNum: 1, Status: StatusCompleted}))

	// A crash between write and rename leaves the temp file behind; it
	// must not make the batch appear twice
	path := filepath.Join(dir, "batch_001_checkpoint.json.tmp")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

	cps, err := store.List()
	require.NoError(t, err)
	require.Len(t, cps, 1)
	assert.Equal(t, 1, cps[0].BatchNum)
}

func TestStoreListSkipsCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(&Checkpoint{BatchNum: 1, Status: StatusCompleted}))
	path := filepath.Join(dir, "batch_002_checkpoint.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0644))

	cps, err := store.List()
	require.NoError(t, err)
	require.Len(t, cps, 1)
	assert.Equal(t, 1, cps[0].BatchNum)
}
