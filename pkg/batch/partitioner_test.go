package batch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirscraper/pkg/errors"
	"dirscraper/pkg/task"
)

func testTable(rows int) *task.Table {
	table := &task.Table{Header: []string{"director_name", "company_name"}}
	for i := 0; i < rows; i++ {
		table.Rows = append(table.Rows, task.Row{
			Index: i,
			Fields: map[string]string{
				"director_name": fmt.Sprintf("Director %d", i),
				"company_name":  fmt.Sprintf("Company %d", i),
			},
		})
	}
	return table
}

func TestPartition(t *testing.T) {
	t.Run("EvenSplit", func(t *testing.T) {
		batches, err := Partition(testTable(10), 5)
		require.NoError(t, err)
		require.Len(t, batches, 2)
		assert.Equal(t, 1, batches[0].Num)
		assert.Equal(t, 2, batches[1].Num)
		assert.Len(t, batches[0].Rows, 5)
		assert.Len(t, batches[1].Rows, 5)
	})

	t.Run("ShortFinalBatch", func(t *testing.T) {
		batches, err := Partition(testTable(7), 3)
		require.NoError(t, err)
		require.Len(t, batches, 3)
		assert.Len(t, batches[2].Rows, 1)
	})

	t.Run("SizeLargerThanInput", func(t *testing.T) {
		batches, err := Partition(testTable(3), 100)
		require.NoError(t, err)
		require.Len(t, batches, 1)
		assert.Len(t, batches[0].Rows, 3)
	})

	t.Run("CoversEveryRowExactlyOnce", func(t *testing.T) {
		table := testTable(11)
		batches, err := Partition(table, 4)
		require.NoError(t, err)

		seen := make(map[string]int)
		total := 0
		for _, b := range batches {
			for _, row := range b.Rows {
				seen[row.Fields["director_name"]]++
				total++
			}
		}
		assert.Equal(t, len(table.Rows), total)
		for name, n := range seen {
			assert.Equal(t, 1, n, "row %s appeared %d times", name, n)
		}
	})

	t.Run("RowIndexRestartsPerBatch", func(t *testing.T) {
		batches, err := Partition(testTable(6), 4)
		require.NoError(t, err)
		assert.Equal(t, 0, batches[1].Rows[0].Index)
		assert.Equal(t, 1, batches[1].Rows[1].Index)
	})

	t.Run("Deterministic", func(t *testing.T) {
		a, err := Partition(testTable(9), 4)
		require.NoError(t, err)
		b, err := Partition(testTable(9), 4)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("InvalidSize", func(t *testing.T) {
		_, err := Partition(testTable(5), 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrorTypeInvalidBatchSize))

		_, err = Partition(testTable(5), -3)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrorTypeInvalidBatchSize))
	})

	t.Run("EmptyInput", func(t *testing.T) {
		_, err := Partition(&task.Table{Header: []string{"a"}}, 5)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrorTypeInputMissing))
	})
}

func TestWriteAndReadBatches(t *testing.T) {
	dir := t.TempDir()

	batches, err := Partition(testTable(5), 2)
	require.NoError(t, err)
	require.NoError(t, WriteBatches(dir, batches))

	nums, err := ListBatches(dir)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, nums)

	b, err := ReadBatch(dir, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Num)
	require.Len(t, b.Rows, 2)
	assert.Equal(t, "Director 2", b.Rows[0].Fields["director_name"])
}

func TestListBatchesMissingDir(t *testing.T) {
	_, err := ListBatches("/nonexistent/batches")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeInputMissing))
}
