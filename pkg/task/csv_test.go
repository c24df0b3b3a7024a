package task

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirscraper/pkg/errors"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadTable(t *testing.T) {
	t.Run("ParsesHeaderAndRows", func(t *testing.T) {
		path := writeCSV(t, "director_name,company_name\nJane Smith,Acme Corp\nJohn Doe,Globex Inc\n")

		table, err := ReadTable(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"director_name", "company_name"}, table.Header)
		require.Len(t, table.Rows, 2)
		assert.Equal(t, 0, table.Rows[0].Index)
		assert.Equal(t, "Jane Smith", table.Rows[0].Field("director_name"))
		assert.Equal(t, "Globex Inc", table.Rows[1].Field("company_name"))
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := ReadTable("/nonexistent/input.csv")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrorTypeInputMissing))
	})

	t.Run("HeaderOnly", func(t *testing.T) {
		path := writeCSV(t, "director_name,company_name\n")
		_, err := ReadTable(path)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrorTypeInputMissing))
	})
}

func TestWriteTableRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "table.csv")
	table := &Table{
		Header: []string{"a", "b"},
		Rows: []Row{
			{Index: 0, Fields: map[string]string{"a": "1", "b": "with, comma"}},
			{Index: 1, Fields: map[string]string{"a": "2", "b": "line\nbreak"}},
		},
	}

	require.NoError(t, WriteTable(path, table))

	loaded, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, table.Header, loaded.Header)
	require.Len(t, loaded.Rows, 2)
	assert.Equal(t, "with, comma", loaded.Rows[0].Field("b"))
	assert.Equal(t, "line\nbreak", loaded.Rows[1].Field("b"))
}

func TestResultTable(t *testing.T) {
	b := &Batch{
		Num:    1,
		Header: []string{"director_name"},
		Rows: []Row{
			{Index: 0, Fields: map[string]string{"director_name": "Jane"}},
			{Index: 1, Fields: map[string]string{"director_name": "John"}},
			{Index: 2, Fields: map[string]string{"director_name": "Jo"}},
		},
	}
	results := []Result{
		{Index: 0, Status: StatusFound, Output: map[string]string{"linkedin_url": "https://www.linkedin.com/in/jane"}},
		{Index: 1, Status: StatusError, Error: "boom"},
		// Row 2 has no terminal result yet
	}

	table := ResultTable(b, results, []string{"linkedin_url"})

	assert.Equal(t, []string{"director_name", "linkedin_url", "row_status", "row_error"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "https://www.linkedin.com/in/jane", table.Rows[0].Field("linkedin_url"))
	assert.Equal(t, string(StatusFound), table.Rows[0].Field("row_status"))
	assert.Empty(t, table.Rows[0].Field("row_error"))

	// The error message rides along so failures can be triaged from the
	// results file alone
	assert.Equal(t, string(StatusError), table.Rows[1].Field("row_status"))
	assert.Equal(t, "boom", table.Rows[1].Field("row_error"))
	assert.Empty(t, table.Rows[1].Field("linkedin_url"))
}
