package task

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"dirscraper/pkg/errors"
)

// ReadTable reads a CSV file into a Table. The first record is the header.
// Returns an input_missing error if the file is absent or has no data rows.
func ReadTable(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrorTypeInputMissing, "input file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, errors.Newf(errors.ErrorTypeInputMissing, "input file is empty: %s", path)
	}

	header := records[0]
	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		fields := make(map[string]string, len(header))
		for j, col := range header {
			if j < len(record) {
				fields[col] = record[j]
			}
		}
		rows = append(rows, Row{Index: i, Fields: fields})
	}

	return &Table{Header: header, Rows: rows}, nil
}

// WriteTable writes a Table to a CSV file, creating parent directories
func WriteTable(path string, table *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(table.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range table.Rows {
		record := make([]string, len(table.Header))
		for j, col := range table.Header {
			record[j] = row.Fields[col]
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row.Index, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ResultTable joins a batch's rows with their results into one Table.
// The output header is the batch header followed by resultHeader plus
// final status and error columns, so failed rows can be triaged and
// re-run from the results file alone. Rows without a terminal result
// are omitted.
func ResultTable(batch *Batch, results []Result, resultHeader []string) *Table {
	header := make([]string, 0, len(batch.Header)+len(resultHeader)+2)
	header = append(header, batch.Header...)
	header = append(header, resultHeader...)
	header = append(header, "row_status", "row_error")

	byIndex := make(map[int]Result, len(results))
	for _, res := range results {
		byIndex[res.Index] = res
	}

	out := &Table{Header: header}
	for _, row := range batch.Rows {
		res, ok := byIndex[row.Index]
		if !ok {
			continue
		}
		fields := make(map[string]string, len(header))
		for _, col := range batch.Header {
			fields[col] = row.Fields[col]
		}
		for _, col := range resultHeader {
			fields[col] = res.Output[col]
		}
		fields["row_status"] = string(res.Status)
		fields["row_error"] = res.Error
		out.Rows = append(out.Rows, Row{Index: row.Index, Fields: fields})
	}
	return out
}
