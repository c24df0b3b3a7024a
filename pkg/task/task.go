package task

// Status is the terminal outcome recorded for one task row
type Status string

const (
	// StatusFound means the lookup returned a usable result
	StatusFound Status = "found"
	// StatusNotFound means the lookup completed but matched nothing
	StatusNotFound Status = "not_found"
	// StatusError means the lookup failed for this row only; the row is
	// terminal and the batch keeps going
	StatusError Status = "error"
)

// Row is one unit of work: an input record at a stable position.
// Identity is (batch number, Index), which survives restarts because
// partitioning is deterministic.
type Row struct {
	Index  int               `json:"index"`
	Fields map[string]string `json:"fields"`
}

// Field returns the named input column, or "" if absent
func (r Row) Field(name string) string {
	return r.Fields[name]
}

// Result is the terminal outcome for one Row. Output holds the columns
// retrieved by the lookup; Error carries the row-level failure message
// when Status is StatusError.
type Result struct {
	Index  int               `json:"index"`
	Status Status            `json:"status"`
	Output map[string]string `json:"output,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// Batch is an ordered fixed-size partition of the task list, numbered from 1
type Batch struct {
	Num    int
	Header []string
	Rows   []Row
}

// Table is an ordered set of rows sharing one header, as read from a CSV file
type Table struct {
	Header []string
	Rows   []Row
}
