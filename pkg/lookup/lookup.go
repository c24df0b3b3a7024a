// Package lookup defines the external-lookup capability the batch runner
// drives: one synchronous call per task row against a rate-limited,
// cost-metered API. Adapters translate API-specific failures into the
// Outcome enumeration so the runner never inspects error text.
package lookup

import (
	"context"

	"dirscraper/pkg/task"
)

// Outcome enumerates every way a single external call can end
type Outcome string

const (
	// OutcomeFound means the call succeeded and produced output fields
	OutcomeFound Outcome = "found"
	// OutcomeNotFound means the call succeeded but matched nothing
	OutcomeNotFound Outcome = "not_found"
	// OutcomeError is a row-level failure (network blip, bad single item);
	// the row is recorded as an error and the batch continues
	OutcomeError Outcome = "error"
	// OutcomeQuotaExceeded means the API signalled a usage or rate limit;
	// the batch pauses and can resume later without losing work
	OutcomeQuotaExceeded Outcome = "quota_exceeded"
	// OutcomeFatal is an unrecoverable condition (bad credentials,
	// malformed schema) requiring operator intervention
	OutcomeFatal Outcome = "fatal"
)

// Result is the outcome of one external call
type Result struct {
	Outcome Outcome
	// Output holds the retrieved columns when Outcome is OutcomeFound
	// or OutcomeNotFound
	Output map[string]string
	// Err carries detail for error, quota and fatal outcomes
	Err error
}

// Lookup is the injected external capability: one call per task row.
// Implementations must be safe to call sequentially and must honor the
// context deadline.
type Lookup interface {
	// Name identifies the capability in logs and reports
	Name() string

	// ResultHeader lists the output columns this capability produces,
	// in the order they appear in result files
	ResultHeader() []string

	// Do performs one external call for one row
	Do(ctx context.Context, row task.Row) Result
}
