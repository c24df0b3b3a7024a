package search

import (
	"context"
	"strconv"
	"strings"

	"dirscraper/pkg/config"
	"dirscraper/pkg/errors"
	"dirscraper/pkg/logger"
	"dirscraper/pkg/lookup"
	"dirscraper/pkg/retry"
	"dirscraper/pkg/task"
)

// Output columns produced per row
const (
	ColumnURL         = "linkedin_url"
	ColumnTitle       = "linkedin_title"
	ColumnMatchScore  = "match_score"
	ColumnVerified    = "verified"
	ColumnQualityFlag = "quality_flag"
	ColumnMatchType   = "match_type"
)

const profilePathMarker = "linkedin.com/in/"

// URLLookup resolves one director/company query row to a LinkedIn
// profile URL. It implements lookup.Lookup.
type URLLookup struct {
	client   *Client
	retryCfg config.RateLimitConfig
	logger   logger.Logger
}

// NewURLLookup creates the URL-discovery capability
func NewURLLookup(client *Client, retryCfg config.RateLimitConfig, log logger.Logger) *URLLookup {
	if log == nil {
		log = logger.GetLogger()
	}
	return &URLLookup{client: client, retryCfg: retryCfg, logger: log}
}

// Name identifies the capability in logs and checkpoints
func (u *URLLookup) Name() string { return "url_discovery" }

// ResultHeader lists the output columns in result-file order
func (u *URLLookup) ResultHeader() []string {
	return []string{ColumnURL, ColumnTitle, ColumnMatchScore, ColumnVerified, ColumnQualityFlag, ColumnMatchType}
}

// Do searches for one row's profile URL and verifies candidates against
// the director name and company
func (u *URLLookup) Do(ctx context.Context, row task.Row) lookup.Result {
	query := row.Field(ColumnSearchQuery)
	director := firstNonEmpty(row.Field(ColumnDirectorClean), row.Field(ColumnDirectorName))
	company := firstNonEmpty(row.Field(ColumnCompanyClean), row.Field(ColumnCompanyName))

	if query == "" {
		query = BuildQuery(director, company)
	}
	if query == "" {
		return lookup.Result{
			Outcome: lookup.OutcomeError,
			Err:     errors.Newf(errors.ErrorTypeRow, "row %d has no usable query fields", row.Index),
		}
	}

	items, err := retry.DoWithResult(func() ([]Item, error) {
		return u.client.Search(ctx, query+" site:"+profilePathMarker)
	}, &retry.Config{
		MaxAttempts: u.retryCfg.MaxRetries,
		Backoff:     &retry.ConstantBackoff{Delay: u.retryCfg.RetryDelay},
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      u.logger,
	})
	if err != nil {
		switch errors.TypeOf(err) {
		case errors.ErrorTypeQuotaExceeded:
			return lookup.Result{Outcome: lookup.OutcomeQuotaExceeded, Err: err}
		case errors.ErrorTypeAuth:
			return lookup.Result{Outcome: lookup.OutcomeFatal, Err: err}
		default:
			return lookup.Result{Outcome: lookup.OutcomeError, Err: err}
		}
	}

	// First verified candidate wins; otherwise keep the best-scoring
	// unverified one as a fallback.
	var best *Item
	var bestVerification Verification
	bestScore := -1

	for i := range items {
		item := items[i]
		if !strings.Contains(item.Link, profilePathMarker) {
			continue
		}
		v := Verify(director, company, item.Title)
		if v.Verified {
			return u.found(item, v)
		}
		if v.Score > bestScore {
			bestScore = v.Score
			best = &items[i]
			bestVerification = v
		}
	}

	if best != nil {
		return u.found(*best, bestVerification)
	}

	return lookup.Result{
		Outcome: lookup.OutcomeNotFound,
		Output: map[string]string{
			ColumnMatchScore:  "0",
			ColumnVerified:    "false",
			ColumnQualityFlag: "NO_MATCH",
			ColumnMatchType:   "no_match",
		},
	}
}

func (u *URLLookup) found(item Item, v Verification) lookup.Result {
	return lookup.Result{
		Outcome: lookup.OutcomeFound,
		Output: map[string]string{
			ColumnURL:         item.Link,
			ColumnTitle:       item.Title,
			ColumnMatchScore:  strconv.Itoa(v.Score),
			ColumnVerified:    strconv.FormatBool(v.Verified),
			ColumnQualityFlag: v.QualityFlag,
			ColumnMatchType:   v.MatchType,
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
