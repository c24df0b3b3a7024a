package posts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dirscraper/pkg/config"
	"dirscraper/pkg/errors"
	"dirscraper/pkg/logger"
	"dirscraper/pkg/lookup"
	"dirscraper/pkg/retry"
	"dirscraper/pkg/task"
)

// Input column holding the profile URL; alternates are accepted the way
// the research scripts auto-detected them
var urlColumnCandidates = []string{"linkedin_url", "profile_url", "url"}

// Output columns produced per row
const (
	ColumnPostCount  = "post_count"
	ColumnAuthorName = "author_name"
	ColumnHeadline   = "author_headline"
	ColumnLatestPost = "latest_post_date"
	ColumnReactions  = "total_reactions"
	ColumnRawFile    = "raw_file"
)

// PostsLookup scrapes one profile URL row's posts. It implements
// lookup.Lookup. The full post payload is written as JSON under rawDir;
// the result row carries the summary columns plus the raw file name.
type PostsLookup struct {
	client   *Client
	rawDir   string
	retryCfg config.RateLimitConfig
	logger   logger.Logger
}

// NewPostsLookup creates the post-scraping capability
func NewPostsLookup(client *Client, rawDir string, retryCfg config.RateLimitConfig, log logger.Logger) *PostsLookup {
	if log == nil {
		log = logger.GetLogger()
	}
	return &PostsLookup{client: client, rawDir: rawDir, retryCfg: retryCfg, logger: log}
}

// Name identifies the capability in logs and checkpoints
func (p *PostsLookup) Name() string { return "post_scraping" }

// ResultHeader lists the output columns in result-file order
func (p *PostsLookup) ResultHeader() []string {
	return []string{ColumnPostCount, ColumnAuthorName, ColumnHeadline, ColumnLatestPost, ColumnReactions, ColumnRawFile}
}

// Do scrapes posts for one profile URL row
func (p *PostsLookup) Do(ctx context.Context, row task.Row) lookup.Result {
	profileURL := ""
	for _, col := range urlColumnCandidates {
		if v := row.Field(col); v != "" {
			profileURL = v
			break
		}
	}
	if profileURL == "" {
		return lookup.Result{
			Outcome: lookup.OutcomeError,
			Err:     errors.Newf(errors.ErrorTypeRow, "row %d has no profile URL column", row.Index),
		}
	}

	items, err := retry.DoWithResult(func() ([]Post, error) {
		return p.client.ScrapeProfile(ctx, profileURL)
	}, &retry.Config{
		MaxAttempts: p.retryCfg.MaxRetries,
		Backoff:     &retry.ConstantBackoff{Delay: p.retryCfg.RetryDelay},
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      p.logger,
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

	if len(items) == 0 {
		return lookup.Result{
			Outcome: lookup.OutcomeNotFound,
			Output:  map[string]string{ColumnPostCount: "0"},
		}
	}

	rawFile, err := p.saveRaw(profileURL, items)
	if err != nil {
		return lookup.Result{Outcome: lookup.OutcomeError, Err: err}
	}

	return lookup.Result{
		Outcome: lookup.OutcomeFound,
		Output:  p.summarize(items, rawFile),
	}
}

// saveRaw writes the full post payload for one profile as JSON and
// returns the file name
func (p *PostsLookup) saveRaw(profileURL string, items []Post) (string, error) {
	if err := os.MkdirAll(p.rawDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create raw posts directory: %w", err)
	}

	name := fmt.Sprintf("%s_posts.json", slugify(profileURL))
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode raw posts: %w", err)
	}
	if err := os.WriteFile(filepath.Join(p.rawDir, name), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write raw posts: %w", err)
	}
	return name, nil
}

func (p *PostsLookup) summarize(items []Post, rawFile string) map[string]string {
	author := items[0].Author
	latest := ""
	reactions := 0
	for _, post := range items {
		if post.PostedAt.Date > latest {
			latest = post.PostedAt.Date
		}
		reactions += post.Stats.TotalReactions
	}

	name := author.FirstName
	if author.LastName != "" {
		if name != "" {
			name += " "
		}
		name += author.LastName
	}

	return map[string]string{
		ColumnPostCount:  strconv.Itoa(len(items)),
		ColumnAuthorName: name,
		ColumnHeadline:   author.Headline,
		ColumnLatestPost: latest,
		ColumnReactions:  strconv.Itoa(reactions),
		ColumnRawFile:    rawFile,
	}
}

// slugify turns a profile URL into a safe file name fragment
func slugify(u string) string {
	u = NormalizeURL(u)
	if i := strings.LastIndexByte(u, '/'); i >= 0 && i < len(u)-1 {
		u = u[i+1:]
	}
	out := make([]rune, 0, len(u))
	for _, r := range u {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "profile"
	}
	if len(out) > 80 {
		out = out[:80]
	}
	return string(out)
}
