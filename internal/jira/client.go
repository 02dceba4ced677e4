// Package jira wraps the Jira REST search endpoint with retry-aware paginated
// fetching. The API is queried anonymously; one HTTP client (and its connection
// pool) is shared across all requests of a run.
package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/quarry/internal/retry"
)

const (
	// DefaultBaseURL is the Apache public Jira instance.
	DefaultBaseURL = "https://issues.apache.org/jira/rest/api/2"

	userAgent = "quarry-corpus-scraper (github.com/MikeSquared-Agency/quarry)"

	requestTimeout = 15 * time.Second
)

// searchFields is the minimal field set the transformer reads. Requesting only
// these keeps response payloads small.
var searchFields = []string{
	"summary", "description", "comment", "status", "priority",
	"labels", "issuetype", "reporter", "assignee", "created", "updated",
	"project",
}

type Client struct {
	baseURL string
	client  *http.Client
	policy  retry.Policy
	logger  *slog.Logger
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: requestTimeout},
		policy:  retry.DefaultPolicy,
		logger:  logger,
	}
}

// attempt captures one request/response cycle for the retry classifier.
type attempt struct {
	status int
	body   []byte
}

// SearchIssues fetches one page of issues for a project, ordered by creation
// date ascending. A stable order is required for pagination correctness: the
// resume offset assumes the server never reorders results between calls.
//
// Transport failures and 429/5xx responses are retried with exponential
// backoff; any other non-200 status fails immediately.
func (c *Client) SearchIssues(ctx context.Context, project string, startAt, maxResults int) (*SearchResult, error) {
	jql := fmt.Sprintf("project = '%s' ORDER BY created ASC", project)

	params := url.Values{}
	params.Set("jql", jql)
	params.Set("startAt", strconv.Itoa(startAt))
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("fields", strings.Join(searchFields, ","))

	reqURL := c.baseURL + "/search?" + params.Encode()

	result, err := retry.Do(ctx, c.policy,
		func(ctx context.Context) (attempt, error) {
			return c.get(ctx, reqURL)
		},
		classifyAttempt,
	)
	if err != nil {
		return nil, fmt.Errorf("search %s startAt=%d: %w", project, startAt, err)
	}

	var page SearchResult
	if err := json.Unmarshal(result.body, &page); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}
	return &page, nil
}

func (c *Client) get(ctx context.Context, reqURL string) (attempt, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return attempt{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// Transport-level failure: no status to classify, always retryable.
		return attempt{}, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		// Connection dropped mid-body; treat like a transport failure.
		return attempt{}, fmt.Errorf("read response: %w", err)
	}

	a := attempt{status: resp.StatusCode, body: body}
	if resp.StatusCode == http.StatusOK {
		return a, nil
	}

	if isRetryableStatus(resp.StatusCode) {
		c.logger.Warn("server error or rate limit, will retry", "status", resp.StatusCode)
	}
	return a, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 256))
}

// classifyAttempt maps one attempt onto the retry outcome: 200 succeeds,
// transport failures and 429/5xx retry, every other status is fatal.
func classifyAttempt(a attempt, err error) retry.Outcome {
	if err == nil {
		return retry.Success
	}
	if a.status == 0 || isRetryableStatus(a.status) {
		return retry.Retry
	}
	return retry.Fatal
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
