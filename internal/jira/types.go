package jira

// RawIssue is one issue as returned by the search API. The shape is left as a
// weakly-typed tree: the transformer reads the paths it needs and treats
// anything missing as absent rather than malformed at this layer.
type RawIssue map[string]any

// SearchResult is one page of the paginated search endpoint.
type SearchResult struct {
	StartAt    int        `json:"startAt"`
	MaxResults int        `json:"maxResults"`
	Total      int        `json:"total"`
	Issues     []RawIssue `json:"issues"`
}

// Key returns the issue key, or "" when absent.
func (r RawIssue) Key() string {
	k, _ := r["key"].(string)
	return k
}
