package domain

import (
	"strings"
)

// SearchQuery represents a query for searching tracks.
type SearchQuery struct {
	Query    string   // The search term or URL
	Provider Provider // The provider used to build the backend identifier
	IsURL    bool     // Whether the query is a direct URL
}

// NewSearchQuery creates a SearchQuery from user input.
// Surrounding whitespace and the angle brackets used to suppress link
// embeds are stripped.
func NewSearchQuery(input string, provider Provider) *SearchQuery {
	input = strings.Trim(strings.TrimSpace(input), "<>")

	return &SearchQuery{
		Query:    input,
		Provider: provider,
		IsURL:    isURL(input),
	}
}

// BackendQuery returns the identifier passed to a node's track loader.
func (q *SearchQuery) BackendQuery() string {
	if q.IsURL {
		return q.Query
	}
	return q.Provider.Strategy().Prefix + ":" + q.Query
}

// IsValid returns true if the query is not empty.
func (q *SearchQuery) IsValid() bool {
	return q.Query != ""
}

// isURL checks if the input looks like a URL.
func isURL(input string) bool {
	return strings.HasPrefix(input, "http://") ||
		strings.HasPrefix(input, "https://") ||
		strings.HasPrefix(input, "www.")
}
