package driven

import "context"

// WebSearchService queries an external search provider.
// This is an optional service - when nil, the fallback chain skips
// TRY_WEB entirely.
type WebSearchService interface {
	// Search returns up to limit ranked results for the query.
	Search(ctx context.Context, query string, limit int) ([]WebResult, error)

	// Close releases resources.
	Close() error
}

// WebResult is a single external search result.
type WebResult struct {
	// Title is the result title.
	Title string

	// URL is the result location.
	URL string

	// Snippet is the excerpt returned by the provider.
	Snippet string
}
