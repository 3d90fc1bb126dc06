package search

import "context"

// Client executes a single free-text query against a search engine.
type Client interface {
	Search(ctx context.Context, search string) ([]Result, error)
}

// Result is one raw item returned by a search engine.
// Missing fields are left empty.
type Result struct {
	Title       string
	URL         string
	Description string
}
