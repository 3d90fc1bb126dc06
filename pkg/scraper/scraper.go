package scraper

import (
	"context"
	"io"
)

// Scraper fetches web pages on behalf of the scraping search engines and
// of the website reachability check.
type Scraper interface {
	// Get returns the body of the page at url. The caller must close it.
	Get(ctx context.Context, url string) (io.ReadCloser, error)
	// Check reports whether the page at url answers with a success or
	// redirection status.
	Check(ctx context.Context, url string) (bool, error)
}
