package scraper

import (
	"context"
	"io"
	"net/http"

	"github.com/bornholm/schoolscout/pkg/search"
	"github.com/pkg/errors"
)

const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36"

// Restrict error bodies to 4KB
const maxErrorBodySize = 4 << 10

type HTTPScraper struct {
	client    *http.Client
	userAgent string
}

// Check implements scraper.Scraper.
func (s *HTTPScraper) Check(ctx context.Context, url string) (bool, error) {
	res, err := s.do(ctx, url)
	if err != nil {
		return false, errors.WithStack(err)
	}

	defer res.Body.Close()

	io.Copy(io.Discard, io.LimitReader(res.Body, maxErrorBodySize))

	return isOK(res.StatusCode), nil
}

// Get implements scraper.Scraper.
func (s *HTTPScraper) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	res, err := s.do(ctx, url)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if !isOK(res.StatusCode) {
		defer res.Body.Close()

		body, err := io.ReadAll(io.LimitReader(res.Body, maxErrorBodySize))
		if err != nil {
			return nil, search.NewTransportError(err)
		}

		return nil, search.NewHTTPStatusError(res.StatusCode, string(body))
	}

	return res.Body, nil
}

func (s *HTTPScraper) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	req.Header.Set("User-Agent", s.userAgent)

	res, err := s.client.Do(req)
	if err != nil {
		return nil, search.NewTransportError(err)
	}

	return res, nil
}

func isOK(status int) bool {
	return status >= http.StatusOK && status < http.StatusBadRequest
}

func NewHTTPScraper(client *http.Client) *HTTPScraper {
	return &HTTPScraper{
		client:    client,
		userAgent: DefaultUserAgent,
	}
}

var _ Scraper = &HTTPScraper{}
