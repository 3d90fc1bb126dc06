package surf

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/bornholm/schoolscout/pkg/scraper"
	"github.com/bornholm/schoolscout/pkg/search"
	"github.com/enetx/g"
	"github.com/enetx/surf"
	"github.com/pkg/errors"
)

const DefaultTimeout = 10 * time.Second

// Scraper fetches pages while impersonating a desktop Chrome browser.
type Scraper struct {
	timeout time.Duration
}

// Check implements scraper.Scraper.
func (s *Scraper) Check(ctx context.Context, url string) (bool, error) {
	res, err := s.do(ctx, url)
	if err != nil {
		return false, errors.WithStack(err)
	}

	defer res.Body.Reader.Close()

	return isOK(int(res.StatusCode)), nil
}

// Get implements scraper.Scraper.
func (s *Scraper) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	res, err := s.do(ctx, url)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if status := int(res.StatusCode); !isOK(status) {
		res.Body.Reader.Close()
		return nil, search.NewHTTPStatusError(status, "")
	}

	return res.Body.Reader, nil
}

func (s *Scraper) do(ctx context.Context, url string) (*surf.Response, error) {
	client := s.getClient()

	res := client.Get(g.String(url)).WithContext(ctx).Do()
	if res.IsErr() {
		return nil, search.NewTransportError(res.Err())
	}

	return res.Ok(), nil
}

func (s *Scraper) getClient() *surf.Client {
	builder := surf.NewClient().
		Builder()

	if proxy := os.Getenv("HTTP_PROXY"); proxy != "" {
		builder = builder.Proxy(proxy)
	}

	builder = builder.Impersonate().RandomOS().Chrome().
		Timeout(s.timeout).
		Session()

	return builder.Build()
}

func isOK(status int) bool {
	return status >= http.StatusOK && status < http.StatusBadRequest
}

func NewScraper(timeout time.Duration) *Scraper {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Scraper{
		timeout: timeout,
	}
}

var _ scraper.Scraper = &Scraper{}
