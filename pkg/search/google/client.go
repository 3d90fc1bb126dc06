package google

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/bornholm/schoolscout/pkg/search"
	"github.com/pkg/errors"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	// DefaultEndpoint is the root of the Custom Search JSON API
	// (requests go to DefaultEndpoint + "customsearch/v1").
	DefaultEndpoint    = "https://www.googleapis.com/"
	DefaultResultCount = 3
	DefaultTimeout     = 10 * time.Second
)

// Client implements the search.Client interface using Google Custom Search API.
type Client struct {
	apiKey      string
	cx          string
	endpoint    string
	httpClient  *http.Client
	resultCount int64
	timeout     time.Duration
}

type OptionFunc func(c *Client)

func WithEndpoint(endpoint string) OptionFunc {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

func WithHTTPClient(client *http.Client) OptionFunc {
	return func(c *Client) {
		c.httpClient = client
	}
}

func WithResultCount(count int) OptionFunc {
	return func(c *Client) {
		c.resultCount = int64(count)
	}
}

func WithTimeout(timeout time.Duration) OptionFunc {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// Search implements the search.Client interface.
func (c *Client) Search(ctx context.Context, query string) ([]search.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// The api key is sent as a query parameter on each call: a custom http
	// client disables the option.WithAPIKey transport.
	service, err := customsearch.NewService(ctx,
		option.WithEndpoint(c.endpoint),
		option.WithHTTPClient(c.httpClient),
	)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	slog.DebugContext(ctx, "executing search", slog.String("query", query))

	call := service.Cse.List().
		Context(ctx).
		Q(query).
		Cx(c.cx).
		Num(c.resultCount)

	res, err := call.Do(googleapi.QueryParameter("key", c.apiKey))
	if err != nil {
		return nil, classify(err)
	}

	results := make([]search.Result, 0, len(res.Items))
	for _, item := range res.Items {
		if item == nil {
			continue
		}

		results = append(results, search.Result{
			Title:       item.Title,
			URL:         item.Link,
			Description: item.Snippet,
		})
	}

	return results, nil
}

func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return search.NewHTTPStatusError(apiErr.Code, apiErr.Message)
	}

	return search.NewTransportError(err)
}

// NewClient creates a new Google Custom Search API client.
func NewClient(apiKey, cx string, funcs ...OptionFunc) *Client {
	client := &Client{
		apiKey:      apiKey,
		cx:          cx,
		endpoint:    DefaultEndpoint,
		httpClient:  http.DefaultClient,
		resultCount: DefaultResultCount,
		timeout:     DefaultTimeout,
	}

	for _, fn := range funcs {
		fn(client)
	}

	if client.timeout <= 0 {
		client.timeout = DefaultTimeout
	}

	return client
}

var _ search.Client = &Client{}
