package searx

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/bornholm/schoolscout/pkg/search"
	"github.com/gocolly/colly"
	"github.com/pkg/errors"
)

const (
	DefaultInstancesURL = "https://searx.space/data/instances.json"
	DefaultLanguage     = "en"
	DefaultTimeout      = 10 * time.Second
)

const maxEngineErrorRate = 50

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36"

var ErrNoInstance = errors.New("no available searx instance")

// Client scrapes the html result page of a SearXNG instance.
type Client struct {
	instance     string
	instancesURL string
	language     string
	timeout      time.Duration
}

type OptionFunc func(c *Client)

// WithInstance pins the instance to query. When unset, the best instance
// of the searx.space listing is used.
func WithInstance(instance string) OptionFunc {
	return func(c *Client) {
		c.instance = instance
	}
}

func WithInstancesURL(instancesURL string) OptionFunc {
	return func(c *Client) {
		c.instancesURL = instancesURL
	}
}

func WithLanguage(language string) OptionFunc {
	return func(c *Client) {
		c.language = language
	}
}

func WithTimeout(timeout time.Duration) OptionFunc {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// Search implements search.Client.
func (c *Client) Search(ctx context.Context, query string) ([]search.Result, error) {
	serverURL, err := c.getInstanceURL(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	results, err := c.doSearch(ctx, serverURL, query)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return results, nil
}

func (c *Client) getInstanceURL(ctx context.Context) (*url.URL, error) {
	if c.instance != "" {
		instanceURL, err := url.Parse(c.instance)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		return instanceURL, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.instancesURL, nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, search.NewTransportError(err)
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, search.NewHTTPStatusError(res.StatusCode, "")
	}

	var instances Instances
	if err := json.NewDecoder(res.Body).Decode(&instances); err != nil {
		return nil, search.NewTransportError(err)
	}

	bestURL, found := bestInstance(instances)
	if !found {
		return nil, errors.WithStack(ErrNoInstance)
	}

	slog.DebugContext(ctx, "selected searx instance", slog.String("instance", bestURL))

	instanceURL, err := url.Parse(bestURL)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return instanceURL, nil
}

// bestInstance returns the healthy instance with the lowest mean search
// time, preferring the one with more healthy engines on ties.
func bestInstance(instances Instances) (string, bool) {
	var (
		best    *Instance
		bestURL string
	)

	for instanceURL, inst := range instances.Instances {
		if inst.HTTP.StatusCode != http.StatusOK || inst.NetworkType != "normal" || inst.Timing.Search.SuccessPercentage < 80 {
			continue
		}

		if best == nil {
			bestURL, best = instanceURL, &inst
			continue
		}

		engines, bestEngines := healthyEngines(inst), healthyEngines(*best)

		switch {
		case inst.Timing.Search.All.Mean < best.Timing.Search.All.Mean:
		case inst.Timing.Search.All.Mean == best.Timing.Search.All.Mean && engines > bestEngines:
		case inst.Timing.Search.All.Mean == best.Timing.Search.All.Mean && engines == bestEngines && instanceURL < bestURL:
		default:
			continue
		}

		bestURL, best = instanceURL, &inst
	}

	return bestURL, best != nil
}

// healthyEngines counts the engines of the instance failing at most
// maxEngineErrorRate percent of the time.
func healthyEngines(inst Instance) int {
	count := 0
	for _, engine := range inst.Engines {
		if engine.ErrorRate <= maxEngineErrorRate {
			count++
		}
	}

	return count
}

// doSearch scrapes the result page of the instance. The request is bound to
// ctx: it is not issued once ctx is done and an in-flight request is cancelled
// with it.
func (c *Client) doSearch(ctx context.Context, serverURL *url.URL, query string) ([]search.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, search.NewTransportError(err)
	}

	searchURL := serverURL.JoinPath("/search")

	values := searchURL.Query()
	values.Set("q", query)
	values.Set("language", c.language)
	searchURL.RawQuery = values.Encode()

	slog.DebugContext(ctx, "executing search", slog.String("url", searchURL.String()))

	results := make([]search.Result, 0)

	collector := colly.NewCollector(
		colly.UserAgent(userAgent),
	)

	collector.SetRequestTimeout(c.timeout)

	collector.WithTransport(&contextTransport{ctx: ctx, transport: &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   c.timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   c.timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}})

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}

		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", c.language)
		r.Headers.Set("Cache-Control", "no-cache")
	})

	var statusCode int
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
	})

	collector.OnHTML("body", func(h *colly.HTMLElement) {
		h.DOM.Find(".result").Each(func(i int, s *goquery.Selection) {
			link := s.Find("h3 > a[href]")

			href := link.AttrOr("href", "")
			if href == "" {
				return
			}

			title := strings.TrimSpace(link.Text())
			if title == "" {
				return
			}

			results = append(results, search.Result{
				Title:       title,
				URL:         href,
				Description: strings.TrimSpace(s.Find(".content").Text()),
			})
		})
	})

	if err := collector.Visit(searchURL.String()); err != nil {
		if statusCode >= http.StatusBadRequest {
			return nil, search.NewHTTPStatusError(statusCode, "")
		}

		return nil, search.NewTransportError(err)
	}

	if err := ctx.Err(); err != nil {
		return nil, search.NewTransportError(err)
	}

	return results, nil
}

// contextTransport binds the requests issued by the collector to ctx.
type contextTransport struct {
	ctx       context.Context
	transport http.RoundTripper
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.transport.RoundTrip(req.WithContext(t.ctx))
}

func NewClient(funcs ...OptionFunc) *Client {
	client := &Client{
		instancesURL: DefaultInstancesURL,
		language:     DefaultLanguage,
		timeout:      DefaultTimeout,
	}

	for _, fn := range funcs {
		fn(client)
	}

	return client
}

var _ search.Client = &Client{}
