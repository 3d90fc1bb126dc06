package duckduckgo

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bornholm/schoolscout/pkg/scraper"
	"github.com/bornholm/schoolscout/pkg/search"
	"github.com/pkg/errors"
)

const DefaultBaseURL = "https://html.duckduckgo.com/html/"

var ErrCaptcha = errors.New("captcha challenge")

// Client scrapes the DuckDuckGo html endpoint. It needs no api key.
type Client struct {
	scraper scraper.Scraper
	baseURL string
}

type OptionFunc func(c *Client)

func WithBaseURL(baseURL string) OptionFunc {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// Search implements search.Client.
func (c *Client) Search(ctx context.Context, query string) ([]search.Result, error) {
	searchURL, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	values := searchURL.Query()
	values.Set("q", query)
	searchURL.RawQuery = values.Encode()

	slog.DebugContext(ctx, "scraping duckduckgo results", slog.String("url", searchURL.String()))

	body, err := c.scraper.Get(ctx, searchURL.String())
	if err != nil {
		return nil, errors.WithStack(err)
	}

	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, search.NewTransportError(err)
	}

	if doc.Find("#challenge-form").Length() > 0 {
		return nil, errors.WithStack(ErrCaptcha)
	}

	results := make([]search.Result, 0)

	doc.Find(".result").Each(func(i int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find(".result__title").Text())
		if title == "" {
			return
		}

		link := s.Find(".result__a").AttrOr("href", "")
		if link == "" {
			return
		}

		results = append(results, search.Result{
			Title:       title,
			URL:         resolveLink(link),
			Description: strings.TrimSpace(s.Find(".result__snippet").Text()),
		})
	})

	return results, nil
}

// resolveLink unwraps DuckDuckGo redirection links (//duckduckgo.com/l/?uddg=...).
func resolveLink(raw string) string {
	link, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	if target := link.Query().Get("uddg"); target != "" {
		return target
	}

	if link.Scheme == "" {
		return ""
	}

	return link.String()
}

func NewClient(scraper scraper.Scraper, funcs ...OptionFunc) *Client {
	client := &Client{
		scraper: scraper,
		baseURL: DefaultBaseURL,
	}

	for _, fn := range funcs {
		fn(client)
	}

	return client
}

var _ search.Client = &Client{}
