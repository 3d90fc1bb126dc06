package chromedp

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/bornholm/schoolscout/pkg/scraper"
	"github.com/bornholm/schoolscout/pkg/search"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
	"github.com/pkg/errors"

	cu "github.com/Davincible/chromedp-undetected"
)

const DefaultTimeout = 30 * time.Second

// Browsers expose the status of the main document through the navigation
// timing entry. 0 means the browser did not report it.
const navigationStatusScript = `(performance.getEntriesByType("navigation")[0] || {}).responseStatus || 0`

// Scraper drives a headless Chrome instance. It must be closed once done.
type Scraper struct {
	chromeCtx    context.Context
	cancelChrome context.CancelFunc
	timeout      time.Duration
}

// Check implements scraper.Scraper.
func (s *Scraper) Check(ctx context.Context, url string) (bool, error) {
	var status int64

	err := s.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(navigationStatusScript, &status),
	)
	if err != nil {
		return false, errors.WithStack(err)
	}

	if status == 0 {
		return true, nil
	}

	return status >= http.StatusOK && status < http.StatusBadRequest, nil
}

// Get implements scraper.Scraper.
func (s *Scraper) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	var (
		html   string
		status int64
	)

	err := s.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(navigationStatusScript, &status),
		chromedp.ActionFunc(func(ctx context.Context) error {
			node, err := dom.GetDocument().Do(ctx)
			if err != nil {
				return errors.WithStack(err)
			}

			res, err := dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
			if err != nil {
				return errors.WithStack(err)
			}

			html = res

			return nil
		}),
	)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if status >= http.StatusBadRequest {
		return nil, search.NewHTTPStatusError(int(status), "")
	}

	return io.NopCloser(bytes.NewBufferString(html)), nil
}

// run executes the actions in a new browser tab, bounded by the scraper
// timeout and by ctx. Only the tab is closed on return, the browser keeps
// running until Close.
func (s *Scraper) run(ctx context.Context, actions ...chromedp.Action) error {
	tabCtx, cancelTab := chromedp.NewContext(s.chromeCtx)
	defer cancelTab()

	timeoutCtx, cancel := context.WithTimeout(tabCtx, s.timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(timeoutCtx, actions...); err != nil {
		return search.NewTransportError(err)
	}

	return nil
}

func (s *Scraper) Close() {
	s.cancelChrome()
}

func NewScraper(headless bool, timeout time.Duration) (*Scraper, error) {
	options := []cu.Option{}
	if headless {
		options = append(options, cu.WithHeadless())
	}

	if httpProxy := os.Getenv("HTTP_PROXY"); httpProxy != "" {
		options = append(options, cu.WithChromeFlags(chromedp.ProxyServer(httpProxy)))
	}

	chromeCtx, cancelChrome, err := cu.New(cu.NewConfig(options...))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// The first run allocates the browser and is bound to the lifetime of its
	// context, so it must not carry a deadline.
	if err := chromedp.Run(chromeCtx); err != nil {
		cancelChrome()
		return nil, errors.WithStack(err)
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Scraper{
		chromeCtx:    chromeCtx,
		cancelChrome: cancelChrome,
		timeout:      timeout,
	}, nil
}

var _ scraper.Scraper = &Scraper{}
