package find

import (
	"net/http"
	"time"

	"github.com/bornholm/schoolscout/pkg/scraper"
	"github.com/bornholm/schoolscout/pkg/scraper/chromedp"
	"github.com/bornholm/schoolscout/pkg/scraper/surf"
	"github.com/bornholm/schoolscout/pkg/search"
	"github.com/bornholm/schoolscout/pkg/search/duckduckgo"
	"github.com/bornholm/schoolscout/pkg/search/google"
	"github.com/bornholm/schoolscout/pkg/search/searx"
	"github.com/pkg/errors"
)

const (
	EngineGoogle     = "google"
	EngineDuckDuckGo = "duckduckgo"
	EngineSearx      = "searx"
)

var engines = []string{EngineGoogle, EngineDuckDuckGo, EngineSearx}

const (
	ScraperHTTP     = "http"
	ScraperSurf     = "surf"
	ScraperChromedp = "chromedp"
)

var scrapers = []string{ScraperHTTP, ScraperSurf, ScraperChromedp}

type engineOptions struct {
	GoogleAPIKey   string
	GoogleCX       string
	GoogleEndpoint string
	SearxInstance  string
	Timeout        time.Duration
	Scraper        scraper.Scraper
}

func newSearchClient(engine string, opts engineOptions) (search.Client, error) {
	switch engine {
	case EngineGoogle:
		if opts.GoogleAPIKey == "" || opts.GoogleCX == "" {
			return nil, errors.New("the google engine needs an api key and a search engine identifier (--google-api-key, --google-cx)")
		}

		funcs := []google.OptionFunc{
			google.WithTimeout(opts.Timeout),
		}

		if opts.GoogleEndpoint != "" {
			funcs = append(funcs, google.WithEndpoint(opts.GoogleEndpoint))
		}

		return google.NewClient(opts.GoogleAPIKey, opts.GoogleCX, funcs...), nil

	case EngineDuckDuckGo:
		return duckduckgo.NewClient(opts.Scraper), nil

	case EngineSearx:
		return searx.NewClient(
			searx.WithInstance(opts.SearxInstance),
			searx.WithTimeout(opts.Timeout),
		), nil

	default:
		return nil, errors.Errorf("unknown search engine '%s'", engine)
	}
}

// newScraper returns the scraper of the given kind and a function releasing
// its resources.
func newScraper(kind string, timeout time.Duration) (scraper.Scraper, func(), error) {
	switch kind {
	case ScraperHTTP:
		return scraper.NewHTTPScraper(&http.Client{Timeout: timeout}), func() {}, nil

	case ScraperSurf:
		return surf.NewScraper(timeout), func() {}, nil

	case ScraperChromedp:
		s, err := chromedp.NewScraper(true, timeout)
		if err != nil {
			return nil, nil, errors.WithStack(err)
		}

		return s, s.Close, nil

	default:
		return nil, nil, errors.Errorf("unknown scraper '%s'", kind)
	}
}
