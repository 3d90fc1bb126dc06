package searx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bornholm/schoolscout/pkg/search"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
)

const resultsPage = `<html><body>
<article class="result">
  <h3><a href="https://bright.example/">Bright Future Academy | Adama</a></h3>
  <p class="content">Call +251 91 122 3344 today.</p>
</article>
<article class="result">
  <h3><a href="">No link</a></h3>
</article>
</body></html>`

func newSearxServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			http.NotFound(w, r)
			return
		}

		if e, g := "private schools in Adama", r.URL.Query().Get("q"); e != g {
			t.Errorf("q: expected %q, got %q", e, g)
		}

		if e, g := DefaultLanguage, r.URL.Query().Get("language"); e != g {
			t.Errorf("language: expected %q, got %q", e, g)
		}

		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(resultsPage))
	}))
	t.Cleanup(server.Close)

	return server
}

func TestClientWithInstance(t *testing.T) {
	server := newSearxServer(t)

	client := NewClient(WithInstance(server.URL))

	results, err := client.Search(context.Background(), "private schools in Adama")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 1, len(results); e != g {
		t.Fatalf("len(results): expected %d, got %d\n%s", e, g, spew.Sdump(results))
	}

	expected := search.Result{
		Title:       "Bright Future Academy | Adama",
		URL:         "https://bright.example/",
		Description: "Call +251 91 122 3344 today.",
	}

	if results[0] != expected {
		t.Errorf("unexpected result:\n%s", spew.Sdump(results[0]))
	}
}

func TestClientInstanceDiscovery(t *testing.T) {
	searxServer := newSearxServer(t)

	listing := Instances{
		Instances: map[string]Instance{
			searxServer.URL: {
				NetworkType: "normal",
				HTTP:        HTTP{StatusCode: http.StatusOK},
				Timing:      Timing{Search: Search{SuccessPercentage: 100, All: Stats{Mean: 0.5}}},
			},
			"http://slow.invalid": {
				NetworkType: "normal",
				HTTP:        HTTP{StatusCode: http.StatusOK},
				Timing:      Timing{Search: Search{SuccessPercentage: 100, All: Stats{Mean: 3}}},
			},
			"http://tor.invalid": {
				NetworkType: "tor",
				HTTP:        HTTP{StatusCode: http.StatusOK},
				Timing:      Timing{Search: Search{SuccessPercentage: 100, All: Stats{Mean: 0.1}}},
			},
		},
	}

	listingServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(listing)
	}))
	defer listingServer.Close()

	client := NewClient(WithInstancesURL(listingServer.URL))

	results, err := client.Search(context.Background(), "private schools in Adama")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 1, len(results); e != g {
		t.Fatalf("len(results): expected %d, got %d\n%s", e, g, spew.Sdump(results))
	}
}

func TestClientNoHealthyInstance(t *testing.T) {
	listingServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"instances": {"http://down.invalid": {"network_type": "normal", "http": {"status_code": 502}}}}`))
	}))
	defer listingServer.Close()

	client := NewClient(WithInstancesURL(listingServer.URL))

	if _, err := client.Search(context.Background(), "schools"); !errors.Is(err, ErrNoInstance) {
		t.Errorf("expected ErrNoInstance, got %+v", err)
	}
}

func TestClientHTTPStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(WithInstance(server.URL))

	_, err := client.Search(context.Background(), "schools")
	if e, g := http.StatusTooManyRequests, search.StatusCode(err); e != g {
		t.Errorf("status code: expected %d, got %d (%+v)", e, g, err)
	}
}

func TestClientCanceledContext(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(resultsPage))
	}))
	defer server.Close()

	client := NewClient(WithInstance(server.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Search(ctx, "schools")
	if err == nil {
		t.Fatal("expected an error")
	}

	if !search.IsTransportError(err) {
		t.Errorf("expected a transport error, got %+v", err)
	}

	if e, g := int32(0), calls.Load(); e != g {
		t.Errorf("calls: expected %d, got %d", e, g)
	}
}

func TestClientCancelInFlight(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	client := NewClient(WithInstance(server.URL), WithTimeout(time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()

	_, err := client.Search(ctx, "schools")
	if err == nil {
		t.Fatal("expected an error")
	}

	if !search.IsTransportError(err) {
		t.Errorf("expected a transport error, got %+v", err)
	}

	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("search returned after %s, expected it to stop with its context", elapsed)
	}
}

func TestBestInstanceIgnoresFailingEngines(t *testing.T) {
	healthy := Timing{Search: Search{SuccessPercentage: 100, All: Stats{Mean: 1}}}

	instances := Instances{
		Instances: map[string]Instance{
			"https://failing.example": {
				NetworkType: "normal",
				HTTP:        HTTP{StatusCode: http.StatusOK},
				Timing:      healthy,
				Engines: map[string]Engine{
					"google":     {ErrorRate: 90},
					"bing":       {ErrorRate: 75},
					"duckduckgo": {ErrorRate: 100},
				},
			},
			"https://working.example": {
				NetworkType: "normal",
				HTTP:        HTTP{StatusCode: http.StatusOK},
				Timing:      healthy,
				Engines: map[string]Engine{
					"google": {ErrorRate: 0},
					"brave":  {ErrorRate: 10},
				},
			},
		},
	}

	bestURL, found := bestInstance(instances)
	if !found {
		t.Fatal("expected an instance")
	}

	if e, g := "https://working.example", bestURL; e != g {
		t.Errorf("best instance: expected %q, got %q", e, g)
	}
}
