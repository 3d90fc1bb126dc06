package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bornholm/schoolscout/pkg/search"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, funcs ...OptionFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	funcs = append([]OptionFunc{WithEndpoint(server.URL + "/"), WithHTTPClient(server.Client())}, funcs...)

	return NewClient("test-key", "test-cx", funcs...)
}

func TestClientSearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}

		if r.URL.Path != "/customsearch/v1" {
			t.Errorf("path = %s", r.URL.Path)
		}

		query := r.URL.Query()
		expected := map[string]string{
			"q":   "private schools in Adama",
			"key": "test-key",
			"cx":  "test-cx",
			"num": "3",
		}
		for name, value := range expected {
			if got := query.Get(name); got != value {
				t.Errorf("query parameter %s = %q, want %q", name, got, value)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"items": [
				{"title": "Bright Future Academy - Adama", "link": "http://bright.example", "snippet": "Call 0911223344"},
				{"snippet": "no title nor link"}
			]
		}`))
	})

	results, err := client.Search(context.Background(), "private schools in Adama")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 2, len(results); e != g {
		t.Fatalf("len(results): expected %d, got %d\n%s", e, g, spew.Sdump(results))
	}

	first := results[0]
	if first.Title != "Bright Future Academy - Adama" || first.URL != "http://bright.example" || first.Description != "Call 0911223344" {
		t.Errorf("unexpected first result:\n%s", spew.Sdump(first))
	}

	second := results[1]
	if second.Title != "" || second.URL != "" || second.Description != "no title nor link" {
		t.Errorf("unexpected second result:\n%s", spew.Sdump(second))
	}
}

func TestClientSearchNoItems(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"kind": "customsearch#search"}`))
	})

	results, err := client.Search(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if len(results) != 0 {
		t.Errorf("expected no results, got:\n%s", spew.Sdump(results))
	}
}

func TestClientSearchHTTPStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": {"code": 403, "message": "quota exceeded"}}`))
	})

	_, err := client.Search(context.Background(), "private schools")
	if err == nil {
		t.Fatal("expected an error")
	}

	if e, g := http.StatusForbidden, search.StatusCode(err); e != g {
		t.Errorf("status code: expected %d, got %d (%+v)", e, g, err)
	}

	if search.IsTransportError(err) {
		t.Errorf("expected an http status error, got a transport error: %+v", err)
	}
}

func TestClientSearchMalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items": [`))
	})

	_, err := client.Search(context.Background(), "private schools")
	if err == nil {
		t.Fatal("expected an error")
	}

	if !search.IsTransportError(err) {
		t.Errorf("expected a transport error, got %+v", err)
	}
}

func TestClientSearchTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(50*time.Millisecond))

	_, err := client.Search(context.Background(), "private schools")
	if err == nil {
		t.Fatal("expected an error")
	}

	if !search.IsTransportError(err) {
		t.Errorf("expected a transport error, got %+v", err)
	}
}

func TestClientSearchZeroTimeout(t *testing.T) {
	for _, timeout := range []time.Duration{0, -time.Second} {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"items": [{"title": "Adama School", "link": "http://adama.example", "snippet": "0911223344"}]}`))
		}, WithTimeout(timeout))

		if client.timeout != DefaultTimeout {
			t.Errorf("timeout %s: client timeout = %s, want %s", timeout, client.timeout, DefaultTimeout)
		}

		results, err := client.Search(context.Background(), "private schools")
		if err != nil {
			t.Fatalf("timeout %s: %+v", timeout, errors.WithStack(err))
		}

		if len(results) != 1 {
			t.Errorf("timeout %s: unexpected results %s", timeout, spew.Sdump(results))
		}
	}
}
