package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
)

var fixedNow = func() time.Time { return time.UnixMilli(1739525400000) }

func TestNewClient_TrimsURL(t *testing.T) {
	c := NewClient("  https://intranet.example/data/app-links.json \n")
	if got, want := c.DocumentURL(), "https://intranet.example/data/app-links.json"; got != want {
		t.Errorf("DocumentURL() = %q, want %q", got, want)
	}
}

func TestNewClient_WithHTTPClient(t *testing.T) {
	custom := &http.Client{Timeout: 5 * time.Second}
	c := NewClient("https://example.com/a.json", WithHTTPClient(custom))
	if c.client != custom {
		t.Error("Client should use custom HTTP client")
	}

	c = NewClient("https://example.com/a.json", WithHTTPClient(nil))
	if c.client == nil {
		t.Error("nil HTTP client should keep the default")
	}
}

func TestNewClient_WithTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{"positive", 3 * time.Second, 3 * time.Second},
		{"zero falls back", 0, DefaultRequestTimeout},
		{"negative falls back", -time.Second, DefaultRequestTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient("https://example.com/a.json", WithTimeout(tt.timeout))
			if c.client.Timeout != tt.want {
				t.Errorf("Timeout = %v, want %v", c.client.Timeout, tt.want)
			}
		})
	}
}

func TestFetchDocument_Success(t *testing.T) {
	var gotQuery, gotCache, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get(CacheBustParam)
		gotCache = r.Header.Get("Cache-Control")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"apps":[]}`)
	}))
	defer server.Close()

	c := NewClient(server.URL+"/data/app-links.json", WithClock(fixedNow))
	data, err := c.FetchDocument(context.Background(), true)
	if err != nil {
		t.Fatalf("FetchDocument failed: %v", err)
	}
	if string(data) != `{"apps":[]}` {
		t.Errorf("body = %q", data)
	}
	if gotQuery != "1739525400000" {
		t.Errorf("cache-bust param = %q, want 1739525400000", gotQuery)
	}
	if gotCache != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", gotCache)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q, want application/json", gotAccept)
	}
}

func TestFetchDocument_NoCacheBust(t *testing.T) {
	var rawQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	c := NewClient(server.URL + "/apps.json?env=prod")
	if _, err := c.FetchDocument(context.Background(), false); err != nil {
		t.Fatalf("FetchDocument failed: %v", err)
	}
	if rawQuery != "env=prod" {
		t.Errorf("query = %q, want env=prod", rawQuery)
	}
}

func TestFetchDocument_PreservesQuery(t *testing.T) {
	c := NewClient("https://example.com/apps.json?env=prod", WithClock(fixedNow))
	got, err := c.requestURL(true)
	if err != nil {
		t.Fatalf("requestURL failed: %v", err)
	}
	if !strings.Contains(got, "env=prod") || !strings.Contains(got, "t=1739525400000") {
		t.Errorf("requestURL = %q, want both env and t params", got)
	}
}

func TestFetchDocument_HTTPErrors(t *testing.T) {
	tests := []struct {
		status   int
		notFound bool
	}{
		{http.StatusNotFound, true},
		{http.StatusInternalServerError, false},
		{http.StatusForbidden, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			c := NewClient(server.URL + "/apps.json")
			_, err := c.FetchDocument(context.Background(), true)
			if err == nil {
				t.Fatal("expected error")
			}
			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("error %T is not *FetchError", err)
			}
			if fe.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", fe.StatusCode, tt.status)
			}
			if fe.URL != server.URL+"/apps.json" {
				t.Errorf("URL = %q, want the document URL without cache busting", fe.URL)
			}
			if IsNotFound(err) != tt.notFound {
				t.Errorf("IsNotFound = %v, want %v", IsNotFound(err), tt.notFound)
			}
		})
	}
}

func TestFetchDocument_EmptyURL(t *testing.T) {
	c := NewClient("")
	if _, err := c.FetchDocument(context.Background(), true); err == nil {
		t.Error("expected error for empty URL")
	}
}

func TestFetchDocument_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(server.URL + "/apps.json")
	if _, err := c.FetchDocument(ctx, true); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestFetchDocument_Transport(t *testing.T) {
	hc := &http.Client{}
	httpmock.ActivateNonDefault(hc)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, "https://intranet.example/data/app-links.json",
		httpmock.NewStringResponder(200, `{"version":"v1","apps":[]}`))

	c := NewClient("https://intranet.example/data/app-links.json", WithHTTPClient(hc))
	data, err := c.FetchDocument(context.Background(), false)
	if err != nil {
		t.Fatalf("FetchDocument failed: %v", err)
	}
	if !strings.Contains(string(data), `"v1"`) {
		t.Errorf("body = %q", data)
	}

	httpmock.RegisterResponder(http.MethodGet, "https://intranet.example/data/app-links.json",
		httpmock.NewErrorResponder(errors.New("connection refused")))
	if _, err := c.FetchDocument(context.Background(), false); err == nil {
		t.Error("expected transport error")
	}
	if got := httpmock.GetTotalCallCount(); got != 2 {
		t.Errorf("call count = %d, want 2", got)
	}
}
