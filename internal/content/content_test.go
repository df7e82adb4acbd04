package content

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

func newTestYouTube(t *testing.T, key string, timeout time.Duration, endpoint string) *YouTubeFetcher {
	t.Helper()
	f, err := NewYouTubeFetcher(context.Background(), key, timeout, option.WithEndpoint(endpoint+"/"))
	if err != nil {
		t.Fatalf("NewYouTubeFetcher() error = %v", err)
	}
	return f
}

func TestYouTubeFetcher(t *testing.T) {
	t.Parallel()

	queries := make(chan url.Values, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": [
			{"id": {"kind": "youtube#video", "videoId": "abc"}, "snippet": {"title": "Physics 101"}},
			{"id": {"kind": "youtube#channel", "channelId": "xyz"}, "snippet": {"title": "A channel"}},
			{"id": {"kind": "youtube#video", "videoId": "def"}, "snippet": {"title": ""}}
		]}`))
	}))
	defer srv.Close()

	f := newTestYouTube(t, "secret", time.Second, srv.URL)
	links, err := f.FetchLinks(context.Background(), "Physics", MethodVideo)
	if err != nil {
		t.Fatalf("FetchLinks() error = %v", err)
	}
	q := <-queries
	if got := q.Get("q"); got != "Physics tutorial" {
		t.Errorf("query = %q, want %q", got, "Physics tutorial")
	}
	if got := q.Get("key"); got != "secret" {
		t.Errorf("key = %q, want secret", got)
	}
	if q.Get("type") != "video" || q.Get("maxResults") != "3" || q.Get("part") != "snippet" {
		t.Errorf("unexpected search parameters %v", q)
	}

	want := []Link{
		{Label: "Physics 101", URL: "https://www.youtube.com/watch?v=abc"},
		{Label: "Watch video", URL: "https://www.youtube.com/watch?v=def"},
	}
	if len(links) != len(want) {
		t.Fatalf("links = %+v, want %+v", links, want)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("links[%d] = %+v, want %+v", i, links[i], want[i])
		}
	}
}

func TestYouTubeFetcherErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	f := newTestYouTube(t, "k", time.Second, srv.URL)
	_, err := f.FetchLinks(context.Background(), "math", "")
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusForbidden {
		t.Fatalf("FetchLinks() error = %v, want API status 403", err)
	}
	if _, err := f.FetchLinks(context.Background(), "  ", ""); !errors.Is(err, ErrEmptySubject) {
		t.Fatalf("FetchLinks(empty) error = %v, want ErrEmptySubject", err)
	}
}

func TestYouTubeFetcherHonorsContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	f := newTestYouTube(t, "k", 10*time.Second, srv.URL)
	if _, err := f.FetchLinks(ctx, "math", ""); err == nil {
		t.Fatal("expected timeout error")
	}
}

type countingFetcher struct {
	calls atomic.Int32
	err   error
}

func (c *countingFetcher) FetchLinks(_ context.Context, subject, _ string) ([]Link, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return []Link{{Label: subject, URL: "https://example.com/" + subject}}, nil
}

func TestCachedFetcher(t *testing.T) {
	t.Parallel()

	next := &countingFetcher{}
	c := NewCachedFetcher(next, 8, time.Minute)

	for i := 0; i < 3; i++ {
		links, err := c.FetchLinks(context.Background(), "Math", "video")
		if err != nil || len(links) != 1 {
			t.Fatalf("FetchLinks() = %v, %v", links, err)
		}
	}
	if _, err := c.FetchLinks(context.Background(), " math ", "VIDEO"); err != nil {
		t.Fatalf("FetchLinks() error = %v", err)
	}
	if got := next.calls.Load(); got != 1 {
		t.Fatalf("underlying calls = %d, want 1", got)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
}

func TestCachedFetcherDoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	next := &countingFetcher{err: errors.New("boom")}
	c := NewCachedFetcher(next, 8, time.Minute)
	for i := 0; i < 2; i++ {
		if _, err := c.FetchLinks(context.Background(), "math", ""); err == nil {
			t.Fatal("expected error")
		}
	}
	if got := next.calls.Load(); got != 2 {
		t.Fatalf("underlying calls = %d, want 2", got)
	}
}

func TestStaticFetcher(t *testing.T) {
	t.Parallel()

	links, err := StaticFetcher{}.FetchLinks(context.Background(), "linear algebra", MethodReading)
	if err != nil {
		t.Fatalf("FetchLinks() error = %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("links = %+v, want 2", links)
	}
	if !strings.Contains(links[0].URL, "linear+algebra+lecture+notes") {
		t.Errorf("unexpected URL %q", links[0].URL)
	}
}

func TestQuery(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":         "chemistry tutorial",
		"video":    "chemistry tutorial",
		"reading":  "chemistry lecture notes",
		"visual":   "chemistry explained animation",
		"Auditory": "chemistry podcast",
	}
	for method, want := range tests {
		if got := Query(" chemistry ", method); got != want {
			t.Errorf("Query(%q) = %q, want %q", method, got, want)
		}
	}
}

func TestYouTubeFetcherAppliesOwnTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := newTestYouTube(t, "k", 50*time.Millisecond, srv.URL)
	start := time.Now()
	if _, err := f.FetchLinks(context.Background(), "math", ""); err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("lookup took %v, want it bounded by the fetcher timeout", elapsed)
	}
}
