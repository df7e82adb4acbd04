package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	youtubeWatchURL       = "https://www.youtube.com/watch?v="
	defaultMaxResults     = 3
	defaultYouTubeTimeout = 5 * time.Second
)

// YouTubeFetcher searches videos through the YouTube Data API v3.
type YouTubeFetcher struct {
	svc        *youtube.Service
	timeout    time.Duration
	maxResults int64
}

// NewYouTubeFetcher creates a fetcher authenticated with apiKey. timeout
// bounds each lookup; zero selects a default. opts are passed to the API
// client, e.g. option.WithEndpoint in tests.
func NewYouTubeFetcher(ctx context.Context, apiKey string, timeout time.Duration, opts ...option.ClientOption) (*YouTubeFetcher, error) {
	if timeout <= 0 {
		timeout = defaultYouTubeTimeout
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube client: %w", err)
	}
	return &YouTubeFetcher{svc: svc, timeout: timeout, maxResults: defaultMaxResults}, nil
}

// FetchLinks returns up to three video links for the subject.
func (f *YouTubeFetcher) FetchLinks(ctx context.Context, subject, method string) ([]Link, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, ErrEmptySubject
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := f.svc.Search.List([]string{"snippet"}).
		Q(Query(subject, method)).
		Type("video").
		MaxResults(f.maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}

	links := make([]Link, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		label := "Watch video"
		if item.Snippet != nil && item.Snippet.Title != "" {
			label = item.Snippet.Title
		}
		links = append(links, Link{Label: label, URL: youtubeWatchURL + item.Id.VideoId})
		if int64(len(links)) == f.maxResults {
			break
		}
	}
	return links, nil
}
