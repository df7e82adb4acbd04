package content

import (
	"context"
	"net/url"
	"strings"
)

// StaticFetcher builds search links without calling any API. It is used when
// no YouTube key is configured.
type StaticFetcher struct{}

// FetchLinks returns a YouTube search link and, for reading, a web search.
func (StaticFetcher) FetchLinks(_ context.Context, subject, method string) ([]Link, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, ErrEmptySubject
	}
	q := url.QueryEscape(Query(subject, method))
	links := []Link{
		{Label: "Search YouTube", URL: "https://www.youtube.com/results?search_query=" + q},
	}
	if strings.EqualFold(method, MethodReading) {
		links = append(links, Link{Label: "Search the web", URL: "https://duckduckgo.com/?q=" + q})
	}
	return links, nil
}
