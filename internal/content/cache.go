package content

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedFetcher memoizes successful lookups of another Fetcher.
type CachedFetcher struct {
	next  Fetcher
	cache *expirable.LRU[string, []Link]
}

// NewCachedFetcher wraps next with an LRU of the given size whose entries
// expire after ttl.
func NewCachedFetcher(next Fetcher, size int, ttl time.Duration) *CachedFetcher {
	if size <= 0 {
		size = 256
	}
	return &CachedFetcher{
		next:  next,
		cache: expirable.NewLRU[string, []Link](size, nil, ttl),
	}
}

// FetchLinks serves from cache or delegates. Errors are not cached.
func (c *CachedFetcher) FetchLinks(ctx context.Context, subject, method string) ([]Link, error) {
	key := strings.ToLower(strings.TrimSpace(subject)) + "\x00" + strings.ToLower(strings.TrimSpace(method))
	if links, ok := c.cache.Get(key); ok {
		return append([]Link(nil), links...), nil
	}

	links, err := c.next.FetchLinks(ctx, subject, method)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, append([]Link(nil), links...))
	return links, nil
}

// Len returns the number of cached lookups.
func (c *CachedFetcher) Len() int {
	return c.cache.Len()
}
