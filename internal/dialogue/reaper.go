package dialogue

import (
	"context"
	"log/slog"
	"time"
)

// DefaultReaperInterval is how often idle contexts are swept.
const DefaultReaperInterval = time.Minute

// StartReaper clears contexts that have been idle longer than idleTTL until
// ctx is cancelled. Users stay known to Store.Seen. The returned channel is
// closed once the goroutine has exited.
func StartReaper(ctx context.Context, store *Store, idleTTL, interval time.Duration) <-chan struct{} {
	if interval <= 0 {
		interval = DefaultReaperInterval
	}
	done := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		slog.Info("Context reaper started", "interval", interval, "idle_ttl", idleTTL)

		for {
			select {
			case <-ticker.C:
				cleared := store.ClearIdle(store.now().Add(-idleTTL))
				if len(cleared) > 0 {
					slog.Info("Context reaper cleared idle conversations", "count", len(cleared))
				}
			case <-ctx.Done():
				slog.Info("Context reaper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
	return done
}
