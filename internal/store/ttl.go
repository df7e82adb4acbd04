package store

import (
	"context"
	"log/slog"
	"time"
)

// DefaultTTLWorkerInterval is how often inactive users are swept.
const DefaultTTLWorkerInterval = 5 * time.Minute

// StartTTLWorker runs a background goroutine that periodically deletes users
// idle longer than ttl, with their reminders and plans. The returned channel
// is closed once the goroutine has exited.
func StartTTLWorker(ctx context.Context, repo Repository, ttl, interval time.Duration) <-chan struct{} {
	if interval <= 0 {
		interval = DefaultTTLWorkerInterval
	}
	done := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		slog.Info("TTL worker started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				deleted, err := repo.DeleteInactiveUsers(ctx, ttl)
				if err != nil {
					if ctx.Err() == nil {
						slog.Error("TTL worker failed to delete inactive users", "error", err)
					}
					continue
				}
				if deleted > 0 {
					slog.Info("TTL worker removed inactive users", "count", deleted)
				}
			case <-ctx.Done():
				slog.Info("TTL worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
	return done
}
