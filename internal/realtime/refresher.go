package realtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/chauffer-be/internal/cache"
	"github.com/cuongbtq/chauffer-be/internal/changefeed"
)

// RefresherSubscription is the name of the service-wide cache subscription
const RefresherSubscription = "realtime:public:jobs:cache"

// Refresher drops cached job views whenever a change event touches them
type Refresher struct {
	feed   changefeed.Feed
	cache  cache.Invalidator
	logger *slog.Logger
}

func NewRefresher(feed changefeed.Feed, invalidator cache.Invalidator, logger *slog.Logger) *Refresher {
	return &Refresher{
		feed:   feed,
		cache:  invalidator,
		logger: logger.With(slog.String("component", "cache_refresher")),
	}
}

// Run invalidates until ctx is done or the subscription ends
func (r *Refresher) Run(ctx context.Context) error {
	sub, err := r.feed.Subscribe(ctx, RefresherSubscription)
	if err != nil {
		return fmt.Errorf("cache refresher subscribe: %w", err)
	}
	defer sub.Close()

	r.logger.Info("Cache refresher started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-sub.Events():
			if !ok {
				r.logger.Warn("Cache refresher subscription ended")
				return nil
			}
			r.cache.InvalidateJob(ctx, ev.New, ev.Old)
		}
	}
}
