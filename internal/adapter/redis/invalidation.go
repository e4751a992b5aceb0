package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// invalidationChannel carries dataset IDs whose cached views are stale, so
// that every replica drops them from its in-process layer.
const invalidationChannel = "aggregates:invalidate"

type InvalidationSubscriber struct {
	rdb   *goredis.Client
	cache *AggregateCache
}

func NewInvalidationSubscriber(rdb *goredis.Client, cache *AggregateCache) *InvalidationSubscriber {
	return &InvalidationSubscriber{rdb: rdb, cache: cache}
}

// Start blocks until ctx is cancelled or the subscription closes.
func (s *InvalidationSubscriber) Start(ctx context.Context) {
	pubsub := s.rdb.Subscribe(ctx, invalidationChannel)
	defer func() { _ = pubsub.Close() }()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok || msg == nil {
				return
			}
			s.handleInvalidation(msg.Payload)
		case <-ctx.Done():
			return
		}
	}
}

func (s *InvalidationSubscriber) handleInvalidation(datasetID string) {
	if datasetID == "" {
		slog.Warn("Empty aggregate invalidation message")
		return
	}

	s.cache.mem.invalidatePrefix(domain.AggregateKeyPrefix(datasetID))
	slog.Debug("Aggregate cache invalidated via pub/sub", "dataset_id", datasetID)
}

func publishInvalidation(ctx context.Context, rdb goredis.Cmdable, datasetID string) error {
	if err := rdb.Publish(ctx, invalidationChannel, datasetID).Err(); err != nil {
		return fmt.Errorf("failed to publish aggregate invalidation: %w", err)
	}
	return nil
}
