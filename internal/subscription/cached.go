package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CacheTTL bounds how long a cached subscription is served.
const CacheTTL = 5 * time.Minute

const cacheKeyPrefix = "offer-oven:subscription:"

// CachedStore reads subscriptions through a Redis cache. Writes go to the
// backing store and evict the cached record. Cache failures fall back to the
// backing store.
type CachedStore struct {
	next   Store
	client *redis.Client
	logger *zap.Logger
}

// NewCachedStore caches next in client.
func NewCachedStore(next Store, client *redis.Client, logger *zap.Logger) *CachedStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedStore{next: next, client: client, logger: logger}
}

func (s *CachedStore) Upsert(ctx context.Context, sub Subscription) error {
	if err := s.next.Upsert(ctx, sub); err != nil {
		return err
	}
	s.evict(ctx, sub.PurchaseID)
	return nil
}

func (s *CachedStore) UpdateStatus(ctx context.Context, purchaseID string, status Status, at time.Time) error {
	if err := s.next.UpdateStatus(ctx, purchaseID, status, at); err != nil {
		return err
	}
	s.evict(ctx, purchaseID)
	return nil
}

func (s *CachedStore) Get(ctx context.Context, purchaseID string) (Subscription, error) {
	key := cacheKeyPrefix + purchaseID

	raw, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var sub Subscription
		if jsonErr := json.Unmarshal(raw, &sub); jsonErr == nil {
			return sub, nil
		}
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("subscription cache read failed",
			zap.String("op", "subscription.CachedStore.Get"),
			zap.String("purchase", purchaseID),
			zap.Error(err),
		)
	}

	sub, err := s.next.Get(ctx, purchaseID)
	if err != nil {
		return Subscription{}, err
	}

	payload, err := json.Marshal(sub)
	if err == nil {
		err = s.client.Set(ctx, key, payload, CacheTTL).Err()
	}
	if err != nil {
		s.logger.Warn("subscription cache write failed",
			zap.String("op", "subscription.CachedStore.Get"),
			zap.String("purchase", purchaseID),
			zap.Error(err),
		)
	}
	return sub, nil
}

func (s *CachedStore) evict(ctx context.Context, purchaseID string) {
	if err := s.client.Del(ctx, cacheKeyPrefix+purchaseID).Err(); err != nil {
		s.logger.Warn("subscription cache eviction failed",
			zap.String("op", "subscription.CachedStore.evict"),
			zap.String("purchase", purchaseID),
			zap.Error(err),
		)
	}
}
