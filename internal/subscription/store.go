package subscription

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when no subscription exists for a purchase.
var ErrNotFound = errors.New("subscription not found")

// Store persists subscriptions keyed by purchase id.
type Store interface {
	Upsert(ctx context.Context, sub Subscription) error
	UpdateStatus(ctx context.Context, purchaseID string, status Status, at time.Time) error
	Get(ctx context.Context, purchaseID string) (Subscription, error)
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[string]Subscription
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[string]Subscription)}
}

func (s *MemoryStore) Upsert(_ context.Context, sub Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.PurchaseID] = sub
	return nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, purchaseID string, status Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[purchaseID]
	if !ok {
		return ErrNotFound
	}
	sub.Status = status
	sub.UpdatedAt = at
	s.subs[purchaseID] = sub
	return nil
}

func (s *MemoryStore) Get(_ context.Context, purchaseID string) (Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[purchaseID]
	if !ok {
		return Subscription{}, ErrNotFound
	}
	return sub, nil
}
