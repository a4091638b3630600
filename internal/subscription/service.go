package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/offer-oven/internal/metrics"
	"go.uber.org/zap"
)

// Outcomes recorded for each handled event.
const (
	OutcomeUpserted = "upserted"
	OutcomeUpdated  = "updated"
	OutcomeSkipped  = "skipped"
	OutcomeNotFound = "not_found"
	OutcomeIgnored  = "ignored"
	OutcomeFailed   = "failed"
)

// Service applies webhook events to a Store.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a Service backed by store.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// Get returns the subscription for a purchase.
func (s *Service) Get(ctx context.Context, purchaseID string) (Subscription, error) {
	return s.store.Get(ctx, purchaseID)
}

// Handle applies event and returns its outcome. Only store failures are
// returned as errors; events that cannot be applied are logged and skipped.
func (s *Service) Handle(ctx context.Context, event Event) (string, error) {
	outcome, err := s.handle(ctx, event)
	metrics.ObserveWebhook(actionLabel(event.Action), outcome)
	return outcome, err
}

func (s *Service) handle(ctx context.Context, event Event) (string, error) {
	logger := s.logger.With(
		zap.String("op", "subscription.Handle"),
		zap.String("action", event.Action),
		zap.String("purchase", event.Data.ID),
	)

	status, ok := statusFor(event.Action)
	if !ok {
		logger.Info("unhandled webhook action")
		return OutcomeIgnored, nil
	}
	if event.Data.ID == "" {
		logger.Warn("webhook event has no purchase id")
		return OutcomeSkipped, nil
	}

	now := s.now().UTC()

	if event.Action == ActionPurchaseCreated {
		if event.Data.Email == "" {
			logger.Error("no email provided in purchase data")
			return OutcomeSkipped, nil
		}
		sub := Subscription{
			PurchaseID: event.Data.ID,
			UserID:     event.Data.UserID,
			Email:      event.Data.Email,
			Status:     status,
			UpdatedAt:  now,
		}
		if err := s.store.Upsert(ctx, sub); err != nil {
			logger.Error("failed to upsert subscription", zap.Error(err))
			return OutcomeFailed, fmt.Errorf("handle %s: %w", event.Action, err)
		}
		logger.Info("subscription activated", zap.String("email", sub.Email))
		return OutcomeUpserted, nil
	}

	err := s.store.UpdateStatus(ctx, event.Data.ID, status, now)
	if errors.Is(err, ErrNotFound) {
		logger.Warn("subscription not found during update")
		return OutcomeNotFound, nil
	}
	if err != nil {
		logger.Error("failed to update subscription", zap.Error(err))
		return OutcomeFailed, fmt.Errorf("handle %s: %w", event.Action, err)
	}
	logger.Info("subscription status updated", zap.String("status", string(status)))
	return OutcomeUpdated, nil
}
