package subscription

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the access state of a subscription.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

// Webhook actions handled by Service.
const (
	ActionPurchaseCreated     = "purchase.created"
	ActionPurchaseUpdated     = "purchase.updated"
	ActionPurchaseCancelled   = "purchase.cancelled"
	ActionMembershipActive    = "membership.went_active"
	ActionMembershipCancelled = "membership.went_cancelled"
	ActionMembershipExpired   = "membership.went_expired"
)

// Event is a webhook delivery.
type Event struct {
	Action string    `json:"action"`
	Data   EventData `json:"data"`
}

// EventData is the purchase referenced by an event.
type EventData struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	UserID string `json:"user_id"`
}

// ParseEvent decodes a webhook body.
func ParseEvent(body []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return Event{}, fmt.Errorf("decode webhook event: %w", err)
	}
	return event, nil
}

// Subscription is one purchase and its current access state.
type Subscription struct {
	PurchaseID string    `json:"purchaseId"`
	UserID     string    `json:"userId"`
	Email      string    `json:"email"`
	Status     Status    `json:"status"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ActionOther is the metric label recorded for actions that are not handled.
const ActionOther = "other"

// actionLabel bounds the action metric label to the handled actions.
func actionLabel(action string) string {
	if _, ok := statusFor(action); ok {
		return action
	}
	return ActionOther
}

// statusFor maps an action onto the status it sets. ok is false for actions
// that are not handled.
func statusFor(action string) (status Status, ok bool) {
	switch action {
	case ActionPurchaseCreated, ActionPurchaseUpdated, ActionMembershipActive:
		return StatusActive, true
	case ActionPurchaseCancelled, ActionMembershipCancelled, ActionMembershipExpired:
		return StatusCancelled, true
	}
	return "", false
}
