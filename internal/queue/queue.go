package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/famboard/dispatch-engine/internal/domain"
)

// DeliveriesExchange is the fanout exchange terminal ledger updates are
// mirrored to for downstream consumers (audit trails, progress streams).
const DeliveriesExchange = "dispatch.deliveries"

// DeliveryEvent is the broker payload emitted once a delivery attempt
// reaches a terminal state.
type DeliveryEvent struct {
	AttemptID  string               `json:"attemptId"`
	ItemType   domain.ItemType      `json:"itemType"`
	ItemID     string               `json:"itemId"`
	UserID     string               `json:"userId"`
	Channel    domain.Channel       `json:"channel"`
	Status     domain.AttemptStatus `json:"status"`
	Error      string               `json:"error,omitempty"`
	OccurredAt time.Time            `json:"occurredAt"`
}

func (e DeliveryEvent) Validate() error {
	if strings.TrimSpace(e.AttemptID) == "" {
		return fmt.Errorf("attemptId is required")
	}
	if !e.ItemType.IsValid() {
		return fmt.Errorf("invalid item type %q", e.ItemType)
	}
	if !e.Channel.IsValid() {
		return fmt.Errorf("invalid channel %q", e.Channel)
	}
	if !e.Status.IsTerminal() {
		return fmt.Errorf("delivery events carry terminal statuses only, got %q", e.Status)
	}
	return nil
}

// Publisher publishes delivery events for downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event DeliveryEvent) error
	Close() error
}
