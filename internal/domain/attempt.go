package domain

import "time"

// DeliveryAttempt records one delivery to one member over one channel.
// Exactly one attempt exists per eligible (member, channel) pair per
// dispatch; attempts are never reused across dispatch runs.
type DeliveryAttempt struct {
	ID                string
	ItemType          ItemType
	ItemID            string
	UserID            string
	Channel           Channel
	Status            AttemptStatus
	ProviderMessageID *string
	Error             *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// StatusCount is a ledger aggregate used for delivery-progress reporting.
type StatusCount struct {
	Status AttemptStatus
	Count  int
}
