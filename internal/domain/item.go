package domain

import (
	"fmt"
	"strings"
	"time"
)

// Announcement is a dispatchable item published to a family group.
//
// ScheduledAt triggers the first send, ScheduledResendAt an optional second
// send. PublishedAt is set exactly once, by whichever invocation wins the
// publish claim.
type Announcement struct {
	ID                string
	GroupID           string
	Title             string
	Body              string
	ScheduledAt       *time.Time
	ScheduledResendAt *time.Time
	PublishedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (a *Announcement) Validate() error {
	if strings.TrimSpace(a.GroupID) == "" {
		return fmt.Errorf("%w: group id is required", ErrValidation)
	}
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(a.Body) == "" {
		return fmt.Errorf("%w: body is required", ErrValidation)
	}
	return nil
}

// Event is a calendar entry announcements and reminders hang off of. Events
// themselves are not scheduled for dispatch; their initial send happens at
// creation and later sends go through EventReminder records.
type Event struct {
	ID          string
	GroupID     string
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (e *Event) Validate() error {
	if strings.TrimSpace(e.GroupID) == "" {
		return fmt.Errorf("%w: group id is required", ErrValidation)
	}
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if e.StartsAt.IsZero() {
		return fmt.Errorf("%w: event start time is required", ErrValidation)
	}
	return nil
}

// EventReminder is a dispatchable item tied to an event. Initial marks the
// first notification about the event as opposed to a follow-up reminder;
// it changes the rendered subject and body, not the fan-out.
type EventReminder struct {
	ID                string
	EventID           string
	GroupID           string
	CustomMessage     *string
	Initial           bool
	ScheduledAt       *time.Time
	ScheduledResendAt *time.Time
	PublishedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (r *EventReminder) Validate() error {
	if strings.TrimSpace(r.EventID) == "" {
		return fmt.Errorf("%w: event id is required", ErrValidation)
	}
	if strings.TrimSpace(r.GroupID) == "" {
		return fmt.Errorf("%w: group id is required", ErrValidation)
	}
	return nil
}
