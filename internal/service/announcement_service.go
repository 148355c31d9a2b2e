package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/famboard/dispatch-engine/internal/domain"
	"github.com/famboard/dispatch-engine/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AnnouncementService creates dispatchable items and triggers their
// immediate fan-out. Creation outcome and delivery outcome are decoupled:
// once the item is persisted, dispatch errors are logged, never returned.
type AnnouncementService struct {
	announcements repository.AnnouncementRepository
	events        repository.EventRepository
	reminders     repository.EventReminderRepository
	dispatcher    Dispatcher
	logger        *zap.Logger
	now           func() time.Time
	newID         func() string
}

func NewAnnouncementService(
	announcements repository.AnnouncementRepository,
	events repository.EventRepository,
	reminders repository.EventReminderRepository,
	dispatcher Dispatcher,
	logger *zap.Logger,
) (*AnnouncementService, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AnnouncementService{
		announcements: announcements,
		events:        events,
		reminders:     reminders,
		dispatcher:    dispatcher,
		logger:        logger,
		now:           time.Now,
		newID:         uuid.NewString,
	}, nil
}

// schedulePlan is the resolved creation policy for one item. scheduledAt on
// the input is a trigger time, not a stored field: with sendNow it becomes a
// resend trigger, without sendNow it becomes the first-publish trigger.
type schedulePlan struct {
	publishedAt       *time.Time
	scheduledAt       *time.Time
	scheduledResendAt *time.Time
	dispatchNow       bool
}

func resolveSchedulePlan(sendNow bool, scheduledAt *time.Time, now time.Time) (schedulePlan, error) {
	switch {
	case sendNow && scheduledAt == nil:
		publishedAt := now.UTC()
		return schedulePlan{publishedAt: &publishedAt, dispatchNow: true}, nil
	case !sendNow && scheduledAt != nil:
		at := scheduledAt.UTC()
		return schedulePlan{scheduledAt: &at}, nil
	case sendNow && scheduledAt != nil:
		publishedAt := now.UTC()
		resendAt := scheduledAt.UTC()
		return schedulePlan{publishedAt: &publishedAt, scheduledResendAt: &resendAt, dispatchNow: true}, nil
	default:
		return schedulePlan{}, fmt.Errorf("%w: scheduledAt is required when sendNow is false", domain.ErrValidation)
	}
}

func (s *AnnouncementService) CreateAnnouncement(
	ctx context.Context,
	announcement *domain.Announcement,
	sendNow bool,
) (*domain.Announcement, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if announcement == nil {
		return nil, fmt.Errorf("%w: announcement is required", domain.ErrValidation)
	}

	announcement.Title = strings.TrimSpace(announcement.Title)
	announcement.Body = strings.TrimSpace(announcement.Body)
	if err := announcement.Validate(); err != nil {
		return nil, err
	}

	plan, err := resolveSchedulePlan(sendNow, announcement.ScheduledAt, s.now())
	if err != nil {
		return nil, err
	}

	announcement.ID = s.newID()
	announcement.PublishedAt = plan.publishedAt
	announcement.ScheduledAt = plan.scheduledAt
	announcement.ScheduledResendAt = plan.scheduledResendAt

	if err := s.announcements.Create(ctx, announcement); err != nil {
		return nil, fmt.Errorf("failed to create announcement: %w", err)
	}

	if plan.dispatchNow {
		s.dispatch(ctx, "announcement", announcement.ID, s.dispatcher.DispatchAnnouncement)
	}

	return announcement, nil
}

// CreateEvent persists a calendar event and sends its initial notification.
// Events have no schedule policy; follow-ups go through reminders.
func (s *AnnouncementService) CreateEvent(ctx context.Context, event *domain.Event) (*domain.Event, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if event == nil {
		return nil, fmt.Errorf("%w: event is required", domain.ErrValidation)
	}

	event.Title = strings.TrimSpace(event.Title)
	if err := event.Validate(); err != nil {
		return nil, err
	}

	event.ID = s.newID()
	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.dispatch(ctx, "event", event.ID, s.dispatcher.DispatchEvent)

	return event, nil
}

func (s *AnnouncementService) CreateEventReminder(
	ctx context.Context,
	reminder *domain.EventReminder,
	sendNow bool,
) (*domain.EventReminder, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if reminder == nil {
		return nil, fmt.Errorf("%w: reminder is required", domain.ErrValidation)
	}
	if strings.TrimSpace(reminder.EventID) == "" {
		return nil, fmt.Errorf("%w: event id is required", domain.ErrValidation)
	}

	event, err := s.events.GetByID(ctx, reminder.EventID)
	if err != nil {
		return nil, err
	}
	reminder.GroupID = event.GroupID

	if err := reminder.Validate(); err != nil {
		return nil, err
	}

	plan, err := resolveSchedulePlan(sendNow, reminder.ScheduledAt, s.now())
	if err != nil {
		return nil, err
	}

	reminder.ID = s.newID()
	reminder.PublishedAt = plan.publishedAt
	reminder.ScheduledAt = plan.scheduledAt
	reminder.ScheduledResendAt = plan.scheduledResendAt

	if err := s.reminders.Create(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to create event reminder: %w", err)
	}

	if plan.dispatchNow {
		s.dispatch(ctx, "eventReminder", reminder.ID, s.dispatcher.DispatchEventReminder)
	}

	return reminder, nil
}

func (s *AnnouncementService) GetAnnouncement(ctx context.Context, id string) (*domain.Announcement, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: announcement id is required", domain.ErrValidation)
	}
	return s.announcements.GetByID(ctx, strings.TrimSpace(id))
}

// dispatch runs an immediate fan-out for a freshly created item. The item is
// already durable; delivery trouble must not turn a successful create into
// an API error.
func (s *AnnouncementService) dispatch(
	ctx context.Context,
	kind string,
	id string,
	dispatchFn func(ctx context.Context, id string) error,
) {
	if err := dispatchFn(ctx, id); err != nil {
		s.logger.Error("immediate dispatch failed after create",
			zap.String("kind", kind),
			zap.String("id", id),
			zap.Error(err),
		)
	}
}
