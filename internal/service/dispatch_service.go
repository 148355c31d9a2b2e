package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/famboard/dispatch-engine/internal/content"
	"github.com/famboard/dispatch-engine/internal/domain"
	"github.com/famboard/dispatch-engine/internal/observability"
	"github.com/famboard/dispatch-engine/internal/provider"
	"github.com/famboard/dispatch-engine/internal/queue"
	"github.com/famboard/dispatch-engine/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	minFanOutConcurrency = 1

	// Fixed ledger reason for PUSH destinations that fail to parse. The
	// provider is never invoked for these.
	pushSubscriptionFailReason = "invalid push subscription"
)

// Dispatcher triggers a fan-out for an already-persisted item.
type Dispatcher interface {
	DispatchAnnouncement(ctx context.Context, id string) error
	DispatchEvent(ctx context.Context, id string) error
	DispatchEventReminder(ctx context.Context, id string) error
}

// DeliveryProgress aggregates the ledger for one item.
type DeliveryProgress struct {
	ItemType domain.ItemType
	ItemID   string
	Total    int
	Counts   []domain.StatusCount
}

// DispatchService fans a dispatchable item out to every eligible
// (member, channel) pair and is the sole writer of the delivery ledger.
type DispatchService struct {
	announcements repository.AnnouncementRepository
	events        repository.EventRepository
	reminders     repository.EventReminderRepository
	memberships   repository.MembershipRepository
	attempts      repository.AttemptRepository
	providers     *provider.Registry
	builder       content.Builder
	publisher     queue.Publisher
	logger        *zap.Logger
	metrics       *observability.Metrics
	concurrency   int
	now           func() time.Time
	newID         func() string
}

func NewDispatchService(
	announcements repository.AnnouncementRepository,
	events repository.EventRepository,
	reminders repository.EventReminderRepository,
	memberships repository.MembershipRepository,
	attempts repository.AttemptRepository,
	providers *provider.Registry,
	builder content.Builder,
	publisher queue.Publisher,
	concurrency int,
	logger *zap.Logger,
) (*DispatchService, error) {
	if providers == nil {
		return nil, fmt.Errorf("provider registry is required")
	}
	if builder == nil {
		return nil, fmt.Errorf("content builder is required")
	}
	if concurrency < minFanOutConcurrency {
		concurrency = minFanOutConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DispatchService{
		announcements: announcements,
		events:        events,
		reminders:     reminders,
		memberships:   memberships,
		attempts:      attempts,
		providers:     providers,
		builder:       builder,
		publisher:     publisher,
		logger:        logger,
		concurrency:   concurrency,
		now:           time.Now,
		newID:         uuid.NewString,
	}, nil
}

func (s *DispatchService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

func (s *DispatchService) DispatchAnnouncement(ctx context.Context, id string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	announcement, err := s.announcements.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load announcement: %w", err)
	}

	return s.fanOut(ctx, domain.ItemTypeAnnouncement, announcement.ID, announcement.GroupID, func() (content.Content, error) {
		return s.builder.Announcement(announcement)
	})
}

func (s *DispatchService) DispatchEvent(ctx context.Context, id string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load event: %w", err)
	}

	return s.fanOut(ctx, domain.ItemTypeEvent, event.ID, event.GroupID, func() (content.Content, error) {
		return s.builder.Event(event)
	})
}

func (s *DispatchService) DispatchEventReminder(ctx context.Context, id string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	reminder, err := s.reminders.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load event reminder: %w", err)
	}
	event, err := s.events.GetByID(ctx, reminder.EventID)
	if err != nil {
		return fmt.Errorf("failed to load event for reminder: %w", err)
	}

	return s.fanOut(ctx, domain.ItemTypeEventReminder, reminder.ID, reminder.GroupID, func() (content.Content, error) {
		return s.builder.EventReminder(event, reminder)
	})
}

// Progress reports ledger counts for one item. The item is loaded first so a
// bogus id surfaces as ErrNotFound instead of an empty ledger.
func (s *DispatchService) Progress(ctx context.Context, itemType domain.ItemType, itemID string) (*DeliveryProgress, error) {
	if err := s.ensureItemExists(ctx, itemType, itemID); err != nil {
		return nil, err
	}

	counts, err := s.attempts.CountByStatus(ctx, itemType, itemID)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, c := range counts {
		total += c.Count
	}

	return &DeliveryProgress{
		ItemType: itemType,
		ItemID:   itemID,
		Total:    total,
		Counts:   counts,
	}, nil
}

// AttemptFilter narrows a ledger listing. Nil fields match everything.
type AttemptFilter struct {
	Channel *domain.Channel
	Status  *domain.AttemptStatus
}

// Attempts lists the ledger rows for one item, newest ordering left to the
// repository. Filtering happens here so the repository query stays one shape.
func (s *DispatchService) Attempts(ctx context.Context, itemType domain.ItemType, itemID string, filter AttemptFilter) ([]domain.DeliveryAttempt, error) {
	if err := s.ensureItemExists(ctx, itemType, itemID); err != nil {
		return nil, err
	}

	attempts, err := s.attempts.ListByItem(ctx, itemType, itemID)
	if err != nil {
		return nil, err
	}

	if filter.Channel == nil && filter.Status == nil {
		return attempts, nil
	}

	filtered := make([]domain.DeliveryAttempt, 0, len(attempts))
	for _, attempt := range attempts {
		if filter.Channel != nil && attempt.Channel != *filter.Channel {
			continue
		}
		if filter.Status != nil && attempt.Status != *filter.Status {
			continue
		}
		filtered = append(filtered, attempt)
	}
	return filtered, nil
}

func (s *DispatchService) ensureItemExists(ctx context.Context, itemType domain.ItemType, itemID string) error {
	if strings.TrimSpace(itemID) == "" {
		return fmt.Errorf("%w: item id is required", domain.ErrValidation)
	}

	switch itemType {
	case domain.ItemTypeAnnouncement:
		_, err := s.announcements.GetByID(ctx, itemID)
		return err
	case domain.ItemTypeEvent:
		_, err := s.events.GetByID(ctx, itemID)
		return err
	case domain.ItemTypeEventReminder:
		_, err := s.reminders.GetByID(ctx, itemID)
		return err
	default:
		return fmt.Errorf("%w: invalid item type %q", domain.ErrValidation, itemType)
	}
}

type deliveryPair struct {
	user domain.User
	pref domain.Preference
}

// fanOut resolves the audience and processes every eligible pair. A missing
// group aborts before any ledger write; per-pair failures are absorbed so
// one member's outage never blocks another's delivery.
func (s *DispatchService) fanOut(
	ctx context.Context,
	itemType domain.ItemType,
	itemID string,
	groupID string,
	render func() (content.Content, error),
) error {
	exists, err := s.memberships.GroupExists(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to check group existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: group %s", domain.ErrNotFound, groupID)
	}

	recipients, err := s.memberships.ListRecipients(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipients: %w", err)
	}

	pairs := make([]deliveryPair, 0, len(recipients))
	for i := range recipients {
		for _, pref := range recipients[i].Preferences {
			if !pref.Eligible() {
				continue
			}
			pairs = append(pairs, deliveryPair{user: recipients[i].User, pref: pref})
		}
	}

	if len(pairs) == 0 {
		s.logger.Info("dispatch had no eligible recipients",
			zap.String("itemType", itemType.String()),
			zap.String("itemId", itemID),
			zap.String("groupId", groupID),
		)
		return nil
	}

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range pairs {
		pair := pairs[i]
		g.Go(func() error {
			s.processPair(groupCtx, itemType, itemID, pair, render)
			return nil
		})
	}

	// Pair goroutines never return errors; Wait only joins them.
	_ = g.Wait()

	return nil
}

// processPair runs the full lifecycle of one delivery attempt. It never
// returns; every failure mode ends on the ledger.
func (s *DispatchService) processPair(
	ctx context.Context,
	itemType domain.ItemType,
	itemID string,
	pair deliveryPair,
	render func() (content.Content, error),
) {
	var attempt *domain.DeliveryAttempt
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		s.logger.Error("panic during delivery attempt",
			zap.String("itemType", itemType.String()),
			zap.String("itemId", itemID),
			zap.String("userId", pair.user.ID),
			zap.String("channel", pair.pref.Channel.String()),
			zap.Any("panic", r),
		)
		// A recorded attempt must not stay QUEUED forever.
		if attempt != nil && attempt.Status == domain.AttemptQueued {
			s.failAttempt(ctx, attempt, fmt.Sprintf("panic: %v", r), "panic")
		}
	}()

	attempt = &domain.DeliveryAttempt{
		ID:       s.newID(),
		ItemType: itemType,
		ItemID:   itemID,
		UserID:   pair.user.ID,
		Channel:  pair.pref.Channel,
		Status:   domain.AttemptQueued,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		s.logger.Error("failed to record delivery attempt",
			zap.String("itemType", itemType.String()),
			zap.String("itemId", itemID),
			zap.String("userId", pair.user.ID),
			zap.String("channel", pair.pref.Channel.String()),
			zap.Error(err),
		)
		return
	}

	if pair.pref.Channel == domain.ChannelPush {
		if _, err := provider.ParsePushSubscription(pair.pref.Destination); err != nil {
			s.failAttempt(ctx, attempt, pushSubscriptionFailReason, "invalid_subscription")
			return
		}
	}

	rendered, err := render()
	if err != nil {
		s.failAttempt(ctx, attempt, fmt.Sprintf("content build failed: %v", err), "content_error")
		return
	}

	channelProvider, err := s.providers.For(pair.pref.Channel)
	if err != nil {
		s.failAttempt(ctx, attempt, err.Error(), "no_provider")
		return
	}

	sendStart := s.now()
	result, sendErr := channelProvider.Send(ctx, provider.Message{
		Channel:     pair.pref.Channel,
		Destination: pair.pref.Destination,
		Subject:     rendered.Subject,
		Body:        rendered.Body,
	})
	s.metrics.ObserveDeliverySendDuration(pair.pref.Channel.String(), s.now().Sub(sendStart))

	if sendErr != nil {
		metricReason := "provider_error"
		if provider.IsCanceled(sendErr) {
			metricReason = "canceled"
		}
		s.failAttempt(ctx, attempt, sendErr.Error(), metricReason)
		return
	}

	providerMessageID := ""
	if result != nil {
		providerMessageID = strings.TrimSpace(result.MessageID)
	}
	if err := s.attempts.MarkSent(ctx, attempt.ID, providerMessageID); err != nil {
		s.logAttemptUpdateError(attempt, err)
		return
	}

	attempt.Status = domain.AttemptSent
	if providerMessageID != "" {
		attempt.ProviderMessageID = &providerMessageID
	}
	s.metrics.IncDeliverySent(pair.pref.Channel.String())
	s.publishDeliveryEvent(ctx, attempt, "")
}

func (s *DispatchService) failAttempt(ctx context.Context, attempt *domain.DeliveryAttempt, reason string, metricReason string) {
	if err := s.attempts.MarkFailed(ctx, attempt.ID, reason); err != nil {
		s.logAttemptUpdateError(attempt, err)
		return
	}

	attempt.Status = domain.AttemptFailed
	attempt.Error = &reason
	s.metrics.IncDeliveryFailed(attempt.Channel.String(), metricReason)
	s.logger.Warn("delivery attempt failed",
		zap.String("attemptId", attempt.ID),
		zap.String("itemType", attempt.ItemType.String()),
		zap.String("itemId", attempt.ItemID),
		zap.String("userId", attempt.UserID),
		zap.String("channel", attempt.Channel.String()),
		zap.String("reason", reason),
	)
	s.publishDeliveryEvent(ctx, attempt, reason)
}

func (s *DispatchService) logAttemptUpdateError(attempt *domain.DeliveryAttempt, err error) {
	if errors.Is(err, domain.ErrConflict) {
		s.logger.Warn("delivery attempt already terminal, skipping update",
			zap.String("attemptId", attempt.ID),
		)
		return
	}
	s.logger.Error("failed to update delivery attempt",
		zap.String("attemptId", attempt.ID),
		zap.Error(err),
	)
}

// publishDeliveryEvent mirrors a terminal ledger update to the broker.
// Broker trouble never fails a dispatch.
func (s *DispatchService) publishDeliveryEvent(ctx context.Context, attempt *domain.DeliveryAttempt, reason string) {
	if s.publisher == nil {
		return
	}

	event := queue.DeliveryEvent{
		AttemptID:  attempt.ID,
		ItemType:   attempt.ItemType,
		ItemID:     attempt.ItemID,
		UserID:     attempt.UserID,
		Channel:    attempt.Channel,
		Status:     attempt.Status,
		Error:      reason,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish delivery event",
			zap.String("attemptId", attempt.ID),
			zap.Error(err),
		)
	}
}
