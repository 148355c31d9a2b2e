package service

import (
	"context"
	"fmt"
	"time"

	"github.com/famboard/dispatch-engine/internal/observability"
	"github.com/famboard/dispatch-engine/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultSweepInterval = time.Minute
	defaultSweepLimit    = 100
)

// SweepService finds due scheduled items, claims each with a conditional
// update, and dispatches the ones it wins. Safe to run concurrently across
// instances: losing a claim is a silent skip, so each due item is dispatched
// exactly once.
type SweepService struct {
	announcements repository.AnnouncementRepository
	reminders     repository.EventReminderRepository
	dispatcher    Dispatcher
	logger        *zap.Logger
	metrics       *observability.Metrics
	interval      time.Duration
	limit         int
	now           func() time.Time
}

func NewSweepService(
	announcements repository.AnnouncementRepository,
	reminders repository.EventReminderRepository,
	dispatcher Dispatcher,
	interval time.Duration,
	limit int,
	logger *zap.Logger,
) (*SweepService, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if limit <= 0 {
		limit = defaultSweepLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SweepService{
		announcements: announcements,
		reminders:     reminders,
		dispatcher:    dispatcher,
		logger:        logger,
		interval:      interval,
		limit:         limit,
		now:           time.Now,
	}, nil
}

func (s *SweepService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// Start runs an initial sweep, then sweeps on a fixed interval until the
// context is canceled.
func (s *SweepService) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("initial sweep failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("sweep failed", zap.Error(err))
			}
		}
	}
}

// RunOnce sweeps all four due categories and returns the number of items it
// claimed and dispatched. Lost claims do not count; neither do items whose
// dispatch errored after a won claim.
func (s *SweepService) RunOnce(ctx context.Context) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	now := s.now().UTC()
	processed := 0

	n, err := s.sweepAnnouncementPublishes(ctx, now)
	processed += n
	if err != nil {
		return processed, err
	}

	n, err = s.sweepAnnouncementResends(ctx, now)
	processed += n
	if err != nil {
		return processed, err
	}

	n, err = s.sweepReminderPublishes(ctx, now)
	processed += n
	if err != nil {
		return processed, err
	}

	n, err = s.sweepReminderResends(ctx, now)
	processed += n
	if err != nil {
		return processed, err
	}

	if processed > 0 {
		s.logger.Info("sweep completed", zap.Int("processed", processed))
	}

	return processed, nil
}

func (s *SweepService) sweepAnnouncementPublishes(ctx context.Context, now time.Time) (int, error) {
	due, err := s.announcements.ListDuePublish(ctx, now, s.limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list due announcements: %w", err)
	}

	processed := 0
	for i := range due {
		won, err := s.announcements.ClaimPublish(ctx, due[i].ID, now)
		if err != nil {
			s.logger.Error("announcement publish claim failed",
				zap.String("announcementId", due[i].ID),
				zap.Error(err),
			)
			continue
		}
		if !won {
			continue
		}

		s.metrics.IncSweepClaim("announcement_publish")
		if s.dispatchClaimed(ctx, "announcement", due[i].ID, s.dispatcher.DispatchAnnouncement) {
			processed++
		}
	}

	return processed, nil
}

func (s *SweepService) sweepAnnouncementResends(ctx context.Context, now time.Time) (int, error) {
	due, err := s.announcements.ListDueResend(ctx, now, s.limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list due announcement resends: %w", err)
	}

	processed := 0
	for i := range due {
		won, err := s.announcements.ClaimResend(ctx, due[i].ID)
		if err != nil {
			s.logger.Error("announcement resend claim failed",
				zap.String("announcementId", due[i].ID),
				zap.Error(err),
			)
			continue
		}
		if !won {
			continue
		}

		s.metrics.IncSweepClaim("announcement_resend")
		if s.dispatchClaimed(ctx, "announcement", due[i].ID, s.dispatcher.DispatchAnnouncement) {
			processed++
		}
	}

	return processed, nil
}

func (s *SweepService) sweepReminderPublishes(ctx context.Context, now time.Time) (int, error) {
	due, err := s.reminders.ListDuePublish(ctx, now, s.limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list due event reminders: %w", err)
	}

	processed := 0
	for i := range due {
		won, err := s.reminders.ClaimPublish(ctx, due[i].ID, now)
		if err != nil {
			s.logger.Error("reminder publish claim failed",
				zap.String("reminderId", due[i].ID),
				zap.Error(err),
			)
			continue
		}
		if !won {
			continue
		}

		s.metrics.IncSweepClaim("reminder_publish")
		if s.dispatchClaimed(ctx, "eventReminder", due[i].ID, s.dispatcher.DispatchEventReminder) {
			processed++
		}
	}

	return processed, nil
}

func (s *SweepService) sweepReminderResends(ctx context.Context, now time.Time) (int, error) {
	due, err := s.reminders.ListDueResend(ctx, now, s.limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list due reminder resends: %w", err)
	}

	processed := 0
	for i := range due {
		won, err := s.reminders.ClaimResend(ctx, due[i].ID)
		if err != nil {
			s.logger.Error("reminder resend claim failed",
				zap.String("reminderId", due[i].ID),
				zap.Error(err),
			)
			continue
		}
		if !won {
			continue
		}

		s.metrics.IncSweepClaim("reminder_resend")
		if s.dispatchClaimed(ctx, "eventReminder", due[i].ID, s.dispatcher.DispatchEventReminder) {
			processed++
		}
	}

	return processed, nil
}

// dispatchClaimed fans out an item this sweep just won. The claim is already
// consumed, so a dispatch error is logged rather than retried; the ledger
// records whatever attempts did get made.
func (s *SweepService) dispatchClaimed(
	ctx context.Context,
	kind string,
	id string,
	dispatchFn func(ctx context.Context, id string) error,
) bool {
	if err := dispatchFn(ctx, id); err != nil {
		s.logger.Error("dispatch of claimed item failed",
			zap.String("kind", kind),
			zap.String("id", id),
			zap.Error(err),
		)
		return false
	}
	return true
}
