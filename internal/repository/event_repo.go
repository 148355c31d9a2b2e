package repository

import (
	"context"
	"errors"
	"time"

	"github.com/famboard/dispatch-engine/internal/domain"
	"gorm.io/gorm"
)

type EventRepository interface {
	Create(ctx context.Context, e *domain.Event) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
}

type EventReminderRepository interface {
	Create(ctx context.Context, r *domain.EventReminder) error
	GetByID(ctx context.Context, id string) (*domain.EventReminder, error)
	ListDuePublish(ctx context.Context, now time.Time, limit int) ([]domain.EventReminder, error)
	ListDueResend(ctx context.Context, now time.Time, limit int) ([]domain.EventReminder, error)
	ClaimPublish(ctx context.Context, id string, now time.Time) (bool, error)
	ClaimResend(ctx context.Context, id string) (bool, error)
}

type GormEventRepo struct {
	db *gorm.DB
}

func NewGormEventRepo(db *gorm.DB) *GormEventRepo {
	return &GormEventRepo{db: db}
}

func (r *GormEventRepo) Create(ctx context.Context, e *domain.Event) error {
	model := eventModelFromDomain(e)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if e != nil {
		*e = *eventModelToDomain(model)
	}
	return nil
}

func (r *GormEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	var model EventModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return eventModelToDomain(&model), nil
}

type GormEventReminderRepo struct {
	db *gorm.DB
}

func NewGormEventReminderRepo(db *gorm.DB) *GormEventReminderRepo {
	return &GormEventReminderRepo{db: db}
}

func (r *GormEventReminderRepo) Create(ctx context.Context, reminder *domain.EventReminder) error {
	model := reminderModelFromDomain(reminder)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if reminder != nil {
		*reminder = *reminderModelToDomain(model)
	}
	return nil
}

func (r *GormEventReminderRepo) GetByID(ctx context.Context, id string) (*domain.EventReminder, error) {
	var model EventReminderModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return reminderModelToDomain(&model), nil
}

func (r *GormEventReminderRepo) ListDuePublish(ctx context.Context, now time.Time, limit int) ([]domain.EventReminder, error) {
	var models []EventReminderModel
	err := r.db.WithContext(ctx).
		Where("scheduled_at IS NOT NULL AND scheduled_at <= ? AND published_at IS NULL", now).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return reminderModelsToDomain(models), nil
}

func (r *GormEventReminderRepo) ListDueResend(ctx context.Context, now time.Time, limit int) ([]domain.EventReminder, error) {
	var models []EventReminderModel
	err := r.db.WithContext(ctx).
		Where("scheduled_resend_at IS NOT NULL AND scheduled_resend_at <= ?", now).
		Order("scheduled_resend_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return reminderModelsToDomain(models), nil
}

// ClaimPublish mirrors the announcement claim: a conditional update on
// published_at IS NULL, won by exactly one concurrent caller.
func (r *GormEventReminderRepo) ClaimPublish(ctx context.Context, id string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&EventReminderModel{}).
		Where("id = ? AND published_at IS NULL", id).
		Update("published_at", now)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *GormEventReminderRepo) ClaimResend(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&EventReminderModel{}).
		Where("id = ? AND scheduled_resend_at IS NOT NULL", id).
		Update("scheduled_resend_at", nil)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func reminderModelsToDomain(models []EventReminderModel) []domain.EventReminder {
	reminders := make([]domain.EventReminder, 0, len(models))
	for i := range models {
		reminders = append(reminders, *reminderModelToDomain(&models[i]))
	}
	return reminders
}
