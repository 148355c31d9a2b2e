package repository

import (
	"context"
	"errors"
	"time"

	"github.com/famboard/dispatch-engine/internal/domain"
	"gorm.io/gorm"
)

type AnnouncementRepository interface {
	Create(ctx context.Context, a *domain.Announcement) error
	GetByID(ctx context.Context, id string) (*domain.Announcement, error)
	ListDuePublish(ctx context.Context, now time.Time, limit int) ([]domain.Announcement, error)
	ListDueResend(ctx context.Context, now time.Time, limit int) ([]domain.Announcement, error)
	ClaimPublish(ctx context.Context, id string, now time.Time) (bool, error)
	ClaimResend(ctx context.Context, id string) (bool, error)
}

type GormAnnouncementRepo struct {
	db *gorm.DB
}

func NewGormAnnouncementRepo(db *gorm.DB) *GormAnnouncementRepo {
	return &GormAnnouncementRepo{db: db}
}

func (r *GormAnnouncementRepo) Create(ctx context.Context, a *domain.Announcement) error {
	model := announcementModelFromDomain(a)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if a != nil {
		*a = *announcementModelToDomain(model)
	}
	return nil
}

func (r *GormAnnouncementRepo) GetByID(ctx context.Context, id string) (*domain.Announcement, error) {
	var model AnnouncementModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return announcementModelToDomain(&model), nil
}

func (r *GormAnnouncementRepo) ListDuePublish(ctx context.Context, now time.Time, limit int) ([]domain.Announcement, error) {
	var models []AnnouncementModel
	err := r.db.WithContext(ctx).
		Where("scheduled_at IS NOT NULL AND scheduled_at <= ? AND published_at IS NULL", now).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return announcementModelsToDomain(models), nil
}

func (r *GormAnnouncementRepo) ListDueResend(ctx context.Context, now time.Time, limit int) ([]domain.Announcement, error) {
	var models []AnnouncementModel
	err := r.db.WithContext(ctx).
		Where("scheduled_resend_at IS NOT NULL AND scheduled_resend_at <= ?", now).
		Order("scheduled_resend_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return announcementModelsToDomain(models), nil
}

// ClaimPublish sets published_at with a conditional single-statement update.
// The WHERE predicate on published_at IS NULL makes the claim atomic at the
// storage layer; exactly one concurrent caller sees RowsAffected == 1.
func (r *GormAnnouncementRepo) ClaimPublish(ctx context.Context, id string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&AnnouncementModel{}).
		Where("id = ? AND published_at IS NULL", id).
		Update("published_at", now)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ClaimResend claims the resend trigger by clearing scheduled_resend_at.
// The resend has no dedicated "already sent" flag; clearing the trigger is
// the claim.
func (r *GormAnnouncementRepo) ClaimResend(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&AnnouncementModel{}).
		Where("id = ? AND scheduled_resend_at IS NOT NULL", id).
		Update("scheduled_resend_at", nil)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func announcementModelsToDomain(models []AnnouncementModel) []domain.Announcement {
	announcements := make([]domain.Announcement, 0, len(models))
	for i := range models {
		announcements = append(announcements, *announcementModelToDomain(&models[i]))
	}
	return announcements
}
