package repository

import (
	"context"

	"github.com/famboard/dispatch-engine/internal/domain"
	"gorm.io/gorm"
)

// AttemptRepository is the delivery ledger. The fan-out orchestrator is its
// only writer; reads serve delivery-progress reporting.
type AttemptRepository interface {
	Create(ctx context.Context, a *domain.DeliveryAttempt) error
	MarkSent(ctx context.Context, id string, providerMessageID string) error
	MarkFailed(ctx context.Context, id string, reason string) error
	ListByItem(ctx context.Context, itemType domain.ItemType, itemID string) ([]domain.DeliveryAttempt, error)
	CountByStatus(ctx context.Context, itemType domain.ItemType, itemID string) ([]domain.StatusCount, error)
}

type GormAttemptRepo struct {
	db *gorm.DB
}

func NewGormAttemptRepo(db *gorm.DB) *GormAttemptRepo {
	return &GormAttemptRepo{db: db}
}

func (r *GormAttemptRepo) Create(ctx context.Context, a *domain.DeliveryAttempt) error {
	model := attemptModelFromDomain(a)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if a != nil {
		*a = *attemptModelToDomain(model)
	}
	return nil
}

func (r *GormAttemptRepo) MarkSent(ctx context.Context, id string, providerMessageID string) error {
	updates := map[string]any{"status": domain.AttemptSent}
	if providerMessageID != "" {
		updates["provider_message_id"] = providerMessageID
	}
	return r.updateQueued(ctx, id, updates)
}

func (r *GormAttemptRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	return r.updateQueued(ctx, id, map[string]any{
		"status": domain.AttemptFailed,
		"error":  reason,
	})
}

// updateQueued only moves attempts out of QUEUED, keeping terminal states
// one-way at the storage layer as well.
func (r *GormAttemptRepo) updateQueued(ctx context.Context, id string, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&DeliveryAttemptModel{}).
		Where("id = ? AND status = ?", id, domain.AttemptQueued).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *GormAttemptRepo) ListByItem(ctx context.Context, itemType domain.ItemType, itemID string) ([]domain.DeliveryAttempt, error) {
	var models []DeliveryAttemptModel
	err := r.db.WithContext(ctx).
		Where("item_type = ? AND item_id = ?", itemType, itemID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	attempts := make([]domain.DeliveryAttempt, 0, len(models))
	for i := range models {
		attempts = append(attempts, *attemptModelToDomain(&models[i]))
	}
	return attempts, nil
}

func (r *GormAttemptRepo) CountByStatus(ctx context.Context, itemType domain.ItemType, itemID string) ([]domain.StatusCount, error) {
	type row struct {
		Status domain.AttemptStatus `gorm:"column:status"`
		Count  int                  `gorm:"column:count"`
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Model(&DeliveryAttemptModel{}).
		Select("status, COUNT(*) as count").
		Where("item_type = ? AND item_id = ?", itemType, itemID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make([]domain.StatusCount, 0, len(rows))
	for _, r := range rows {
		counts = append(counts, domain.StatusCount{Status: r.Status, Count: r.Count})
	}
	return counts, nil
}
